package main

import (
	"context"
	"fmt"

	"github.com/gregoryekhator/debonairkent/core/user"
)

type newUserArgs struct {
	username, firstName, lastName, email string
	roles                                []string
	password, confirm                    string
}

// addUser creates a user.User
func (cli *commandLine) addUser(a newUserArgs) error {
	usr, err := cli.stack.Users.Create(context.Background(), cli.stack.Validate, user.NewUser{
		Username:        a.username,
		FirstName:       a.firstName,
		LastName:        a.lastName,
		Email:           a.email,
		Password:        a.password,
		PasswordConfirm: a.confirm,
		Roles:           a.roles,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "user %q created with id %d\n", usr.Username, usr.ID)
	return nil
}
