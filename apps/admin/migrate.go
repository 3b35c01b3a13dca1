package main

import (
	"errors"

	"github.com/gregoryekhator/debonairkent/storage/database"
)

var runMigrationsFunc = database.RunMigrations // mockable

var errNoSQL = errors.New("the database engine has no migrations")

func (cli *commandLine) migrate(args []string) error {
	db := cli.stack.Repos.SQL
	if db == nil {
		return errNoSQL
	}
	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return runMigrationsFunc(db, cli.stack.Conf.Database.Engine, args[0], arguments...)
}
