package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/gregoryekhator/debonairkent/apps/shared"
	"github.com/gregoryekhator/debonairkent/core"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	stack *shared.Stack
	mail  core.EmailService
	out   io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run the goose COMMAND on the database migrations")
	fmt.Fprintln(cli.out, "  adduser -username USERNAME -firstname NAME [-lastname NAME] [-email EMAIL] [-roles ROLE,...] - create a user")
	fmt.Fprintln(cli.out, "  token -username USERNAME - print an API token of the user")
	fmt.Fprintln(cli.out, "  defaults - store the default value of every unset theme setting")
	fmt.Fprintln(cli.out, "  exportsettings -out FILE | -email EMAIL,... - export the theme settings")
	fmt.Fprintln(cli.out, "  importsettings -file FILE - import theme settings exported by exportsettings")
	fmt.Fprintln(cli.out, "  fakesettings -prefix PREFIX [-max N] - print a content type filled with fake values")
}

// promptPassword reads a password from the terminal.
func (cli *commandLine) promptPassword(label string) (string, error) {
	fmt.Fprint(cli.out, label)
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

// splitList returns the trimmed non empty values of the comma separated s.
func splitList(s string) []string {
	var values []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserUname := addUserCmd.String("username", "", "The username. The password will be prompted next.")
	addUserFirstName := addUserCmd.String("firstname", "", "The first name.")
	addUserLastName := addUserCmd.String("lastname", "", "The last name.")
	addUserEmail := addUserCmd.String("email", "", "The email address.")
	addUserRoles := addUserCmd.String("roles", "", "Comma separated system roles, e.g. admin.")

	tokenCmd := flag.NewFlagSet("token", flag.ContinueOnError)
	tokenUname := tokenCmd.String("username", "", "The username. The password will be prompted next.")

	exportCmd := flag.NewFlagSet("exportsettings", flag.ContinueOnError)
	exportOut := exportCmd.String("out", "", "The archive file to write.")
	exportEmail := exportCmd.String("email", "", "Comma separated addresses to mail the archive to.")

	importCmd := flag.NewFlagSet("importsettings", flag.ContinueOnError)
	importFile := importCmd.String("file", "", "The archive file to import.")

	fakeCmd := flag.NewFlagSet("fakesettings", flag.ContinueOnError)
	fakePrefix := fakeCmd.String("prefix", "", "The content type prefix, e.g. spots.")
	fakeMax := fakeCmd.Int("max", 0, "The number of items, the content type default when 0.")

	for _, fs := range []*flag.FlagSet{addUserCmd, tokenCmd, exportCmd, importCmd, fakeCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserUname == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword("Enter password:")
		if err != nil {
			return err
		}
		confirm, err := cli.promptPassword("Confirm password:")
		if err != nil {
			return err
		}
		return cli.addUser(newUserArgs{
			username:  *addUserUname,
			firstName: *addUserFirstName,
			lastName:  *addUserLastName,
			email:     *addUserEmail,
			roles:     splitList(*addUserRoles),
			password:  pwd,
			confirm:   confirm,
		})

	case "token":
		if err := tokenCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *tokenUname == "" {
			tokenCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword("Enter password:")
		if err != nil {
			return err
		}
		if pwd == "" {
			tokenCmd.Usage()
			return errHelp
		}
		return cli.token(*tokenUname, pwd)

	case "defaults":
		return cli.applyDefaults()

	case "exportsettings":
		if err := exportCmd.Parse(args[2:]); err != nil {
			return err
		}
		to := splitList(*exportEmail)
		if (*exportOut == "") == (len(to) == 0) {
			exportCmd.Usage()
			return errHelp
		}
		if len(to) > 0 {
			return cli.emailSettings(to)
		}
		return cli.exportSettings(*exportOut)

	case "importsettings":
		if err := importCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *importFile == "" {
			importCmd.Usage()
			return errHelp
		}
		return cli.importSettings(*importFile)

	case "fakesettings":
		if err := fakeCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *fakePrefix == "" {
			fakeCmd.Usage()
			return errHelp
		}
		return cli.fakeSettings(*fakePrefix, *fakeMax)

	default:
		cli.printUsage()
		return errHelp
	}
}
