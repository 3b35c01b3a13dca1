package main

import (
	"bytes"
	"database/sql"
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/gregoryekhator/debonairkent/apps/api/echo"
	"github.com/gregoryekhator/debonairkent/apps/shared"
	"github.com/gregoryekhator/debonairkent/core"
	"github.com/gregoryekhator/debonairkent/core/user"
	emailsvc "github.com/gregoryekhator/debonairkent/services/email"
	"github.com/gregoryekhator/debonairkent/storage/database"
)

func setup(t *testing.T, engine string) (*commandLine, *bytes.Buffer) {
	conf := core.NewTestConfig()
	conf.Database.Engine = engine

	repos, err := shared.OpenRepositories(conf, engine != database.EngineInMem)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.Close() })
	stack, err := shared.NewStack(conf, repos)
	require.NoError(t, err)

	out := new(bytes.Buffer)
	return &commandLine{stack: stack, mail: emailsvc.NewConsoleServiceMock(conf), out: out}, out
}

// passwords makes the password prompts answer pwds in order.
func passwords(t *testing.T, pwds ...string) {
	orig := readPasswordFunc
	readPasswordFunc = func(int) ([]byte, error) {
		if len(pwds) == 0 {
			return nil, nil
		}
		pwd := pwds[0]
		pwds = pwds[1:]
		return []byte(pwd), nil
	}
	t.Cleanup(func() { readPasswordFunc = orig })
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
}

func (tt cliTest) check(t *testing.T, err error) {
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, err)
	case tt.wantErrStr != "":
		require.Error(t, err)
		assert.Equal(t, tt.wantErrStr, err.Error())
	default:
		assert.NoError(t, err)
	}
}

func Test_commandLine_run(t *testing.T) {
	cli, _ := setup(t, database.EngineInMem)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "migrate: no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "migrate: in memory", args: []string{"migrate", "up"}, wantErr: errNoSQL},
		{name: "adduser: no username", args: []string{"adduser"}, wantErr: errHelp},
		{name: "token: no username", args: []string{"token"}, wantErr: errHelp},
		{name: "token: no password", args: []string{"token", "-username", "sam"}, wantErr: errHelp},
		{name: "exportsettings: no target", args: []string{"exportsettings"}, wantErr: errHelp},
		{name: "exportsettings: both targets", args: []string{"exportsettings", "-out", "a.tar.gz", "-email", "a@b.c"}, wantErr: errHelp},
		{name: "importsettings: no file", args: []string{"importsettings"}, wantErr: errHelp},
		{name: "fakesettings: no prefix", args: []string{"fakesettings"}, wantErr: errHelp},
		{name: "fakesettings: unknown prefix", args: []string{"fakesettings", "-prefix", "banners"}, wantErrStr: `unknown content type "banners"`},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(args))
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _ := setup(t, database.EngineSQLite)

	orig := runMigrationsFunc
	t.Cleanup(func() { runMigrationsFunc = orig })
	runMigrationsFunc = func(db *sql.DB, engine, command string, args ...string) error {
		if engine != database.EngineSQLite {
			return fmt.Errorf("unexpected engine %q", engine)
		}
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "1"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(args))
		})
	}
}

func Test_commandLine_migrateStatus(t *testing.T) {
	cli, _ := setup(t, database.EngineSQLite)
	assert.NoError(t, cli.run([]string{"admin", "migrate", "status"}))
}

func Test_commandLine_addUser(t *testing.T) {
	for _, engine := range []string{database.EngineInMem, database.EngineSQLite} {
		t.Run(engine, func(t *testing.T) {
			cli, out := setup(t, engine)

			tests := []struct {
				name    string
				args    []string
				pwds    []string
				wantErr bool
			}{
				{"passwords differ", []string{"-username", "kim", "-firstname", "Kim"}, []string{"kim-password", "other-password"}, true},
				{"too short", []string{"-username", "kim", "-firstname", "Kim"}, []string{"kim", "kim"}, true},
				{"no first name", []string{"-username", "kim"}, []string{"kim-password", "kim-password"}, true},
				{"created", []string{"-username", "Kim", "-firstname", "Kim", "-email", "kim@example.com", "-roles", "admin, manager"}, []string{"kim-password", "kim-password"}, false},
				{"exists", []string{"-username", "kim", "-firstname", "Kim"}, []string{"kim-password", "kim-password"}, true},
			}
			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					passwords(t, tt.pwds...)
					err := cli.run(append([]string{"admin", "adduser"}, tt.args...))
					if tt.wantErr {
						assert.Error(t, err)
					} else {
						assert.NoError(t, err)
					}
				})
			}
			assert.Contains(t, out.String(), `user "kim" created`)

			passwords(t, "kim-password")
			out.Reset()
			require.NoError(t, cli.run([]string{"admin", "token", "-username", "kim"}))
			token, err := echoapi.NewTokens(cli.stack.Conf).Parse(string(bytes.TrimSpace(out.Bytes())))
			require.NoError(t, err)
			claims := token.Claims.(*echoapi.Claims)
			assert.Equal(t, "kim", claims.Username)
			assert.True(t, claims.IsAdmin)
			assert.ElementsMatch(t, []string{user.RoleAdmin, user.RoleManager}, claims.Roles)
		})
	}
}
