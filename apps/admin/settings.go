package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	echoapi "github.com/gregoryekhator/debonairkent/apps/api/echo"
	"github.com/gregoryekhator/debonairkent/core/fake"
	"github.com/gregoryekhator/debonairkent/core/settings"
	"github.com/gregoryekhator/debonairkent/core/user"
)

// cliUserID is the user changes made from the command line are logged for.
const cliUserID = 0

var errImportFailed = errors.New("import failed")

func (cli *commandLine) token(uname, pwd string) error {
	usr, err := cli.stack.Users.Authenticate(context.Background(), user.Credentials{Username: uname, Password: pwd})
	if err != nil {
		return err
	}
	token, err := echoapi.NewTokens(cli.stack.Conf).UserToken(usr)
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.out, token)
	return nil
}

func (cli *commandLine) applyDefaults() error {
	n, err := cli.stack.Settings.ApplyDefaults(context.Background(), cliUserID)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%d settings set to their default\n", n)
	return nil
}

func (cli *commandLine) exportSettings(out string) error {
	f, err := os.Create(out)
	if err != nil {
		return errors.Wrap(err, "creating archive")
	}
	archive, err := cli.stack.Porter.Export(context.Background(), f)
	if cErr := f.Close(); err == nil {
		err = cErr
	}
	if err != nil {
		_ = os.Remove(out)
		return err
	}

	size := "?"
	if info, err := os.Stat(out); err == nil {
		size = humanize.Bytes(uint64(info.Size()))
	}
	fmt.Fprintf(cli.out, "%d settings and %d files exported to %s (%s)\n", archive.SettingCount, archive.FileCount, out, size)
	return nil
}

func (cli *commandLine) emailSettings(to []string) error {
	archive, err := cli.stack.Porter.EmailExport(context.Background(), cli.mail, to...)
	if err != nil {
		return err
	}
	if w, ok := cli.mail.(interface{ Wait() }); ok {
		w.Wait()
	}
	fmt.Fprintf(cli.out, "%s sent to %d recipients\n", archive.Name, len(to))
	return nil
}

func (cli *commandLine) importSettings(file string) error {
	f, err := os.Open(file)
	if err != nil {
		return errors.Wrap(err, "opening archive")
	}
	defer f.Close()

	res, err := cli.stack.Porter.Import(context.Background(), cliUserID, f)
	if err != nil {
		return err
	}
	for _, n := range res.Notices {
		fmt.Fprintf(cli.out, "%s: %s\n", n.Level, n.Message)
	}
	if res.Failed() {
		return errImportFailed
	}
	return nil
}

func (cli *commandLine) fakeSettings(prefix string, max int) error {
	ct, ok := settings.Lookup(prefix)
	if !ok {
		return errors.Errorf("unknown content type %q", prefix)
	}
	if max <= 0 {
		max = ct.DefaultCount
	}

	theme, err := fake.NewTheme(cli.stack.Conf.ThemeName, max, fake.Variant(ct.FakeVariant))
	if err != nil {
		return err
	}
	r, err := settings.NewReader(theme, ct, cli.stack.Formatter)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cli.out)
	enc.SetIndent("", "  ")
	return enc.Encode(r.ExportForTemplate())
}
