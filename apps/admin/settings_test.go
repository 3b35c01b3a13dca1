package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gregoryekhator/debonairkent/core/user"
	emailsvc "github.com/gregoryekhator/debonairkent/services/email"
	"github.com/gregoryekhator/debonairkent/storage/database"
)

func Test_commandLine_token(t *testing.T) {
	cli, out := setup(t, database.EngineInMem)

	passwords(t, "nope")
	assert.Equal(t, user.ErrInvalidCredentials, cli.run([]string{"admin", "token", "-username", "sam"}))

	passwords(t, "sam-pass")
	require.NoError(t, cli.run([]string{"admin", "token", "-username", "sam"}))
	assert.NotEmpty(t, out.String())
}

func Test_commandLine_defaults(t *testing.T) {
	cli, out := setup(t, database.EngineInMem)

	require.NoError(t, cli.run([]string{"admin", "defaults"}))
	assert.Regexp(t, `^[1-9]\d* settings set to their default\n$`, out.String())

	theme, err := cli.stack.Settings.Theme(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "graduation-cap", theme.Get("fontawesomeicon_spots2"))

	entries, err := cli.stack.Repos.Store.QueryConfigLog(context.Background(), cli.stack.Settings.Component())
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, cliUserID, entries[0].UserID)
}

func Test_commandLine_exportImport(t *testing.T) {
	for _, engine := range []string{database.EngineInMem, database.EngineSQLite} {
		t.Run(engine, func(t *testing.T) {
			cli, out := setup(t, engine)
			ctx := context.Background()
			file := filepath.Join(t.TempDir(), "settings.tar.gz")

			require.NoError(t, cli.stack.Settings.Set(ctx, 2, "title_spots1", "Libraries"))
			require.NoError(t, cli.run([]string{"admin", "exportsettings", "-out", file}))
			assert.Contains(t, out.String(), "exported to "+file)

			require.NoError(t, cli.stack.Settings.Set(ctx, 2, "title_spots1", "Changed"))
			out.Reset()
			require.NoError(t, cli.run([]string{"admin", "importsettings", "-file", file}))
			assert.Contains(t, out.String(), "success: ")

			theme, err := cli.stack.Settings.Theme(ctx)
			require.NoError(t, err)
			assert.Equal(t, "Libraries", theme.Get("title_spots1"))
		})
	}
}

func Test_commandLine_importInvalid(t *testing.T) {
	cli, out := setup(t, database.EngineInMem)

	file := filepath.Join(t.TempDir(), "garbage.tar.gz")
	require.NoError(t, os.WriteFile(file, []byte("garbage"), 0o600))
	assert.Equal(t, errImportFailed, cli.run([]string{"admin", "importsettings", "-file", file}))
	assert.Contains(t, out.String(), "error: ")

	assert.Error(t, cli.run([]string{"admin", "importsettings", "-file", file + ".missing"}))
}

func Test_commandLine_emailSettings(t *testing.T) {
	cli, out := setup(t, database.EngineInMem)
	before := len(emailsvc.SentMessages)

	require.NoError(t, cli.run([]string{"admin", "exportsettings", "-email", "ops@example.com, admin@example.com"}))
	assert.Contains(t, out.String(), "sent to 2 recipients")
	require.Len(t, emailsvc.SentMessages, before+1)
	assert.Len(t, emailsvc.SentMessages[before].To, 2)
}

func Test_commandLine_fakeSettings(t *testing.T) {
	cli, out := setup(t, database.EngineInMem)

	tests := []struct {
		args      []string
		prefix    string
		wantItems int
	}{
		{[]string{"-prefix", "spots"}, "spots", 4},
		{[]string{"-prefix", "spots", "-max", "2"}, "spots", 2},
		{[]string{"-prefix", "logos", "-max", "3"}, "logos", 3},
	}
	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			out.Reset()
			require.NoError(t, cli.run(append([]string{"admin", "fakesettings"}, tt.args...)))

			var data map[string]interface{}
			require.NoError(t, json.Unmarshal(out.Bytes(), &data))
			assert.Len(t, data[tt.prefix], tt.wantItems)
		})
	}
}
