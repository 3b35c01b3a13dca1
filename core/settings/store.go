package settings

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
)

// SystemContextID is the context files of the theme are stored in.
const SystemContextID = 1

type (
	// ConfigLog records a change of a plugin setting.
	ConfigLog struct {
		ID           int         `db:"id" json:"id"`
		UserID       int         `db:"userid" json:"userid"`
		TimeModified time.Time   `db:"timemodified" json:"timemodified"`
		Plugin       string      `db:"plugin" json:"plugin"`
		Name         string      `db:"name" json:"name"`
		OldValue     null.String `db:"oldvalue" json:"oldvalue"`
		Value        null.String `db:"value" json:"value"`
		Diff         string      `db:"diff" json:"diff"`
	}

	// Store is the writable plugin configuration.
	Store interface {
		GetConfig(ctx context.Context, plugin, name string) (null.String, error)
		SetConfig(ctx context.Context, plugin, name string, value null.String) error
		AllConfig(ctx context.Context, plugin string) (map[string]string, error)
		DeleteConfig(ctx context.Context, plugin, name string) error
		AddConfigLog(ctx context.Context, entry ConfigLog) error
		QueryConfigLog(ctx context.Context, plugin string) ([]ConfigLog, error)
	}

	// File is a file stored in a file area of a component.
	File struct {
		ID           int       `db:"id" json:"id"`
		ContentHash  string    `db:"contenthash" json:"contenthash"`
		Component    string    `db:"component" json:"component"`
		FileArea     string    `db:"filearea" json:"filearea"`
		FilePath     string    `db:"filepath" json:"filepath"`
		FileName     string    `db:"filename" json:"filename"`
		MimeType     string    `db:"mimetype" json:"mimetype"`
		Content      []byte    `db:"content" json:"-"`
		TimeModified time.Time `db:"timemodified" json:"timemodified"`
	}

	// FileStore stores the files uploaded through file settings.
	FileStore interface {
		// PutFile replaces the files of the area of f.
		PutFile(ctx context.Context, f File) (File, error)
		GetAreaFiles(ctx context.Context, component, filearea string) ([]File, error)
		DeleteAreaFiles(ctx context.Context, component, filearea string) error
	}
)

// ContentHash returns the sha1 hex digest files are stored under.
func ContentHash(content []byte) string {
	sum := sha1.Sum(content)
	return hex.EncodeToString(sum[:])
}

// Path returns the path of the file in its area, e.g. "/logo.png".
func (f File) Path() string {
	return f.FilePath + f.FileName
}

// PluginFileResolver builds pluginfile.php urls for the files of a theme.
type PluginFileResolver struct {
	WWWRoot   string
	Component string
	Settings  Source
}

// SettingFileURL returns "<wwwroot>/pluginfile.php/1/<component>/<filearea>/0<path>",
// path being the value of setting.
func (pr PluginFileResolver) SettingFileURL(setting, filearea string) string {
	if pr.Settings == nil {
		return ""
	}
	path := pr.Settings.Get(setting).String
	if path == "" {
		return ""
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return pr.WWWRoot + "/pluginfile.php/1/" + pr.Component + "/" + filearea + "/0" + path
}

// LoadTheme snapshots the configuration of a theme from store.
func LoadTheme(ctx context.Context, store Store, name, wwwRoot string) (Theme, error) {
	theme := Theme{Name: name}
	values, err := store.AllConfig(ctx, theme.Component())
	if err != nil {
		return Theme{}, errors.Wrap(err, "loading theme settings")
	}
	source := MapSource(values)
	theme.Settings = source
	theme.Files = PluginFileResolver{WWWRoot: wwwRoot, Component: theme.Component(), Settings: source}
	return theme, nil
}
