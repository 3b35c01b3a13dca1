// Package fs embeds the static files shipped with the binaries.
package fs

import "embed"

var (
	//go:embed migrations/*/*.sql
	Migrations embed.FS

	//go:embed fixtures/*.json fixtures/*.yaml
	Fixtures embed.FS

	//go:embed templates/theme/*.gohtml
	ThemeTemplates embed.FS

	//go:embed templates/email/*
	EmailTemplates embed.FS
)

const (
	ThemeTemplatesDir = "templates/theme"
	EmailTemplatesDir = "templates/email"
)

// MigrationsDir returns the directory of the migrations of the database engine.
func MigrationsDir(engine string) string {
	return "migrations/" + engine
}
