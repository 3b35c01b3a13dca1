// Package settings reads the numbered content items (slides, marketing spots, testimonials..)
// configured in the theme settings.
//
// An item is addressed by a content type prefix and a 1-based index: the title of the second
// slide is stored under "title_slides2". Items whose fields are all empty are skipped, so a
// collection may be sparse.
package settings

import (
	"strings"

	"github.com/volatiletech/null/v8"

	"github.com/gregoryekhator/debonairkent/core/text"
)

type (
	// Source is a keyed lookup into the theme configuration.
	Source interface {
		Get(name string) null.String
	}

	// FileResolver returns a servable url for a file uploaded through a setting.
	FileResolver interface {
		SettingFileURL(setting, filearea string) string
	}

	// Formatter sanitises values before they reach templates.
	Formatter interface {
		FormatText(s string, format text.Format) string
		FormatString(s string) string
	}

	// Theme is the configuration of one theme.
	Theme struct {
		Name     string
		Settings Source
		Files    FileResolver
	}

	// MapSource is a Source backed by a map; unset keys are null.
	MapSource map[string]string
)

func (m MapSource) Get(name string) null.String {
	v, ok := m[name]
	return null.NewString(v, ok)
}

// Component returns the plugin name of the theme, e.g. "theme_university".
func (t Theme) Component() string {
	return "theme_" + t.Name
}

// Get returns the value of a setting, or "" when it is absent.
func (t Theme) Get(name string) string {
	if t.Settings == nil {
		return ""
	}
	return t.Settings.Get(name).String
}

// SettingFileURL resolves the url of the file stored for setting.
func (t Theme) SettingFileURL(setting, filearea string) string {
	if t.Files == nil {
		return ""
	}
	return t.Files.SettingFileURL(setting, filearea)
}

// Keyword is a field of a settings item.
type Keyword string

const (
	KeywordTitle           Keyword = "title"
	KeywordContent         Keyword = "content"
	KeywordLinkText        Keyword = "linktext"
	KeywordURL             Keyword = "url"
	KeywordBootstrapColor  Keyword = "bootstrapcolor"
	KeywordHexColor        Keyword = "hexcolor"
	KeywordImage           Keyword = "image"
	KeywordFontAwesomeIcon Keyword = "fontawesomeicon"
)

var (
	// Keywords are read in this order.
	Keywords = []Keyword{
		KeywordTitle,
		KeywordContent,
		KeywordLinkText,
		KeywordURL,
		KeywordBootstrapColor,
		KeywordHexColor,
		KeywordImage,
		KeywordFontAwesomeIcon,
	}

	// DefaultedKeywords always hold a value through their defaults, so they do not make an
	// item worth showing on their own. Keywords gaining a default must be added here.
	DefaultedKeywords = map[Keyword]bool{
		KeywordBootstrapColor: true,
		KeywordHexColor:       true,
	}
)

// SettingName returns the config key of keyword for the item prefix+index, e.g. "title_slides2".
func SettingName(keyword Keyword, prefix string, index int) string {
	return string(keyword) + "_" + UniqueID(prefix, index)
}

// ParseSettingName splits a setting name built by SettingName.
func ParseSettingName(name string) (keyword Keyword, prefix string, index int, ok bool) {
	pos := strings.Index(name, "_")
	if pos <= 0 {
		return "", "", 0, false
	}
	keyword = Keyword(name[:pos])
	rest := name[pos+1:]
	digits := len(rest)
	for digits > 0 && rest[digits-1] >= '0' && rest[digits-1] <= '9' {
		digits--
	}
	if digits == 0 || digits == len(rest) {
		return "", "", 0, false
	}
	for _, c := range rest[digits:] {
		index = index*10 + int(c-'0')
	}
	return keyword, rest[:digits], index, true
}
