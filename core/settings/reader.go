package settings

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/volatiletech/strmangle"

	"github.com/gregoryekhator/debonairkent/core/text"
)

const settingsPageURL = "/admin/settings.php"

// fieldHandler post-processes the non-empty value of a field.
type fieldHandler func(r *Reader, setting, value string) string

// fieldHandlers are looked up per keyword; keywords without a handler keep their raw value.
var fieldHandlers = map[Keyword]fieldHandler{
	KeywordImage: func(r *Reader, setting, _ string) string {
		return r.theme.SettingFileURL(setting, setting)
	},
	KeywordContent: func(r *Reader, _, value string) string {
		return r.formatter.FormatText(value, text.FormatHTML)
	},
	KeywordTitle:    formatString,
	KeywordLinkText: formatString,
}

func formatString(r *Reader, _, value string) string {
	return r.formatter.FormatString(value)
}

// Item is one numbered content unit. The zero Item is the invalid item.
type Item struct {
	Fields   map[Keyword]string
	UniqueID string
	Index    int
	EditLink string
}

func (it Item) IsValid() bool {
	return it.UniqueID != ""
}

func (it Item) Get(keyword Keyword) string {
	return it.Fields[keyword]
}

// Export returns the template data of the item.
func (it Item) Export() map[string]interface{} {
	data := make(map[string]interface{}, len(it.Fields)+3)
	for k, v := range it.Fields {
		data[string(k)] = v
	}
	if it.IsValid() {
		data["uniqueid"] = it.UniqueID
		data["index"] = it.Index
		data["editlink"] = it.EditLink
	}
	return data
}

// Collection is the ordered list of the valid items of a content type.
type Collection struct {
	Prefix        string
	Items         []Item
	NoContent     bool
	GetStartedURL string
}

func (c Collection) ItemCount() int {
	return len(c.Items)
}

// Export returns the template data of the collection: the items under the prefix,
// an "itemcount<N>" flag and, when there are no items, "nocontent" with a "getstartedurl".
func (c Collection) Export() map[string]interface{} {
	items := make([]map[string]interface{}, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, it.Export())
	}

	data := map[string]interface{}{
		c.Prefix:                                 items,
		"itemcount" + strconv.Itoa(len(c.Items)): true,
	}
	if c.NoContent {
		data["nocontent"] = true
		data["getstartedurl"] = c.GetStartedURL
	}
	return data
}

// Reader reads the items of one content type from a theme configuration.
type Reader struct {
	theme     Theme
	ct        ContentType
	formatter Formatter
}

func NewReader(theme Theme, ct ContentType, formatter Formatter) (*Reader, error) {
	err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(theme.Name, "theme.Name"),
		vala.StringNotEmpty(ct.Prefix, "contentType.Prefix"),
		vala.IsNotNil(formatter, "formatter"),
	).Check()
	if err != nil {
		return nil, errors.Wrap(err, "invalid reader arguments")
	}
	return &Reader{theme: theme, ct: ct, formatter: formatter}, nil
}

func (r *Reader) ContentType() ContentType {
	return r.ct
}

// CountSetting is the config key overriding the number of items.
func (r *Reader) CountSetting() string {
	return r.theme.Name + "_" + r.ct.Prefix + "count"
}

// Count returns the number of indices to read, at most MaxItems.
func (r *Reader) Count() int {
	v := strings.TrimSpace(r.theme.Get(r.CountSetting()))
	if v == "" {
		return r.ct.DefaultCount
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return r.ct.DefaultCount
	}
	switch {
	case n < 0:
		return 0
	case n > MaxItems:
		return MaxItems
	}
	return n
}

// Item reads the item at index. Items whose only values are defaulted fields are invalid.
func (r *Reader) Item(index int) Item {
	fields := make(map[Keyword]string)
	for _, keyword := range Keywords {
		setting := SettingName(keyword, r.ct.Prefix, index)
		value := r.theme.Get(setting)
		if isEmpty(value) {
			continue
		}
		if handler, ok := fieldHandlers[keyword]; ok {
			value = handler(r, setting, value)
		}
		fields[keyword] = value
	}

	var filled int
	for keyword := range fields {
		if !DefaultedKeywords[keyword] {
			filled++
		}
	}
	if filled == 0 {
		return Item{}
	}

	return Item{
		Fields:   fields,
		UniqueID: UniqueID(r.ct.Prefix, index),
		Index:    index,
		EditLink: r.EditLink(index),
	}
}

// isEmpty reports whether a stored value counts as unset; "0" is the value of a cleared field.
func isEmpty(value string) bool {
	return value == "" || value == "0"
}

// Items returns the valid items of indices 1..Count in index order.
func (r *Reader) Items() []Item {
	count := r.Count()
	items := make([]Item, 0, count)
	for i := 1; i <= count; i++ {
		if it := r.Item(i); it.IsValid() {
			items = append(items, it)
		}
	}
	return items
}

func (r *Reader) Settings() Collection {
	c := Collection{Prefix: r.ct.Prefix, Items: r.Items()}
	if len(c.Items) == 0 {
		c.NoContent = true
		c.GetStartedURL = r.EditLink(1)
	}
	return c
}

func (r *Reader) ExportForTemplate() map[string]interface{} {
	return r.Settings().Export()
}

// Single returns the template data of the item at index; the edit link is set even when
// the item is empty so that it can be configured.
func (r *Reader) Single(index int) map[string]interface{} {
	data := r.Item(index).Export()
	data["editlink"] = r.EditLink(index)
	return data
}

// EditLink returns the admin settings page anchor of the item at index.
func (r *Reader) EditLink(index int) string {
	return EditLink(r.theme.Name, r.ct.Prefix, index)
}

func (r *Reader) TemplateName() string {
	return r.theme.Component() + "/" + r.ct.Prefix
}

func (r *Reader) SingleTemplateName() string {
	return r.theme.Component() + "/" + strmangle.Singular(r.ct.Prefix) + "_single"
}

// UniqueID returns the id of the item prefix+index.
func UniqueID(prefix string, index int) string {
	return prefix + strconv.Itoa(index)
}

// EditLink returns "/admin/settings.php?section=theme_<theme>_<prefix>#theme_<theme>_<prefix><index>".
func EditLink(themeName, prefix string, index int) string {
	section := "theme_" + themeName + "_" + prefix
	u := url.URL{
		Path:     settingsPageURL,
		RawQuery: url.Values{"section": {section}}.Encode(),
		Fragment: section + strconv.Itoa(index),
	}
	return u.String()
}
