// Package adminsettings defines the admin settings pages of the theme and validates the
// values written through them.
package adminsettings

import (
	"context"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/gregoryekhator/debonairkent/core"
	"github.com/gregoryekhator/debonairkent/core/settings"
)

// Kind is the input a setting is edited with.
type Kind string

const (
	KindHeading    Kind = "heading"
	KindText       Kind = "text"
	KindTextarea   Kind = "textarea"
	KindCheckbox   Kind = "checkbox"
	KindSelect     Kind = "select"
	KindStoredFile Kind = "storedfile"
)

// Param restricts the values of text settings.
type Param string

const (
	ParamRaw       Param = ""
	ParamURL       Param = "url"
	ParamInt       Param = "int"
	ParamHexColor  Param = "hexcolor"
	ParamCourseIDs Param = "courseids"
)

const (
	MaxItems = settings.MaxItems

	promotedDefaultCount = 7
)

var spotIcons = []string{"globe", "graduation-cap", "bullhorn", "mobile"}

type (
	Choice struct {
		Value string
		Label string
	}

	Setting struct {
		Name  string
		Kind  Kind
		Title string
		// Description is markdown.
		Description string
		Default     string
		Choices     []Choice
		Param       Param
	}

	Page struct {
		Name     string
		Title    string
		Settings []Setting
	}
)

// Writable reports whether the setting holds a value.
func (s Setting) Writable() bool {
	return s.Kind != KindHeading
}

// Anchor returns the id of the setting on its page, e.g. "theme_university_slides1".
func (s Setting) Anchor(component string) string {
	return component + "_" + s.Name
}

// pageName returns the section of a page, e.g. "theme_university_general".
func (m *Manager) pageName(name string) string {
	return m.component + "_" + name
}

// Pages returns the settings pages. The item settings of content types are listed up to the
// configured number of items.
func (m *Manager) Pages(ctx context.Context) ([]Page, error) {
	general, err := m.generalPage(ctx)
	if err != nil {
		return nil, err
	}
	theme, err := m.Theme(ctx)
	if err != nil {
		return nil, err
	}

	pages := []Page{general}
	for _, ct := range settings.ContentTypes() {
		r, err := settings.NewReader(theme, ct, m.formatter)
		if err != nil {
			return nil, err
		}
		pages = append(pages, m.contentTypePage(r))
	}
	return append(pages, m.footerPage()), nil
}

func (m *Manager) generalPage(ctx context.Context) (Page, error) {
	lang := m.lang

	courses, err := m.courses.QueryAvailableCourses(ctx)
	if err != nil {
		return Page{}, errors.Wrap(err, "querying available courses")
	}
	promoted := make([]string, 0, promotedDefaultCount)
	for _, c := range courses {
		if len(promoted) == promotedDefaultCount {
			break
		}
		promoted = append(promoted, strconv.Itoa(c.ID))
	}

	return Page{
		Name:  m.pageName("general"),
		Title: lang.Get("themegeneralsettings"),
		Settings: []Setting{
			{Name: "logo", Kind: KindStoredFile, Title: lang.Get("logo"), Description: lang.Get("logodesc")},
			{Name: "customcss", Kind: KindTextarea, Title: lang.Get("customcss"), Description: lang.Get("customcssdesc")},
			{
				Name:        "patternselect",
				Kind:        KindSelect,
				Title:       lang.Get("patternselect"),
				Description: lang.Get("patternselectdesc"),
				Default:     "default",
				Choices: []Choice{
					{"default", lang.Get("lavender")},
					{"1", lang.Get("green")},
					{"2", lang.Get("blue")},
					{"3", lang.Get("warm_red")},
					{"4", lang.Get("dark_cyan")},
				},
			},
			{Name: "promotedcoursesheading", Kind: KindHeading, Title: lang.Get("promotedcoursesheading")},
			{Name: "pcourseenable", Kind: KindCheckbox, Title: lang.Get("pcourseenable"), Default: "1"},
			{
				Name:        "promotedtitle",
				Kind:        KindText,
				Title:       lang.Get("pcourses") + " " + lang.Get("title"),
				Description: lang.Get("promotedtitledesc"),
				Default:     "lang:promotedtitledefault",
			},
			{
				Name:        "promotedcourses",
				Kind:        KindTextarea,
				Title:       lang.Get("pcourses"),
				Description: lang.Get("pcoursesdesc"),
				Default:     strings.Join(promoted, ","),
				Param:       ParamCourseIDs,
			},
		},
	}, nil
}

func (m *Manager) contentTypePage(r *settings.Reader) Page {
	ct := r.ContentType()

	countChoices := make([]Choice, 0, MaxItems)
	for i := 1; i <= MaxItems; i++ {
		countChoices = append(countChoices, Choice{strconv.Itoa(i), strconv.Itoa(i)})
	}
	page := Page{
		Name:  m.pageName(ct.Prefix),
		Title: m.lang.Get(ct.Heading),
		Settings: []Setting{{
			Name:        r.CountSetting(),
			Kind:        KindSelect,
			Title:       m.lang.Get("count"),
			Description: m.lang.Get("countdesc"),
			Default:     strconv.Itoa(ct.DefaultCount),
			Choices:     countChoices,
		}},
	}

	count := r.Count()
	for i := 1; i <= count; i++ {
		page.Settings = append(page.Settings, Setting{
			Name:  settings.UniqueID(ct.Prefix, i),
			Kind:  KindHeading,
			Title: m.lang.Get("item", i),
		})
		for _, keyword := range settings.Keywords {
			page.Settings = append(page.Settings, m.itemSetting(ct, keyword, i))
		}
	}
	return page
}

// itemSetting returns the definition of the keyword field of an item.
func (m *Manager) itemSetting(ct settings.ContentType, keyword settings.Keyword, index int) Setting {
	s := Setting{
		Name:        settings.SettingName(keyword, ct.Prefix, index),
		Kind:        KindText,
		Title:       m.lang.Get(string(keyword)),
		Description: m.lang.Get(string(keyword) + "desc"),
	}

	switch keyword {
	case settings.KeywordContent:
		s.Kind = KindTextarea
	case settings.KeywordURL:
		s.Param = ParamURL
	case settings.KeywordBootstrapColor:
		s.Kind = KindSelect
		s.Default = core.BootstrapColors[0]
		for _, c := range core.BootstrapColors {
			s.Choices = append(s.Choices, Choice{c, c})
		}
	case settings.KeywordHexColor:
		s.Param = ParamHexColor
		s.Default = "#1177d1"
	case settings.KeywordImage:
		s.Kind = KindStoredFile
	case settings.KeywordFontAwesomeIcon:
		s.Title = m.lang.Get("icon")
		s.Description = m.lang.Get("faicondesc")
	}

	switch ct.Prefix {
	case settings.Slides.Prefix:
		switch keyword {
		case settings.KeywordTitle:
			s.Default = "lang:slidecaptiondefault"
		case settings.KeywordLinkText:
			s.Default = "lang:knowmore"
		case settings.KeywordURL:
			s.Default = "http://www.example.com/"
		}
	case settings.Spots.Prefix:
		if index > len(spotIcons) {
			break
		}
		switch keyword {
		case settings.KeywordTitle:
			s.Default = "lang:mspot" + strconv.Itoa(index) + "titledefault"
		case settings.KeywordContent:
			s.Default = "lang:mspot" + strconv.Itoa(index) + "descdefault"
		case settings.KeywordFontAwesomeIcon:
			s.Default = spotIcons[index-1]
		}
	}
	return s
}

func (m *Manager) footerPage() Page {
	lang := m.lang
	block := func(n int) Setting {
		return Setting{
			Name:  "footerblock" + strconv.Itoa(n) + "heading",
			Kind:  KindHeading,
			Title: lang.Get("footerblock") + " " + strconv.Itoa(n),
		}
	}
	blockTitle := func(n int) Setting {
		return Setting{
			Name:        "footerbtitle" + strconv.Itoa(n),
			Kind:        KindText,
			Title:       lang.Get("footerblock") + " " + lang.Get("title") + " " + strconv.Itoa(n),
			Description: lang.Get("footerbtitle_desc"),
			Default:     "lang:footerbtitle" + strconv.Itoa(n) + "default",
		}
	}
	social := func(name string) Setting {
		return Setting{
			Name:        name,
			Kind:        KindText,
			Title:       lang.Get(name),
			Description: lang.Get(name + "desc"),
			Default:     lang.Get(name + "_default"),
			Param:       ParamURL,
		}
	}

	return Page{
		Name:  m.pageName("footer"),
		Title: lang.Get("footerheading"),
		Settings: []Setting{
			block(1),
			{Name: "footerblklogo", Kind: KindCheckbox, Title: lang.Get("footerblklogo"), Default: "1"},
			{Name: "footnote", Kind: KindTextarea, Title: lang.Get("footnote"), Description: lang.Get("footnotedesc"), Default: "lang:footnotedefault"},
			block(2),
			blockTitle(2),
			{
				Name:        "footerblink2",
				Kind:        KindTextarea,
				Title:       lang.Get("footerblink") + " 2",
				Description: lang.Get("footerblink_desc"),
				Default:     lang.Get("footerblink2default"),
			},
			block(3),
			blockTitle(3),
			social("fburl"),
			social("twurl"),
			social("gpurl"),
			social("pinurl"),
			block(4),
			blockTitle(4),
			{Name: "address", Kind: KindText, Title: lang.Get("address"), Default: lang.Get("defaultaddress")},
			{Name: "phoneno", Kind: KindText, Title: lang.Get("phoneno"), Default: lang.Get("defaultphoneno")},
			{Name: "emailid", Kind: KindText, Title: lang.Get("emailid"), Default: lang.Get("defaultemailid")},
			{Name: "copyright", Kind: KindText, Title: lang.Get("copyright"), Default: lang.Get("copyright_default")},
		},
	}
}
