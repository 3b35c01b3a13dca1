package adminsettings

import (
	"context"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/volatiletech/null/v8"

	"github.com/gregoryekhator/debonairkent/core"
	"github.com/gregoryekhator/debonairkent/core/course"
	"github.com/gregoryekhator/debonairkent/core/settings"
	"github.com/gregoryekhator/debonairkent/core/text"
)

var (
	ErrUnknownSetting = errors.New("unknown setting")
	ErrNotWritable    = errors.New("setting does not hold a value")
)

var NowFunc = time.Now // mockable

type Manager struct {
	store      settings.Store
	files      settings.FileStore
	courses    course.Repository
	validate   *validator.Validate
	translator ut.Translator
	lang       *core.Lang
	formatter  *text.Formatter
	themeName  string
	component  string
	wwwRoot    string
}

func NewManager(
	conf *core.Config,
	store settings.Store,
	files settings.FileStore,
	courses course.Repository,
	validate *validator.Validate,
	translator ut.Translator,
	lang *core.Lang,
) (*Manager, error) {
	if err := vala.BeginValidation().Validate(
		vala.IsNotNil(conf, "conf"),
		vala.IsNotNil(store, "store"),
		vala.IsNotNil(files, "files"),
		vala.IsNotNil(courses, "courses"),
		vala.IsNotNil(validate, "validate"),
		vala.IsNotNil(translator, "translator"),
		vala.IsNotNil(lang, "lang"),
	).Check(); err != nil {
		return nil, err
	}
	return &Manager{
		store:      store,
		files:      files,
		courses:    courses,
		validate:   validate,
		translator: translator,
		lang:       lang,
		formatter:  text.NewFormatter(),
		themeName:  conf.ThemeName,
		component:  conf.Component(),
		wwwRoot:    conf.WWWRoot,
	}, nil
}

func (m *Manager) Component() string { return m.component }

func (m *Manager) Store() settings.Store { return m.store }

func (m *Manager) Files() settings.FileStore { return m.files }

// Theme snapshots the current configuration of the theme.
func (m *Manager) Theme(ctx context.Context) (settings.Theme, error) {
	return settings.LoadTheme(ctx, m.store, m.themeName, m.wwwRoot)
}

// Lookup returns the definition of the setting name. Item settings are known up to MaxItems,
// whatever the configured number of items.
func (m *Manager) Lookup(ctx context.Context, name string) (Setting, error) {
	if keyword, prefix, index, ok := settings.ParseSettingName(name); ok && index >= 1 && index <= MaxItems {
		if ct, ok := settings.Lookup(prefix); ok && isKeyword(keyword) {
			return m.itemSetting(ct, keyword, index), nil
		}
	}

	pages, err := m.Pages(ctx)
	if err != nil {
		return Setting{}, err
	}
	for _, p := range pages {
		for _, s := range p.Settings {
			if s.Name == name {
				return s, nil
			}
		}
	}
	return Setting{}, errors.Wrapf(ErrUnknownSetting, "looking up %q", name)
}

func isKeyword(k settings.Keyword) bool {
	for _, keyword := range settings.Keywords {
		if keyword == k {
			return true
		}
	}
	return false
}

// Set validates value and writes it to the setting name. An empty value clears a stored file
// setting.
func (m *Manager) Set(ctx context.Context, userID int, name, value string) error {
	if err := m.validate.Var(name, "required,settingname"); err != nil {
		return m.validationError("name", err)
	}
	s, err := m.Lookup(ctx, name)
	if err != nil {
		return err
	}
	if !s.Writable() {
		return core.NewValidationError(ErrNotWritable, core.FieldError{Field: name, Error: ErrNotWritable.Error()})
	}

	if s.Kind == KindStoredFile {
		if value != "" {
			return core.NewValidationError(nil, core.FieldError{Field: name, Error: "files are uploaded, not set"})
		}
		if err = m.files.DeleteAreaFiles(ctx, m.component, name); err != nil {
			return errors.Wrap(err, "deleting files")
		}
		_, err = m.Write(ctx, userID, name, null.String{})
		return err
	}

	if err = m.checkValue(name, s, value); err != nil {
		return err
	}
	_, err = m.Write(ctx, userID, name, null.StringFrom(value))
	return err
}

// Check validates value against the definition of the setting name. Settings without a
// definition are accepted.
func (m *Manager) Check(ctx context.Context, name, value string) error {
	s, err := m.Lookup(ctx, name)
	if errors.Cause(err) == ErrUnknownSetting {
		return nil
	}
	if err != nil {
		return err
	}
	return m.checkValue(name, s, value)
}

func (m *Manager) checkValue(name string, s Setting, value string) error {
	if tag := s.validationTag(); tag != "" {
		if err := m.validate.Var(value, tag); err != nil {
			return m.validationError(name, err)
		}
	}
	return nil
}

func (s Setting) validationTag() string {
	switch s.Kind {
	case KindCheckbox:
		return "oneof=0 1"
	case KindSelect:
		values := make([]string, 0, len(s.Choices))
		for _, c := range s.Choices {
			values = append(values, c.Value)
		}
		return "oneof=" + strings.Join(values, " ")
	}
	switch s.Param {
	case ParamURL:
		return "omitempty,url"
	case ParamInt:
		return "omitempty,number"
	case ParamHexColor:
		return "omitempty,hexcolor"
	case ParamCourseIDs:
		return "omitempty," + courseIDsTag
	}
	return ""
}

func (m *Manager) validationError(field string, err error) error {
	vErrs, ok := err.(validator.ValidationErrors)
	if !ok || len(vErrs) == 0 {
		return errors.Wrap(err, "validating setting")
	}
	msg := strings.TrimSpace(vErrs[0].Translate(m.translator))
	return core.NewValidationError(nil, core.FieldError{Field: field, Error: msg})
}

// Write stores value without validating it. Unchanged values are not written; changes are
// logged with a diff of the values.
func (m *Manager) Write(ctx context.Context, userID int, name string, value null.String) (bool, error) {
	old, err := m.store.GetConfig(ctx, m.component, name)
	if err != nil {
		return false, errors.Wrapf(err, "getting %s", name)
	}
	if old.Valid == value.Valid && old.String == value.String {
		return false, nil
	}

	if err = m.store.SetConfig(ctx, m.component, name, value); err != nil {
		return false, errors.Wrapf(err, "setting %s", name)
	}
	entry := settings.ConfigLog{
		UserID:       userID,
		TimeModified: NowFunc(),
		Plugin:       m.component,
		Name:         name,
		OldValue:     old,
		Value:        value,
		Diff:         Diff(name, old.String, value.String),
	}
	if err = m.store.AddConfigLog(ctx, entry); err != nil {
		return true, errors.Wrapf(err, "logging %s", name)
	}
	return true, nil
}

// Diff returns the unified diff of two values of the setting name.
func Diff(name, old, value string) string {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(old),
		B:        difflib.SplitLines(value),
		FromFile: name + ".orig",
		ToFile:   name,
		Context:  3,
	})
	if err != nil {
		return ""
	}
	return diff
}

// PutFile stores the file uploaded to the stored file setting name and points the setting at it.
func (m *Manager) PutFile(ctx context.Context, userID int, name, filename string, content []byte) (settings.File, error) {
	s, err := m.Lookup(ctx, name)
	if err != nil {
		return settings.File{}, err
	}
	if s.Kind != KindStoredFile {
		return settings.File{}, core.NewValidationError(nil, core.FieldError{Field: name, Error: "setting does not store files"})
	}
	filename = strings.TrimLeft(filename, "/")
	if filename == "" {
		return settings.File{}, core.NewValidationError(nil, core.FieldError{Field: "filename", Error: "this field is required"})
	}

	f, err := m.files.PutFile(ctx, settings.File{
		Component:    m.component,
		FileArea:     name,
		FilePath:     "/",
		FileName:     filename,
		Content:      content,
		TimeModified: NowFunc(),
	})
	if err != nil {
		return settings.File{}, errors.Wrap(err, "storing file")
	}
	if _, err = m.Write(ctx, userID, name, null.StringFrom(f.Path())); err != nil {
		return settings.File{}, err
	}
	return f, nil
}

// ApplyDefaults writes the default value of every unset setting and returns how many were set.
func (m *Manager) ApplyDefaults(ctx context.Context, userID int) (int, error) {
	pages, err := m.Pages(ctx)
	if err != nil {
		return 0, err
	}
	current, err := m.store.AllConfig(ctx, m.component)
	if err != nil {
		return 0, errors.Wrap(err, "loading settings")
	}

	var n int
	for _, p := range pages {
		for _, s := range p.Settings {
			if !s.Writable() || s.Kind == KindStoredFile {
				continue
			}
			if _, ok := current[s.Name]; ok {
				continue
			}
			if _, err := m.Write(ctx, userID, s.Name, null.StringFrom(s.Default)); err != nil {
				return n, err
			}
			n++
		}
	}
	return n, nil
}

// Export returns the pages with the current value of their settings.
func (m *Manager) Export(ctx context.Context) ([]map[string]interface{}, error) {
	pages, err := m.Pages(ctx)
	if err != nil {
		return nil, err
	}
	values, err := m.store.AllConfig(ctx, m.component)
	if err != nil {
		return nil, errors.Wrap(err, "loading settings")
	}

	out := make([]map[string]interface{}, 0, len(pages))
	for _, p := range pages {
		list := make([]map[string]interface{}, 0, len(p.Settings))
		for _, s := range p.Settings {
			item := map[string]interface{}{
				"name":        s.Name,
				"anchor":      s.Anchor(m.component),
				"kind":        s.Kind,
				"title":       s.Title,
				"description": m.formatter.FormatText(s.Description, text.FormatMarkdown),
			}
			if s.Writable() {
				item["default"] = m.lang.Resolve(s.Default)
				if v, ok := values[s.Name]; ok {
					item["value"] = v
				} else {
					item["value"] = nil
				}
			}
			if len(s.Choices) > 0 {
				choices := make([]map[string]string, 0, len(s.Choices))
				for _, c := range s.Choices {
					choices = append(choices, map[string]string{"value": c.Value, "label": c.Label})
				}
				item["choices"] = choices
			}
			list = append(list, item)
		}
		out = append(out, map[string]interface{}{
			"name":     p.Name,
			"title":    p.Title,
			"settings": list,
		})
	}
	return out, nil
}
