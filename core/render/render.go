// Package render renders the theme blocks with the html templates embedded in fs.
package render

import (
	"bytes"
	"html/template"
	"io"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/gregoryekhator/debonairkent/core"
	"github.com/gregoryekhator/debonairkent/core/course"
	"github.com/gregoryekhator/debonairkent/core/settings"
	appfs "github.com/gregoryekhator/debonairkent/fs"
)

// Template names
const (
	ProgressBarTemplate      = "theme_university/progressbar"
	CompletionBarTemplate    = "theme_university/completionbar"
	MyCoursesTemplate        = "theme_university/mycourses"
	FrontpageCoursesTemplate = "theme_university/frontpage_courses"
	PromotedCoursesTemplate  = "theme_university/promoted_courses"
)

type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the theme templates; lang resolves the strings they print.
func NewRenderer(lang *core.Lang) (*Renderer, error) {
	if err := vala.BeginValidation().Validate(vala.IsNotNil(lang, "lang")).Check(); err != nil {
		return nil, err
	}

	tmpl, err := template.New("theme").Funcs(template.FuncMap{
		"lang": lang.Get,
		"raw":  raw,
		"progress": func(percentage interface{}) map[string]interface{} {
			return map[string]interface{}{"percentage": percentage}
		},
	}).ParseFS(appfs.ThemeTemplates, appfs.ThemeTemplatesDir+"/*.gohtml")
	if err != nil {
		return nil, errors.Wrap(err, "parsing theme templates")
	}
	return &Renderer{tmpl: tmpl}, nil
}

// raw marks values already sanitised by the text formatter as safe HTML.
func raw(v interface{}) template.HTML {
	switch s := v.(type) {
	case template.HTML:
		return s
	case string:
		return template.HTML(s)
	}
	return ""
}

// Has reports whether the template name is defined.
func (r *Renderer) Has(name string) bool {
	return r.tmpl.Lookup(name) != nil
}

// Execute renders the template name with data to w. Nothing is written when rendering fails.
func (r *Renderer) Execute(w io.Writer, name string, data interface{}) error {
	if !r.Has(name) {
		return errors.Errorf("template %q not found", name)
	}
	buf := new(bytes.Buffer)
	if err := r.tmpl.ExecuteTemplate(buf, name, data); err != nil {
		return errors.Wrapf(err, "rendering %s", name)
	}
	_, err := buf.WriteTo(w)
	return err
}

// Collection renders the items of reader. editing adds the edit link of every item.
func (r *Renderer) Collection(w io.Writer, reader *settings.Reader, editing bool) error {
	data := reader.ExportForTemplate()
	data["editing"] = editing
	if items, ok := data[reader.ContentType().Prefix].([]map[string]interface{}); ok {
		for _, it := range items {
			it["editing"] = editing
		}
	}
	return r.Execute(w, reader.TemplateName(), data)
}

// Single renders the item at index of reader.
func (r *Renderer) Single(w io.Writer, reader *settings.Reader, index int, editing bool) error {
	data := reader.Single(index)
	data["editing"] = editing
	return r.Execute(w, reader.SingleTemplateName(), data)
}

func (r *Renderer) ProgressBar(w io.Writer, pb course.ProgressBar) error {
	return r.Execute(w, ProgressBarTemplate, pb.Export())
}

// MyCourses renders the data returned by features.Service.MyCourses.
func (r *Renderer) MyCourses(w io.Writer, data map[string]interface{}) error {
	return r.Execute(w, MyCoursesTemplate, data)
}
