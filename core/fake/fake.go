// Package fake generates placeholder theme settings used to preview content types.
package fake

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/gregoryekhator/debonairkent/core/settings"
	appfs "github.com/gregoryekhator/debonairkent/fs"
)

// Variant selects how the generator fills titles, link texts and images.
type Variant string

const (
	VariantLorem     Variant = "lorem"
	VariantPeople    Variant = "people"
	VariantCompanies Variant = "companies"

	logoBaseURL = "https://combinatronics.com/gilbarbara/logos/master/logos/"
)

var BootstrapColors = []string{"primary", "secondary", "success", "warning", "danger", "info", "light", "dark"}

type (
	Person struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Position string `json:"position"`
		Photo    string `json:"photo"`
	}

	Company struct {
		Name      string   `json:"name"`
		ShortName string   `json:"shortname"`
		URL       string   `json:"url"`
		Files     []string `json:"files"`
	}

	// handler returns the value of setting name; index is its numeric suffix, 0 if none.
	handler func(g *Generator, name string, index int) string

	// entry binds a setting name pattern to its handler.
	entry struct {
		pattern string
		fn      handler
	}

	// Generator is a settings.Source of random values. It is not safe for concurrent use.
	Generator struct {
		max       int
		rnd       *rand.Rand
		lorem     lorem
		handlers  []entry
		people    []Person
		companies []Company
	}

	Option func(g *Generator)
)

var _ settings.Source = (*Generator)(nil)

// baseHandlers are matched in order against the setting name.
var baseHandlers = []entry{
	{"content_", func(g *Generator, _ string, _ int) string { return g.lorem.sentence() }},
	{"title_", func(g *Generator, _ string, _ int) string { return g.lorem.words(2 + g.rnd.Intn(6)) }},
	{"linktext_", func(g *Generator, _ string, _ int) string { return g.lorem.words(1 + g.rnd.Intn(3)) }},
	{"url_", func(g *Generator, _ string, _ int) string { return "#fakeurl" }},
	{"image_", func(g *Generator, _ string, _ int) string {
		return "https://source.unsplash.com/featured/?sig=" + strconv.Itoa(g.rnd.Int())
	}},
	{"bootstrapcolor_", func(g *Generator, _ string, _ int) string { return BootstrapColors[g.rnd.Intn(len(BootstrapColors))] }},
	{"hexcolor", func(g *Generator, _ string, _ int) string { return fmt.Sprintf("#%06x", g.rnd.Intn(0x1000000)) }},
}

// variantHandlers override base handlers with the same pattern.
var variantHandlers = map[Variant][]entry{
	VariantPeople: {
		{"title_", personField(func(p Person) string { return p.Name })},
		{"linktext_", personField(func(p Person) string { return p.Position })},
		{"image_", personField(func(p Person) string { return p.Photo })},
	},
	VariantCompanies: {
		{"title_", companyField(func(c Company) string { return c.Name })},
		{"linktext_", companyField(func(c Company) string { return c.URL })},
		{"image_", companyField(func(c Company) string { return logoBaseURL + c.Files[0] })},
	},
}

func personField(field func(Person) string) handler {
	return func(g *Generator, name string, index int) string {
		if index < 1 || len(g.people) == 0 {
			return g.dispatch(baseHandlers, name, index)
		}
		return field(g.people[(index-1)%len(g.people)])
	}
}

func companyField(field func(Company) string) handler {
	return func(g *Generator, name string, index int) string {
		if index < 1 || len(g.companies) == 0 {
			return g.dispatch(baseHandlers, name, index)
		}
		return field(g.companies[(index-1)%len(g.companies)])
	}
}

// WithSeed makes the generated values reproducible.
func WithSeed(seed int64) Option {
	return func(g *Generator) {
		g.rnd = rand.New(rand.NewSource(seed))
	}
}

// New returns a generator for items 1..max.
func New(max int, variant Variant, opts ...Option) (*Generator, error) {
	g := &Generator{
		max: max,
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.lorem = lorem{rnd: g.rnd}

	g.handlers = make([]entry, len(baseHandlers))
	copy(g.handlers, baseHandlers)
	overrides, ok := variantHandlers[variant]
	if !ok && variant != VariantLorem {
		return nil, errors.Errorf("unknown fake variant %q", variant)
	}
	for _, o := range overrides {
		for i := range g.handlers {
			if g.handlers[i].pattern == o.pattern {
				g.handlers[i] = o
			}
		}
	}

	if max > 0 {
		var err error
		switch variant {
		case VariantPeople:
			var people []Person
			if err = loadFixture("fixtures/uifaces.json", &people); err == nil {
				for _, i := range sample(g.rnd, len(people), max) {
					g.people = append(g.people, people[i])
				}
			}
		case VariantCompanies:
			var companies []Company
			if err = loadFixture("fixtures/logos.json", &companies); err == nil {
				for _, i := range sample(g.rnd, len(companies), max) {
					g.companies = append(g.companies, companies[i])
				}
			}
		}
		if err != nil {
			return nil, err
		}
	}
	return g, nil
}

func loadFixture(name string, v interface{}) error {
	data, err := appfs.Fixtures.ReadFile(name)
	if err != nil {
		return errors.Wrapf(err, "reading %s", name)
	}
	return errors.Wrapf(json.Unmarshal(data, v), "decoding %s", name)
}

// sample returns n indices of a list of size in random order; indices repeat when n exceeds
// size.
func sample(rnd *rand.Rand, size, n int) []int {
	if size == 0 {
		return nil
	}
	out := make([]int, 0, n)
	for len(out) < n {
		for _, i := range rnd.Perm(size) {
			if len(out) == n {
				break
			}
			out = append(out, i)
		}
	}
	return out
}

// Exists reports whether name is within the generated items: false when its numeric suffix
// exceeds max.
func (g *Generator) Exists(name string) bool {
	index := suffix(name)
	return !(index > 0 && index > g.max)
}

// Get returns a random value for name, or null when it does not exist.
func (g *Generator) Get(name string) null.String {
	if !g.Exists(name) {
		return null.String{}
	}
	return null.StringFrom(g.Value(name))
}

// Value returns a random value for name.
func (g *Generator) Value(name string) string {
	return g.dispatch(g.handlers, name, suffix(name))
}

// dispatch calls the first handler whose pattern name contains; a lorem word otherwise.
func (g *Generator) dispatch(handlers []entry, name string, index int) string {
	for _, e := range handlers {
		if strings.Contains(name, e.pattern) {
			return e.fn(g, name, index)
		}
	}
	return g.lorem.word()
}

// suffix returns the trailing number of name, 0 when there is none.
func suffix(name string) int {
	i := len(name)
	for i > 0 && name[i-1] >= '0' && name[i-1] <= '9' {
		i--
	}
	n, _ := strconv.Atoi(name[i:])
	return n
}

// fileResolver resolves file settings to the setting value itself.
type fileResolver struct {
	source settings.Source
}

func (fr fileResolver) SettingFileURL(setting, _ string) string {
	return fr.source.Get(setting).String
}

// NewTheme returns a theme configuration filled with fake values.
func NewTheme(name string, max int, variant Variant, opts ...Option) (settings.Theme, error) {
	g, err := New(max, variant, opts...)
	if err != nil {
		return settings.Theme{}, err
	}
	return settings.Theme{Name: name, Settings: g, Files: fileResolver{source: g}}, nil
}
