package settings

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gregoryekhator/debonairkent/core/text"
)

func newTestReader(t *testing.T, source Source, ct ContentType) *Reader {
	theme := Theme{Name: "university", Settings: source}
	theme.Files = PluginFileResolver{WWWRoot: "https://lms.test", Component: theme.Component(), Settings: source}
	r, err := NewReader(theme, ct, text.NewFormatter())
	require.NoError(t, err)
	return r
}

func TestNewReaderChecksArguments(t *testing.T) {
	_, err := NewReader(Theme{}, Slides, text.NewFormatter())
	assert.Error(t, err)

	_, err = NewReader(Theme{Name: "university"}, ContentType{}, text.NewFormatter())
	assert.Error(t, err)

	_, err = NewReader(Theme{Name: "university"}, Slides, nil)
	assert.Error(t, err)
}

func TestReaderEmptySource(t *testing.T) {
	for _, source := range []Source{nil, MapSource{}} {
		for n := 0; n <= 5; n++ {
			r := newTestReader(t, withSlidesCount(source, n), Slides)

			c := r.Settings()
			assert.Empty(t, c.Items)
			assert.True(t, c.NoContent)

			data := r.ExportForTemplate()
			assert.Equal(t, true, data["nocontent"])
			assert.Equal(t, true, data["itemcount0"])
			assert.Equal(t, "/admin/settings.php?section=theme_university_slides#theme_university_slides1", data["getstartedurl"])
		}
	}
}

func withSlidesCount(source Source, count int) Source {
	if m, ok := source.(MapSource); ok {
		return MapSource{"university_slidescount": fmt.Sprint(count)}.merge(m)
	}
	return source
}

func (m MapSource) merge(other MapSource) MapSource {
	for k, v := range other {
		m[k] = v
	}
	return m
}

func TestReaderSingleField(t *testing.T) {
	for _, keyword := range Keywords {
		if DefaultedKeywords[keyword] {
			continue
		}
		for i := 1; i <= 3; i++ {
			t.Run(fmt.Sprintf("%s %d", keyword, i), func(t *testing.T) {
				setting := SettingName(keyword, "spots", i)
				r := newTestReader(t, MapSource{setting: "value"}, Spots)

				it := r.Item(i)
				require.True(t, it.IsValid())
				assert.Len(t, it.Fields, 1)
				assert.NotEmpty(t, it.Get(keyword))

				data := it.Export()
				assert.Len(t, data, 4)
				assert.Equal(t, fmt.Sprintf("spots%d", i), data["uniqueid"])
				assert.Equal(t, i, data["index"])
				assert.Equal(t, fmt.Sprintf("/admin/settings.php?section=theme_university_spots#theme_university_spots%d", i), data["editlink"])
			})
		}
	}
}

func TestReaderDefaultedFieldsOnly(t *testing.T) {
	r := newTestReader(t, MapSource{
		"bootstrapcolor_spots1": "primary",
		"hexcolor_spots1":       "#ff0000",
	}, Spots)

	assert.False(t, r.Item(1).IsValid())
	assert.True(t, r.Settings().NoContent)
}

func TestReaderFieldHandlers(t *testing.T) {
	r := newTestReader(t, MapSource{
		"title_slides1":          "<b>Welcome</b> &amp; hello",
		"content_slides1":        `<p onclick="x()">Body<script>bad()</script></p>`,
		"image_slides1":          "/slide1.jpg",
		"url_slides1":            "https://example.com/?a=1&b=2",
		"bootstrapcolor_slides1": "info",
	}, Slides)

	it := r.Item(1)
	require.True(t, it.IsValid())
	assert.Equal(t, "Welcome & hello", it.Get(KeywordTitle))
	assert.Equal(t, "<p>Body</p>", it.Get(KeywordContent))
	assert.Equal(t, "https://lms.test/pluginfile.php/1/theme_university/image_slides1/0/slide1.jpg", it.Get(KeywordImage))
	assert.Equal(t, "https://example.com/?a=1&b=2", it.Get(KeywordURL))
	assert.Equal(t, "info", it.Get(KeywordBootstrapColor))
}

func TestReaderZeroIsEmpty(t *testing.T) {
	r := newTestReader(t, MapSource{
		"title_spots1":    "0",
		"content_spots1":  "0",
		"hexcolor_spots1": "#ffffff",
		"title_spots2":    "0",
		"url_spots2":      "https://example.com",
	}, Spots)

	assert.False(t, r.Item(1).IsValid())

	it := r.Item(2)
	require.True(t, it.IsValid())
	assert.Equal(t, "", it.Get(KeywordTitle))
	assert.Equal(t, "https://example.com", it.Get(KeywordURL))
}

func TestReaderCollection(t *testing.T) {
	source := MapSource{
		"title_spots1": "one",
		"title_spots3": "three",
		"title_spots5": "five",
	}

	t.Run("sparse items in index order", func(t *testing.T) {
		c := newTestReader(t, source, Spots).Settings()
		require.Len(t, c.Items, 2)
		assert.Equal(t, 1, c.Items[0].Index)
		assert.Equal(t, 3, c.Items[1].Index)
		assert.False(t, c.NoContent)

		data := c.Export()
		assert.Equal(t, true, data["itemcount2"])
		assert.NotContains(t, data, "nocontent")
		assert.Len(t, data["spots"], 2)
	})

	t.Run("count override", func(t *testing.T) {
		src := MapSource{"university_spotscount": "5"}.merge(source)
		c := newTestReader(t, src, Spots).Settings()
		assert.Len(t, c.Items, 3)
	})

	t.Run("negative or invalid count", func(t *testing.T) {
		r := newTestReader(t, MapSource{"university_spotscount": "-2"}.merge(source), Spots)
		assert.Equal(t, 0, r.Count())
		r = newTestReader(t, MapSource{"university_spotscount": "many"}.merge(source), Spots)
		assert.Equal(t, Spots.DefaultCount, r.Count())
	})

	t.Run("count bounded to max items", func(t *testing.T) {
		for _, v := range []string{"13", "100000000000000"} {
			r := newTestReader(t, MapSource{"university_spotscount": v}.merge(source), Spots)
			assert.Equal(t, MaxItems, r.Count())
			assert.NotPanics(t, func() {
				assert.Len(t, r.Settings().Items, 3)
			})
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		r := newTestReader(t, source, Spots)
		assert.Equal(t, r.ExportForTemplate(), r.ExportForTemplate())
	})
}

func TestReaderSingleAndTemplates(t *testing.T) {
	r := newTestReader(t, MapSource{"title_slides2": "two"}, Slides)

	data := r.Single(2)
	assert.Equal(t, "two", data["title"])

	empty := r.Single(3)
	assert.Equal(t, map[string]interface{}{
		"editlink": "/admin/settings.php?section=theme_university_slides#theme_university_slides3",
	}, empty)

	assert.Equal(t, "theme_university/slides", r.TemplateName())
	assert.Equal(t, "theme_university/slide_single", r.SingleTemplateName())
}

func TestEditLink(t *testing.T) {
	assert.Equal(t,
		"/admin/settings.php?section=theme_university_slides#theme_university_slides2",
		EditLink("university", "slides", 2),
	)
	assert.Equal(t,
		"/admin/settings.php?section=theme_other_team#theme_other_team10",
		EditLink("other", "team", 10),
	)
}

func TestSettingNames(t *testing.T) {
	assert.Equal(t, "title_slides2", SettingName(KeywordTitle, "slides", 2))

	kw, prefix, index, ok := ParseSettingName("fontawesomeicon_spots12")
	require.True(t, ok)
	assert.Equal(t, KeywordFontAwesomeIcon, kw)
	assert.Equal(t, "spots", prefix)
	assert.Equal(t, 12, index)

	for _, name := range []string{"logo", "title_", "title_12", "_slides1"} {
		_, _, _, ok = ParseSettingName(name)
		assert.False(t, ok, name)
	}
}

func TestContentTypes(t *testing.T) {
	cts := ContentTypes()
	require.True(t, len(cts) >= 5)
	assert.Equal(t, "spots", cts[0].Prefix)
	assert.Equal(t, "team", cts[4].Prefix)

	ct, ok := Lookup("logos")
	require.True(t, ok)
	assert.Equal(t, 6, ct.DefaultCount)

	_, ok = Lookup("missing")
	assert.False(t, ok)
}
