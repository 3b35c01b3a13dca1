package echoapi_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testutil "github.com/gregoryekhator/debonairkent/tests"
)

func TestSettingsRoutes(t *testing.T) {
	a := setup(t)
	a.run(t, []httpTest{
		{name: "collection", method: http.MethodGet, path: "/v1/settings/spots", wantCode: http.StatusOK},
		{name: "unknown content type", method: http.MethodGet, path: "/v1/settings/banners", wantCode: http.StatusNotFound},
		{name: "single", method: http.MethodGet, path: "/v1/settings/slides/1", wantCode: http.StatusOK},
		{name: "index zero", method: http.MethodGet, path: "/v1/settings/slides/0", wantCode: http.StatusNotFound},
		{name: "index not a number", method: http.MethodGet, path: "/v1/settings/slides/one", wantCode: http.StatusNotFound},
		{name: "collection html", method: http.MethodGet, path: "/v1/settings/team/html", wantCode: http.StatusOK},
		{name: "fake", method: http.MethodGet, path: "/v1/fake/settings/logos", wantCode: http.StatusOK},
		{name: "fake unknown", method: http.MethodGet, path: "/v1/fake/settings/banners", wantCode: http.StatusNotFound},
	})
}

func TestSettingsCollection(t *testing.T) {
	a := setup(t)

	rec := a.request(t, http.MethodGet, "/v1/settings/spots", 0)
	require.Equal(t, http.StatusOK, rec.Code)

	var data struct {
		Spots []struct {
			Title    string `json:"title"`
			Index    int    `json:"index"`
			EditLink string `json:"editlink"`
		} `json:"spots"`
		ItemCount2 bool `json:"itemcount2"`
	}
	decode(t, rec, &data)
	assert.True(t, data.ItemCount2)
	require.Len(t, data.Spots, 2)
	assert.Equal(t, "Libraries", data.Spots[0].Title)
	assert.Equal(t, 3, data.Spots[1].Index)
	assert.Equal(t, "/admin/settings.php?section=theme_university_spots#theme_university_spots3", data.Spots[1].EditLink)

	rec = a.request(t, http.MethodGet, "/v1/settings/testimonials", 0)
	require.Equal(t, http.StatusOK, rec.Code)
	var empty map[string]interface{}
	decode(t, rec, &empty)
	assert.Equal(t, true, empty["nocontent"])
	assert.Equal(t, true, empty["itemcount0"])
	assert.Empty(t, empty["testimonials"])
}

func TestSettingsSingle(t *testing.T) {
	a := setup(t)

	rec := a.request(t, http.MethodGet, "/v1/settings/spots/3", 0)
	require.Equal(t, http.StatusOK, rec.Code)
	var item map[string]interface{}
	decode(t, rec, &item)
	assert.Equal(t, "Sport", item["title"])
	assert.Equal(t, "/admin/settings.php?section=theme_university_spots#theme_university_spots3", item["editlink"])

	// items beyond the count are still addressed by index
	rec = a.request(t, http.MethodGet, "/v1/settings/spots/2", 0)
	require.Equal(t, http.StatusOK, rec.Code)
	item = nil
	decode(t, rec, &item)
	assert.Equal(t, "/admin/settings.php?section=theme_university_spots#theme_university_spots2", item["editlink"])
	assert.NotContains(t, item, "uniqueid")
}

func TestSettingsHTMLEditing(t *testing.T) {
	a := setup(t)

	tests := []struct {
		name      string
		path      string
		userID    int
		wantLinks int
	}{
		{"anonymous", "/v1/settings/spots/html?editing=true", 0, 0},
		{"student", "/v1/settings/spots/html?editing=true", testutil.StudentID, 0},
		{"admin not editing", "/v1/settings/spots/html", testutil.AdminID, 0},
		{"admin editing", "/v1/settings/spots/html?editing=true", testutil.AdminID, 2},
		{"admin editing single", "/v1/settings/spots/1/html?editing=1", testutil.AdminID, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.request(t, http.MethodGet, tt.path, tt.userID)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			doc := parseHTML(t, rec)
			assert.Equal(t, tt.wantLinks, doc.Find("a.editlink").Length())
		})
	}

	rec := a.request(t, http.MethodGet, "/v1/settings/spots/html?editing=true", testutil.AdminID)
	href, ok := parseHTML(t, rec).Find("#spots3 a.editlink").Attr("href")
	require.True(t, ok)
	assert.Equal(t, "/admin/settings.php?section=theme_university_spots#theme_university_spots3", href)
}

func TestFakeSettings(t *testing.T) {
	a := setup(t)

	tests := []struct {
		name      string
		path      string
		prefix    string
		wantItems int
	}{
		{"default count", "/v1/fake/settings/spots", "spots", 4},
		{"max", "/v1/fake/settings/spots?max=2", "spots", 2},
		{"beyond count", "/v1/fake/settings/slides?max=50", "slides", 3},
		{"people", "/v1/fake/settings/team?max=3", "team", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.request(t, http.MethodGet, tt.path, 0)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var data map[string]interface{}
			decode(t, rec, &data)
			assert.Len(t, data[tt.prefix], tt.wantItems)
			assert.NotContains(t, data, "nocontent")
		})
	}
}
