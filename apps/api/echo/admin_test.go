package echoapi_test

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gregoryekhator/debonairkent/core/settings"
	"github.com/gregoryekhator/debonairkent/core/themeport"
	emailsvc "github.com/gregoryekhator/debonairkent/services/email"
	testutil "github.com/gregoryekhator/debonairkent/tests"
)

func TestAdminAccess(t *testing.T) {
	a := setup(t)
	a.run(t, []httpTest{
		{name: "anonymous", method: http.MethodGet, path: "/v1/admin/settings", wantCode: http.StatusUnauthorized},
		{name: "student", method: http.MethodGet, path: "/v1/admin/settings", userID: testutil.StudentID, wantCode: http.StatusForbidden},
		{name: "manager", method: http.MethodGet, path: "/v1/admin/settings/log", userID: testutil.ManagerID, wantCode: http.StatusForbidden},
		{name: "admin", method: http.MethodGet, path: "/v1/admin/settings", userID: testutil.AdminID, wantCode: http.StatusOK},
		{name: "admin log", method: http.MethodGet, path: "/v1/admin/settings/log", userID: testutil.AdminID, wantCode: http.StatusOK},
	})
}

func TestAdminSet(t *testing.T) {
	a := setup(t)

	tests := []struct {
		name     string
		setting  string
		value    string
		wantCode int
	}{
		{"valid", "title_spots2", "Canteen", http.StatusNoContent},
		{"invalid url", "url_slides1", "not a url", http.StatusBadRequest},
		{"unknown", "nosuchsetting", "x", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := marshallObj(t, map[string]string{"value": tt.value})
			rec := a.request(t, http.MethodPut, "/v1/admin/settings/"+tt.setting, testutil.AdminID, body)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
		})
	}

	assert.Equal(t, "Canteen", a.Theme(t).Get("title_spots2"))

	rec := a.request(t, http.MethodPut, "/v1/admin/settings/url_slides1", testutil.AdminID,
		marshallObj(t, map[string]string{"value": "not a url"}))
	var fields map[string]string
	decode(t, rec, &fields)
	assert.Contains(t, fields, "url_slides1")

	rec = a.request(t, http.MethodGet, "/v1/admin/settings/log", testutil.AdminID)
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []settings.ConfigLog
	decode(t, rec, &entries)
	require.Len(t, entries, 1)
	assert.Equal(t, "title_spots2", entries[0].Name)
	assert.Equal(t, testutil.AdminID, entries[0].UserID)

	// the new item shows up in the collection
	rec = a.request(t, http.MethodGet, "/v1/settings/spots", 0)
	var data map[string]interface{}
	decode(t, rec, &data)
	assert.Len(t, data["spots"], 3)
}

func TestAdminPutFile(t *testing.T) {
	a := setup(t)

	rec := a.upload(t, "/v1/admin/settings/logo/file", testutil.AdminID, "logo.png", []byte("png"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "https://lms.test/pluginfile.php/1/theme_university/logo/0/logo.png", a.Theme(t).SettingFileURL("logo", "logo"))

	rec = a.upload(t, "/v1/admin/settings/title_slides1/file", testutil.AdminID, "a.png", []byte("png"))
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = a.request(t, http.MethodPost, "/v1/admin/settings/logo/file", testutil.AdminID)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var fields map[string]string
	decode(t, rec, &fields)
	assert.Contains(t, fields, "file")
}

func TestAdminDefaults(t *testing.T) {
	a := setup(t)

	rec := a.request(t, http.MethodPost, "/v1/admin/settings/defaults", testutil.AdminID)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Count int `json:"count"`
	}
	decode(t, rec, &resp)
	assert.Greater(t, resp.Count, 0)
	assert.Equal(t, "graduation-cap", a.Theme(t).Get("fontawesomeicon_spots2"))

	rec = a.request(t, http.MethodPost, "/v1/admin/settings/defaults", testutil.AdminID)
	decode(t, rec, &resp)
	assert.Zero(t, resp.Count)
}

func TestAdminExportImport(t *testing.T) {
	a := setup(t)

	rec := a.request(t, http.MethodGet, "/v1/admin/settings/export", testutil.AdminID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/gzip", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "university_settings_")
	exported := rec.Body.Bytes()

	gzr, err := gzip.NewReader(bytes.NewReader(exported))
	require.NoError(t, err)
	hdr, err := tar.NewReader(gzr).Next()
	require.NoError(t, err)
	assert.Equal(t, "university_settings.xml", hdr.Name)

	// importing into a modified theme restores the exported values
	require.NoError(t, a.Settings.Set(context.Background(), testutil.AdminID, "title_spots1", "Changed"))
	rec = a.upload(t, "/v1/admin/settings/import", testutil.AdminID, "settings.tar.gz", exported)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res themeport.Result
	decode(t, rec, &res)
	assert.False(t, res.Failed())
	assert.Equal(t, 1, res.SettingCount)
	assert.Equal(t, "Libraries", a.Theme(t).Get("title_spots1"))

	rec = a.upload(t, "/v1/admin/settings/import", testutil.AdminID, "settings.tar.gz", []byte("garbage"))
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	res = themeport.Result{}
	decode(t, rec, &res)
	assert.True(t, res.Failed())
}

func TestAdminEmailExport(t *testing.T) {
	a := setup(t)
	before := len(emailsvc.SentMessages)

	rec := a.request(t, http.MethodPost, "/v1/admin/settings/export/email", testutil.AdminID,
		marshallObj(t, map[string][]string{"to": {}}))
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = a.request(t, http.MethodPost, "/v1/admin/settings/export/email", testutil.AdminID,
		marshallObj(t, map[string][]string{"to": {"ops@example.com"}}))
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	require.Len(t, emailsvc.SentMessages, before+1)
	msg := emailsvc.SentMessages[len(emailsvc.SentMessages)-1]
	require.Len(t, msg.To, 1)
	assert.Equal(t, "ops@example.com", msg.To[0].Address)
	require.Len(t, msg.Attachments, 1)
	assert.NotZero(t, msg.Attachments[0].Content.Len())
	assert.Contains(t, msg.Attachments[0].Filename, "university_settings_")
}
