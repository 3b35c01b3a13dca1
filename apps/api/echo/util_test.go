package echoapi_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/gregoryekhator/debonairkent/apps/api/echo"
	"github.com/gregoryekhator/debonairkent/core"
	"github.com/gregoryekhator/debonairkent/core/render"
	"github.com/gregoryekhator/debonairkent/core/themeport"
	emailsvc "github.com/gregoryekhator/debonairkent/services/email"
	logsvc "github.com/gregoryekhator/debonairkent/services/logger"
	testutil "github.com/gregoryekhator/debonairkent/tests"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	userID   int
	wantCode int
}

type app struct {
	*testutil.Host
	srv *Server
}

func setup(t *testing.T) *app {
	h := testutil.NewHost(t, false)

	renderer, err := render.NewRenderer(h.Lang)
	require.NoError(t, err)
	frontpage, err := render.NewFrontPage(h.Conf, renderer, h.Courses)
	require.NoError(t, err)
	porter, err := themeport.NewPorter(h.Conf, h.Settings, h.Lang)
	require.NoError(t, err)

	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), h.Conf)
	core.ParseEmailTemplates(logger)

	srv := NewServer(ServerDeps{
		Conf:           h.Conf,
		Logger:         logger,
		Validate:       h.Validate,
		Translator:     h.Translator,
		Formatter:      h.Formatter,
		Users:          h.Users,
		Courses:        h.Courses,
		UserData:       h.UserData,
		ManagerData:    h.ManagerData,
		Features:       h.Features,
		Settings:       h.Settings,
		Porter:         porter,
		Renderer:       renderer,
		FrontPage:      frontpage,
		Mail:           emailsvc.NewConsoleServiceMock(h.Conf),
		DisableReqLogs: true,
	})
	return &app{Host: h, srv: srv}
}

func (a *app) token(t *testing.T, userID int) string {
	if userID == 0 {
		return ""
	}
	token, err := a.srv.Tokens().UserToken(*a.User(t, userID))
	require.NoError(t, err)
	return token
}

func (a *app) do(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.srv.ServeHTTP(rec, req)
	return rec
}

func (a *app) request(t *testing.T, method, path string, userID int, data ...[]byte) *httptest.ResponseRecorder {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	return a.do(req, a.token(t, userID))
}

// upload posts content as the multipart file field.
func (a *app) upload(t *testing.T, path string, userID int, filename string, content []byte) *httptest.ResponseRecorder {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return a.do(req, a.token(t, userID))
}

func (a *app) run(t *testing.T, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.request(t, tt.method, tt.path, tt.userID, tt.body)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
		})
	}
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	require.NoError(t, err)
	return data
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func parseHTML(t *testing.T, rec *httptest.ResponseRecorder) *goquery.Document {
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	return doc
}
