package echoapi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/gregoryekhator/debonairkent/apps/api/echo"
	"github.com/gregoryekhator/debonairkent/core/user"
	testutil "github.com/gregoryekhator/debonairkent/tests"
)

func TestHome(t *testing.T) {
	a := setup(t)
	rec := a.request(t, http.MethodGet, "/", 0)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to University API!", rec.Body.String())
}

func TestLogin(t *testing.T) {
	a := setup(t)

	tests := []struct {
		name     string
		creds    user.Credentials
		wantCode int
		wantErr  map[string]string
	}{
		{"valid", user.Credentials{Username: " Admin ", Password: "admin-pass"}, http.StatusOK, nil},
		{"student", user.Credentials{Username: "sam", Password: "sam-pass"}, http.StatusOK, nil},
		{"wrong password", user.Credentials{Username: "sam", Password: "nope"}, http.StatusBadRequest, map[string]string{"error": "authentication failed"}},
		{"unknown user", user.Credentials{Username: "bob", Password: "bob-pass"}, http.StatusBadRequest, map[string]string{"error": "authentication failed"}},
		{"guest", user.Credentials{Username: "guest", Password: ""}, http.StatusBadRequest, nil},
		{"missing fields", user.Credentials{}, http.StatusBadRequest, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.request(t, http.MethodPost, "/v1/login", 0, marshallObj(t, tt.creds))
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())

			if tt.wantCode == http.StatusOK {
				var resp LoginResponse
				decode(t, rec, &resp)
				token, err := a.srv.Tokens().Parse(resp.Token)
				require.NoError(t, err)
				claims := token.Claims.(*Claims)
				usr, err := a.Users.GetByUsername(context.Background(), claims.Username)
				require.NoError(t, err)
				assert.Equal(t, usr.ID, claims.UserID())
				return
			}
			if tt.wantErr != nil {
				var got map[string]string
				decode(t, rec, &got)
				assert.Equal(t, tt.wantErr, got)
			}
		})
	}
}

func TestLoginValidation(t *testing.T) {
	a := setup(t)
	rec := a.request(t, http.MethodPost, "/v1/login", 0, []byte(`{"username":"sam"}`))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var got map[string]string
	decode(t, rec, &got)
	assert.Contains(t, got, "password")
}

func TestTokenRefresh(t *testing.T) {
	a := setup(t)

	rec := a.request(t, http.MethodPost, "/v1/token-refresh", 0)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var got httpErr
	decode(t, rec, &got)
	assert.Equal(t, errMissingToken, got)

	rec = a.request(t, http.MethodPost, "/v1/token-refresh", testutil.StudentID)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp LoginResponse
	decode(t, rec, &resp)
	assert.NotEmpty(t, resp.Token)

	// refreshing past the refresh window is denied
	usr := a.User(t, testutil.StudentID)
	claims := a.srv.Tokens().Claims(*usr, time.Now().Add(-a.Conf.Server.JWTRefreshExpirationDelta-time.Hour).Unix())
	token, err := a.srv.Tokens().Generate(claims)
	require.NoError(t, err)
	rec = a.do(httptest.NewRequest(http.MethodPost, "/v1/token-refresh", nil), token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMe(t *testing.T) {
	testutil.FreezeTime(t)
	a := setup(t)

	a.run(t, []httpTest{
		{name: "anonymous", method: http.MethodGet, path: "/v1/me", wantCode: http.StatusUnauthorized},
		{name: "student", method: http.MethodGet, path: "/v1/me", userID: testutil.StudentID, wantCode: http.StatusOK},
		{name: "manager", method: http.MethodGet, path: "/v1/me/manager", userID: testutil.ManagerID, wantCode: http.StatusOK},
		{name: "certifications", method: http.MethodGet, path: "/v1/me/certifications", userID: testutil.StudentID, wantCode: http.StatusOK},
	})

	rec := a.request(t, http.MethodGet, "/v1/me?include=courses,badges&courses=2&badgescourse=2", testutil.StudentID)
	require.Equal(t, http.StatusOK, rec.Code)
	var data map[string]interface{}
	decode(t, rec, &data)
	assert.Equal(t, true, data["hascourses"])
	assert.Equal(t, true, data["hasbadges"])
	require.Len(t, data["courses"], 1)
	assert.Equal(t, float64(2), data["courses"].([]interface{})[0].(map[string]interface{})["id"])
}

func TestMyCourses(t *testing.T) {
	testutil.FreezeTime(t)
	a := setup(t)

	rec := a.request(t, http.MethodGet, "/v1/me/mycourses?max=1", testutil.StudentID)
	require.Equal(t, http.StatusOK, rec.Code)
	var data map[string]interface{}
	decode(t, rec, &data)
	assert.Equal(t, true, data["hasmycourses"])
	assert.Len(t, data["mycourses"], 1)

	rec = a.request(t, http.MethodGet, "/v1/me/mycourses/html", testutil.StudentID)
	require.Equal(t, http.StatusOK, rec.Code)
	doc := parseHTML(t, rec)
	assert.NotZero(t, doc.Find("*").Length())
}
