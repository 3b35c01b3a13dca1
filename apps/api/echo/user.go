package echoapi

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/gregoryekhator/debonairkent/core"
	"github.com/gregoryekhator/debonairkent/core/features"
	"github.com/gregoryekhator/debonairkent/core/user"
	"github.com/gregoryekhator/debonairkent/core/userdata"
)

type userApi struct {
	deps   ServerDeps
	tokens *Tokens
}

func registerUserAPI(g *echo.Group, jwt echo.MiddlewareFunc, tokens *Tokens, deps ServerDeps) {
	api := userApi{deps: deps, tokens: tokens}

	g.POST("/login", api.login)
	g.POST("/token-refresh", api.refreshToken, jwt)

	mg := g.Group("/me", jwt)
	mg.GET("", api.me)
	mg.GET("/manager", api.manager)
	mg.GET("/mycourses", api.myCourses)
	mg.GET("/mycourses/html", api.myCoursesHTML)
	mg.GET("/certifications", api.certifications)
}

type (
	LoginResponse struct {
		Token string `json:"token"`
	}
)

func (api *userApi) login(ctx echo.Context) error {
	var creds user.Credentials
	if err := ctx.Bind(&creds); err != nil {
		return errors.Wrap(err, "binding to Credentials")
	}
	creds.Username = core.CleanString(creds.Username, true /* lower */)
	if err := api.deps.Validate.Struct(creds); err != nil {
		return err
	}

	usr, err := api.deps.Users.Authenticate(ctx.Request().Context(), creds)
	if err != nil {
		if errors.Cause(err) == user.ErrInvalidCredentials {
			return errAuthenticationFailed
		}
		return errors.Wrap(err, "authenticating")
	}
	token, err := api.tokens.UserToken(usr)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *userApi) refreshToken(ctx echo.Context) error {
	token, err := api.tokens.refresh(ctx, api.deps.Users)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

// includes reads the comma separated section names of the "include" query parameter.
func includes(ctx echo.Context) []string {
	var names []string
	for _, v := range ctx.QueryParams()["include"] {
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				names = append(names, name)
			}
		}
	}
	return names
}

// intParam reads the integer path parameter name; invalid values are not found.
func intParam(ctx echo.Context, name string) (int, error) {
	v, err := strconv.Atoi(ctx.Param(name))
	if err != nil || v < 1 {
		return 0, errHttpNotFound
	}
	return v, nil
}

// intQuery reads the integer query parameter name, def when absent or invalid.
func intQuery(ctx echo.Context, name string, def int) int {
	v, err := strconv.Atoi(ctx.QueryParam(name))
	if err != nil {
		return def
	}
	return v
}

// me returns the user bundle, e.g. /v1/me?include=courses,courseuserinfo,badges&badgescourse=2
func (api *userApi) me(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.deps.Users)
	if err != nil {
		return err
	}

	requested := make(map[string]interface{})
	for _, name := range includes(ctx) {
		switch name {
		case userdata.SectionCourses:
			var ids []int
			for _, v := range strings.Split(ctx.QueryParam("courses"), ",") {
				if id, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
					ids = append(ids, id)
				}
			}
			requested[name] = ids
		case userdata.SectionBadges:
			requested[name] = intQuery(ctx, "badgescourse", 0)
		default:
			requested[name] = true
		}
	}

	b, err := api.deps.UserData.Build(ctx.Request().Context(), usr, requested)
	if err != nil {
		return errors.Wrap(err, "building user data")
	}
	return ctx.JSON(http.StatusOK, b)
}

func (api *userApi) manager(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.deps.Users)
	if err != nil {
		return err
	}

	requested := make(map[string]interface{})
	for _, name := range includes(ctx) {
		requested[name] = true
	}
	b, err := api.deps.ManagerData.Build(ctx.Request().Context(), usr, requested)
	if err != nil {
		return errors.Wrap(err, "building manager data")
	}
	return ctx.JSON(http.StatusOK, b)
}

func (api *userApi) myCoursesData(ctx echo.Context) (map[string]interface{}, error) {
	usr, err := getContextUser(ctx, api.deps.Users)
	if err != nil {
		return nil, err
	}
	data, err := api.deps.Features.MyCourses(ctx.Request().Context(), usr, intQuery(ctx, "max", features.MyCoursesMax))
	return data, errors.Wrap(err, "listing my courses")
}

func (api *userApi) myCourses(ctx echo.Context) error {
	data, err := api.myCoursesData(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, data)
}

func (api *userApi) myCoursesHTML(ctx echo.Context) error {
	data, err := api.myCoursesData(ctx)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err = api.deps.Renderer.MyCourses(&buf, data); err != nil {
		return errors.Wrap(err, "rendering my courses")
	}
	return ctx.HTMLBlob(http.StatusOK, buf.Bytes())
}

func (api *userApi) certifications(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.deps.Users)
	if err != nil {
		return err
	}
	data, err := api.deps.Features.UpcomingCertifications(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "listing upcoming certifications")
	}
	return ctx.JSON(http.StatusOK, data)
}
