package echoapi

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/gregoryekhator/debonairkent/core/course"
	"github.com/gregoryekhator/debonairkent/core/settings"
)

// summaryLimit is the default length of course detail summaries.
const summaryLimit = 150

type courseApi struct {
	deps ServerDeps
}

func registerCourseAPI(g *echo.Group, jwt, auth echo.MiddlewareFunc, deps ServerDeps) {
	api := courseApi{deps: deps}

	cg := g.Group("/courses/:id")
	cg.GET("/details", api.details, auth)
	cg.GET("/progress/html", api.progressHTML, jwt)

	fg := g.Group("/frontpage")
	fg.GET("/courses/html", api.availableCoursesHTML)
	fg.GET("/promoted/html", api.promotedCoursesHTML)
}

// course returns the course of the id parameter; hidden courses are only found by admins.
func (api *courseApi) course(ctx echo.Context) (course.Course, error) {
	id, err := intParam(ctx, "id")
	if err != nil {
		return course.Course{}, err
	}
	crs, err := api.deps.Courses.Repository().GetCourseByID(ctx.Request().Context(), id)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "getting course")
	}
	if !crs.Visible {
		if claims, err := getContextClaims(ctx); err != nil || !claims.IsAdmin {
			return course.Course{}, errHttpNotFound
		}
	}
	return crs, nil
}

func (api *courseApi) details(ctx echo.Context) error {
	crs, err := api.course(ctx)
	if err != nil {
		return err
	}
	var userID int
	if usr, err := getContextUser(ctx, api.deps.Users); err == nil {
		userID = usr.ID
	}

	d, err := api.deps.Courses.Details(ctx.Request().Context(), crs, userID, intQuery(ctx, "limit", summaryLimit))
	if err != nil {
		return errors.Wrap(err, "getting course details")
	}
	return ctx.JSON(http.StatusOK, d.Export())
}

func (api *courseApi) progressHTML(ctx echo.Context) error {
	crs, err := api.course(ctx)
	if err != nil {
		return err
	}
	usr, err := getContextUser(ctx, api.deps.Users)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err = api.deps.FrontPage.RenderCompletionBar(ctx.Request().Context(), &buf, crs.ID, usr.ID); err != nil {
		return errors.Wrap(err, "rendering completion bar")
	}
	return ctx.HTMLBlob(http.StatusOK, buf.Bytes())
}

type themeRenderFunc func(ctx context.Context, w io.Writer, theme settings.Theme) error

func (api *courseApi) renderWithTheme(ctx echo.Context, fn themeRenderFunc) error {
	theme, err := api.deps.Settings.Theme(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "loading theme")
	}
	var buf bytes.Buffer
	if err = fn(ctx.Request().Context(), &buf, theme); err != nil {
		return err
	}
	return ctx.HTMLBlob(http.StatusOK, buf.Bytes())
}

func (api *courseApi) availableCoursesHTML(ctx echo.Context) error {
	err := api.renderWithTheme(ctx, api.deps.FrontPage.RenderAvailableCourses)
	return errors.Wrap(err, "rendering available courses")
}

func (api *courseApi) promotedCoursesHTML(ctx echo.Context) error {
	err := api.renderWithTheme(ctx, api.deps.FrontPage.RenderPromotedCourses)
	return errors.Wrap(err, "rendering promoted courses")
}
