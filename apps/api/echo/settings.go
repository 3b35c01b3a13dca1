package echoapi

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/gregoryekhator/debonairkent/core/fake"
	"github.com/gregoryekhator/debonairkent/core/settings"
)

// maxFakeItems bounds the items of fake collections.
const maxFakeItems = 12

type settingsApi struct {
	deps ServerDeps
}

func registerSettingsAPI(g *echo.Group, auth echo.MiddlewareFunc, deps ServerDeps) {
	api := settingsApi{deps: deps}

	sg := g.Group("/settings/:prefix", auth)
	sg.GET("", api.collection)
	sg.GET("/html", api.collectionHTML)
	sg.GET("/:index", api.single)
	sg.GET("/:index/html", api.singleHTML)

	g.GET("/fake/settings/:prefix", api.fakeCollection)
}

func contentType(ctx echo.Context) (settings.ContentType, error) {
	ct, ok := settings.Lookup(ctx.Param("prefix"))
	if !ok {
		return settings.ContentType{}, errHttpNotFound
	}
	return ct, nil
}

func (api *settingsApi) reader(ctx echo.Context) (*settings.Reader, error) {
	ct, err := contentType(ctx)
	if err != nil {
		return nil, err
	}
	theme, err := api.deps.Settings.Theme(ctx.Request().Context())
	if err != nil {
		return nil, errors.Wrap(err, "loading theme")
	}
	return settings.NewReader(theme, ct, api.deps.Formatter)
}

// editing reports whether edit links are requested by an admin.
func editing(ctx echo.Context) bool {
	on, _ := strconv.ParseBool(ctx.QueryParam("editing"))
	if !on {
		return false
	}
	claims, err := getContextClaims(ctx)
	return err == nil && claims.IsAdmin
}

func (api *settingsApi) collection(ctx echo.Context) error {
	r, err := api.reader(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, r.ExportForTemplate())
}

func (api *settingsApi) collectionHTML(ctx echo.Context) error {
	r, err := api.reader(ctx)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err = api.deps.Renderer.Collection(&buf, r, editing(ctx)); err != nil {
		return errors.Wrapf(err, "rendering %s", r.TemplateName())
	}
	return ctx.HTMLBlob(http.StatusOK, buf.Bytes())
}

func (api *settingsApi) single(ctx echo.Context) error {
	r, err := api.reader(ctx)
	if err != nil {
		return err
	}
	index, err := intParam(ctx, "index")
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, r.Single(index))
}

func (api *settingsApi) singleHTML(ctx echo.Context) error {
	r, err := api.reader(ctx)
	if err != nil {
		return err
	}
	index, err := intParam(ctx, "index")
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err = api.deps.Renderer.Single(&buf, r, index, editing(ctx)); err != nil {
		return errors.Wrapf(err, "rendering %s", r.SingleTemplateName())
	}
	return ctx.HTMLBlob(http.StatusOK, buf.Bytes())
}

// fakeCollection previews a content type filled with fake values.
func (api *settingsApi) fakeCollection(ctx echo.Context) error {
	ct, err := contentType(ctx)
	if err != nil {
		return err
	}
	max := intQuery(ctx, "max", ct.DefaultCount)
	if max < 0 || max > maxFakeItems {
		max = maxFakeItems
	}

	theme, err := fake.NewTheme(api.deps.Conf.ThemeName, max, fake.Variant(ct.FakeVariant))
	if err != nil {
		return errors.Wrap(err, "creating fake theme")
	}
	r, err := settings.NewReader(theme, ct, api.deps.Formatter)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, r.ExportForTemplate())
}
