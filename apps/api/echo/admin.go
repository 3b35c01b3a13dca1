package echoapi

import (
	"bytes"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/gregoryekhator/debonairkent/core"
	"github.com/gregoryekhator/debonairkent/core/settings"
)

// maxUploadSize bounds uploaded setting files.
const maxUploadSize = 16 << 20

type adminApi struct {
	deps ServerDeps
}

func registerAdminAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := adminApi{deps: deps}

	ag := g.Group("/admin/settings", jwt, adminMiddleware())
	ag.GET("", api.pages)
	ag.POST("/defaults", api.applyDefaults)
	ag.GET("/log", api.changes)
	ag.GET("/export", api.export)
	ag.POST("/export/email", api.emailExport)
	ag.POST("/import", api.importArchive)
	ag.PUT("/:name", api.set)
	ag.POST("/:name/file", api.putFile)
}

type (
	SetRequest struct {
		Value string `json:"value"`
	}

	EmailExportRequest struct {
		To []string `json:"to" validate:"required,min=1,dive,required,email"`
	}
)

func (api *adminApi) userID(ctx echo.Context) (int, error) {
	usr, err := getContextUser(ctx, api.deps.Users)
	if err != nil {
		return 0, err
	}
	return usr.ID, nil
}

func (api *adminApi) pages(ctx echo.Context) error {
	pages, err := api.deps.Settings.Export(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "exporting settings pages")
	}
	return ctx.JSON(http.StatusOK, pages)
}

func (api *adminApi) set(ctx echo.Context) error {
	userID, err := api.userID(ctx)
	if err != nil {
		return err
	}
	var data SetRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SetRequest")
	}

	name := ctx.Param("name")
	if err = api.deps.Settings.Set(ctx.Request().Context(), userID, name, data.Value); err != nil {
		return errors.Wrapf(err, "setting %s", name)
	}
	return ctx.NoContent(http.StatusNoContent)
}

// readUpload reads the multipart file of field.
func readUpload(ctx echo.Context, field string) (string, []byte, error) {
	fh, err := ctx.FormFile(field)
	if err != nil {
		return "", nil, core.NewValidationError(err, core.FieldError{Field: field, Error: "this field is required"})
	}
	if fh.Size > maxUploadSize {
		return "", nil, core.NewValidationError(nil, core.FieldError{Field: field, Error: "file is too large"})
	}
	f, err := fh.Open()
	if err != nil {
		return "", nil, errors.Wrap(err, "opening upload")
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, maxUploadSize))
	if err != nil {
		return "", nil, errors.Wrap(err, "reading upload")
	}
	return fh.Filename, content, nil
}

func (api *adminApi) putFile(ctx echo.Context) error {
	userID, err := api.userID(ctx)
	if err != nil {
		return err
	}
	filename, content, err := readUpload(ctx, "file")
	if err != nil {
		return err
	}

	f, err := api.deps.Settings.PutFile(ctx.Request().Context(), userID, ctx.Param("name"), filename, content)
	if err != nil {
		return errors.Wrap(err, "storing setting file")
	}
	return ctx.JSON(http.StatusCreated, f)
}

func (api *adminApi) applyDefaults(ctx echo.Context) error {
	userID, err := api.userID(ctx)
	if err != nil {
		return err
	}
	n, err := api.deps.Settings.ApplyDefaults(ctx.Request().Context(), userID)
	if err != nil {
		return errors.Wrap(err, "applying defaults")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"count": n})
}

func (api *adminApi) changes(ctx echo.Context) error {
	entries, err := api.deps.Settings.Store().QueryConfigLog(ctx.Request().Context(), api.deps.Settings.Component())
	if err != nil {
		return errors.Wrap(err, "querying config log")
	}
	if entries == nil {
		entries = []settings.ConfigLog{}
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *adminApi) export(ctx echo.Context) error {
	var buf bytes.Buffer
	archive, err := api.deps.Porter.Export(ctx.Request().Context(), &buf)
	if err != nil {
		return errors.Wrap(err, "exporting settings")
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+archive.Name+`"`)
	return ctx.Blob(http.StatusOK, "application/gzip", buf.Bytes())
}

func (api *adminApi) emailExport(ctx echo.Context) error {
	var data EmailExportRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EmailExportRequest")
	}
	if err := api.deps.Validate.Struct(data); err != nil {
		return err
	}

	archive, err := api.deps.Porter.EmailExport(ctx.Request().Context(), api.deps.Mail, data.To...)
	if err != nil {
		return errors.Wrap(err, "emailing settings")
	}
	return ctx.JSON(http.StatusAccepted, echo.Map{
		"filename":     archive.Name,
		"settingcount": archive.SettingCount,
		"filecount":    archive.FileCount,
	})
}

func (api *adminApi) importArchive(ctx echo.Context) error {
	userID, err := api.userID(ctx)
	if err != nil {
		return err
	}
	_, content, err := readUpload(ctx, "file")
	if err != nil {
		return err
	}

	res, err := api.deps.Porter.Import(ctx.Request().Context(), userID, bytes.NewReader(content))
	if err != nil {
		return errors.Wrap(err, "importing settings")
	}
	code := http.StatusOK
	if res.Failed() {
		code = http.StatusBadRequest
	}
	return ctx.JSON(code, res)
}
