// Package echoapi serves the theme data over HTTP.
package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/gregoryekhator/debonairkent/core"
	"github.com/gregoryekhator/debonairkent/core/adminsettings"
	"github.com/gregoryekhator/debonairkent/core/course"
	"github.com/gregoryekhator/debonairkent/core/features"
	"github.com/gregoryekhator/debonairkent/core/managerdata"
	"github.com/gregoryekhator/debonairkent/core/render"
	"github.com/gregoryekhator/debonairkent/core/settings"
	"github.com/gregoryekhator/debonairkent/core/themeport"
	"github.com/gregoryekhator/debonairkent/core/user"
	"github.com/gregoryekhator/debonairkent/core/userdata"
)

type (
	ServerDeps struct {
		Conf        *core.Config
		Logger      core.Logger
		Validate    *validator.Validate
		Translator  ut.Translator
		Formatter   settings.Formatter
		Users       *user.Service
		Courses     *course.Service
		UserData    *userdata.Composer
		ManagerData *managerdata.Composer
		Features    *features.Service
		Settings    *adminsettings.Manager
		Porter      *themeport.Porter
		Renderer    *render.Renderer
		FrontPage   *render.FrontPage
		Mail        core.EmailService
		// DisableReqLogs turns off the request logs, in tests usually.
		DisableReqLogs bool
	}

	Server struct {
		*http.Server
		app      *echo.Echo
		deps     ServerDeps
		tokens   *Tokens
		shutdown chan os.Signal
		errors   chan error
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		Server: &http.Server{
			Addr:         deps.Conf.Server.Host,
			ReadTimeout:  deps.Conf.Server.ReadTimeout,
			WriteTimeout: deps.Conf.Server.WriteTimeout,
		},
		app:      echo.New(),
		deps:     deps,
		tokens:   NewTokens(deps.Conf),
		shutdown: make(chan os.Signal, 1),
		errors:   make(chan error, 1),
	}
	s.Handler = s.app
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(requestIDMiddleware())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.SignalShutdown)
	s.app.Debug = conf.Debug
	s.app.HideBanner = true

	s.app.GET("/", s.home)

	v1 := s.app.Group("/v1")
	jwt := s.tokens.Middleware()

	registerUserAPI(v1, jwt, s.tokens, s.deps)
	registerSettingsAPI(v1, s.tokens.Optional(), s.deps)
	registerCourseAPI(v1, jwt, s.tokens.Optional(), s.deps)
	registerAdminAPI(v1, jwt, s.deps)
}

// Tokens returns the token issuer of the server.
func (s *Server) Tokens() *Tokens {
	return s.tokens
}

// Start listens until the server is shut down; errors are sent to Errors.
func (s *Server) Start() {
	if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) SignalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

// Shutdown stops the server, waiting for the requests in progress until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.Server.Shutdown(ctx)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.deps.Conf.AppName+" API!")
}
