package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/menamiji/info-class/core"
	"github.com/menamiji/info-class/core/auth"
)

type (
	// ServerDeps holds the Server's dependencies.
	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		AuthSvc    *auth.Service
		Validate   *validator.Validate
		Translator ut.Translator
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		errs     chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		errs:     make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: conf.CORSAllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderAccept, "Accept-Language", "Content-Language", echo.HeaderContentType,
			echo.HeaderAuthorization, echo.HeaderXRequestedWith, echo.HeaderXCSRFToken,
		},
		AllowCredentials: true,
		ExposeHeaders:    []string{echo.HeaderContentLength, echo.HeaderContentType, echo.HeaderAuthorization},
		MaxAge:           600,
	}))
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", s.home)
	s.app.GET("/healthz", s.healthz)

	registerAuthAPI(s.app.Group("/auth"), s.deps)
}

// Start starts the server and blocks until it stops. A failed start or stop
// is reported on Errors.
func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.APIHost); err != nil && err != http.ErrServerClosed {
		s.errs <- err
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

// Errors reports server start and stop failures.
func (s *Server) Errors() <-chan error {
	return s.errs
}

// ShutdownSignal receives OS interrupt and termination signals.
func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

// signalShutdown triggers a graceful shutdown from within; used when a
// handler returns an unrecoverable error.
func (s *Server) signalShutdown() {
	s.shutdown <- syscall.SIGTERM
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

// Handlers

func (s *Server) home(ctx echo.Context) error {
	conf := s.deps.Conf
	return jsonOK(ctx, homeResponse{
		Name:        conf.AppName,
		Version:     conf.Build,
		Environment: conf.Env,
	})
}

func (s *Server) healthz(ctx echo.Context) error {
	conf := s.deps.Conf
	return jsonOK(ctx, healthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   conf.Build,
		Services: healthServices{
			API: "healthy",
			IdP: s.deps.AuthSvc.Provider(),
		},
		Configuration: healthConfiguration{
			DebugMode:        conf.Debug,
			AllowedDomain:    conf.Auth.AllowedEmailDomain,
			TokenExpireHours: int(conf.Auth.TokenExpirationDelta.Hours()),
		},
	})
}

type (
	homeResponse struct {
		Name        string `json:"name"`
		Version     string `json:"version"`
		Environment string `json:"environment"`
	}

	healthServices struct {
		API string `json:"api"`
		IdP string `json:"idp"`
	}

	healthConfiguration struct {
		DebugMode        bool   `json:"debug_mode"`
		AllowedDomain    string `json:"allowed_domain"`
		TokenExpireHours int    `json:"token_expire_hours"`
	}

	healthResponse struct {
		Status        string              `json:"status"`
		Timestamp     time.Time           `json:"timestamp"`
		Version       string              `json:"version"`
		Services      healthServices      `json:"services"`
		Configuration healthConfiguration `json:"configuration"`
	}
)
