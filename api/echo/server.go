package echoapi

import (
	"context"
	_ "embed"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/kazi/core"
	"github.com/trezcool/kazi/core/assignment"
	aisvc "github.com/trezcool/kazi/services/summarizer"
	syncsvc "github.com/trezcool/kazi/services/sync"
)

//go:embed index.html
var indexHTML string

type (
	Options struct {
		Addr           string
		Debug          bool
		TestMode       bool
		DisableReqLogs bool

		AssignmentSvc *assignment.Service
		Syncer        *syncsvc.Runner
		Summarizer    *aisvc.Service
		Logger        core.Logger
		Validate      *validator.Validate
	}

	Server interface {
		http.Handler
		Start()
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
		Shutdown(context.Context) error
		Close() error
	}

	server struct {
		opts     *Options
		app      *echo.Echo
		errs     chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts:     opts,
		app:      echo.New(),
		errs:     make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(s.opts.Debug || s.opts.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.signalShutdown)
	s.app.Debug = s.opts.Debug
	s.app.HideBanner = true

	s.app.GET("/", home)

	api := s.app.Group("/api")
	registerAssignmentAPI(api, s.opts)
}

func (s *server) Start() {
	go func() {
		if err := s.app.Start(s.opts.Addr); err != nil && err != http.ErrServerClosed {
			s.errs <- err
		}
	}()
}

func (s *server) Errors() <-chan error              { return s.errs }
func (s *server) ShutdownSignal() <-chan os.Signal  { return s.shutdown }
func (s *server) Shutdown(ctx context.Context) error { return s.app.Shutdown(ctx) }
func (s *server) Close() error                      { return s.app.Close() }

func (s *server) signalShutdown() {
	s.shutdown <- syscall.SIGTERM
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.HTML(http.StatusOK, indexHTML)
}
