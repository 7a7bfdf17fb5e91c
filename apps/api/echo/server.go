package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/academiahq/academia/core"
	"github.com/academiahq/academia/core/account"
)

type (
	ServerDeps struct {
		Logger         core.Logger
		AccountSvc     account.Service
		DisableReqLogs bool
	}

	Server interface {
		http.Handler
		Start()
		Shutdown(context.Context) error
		Close() error
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
	}

	server struct {
		deps     ServerDeps
		app      *echo.Echo
		errs     chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	s := &server{
		deps:     deps,
		app:      echo.New(),
		errs:     make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(core.Conf.Debug || core.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.signalShutdown)
	s.app.Debug = core.Conf.Debug
	s.app.HideBanner = true

	s.registerPages()

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig())

	registerAccountAPI(v1, jwt, s.deps.AccountSvc)
}

// registerPages mounts the portal routes. Everything under a dashboard prefix
// (and its /api twin) goes through the guard; the auth flow pages are public.
func (s *server) registerPages() {
	guard := guardMiddleware()

	s.app.GET("/", home, guard)
	s.app.GET(account.PathLogin, loginPage, guard)
	s.app.GET(account.PathSelectRole, selectRolePage, guard)
	s.app.GET(account.PathPendingApproval, pendingApprovalPage, guard)

	for _, role := range account.AssignableRoles {
		prefix := role.DashboardPath()
		s.app.GET(prefix, dashboardPage(role), guard)
		s.app.GET(prefix+"/*", dashboardPage(role), guard)
		s.app.GET("/api"+prefix, dashboardData(role), guard)
		s.app.GET("/api"+prefix+"/*", dashboardData(role), guard)
	}
}

func (s *server) Start() {
	signal.Notify(s.shutdown, syscall.SIGINT, syscall.SIGTERM)
	s.errs <- s.app.Start(core.Conf.Server.Address())
}

func (s *server) Shutdown(ctx context.Context) error { return s.app.Shutdown(ctx) }
func (s *server) Close() error                       { return s.app.Close() }
func (s *server) Errors() <-chan error               { return s.errs }
func (s *server) ShutdownSignal() <-chan os.Signal   { return s.shutdown }

func (s *server) signalShutdown() {
	s.shutdown <- syscall.SIGTERM
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

// Page handlers; the real UI lives in the frontend, these answer for it.

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Academia!")
}

func loginPage(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"page": "login"})
}

func selectRolePage(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"page": "select-role", "roles": account.AssignableRoles})
}

func pendingApprovalPage(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"page": "pending-approval"})
}

func dashboardPage(role account.Role) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		return ctx.JSON(http.StatusOK, echo.Map{"dashboard": role})
	}
}

func dashboardData(role account.Role) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		claims, _ := getContextClaims(ctx)
		return ctx.JSON(http.StatusOK, echo.Map{
			"dashboard":  role,
			"account_id": claims.Subject,
			"profile_id": claims.ProfileID,
		})
	}
}
