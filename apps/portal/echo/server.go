package echoapi

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/gateway"
	"github.com/trezcool/academia/core/policy"
	"github.com/trezcool/academia/core/session"
)

type (
	// Contract bundles the three cooperating pieces of one auth contract
	// instance. The portal runs two of them side by side: the primary one
	// (admin/teacher/parent/accountant) and the student one, with disjoint
	// cookies, upstream routes and policies.
	Contract struct {
		Store   *session.Store
		Gateway *gateway.Client
		Policy  *policy.Table
	}

	Options struct {
		Addr           string
		DisableReqLogs bool
		Logger         core.Logger
		Primary        Contract
		Student        Contract
		SettingsTTL    time.Duration
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	debug := core.Conf.Debug

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(debug || core.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.signalShutdown)
	s.app.Debug = debug

	// primary portal (admin/teacher/parent/accountant)
	pg := s.app.Group("", hydrateMiddleware(s.opts.Primary), guardMiddleware(s.opts.Primary))
	registerAuthAPI(pg, s.opts.Primary)
	registerDashboardAPI(pg, s.opts.Primary)
	registerSettingsAPI(pg, s.opts.Primary, s.opts.SettingsTTL)

	// student portal; structurally independent session
	sg := s.app.Group("/student", hydrateMiddleware(s.opts.Student), guardMiddleware(s.opts.Student))
	registerStudentAPI(sg, s.opts.Student)

	// registered last: the root group's catch-all also claims "/"
	s.app.GET("/", home)
}

func (s *server) Start() {
	s.app.Logger.Fatal(s.app.Start(s.opts.Addr))
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) signalShutdown() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), core.Conf.Server.ShutdownTimeout)
		defer cancel()
		_ = s.Stop(ctx)
	}()
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to the Academia portal!")
}

// PrimaryPolicy is the static route policy of the primary portal.
// Unmatched paths require an authenticated session.
func PrimaryPolicy() *policy.Table {
	return policy.NewTable(policy.Options{
		Rules: []policy.Rule{
			{PathPrefix: "/", Require: policy.None}, // homepage handles onboarding itself
			{PathPrefix: "/login", Require: policy.GuestOnly},
			{PathPrefix: "/forgot-password", Require: policy.None},
			{PathPrefix: "/onboarding", Require: policy.None},
			{PathPrefix: "/accept-invitation", Require: policy.None},
			{PathPrefix: "/settings/public", Require: policy.None},
			{PathPrefix: "/admin", Require: policy.Admin},
			{PathPrefix: "/teacher", Require: policy.Teacher},
			{PathPrefix: "/parent", Require: policy.Parent},
			{PathPrefix: "/accountant", Require: policy.Accountant},
		},
		LoginPath:    "/login",
		FallbackPath: "/",
		Landings: map[policy.Require]string{
			policy.Admin:   "/admin",
			policy.Teacher: "/teacher",
			policy.Parent:  "/parent",
		},
	})
}

// StudentPolicy is the static route policy of the student portal. It knows
// nothing about the primary session.
func StudentPolicy() *policy.Table {
	return policy.NewTable(policy.Options{
		Rules: []policy.Rule{
			{PathPrefix: "/student/login", Require: policy.GuestOnly},
			{PathPrefix: "/student/register", Require: policy.None},
		},
		LoginPath:    "/login",
		FallbackPath: "/student",
		Landings:     map[policy.Require]string{},
	})
}
