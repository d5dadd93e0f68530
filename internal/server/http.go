// Package server assembles the echo application: shared middleware and every route.
package server

import (
	"log"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	applicationhandler "internship-portal/backend/internal/application/handler"
	"internship-portal/backend/internal/devotp"
	devotphandler "internship-portal/backend/internal/devotp/handler"
	healthhandler "internship-portal/backend/internal/health/handler"
	identityhandler "internship-portal/backend/internal/identity/handler"
	internshiphandler "internship-portal/backend/internal/internship/handler"
	internshiprepo "internship-portal/backend/internal/internship/repository"
	"internship-portal/backend/internal/server/httpx"
	"internship-portal/backend/internal/server/middleware"
	"internship-portal/backend/internal/storage"
	userhandler "internship-portal/backend/internal/user/handler"
)

const (
	defaultServiceName = "internship-portal"
	pictureBodyLimit   = "5M"
)

// Applications submits applications and recomputes a user's count (*applicationservice.ApplyService).
type Applications interface {
	applicationhandler.Applier
	userhandler.AppliedCounter
}

// Deps holds the services behind the HTTP routes.
type Deps struct {
	// Auth serves /api/auth and the legacy /register and /login.
	Auth identityhandler.AuthService
	// Sessions resolves bearer tokens for /api/me and /api/auth/logout.
	Sessions    middleware.Resolver
	Internships internshiprepo.Repository
	Apps        Applications
	// Users is written by the profile endpoints.
	Users userhandler.ProfileStore
	// Files stores uploaded profile pictures.
	Files storage.Store
	// UploadDir, when set, is served under /uploads (local upload backend).
	UploadDir string
	// Health lists the dependencies pinged by /healthz. Nil entries are skipped.
	Health map[string]healthhandler.Pinger
	// DevOTP, when non-nil, exposes GET /dev/otp. Set only in dev OTP mode outside production.
	DevOTP devotp.Store
	// AuthRateLimit and AuthRateBurst bound auth requests per client IP.
	AuthRateLimit float64
	AuthRateBurst int
	// Clock drives the rate limiter. Nil uses the real clock.
	Clock clockwork.Clock
	// ServiceName names the otelecho spans.
	ServiceName string
}

// New returns the echo application with all routes registered.
func New(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = httpx.NewValidator()

	serviceName := deps.ServiceName
	if serviceName == "" {
		serviceName = defaultServiceName
	}
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			if v.Error != nil {
				log.Printf("http: %s %s %d %s: %v", v.Method, v.URI, v.Status, v.Latency, v.Error)
				return nil
			}
			log.Printf("http: %s %s %d %s", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))
	e.Use(echomw.CORS())
	e.Use(otelecho.Middleware(serviceName, otelecho.WithSkipper(func(c echo.Context) bool {
		return c.Path() == "/metrics" || c.Path() == "/healthz"
	})))
	e.Use(middleware.Metrics("/metrics", "/healthz"))

	limiter := middleware.NewRateLimiter(deps.AuthRateLimit, deps.AuthRateBurst, deps.Clock).Middleware()
	requireUser := middleware.RequireUser(deps.Sessions)

	auth := identityhandler.New(deps.Auth)
	auth.Register(e.Group("/api/auth", limiter), requireUser)
	auth.RegisterLegacy(e.Group(""), limiter)

	userhandler.New(deps.Users, deps.Files, deps.Apps).
		Register(e.Group("/api/me", requireUser), echomw.BodyLimit(pictureBodyLimit))
	internshiphandler.New(deps.Internships).Register(e.Group("/internships"))
	applicationhandler.New(deps.Apps).Register(e.Group(""))

	e.GET("/healthz", healthhandler.New(deps.Health).Check)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	if deps.UploadDir != "" {
		e.Static(storage.LocalPrefix, deps.UploadDir)
	}
	if deps.DevOTP != nil {
		devotphandler.New(deps.DevOTP).Register(e.Group("/dev"))
		log.Printf("server: dev OTP endpoint enabled at GET /dev/otp")
	}
	return e
}
