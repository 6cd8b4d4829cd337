package router // package router defines how HTTP routes are registered for the API

import (
	"net/http" // status codes for the error handler

	"github.com/labstack/echo/v4"                         // import the Echo web framework to handle routing
	echomw "github.com/labstack/echo/v4/middleware"       // Echo's stock middleware (recover, request id)
	"github.com/redis/go-redis/v9"                        // optional shared Redis for cache and rate limiting
	"go.uber.org/zap"                                     // structured request logging

	"github.com/iliyamo/staybook/internal/config"           // app configuration
	"github.com/iliyamo/staybook/internal/handler"          // import the handlers that implement the endpoints
	"github.com/iliyamo/staybook/internal/middleware"       // session authentication, admin guard, cache and rate limiting
	"github.com/iliyamo/staybook/internal/platform/metrics" // Prometheus registry and request histogram
	"github.com/iliyamo/staybook/internal/service"          // marketplace use cases
	"github.com/iliyamo/staybook/internal/session"          // server-side session backend
)

// Deps is everything New needs to build the HTTP API.  Redis may be nil,
// in which case caching and rate limiting are disabled.
type Deps struct {
	Cfg      config.Config
	Svc      *service.Service
	Sessions session.Backend
	Redis    *redis.Client
	Metrics  *metrics.Metrics
	Log      *zap.Logger
}

// New returns an Echo instance with the global middleware chain and every
// route registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = jsonErrors

	// Order matters: recover first so panics are logged and measured like
	// any other 500, rate limiting before the cache so hits still count.
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(middleware.Instrument(d.Metrics))
	e.Use(middleware.NewTokenBucket(d.Cfg.RateLimit, d.Redis, d.Log))
	e.Use(middleware.NewRedisCache(d.Cfg.Cache, d.Redis, d.Log))

	guard := middleware.SessionAuth(d.Cfg.JWTSecret, d.Sessions, d.Svc.Users())
	purge := middleware.PurgeOnWrite(d.Cfg.Cache, d.Redis, d.Log)

	RegisterRoutes(e, d.Metrics)
	RegisterAuth(e, handler.NewAuthHandler(d.Cfg, d.Svc, d.Sessions, d.Log), guard)
	RegisterPublic(e, handler.NewListingHandler(d.Svc, d.Log))
	RegisterGuest(e, handler.NewBookingHandler(d.Svc, d.Log), handler.NewReviewHandler(d.Svc, d.Log), guard, purge)
	RegisterAdmin(e, handler.NewAdminHandler(d.Svc, d.Log), guard, purge)
	return e
}

// RegisterRoutes registers operational routes that do not require
// authentication: the health check and the Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo, m *metrics.Metrics) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(m.Handler()))
}

// RegisterAuth registers account routes.  Register and login need no
// session; me and logout run behind the session guard.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, guard echo.MiddlewareFunc) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/logout", a.Logout, guard)

	e.GET("/v1/me", a.Me, guard)
}

// RegisterPublic registers the unauthenticated catalogue.  Everything here
// is a GET under /v1/listings so the response cache can serve it.
func RegisterPublic(e *echo.Echo, l *handler.ListingHandler) {
	e.GET("/v1/listings", l.Search)
	e.GET("/v1/listings/:id", l.Get)
	e.GET("/v1/listings/:id/reviews", l.Reviews)
	e.GET("/v1/listings/:id/quote", l.Quote)
}

// RegisterGuest registers endpoints for any logged-in user.  Writes purge
// the response cache so new reviews appear immediately.
func RegisterGuest(e *echo.Echo, b *handler.BookingHandler, r *handler.ReviewHandler, guard, purge echo.MiddlewareFunc) {
	g := e.Group("/v1", guard, purge)
	g.POST("/listings/:id/reservations", b.Create)
	g.GET("/my-reservations", b.Mine)
	g.DELETE("/reservations/:id", b.Cancel)
	g.POST("/listings/:id/reviews", r.Submit)
}

// RegisterAdmin registers catalogue management and review responses.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, guard, purge echo.MiddlewareFunc) {
	g := e.Group("/v1/admin", guard, middleware.RequireAdmin(), purge)
	g.POST("/listings", a.CreateListing)
	g.PUT("/listings/:id", a.UpdateListing)
	g.DELETE("/listings/:id", a.DeleteListing)
	g.PATCH("/reviews/:id/response", a.Respond)
}

// jsonErrors renders Echo's own errors (404 route, 405, bind failures) in
// the same {"error": ...} shape the handlers use.
func jsonErrors(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	msg := "Something went wrong. Please try again."
	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if code < http.StatusInternalServerError {
			msg = http.StatusText(code)
		}
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, echo.Map{"error": msg})
}
