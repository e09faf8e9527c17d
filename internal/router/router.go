package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/school-admissions/internal/config"
	"github.com/iliyamo/school-admissions/internal/handler"
	"github.com/iliyamo/school-admissions/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Used by load balancers and monitoring to verify the service is up.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication routes and the protected /v1/me
// endpoint.  Unauthenticated operations live under /v1/auth.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("APPLICANT", "REVIEWER", "ADMIN"))
	auth.GET("/me", a.Me)
}

// RegisterPublic registers the unauthenticated availability endpoint.  The
// route is rate limited per caller and its responses are cached briefly in
// Redis; both middlewares degrade to pass-through when Redis is absent.
func RegisterPublic(e *echo.Echo, av *handler.AvailabilityHandler, rdb *redis.Client, rl config.RateLimitConfig, cc config.CacheConfig) {
	e.GET("/v1/availability", av.Check,
		middleware.NewTokenBucket(rl, rdb),
		middleware.NewRedisCache(cc, rdb),
	)
}

// RegisterApplications registers the application lifecycle routes.  Every
// authenticated role may create, read and transition; ownership and the
// per-role edge restrictions are enforced inside the handler, because an
// applicant and a reviewer share the same transition endpoint.
func RegisterApplications(e *echo.Echo, h *handler.ApplicationHandler, jwtSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("APPLICANT", "REVIEWER", "ADMIN"))

	g.POST("/applications", h.Create)
	g.GET("/applications/:id", h.Get)
	g.GET("/my-applications", h.ListMine)
	g.POST("/applications/:id/transition", h.Transition)
}

// RegisterAdminQuotas registers quota administration under /v1/admin.
// These routes are ADMIN-only; occupancy is never writable here.
func RegisterAdminQuotas(e *echo.Echo, h *handler.AdminQuotaHandler, jwtSecret string) {
	g := e.Group("/v1/admin")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("ADMIN"))

	g.POST("/quotas", h.Create)
	g.GET("/quotas", h.List)
	g.PUT("/quotas/:id/capacity", h.UpdateCapacity)
	g.DELETE("/quotas/:id", h.Delete)
	g.GET("/quotas/:id/admitted", h.ListAdmitted)
}
