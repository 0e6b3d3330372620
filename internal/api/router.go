package api

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/agridynamic/admin-console/internal/api/handler"
	"github.com/agridynamic/admin-console/internal/api/metrics"
	"github.com/agridynamic/admin-console/internal/api/middleware"
	"github.com/agridynamic/admin-console/internal/core/ports"
)

// Deps is everything the gateway serves.
type Deps struct {
	Log           zerolog.Logger
	Sessions      ports.SessionService
	Catalog       handler.ProjectCatalog
	Resources     []handler.ResourceRoutes
	Readiness     map[string]handler.Checker
	PublicSiteURL string
	RequireAdmin  bool
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))

	// --- Health probes and metrics (no session required) ---
	e.GET("/health", handler.NewHealthHandler().Liveness)
	e.GET("/health/ready", handler.NewReadinessHandler(d.Readiness).Readiness)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	// --- Public catalog ---
	catalog := handler.NewCatalogHandler(d.Catalog)
	e.GET("/projects", catalog.Projects)
	e.GET("/projects/:id", catalog.Article)

	// --- Session ---
	auth := handler.NewAuthHandler(d.Sessions, d.Log)
	e.GET("/session", auth.Session)
	e.POST("/session/login", auth.Login)
	e.POST("/session/logout", auth.Logout)
	e.PUT("/session/profile", auth.Profile)

	// --- Admin ---
	admin := e.Group("/admin",
		middleware.AdminGate(d.Sessions, d.PublicSiteURL),
		middleware.RequireAdmin(d.RequireAdmin),
	)
	for _, r := range d.Resources {
		g := admin.Group("/" + r.Name())
		g.GET("", r.List)
		g.GET("/form", r.Form)
		g.POST("", r.Create)
		g.PUT("/:id", r.Update)
		g.DELETE("/:id", r.Delete)
	}

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
