package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/sirpyerre/postbox/internal/api/handler"
	"github.com/sirpyerre/postbox/internal/api/middleware"
	"github.com/sirpyerre/postbox/internal/core/ports"
	"github.com/sirpyerre/postbox/internal/infrastructure/http/handlers"

	_ "github.com/sirpyerre/postbox/docs"
)

// Dependencies is everything the HTTP layer needs from the composition root.
type Dependencies struct {
	Log      zerolog.Logger
	Auth     ports.AuthService
	Identity ports.IdentityResolver
	Posts    ports.PostService

	// Checks are the readiness probes reported by /health/ready.
	Checks map[string]handlers.Check

	MaxPostSizeBytes int64
	CORSAllowOrigins []string

	// Registry receives the HTTP metrics. Nil means the prometheus default
	// registry, which also carries the domain counters.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: deps.CORSAllowOrigins,
		AllowHeaders: []string{
			echo.HeaderAuthorization,
			echo.HeaderContentType,
			handler.HeaderIdempotencyKey,
		},
	}))
	e.Use(metricsMiddleware(deps.Registry))

	// --- Health probes and docs (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(deps.Checks)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", metricsHandler(deps.Registry))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	e.POST("/auth/signup", authHandler.Signup)
	e.POST("/auth/register", authHandler.Signup)
	e.POST("/auth/login", authHandler.Login)

	// --- Posts (size guard runs before token resolution) ---
	postHandler := handler.NewPostHandler(deps.Posts)
	posts := e.Group("/posts", middleware.BodyLimit(deps.MaxPostSizeBytes), middleware.Auth(deps.Identity))
	posts.POST("", postHandler.Create)
	posts.GET("", postHandler.List)
	posts.DELETE("/:post_id", postHandler.Delete)

	return e
}

// requestLogger writes one zerolog event per request. Errors go through the
// global error handler first so the logged status is the one sent.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		HandleError:  true,
		LogLatency:   true,
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Status >= 500 {
				evt = log.Error().Err(v.Error)
			}
			evt.
				Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}

func metricsMiddleware(reg *prometheus.Registry) echo.MiddlewareFunc {
	cfg := echoprometheus.MiddlewareConfig{Namespace: "postbox", Subsystem: "http"}
	if reg != nil {
		cfg.Registerer = reg
	}
	return echoprometheus.NewMiddlewareWithConfig(cfg)
}

func metricsHandler(reg *prometheus.Registry) echo.HandlerFunc {
	if reg == nil {
		return echoprometheus.NewHandler()
	}
	return echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: reg})
}
