package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/storefront/commerce-core/internal/api/handler"
	"github.com/storefront/commerce-core/internal/api/middleware"
	"github.com/storefront/commerce-core/internal/core/ports"
)

// Dependencies carries everything the HTTP layer needs. Services are built by
// the caller so the router stays independent of the storage driver.
type Dependencies struct {
	AuthService     ports.AuthService
	CartService     ports.CartService
	CheckoutService ports.CheckoutService
	ReceiptService  ports.ReceiptService

	// HealthChecks are pinged by the readiness probe, keyed by dependency name.
	HealthChecks map[string]handler.PingFunc

	Logger zerolog.Logger

	// MetricsRegisterer defaults to the global Prometheus registry.
	MetricsRegisterer prometheus.Registerer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Logger))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "commerce",
		Registerer: deps.MetricsRegisterer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || c.Path() == "/health" || c.Path() == "/health/ready"
		},
	}))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(deps.AuthService)
	cartHandler := handler.NewCartHandler(deps.CartService)
	checkoutHandler := handler.NewCheckoutHandler(deps.CheckoutService)
	receiptHandler := handler.NewReceiptHandler(deps.ReceiptService)
	healthHandler := handler.NewHealthHandler(deps.HealthChecks)
	requirePrivileged := middleware.RequirePrivileged()

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/refresh", authHandler.Refresh)

	// --- Authenticated API ---
	v1 := e.Group("/v1", middleware.Auth(deps.AuthService))
	v1.GET("/me", authHandler.Me)
	v1.POST("/users", authHandler.CreateUser, requirePrivileged)

	v1.GET("/cart", cartHandler.Get)
	v1.PUT("/cart", cartHandler.Replace)
	v1.POST("/checkout", checkoutHandler.Checkout)

	v1.GET("/receipts", receiptHandler.List)
	v1.GET("/receipts/:id", receiptHandler.Get)
	v1.PUT("/receipts/:id", receiptHandler.Update, requirePrivileged)
	v1.DELETE("/receipts/:id", receiptHandler.Delete, requirePrivileged)

	// --- Health probes (no auth required) ---
	e.GET("/health", healthHandler.Liveness)        // liveness  – is the process alive?
	e.GET("/health/ready", healthHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// requestLogger writes one zerolog line per request.
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
