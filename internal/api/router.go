package api

import (
	"net/http"

	"courier-dispatch/internal/api/middleware"
	"courier-dispatch/internal/modules/auth"
	"courier-dispatch/internal/modules/dispatch"
	"courier-dispatch/internal/modules/drivers"
	"courier-dispatch/internal/modules/events"
	"courier-dispatch/internal/modules/health"
	"courier-dispatch/internal/modules/orders"
	"courier-dispatch/internal/modules/quotes"

	"github.com/labstack/echo/v4"
)

// SetupRoutes sets up all the API endpoints for the application.
func SetupRoutes(
	e *echo.Echo,
	quoteHandler *quotes.Handler,
	orderHandler *orders.Handler,
	driverHandler *drivers.Handler,
	dispatchHandler *dispatch.Handler,
	eventHandler *events.Handler,
	authHandler *auth.Handler,
	healthHandler *health.Handler,
	rateLimiter *middleware.RateLimiter,
	jwtSecret string,
) {
	authMiddleware := middleware.JWTAuth(jwtSecret)
	adminRequired := middleware.AdminRequired()

	// --- Public Routes ---
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"message": "Courier dispatch API"})
	})
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/config", healthHandler.ConfigStatus)

	apiGroup := e.Group("/api")

	// Quote and checkout are the public entry points and the only rate-limited
	// surface.
	quoteGroup := apiGroup.Group("")
	if rateLimiter != nil {
		quoteGroup.Use(rateLimiter.Middleware())
	}
	{
		quoteGroup.POST("/quote", quoteHandler.CreateQuote)
		quoteGroup.GET("/quote/:quoteId", quoteHandler.GetQuote)
		quoteGroup.POST("/checkout", quoteHandler.CreateCheckout)
	}

	// External callers authenticate via signatures or dedup ids, not JWTs.
	webhookGroup := apiGroup.Group("/webhooks")
	{
		webhookGroup.POST("/payments", orderHandler.PaymentWebhook)
		webhookGroup.POST("/automation", eventHandler.InboundAutomation)
	}

	apiGroup.POST("/auth/master-login", authHandler.MasterLogin)

	// --- Operator Routes ---
	orderGroup := apiGroup.Group("/orders", authMiddleware)
	{
		orderGroup.GET("", orderHandler.ListOrders)
		orderGroup.GET("/:orderId", orderHandler.GetOrder)
		orderGroup.POST("/assign", orderHandler.AssignDriver)
		orderGroup.POST("/:orderId/assign", orderHandler.AssignDriverByPath)
		orderGroup.PATCH("/:orderId/status", orderHandler.UpdateStatus)
		orderGroup.POST("/:orderId/cancel", orderHandler.CancelOrder)
	}

	driverGroup := apiGroup.Group("/drivers", authMiddleware)
	{
		driverGroup.GET("", driverHandler.ListDrivers)
		driverGroup.POST("", driverHandler.CreateDriver)
		driverGroup.POST("/push-subscription", driverHandler.SavePushSubscription)
		driverGroup.POST("/location", driverHandler.ReportLocation)
		driverGroup.GET("/location", driverHandler.GetLocation)
	}

	apiGroup.GET("/dispatch/suggestions", dispatchHandler.GetSuggestions, authMiddleware)

	// --- Tracking ---
	e.GET("/ws/orders/:orderId/track", driverHandler.TrackOrder, authMiddleware)

	// --- Admin Routes ---
	adminGroup := apiGroup.Group("/admin", authMiddleware, adminRequired)
	{
		adminGroup.GET("/logs", eventHandler.ListLogs)
		adminGroup.GET("/health", healthHandler.AdminStatus)
		adminGroup.GET("/health/database", healthHandler.AdminDatabase)
	}
}
