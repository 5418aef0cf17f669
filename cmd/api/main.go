package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"courier-dispatch/internal/api"
	custommw "courier-dispatch/internal/api/middleware"
	"courier-dispatch/internal/config"
	"courier-dispatch/internal/modules/auth"
	"courier-dispatch/internal/modules/dispatch"
	"courier-dispatch/internal/modules/drivers"
	"courier-dispatch/internal/modules/events"
	"courier-dispatch/internal/modules/health"
	"courier-dispatch/internal/modules/orders"
	"courier-dispatch/internal/modules/quotes"
	"courier-dispatch/pkg/crm"
	"courier-dispatch/pkg/email"
	"courier-dispatch/pkg/mapsapi"
	"courier-dispatch/pkg/payments"
	"courier-dispatch/pkg/push"
	"courier-dispatch/pkg/utils"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
)

func main() {
	// 1. --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	e := echo.New()
	e.HideBanner = true
	e.Validator = utils.GetValidator()

	// 2. --- Middleware ---
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"http://localhost:5173", cfg.ClientOrigin},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(custommw.DemoMode(cfg.DemoModeEnabled))

	// 3. --- Database Connection ---
	dbConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to parse database configuration: %v", err)
	}
	dbPool, err := pgxpool.NewWithConfig(context.Background(), dbConfig)
	if err != nil {
		log.Fatalf("Unable to create connection pool: %v", err)
	}
	defer dbPool.Close()

	if err := dbPool.Ping(context.Background()); err != nil {
		log.Fatalf("Unable to ping database: %v", err)
	}
	logger.Info("connected to database")

	// 4. --- Rate limiter (optional) ---
	var rateLimiter *custommw.RateLimiter
	if cfg.RateLimitEnabled && cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		rateLimiter = custommw.NewRateLimiter(rdb,
			int64(cfg.RateLimitMax),
			time.Duration(cfg.RateLimitWindowSec)*time.Second)
	}

	// 5. --- Integration Adapters ---
	// Each adapter tolerates missing credentials and reports unconfigured
	// instead of failing at startup.
	paymentsClient := payments.NewClient(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	crmClient := crm.NewClient(cfg.CRMBaseURL, cfg.CRMToken)
	pushSender := push.NewSender(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, cfg.VAPIDSubscriber)

	distanceProvider, err := mapsapi.NewGoogleProvider(cfg.MapsAPIKey)
	if err != nil {
		log.Fatalf("Failed to initialize maps client: %v", err)
	}
	emailer, err := email.NewSESV2Sender(context.Background(), cfg.AWSRegion, cfg.EmailFrom)
	if err != nil {
		log.Fatalf("Failed to initialize email sender: %v", err)
	}
	templates, err := email.NewTemplateManager()
	if err != nil {
		log.Fatalf("Failed to parse email templates: %v", err)
	}

	// 6. --- Dependency Injection ---
	eventRepo := events.NewRepository(dbPool)
	eventService := events.NewService(eventRepo, logger)
	eventHandler := events.NewHandler(eventService)

	quoteRepo := quotes.NewRepository(dbPool)
	quoteService := quotes.NewService(quoteRepo, paymentsClient, cfg.ClientOrigin)
	quoteHandler := quotes.NewHandler(quoteService)

	driverRepo := drivers.NewRepository(dbPool)
	orderRepo := orders.NewRepository(dbPool)

	orderService := orders.NewService(orderRepo, driverRepo, quoteRepo, eventService, pushSender, logger)
	orderHandler := orders.NewHandler(orderService, paymentsClient)

	driverService := drivers.NewService(driverRepo, orderRepo)
	driverHandler := drivers.NewHandler(driverService)

	dispatchService := dispatch.NewService(driverService, driverService, orderRepo, distanceProvider, logger)
	dispatchHandler := dispatch.NewHandler(dispatchService)

	authService := auth.NewService(cfg.MasterLoginEnabled, cfg.MasterEmail, cfg.MasterPasswordHash, cfg.JWTSecret)
	authHandler := auth.NewHandler(authService)

	healthHandler := health.NewHandler(cfg, dbPool)

	// 7. --- Outbox Worker ---
	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	outbox := events.NewWorker(eventRepo, orderRepo, quoteRepo, crmClient, emailer, templates, cfg.AutomationWebhookURL, logger)
	go outbox.Run(workerCtx)

	// 8. --- Router ---
	api.SetupRoutes(e,
		quoteHandler,
		orderHandler,
		driverHandler,
		dispatchHandler,
		eventHandler,
		authHandler,
		healthHandler,
		rateLimiter,
		cfg.JWTSecret,
	)

	// 9. --- Start Server with graceful shutdown ---
	go func() {
		if err := e.Start(":" + cfg.ServerPort); err != nil && err != http.ErrServerClosed {
			e.Logger.Fatal("shutting down the server, an error occurred: ", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	stopWorker()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		e.Logger.Fatal("Server forced to shutdown: ", err)
	}
	log.Println("Server exiting")
}
