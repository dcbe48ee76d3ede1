package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"cargo/internal/app"
	"cargo/internal/auth"
	"cargo/internal/config"
	"cargo/internal/handler"
	"cargo/internal/middleware"
	"cargo/internal/psp"
	internalRedis "cargo/internal/redis"
	"cargo/internal/repository/postgres"
	"cargo/internal/service"
)

func main() {
	cfg := config.Load()
	gin.SetMode(cfg.Server.Mode)

	logger, err := app.NewLogger(cfg.Server, cfg.Log)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// New Relic goes first so the database and Redis clients get instrumented.
	var nrApp *newrelic.Application
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			logger.Warn("failed to initialize New Relic", zap.Error(err))
			nrApp = nil
		} else {
			logger.Info("New Relic enabled", zap.String("app", cfg.NewRelic.AppName))
		}
	}

	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("connected to PostgreSQL")

	if cfg.Database.RunMigrations {
		if err := app.RunMigrations(db, logger); err != nil {
			logger.Fatal("failed to migrate database", zap.Error(err))
		}
	}

	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("connected to Redis")

	server, scheduler, err := wireServer(ctx, db, redisClient, nrApp, cfg, logger)
	if err != nil {
		logger.Fatal("failed to wire server", zap.Error(err))
	}

	runCtx, stopScheduler := context.WithCancel(context.Background())
	defer stopScheduler()
	if cfg.Payout.SchedulerOn {
		go scheduler.Run(runCtx)
	}

	go func() {
		logger.Info("starting server", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")
	stopScheduler()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	if nrApp != nil {
		nrApp.Shutdown(5 * time.Second)
	}

	logger.Info("server exited")
}

// wireServer wires all dependencies and returns the HTTP server together
// with the payout scheduler.
func wireServer(
	ctx context.Context,
	db *sql.DB,
	redisClient *redis.Client,
	nrApp *newrelic.Application,
	cfg *config.Config,
	logger *zap.Logger,
) (*http.Server, *service.PayoutScheduler, error) {
	loc := cfg.Payout.Location()

	lockStore := internalRedis.NewLockStore(redisClient)
	cacheStore := internalRedis.NewCacheStore(redisClient)
	authLimiter := internalRedis.NewRateLimiter(redisClient, cfg.RateLimit.Requests, cfg.RateLimit.Window, logger)

	store := postgres.NewStore(db)
	repos := store.Repositories()

	var paymentProvider psp.PSP
	if cfg.Stripe.SecretKey != "" {
		paymentProvider = psp.NewStripePSP(cfg.Stripe.SecretKey, cfg.Stripe.PaymentMethod)
		logger.Info("payments via Stripe")
	} else {
		paymentProvider = psp.NewMockPSP()
		logger.Warn("STRIPE_SECRET_KEY not set, payments use the mock PSP")
	}

	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.TTL, cfg.JWT.Issuer)

	notificationService := service.NewNotificationService(repos.Notifications, logger)
	authService := service.NewAuthService(repos.Users, tokens, logger)
	businessService := service.NewBusinessService(store, notificationService, logger)
	fleetService := service.NewFleetService(store, logger)
	routeService := service.NewRouteService(repos.Routes)
	walletService := service.NewWalletService(store, cfg.Payout.Commission, loc)
	paymentService := service.NewPaymentService(store, paymentProvider, cfg.Stripe.Currency, logger)
	orderService := service.NewOrderService(store, lockStore, cacheStore, paymentService, walletService, notificationService, logger)
	bidService := service.NewBidService(store, lockStore, cacheStore, notificationService, logger)
	payoutService := service.NewPayoutService(store, lockStore, psp.NewMockPayoutProvider(), notificationService, logger)
	scheduler := service.NewPayoutScheduler(payoutService, loc, cfg.Payout.Hour, cfg.Payout.CheckInterval, nrApp, logger)

	if err := authService.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		return nil, nil, err
	}

	router := app.NewRouter(app.RouterDeps{
		AuthHandler:         handler.NewAuthHandler(authService),
		BusinessHandler:     handler.NewBusinessHandler(businessService),
		FleetHandler:        handler.NewFleetHandler(fleetService),
		RouteHandler:        handler.NewRouteHandler(routeService),
		OrderHandler:        handler.NewOrderHandler(orderService, paymentService),
		BidHandler:          handler.NewBidHandler(bidService),
		WalletHandler:       handler.NewWalletHandler(walletService),
		PayoutHandler:       handler.NewPayoutHandler(payoutService, loc),
		NotificationHandler: handler.NewNotificationHandler(notificationService),
		Tokens:              tokens,
		AuthLimiter:         authLimiter,
		Responses:           middleware.NewRedisResponseStore(redisClient),
		CORSOrigins:         cfg.Server.CORSOrigins,
		NewRelicApp:         nrApp,
		Logger:              logger,
	})

	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, scheduler, nil
}
