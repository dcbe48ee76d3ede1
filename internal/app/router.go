package app

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"cargo/internal/domain"
	"cargo/internal/handler"
	"cargo/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	AuthHandler         *handler.AuthHandler
	BusinessHandler     *handler.BusinessHandler
	FleetHandler        *handler.FleetHandler
	RouteHandler        *handler.RouteHandler
	OrderHandler        *handler.OrderHandler
	BidHandler          *handler.BidHandler
	WalletHandler       *handler.WalletHandler
	PayoutHandler       *handler.PayoutHandler
	NotificationHandler *handler.NotificationHandler

	Tokens      middleware.TokenParser
	AuthLimiter middleware.Limiter
	Responses   middleware.ResponseStore
	CORSOrigins []string
	NewRelicApp *newrelic.Application
	Logger      *zap.Logger
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	router.Use(ginzap.Ginzap(deps.Logger, time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(deps.Logger, true))
	router.Use(cors.New(corsConfig(deps.CORSOrigins)))
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}
	router.Use(middleware.Metrics())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")

	// Public routes.
	authRoutes := v1.Group("/auth", middleware.RateLimit(deps.AuthLimiter, "auth"))
	{
		authRoutes.POST("/register", deps.AuthHandler.Register)
		authRoutes.POST("/login", deps.AuthHandler.Login)
	}

	// Everything else needs a token. Idempotency keys are scoped per user so
	// it runs after authentication.
	api := v1.Group("", middleware.Authenticate(deps.Tokens), middleware.Idempotency(deps.Responses, deps.Logger))

	admin := middleware.RequireRoles(domain.RoleAdmin)
	cargoOwner := middleware.RequireRoles(domain.RoleCargoOwner)
	driver := middleware.RequireRoles(domain.RoleDriver)
	truckOwner := middleware.RequireRoles(domain.RoleTruckOwner)

	api.GET("/me", deps.AuthHandler.Me)

	businesses := api.Group("/businesses")
	{
		businesses.POST("", cargoOwner, deps.BusinessHandler.Create)
		businesses.GET("", admin, deps.BusinessHandler.GetAll)
		businesses.GET("/:id", deps.BusinessHandler.Get)
		businesses.POST("/:id/approve", admin, deps.BusinessHandler.Approve)
		businesses.POST("/:id/suspend", admin, deps.BusinessHandler.Suspend)
	}

	drivers := api.Group("/drivers")
	{
		drivers.POST("", driver, deps.FleetHandler.RegisterDriver)
		drivers.GET("", middleware.RequireRoles(domain.RoleAdmin, domain.RoleTruckOwner), deps.FleetHandler.GetDrivers)
		drivers.GET("/me", driver, deps.FleetHandler.GetMyDriver)
		drivers.PUT("/me/availability", driver, deps.FleetHandler.SetAvailability)
	}

	trucks := api.Group("/trucks")
	{
		trucks.POST("", middleware.RequireRoles(domain.RoleTruckOwner, domain.RoleDriver), deps.FleetHandler.RegisterTruck)
		trucks.GET("", middleware.RequireRoles(domain.RoleAdmin, domain.RoleTruckOwner, domain.RoleDriver), deps.FleetHandler.GetTrucks)
		trucks.PUT("/:id/driver", truckOwner, deps.FleetHandler.AssignDriver)
		trucks.POST("/:id/deactivate", middleware.RequireRoles(domain.RoleAdmin, domain.RoleTruckOwner), deps.FleetHandler.DeactivateTruck)
	}

	routes := api.Group("/routes")
	{
		routes.GET("", deps.RouteHandler.GetAll)
		routes.POST("", admin, deps.RouteHandler.Create)
		routes.PUT("/:id", admin, deps.RouteHandler.Update)
		routes.POST("/:id/deactivate", admin, deps.RouteHandler.Deactivate)
	}

	orders := api.Group("/orders")
	{
		orders.POST("", cargoOwner, deps.OrderHandler.Create)
		orders.GET("", deps.OrderHandler.GetAll)
		orders.GET("/:id", deps.OrderHandler.Get)
		orders.PUT("/:id", cargoOwner, deps.OrderHandler.Update)
		orders.POST("/:id/publish", cargoOwner, deps.OrderHandler.Publish)
		orders.POST("/:id/cancel", middleware.RequireRoles(domain.RoleAdmin, domain.RoleCargoOwner), deps.OrderHandler.Cancel)
		orders.POST("/:id/start", driver, deps.OrderHandler.StartTransit)
		orders.POST("/:id/deliver", driver, deps.OrderHandler.Deliver)
		orders.POST("/:id/complete", cargoOwner, deps.OrderHandler.Complete)
		orders.GET("/:id/payment", middleware.RequireRoles(domain.RoleAdmin, domain.RoleCargoOwner), deps.OrderHandler.GetPayment)

		orders.POST("/:id/bids", driver, deps.BidHandler.Submit)
		orders.GET("/:id/bids", deps.BidHandler.GetAll)
		orders.POST("/:id/bids/:bidId/accept", cargoOwner, deps.BidHandler.Accept)
		orders.POST("/:id/acknowledge", driver, deps.BidHandler.Acknowledge)
		orders.POST("/:id/decline", driver, deps.BidHandler.Decline)
	}

	api.POST("/bids/:id/withdraw", driver, deps.BidHandler.Withdraw)

	wallet := api.Group("/wallet", driver)
	{
		wallet.GET("", deps.WalletHandler.Get)
		wallet.GET("/transactions", deps.WalletHandler.GetTransactions)
	}

	payouts := api.Group("/payouts")
	{
		payouts.GET("/me", driver, deps.PayoutHandler.GetMine)
		payouts.POST("/batches", admin, deps.PayoutHandler.Run)
		payouts.GET("/batches", admin, deps.PayoutHandler.GetBatches)
		payouts.GET("/batches/:id", admin, deps.PayoutHandler.GetBatch)
	}

	notifications := api.Group("/notifications")
	{
		notifications.GET("", deps.NotificationHandler.GetAll)
		notifications.POST("/:id/read", deps.NotificationHandler.MarkRead)
	}

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Idempotency-Key"},
		ExposeHeaders:    []string{"Idempotent-Replayed"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
