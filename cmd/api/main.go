package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "propertyops/api/swagger" // swagger docs
	"propertyops/internal/config"
	"propertyops/internal/database"
	"propertyops/internal/event"
	"propertyops/internal/handler"
	"propertyops/internal/middleware"
	"propertyops/internal/relay"
	"propertyops/internal/repository"
	"propertyops/internal/service"
	"propertyops/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           PropertyOps Event Relay API
// @version         1.0
// @description     Event relay and owner approval queue for multi-role property management.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Load()

	db, err := database.NewConnection(cfg.DB.DSN())
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	middleware.InitPermissionMiddleware(db)

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	eventRepo := repository.NewEventRepository(db)
	approvalRepo := repository.NewApprovalRepository(db)
	trackingRepo := repository.NewTrackingRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	propertyRepo := repository.NewPropertyRepository(db)

	userService := service.NewUserService(userRepo)
	roleService := service.NewRoleService(roleRepo, txManager)
	auditService := service.NewAuditService(auditRepo)
	notificationService := service.NewNotificationService(notificationRepo, wsHub)
	trackingService := service.NewTrackingService(trackingRepo, auditRepo, txManager)
	approvalService := service.NewApprovalService(approvalRepo, auditRepo, txManager, notificationService, cfg.HighAmountThreshold)
	metricsService := service.NewMetricsService(trackingRepo)
	propertyService := service.NewPropertyService(propertyRepo, trackingService)

	// Seed RBAC defaults so permission middleware has data on first boot
	if err := roleService.SeedDefaultRolesAndPermissions(context.Background()); err != nil {
		log.Printf("WARNING: Failed to seed roles and permissions: %v", err)
	}

	// Event routing: handlers registered per event type, ingest persists
	// then dispatches, relay retries failed envelopes in the background.
	eventRouter := event.NewRouter()
	event.NewHandlers(approvalService, trackingService, notificationService).RegisterAll(eventRouter)
	ingestor := event.NewIngestor(eventRepo, auditRepo, txManager, eventRouter, cfg.Relay.DispatchTimeout, cfg.Relay.Backoff)

	eventRelay := relay.New(relay.Config{
		BatchSize:       cfg.Relay.BatchSize,
		Interval:        cfg.Relay.Interval,
		Workers:         cfg.Relay.Workers,
		MaxAttempts:     cfg.Relay.MaxAttempts,
		Backoff:         cfg.Relay.Backoff,
		ClaimLease:      cfg.Relay.ClaimLease,
		DispatchTimeout: cfg.Relay.DispatchTimeout,
	}, eventRepo, eventRouter)
	eventRelay.Start()
	defer eventRelay.Close()

	// Initialize Handlers
	userHandler := handler.NewUserHandler(userService)
	roleHandler := handler.NewRoleHandler(roleService)
	auditHandler := handler.NewAuditHandler(auditService)
	eventHandler := handler.NewEventHandler(ingestor)
	approvalHandler := handler.NewApprovalHandler(approvalService)
	trackingHandler := handler.NewTrackingHandler(trackingService)
	notificationHandler := handler.NewNotificationHandler(notificationService)
	metricsHandler := handler.NewMetricsHandler(metricsService)
	propertyHandler := handler.NewPropertyHandler(propertyService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	userHandler.RegisterRoutes(router.Group(""))
	roleHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))
	eventHandler.RegisterRoutes(router.Group(""))
	approvalHandler.RegisterRoutes(router.Group(""))
	trackingHandler.RegisterRoutes(router.Group(""))
	notificationHandler.RegisterRoutes(router.Group(""))
	metricsHandler.RegisterRoutes(router.Group(""))
	propertyHandler.RegisterRoutes(router.Group(""))

	// Stop the relay cleanly on SIGINT/SIGTERM
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Println("Shutting down...")
		eventRelay.Close()
		os.Exit(0)
	}()

	log.Printf("Server listening on :%s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
