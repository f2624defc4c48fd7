package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/nexusmart/api/internal/cache"
	"github.com/nexusmart/api/internal/config"
	"github.com/nexusmart/api/internal/database"
	"github.com/nexusmart/api/internal/handler"
	"github.com/nexusmart/api/internal/middleware"
	"github.com/nexusmart/api/internal/notify"
	"github.com/nexusmart/api/internal/repository"
	"github.com/nexusmart/api/internal/service"
	"github.com/nexusmart/api/internal/utils"
	"github.com/nexusmart/api/internal/worker"
)

// main is the application entrypoint for the NexusMart storefront API.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting nexusmart api")

	utils.InitJWT(cfg.JWTSecret)

	// 3. Connect database
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// 3a. Run migrations
	if err := runMigrations(db.DB); err != nil {
		log.Error().Err(err).Msg("migration failed")
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	log.Info().Msg("migrations completed successfully")

	// 3b. Connect to Redis
	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Error().Err(err).Msg("redis connection failed")
		fmt.Fprintf(os.Stderr, "redis connection failed: %v\n", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected successfully")

	productCache := cache.NewProductCache(redisClient)

	// 4. Initialize repositories
	productRepo := repository.NewProductRepository(db)
	userRepo := repository.NewUserRepository(db)
	alertRepo := repository.NewStockAlertRepository(db)

	// 5. Initialize notification fan-out: structured log of each marked
	// alert plus a live SSE feed for the admin dashboard.
	hub := notify.NewHub()
	sender := notify.MultiSender{notify.NewLogSender(), notify.NewHubSender(hub)}

	// 6. Initialize services
	authSvc := service.NewAuthService(userRepo)
	catalogSvc := service.NewCatalogService(productRepo, productCache)
	alertSvc := service.NewStockAlertService(alertRepo, productRepo, sender)

	// Wire the alert service back into the catalog so stock updates that
	// cross 0 -> positive trigger the notification batch inline.
	catalogSvc.SetRestockNotifier(alertSvc)

	mediaSvc, err := service.NewMediaService(&cfg.Media)
	if err != nil {
		log.Warn().Err(err).Msg("Media service initialization failed - image upload will be disabled")
	}

	// 7. Initialize handlers
	handlers := &Handlers{
		Health:            handler.NewHealthHandler(db, redisClient),
		Auth:              handler.NewAuthHandler(authSvc),
		Product:           handler.NewProductHandler(catalogSvc),
		ProductManagement: handler.NewProductManagementHandler(catalogSvc, mediaSvc),
		StockAlert:        handler.NewStockAlertHandler(alertSvc),
		SSE:               handler.NewSSEHandler(hub),
	}

	// 8. Initialize middleware
	jwtMw := middleware.NewJWTMiddleware()

	// 9. Setup router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.LoggingMiddleware())
	setupRoutes(router, handlers, jwtMw)

	// 10. Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 11. Start workers
	go worker.NewRestockWorker(productRepo, alertSvc, cfg.Worker.RestockSweepInterval).Start(ctx)
	go worker.NewCleanupWorker(alertSvc, cfg.Worker.CleanupInterval, cfg.Worker.CleanupRetention).Start(ctx)

	// 12. Start HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 13. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 14. Cancel context to stop workers
	cancel()

	// 15. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health            *handler.HealthHandler
	Auth              *handler.AuthHandler
	Product           *handler.ProductHandler
	ProductManagement *handler.ProductManagementHandler
	StockAlert        *handler.StockAlertHandler
	SSE               *handler.SSEHandler
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, handlers *Handlers, jwtMiddleware *middleware.JWTMiddleware) {
	router.GET("/v1/health", handlers.Health.GetHealth)

	// Account routes
	auth := router.Group("/v1/auth")
	{
		auth.POST("/register", handlers.Auth.Register)
		auth.POST("/login", handlers.Auth.Login)
	}

	// Public catalog routes
	catalog := router.Group("/v1/products")
	{
		catalog.GET("", handlers.Product.GetProducts)
		catalog.GET("/categories", handlers.Product.GetCategories)
		catalog.GET("/brands", handlers.Product.GetBrands)
		catalog.GET("/:slug", handlers.Product.GetProduct)
	}

	// Stock alert routes
	alerts := router.Group("/v1/stock-alerts")
	{
		// Public: guest subscribes and email unsubscribe links.
		alerts.POST("", handlers.StockAlert.Subscribe)
		alerts.GET("/unsubscribe/:token", handlers.StockAlert.UnsubscribeByToken)

		// Authenticated alert management.
		authed := alerts.Group("")
		authed.Use(jwtMiddleware.Handle())
		{
			authed.GET("/my-alerts", handlers.StockAlert.MyAlerts)
			authed.GET("/check/:productId", handlers.StockAlert.CheckSubscribed)
			authed.DELETE("/:alertId", handlers.StockAlert.Unsubscribe)
		}
	}

	// Admin routes
	admin := router.Group("/v1/admin")
	admin.GET("/sse", handlers.SSE.Stream)
	admin.Use(jwtMiddleware.Handle(), jwtMiddleware.RequireAdmin())
	{
		admin.POST("/products", handlers.ProductManagement.CreateProduct)
		admin.GET("/products/:id", handlers.ProductManagement.GetProduct)
		admin.PUT("/products/:id", handlers.ProductManagement.UpdateProduct)
		admin.DELETE("/products/:id", handlers.ProductManagement.DeleteProduct)
		admin.PUT("/products/:id/featured", handlers.ProductManagement.SetFeatured)
		admin.PUT("/products/:id/stock", handlers.ProductManagement.UpdateStock)
		admin.POST("/products/:id/images", handlers.ProductManagement.UploadImage)
	}
}

// runMigrations runs database migrations using golang-migrate.
func runMigrations(db *sql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migration instance: %w", err)
	}

	// Run migrations
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
