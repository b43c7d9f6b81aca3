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

	"github.com/gin-gonic/gin"
	"github.com/niyyah-app/niyyah-api/internal/config"
	"github.com/niyyah-app/niyyah-api/internal/database"
	"github.com/niyyah-app/niyyah-api/internal/handler"
	"github.com/niyyah-app/niyyah-api/internal/metrics"
	"github.com/niyyah-app/niyyah-api/internal/middleware"
	"github.com/niyyah-app/niyyah-api/internal/ratelimit"
	"github.com/niyyah-app/niyyah-api/internal/repository"
	"github.com/niyyah-app/niyyah-api/internal/service"
	"github.com/niyyah-app/niyyah-api/migrations"
	"github.com/niyyah-app/niyyah-api/pkg/mailer"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm/logger"
)

// @title           Niyyah Activation API
// @version         1.0
// @description     Device activation for Niyyah: purchased licenses keyed by phone number, bound to one device.

// @contact.name   Niyyah Support
// @contact.email  support@niyyah.app

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      api.localhost
// @BasePath  /api/v1

// @securityDefinitions.apikey AdminKey
// @in header
// @name X-Admin-Key

func main() {
	// ==================== Load Config ====================
	cfg := config.Load()
	log.Printf("🚀 Starting Niyyah Activation API [env=%s]", cfg.App.Env)

	level := slog.LevelDebug
	if cfg.App.Env == "production" {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	// ==================== Database ====================
	gormLogger := logger.Default.LogMode(logger.Info)
	if cfg.App.Env == "production" {
		gormLogger = logger.Default.LogMode(logger.Warn)
	}

	db, err := database.Open(cfg.DB, gormLogger)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	if cfg.DB.IsSQLite() {
		log.Printf("✅ Opened SQLite database at %s", cfg.DB.Path)
	} else {
		log.Println("✅ Connected to PostgreSQL")
	}

	// ==================== Run Migrations ====================
	if cfg.DB.IsSQLite() {
		if err := database.AutoMigrate(db); err != nil {
			log.Fatalf("❌ Failed to migrate database: %v", err)
		}
	} else if err := migrations.Run(cfg.DB.URL()); err != nil {
		log.Printf("⚠️  Migration warning: %v", err)
		log.Println("📦 Falling back to GORM AutoMigrate...")
		if err := database.AutoMigrate(db); err != nil {
			log.Fatalf("❌ Failed to migrate database: %v", err)
		}
	}
	log.Println("✅ Database migrated successfully")

	// ==================== Redis (rate limiting) ====================
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       0,
	})

	var limiter *ratelimit.Limiter
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 3*time.Second)
	if _, err := rdb.Ping(pingCtx).Result(); err != nil {
		log.Printf("⚠️  Redis not available: %v (rate limiting disabled)", err)
	} else {
		limiter = ratelimit.New(rdb, "activate", cfg.RateLimit.Activate, cfg.RateLimit.Window)
		log.Printf("✅ Connected to Redis (limit %d req / %s per IP)", cfg.RateLimit.Activate, cfg.RateLimit.Window)
	}
	pingCancel()

	// ==================== Email (SMTP) ====================
	var mailClient *mailer.Mailer
	if cfg.SMTP.Enabled() {
		mailClient = mailer.New(mailer.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
			FromName: cfg.SMTP.FromName,
		})
		log.Printf("📧 SMTP configured: %s:%s", cfg.SMTP.Host, cfg.SMTP.Port)
	} else {
		log.Println("⚠️  SMTP_HOST not set (purchase confirmation emails disabled)")
	}

	// ==================== Initialize Layers ====================
	appMetrics := metrics.New()

	// Repositories
	licenseRepo := repository.NewLicenseRepository(db)

	// Services
	activationService := service.NewActivationService(licenseRepo, mailClient, appMetrics)

	// Handlers
	activationHandler := handler.NewActivationHandler(activationService)
	webhookHandler := handler.NewWebhookHandler(activationService)
	adminHandler := handler.NewAdminHandler(activationService)

	if cfg.Admin.KeyHash == "" {
		log.Println("⚠️  ADMIN_KEY_HASH not set (admin routes disabled)")
	}

	// ==================== Gin Router ====================
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	if err := router.SetTrustedProxies(cfg.App.TrustedProxies); err != nil {
		log.Fatalf("❌ Invalid TRUSTED_PROXIES: %v", err)
	}
	if len(cfg.App.TrustedProxies) == 0 {
		log.Println("🔒 No trusted proxies: rate limiting keys on the remote address")
	}

	// Serve swagger.json at /docs/swagger.json to avoid conflict with /swagger/* wildcard
	router.StaticFile("/docs/swagger.json", "./docs/swagger.json")
	url := ginSwagger.URL("/docs/swagger.json")
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, url))

	// Global middleware
	router.Use(middleware.CORSMiddleware(cfg.CORS.Origins))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "niyyah-activation-api",
			"time":    time.Now().Format(time.RFC3339),
		})
	})
	router.GET("/metrics", appMetrics.Handler())

	// ==================== API Routes ====================
	api := router.Group("/api/v1")
	{
		// Activation routes (public, rate limited per IP)
		activation := api.Group("")
		activation.Use(middleware.RateLimitMiddleware(limiter))
		{
			activation.POST("/activate", activationHandler.Activate)
			activation.GET("/activate", activationHandler.CheckStatus)
			activation.GET("/check-device", activationHandler.CheckDevice)
		}

		// Storefront webhook
		webhook := api.Group("/webhook")
		{
			webhook.POST("/chariow", webhookHandler.HandleSale)
			webhook.GET("/chariow", webhookHandler.Health)
		}

		// Admin routes (X-Admin-Key)
		admin := api.Group("/admin")
		admin.Use(middleware.AdminKeyMiddleware(cfg.Admin.KeyHash))
		{
			admin.POST("/codes", adminHandler.CreateCode)
			admin.GET("/codes", adminHandler.ListCodes)
		}
	}

	// ==================== Start Server ====================
	srv := &http.Server{
		Addr:    ":" + cfg.App.Port,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Server failed: %v", err)
		}
	}()

	log.Printf("🌐 Niyyah Activation API running on http://0.0.0.0:%s", cfg.App.Port)
	log.Printf("📋 API docs: http://0.0.0.0:%s/swagger/index.html", cfg.App.Port)
	log.Printf("📈 Metrics: http://0.0.0.0:%s/metrics", cfg.App.Port)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("🛑 Shutting down server...")

	// Give ongoing requests 5 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	_ = rdb.Close()
	database.Close(db)
	log.Println("✅ Server exited gracefully")
}
