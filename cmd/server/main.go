package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/orderpulse/backend/internal/application/forecasting"
	"github.com/orderpulse/backend/internal/application/ordersync"
	"github.com/orderpulse/backend/internal/infrastructure/config"
	"github.com/orderpulse/backend/internal/infrastructure/logger"
	"github.com/orderpulse/backend/internal/infrastructure/persistence"
	"github.com/orderpulse/backend/internal/infrastructure/playauto"
	"github.com/orderpulse/backend/internal/infrastructure/scheduler"
	"github.com/orderpulse/backend/internal/interfaces/http/handler"
	"github.com/orderpulse/backend/internal/interfaces/http/middleware"
	"github.com/orderpulse/backend/internal/interfaces/http/router"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting OrderPulse Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("timezone", cfg.App.Timezone),
	)

	loc := cfg.Location()

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	orderRepo := persistence.NewGormOrderRepository(db.DB, loc)
	shopRepo := persistence.NewGormShopRepository(db.DB)
	runRepo := persistence.NewGormSyncRunRepository(db.DB, loc)
	campaignRepo := persistence.NewGormCampaignRepository(db.DB)

	// Marketplace hub client
	hubClient := playauto.NewClient(cfg.Playauto, loc, log)

	// Application services
	orchestrator := ordersync.NewOrchestrator(
		ordersync.Config{RangeDelay: cfg.Sync.RangeDelay},
		hubClient,
		runRepo,
		orderRepo,
		shopRepo,
		loc,
		log,
	)
	forecastService := forecasting.NewService(
		forecasting.Config{
			LookbackDays: cfg.Forecast.LookbackDays,
			HorizonDays:  cfg.Forecast.HorizonDays,
		},
		orderRepo,
		campaignRepo,
		loc,
		log,
	)

	// Sync scheduler
	syncScheduler, err := scheduler.NewSyncScheduler(
		scheduler.Config{
			Enabled:        cfg.Scheduler.Enabled,
			SmartSyncHours: cfg.Scheduler.SmartSyncHours,
			WeeklyDay:      time.Weekday(cfg.Scheduler.WeeklyDay),
			WeeklyHour:     cfg.Scheduler.WeeklyHour,
		},
		orchestrator,
		loc,
		log,
	)
	if err != nil {
		log.Fatal("Invalid scheduler configuration", zap.Error(err))
	}
	if err := syncScheduler.Start(context.Background()); err != nil {
		log.Fatal("Failed to start scheduler", zap.Error(err))
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := syncScheduler.Stop(stopCtx); err != nil {
			log.Error("Error stopping scheduler", zap.Error(err))
		}
	}()

	// Initialize HTTP handlers
	syncHandler := handler.NewSyncHandler(orchestrator, syncScheduler, loc, log)
	forecastHandler := handler.NewForecastHandler(forecastService, log)
	systemHandler := handler.NewSystemHandler(db, cfg.App.Name, version)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", systemHandler.Health)

	// Setup API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(syncHandler).
		Register(forecastHandler).
		Register(systemHandler)
	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	// Let any in-flight sync run finish before closing the database.
	orchestrator.Wait()

	log.Info("Server exited gracefully")
}
