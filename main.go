package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"estatehub/marketplace/internal/api"
	"estatehub/marketplace/internal/cache"
	"estatehub/marketplace/internal/config"
	"estatehub/marketplace/internal/db"
	"estatehub/marketplace/internal/logger"
	"estatehub/marketplace/internal/services"
	"estatehub/marketplace/internal/tasks"
)

var runMode = flag.String("m", "all", "Run mode: 'api', 'bg' (background tasks), 'all' (default)")

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*runMode)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Init(cfg.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	lg := logger.WithModule("main")

	// Initialize Database
	mongoClient, mongoDb, err := db.ConnectDB(cfg.MongoURI, cfg.MongoDbName)
	if err != nil {
		lg.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.DisconnectDB(mongoClient); err != nil {
			lg.Error("error disconnecting from MongoDB", zap.Error(err))
		}
	}()

	indexCtx, cancelIndex := context.WithTimeout(context.Background(), 30*time.Second)
	err = db.EnsureIndexes(indexCtx, mongoDb)
	cancelIndex()
	if err != nil {
		lg.Fatal("failed to ensure indexes", zap.Error(err))
	}

	// Initialize Cache (Redis)
	redisClient, err := cache.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		lg.Fatal("failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := cache.DisconnectRedis(redisClient); err != nil {
			lg.Error("error disconnecting from Redis", zap.Error(err))
		}
	}()

	// Initialize Task Client
	taskClient := tasks.NewClient(cfg)
	defer taskClient.Close()
	distributor := tasks.NewDistributor(taskClient)

	// Initialize Services needed by handlers and/or task processor
	propertyService := services.NewPropertyService(mongoDb)
	interestService := services.NewInterestService(mongoDb)
	notificationService := services.NewNotificationService(mongoDb)
	bookingService := services.NewBookingService(cfg,
		propertyService,
		interestService,
		notificationService,
		cache.NewRedisLocker(redisClient, "marketplace:"),
		distributor,
	)

	// Initialize Task Processor
	taskProcessor := tasks.NewTaskProcessor(bookingService, notificationService)

	// Cancelled on shutdown; stops background helpers tied to the API server.
	appCtx, cancelApp := context.WithCancel(context.Background())
	defer cancelApp()

	// WaitGroup for managing goroutines
	var wg sync.WaitGroup

	// Channel to signal shutdown from Service API
	shutdownChan := make(chan struct{}, 1) // Buffered channel

	// Start Service API (always runs)
	serviceSrv := &http.Server{
		Addr:    ":" + cfg.ServiceApiPort,
		Handler: api.SetupServiceRouter(distributor, shutdownChan),
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		lg.Info("service API listening", zap.String("port", cfg.ServiceApiPort))
		if err := serviceSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			lg.Fatal("service API ListenAndServe error", zap.Error(err))
		}
		lg.Info("service API server stopped")
	}()

	// --- Mode-specific servers ---
	var mainApiSrv *http.Server
	var backgroundTaskSrv *asynq.Server
	var scheduler *asynq.Scheduler

	lg.Info("starting application", zap.String("mode", cfg.RunMode))

	apiMode := func() {
		mainApiSrv = &http.Server{
			Addr:    ":" + cfg.ApiPort,
			Handler: api.SetupRouter(appCtx, cfg, bookingService, notificationService),
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			lg.Info("main API listening", zap.String("port", cfg.ApiPort))
			if err := mainApiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				lg.Fatal("main API ListenAndServe error", zap.Error(err))
			}
			lg.Info("main API server stopped")
		}()
	}

	bgMode := func() {
		backgroundTaskSrv = tasks.SetupServer(cfg)
		if err := backgroundTaskSrv.Start(tasks.NewServeMux(taskProcessor)); err != nil {
			lg.Fatal("background task server error", zap.Error(err))
		}
		lg.Info("background task server started")

		scheduler, err = tasks.NewScheduler(cfg)
		if err != nil {
			lg.Fatal("failed to configure scheduler", zap.Error(err))
		}
		if err := scheduler.Start(); err != nil {
			lg.Fatal("scheduler error", zap.Error(err))
		}
		lg.Info("scheduler started",
			zap.String("reconcile", cfg.ReconcileSchedule),
			zap.String("purge", cfg.NotificationPurgeSchedule))
	}

	switch cfg.RunMode {
	case "api":
		apiMode()
	case "bg":
		bgMode()
	case "all":
		apiMode()
		bgMode()
	default:
		lg.Fatal("invalid run mode", zap.String("mode", cfg.RunMode))
	}

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		lg.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case <-shutdownChan: // Listen for shutdown signal from Service API
		lg.Info("shutdown requested via service API")
	}

	// Create context with timeout for shutdown
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()

	if err := serviceSrv.Shutdown(ctxShutdown); err != nil {
		lg.Error("service API server shutdown error", zap.Error(err))
	}

	if mainApiSrv != nil {
		if err := mainApiSrv.Shutdown(ctxShutdown); err != nil {
			lg.Error("main API server shutdown error", zap.Error(err))
		}
	}

	if scheduler != nil {
		scheduler.Shutdown()
	}
	if backgroundTaskSrv != nil {
		backgroundTaskSrv.Shutdown()
	}
	cancelApp()

	// Wait for all server goroutines to finish
	wg.Wait()

	lg.Info("server gracefully stopped")
}
