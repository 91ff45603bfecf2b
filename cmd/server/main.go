package main

import (
	"alcyxob/fitlog/internal/api"
	"alcyxob/fitlog/internal/config"
	"alcyxob/fitlog/internal/metrics"
	"alcyxob/fitlog/internal/notify"
	"alcyxob/fitlog/internal/repository/mongo"
	"alcyxob/fitlog/internal/service"
	"alcyxob/fitlog/internal/session"
	"alcyxob/fitlog/internal/storage"
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robfig/cron/v3"
)

// @title Fitlog API
// @version 1.0
// @description Fitness logging: entries, per-user summary and server-driven views.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	log.Println("Starting Fitlog Server...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	recentScope, err := service.ParseRecentScope(cfg.Entries.RecentScope)
	if err != nil {
		log.Fatalf("FATAL: Invalid config: %v", err)
	}
	gin.SetMode(cfg.Server.Mode)
	log.Println("Configuration loaded.")

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to MongoDB: %v", err)
	}
	defer func() {
		log.Println("Disconnecting MongoDB...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Printf("ERROR: Failed to disconnect MongoDB: %v", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Println("Database connection established.")

	go func() { // Run index creation in background
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureIndexes(ctx, appDB)
	}()

	// --- Metrics ---
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics, err := metrics.New(registry)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	// --- Initialize Repositories ---
	userRepo := mongo.NewMongoUserRepository(appDB)
	entryRepo := mongo.NewMongoEntryRepository(appDB)
	preferenceRepo := mongo.NewMongoPreferenceRepository(appDB)
	deviceRepo := mongo.NewMongoDeviceRepository(appDB)
	workoutRepo := mongo.NewMongoWorkoutRepository(appDB)
	goalRepo := mongo.NewMongoGoalRepository(appDB)

	// --- Storage and push are optional ---
	var fileStorage storage.FileStorage
	if cfg.S3.Enabled() {
		fileStorage, err = storage.NewS3Storage(cfg.S3)
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize S3 storage: %v", err)
		}
	} else {
		log.Println("WARN: s3.bucket_name not set, summary export disabled")
	}

	var (
		pushChannel notify.PushChannel = notify.Disabled{}
		registrar   api.DeviceRegistrar = notify.Disabled{}
	)
	if cfg.Push.Enabled() {
		snsChannel, err := notify.NewSNSChannel(cfg.Push, deviceRepo)
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize SNS push channel: %v", err)
		}
		pushChannel, registrar = snsChannel, snsChannel
	} else {
		log.Println("WARN: push.platform_application_arn not set, push notifications disabled")
	}

	// --- Initialize Services ---
	sessions := session.NewManager()
	revocations := session.NewRevocations(5 * time.Minute)
	authService := service.NewAuthService(userRepo, sessions, revocations, cfg.JWT.Secret, cfg.JWT.Expiration)
	entryService := service.NewEntryService(entryRepo, recentScope, appMetrics)
	summaryService := service.NewSummaryService(entryService, appMetrics)
	reportService := service.NewReportService(summaryService, fileStorage, cfg.Reports.Prefix, cfg.Reports.URLExpiry)
	preferenceService := service.NewPreferenceService(preferenceRepo)
	workoutService := service.NewWorkoutService(workoutRepo, appMetrics)
	goalService := service.NewGoalService(goalRepo, appMetrics)
	trigger := notify.NewTrigger(pushChannel, cfg.Push.Timeout, appMetrics)

	// --- Scheduled export ---
	var scheduler *cron.Cron
	if cfg.Reports.Schedule != "" && fileStorage != nil {
		scheduler = cron.New()
		_, err := scheduler.AddFunc(cfg.Reports.Schedule, func() {
			log.Println("INFO: Executing scheduled summary export...")
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			if _, err := reportService.ExportSummary(ctx); err != nil {
				log.Printf("ERROR: Scheduled summary export failed: %v", err)
			}
		})
		if err != nil {
			log.Fatalf("FATAL: Invalid reports.schedule %q: %v", cfg.Reports.Schedule, err)
		}
		scheduler.Start()
	}

	// --- Initialize Gin Engine ---
	router := gin.Default() // Includes Logger and Recovery middleware
	api.SetupRoutes(router, api.Services{
		Auth:        authService,
		Entries:     entryService,
		Workouts:    workoutService,
		Goals:       goalService,
		Summary:     summaryService,
		Reports:     reportService,
		Preferences: preferenceService,
		Devices:     registrar,
		Notifier:    trigger,
		Sessions:    sessions,
		Metrics:     appMetrics,
		Registry:    registry,
	})

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Server starting on %s", cfg.Server.Address)

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	if scheduler != nil {
		<-scheduler.Stop().Done()
	}

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Printf("ERROR: Server forced to shutdown: %v", err)
	}
	trigger.Wait()

	log.Println("Server exiting.")
}
