package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	api "github.com/ngandimoun/saydo-ai-sub006/cmd/api"
	authUsecase "github.com/ngandimoun/saydo-ai-sub006/internal/auth/usecase"
	"github.com/ngandimoun/saydo-ai-sub006/internal/notification"
	patternRepo "github.com/ngandimoun/saydo-ai-sub006/internal/pattern/repository"
	patternScheduler "github.com/ngandimoun/saydo-ai-sub006/internal/pattern/scheduler"
	patternStore "github.com/ngandimoun/saydo-ai-sub006/internal/pattern/store"
	patternUsecase "github.com/ngandimoun/saydo-ai-sub006/internal/pattern/usecase"
	reminderRepo "github.com/ngandimoun/saydo-ai-sub006/internal/reminder/repository"
	taskRepo "github.com/ngandimoun/saydo-ai-sub006/internal/task/repository"
	"github.com/ngandimoun/saydo-ai-sub006/pkg/config"
	"github.com/ngandimoun/saydo-ai-sub006/pkg/database"
	"github.com/ngandimoun/saydo-ai-sub006/pkg/logger"
	"github.com/ngandimoun/saydo-ai-sub006/pkg/redis"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := database.NewPostgresConnection(cfg, log)
	if err != nil {
		log.Fatal("Failed to connect to database", "error", err)
	}

	// tasks and reminders belong to the app schema; only local setups migrate them
	if cfg.DBAutoMigrate {
		if err := taskRepo.AutoMigrate(db); err != nil {
			log.Fatal("Failed to migrate database", "table", "tasks", "error", err)
		}
		if err := reminderRepo.AutoMigrate(db); err != nil {
			log.Fatal("Failed to migrate database", "table", "reminders", "error", err)
		}
	}
	if err := patternRepo.AutoMigrate(db); err != nil {
		log.Fatal("Failed to migrate database", "table", "user_patterns", "error", err)
	}

	// Initialize repositories (dependency injection)
	taskRepository := taskRepo.NewGormTaskRepository(db, log)
	reminderRepository := reminderRepo.NewGormReminderRepository(db, log)
	patternRepository := patternRepo.NewGormPatternRepository(db, log)
	store := patternStore.New(patternRepository, cfg.PatternCacheTTL, log)

	// Initialize runtime config for settings API
	api.InitRuntimeConfig(cfg.HistoryLimit, cfg.HistoryWindowDays)

	deps := patternUsecase.Dependencies{
		Tasks:             taskRepository,
		Reminders:         reminderRepository,
		Store:             store,
		Logger:            log,
		Location:          cfg.Location(),
		Timeout:           cfg.AnalysisTimeout,
		HistoryLimit:      api.GetRuntimeHistoryLimit,
		HistoryWindowDays: api.GetRuntimeHistoryWindowDays,
	}

	// Per-user analysis lock (optional)
	if cfg.RedisURL != "" {
		locker, err := redis.NewLocker(cfg.RedisURL, log)
		if err != nil {
			log.Warn("Redis unavailable, analysis runs without a lock", "error", err)
		} else {
			defer locker.Close()
			deps.Locker = locker
		}
	} else {
		log.Warn("REDIS_URL not configured, analysis runs without a lock")
	}

	// Initialize Notification Service (Pub/Sub)
	// Only start if project ID is configured
	var notifService *notification.Service
	if cfg.GoogleProjectID != "" {
		notifService, err = notification.NewService(
			cfg.GoogleProjectID,
			shortTopicName(cfg.ActivityTopic),
			shortTopicName(cfg.PatternsTopic),
			cfg.GoogleCredentials,
			cfg.ActivityDebounce,
			log,
		)
		if err != nil {
			log.Error("Failed to initialize notification service", "error", err)
			notifService = nil
		} else {
			defer notifService.Close()
			deps.Publisher = notifService
		}
	} else {
		log.Warn("GOOGLE_PROJECT_ID not configured, notification service disabled")
	}

	// Initialize use cases (dependency injection)
	authUsecaseInstance := authUsecase.NewAuthUsecase(cfg)
	patternUsecaseInstance := patternUsecase.NewPatternUsecase(deps)

	if notifService != nil {
		notifService.SetAnalyzer(patternUsecaseInstance)
		go notifService.Start(ctx)
	}

	scheduler, err := patternScheduler.NewPatternAnalysisScheduler(
		patternUsecaseInstance,
		taskRepository,
		reminderRepository,
		cfg.AnalysisCron,
		cfg.Location(),
		api.GetRuntimeHistoryWindowDays,
		log,
	)
	if err != nil {
		log.Fatal("Invalid analysis schedule", "cron", cfg.AnalysisCron, "error", err)
	}
	if err := scheduler.Start(); err != nil {
		log.Fatal("Failed to start analysis scheduler", "error", err)
	}
	defer func() {
		if err := scheduler.Stop(); err != nil {
			log.Warn("Failed to stop analysis scheduler", "error", err)
		}
	}()

	// Initialize HTTP handler
	handler := api.NewHandler(authUsecaseInstance, patternUsecaseInstance, cfg, log)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server stopped unexpectedly", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	// Leave room for an in-flight analysis to finish
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.AnalysisTimeout+5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", "error", err)
	}
}

// shortTopicName extracts the topic id from a full projects/<p>/topics/<t> resource name
func shortTopicName(topic string) string {
	if parts := strings.Split(topic, "/"); len(parts) > 1 {
		return parts[len(parts)-1]
	}
	return topic
}
