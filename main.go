package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/SAP-F-2025/pte-scoring-service/internal/config"
	"github.com/SAP-F-2025/pte-scoring-service/internal/events"
	"github.com/SAP-F-2025/pte-scoring-service/internal/grader"
	"github.com/SAP-F-2025/pte-scoring-service/internal/handlers"
	"github.com/SAP-F-2025/pte-scoring-service/internal/metrics"
	"github.com/SAP-F-2025/pte-scoring-service/internal/repositories/casdoor"
	"github.com/SAP-F-2025/pte-scoring-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/pte-scoring-service/internal/services"
	"github.com/SAP-F-2025/pte-scoring-service/internal/utils"
	"github.com/SAP-F-2025/pte-scoring-service/internal/validator"
	"github.com/SAP-F-2025/pte-scoring-service/pkg"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "pte-scoring-service",
		Short:        "PTE practice scoring API",
		SilenceUsage: true,
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate()
		},
	}
	root.AddCommand(serve, migrate, attemptCmd())

	// serve is the default
	root.RunE = serve.RunE
	return root
}

func newLogger(cfg *config.Config) (*slog.Logger, utils.Logger) {
	slogLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	return slogLogger, utils.NewSlogLogger(slogLogger)
}

func runMigrate() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	slogLogger, _ := newLogger(cfg)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	if err := postgres.AutoMigrate(db); err != nil {
		return err
	}
	slogLogger.Info("Migration complete")
	return nil
}

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	slogLogger, logger := newLogger(cfg)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	// Redis is optional unless sessions live there
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = pkg.NewRedisClient(cfg)
		if err != nil {
			if cfg.SessionStore == config.SessionStoreRedis {
				return fmt.Errorf("failed to initialize redis: %w", err)
			}
			logger.Warn("Redis unavailable, continuing without cache", "error", err)
			redisClient = nil
		}
	}

	repoManager := postgres.NewRepositoryManager(postgres.RepositoryConfig{
		DB:          db,
		RedisClient: redisClient,
		CasdoorConfig: casdoor.CasdoorConfig{
			Endpoint:         cfg.Casdoor.Endpoint,
			ClientID:         cfg.Casdoor.ClientID,
			ClientSecret:     cfg.Casdoor.ClientSecret,
			Certificate:      cfg.Casdoor.Cert,
			OrganizationName: cfg.Casdoor.Organization,
			ApplicationName:  cfg.Casdoor.Application,
		},
		SessionStore: cfg.SessionStore,
	})
	if err := repoManager.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize repositories: %w", err)
	}
	repo := repoManager.GetRepository()

	m := metrics.New()

	publisher, err := newPublisher(cfg, slogLogger)
	if err != nil {
		return err
	}

	panel, err := newPanel(cfg, slogLogger, m)
	if err != nil {
		return err
	}

	serviceManager := services.NewServiceManager(services.Dependencies{
		Repo:      repo,
		Redis:     redisClient,
		Logger:    slogLogger,
		Validator: validator.New(),
		Panel:     panel,
		Publisher: publisher,
		Metrics:   m,
	}, services.Config{
		EventTopic:    cfg.Kafka.Topic,
		TimingGrace:   cfg.TimingGrace,
		GraderTimeout: cfg.GraderTimeout,
		RateLimits:    cfg.RateLimits,
		RateWindow:    cfg.RateWindow,
	})
	if err := serviceManager.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	auth := handlers.NewCasdoorAuthMiddleware(cfg.Casdoor, repo.User(), logger)
	handlerManager := handlers.NewHandlerManager(serviceManager, logger, auth.AuthMiddleware(), repo.User(), m)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	handlers.SetupMiddleware(router, logger, m)
	handlerManager.SetupRoutes(router)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment, "graders", panel.Providers())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		logger.Error("Server failed", "error", err)
	}

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// closes the publisher and the repositories
	if err := serviceManager.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown services", "error", err)
	}

	if redisClient != nil {
		redisClient.Close()
	}

	logger.Info("Server exited")
	return nil
}

func newPublisher(cfg *config.Config, logger *slog.Logger) (events.EventPublisher, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		pub, _ := events.NewInProcessEventPublisher(logger)
		return pub, nil
	}
	pub, err := events.NewKafkaEventPublisher(cfg.Kafka.Brokers, logger)
	if err != nil {
		return nil, err
	}
	return pub, nil
}

func newPanel(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) (*grader.Panel, error) {
	var graders []grader.Grader
	if cfg.OpenAI.Enabled() {
		graders = append(graders, grader.NewOpenAI(cfg.OpenAI.BaseURL, cfg.OpenAI.APIKey, cfg.OpenAI.Model))
	}
	if cfg.Zhipu.Enabled() {
		z, err := grader.NewZhipu(cfg.Zhipu.APIKey, cfg.Zhipu.Model)
		if err != nil {
			return nil, fmt.Errorf("failed to create zhipu grader: %w", err)
		}
		graders = append(graders, z)
	}
	return grader.NewPanel(graders, cfg.GraderTimeout, logger, m), nil
}
