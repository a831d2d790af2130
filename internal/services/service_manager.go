package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/pte-scoring-service/internal/cache"
	"github.com/SAP-F-2025/pte-scoring-service/internal/events"
	"github.com/SAP-F-2025/pte-scoring-service/internal/grader"
	"github.com/SAP-F-2025/pte-scoring-service/internal/metrics"
	"github.com/SAP-F-2025/pte-scoring-service/internal/models"
	"github.com/SAP-F-2025/pte-scoring-service/internal/repositories"
	"github.com/SAP-F-2025/pte-scoring-service/internal/scoring"
	"github.com/SAP-F-2025/pte-scoring-service/internal/timing"
	"github.com/SAP-F-2025/pte-scoring-service/internal/validator"
)

// Config holds the tunables shared by the services
type Config struct {
	EventTopic    string
	TimingGrace   time.Duration
	GraderTimeout time.Duration
	RateLimits    map[models.Section]int
	RateWindow    time.Duration

	// Clock overrides time.Now in tests
	Clock func() time.Time
}

func (c Config) clock() func() time.Time {
	if c.Clock != nil {
		return c.Clock
	}
	return time.Now
}

// DefaultConfig mirrors the production defaults
func DefaultConfig() Config {
	return Config{
		EventTopic:    "pte.events",
		TimingGrace:   time.Duration(timing.DefaultGraceMs) * time.Millisecond,
		GraderTimeout: grader.DefaultTimeout,
		RateWindow:    time.Hour,
	}
}

// Dependencies are the collaborators built outside the service layer
type Dependencies struct {
	Repo      repositories.Repository
	Redis     *redis.Client
	Logger    *slog.Logger
	Validator *validator.Validator
	Registry  *scoring.Registry
	Panel     *grader.Panel
	Publisher events.EventPublisher
	Metrics   *metrics.Metrics
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	deps   Dependencies
	config Config
	cache  *cache.CacheManager

	sessionService   SessionService
	gradingService   GradingService
	rateLimiter      RateLimiter
	attemptService   AttemptService
	dashboardService DashboardService
	questionService  QuestionService

	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

func NewServiceManager(deps Dependencies, config Config) ServiceManager {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}
	if deps.Registry == nil {
		deps.Registry = scoring.NewRegistry()
	}
	if deps.Publisher == nil {
		deps.Publisher = events.NewMockEventPublisher(deps.Logger)
	}
	return &serviceManager{
		deps:   deps,
		config: config,
		cache:  cache.NewCacheManager(deps.Redis),
	}
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}
	if sm.deps.Repo == nil {
		return errors.New("service manager requires a repository")
	}

	sm.deps.Logger.Info("Initializing service manager")

	d := sm.deps
	sm.sessionService = NewSessionService(d.Repo, d.Logger, d.Validator, d.Publisher, d.Metrics, sm.config)
	sm.gradingService = NewGradingService(d.Registry, d.Panel, d.Logger)
	sm.rateLimiter = NewRateLimiter(d.Repo, sm.cache.Rate, d.Logger, d.Metrics, sm.config)
	sm.attemptService = NewAttemptService(d.Repo, d.Logger, d.Validator, AttemptDeps{
		Sessions:  sm.sessionService,
		Grading:   sm.gradingService,
		Limiter:   sm.rateLimiter,
		Cache:     sm.cache,
		Publisher: d.Publisher,
		Metrics:   d.Metrics,
	}, sm.config)
	sm.dashboardService = NewDashboardService(d.Repo, sm.cache, d.Logger, sm.config)
	sm.questionService = NewQuestionService(d.Repo, d.Logger, d.Validator)

	sm.initialized = true
	sm.deps.Logger.Info("Service manager initialized successfully",
		"graders", d.Panel.Providers(),
		"redis", sm.cache.Rate.Available())
	return nil
}

// Service getters
func (sm *serviceManager) Session() SessionService {
	sm.mustBeReady()
	return sm.sessionService
}

func (sm *serviceManager) Grading() GradingService {
	sm.mustBeReady()
	return sm.gradingService
}

func (sm *serviceManager) RateLimiter() RateLimiter {
	sm.mustBeReady()
	return sm.rateLimiter
}

func (sm *serviceManager) Attempt() AttemptService {
	sm.mustBeReady()
	return sm.attemptService
}

func (sm *serviceManager) Dashboard() DashboardService {
	sm.mustBeReady()
	return sm.dashboardService
}

func (sm *serviceManager) Question() QuestionService {
	sm.mustBeReady()
	return sm.questionService
}

func (sm *serviceManager) mustBeReady() {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	if !sm.initialized {
		panic("service manager not initialized")
	}
}

// Health and lifecycle
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}
	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if err := sm.deps.Repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}
	if sm.cache.Rate.Available() {
		if err := sm.cache.HealthCheck(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}
	sm.deps.Logger.Info("Shutting down service manager")

	var errs []error
	if err := sm.deps.Publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close event publisher: %w", err))
	}
	if err := sm.deps.Repo.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close repository: %w", err))
	}

	sm.shutdown = true
	sm.deps.Logger.Info("Service manager shut down completed")
	return errors.Join(errs...)
}
