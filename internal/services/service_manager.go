package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/SAP-F-2025/evaluation-console/internal/cache"
	"github.com/SAP-F-2025/evaluation-console/internal/events"
	"github.com/SAP-F-2025/evaluation-console/internal/gateway"
	"github.com/SAP-F-2025/evaluation-console/internal/report"
	"github.com/SAP-F-2025/evaluation-console/internal/validator"
)

// ServiceManagerConfig holds configuration for the service manager
type ServiceManagerConfig struct {
	SessionIdleTTL  time.Duration
	JanitorInterval time.Duration
	HistoryMaxAge   time.Duration

	// Location is used for date buckets, report dates and exports.
	Location *time.Location
	Clock    func() time.Time
}

// Dependencies are the collaborators shared by every service.
type Dependencies struct {
	Gateway    gateway.Gateway
	Cache      *cache.CacheManager
	Publisher  events.EventPublisher
	Subscriber EventSubscriber
	Logger     *slog.Logger
	Validator  *validator.Validator
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	deps   Dependencies
	config ServiceManagerConfig

	entityCache    *cache.EntityCache
	sessionService SessionService
	entityService  EntityService
	historyService HistoryService

	cancel context.CancelFunc
	wg     sync.WaitGroup

	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

func NewServiceManager(deps Dependencies, config ServiceManagerConfig) ServiceManager {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}
	if deps.Cache == nil {
		deps.Cache = cache.NewCacheManager(nil)
	}
	return &serviceManager{
		deps:        deps,
		config:      config,
		entityCache: cache.NewEntityCache(),
	}
}

// NewDefaultServiceManager creates a service manager with default configuration
func NewDefaultServiceManager(deps Dependencies) ServiceManager {
	return NewServiceManager(deps, ServiceManagerConfig{
		SessionIdleTTL: DefaultSessionIdleTTL,
		HistoryMaxAge:  cache.EvaluationCacheConfig.TTL,
		Location:       time.Local,
	})
}

// Initialize builds the services, subscribes history to evaluation events and
// starts the session janitor.
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}
	if sm.deps.Gateway == nil {
		return errors.New("service manager requires a gateway")
	}

	sm.deps.Logger.Info("Initializing service manager")

	runCtx, cancel := context.WithCancel(context.Background())
	sm.cancel = cancel

	if err := sm.initializeServices(runCtx); err != nil {
		cancel()
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	sm.wg.Add(1)
	go func() {
		defer sm.wg.Done()
		sm.sessionService.RunJanitor(runCtx, sm.config.JanitorInterval)
	}()

	sm.initialized = true
	sm.deps.Logger.Info("Service manager initialized successfully")
	return nil
}

func (sm *serviceManager) initializeServices(ctx context.Context) error {
	renderer := report.NewRenderer(report.WithLocation(sm.config.Location))

	sm.entityService = NewEntityService(sm.deps.Gateway, sm.deps.Cache, sm.entityCache, sm.deps.Publisher, sm.deps.Logger, sm.deps.Validator)
	sm.deps.Logger.Info("Entity service initialized")

	sm.historyService = NewHistoryService(sm.deps.Gateway, sm.deps.Cache, sm.deps.Publisher, renderer, sm.deps.Logger, HistoryConfig{
		MaxAge:   sm.config.HistoryMaxAge,
		Location: sm.config.Location,
		Clock:    sm.config.Clock,
	})
	sm.deps.Logger.Info("History service initialized")

	sm.sessionService = NewSessionService(sm.deps.Gateway, sm.entityCache, sm.entityService, sm.deps.Cache, sm.deps.Publisher, renderer, sm.deps.Logger, sm.deps.Validator, SessionConfig{
		IdleTTL: sm.config.SessionIdleTTL,
		Clock:   sm.config.Clock,
	})
	sm.deps.Logger.Info("Session service initialized")

	if sm.deps.Subscriber != nil {
		if err := sm.deps.Subscriber.Subscribe(ctx, sm.historyService.HandleEvent); err != nil {
			return fmt.Errorf("subscribe history to events: %w", err)
		}
	}
	return nil
}

func (sm *serviceManager) Sessions() SessionService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.sessionService
}

func (sm *serviceManager) Entities() EntityService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.entityService
}

func (sm *serviceManager) History() HistoryService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.historyService
}

// HealthCheck reports the backend's health. A missing redis is not a failure.
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}
	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if err := sm.deps.Gateway.Health(ctx); err != nil {
		return fmt.Errorf("gateway health check failed: %w", err)
	}
	if err := sm.deps.Cache.HealthCheck(ctx); err != nil && !errors.Is(err, cache.ErrCacheNotAvailable) {
		return fmt.Errorf("cache health check failed: %w", err)
	}
	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown || !sm.initialized {
		sm.shutdown = true
		return nil
	}

	sm.deps.Logger.Info("Shutting down service manager")
	sm.cancel()

	done := make(chan struct{})
	go func() {
		sm.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("service manager shutdown: %w", ctx.Err())
	}

	sm.shutdown = true
	sm.deps.Logger.Info("Service manager shut down completed")
	return nil
}
