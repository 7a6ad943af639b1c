// file: internal/services/service_collection.go
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"badgehub/internal/cache"
	"badgehub/internal/config"
	"badgehub/internal/database"
	"badgehub/internal/events"
	"badgehub/internal/repositories"
	"badgehub/internal/utils"

	"go.uber.org/zap"
)

// sessionCleanupInterval is how often expired sessions are purged.
const sessionCleanupInterval = time.Hour

// ServiceCollection wires all services with their dependencies
type ServiceCollection struct {
	// Core services
	BadgeService   BadgeService   `json:"-"`
	RewardService  RewardService  `json:"-"`
	ProfileService ProfileService `json:"-"`
	AuthService    AuthService    `json:"-"`

	// Infrastructure
	Repositories *repositories.Collection `json:"-"`
	Cache        cache.Cache              `json:"-"`
	EventBus     events.EventBus          `json:"-"`
	Avatars      utils.AvatarStorage      `json:"-"`
	Logger       *zap.Logger              `json:"-"`
	Config       *config.Config           `json:"-"`
	DBManager    *database.Manager        `json:"-"`

	shutdown chan struct{}
	wg       sync.WaitGroup
}

// NewServiceCollection builds the full service graph in dependency order.
func NewServiceCollection(
	dbManager *database.Manager,
	cfg *config.Config,
	logger *zap.Logger,
) (*ServiceCollection, error) {
	if dbManager == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	sc := &ServiceCollection{
		DBManager: dbManager,
		Config:    cfg,
		Logger:    logger,
		shutdown:  make(chan struct{}),
	}

	cacheStore, err := cache.New(&cfg.Cache, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}
	sc.Cache = cacheStore

	sc.EventBus = events.NewEventBus(events.DefaultEventBusConfig(), logger)

	avatars, err := utils.NewCloudinaryStorage(cfg.Cloudinary, logger)
	switch {
	case err == nil:
		sc.Avatars = avatars
	case errors.Is(err, utils.ErrStorageDisabled):
		logger.Warn("avatar storage disabled, uploads will be rejected")
	default:
		return nil, fmt.Errorf("failed to initialize avatar storage: %w", err)
	}

	sc.Repositories = repositories.NewCollection(dbManager, sc.Cache, logger)

	sc.BadgeService = NewBadgeService(sc.Repositories, sc.Cache, sc.EventBus, logger)
	sc.RewardService = NewRewardService(sc.Repositories, sc.BadgeService, sc.EventBus, logger)
	sc.ProfileService = NewProfileService(sc.Repositories, sc.Avatars, sc.EventBus, logger)
	sc.AuthService = NewAuthService(sc.Repositories, sc.EventBus, cfg.Auth, logger)

	logger.Info("service collection initialized")
	return sc, nil
}

// Start launches the event bus and background maintenance loops.
func (sc *ServiceCollection) Start(ctx context.Context) error {
	if err := sc.EventBus.Start(ctx); err != nil {
		return fmt.Errorf("failed to start event bus: %w", err)
	}

	sc.wg.Add(1)
	go sc.sessionCleanupLoop()

	sc.Logger.Info("service collection started")
	return nil
}

// Shutdown stops background work and releases infrastructure resources.
func (sc *ServiceCollection) Shutdown(ctx context.Context) error {
	sc.Logger.Info("shutting down service collection")
	close(sc.shutdown)

	var shutdownErrors []error

	if err := sc.EventBus.Stop(ctx); err != nil {
		shutdownErrors = append(shutdownErrors, fmt.Errorf("event bus stop: %w", err))
	}

	done := make(chan struct{})
	go func() {
		sc.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		shutdownErrors = append(shutdownErrors, fmt.Errorf("shutdown timeout exceeded"))
	}

	if err := sc.Cache.Close(); err != nil {
		shutdownErrors = append(shutdownErrors, fmt.Errorf("cache close: %w", err))
	}
	if err := sc.DBManager.Close(); err != nil {
		shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
	}

	if len(shutdownErrors) > 0 {
		return errors.Join(shutdownErrors...)
	}
	sc.Logger.Info("service collection stopped")
	return nil
}

// HealthCheck reports the state of the infrastructure dependencies.
func (sc *ServiceCollection) HealthCheck(ctx context.Context) map[string]string {
	status := make(map[string]string)

	if err := sc.DBManager.DB().PingContext(ctx); err != nil {
		status["database"] = err.Error()
	} else {
		status["database"] = "ok"
	}
	if err := sc.Cache.Health(ctx); err != nil {
		status["cache"] = err.Error()
	} else {
		status["cache"] = "ok"
	}
	if err := sc.EventBus.Health(); err != nil {
		status["events"] = err.Error()
	} else {
		status["events"] = "ok"
	}
	return status
}

func (sc *ServiceCollection) sessionCleanupLoop() {
	defer sc.wg.Done()

	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if _, err := sc.AuthService.CleanupExpiredSessions(ctx); err != nil {
				sc.Logger.Warn("session cleanup failed", zap.Error(err))
			}
			cancel()
		case <-sc.shutdown:
			return
		}
	}
}
