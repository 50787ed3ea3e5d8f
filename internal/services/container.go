package services

import (
	"context"
	"database/sql"
	"errors"

	"media-gallery/internal/config"
	"media-gallery/internal/domain/gallery"
	"media-gallery/internal/observability"
	"media-gallery/internal/platform/cache"
	"media-gallery/internal/platform/database"
	"media-gallery/internal/services/implementations"
)

// Container holds all the application dependencies
type Container struct {
	config *config.Config
	db     *sql.DB
	logger *observability.Logger

	// Cache, nil client when disabled or unreachable
	redisClient  *cache.RedisClient
	cacheService *implementations.CacheService

	// Repositories
	repositories *database.Repositories

	// Services
	imageService gallery.ImageService
	tagService   gallery.TagService
}

// NewContainer creates a new dependency injection container.
// A configured but unreachable cache is logged and skipped; the API keeps
// serving from the database.
func NewContainer(ctx context.Context, cfg *config.Config, db *sql.DB, logger *observability.Logger) (*Container, error) {
	var redisClient *cache.RedisClient
	if cfg.Cache.Enabled {
		client, err := cache.NewRedisClient(ctx, cfg.Cache)
		if err != nil {
			logger.Warn(ctx).Err(err).Str("address", cfg.Cache.Address).Msg("Cache unavailable, continuing without it")
		} else {
			redisClient = client
			logger.Info(ctx).Str("address", cfg.Cache.Address).Msg("Cache connected")
		}
	}

	return NewContainerWithCache(cfg, db, redisClient, logger)
}

// NewContainerWithCache wires the container around an existing cache client,
// which may be nil
func NewContainerWithCache(cfg *config.Config, db *sql.DB, redisClient *cache.RedisClient, logger *observability.Logger) (*Container, error) {
	if db == nil {
		return nil, errors.New("database connection is required")
	}
	if logger == nil {
		logger = observability.NopLogger()
	}

	c := &Container{
		config:      cfg,
		db:          db,
		logger:      logger,
		redisClient: redisClient,
	}
	c.initializeServices()

	return c, nil
}

// initializeServices initializes all services in the correct dependency order
func (c *Container) initializeServices() {
	c.repositories = database.NewRepositories(c.db)
	c.cacheService = implementations.NewCacheService(c.redisClient, c.logger)

	var cacheService gallery.CacheService
	if c.cacheService.Enabled() {
		cacheService = c.cacheService
	}

	c.imageService = implementations.NewImageService(c.repositories.Images, cacheService, c.logger)
	c.tagService = implementations.NewTagService(c.repositories.Tags, cacheService, c.logger)
}

// Getters for accessing services

func (c *Container) Config() *config.Config {
	return c.config
}

func (c *Container) DB() *sql.DB {
	return c.db
}

func (c *Container) Logger() *observability.Logger {
	return c.logger
}

func (c *Container) Repositories() *database.Repositories {
	return c.repositories
}

func (c *Container) CacheService() *implementations.CacheService {
	return c.cacheService
}

func (c *Container) ImageService() gallery.ImageService {
	return c.imageService
}

func (c *Container) TagService() gallery.TagService {
	return c.tagService
}

// ReadinessChecks returns the dependency probes served by /readyz.
// The cache is only probed when it is configured and connected.
func (c *Container) ReadinessChecks() map[string]func(context.Context) error {
	checks := map[string]func(context.Context) error{
		"database": c.db.PingContext,
	}
	if c.cacheService.Enabled() {
		checks["cache"] = c.cacheService.Health
	}
	return checks
}

// Close cleans up resources
func (c *Container) Close() error {
	var errs []error
	if c.redisClient != nil {
		errs = append(errs, c.redisClient.Close())
	}
	if c.db != nil {
		errs = append(errs, c.db.Close())
	}
	return errors.Join(errs...)
}
