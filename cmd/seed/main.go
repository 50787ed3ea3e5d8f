package main

import (
	"context"
	"flag"
	"math/rand"
	"time"

	"github.com/joho/godotenv"

	"media-gallery/internal/config"
	"media-gallery/internal/observability"
	"media-gallery/internal/platform/cache"
	"media-gallery/internal/platform/database"
	"media-gallery/internal/platform/storage"
	"media-gallery/internal/seed"
)

func main() {
	seedValue := flag.Int64("seed", 0, "random seed for a reproducible catalogue (0 picks one from the clock)")
	count := flag.Int("images", seed.DefaultImageCount, "number of images to generate")
	flag.Parse()

	envErr := godotenv.Load()

	// Panics on an invalid environment
	cfg := config.MustLoad()
	logger := observability.NewLogger(observability.LoadConfig().
		ForApplication(cfg.Environment, cfg.Logging.Level, cfg.Logging.Format))
	ctx := context.Background()

	if envErr != nil {
		logger.Debug(ctx).Msg("No .env file found, using environment variables")
	}

	if err := run(ctx, cfg, logger, *seedValue, *count); err != nil {
		logger.Fatal(ctx).Err(err).Msg("Seed failed")
	}
}

func run(ctx context.Context, cfg *config.Config, logger *observability.Logger, seedValue int64, count int) error {
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }() //nolint:errcheck // Resource cleanup

	if _, err := database.RunMigrations(ctx, db); err != nil {
		return err
	}

	if seedValue == 0 {
		seedValue = time.Now().UnixNano()
	}
	logger.Info(ctx).Int64("seed", seedValue).Msg("Starting seed")

	opts := []seed.Option{
		seed.WithRand(rand.New(rand.NewSource(seedValue))),
		seed.WithImageCount(count),
	}

	if cfg.Storage.Enabled {
		store, err := storage.NewMinIOClient(cfg.Storage)
		if err != nil {
			return err
		}
		opts = append(opts, seed.WithAssetStore(store))
	}

	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedisClient(ctx, cfg.Cache)
		if err != nil {
			logger.Warn(ctx).Err(err).Msg("Cache unavailable, skipping flush")
		} else {
			defer func() { _ = redisClient.Close() }() //nolint:errcheck // Resource cleanup
			opts = append(opts, seed.WithCache(redisClient))
		}
	}

	result, err := seed.New(database.NewCatalogRepository(db), logger, opts...).Run(ctx)
	if err != nil {
		return err
	}

	logger.Info(ctx).
		Int("tags", result.Tags).
		Int("images", result.Images).
		Msg("Seed completed")
	return nil
}
