package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"media-gallery/internal/config"
	"media-gallery/internal/observability"
	"media-gallery/internal/platform/database"
	"media-gallery/internal/platform/server"
	"media-gallery/internal/services"
	"media-gallery/internal/web/handlers"
)

func main() {
	envErr := godotenv.Load()
	ctx := context.Background()

	cfg, cfgErr := config.Load()
	obsConfig := observability.LoadConfig()
	if cfgErr == nil {
		obsConfig = obsConfig.ForApplication(cfg.Environment, cfg.Logging.Level, cfg.Logging.Format)
	}
	logger := observability.NewLogger(obsConfig)

	if envErr != nil {
		logger.Info(ctx).Msg("No .env file found, using environment variables")
	}
	if cfgErr != nil {
		logger.Fatal(ctx).Err(cfgErr).Msg("Invalid configuration")
	}

	if err := run(ctx, cfg, obsConfig, logger); err != nil {
		logger.Fatal(ctx).Err(err).Msg("Server failed")
	}
}

func run(ctx context.Context, cfg *config.Config, obsConfig observability.Config, logger *observability.Logger) error {
	otel.SetErrorHandler(logger.OTELErrorHandler())
	provider, err := observability.NewProvider(ctx, obsConfig,
		observability.WithResourceAttributes(
			attribute.Bool("gallery.cache.enabled", cfg.Cache.Enabled),
			attribute.Bool("gallery.storage.enabled", cfg.Storage.Enabled),
		),
	)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(flushCtx); err != nil {
			logger.Error(ctx).Err(err).Msg("Failed to flush telemetry")
		}
	}()

	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}

	applied, err := database.RunMigrations(ctx, db)
	if err != nil {
		_ = db.Close()
		return err
	}
	if len(applied) > 0 {
		logger.Info(ctx).Strs("migrations", applied).Msg("Migrations applied")
	}

	container, err := services.NewContainer(ctx, cfg, db, logger)
	if err != nil {
		_ = db.Close()
		return err
	}
	defer func() {
		if err := container.Close(); err != nil {
			logger.Error(ctx).Err(err).Msg("Failed to close services")
		}
	}()

	opts := []handlers.Option{handlers.WithReadinessChecks(container.ReadinessChecks())}
	if obsConfig.TracesEnabled {
		opts = append(opts, handlers.WithTracing(provider.Tracer(observability.InstrumentationName)))
	}
	if obsConfig.MetricsEnabled {
		metrics, err := observability.NewHTTPMetrics(provider.Meter(observability.InstrumentationName))
		if err != nil {
			return err
		}
		opts = append(opts, handlers.WithMetrics(metrics))
	}

	handler := handlers.New(container.ImageService(), container.TagService(), cfg, logger, opts...)
	srv := server.New(cfg.Addr(), handler.Routes(), cfg.Server)

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx).
		Str("addr", srv.Addr).
		Str("environment", cfg.Environment).
		Bool("cache", container.CacheService().Enabled()).
		Msg("Server starting")

	if err := server.Run(sigCtx, srv, nil, cfg.Server.ShutdownTimeout); err != nil {
		return err
	}

	logger.Info(ctx).Msg("Server exited")
	return nil
}
