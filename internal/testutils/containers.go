package testutils

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/minio"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	redisModule "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"

	"media-gallery/internal/config"
	"media-gallery/internal/platform/cache"
	"media-gallery/internal/platform/database"
	"media-gallery/internal/platform/storage"
)

// TestContainers manages the backing services of integration tests
type TestContainers struct {
	PostgresContainer testcontainers.Container
	MinioContainer    testcontainers.Container
	RedisContainer    testcontainers.Container
	DB                *sql.DB
	MinioClient       *storage.MinIOClient
	RedisClient       *cache.RedisClient
	DatabaseURL       string
	StorageConfig     config.StorageConfig
	CacheConfig       config.CacheConfig
}

// SetupTestContainers starts PostgreSQL, MinIO and Valkey and migrates the schema
func SetupTestContainers(ctx context.Context) (*TestContainers, error) {
	containers := &TestContainers{}

	if err := containers.setupPostgres(ctx); err != nil {
		return nil, fmt.Errorf("failed to setup postgres container: %w", err)
	}

	if err := containers.setupMinio(ctx); err != nil {
		_ = containers.Cleanup(ctx)
		return nil, fmt.Errorf("failed to setup minio container: %w", err)
	}

	if err := containers.setupRedis(ctx); err != nil {
		_ = containers.Cleanup(ctx)
		return nil, fmt.Errorf("failed to setup redis container: %w", err)
	}

	if _, err := database.RunMigrations(ctx, containers.DB); err != nil {
		_ = containers.Cleanup(ctx)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return containers, nil
}

// setupPostgres creates and starts a PostgreSQL test container
func (tc *TestContainers) setupPostgres(ctx context.Context) error {
	postgresContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("gallery"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		postgres.WithSQLDriver("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to start postgres container: %w", err)
	}
	tc.PostgresContainer = postgresContainer

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return fmt.Errorf("failed to get postgres connection string: %w", err)
	}
	tc.DatabaseURL = connStr

	db, err := database.NewConnection(ctx, connStr)
	if err != nil {
		return err
	}
	tc.DB = db
	return nil
}

// setupMinio creates and starts a MinIO test container
func (tc *TestContainers) setupMinio(ctx context.Context) error {
	minioContainer, err := minio.Run(ctx,
		"minio/minio:latest",
		minio.WithUsername("testuser"),
		minio.WithPassword("testpass123"),
	)
	if err != nil {
		return fmt.Errorf("failed to start minio container: %w", err)
	}
	tc.MinioContainer = minioContainer

	endpoint, err := minioContainer.ConnectionString(ctx)
	if err != nil {
		return fmt.Errorf("failed to get minio endpoint: %w", err)
	}

	tc.StorageConfig = config.StorageConfig{
		Enabled:         true,
		Endpoint:        endpoint,
		AccessKeyID:     "testuser",
		SecretAccessKey: "testpass123",
		BucketName:      "gallery-test",
		Region:          "us-east-1",
	}

	client, err := storage.NewMinIOClient(tc.StorageConfig)
	if err != nil {
		return err
	}
	tc.MinioClient = client
	return nil
}

// setupRedis creates and starts a Valkey test container (Redis-compatible)
func (tc *TestContainers) setupRedis(ctx context.Context) error {
	redisContainer, err := redisModule.Run(ctx,
		"valkey/valkey:7-alpine",
		redisModule.WithLogLevel(redisModule.LogLevelVerbose),
	)
	if err != nil {
		return fmt.Errorf("failed to start valkey container: %w", err)
	}
	tc.RedisContainer = redisContainer

	endpoint, err := redisContainer.ConnectionString(ctx)
	if err != nil {
		return fmt.Errorf("failed to get valkey endpoint: %w", err)
	}

	tc.CacheConfig = config.CacheConfig{
		Enabled:     true,
		Address:     strings.TrimPrefix(endpoint, "redis://"),
		DefaultTTL:  time.Hour,
		DialTimeout: 5 * time.Second,
	}

	client, err := cache.NewRedisClient(ctx, tc.CacheConfig)
	if err != nil {
		return err
	}
	tc.RedisClient = client
	return nil
}

// Cleanup closes clients and terminates every started container
func (tc *TestContainers) Cleanup(ctx context.Context) error {
	var errs []error

	if tc.DB != nil {
		if err := tc.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}
	if tc.RedisClient != nil {
		if err := tc.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close valkey client: %w", err))
		}
	}

	for name, c := range map[string]testcontainers.Container{
		"postgres": tc.PostgresContainer,
		"minio":    tc.MinioContainer,
		"valkey":   tc.RedisContainer,
	} {
		if c == nil {
			continue
		}
		if err := c.Terminate(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to terminate %s container: %w", name, err))
		}
	}

	return errors.Join(errs...)
}

// ResetDatabase empties the catalogue and flushes the cache
func (tc *TestContainers) ResetDatabase(ctx context.Context) error {
	if _, err := tc.DB.ExecContext(ctx, `TRUNCATE image_tags, images, tags RESTART IDENTITY`); err != nil {
		return fmt.Errorf("failed to reset database: %w", err)
	}
	if tc.RedisClient != nil {
		return tc.RedisClient.Invalidate(ctx)
	}
	return nil
}
