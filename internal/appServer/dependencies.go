package appServer

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ds124wfegd/image-transform/config"
	"github.com/ds124wfegd/image-transform/internal/database"
	"github.com/ds124wfegd/image-transform/internal/pkg/cache"
	"github.com/ds124wfegd/image-transform/internal/pkg/kafka"
	"github.com/ds124wfegd/image-transform/internal/pkg/postgres"
	"github.com/ds124wfegd/image-transform/internal/pkg/processor"
	redisClient "github.com/ds124wfegd/image-transform/internal/pkg/redis"
	"github.com/ds124wfegd/image-transform/internal/pkg/storage"
	"github.com/ds124wfegd/image-transform/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type dependencies struct {
	Service  service.RenditionService
	producer kafka.Producer
	db       *sql.DB
	redis    *redis.Client
}

func buildDependencies(ctx context.Context, cfg *config.Config) (*dependencies, error) {
	deps := &dependencies{}

	repo, err := deps.masterRepository(ctx, cfg)
	if err != nil {
		deps.Close()
		return nil, err
	}

	locker, err := deps.locker(ctx, cfg)
	if err != nil {
		deps.Close()
		return nil, err
	}

	gate := cache.NewGate(storage.NewFileStorage(cfg.Cache.Dir), locker)
	renderer := processor.NewImageProcessor(processor.Options{
		JPEGQuality:  cfg.Render.JPEGQuality,
		MaxDimension: cfg.Render.MaxDimension,
		AutoOrient:   cfg.Render.AutoOrient,
	})

	if cfg.Kafka.Enabled {
		deps.producer = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.EventsTopic)
	} else {
		deps.producer = kafka.NewMockProducer()
	}

	deps.Service = service.NewRenditionService(repo, gate, renderer, deps.producer, service.Config{
		Tenant:      cfg.App.Tenant,
		RoutePrefix: cfg.App.RoutePrefix,
		BaseURL:     cfg.App.BaseURL,
	})
	return deps, nil
}

func (d *dependencies) masterRepository(ctx context.Context, cfg *config.Config) (database.MasterRepository, error) {
	switch cfg.Storage.Driver {
	case "", "file":
		return database.NewFileMasterRepository(storage.NewFileStorage(cfg.Storage.Path)), nil
	case "postgres":
		db, err := postgres.NewPostgresDB(ctx, &cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		d.db = db
		if cfg.Database.Migrate {
			if err := postgres.RunMigrations(ctx, db); err != nil {
				return nil, fmt.Errorf("failed to run migrations: %w", err)
			}
		}
		return database.NewPostgresMasterRepository(db), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func (d *dependencies) locker(ctx context.Context, cfg *config.Config) (cache.Locker, error) {
	switch cfg.Cache.Locker {
	case "", "local":
		return cache.NewKeyedMutex(), nil
	case "redis":
		client, err := redisClient.NewRedisClient(ctx, &cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		d.redis = client
		return cache.NewRedisLocker(client, "rendition-lock:"+cfg.App.Tenant, cfg.Cache.LockTTL, cfg.Cache.LockRetry), nil
	default:
		return nil, fmt.Errorf("unknown cache locker %q", cfg.Cache.Locker)
	}
}

func (d *dependencies) Close() {
	if d.producer != nil {
		if err := d.producer.Close(); err != nil {
			logrus.Errorf("failed to close producer: %v", err)
		}
	}
	if d.redis != nil {
		if err := d.redis.Close(); err != nil {
			logrus.Errorf("failed to close redis: %v", err)
		}
	}
	if d.db != nil {
		if err := d.db.Close(); err != nil {
			logrus.Errorf("failed to close postgres: %v", err)
		}
	}
}
