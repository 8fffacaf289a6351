package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/sirpyerre/postbox/internal/core/ports"
	mongodb "github.com/sirpyerre/postbox/internal/infrastructure/db/mongo"
	"github.com/sirpyerre/postbox/internal/infrastructure/db/postgres"
	redisdb "github.com/sirpyerre/postbox/internal/infrastructure/db/redis"
	"github.com/sirpyerre/postbox/internal/infrastructure/http/handlers"
	"github.com/sirpyerre/postbox/internal/pkg/config"
)

// storage is the set of adapters selected by configuration.
type storage struct {
	users       ports.UserRepository
	posts       ports.PostRepository
	idempotency ports.IdempotencyStore
	checks      map[string]handlers.Check
	closers     []func(context.Context) error
}

func openStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*storage, error) {
	s := &storage{checks: make(map[string]handlers.Check)}

	var err error
	switch cfg.Backend {
	case config.BackendMongo:
		err = s.openMongo(ctx, cfg, log)
	default:
		err = s.openPostgres(ctx, cfg, log)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Redis.Addr != "" {
		if err := s.openRedis(ctx, cfg, log); err != nil {
			_ = s.close(ctx)
			return nil, err
		}
	} else {
		log.Info().Msg("REDIS_ADDR not set, Idempotency-Key support disabled")
	}
	return s, nil
}

func (s *storage) openPostgres(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	db, err := postgres.Connect(ctx, postgres.Config{
		DSN:            cfg.Postgres.URL,
		MaxOpenConns:   cfg.Postgres.MaxOpenConns,
		MaxIdleConns:   cfg.Postgres.MaxIdleConns,
		AcquireTimeout: cfg.Postgres.PoolTimeout,
	})
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}
	log.Info().Msg("connected to postgres")

	s.users = postgres.NewUserRepository(db)
	s.posts = postgres.NewPostRepository(db)
	s.checks["postgres"] = db.Ping
	s.closers = append(s.closers, func(context.Context) error { return db.Close() })
	return nil
}

func (s *storage) openMongo(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		return fmt.Errorf("open mongo: %w", err)
	}
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(ctx)
		return fmt.Errorf("mongo indexes: %w", err)
	}
	log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongo")

	s.users = mongodb.NewUserRepository(db)
	s.posts = mongodb.NewPostRepository(db)
	s.checks["mongodb"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }
	s.closers = append(s.closers, client.Disconnect)
	return nil
}

func (s *storage) openRedis(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	client, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err != nil {
		return fmt.Errorf("open redis: %w", err)
	}
	log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to redis")

	s.idempotency = redisdb.NewIdempotencyStore(client, cfg.Redis.IdempotencyTTL)
	s.checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	s.closers = append(s.closers, func(context.Context) error { return client.Close() })
	return nil
}

// close releases adapters in reverse order of opening.
func (s *storage) close(ctx context.Context) error {
	var firstErr error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.closers = nil
	return firstErr
}
