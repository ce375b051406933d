// internal/storage/open.go
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"bookvault/internal/config"
)

const connectTimeout = 30 * time.Second

// Open builds the store selected by cfg. Networked backends are pinged with
// exponential backoff until they answer or connectTimeout elapses. A non-empty
// secret wraps the result in a SealedStore.
func Open(ctx context.Context, cfg config.Storage, log logrus.FieldLogger) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Driver {
	case "memory":
		s = NewMemoryStore()
	case "sqlite":
		s, err = OpenSQLite(ctx, cfg.DSN)
	case "postgres":
		s, err = openPostgres(ctx, cfg.DSN, log)
	case "redis":
		s, err = openRedis(ctx, cfg.DSN, log)
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Secret == "" {
		return s, nil
	}
	sealed, err := NewSealedStore(ctx, s, cfg.Secret)
	if err != nil {
		s.Close()
		return nil, err
	}
	return sealed, nil
}

func openPostgres(ctx context.Context, dsn string, log logrus.FieldLogger) (Store, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := waitFor(ctx, "postgres", log, db.PingContext); err != nil {
		db.Close()
		return nil, err
	}
	s, err := NewSQLStore(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func openRedis(ctx context.Context, url string, log logrus.FieldLogger) (Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	ping := func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	if err := waitFor(ctx, "redis", log, ping); err != nil {
		rdb.Close()
		return nil, err
	}
	return NewRedisStore(rdb), nil
}

func waitFor(ctx context.Context, name string, log logrus.FieldLogger, ping func(context.Context) error) error {
	op := func() (struct{}, error) {
		return struct{}{}, ping(ctx)
	}
	notify := func(err error, next time.Duration) {
		log.WithError(err).WithField("retry_in", next).Warnf("%s not ready", name)
	}
	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(connectTimeout),
		backoff.WithNotify(notify),
	)
	if err != nil {
		return fmt.Errorf("connect %s: %w", name, err)
	}
	log.Infof("connected to %s", name)
	return nil
}
