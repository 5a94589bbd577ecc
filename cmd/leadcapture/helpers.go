package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	storage "github.com/osr-alliance/backend-lead-capture"
	"github.com/osr-alliance/backend-lead-capture/config"
	"github.com/osr-alliance/backend-lead-capture/store"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

func setupLogging(cfg *config.Config) {
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if strings.EqualFold(cfg.Log.Format, "json") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

// conns holds everything opened for a command so it can be closed in one go
type conns struct {
	db    *sqlx.DB
	redis *redis.Client
	store store.Store
}

func (c *conns) Close() {
	if c.redis != nil {
		_ = c.redis.Close()
	}
	if c.db != nil {
		_ = c.db.Close()
	}
}

// openStore connects to the db (and redis when configured) and makes sure the leads table exists
func openStore(ctx context.Context, cfg *config.Config, withCache bool) (*conns, error) {
	db, err := storage.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	c := &conns{db: db}

	if withCache && cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			// the cache is optional
			logrus.WithError(err).WithField("addr", cfg.Redis.Addr).Warn("redis unreachable; lead list cache disabled")
			_ = rdb.Close()
		} else {
			c.redis = rdb
		}
	}

	st, err := store.New(&store.Config{
		ReadConn:  db,
		WriteConn: db,
		Redis:     c.redis,
		CacheTTL:  cfg.Redis.TTL,
		Debugger:  cfg.Database.Debug,
	})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("init store: %w", err)
	}
	c.store = st

	if err := st.EnsureSchema(ctx); err != nil {
		c.Close()
		return nil, err
	}

	return c, nil
}
