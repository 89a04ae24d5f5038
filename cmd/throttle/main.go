package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/throttlehq/throttle/core/config"
	"github.com/throttlehq/throttle/core/throttle"
	"github.com/throttlehq/throttle/integration/database/mongo"
	"github.com/throttlehq/throttle/integration/database/pg"
	"github.com/throttlehq/throttle/integration/database/redis"
	"github.com/throttlehq/throttle/store/mongostore"
	"github.com/throttlehq/throttle/store/pgstore"
	"github.com/throttlehq/throttle/store/redisstore"
)

// appConfig selects the state backend. Backend-specific settings (connection
// URLs, pool sizes) come from the integration package configs.
type appConfig struct {
	Store         string `env:"THROTTLE_STORE" envDefault:"memory"`
	MongoDatabase string `env:"THROTTLE_MONGODB_DATABASE" envDefault:"throttle"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	req, err := parseRequest(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	var cfg appConfig
	config.MustLoad(&cfg)

	store, cleanup, err := openStore(ctx, cfg)
	if err != nil {
		logger.ErrorContext(ctx, "failed to open store", slog.Any("error", err))
		os.Exit(1)
	}
	defer cleanup()

	if err := run(ctx, store, req, os.Stdout); err != nil {
		if errors.Is(err, throttle.ErrInvalidQuota) || errors.Is(err, throttle.ErrInvalidQuantity) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		logger.ErrorContext(ctx, "rate limit check failed", slog.Any("error", err))
		os.Exit(1)
	}
}

// openStore builds the Store named by THROTTLE_STORE. The returned cleanup
// releases backend connections and is safe to call exactly once.
func openStore(ctx context.Context, cfg appConfig) (throttle.Store, func(), error) {
	switch cfg.Store {
	case "memory":
		return throttle.NewMemoryStore(), func() {}, nil

	case "redis":
		var redisCfg redis.Config
		config.MustLoad(&redisCfg)
		client, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			return nil, nil, err
		}
		return redisstore.New(client), func() { _ = client.Close() }, nil

	case "postgres":
		var pgCfg pg.Config
		config.MustLoad(&pgCfg)
		pool, err := pg.Connect(ctx, pgCfg)
		if err != nil {
			return nil, nil, err
		}
		if err := pg.Migrate(ctx, pool, pgstore.Migrations, "migrations", pgCfg); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return pgstore.New(pool), pool.Close, nil

	case "mongo":
		var mongoCfg mongo.Config
		config.MustLoad(&mongoCfg)
		db, err := mongo.NewWithDatabase(ctx, mongoCfg, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, err
		}
		store := mongostore.New(db)
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = db.Client().Disconnect(ctx)
			return nil, nil, err
		}
		return store, func() { _ = db.Client().Disconnect(context.Background()) }, nil

	default:
		return nil, nil, fmt.Errorf("unknown store %q: want memory, redis, postgres or mongo", cfg.Store)
	}
}
