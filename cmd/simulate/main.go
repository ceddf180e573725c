// Command simulate seeds the record store with generated demo data.
package main

import (
	"context"
	"flag"
	"log/slog"
	"math/rand"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/pharmsight/pharmsight/internal/app"
	"github.com/pharmsight/pharmsight/internal/platform/db"
	"github.com/pharmsight/pharmsight/internal/reporting"
	"github.com/pharmsight/pharmsight/internal/simulation"
	"github.com/pharmsight/pharmsight/internal/stock/postgres"
)

func main() {
	months := flag.Int("months", simulation.DefaultMonths, "number of months of movements to generate")
	products := flag.Int("products", simulation.DefaultProductsCount, "number of products to seed")
	seed := flag.Int64("seed", 0, "random seed; 0 keeps a time-based seed")
	flag.Parse()

	ctx := context.Background()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() {
		_ = redisClient.Close()
	}()

	store := postgres.New(pool)
	cache := reporting.NewCache(redisClient, cfg.CacheTTL)

	svc := simulation.NewService(store, cache, logger)
	if *seed != 0 {
		svc.WithRand(rand.New(rand.NewSource(*seed)))
	}

	if err := svc.Run(ctx, *months, *products); err != nil {
		logger.Error("simulation run", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("store seeded",
		slog.Int("months", *months),
		slog.Int("products", *products),
	)
}
