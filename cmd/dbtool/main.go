package main

import (
	"context"
	"flag"
	"fmt"
	"haversine-udf/internal/adapters/arrowudf"
	"haversine-udf/internal/adapters/cache"
	"haversine-udf/internal/adapters/points"
	"haversine-udf/internal/config"
	"haversine-udf/internal/platform/db"
	"haversine-udf/internal/platform/logging"
	"os"

	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	seedPath := flag.String("seed", config.Get("SEED_PATH", ""), "JSON or Parquet points file to load into the points table")
	reset := flag.Bool("reset", false, "truncate the points table before seeding")
	flag.Parse()

	logger := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: os.Stderr})

	if cfg.Database.URL == "" {
		logger.Fatal().Msg("DATABASE_URL is required")
	}

	ctx := logger.WithContext(context.Background())
	if err := initAndSeed(ctx, cfg, *seedPath, *reset); err != nil {
		logger.Fatal().Err(err).Msg("dbtool failed")
	}
}

func initAndSeed(ctx context.Context, cfg config.Config, seedPath string, reset bool) error {
	logger := zerolog.Ctx(ctx)

	pool, err := db.Open(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	src := points.NewPostgresSource(pool, cfg.Compute.NullPolicy)

	logger.Info().Msg("initializing database schema")
	if err := src.InitSchema(ctx); err != nil {
		return fmt.Errorf("schema initialization failed: %w", err)
	}
	if err := cache.NewSQLResultCache(pool, cfg.Cache.TTL).InitSchema(ctx); err != nil {
		return fmt.Errorf("schema initialization failed: %w", err)
	}
	logger.Info().Msg("schema ready")

	if reset {
		if err := src.Reset(ctx); err != nil {
			return err
		}
		logger.Info().Msg("points table truncated")
	}

	if seedPath == "" {
		return nil
	}

	file, err := points.OpenFile(seedPath, arrowudf.NewAdapter(nil, cfg.Compute.NullPolicy))
	if err != nil {
		return err
	}
	cols, err := file.LoadColumns(ctx)
	if err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}

	n, err := src.Seed(ctx, cols)
	if err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}
	logger.Info().Int64("rows", n).Str("seed", seedPath).Msg("seeding complete")

	return nil
}
