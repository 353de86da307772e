package main

import (
	"context"
	"errors"
	"fmt"
	"haversine-udf/internal/adapters/arrowudf"
	"haversine-udf/internal/adapters/cache"
	"haversine-udf/internal/adapters/jsoncol"
	"haversine-udf/internal/api"
	"haversine-udf/internal/api/handlers"
	"haversine-udf/internal/config"
	"haversine-udf/internal/platform/logging"
	"haversine-udf/internal/services"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apache/arrow/go/v15/arrow"
	"github.com/apache/arrow/go/v15/arrow/memory"
	"github.com/rs/zerolog"
)

// main is the application composition root.
// It wires concrete adapters behind ports and starts the HTTP server.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx)

	if err := serve(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

func serve(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	resultCache, closeCache, err := cache.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	policy := cfg.Compute.NullPolicy
	parallel := services.ParallelOptions{Workers: cfg.Compute.ParallelWorkers}

	adapter := arrowudf.NewAdapter(memory.DefaultAllocator, policy)
	udf := arrowudf.NewFunc(adapter, services.HaversineDist)

	registry := services.DefaultRegistry(parallel)
	registry.Register(services.NewHostCalculator[arrow.Array](services.MethodArrow, adapter, udf))

	h := &handlers.HaversineHandler{
		Columns:  jsoncol.NewAdapter(policy),
		UDF:      udf,
		Runner:   services.NewRunner(registry, resultCache, policy),
		Parallel: parallel,
	}
	router := api.NewRouter(api.RouterConfig{Logger: logger, MaxBodyBytes: cfg.Server.MaxBodyBytes}, h)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", srv.Addr).
			Str("null_policy", policy.String()).
			Bool("result_cache", resultCache != nil).
			Msg("server listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
