package main

import (
	"context"
	"flag"
	"fmt"
	"haversine-udf/internal/adapters/arrowudf"
	"haversine-udf/internal/adapters/cache"
	"haversine-udf/internal/adapters/points"
	"haversine-udf/internal/config"
	"haversine-udf/internal/domain"
	"haversine-udf/internal/platform/db"
	"haversine-udf/internal/platform/logging"
	"haversine-udf/internal/ports"
	"haversine-udf/internal/services"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/apache/arrow/go/v15/arrow"
	"github.com/apache/arrow/go/v15/arrow/memory"
)

type options struct {
	target     string
	method     string
	nullPolicy string
	workers    int
	useCache   bool
}

// calc computes the average haversine distance of a points file or table
// with one of the registered methods and reports how long it took.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	var opts options
	flag.StringVar(&opts.target, "f", "data/points_10.parquet", "points file (.parquet, .json) or postgres:// URL")
	flag.StringVar(&opts.method, "m", services.MethodVector, "method: "+strings.Join(methodNames(), ", "))
	flag.StringVar(&opts.nullPolicy, "null-policy", cfg.Compute.NullPolicy.String(), "null handling: reject or propagate")
	flag.IntVar(&opts.workers, "workers", cfg.Compute.ParallelWorkers, "goroutines for the parallel method (0 = GOMAXPROCS)")
	flag.BoolVar(&opts.useCache, "cache", true, "use the result cache when REDIS_ADDR or DATABASE_URL is set")
	flag.Parse()

	logger := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: os.Stderr})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx)

	if err := run(ctx, cfg, opts, os.Stdout); err != nil {
		logger.Error().Err(err).Msg("calc failed")
		os.Exit(1)
	}
}

func methodNames() []string {
	return newRegistry(nil, services.ParallelOptions{}).Names()
}

func newRegistry(adapter *arrowudf.Adapter, parallel services.ParallelOptions) *services.Registry {
	registry := services.DefaultRegistry(parallel)
	if adapter == nil {
		adapter = arrowudf.NewAdapter(nil, domain.NullReject)
	}
	udf := arrowudf.NewFunc(adapter, services.HaversineDist)
	registry.Register(services.NewHostCalculator[arrow.Array](services.MethodArrow, adapter, udf))
	return registry
}

func run(ctx context.Context, cfg config.Config, opts options, out io.Writer) error {
	policy, err := domain.ParseNullPolicy(opts.nullPolicy)
	if err != nil {
		return err
	}

	adapter := arrowudf.NewAdapter(memory.DefaultAllocator, policy)
	registry := newRegistry(adapter, services.ParallelOptions{Workers: opts.workers})

	var src ports.PointSource
	if points.IsPostgresURL(opts.target) {
		pool, err := db.Open(ctx, opts.target)
		if err != nil {
			return err
		}
		defer pool.Close()
		src = points.NewPostgresSource(pool, policy)
	} else {
		src, err = points.OpenFile(opts.target, adapter)
		if err != nil {
			return err
		}
	}

	var resultCache ports.ResultCache
	if opts.useCache {
		c, closeCache, err := cache.Open(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeCache()
		resultCache = c
	}

	fmt.Fprintf(out, "pid=%d\n", os.Getpid())

	res, err := services.NewRunner(registry, resultCache, policy).Run(ctx, opts.method, src)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%v\n", res.Average)
	if res.Cached {
		fmt.Fprintln(out, "(cached)")
	}
	fmt.Fprintf(out, "Time taken: %.6f seconds\n", res.Duration.Seconds())
	return nil
}
