package services

import (
	"context"
	"fmt"
	"haversine-udf/internal/domain"
	"haversine-udf/internal/platform/metrics"
	"haversine-udf/internal/ports"
	"time"

	"github.com/rs/zerolog"
)

// Result of one average-distance run.
type Result struct {
	Method   string
	Source   string
	Average  float64
	Cached   bool
	Duration time.Duration
}

// Runner resolves a method and runs it, consulting the result cache when one is set.
type Runner struct {
	registry *Registry
	cache    ports.ResultCache
	policy   domain.NullPolicy
}

// A nil cache disables caching. policy must be the null policy the sources
// were built with; it is part of every cache key.
func NewRunner(registry *Registry, cache ports.ResultCache, policy domain.NullPolicy) *Runner {
	return &Runner{registry: registry, cache: cache, policy: policy}
}

func (r *Runner) Methods() []string { return r.registry.Names() }

// Run computes the average distance of src with the named method.
// Cache failures are logged and never fail the run.
func (r *Runner) Run(ctx context.Context, method string, src ports.PointSource) (Result, error) {
	start := time.Now()
	logger := zerolog.Ctx(ctx).With().Str("method", method).Str("source", src.Name()).Logger()

	calc, err := r.registry.Get(method)
	if err != nil {
		return Result{}, fmt.Errorf("run: %w", err)
	}

	res := Result{Method: calc.Name(), Source: src.Name()}

	key := r.cacheKey(ctx, &logger, calc.Name(), src)
	if key != "" {
		v, ok, err := r.cache.Get(ctx, key)
		switch {
		case err != nil:
			metrics.ResultCacheTotal.WithLabelValues("error").Inc()
			logger.Warn().Err(err).Str("key", key).Msg("result cache read failed")
		case ok:
			metrics.ResultCacheTotal.WithLabelValues("hit").Inc()
			res.Average, res.Cached = v, true
			res.Duration = time.Since(start)
			return res, nil
		default:
			metrics.ResultCacheTotal.WithLabelValues("miss").Inc()
		}
	}

	avg, err := calc.AverageDistance(ctx, src)
	if err != nil {
		return Result{}, fmt.Errorf("run %s: %w", calc.Name(), err)
	}
	res.Average = avg
	res.Duration = time.Since(start)

	if key != "" {
		if err := r.cache.Put(ctx, key, avg); err != nil {
			logger.Warn().Err(err).Str("key", key).Msg("result cache write failed")
		}
	}

	return res, nil
}

// Return "" when caching is disabled or the source cannot be fingerprinted.
func (r *Runner) cacheKey(ctx context.Context, logger *zerolog.Logger, method string, src ports.PointSource) string {
	if r.cache == nil {
		return ""
	}
	fp, err := src.Fingerprint(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("fingerprint failed, skipping result cache")
		return ""
	}
	return method + ":" + r.policy.String() + ":" + fp
}
