package main

import (
	"context"
	"flag"
	"fmt"
	"haversine-udf/internal/adapters/points"
	"haversine-udf/internal/config"
	"haversine-udf/internal/platform/logging"
	"os"
)

// convert rewrites a JSON points file as ZSTD-compressed Parquet.
func main() {
	in := flag.String("in", config.Get("POINTS_JSON", "data/points.json"), "input JSON file with a pairs array")
	out := flag.String("out", config.Get("POINTS_PARQUET", "data/points.parquet"), "output Parquet file")
	limit := flag.Int("limit", 0, "keep only the first N pairs (0 = all)")
	flag.Parse()

	logger := logging.New(logging.Config{
		Level:  config.Get("LOG_LEVEL", "info"),
		Format: config.Get("LOG_FORMAT", "console"),
		Output: os.Stderr,
	})

	n, err := points.ConvertToParquet(context.Background(), *in, *out, *limit)
	if err != nil {
		logger.Error().Err(err).Str("in", *in).Msg("convert failed")
		os.Exit(1)
	}

	logger.Info().Str("in", *in).Str("out", *out).Int("rows", n).Msg("converted")
	fmt.Println(*out)
}
