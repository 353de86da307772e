package obs

import (
	"context"
	"haversine-udf/internal/platform/metrics"
	"time"

	"github.com/rs/zerolog"
)

type ctxKey string

const RequestIDKey ctxKey = "req_id"

// Return the request ID stored by the HTTP middleware, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// Time starts timing op and returns a func to defer with a pointer to the
// caller's named error. It logs through the context logger and records the
// duration histogram.
func Time(ctx context.Context, op string) func(errp *error) {
	start := time.Now()

	return func(errp *error) {
		dur := time.Since(start)

		var err error
		if errp != nil {
			err = *errp
		}
		metrics.RecordOperation(op, err, dur)

		logger := zerolog.Ctx(ctx)
		ev := logger.Debug()
		if err != nil {
			ev = logger.Warn().Err(err)
		}
		if id := RequestID(ctx); id != "" {
			ev = ev.Str("req_id", id)
		}
		ev.Str("op", op).Int64("dur_ms", dur.Milliseconds()).Msg("timed operation")
	}
}
