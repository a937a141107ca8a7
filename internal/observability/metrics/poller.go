package metrics

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

type pollerFunc = func(ctx context.Context) error

// RecordPollerDuration wraps a poller tick so every run is timed under the
// poller's label and failed runs are logged with the elapsed time.
func RecordPollerDuration(poller string, tick pollerFunc) pollerFunc {
	return func(ctx context.Context) error {
		start := time.Now()
		err := tick(ctx)
		elapsed := time.Since(start)

		status := Success
		if err != nil {
			status = Error
			log.Ctx(ctx).Error().Err(err).
				Str("poller", poller).
				Dur("elapsed", elapsed).
				Msg("poller run failed")
		}
		pollerDurationHistogram.WithLabelValues(poller, status.String()).Observe(elapsed.Seconds())
		return err
	}
}
