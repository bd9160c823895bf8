// Package scheduler implements the AQA publisher's daemon-mode daily
// trigger: sleep until the next fixed UTC hour, run the pipeline, and
// repeat indefinitely.
package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// DurationUntilNextExecution returns how long to sleep from now until
// the next occurrence of targetHour:00 UTC, rolling over to tomorrow
// if that time has already passed today.
func DurationUntilNextExecution(now time.Time, targetHour int) time.Duration {
	utcNow := now.UTC()
	nextRun := time.Date(utcNow.Year(), utcNow.Month(), utcNow.Day(), targetHour, 0, 0, 0, time.UTC)
	if !nextRun.After(utcNow) {
		nextRun = nextRun.AddDate(0, 0, 1)
	}
	return nextRun.Sub(utcNow)
}

// RunDaily sleeps until the next targetHour:00 UTC and invokes fn,
// looping forever until ctx is canceled. A non-fatal fn error is
// logged; the scheduler continues to the next scheduled run.
func RunDaily(ctx context.Context, targetHour int, fn func(context.Context) error) {
	for {
		wait := DurationUntilNextExecution(time.Now(), targetHour)
		log.Info().Dur("wait", wait).Msg("scheduler: sleeping until next scheduled run")

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}

		if err := fn(ctx); err != nil {
			log.Error().Err(err).Msg("scheduler: scheduled run failed, continuing to next run")
		}
	}
}
