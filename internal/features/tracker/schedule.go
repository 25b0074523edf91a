package tracker

import (
	"context"
	"time"

	"price-tracker/internal/infra/fs"
	"price-tracker/internal/infra/log"

	"go.uber.org/zap"
)

// NextRun returns the first hour:minute in loc strictly after now.
func NextRun(now time.Time, hour, minute int, loc *time.Location) time.Time {
	now = now.In(loc)
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, loc)
	if !next.After(now) {
		next = time.Date(now.Year(), now.Month(), now.Day()+1, hour, minute, 0, 0, loc)
	}
	return next
}

// Due reports whether today's hour:minute in loc has already passed at now.
func Due(now time.Time, hour, minute int, loc *time.Location) bool {
	now = now.In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, loc)
	return !now.Before(today)
}

// NeedsCatchUp reports whether a run should happen on startup: today's time has
// passed and the run log at stateFile holds no run for today. An unreadable log
// counts as no run and the read error is returned alongside.
func NeedsCatchUp(now time.Time, hour, minute int, loc *time.Location, stateFile string) (bool, error) {
	if stateFile == "" || !Due(now, hour, minute, loc) {
		return false, nil
	}
	ran, err := fs.RanOn(stateFile, now.In(loc).Format("2006-01-02"))
	if err != nil {
		return true, err
	}
	return !ran, nil
}

// Daily calls fn at hour:minute in loc every day until ctx is cancelled.
// The next run is recomputed after each call so DST changes don't shift the time.
func Daily(ctx context.Context, hour, minute int, loc *time.Location, now func() time.Time, fn func(context.Context)) {
	if now == nil {
		now = time.Now
	}

	for {
		next := NextRun(now(), hour, minute, loc)
		delay := next.Sub(now())
		log.LogInfo("Next price run scheduled",
			zap.Time("nextRun", next),
			zap.Duration("delay", delay))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		fn(ctx)
	}
}
