// Package scheduler drives the poll loop at a fixed nominal cadence.
package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"codeberg.org/mutker/purpleair-exporter/internal/logger"
)

// Ticker runs a callback once per interval, subtracting the time the
// callback consumed from the next sleep. An iteration that overruns the
// interval clamps the sleep to zero; ticks are never skipped to catch
// up, so long-run drift is bounded by the single largest overrun.
type Ticker struct {
	interval time.Duration
	running  atomic.Bool

	// injectable for tests
	now   func() time.Time
	sleep func(time.Duration)
}

func NewTicker(interval time.Duration) *Ticker {
	t := &Ticker{
		interval: interval,
		now:      time.Now,
		sleep:    time.Sleep,
	}
	t.running.Store(true)

	return t
}

// Run blocks until Stop is called or ctx is canceled. The running flag
// is checked at the top of each iteration only; in-flight work is never
// interrupted.
func (t *Ticker) Run(ctx context.Context, fn func()) {
	logger.Debug().Dur("interval", t.interval).Msg("Ticker running")

	for t.running.Load() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		start := t.now()
		fn()
		elapsed := t.now().Sub(start)

		sleepTime := t.interval - elapsed
		if sleepTime < 0 {
			logger.Warn().
				Dur("elapsed", elapsed).
				Dur("interval", t.interval).
				Msg("Tick took longer than the interval")
			sleepTime = 0
		}

		logger.Debug().Dur("sleep", sleepTime).Msg("Sleeping until next tick")
		t.sleep(sleepTime)
	}
}

// Stop ends the loop at the next iteration boundary. Safe to call from
// within a tick.
func (t *Ticker) Stop() {
	t.running.Store(false)
}
