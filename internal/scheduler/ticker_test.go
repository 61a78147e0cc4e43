package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances only when the ticker sleeps or a tick reports work.
type fakeClock struct {
	current time.Time
	sleeps  []time.Duration
}

func (c *fakeClock) now() time.Time {
	return c.current
}

func (c *fakeClock) sleep(d time.Duration) {
	c.sleeps = append(c.sleeps, d)
	c.current = c.current.Add(d)
}

func newFakeTicker(interval time.Duration) (*Ticker, *fakeClock) {
	clock := &fakeClock{current: time.Unix(0, 0)}
	t := NewTicker(interval)
	t.now = clock.now
	t.sleep = clock.sleep

	return t, clock
}

func TestTickerCompensatesForWork(t *testing.T) {
	ticker, clock := newFakeTicker(100 * time.Millisecond)

	ticks := 0
	ticker.Run(context.Background(), func() {
		clock.current = clock.current.Add(30 * time.Millisecond)
		ticks++
		if ticks == 3 {
			ticker.Stop()
		}
	})

	require.Equal(t, 3, ticks)
	assert.Equal(t, []time.Duration{
		70 * time.Millisecond,
		70 * time.Millisecond,
		70 * time.Millisecond,
	}, clock.sleeps)
}

func TestTickerOverrunClampsToZero(t *testing.T) {
	ticker, clock := newFakeTicker(100 * time.Millisecond)

	work := []time.Duration{150 * time.Millisecond, 30 * time.Millisecond, 30 * time.Millisecond}
	ticks := 0
	ticker.Run(context.Background(), func() {
		clock.current = clock.current.Add(work[ticks])
		ticks++
		if ticks == len(work) {
			ticker.Stop()
		}
	})

	// The overrun sleeps zero, the following ticks return to cadence.
	require.Equal(t, []time.Duration{
		0,
		70 * time.Millisecond,
		70 * time.Millisecond,
	}, clock.sleeps)

	// Cumulative drift equals the single overrun, not N times it.
	elapsed := clock.current.Sub(time.Unix(0, 0))
	assert.Equal(t, 350*time.Millisecond, elapsed)
}

func TestTickerStopFromWithinTick(t *testing.T) {
	ticker, _ := newFakeTicker(10 * time.Millisecond)

	ticks := 0
	ticker.Run(context.Background(), func() {
		ticks++
		ticker.Stop()
	})

	assert.Equal(t, 1, ticks)
}

func TestTickerHonorsContext(t *testing.T) {
	ticker, _ := newFakeTicker(10 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ticks := 0
	ticker.Run(ctx, func() { ticks++ })

	assert.Zero(t, ticks)
}
