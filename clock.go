package quad

import (
	"context"
	"sync"
	"time"
)

// Clock paces the Driver. Now reports the time of the current frame since
// the clock started; WaitFrame blocks until the next frame is due.
//
// WaitFrame returns ErrClockStopped when no further frames will be
// delivered, or ctx.Err() when ctx is done first.
type Clock interface {
	Now() time.Duration
	WaitFrame(ctx context.Context) error
}

// DefaultFPS is the frame rate used by NewSystemClock for non-positive rates.
const DefaultFPS = 60

// SystemClock is a wall clock that delivers frames at a fixed rate.
type SystemClock struct {
	start  time.Time
	ticker *time.Ticker

	mu      sync.Mutex
	stopped bool
	done    chan struct{}
}

// NewSystemClock returns a clock ticking fps times per second.
// Call Stop to release the underlying ticker.
func NewSystemClock(fps int) *SystemClock {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &SystemClock{
		start:  time.Now(),
		ticker: time.NewTicker(time.Second / time.Duration(fps)),
		done:   make(chan struct{}),
	}
}

// Now returns the time elapsed since the clock was created.
func (c *SystemClock) Now() time.Duration {
	return time.Since(c.start)
}

// WaitFrame blocks until the next tick.
func (c *SystemClock) WaitFrame(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-c.done:
		return ErrClockStopped
	default:
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrClockStopped
	case <-c.ticker.C:
		return nil
	}
}

// Stop stops the clock. Pending and future WaitFrame calls return
// ErrClockStopped. Stop is idempotent.
func (c *SystemClock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.stopped = true
	c.ticker.Stop()
	close(c.done)
}

// StepClock is a deterministic clock that advances by a fixed step per
// frame without waiting. It is used for frame export and tests.
type StepClock struct {
	step      time.Duration
	limit     int
	now       time.Duration
	delivered int
}

// NewStepClock returns a clock whose frames are at 0, step, 2*step, ...
// When limit > 0 the clock stops after delivering limit frames.
func NewStepClock(step time.Duration, limit int) *StepClock {
	return &StepClock{step: step, limit: limit}
}

// Now returns the time of the current frame.
func (c *StepClock) Now() time.Duration {
	return c.now
}

// WaitFrame advances to the next frame.
func (c *StepClock) WaitFrame(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.limit > 0 && c.delivered >= c.limit {
		return ErrClockStopped
	}
	if c.delivered > 0 {
		c.now += c.step
	}
	c.delivered++
	return nil
}

// Delivered returns the number of frames delivered so far.
func (c *StepClock) Delivered() int {
	return c.delivered
}
