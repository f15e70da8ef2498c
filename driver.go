package quad

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"
)

// DriverState is the lifecycle state of a Driver.
type DriverState int32

const (
	// DriverIdle means Run is not executing.
	DriverIdle DriverState = iota

	// DriverRunning means Run is rendering frames.
	DriverRunning
)

// String returns the state name.
func (s DriverState) String() string {
	switch s {
	case DriverIdle:
		return "idle"
	case DriverRunning:
		return "running"
	default:
		return "unknown"
	}
}

// Frame describes one completed frame.
type Frame struct {
	Index     uint64
	Time      time.Duration
	ModelView Mat4
	Target    *Pixmap
}

// Driver redraws a Surface once per clock tick with a time-driven rotation.
//
// Lifecycle: NewDriver, then Run until the context is cancelled or the clock
// stops, then Surface.Close. A Driver may be run again after Run returns.
type Driver struct {
	surface *Surface
	clock   Clock
	opts    driverOptions

	state  atomic.Int32
	frames atomic.Uint64
}

// NewDriver creates a driver for s paced by clock.
func NewDriver(s *Surface, clock Clock, opts ...DriverOption) (*Driver, error) {
	if s == nil {
		return nil, errors.New("quad: nil surface")
	}
	if clock == nil {
		return nil, errors.New("quad: nil clock")
	}
	o := defaultDriverOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Driver{surface: s, clock: clock, opts: o}, nil
}

// State returns the current lifecycle state.
func (d *Driver) State() DriverState {
	return DriverState(d.state.Load())
}

// Frames returns the number of frames rendered so far.
func (d *Driver) Frames() uint64 {
	return d.frames.Load()
}

// Run performs surface setup if needed, then renders one frame per clock
// tick. Frame failures are logged and do not stop the loop.
//
// Run returns nil when the clock stops, ctx.Err() when ctx is done, and
// ErrDriverRunning if the driver is already running.
func (d *Driver) Run(ctx context.Context) error {
	if !d.state.CompareAndSwap(int32(DriverIdle), int32(DriverRunning)) {
		return ErrDriverRunning
	}
	defer d.state.Store(int32(DriverIdle))

	if err := d.ensureSetup(); err != nil {
		return err
	}

	log := Logger()
	log.Info("quad: driver started", "backend", d.surface.gc.Name(), "entries", len(d.surface.geometry))
	defer func() {
		log.Info("quad: driver stopped", "frames", d.Frames())
	}()

	for {
		if err := d.clock.WaitFrame(ctx); err != nil {
			if errors.Is(err, ErrClockStopped) {
				return nil
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := d.Step(d.clock.Now()); err != nil {
			log.Warn("quad: frame failed", "frame", d.Frames()-1, "err", err)
		}
	}
}

// Step renders a single frame at time now and returns it.
// The frame hook runs only when the frame flushed without error.
func (d *Driver) Step(now time.Duration) (Frame, error) {
	if err := d.ensureSetup(); err != nil {
		return Frame{}, err
	}

	mv := ModelView(float64(now) / float64(time.Millisecond))
	err := d.surface.renderFrame(d.opts.clear, mv)
	frame := Frame{
		Index:     d.frames.Add(1) - 1,
		Time:      now,
		ModelView: mv,
		Target:    d.surface.gc.Target(),
	}
	if err != nil {
		return frame, err
	}

	Logger().Debug("quad: frame", "index", frame.Index, "t", now)
	if d.opts.hook != nil {
		d.opts.hook(frame)
	}
	return frame, nil
}

func (d *Driver) ensureSetup() error {
	if d.surface.IsSetup() {
		return nil
	}
	cam := DefaultCamera(d.surface.AspectRatio())
	if d.opts.camera != nil {
		cam = *d.opts.camera
	}
	if err := d.surface.Setup(cam); err != nil {
		return fmt.Errorf("quad: setup: %w", err)
	}
	return nil
}
