// Package present shows rendered frames in a desktop window.
//
// A Window is both the display and the frame clock of a quad.Driver: the
// driver renders one frame per window tick and hands the result to
// Present through its frame hook.
package present

import (
	"context"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/gogpu/quad"
)

// Window is an ebiten game that displays the most recent quad frame.
type Window struct {
	width  int
	height int
	title  string
	fps    int
	start  time.Time

	tick chan struct{}
	done chan struct{}
	once sync.Once

	mu    sync.Mutex
	frame *quad.Pixmap
	dirty bool
	img   *ebiten.Image
}

// New creates a window of the given size that ticks fps times per second.
func New(title string, width, height, fps int) *Window {
	if fps <= 0 {
		fps = quad.DefaultFPS
	}
	return &Window{
		width:  width,
		height: height,
		title:  title,
		fps:    fps,
		start:  time.Now(),
		tick:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		frame:  quad.NewPixmap(width, height),
	}
}

// Run opens the window and blocks until it is closed. It must be called
// from the main goroutine.
func (w *Window) Run() error {
	ebiten.SetWindowTitle(w.title)
	ebiten.SetWindowSize(w.width, w.height)
	ebiten.SetTPS(w.fps)
	defer w.Close()
	return ebiten.RunGame(w)
}

// Close stops the clock and ends the game loop on its next update.
func (w *Window) Close() {
	w.once.Do(func() { close(w.done) })
}

// Now returns the time since the window was created.
func (w *Window) Now() time.Duration {
	return time.Since(w.start)
}

// WaitFrame blocks until the next window tick.
func (w *Window) WaitFrame(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-w.done:
		return quad.ErrClockStopped
	default:
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-w.done:
		return quad.ErrClockStopped
	case <-w.tick:
		return nil
	}
}

// Present copies the frame's pixels for the next Draw. It is meant to be
// installed with quad.WithFrameHook. Frames of another size are ignored.
func (w *Window) Present(f quad.Frame) {
	if f.Target == nil || f.Target.Width() != w.width || f.Target.Height() != w.height {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.frame.CopyFrom(f.Target)
	w.dirty = true
}

// Update signals a frame tick. It ends the game once the window is closed.
func (w *Window) Update() error {
	select {
	case <-w.done:
		return ebiten.Termination
	default:
	}
	select {
	case w.tick <- struct{}{}:
	default:
		// The driver is still busy with the previous tick.
	}
	return nil
}

// Draw shows the latest presented frame.
func (w *Window) Draw(screen *ebiten.Image) {
	if w.img == nil {
		w.img = ebiten.NewImage(w.width, w.height)
	}
	w.mu.Lock()
	if w.dirty {
		w.img.WritePixels(w.frame.Data())
		w.dirty = false
	}
	w.mu.Unlock()
	screen.DrawImage(w.img, nil)
}

// Layout keeps the logical screen at the surface size.
func (w *Window) Layout(_, _ int) (int, int) {
	return w.width, w.height
}

var (
	_ quad.Clock  = (*Window)(nil)
	_ ebiten.Game = (*Window)(nil)
)
