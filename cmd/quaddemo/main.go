// Command quaddemo renders the spinning-quad scene.
//
// Without -frames it opens a window and animates the scene until the
// window is closed. With -frames N it renders N frames on a fixed time
// step and writes them as PNG files.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/gogpu/quad"
	"github.com/gogpu/quad/backend"
	_ "github.com/gogpu/quad/backend/wgpu"
	"github.com/gogpu/quad/internal/config"
	"github.com/gogpu/quad/internal/present"
)

type options struct {
	config  string
	backend string
	program string
	width   int
	height  int
	fps     int
	frames  int
	out     string
	step    time.Duration
	verbose bool
}

func main() {
	var opts options
	flag.StringVar(&opts.config, "config", "", "scene file (.yaml, .yml or .toml)")
	flag.StringVar(&opts.backend, "backend", "", "graphics backend: auto, wgpu or software")
	flag.StringVar(&opts.program, "program", "", "shader program: quad or quad_color")
	flag.IntVar(&opts.width, "width", 0, "surface width")
	flag.IntVar(&opts.height, "height", 0, "surface height")
	flag.IntVar(&opts.fps, "fps", 0, "window frame rate")
	flag.IntVar(&opts.frames, "frames", 0, "render this many frames to -out instead of opening a window")
	flag.StringVar(&opts.out, "out", "frames", "output directory for -frames")
	flag.DurationVar(&opts.step, "step", 16*time.Millisecond, "scene time between exported frames")
	flag.BoolVar(&opts.verbose, "v", false, "debug logging")
	flag.Parse()

	if err := run(opts); err != nil {
		log.Fatalf("quaddemo: %v", err)
	}
}

func run(opts options) error {
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	quad.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	scene, err := loadScene(opts)
	if err != nil {
		return err
	}

	s, err := newSurface(scene)
	if err != nil {
		return err
	}
	defer s.Close()

	positions, colors := scene.Geometry()
	for i := range positions {
		if err := s.AddGeometry(positions[i], colors[i]); err != nil {
			return fmt.Errorf("quad %d: %w", i, err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if opts.frames > 0 {
		return export(ctx, s, scene, opts)
	}
	return window(ctx, s, scene)
}

// loadScene reads the scene file, if any, and applies flag overrides.
func loadScene(opts options) (config.Scene, error) {
	scene := config.Default()
	if opts.config != "" {
		var err error
		if scene, err = config.Load(opts.config); err != nil {
			return scene, err
		}
	}
	if opts.backend != "" {
		scene.Backend = opts.backend
	}
	if opts.program != "" {
		scene.Program = opts.program
	}
	if opts.width > 0 {
		scene.Width = opts.width
	}
	if opts.height > 0 {
		scene.Height = opts.height
	}
	if opts.fps > 0 {
		scene.FPS = opts.fps
	}
	return scene, scene.Validate()
}

// newSurface creates the surface on the configured backend. When the
// backend was picked automatically and fails to start, the software
// backend is used instead.
func newSurface(scene config.Scene) (*quad.Surface, error) {
	program, err := scene.ShaderProgram()
	if err != nil {
		return nil, err
	}
	gc, err := backend.Select(scene.Backend)
	if err != nil {
		return nil, err
	}
	s, err := quad.NewSurface(gc, scene.Width, scene.Height, quad.WithProgram(program))
	if err == nil {
		return s, nil
	}
	auto := scene.Backend == "" || scene.Backend == backend.BackendAuto
	if !auto || gc.Name() == backend.BackendSoftware {
		return nil, err
	}
	quad.Logger().Warn("quaddemo: falling back to the software backend",
		"backend", gc.Name(), "error", err)
	return quad.NewSurface(backend.NewSoftware(backend.WithWorkers(0)),
		scene.Width, scene.Height, quad.WithProgram(program))
}

func driverOptions(scene config.Scene, hook func(quad.Frame)) []quad.DriverOption {
	cam := scene.Projection()
	return []quad.DriverOption{
		quad.WithClearColor(scene.ClearColor()),
		quad.WithCamera(cam),
		quad.WithFrameHook(hook),
	}
}

// export renders opts.frames frames and writes them to opts.out.
func export(ctx context.Context, s *quad.Surface, scene config.Scene, opts options) error {
	if err := os.MkdirAll(opts.out, 0o755); err != nil {
		return err
	}
	bar := progressbar.Default(int64(opts.frames), "rendering")

	var saveErr error
	hook := func(f quad.Frame) {
		if saveErr != nil {
			return
		}
		path := filepath.Join(opts.out, fmt.Sprintf("frame_%04d.png", f.Index))
		if err := f.Target.SavePNG(path); err != nil {
			saveErr = fmt.Errorf("frame %d: %w", f.Index, err)
			return
		}
		_ = bar.Add(1)
	}

	d, err := quad.NewDriver(s, quad.NewStepClock(opts.step, opts.frames), driverOptions(scene, hook)...)
	if err != nil {
		return err
	}
	if err := d.Run(ctx); err != nil {
		return err
	}
	_ = bar.Finish()
	if saveErr != nil {
		return saveErr
	}
	if d.Frames() < uint64(opts.frames) {
		return fmt.Errorf("rendered %d of %d frames", d.Frames(), opts.frames)
	}
	quad.Logger().Info("quaddemo: frames written", "dir", opts.out, "frames", d.Frames())
	return nil
}

// window animates the scene until the window closes or ctx is canceled.
func window(ctx context.Context, s *quad.Surface, scene config.Scene) error {
	win := present.New("quad", scene.Width, scene.Height, scene.FPS)
	d, err := quad.NewDriver(s, win, driverOptions(scene, win.Present)...)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan error, 1)
	go func() {
		err := d.Run(ctx)
		win.Close()
		done <- err
	}()

	winErr := win.Run()
	cancel()
	runErr := <-done
	if errors.Is(runErr, context.Canceled) {
		runErr = nil
	}
	return errors.Join(winErr, runErr)
}
