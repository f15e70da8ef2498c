// Package config loads the scene rendered by the quaddemo command.
//
// A scene file is YAML (.yaml, .yml) or TOML (.toml). Fields left out of
// the file keep the values of Default.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/quad"
	"github.com/gogpu/quad/shader"
)

// maxFileSize bounds the size of a scene file.
const maxFileSize = 1 << 20

// ErrInvalidScene is returned by Validate.
var ErrInvalidScene = errors.New("config: invalid scene")

// Scene describes what the demo renders and how.
type Scene struct {
	Width   int    `yaml:"width" toml:"width"`
	Height  int    `yaml:"height" toml:"height"`
	Backend string `yaml:"backend" toml:"backend"`
	Program string `yaml:"program" toml:"program"`

	// Clear is the background as #rgb, #rgba, #rrggbb or #rrggbbaa.
	Clear string `yaml:"clear" toml:"clear"`

	// FPS is the frame rate of the window clock.
	FPS int `yaml:"fps" toml:"fps"`

	Camera Camera `yaml:"camera" toml:"camera"`
	Quads  []Quad `yaml:"quads" toml:"quads"`
}

// Camera holds the projection parameters. The aspect ratio always comes
// from the surface size.
type Camera struct {
	FOV  float32 `yaml:"fov" toml:"fov"`
	Near float32 `yaml:"near" toml:"near"`
	Far  float32 `yaml:"far" toml:"far"`
}

// Quad is one geometry entry: four xyz positions and, for the colored
// program, four rgba colors.
type Quad struct {
	Positions []float32 `yaml:"positions" toml:"positions"`
	Colors    []float32 `yaml:"colors,omitempty" toml:"colors,omitempty"`
}

// DefaultColors are the per-vertex colors used by the colored program when
// a quad lists none.
var DefaultColors = []float32{
	1, 0, 0, 1,
	0, 1, 0, 1,
	0, 0, 1, 1,
	1, 1, 1, 1,
}

// Default returns the demo scene: two quads sharing their top edge and
// tilted in opposite directions, on a chartreuse background.
func Default() Scene {
	return Scene{
		Width:   640,
		Height:  480,
		Backend: "auto",
		Program: shader.ProgramQuad,
		Clear:   quad.Chartreuse.HexString(),
		FPS:     quad.DefaultFPS,
		Camera: Camera{
			FOV:  quad.DefaultFOV,
			Near: quad.DefaultNear,
			Far:  quad.DefaultFar,
		},
		Quads: []Quad{
			{Positions: []float32{
				-1, 1, 0,
				1, 1, 0,
				-1, -1, -1,
				1, -1, -1,
			}},
			{Positions: []float32{
				-1, 1, 0,
				1, 1, 0,
				-1, -1, 1,
				1, -1, 1,
			}},
		},
	}
}

// Load reads the scene file at path on top of Default and validates it.
func Load(path string) (Scene, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Scene{}, fmt.Errorf("config: %w", err)
	}
	if info.Size() > maxFileSize {
		return Scene{}, fmt.Errorf("config: %s is %d bytes, limit is %d", path, info.Size(), maxFileSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Scene{}, fmt.Errorf("config: %w", err)
	}
	s, err := Parse(data, strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return Scene{}, fmt.Errorf("config: %s: %w", path, err)
	}
	quad.Logger().Debug("config: scene loaded", "path", path, "quads", len(s.Quads))
	return s, nil
}

// Parse decodes data in the given format ("yaml", "yml" or "toml") on top
// of Default and validates the result.
func Parse(data []byte, format string) (Scene, error) {
	s := Default()
	// A file that lists quads replaces the default geometry.
	s.Quads = nil

	var err error
	switch strings.ToLower(format) {
	case "yaml", "yml":
		err = yaml.Unmarshal(data, &s)
	case "toml":
		err = toml.Unmarshal(data, &s)
	default:
		return Scene{}, fmt.Errorf("unsupported scene format %q", format)
	}
	if err != nil {
		return Scene{}, fmt.Errorf("decode %s: %w", format, err)
	}
	if len(s.Quads) == 0 {
		s.Quads = Default().Quads
	}
	if err := s.Validate(); err != nil {
		return Scene{}, err
	}
	return s, nil
}

// Validate checks sizes, names, colors, camera and geometry.
func (s *Scene) Validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("%w: size %dx%d", ErrInvalidScene, s.Width, s.Height)
	}
	if s.FPS <= 0 {
		return fmt.Errorf("%w: fps %d", ErrInvalidScene, s.FPS)
	}
	if _, err := shader.Builtin(s.Program); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidScene, err)
	}
	if _, err := quad.ParseHex(s.Clear); err != nil {
		return fmt.Errorf("%w: clear: %w", ErrInvalidScene, err)
	}
	if err := s.Projection().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidScene, err)
	}
	for i, q := range s.Quads {
		if len(q.Positions) != quad.VerticesPerQuad*quad.PositionComponents {
			return fmt.Errorf("%w: quad %d has %d position values, want %d",
				ErrInvalidScene, i, len(q.Positions), quad.VerticesPerQuad*quad.PositionComponents)
		}
		if len(q.Colors) != 0 && len(q.Colors) != quad.VerticesPerQuad*quad.ColorComponents {
			return fmt.Errorf("%w: quad %d has %d color values, want %d",
				ErrInvalidScene, i, len(q.Colors), quad.VerticesPerQuad*quad.ColorComponents)
		}
	}
	return nil
}

// ClearColor returns the parsed background color.
func (s *Scene) ClearColor() quad.RGBA {
	return quad.Hex(s.Clear)
}

// Projection returns the camera for the scene size.
func (s *Scene) Projection() quad.Camera {
	return quad.Camera{
		FOV:    s.Camera.FOV,
		Aspect: float32(s.Width) / float32(s.Height),
		Near:   s.Camera.Near,
		Far:    s.Camera.Far,
	}
}

// ShaderProgram returns the built-in program named by the scene.
func (s *Scene) ShaderProgram() (*shader.Program, error) {
	return shader.Builtin(s.Program)
}

// Geometry returns the position and color arrays of every quad, in order.
// Colors are nil for the position-only program and default to
// DefaultColors for the colored one.
func (s *Scene) Geometry() (positions, colors [][]float32) {
	colored := s.Program == shader.ProgramColoredQuad
	for _, q := range s.Quads {
		positions = append(positions, q.Positions)
		switch {
		case !colored:
			colors = append(colors, nil)
		case len(q.Colors) == 0:
			colors = append(colors, DefaultColors)
		default:
			colors = append(colors, q.Colors)
		}
	}
	return positions, colors
}
