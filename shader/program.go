package shader

import (
	_ "embed"
	"fmt"
)

//go:embed wgsl/quad.vert.wgsl
var quadVertexWGSL string

//go:embed wgsl/quad.frag.wgsl
var quadFragmentWGSL string

//go:embed wgsl/quad_color.vert.wgsl
var coloredQuadVertexWGSL string

//go:embed wgsl/quad_color.frag.wgsl
var coloredQuadFragmentWGSL string

// Names of the attributes and uniforms declared by the built-in programs.
const (
	AttribVertexPosition    = "vertex_position"
	AttribVertexColor       = "vertex_color"
	UniformProjectionMatrix = "projection_matrix"
	UniformModelViewMatrix  = "model_view_matrix"
)

// Built-in program names.
const (
	ProgramQuad        = "quad"
	ProgramColoredQuad = "quad_color"
)

// Stage identifies a programmable pipeline stage.
type Stage uint8

const (
	// StageVertex is the vertex stage.
	StageVertex Stage = iota + 1

	// StageFragment is the fragment stage.
	StageFragment
)

// String returns the WGSL attribute name of the stage.
func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	default:
		return fmt.Sprintf("Stage(%d)", uint8(s))
	}
}

// Source is the WGSL code of a single stage.
type Source struct {
	Stage      Stage
	EntryPoint string
	Code       string
}

// Program is a vertex/fragment source pair plus the names a caller
// expects to resolve after linking.
type Program struct {
	Name     string
	Vertex   Source
	Fragment Source

	// Attributes and Uniforms list the names that must resolve to a
	// location once the program is linked.
	Attributes []string
	Uniforms   []string
}

// HasAttribute reports whether name is one of the program's required attributes.
func (p *Program) HasAttribute(name string) bool {
	for _, a := range p.Attributes {
		if a == name {
			return true
		}
	}
	return false
}

// Quad returns the position-only program. Fragments are a flat
// pale yellow (1.0, 1.0, 0.8, 1.0).
func Quad() *Program {
	return &Program{
		Name:       ProgramQuad,
		Vertex:     Source{Stage: StageVertex, EntryPoint: "vs_main", Code: quadVertexWGSL},
		Fragment:   Source{Stage: StageFragment, EntryPoint: "fs_main", Code: quadFragmentWGSL},
		Attributes: []string{AttribVertexPosition},
		Uniforms:   []string{UniformProjectionMatrix, UniformModelViewMatrix},
	}
}

// ColoredQuad returns the position+color program. Per-vertex colors are
// interpolated across each primitive.
func ColoredQuad() *Program {
	return &Program{
		Name:       ProgramColoredQuad,
		Vertex:     Source{Stage: StageVertex, EntryPoint: "vs_main", Code: coloredQuadVertexWGSL},
		Fragment:   Source{Stage: StageFragment, EntryPoint: "fs_main", Code: coloredQuadFragmentWGSL},
		Attributes: []string{AttribVertexPosition, AttribVertexColor},
		Uniforms:   []string{UniformProjectionMatrix, UniformModelViewMatrix},
	}
}

// Builtin returns the built-in program with the given name.
func Builtin(name string) (*Program, error) {
	switch name {
	case ProgramQuad:
		return Quad(), nil
	case ProgramColoredQuad:
		return ColoredQuad(), nil
	default:
		return nil, fmt.Errorf("shader: unknown program %q", name)
	}
}
