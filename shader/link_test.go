package shader

import (
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/naga"
)

func TestLinkBuiltinPrograms(t *testing.T) {
	tests := []struct {
		name    string
		program *Program
		want    []string
	}{
		{"quad", Quad(), []string{AttribVertexPosition, UniformProjectionMatrix, UniformModelViewMatrix}},
		{"quad_color", ColoredQuad(), []string{AttribVertexPosition, AttribVertexColor, UniformProjectionMatrix, UniformModelViewMatrix}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			linked, err := Link(tt.program)
			if err != nil {
				t.Fatalf("Link() error = %v", err)
			}
			for _, name := range tt.want {
				if _, ok := linked.Location(name); !ok {
					t.Errorf("Location(%q) not resolved", name)
				}
			}
			if len(linked.Vertex.SPIRV) == 0 || len(linked.Fragment.SPIRV) == 0 {
				t.Error("expected non-empty SPIR-V for both stages")
			}
		})
	}
}

func TestLinkedLocations(t *testing.T) {
	linked, err := Link(ColoredQuad())
	if err != nil {
		t.Fatalf("Link() error = %v", err)
	}

	tests := []struct {
		name   string
		kind   Kind
		index  uint32
		offset uint64
		comps  int
	}{
		{AttribVertexPosition, KindAttribute, 0, 0, 3},
		{AttribVertexColor, KindAttribute, 1, 0, 4},
		{UniformProjectionMatrix, KindUniform, 0, 0, 16},
		{UniformModelViewMatrix, KindUniform, 0, 64, 16},
	}
	for _, tt := range tests {
		loc, ok := linked.Location(tt.name)
		if !ok {
			t.Fatalf("Location(%q) not resolved", tt.name)
		}
		if loc.Kind != tt.kind || loc.Index != tt.index || loc.Offset != tt.offset {
			t.Errorf("Location(%q) = %+v, want kind=%v index=%d offset=%d", tt.name, loc, tt.kind, tt.index, tt.offset)
		}
		if got := loc.Components(); got != tt.comps {
			t.Errorf("Location(%q).Components() = %d, want %d", tt.name, got, tt.comps)
		}
	}

	attrs := linked.Attributes()
	if len(attrs) != 2 || attrs[0].Name != AttribVertexPosition || attrs[1].Name != AttribVertexColor {
		t.Errorf("Attributes() = %+v, want position then color", attrs)
	}

	blocks := linked.UniformBlocks()
	if len(blocks) != 1 {
		t.Fatalf("UniformBlocks() len = %d, want 1", len(blocks))
	}
	if blocks[0].Size != 128 {
		t.Errorf("uniform block size = %d, want 128", blocks[0].Size)
	}
}

func TestLinkMalformedVertexSource(t *testing.T) {
	const bad = "@vertex fn vs_main( -> { return 1 }"

	_, nagaErr := naga.Parse(bad)
	if nagaErr == nil {
		t.Fatal("expected naga to reject malformed source")
	}

	p := Quad()
	p.Vertex.Code = bad
	_, err := Link(p)
	if err == nil {
		t.Fatal("Link() succeeded for malformed source")
	}

	var ce *CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("Link() error = %T, want *CompileError", err)
	}
	if ce.Stage != StageVertex {
		t.Errorf("Stage = %v, want vertex", ce.Stage)
	}
	if ce.Program != ProgramQuad {
		t.Errorf("Program = %q, want %q", ce.Program, ProgramQuad)
	}
	if !strings.Contains(err.Error(), nagaErr.Error()) {
		t.Errorf("error %q does not carry the compiler diagnostic %q", err, nagaErr)
	}
}

func TestLinkMalformedFragmentSource(t *testing.T) {
	p := Quad()
	p.Fragment.Code = "@fragment fn fs_main() -> @location(0) vec4<f32> { return tint; }"
	_, err := Link(p)

	var ce *CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("Link() error = %v, want *CompileError", err)
	}
	if ce.Stage != StageFragment {
		t.Errorf("Stage = %v, want fragment", ce.Stage)
	}
	if !strings.Contains(ce.Log, "tint") {
		t.Errorf("Log = %q, want the unresolved identifier", ce.Log)
	}
}

func TestLinkBindingBeforeGroup(t *testing.T) {
	p := Quad()
	p.Vertex.Code = strings.Replace(p.Vertex.Code,
		"@group(0) @binding(0) var<uniform>",
		"@binding(0) @group(0) var<uniform>", 1)
	if !strings.Contains(p.Vertex.Code, "@binding(0) @group(0)") {
		t.Fatal("vertex source no longer declares its uniform block as expected")
	}
	linked, err := Link(p)
	if err != nil {
		t.Fatalf("Link() error = %v", err)
	}
	for _, name := range p.Uniforms {
		if _, ok := linked.Location(name); !ok {
			t.Errorf("Location(%q) not resolved", name)
		}
	}
}

func TestLinkVaryingMismatch(t *testing.T) {
	p := Quad()
	p.Fragment.Code = `
@fragment
fn fs_main(@location(1) tint: vec4<f32>) -> @location(0) vec4<f32> {
    return tint;
}
`
	_, err := Link(p)

	var le *LinkError
	if !errors.As(err, &le) {
		t.Fatalf("Link() error = %v, want *LinkError", err)
	}
	if !strings.Contains(le.Log, "@location(1) tint") {
		t.Errorf("Log = %q, want mention of the unmatched input", le.Log)
	}
	if !strings.Contains(err.Error(), "link failed") {
		t.Errorf("Error() = %q, want link failure message", err)
	}
}

func TestLinkMissingEntryPoint(t *testing.T) {
	p := Quad()
	p.Fragment.EntryPoint = "main"
	_, err := Link(p)

	var le *LinkError
	if !errors.As(err, &le) {
		t.Fatalf("Link() error = %v, want *LinkError", err)
	}
	if !strings.Contains(le.Log, `"main"`) {
		t.Errorf("Log = %q, want missing entry point name", le.Log)
	}
}

func TestLinkNilProgram(t *testing.T) {
	if _, err := Link(nil); err == nil {
		t.Error("Link(nil) should fail")
	}
}

func TestBuiltin(t *testing.T) {
	for _, name := range []string{ProgramQuad, ProgramColoredQuad} {
		p, err := Builtin(name)
		if err != nil {
			t.Fatalf("Builtin(%q) error = %v", name, err)
		}
		if p.Name != name {
			t.Errorf("Builtin(%q).Name = %q", name, p.Name)
		}
	}
	if _, err := Builtin("cube"); err == nil {
		t.Error("Builtin(cube) should fail")
	}
	if !ColoredQuad().HasAttribute(AttribVertexColor) {
		t.Error("colored program must require the color attribute")
	}
	if Quad().HasAttribute(AttribVertexColor) {
		t.Error("plain program must not require the color attribute")
	}
}
