package shader

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// LinkError reports a vertex/fragment pair that compiled but could not be
// combined into a program. Log holds one line per problem.
type LinkError struct {
	Program string
	Log     string
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("shader program link failed (%s): %s", e.Program, e.Log)
}

// Linked is a compiled and linked program with its resolved locations.
type Linked struct {
	Program  *Program
	Vertex   *Module
	Fragment *Module

	locations map[string]Location
	blocks    []UniformBlock
}

// Location returns the location bound to name.
func (l *Linked) Location(name string) (Location, bool) {
	loc, ok := l.locations[name]
	return loc, ok
}

// Locations returns every resolved location sorted by kind, then index and offset.
func (l *Linked) Locations() []Location {
	locs := make([]Location, 0, len(l.locations))
	for _, loc := range l.locations {
		locs = append(locs, loc)
	}
	sort.Slice(locs, func(i, j int) bool {
		a, b := locs[i], locs[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.Index != b.Index {
			return a.Index < b.Index
		}
		return a.Offset < b.Offset
	})
	return locs
}

// Attributes returns the vertex attributes ordered by @location.
func (l *Linked) Attributes() []Location {
	var attrs []Location
	for _, loc := range l.Locations() {
		if loc.Kind == KindAttribute {
			attrs = append(attrs, loc)
		}
	}
	return attrs
}

// UniformBlocks returns the uniform blocks used by either stage.
func (l *Linked) UniformBlocks() []UniformBlock {
	return l.blocks
}

// Link compiles both stages of p and links them.
//
// Compile failures are returned as *CompileError with Program set.
// Link failures (missing entry points, fragment inputs without a matching
// vertex output, conflicting uniform declarations) are *LinkError.
func Link(p *Program) (*Linked, error) {
	if p == nil {
		return nil, errors.New("shader: nil program")
	}

	vs, err := compileFor(p, p.Vertex)
	if err != nil {
		return nil, err
	}
	fs, err := compileFor(p, p.Fragment)
	if err != nil {
		return nil, err
	}

	var problems []string
	if p.Vertex.Stage != StageVertex || !vs.reflection.hasEntryPoint(StageVertex, p.Vertex.EntryPoint) {
		problems = append(problems, fmt.Sprintf("missing @vertex entry point %q", p.Vertex.EntryPoint))
	}
	if p.Fragment.Stage != StageFragment || !fs.reflection.hasEntryPoint(StageFragment, p.Fragment.EntryPoint) {
		problems = append(problems, fmt.Sprintf("missing @fragment entry point %q", p.Fragment.EntryPoint))
	}
	problems = append(problems, matchVaryings(vs.Outputs, fs.Inputs)...)

	locations := make(map[string]Location)
	for _, in := range vs.Inputs {
		locations[in.Name] = Location{
			Name:       in.Name,
			Kind:       KindAttribute,
			Index:      in.Location,
			Type:       in.Type,
			components: in.components,
			size:       in.size,
		}
	}
	for _, mod := range []*Module{vs, fs} {
		for _, u := range mod.Uniforms {
			if prev, ok := locations[u.Name]; ok && prev != u {
				problems = append(problems, fmt.Sprintf("uniform %q declared differently in vertex and fragment stages", u.Name))
				continue
			}
			locations[u.Name] = u
		}
	}

	if len(problems) > 0 {
		return nil, &LinkError{Program: p.Name, Log: strings.Join(problems, "; ")}
	}

	return &Linked{
		Program:   p,
		Vertex:    vs,
		Fragment:  fs,
		locations: locations,
		blocks:    mergeBlocks(vs.Blocks, fs.Blocks),
	}, nil
}

func compileFor(p *Program, src Source) (*Module, error) {
	m, err := Compile(src)
	if err != nil {
		var ce *CompileError
		if errors.As(err, &ce) {
			ce.Program = p.Name
		}
		return nil, err
	}
	return m, nil
}

// matchVaryings checks that every fragment input has a vertex output at
// the same location with the same type.
func matchVaryings(outputs, inputs []Variable) []string {
	byLoc := make(map[uint32]Variable, len(outputs))
	for _, o := range outputs {
		byLoc[o.Location] = o
	}
	var problems []string
	for _, in := range inputs {
		out, ok := byLoc[in.Location]
		switch {
		case !ok:
			problems = append(problems, fmt.Sprintf("fragment input @location(%d) %s has no matching vertex output", in.Location, in.Name))
		case out.Type != in.Type:
			problems = append(problems, fmt.Sprintf("fragment input @location(%d) %s is %s, vertex output is %s", in.Location, in.Name, in.Type, out.Type))
		}
	}
	return problems
}

func mergeBlocks(a, b []UniformBlock) []UniformBlock {
	blocks := append([]UniformBlock(nil), a...)
	for _, blk := range b {
		dup := false
		for _, have := range blocks {
			if have.Group == blk.Group && have.Binding == blk.Binding {
				dup = true
				break
			}
		}
		if !dup {
			blocks = append(blocks, blk)
		}
	}
	return blocks
}
