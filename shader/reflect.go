package shader

import (
	"fmt"

	"github.com/gogpu/naga/ir"
)

// Kind tells attributes and uniforms apart.
type Kind uint8

const (
	// KindAttribute is a per-vertex input bound with @location.
	KindAttribute Kind = iota + 1

	// KindUniform is a member of a uniform block bound with @group/@binding.
	KindUniform
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindAttribute:
		return "attribute"
	case KindUniform:
		return "uniform"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Location is where a named attribute or uniform lives once a program is linked.
//
// For attributes, Index is the @location number. For uniforms, Group and
// Index are the @group and @binding of the enclosing block and Offset is
// the member's byte offset inside it.
type Location struct {
	Name   string
	Kind   Kind
	Index  uint32
	Group  uint32
	Offset uint64
	Type   string

	components int
	size       uint64
}

// Components returns the number of scalar components of the location's type.
func (l Location) Components() int { return l.components }

// Size returns the host-shareable byte size of the location's type.
func (l Location) Size() uint64 { return l.size }

// Variable is a stage input or output bound with @location.
type Variable struct {
	Name     string
	Location uint32
	Type     string

	components int
	size       uint64
}

// UniformBlock is a var<uniform> declaration.
type UniformBlock struct {
	Name    string
	Group   uint32
	Binding uint32
	Size    uint64
}

// entryPoint is a stage function declared by a module.
type entryPoint struct {
	stage Stage
	name  string
}

// reflection is what reflectModule extracts from one WGSL module.
type reflection struct {
	entries  []entryPoint
	inputs   []Variable
	outputs  []Variable
	uniforms []Location
	blocks   []UniformBlock
}

// reflectModule reads the entry points of a lowered module, the
// @location inputs and outputs of the entry point for src, and every
// uniform block member.
func reflectModule(mod *ir.Module, src Source) *reflection {
	r := &reflection{}
	for i := range mod.EntryPoints {
		ep := &mod.EntryPoints[i]
		stage := stageOf(ep.Stage)
		r.entries = append(r.entries, entryPoint{stage: stage, name: ep.Name})
		if stage != src.Stage || ep.Name != src.EntryPoint {
			continue
		}
		for _, arg := range ep.Function.Arguments {
			r.inputs = append(r.inputs, locatedVariables(mod, arg.Name, arg.Type, arg.Binding)...)
		}
		if res := ep.Function.Result; res != nil {
			r.outputs = locatedVariables(mod, "", res.Type, res.Binding)
		}
	}

	for _, gv := range mod.GlobalVariables {
		if gv.Space != ir.SpaceUniform || gv.Binding == nil {
			continue
		}
		block, locs := uniformLayout(mod, gv)
		r.blocks = append(r.blocks, block)
		r.uniforms = append(r.uniforms, locs...)
	}
	return r
}

// hasEntryPoint reports whether the module declares name for stage.
func (r *reflection) hasEntryPoint(stage Stage, name string) bool {
	for _, ep := range r.entries {
		if ep.stage == stage && ep.name == name {
			return true
		}
	}
	return false
}

func stageOf(s ir.ShaderStage) Stage {
	switch s {
	case ir.StageVertex:
		return StageVertex
	case ir.StageFragment:
		return StageFragment
	default:
		return 0
	}
}

// locatedVariables expands an argument or result into its @location
// variables. Struct values contribute each located member; builtins
// contribute nothing.
func locatedVariables(mod *ir.Module, name string, typ ir.TypeHandle, binding *ir.Binding) []Variable {
	if binding != nil {
		if lb, ok := (*binding).(ir.LocationBinding); ok {
			return []Variable{newVariable(mod, name, lb.Location, typ)}
		}
		return nil
	}
	st, ok := mod.Types[typ].Inner.(ir.StructType)
	if !ok {
		return nil
	}
	var vars []Variable
	for _, m := range st.Members {
		if m.Binding == nil {
			continue
		}
		if lb, ok := (*m.Binding).(ir.LocationBinding); ok {
			vars = append(vars, newVariable(mod, m.Name, lb.Location, m.Type))
		}
	}
	return vars
}

func newVariable(mod *ir.Module, name string, loc uint32, typ ir.TypeHandle) Variable {
	return Variable{
		Name:       name,
		Location:   loc,
		Type:       typeName(mod, typ),
		components: components(mod, typ),
		size:       uint64(ir.TypeSize(mod, typ)),
	}
}

// uniformLayout lists the members of a uniform block at the offsets naga
// assigned. A block whose type is not a struct exposes a single location
// under the variable name.
func uniformLayout(mod *ir.Module, gv ir.GlobalVariable) (UniformBlock, []Location) {
	group, binding := gv.Binding.Group, gv.Binding.Binding
	block := UniformBlock{
		Name:    gv.Name,
		Group:   group,
		Binding: binding,
		Size:    uint64(ir.TypeSize(mod, gv.Type)),
	}

	st, ok := mod.Types[gv.Type].Inner.(ir.StructType)
	if !ok {
		return block, []Location{{
			Name:       gv.Name,
			Kind:       KindUniform,
			Index:      binding,
			Group:      group,
			Type:       typeName(mod, gv.Type),
			components: components(mod, gv.Type),
			size:       block.Size,
		}}
	}

	locs := make([]Location, 0, len(st.Members))
	for _, m := range st.Members {
		locs = append(locs, Location{
			Name:       m.Name,
			Kind:       KindUniform,
			Index:      binding,
			Group:      group,
			Offset:     uint64(m.Offset),
			Type:       typeName(mod, m.Type),
			components: components(mod, m.Type),
			size:       uint64(ir.TypeSize(mod, m.Type)),
		})
	}
	return block, locs
}

// components counts the scalars of numeric types. Other types have none.
func components(mod *ir.Module, h ir.TypeHandle) int {
	switch t := mod.Types[h].Inner.(type) {
	case ir.ScalarType:
		return 1
	case ir.VectorType:
		return int(t.Size)
	case ir.MatrixType:
		return int(t.Columns) * int(t.Rows)
	default:
		return 0
	}
}

// typeName renders a type the way WGSL spells it.
func typeName(mod *ir.Module, h ir.TypeHandle) string {
	ty := mod.Types[h]
	switch t := ty.Inner.(type) {
	case ir.ScalarType:
		return scalarName(t)
	case ir.VectorType:
		return fmt.Sprintf("vec%d<%s>", t.Size, scalarName(t.Scalar))
	case ir.MatrixType:
		return fmt.Sprintf("mat%dx%d<%s>", t.Columns, t.Rows, scalarName(t.Scalar))
	case ir.ArrayType:
		if t.Size.Constant != nil {
			return fmt.Sprintf("array<%s, %d>", typeName(mod, t.Base), *t.Size.Constant)
		}
		return fmt.Sprintf("array<%s>", typeName(mod, t.Base))
	}
	if ty.Name != "" {
		return ty.Name
	}
	return fmt.Sprintf("%T", ty.Inner)
}

func scalarName(s ir.ScalarType) string {
	switch s.Kind {
	case ir.ScalarSint:
		return fmt.Sprintf("i%d", s.Width*8)
	case ir.ScalarUint:
		return fmt.Sprintf("u%d", s.Width*8)
	case ir.ScalarFloat:
		return fmt.Sprintf("f%d", s.Width*8)
	case ir.ScalarBool:
		return "bool"
	default:
		return "abstract"
	}
}
