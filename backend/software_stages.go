package backend

import (
	"github.com/gogpu/quad"
	"github.com/gogpu/quad/internal/raster"
	"github.com/gogpu/quad/shader"
)

// uniformValues is the uniform block as the built-in stages read it.
type uniformValues struct {
	projection quad.Mat4
	modelView  quad.Mat4
	mvp        quad.Mat4
}

// vertexInput holds the attributes fetched for one vertex. Missing
// components default to (0, 0, 0, 1).
type vertexInput struct {
	position [4]float32
	color    [4]float32
}

// programStages executes a linked program on the CPU. Each entry mirrors
// the WGSL of the built-in program with the same name.
type programStages struct {
	varyings int
	vertex   func(u *uniformValues, in *vertexInput) raster.Vertex
	fragment raster.FragmentFunc
}

var builtinStages = map[string]*programStages{
	shader.ProgramQuad: {
		vertex: transformPosition,
		fragment: func(*[raster.MaxVaryings]float32) [4]float32 {
			return quad.Cream.Float32s()
		},
	},
	shader.ProgramColoredQuad: {
		varyings: 4,
		vertex: func(u *uniformValues, in *vertexInput) raster.Vertex {
			v := transformPosition(u, in)
			v.Varyings = in.color
			return v
		},
		fragment: func(v *[raster.MaxVaryings]float32) [4]float32 {
			return *v
		},
	},
}

// transformPosition computes projection * modelView * vec4(position.xyz, 1).
func transformPosition(u *uniformValues, in *vertexInput) raster.Vertex {
	p := in.position
	clip := u.mvp.Transform(quad.Vec4{X: p[0], Y: p[1], Z: p[2], W: 1})
	return raster.Vertex{Position: [4]float32{clip.X, clip.Y, clip.Z, clip.W}}
}
