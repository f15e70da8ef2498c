// Package shader compiles and links the WGSL programs drawn by quad.
//
// Each stage is compiled independently with naga (WGSL to SPIR-V). The
// stage interface is then reflected from the source: entry points,
// @location inputs and outputs, and the members of every var<uniform>
// block with their byte offsets. Link checks that the two stages agree
// and resolves attribute and uniform names to a Location.
//
//	linked, err := shader.Link(shader.ColoredQuad())
//	if err != nil {
//		var ce *shader.CompileError
//		if errors.As(err, &ce) {
//			log.Fatal(ce.Log)
//		}
//		log.Fatal(err)
//	}
//	mv, _ := linked.Location(shader.UniformModelViewMatrix)
package shader
