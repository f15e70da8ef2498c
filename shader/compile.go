package shader

import (
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/naga/spirv"
)

// CompileError reports a stage that failed to compile. Log holds the
// compiler diagnostic.
type CompileError struct {
	Program string
	Stage   Stage
	Log     string

	err error
}

func (e *CompileError) Error() string {
	if e.Program == "" {
		return fmt.Sprintf("shader compile failed (%s): %s", e.Stage, e.Log)
	}
	return fmt.Sprintf("shader compile failed (%s %s): %s", e.Program, e.Stage, e.Log)
}

// Unwrap returns the underlying compiler error, if any.
func (e *CompileError) Unwrap() error { return e.err }

// Module is one compiled stage.
type Module struct {
	Stage      Stage
	EntryPoint string

	// SPIRV holds the compiled module as little-endian 32-bit words.
	SPIRV []uint32

	Inputs   []Variable
	Outputs  []Variable
	Uniforms []Location
	Blocks   []UniformBlock

	reflection *reflection
}

// Compile compiles a single stage from WGSL to SPIR-V and reflects its
// interface from the same naga IR. Errors are *CompileError.
func Compile(src Source) (*Module, error) {
	fail := func(err error) (*Module, error) {
		return nil, &CompileError{Stage: src.Stage, Log: err.Error(), err: err}
	}

	ast, err := naga.Parse(src.Code)
	if err != nil {
		return fail(err)
	}
	mod, err := naga.LowerWithSource(ast, src.Code)
	if err != nil {
		return fail(fmt.Errorf("lowering error: %w", err))
	}
	if err := validate(mod); err != nil {
		return fail(err)
	}
	r := reflectModule(mod, src)
	spirvBytes, err := naga.GenerateSPIRV(mod, spirv.Options{Version: spirv.Version1_3})
	if err != nil {
		return fail(err)
	}

	return &Module{
		Stage:      src.Stage,
		EntryPoint: src.EntryPoint,
		SPIRV:      spirvWords(spirvBytes),
		Inputs:     r.inputs,
		Outputs:    r.outputs,
		Uniforms:   r.uniforms,
		Blocks:     r.blocks,
		reflection: r,
	}, nil
}

func validate(mod *ir.Module) error {
	errs, err := naga.Validate(mod)
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %w", &errs[0])
	}
	return nil
}

// spirvWords packs little-endian SPIR-V bytes into 32-bit words.
func spirvWords(b []byte) []uint32 {
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = uint32(b[i*4]) |
			uint32(b[i*4+1])<<8 |
			uint32(b[i*4+2])<<16 |
			uint32(b[i*4+3])<<24
	}
	return words
}
