package runtime

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-compiler/compiler"
	"github.com/wippyai/wasm-compiler/errors"
	"github.com/wippyai/wasm-compiler/ir"
	"github.com/wippyai/wasm-compiler/wasm"
)

// Option configures Compile.
type Option func(*config)

type config struct {
	name     string
	validate bool
}

// WithName sets the compiled module's name. The default is "module".
func WithName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

// WithValidation toggles the wazero pre-validation pass. It is on by
// default; turn it off only for module bytes validated elsewhere, since the
// lowering stage trusts the operator stream.
func WithValidation(enabled bool) Option {
	return func(c *config) {
		c.validate = enabled
	}
}

// Module is a compiled WebAssembly module: its metadata table, its IR, and
// the decoded binary it was built from.
type Module struct {
	info *compiler.ModuleInfo
	ir   *ir.Module
	wasm *wasm.Module
}

// Compile decodes, optionally validates, and lowers a WebAssembly binary.
func Compile(ctx context.Context, wasmBytes []byte, opts ...Option) (*Module, error) {
	cfg := config{name: "module", validate: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.validate {
		if err := validate(ctx, wasmBytes); err != nil {
			return nil, errors.New(errors.PhaseParse, errors.KindInvalidData).
				Detail("module validation failed").
				Cause(err).
				Build()
		}
	}

	m, err := wasm.ParseModule(wasmBytes)
	if err != nil {
		return nil, errors.Parse("module", err)
	}

	info, irmod, err := compiler.Compile(m, compiler.WithModuleName(cfg.name))
	if err != nil {
		return nil, err
	}

	Logger().Debug("module compiled",
		zap.String("name", cfg.name),
		zap.Int("functions", len(m.Code)),
		zap.Int("exports", len(info.Exports)))

	return &Module{info: info, ir: irmod, wasm: m}, nil
}

// validate runs the module bytes through wazero, which fully type-checks
// the binary without instantiating it.
func validate(ctx context.Context, wasmBytes []byte) error {
	r := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfigInterpreter())
	defer r.Close(ctx)
	cm, err := r.CompileModule(ctx, wasmBytes)
	if err != nil {
		return err
	}
	return cm.Close(ctx)
}

// Info returns the module metadata table.
func (m *Module) Info() *compiler.ModuleInfo {
	return m.info
}

// IR returns the lowered module.
func (m *Module) IR() *ir.Module {
	return m.ir
}

// ExportedFunction resolves an exported function name to its compiled IR
// function. Re-exported imports have no local body and cannot be resolved.
func (m *Module) ExportedFunction(name string) (*ir.Function, error) {
	exp, ok := m.info.Exports[name]
	if !ok {
		return nil, errors.NotFound(errors.PhaseCompile, "export", name)
	}
	if exp.Kind != wasm.KindFunc {
		return nil, errors.New(errors.PhaseCompile, errors.KindNotFound).
			Detail("export %q is not a function (kind %d)", name, exp.Kind).
			Build()
	}
	numImported := m.info.NumImportedFuncs()
	if exp.Index < numImported {
		return nil, errors.New(errors.PhaseCompile, errors.KindNotFound).
			Detail("export %q is an imported function and has no compiled body", name).
			Build()
	}
	fname := fmt.Sprintf("func_%d", exp.Index-numImported)
	f := m.ir.FuncByName(fname)
	if f == nil {
		return nil, errors.Internal("compiled function %s missing for export %q", fname, name)
	}
	return f, nil
}
