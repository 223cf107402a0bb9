package compiler

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-compiler/errors"
	"github.com/wippyai/wasm-compiler/ir"
	"github.com/wippyai/wasm-compiler/wasm"
)

// Option configures a module compile.
type Option func(*config)

type config struct {
	moduleName string
}

// WithModuleName sets the name of the produced IR module. The default is
// "module".
func WithModuleName(name string) Option {
	return func(c *config) {
		c.moduleName = name
	}
}

// Compile lowers a decoded WebAssembly module to IR. It populates the module
// metadata table from the sections in file order, then lowers every code
// section body; the body at index i becomes the IR function "func_<i>".
// Compilation is synchronous and all-or-nothing: the first unsupported
// construct aborts the whole compile.
func Compile(m *wasm.Module, opts ...Option) (*ModuleInfo, *ir.Module, error) {
	cfg := config{moduleName: "module"}
	for _, opt := range opts {
		opt(&cfg)
	}

	log := Logger()
	info := newModuleInfo()

	log.Debug("building module metadata",
		zap.Int("types", len(m.Types)),
		zap.Int("imports", len(m.Imports)),
		zap.Int("functions", len(m.Functions)))

	if err := info.addTypes(m.Types); err != nil {
		return nil, nil, err
	}
	if err := info.addImports(m.Imports); err != nil {
		return nil, nil, err
	}
	info.addFunctions(m.Functions)
	info.addTables(m.Tables)
	if err := info.addMemories(m.Memories); err != nil {
		return nil, nil, err
	}
	info.addGlobals(m.Globals)
	if err := info.addExports(m.Exports); err != nil {
		return nil, nil, err
	}
	if m.Start != nil {
		info.addStart(*m.Start)
	}
	info.addElements(m.Elements)
	info.addData(m.Data)

	mod := ir.NewModule(cfg.moduleName)
	for bodyIdx := range m.Code {
		if err := compileFunction(info, mod, m, bodyIdx); err != nil {
			return nil, nil, err
		}
	}
	return info, mod, nil
}

func compileFunction(info *ModuleInfo, mod *ir.Module, m *wasm.Module, bodyIdx int) error {
	funcIdx := info.FuncIndexForBody(bodyIdx)
	ft, err := info.FuncType(funcIdx)
	if err != nil {
		return err
	}
	sig, err := signatureOf("code", ft)
	if err != nil {
		return err
	}

	body := &m.Code[bodyIdx]
	Logger().Debug("compiling function",
		zap.Int("body", bodyIdx),
		zap.Uint32("func", funcIdx),
		zap.String("signature", ft.String()),
		zap.Uint32("locals", body.NumLocals()))

	f := mod.NewFunction(fmt.Sprintf("func_%d", bodyIdx), sig)
	b := ir.NewBuilder(f)
	slots, err := allocateLocals(b, f, ft, body.Locals)
	if err != nil {
		return err
	}

	ins, err := wasm.DecodeInstructions(body.Code)
	if err != nil {
		return errors.Parse(fmt.Sprintf("function %d body", funcIdx), err)
	}

	fc := &funcCompiler{
		info:    info,
		mod:     mod,
		fn:      f,
		b:       b,
		slots:   slots,
		results: ft.Results,
		funcIdx: int(funcIdx),
	}
	return fc.run(ins)
}
