package runtime

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-compiler/errors"
	"github.com/wippyai/wasm-compiler/ir"
	"github.com/wippyai/wasm-compiler/wasm"
)

// PageSize is the WebAssembly linear memory page size in bytes.
const PageSize = 65536

// FuncInst is one entry of an instance's function address space: either a
// bound host import or a locally compiled body.
type FuncInst struct {
	Type     *wasm.FuncType
	Compiled *ir.Function // nil for host imports
	Host     bool
	Module   string // host import origin
	Field    string
}

// MemInst is an allocated linear memory.
type MemInst struct {
	Limits wasm.Limits
	Data   []byte
}

// TableInst is an allocated table; entries hold module function indices,
// with ^uint32(0) marking an unset element.
type TableInst struct {
	Type  wasm.TableType
	Elems []uint32
}

// GlobalInst is a global variable cell; Value holds the raw bits.
type GlobalInst struct {
	Type  wasm.GlobalType
	Value uint64
}

// Store is an instance's address spaces. Each slice is append-only and
// indexed by the module's combined import-then-local index space.
type Store struct {
	Functions []FuncInst
	Memories  []*MemInst
	Tables    []*TableInst
	Globals   []*GlobalInst
}

// Imports is a registry of host-provided entities keyed by module and field
// name, consulted during instantiation.
type Imports struct {
	funcs    map[string]*wasm.FuncType
	memories map[string]*MemInst
	tables   map[string]*TableInst
	globals  map[string]*GlobalInst
}

// NewImports returns an empty registry.
func NewImports() *Imports {
	return &Imports{
		funcs:    make(map[string]*wasm.FuncType),
		memories: make(map[string]*MemInst),
		tables:   make(map[string]*TableInst),
		globals:  make(map[string]*GlobalInst),
	}
}

func importKey(module, field string) string {
	return module + "." + field
}

// Func registers a host function signature.
func (im *Imports) Func(module, field string, ft *wasm.FuncType) *Imports {
	im.funcs[importKey(module, field)] = ft
	return im
}

// Memory registers a host memory with min pages allocated.
func (im *Imports) Memory(module, field string, min uint32, max *uint64) *Imports {
	im.memories[importKey(module, field)] = &MemInst{
		Limits: wasm.Limits{Min: uint64(min), Max: max},
		Data:   make([]byte, uint64(min)*PageSize),
	}
	return im
}

// Table registers a host table with min unset elements.
func (im *Imports) Table(module, field string, t wasm.TableType) *Imports {
	elems := make([]uint32, t.Limits.Min)
	for i := range elems {
		elems[i] = ^uint32(0)
	}
	im.tables[importKey(module, field)] = &TableInst{Type: t, Elems: elems}
	return im
}

// Global registers a host global value.
func (im *Imports) Global(module, field string, t wasm.GlobalType, value uint64) *Imports {
	im.globals[importKey(module, field)] = &GlobalInst{Type: t, Value: value}
	return im
}

// Instance is a module with all external references resolved.
type Instance struct {
	module *Module
	store  *Store
	start  *uint32
}

// Store returns the instance's address spaces.
func (inst *Instance) Store() *Store {
	return inst.store
}

// Module returns the compiled module this instance was created from.
func (inst *Instance) Module() *Module {
	return inst.module
}

// StartFunction returns the module function index of the start function and
// whether one was declared.
func (inst *Instance) StartFunction() (uint32, bool) {
	if inst.start == nil {
		return 0, false
	}
	return *inst.start, true
}

// Instantiate resolves the module's imports against the registry and builds
// the instance's store: host entries first in each address space, then local
// declarations with memories allocated, element segments applied to tables,
// and data segments copied into memory. Pass nil when the module imports
// nothing.
func (m *Module) Instantiate(imports *Imports) (*Instance, error) {
	if imports == nil {
		imports = NewImports()
	}
	st := &Store{}
	info := m.info

	for _, ref := range info.ImportedFuncs {
		key := importKey(ref.Module, ref.Field)
		ft, ok := imports.funcs[key]
		if !ok {
			return nil, errors.NotFound(errors.PhaseInstantiate, "imported function", key)
		}
		want, err := info.FuncType(ref.Index)
		if err != nil {
			return nil, err
		}
		if ft != nil && !ft.Equal(want) {
			return nil, errors.New(errors.PhaseInstantiate, errors.KindInvalidData).
				Detail("import %s signature %s does not match declared %s", key, ft, want).
				Build()
		}
		st.Functions = append(st.Functions, FuncInst{
			Type: want, Host: true, Module: ref.Module, Field: ref.Field,
		})
	}
	for bodyIdx := range m.wasm.Code {
		funcIdx := info.FuncIndexForBody(bodyIdx)
		ft, err := info.FuncType(funcIdx)
		if err != nil {
			return nil, err
		}
		f := m.ir.FuncByName(fmt.Sprintf("func_%d", bodyIdx))
		if f == nil {
			return nil, errors.Internal("compiled function for body %d missing", bodyIdx)
		}
		st.Functions = append(st.Functions, FuncInst{Type: ft, Compiled: f})
	}

	for _, ref := range info.ImportedMemories {
		key := importKey(ref.Module, ref.Field)
		mem, ok := imports.memories[key]
		if !ok {
			return nil, errors.NotFound(errors.PhaseInstantiate, "imported memory", key)
		}
		st.Memories = append(st.Memories, mem)
	}
	for _, mt := range info.Memories[len(info.ImportedMemories):] {
		st.Memories = append(st.Memories, &MemInst{
			Limits: mt.Limits,
			Data:   make([]byte, mt.Limits.Min*PageSize),
		})
	}

	for _, ref := range info.ImportedTables {
		key := importKey(ref.Module, ref.Field)
		tbl, ok := imports.tables[key]
		if !ok {
			return nil, errors.NotFound(errors.PhaseInstantiate, "imported table", key)
		}
		st.Tables = append(st.Tables, tbl)
	}
	for _, tt := range info.Tables[len(info.ImportedTables):] {
		elems := make([]uint32, tt.Limits.Min)
		for i := range elems {
			elems[i] = ^uint32(0)
		}
		st.Tables = append(st.Tables, &TableInst{Type: tt, Elems: elems})
	}

	for _, ref := range info.ImportedGlobals {
		key := importKey(ref.Module, ref.Field)
		g, ok := imports.globals[key]
		if !ok {
			return nil, errors.NotFound(errors.PhaseInstantiate, "imported global", key)
		}
		st.Globals = append(st.Globals, g)
	}
	for _, g := range m.wasm.Globals {
		val, err := evalConstExpr(g.Init, st)
		if err != nil {
			return nil, err
		}
		st.Globals = append(st.Globals, &GlobalInst{Type: g.Type, Value: val})
	}

	if err := applyElements(m.wasm, st); err != nil {
		return nil, err
	}
	if err := applyData(m.wasm, st); err != nil {
		return nil, err
	}

	Logger().Debug("module instantiated",
		zap.Int("functions", len(st.Functions)),
		zap.Int("memories", len(st.Memories)),
		zap.Int("tables", len(st.Tables)),
		zap.Int("globals", len(st.Globals)))

	return &Instance{module: m, store: st, start: info.Start}, nil
}

// evalConstExpr evaluates a constant initializer expression to its raw bits.
// Only single-instruction initializers are meaningful here.
func evalConstExpr(expr []byte, st *Store) (uint64, error) {
	ins, err := wasm.DecodeInstructions(expr)
	if err != nil {
		return 0, errors.Parse("constant expression", err)
	}
	if len(ins) != 2 || ins[1].Opcode != wasm.OpEnd {
		return 0, errors.New(errors.PhaseInstantiate, errors.KindInvalidData).
			Detail("constant expression must be a single instruction").
			Build()
	}
	in := ins[0]
	switch in.Opcode {
	case wasm.OpI32Const:
		return uint64(uint32(in.I32)), nil
	case wasm.OpI64Const:
		return uint64(in.I64), nil
	case wasm.OpF32Const:
		return uint64(math.Float32bits(in.F32)), nil
	case wasm.OpF64Const:
		return math.Float64bits(in.F64), nil
	case wasm.OpGlobalGet:
		if int(in.Index) >= len(st.Globals) {
			return 0, errors.Internal("constant expression references global %d of %d", in.Index, len(st.Globals))
		}
		return st.Globals[in.Index].Value, nil
	case wasm.OpRefFunc:
		return uint64(in.Index), nil
	case wasm.OpRefNull:
		return uint64(^uint32(0)), nil
	default:
		return 0, errors.New(errors.PhaseInstantiate, errors.KindInvalidData).
			Detail("unsupported constant expression opcode %s", in.Name()).
			Build()
	}
}

func applyElements(m *wasm.Module, st *Store) error {
	for i, el := range m.Elements {
		if int(el.TableIndex) >= len(st.Tables) {
			return errors.Internal("element segment %d targets table %d of %d", i, el.TableIndex, len(st.Tables))
		}
		off, err := evalConstExpr(el.Offset, st)
		if err != nil {
			return err
		}
		tbl := st.Tables[el.TableIndex]
		if off+uint64(len(el.FuncIdxs)) > uint64(len(tbl.Elems)) {
			return errors.New(errors.PhaseInstantiate, errors.KindInvalidData).
				Detail("element segment %d overflows table %d", i, el.TableIndex).
				Build()
		}
		copy(tbl.Elems[off:], el.FuncIdxs)
	}
	return nil
}

func applyData(m *wasm.Module, st *Store) error {
	for i, seg := range m.Data {
		if seg.Offset == nil {
			continue // passive segments wait for bulk-memory ops
		}
		if int(seg.MemoryIndex) >= len(st.Memories) {
			return errors.Internal("data segment %d targets memory %d of %d", i, seg.MemoryIndex, len(st.Memories))
		}
		off, err := evalConstExpr(seg.Offset, st)
		if err != nil {
			return err
		}
		mem := st.Memories[seg.MemoryIndex]
		if off+uint64(len(seg.Data)) > uint64(len(mem.Data)) {
			return errors.New(errors.PhaseInstantiate, errors.KindInvalidData).
				Detail("data segment %d overflows memory %d", i, seg.MemoryIndex).
				Build()
		}
		copy(mem.Data[off:], seg.Data)
	}
	return nil
}
