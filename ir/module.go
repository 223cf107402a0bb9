package ir

import "fmt"

// FuncID identifies a function within a Module.
type FuncID int32

// BlockID identifies a basic block within a Function.
type BlockID int32

// ValueID identifies a value within a Function's arena.
type ValueID int32

// NoBlock is the zero BlockID sentinel for "no block".
const NoBlock BlockID = -1

// Module is a collection of functions sharing one name space.
type Module struct {
	Name   string
	funcs  []*Function
	byName map[string]FuncID
}

// NewModule returns an empty module with the given name.
func NewModule(name string) *Module {
	return &Module{Name: name, byName: make(map[string]FuncID)}
}

// NewFunction adds a function with a body to the module. The entry block is
// created and placed, and parameter values are materialized from the
// signature. It panics if the name is already taken.
func (m *Module) NewFunction(name string, sig Type) *Function {
	f := m.addFunc(name, sig, false)
	for i, pt := range sig.Params() {
		id := f.addValue(value{op: opParam, typ: pt, aux: int64(i)})
		f.params = append(f.params, id)
	}
	entry := f.CreateBlock("entry")
	f.AppendBlock(entry)
	return f
}

// DeclareFunction adds a body-less function declaration, used for intrinsics
// and imported functions. It panics if the name is already taken.
func (m *Module) DeclareFunction(name string, sig Type) *Function {
	return m.addFunc(name, sig, true)
}

func (m *Module) addFunc(name string, sig Type, declared bool) *Function {
	if _, ok := m.byName[name]; ok {
		panic(fmt.Sprintf("ir: duplicate function %q", name))
	}
	if sig.Kind() != KindFunc {
		panic(fmt.Sprintf("ir: function %q signature is %s, not a function type", name, sig))
	}
	f := &Function{
		module:   m,
		id:       FuncID(len(m.funcs)),
		name:     name,
		sig:      sig,
		declared: declared,
	}
	m.funcs = append(m.funcs, f)
	m.byName[name] = f.id
	return f
}

// FuncByName returns the named function, or nil when it does not exist.
func (m *Module) FuncByName(name string) *Function {
	id, ok := m.byName[name]
	if !ok {
		return nil
	}
	return m.funcs[id]
}

// Func returns the function with the given ID.
func (m *Module) Func(id FuncID) *Function {
	return m.funcs[id]
}

// Funcs returns all functions in declaration order.
func (m *Module) Funcs() []*Function {
	return m.funcs
}

// Function is a single IR function: a signature plus, for definitions, an
// arena of values and an ordered list of placed basic blocks.
type Function struct {
	module   *Module
	id       FuncID
	name     string
	sig      Type
	declared bool

	params []ValueID
	values []value
	blocks []block
	placed []BlockID
}

type block struct {
	name       string
	instrs     []ValueID
	terminated bool
	placed     bool
}

// Instruction opcodes of the value arena. Constants and parameters live in
// the arena too but are rendered inline by the printer.
type op uint8

const (
	opParam op = iota
	opConstI32
	opConstI64
	opConstF32
	opConstF64

	opAdd
	opSub
	opMul
	opSDiv
	opUDiv
	opSRem
	opURem
	opAnd
	opOr
	opXor
	opShl
	opLShr
	opAShr

	opFAdd
	opFSub
	opFMul
	opFDiv
	opFNeg

	opICmp
	opFCmp

	opTrunc
	opZExt
	opSExt
	opFPTrunc
	opFPExt
	opFPToSI
	opFPToUI
	opSIToFP
	opUIToFP
	opBitcast

	opAlloca
	opLoad
	opStore
	opFieldPtr

	opCall

	opBr
	opCondBr
	opRet
	opRetVoid
	opUnreachable
)

// value is one arena entry. The aux field carries the immediate relevant to
// the opcode: parameter index, comparison predicate, field index, or the
// constant's bit pattern.
type value struct {
	op        op
	typ       Type
	args      []ValueID
	aux       int64
	faux      float64
	allocType Type // alloca slot type, fieldptr struct type
	callee    FuncID
	dest      [2]BlockID
	name      string
}

// Value is a handle to one arena value of a specific function. The zero
// Value is nil and reports IsNil.
type Value struct {
	fn *Function
	id ValueID
}

// IsNil reports whether the handle refers to no value.
func (v Value) IsNil() bool { return v.fn == nil }

// Type returns the value's IR type.
func (v Value) Type() Type {
	if v.fn == nil {
		return Void
	}
	return v.fn.values[v.id].typ
}

// Name returns the function's name.
func (f *Function) Name() string { return f.name }

// ID returns the function's module-scoped identifier.
func (f *Function) ID() FuncID { return f.id }

// Sig returns the function's signature type.
func (f *Function) Sig() Type { return f.sig }

// IsDeclaration reports whether the function has no body.
func (f *Function) IsDeclaration() bool { return f.declared }

// Param returns the i-th parameter value.
func (f *Function) Param(i int) Value {
	return Value{fn: f, id: f.params[i]}
}

// NumParams returns the parameter count.
func (f *Function) NumParams() int { return len(f.params) }

// Entry returns the function's entry block.
func (f *Function) Entry() BlockID { return f.placed[0] }

// CreateBlock creates an unplaced basic block. It becomes part of the
// function layout only once AppendBlock places it.
func (f *Function) CreateBlock(name string) BlockID {
	f.blocks = append(f.blocks, block{name: name})
	return BlockID(len(f.blocks) - 1)
}

// AppendBlock places a created block at the end of the function layout.
// Placing a block twice panics.
func (f *Function) AppendBlock(id BlockID) {
	b := &f.blocks[id]
	if b.placed {
		panic(fmt.Sprintf("ir: block %q placed twice in %q", b.name, f.name))
	}
	b.placed = true
	f.placed = append(f.placed, id)
}

// BlockName returns a block's name.
func (f *Function) BlockName(id BlockID) string { return f.blocks[id].name }

// Terminated reports whether the block already has a terminator.
func (f *Function) Terminated(id BlockID) bool { return f.blocks[id].terminated }

// Blocks returns the placed blocks in layout order.
func (f *Function) Blocks() []BlockID { return f.placed }

func (f *Function) addValue(v value) ValueID {
	f.values = append(f.values, v)
	return ValueID(len(f.values) - 1)
}
