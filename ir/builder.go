package ir

import "fmt"

// IntPred is an integer comparison predicate.
type IntPred uint8

const (
	IntEQ IntPred = iota
	IntNE
	IntSLT
	IntULT
	IntSGT
	IntUGT
	IntSLE
	IntULE
	IntSGE
	IntUGE
)

func (p IntPred) String() string {
	switch p {
	case IntEQ:
		return "eq"
	case IntNE:
		return "ne"
	case IntSLT:
		return "slt"
	case IntULT:
		return "ult"
	case IntSGT:
		return "sgt"
	case IntUGT:
		return "ugt"
	case IntSLE:
		return "sle"
	case IntULE:
		return "ule"
	case IntSGE:
		return "sge"
	case IntUGE:
		return "uge"
	default:
		return "?"
	}
}

// FloatPred is a float comparison predicate. All predicates except UNE are
// ordered: they are false when either operand is NaN. UNE is true when the
// operands are unordered or unequal.
type FloatPred uint8

const (
	FloatOEQ FloatPred = iota
	FloatUNE
	FloatOLT
	FloatOGT
	FloatOLE
	FloatOGE
)

func (p FloatPred) String() string {
	switch p {
	case FloatOEQ:
		return "oeq"
	case FloatUNE:
		return "une"
	case FloatOLT:
		return "olt"
	case FloatOGT:
		return "ogt"
	case FloatOLE:
		return "ole"
	case FloatOGE:
		return "oge"
	default:
		return "?"
	}
}

// Builder emits instructions at the end of its current block. Emission into
// a block that already has a terminator is silently dropped; result-producing
// instructions then return the nil Value.
type Builder struct {
	fn  *Function
	cur BlockID
}

// NewBuilder returns a builder for the function, positioned at its entry
// block.
func NewBuilder(f *Function) *Builder {
	if f.IsDeclaration() {
		panic(fmt.Sprintf("ir: cannot build into declaration %q", f.Name()))
	}
	return &Builder{fn: f, cur: f.Entry()}
}

// Func returns the function being built.
func (b *Builder) Func() *Function { return b.fn }

// Block returns the current insertion block.
func (b *Builder) Block() BlockID { return b.cur }

// PositionAtEnd moves the insertion point to the end of the given block.
func (b *Builder) PositionAtEnd(id BlockID) { b.cur = id }

func (b *Builder) emit(v value) Value {
	blk := &b.fn.blocks[b.cur]
	if blk.terminated {
		return Value{}
	}
	id := b.fn.addValue(v)
	blk.instrs = append(blk.instrs, id)
	return Value{fn: b.fn, id: id}
}

func (b *Builder) terminate(v value) {
	blk := &b.fn.blocks[b.cur]
	if blk.terminated {
		return
	}
	id := b.fn.addValue(v)
	blk.instrs = append(blk.instrs, id)
	blk.terminated = true
}

// Constants are arena values outside any block; the printer renders them
// inline.

// ConstI32 returns an i32 constant.
func (b *Builder) ConstI32(v int32) Value {
	id := b.fn.addValue(value{op: opConstI32, typ: I32, aux: int64(v)})
	return Value{fn: b.fn, id: id}
}

// ConstI64 returns an i64 constant.
func (b *Builder) ConstI64(v int64) Value {
	id := b.fn.addValue(value{op: opConstI64, typ: I64, aux: v})
	return Value{fn: b.fn, id: id}
}

// ConstF32 returns an f32 constant.
func (b *Builder) ConstF32(v float32) Value {
	id := b.fn.addValue(value{op: opConstF32, typ: F32, faux: float64(v)})
	return Value{fn: b.fn, id: id}
}

// ConstF64 returns an f64 constant.
func (b *Builder) ConstF64(v float64) Value {
	id := b.fn.addValue(value{op: opConstF64, typ: F64, faux: v})
	return Value{fn: b.fn, id: id}
}

// ConstZero returns the zero constant of a scalar type.
func (b *Builder) ConstZero(t Type) Value {
	switch t.Kind() {
	case KindI32:
		return b.ConstI32(0)
	case KindI64:
		return b.ConstI64(0)
	case KindF32:
		return b.ConstF32(0)
	case KindF64:
		return b.ConstF64(0)
	default:
		panic(fmt.Sprintf("ir: no zero constant for %s", t))
	}
}

func (b *Builder) binary(o op, x, y Value, name string) Value {
	return b.emit(value{op: o, typ: x.Type(), args: []ValueID{x.id, y.id}, name: name})
}

// Integer arithmetic. The result type is the operand type.

func (b *Builder) Add(x, y Value, name string) Value  { return b.binary(opAdd, x, y, name) }
func (b *Builder) Sub(x, y Value, name string) Value  { return b.binary(opSub, x, y, name) }
func (b *Builder) Mul(x, y Value, name string) Value  { return b.binary(opMul, x, y, name) }
func (b *Builder) SDiv(x, y Value, name string) Value { return b.binary(opSDiv, x, y, name) }
func (b *Builder) UDiv(x, y Value, name string) Value { return b.binary(opUDiv, x, y, name) }
func (b *Builder) SRem(x, y Value, name string) Value { return b.binary(opSRem, x, y, name) }
func (b *Builder) URem(x, y Value, name string) Value { return b.binary(opURem, x, y, name) }
func (b *Builder) And(x, y Value, name string) Value  { return b.binary(opAnd, x, y, name) }
func (b *Builder) Or(x, y Value, name string) Value   { return b.binary(opOr, x, y, name) }
func (b *Builder) Xor(x, y Value, name string) Value  { return b.binary(opXor, x, y, name) }
func (b *Builder) Shl(x, y Value, name string) Value  { return b.binary(opShl, x, y, name) }
func (b *Builder) LShr(x, y Value, name string) Value { return b.binary(opLShr, x, y, name) }
func (b *Builder) AShr(x, y Value, name string) Value { return b.binary(opAShr, x, y, name) }

// Float arithmetic.

func (b *Builder) FAdd(x, y Value, name string) Value { return b.binary(opFAdd, x, y, name) }
func (b *Builder) FSub(x, y Value, name string) Value { return b.binary(opFSub, x, y, name) }
func (b *Builder) FMul(x, y Value, name string) Value { return b.binary(opFMul, x, y, name) }
func (b *Builder) FDiv(x, y Value, name string) Value { return b.binary(opFDiv, x, y, name) }

// FNeg negates a float value.
func (b *Builder) FNeg(x Value, name string) Value {
	return b.emit(value{op: opFNeg, typ: x.Type(), args: []ValueID{x.id}, name: name})
}

// ICmp compares two integers and produces the boolean result as i32.
func (b *Builder) ICmp(pred IntPred, x, y Value, name string) Value {
	return b.emit(value{op: opICmp, typ: I32, args: []ValueID{x.id, y.id}, aux: int64(pred), name: name})
}

// FCmp compares two floats and produces the boolean result as i32.
func (b *Builder) FCmp(pred FloatPred, x, y Value, name string) Value {
	return b.emit(value{op: opFCmp, typ: I32, args: []ValueID{x.id, y.id}, aux: int64(pred), name: name})
}

func (b *Builder) convert(o op, x Value, to Type, name string) Value {
	return b.emit(value{op: o, typ: to, args: []ValueID{x.id}, name: name})
}

// Conversions.

func (b *Builder) Trunc(x Value, to Type, name string) Value { return b.convert(opTrunc, x, to, name) }
func (b *Builder) ZExt(x Value, to Type, name string) Value  { return b.convert(opZExt, x, to, name) }
func (b *Builder) SExt(x Value, to Type, name string) Value  { return b.convert(opSExt, x, to, name) }
func (b *Builder) FPTrunc(x Value, to Type, name string) Value {
	return b.convert(opFPTrunc, x, to, name)
}
func (b *Builder) FPExt(x Value, to Type, name string) Value { return b.convert(opFPExt, x, to, name) }
func (b *Builder) FPToSI(x Value, to Type, name string) Value {
	return b.convert(opFPToSI, x, to, name)
}
func (b *Builder) FPToUI(x Value, to Type, name string) Value {
	return b.convert(opFPToUI, x, to, name)
}
func (b *Builder) SIToFP(x Value, to Type, name string) Value {
	return b.convert(opSIToFP, x, to, name)
}
func (b *Builder) UIToFP(x Value, to Type, name string) Value {
	return b.convert(opUIToFP, x, to, name)
}

// Bitcast reinterprets a value's bits as another same-width type.
func (b *Builder) Bitcast(x Value, to Type, name string) Value {
	return b.convert(opBitcast, x, to, name)
}

// Alloca reserves a stack slot of the given type and produces a pointer.
func (b *Builder) Alloca(t Type, name string) Value {
	return b.emit(value{op: opAlloca, typ: Ptr, allocType: t, name: name})
}

// Load reads a value of the given type through a pointer.
func (b *Builder) Load(t Type, ptr Value, name string) Value {
	return b.emit(value{op: opLoad, typ: t, args: []ValueID{ptr.id}, name: name})
}

// Store writes a value through a pointer.
func (b *Builder) Store(val, ptr Value) {
	b.emit(value{op: opStore, typ: Void, args: []ValueID{val.id, ptr.id}})
}

// FieldPtr produces a pointer to field index of the struct the pointer
// addresses.
func (b *Builder) FieldPtr(structType Type, ptr Value, index int, name string) Value {
	return b.emit(value{op: opFieldPtr, typ: Ptr, args: []ValueID{ptr.id}, aux: int64(index), allocType: structType, name: name})
}

// Call invokes a function with the given arguments. The result is nil when
// the callee returns void.
func (b *Builder) Call(callee *Function, args []Value, name string) Value {
	ids := make([]ValueID, len(args))
	for i, a := range args {
		ids[i] = a.id
	}
	ret := callee.Sig().Return()
	if ret.Kind() == KindVoid {
		name = ""
	}
	return b.emit(value{op: opCall, typ: ret, args: ids, callee: callee.ID(), name: name})
}

// Br terminates the current block with an unconditional branch.
func (b *Builder) Br(dest BlockID) {
	b.terminate(value{op: opBr, typ: Void, dest: [2]BlockID{dest, NoBlock}})
}

// CondBr terminates the current block with a conditional branch. The
// condition is an i32 tested against zero.
func (b *Builder) CondBr(cond Value, then, els BlockID) {
	b.terminate(value{op: opCondBr, typ: Void, args: []ValueID{cond.id}, dest: [2]BlockID{then, els}})
}

// Ret terminates the current block returning a value.
func (b *Builder) Ret(v Value) {
	b.terminate(value{op: opRet, typ: Void, args: []ValueID{v.id}})
}

// RetVoid terminates the current block returning nothing.
func (b *Builder) RetVoid() {
	b.terminate(value{op: opRetVoid, typ: Void})
}

// Unreachable terminates the current block as unreachable.
func (b *Builder) Unreachable() {
	b.terminate(value{op: opUnreachable, typ: Void})
}
