package compiler

import (
	"fmt"

	"github.com/wippyai/wasm-compiler/errors"
	"github.com/wippyai/wasm-compiler/ir"
	"github.com/wippyai/wasm-compiler/wasm"
)

// funcCompiler lowers one function body. The operand stack and the control
// stack are the only state carried between operators; processing is strictly
// single-pass.
type funcCompiler struct {
	info     *ModuleInfo
	mod      *ir.Module
	fn       *ir.Function
	b        *ir.Builder
	slots    []localSlot
	stack    []ir.Value
	controls controlStack
	results  []wasm.ValType
	funcIdx  int

	// After an unconditional transfer (br, return, unreachable) the rest of
	// the current arm is dead; the dispatcher skips operators, tracking
	// nesting, until the matching else or end.
	skipping  bool
	skipDepth int

	blockN int
}

func (fc *funcCompiler) run(ins []wasm.Instruction) error {
	intr := &intrinsics{mod: fc.mod}
	for i := range ins {
		op := &ins[i]
		if fc.skipping {
			switch op.Opcode {
			case wasm.OpBlock, wasm.OpLoop, wasm.OpIf:
				fc.skipDepth++
			case wasm.OpElse:
				if fc.skipDepth == 0 {
					fc.skipping = false
					if err := fc.lowerElse(i); err != nil {
						return err
					}
				}
			case wasm.OpEnd:
				if fc.skipDepth > 0 {
					fc.skipDepth--
					continue
				}
				fc.skipping = false
				if err := fc.lowerEnd(); err != nil {
					return err
				}
			}
			continue
		}
		if err := fc.dispatch(intr, i, op); err != nil {
			return err
		}
	}
	return nil
}

func (fc *funcCompiler) push(v ir.Value) {
	fc.stack = append(fc.stack, v)
}

func (fc *funcCompiler) pop() (ir.Value, error) {
	if len(fc.stack) == 0 {
		return ir.Value{}, errors.Internal("operand stack underflow in func_%d", fc.funcIdx)
	}
	v := fc.stack[len(fc.stack)-1]
	fc.stack = fc.stack[:len(fc.stack)-1]
	return v, nil
}

// pop2 pops the two topmost operands; x is the deeper one, matching operator
// operand order (x was pushed first).
func (fc *funcCompiler) pop2() (x, y ir.Value, err error) {
	if y, err = fc.pop(); err != nil {
		return
	}
	x, err = fc.pop()
	return
}

func (fc *funcCompiler) dispatch(intr *intrinsics, opIdx int, op *wasm.Instruction) error {
	switch op.Opcode {

	// Structured control.
	case wasm.OpUnreachable:
		fc.b.Unreachable()
		fc.startSkip()
	case wasm.OpNop:
		// Inert but block-filling.
		fc.b.Add(fc.b.ConstI32(0), fc.b.ConstI32(0), "")
	case wasm.OpBlock:
		fc.lowerBlock()
	case wasm.OpLoop:
		fc.lowerLoop()
	case wasm.OpIf:
		return fc.lowerIf()
	case wasm.OpElse:
		return fc.lowerElse(opIdx)
	case wasm.OpEnd:
		return fc.lowerEnd()
	case wasm.OpBr:
		return fc.lowerBr(op.Index)
	case wasm.OpBrIf:
		return fc.lowerBrIf(op.Index)
	case wasm.OpReturn:
		if err := fc.materializeReturn(); err != nil {
			return err
		}
		fc.startSkip()

	// Parametric.
	case wasm.OpDrop:
		_, err := fc.pop()
		return err
	case wasm.OpSelect, wasm.OpSelectType:
		return fc.lowerSelect()

	// Locals.
	case wasm.OpLocalGet:
		s, err := fc.slot(op.Index)
		if err != nil {
			return err
		}
		fc.push(fc.b.Load(s.typ, s.ptr, ""))
	case wasm.OpLocalSet:
		s, err := fc.slot(op.Index)
		if err != nil {
			return err
		}
		v, err := fc.pop()
		if err != nil {
			return err
		}
		fc.b.Store(v, s.ptr)
	case wasm.OpLocalTee:
		s, err := fc.slot(op.Index)
		if err != nil {
			return err
		}
		if len(fc.stack) == 0 {
			return errors.Internal("operand stack underflow in func_%d", fc.funcIdx)
		}
		fc.b.Store(fc.stack[len(fc.stack)-1], s.ptr)

	// Constants.
	case wasm.OpI32Const:
		fc.push(fc.b.ConstI32(op.I32))
	case wasm.OpI64Const:
		fc.push(fc.b.ConstI64(op.I64))
	case wasm.OpF32Const:
		fc.push(fc.b.ConstF32(op.F32))
	case wasm.OpF64Const:
		fc.push(fc.b.ConstF64(op.F64))

	// Integer comparisons. eqz compares against zero of the operand's own
	// width; the result, like every comparison, is boolean-as-i32.
	case wasm.OpI32Eqz:
		return fc.eqz(ir.I32)
	case wasm.OpI64Eqz:
		return fc.eqz(ir.I64)
	case wasm.OpI32Eq, wasm.OpI64Eq:
		return fc.icmp(ir.IntEQ)
	case wasm.OpI32Ne, wasm.OpI64Ne:
		return fc.icmp(ir.IntNE)
	case wasm.OpI32LtS, wasm.OpI64LtS:
		return fc.icmp(ir.IntSLT)
	case wasm.OpI32LtU, wasm.OpI64LtU:
		return fc.icmp(ir.IntULT)
	case wasm.OpI32GtS, wasm.OpI64GtS:
		return fc.icmp(ir.IntSGT)
	case wasm.OpI32GtU, wasm.OpI64GtU:
		return fc.icmp(ir.IntUGT)
	case wasm.OpI32LeS, wasm.OpI64LeS:
		return fc.icmp(ir.IntSLE)
	case wasm.OpI32LeU, wasm.OpI64LeU:
		return fc.icmp(ir.IntULE)
	case wasm.OpI32GeS, wasm.OpI64GeS:
		return fc.icmp(ir.IntSGE)
	case wasm.OpI32GeU, wasm.OpI64GeU:
		return fc.icmp(ir.IntUGE)

	// Float comparisons: ordered except ne, which is unordered-or-unequal.
	case wasm.OpF32Eq, wasm.OpF64Eq:
		return fc.fcmp(ir.FloatOEQ)
	case wasm.OpF32Ne, wasm.OpF64Ne:
		return fc.fcmp(ir.FloatUNE)
	case wasm.OpF32Lt, wasm.OpF64Lt:
		return fc.fcmp(ir.FloatOLT)
	case wasm.OpF32Gt, wasm.OpF64Gt:
		return fc.fcmp(ir.FloatOGT)
	case wasm.OpF32Le, wasm.OpF64Le:
		return fc.fcmp(ir.FloatOLE)
	case wasm.OpF32Ge, wasm.OpF64Ge:
		return fc.fcmp(ir.FloatOGE)

	// Integer arithmetic. Division by a dynamically-zero divisor traps at
	// run time per target semantics; nothing to do here.
	case wasm.OpI32Add, wasm.OpI64Add:
		return fc.binop(fc.b.Add)
	case wasm.OpI32Sub, wasm.OpI64Sub:
		return fc.binop(fc.b.Sub)
	case wasm.OpI32Mul, wasm.OpI64Mul:
		return fc.binop(fc.b.Mul)
	case wasm.OpI32DivS, wasm.OpI64DivS:
		return fc.binop(fc.b.SDiv)
	case wasm.OpI32DivU, wasm.OpI64DivU:
		return fc.binop(fc.b.UDiv)
	case wasm.OpI32RemS, wasm.OpI64RemS:
		return fc.binop(fc.b.SRem)
	case wasm.OpI32RemU, wasm.OpI64RemU:
		return fc.binop(fc.b.URem)
	case wasm.OpI32And, wasm.OpI64And:
		return fc.binop(fc.b.And)
	case wasm.OpI32Or, wasm.OpI64Or:
		return fc.binop(fc.b.Or)
	case wasm.OpI32Xor, wasm.OpI64Xor:
		return fc.binop(fc.b.Xor)
	case wasm.OpI32Shl, wasm.OpI64Shl:
		return fc.binop(fc.b.Shl)
	case wasm.OpI32ShrS, wasm.OpI64ShrS:
		return fc.binop(fc.b.AShr)
	case wasm.OpI32ShrU, wasm.OpI64ShrU:
		return fc.binop(fc.b.LShr)

	// Integer bit operations backed by intrinsics. Rotates lower to funnel
	// shifts with the value doubled into both inputs.
	case wasm.OpI32Clz, wasm.OpI64Clz:
		return fc.intrinsic1(intr, "ctlz")
	case wasm.OpI32Ctz, wasm.OpI64Ctz:
		return fc.intrinsic1(intr, "cttz")
	case wasm.OpI32Popcnt, wasm.OpI64Popcnt:
		return fc.intrinsic1(intr, "ctpop")
	case wasm.OpI32Rotl, wasm.OpI64Rotl:
		return fc.rotate(intr, "fshl")
	case wasm.OpI32Rotr, wasm.OpI64Rotr:
		return fc.rotate(intr, "fshr")

	// Float arithmetic.
	case wasm.OpF32Add, wasm.OpF64Add:
		return fc.binop(fc.b.FAdd)
	case wasm.OpF32Sub, wasm.OpF64Sub:
		return fc.binop(fc.b.FSub)
	case wasm.OpF32Mul, wasm.OpF64Mul:
		return fc.binop(fc.b.FMul)
	case wasm.OpF32Div, wasm.OpF64Div:
		return fc.binop(fc.b.FDiv)
	case wasm.OpF32Neg, wasm.OpF64Neg:
		v, err := fc.pop()
		if err != nil {
			return err
		}
		fc.push(fc.b.FNeg(v, ""))

	// Float operations backed by intrinsics. nearest is round-to-even.
	case wasm.OpF32Abs, wasm.OpF64Abs:
		return fc.intrinsic1(intr, "fabs")
	case wasm.OpF32Ceil, wasm.OpF64Ceil:
		return fc.intrinsic1(intr, "ceil")
	case wasm.OpF32Floor, wasm.OpF64Floor:
		return fc.intrinsic1(intr, "floor")
	case wasm.OpF32Trunc, wasm.OpF64Trunc:
		return fc.intrinsic1(intr, "trunc")
	case wasm.OpF32Nearest, wasm.OpF64Nearest:
		return fc.intrinsic1(intr, "roundeven")
	case wasm.OpF32Sqrt, wasm.OpF64Sqrt:
		return fc.intrinsic1(intr, "sqrt")
	case wasm.OpF32Min, wasm.OpF64Min:
		return fc.intrinsic2(intr, "minimum")
	case wasm.OpF32Max, wasm.OpF64Max:
		return fc.intrinsic2(intr, "maximum")
	case wasm.OpF32Copysign, wasm.OpF64Copysign:
		return fc.intrinsic2(intr, "copysign")

	// Conversions.
	case wasm.OpI32WrapI64:
		return fc.convert(fc.b.Trunc, ir.I32)
	case wasm.OpI32TruncF32S, wasm.OpI32TruncF64S:
		return fc.convert(fc.b.FPToSI, ir.I32)
	case wasm.OpI32TruncF32U, wasm.OpI32TruncF64U:
		return fc.convert(fc.b.FPToUI, ir.I32)
	case wasm.OpI64ExtendI32S:
		return fc.convert(fc.b.SExt, ir.I64)
	case wasm.OpI64ExtendI32U:
		return fc.convert(fc.b.ZExt, ir.I64)
	case wasm.OpI64TruncF32S, wasm.OpI64TruncF64S:
		return fc.convert(fc.b.FPToSI, ir.I64)
	case wasm.OpI64TruncF32U, wasm.OpI64TruncF64U:
		return fc.convert(fc.b.FPToUI, ir.I64)
	case wasm.OpF32ConvertI32S, wasm.OpF32ConvertI64S:
		return fc.convert(fc.b.SIToFP, ir.F32)
	case wasm.OpF32ConvertI32U, wasm.OpF32ConvertI64U:
		return fc.convert(fc.b.UIToFP, ir.F32)
	case wasm.OpF32DemoteF64:
		return fc.convert(fc.b.FPTrunc, ir.F32)
	case wasm.OpF64ConvertI32S, wasm.OpF64ConvertI64S:
		return fc.convert(fc.b.SIToFP, ir.F64)
	case wasm.OpF64ConvertI32U, wasm.OpF64ConvertI64U:
		return fc.convert(fc.b.UIToFP, ir.F64)
	case wasm.OpF64PromoteF32:
		return fc.convert(fc.b.FPExt, ir.F64)
	case wasm.OpI32ReinterpretF32:
		return fc.convert(fc.b.Bitcast, ir.I32)
	case wasm.OpI64ReinterpretF64:
		return fc.convert(fc.b.Bitcast, ir.I64)
	case wasm.OpF32ReinterpretI32:
		return fc.convert(fc.b.Bitcast, ir.F32)
	case wasm.OpF64ReinterpretI64:
		return fc.convert(fc.b.Bitcast, ir.F64)

	// Everything else (memory, tables, globals, calls, br_table, SIMD,
	// atomics, reference types, bulk memory, sign extension) is out of the
	// compiled profile. Skipping any of these silently would corrupt the
	// operand stack for everything downstream.
	default:
		return errors.UnsupportedInstruction(fc.funcIdx, opIdx, op.Opcode, op.Name())
	}
	return nil
}

func (fc *funcCompiler) startSkip() {
	fc.skipping = true
	fc.skipDepth = 0
}

func (fc *funcCompiler) slot(index uint32) (localSlot, error) {
	if int(index) >= len(fc.slots) {
		return localSlot{}, errors.Internal("local index %d out of range (%d slots) in func_%d", index, len(fc.slots), fc.funcIdx)
	}
	return fc.slots[index], nil
}

func (fc *funcCompiler) nextName(construct string) string {
	n := fc.blockN
	fc.blockN++
	return fmt.Sprintf("%s%d", construct, n)
}

func (fc *funcCompiler) lowerBlock() {
	name := fc.nextName("block")
	end := fc.fn.CreateBlock(name + ".end")
	fc.controls.push(controlFrame{kind: ctrlBlock, begin: ir.NoBlock, elseBlk: ir.NoBlock, end: end})
}

func (fc *funcCompiler) lowerLoop() {
	name := fc.nextName("loop")
	begin := fc.fn.CreateBlock(name)
	fc.b.Br(begin)
	fc.fn.AppendBlock(begin)
	fc.b.PositionAtEnd(begin)
	end := fc.fn.CreateBlock(name + ".end")
	fc.controls.push(controlFrame{kind: ctrlLoop, begin: begin, elseBlk: ir.NoBlock, end: end})
}

func (fc *funcCompiler) lowerIf() error {
	cond, err := fc.pop()
	if err != nil {
		return err
	}
	name := fc.nextName("if")
	then := fc.fn.CreateBlock(name + ".then")
	els := fc.fn.CreateBlock(name + ".else")
	end := fc.fn.CreateBlock(name + ".end")
	fc.b.CondBr(cond, then, els)
	fc.fn.AppendBlock(then)
	fc.b.PositionAtEnd(then)
	fc.controls.push(controlFrame{kind: ctrlIf, begin: ir.NoBlock, elseBlk: els, end: end})
	return nil
}

func (fc *funcCompiler) lowerElse(opIdx int) error {
	f := fc.controls.top()
	if f == nil || f.kind != ctrlIf || f.elseSeen {
		return errors.Internal("else without matching if at op %d in func_%d", opIdx, fc.funcIdx)
	}
	// Close the then arm; a no-op when it already terminated.
	fc.b.Br(f.end)
	fc.fn.AppendBlock(f.elseBlk)
	fc.b.PositionAtEnd(f.elseBlk)
	f.elseSeen = true
	return nil
}

// lowerEnd pops and closes the innermost control. With no control pushed,
// this is the function-level implicit end and finalizes the function by
// materializing the return, unless an explicit return already did.
func (fc *funcCompiler) lowerEnd() error {
	f, ok := fc.controls.pop()
	if !ok {
		if !fc.fn.Terminated(fc.b.Block()) {
			if len(fc.stack) < len(fc.results) {
				// Every result path already returned inside control flow;
				// the fall-through block carries no values and cannot be
				// reached.
				fc.b.Unreachable()
				return nil
			}
			return fc.materializeReturn()
		}
		return nil
	}
	switch f.kind {
	case ctrlLoop:
		// Back-edge, emitted only when control reaches this point.
		fc.b.Br(f.begin)
	case ctrlIf:
		fc.b.Br(f.end)
		if !f.elseSeen {
			// The conditional branch referenced the else block; place it as
			// an empty fall-through arm.
			fc.fn.AppendBlock(f.elseBlk)
			fc.b.PositionAtEnd(f.elseBlk)
			fc.b.Br(f.end)
		}
	case ctrlBlock:
		fc.b.Br(f.end)
	}
	fc.fn.AppendBlock(f.end)
	fc.b.PositionAtEnd(f.end)
	return nil
}

func (fc *funcCompiler) lowerBr(depth uint32) error {
	target, err := fc.controls.branchTarget(depth)
	if err != nil {
		return err
	}
	fc.b.Br(target)
	fc.startSkip()
	return nil
}

func (fc *funcCompiler) lowerBrIf(depth uint32) error {
	cond, err := fc.pop()
	if err != nil {
		return err
	}
	target, err := fc.controls.branchTarget(depth)
	if err != nil {
		return err
	}
	cont := fc.fn.CreateBlock(fc.nextName("cont"))
	fc.b.CondBr(cond, target, cont)
	fc.fn.AppendBlock(cont)
	fc.b.PositionAtEnd(cont)
	return nil
}

// lowerSelect has no single IR instruction; it lowers to a slot store in
// two arms joined by a load.
func (fc *funcCompiler) lowerSelect() error {
	cond, err := fc.pop()
	if err != nil {
		return err
	}
	v1, v2, err2 := fc.pop2()
	if err2 != nil {
		return err2
	}
	t := v1.Type()
	name := fc.nextName("select")
	slot := fc.b.Alloca(t, name)
	then := fc.fn.CreateBlock(name + ".then")
	els := fc.fn.CreateBlock(name + ".else")
	join := fc.fn.CreateBlock(name + ".join")
	fc.b.CondBr(cond, then, els)
	fc.fn.AppendBlock(then)
	fc.b.PositionAtEnd(then)
	fc.b.Store(v1, slot)
	fc.b.Br(join)
	fc.fn.AppendBlock(els)
	fc.b.PositionAtEnd(els)
	fc.b.Store(v2, slot)
	fc.b.Br(join)
	fc.fn.AppendBlock(join)
	fc.b.PositionAtEnd(join)
	fc.push(fc.b.Load(t, slot, ""))
	return nil
}

func (fc *funcCompiler) eqz(t ir.Type) error {
	v, err := fc.pop()
	if err != nil {
		return err
	}
	fc.push(fc.b.ICmp(ir.IntEQ, v, fc.b.ConstZero(t), ""))
	return nil
}

func (fc *funcCompiler) icmp(pred ir.IntPred) error {
	x, y, err := fc.pop2()
	if err != nil {
		return err
	}
	fc.push(fc.b.ICmp(pred, x, y, ""))
	return nil
}

func (fc *funcCompiler) fcmp(pred ir.FloatPred) error {
	x, y, err := fc.pop2()
	if err != nil {
		return err
	}
	fc.push(fc.b.FCmp(pred, x, y, ""))
	return nil
}

func (fc *funcCompiler) binop(emit func(x, y ir.Value, name string) ir.Value) error {
	x, y, err := fc.pop2()
	if err != nil {
		return err
	}
	fc.push(emit(x, y, ""))
	return nil
}

func (fc *funcCompiler) convert(emit func(x ir.Value, to ir.Type, name string) ir.Value, to ir.Type) error {
	v, err := fc.pop()
	if err != nil {
		return err
	}
	fc.push(emit(v, to, ""))
	return nil
}

func (fc *funcCompiler) intrinsic1(intr *intrinsics, op string) error {
	v, err := fc.pop()
	if err != nil {
		return err
	}
	callee := intr.unary(op, v.Type())
	fc.push(fc.b.Call(callee, []ir.Value{v}, ""))
	return nil
}

func (fc *funcCompiler) intrinsic2(intr *intrinsics, op string) error {
	x, y, err := fc.pop2()
	if err != nil {
		return err
	}
	callee := intr.binary(op, x.Type())
	fc.push(fc.b.Call(callee, []ir.Value{x, y}, ""))
	return nil
}

// rotate lowers rotl/rotr to fshl/fshr with the rotated value as both
// funnel inputs.
func (fc *funcCompiler) rotate(intr *intrinsics, op string) error {
	x, shift, err := fc.pop2()
	if err != nil {
		return err
	}
	callee := intr.ternary(op, x.Type())
	fc.push(fc.b.Call(callee, []ir.Value{x, x, shift}, ""))
	return nil
}
