package wasm

import (
	lebinary "encoding/binary"
	"fmt"
	"math"

	"github.com/wippyai/wasm-compiler/wasm/internal/binary"
)

// MemArg is the alignment/offset immediate pair of a memory instruction.
type MemArg struct {
	Align  uint32
	Offset uint32
}

// Instruction is one decoded operator with its immediates. Only the fields
// relevant to the opcode are set.
type Instruction struct {
	Opcode byte
	SubOp  uint32 // sub-opcode for 0xFC/0xFD/0xFE prefixed instructions

	Block   int32    // block/loop/if: block type (negative singleton or type index)
	Index   uint32   // single index immediate (local, global, depth, function, ...)
	Index2  uint32   // second index (call_indirect table, table.copy source, ...)
	Targets []uint32 // br_table targets, default last
	Types   []ValType

	I32 int32
	I64 int64
	F32 float32
	F64 float64

	Mem  MemArg
	Lane byte
	V128 [16]byte

	Pos int // byte offset of the opcode within the body
}

// Name returns the text format mnemonic of the instruction.
func (in *Instruction) Name() string {
	switch in.Opcode {
	case OpPrefixMisc:
		return miscName(in.SubOp)
	case OpPrefixSIMD:
		return fmt.Sprintf("simd(%d)", in.SubOp)
	case OpPrefixAtomic:
		return fmt.Sprintf("atomic(0x%02X)", in.SubOp)
	default:
		return OpcodeName(in.Opcode)
	}
}

func miscName(sub uint32) string {
	switch sub {
	case MiscI32TruncSatF32S:
		return "i32.trunc_sat_f32_s"
	case MiscI32TruncSatF32U:
		return "i32.trunc_sat_f32_u"
	case MiscI32TruncSatF64S:
		return "i32.trunc_sat_f64_s"
	case MiscI32TruncSatF64U:
		return "i32.trunc_sat_f64_u"
	case MiscI64TruncSatF32S:
		return "i64.trunc_sat_f32_s"
	case MiscI64TruncSatF32U:
		return "i64.trunc_sat_f32_u"
	case MiscI64TruncSatF64S:
		return "i64.trunc_sat_f64_s"
	case MiscI64TruncSatF64U:
		return "i64.trunc_sat_f64_u"
	case MiscMemoryInit:
		return "memory.init"
	case MiscDataDrop:
		return "data.drop"
	case MiscMemoryCopy:
		return "memory.copy"
	case MiscMemoryFill:
		return "memory.fill"
	case MiscTableInit:
		return "table.init"
	case MiscElemDrop:
		return "elem.drop"
	case MiscTableCopy:
		return "table.copy"
	case MiscTableGrow:
		return "table.grow"
	case MiscTableSize:
		return "table.size"
	case MiscTableFill:
		return "table.fill"
	default:
		return fmt.Sprintf("misc(%d)", sub)
	}
}

// DecodeInstructions decodes a function body expression into a flat operator
// sequence. The input must be the expression bytes including the terminating
// end opcode. Every known instruction's immediates are consumed even when the
// instruction itself is outside the compiler's supported profile, so callers
// can report unsupported operators with precise positions.
func DecodeInstructions(code []byte) ([]Instruction, error) {
	r := binary.NewReader(code)
	var out []Instruction
	for r.Position() < len(code) {
		in, err := decodeOne(r)
		if err != nil {
			return nil, fmt.Errorf("at byte %d: %w", r.Position(), err)
		}
		out = append(out, in)
	}
	if n := len(out); n == 0 || out[n-1].Opcode != OpEnd {
		return nil, fmt.Errorf("expression does not end with end opcode")
	}
	return out, nil
}

func decodeOne(r *binary.Reader) (Instruction, error) {
	pos := r.Position()
	op, err := r.ReadByte()
	if err != nil {
		return Instruction{}, err
	}
	in := Instruction{Opcode: op, Pos: pos}

	switch op {
	case OpBlock, OpLoop, OpIf:
		in.Block, err = r.ReadS32()

	case OpBr, OpBrIf, OpCall,
		OpLocalGet, OpLocalSet, OpLocalTee,
		OpGlobalGet, OpGlobalSet,
		OpTableGet, OpTableSet,
		OpRefFunc:
		in.Index, err = r.ReadU32()

	case OpBrTable:
		var n uint32
		n, err = r.ReadU32()
		if err != nil {
			return in, err
		}
		in.Targets = make([]uint32, n+1)
		for i := range in.Targets {
			in.Targets[i], err = r.ReadU32()
			if err != nil {
				return in, err
			}
		}

	case OpCallIndirect:
		in.Index, err = r.ReadU32()
		if err != nil {
			return in, err
		}
		in.Index2, err = r.ReadU32()

	case OpSelectType:
		var n uint32
		n, err = r.ReadU32()
		if err != nil {
			return in, err
		}
		in.Types = make([]ValType, n)
		for i := range in.Types {
			var b byte
			b, err = r.ReadByte()
			if err != nil {
				return in, err
			}
			in.Types[i] = ValType(b)
		}

	case OpRefNull:
		var b byte
		b, err = r.ReadByte()
		in.Types = []ValType{ValType(b)}

	case OpI32Const:
		in.I32, err = r.ReadS32()
	case OpI64Const:
		in.I64, err = r.ReadS64()
	case OpF32Const:
		var v uint32
		v, err = r.ReadU32LE()
		in.F32 = f32FromBits(v)
	case OpF64Const:
		var buf []byte
		buf, err = r.ReadBytes(8)
		if err == nil {
			in.F64 = f64FromBytes(buf)
		}

	case OpMemorySize, OpMemoryGrow:
		var b byte
		b, err = r.ReadByte()
		in.Index = uint32(b)

	case OpPrefixMisc:
		return decodeMisc(r, in)
	case OpPrefixSIMD:
		return decodeSIMD(r, in)
	case OpPrefixAtomic:
		return decodeAtomic(r, in)

	default:
		if hasMemArg(op) {
			in.Mem, err = readMemArg(r)
		}
	}
	return in, err
}

func hasMemArg(op byte) bool {
	return op >= OpI32Load && op <= OpI64Store32
}

func readMemArg(r *binary.Reader) (MemArg, error) {
	align, err := r.ReadU32()
	if err != nil {
		return MemArg{}, err
	}
	offset, err := r.ReadU32()
	if err != nil {
		return MemArg{}, err
	}
	return MemArg{Align: align, Offset: offset}, nil
}

func decodeMisc(r *binary.Reader, in Instruction) (Instruction, error) {
	sub, err := r.ReadU32()
	if err != nil {
		return in, err
	}
	in.SubOp = sub
	switch sub {
	case MiscI32TruncSatF32S, MiscI32TruncSatF32U, MiscI32TruncSatF64S, MiscI32TruncSatF64U,
		MiscI64TruncSatF32S, MiscI64TruncSatF32U, MiscI64TruncSatF64S, MiscI64TruncSatF64U:
		// no immediates
	case MiscMemoryInit, MiscTableInit, MiscTableCopy:
		in.Index, err = r.ReadU32()
		if err != nil {
			return in, err
		}
		in.Index2, err = r.ReadU32()
	case MiscDataDrop, MiscElemDrop, MiscTableGrow, MiscTableSize, MiscTableFill:
		in.Index, err = r.ReadU32()
	case MiscMemoryFill:
		_, err = r.ReadByte()
	case MiscMemoryCopy:
		if _, err = r.ReadByte(); err != nil {
			return in, err
		}
		_, err = r.ReadByte()
	default:
		return in, fmt.Errorf("unknown 0xFC sub-opcode %d", sub)
	}
	return in, err
}

// SIMD sub-opcode groups that carry immediates.
const (
	simdLoadFirst    = 0x00 // v128.load
	simdStoreLast    = 0x0B // v128.store
	simdConst        = 0x0C
	simdShuffle      = 0x0D
	simdLaneOpFirst  = 0x15 // i8x16.extract_lane_s
	simdLaneOpLast   = 0x22 // f64x2.replace_lane
	simdLoadLane     = 0x54 // v128.load8_lane
	simdStoreLane64  = 0x5B // v128.store64_lane
	simdLoadZeroLast = 0x5D // v128.load64_zero
)

func decodeSIMD(r *binary.Reader, in Instruction) (Instruction, error) {
	sub, err := r.ReadU32()
	if err != nil {
		return in, err
	}
	in.SubOp = sub
	switch {
	case sub <= simdStoreLast:
		in.Mem, err = readMemArg(r)
	case sub == simdConst, sub == simdShuffle:
		var buf []byte
		buf, err = r.ReadBytes(16)
		if err == nil {
			copy(in.V128[:], buf)
		}
	case sub >= simdLaneOpFirst && sub <= simdLaneOpLast:
		in.Lane, err = r.ReadByte()
	case sub >= simdLoadLane && sub <= simdStoreLane64:
		in.Mem, err = readMemArg(r)
		if err != nil {
			return in, err
		}
		in.Lane, err = r.ReadByte()
	case sub == simdStoreLane64+1, sub == simdLoadZeroLast:
		in.Mem, err = readMemArg(r)
	}
	return in, err
}

func decodeAtomic(r *binary.Reader, in Instruction) (Instruction, error) {
	sub, err := r.ReadU32()
	if err != nil {
		return in, err
	}
	in.SubOp = sub
	if sub == 0x03 { // atomic.fence
		_, err = r.ReadByte()
		return in, err
	}
	in.Mem, err = readMemArg(r)
	return in, err
}

func f32FromBits(v uint32) float32 {
	return math.Float32frombits(v)
}

func f64FromBytes(b []byte) float64 {
	return math.Float64frombits(lebinary.LittleEndian.Uint64(b))
}
