package wasm

import (
	lebinary "encoding/binary"
	"math"

	"github.com/wippyai/wasm-compiler/wasm/internal/binary"
)

// Encode serializes the module back to the WebAssembly binary format.
// Sections are emitted in canonical order; empty sections are omitted.
func (m *Module) Encode() []byte {
	w := binary.NewWriter()
	w.WriteU32LE(Magic)
	w.WriteU32LE(Version)

	if len(m.Types) > 0 {
		s := binary.NewWriter()
		s.WriteU32(uint32(len(m.Types)))
		for _, t := range m.Types {
			s.Byte(t.Form)
			if t.Func != nil {
				encodeFuncType(s, t.Func)
			}
		}
		writeSection(w, SectionType, s)
	}

	if len(m.Imports) > 0 {
		s := binary.NewWriter()
		s.WriteU32(uint32(len(m.Imports)))
		for _, imp := range m.Imports {
			s.WriteName(imp.Module)
			s.WriteName(imp.Field)
			s.Byte(imp.Kind)
			switch imp.Kind {
			case KindFunc:
				s.WriteU32(imp.TypeIndex)
			case KindTable:
				encodeTableType(s, imp.Table)
			case KindMemory:
				encodeLimits(s, imp.Memory.Limits)
			case KindGlobal:
				encodeGlobalType(s, *imp.Global)
			}
		}
		writeSection(w, SectionImport, s)
	}

	if len(m.Functions) > 0 {
		s := binary.NewWriter()
		s.WriteU32(uint32(len(m.Functions)))
		for _, ti := range m.Functions {
			s.WriteU32(ti)
		}
		writeSection(w, SectionFunction, s)
	}

	if len(m.Tables) > 0 {
		s := binary.NewWriter()
		s.WriteU32(uint32(len(m.Tables)))
		for i := range m.Tables {
			encodeTableType(s, &m.Tables[i])
		}
		writeSection(w, SectionTable, s)
	}

	if len(m.Memories) > 0 {
		s := binary.NewWriter()
		s.WriteU32(uint32(len(m.Memories)))
		for _, mem := range m.Memories {
			encodeLimits(s, mem.Limits)
		}
		writeSection(w, SectionMemory, s)
	}

	if len(m.Globals) > 0 {
		s := binary.NewWriter()
		s.WriteU32(uint32(len(m.Globals)))
		for _, g := range m.Globals {
			encodeGlobalType(s, g.Type)
			s.WriteBytes(g.Init)
		}
		writeSection(w, SectionGlobal, s)
	}

	if len(m.Exports) > 0 {
		s := binary.NewWriter()
		s.WriteU32(uint32(len(m.Exports)))
		for _, e := range m.Exports {
			s.WriteName(e.Name)
			s.Byte(e.Kind)
			s.WriteU32(e.Index)
		}
		writeSection(w, SectionExport, s)
	}

	if m.Start != nil {
		s := binary.NewWriter()
		s.WriteU32(*m.Start)
		writeSection(w, SectionStart, s)
	}

	if len(m.Elements) > 0 {
		s := binary.NewWriter()
		s.WriteU32(uint32(len(m.Elements)))
		for _, e := range m.Elements {
			s.WriteU32(0)
			s.WriteBytes(e.Offset)
			s.WriteU32(uint32(len(e.FuncIdxs)))
			for _, fi := range e.FuncIdxs {
				s.WriteU32(fi)
			}
		}
		writeSection(w, SectionElement, s)
	}

	if m.DataCount != nil {
		s := binary.NewWriter()
		s.WriteU32(*m.DataCount)
		writeSection(w, SectionDataCount, s)
	}

	if len(m.Code) > 0 {
		s := binary.NewWriter()
		s.WriteU32(uint32(len(m.Code)))
		for _, body := range m.Code {
			b := binary.NewWriter()
			b.WriteU32(uint32(len(body.Locals)))
			for _, l := range body.Locals {
				b.WriteU32(l.Count)
				b.Byte(byte(l.Type))
			}
			b.WriteBytes(body.Code)
			s.WriteU32(uint32(b.Len()))
			s.WriteBytes(b.Bytes())
		}
		writeSection(w, SectionCode, s)
	}

	if len(m.Data) > 0 {
		s := binary.NewWriter()
		s.WriteU32(uint32(len(m.Data)))
		for _, seg := range m.Data {
			switch {
			case seg.Offset == nil:
				s.WriteU32(1)
			case seg.MemoryIndex != 0:
				s.WriteU32(2)
				s.WriteU32(seg.MemoryIndex)
				s.WriteBytes(seg.Offset)
			default:
				s.WriteU32(0)
				s.WriteBytes(seg.Offset)
			}
			s.WriteU32(uint32(len(seg.Data)))
			s.WriteBytes(seg.Data)
		}
		writeSection(w, SectionData, s)
	}

	for _, c := range m.Customs {
		s := binary.NewWriter()
		s.WriteName(c.Name)
		s.WriteBytes(c.Data)
		writeSection(w, SectionCustom, s)
	}

	return w.Bytes()
}

func writeSection(w *binary.Writer, id byte, payload *binary.Writer) {
	w.Byte(id)
	w.WriteU32(uint32(payload.Len()))
	w.WriteBytes(payload.Bytes())
}

func encodeFuncType(w *binary.Writer, ft *FuncType) {
	w.WriteU32(uint32(len(ft.Params)))
	for _, p := range ft.Params {
		w.Byte(byte(p))
	}
	w.WriteU32(uint32(len(ft.Results)))
	for _, r := range ft.Results {
		w.Byte(byte(r))
	}
}

func encodeLimits(w *binary.Writer, l Limits) {
	var flags byte
	if l.Max != nil {
		flags |= 0x01
	}
	if l.Shared {
		flags |= 0x02
	}
	if l.Memory64 {
		flags |= 0x04
	}
	w.Byte(flags)
	if l.Memory64 {
		w.WriteU64(l.Min)
		if l.Max != nil {
			w.WriteU64(*l.Max)
		}
	} else {
		w.WriteU32(uint32(l.Min))
		if l.Max != nil {
			w.WriteU32(uint32(*l.Max))
		}
	}
}

func encodeTableType(w *binary.Writer, t *TableType) {
	w.Byte(byte(t.ElemType))
	encodeLimits(w, t.Limits)
}

func encodeGlobalType(w *binary.Writer, g GlobalType) {
	w.Byte(byte(g.ValType))
	if g.Mutable {
		w.Byte(1)
	} else {
		w.Byte(0)
	}
}

// EncodeInstructions serializes an operator sequence back to expression
// bytecode. It supports the same immediate shapes DecodeInstructions produces
// for non-prefixed opcodes, which is enough to assemble function bodies
// programmatically.
func EncodeInstructions(ins []Instruction) []byte {
	w := binary.NewWriter()
	for i := range ins {
		encodeOne(w, &ins[i])
	}
	return w.Bytes()
}

func encodeOne(w *binary.Writer, in *Instruction) {
	w.Byte(in.Opcode)
	switch in.Opcode {
	case OpBlock, OpLoop, OpIf:
		w.WriteS64(int64(in.Block))
	case OpBr, OpBrIf, OpCall,
		OpLocalGet, OpLocalSet, OpLocalTee,
		OpGlobalGet, OpGlobalSet,
		OpTableGet, OpTableSet,
		OpRefFunc:
		w.WriteU32(in.Index)
	case OpBrTable:
		w.WriteU32(uint32(len(in.Targets) - 1))
		for _, t := range in.Targets {
			w.WriteU32(t)
		}
	case OpCallIndirect:
		w.WriteU32(in.Index)
		w.WriteU32(in.Index2)
	case OpSelectType:
		w.WriteU32(uint32(len(in.Types)))
		for _, t := range in.Types {
			w.Byte(byte(t))
		}
	case OpRefNull:
		w.Byte(byte(in.Types[0]))
	case OpI32Const:
		w.WriteS64(int64(in.I32))
	case OpI64Const:
		w.WriteS64(in.I64)
	case OpF32Const:
		var buf [4]byte
		lebinary.LittleEndian.PutUint32(buf[:], math.Float32bits(in.F32))
		w.WriteBytes(buf[:])
	case OpF64Const:
		var buf [8]byte
		lebinary.LittleEndian.PutUint64(buf[:], math.Float64bits(in.F64))
		w.WriteBytes(buf[:])
	case OpMemorySize, OpMemoryGrow:
		w.Byte(byte(in.Index))
	case OpPrefixMisc:
		w.WriteU32(in.SubOp)
	default:
		if hasMemArg(in.Opcode) {
			w.WriteU32(in.Mem.Align)
			w.WriteU32(in.Mem.Offset)
		}
	}
}
