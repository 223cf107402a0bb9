package wasm

import "fmt"

// ValType is a WebAssembly value type encoding.
type ValType byte

// String returns the text format name of the value type.
func (v ValType) String() string {
	switch v {
	case ValI32:
		return "i32"
	case ValI64:
		return "i64"
	case ValF32:
		return "f32"
	case ValF64:
		return "f64"
	case ValV128:
		return "v128"
	case ValFuncRef:
		return "funcref"
	case ValExtern:
		return "externref"
	default:
		return fmt.Sprintf("valtype(0x%02X)", byte(v))
	}
}

// IsNum reports whether the value type is one of the four core numeric types.
func (v ValType) IsNum() bool {
	switch v {
	case ValI32, ValI64, ValF32, ValF64:
		return true
	}
	return false
}

// FuncType is a function signature: parameter and result value types.
type FuncType struct {
	Params  []ValType
	Results []ValType
}

// String renders the signature in a compact text form, e.g. "(i32, i32) -> i64".
func (ft *FuncType) String() string {
	s := "("
	for i, p := range ft.Params {
		if i > 0 {
			s += ", "
		}
		s += p.String()
	}
	s += ") -> "
	switch len(ft.Results) {
	case 0:
		s += "()"
	case 1:
		s += ft.Results[0].String()
	default:
		s += "("
		for i, r := range ft.Results {
			if i > 0 {
				s += ", "
			}
			s += r.String()
		}
		s += ")"
	}
	return s
}

// Equal reports whether two signatures have identical params and results.
func (ft *FuncType) Equal(other *FuncType) bool {
	if len(ft.Params) != len(other.Params) || len(ft.Results) != len(other.Results) {
		return false
	}
	for i, p := range ft.Params {
		if other.Params[i] != p {
			return false
		}
	}
	for i, r := range ft.Results {
		if other.Results[i] != r {
			return false
		}
	}
	return true
}

// TypeEntry is one entry of the type section. The Form tag is preserved so
// consumers can reject entries that are not plain function types. Func is nil
// when Form is not FuncTypeByte.
type TypeEntry struct {
	Form byte
	Func *FuncType
}

// Limits describe the size bounds of a memory or table. Max is nil when no
// maximum was encoded. Shared and Memory64 reflect the limits flag bits.
type Limits struct {
	Min      uint64
	Max      *uint64
	Shared   bool
	Memory64 bool
}

// TableType describes a table: its element reference type and limits.
type TableType struct {
	ElemType ValType
	Limits   Limits
}

// MemoryType describes a linear memory.
type MemoryType struct {
	Limits Limits
}

// GlobalType describes a global variable: its value type and mutability.
type GlobalType struct {
	ValType ValType
	Mutable bool
}

// Global is a global section entry: its type and the constant initializer
// expression, kept as raw bytecode terminated by an end opcode.
type Global struct {
	Type GlobalType
	Init []byte
}

// Import is one import section entry. Exactly one of the descriptor fields is
// set, selected by Kind.
type Import struct {
	Module string
	Field  string
	Kind   byte

	TypeIndex uint32      // Kind == KindFunc
	Table     *TableType  // Kind == KindTable
	Memory    *MemoryType // Kind == KindMemory
	Global    *GlobalType // Kind == KindGlobal
}

// Export is one export section entry. Index refers into the index space
// selected by Kind.
type Export struct {
	Name  string
	Kind  byte
	Index uint32
}

// Element is an element section entry in its simplest active form: function
// indices placed into table 0 at a constant offset.
type Element struct {
	TableIndex uint32
	Offset     []byte // constant expression, end-terminated
	FuncIdxs   []uint32
}

// DataSegment is a data section entry: bytes placed into memory at a constant
// offset. Passive segments have a nil Offset.
type DataSegment struct {
	MemoryIndex uint32
	Offset      []byte // constant expression, end-terminated; nil if passive
	Data        []byte
}

// LocalEntry is one run-length group of a function body's local declarations:
// Count consecutive locals of the same type.
type LocalEntry struct {
	Count uint32
	Type  ValType
}

// FuncBody is one code section entry: local declarations followed by the raw
// expression bytecode (including the trailing end opcode).
type FuncBody struct {
	Locals []LocalEntry
	Code   []byte
}

// NumLocals returns the total declared local count across all run-length
// groups, not counting parameters.
func (b *FuncBody) NumLocals() uint32 {
	var n uint32
	for _, e := range b.Locals {
		n += e.Count
	}
	return n
}

// CustomSection is a custom section's name and raw payload.
type CustomSection struct {
	Name string
	Data []byte
}

// Module is a decoded WebAssembly module. Slice fields are nil when the
// corresponding section is absent.
type Module struct {
	Types     []TypeEntry
	Imports   []Import
	Functions []uint32 // type indices, one per local function body
	Tables    []TableType
	Memories  []MemoryType
	Globals   []Global
	Exports   []Export
	Start     *uint32
	Elements  []Element
	Code      []FuncBody
	Data      []DataSegment
	DataCount *uint32
	Customs   []CustomSection
}

// NumImportedFuncs returns the number of function imports. Local function
// bodies occupy module function indices starting at this offset.
func (m *Module) NumImportedFuncs() uint32 {
	var n uint32
	for _, imp := range m.Imports {
		if imp.Kind == KindFunc {
			n++
		}
	}
	return n
}

// FuncTypeAt resolves the signature of the module function at the given index
// in the combined import-then-local function index space.
func (m *Module) FuncTypeAt(funcIdx uint32) (*FuncType, error) {
	var seen uint32
	for _, imp := range m.Imports {
		if imp.Kind != KindFunc {
			continue
		}
		if seen == funcIdx {
			return m.typeAt(imp.TypeIndex)
		}
		seen++
	}
	local := funcIdx - seen
	if int(local) >= len(m.Functions) {
		return nil, fmt.Errorf("function index %d out of range", funcIdx)
	}
	return m.typeAt(m.Functions[local])
}

func (m *Module) typeAt(typeIdx uint32) (*FuncType, error) {
	if int(typeIdx) >= len(m.Types) {
		return nil, fmt.Errorf("type index %d out of range", typeIdx)
	}
	entry := m.Types[typeIdx]
	if entry.Func == nil {
		return nil, fmt.Errorf("type index %d is not a function type (form 0x%02X)", typeIdx, entry.Form)
	}
	return entry.Func, nil
}
