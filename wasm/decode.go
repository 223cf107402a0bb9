package wasm

import (
	stderrors "errors"
	"fmt"
	"io"

	"github.com/wippyai/wasm-compiler/errors"
	"github.com/wippyai/wasm-compiler/wasm/internal/binary"
)

// ParseModule decodes a WebAssembly binary into a Module. Non-custom sections
// must appear in increasing section ID order. The decode is structural: it
// splits the binary into typed section contents but does not validate operator
// streams or index references.
func ParseModule(data []byte) (*Module, error) {
	r := binary.NewReader(data)

	magic, err := r.ReadU32LE()
	if err != nil {
		return nil, r.WrapError("header", err)
	}
	if magic != Magic {
		return nil, r.WrapError("header", fmt.Errorf("bad magic 0x%08X", magic))
	}
	version, err := r.ReadU32LE()
	if err != nil {
		return nil, r.WrapError("header", err)
	}
	if version != Version {
		return nil, r.WrapError("header", fmt.Errorf("unsupported version %d", version))
	}

	m := &Module{}
	lastID := byte(0)
	for {
		id, err := r.ReadByte()
		if stderrors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, r.WrapError("section", err)
		}
		size, err := r.ReadU32()
		if err != nil {
			return nil, r.WrapError("section", err)
		}
		payload, err := r.ReadBytes(int(size))
		if err != nil {
			return nil, r.WrapError(sectionName(id), err)
		}

		if id != SectionCustom {
			if id <= lastID {
				return nil, r.WrapError(sectionName(id), fmt.Errorf("section out of order after %s", sectionName(lastID)))
			}
			if id > SectionDataCount {
				return nil, errors.UnsupportedSection(sectionName(id))
			}
			lastID = id
		}

		sr := binary.NewReader(payload)
		switch id {
		case SectionCustom:
			err = m.parseCustom(sr)
		case SectionType:
			err = m.parseTypes(sr)
		case SectionImport:
			err = m.parseImports(sr)
		case SectionFunction:
			err = m.parseFunctions(sr)
		case SectionTable:
			err = m.parseTables(sr)
		case SectionMemory:
			err = m.parseMemories(sr)
		case SectionGlobal:
			err = m.parseGlobals(sr)
		case SectionExport:
			err = m.parseExports(sr)
		case SectionStart:
			err = m.parseStart(sr)
		case SectionElement:
			err = m.parseElements(sr)
		case SectionCode:
			err = m.parseCode(sr)
		case SectionData:
			err = m.parseData(sr)
		case SectionDataCount:
			err = m.parseDataCount(sr)
		}
		if err != nil {
			return nil, sr.WrapError(sectionName(id), err)
		}
	}

	if len(m.Functions) != len(m.Code) {
		return nil, fmt.Errorf("wasm: function section declares %d bodies, code section has %d", len(m.Functions), len(m.Code))
	}
	return m, nil
}

func sectionName(id byte) string {
	switch id {
	case SectionCustom:
		return "custom"
	case SectionType:
		return "type"
	case SectionImport:
		return "import"
	case SectionFunction:
		return "function"
	case SectionTable:
		return "table"
	case SectionMemory:
		return "memory"
	case SectionGlobal:
		return "global"
	case SectionExport:
		return "export"
	case SectionStart:
		return "start"
	case SectionElement:
		return "element"
	case SectionCode:
		return "code"
	case SectionData:
		return "data"
	case SectionDataCount:
		return "datacount"
	default:
		return fmt.Sprintf("section(%d)", id)
	}
}

func (m *Module) parseCustom(r *binary.Reader) error {
	name, err := r.ReadName()
	if err != nil {
		return err
	}
	data, err := r.ReadRemaining()
	if err != nil {
		return err
	}
	m.Customs = append(m.Customs, CustomSection{Name: name, Data: data})
	return nil
}

func (m *Module) parseTypes(r *binary.Reader) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	m.Types = make([]TypeEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		form, err := r.ReadByte()
		if err != nil {
			return err
		}
		if form != FuncTypeByte {
			// Non-function forms carry GC payloads this decoder cannot split;
			// the entry is recorded with a nil signature and decoding stops if
			// anything follows it in this section.
			m.Types = append(m.Types, TypeEntry{Form: form})
			if i+1 < count {
				return fmt.Errorf("type entry %d has non-function form 0x%02X followed by more entries", i, form)
			}
			return nil
		}
		ft, err := parseFuncType(r)
		if err != nil {
			return err
		}
		m.Types = append(m.Types, TypeEntry{Form: form, Func: ft})
	}
	return nil
}

func parseFuncType(r *binary.Reader) (*FuncType, error) {
	nparams, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	ft := &FuncType{Params: make([]ValType, nparams)}
	for i := range ft.Params {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		ft.Params[i] = ValType(b)
	}
	nresults, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	ft.Results = make([]ValType, nresults)
	for i := range ft.Results {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		ft.Results[i] = ValType(b)
	}
	return ft, nil
}

func parseLimits(r *binary.Reader) (Limits, error) {
	flags, err := r.ReadByte()
	if err != nil {
		return Limits{}, err
	}
	var l Limits
	l.Shared = flags&0x02 != 0
	l.Memory64 = flags&0x04 != 0
	if l.Memory64 {
		l.Min, err = r.ReadU64()
	} else {
		var v uint32
		v, err = r.ReadU32()
		l.Min = uint64(v)
	}
	if err != nil {
		return Limits{}, err
	}
	if flags&0x01 != 0 {
		var max uint64
		if l.Memory64 {
			max, err = r.ReadU64()
		} else {
			var v uint32
			v, err = r.ReadU32()
			max = uint64(v)
		}
		if err != nil {
			return Limits{}, err
		}
		l.Max = &max
	}
	return l, nil
}

func parseTableType(r *binary.Reader) (TableType, error) {
	elem, err := r.ReadByte()
	if err != nil {
		return TableType{}, err
	}
	limits, err := parseLimits(r)
	if err != nil {
		return TableType{}, err
	}
	return TableType{ElemType: ValType(elem), Limits: limits}, nil
}

func parseGlobalType(r *binary.Reader) (GlobalType, error) {
	vt, err := r.ReadByte()
	if err != nil {
		return GlobalType{}, err
	}
	mut, err := r.ReadByte()
	if err != nil {
		return GlobalType{}, err
	}
	if mut > 1 {
		return GlobalType{}, fmt.Errorf("invalid mutability flag 0x%02X", mut)
	}
	return GlobalType{ValType: ValType(vt), Mutable: mut == 1}, nil
}

// parseConstExpr reads a constant initializer expression up to and including
// its terminating end opcode, returning the raw bytes.
func parseConstExpr(r *binary.Reader) ([]byte, error) {
	start := r.Position()
	for {
		op, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		switch op {
		case OpEnd:
			end := r.Position()
			if err := r.Reset(start); err != nil {
				return nil, err
			}
			return r.ReadBytes(end - start)
		case OpI32Const:
			if _, err := r.ReadS32(); err != nil {
				return nil, err
			}
		case OpI64Const:
			if _, err := r.ReadS64(); err != nil {
				return nil, err
			}
		case OpF32Const:
			if _, err := r.ReadBytes(4); err != nil {
				return nil, err
			}
		case OpF64Const:
			if _, err := r.ReadBytes(8); err != nil {
				return nil, err
			}
		case OpGlobalGet, OpRefFunc:
			if _, err := r.ReadU32(); err != nil {
				return nil, err
			}
		case OpRefNull:
			if _, err := r.ReadByte(); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("unexpected opcode %s in constant expression", OpcodeName(op))
		}
	}
}

func (m *Module) parseImports(r *binary.Reader) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	m.Imports = make([]Import, 0, count)
	for i := uint32(0); i < count; i++ {
		module, err := r.ReadName()
		if err != nil {
			return err
		}
		field, err := r.ReadName()
		if err != nil {
			return err
		}
		kind, err := r.ReadByte()
		if err != nil {
			return err
		}
		imp := Import{Module: module, Field: field, Kind: kind}
		switch kind {
		case KindFunc:
			imp.TypeIndex, err = r.ReadU32()
		case KindTable:
			var tt TableType
			tt, err = parseTableType(r)
			imp.Table = &tt
		case KindMemory:
			var l Limits
			l, err = parseLimits(r)
			imp.Memory = &MemoryType{Limits: l}
		case KindGlobal:
			var gt GlobalType
			gt, err = parseGlobalType(r)
			imp.Global = &gt
		default:
			return fmt.Errorf("import %q.%q has unknown kind 0x%02X", module, field, kind)
		}
		if err != nil {
			return err
		}
		m.Imports = append(m.Imports, imp)
	}
	return nil
}

func (m *Module) parseFunctions(r *binary.Reader) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	m.Functions = make([]uint32, count)
	for i := range m.Functions {
		m.Functions[i], err = r.ReadU32()
		if err != nil {
			return err
		}
	}
	return nil
}

func (m *Module) parseTables(r *binary.Reader) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	m.Tables = make([]TableType, count)
	for i := range m.Tables {
		m.Tables[i], err = parseTableType(r)
		if err != nil {
			return err
		}
	}
	return nil
}

func (m *Module) parseMemories(r *binary.Reader) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	m.Memories = make([]MemoryType, count)
	for i := range m.Memories {
		limits, err := parseLimits(r)
		if err != nil {
			return err
		}
		m.Memories[i] = MemoryType{Limits: limits}
	}
	return nil
}

func (m *Module) parseGlobals(r *binary.Reader) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	m.Globals = make([]Global, count)
	for i := range m.Globals {
		gt, err := parseGlobalType(r)
		if err != nil {
			return err
		}
		init, err := parseConstExpr(r)
		if err != nil {
			return err
		}
		m.Globals[i] = Global{Type: gt, Init: init}
	}
	return nil
}

func (m *Module) parseExports(r *binary.Reader) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	m.Exports = make([]Export, count)
	for i := range m.Exports {
		name, err := r.ReadName()
		if err != nil {
			return err
		}
		kind, err := r.ReadByte()
		if err != nil {
			return err
		}
		index, err := r.ReadU32()
		if err != nil {
			return err
		}
		m.Exports[i] = Export{Name: name, Kind: kind, Index: index}
	}
	return nil
}

func (m *Module) parseStart(r *binary.Reader) error {
	idx, err := r.ReadU32()
	if err != nil {
		return err
	}
	m.Start = &idx
	return nil
}

func (m *Module) parseElements(r *binary.Reader) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	m.Elements = make([]Element, count)
	for i := range m.Elements {
		flags, err := r.ReadU32()
		if err != nil {
			return err
		}
		if flags != 0 {
			return fmt.Errorf("element segment %d uses flags %d, only active funcref segments are supported", i, flags)
		}
		offset, err := parseConstExpr(r)
		if err != nil {
			return err
		}
		n, err := r.ReadU32()
		if err != nil {
			return err
		}
		idxs := make([]uint32, n)
		for j := range idxs {
			idxs[j], err = r.ReadU32()
			if err != nil {
				return err
			}
		}
		m.Elements[i] = Element{TableIndex: 0, Offset: offset, FuncIdxs: idxs}
	}
	return nil
}

func (m *Module) parseCode(r *binary.Reader) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	m.Code = make([]FuncBody, count)
	for i := range m.Code {
		size, err := r.ReadU32()
		if err != nil {
			return err
		}
		body, err := r.ReadBytes(int(size))
		if err != nil {
			return err
		}
		fb, err := parseFuncBody(body)
		if err != nil {
			return fmt.Errorf("body %d: %w", i, err)
		}
		m.Code[i] = fb
	}
	return nil
}

func parseFuncBody(body []byte) (FuncBody, error) {
	r := binary.NewReader(body)
	ngroups, err := r.ReadU32()
	if err != nil {
		return FuncBody{}, err
	}
	locals := make([]LocalEntry, ngroups)
	var total uint64
	for i := range locals {
		count, err := r.ReadU32()
		if err != nil {
			return FuncBody{}, err
		}
		vt, err := r.ReadByte()
		if err != nil {
			return FuncBody{}, err
		}
		total += uint64(count)
		if total > 1<<20 {
			return FuncBody{}, fmt.Errorf("too many locals (%d)", total)
		}
		locals[i] = LocalEntry{Count: count, Type: ValType(vt)}
	}
	code, err := r.ReadRemaining()
	if err != nil {
		return FuncBody{}, err
	}
	if len(code) == 0 || code[len(code)-1] != OpEnd {
		return FuncBody{}, stderrors.New("body does not end with end opcode")
	}
	return FuncBody{Locals: locals, Code: code}, nil
}

func (m *Module) parseData(r *binary.Reader) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	m.Data = make([]DataSegment, count)
	for i := range m.Data {
		flags, err := r.ReadU32()
		if err != nil {
			return err
		}
		var seg DataSegment
		switch flags {
		case 0:
			seg.Offset, err = parseConstExpr(r)
		case 1:
			// passive
		case 2:
			seg.MemoryIndex, err = r.ReadU32()
			if err != nil {
				return err
			}
			seg.Offset, err = parseConstExpr(r)
		default:
			return fmt.Errorf("data segment %d has unknown flags %d", i, flags)
		}
		if err != nil {
			return err
		}
		n, err := r.ReadU32()
		if err != nil {
			return err
		}
		seg.Data, err = r.ReadBytes(int(n))
		if err != nil {
			return err
		}
		m.Data[i] = seg
	}
	return nil
}

func (m *Module) parseDataCount(r *binary.Reader) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	m.DataCount = &count
	return nil
}
