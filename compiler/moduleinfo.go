package compiler

import (
	"github.com/wippyai/wasm-compiler/errors"
	"github.com/wippyai/wasm-compiler/wasm"
)

// ImportRef names one imported entry and its index within the import's own
// kind space.
type ImportRef struct {
	Module string
	Field  string
	Index  uint32
}

// FunctionInfo is one entry of the combined function index space.
type FunctionInfo struct {
	TypeIndex uint32
	Imported  bool
}

// ExportInfo resolves an export name to an index space entry.
type ExportInfo struct {
	Kind  byte
	Index uint32
}

// ModuleInfo is the module metadata table: an append-only record of every
// declared entity, built once per compile and read-only afterwards. Imported
// entries of each kind occupy the low indices of that kind's index space;
// local declarations continue from there.
type ModuleInfo struct {
	Types []*wasm.FuncType

	ImportedFuncs    []ImportRef
	ImportedTables   []ImportRef
	ImportedMemories []ImportRef
	ImportedGlobals  []ImportRef

	Functions []FunctionInfo
	Tables    []wasm.TableType
	Memories  []wasm.MemoryType
	Globals   []wasm.GlobalType
	Elements  []wasm.Element
	Data      []wasm.DataSegment

	Exports map[string]ExportInfo
	Start   *uint32
}

func newModuleInfo() *ModuleInfo {
	return &ModuleInfo{Exports: make(map[string]ExportInfo)}
}

// NumImportedFuncs returns the number of imported functions, which is also
// the module function index of the first local function body.
func (info *ModuleInfo) NumImportedFuncs() uint32 {
	return uint32(len(info.ImportedFuncs))
}

// FuncIndexForBody maps a code section body index to its module function
// index.
func (info *ModuleInfo) FuncIndexForBody(bodyIdx int) uint32 {
	return info.NumImportedFuncs() + uint32(bodyIdx)
}

// FuncType resolves a module function index to its signature.
func (info *ModuleInfo) FuncType(funcIdx uint32) (*wasm.FuncType, error) {
	if int(funcIdx) >= len(info.Functions) {
		return nil, errors.Internal("function index %d out of range (%d functions)", funcIdx, len(info.Functions))
	}
	ti := info.Functions[funcIdx].TypeIndex
	if int(ti) >= len(info.Types) {
		return nil, errors.Internal("type index %d out of range (%d types)", ti, len(info.Types))
	}
	return info.Types[ti], nil
}

func (info *ModuleInfo) addTypes(entries []wasm.TypeEntry) error {
	for i, e := range entries {
		if e.Form != wasm.FuncTypeByte || e.Func == nil {
			return errors.UnsupportedTypeEntry(i, e.Form)
		}
		info.Types = append(info.Types, e.Func)
	}
	return nil
}

func (info *ModuleInfo) addImports(imports []wasm.Import) error {
	for _, imp := range imports {
		switch imp.Kind {
		case wasm.KindFunc:
			info.ImportedFuncs = append(info.ImportedFuncs, ImportRef{
				Module: imp.Module,
				Field:  imp.Field,
				Index:  uint32(len(info.ImportedFuncs)),
			})
			info.Functions = append(info.Functions, FunctionInfo{TypeIndex: imp.TypeIndex, Imported: true})
		case wasm.KindTable:
			info.ImportedTables = append(info.ImportedTables, ImportRef{
				Module: imp.Module,
				Field:  imp.Field,
				Index:  uint32(len(info.ImportedTables)),
			})
			info.Tables = append(info.Tables, *imp.Table)
		case wasm.KindMemory:
			if imp.Memory.Limits.Memory64 {
				return errors.UnsupportedMemory64("import")
			}
			info.ImportedMemories = append(info.ImportedMemories, ImportRef{
				Module: imp.Module,
				Field:  imp.Field,
				Index:  uint32(len(info.ImportedMemories)),
			})
			info.Memories = append(info.Memories, *imp.Memory)
		case wasm.KindGlobal:
			info.ImportedGlobals = append(info.ImportedGlobals, ImportRef{
				Module: imp.Module,
				Field:  imp.Field,
				Index:  uint32(len(info.ImportedGlobals)),
			})
			info.Globals = append(info.Globals, *imp.Global)
		default:
			return errors.UnsupportedImport(imp.Module, imp.Field, imp.Kind)
		}
	}
	return nil
}

func (info *ModuleInfo) addFunctions(typeIndices []uint32) {
	for _, ti := range typeIndices {
		info.Functions = append(info.Functions, FunctionInfo{TypeIndex: ti})
	}
}

func (info *ModuleInfo) addTables(tables []wasm.TableType) {
	info.Tables = append(info.Tables, tables...)
}

func (info *ModuleInfo) addMemories(memories []wasm.MemoryType) error {
	for _, m := range memories {
		if m.Limits.Memory64 {
			return errors.UnsupportedMemory64("memory")
		}
		info.Memories = append(info.Memories, m)
	}
	return nil
}

func (info *ModuleInfo) addGlobals(globals []wasm.Global) {
	for _, g := range globals {
		info.Globals = append(info.Globals, g.Type)
	}
}

// addExports records exports as last-write-wins: a repeated name silently
// replaces the earlier entry.
func (info *ModuleInfo) addExports(exports []wasm.Export) error {
	for _, e := range exports {
		if e.Kind > wasm.KindGlobal {
			return errors.UnsupportedExport(e.Name, e.Kind)
		}
		info.Exports[e.Name] = ExportInfo{Kind: e.Kind, Index: e.Index}
	}
	return nil
}

func (info *ModuleInfo) addStart(idx uint32) {
	v := idx
	info.Start = &v
}

func (info *ModuleInfo) addElements(elements []wasm.Element) {
	info.Elements = append(info.Elements, elements...)
}

func (info *ModuleInfo) addData(segments []wasm.DataSegment) {
	info.Data = append(info.Data, segments...)
}
