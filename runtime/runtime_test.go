package runtime_test

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/wippyai/wasm-compiler/errors"
	"github.com/wippyai/wasm-compiler/runtime"
	"github.com/wippyai/wasm-compiler/wasm"
)

// addWasm is the binary for (module (func (export "add") (param i32 i32)
// (result i32) local.get 0 local.get 1 i32.add)).
var addWasm = []byte{
	0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00,
	0x01, 0x07, 0x01, 0x60, 0x02, 0x7F, 0x7F, 0x01, 0x7F,
	0x03, 0x02, 0x01, 0x00,
	0x07, 0x07, 0x01, 0x03, 0x61, 0x64, 0x64, 0x00, 0x00,
	0x0A, 0x09, 0x01, 0x07, 0x00, 0x20, 0x00, 0x20, 0x01, 0x6A, 0x0B,
}

func TestCompileWithValidation(t *testing.T) {
	m, err := runtime.Compile(context.Background(), addWasm, runtime.WithName("adder"))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	f, err := m.ExportedFunction("add")
	if err != nil {
		t.Fatalf("ExportedFunction: %v", err)
	}
	if f.Name() != "func_0" {
		t.Errorf("exported function = %q", f.Name())
	}
	if !strings.Contains(m.IR().String(), "define i32 @func_0(i32 %p0, i32 %p1)") {
		t.Errorf("IR missing compiled function:\n%s", m.IR().String())
	}
}

func TestCompileRejectsInvalidModule(t *testing.T) {
	// Type-invalid body: i32.add on an empty stack. wazero catches it before
	// lowering starts.
	bad := &wasm.Module{
		Types:     []wasm.TypeEntry{{Form: wasm.FuncTypeByte, Func: &wasm.FuncType{}}},
		Functions: []uint32{0},
		Code:      []wasm.FuncBody{{Code: []byte{wasm.OpI32Add, wasm.OpEnd}}},
	}
	_, err := runtime.Compile(context.Background(), bad.Encode())
	if err == nil {
		t.Fatal("expected validation error")
	}
	var cerr *errors.Error
	if !stderrors.As(err, &cerr) {
		t.Fatalf("error type = %T", err)
	}
	if cerr.Phase != errors.PhaseParse {
		t.Errorf("phase = %s", cerr.Phase)
	}
}

func TestExportedFunctionErrors(t *testing.T) {
	m, err := runtime.Compile(context.Background(), addWasm)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if _, err := m.ExportedFunction("missing"); err == nil {
		t.Error("expected error for unknown export")
	}
}

func TestInstantiateResolvesImports(t *testing.T) {
	now := wasm.FuncType{Results: []wasm.ValType{wasm.ValI64}}
	mod := &wasm.Module{
		Types: []wasm.TypeEntry{{Form: wasm.FuncTypeByte, Func: &now}},
		Imports: []wasm.Import{
			{Module: "env", Field: "now", Kind: wasm.KindFunc, TypeIndex: 0},
		},
		Functions: []uint32{0},
		Code:      []wasm.FuncBody{{Code: []byte{wasm.OpI64Const, 1, wasm.OpEnd}}},
	}
	m, err := runtime.Compile(context.Background(), mod.Encode(), runtime.WithValidation(false))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	// Missing import, then resolved import.
	_, err = m.Instantiate(nil)
	if err == nil {
		t.Fatal("expected missing import error")
	}
	var cerr *errors.Error
	if !stderrors.As(err, &cerr) || cerr.Kind != errors.KindNotFound {
		t.Fatalf("error = %v", err)
	}
	if !strings.Contains(err.Error(), "env.now") {
		t.Errorf("error does not name the import: %v", err)
	}

	inst, err := m.Instantiate(runtime.NewImports().Func("env", "now", &now))
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}
	st := inst.Store()
	if len(st.Functions) != 2 {
		t.Fatalf("function space = %d entries", len(st.Functions))
	}
	if !st.Functions[0].Host || st.Functions[0].Field != "now" {
		t.Errorf("Functions[0] = %+v", st.Functions[0])
	}
	if st.Functions[1].Host || st.Functions[1].Compiled == nil {
		t.Errorf("Functions[1] = %+v", st.Functions[1])
	}
}

func TestInstantiateRejectsSignatureMismatch(t *testing.T) {
	declared := wasm.FuncType{Results: []wasm.ValType{wasm.ValI64}}
	mod := &wasm.Module{
		Types: []wasm.TypeEntry{{Form: wasm.FuncTypeByte, Func: &declared}},
		Imports: []wasm.Import{
			{Module: "env", Field: "now", Kind: wasm.KindFunc, TypeIndex: 0},
		},
	}
	m, err := runtime.Compile(context.Background(), mod.Encode(), runtime.WithValidation(false))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	wrong := wasm.FuncType{Results: []wasm.ValType{wasm.ValI32}}
	if _, err := m.Instantiate(runtime.NewImports().Func("env", "now", &wrong)); err == nil {
		t.Error("expected signature mismatch error")
	}
}

func TestInstantiateMemoryAndData(t *testing.T) {
	mod := &wasm.Module{
		Memories: []wasm.MemoryType{{Limits: wasm.Limits{Min: 1}}},
		Data: []wasm.DataSegment{
			{Offset: []byte{wasm.OpI32Const, 8, wasm.OpEnd}, Data: []byte("hello")},
		},
	}
	m, err := runtime.Compile(context.Background(), mod.Encode(), runtime.WithValidation(false))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	inst, err := m.Instantiate(nil)
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}
	mem := inst.Store().Memories[0]
	if len(mem.Data) != runtime.PageSize {
		t.Errorf("memory size = %d", len(mem.Data))
	}
	if got := string(mem.Data[8:13]); got != "hello" {
		t.Errorf("data segment = %q", got)
	}
}

func TestInstantiateGlobalsAndElements(t *testing.T) {
	mod := &wasm.Module{
		Types:     []wasm.TypeEntry{{Form: wasm.FuncTypeByte, Func: &wasm.FuncType{}}},
		Functions: []uint32{0},
		Tables: []wasm.TableType{
			{ElemType: wasm.ValFuncRef, Limits: wasm.Limits{Min: 4}},
		},
		Globals: []wasm.Global{
			{Type: wasm.GlobalType{ValType: wasm.ValI32, Mutable: true}, Init: []byte{wasm.OpI32Const, 42, wasm.OpEnd}},
		},
		Elements: []wasm.Element{
			{Offset: []byte{wasm.OpI32Const, 1, wasm.OpEnd}, FuncIdxs: []uint32{0}},
		},
		Code: []wasm.FuncBody{{Code: []byte{wasm.OpEnd}}},
	}
	m, err := runtime.Compile(context.Background(), mod.Encode(), runtime.WithValidation(false))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	inst, err := m.Instantiate(nil)
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}
	st := inst.Store()
	if st.Globals[0].Value != 42 {
		t.Errorf("global value = %d", st.Globals[0].Value)
	}
	tbl := st.Tables[0]
	if tbl.Elems[0] != ^uint32(0) {
		t.Errorf("unset element = %d", tbl.Elems[0])
	}
	if tbl.Elems[1] != 0 {
		t.Errorf("element segment not applied: %v", tbl.Elems)
	}
	if _, ok := inst.StartFunction(); ok {
		t.Error("no start function was declared")
	}
}
