package compiler_test

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/wippyai/wasm-compiler/compiler"
	"github.com/wippyai/wasm-compiler/errors"
	"github.com/wippyai/wasm-compiler/ir"
	"github.com/wippyai/wasm-compiler/wasm"
)

// oneFunc builds a module with a single local function.
func oneFunc(ft wasm.FuncType, locals []wasm.LocalEntry, code []byte) *wasm.Module {
	return &wasm.Module{
		Types:     []wasm.TypeEntry{{Form: wasm.FuncTypeByte, Func: &ft}},
		Functions: []uint32{0},
		Code:      []wasm.FuncBody{{Locals: locals, Code: code}},
	}
}

func compileOne(t *testing.T, m *wasm.Module) (*compiler.ModuleInfo, *ir.Module) {
	t.Helper()
	info, mod, err := compiler.Compile(m)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return info, mod
}

func irText(t *testing.T, m *wasm.Module) string {
	t.Helper()
	_, mod := compileOne(t, m)
	return mod.String()
}

func wantLines(t *testing.T, text string, wants ...string) {
	t.Helper()
	for _, w := range wants {
		if !strings.Contains(text, w) {
			t.Errorf("IR missing %q:\n%s", w, text)
		}
	}
}

func TestCompileAdd(t *testing.T) {
	text := irText(t, oneFunc(
		wasm.FuncType{Params: []wasm.ValType{wasm.ValI32, wasm.ValI32}, Results: []wasm.ValType{wasm.ValI32}},
		nil,
		[]byte{
			wasm.OpLocalGet, 0,
			wasm.OpLocalGet, 1,
			wasm.OpI32Add,
			wasm.OpEnd,
		},
	))
	wantLines(t, text,
		"define i32 @func_0(i32 %p0, i32 %p1)",
		"%arg0 = alloca i32",
		"store i32 %p0, ptr %arg0",
		"= load i32, ptr %arg0",
		"= add i32",
		"ret i32",
	)
}

func TestLocalIndexSpaceAcrossGroups(t *testing.T) {
	// Two params plus locals declared as (2, i32), (1, f64): indices 2 and 3
	// are i32 slots, index 4 is the f64 slot, regardless of grouping.
	text := irText(t, oneFunc(
		wasm.FuncType{Params: []wasm.ValType{wasm.ValI64, wasm.ValI64}, Results: []wasm.ValType{wasm.ValF64}},
		[]wasm.LocalEntry{{Count: 2, Type: wasm.ValI32}, {Count: 1, Type: wasm.ValF64}},
		[]byte{
			wasm.OpLocalGet, 4,
			wasm.OpEnd,
		},
	))
	wantLines(t, text,
		"%loc2 = alloca i32",
		"%loc3 = alloca i32",
		"%loc4 = alloca f64",
		"store f64 0, ptr %loc4",
		"= load f64, ptr %loc4",
		"ret f64",
	)
}

func TestLocalSetAndTee(t *testing.T) {
	text := irText(t, oneFunc(
		wasm.FuncType{Results: []wasm.ValType{wasm.ValI32}},
		[]wasm.LocalEntry{{Count: 2, Type: wasm.ValI32}},
		[]byte{
			wasm.OpI32Const, 7,
			wasm.OpLocalSet, 0,
			wasm.OpI32Const, 9,
			wasm.OpLocalTee, 1, // stores without popping
			wasm.OpEnd,
		},
	))
	wantLines(t, text,
		"store i32 7, ptr %loc0",
		"store i32 9, ptr %loc1",
		"ret i32 9",
	)
}

func TestBranchTargets(t *testing.T) {
	// br 0 inside a loop re-enters the loop; br 0 inside a block exits it.
	loopText := irText(t, oneFunc(
		wasm.FuncType{},
		nil,
		[]byte{
			wasm.OpLoop, 0x40,
			wasm.OpBr, 0,
			wasm.OpEnd,
			wasm.OpEnd,
		},
	))
	wantLines(t, loopText, "loop0:", "br label %loop0")

	blockText := irText(t, oneFunc(
		wasm.FuncType{},
		nil,
		[]byte{
			wasm.OpBlock, 0x40,
			wasm.OpBr, 0,
			wasm.OpEnd,
			wasm.OpEnd,
		},
	))
	wantLines(t, blockText, "br label %block0.end", "block0.end:")
}

func TestBranchDepthSkipsOneLevel(t *testing.T) {
	// br 1 from inside block1 (nested in block0) exits block0.
	text := irText(t, oneFunc(
		wasm.FuncType{},
		nil,
		[]byte{
			wasm.OpBlock, 0x40,
			wasm.OpBlock, 0x40,
			wasm.OpBr, 1,
			wasm.OpEnd,
			wasm.OpEnd,
			wasm.OpEnd,
		},
	))
	wantLines(t, text, "br label %block0.end")
	if strings.Contains(strings.SplitN(text, "block1.end:", 2)[0], "br label %block1.end\n  br") {
		t.Errorf("unexpected double terminator:\n%s", text)
	}
}

func TestIfElseLowering(t *testing.T) {
	text := irText(t, oneFunc(
		wasm.FuncType{Params: []wasm.ValType{wasm.ValI32}, Results: []wasm.ValType{wasm.ValI32}},
		nil,
		[]byte{
			wasm.OpLocalGet, 0,
			wasm.OpIf, 0x7F,
			wasm.OpI32Const, 1,
			wasm.OpElse,
			wasm.OpI32Const, 2,
			wasm.OpEnd,
			wasm.OpEnd,
		},
	))
	wantLines(t, text,
		"label %if0.then, label %if0.else",
		"if0.then:",
		"if0.else:",
		"if0.end:",
	)
}

func TestResultPacking(t *testing.T) {
	tests := []struct {
		name    string
		results []wasm.ValType
		code    []byte
		want    []string
	}{
		{
			name:    "zero results return void",
			results: nil,
			code:    []byte{wasm.OpNop, wasm.OpEnd},
			want:    []string{"define void @func_0()", "ret void"},
		},
		{
			name:    "one result returns the value",
			results: []wasm.ValType{wasm.ValI64},
			code:    []byte{wasm.OpI64Const, 3, wasm.OpEnd},
			want:    []string{"define i64 @func_0()", "ret i64 3"},
		},
		{
			name:    "two results pack an aggregate",
			results: []wasm.ValType{wasm.ValI32, wasm.ValI64},
			code:    []byte{wasm.OpI32Const, 1, wasm.OpI64Const, 2, wasm.OpEnd},
			want: []string{
				"define {i32, i64} @func_0()",
				"%ret = alloca {i32, i64}",
				"fieldptr {i32, i64}, ptr %ret, 0",
				"fieldptr {i32, i64}, ptr %ret, 1",
				"%packed = load {i32, i64}, ptr %ret",
				"ret {i32, i64} %packed",
			},
		},
		{
			name:    "three results keep declaration order",
			results: []wasm.ValType{wasm.ValI32, wasm.ValF32, wasm.ValF64},
			code: []byte{
				wasm.OpI32Const, 1,
				wasm.OpF32Const, 0, 0, 0x80, 0x3F, // 1.0
				wasm.OpF64Const, 0, 0, 0, 0, 0, 0, 0, 0x40, // 2.0
				wasm.OpEnd,
			},
			want: []string{
				"define {i32, f32, f64} @func_0()",
				"fieldptr {i32, f32, f64}, ptr %ret, 2",
				"store f64 2, ptr",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := irText(t, oneFunc(wasm.FuncType{Results: tt.results}, nil, tt.code))
			wantLines(t, text, tt.want...)
		})
	}
}

func TestExplicitReturnTerminatesBlock(t *testing.T) {
	// Operators after return are dead; no second terminator is emitted.
	text := irText(t, oneFunc(
		wasm.FuncType{Results: []wasm.ValType{wasm.ValI32}},
		nil,
		[]byte{
			wasm.OpI32Const, 5,
			wasm.OpReturn,
			wasm.OpI32Const, 6,
			wasm.OpEnd,
		},
	))
	if got := strings.Count(text, "ret i32"); got != 1 {
		t.Errorf("ret count = %d, want 1:\n%s", got, text)
	}
	wantLines(t, text, "ret i32 5")
}

func TestAllPathsReturnEarly(t *testing.T) {
	// When every path returns inside control flow, the implicit function end
	// sees an empty operand stack and an unreachable fall-through block; it
	// must close that block instead of demanding result values.
	tests := []struct {
		name string
		ft   wasm.FuncType
		code []byte
		rets []string
	}{
		{
			name: "both if arms return",
			ft:   wasm.FuncType{Params: []wasm.ValType{wasm.ValI32}, Results: []wasm.ValType{wasm.ValI32}},
			code: []byte{
				wasm.OpLocalGet, 0,
				wasm.OpIf, 0x7F,
				wasm.OpI32Const, 1,
				wasm.OpReturn,
				wasm.OpElse,
				wasm.OpI32Const, 2,
				wasm.OpReturn,
				wasm.OpEnd,
				wasm.OpEnd,
			},
			rets: []string{"ret i32 1", "ret i32 2"},
		},
		{
			name: "return inside block",
			ft:   wasm.FuncType{Results: []wasm.ValType{wasm.ValI32}},
			code: []byte{
				wasm.OpBlock, 0x7F,
				wasm.OpI32Const, 5,
				wasm.OpReturn,
				wasm.OpEnd,
				wasm.OpEnd,
			},
			rets: []string{"ret i32 5"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := irText(t, oneFunc(tt.ft, nil, tt.code))
			if got := strings.Count(text, "ret i32"); got != len(tt.rets) {
				t.Errorf("ret count = %d, want %d:\n%s", got, len(tt.rets), text)
			}
			wantLines(t, text, append(tt.rets, "unreachable")...)
		})
	}
}

func TestImportIndexOffset(t *testing.T) {
	i64type := wasm.FuncType{Results: []wasm.ValType{wasm.ValI64}}
	m := &wasm.Module{
		Types: []wasm.TypeEntry{
			{Form: wasm.FuncTypeByte, Func: &i64type},
			{Form: wasm.FuncTypeByte, Func: &wasm.FuncType{Results: []wasm.ValType{wasm.ValI32}}},
		},
		Imports: []wasm.Import{
			{Module: "env", Field: "a", Kind: wasm.KindFunc, TypeIndex: 0},
			{Module: "env", Field: "b", Kind: wasm.KindFunc, TypeIndex: 0},
		},
		Functions: []uint32{1},
		Code: []wasm.FuncBody{
			{Code: []byte{wasm.OpI32Const, 1, wasm.OpEnd}},
		},
	}
	info, mod := compileOne(t, m)

	// Body 0 occupies module function index 2, after the two imports.
	if got := info.FuncIndexForBody(0); got != 2 {
		t.Errorf("FuncIndexForBody(0) = %d, want 2", got)
	}
	ft, err := info.FuncType(2)
	if err != nil {
		t.Fatalf("FuncType(2): %v", err)
	}
	if ft.String() != "() -> i32" {
		t.Errorf("func 2 signature = %q", ft.String())
	}
	if mod.FuncByName("func_0") == nil {
		t.Error("compiled function func_0 missing")
	}
}

func TestIntrinsicDeduplication(t *testing.T) {
	// Two functions both using i32.clz share a single ctlz.i32 declaration.
	ft := wasm.FuncType{Params: []wasm.ValType{wasm.ValI32}, Results: []wasm.ValType{wasm.ValI32}}
	body := wasm.FuncBody{Code: []byte{wasm.OpLocalGet, 0, wasm.OpI32Clz, wasm.OpEnd}}
	m := &wasm.Module{
		Types:     []wasm.TypeEntry{{Form: wasm.FuncTypeByte, Func: &ft}},
		Functions: []uint32{0, 0},
		Code:      []wasm.FuncBody{body, body},
	}
	_, mod := compileOne(t, m)

	var decls int
	for _, f := range mod.Funcs() {
		if f.IsDeclaration() && f.Name() == "ctlz.i32" {
			decls++
		}
	}
	if decls != 1 {
		t.Errorf("ctlz.i32 declared %d times, want 1", decls)
	}
	if got := strings.Count(mod.String(), "call i32 @ctlz.i32"); got != 2 {
		t.Errorf("call site count = %d, want 2:\n%s", got, mod.String())
	}
}

func TestIntrinsicLowering(t *testing.T) {
	tests := []struct {
		name string
		ft   wasm.FuncType
		code []byte
		want string
	}{
		{
			name: "rotl lowers to fshl with doubled input",
			ft:   wasm.FuncType{Params: []wasm.ValType{wasm.ValI64, wasm.ValI64}, Results: []wasm.ValType{wasm.ValI64}},
			code: []byte{wasm.OpLocalGet, 0, wasm.OpLocalGet, 1, wasm.OpI64Rotl, wasm.OpEnd},
			want: "call i64 @fshl.i64(i64 %t0, i64 %t0, i64 %t1)",
		},
		{
			name: "nearest lowers to roundeven",
			ft:   wasm.FuncType{Params: []wasm.ValType{wasm.ValF64}, Results: []wasm.ValType{wasm.ValF64}},
			code: []byte{wasm.OpLocalGet, 0, wasm.OpF64Nearest, wasm.OpEnd},
			want: "call f64 @roundeven.f64(f64 %t0)",
		},
		{
			name: "min pops two operands",
			ft:   wasm.FuncType{Params: []wasm.ValType{wasm.ValF32, wasm.ValF32}, Results: []wasm.ValType{wasm.ValF32}},
			code: []byte{wasm.OpLocalGet, 0, wasm.OpLocalGet, 1, wasm.OpF32Min, wasm.OpEnd},
			want: "call f32 @minimum.f32(f32 %t0, f32 %t1)",
		},
		{
			name: "copysign pops two operands",
			ft:   wasm.FuncType{Params: []wasm.ValType{wasm.ValF64, wasm.ValF64}, Results: []wasm.ValType{wasm.ValF64}},
			code: []byte{wasm.OpLocalGet, 0, wasm.OpLocalGet, 1, wasm.OpF64Copysign, wasm.OpEnd},
			want: "call f64 @copysign.f64(f64 %t0, f64 %t1)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := irText(t, oneFunc(tt.ft, nil, tt.code))
			wantLines(t, text, tt.want)
		})
	}
}

func TestComparisonPredicates(t *testing.T) {
	tests := []struct {
		name   string
		ft     wasm.FuncType
		opcode byte
		want   string
	}{
		{"unsigned less-than", wasm.FuncType{Params: []wasm.ValType{wasm.ValI32, wasm.ValI32}, Results: []wasm.ValType{wasm.ValI32}}, wasm.OpI32LtU, "icmp ult i32"},
		{"signed greater-equal", wasm.FuncType{Params: []wasm.ValType{wasm.ValI64, wasm.ValI64}, Results: []wasm.ValType{wasm.ValI32}}, wasm.OpI64GeS, "icmp sge i64"},
		{"float ne is unordered", wasm.FuncType{Params: []wasm.ValType{wasm.ValF32, wasm.ValF32}, Results: []wasm.ValType{wasm.ValI32}}, wasm.OpF32Ne, "fcmp une f32"},
		{"float lt is ordered", wasm.FuncType{Params: []wasm.ValType{wasm.ValF64, wasm.ValF64}, Results: []wasm.ValType{wasm.ValI32}}, wasm.OpF64Lt, "fcmp olt f64"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := irText(t, oneFunc(tt.ft, nil, []byte{
				wasm.OpLocalGet, 0,
				wasm.OpLocalGet, 1,
				tt.opcode,
				wasm.OpEnd,
			}))
			wantLines(t, text, tt.want)
		})
	}
}

func TestEqzComparesOwnWidth(t *testing.T) {
	text := irText(t, oneFunc(
		wasm.FuncType{Params: []wasm.ValType{wasm.ValI64}, Results: []wasm.ValType{wasm.ValI32}},
		nil,
		[]byte{wasm.OpLocalGet, 0, wasm.OpI64Eqz, wasm.OpEnd},
	))
	wantLines(t, text, "icmp eq i64 %t0, 0")
}

func TestUnsupportedInstruction(t *testing.T) {
	m := &wasm.Module{
		Types: []wasm.TypeEntry{
			{Form: wasm.FuncTypeByte, Func: &wasm.FuncType{Results: []wasm.ValType{wasm.ValI32}}},
		},
		Imports: []wasm.Import{
			{Module: "env", Field: "a", Kind: wasm.KindFunc, TypeIndex: 0},
			{Module: "env", Field: "b", Kind: wasm.KindFunc, TypeIndex: 0},
		},
		Functions: []uint32{0},
		Code: []wasm.FuncBody{
			{Code: []byte{wasm.OpMemorySize, 0, wasm.OpEnd}},
		},
	}
	_, _, err := compiler.Compile(m)
	if err == nil {
		t.Fatal("expected unsupported instruction error")
	}
	var cerr *errors.Error
	if !stderrors.As(err, &cerr) {
		t.Fatalf("error type = %T", err)
	}
	if cerr.Kind != errors.KindUnsupportedInstruction {
		t.Errorf("kind = %s", cerr.Kind)
	}
	// The error names the module function index, offset past the imports.
	if cerr.FuncIdx != 2 {
		t.Errorf("func index = %d, want 2", cerr.FuncIdx)
	}
	if !strings.Contains(cerr.Error(), "memory.size") {
		t.Errorf("error does not name the instruction: %v", cerr)
	}
}

func TestUnsupportedConstructs(t *testing.T) {
	i32 := wasm.FuncType{Results: []wasm.ValType{wasm.ValI32}}
	tests := []struct {
		name string
		m    *wasm.Module
		kind errors.Kind
	}{
		{
			name: "non-function type entry",
			m:    &wasm.Module{Types: []wasm.TypeEntry{{Form: 0x5F}}},
			kind: errors.KindUnsupportedTypeEntry,
		},
		{
			name: "64-bit imported memory",
			m: &wasm.Module{
				Imports: []wasm.Import{{
					Module: "env", Field: "mem", Kind: wasm.KindMemory,
					Memory: &wasm.MemoryType{Limits: wasm.Limits{Min: 1, Memory64: true}},
				}},
			},
			kind: errors.KindUnsupportedMemory64,
		},
		{
			name: "64-bit local memory",
			m:    &wasm.Module{Memories: []wasm.MemoryType{{Limits: wasm.Limits{Min: 1, Memory64: true}}}},
			kind: errors.KindUnsupportedMemory64,
		},
		{
			name: "exotic export kind",
			m:    &wasm.Module{Exports: []wasm.Export{{Name: "t", Kind: 4, Index: 0}}},
			kind: errors.KindUnsupportedExport,
		},
		{
			name: "global access in body",
			m: &wasm.Module{
				Types:     []wasm.TypeEntry{{Form: wasm.FuncTypeByte, Func: &i32}},
				Functions: []uint32{0},
				Code:      []wasm.FuncBody{{Code: []byte{wasm.OpGlobalGet, 0, wasm.OpEnd}}},
			},
			kind: errors.KindUnsupportedInstruction,
		},
		{
			name: "call in body",
			m: &wasm.Module{
				Types:     []wasm.TypeEntry{{Form: wasm.FuncTypeByte, Func: &i32}},
				Functions: []uint32{0},
				Code:      []wasm.FuncBody{{Code: []byte{wasm.OpCall, 0, wasm.OpEnd}}},
			},
			kind: errors.KindUnsupportedInstruction,
		},
		{
			name: "simd in body",
			m: &wasm.Module{
				Types:     []wasm.TypeEntry{{Form: wasm.FuncTypeByte, Func: &i32}},
				Functions: []uint32{0},
				Code: []wasm.FuncBody{{Code: []byte{
					wasm.OpPrefixSIMD, 0x0C,
					0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
					wasm.OpEnd,
				}}},
			},
			kind: errors.KindUnsupportedInstruction,
		},
		{
			name: "v128 local",
			m: &wasm.Module{
				Types:     []wasm.TypeEntry{{Form: wasm.FuncTypeByte, Func: &i32}},
				Functions: []uint32{0},
				Code: []wasm.FuncBody{{
					Locals: []wasm.LocalEntry{{Count: 1, Type: wasm.ValV128}},
					Code:   []byte{wasm.OpI32Const, 0, wasm.OpEnd},
				}},
			},
			kind: errors.KindUnsupportedValType,
		},
		{
			name: "reference-typed local",
			m: &wasm.Module{
				Types:     []wasm.TypeEntry{{Form: wasm.FuncTypeByte, Func: &i32}},
				Functions: []uint32{0},
				Code: []wasm.FuncBody{{
					Locals: []wasm.LocalEntry{{Count: 1, Type: wasm.ValFuncRef}},
					Code:   []byte{wasm.OpI32Const, 0, wasm.OpEnd},
				}},
			},
			kind: errors.KindUnsupportedValType,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := compiler.Compile(tt.m)
			if err == nil {
				t.Fatal("expected error")
			}
			var cerr *errors.Error
			if !stderrors.As(err, &cerr) {
				t.Fatalf("error type = %T", err)
			}
			if cerr.Kind != tt.kind {
				t.Errorf("kind = %s, want %s", cerr.Kind, tt.kind)
			}
		})
	}
}

func TestExportsLastWriteWins(t *testing.T) {
	m := &wasm.Module{
		Exports: []wasm.Export{
			{Name: "x", Kind: wasm.KindFunc, Index: 0},
			{Name: "x", Kind: wasm.KindGlobal, Index: 3},
		},
	}
	info, _ := compileOne(t, m)
	got, ok := info.Exports["x"]
	if !ok {
		t.Fatal("export x missing")
	}
	if got.Kind != wasm.KindGlobal || got.Index != 3 {
		t.Errorf("export x = %+v, want global 3", got)
	}
}

func TestStackBalanceAcrossControl(t *testing.T) {
	// A value produced before a block survives it and feeds the return.
	text := irText(t, oneFunc(
		wasm.FuncType{Results: []wasm.ValType{wasm.ValI32}},
		nil,
		[]byte{
			wasm.OpI32Const, 40,
			wasm.OpBlock, 0x40,
			wasm.OpNop,
			wasm.OpEnd,
			wasm.OpI32Const, 2,
			wasm.OpI32Add,
			wasm.OpEnd,
		},
	))
	wantLines(t, text, "add i32 40, 2", "ret i32")
}

func TestUnreachableTerminates(t *testing.T) {
	text := irText(t, oneFunc(
		wasm.FuncType{Results: []wasm.ValType{wasm.ValI32}},
		nil,
		[]byte{wasm.OpUnreachable, wasm.OpI32Const, 1, wasm.OpEnd},
	))
	wantLines(t, text, "unreachable")
	if strings.Contains(text, "ret i32 1") {
		t.Errorf("dead code after unreachable was lowered:\n%s", text)
	}
}

func TestSelectLowering(t *testing.T) {
	text := irText(t, oneFunc(
		wasm.FuncType{Params: []wasm.ValType{wasm.ValI64, wasm.ValI64, wasm.ValI32}, Results: []wasm.ValType{wasm.ValI64}},
		nil,
		[]byte{
			wasm.OpLocalGet, 0,
			wasm.OpLocalGet, 1,
			wasm.OpLocalGet, 2,
			wasm.OpSelect,
			wasm.OpEnd,
		},
	))
	wantLines(t, text,
		"%select0 = alloca i64",
		"label %select0.then, label %select0.else",
		"select0.join:",
		"= load i64, ptr %select0",
	)
}

func TestConversions(t *testing.T) {
	tests := []struct {
		name   string
		ft     wasm.FuncType
		opcode byte
		want   string
	}{
		{"wrap", wasm.FuncType{Params: []wasm.ValType{wasm.ValI64}, Results: []wasm.ValType{wasm.ValI32}}, wasm.OpI32WrapI64, "trunc i64 %t0 to i32"},
		{"extend signed", wasm.FuncType{Params: []wasm.ValType{wasm.ValI32}, Results: []wasm.ValType{wasm.ValI64}}, wasm.OpI64ExtendI32S, "sext i32 %t0 to i64"},
		{"extend unsigned", wasm.FuncType{Params: []wasm.ValType{wasm.ValI32}, Results: []wasm.ValType{wasm.ValI64}}, wasm.OpI64ExtendI32U, "zext i32 %t0 to i64"},
		{"trunc float unsigned", wasm.FuncType{Params: []wasm.ValType{wasm.ValF64}, Results: []wasm.ValType{wasm.ValI32}}, wasm.OpI32TruncF64U, "fptoui f64 %t0 to i32"},
		{"convert unsigned", wasm.FuncType{Params: []wasm.ValType{wasm.ValI64}, Results: []wasm.ValType{wasm.ValF32}}, wasm.OpF32ConvertI64U, "uitofp i64 %t0 to f32"},
		{"promote", wasm.FuncType{Params: []wasm.ValType{wasm.ValF32}, Results: []wasm.ValType{wasm.ValF64}}, wasm.OpF64PromoteF32, "fpext f32 %t0 to f64"},
		{"reinterpret", wasm.FuncType{Params: []wasm.ValType{wasm.ValF64}, Results: []wasm.ValType{wasm.ValI64}}, wasm.OpI64ReinterpretF64, "bitcast f64 %t0 to i64"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := irText(t, oneFunc(tt.ft, nil, []byte{wasm.OpLocalGet, 0, tt.opcode, wasm.OpEnd}))
			wantLines(t, text, tt.want)
		})
	}
}
