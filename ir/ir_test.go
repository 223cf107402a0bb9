package ir_test

import (
	"strings"
	"testing"

	"github.com/wippyai/wasm-compiler/ir"
)

func TestBuildSimpleFunction(t *testing.T) {
	m := ir.NewModule("test")
	f := m.NewFunction("add", ir.FuncOf(ir.I32, ir.I32, ir.I32))
	b := ir.NewBuilder(f)

	sum := b.Add(f.Param(0), f.Param(1), "sum")
	if !sum.Type().Equal(ir.I32) {
		t.Errorf("sum type = %s", sum.Type())
	}
	b.Ret(sum)

	text := f.String()
	for _, want := range []string{
		"define i32 @add(i32 %p0, i32 %p1)",
		"%sum = add i32 %p0, %p1",
		"ret i32 %sum",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
}

func TestTerminatedBlockDropsEmission(t *testing.T) {
	m := ir.NewModule("test")
	f := m.NewFunction("f", ir.FuncOf(ir.Void))
	b := ir.NewBuilder(f)

	b.RetVoid()
	if !f.Terminated(f.Entry()) {
		t.Fatal("entry should be terminated")
	}

	v := b.Add(b.ConstI32(1), b.ConstI32(2), "dead")
	if !v.IsNil() {
		t.Error("emission after terminator should return nil value")
	}
	b.RetVoid() // dropped too

	if got := strings.Count(f.String(), "ret void"); got != 1 {
		t.Errorf("ret void count = %d, want 1:\n%s", got, f.String())
	}
}

func TestCreateThenAppendBlock(t *testing.T) {
	m := ir.NewModule("test")
	f := m.NewFunction("f", ir.FuncOf(ir.I32, ir.I32))
	b := ir.NewBuilder(f)

	then := f.CreateBlock("then")
	els := f.CreateBlock("else")
	b.CondBr(f.Param(0), then, els)

	// Blocks enter the layout in placement order, not creation order.
	f.AppendBlock(els)
	b.PositionAtEnd(els)
	b.Ret(b.ConstI32(0))

	f.AppendBlock(then)
	b.PositionAtEnd(then)
	b.Ret(b.ConstI32(1))

	blocks := f.Blocks()
	if len(blocks) != 3 {
		t.Fatalf("placed %d blocks", len(blocks))
	}
	if f.BlockName(blocks[1]) != "else" || f.BlockName(blocks[2]) != "then" {
		t.Errorf("layout = [%s %s %s]", f.BlockName(blocks[0]), f.BlockName(blocks[1]), f.BlockName(blocks[2]))
	}

	text := f.String()
	if !strings.Contains(text, "br i32 %p0, label %then, label %else") {
		t.Errorf("missing cond branch:\n%s", text)
	}
}

func TestComparisonsProduceI32(t *testing.T) {
	m := ir.NewModule("test")
	f := m.NewFunction("f", ir.FuncOf(ir.I32, ir.I64, ir.F64))
	b := ir.NewBuilder(f)

	ic := b.ICmp(ir.IntSLT, f.Param(0), b.ConstI64(7), "ic")
	fc := b.FCmp(ir.FloatUNE, f.Param(1), b.ConstF64(0), "fc")
	if !ic.Type().Equal(ir.I32) || !fc.Type().Equal(ir.I32) {
		t.Errorf("cmp types = %s, %s", ic.Type(), fc.Type())
	}
	b.Ret(b.And(ic, fc, ""))

	text := f.String()
	if !strings.Contains(text, "icmp slt i64 %p0, 7") {
		t.Errorf("missing icmp:\n%s", text)
	}
	if !strings.Contains(text, "fcmp une f64 %p1, 0") {
		t.Errorf("missing fcmp:\n%s", text)
	}
}

func TestAggregateReturn(t *testing.T) {
	m := ir.NewModule("test")
	pair := ir.StructOf(ir.I32, ir.I64)
	f := m.NewFunction("f", ir.FuncOf(pair))
	b := ir.NewBuilder(f)

	slot := b.Alloca(pair, "ret")
	p0 := b.FieldPtr(pair, slot, 0, "f0")
	b.Store(b.ConstI32(1), p0)
	p1 := b.FieldPtr(pair, slot, 1, "f1")
	b.Store(b.ConstI64(2), p1)
	b.Ret(b.Load(pair, slot, "packed"))

	text := f.String()
	for _, want := range []string{
		"define {i32, i64} @f()",
		"%ret = alloca {i32, i64}",
		"%f0 = fieldptr {i32, i64}, ptr %ret, 0",
		"store i64 2, ptr %f1",
		"%packed = load {i32, i64}, ptr %ret",
		"ret {i32, i64} %packed",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
}

func TestDeclareAndCall(t *testing.T) {
	m := ir.NewModule("test")
	ctlz := m.DeclareFunction("ctlz.i32", ir.FuncOf(ir.I32, ir.I32))
	if m.FuncByName("ctlz.i32") != ctlz {
		t.Fatal("FuncByName lookup failed")
	}
	if m.FuncByName("missing") != nil {
		t.Fatal("FuncByName should return nil for unknown names")
	}

	f := m.NewFunction("f", ir.FuncOf(ir.I32, ir.I32))
	b := ir.NewBuilder(f)
	b.Ret(b.Call(ctlz, []ir.Value{f.Param(0)}, "lz"))

	text := m.String()
	if !strings.Contains(text, "%lz = call i32 @ctlz.i32(i32 %p0)") {
		t.Errorf("missing call:\n%s", text)
	}
	if !strings.Contains(text, "declare i32 @ctlz.i32(i32)") {
		t.Errorf("missing declaration:\n%s", text)
	}
}

func TestDuplicateFunctionPanics(t *testing.T) {
	m := ir.NewModule("test")
	m.DeclareFunction("f", ir.FuncOf(ir.Void))
	defer func() {
		if recover() == nil {
			t.Error("expected panic for duplicate name")
		}
	}()
	m.NewFunction("f", ir.FuncOf(ir.Void))
}

func TestTypeEquality(t *testing.T) {
	if !ir.StructOf(ir.I32, ir.F64).Equal(ir.StructOf(ir.I32, ir.F64)) {
		t.Error("identical structs should be equal")
	}
	if ir.StructOf(ir.I32).Equal(ir.StructOf(ir.I64)) {
		t.Error("different structs should not be equal")
	}
	if ir.FuncOf(ir.I32, ir.I64).Equal(ir.FuncOf(ir.I32, ir.I32)) {
		t.Error("different signatures should not be equal")
	}
	if got := ir.FuncOf(ir.Void, ir.I32, ir.F32).String(); got != "void (i32, f32)" {
		t.Errorf("func type string = %q", got)
	}
}
