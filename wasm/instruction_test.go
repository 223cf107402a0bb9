package wasm_test

import (
	"testing"

	"github.com/wippyai/wasm-compiler/wasm"
)

func TestDecodeInstructions(t *testing.T) {
	// block (result i32); i32.const -5; br 0; end; end
	code := []byte{
		0x02, 0x7F,
		0x41, 0x7B,
		0x0C, 0x00,
		0x0B,
		0x0B,
	}
	ins, err := wasm.DecodeInstructions(code)
	if err != nil {
		t.Fatalf("DecodeInstructions: %v", err)
	}
	if len(ins) != 5 {
		t.Fatalf("got %d instructions: %+v", len(ins), ins)
	}
	if ins[0].Opcode != wasm.OpBlock || ins[0].Block != wasm.BlockTypeI32 {
		t.Errorf("ins[0] = %+v", ins[0])
	}
	if ins[1].Opcode != wasm.OpI32Const || ins[1].I32 != -5 {
		t.Errorf("ins[1] = %+v", ins[1])
	}
	if ins[2].Opcode != wasm.OpBr || ins[2].Index != 0 {
		t.Errorf("ins[2] = %+v", ins[2])
	}
	if ins[4].Opcode != wasm.OpEnd {
		t.Errorf("ins[4] = %+v", ins[4])
	}
	if ins[2].Pos != 4 {
		t.Errorf("br position = %d, want 4", ins[2].Pos)
	}
}

func TestDecodeBrTable(t *testing.T) {
	// br_table 1 2 default=0; unreachable; end
	code := []byte{0x0E, 0x02, 0x01, 0x02, 0x00, 0x00, 0x0B}
	ins, err := wasm.DecodeInstructions(code)
	if err != nil {
		t.Fatalf("DecodeInstructions: %v", err)
	}
	bt := ins[0]
	if bt.Opcode != wasm.OpBrTable {
		t.Fatalf("ins[0] = %+v", bt)
	}
	want := []uint32{1, 2, 0}
	if len(bt.Targets) != len(want) {
		t.Fatalf("targets = %v", bt.Targets)
	}
	for i, w := range want {
		if bt.Targets[i] != w {
			t.Errorf("target %d = %d, want %d", i, bt.Targets[i], w)
		}
	}
}

func TestDecodeFloatConsts(t *testing.T) {
	ins, err := wasm.DecodeInstructions(wasm.EncodeInstructions([]wasm.Instruction{
		{Opcode: wasm.OpF32Const, F32: 1.5},
		{Opcode: wasm.OpF64Const, F64: -2.25},
		{Opcode: wasm.OpEnd},
	}))
	if err != nil {
		t.Fatalf("DecodeInstructions: %v", err)
	}
	if ins[0].F32 != 1.5 {
		t.Errorf("f32 const = %v", ins[0].F32)
	}
	if ins[1].F64 != -2.25 {
		t.Errorf("f64 const = %v", ins[1].F64)
	}
}

func TestDecodeMemArg(t *testing.T) {
	// i32.load align=2 offset=16; drop; end
	code := []byte{0x28, 0x02, 0x10, 0x1A, 0x0B}
	ins, err := wasm.DecodeInstructions(code)
	if err != nil {
		t.Fatalf("DecodeInstructions: %v", err)
	}
	if ins[0].Mem.Align != 2 || ins[0].Mem.Offset != 16 {
		t.Errorf("memarg = %+v", ins[0].Mem)
	}
}

func TestDecodePrefixedImmediates(t *testing.T) {
	// Prefixed operators outside the compiled profile still decode so error
	// reports can name them with a position.
	code := []byte{
		0xFC, 0x00, // i32.trunc_sat_f32_s
		0xFC, 0x0B, 0x00, // memory.fill
		0xFD, 0x0C, // v128.const
		0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15,
		0xFE, 0x10, 0x02, 0x00, // i32.atomic.load
		0x0B,
	}
	ins, err := wasm.DecodeInstructions(code)
	if err != nil {
		t.Fatalf("DecodeInstructions: %v", err)
	}
	if len(ins) != 5 {
		t.Fatalf("got %d instructions", len(ins))
	}
	if ins[0].Name() != "i32.trunc_sat_f32_s" {
		t.Errorf("ins[0].Name() = %q", ins[0].Name())
	}
	if ins[1].Name() != "memory.fill" {
		t.Errorf("ins[1].Name() = %q", ins[1].Name())
	}
	if ins[2].V128[15] != 15 {
		t.Errorf("v128 immediate = %v", ins[2].V128)
	}
	if ins[3].Mem.Align != 2 {
		t.Errorf("atomic memarg = %+v", ins[3].Mem)
	}
}

func TestDecodeMissingEnd(t *testing.T) {
	if _, err := wasm.DecodeInstructions([]byte{0x41, 0x00}); err == nil {
		t.Fatal("expected error for expression without end")
	}
}

func TestOpcodeName(t *testing.T) {
	if got := wasm.OpcodeName(0x6A); got != "i32.add" {
		t.Errorf("OpcodeName(0x6A) = %q", got)
	}
	if got := wasm.OpcodeName(0x3F); got != "memory.size" {
		t.Errorf("OpcodeName(0x3F) = %q", got)
	}
	if got := wasm.OpcodeName(0x27); got != "opcode 0x27" {
		t.Errorf("OpcodeName(0x27) = %q", got)
	}
}
