package errors_test

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/wippyai/wasm-compiler/errors"
)

func TestErrorMessage(t *testing.T) {
	err := errors.New(errors.PhaseCompile, errors.KindUnsupportedInstruction).
		Section("code").
		Func(3).
		Op(17, 0x3F).
		Detail("memory.size").
		Build()

	msg := err.Error()
	for _, want := range []string{"[compile]", "unsupported_instruction", "code section", "func 3", "op 17", "0x3F", "memory.size"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}

func TestErrorIsMatchesPhaseAndKind(t *testing.T) {
	err := errors.UnsupportedInstruction(0, 4, 0x40, "memory.grow")

	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseCompile, Kind: errors.KindUnsupportedInstruction}) {
		t.Error("expected Is to match on phase and kind")
	}
	if stderrors.Is(err, &errors.Error{Phase: errors.PhaseCompile, Kind: errors.KindUnsupportedSection}) {
		t.Error("expected Is to reject different kind")
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := stderrors.New("short read")
	err := errors.Parse("type section", cause)

	if !stderrors.Is(err, cause) {
		t.Error("expected cause to be reachable via Unwrap")
	}
	if !strings.Contains(err.Error(), "short read") {
		t.Errorf("message %q missing cause", err.Error())
	}
}

func TestConvenienceConstructors(t *testing.T) {
	tests := []struct {
		name string
		err  *errors.Error
		kind errors.Kind
	}{
		{"section", errors.UnsupportedSection("tag"), errors.KindUnsupportedSection},
		{"type entry", errors.UnsupportedTypeEntry(2, 0x5F), errors.KindUnsupportedTypeEntry},
		{"import", errors.UnsupportedImport("env", "tag0", 4), errors.KindUnsupportedImport},
		{"export", errors.UnsupportedExport("t", 4), errors.KindUnsupportedExport},
		{"valtype", errors.UnsupportedValType("global", 0x6B), errors.KindUnsupportedValType},
		{"memory64", errors.UnsupportedMemory64("import"), errors.KindUnsupportedMemory64},
		{"internal", errors.Internal("nil block handle"), errors.KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Kind != tt.kind {
				t.Errorf("kind: got %q, want %q", tt.err.Kind, tt.kind)
			}
			if tt.err.Error() == "" {
				t.Error("empty message")
			}
		})
	}
}
