package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseParse       Phase = "parse"       // binary format decoding
	PhaseCompile     Phase = "compile"     // section and function body lowering
	PhaseInstantiate Phase = "instantiate" // import resolution and store setup
)

// Kind categorizes the error
type Kind string

const (
	KindUnsupportedSection     Kind = "unsupported_section"
	KindUnsupportedTypeEntry   Kind = "unsupported_type_entry"
	KindUnsupportedImport      Kind = "unsupported_import"
	KindUnsupportedExport      Kind = "unsupported_export"
	KindUnsupportedValType     Kind = "unsupported_valtype"
	KindUnsupportedMemory64    Kind = "unsupported_memory64"
	KindUnsupportedInstruction Kind = "unsupported_instruction"
	KindInvalidData            Kind = "invalid_data"
	KindNotFound               Kind = "not_found"
	KindInternal               Kind = "internal"
)

// Error is the structured error type used throughout the compiler
type Error struct {
	Cause   error
	Phase   Phase
	Kind    Kind
	Section string
	Detail  string
	FuncIdx int // -1 when not tied to a function body
	OpIdx   int // -1 when not tied to an instruction
	Opcode  byte
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Section != "" {
		b.WriteString(" in ")
		b.WriteString(e.Section)
		b.WriteString(" section")
	}

	if e.FuncIdx >= 0 {
		fmt.Fprintf(&b, " at func %d", e.FuncIdx)
		if e.OpIdx >= 0 {
			fmt.Fprintf(&b, " op %d (opcode 0x%02X)", e.OpIdx, e.Opcode)
		}
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase:   phase,
			Kind:    kind,
			FuncIdx: -1,
			OpIdx:   -1,
		},
	}
}

// Section names the module section the error occurred in
func (b *Builder) Section(name string) *Builder {
	b.err.Section = name
	return b
}

// Func records the module function index the error occurred in
func (b *Builder) Func(idx int) *Builder {
	b.err.FuncIdx = idx
	return b
}

// Op records the instruction position and opcode byte
func (b *Builder) Op(idx int, opcode byte) *Builder {
	b.err.OpIdx = idx
	b.err.Opcode = opcode
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// UnsupportedSection reports a module section kind the toolchain does not handle
func UnsupportedSection(name string) *Error {
	return New(PhaseParse, KindUnsupportedSection).Section(name).Build()
}

// UnsupportedTypeEntry reports a non-function entry in the type section
func UnsupportedTypeEntry(index int, form byte) *Error {
	return New(PhaseCompile, KindUnsupportedTypeEntry).
		Section("type").
		Detail("entry %d has form 0x%02X, only func (0x60) is supported", index, form).
		Build()
}

// UnsupportedImport reports an import descriptor kind the compiler does not handle
func UnsupportedImport(module, field string, kind byte) *Error {
	return New(PhaseCompile, KindUnsupportedImport).
		Section("import").
		Detail("%s.%s has kind 0x%02X", module, field, kind).
		Build()
}

// UnsupportedExport reports an export descriptor kind the compiler does not handle
func UnsupportedExport(name string, kind byte) *Error {
	return New(PhaseCompile, KindUnsupportedExport).
		Section("export").
		Detail("%q has kind 0x%02X", name, kind).
		Build()
}

// UnsupportedValType reports a value type with no native lowering
func UnsupportedValType(section string, raw byte) *Error {
	return New(PhaseCompile, KindUnsupportedValType).
		Section(section).
		Detail("value type 0x%02X", raw).
		Build()
}

// UnsupportedMemory64 reports a 64-bit memory declaration
func UnsupportedMemory64(section string) *Error {
	return New(PhaseCompile, KindUnsupportedMemory64).
		Section(section).
		Detail("memory64 is not supported").
		Build()
}

// UnsupportedInstruction reports an opcode with no lowering. Skipping it
// silently would unbalance the operand stack for everything downstream, so
// it aborts the whole module compile.
func UnsupportedInstruction(funcIdx, opIdx int, opcode byte, name string) *Error {
	return New(PhaseCompile, KindUnsupportedInstruction).
		Section("code").
		Func(funcIdx).
		Op(opIdx, opcode).
		Detail("%s", name).
		Build()
}

// Parse wraps a binary-format decoding failure, surfaced unchanged
func Parse(what string, cause error) *Error {
	return New(PhaseParse, KindInvalidData).Detail("decode %s", what).Cause(cause).Build()
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return New(phase, KindNotFound).Detail("%s %q not found", what, name).Build()
}

// Internal reports an invariant violation, e.g. a backend handle that should
// exist but does not. These indicate a compiler bug, not an input problem.
func Internal(detail string, args ...any) *Error {
	return New(PhaseCompile, KindInternal).Detail(detail, args...).Build()
}
