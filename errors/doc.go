// Package errors provides structured error types for the wasm-compiler library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). The Error type carries locating context: section name, function
// index, opcode index, and a cause chain. A compile error always identifies
// the offending construct; nothing is ever logged and ignored.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseCompile, errors.KindUnsupportedInstruction).
//		Section("code").
//		Func(3).
//		Op(17, 0x3F).
//		Detail("memory.size").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.UnsupportedInstruction(funcIdx, opIdx, opcode, "memory.grow")
//	err := errors.UnsupportedSection("tag")
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
