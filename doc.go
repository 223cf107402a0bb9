// Package wasmcompiler is the root of an ahead-of-time WebAssembly
// compiler core: it lowers core wasm function bodies into a small
// typed SSA-style intermediate representation suitable for a native
// code generator.
//
// # Architecture Overview
//
// The module is organized into several packages with distinct
// responsibilities:
//
//	wasmcompiler/        Root package (documentation only)
//	├── wasm/            Core wasm binary decoding and instruction streams
//	├── ir/              Arena-based typed IR: modules, functions, blocks, builder
//	├── compiler/        Per-function bytecode-to-IR lowering engine
//	├── runtime/         Compiled module and instance lifecycle
//	├── errors/          Structured error types with phase and kind
//	└── cmd/wasmc/       CLI: compile a module, dump IR, interactive TUI
//
// # Quick Start
//
// Compile a module and inspect its IR:
//
//	mod, err := runtime.Compile(ctx, wasmBytes)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println(mod.IR())
//
//	fn, err := mod.ExportedFunction("add")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(fn)
//
// The compiler trusts its input: module bytes are expected to be
// validated upstream. runtime.Compile pre-validates with wazero by
// default; disable with runtime.WithValidation(false) when the caller
// has already validated the bytes.
package wasmcompiler
