// Package runtime wraps the compiler with a module and instance lifecycle.
//
// Compile decodes and lowers a WebAssembly binary, optionally validating it
// first with wazero so the lowering stage can trust the operator stream. The
// resulting Module exposes the metadata table, the IR, and export
// resolution. Instantiate resolves a module's external references against an
// Imports registry, allocating memories, tables, and globals into a Store.
// There is no execution engine: an instance hands resolved addresses and
// compiled-function handles to a downstream backend.
package runtime
