// Package wasm provides core WebAssembly binary format primitives.
//
// It decodes module sections into a Module value, decodes function body
// bytecode into typed Instruction records, and encodes both back to the
// binary format. The package performs structural decoding only: it does not
// type-check operator streams. Validation is expected to have happened
// upstream (see the runtime package), and semantic restrictions such as the
// supported instruction set are enforced by the compiler package.
package wasm
