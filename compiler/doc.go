// Package compiler lowers validated WebAssembly modules to native-ready IR,
// one function body at a time.
//
// A compile makes one pass over the module's sections to populate a read-only
// ModuleInfo metadata table, then lowers each code section body in file
// order. Lowering walks the operator stream once, tracking the implicit
// operand value stack and a structured control stack that mirrors
// block/loop/if nesting, and emits basic blocks through an ir.Builder.
// Operations the IR has no instruction for (bit counting, rotates, float
// rounding, min/max, copysign) become calls to lazily declared intrinsic
// functions shared across the whole module.
//
// The operator stream is trusted to be pre-validated; the compiler checks
// feature support, not well-typedness. Any unsupported section entry, value
// type, or instruction aborts the whole module compile with a structured
// error locating the offending construct.
package compiler
