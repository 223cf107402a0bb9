// Package ir defines a small typed intermediate representation for compiled
// functions, shaped after the subset of LLVM IR a WebAssembly function lowers
// to: basic blocks with a single terminator, explicit load/store through
// alloca slots, integer and float arithmetic, comparisons, conversions, and
// calls.
//
// Values, blocks, and functions live in per-function and per-module arenas
// and reference each other by index, so a Module can be copied, inspected,
// and printed without pointer chasing. Comparison instructions produce their
// boolean result directly as i32 (0 or 1).
//
// Instructions are emitted through a Builder positioned at the end of a
// block. Once a block has a terminator, further emission into it is a no-op,
// which lets front ends lower unreachable bytecode without special casing.
package ir
