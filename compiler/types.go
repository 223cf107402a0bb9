package compiler

import (
	"github.com/wippyai/wasm-compiler/errors"
	"github.com/wippyai/wasm-compiler/ir"
	"github.com/wippyai/wasm-compiler/wasm"
)

// mapValType converts a WebAssembly value type to its native IR type. Vector
// and reference types map to width placeholders until those proposals are
// compiled for real. The section name is only used for error context.
func mapValType(section string, vt wasm.ValType) (ir.Type, error) {
	switch vt {
	case wasm.ValI32:
		return ir.I32, nil
	case wasm.ValI64:
		return ir.I64, nil
	case wasm.ValF32:
		return ir.F32, nil
	case wasm.ValF64:
		return ir.F64, nil
	case wasm.ValV128:
		return ir.I128, nil
	case wasm.ValFuncRef, wasm.ValExtern:
		return ir.I64, nil
	default:
		return ir.Void, errors.UnsupportedValType(section, byte(vt))
	}
}

// mapResults applies the result packing rule: zero results are void, a
// single result is its native type, and two or more results become one
// packed aggregate because the call convention returns at most one value.
func mapResults(section string, results []wasm.ValType) (ir.Type, error) {
	switch len(results) {
	case 0:
		return ir.Void, nil
	case 1:
		return mapValType(section, results[0])
	default:
		fields := make([]ir.Type, len(results))
		for i, r := range results {
			t, err := mapValType(section, r)
			if err != nil {
				return ir.Void, err
			}
			fields[i] = t
		}
		return ir.StructOf(fields...), nil
	}
}

// signatureOf maps a WebAssembly function type to an IR function type,
// applying the same packing rule used by the return materializer.
func signatureOf(section string, ft *wasm.FuncType) (ir.Type, error) {
	ret, err := mapResults(section, ft.Results)
	if err != nil {
		return ir.Void, err
	}
	params := make([]ir.Type, len(ft.Params))
	for i, p := range ft.Params {
		t, err := mapValType(section, p)
		if err != nil {
			return ir.Void, err
		}
		params[i] = t
	}
	return ir.FuncOf(ret, params...), nil
}
