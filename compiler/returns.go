package compiler

import (
	"github.com/wippyai/wasm-compiler/errors"
	"github.com/wippyai/wasm-compiler/ir"
)

// materializeReturn converts the trailing operand stack values into the
// function's single native return value: void for no results, the value
// itself for one, and a packed aggregate built field by field for two or
// more. Values that are still address-taken are loaded first. The stack is
// cleared afterwards; values past an unconditional exit are unreachable and
// must not leak into the next block.
func (fc *funcCompiler) materializeReturn() error {
	n := len(fc.results)
	if len(fc.stack) < n {
		return errors.Internal("return needs %d results, stack has %d in func_%d", n, len(fc.stack), fc.funcIdx)
	}

	switch n {
	case 0:
		fc.b.RetVoid()

	case 1:
		t, err := mapValType("code", fc.results[0])
		if err != nil {
			return err
		}
		v, err := fc.pop()
		if err != nil {
			return err
		}
		fc.b.Ret(fc.loaded(v, t))

	default:
		agg, err := mapResults("code", fc.results)
		if err != nil {
			return err
		}
		slot := fc.b.Alloca(agg, "ret")
		vals := fc.stack[len(fc.stack)-n:]
		for i, v := range vals {
			t, err := mapValType("code", fc.results[i])
			if err != nil {
				return err
			}
			field := fc.b.FieldPtr(agg, slot, i, "")
			fc.b.Store(fc.loaded(v, t), field)
		}
		fc.b.Ret(fc.b.Load(agg, slot, "packed"))
	}

	fc.stack = fc.stack[:0]
	return nil
}

// loaded resolves a stack entry to its value: entries that are pointers to
// storage (address-taken) are loaded as the expected type first.
func (fc *funcCompiler) loaded(v ir.Value, want ir.Type) ir.Value {
	if v.Type().Kind() == ir.KindPtr && want.Kind() != ir.KindPtr {
		return fc.b.Load(want, v, "")
	}
	return v
}
