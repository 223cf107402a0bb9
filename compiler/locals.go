package compiler

import (
	"fmt"

	"github.com/wippyai/wasm-compiler/errors"
	"github.com/wippyai/wasm-compiler/ir"
	"github.com/wippyai/wasm-compiler/wasm"
)

// localSlot is one addressable storage cell of the local index space.
type localSlot struct {
	ptr ir.Value // alloca in the entry block
	typ ir.Type
}

// allocateLocals builds the local index space in the function's entry block:
// one slot per parameter, initialized from the incoming argument, then one
// slot per declared local with each run-length group expanded individually,
// initialized to the type's zero value. The returned slice is indexed the
// way local.get/set/tee operands are.
func allocateLocals(b *ir.Builder, f *ir.Function, ft *wasm.FuncType, groups []wasm.LocalEntry) ([]localSlot, error) {
	slots := make([]localSlot, 0, len(ft.Params))
	for i, p := range ft.Params {
		t, err := mapValType("code", p)
		if err != nil {
			return nil, err
		}
		ptr := b.Alloca(t, fmt.Sprintf("arg%d", i))
		b.Store(f.Param(i), ptr)
		slots = append(slots, localSlot{ptr: ptr, typ: t})
	}
	for _, g := range groups {
		// Declared locals are zero-initialized, so only the scalar numeric
		// types are representable as slots.
		if !g.Type.IsNum() {
			return nil, errors.UnsupportedValType("code", byte(g.Type))
		}
		t, err := mapValType("code", g.Type)
		if err != nil {
			return nil, err
		}
		for n := uint32(0); n < g.Count; n++ {
			ptr := b.Alloca(t, fmt.Sprintf("loc%d", len(slots)))
			b.Store(b.ConstZero(t), ptr)
			slots = append(slots, localSlot{ptr: ptr, typ: t})
		}
	}
	return slots, nil
}
