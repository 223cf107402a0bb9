package compiler

import "github.com/wippyai/wasm-compiler/ir"

// intrinsics is the module-scoped cache of backend helper declarations for
// operations the IR has no instruction for. Entries are keyed by mangled
// name (operation plus operand type, e.g. "ctlz.i32") and declared lazily,
// at most once per module compile, so intrinsic-heavy modules share one
// declaration across every function and call site.
type intrinsics struct {
	mod *ir.Module
}

func (in *intrinsics) get(name string, sig ir.Type) *ir.Function {
	if f := in.mod.FuncByName(name); f != nil {
		return f
	}
	return in.mod.DeclareFunction(name, sig)
}

// unary declares op.<type> with signature t(t).
func (in *intrinsics) unary(op string, t ir.Type) *ir.Function {
	return in.get(op+"."+t.String(), ir.FuncOf(t, t))
}

// binary declares op.<type> with signature t(t, t).
func (in *intrinsics) binary(op string, t ir.Type) *ir.Function {
	return in.get(op+"."+t.String(), ir.FuncOf(t, t, t))
}

// ternary declares op.<type> with signature t(t, t, t). Used for the funnel
// shifts backing rotl/rotr.
func (in *intrinsics) ternary(op string, t ir.Type) *ir.Function {
	return in.get(op+"."+t.String(), ir.FuncOf(t, t, t, t))
}
