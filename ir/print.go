package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// String renders the module as text, definitions first, declarations last.
func (m *Module) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "; module %s\n", m.Name)
	for _, f := range m.funcs {
		if !f.declared {
			sb.WriteString("\n")
			f.print(&sb)
		}
	}
	for _, f := range m.funcs {
		if f.declared {
			fmt.Fprintf(&sb, "\ndeclare %s @%s(%s)\n", f.sig.Return(), f.name, paramTypes(f.sig))
		}
	}
	return sb.String()
}

// String renders the function definition (or declaration) as text.
func (f *Function) String() string {
	if f.declared {
		return fmt.Sprintf("declare %s @%s(%s)\n", f.sig.Return(), f.name, paramTypes(f.sig))
	}
	var sb strings.Builder
	f.print(&sb)
	return sb.String()
}

func paramTypes(sig Type) string {
	parts := make([]string, len(sig.Params()))
	for i, p := range sig.Params() {
		parts[i] = p.String()
	}
	return strings.Join(parts, ", ")
}

type printer struct {
	f     *Function
	names map[ValueID]string
	next  int
}

func (f *Function) print(sb *strings.Builder) {
	p := &printer{f: f, names: make(map[ValueID]string)}
	fmt.Fprintf(sb, "define %s @%s(", f.sig.Return(), f.name)
	for i, pt := range f.sig.Params() {
		if i > 0 {
			sb.WriteString(", ")
		}
		name := fmt.Sprintf("%%p%d", i)
		p.names[f.params[i]] = name
		fmt.Fprintf(sb, "%s %s", pt, name)
	}
	sb.WriteString(") {\n")
	for _, bid := range f.placed {
		blk := &f.blocks[bid]
		fmt.Fprintf(sb, "%s:\n", blk.name)
		for _, vid := range blk.instrs {
			p.printInstr(sb, vid)
		}
	}
	sb.WriteString("}\n")
}

// ref renders a value reference: a named register for instructions, an
// inline literal for constants.
func (p *printer) ref(id ValueID) string {
	v := &p.f.values[id]
	switch v.op {
	case opConstI32, opConstI64:
		return strconv.FormatInt(v.aux, 10)
	case opConstF32:
		return strconv.FormatFloat(v.faux, 'g', -1, 32)
	case opConstF64:
		return strconv.FormatFloat(v.faux, 'g', -1, 64)
	}
	if name, ok := p.names[id]; ok {
		return name
	}
	var name string
	if v.name != "" {
		name = "%" + v.name
	} else {
		name = fmt.Sprintf("%%t%d", p.next)
		p.next++
	}
	p.names[id] = name
	return name
}

func (p *printer) typedRef(id ValueID) string {
	return p.f.values[id].typ.String() + " " + p.ref(id)
}

func (p *printer) printInstr(sb *strings.Builder, id ValueID) {
	v := &p.f.values[id]
	switch v.op {
	case opStore:
		fmt.Fprintf(sb, "  store %s, ptr %s\n", p.typedRef(v.args[0]), p.ref(v.args[1]))
	case opBr:
		fmt.Fprintf(sb, "  br label %%%s\n", p.f.blocks[v.dest[0]].name)
	case opCondBr:
		fmt.Fprintf(sb, "  br i32 %s, label %%%s, label %%%s\n",
			p.ref(v.args[0]), p.f.blocks[v.dest[0]].name, p.f.blocks[v.dest[1]].name)
	case opRet:
		fmt.Fprintf(sb, "  ret %s\n", p.typedRef(v.args[0]))
	case opRetVoid:
		sb.WriteString("  ret void\n")
	case opUnreachable:
		sb.WriteString("  unreachable\n")
	case opCall:
		callee := p.f.module.funcs[v.callee]
		args := make([]string, len(v.args))
		for i, a := range v.args {
			args[i] = p.typedRef(a)
		}
		if v.typ.Kind() == KindVoid {
			fmt.Fprintf(sb, "  call void @%s(%s)\n", callee.name, strings.Join(args, ", "))
		} else {
			fmt.Fprintf(sb, "  %s = call %s @%s(%s)\n", p.ref(id), v.typ, callee.name, strings.Join(args, ", "))
		}
	case opAlloca:
		fmt.Fprintf(sb, "  %s = alloca %s\n", p.ref(id), v.allocType)
	case opLoad:
		fmt.Fprintf(sb, "  %s = load %s, ptr %s\n", p.ref(id), v.typ, p.ref(v.args[0]))
	case opFieldPtr:
		fmt.Fprintf(sb, "  %s = fieldptr %s, ptr %s, %d\n", p.ref(id), v.allocType, p.ref(v.args[0]), v.aux)
	case opICmp:
		fmt.Fprintf(sb, "  %s = icmp %s %s, %s\n", p.ref(id), IntPred(v.aux),
			p.typedRef(v.args[0]), p.ref(v.args[1]))
	case opFCmp:
		fmt.Fprintf(sb, "  %s = fcmp %s %s, %s\n", p.ref(id), FloatPred(v.aux),
			p.typedRef(v.args[0]), p.ref(v.args[1]))
	case opFNeg:
		fmt.Fprintf(sb, "  %s = fneg %s\n", p.ref(id), p.typedRef(v.args[0]))
	case opTrunc, opZExt, opSExt, opFPTrunc, opFPExt, opFPToSI, opFPToUI, opSIToFP, opUIToFP, opBitcast:
		fmt.Fprintf(sb, "  %s = %s %s to %s\n", p.ref(id), opName(v.op), p.typedRef(v.args[0]), v.typ)
	default:
		fmt.Fprintf(sb, "  %s = %s %s, %s\n", p.ref(id), opName(v.op),
			p.typedRef(v.args[0]), p.ref(v.args[1]))
	}
}

func opName(o op) string {
	switch o {
	case opAdd:
		return "add"
	case opSub:
		return "sub"
	case opMul:
		return "mul"
	case opSDiv:
		return "sdiv"
	case opUDiv:
		return "udiv"
	case opSRem:
		return "srem"
	case opURem:
		return "urem"
	case opAnd:
		return "and"
	case opOr:
		return "or"
	case opXor:
		return "xor"
	case opShl:
		return "shl"
	case opLShr:
		return "lshr"
	case opAShr:
		return "ashr"
	case opFAdd:
		return "fadd"
	case opFSub:
		return "fsub"
	case opFMul:
		return "fmul"
	case opFDiv:
		return "fdiv"
	case opTrunc:
		return "trunc"
	case opZExt:
		return "zext"
	case opSExt:
		return "sext"
	case opFPTrunc:
		return "fptrunc"
	case opFPExt:
		return "fpext"
	case opFPToSI:
		return "fptosi"
	case opFPToUI:
		return "fptoui"
	case opSIToFP:
		return "sitofp"
	case opUIToFP:
		return "uitofp"
	case opBitcast:
		return "bitcast"
	default:
		return fmt.Sprintf("op(%d)", o)
	}
}
