package ir

import "strings"

// TypeKind discriminates the IR type forms.
type TypeKind uint8

const (
	KindVoid TypeKind = iota
	KindI32
	KindI64
	KindI128
	KindF32
	KindF64
	KindPtr
	KindStruct
	KindFunc
)

// Type is an IR type. Scalar types are the package-level singletons; struct
// and function types are built with StructOf and FuncOf. Compare types with
// Equal, not ==.
type Type struct {
	kind   TypeKind
	fields []Type // KindStruct
	params []Type // KindFunc
	ret    *Type  // KindFunc
}

// Scalar type singletons.
var (
	Void = Type{kind: KindVoid}
	I32  = Type{kind: KindI32}
	I64  = Type{kind: KindI64}
	I128 = Type{kind: KindI128}
	F32  = Type{kind: KindF32}
	F64  = Type{kind: KindF64}
	Ptr  = Type{kind: KindPtr}
)

// StructOf returns a packed aggregate type with the given field types.
func StructOf(fields ...Type) Type {
	return Type{kind: KindStruct, fields: fields}
}

// FuncOf returns a function type with the given return and parameter types.
func FuncOf(ret Type, params ...Type) Type {
	r := ret
	return Type{kind: KindFunc, params: params, ret: &r}
}

// Kind returns the type's kind.
func (t Type) Kind() TypeKind { return t.kind }

// Fields returns a struct type's field types.
func (t Type) Fields() []Type { return t.fields }

// Params returns a function type's parameter types.
func (t Type) Params() []Type { return t.params }

// Return returns a function type's return type.
func (t Type) Return() Type {
	if t.ret == nil {
		return Void
	}
	return *t.ret
}

// IsInt reports whether the type is i32 or i64.
func (t Type) IsInt() bool { return t.kind == KindI32 || t.kind == KindI64 }

// IsFloat reports whether the type is f32 or f64.
func (t Type) IsFloat() bool { return t.kind == KindF32 || t.kind == KindF64 }

// Equal reports structural type equality.
func (t Type) Equal(other Type) bool {
	if t.kind != other.kind {
		return false
	}
	switch t.kind {
	case KindStruct:
		if len(t.fields) != len(other.fields) {
			return false
		}
		for i := range t.fields {
			if !t.fields[i].Equal(other.fields[i]) {
				return false
			}
		}
	case KindFunc:
		if len(t.params) != len(other.params) {
			return false
		}
		for i := range t.params {
			if !t.params[i].Equal(other.params[i]) {
				return false
			}
		}
		if !t.Return().Equal(other.Return()) {
			return false
		}
	}
	return true
}

// String renders the type in the printer's syntax.
func (t Type) String() string {
	switch t.kind {
	case KindVoid:
		return "void"
	case KindI32:
		return "i32"
	case KindI64:
		return "i64"
	case KindI128:
		return "i128"
	case KindF32:
		return "f32"
	case KindF64:
		return "f64"
	case KindPtr:
		return "ptr"
	case KindStruct:
		var sb strings.Builder
		sb.WriteString("{")
		for i, f := range t.fields {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(f.String())
		}
		sb.WriteString("}")
		return sb.String()
	case KindFunc:
		var sb strings.Builder
		sb.WriteString(t.Return().String())
		sb.WriteString(" (")
		for i, p := range t.params {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(p.String())
		}
		sb.WriteString(")")
		return sb.String()
	default:
		return "?"
	}
}
