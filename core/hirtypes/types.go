// Package hirtypes defines HirType, the resolved type every HIR node
// carries after lowering. Go has no tagged-union types, so HirType is one
// struct with a Kind discriminant and the fields relevant to that kind set
// — the same "plain struct, no interface explosion" idiom the teacher uses
// for its AST nodes (core/ast/nodes.go), applied here to types instead of
// statements.
package hirtypes

import "github.com/kqllang/kql/core/ids"

// Primitive enumerates the primitive HIR types named in spec.md §3.
type Primitive int

const (
	I8 Primitive = iota
	I16
	I32
	I64
	U8
	U16
	U32
	U64
	F32
	F64
	String
	Bool
	DateTime
	Date
	Time
	Uuid
	Decimal
	Bytes
	Json
)

var primitiveNames = map[Primitive]string{
	I8: "i8", I16: "i16", I32: "i32", I64: "i64",
	U8: "u8", U16: "u16", U32: "u32", U64: "u64",
	F32: "f32", F64: "f64",
	String: "String", Bool: "Bool",
	DateTime: "DateTime", Date: "Date", Time: "Time",
	Uuid: "Uuid", Decimal: "Decimal", Bytes: "Bytes", Json: "Json",
}

func (p Primitive) String() string { return primitiveNames[p] }

// PrimitiveByName is the primitive name table consulted last in the type
// resolution order (spec.md §4.3).
var PrimitiveByName = map[string]Primitive{
	"i8": I8, "i16": I16, "i32": I32, "i64": I64,
	"u8": U8, "u16": U16, "u32": U32, "u64": U64,
	"f32": F32, "f64": F64,
	"String": String, "Bool": Bool,
	"DateTime": DateTime, "Date": Date, "Time": Time,
	"Uuid": Uuid, "Decimal": Decimal, "Bytes": Bytes, "Json": Json,
}

// IsNumeric reports whether p participates in arithmetic/ordering checks.
func (p Primitive) IsNumeric() bool {
	switch p {
	case I8, I16, I32, I64, U8, U16, U32, U64, F32, F64:
		return true
	default:
		return false
	}
}

// IsInteger reports whether p is a signed or unsigned integer primitive.
func (p Primitive) IsInteger() bool {
	switch p {
	case I8, I16, I32, I64, U8, U16, U32, U64:
		return true
	default:
		return false
	}
}

// rank orders numeric primitives for implicit widening: a lower-ranked type
// widens to a higher-ranked one. An integer mixed with a float widens to
// that float type (F32 or F64), per spec.md §4.3 "integer -> float" widening.
var rank = map[Primitive]int{
	I8: 0, U8: 0, I16: 1, U16: 1, I32: 2, U32: 2, I64: 3, U64: 3,
	F32: 4, F64: 5,
}

// Kind discriminates the HirType variants named in spec.md §3.
type Kind int

const (
	KindPrimitive Kind = iota
	KindStruct
	KindEnum
	KindList
	KindOptional
	KindKey
	KindUnknown
)

// Type is a fully-resolved HIR type. Exactly the fields matching Kind are
// meaningful; the zero value is Unknown.
type Type struct {
	Kind      Kind
	Primitive Primitive  // Kind == KindPrimitive
	Ref       ids.HirId  // Kind == KindStruct | KindEnum
	Elem      *Type      // Kind == KindList | KindOptional
	Entity    ids.HirId  // Kind == KindKey, ids.Invalid if no owning entity
	Inner     *Type      // Kind == KindKey
}

func NewPrimitive(p Primitive) *Type { return &Type{Kind: KindPrimitive, Primitive: p} }
func NewStructRef(id ids.HirId) *Type { return &Type{Kind: KindStruct, Ref: id} }
func NewEnumRef(id ids.HirId) *Type   { return &Type{Kind: KindEnum, Ref: id} }
func NewList(elem *Type) *Type        { return &Type{Kind: KindList, Elem: elem} }
func NewOptional(inner *Type) *Type   { return &Type{Kind: KindOptional, Elem: inner} }
func NewUnknown() *Type               { return &Type{Kind: KindUnknown} }

// NewKey builds a `Key { entity: Option<HirId>, inner: HirType }` type.
// entity is ids.Invalid when the key has no owning entity (a bare Key<T>).
func NewKey(entity ids.HirId, inner *Type) *Type {
	return &Type{Kind: KindKey, Entity: entity, Inner: inner}
}

// Equal reports structural equality, used by core/hir's let-binding
// type-annotation, binary-operand and list-element checks.
func (t *Type) Equal(other *Type) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.Kind == KindUnknown || other.Kind == KindUnknown {
		return true // Unknown accepted on either side, per spec.md §4.3
	}
	if t.Kind != other.Kind {
		return false
	}
	switch t.Kind {
	case KindPrimitive:
		return t.Primitive == other.Primitive
	case KindStruct, KindEnum:
		return t.Ref == other.Ref
	case KindList, KindOptional:
		return t.Elem.Equal(other.Elem)
	case KindKey:
		return t.Entity == other.Entity && t.Inner.Equal(other.Inner)
	default:
		return true
	}
}

// Widen returns the common numeric type of two primitive types under
// implicit widening, and whether each side needs a cast to reach it.
func Widen(a, b Primitive) (result Primitive, castA, castB bool, ok bool) {
	if !a.IsNumeric() || !b.IsNumeric() {
		return 0, false, false, false
	}
	if a == b {
		return a, false, false, true
	}
	ra, rb := rank[a], rank[b]
	if ra > rb {
		return a, false, true, true
	}
	return b, true, false, true
}

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case KindPrimitive:
		return t.Primitive.String()
	case KindStruct:
		return "struct#" + itoa(uint64(t.Ref))
	case KindEnum:
		return "enum#" + itoa(uint64(t.Ref))
	case KindList:
		return "[" + t.Elem.String() + "]"
	case KindOptional:
		return t.Elem.String() + "?"
	case KindKey:
		return "Key<" + t.Inner.String() + ">"
	default:
		return "Unknown"
	}
}

func itoa(v uint64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}
