// Package hir lowers an AST into HIR: a "database" of declarations keyed by
// stable 64-bit ids, with every type resolved and every expression typed.
//
// Two-phase walk grounded on the teacher's recursive directory walk in
// core/goschema/walker.go, generalized from "walk Go files" to "walk
// namespace blocks": phase one only registers names and allocates ids,
// phase two resolves types and lowers content, exactly mirroring the
// teacher's "collect declarations, then process them" structure.
package hir

import (
	"github.com/kqllang/kql/core/diagnostics"
	"github.com/kqllang/kql/core/hirtypes"
	"github.com/kqllang/kql/core/ids"
)

// DeclKind records what kind of declaration a HirId names.
type DeclKind int

const (
	DeclStruct DeclKind = iota
	DeclEnum
	DeclLet
	DeclAlias
)

// Layout is the resolved form of an `@layout(...)` annotation: either the
// JSON layout (structs and enums) or a primitive backing type (enums only),
// per spec.md §9's documented struct/enum asymmetry.
type Layout struct {
	Json      bool
	Primitive hirtypes.Primitive
	IsPrimitive bool
}

// Field is one lowered struct field or enum variant payload field.
type Field struct {
	Name        string
	Type        *hirtypes.Type
	Annotations []*Annotation
	Span        diagnostics.Span
}

// Struct is a lowered struct declaration.
type Struct struct {
	ID          ids.HirId
	Name        string
	Namespace   string // qualified namespace prefix, "" at top level
	Schema      *string
	Layout      *Layout
	Annotations []*Annotation
	Fields      []Field
	Span        diagnostics.Span
}

// QualifiedName is "{namespace}::{name}", matching spec.md §4.4's map key.
func (s *Struct) QualifiedName() string { return qualify(s.Namespace, s.Name) }

// QualifiedName is "{namespace}::{name}", matching the key the MIR query
// lowerer uses for a named `let`-bound query (spec.md §4.5).
func (l *Let) QualifiedName() string { return qualify(l.Namespace, l.Name) }

// Variant is one enum case, with optional payload fields.
type Variant struct {
	Name   string
	Fields []Field
	Span   diagnostics.Span
}

// Enum is a lowered enum declaration.
type Enum struct {
	ID          ids.HirId
	Name        string
	Namespace   string
	Schema      *string
	Layout      *Layout
	Annotations []*Annotation
	Variants    []Variant
	Span        diagnostics.Span
}

// Let is a lowered top-level binding.
type Let struct {
	ID        ids.HirId
	Name      string
	Namespace string
	Type      *hirtypes.Type
	Value     *Expr
	Span      diagnostics.Span
}

// Alias is a lowered type alias.
type Alias struct {
	ID        ids.HirId
	Name      string
	Namespace string
	Target    *hirtypes.Type
	Span      diagnostics.Span
}

// Program is the HIR "database": every declaration, keyed by HirId, plus
// the bijective name<->id maps spec.md §3 requires.
type Program struct {
	NameToID map[string]ids.HirId
	IDToKind map[ids.HirId]DeclKind

	Structs map[ids.HirId]*Struct
	Enums   map[ids.HirId]*Enum
	Lets    map[ids.HirId]*Let
	Aliases map[ids.HirId]*Alias

	// StructOrder preserves declaration order; the MIR lowerer walks
	// structs "in insertion order" per spec.md §4.4.
	StructOrder []ids.HirId

	// LetOrder preserves declaration order for top-level bindings; the MIR
	// lowerer walks lets in this order when looking for query bindings
	// (spec.md §4.5).
	LetOrder []ids.HirId
}

func newProgram() *Program {
	return &Program{
		NameToID: map[string]ids.HirId{},
		IDToKind: map[ids.HirId]DeclKind{},
		Structs:  map[ids.HirId]*Struct{},
		Enums:    map[ids.HirId]*Enum{},
		Lets:     map[ids.HirId]*Let{},
		Aliases:  map[ids.HirId]*Alias{},
	}
}

func qualify(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + "::" + name
}
