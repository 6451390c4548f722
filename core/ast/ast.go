// Package ast defines the KQL abstract syntax tree produced by core/parser.
//
// Grounded on the node-set shape of stokaro/ptah's core/ast package (plain
// exported structs, no interface explosion per node) generalized from a SQL
// DDL AST to a KQL source AST: declarations, types and expressions instead
// of CREATE TABLE statements.
package ast

import "github.com/kqllang/kql/core/diagnostics"

// File is the root node: an ordered sequence of top-level declarations.
type File struct {
	Decls []Decl
	Span  diagnostics.Span
}

// Decl is one of StructDecl, EnumDecl, LetDecl, NamespaceDecl, TypeAliasDecl.
type Decl interface {
	declNode()
	Span() diagnostics.Span
}

// StructDecl declares a named struct with annotations and fields.
type StructDecl struct {
	Name        string
	Annotations []Annotation
	Fields      []Field
	span        diagnostics.Span
}

func NewStructDecl(name string, span diagnostics.Span) *StructDecl {
	return &StructDecl{Name: name, span: span}
}
func (d *StructDecl) declNode()               {}
func (d *StructDecl) Span() diagnostics.Span  { return d.span }

// Field is one struct field: annotations, name, declared type.
type Field struct {
	Name        string
	Type        Type
	Annotations []Annotation
	Span        diagnostics.Span
}

// EnumDecl declares a named enum with variants, optionally carrying
// payload fields (a "struct-like" variant).
type EnumDecl struct {
	Name        string
	Annotations []Annotation
	Variants    []Variant
	span        diagnostics.Span
}

func NewEnumDecl(name string, span diagnostics.Span) *EnumDecl {
	return &EnumDecl{Name: name, span: span}
}
func (d *EnumDecl) declNode()              {}
func (d *EnumDecl) Span() diagnostics.Span { return d.span }

// Variant is one enum case, with optional payload fields.
type Variant struct {
	Name   string
	Fields []Field
	Span   diagnostics.Span
}

// LetDecl is a top-level constant/expression binding, with an optional
// explicit type annotation.
type LetDecl struct {
	Name  string
	Type  Type // nil if omitted; HIR infers it
	Value Expr
	span  diagnostics.Span
}

func NewLetDecl(name string, span diagnostics.Span) *LetDecl {
	return &LetDecl{Name: name, span: span}
}
func (d *LetDecl) declNode()              {}
func (d *LetDecl) Span() diagnostics.Span { return d.span }

// NamespaceDecl is a `namespace Name { ... }` block grouping declarations
// under a qualified prefix. A namespace declaration with no block (bare
// `namespace Name;`) is rejected by the parser at the top level — see
// spec.md §4.3 Phase 1.
type NamespaceDecl struct {
	Name  string
	Decls []Decl
	span  diagnostics.Span
}

func NewNamespaceDecl(name string, span diagnostics.Span) *NamespaceDecl {
	return &NamespaceDecl{Name: name, span: span}
}
func (d *NamespaceDecl) declNode()              {}
func (d *NamespaceDecl) Span() diagnostics.Span { return d.span }

// TypeAliasDecl is a `type Name = T;` declaration.
type TypeAliasDecl struct {
	Name string
	Type Type
	span diagnostics.Span
}

func NewTypeAliasDecl(name string, span diagnostics.Span) *TypeAliasDecl {
	return &TypeAliasDecl{Name: name, span: span}
}
func (d *TypeAliasDecl) declNode()              {}
func (d *TypeAliasDecl) Span() diagnostics.Span { return d.span }

// Type is one of NamedType, ListType, OptionalType.
type Type interface {
	typeNode()
	Span() diagnostics.Span
}

// NamedType is a plain or generic type reference, e.g. `String`,
// `Key<i32>`, `ForeignKey<User>`.
type NamedType struct {
	Name string
	Args []Type
	span diagnostics.Span
}

func NewNamedType(name string, span diagnostics.Span) *NamedType {
	return &NamedType{Name: name, span: span}
}
func (t *NamedType) typeNode()              {}
func (t *NamedType) Span() diagnostics.Span { return t.span }

// SetSpanEnd extends the type's span to end, once its generic argument
// list's closing '>' has been parsed.
func (t *NamedType) SetSpanEnd(end int) { t.span.End = end }

// ListType is `[T]`.
type ListType struct {
	Elem Type
	span diagnostics.Span
}

func NewListType(elem Type, span diagnostics.Span) *ListType {
	return &ListType{Elem: elem, span: span}
}
func (t *ListType) typeNode()              {}
func (t *ListType) Span() diagnostics.Span { return t.span }

// OptionalType is `T?`.
type OptionalType struct {
	Inner Type
	span  diagnostics.Span
}

func NewOptionalType(inner Type, span diagnostics.Span) *OptionalType {
	return &OptionalType{Inner: inner, span: span}
}
func (t *OptionalType) typeNode()              {}
func (t *OptionalType) Span() diagnostics.Span { return t.span }

// Annotation is the `@name(args?)` grammar primitive attached to
// declarations and fields. Arguments are either positional or named
// (key: value); HIR interprets them against the closed annotation
// registry (core/hir/annotations.go).
type Annotation struct {
	Name string
	Args []AnnotationArg
	Span diagnostics.Span
}

// AnnotationArg is one argument to an annotation: `expr` (positional) or
// `name: expr` (named).
type AnnotationArg struct {
	Name  string // empty for positional args
	Value Expr
}
