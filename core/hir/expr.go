package hir

import (
	"github.com/kqllang/kql/core/diagnostics"
	"github.com/kqllang/kql/core/hirtypes"
)

// ExprKind discriminates the lowered expression node shapes.
type ExprKind int

const (
	ExprNumber ExprKind = iota
	ExprString
	ExprBool
	ExprIdent
	ExprBinary
	ExprUnary
	ExprCall
	ExprMember
	ExprList
	ExprCast
	ExprStar
)

// Expr is a fully-typed HIR expression. As with hirtypes.Type, one struct
// carries every variant's fields; Kind says which ones are meaningful.
type Expr struct {
	Kind ExprKind
	Type *hirtypes.Type
	Span diagnostics.Span

	NumberText string
	StringVal  string
	BoolVal    bool
	IdentName  string

	Op  string // ExprBinary, ExprUnary
	LHS *Expr  // ExprBinary
	RHS *Expr  // ExprBinary

	Operand *Expr // ExprUnary, ExprCast

	Callee   *Expr    // ExprCall
	Args     []*Expr  // ExprCall
	ArgNames []string // ExprCall; parallel to Args, "" marks a positional argument

	Receiver   *Expr // ExprMember
	MemberName string

	Elems []*Expr // ExprList
}
