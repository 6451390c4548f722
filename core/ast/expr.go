package ast

import "github.com/kqllang/kql/core/diagnostics"

// Expr is one of the expression node kinds: literals, variables, binary
// and unary operators, calls, member access, and list literals.
type Expr interface {
	exprNode()
	Span() diagnostics.Span
}

// NumberLit stores the literal text verbatim (spec §3: "number as literal
// text"); HIR decides its numeric type during lowering.
type NumberLit struct {
	Text string
	span diagnostics.Span
}

func NewNumberLit(text string, span diagnostics.Span) *NumberLit { return &NumberLit{Text: text, span: span} }
func (e *NumberLit) exprNode()              {}
func (e *NumberLit) Span() diagnostics.Span { return e.span }

// StringLit is a double-quoted string literal with escapes already decoded.
type StringLit struct {
	Value string
	span  diagnostics.Span
}

func NewStringLit(value string, span diagnostics.Span) *StringLit { return &StringLit{Value: value, span: span} }
func (e *StringLit) exprNode()              {}
func (e *StringLit) Span() diagnostics.Span { return e.span }

// BoolLit is `true` or `false`.
type BoolLit struct {
	Value bool
	span  diagnostics.Span
}

func NewBoolLit(value bool, span diagnostics.Span) *BoolLit { return &BoolLit{Value: value, span: span} }
func (e *BoolLit) exprNode()              {}
func (e *BoolLit) Span() diagnostics.Span { return e.span }

// Ident is a variable reference (a field name, a let-binding name, etc).
type Ident struct {
	Name string
	span diagnostics.Span
}

func NewIdent(name string, span diagnostics.Span) *Ident { return &Ident{Name: name, span: span} }
func (e *Ident) exprNode()              {}
func (e *Ident) Span() diagnostics.Span { return e.span }

// BinaryExpr is `lhs op rhs`.
type BinaryExpr struct {
	Op    string
	LHS   Expr
	RHS   Expr
	span  diagnostics.Span
}

func NewBinaryExpr(op string, lhs, rhs Expr, span diagnostics.Span) *BinaryExpr {
	return &BinaryExpr{Op: op, LHS: lhs, RHS: rhs, span: span}
}
func (e *BinaryExpr) exprNode()              {}
func (e *BinaryExpr) Span() diagnostics.Span { return e.span }

// UnaryExpr is `op operand` (`-x`, `!x`).
type UnaryExpr struct {
	Op      string
	Operand Expr
	span    diagnostics.Span
}

func NewUnaryExpr(op string, operand Expr, span diagnostics.Span) *UnaryExpr {
	return &UnaryExpr{Op: op, Operand: operand, span: span}
}
func (e *UnaryExpr) exprNode()              {}
func (e *UnaryExpr) Span() diagnostics.Span { return e.span }

// CallExpr is `callee(args...)`, a postfix operator at Call precedence.
// Arguments may be positional or named (`partition_by: city`), mirroring
// the annotation-argument grammar; ArgNames is parallel to Args, with ""
// marking a positional argument.
type CallExpr struct {
	Callee   Expr
	Args     []Expr
	ArgNames []string
	span     diagnostics.Span
}

func NewCallExpr(callee Expr, args []Expr, argNames []string, span diagnostics.Span) *CallExpr {
	return &CallExpr{Callee: callee, Args: args, ArgNames: argNames, span: span}
}
func (e *CallExpr) exprNode()              {}
func (e *CallExpr) Span() diagnostics.Span { return e.span }

// MemberExpr is `receiver.name`, a postfix operator at Member precedence.
type MemberExpr struct {
	Receiver Expr
	Name     string
	span     diagnostics.Span
}

func NewMemberExpr(receiver Expr, name string, span diagnostics.Span) *MemberExpr {
	return &MemberExpr{Receiver: receiver, Name: name, span: span}
}
func (e *MemberExpr) exprNode()              {}
func (e *MemberExpr) Span() diagnostics.Span { return e.span }

// StarExpr is the bare `*` argument to a free-function aggregate call,
// e.g. `count(*)` (spec.md §4.5).
type StarExpr struct {
	span diagnostics.Span
}

func NewStarExpr(span diagnostics.Span) *StarExpr { return &StarExpr{span: span} }
func (e *StarExpr) exprNode()              {}
func (e *StarExpr) Span() diagnostics.Span { return e.span }

// ListExpr is a `[e, ...]` list literal.
type ListExpr struct {
	Elems []Expr
	span  diagnostics.Span
}

func NewListExpr(elems []Expr, span diagnostics.Span) *ListExpr {
	return &ListExpr{Elems: elems, span: span}
}
func (e *ListExpr) exprNode()              {}
func (e *ListExpr) Span() diagnostics.Span { return e.span }
