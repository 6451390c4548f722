package hir

import (
	"strings"

	"github.com/kqllang/kql/core/ast"
	"github.com/kqllang/kql/core/diagnostics"
	"github.com/kqllang/kql/core/hirtypes"
)

// lowerExpr lowers and type-checks one AST expression, per the rules in
// spec.md §4.3 "Expression type checking".
func (l *lowerer) lowerExpr(ctx *lowerCtx, e ast.Expr) (*Expr, error) {
	switch e := e.(type) {
	case *ast.NumberLit:
		return lowerNumberLit(e), nil
	case *ast.StringLit:
		return &Expr{Kind: ExprString, StringVal: e.Value, Type: hirtypes.NewPrimitive(hirtypes.String), Span: e.Span()}, nil
	case *ast.BoolLit:
		return &Expr{Kind: ExprBool, BoolVal: e.Value, Type: hirtypes.NewPrimitive(hirtypes.Bool), Span: e.Span()}, nil
	case *ast.Ident:
		return l.lowerIdent(ctx, e)
	case *ast.BinaryExpr:
		return l.lowerBinary(ctx, e)
	case *ast.UnaryExpr:
		return l.lowerUnary(ctx, e)
	case *ast.CallExpr:
		return l.lowerCall(ctx, e)
	case *ast.MemberExpr:
		return l.lowerMember(ctx, e)
	case *ast.ListExpr:
		return l.lowerList(ctx, e)
	case *ast.StarExpr:
		return &Expr{Kind: ExprStar, Type: hirtypes.NewUnknown(), Span: e.Span()}, nil
	default:
		return nil, diagnostics.At(diagnostics.Internal, e.Span(), "unhandled AST expression node")
	}
}

// lowerNumberLit infers a default numeric type from the literal's shape: a
// literal containing '.' is F64, otherwise I64. This default is then free
// to widen further via an enclosing operator (spec.md §4.3).
func lowerNumberLit(e *ast.NumberLit) *Expr {
	prim := hirtypes.I64
	if strings.Contains(e.Text, ".") {
		prim = hirtypes.F64
	}
	return &Expr{Kind: ExprNumber, NumberText: e.Text, Type: hirtypes.NewPrimitive(prim), Span: e.Span()}
}

// lowerIdent resolves a bare identifier against the current namespace's
// let-bindings and the global name table. Column/field references that
// belong to a later stage's own expression model (e.g. SQL generator
// projections over MIR columns) are not HIR names; an identifier that
// resolves to neither yields Unknown rather than a hard error, matching
// spec.md §4.3's "unknown calls return Unknown" leniency.
func (l *lowerer) lowerIdent(ctx *lowerCtx, e *ast.Ident) (*Expr, error) {
	if id, ok := l.prog.NameToID[qualify(ctx.namespace, e.Name)]; ok {
		if let, ok := l.prog.Lets[id]; ok {
			return &Expr{Kind: ExprIdent, IdentName: e.Name, Type: let.Type, Span: e.Span()}, nil
		}
	}
	if id, ok := l.prog.NameToID[e.Name]; ok {
		if let, ok := l.prog.Lets[id]; ok {
			return &Expr{Kind: ExprIdent, IdentName: e.Name, Type: let.Type, Span: e.Span()}, nil
		}
	}
	return &Expr{Kind: ExprIdent, IdentName: e.Name, Type: hirtypes.NewUnknown(), Span: e.Span()}, nil
}

func (l *lowerer) lowerBinary(ctx *lowerCtx, e *ast.BinaryExpr) (*Expr, error) {
	lhs, err := l.lowerExpr(ctx, e.LHS)
	if err != nil {
		return nil, err
	}
	rhs, err := l.lowerExpr(ctx, e.RHS)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case "+", "-", "*", "/", "%":
		return checkArithmetic(e, lhs, rhs)
	case "==", "!=":
		return checkEquality(e, lhs, rhs)
	case "<", "<=", ">", ">=":
		return checkOrdering(e, lhs, rhs)
	case "&&", "||":
		return checkLogical(e, lhs, rhs)
	default:
		return nil, diagnostics.At(diagnostics.Internal, e.Span(), "unhandled binary operator %q", e.Op)
	}
}

func checkArithmetic(e *ast.BinaryExpr, lhs, rhs *Expr) (*Expr, error) {
	if lhs.Type.Kind == hirtypes.KindUnknown || rhs.Type.Kind == hirtypes.KindUnknown {
		return &Expr{Kind: ExprBinary, Op: e.Op, LHS: lhs, RHS: rhs, Type: hirtypes.NewUnknown(), Span: e.Span()}, nil
	}
	if lhs.Type.Kind != hirtypes.KindPrimitive || rhs.Type.Kind != hirtypes.KindPrimitive {
		return nil, diagnostics.At(diagnostics.Semantic, e.Span(), "arithmetic operand must be a numeric primitive")
	}
	result, castL, castR, ok := hirtypes.Widen(lhs.Type.Primitive, rhs.Type.Primitive)
	if !ok {
		return nil, diagnostics.At(diagnostics.Semantic, e.Span(),
			"cannot apply %q to %s and %s", e.Op, lhs.Type, rhs.Type)
	}
	if castL {
		lhs = castTo(lhs, result)
	}
	if castR {
		rhs = castTo(rhs, result)
	}
	return &Expr{Kind: ExprBinary, Op: e.Op, LHS: lhs, RHS: rhs, Type: hirtypes.NewPrimitive(result), Span: e.Span()}, nil
}

func castTo(e *Expr, to hirtypes.Primitive) *Expr {
	return &Expr{Kind: ExprCast, Operand: e, Type: hirtypes.NewPrimitive(to), Span: e.Span}
}

func checkEquality(e *ast.BinaryExpr, lhs, rhs *Expr) (*Expr, error) {
	if !lhs.Type.Equal(rhs.Type) {
		return nil, diagnostics.At(diagnostics.Semantic, e.Span(),
			"%q requires operands of equal type, got %s and %s", e.Op, lhs.Type, rhs.Type)
	}
	return &Expr{Kind: ExprBinary, Op: e.Op, LHS: lhs, RHS: rhs, Type: hirtypes.NewPrimitive(hirtypes.Bool), Span: e.Span()}, nil
}

func checkOrdering(e *ast.BinaryExpr, lhs, rhs *Expr) (*Expr, error) {
	if lhs.Type.Kind == hirtypes.KindUnknown || rhs.Type.Kind == hirtypes.KindUnknown {
		return &Expr{Kind: ExprBinary, Op: e.Op, LHS: lhs, RHS: rhs, Type: hirtypes.NewPrimitive(hirtypes.Bool), Span: e.Span()}, nil
	}
	sameNumeric := lhs.Type.Kind == hirtypes.KindPrimitive && rhs.Type.Kind == hirtypes.KindPrimitive &&
		lhs.Type.Primitive.IsNumeric() && lhs.Type.Primitive == rhs.Type.Primitive
	sameDateTime := lhs.Type.Kind == hirtypes.KindPrimitive && rhs.Type.Kind == hirtypes.KindPrimitive &&
		lhs.Type.Primitive == hirtypes.DateTime && rhs.Type.Primitive == hirtypes.DateTime
	if !sameNumeric && !sameDateTime {
		return nil, diagnostics.At(diagnostics.Semantic, e.Span(),
			"%q requires two operands of the same numeric or DateTime type, got %s and %s", e.Op, lhs.Type, rhs.Type)
	}
	return &Expr{Kind: ExprBinary, Op: e.Op, LHS: lhs, RHS: rhs, Type: hirtypes.NewPrimitive(hirtypes.Bool), Span: e.Span()}, nil
}

func checkLogical(e *ast.BinaryExpr, lhs, rhs *Expr) (*Expr, error) {
	if !isBoolOrUnknown(lhs.Type) || !isBoolOrUnknown(rhs.Type) {
		return nil, diagnostics.At(diagnostics.Semantic, e.Span(), "%q requires boolean operands", e.Op)
	}
	return &Expr{Kind: ExprBinary, Op: e.Op, LHS: lhs, RHS: rhs, Type: hirtypes.NewPrimitive(hirtypes.Bool), Span: e.Span()}, nil
}

func isBoolOrUnknown(t *hirtypes.Type) bool {
	return t.Kind == hirtypes.KindUnknown || (t.Kind == hirtypes.KindPrimitive && t.Primitive == hirtypes.Bool)
}

func (l *lowerer) lowerUnary(ctx *lowerCtx, e *ast.UnaryExpr) (*Expr, error) {
	operand, err := l.lowerExpr(ctx, e.Operand)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case "-":
		if operand.Type.Kind != hirtypes.KindUnknown &&
			(operand.Type.Kind != hirtypes.KindPrimitive || !operand.Type.Primitive.IsNumeric()) {
			return nil, diagnostics.At(diagnostics.Semantic, e.Span(), "unary - requires a numeric operand")
		}
		return &Expr{Kind: ExprUnary, Op: e.Op, Operand: operand, Type: operand.Type, Span: e.Span()}, nil
	case "!":
		if !isBoolOrUnknown(operand.Type) {
			return nil, diagnostics.At(diagnostics.Semantic, e.Span(), "unary ! requires a boolean operand")
		}
		return &Expr{Kind: ExprUnary, Op: e.Op, Operand: operand, Type: hirtypes.NewPrimitive(hirtypes.Bool), Span: e.Span()}, nil
	default:
		return nil, diagnostics.At(diagnostics.Internal, e.Span(), "unhandled unary operator %q", e.Op)
	}
}

// builtins maps the closed set of builtin call names to their result type
// (spec.md §4.3). count is special-cased to I64 in lowerCall. Other calls
// outside this set are not an error: they return Unknown, since the
// remaining aggregate/window functions (sum, avg, ...) are resolved and
// typed later, against MIR column types, by the SQL generator.
var builtins = map[string]hirtypes.Primitive{
	"now":  hirtypes.DateTime,
	"uuid": hirtypes.Uuid,
}

func (l *lowerer) lowerCall(ctx *lowerCtx, e *ast.CallExpr) (*Expr, error) {
	callee, err := l.lowerExpr(ctx, e.Callee)
	if err != nil {
		return nil, err
	}
	var args []*Expr
	for _, a := range e.Args {
		lowered, err := l.lowerExpr(ctx, a)
		if err != nil {
			return nil, err
		}
		args = append(args, lowered)
	}

	resultType := hirtypes.NewUnknown()
	if callee.Kind == ExprIdent {
		switch callee.IdentName {
		case "count":
			resultType = hirtypes.NewPrimitive(hirtypes.I64)
		default:
			if p, ok := builtins[callee.IdentName]; ok {
				resultType = hirtypes.NewPrimitive(p)
			}
		}
	}
	return &Expr{Kind: ExprCall, Callee: callee, Args: args, ArgNames: e.ArgNames, Type: resultType, Span: e.Span()}, nil
}

func (l *lowerer) lowerMember(ctx *lowerCtx, e *ast.MemberExpr) (*Expr, error) {
	receiver, err := l.lowerExpr(ctx, e.Receiver)
	if err != nil {
		return nil, err
	}
	// Member access (`.over(...)`, `.desc()`, column projections) is typed
	// by the SQL generator once the receiver resolves to a MIR column or
	// aggregate; HIR only records the shape.
	return &Expr{Kind: ExprMember, Receiver: receiver, MemberName: e.Name, Type: hirtypes.NewUnknown(), Span: e.Span()}, nil
}

func (l *lowerer) lowerList(ctx *lowerCtx, e *ast.ListExpr) (*Expr, error) {
	var elems []*Expr
	var elemType *hirtypes.Type
	for _, el := range e.Elems {
		lowered, err := l.lowerExpr(ctx, el)
		if err != nil {
			return nil, err
		}
		if elemType == nil {
			elemType = lowered.Type
		} else if !elemType.Equal(lowered.Type) {
			return nil, diagnostics.At(diagnostics.Semantic, el.Span(), "list elements must share a single type")
		}
		elems = append(elems, lowered)
	}
	if elemType == nil {
		elemType = hirtypes.NewUnknown()
	}
	return &Expr{Kind: ExprList, Elems: elems, Type: hirtypes.NewList(elemType), Span: e.Span()}, nil
}
