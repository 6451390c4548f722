package mir

import (
	"github.com/kqllang/kql/core/diagnostics"
	"github.com/kqllang/kql/core/hir"
	"github.com/kqllang/kql/core/ids"
)

// aggregateFuncs is the closed set of aggregate/window function names
// spec.md §4.5 names: `count(*) | sum(x) | avg(x) | max(x) | min(x)`.
var aggregateFuncs = map[string]bool{
	"count": true, "sum": true, "avg": true, "max": true, "min": true,
}

// lowerQueries walks every let-binding in declaration order and lowers the
// ones shaped as a relational query — `Table.select(...)` or a bare
// relation member access like `Table.relationName` — into a mir.Query.
// Lets that match neither shape (plain constants, now(), ...) are not an
// error: not every let binding is a query.
func (l *lowering) lowerQueries() error {
	for _, id := range l.prog.LetOrder {
		let := l.prog.Lets[id]
		q, ok, err := l.lowerQuery(let)
		if err != nil {
			return err
		}
		if ok {
			l.schema.Queries = append(l.schema.Queries, q)
		}
	}
	return nil
}

func (l *lowering) lowerQuery(let *hir.Let) (Query, bool, error) {
	switch let.Value.Kind {
	case hir.ExprCall:
		return l.lowerSelectQuery(let)
	case hir.ExprMember:
		return l.lowerRelationQuery(let)
	default:
		return Query{}, false, nil
	}
}

// resolveStructIdent resolves an identifier naming a struct (e.g. "User" in
// `User.select(...)`) to its HirId, trying the let's own namespace before
// the global name table — the same lookup order core/hir's resolveNamedType
// uses for types.
func (l *lowering) resolveStructIdent(namespace string, e *hir.Expr) (ids.HirId, bool) {
	if e.Kind != hir.ExprIdent {
		return ids.Invalid, false
	}
	if namespace != "" {
		if id, ok := l.prog.NameToID[namespace+"::"+e.IdentName]; ok && l.prog.IDToKind[id] == hir.DeclStruct {
			return id, true
		}
	}
	if id, ok := l.prog.NameToID[e.IdentName]; ok && l.prog.IDToKind[id] == hir.DeclStruct {
		return id, true
	}
	return ids.Invalid, false
}

func (l *lowering) sourceTable(namespace string, receiver *hir.Expr) (*Table, bool) {
	structID, ok := l.resolveStructIdent(namespace, receiver)
	if !ok {
		return nil, false
	}
	idx, ok := l.tableIndexByID[structID]
	if !ok {
		return nil, false
	}
	return &l.schema.Tables[idx], true
}

// lowerSelectQuery lowers a `Table.select(projections...)` let binding.
func (l *lowering) lowerSelectQuery(let *hir.Let) (Query, bool, error) {
	call := let.Value
	if call.Callee == nil || call.Callee.Kind != hir.ExprMember || call.Callee.MemberName != "select" {
		return Query{}, false, nil
	}
	table, ok := l.sourceTable(let.Namespace, call.Callee.Receiver)
	if !ok {
		return Query{}, false, nil
	}

	q := Query{Name: let.QualifiedName(), SourceTable: table.QualifiedName()}
	for _, arg := range call.Args {
		proj, err := lowerProjection(arg)
		if err != nil {
			return Query{}, false, err
		}
		q.Projection = append(q.Projection, proj)
	}
	return q, true, nil
}

// lowerRelationQuery lowers a bare `Table.relationName` let binding (no
// `.select(...)`) into an implicit `SELECT *` query across that relation.
func (l *lowering) lowerRelationQuery(let *hir.Let) (Query, bool, error) {
	member := let.Value
	table, ok := l.sourceTable(let.Namespace, member.Receiver)
	if !ok {
		return Query{}, false, nil
	}
	rel := tableRelation(table, member.MemberName)
	if rel == nil {
		return Query{}, false, nil
	}
	return Query{
		Name:        let.QualifiedName(),
		SourceTable: table.QualifiedName(),
		Joins:       []QueryJoin{{RelationName: rel.Name, TargetTable: rel.TargetTable}},
	}, true, nil
}

func tableRelation(t *Table, name string) *Relation {
	for i := range t.Relations {
		if t.Relations[i].Name == name {
			return &t.Relations[i]
		}
	}
	return nil
}

func lowerProjection(e *hir.Expr) (QueryExpr, error) {
	switch e.Kind {
	case hir.ExprIdent:
		return QueryExpr{Kind: QueryExprColumn, Column: e.IdentName}, nil
	case hir.ExprCall:
		return lowerAggregateProjection(e)
	default:
		return QueryExpr{}, diagnostics.At(diagnostics.Semantic, e.Span, "unsupported query projection expression")
	}
}

// lowerAggregateProjection handles both `score.count()` and the same call
// wrapped in `.over(partition_by: ..., order_by: ...)`.
func lowerAggregateProjection(call *hir.Expr) (QueryExpr, error) {
	if call.Callee != nil && call.Callee.Kind == hir.ExprMember && call.Callee.MemberName == "over" {
		base, err := lowerBareAggregate(call.Callee.Receiver)
		if err != nil {
			return QueryExpr{}, err
		}
		partitionBy, orderBy, err := lowerOverArgs(call)
		if err != nil {
			return QueryExpr{}, err
		}
		base.PartitionBy = partitionBy
		base.OrderBy = orderBy
		return base, nil
	}
	return lowerBareAggregate(call)
}

func lowerBareAggregate(call *hir.Expr) (QueryExpr, error) {
	if call.Kind != hir.ExprCall || call.Callee == nil {
		return QueryExpr{}, diagnostics.At(diagnostics.Semantic, call.Span, "expected an aggregate call")
	}
	switch callee := call.Callee; callee.Kind {
	case hir.ExprMember:
		if !aggregateFuncs[callee.MemberName] {
			return QueryExpr{}, diagnostics.At(diagnostics.Semantic, callee.Span, "unknown aggregate function %q", callee.MemberName)
		}
		column, err := columnName(callee.Receiver)
		if err != nil {
			return QueryExpr{}, err
		}
		return QueryExpr{Kind: QueryExprAggregate, FuncName: callee.MemberName, Column: column}, nil
	case hir.ExprIdent:
		if !aggregateFuncs[callee.IdentName] {
			return QueryExpr{}, diagnostics.At(diagnostics.Semantic, callee.Span, "unknown aggregate function %q", callee.IdentName)
		}
		if len(call.Args) != 1 {
			return QueryExpr{}, diagnostics.At(diagnostics.Semantic, call.Span, "%s(...) takes exactly one argument", callee.IdentName)
		}
		column, err := columnName(call.Args[0])
		if err != nil {
			return QueryExpr{}, err
		}
		return QueryExpr{Kind: QueryExprAggregate, FuncName: callee.IdentName, Column: column}, nil
	default:
		return QueryExpr{}, diagnostics.At(diagnostics.Semantic, call.Span, "unsupported aggregate call shape")
	}
}

func columnName(e *hir.Expr) (string, error) {
	switch e.Kind {
	case hir.ExprIdent:
		return e.IdentName, nil
	case hir.ExprStar:
		return "*", nil
	default:
		return "", diagnostics.At(diagnostics.Semantic, e.Span, "expected a column reference or *")
	}
}

// lowerOverArgs reads the named `partition_by`/`order_by` arguments off an
// `.over(...)` call.
func lowerOverArgs(call *hir.Expr) ([]string, []QueryOrderTerm, error) {
	var partitionBy []string
	var orderBy []QueryOrderTerm
	for i, arg := range call.Args {
		name := ""
		if i < len(call.ArgNames) {
			name = call.ArgNames[i]
		}
		switch name {
		case "partition_by":
			cols, err := columnList(arg)
			if err != nil {
				return nil, nil, err
			}
			partitionBy = append(partitionBy, cols...)
		case "order_by":
			terms, err := orderTerms(arg)
			if err != nil {
				return nil, nil, err
			}
			orderBy = append(orderBy, terms...)
		default:
			return nil, nil, diagnostics.At(diagnostics.Semantic, arg.Span, "over(...) only accepts partition_by and order_by named arguments")
		}
	}
	return partitionBy, orderBy, nil
}

func columnList(e *hir.Expr) ([]string, error) {
	if e.Kind == hir.ExprList {
		var cols []string
		for _, el := range e.Elems {
			col, err := columnName(el)
			if err != nil {
				return nil, err
			}
			cols = append(cols, col)
		}
		return cols, nil
	}
	col, err := columnName(e)
	if err != nil {
		return nil, err
	}
	return []string{col}, nil
}

func orderTerms(e *hir.Expr) ([]QueryOrderTerm, error) {
	if e.Kind == hir.ExprList {
		var terms []QueryOrderTerm
		for _, el := range e.Elems {
			t, err := orderTerm(el)
			if err != nil {
				return nil, err
			}
			terms = append(terms, t)
		}
		return terms, nil
	}
	t, err := orderTerm(e)
	if err != nil {
		return nil, err
	}
	return []QueryOrderTerm{t}, nil
}

// orderTerm lowers one order_by entry: a bare column, or `column.desc()` /
// `column.asc()`.
func orderTerm(e *hir.Expr) (QueryOrderTerm, error) {
	if e.Kind == hir.ExprCall && e.Callee != nil && e.Callee.Kind == hir.ExprMember {
		switch e.Callee.MemberName {
		case "desc":
			return QueryOrderTerm{Column: identName(e.Callee.Receiver), Desc: true}, nil
		case "asc":
			return QueryOrderTerm{Column: identName(e.Callee.Receiver), Desc: false}, nil
		}
	}
	if e.Kind == hir.ExprIdent {
		return QueryOrderTerm{Column: e.IdentName}, nil
	}
	return QueryOrderTerm{}, diagnostics.At(diagnostics.Semantic, e.Span, "order_by entries must be a column or column.desc()/asc()")
}

func identName(e *hir.Expr) string {
	if e != nil && e.Kind == hir.ExprIdent {
		return e.IdentName
	}
	return ""
}
