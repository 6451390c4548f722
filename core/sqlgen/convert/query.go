package convert

import (
	"github.com/kqllang/kql/core/mir"
	"github.com/kqllang/kql/core/sqlgen/ast"
)

// Query converts a lowered mir.Query into a SelectNode: the same auto-JOIN
// chain SelectWithJoins builds for its relations, with the projection
// replaced by the query's own columns/aggregates when it declared any
// (spec.md §4.5's `let name = Table.select(...)` pipeline).
func Query(schema *mir.Schema, q *mir.Query) (*ast.SelectNode, error) {
	relationNames := make([]string, len(q.Joins))
	for i, j := range q.Joins {
		relationNames[i] = j.RelationName
	}
	node, err := SelectWithJoins(schema, q.SourceTable, relationNames)
	if err != nil {
		return nil, err
	}
	if len(q.Projection) > 0 {
		proj := make([]*ast.Expr, len(q.Projection))
		for i, p := range q.Projection {
			proj[i] = queryExprToAST(p)
		}
		node.Projection = proj
	}
	return node, nil
}

func queryExprToAST(p mir.QueryExpr) *ast.Expr {
	if p.Kind != mir.QueryExprAggregate {
		return ast.ColumnRef("", p.Column)
	}

	var arg *ast.Expr
	if p.Column == "*" {
		arg = ast.Star()
	} else {
		arg = ast.ColumnRef("", p.Column)
	}
	call := ast.Call(p.FuncName, arg)
	if len(p.PartitionBy) == 0 && len(p.OrderBy) == 0 {
		return call
	}

	over := &ast.OverClause{PartitionBy: p.PartitionBy}
	for _, t := range p.OrderBy {
		over.OrderBy = append(over.OrderBy, ast.OrderTerm{Column: t.Column, Desc: t.Desc})
	}
	return call.WithOver(over)
}
