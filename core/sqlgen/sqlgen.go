// Package sqlgen ties core/sqlgen/convert (MIR → dialect-resolved AST) and
// core/sqlgen/render (AST → text) together behind the two entry points
// spec.md §4.5/§6 name: DDL generation and DML-by-PK generation.
package sqlgen

import (
	"fmt"

	"github.com/kqllang/kql/core/mir"
	"github.com/kqllang/kql/core/sqlgen/ast"
	"github.com/kqllang/kql/core/sqlgen/convert"
	"github.com/kqllang/kql/core/sqlgen/dialect"
	"github.com/kqllang/kql/core/sqlgen/render"
)

func newRenderer(d dialect.Dialect) (*render.Renderer, error) {
	switch d {
	case dialect.Postgres:
		return render.NewPostgres(), nil
	case dialect.MySQL:
		return render.NewMySQL(), nil
	case dialect.SQLite:
		return render.NewSQLite(), nil
	default:
		return nil, fmt.Errorf("sqlgen: unknown dialect %q", d)
	}
}

// GenerateDDL renders every table's CREATE TABLE and CREATE INDEX statement
// for the given dialect, in dependency order (tables, then indexes).
func GenerateDDL(schema *mir.Schema, d dialect.Dialect) (string, error) {
	r, err := newRenderer(d)
	if err != nil {
		return "", err
	}
	stmts := convert.Database(schema, d)
	if err := stmts.Accept(r); err != nil {
		return "", err
	}
	return r.Output(), nil
}

// GenerateTableDDL renders a single table's CREATE TABLE statement.
func GenerateTableDDL(table *mir.Table, d dialect.Dialect) (string, error) {
	r, err := newRenderer(d)
	if err != nil {
		return "", err
	}
	node := convert.Table(table, d)
	return r.Render(node)
}

// GenerateDML renders the INSERT, UPDATE BY PK, and DELETE BY PK statements
// for one table, per spec.md §4.5.
func GenerateDML(table *mir.Table, d dialect.Dialect) (insert, update, del string, err error) {
	r, err := newRenderer(d)
	if err != nil {
		return "", "", "", err
	}

	insert, err = r.Render(convert.InsertFor(table))
	if err != nil {
		return "", "", "", err
	}
	r.Reset()

	updateNode, err := convert.UpdateFor(table)
	if err != nil {
		return "", "", "", err
	}
	update, err = r.Render(updateNode)
	if err != nil {
		return "", "", "", err
	}
	r.Reset()

	deleteNode, err := convert.DeleteFor(table)
	if err != nil {
		return "", "", "", err
	}
	del, err = r.Render(deleteNode)
	if err != nil {
		return "", "", "", err
	}
	return insert, update, del, nil
}

// GenerateSelect renders a SELECT with auto-JOINs over the named relations
// of srcTable, per spec.md §4.5.
func GenerateSelect(schema *mir.Schema, srcTable string, relationNames []string, d dialect.Dialect) (string, error) {
	r, err := newRenderer(d)
	if err != nil {
		return "", err
	}
	node, err := convert.SelectWithJoins(schema, srcTable, relationNames)
	if err != nil {
		return "", err
	}
	return r.Render(node)
}

// GenerateQuery renders the SELECT a named `let` query binding lowered to,
// per spec.md §4.5. queryName is the query's namespace-qualified name (e.g.
// "db::user_rank"), looked up in schema.Queries rather than built from
// caller-supplied table/relation strings.
func GenerateQuery(schema *mir.Schema, queryName string, d dialect.Dialect) (string, error) {
	q := schema.Query(queryName)
	if q == nil {
		return "", fmt.Errorf("sqlgen: unknown query %q", queryName)
	}
	r, err := newRenderer(d)
	if err != nil {
		return "", err
	}
	node, err := convert.Query(schema, q)
	if err != nil {
		return "", err
	}
	return r.Render(node)
}

// Aggregate builds an aggregate/window-function projection expression,
// per spec.md §4.5: count(*)|sum|avg|max|min, optionally wrapped in an
// OVER (PARTITION BY ... ORDER BY ...) clause.
func Aggregate(funcName string, column string, over *ast.OverClause) *ast.Expr {
	var arg *ast.Expr
	if column == "*" {
		arg = ast.Star()
	} else {
		arg = ast.ColumnRef("", column)
	}
	call := ast.Call(funcName, arg)
	if over != nil {
		call.WithOver(over)
	}
	return call
}
