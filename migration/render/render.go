// Package render turns an ordered []diff.Step into dialect-specific SQL
// text, by converting each step into a core/sqlgen/ast node and handing it
// to core/sqlgen/render.Renderer — no rendering logic lives here, only the
// diff.Step -> ast.Node mapping spec.md §4.6 implies ("each migration step
// renders the same way its corresponding DDL would").
package render

import (
	"fmt"
	"strings"

	"github.com/kqllang/kql/core/sqlgen/ast"
	"github.com/kqllang/kql/core/sqlgen/convert"
	"github.com/kqllang/kql/core/sqlgen/dialect"
	sqlrender "github.com/kqllang/kql/core/sqlgen/render"
	"github.com/kqllang/kql/migration/diff"
)

func newRenderer(d dialect.Dialect) (*sqlrender.Renderer, error) {
	switch d {
	case dialect.Postgres:
		return sqlrender.NewPostgres(), nil
	case dialect.MySQL:
		return sqlrender.NewMySQL(), nil
	case dialect.SQLite:
		return sqlrender.NewSQLite(), nil
	default:
		return nil, fmt.Errorf("migration/render: unknown dialect %q", d)
	}
}

// Steps renders every step in order, concatenating each statement's output,
// in the same up-then-down direction the caller builds its steps in.
func Steps(steps []diff.Step, d dialect.Dialect) (string, error) {
	r, err := newRenderer(d)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	for _, step := range steps {
		node, err := toNode(step, d)
		if err != nil {
			return "", err
		}
		r.Reset()
		stmt, err := r.Render(node)
		if err != nil {
			return "", fmt.Errorf("migration/render: step %v on %s: %w", step.Kind, step.Table, err)
		}
		out.WriteString(stmt)
	}
	return out.String(), nil
}

func toNode(step diff.Step, d dialect.Dialect) (ast.Node, error) {
	switch step.Kind {
	case diff.CreateTable:
		if step.NewTable == nil {
			return nil, fmt.Errorf("migration/render: CreateTable step for %s has no table", step.Table)
		}
		return convert.Table(step.NewTable, d), nil

	case diff.DropTable:
		return &ast.DropTableNode{Name: step.Table}, nil

	case diff.RenameTable:
		return &ast.RenameTableNode{OldName: step.OldName, NewName: step.NewName}, nil

	case diff.AddColumn:
		col := convert.ColumnForAlter(step.Column, d)
		return &ast.AlterTableNode{
			Name:       step.Table,
			Operations: []ast.AlterOperation{ast.AddColumnOp{Column: col}},
		}, nil

	case diff.DropColumn:
		return &ast.AlterTableNode{
			Name:       step.Table,
			Operations: []ast.AlterOperation{ast.DropColumnOp{Name: step.ColumnOld.Name}},
		}, nil

	case diff.RenameColumn:
		return &ast.AlterTableNode{
			Name:       step.Table,
			Operations: []ast.AlterOperation{ast.RenameColumnOp{OldName: step.OldName, NewName: step.NewName}},
		}, nil

	case diff.AlterColumn:
		col := convert.ColumnForAlter(step.ColumnNew, d)
		return &ast.AlterTableNode{
			Name: step.Table,
			Operations: []ast.AlterOperation{
				ast.AlterColumnOp{Name: step.ColumnOld.Name, New: col},
			},
		}, nil

	case diff.AddIndex:
		return &ast.IndexNode{
			Name:    step.Index.Name,
			Table:   step.Table,
			Columns: step.Index.Columns,
			Unique:  step.Index.Unique,
		}, nil

	case diff.DropIndex:
		return &ast.DropIndexNode{Name: step.Index.Name, Table: step.Table}, nil

	case diff.AddForeignKey:
		constraint := convert.ForeignKeyConstraint(step.ForeignKey)
		return &ast.AlterTableNode{
			Name:       step.Table,
			Operations: []ast.AlterOperation{ast.AddForeignKeyOp{Constraint: constraint}},
		}, nil

	case diff.DropForeignKey:
		return &ast.AlterTableNode{
			Name:       step.Table,
			Operations: []ast.AlterOperation{ast.DropForeignKeyOp{Name: step.ForeignKey.Name}},
		}, nil

	default:
		return nil, fmt.Errorf("migration/render: unknown step kind %v", step.Kind)
	}
}
