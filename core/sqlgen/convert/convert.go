// Package convert turns a dialect-agnostic core/mir.Schema into the
// dialect-resolved core/sqlgen/ast tree core/sqlgen/render turns into text.
//
// Grounded on core/convert/fromschema's FromField/FromTable/FromIndex/
// FromDatabase: exactly as fromschema resolves every platform-specific
// detail (type overrides, inline-ENUM values, ENGINE options) into the AST
// node *before* a dialect Renderer ever sees it, this package resolves
// every MIR column's dialect type name, auto-increment strategy
// (AUTO_INCREMENT flag vs a baked-in SERIAL/BIGSERIAL type) and constraint
// shape up front, so core/sqlgen/render never has to consult a dialect at
// all beyond clause syntax.
package convert

import (
	"github.com/kqllang/kql/core/diagnostics"
	"github.com/kqllang/kql/core/mir"
	"github.com/kqllang/kql/core/sqlgen/ast"
	"github.com/kqllang/kql/core/sqlgen/dialect"
)

// Database converts every table and index in schema into DDL statements,
// in the dependency-respecting order fromschema.FromDatabase uses: tables
// before the indexes that reference them.
func Database(schema *mir.Schema, d dialect.Dialect) *ast.StatementList {
	stmts := &ast.StatementList{}

	for i := range schema.Tables {
		stmts.Statements = append(stmts.Statements, Table(&schema.Tables[i], d))
	}
	for i := range schema.Tables {
		t := &schema.Tables[i]
		for _, idx := range t.Indexes {
			stmts.Statements = append(stmts.Statements, Index(t, idx))
		}
	}
	return stmts
}

// autoIncrementIntegerPK reports whether col is the lone auto_increment
// column of a single-column primary key, the one case spec.md §4.5 renders
// differently per dialect: Postgres bakes SERIAL/BIGSERIAL into the type
// name instead of setting an AUTO_INCREMENT-style column flag.
func autoIncrementIntegerPK(t *mir.Table, col *mir.Column) bool {
	if !col.AutoIncrement || len(t.PrimaryKey) != 1 || t.PrimaryKey[0] != col.Name {
		return false
	}
	return true
}

func serialTypeName(t mir.ColumnType) (string, bool) {
	switch t {
	case mir.I32, mir.U16, mir.U32:
		return "SERIAL", true
	case mir.I64, mir.U64:
		return "BIGSERIAL", true
	default:
		return "", false
	}
}

// Column converts one mir.Column to a dialect-resolved ast.ColumnNode.
func Column(t *mir.Table, col *mir.Column, d dialect.Dialect) *ast.ColumnNode {
	typ := typeName(d, col.Type, col.StringLen)
	autoIncrementFlag := col.AutoIncrement

	if d == dialect.Postgres && autoIncrementIntegerPK(t, col) {
		if serial, ok := serialTypeName(col.Type); ok {
			typ = serial
			autoIncrementFlag = false
		}
	}

	c := ast.NewColumn(col.Name, typ)
	c.Nullable = col.Nullable
	c.AutoIncrement = autoIncrementFlag
	if col.Default != "" {
		c.Default = &ast.DefaultValue{Expression: col.Default}
	}
	return c
}

// ColumnForAlter converts one mir.Column to a dialect-resolved ast.ColumnNode
// outside the context of a CREATE TABLE statement (spec.md §4.6's
// AddColumn/AlterColumn migration steps). Unlike Column, this never bakes in
// a Postgres SERIAL/BIGSERIAL type — that substitution only applies to a
// column's original CREATE TABLE definition, not a column added or altered
// after the fact.
func ColumnForAlter(col *mir.Column, d dialect.Dialect) *ast.ColumnNode {
	c := ast.NewColumn(col.Name, typeName(d, col.Type, col.StringLen))
	c.Nullable = col.Nullable
	c.AutoIncrement = col.AutoIncrement
	if col.Default != "" {
		c.Default = &ast.DefaultValue{Expression: col.Default}
	}
	return c
}

// ForeignKeyConstraint converts one mir.ForeignKey to a table-level
// ast.ConstraintNode, for spec.md §4.6's AddForeignKey migration step.
func ForeignKeyConstraint(fk *mir.ForeignKey) *ast.ConstraintNode {
	return ast.NewForeignKeyConstraint(fk.Name, fk.Columns, &ast.ForeignKeyRef{
		Table:    fk.ReferencedTable,
		Columns:  fk.ReferencedColumns,
		OnDelete: fk.OnDelete,
		OnUpdate: fk.OnUpdate,
	})
}

// Table converts one mir.Table to a CREATE TABLE node with its table-level
// constraints (composite or single-column PK, named foreign keys), per
// spec.md §4.5's DDL rules. Indexes are NOT included — they render as
// separate CREATE INDEX statements (see Index).
func Table(t *mir.Table, d dialect.Dialect) *ast.CreateTableNode {
	node := ast.NewCreateTable(t.QualifiedName())

	for i := range t.Columns {
		node.AddColumn(Column(t, &t.Columns[i], d))
	}

	if len(t.PrimaryKey) > 0 {
		node.AddConstraint(ast.NewPrimaryKeyConstraint(t.PrimaryKey...))
	}

	for _, fk := range t.ForeignKeys {
		node.AddConstraint(ast.NewForeignKeyConstraint(fk.Name, fk.Columns, &ast.ForeignKeyRef{
			Table:    fk.ReferencedTable,
			Columns:  fk.ReferencedColumns,
			OnDelete: fk.OnDelete,
			OnUpdate: fk.OnUpdate,
		}))
	}

	return node
}

// Index converts one mir.Index belonging to table t into a CREATE INDEX
// node.
func Index(t *mir.Table, idx mir.Index) *ast.IndexNode {
	return &ast.IndexNode{
		Name:    idx.Name,
		Table:   t.QualifiedName(),
		Columns: idx.Columns,
		Unique:  idx.Unique,
	}
}

// InsertFor builds the INSERT statement spec.md §4.5 "DML by primary key"
// names: every column except those with AutoIncrement set.
func InsertFor(t *mir.Table) *ast.InsertNode {
	n := &ast.InsertNode{Table: t.QualifiedName()}
	for _, col := range t.Columns {
		if col.AutoIncrement {
			continue
		}
		n.Columns = append(n.Columns, col.Name)
	}
	return n
}

// UpdateFor builds the UPDATE BY PK statement: SET every non-PK column,
// WHERE every PK column. Errors if the table has no primary key.
func UpdateFor(t *mir.Table) (*ast.UpdateNode, error) {
	if len(t.PrimaryKey) == 0 {
		return nil, diagnostics.New(diagnostics.Semantic, "sqlgen/convert: table %q has no primary key, cannot build UPDATE BY PK", t.QualifiedName())
	}
	pk := make(map[string]bool, len(t.PrimaryKey))
	for _, c := range t.PrimaryKey {
		pk[c] = true
	}

	n := &ast.UpdateNode{Table: t.QualifiedName(), PrimaryKey: t.PrimaryKey}
	for _, col := range t.Columns {
		if pk[col.Name] {
			continue
		}
		n.SetColumns = append(n.SetColumns, col.Name)
	}
	return n, nil
}

// DeleteFor builds the DELETE BY PK statement. Errors if the table has no
// primary key.
func DeleteFor(t *mir.Table) (*ast.DeleteNode, error) {
	if len(t.PrimaryKey) == 0 {
		return nil, diagnostics.New(diagnostics.Semantic, "sqlgen/convert: table %q has no primary key, cannot build DELETE BY PK", t.QualifiedName())
	}
	return &ast.DeleteNode{Table: t.QualifiedName(), PrimaryKey: t.PrimaryKey}, nil
}
