package ast

// ColumnType is a column's SQL type name, already resolved for the target
// dialect by core/sqlgen/convert (typenames.go) before the node is built,
// so core/sqlgen/ast never imports core/mir and core/sqlgen/render writes
// the string as-is.
type ColumnType = string

// DefaultValue is a column's DEFAULT clause: exactly one of Value (a
// literal, already SQL-quoted if it's a string) or Expression (a bare
// function call like CURRENT_TIMESTAMP) is set.
//
// Grounded on the teacher's core/ast.DefaultValue (NewColumn/SetDefault/
// SetDefaultExpression split).
type DefaultValue struct {
	Value      string
	Expression string
}

// ForeignKeyRef is a foreign-key's target: table, referenced columns, and
// the optional ON DELETE/UPDATE actions. Grounded on
// core/ast.ForeignKeyRef, generalized from a single Column to Columns to
// support composite keys (junction tables, spec.md §4.4).
type ForeignKeyRef struct {
	Table    string
	Columns  []string
	OnDelete string
	OnUpdate string
}

// ColumnNode is one column definition inside a CREATE TABLE.
//
// Grounded on core/ast.ColumnNode's fluent builder shape, trimmed to the
// fields spec.md §4.5 renders (no Check/Comment/column-level ForeignKey —
// this language's foreign keys are always table-level constraints).
type ColumnNode struct {
	Name          string
	Type          ColumnType
	Length        int // meaningful only for a variable-length String column, 0 = unbounded
	Nullable      bool
	AutoIncrement bool
	Default       *DefaultValue
}

func NewColumn(name string, typ ColumnType) *ColumnNode {
	return &ColumnNode{Name: name, Type: typ, Nullable: true}
}

func (n *ColumnNode) Accept(v Visitor) error { return v.VisitColumn(n) }

// ConstraintType discriminates the table-level constraint kinds this
// language emits (spec.md §4.5): no CHECK/EXCLUDE — not named by the spec.
type ConstraintType int

const (
	PrimaryKeyConstraint ConstraintType = iota
	UniqueConstraint
	ForeignKeyConstraint
)

// ConstraintNode is a table-level constraint. Grounded on
// core/ast.ConstraintNode + constraints.go's New*Constraint helpers.
type ConstraintNode struct {
	Type      ConstraintType
	Name      string
	Columns   []string
	Reference *ForeignKeyRef // set only when Type == ForeignKeyConstraint
}

func NewPrimaryKeyConstraint(columns ...string) *ConstraintNode {
	return &ConstraintNode{Type: PrimaryKeyConstraint, Columns: columns}
}

func NewUniqueConstraint(name string, columns ...string) *ConstraintNode {
	return &ConstraintNode{Type: UniqueConstraint, Name: name, Columns: columns}
}

func NewForeignKeyConstraint(name string, columns []string, ref *ForeignKeyRef) *ConstraintNode {
	return &ConstraintNode{Type: ForeignKeyConstraint, Name: name, Columns: columns, Reference: ref}
}

func (n *ConstraintNode) Accept(v Visitor) error { return v.VisitConstraint(n) }

// CreateTableNode is `CREATE TABLE IF NOT EXISTS name (...)`.
//
// Grounded on core/ast.CreateTableNode's fluent builder, trimmed to name,
// columns and constraints: there is no table-options map, so no clause
// such as MySQL's `ENGINE=...` is rendered.
type CreateTableNode struct {
	Name        string
	Columns     []*ColumnNode
	Constraints []*ConstraintNode
}

func NewCreateTable(name string) *CreateTableNode {
	return &CreateTableNode{Name: name}
}

func (n *CreateTableNode) AddColumn(c *ColumnNode) *CreateTableNode {
	n.Columns = append(n.Columns, c)
	return n
}

func (n *CreateTableNode) AddConstraint(c *ConstraintNode) *CreateTableNode {
	n.Constraints = append(n.Constraints, c)
	return n
}

func (n *CreateTableNode) Accept(v Visitor) error { return v.VisitCreateTable(n) }

// DropTableNode is `DROP TABLE name`.
type DropTableNode struct {
	Name string
}

func (n *DropTableNode) Accept(v Visitor) error { return v.VisitDropTable(n) }

// RenameTableNode is `ALTER TABLE old RENAME TO new`. MIR's own diff never
// emits this (spec.md §4.6: rename detection is out of scope), but callers
// who post-process a DropTable+CreateTable pair back into a rename can
// still render one.
type RenameTableNode struct {
	OldName string
	NewName string
}

func (n *RenameTableNode) Accept(v Visitor) error { return v.VisitRenameTable(n) }

// IndexNode is `CREATE [UNIQUE] INDEX name ON table (cols)`.
type IndexNode struct {
	Name    string
	Table   string
	Columns []string
	Unique  bool
}

func (n *IndexNode) Accept(v Visitor) error { return v.VisitIndex(n) }

// DropIndexNode is `DROP INDEX name`. Table is set when the dialect
// requires it in the statement (MySQL's `DROP INDEX name ON table`).
type DropIndexNode struct {
	Name  string
	Table string
}

func (n *DropIndexNode) Accept(v Visitor) error { return v.VisitDropIndex(n) }

// AlterOperation is one operation inside an ALTER TABLE statement.
type AlterOperation interface {
	alterOperation()
}

type AddColumnOp struct{ Column *ColumnNode }
type DropColumnOp struct{ Name string }
type RenameColumnOp struct{ OldName, NewName string }
type AlterColumnOp struct {
	Name string
	New  *ColumnNode
}
type AddForeignKeyOp struct{ Constraint *ConstraintNode }
type DropForeignKeyOp struct{ Name string }

func (AddColumnOp) alterOperation()      {}
func (DropColumnOp) alterOperation()     {}
func (RenameColumnOp) alterOperation()   {}
func (AlterColumnOp) alterOperation()    {}
func (AddForeignKeyOp) alterOperation()  {}
func (DropForeignKeyOp) alterOperation() {}

// AlterTableNode bundles one or more ALTER TABLE operations against one
// table. Grounded on core/ast.AlterTableNode.
type AlterTableNode struct {
	Name       string
	Operations []AlterOperation
}

func (n *AlterTableNode) Accept(v Visitor) error { return v.VisitAlterTable(n) }
