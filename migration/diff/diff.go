// Package diff computes an ordered list of migration steps between two MIR
// snapshots, per spec.md §4.6.
//
// Grounded on migration/schemadiff.go and migration/schemadiff/types.go's
// SchemaDiff/TableDiff/ColumnDiff shape (tables grouped, then per-table
// column/index/FK comparison by name), generalized one level: the teacher
// diffs a Go-struct-derived target schema against a live database
// introspection; this diffs one mir.Schema snapshot against another. Go has
// no sum types, so — matching the tagged-struct idiom already used for
// hirtypes.Type/hir.Expr/sqlgen/ast.Expr — a MigrationStep is one struct
// with a Kind discriminant rather than eleven separate node types.
package diff

import (
	"github.com/kqllang/kql/core/mir"
)

// StepKind discriminates the eleven migration step shapes spec.md §4.6
// names.
type StepKind int

const (
	CreateTable StepKind = iota
	DropTable
	RenameTable
	AddColumn
	DropColumn
	RenameColumn
	AlterColumn
	AddIndex
	DropIndex
	AddForeignKey
	DropForeignKey
)

// Step is one migration operation. Only the fields relevant to Kind are
// populated; the field comments below say which.
type Step struct {
	Kind  StepKind
	Table string // qualified table name this step applies to

	NewTable *mir.Table // CreateTable

	Column    *mir.Column // AddColumn
	ColumnOld *mir.Column // DropColumn, AlterColumn (old)
	ColumnNew *mir.Column // AlterColumn (new)

	OldName string // RenameTable, RenameColumn
	NewName string // RenameTable, RenameColumn

	Index *mir.Index // AddIndex, DropIndex

	ForeignKey *mir.ForeignKey // AddForeignKey, DropForeignKey
}

// Diff computes the deterministic ordered step list turning old into new,
// per spec.md §4.6's four-step algorithm. Rename detection is out of scope
// (spec.md §4.6, §9 Open Questions): a renamed table or column surfaces as
// a drop paired with an add, in that relative order.
func Diff(old, new *mir.Schema) []Step {
	var steps []Step

	oldByName := indexTables(old)
	newByName := indexTables(new)

	// 1. Tables present in old but not new: DropTable.
	for i := range old.Tables {
		t := &old.Tables[i]
		if _, ok := newByName[t.QualifiedName()]; !ok {
			steps = append(steps, Step{Kind: DropTable, Table: t.QualifiedName()})
		}
	}

	// 2. Tables present in new but not old: CreateTable (carries the full
	// table, so its columns/indexes/FKs don't need separate Add* steps).
	for i := range new.Tables {
		t := &new.Tables[i]
		if _, ok := oldByName[t.QualifiedName()]; !ok {
			steps = append(steps, Step{Kind: CreateTable, Table: t.QualifiedName(), NewTable: t})
		}
	}

	// 3 & 4. Tables present in both: diff columns, indexes, foreign keys.
	for i := range old.Tables {
		ot := &old.Tables[i]
		nt, ok := newByName[ot.QualifiedName()]
		if !ok {
			continue
		}
		steps = append(steps, diffColumns(ot, nt)...)
		steps = append(steps, diffIndexes(ot, nt)...)
		steps = append(steps, diffForeignKeys(ot, nt)...)
	}

	return steps
}

func indexTables(s *mir.Schema) map[string]*mir.Table {
	m := make(map[string]*mir.Table, len(s.Tables))
	for i := range s.Tables {
		m[s.Tables[i].QualifiedName()] = &s.Tables[i]
	}
	return m
}

func diffColumns(old, new *mir.Table) []Step {
	var steps []Step
	oldCols := make(map[string]*mir.Column, len(old.Columns))
	for i := range old.Columns {
		oldCols[old.Columns[i].Name] = &old.Columns[i]
	}
	newCols := make(map[string]*mir.Column, len(new.Columns))
	for i := range new.Columns {
		newCols[new.Columns[i].Name] = &new.Columns[i]
	}

	for i := range old.Columns {
		c := &old.Columns[i]
		if _, ok := newCols[c.Name]; !ok {
			steps = append(steps, Step{Kind: DropColumn, Table: new.QualifiedName(), ColumnOld: c})
		}
	}
	for i := range new.Columns {
		c := &new.Columns[i]
		if _, ok := oldCols[c.Name]; !ok {
			steps = append(steps, Step{Kind: AddColumn, Table: new.QualifiedName(), Column: c})
		}
	}
	for i := range old.Columns {
		oc := &old.Columns[i]
		nc, ok := newCols[oc.Name]
		if !ok {
			continue
		}
		if columnChanged(oc, nc) {
			steps = append(steps, Step{Kind: AlterColumn, Table: new.QualifiedName(), ColumnOld: oc, ColumnNew: nc})
		}
	}
	return steps
}

func columnChanged(old, new *mir.Column) bool {
	return old.Type != new.Type ||
		old.Nullable != new.Nullable ||
		old.AutoIncrement != new.AutoIncrement ||
		old.Default != new.Default
}

func diffIndexes(old, new *mir.Table) []Step {
	var steps []Step
	oldIdx := make(map[string]*mir.Index, len(old.Indexes))
	for i := range old.Indexes {
		oldIdx[old.Indexes[i].Name] = &old.Indexes[i]
	}
	newIdx := make(map[string]*mir.Index, len(new.Indexes))
	for i := range new.Indexes {
		newIdx[new.Indexes[i].Name] = &new.Indexes[i]
	}

	for i := range old.Indexes {
		idx := &old.Indexes[i]
		if _, ok := newIdx[idx.Name]; !ok {
			steps = append(steps, Step{Kind: DropIndex, Table: new.QualifiedName(), Index: idx})
		}
	}
	for i := range new.Indexes {
		idx := &new.Indexes[i]
		if _, ok := oldIdx[idx.Name]; !ok {
			steps = append(steps, Step{Kind: AddIndex, Table: new.QualifiedName(), Index: idx})
		}
	}
	return steps
}

func diffForeignKeys(old, new *mir.Table) []Step {
	var steps []Step
	oldFK := make(map[string]*mir.ForeignKey, len(old.ForeignKeys))
	for i := range old.ForeignKeys {
		oldFK[old.ForeignKeys[i].Name] = &old.ForeignKeys[i]
	}
	newFK := make(map[string]*mir.ForeignKey, len(new.ForeignKeys))
	for i := range new.ForeignKeys {
		newFK[new.ForeignKeys[i].Name] = &new.ForeignKeys[i]
	}

	for i := range old.ForeignKeys {
		fk := &old.ForeignKeys[i]
		if _, ok := newFK[fk.Name]; !ok {
			steps = append(steps, Step{Kind: DropForeignKey, Table: new.QualifiedName(), ForeignKey: fk})
		}
	}
	for i := range new.ForeignKeys {
		fk := &new.ForeignKeys[i]
		if _, ok := oldFK[fk.Name]; !ok {
			steps = append(steps, Step{Kind: AddForeignKey, Table: new.QualifiedName(), ForeignKey: fk})
		}
	}
	return steps
}
