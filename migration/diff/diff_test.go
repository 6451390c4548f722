package diff_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/kqllang/kql/core/hir"
	"github.com/kqllang/kql/core/mir"
	"github.com/kqllang/kql/core/parser"
	"github.com/kqllang/kql/migration/diff"
)

func lowerToMIR(c *qt.C, src string) *mir.Schema {
	file, err := parser.New(src).Parse()
	c.Assert(err, qt.IsNil)
	prog, err := hir.Lower(file)
	c.Assert(err, qt.IsNil)
	schema, err := mir.Lower(prog)
	c.Assert(err, qt.IsNil)
	return schema
}

// Scenario 5: rename-as-drop-and-add plus a new nullable column, in
// DropColumn, AddColumn, AddColumn order.
func TestDiffColumnDropAndAdd(t *testing.T) {
	c := qt.New(t)
	oldSchema := lowerToMIR(c, `struct User { @primary_key id: i32, name: String }`)
	newSchema := lowerToMIR(c, `struct User { @primary_key id: i32, full_name: String, age: i32? }`)

	steps := diff.Diff(oldSchema, newSchema)

	c.Assert(steps, qt.HasLen, 3)
	c.Assert(steps[0].Kind, qt.Equals, diff.DropColumn)
	c.Assert(steps[0].ColumnOld.Name, qt.Equals, "name")
	c.Assert(steps[1].Kind, qt.Equals, diff.AddColumn)
	c.Assert(steps[1].Column.Name, qt.Equals, "full_name")
	c.Assert(steps[2].Kind, qt.Equals, diff.AddColumn)
	c.Assert(steps[2].Column.Name, qt.Equals, "age")
}

func TestDiffIsEmptyForIdenticalSchemas(t *testing.T) {
	c := qt.New(t)
	schema := lowerToMIR(c, `
struct User {
	@primary_key @auto_increment id: i32,
	name: String,
	email: String,
}
`)
	c.Assert(diff.Diff(schema, schema), qt.HasLen, 0)
}

func TestDiffCreateAndDropTable(t *testing.T) {
	c := qt.New(t)
	oldSchema := lowerToMIR(c, `struct User { @primary_key id: i32, name: String }`)
	newSchema := lowerToMIR(c, `struct Account { @primary_key id: i32, name: String }`)

	steps := diff.Diff(oldSchema, newSchema)

	var kinds []diff.StepKind
	for _, s := range steps {
		kinds = append(kinds, s.Kind)
	}
	c.Assert(kinds, qt.Contains, diff.DropTable)
	c.Assert(kinds, qt.Contains, diff.CreateTable)

	for _, s := range steps {
		if s.Kind == diff.DropTable {
			c.Assert(s.Table, qt.Equals, "user")
		}
		if s.Kind == diff.CreateTable {
			c.Assert(s.Table, qt.Equals, "account")
			c.Assert(s.NewTable, qt.Not(qt.IsNil))
		}
	}
}

func TestDiffAlterColumnOnTypeOrNullabilityChange(t *testing.T) {
	c := qt.New(t)
	oldSchema := lowerToMIR(c, `struct User { @primary_key id: i32, age: i32 }`)
	newSchema := lowerToMIR(c, `struct User { @primary_key id: i32, age: i32? }`)

	steps := diff.Diff(oldSchema, newSchema)

	c.Assert(steps, qt.HasLen, 1)
	c.Assert(steps[0].Kind, qt.Equals, diff.AlterColumn)
	c.Assert(steps[0].ColumnOld.Nullable, qt.IsFalse)
	c.Assert(steps[0].ColumnNew.Nullable, qt.IsTrue)
}

func TestDiffIndexAddAndDrop(t *testing.T) {
	c := qt.New(t)
	oldSchema := lowerToMIR(c, `
@index(email)
struct User { @primary_key id: i32, email: String, name: String }
`)
	newSchema := lowerToMIR(c, `
@index(name)
struct User { @primary_key id: i32, email: String, name: String }
`)

	steps := diff.Diff(oldSchema, newSchema)

	var kinds []diff.StepKind
	for _, s := range steps {
		kinds = append(kinds, s.Kind)
	}
	c.Assert(kinds, qt.Contains, diff.DropIndex)
	c.Assert(kinds, qt.Contains, diff.AddIndex)
}
