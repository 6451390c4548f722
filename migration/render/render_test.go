package render_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/kqllang/kql/core/hir"
	"github.com/kqllang/kql/core/mir"
	"github.com/kqllang/kql/core/parser"
	"github.com/kqllang/kql/core/sqlgen/dialect"
	"github.com/kqllang/kql/migration/diff"
	"github.com/kqllang/kql/migration/render"
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

func TestStepsRendersColumnDropAndAdd(t *testing.T) {
	c := qt.New(t)
	oldSchema := lowerToMIR(c, `struct User { @primary_key id: i32, name: String }`)
	newSchema := lowerToMIR(c, `struct User { @primary_key id: i32, full_name: String }`)

	steps := diff.Diff(oldSchema, newSchema)
	sql, err := render.Steps(steps, dialect.Postgres)
	c.Assert(err, qt.IsNil)
	c.Assert(sql, qt.Contains, "ALTER TABLE user DROP COLUMN name;")
	c.Assert(sql, qt.Contains, "ALTER TABLE user ADD COLUMN full_name VARCHAR NOT NULL;")
}

func TestStepsRendersCreateAndDropTable(t *testing.T) {
	c := qt.New(t)
	oldSchema := lowerToMIR(c, `struct User { @primary_key id: i32, name: String }`)
	newSchema := lowerToMIR(c, `struct Account { @primary_key id: i32, name: String }`)

	steps := diff.Diff(oldSchema, newSchema)
	sql, err := render.Steps(steps, dialect.Postgres)
	c.Assert(err, qt.IsNil)
	c.Assert(sql, qt.Contains, "DROP TABLE IF EXISTS user;")
	c.Assert(sql, qt.Contains, "CREATE TABLE IF NOT EXISTS account")
}

func TestStepsRendersAlterColumnNullability(t *testing.T) {
	c := qt.New(t)
	oldSchema := lowerToMIR(c, `struct User { @primary_key id: i32, age: i32 }`)
	newSchema := lowerToMIR(c, `struct User { @primary_key id: i32, age: i32? }`)

	steps := diff.Diff(oldSchema, newSchema)
	sql, err := render.Steps(steps, dialect.MySQL)
	c.Assert(err, qt.IsNil)
	c.Assert(sql, qt.Contains, "ALTER TABLE user MODIFY COLUMN age INT;")
}
