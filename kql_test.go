package kql_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/kqllang/kql"
)

func TestCompileGenerateDDLAndDML(t *testing.T) {
	c := qt.New(t)

	schema, err := kql.Compile(`struct User { @primary_key @auto_increment id: i32, name: String, email: String }`)
	c.Assert(err, qt.IsNil)

	ddl, err := kql.GenerateDDL(schema, kql.Postgres)
	c.Assert(err, qt.IsNil)
	c.Assert(ddl, qt.Contains, "CREATE TABLE IF NOT EXISTS user")

	insert, update, del, err := kql.GenerateDML(schema, "user", kql.Postgres)
	c.Assert(err, qt.IsNil)
	c.Assert(insert, qt.Contains, "INSERT INTO user")
	c.Assert(update, qt.Contains, "UPDATE user SET")
	c.Assert(del, qt.Contains, "DELETE FROM user")
}

func TestGenerateDMLUnknownTable(t *testing.T) {
	c := qt.New(t)
	schema, err := kql.Compile(`struct User { @primary_key id: i32 }`)
	c.Assert(err, qt.IsNil)

	_, _, _, err = kql.GenerateDML(schema, "does_not_exist", kql.Postgres)
	c.Assert(err, qt.ErrorMatches, ".*no table.*")
}

func TestDiffAndRenderMigration(t *testing.T) {
	c := qt.New(t)
	oldSchema, err := kql.Compile(`struct User { @primary_key id: i32, name: String }`)
	c.Assert(err, qt.IsNil)
	newSchema, err := kql.Compile(`struct User { @primary_key id: i32, full_name: String }`)
	c.Assert(err, qt.IsNil)

	steps := kql.Diff(oldSchema, newSchema)
	c.Assert(steps, qt.HasLen, 2)

	sql, err := kql.RenderMigration(steps, kql.MySQL)
	c.Assert(err, qt.IsNil)
	c.Assert(sql, qt.Contains, "DROP COLUMN name")
	c.Assert(sql, qt.Contains, "ADD COLUMN full_name")
}
