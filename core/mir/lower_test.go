package mir_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/kqllang/kql/core/hir"
	"github.com/kqllang/kql/core/mir"
	"github.com/kqllang/kql/core/parser"
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

// Scenario 1: minimal DDL.
func TestLowerMinimalTable(t *testing.T) {
	c := qt.New(t)
	schema := lowerToMIR(c, `struct User { @primary_key id: i32, name: String }`)

	c.Assert(schema.Tables, qt.HasLen, 1)
	table := schema.Table("user")
	c.Assert(table, qt.IsNotNil)
	c.Assert(table.PrimaryKey, qt.DeepEquals, []string{"id"})
	c.Assert(table.Columns, qt.HasLen, 2)
	c.Assert(table.Column("id").Type, qt.Equals, mir.I32)
	c.Assert(table.Column("name").Type, qt.Equals, mir.StringType)
}

// Scenario 2: composite PK + index.
func TestLowerCompositePrimaryKeyAndIndex(t *testing.T) {
	c := qt.New(t)
	schema := lowerToMIR(c, `
@primary_key(tenant_id, user_id)
@index(email)
struct User {
	tenant_id: i32,
	user_id: i32,
	email: String,
	name: String,
}
`)
	table := schema.Table("user")
	c.Assert(table.PrimaryKey, qt.DeepEquals, []string{"tenant_id", "user_id"})
	c.Assert(table.Indexes, qt.HasLen, 1)
	c.Assert(table.Indexes[0].Columns, qt.DeepEquals, []string{"email"})
	c.Assert(table.Indexes[0].Unique, qt.IsFalse)
}

// Scenario 3: many-to-many junction table.
func TestLowerManyToManyJunction(t *testing.T) {
	c := qt.New(t)
	schema := lowerToMIR(c, `
struct User {
	@primary_key id: i32,
	@relation(name: "user_roles") roles: [Role],
}
struct Role {
	@primary_key id: i32,
	@relation(name: "user_roles") users: [User],
}
`)
	c.Assert(schema.Tables, qt.HasLen, 3)
	junction := schema.Table("user_roles")
	c.Assert(junction, qt.IsNotNil)
	c.Assert(junction.Columns, qt.HasLen, 2)
	c.Assert(junction.ForeignKeys, qt.HasLen, 2)
	c.Assert(junction.PrimaryKey, qt.DeepEquals, []string{junction.Columns[0].Name, junction.Columns[1].Name})
	for _, fk := range junction.ForeignKeys {
		c.Assert(fk.OnDelete, qt.Equals, "CASCADE")
	}

	names := map[string]bool{junction.Columns[0].Name: true, junction.Columns[1].Name: true}
	c.Assert(names["user_id"], qt.IsTrue)
	c.Assert(names["role_id"], qt.IsTrue)
}

// Scenario 4: @audit + @soft_delete lifecycle columns.
func TestLowerAuditAndSoftDeleteColumns(t *testing.T) {
	c := qt.New(t)
	schema := lowerToMIR(c, `
@audit
@soft_delete
struct Product {
	@primary_key id: i32,
	name: String,
}
`)
	table := schema.Table("product")
	c.Assert(table.LifecycleMetadata.Audit, qt.IsTrue)
	c.Assert(table.LifecycleMetadata.SoftDelete, qt.IsTrue)

	names := make([]string, len(table.Columns))
	for i, col := range table.Columns {
		names[i] = col.Name
	}
	c.Assert(names, qt.DeepEquals, []string{"id", "name", "created_at", "updated_at", "deleted_at"})
	c.Assert(table.Column("deleted_at").Nullable, qt.IsTrue)
	c.Assert(table.Column("created_at").Nullable, qt.IsFalse)
	c.Assert(table.Column("created_at").Default, qt.Equals, "CURRENT_TIMESTAMP")
}

// Boundary: a @layout(json) struct never becomes a table.
func TestLowerJSONLayoutStructIsNotATable(t *testing.T) {
	c := qt.New(t)
	schema := lowerToMIR(c, `
@layout(json)
struct Address { line1: String }

struct User {
	@primary_key id: i32,
	address: Address,
}
`)
	c.Assert(schema.Tables, qt.HasLen, 1)
	table := schema.Table("user")
	c.Assert(table.Column("address").Type, qt.Equals, mir.Json)
}

// A field referencing a plain (non-json) entity struct materializes a
// foreign-key column typed like the target's primary key, resolved even
// when the target struct is declared later in the file.
func TestLowerForwardReferencedEntityColumnMatchesTargetPK(t *testing.T) {
	c := qt.New(t)
	schema := lowerToMIR(c, `
struct Post {
	@primary_key id: i64,
	author: User,
}
struct User {
	@primary_key id: i64,
	name: String,
}
`)
	post := schema.Table("post")
	c.Assert(post.Column("author").Type, qt.Equals, mir.I64)
	c.Assert(post.ForeignKeys, qt.HasLen, 1)
	c.Assert(post.ForeignKeys[0].ReferencedTable, qt.Equals, "user")
	c.Assert(post.ForeignKeys[0].ReferencedColumns, qt.DeepEquals, []string{"id"})
}

// Invariant: primary_key and foreign_keys[*].columns are always subsets of
// the table's column names.
func TestLowerColumnSubsetInvariant(t *testing.T) {
	c := qt.New(t)
	schema := lowerToMIR(c, `
struct Post {
	@primary_key id: i64,
	author: ForeignKey<User>,
}
struct User {
	@primary_key id: i64,
	name: String,
}
`)
	for _, table := range schema.Tables {
		colSet := map[string]bool{}
		for _, col := range table.Columns {
			colSet[col.Name] = true
		}
		for _, pk := range table.PrimaryKey {
			c.Assert(colSet[pk], qt.IsTrue)
		}
		for _, fk := range table.ForeignKeys {
			for _, col := range fk.Columns {
				c.Assert(colSet[col], qt.IsTrue)
			}
		}
	}
}
