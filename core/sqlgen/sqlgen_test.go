package sqlgen_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/kqllang/kql"
	"github.com/kqllang/kql/core/hir"
	"github.com/kqllang/kql/core/mir"
	"github.com/kqllang/kql/core/parser"
	"github.com/kqllang/kql/core/sqlgen"
	"github.com/kqllang/kql/core/sqlgen/ast"
	"github.com/kqllang/kql/core/sqlgen/dialect"
	"github.com/kqllang/kql/core/sqlgen/render"
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
func TestGenerateDDLMinimalTable(t *testing.T) {
	c := qt.New(t)
	schema := lowerToMIR(c, `struct User { @primary_key id: i32, name: String }`)

	ddl, err := sqlgen.GenerateDDL(schema, dialect.Postgres)
	c.Assert(err, qt.IsNil)
	c.Assert(ddl, qt.Contains, "CREATE TABLE IF NOT EXISTS user")
	c.Assert(ddl, qt.Contains, "id INT NOT NULL")
	c.Assert(ddl, qt.Contains, "name VARCHAR NOT NULL")
	c.Assert(ddl, qt.Contains, "PRIMARY KEY (id)")
}

// Scenario 2: composite PK + index.
func TestGenerateDDLCompositePKAndIndex(t *testing.T) {
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
	ddl, err := sqlgen.GenerateDDL(schema, dialect.Postgres)
	c.Assert(err, qt.IsNil)
	c.Assert(ddl, qt.Contains, "PRIMARY KEY (tenant_id, user_id)")
	c.Assert(ddl, qt.Contains, "CREATE INDEX IF NOT EXISTS")
	c.Assert(ddl, qt.Contains, "ON user (email)")
}

// Scenario 3: many-to-many junction table DDL.
func TestGenerateDDLManyToManyJunction(t *testing.T) {
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
	ddl, err := sqlgen.GenerateDDL(schema, dialect.Postgres)
	c.Assert(err, qt.IsNil)
	c.Assert(ddl, qt.Contains, "CREATE TABLE IF NOT EXISTS user_roles")
	c.Assert(ddl, qt.Contains, "FOREIGN KEY (user_id) REFERENCES user(id)")
	c.Assert(ddl, qt.Contains, "FOREIGN KEY (role_id) REFERENCES role(id)")
	c.Assert(ddl, qt.Contains, "ON DELETE CASCADE")
}

// Scenario 4: audit + soft_delete lifecycle columns, Postgres DDL text.
func TestGenerateDDLAuditAndSoftDelete(t *testing.T) {
	c := qt.New(t)
	schema := lowerToMIR(c, `
@audit
@soft_delete
struct Product {
	@primary_key id: i32,
	name: String,
}
`)
	ddl, err := sqlgen.GenerateDDL(schema, dialect.Postgres)
	c.Assert(err, qt.IsNil)
	c.Assert(ddl, qt.Contains, "created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP")
	c.Assert(ddl, qt.Contains, "deleted_at TIMESTAMP")
	c.Assert(ddl, qt.Not(qt.Contains), "deleted_at TIMESTAMP NOT NULL")
}

func TestGenerateDDLPostgresAutoIncrementUsesSerial(t *testing.T) {
	c := qt.New(t)
	schema := lowerToMIR(c, `struct Counter { @primary_key @auto_increment id: i32, label: String }`)

	pg, err := sqlgen.GenerateDDL(schema, dialect.Postgres)
	c.Assert(err, qt.IsNil)
	c.Assert(pg, qt.Contains, "id SERIAL NOT NULL")

	my, err := sqlgen.GenerateDDL(schema, dialect.MySQL)
	c.Assert(err, qt.IsNil)
	c.Assert(my, qt.Contains, "id INT NOT NULL AUTO_INCREMENT")
}

func TestGenerateDMLByPrimaryKey(t *testing.T) {
	c := qt.New(t)
	schema := lowerToMIR(c, `struct User { @primary_key @auto_increment id: i32, name: String, email: String }`)
	table := schema.Table("user")

	insert, update, del, err := sqlgen.GenerateDML(table, dialect.Postgres)
	c.Assert(err, qt.IsNil)
	c.Assert(insert, qt.Equals, "INSERT INTO user (name, email) VALUES ($1, $2);\n")
	c.Assert(update, qt.Equals, "UPDATE user SET name = $1, email = $2 WHERE id = $3;\n")
	c.Assert(del, qt.Equals, "DELETE FROM user WHERE id = $1;\n")

	_, _, _, err = sqlgen.GenerateDML(table, dialect.MySQL)
	c.Assert(err, qt.IsNil)
}

func TestGenerateDMLFailsWithoutPrimaryKey(t *testing.T) {
	c := qt.New(t)
	table := &mir.Table{Name: "no_pk", Columns: []mir.Column{{Name: "x", Type: mir.I32}}}

	_, _, _, err := sqlgen.GenerateDML(table, dialect.Postgres)
	c.Assert(err, qt.ErrorMatches, ".*no primary key.*")
}

// Scenario: one-to-many/many-to-one SELECT auto-JOIN.
func TestGenerateSelectOneToManyJoin(t *testing.T) {
	c := qt.New(t)
	schema := lowerToMIR(c, `
struct User {
	@primary_key id: i32,
	name: String,
}
struct Post {
	@primary_key id: i32,
	@relation(name: "author") author: User,
}
`)
	sql, err := sqlgen.GenerateSelect(schema, "post", []string{"author"}, dialect.Postgres)
	c.Assert(err, qt.IsNil)
	c.Assert(sql, qt.Contains, "SELECT * FROM post AS post")
	c.Assert(sql, qt.Contains, "LEFT JOIN user AS author ON user.id = post.author")
}

// Scenario: many-to-many SELECT double-JOIN through the junction table.
func TestGenerateSelectManyToManyJoin(t *testing.T) {
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
	sql, err := sqlgen.GenerateSelect(schema, "user", []string{"roles"}, dialect.Postgres)
	c.Assert(err, qt.IsNil)
	c.Assert(sql, qt.Contains, "LEFT JOIN user_roles AS user_roles ON user_roles.user_id = user.id")
	c.Assert(sql, qt.Contains, "LEFT JOIN role AS roles ON role.id = user_roles.role_id")
}

// Scenario 6: window function rendering.
func TestAggregateWindowFunction(t *testing.T) {
	c := qt.New(t)
	over := &ast.OverClause{
		PartitionBy: []string{"city"},
		OrderBy:     []ast.OrderTerm{{Column: "score", Desc: true}},
	}
	expr := sqlgen.Aggregate("count", "score", over)

	node := &ast.SelectNode{Table: "scores", Alias: "scores", Projection: []*ast.Expr{expr}}
	r := render.NewPostgres()
	sql, err := r.Render(node)
	c.Assert(err, qt.IsNil)
	c.Assert(sql, qt.Contains, "count(score) OVER (PARTITION BY city ORDER BY score DESC)")
}

// Scenario 6, end to end: a let-binding projecting
// score.count().over(partition_by: city, order_by: score.desc()) compiles
// through the full L->P->H->M->S pipeline and renders a SELECT, not just
// the render primitive in isolation.
func TestCompileAndGenerateWindowFunctionQuery(t *testing.T) {
	c := qt.New(t)
	schema, err := kql.Compile(`
namespace db {
	struct User {
		@primary_key id: i32,
		name: String,
		score: i32,
		city: String,
	}

	let user_rank = User.select(
		name,
		score,
		score.count().over(partition_by: city, order_by: score.desc())
	);
}
`)
	c.Assert(err, qt.IsNil)

	sql, err := kql.GenerateQuery(schema, "db::user_rank", kql.Postgres)
	c.Assert(err, qt.IsNil)
	c.Assert(sql, qt.Contains, "SELECT name, score, count(score) OVER (PARTITION BY city ORDER BY score DESC) FROM user AS user")
}
