package mir_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/kqllang/kql/core/mir"
)

// Scenario 6a: let-binding a projection list including a window-aggregate.
func TestLowerSelectQueryWithWindowAggregate(t *testing.T) {
	c := qt.New(t)
	schema := lowerToMIR(c, `
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

	c.Assert(schema.Queries, qt.HasLen, 1)
	q := schema.Query("db::user_rank")
	c.Assert(q, qt.IsNotNil)
	c.Assert(q.SourceTable, qt.Equals, "user")
	c.Assert(q.Joins, qt.HasLen, 0)
	c.Assert(q.Projection, qt.HasLen, 3)

	c.Assert(q.Projection[0], qt.DeepEquals, mir.QueryExpr{Kind: mir.QueryExprColumn, Column: "name"})
	c.Assert(q.Projection[1], qt.DeepEquals, mir.QueryExpr{Kind: mir.QueryExprColumn, Column: "score"})

	agg := q.Projection[2]
	c.Assert(agg.Kind, qt.Equals, mir.QueryExprAggregate)
	c.Assert(agg.FuncName, qt.Equals, "count")
	c.Assert(agg.Column, qt.Equals, "score")
	c.Assert(agg.PartitionBy, qt.DeepEquals, []string{"city"})
	c.Assert(agg.OrderBy, qt.DeepEquals, []mir.QueryOrderTerm{{Column: "score", Desc: true}})
}

// Scenario 6b: a bare relation member-access let binding with no .select(),
// lowering to an implicit join with no explicit projection.
func TestLowerBareRelationQuery(t *testing.T) {
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

let q = Post.author;
`)

	c.Assert(schema.Queries, qt.HasLen, 1)
	q := schema.Query("q")
	c.Assert(q, qt.IsNotNil)
	c.Assert(q.SourceTable, qt.Equals, "post")
	c.Assert(q.Projection, qt.HasLen, 0)
	c.Assert(q.Joins, qt.DeepEquals, []mir.QueryJoin{{RelationName: "author", TargetTable: "user"}})
}

// A free-function aggregate form, count(*), lowers the same as the
// method-call form.
func TestLowerSelectQueryFreeFunctionCountStar(t *testing.T) {
	c := qt.New(t)
	schema := lowerToMIR(c, `
struct Order {
	@primary_key id: i32,
	status: String,
}

let order_counts = Order.select(status, count(*));
`)

	q := schema.Query("order_counts")
	c.Assert(q, qt.IsNotNil)
	c.Assert(q.Projection, qt.HasLen, 2)
	c.Assert(q.Projection[1], qt.DeepEquals, mir.QueryExpr{Kind: mir.QueryExprAggregate, FuncName: "count", Column: "*"})
}

// A let binding that isn't a query shape at all (e.g. a constant) is simply
// skipped, not an error.
func TestLowerNonQueryLetIsSkipped(t *testing.T) {
	c := qt.New(t)
	schema := lowerToMIR(c, `
struct User { @primary_key id: i32, name: String }
let x = now().year;
`)
	c.Assert(schema.Queries, qt.HasLen, 0)
}
