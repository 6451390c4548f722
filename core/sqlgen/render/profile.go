package render

import "fmt"

// profile supplies the per-dialect syntax render needs once every column's
// type name has already been resolved by core/sqlgen/convert: placeholder
// style and the handful of clause-phrasing differences spec.md §4.5 and
// §4.6 name (AUTO_INCREMENT vs a pre-baked SERIAL type, MODIFY COLUMN vs
// ALTER COLUMN). Identifiers are never quoted (spec.md §8's scenario texts
// are all literal, unquoted SQL), so this carries no quoting method.
//
// Grounded on the teacher's per-dialect Renderer shape
// (core/renderer/dialects/{mysql,mariadb}.Renderer, each a thin wrapper
// around one shared mysqllike.Renderer): that shared base package was
// referenced by, but not present in, the retrieval pack, so Renderer below
// reconstructs the "one shared Visitor, parameterized by dialect" shape
// directly rather than guessing at mysqllike's internals (DESIGN.md).
type profile interface {
	placeholder(n int) string
	autoIncrementClause() string
	alterColumnKeyword() string
}

type postgresProfile struct{}

func (postgresProfile) placeholder(n int) string    { return fmt.Sprintf("$%d", n) }
func (postgresProfile) autoIncrementClause() string { return "" }
func (postgresProfile) alterColumnKeyword() string  { return "ALTER COLUMN" }

type mysqlProfile struct{}

func (mysqlProfile) placeholder(int) string        { return "?" }
func (mysqlProfile) autoIncrementClause() string   { return " AUTO_INCREMENT" }
func (mysqlProfile) alterColumnKeyword() string    { return "MODIFY COLUMN" }

type sqliteProfile struct{}

func (sqliteProfile) placeholder(int) string        { return "?" }
func (sqliteProfile) autoIncrementClause() string   { return " AUTOINCREMENT" }
func (sqliteProfile) alterColumnKeyword() string    { return "ALTER COLUMN" }
