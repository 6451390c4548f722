// Package dialect names the three target SQL dialects and normalizes
// dialect and driver names ("postgres", "pgx", "mysql", "sqlite3", ...)
// into one of them. URL schemes ("postgres://") are not accepted here.
//
// Grounded on core/platform/constants.go's Postgres/MySQL/MariaDB constants
// and NormalizeDialect, re-targeted at this language's three dialects
// (spec.md §4.5): MariaDB is dropped (never named by spec.md), SQLite is
// added (new relative to the teacher).
package dialect

import "strings"

// Dialect identifies one of the three SQL dialects this language targets.
type Dialect string

const (
	Postgres Dialect = "postgres"
	MySQL    Dialect = "mysql"
	SQLite   Dialect = "sqlite"
)

// Normalize maps a connection scheme or user-supplied name onto a Dialect,
// or "" if unrecognized.
func Normalize(name string) Dialect {
	switch strings.ToLower(name) {
	case "pgx", "postgresql", "postgres":
		return Postgres
	case "mysql":
		return MySQL
	case "sqlite", "sqlite3":
		return SQLite
	default:
		return ""
	}
}
