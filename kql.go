// Package kql is the compiler's public entry point, exposing the five
// operations spec.md §6 names (Compile, GenerateDDL, GenerateDML, Diff,
// RenderMigration) as a single flat API over the L→P→H→M→S pipeline and the
// migration engine, so a caller never has to import core/parser,
// core/hir or core/mir directly to use the compiler as a library.
//
// Grounded on the teacher's top-level package shape: stokaro/ptah itself
// exposes no single facade package (callers import core/goschema,
// core/renderer, migration/generator directly), so this flat facade is a
// SPEC_FULL addition following spec.md §6's own "external interfaces" list
// rather than a specific teacher file.
package kql

import (
	"fmt"

	"github.com/kqllang/kql/core/hir"
	"github.com/kqllang/kql/core/mir"
	"github.com/kqllang/kql/core/parser"
	"github.com/kqllang/kql/core/sqlgen"
	"github.com/kqllang/kql/core/sqlgen/dialect"
	"github.com/kqllang/kql/migration/diff"
	"github.com/kqllang/kql/migration/render"
)

// Dialect re-exports core/sqlgen/dialect.Dialect so callers of this package
// never need to import the sqlgen subtree directly.
type Dialect = dialect.Dialect

const (
	Postgres = dialect.Postgres
	MySQL    = dialect.MySQL
	SQLite   = dialect.SQLite
)

// Schema re-exports core/mir.Schema, the compiled relational model Compile
// produces and Diff/RenderMigration consume.
type Schema = mir.Schema

// Step re-exports migration/diff.Step, one element of the list Diff
// returns.
type Step = diff.Step

// Compile parses source, lowers it through HIR name resolution and type
// checking, then lowers HIR to the dialect-agnostic MIR relational schema
// Diff/GenerateDDL/GenerateDML/RenderMigration all operate on. It fails on
// the first lexical, parse, or semantic error (spec.md §6).
func Compile(source string) (*Schema, error) {
	file, err := parser.New(source).Parse()
	if err != nil {
		return nil, err
	}
	prog, err := hir.Lower(file)
	if err != nil {
		return nil, err
	}
	return mir.Lower(prog)
}

// GenerateDDL renders every table's CREATE TABLE and CREATE INDEX
// statement in schema for the given dialect, in dependency order.
func GenerateDDL(schema *Schema, d Dialect) (string, error) {
	return sqlgen.GenerateDDL(schema, d)
}

// GenerateDML renders the INSERT, UPDATE BY PK, and DELETE BY PK
// statements for one table of schema, for the given dialect. tableName must
// name a table present in schema.
func GenerateDML(schema *Schema, tableName string, d Dialect) (insert, update, del string, err error) {
	table := schema.Table(tableName)
	if table == nil {
		return "", "", "", fmt.Errorf("kql: no table %q in schema", tableName)
	}
	return sqlgen.GenerateDML(table, d)
}

// GenerateQuery renders the SELECT the named `let` query binding in schema
// lowered to (spec.md §4.5), e.g. "db::user_rank" for a binding declared
// `let user_rank = ...` inside `namespace db { ... }`.
func GenerateQuery(schema *Schema, queryName string, d Dialect) (string, error) {
	return sqlgen.GenerateQuery(schema, queryName, d)
}

// Diff computes the ordered list of migration steps that turn old into
// new, per spec.md §4.6's four-step algorithm. Rename detection is out of
// scope: a renamed table or column surfaces as a drop paired with an add.
func Diff(old, new *Schema) []Step {
	return diff.Diff(old, new)
}

// RenderMigration renders an ordered step list (as returned by Diff) to SQL
// text for the given dialect.
func RenderMigration(steps []Step, d Dialect) (string, error) {
	return render.Steps(steps, d)
}
