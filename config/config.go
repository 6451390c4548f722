// Package config provides compiler-facing configuration: CompileOptions
// for library callers, and the connection-URL-to-Dialect mapping cmd/kqlc
// and library callers both use.
//
// Grounded on the teacher's config.CompareOptions (a small, dependency-free
// options struct with With*-style constructors rather than a config-file
// loader) — this package follows the same shape for CompileOptions. The
// URL-scheme-to-dialect switch is grounded on dbschema.ConnectToDatabase's
// scheme dispatch (named in its doc comment and in SPEC_FULL.md §6) — that
// function's defining file was not present in the retrieval pack, so the
// exact scheme strings are taken from spec.md §6 itself rather than copied
// from teacher source.
package config

import (
	"strings"

	"github.com/kqllang/kql/core/sqlgen/dialect"
)

// CompileOptions controls compiler behavior a library caller may want to
// override. Every field has a zero value that behaves exactly like
// omitting the option, matching config.CompareOptions's
// default-via-zero-value pattern.
type CompileOptions struct {
	// Dialect is the target SQL dialect for any DDL/DML/migration
	// rendering performed alongside a Compile call. Zero value is
	// dialect.Postgres.
	Dialect dialect.Dialect

	// MigrationsDir is where generated migration files
	// (.up.sql/.down.sql/.mir.json) are written. Zero value is
	// "./migrations".
	MigrationsDir string
}

// DefaultCompileOptions returns the default options: Postgres, writing
// migrations to "./migrations".
func DefaultCompileOptions() *CompileOptions {
	return &CompileOptions{
		Dialect:       dialect.Postgres,
		MigrationsDir: "./migrations",
	}
}

// WithDialect returns a copy of the default options targeting d.
func WithDialect(d dialect.Dialect) *CompileOptions {
	opts := DefaultCompileOptions()
	opts.Dialect = d
	return opts
}

// WithMigrationsDir returns a copy of the default options writing
// migrations to dir.
func WithMigrationsDir(dir string) *CompileOptions {
	opts := DefaultCompileOptions()
	opts.MigrationsDir = dir
	return opts
}

// Resolve fills in zero-valued fields of o with their defaults and returns
// the result; o itself is left unmodified.
func (o *CompileOptions) Resolve() *CompileOptions {
	resolved := *o
	if resolved.Dialect == "" {
		resolved.Dialect = dialect.Postgres
	}
	if resolved.MigrationsDir == "" {
		resolved.MigrationsDir = "./migrations"
	}
	return &resolved
}

// DialectFromURL maps a connection-URL scheme to a Dialect, per spec.md
// §6: "postgres://" -> Postgres, "mysql://"/"mariadb://" -> MySQL,
// anything else -> SQLite.
func DialectFromURL(url string) dialect.Dialect {
	scheme, _, ok := strings.Cut(url, "://")
	if !ok {
		return dialect.SQLite
	}
	switch strings.ToLower(scheme) {
	case "postgres", "postgresql", "pgx":
		return dialect.Postgres
	case "mysql", "mariadb":
		return dialect.MySQL
	default:
		return dialect.SQLite
	}
}
