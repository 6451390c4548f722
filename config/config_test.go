package config_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/kqllang/kql/config"
	"github.com/kqllang/kql/core/sqlgen/dialect"
)

func TestDefaultCompileOptions(t *testing.T) {
	c := qt.New(t)
	opts := config.DefaultCompileOptions()
	c.Assert(opts.Dialect, qt.Equals, dialect.Postgres)
	c.Assert(opts.MigrationsDir, qt.Equals, "./migrations")
}

func TestResolveFillsZeroValues(t *testing.T) {
	c := qt.New(t)
	opts := (&config.CompileOptions{}).Resolve()
	c.Assert(opts.Dialect, qt.Equals, dialect.Postgres)
	c.Assert(opts.MigrationsDir, qt.Equals, "./migrations")

	custom := (&config.CompileOptions{Dialect: dialect.MySQL, MigrationsDir: "db/migrations"}).Resolve()
	c.Assert(custom.Dialect, qt.Equals, dialect.MySQL)
	c.Assert(custom.MigrationsDir, qt.Equals, "db/migrations")
}

func TestDialectFromURL(t *testing.T) {
	c := qt.New(t)
	c.Assert(config.DialectFromURL("postgres://localhost/db"), qt.Equals, dialect.Postgres)
	c.Assert(config.DialectFromURL("postgresql://localhost/db"), qt.Equals, dialect.Postgres)
	c.Assert(config.DialectFromURL("mysql://localhost/db"), qt.Equals, dialect.MySQL)
	c.Assert(config.DialectFromURL("mariadb://localhost/db"), qt.Equals, dialect.MySQL)
	c.Assert(config.DialectFromURL("sqlite:///tmp/db.sqlite"), qt.Equals, dialect.SQLite)
	c.Assert(config.DialectFromURL("./local.db"), qt.Equals, dialect.SQLite)
}
