package generator_test

import (
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/kqllang/kql/core/hir"
	"github.com/kqllang/kql/core/mir"
	"github.com/kqllang/kql/core/parser"
	"github.com/kqllang/kql/core/sqlgen/dialect"
	"github.com/kqllang/kql/migration/generator"
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

func TestGenerateMigrationWritesThreeSiblingFiles(t *testing.T) {
	c := qt.New(t)
	dir := c.TempDir()

	newSchema := lowerToMIR(c, `struct User { @primary_key id: i32, name: String }`)

	files, err := generator.GenerateMigration(generator.Options{
		OutputDir:     dir,
		MigrationName: "create user",
		NewSchema:     newSchema,
		Dialect:       dialect.Postgres,
	})
	c.Assert(err, qt.IsNil)
	c.Assert(files, qt.Not(qt.IsNil))

	c.Assert(filepath.Base(files.UpFile), qt.Equals, files.Base+".up.sql")
	c.Assert(filepath.Base(files.DownFile), qt.Equals, files.Base+".down.sql")
	c.Assert(filepath.Base(files.SnapshotFile), qt.Equals, files.Base+".mir.json")

	up, err := os.ReadFile(files.UpFile)
	c.Assert(err, qt.IsNil)
	c.Assert(string(up), qt.Contains, "CREATE TABLE IF NOT EXISTS user")

	down, err := os.ReadFile(files.DownFile)
	c.Assert(err, qt.IsNil)
	c.Assert(string(down), qt.Contains, "DROP TABLE IF EXISTS user")
}

func TestGenerateMigrationNoChangesReturnsNil(t *testing.T) {
	c := qt.New(t)
	dir := c.TempDir()

	schema := lowerToMIR(c, `struct User { @primary_key id: i32 }`)

	files, err := generator.GenerateMigration(generator.Options{
		OutputDir:     dir,
		MigrationName: "noop",
		OldSchema:     schema,
		NewSchema:     schema,
		Dialect:       dialect.Postgres,
	})
	c.Assert(err, qt.IsNil)
	c.Assert(files, qt.IsNil)
}
