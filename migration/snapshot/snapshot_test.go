package snapshot_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/kqllang/kql/core/mir"
	"github.com/kqllang/kql/migration/snapshot"
)

func sampleSchema() *mir.Schema {
	return &mir.Schema{
		FormatVersion: mir.CurrentFormatVersion,
		Tables: []mir.Table{
			{
				Name: "user",
				Columns: []mir.Column{
					{Name: "id", Type: mir.I32, AutoIncrement: true},
					{Name: "name", Type: mir.StringType},
				},
				PrimaryKey: []string{"id"},
			},
		},
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	c := qt.New(t)
	dir := c.TempDir()

	schema := sampleSchema()
	path, err := snapshot.Write(dir, 1700000000, "init", schema)
	c.Assert(err, qt.IsNil)
	c.Assert(path, qt.Contains, "1700000000_init.mir.json")

	got, err := snapshot.Read(path)
	c.Assert(err, qt.IsNil)
	c.Assert(got.FormatVersion, qt.Equals, schema.FormatVersion)
	c.Assert(got.Tables, qt.HasLen, 1)
	c.Assert(got.Tables[0].Name, qt.Equals, "user")
	c.Assert(got.Tables[0].Columns, qt.HasLen, 2)
}

func TestLatestReturnsMostRecentByTimestamp(t *testing.T) {
	c := qt.New(t)
	dir := c.TempDir()

	_, err := snapshot.Write(dir, 1700000000, "init", sampleSchema())
	c.Assert(err, qt.IsNil)

	second := sampleSchema()
	second.Tables = append(second.Tables, mir.Table{Name: "post"})
	_, err = snapshot.Write(dir, 1700000500, "add_post", second)
	c.Assert(err, qt.IsNil)

	got, path, err := snapshot.Latest(dir)
	c.Assert(err, qt.IsNil)
	c.Assert(path, qt.Contains, "1700000500_add_post.mir.json")
	c.Assert(got.Tables, qt.HasLen, 2)
}

func TestLatestReturnsNilWhenDirEmpty(t *testing.T) {
	c := qt.New(t)
	dir := c.TempDir()

	got, path, err := snapshot.Latest(dir)
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.IsNil)
	c.Assert(path, qt.Equals, "")
}

func TestLatestReturnsNilWhenDirMissing(t *testing.T) {
	c := qt.New(t)

	got, path, err := snapshot.Latest(c.TempDir() + "/does-not-exist")
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.IsNil)
	c.Assert(path, qt.Equals, "")
}
