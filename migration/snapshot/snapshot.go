// Package snapshot persists and retrieves MIR schemas as JSON sidecar files
// alongside generated migration SQL, so a later compilation can diff against
// the schema the last migration was generated from (spec.md §4.6 "Snapshot
// persistence").
//
// The teacher never serializes its own schema to disk — it diffs a freshly
// generated schema against a live database introspection on every run
// (migration/generator.GenerateMigration) — so this package has no direct
// teacher analogue. It is grounded instead on the pack's
// denisvmedia-inventario ptah fork, whose schema/differ and schema/types
// packages read and write a JSON-serializable schema snapshot the same way,
// adapted here to round-trip a *mir.Schema. File-writing mechanics (the
// output-directory creation, the timestamp-prefixed filename) are grounded
// on migration/generator.createMigrationFiles; this package has no
// collision-avoidance loop (that lives in this module's
// migration/generator.nextBase).
package snapshot

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kqllang/kql/core/diagnostics"
	"github.com/kqllang/kql/core/mir"
)

// Extension is the suffix every snapshot sidecar file carries.
const Extension = ".mir.json"

// Write serializes schema as indented JSON and flushes it to
// outputDir/{version}_{name}.mir.json, fsyncing before close so the file is
// durable even if the process is killed immediately after Write returns.
//
// The teacher's createMigrationFiles writes via the simpler os.WriteFile,
// which is sufficient for its own up/down SQL files (any partial write is
// harmless: a half-written migration file just fails to apply). A snapshot
// sidecar is read back and trusted as the source of truth for the next
// diff, so this writes through os.OpenFile/Write/Sync/Close explicitly
// instead, per spec.md §5's durability requirement.
func Write(outputDir string, version int64, name string, schema *mir.Schema) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", diagnostics.New(diagnostics.Io, "snapshot: failed to create output directory: %v", err)
	}

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", diagnostics.New(diagnostics.Io, "snapshot: failed to marshal schema: %v", err)
	}

	path := filepath.Join(outputDir, FileName(version, name))

	//nolint:gosec // 0644 matches the teacher's migration file permissions.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return "", diagnostics.New(diagnostics.Io, "snapshot: failed to open %s: %v", path, err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return "", diagnostics.New(diagnostics.Io, "snapshot: failed to write %s: %v", path, err)
	}
	if err := f.Sync(); err != nil {
		return "", diagnostics.New(diagnostics.Io, "snapshot: failed to sync %s: %v", path, err)
	}
	if err := f.Close(); err != nil {
		return "", diagnostics.New(diagnostics.Io, "snapshot: failed to close %s: %v", path, err)
	}

	slog.Debug("wrote MIR snapshot", "path", path, "tables", len(schema.Tables))
	return path, nil
}

// FileName builds the timestamp-prefixed snapshot filename, matching the
// migrator package's NNNNNNNNNN_description.up.sql convention with
// .mir.json substituted for the .up.sql/.down.sql suffix.
func FileName(version int64, name string) string {
	safeName := strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
	if safeName == "" {
		safeName = "migration"
	}
	return fmt.Sprintf("%010d_%s%s", version, safeName, Extension)
}

// Read loads and decodes a single MIR snapshot file.
func Read(path string) (*mir.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, diagnostics.New(diagnostics.Io, "snapshot: failed to read %s: %v", path, err)
	}
	var schema mir.Schema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, diagnostics.New(diagnostics.Io, "snapshot: failed to unmarshal %s: %v", path, err)
	}
	return &schema, nil
}

// Latest returns the most recently generated snapshot in dir, or nil if dir
// contains no snapshot files. Filenames are timestamp-prefixed, so a
// descending lexicographic sort is a descending chronological sort —
// mirroring migrator.NewFSMigrationProvider's reliance on the same filename
// convention to order migrations without parsing embedded timestamps.
func Latest(dir string) (*mir.Schema, string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", nil
		}
		return nil, "", diagnostics.New(diagnostics.Io, "snapshot: failed to read directory %s: %v", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), Extension) {
			continue
		}
		names = append(names, e.Name())
	}
	if len(names) == 0 {
		return nil, "", nil
	}

	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	path := filepath.Join(dir, names[0])
	schema, err := Read(path)
	if err != nil {
		return nil, "", err
	}
	return schema, path, nil
}
