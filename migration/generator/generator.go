// Package generator orchestrates one migration's full on-disk layout:
// spec.md §6's three sibling files sharing a base
// `{YYYYMMDDHHMMSS}_{slug}` — `.up.sql`, `.down.sql`, `.mir.json` — built
// from a diff between an old and a new MIR snapshot.
//
// Grounded on migration/generator.GenerateMigration's orchestration flow
// (diff the schemas, render the SQL, write the files, return their paths)
// and createMigrationFiles's collision-avoidance loop, adapted from "diff
// against a live DB" to "diff two MIR snapshots" and extended with the
// third sibling file (migration/snapshot's `.mir.json`) the teacher's
// on-disk layout doesn't have.
package generator

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kqllang/kql/core/mir"
	"github.com/kqllang/kql/core/sqlgen/dialect"
	"github.com/kqllang/kql/migration/diff"
	"github.com/kqllang/kql/migration/render"
	"github.com/kqllang/kql/migration/snapshot"
)

// Options configures one migration-generation run.
type Options struct {
	OutputDir     string
	MigrationName string
	OldSchema     *mir.Schema // nil means "no tables exist yet"
	NewSchema     *mir.Schema
	Dialect       dialect.Dialect
}

// Files is the set of paths GenerateMigration wrote, all sharing Base.
type Files struct {
	Base         string
	UpFile       string
	DownFile     string
	SnapshotFile string
}

// GenerateMigration diffs OldSchema against NewSchema, renders the
// resulting steps (and their inverse, for the down migration) to SQL, and
// writes all three sibling files. Returns nil, nil if the schemas are
// identical — a successful no-op, matching the teacher's
// "!diff.HasChanges() -> no migration needed" short-circuit.
func GenerateMigration(opts Options) (*Files, error) {
	oldSchema := opts.OldSchema
	if oldSchema == nil {
		oldSchema = &mir.Schema{FormatVersion: mir.CurrentFormatVersion}
	}

	steps := diff.Diff(oldSchema, opts.NewSchema)
	if len(steps) == 0 {
		return nil, nil
	}

	upSQL, err := render.Steps(steps, opts.Dialect)
	if err != nil {
		return nil, fmt.Errorf("generator: failed to render up migration: %w", err)
	}

	downSteps := diff.Diff(opts.NewSchema, oldSchema)
	downSQL, err := render.Steps(downSteps, opts.Dialect)
	if err != nil {
		return nil, fmt.Errorf("generator: failed to render down migration: %w", err)
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("generator: failed to create output directory: %w", err)
	}

	base, err := nextBase(opts.OutputDir, opts.MigrationName)
	if err != nil {
		return nil, err
	}

	upPath := filepath.Join(opts.OutputDir, base+".up.sql")
	downPath := filepath.Join(opts.OutputDir, base+".down.sql")

	if err := writeFile(upPath, upSQL); err != nil {
		return nil, fmt.Errorf("generator: failed to write up migration file: %w", err)
	}
	if err := writeFile(downPath, downSQL); err != nil {
		return nil, fmt.Errorf("generator: failed to write down migration file: %w", err)
	}

	snapPath, err := snapshot.Write(opts.OutputDir, baseVersion(base), baseSlug(base), opts.NewSchema)
	if err != nil {
		return nil, fmt.Errorf("generator: failed to write MIR snapshot: %w", err)
	}

	slog.Debug("generated migration", "base", base, "steps", len(steps))

	return &Files{Base: base, UpFile: upPath, DownFile: downPath, SnapshotFile: snapPath}, nil
}

// writeFile writes contents to path with a guaranteed flush before close,
// matching migration/snapshot.Write's durability guarantee (spec.md §5).
func writeFile(path, contents string) error {
	//nolint:gosec // 0644 matches the teacher's migration file permissions.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteString(contents); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return err
	}
	return f.Close()
}

// nextBase picks a `{YYYYMMDDHHMMSS}_{slug}` base unused in dir, advancing
// the timestamp one second at a time on collision — the same
// collision-avoidance idea as createMigrationFiles's os.Stat loop, adapted
// from an incrementing integer version to an incrementing timestamp.
func nextBase(dir, name string) (string, error) {
	slug := slugify(name)
	t := time.Now().UTC()
	for {
		base := t.Format("20060102150405") + "_" + slug
		if _, err := os.Stat(filepath.Join(dir, base+".up.sql")); os.IsNotExist(err) {
			return base, nil
		} else if err != nil && !os.IsNotExist(err) {
			return "", fmt.Errorf("generator: failed to stat %s: %w", base, err)
		}
		t = t.Add(time.Second)
	}
}

func baseVersion(base string) int64 {
	var v int64
	fmt.Sscanf(base, "%d_", &v)
	return v
}

func baseSlug(base string) string {
	idx := strings.Index(base, "_")
	if idx < 0 {
		return base
	}
	return base[idx+1:]
}

func slugify(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "migration"
	}
	name = strings.ToLower(name)
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, name)
	return name
}
