package main

import (
	"fmt"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/kqllang/kql/core/mir"
	"github.com/kqllang/kql/core/sqlgen/dialect"
	"github.com/kqllang/kql/migration/generator"
	"github.com/kqllang/kql/migration/snapshot"
)

const (
	nameFlag      = "name"
	outputDirFlag = "output-dir"
)

var migrateNewFlags = map[string]cobraflags.Flag{
	newFileFlag: &cobraflags.StringFlag{
		Name:  newFileFlag,
		Value: "",
		Usage: "Path to the current .kql source file (required)",
	},
	nameFlag: &cobraflags.StringFlag{
		Name:  nameFlag,
		Value: "",
		Usage: "Name for the migration (required)",
	},
	outputDirFlag: &cobraflags.StringFlag{
		Name:  outputDirFlag,
		Value: "./migrations",
		Usage: "Directory where migration files and snapshots are stored",
	},
	dialectFlag: &cobraflags.StringFlag{
		Name:  dialectFlag,
		Value: "postgres",
		Usage: "Target SQL dialect: postgres, mysql, or sqlite",
	},
}

func newMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage migration files",
	}
	migrateCmd.AddCommand(newMigrateNewCommand())
	return migrateCmd
}

func newMigrateNewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Diff against the latest snapshot and write a new migration",
		Long: `Compiles the given .kql source file, diffs it against the most recent
.mir.json snapshot in --output-dir (or against an empty schema if none
exists yet), and writes the resulting {timestamp}_{name}.up.sql,
.down.sql and .mir.json files.`,
		RunE: runMigrateNew,
	}
	cobraflags.RegisterMap(cmd, migrateNewFlags)
	return cmd
}

func runMigrateNew(_ *cobra.Command, _ []string) error {
	path := migrateNewFlags[newFileFlag].GetString()
	name := migrateNewFlags[nameFlag].GetString()
	outputDir := migrateNewFlags[outputDirFlag].GetString()
	if path == "" {
		return fmt.Errorf("--new is required")
	}
	if name == "" {
		return fmt.Errorf("--name is required")
	}
	d := dialect.Normalize(migrateNewFlags[dialectFlag].GetString())
	if d == "" {
		return fmt.Errorf("unknown --dialect %q", migrateNewFlags[dialectFlag].GetString())
	}

	newSchema, err := compileFile(path)
	if err != nil {
		return err
	}

	var oldSchema *mir.Schema
	latest, _, err := snapshot.Latest(outputDir)
	if err != nil {
		return fmt.Errorf("reading latest snapshot: %w", err)
	}
	oldSchema = latest

	files, err := generator.GenerateMigration(generator.Options{
		OutputDir:     outputDir,
		MigrationName: name,
		OldSchema:     oldSchema,
		NewSchema:     newSchema,
		Dialect:       d,
	})
	if err != nil {
		return fmt.Errorf("generating migration: %w", err)
	}
	if files == nil {
		fmt.Println("no changes detected, nothing to migrate")
		return nil
	}

	fmt.Printf("wrote migration %s\n", files.Base)
	fmt.Printf("  up:       %s\n", files.UpFile)
	fmt.Printf("  down:     %s\n", files.DownFile)
	fmt.Printf("  snapshot: %s\n", files.SnapshotFile)
	return nil
}
