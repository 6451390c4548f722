package main

import (
	"fmt"
	"os"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/kqllang/kql"
	"github.com/kqllang/kql/core/sqlgen/dialect"
)

const (
	oldFileFlag = "old"
	newFileFlag = "new"
)

var diffFlags = map[string]cobraflags.Flag{
	oldFileFlag: &cobraflags.StringFlag{
		Name:  oldFileFlag,
		Value: "",
		Usage: "Path to the previous .kql source file (required)",
	},
	newFileFlag: &cobraflags.StringFlag{
		Name:  newFileFlag,
		Value: "",
		Usage: "Path to the current .kql source file (required)",
	},
	dialectFlag: &cobraflags.StringFlag{
		Name:  dialectFlag,
		Value: "postgres",
		Usage: "Target SQL dialect: postgres, mysql, or sqlite",
	},
}

func newDiffCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Diff two .kql source files and print the migration SQL",
		RunE:  runDiff,
	}
	cobraflags.RegisterMap(cmd, diffFlags)
	return cmd
}

func runDiff(_ *cobra.Command, _ []string) error {
	oldPath := diffFlags[oldFileFlag].GetString()
	newPath := diffFlags[newFileFlag].GetString()
	if oldPath == "" || newPath == "" {
		return fmt.Errorf("--old and --new are both required")
	}
	d := dialect.Normalize(diffFlags[dialectFlag].GetString())
	if d == "" {
		return fmt.Errorf("unknown --dialect %q", diffFlags[dialectFlag].GetString())
	}

	oldSchema, err := compileFile(oldPath)
	if err != nil {
		return err
	}
	newSchema, err := compileFile(newPath)
	if err != nil {
		return err
	}

	steps := kql.Diff(oldSchema, newSchema)
	if len(steps) == 0 {
		fmt.Println("-- no changes")
		return nil
	}

	sql, err := kql.RenderMigration(steps, d)
	if err != nil {
		return fmt.Errorf("rendering migration: %w", err)
	}
	fmt.Print(sql)
	return nil
}

func compileFile(path string) (*kql.Schema, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	schema, err := kql.Compile(string(source))
	if err != nil {
		return nil, fmt.Errorf("compiling %s: %w", path, err)
	}
	return schema, nil
}
