package main

import (
	"fmt"
	"os"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/kqllang/kql"
	"github.com/kqllang/kql/core/sqlgen/dialect"
)

const dialectFlag = "dialect"

var ddlFlags = map[string]cobraflags.Flag{
	fileFlag: &cobraflags.StringFlag{
		Name:  fileFlag,
		Value: "",
		Usage: "Path to the .kql source file to compile (required)",
	},
	dialectFlag: &cobraflags.StringFlag{
		Name:  dialectFlag,
		Value: "postgres",
		Usage: "Target SQL dialect: postgres, mysql, or sqlite",
	},
}

func newDDLCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ddl",
		Short: "Compile a .kql source file and print its DDL",
		RunE:  runDDL,
	}
	cobraflags.RegisterMap(cmd, ddlFlags)
	return cmd
}

func runDDL(_ *cobra.Command, _ []string) error {
	path := ddlFlags[fileFlag].GetString()
	if path == "" {
		return fmt.Errorf("--file is required")
	}
	d := dialect.Normalize(ddlFlags[dialectFlag].GetString())
	if d == "" {
		return fmt.Errorf("unknown --dialect %q", ddlFlags[dialectFlag].GetString())
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	schema, err := kql.Compile(string(source))
	if err != nil {
		return fmt.Errorf("compiling %s: %w", path, err)
	}

	ddl, err := kql.GenerateDDL(schema, d)
	if err != nil {
		return fmt.Errorf("generating DDL: %w", err)
	}

	fmt.Print(ddl)
	return nil
}
