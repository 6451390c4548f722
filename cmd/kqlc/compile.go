package main

import (
	"fmt"
	"os"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/kqllang/kql"
)

const fileFlag = "file"

var compileFlags = map[string]cobraflags.Flag{
	fileFlag: &cobraflags.StringFlag{
		Name:  fileFlag,
		Value: "",
		Usage: "Path to the .kql source file to compile (required)",
	},
}

func newCompileCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile a .kql source file and report the number of tables produced",
		RunE:  runCompile,
	}
	cobraflags.RegisterMap(cmd, compileFlags)
	return cmd
}

func runCompile(_ *cobra.Command, _ []string) error {
	path := compileFlags[fileFlag].GetString()
	if path == "" {
		return fmt.Errorf("--file is required")
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	schema, err := kql.Compile(string(source))
	if err != nil {
		return fmt.Errorf("compiling %s: %w", path, err)
	}

	fmt.Printf("compiled %s: %d table(s)\n", path, len(schema.Tables))
	return nil
}
