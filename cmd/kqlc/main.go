// Command kqlc is the compiler's CLI shell: thin cobra wiring over the
// kql package's five entry points, no business logic duplicated here.
//
// Grounded on cmd/generate/generate.go (cobraflags.StringFlag maps
// registered per subcommand) and cmd/packagemigrator/packagemigrator.go
// (a cobra root command, viper.AutomaticEnv+SetEnvPrefix for env-var
// overrides, subcommands registered in Execute).
package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "KQLC"

var rootCmd = &cobra.Command{
	Use:   "kqlc",
	Short: "KQL schema compiler: compile, generate DDL, diff schemas, write migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

func main() {
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)

	rootCmd.AddCommand(newCompileCommand())
	rootCmd.AddCommand(newDDLCommand())
	rootCmd.AddCommand(newDiffCommand())
	rootCmd.AddCommand(newMigrateCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1) //revive:disable-line:deep-exit
	}
}
