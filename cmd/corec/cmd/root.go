package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Version information, set by build flags.
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "corec",
	Short: "Typed IR compiler core for a small expression-oriented language",
	Long: `corec drives the seven-pass compiler core over a typed intermediate
representation: type checking and constant folding, closure lowering,
dead-code elimination, inlining, empty-type elision, memory management,
and tail-call marking.

corec itself never parses source text; it consumes programs described as
irscript YAML fixtures. A real front end would sit in front of this core
the same way irscript's loader does here.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("config", "", "path to a pipeline config YAML file")
}
