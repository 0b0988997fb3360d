package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kestrelsoft/corec/internal/config"
	"github.com/kestrelsoft/corec/internal/ir"
	"github.com/kestrelsoft/corec/internal/irscript"
)

// noImporter rejects every import intrinsic; corec has no multi-file
// resolution story yet, so "import" always fails with a meta error.
type noImporter struct{}

func (noImporter) Import(path string) (*ir.Program, error) {
	return nil, fmt.Errorf("no importer configured: cannot import %q", path)
}

func loadProgram(path string) (*ir.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	doc, err := irscript.Load(data)
	if err != nil {
		return nil, err
	}
	return irscript.NewBuilder().Build(doc)
}

func loadConfig(cmd *cobra.Command) (config.PipelineConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}
