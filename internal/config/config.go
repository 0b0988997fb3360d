// Package config loads the pipeline's run-time configuration: which
// passes are enabled, the inlining size threshold, and verbosity, as a
// single flat YAML document decoded with goccy/go-yaml, rather than
// introducing a second configuration language for the core on top of
// whatever the irscript loader already reads.
package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// PipelineConfig controls which of the seven passes run and how Pass I
// sizes its inlining threshold. Every pass defaults to enabled; a
// disabled pass is skipped entirely rather than run as a no-op, so
// disabling Pass T also requires the input program to already be fully
// typed.
type PipelineConfig struct {
	Typecheck bool `yaml:"typecheck"`
	Closure   bool `yaml:"closure"`
	DeadCode  bool `yaml:"dead_code"`
	Inline    bool `yaml:"inline"`
	Elide     bool `yaml:"elide"`
	Memory    bool `yaml:"memory"`
	TailCall  bool `yaml:"tail_call"`

	InlineSizeThreshold int  `yaml:"inline_size_threshold"`
	Verbose             bool `yaml:"verbose"`
}

// Default returns the configuration that runs every pass in the
// standard T, L, D, I, V, M, TC order.
func Default() PipelineConfig {
	return PipelineConfig{
		Typecheck:           true,
		Closure:             true,
		DeadCode:            true,
		Inline:              true,
		Elide:               true,
		Memory:              true,
		TailCall:            true,
		InlineSizeThreshold: 3,
	}
}

// Load reads a PipelineConfig from a YAML file at path, starting from
// Default so a partial document only overrides what it mentions.
func Load(path string) (PipelineConfig, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
