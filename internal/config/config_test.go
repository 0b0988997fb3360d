package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultEnablesEveryPass(t *testing.T) {
	cfg := Default()
	assert.True(t, cfg.Typecheck)
	assert.True(t, cfg.Closure)
	assert.True(t, cfg.DeadCode)
	assert.True(t, cfg.Inline)
	assert.True(t, cfg.Elide)
	assert.True(t, cfg.Memory)
	assert.True(t, cfg.TailCall)
	assert.Equal(t, 3, cfg.InlineSizeThreshold)
}

func TestLoadOverridesOnlyMentionedFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corec.yaml")
	require.NoError(t, os.WriteFile(path, []byte("memory: false\ninline_size_threshold: 8\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.False(t, cfg.Memory, "explicitly disabled pass should be off")
	assert.Equal(t, 8, cfg.InlineSizeThreshold)
	assert.True(t, cfg.Typecheck, "passes not mentioned in the document keep their default")
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
