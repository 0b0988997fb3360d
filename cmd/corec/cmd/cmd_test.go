package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelsoft/corec/internal/pipeline"
)

const sumProgram = `
functions:
  - name: helper
    body:
      - kind: binary
        op: "+"
        left:
          kind: int
          int: 1
        right:
          kind: int
          int: 2
  - name: main
    body:
      - kind: bind
        left:
          kind: call
          function: helper
        right:
          kind: void
`

func writeProgram(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "program.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, err = buf.ReadFrom(r)
	require.NoError(t, err)
	return buf.String()
}

func TestRunCommandReportsSurvivingFunctionCount(t *testing.T) {
	path := writeProgram(t, sumProgram)

	out := captureStdout(t, func() {
		err := runCmd.RunE(runCmd, []string{path})
		require.NoError(t, err)
	})

	assert.Contains(t, out, "ok:")
	assert.Contains(t, out, "functions survived the pipeline")
}

func TestRunCommandOnMissingFileErrors(t *testing.T) {
	err := runCmd.RunE(runCmd, []string{filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)
}

func TestDumpCommandRendersTextStage(t *testing.T) {
	path := writeProgram(t, sumProgram)

	oldStage, oldFormat := dumpStage, dumpFormat
	defer func() { dumpStage, dumpFormat = oldStage, oldFormat }()
	dumpStage = string(pipeline.StageTypecheck)
	dumpFormat = "text"

	out := captureStdout(t, func() {
		err := dumpCmd.RunE(dumpCmd, []string{path})
		require.NoError(t, err)
	})

	assert.Contains(t, out, "main")
}

func TestDumpCommandRendersJSONStage(t *testing.T) {
	path := writeProgram(t, sumProgram)

	oldStage, oldFormat := dumpStage, dumpFormat
	defer func() { dumpStage, dumpFormat = oldStage, oldFormat }()
	dumpStage = string(pipeline.StageTailCall)
	dumpFormat = "json"

	out := captureStdout(t, func() {
		err := dumpCmd.RunE(dumpCmd, []string{path})
		require.NoError(t, err)
	})

	assert.True(t, strings.HasPrefix(strings.TrimSpace(out), "{"))
}

func TestDumpCommandRejectsUnknownStage(t *testing.T) {
	path := writeProgram(t, sumProgram)

	oldStage, oldFormat := dumpStage, dumpFormat
	defer func() { dumpStage, dumpFormat = oldStage, oldFormat }()
	dumpStage = "not-a-stage"
	dumpFormat = "text"

	err := dumpCmd.RunE(dumpCmd, []string{path})
	assert.Error(t, err)
}

func TestDumpCommandRejectsUnknownFormat(t *testing.T) {
	path := writeProgram(t, sumProgram)

	oldStage, oldFormat := dumpStage, dumpFormat
	defer func() { dumpStage, dumpFormat = oldStage, oldFormat }()
	dumpStage = string(pipeline.StageTypecheck)
	dumpFormat = "xml"

	err := dumpCmd.RunE(dumpCmd, []string{path})
	assert.Error(t, err)
}

func TestDemoCommandWalksEveryStage(t *testing.T) {
	out := captureStdout(t, func() {
		err := demoCmd.RunE(demoCmd, nil)
		require.NoError(t, err)
	})

	for _, stage := range pipeline.Ordered {
		assert.Contains(t, out, "=== "+string(stage)+" ===")
	}
	// every stage dumps main; helper survives up to and including Pass D
	// (still called twice) but Pass I inlines both call sites and drops
	// it for having zero remaining callers, so it never appears again
	// from the Inline stage onward.
	assert.Equal(t, len(pipeline.Ordered), strings.Count(out, "func main"))
	assert.Equal(t, 4, strings.Count(out, "func helper"))
}

func TestVersionCommandPrintsVersion(t *testing.T) {
	out := captureStdout(t, func() {
		versionCmd.Run(versionCmd, nil)
	})

	assert.Contains(t, out, "corec version "+Version)
	assert.Contains(t, out, GitCommit)
	assert.Contains(t, out, BuildDate)
}
