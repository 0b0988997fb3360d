package pipeline

import (
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelsoft/corec/internal/config"
	"github.com/kestrelsoft/corec/internal/irdump"
	"github.com/kestrelsoft/corec/internal/irscript"
)

const foldAndInlineDoc = `
functions:
  - name: main
    body:
      - kind: bind
        left:
          kind: call
          function: helper
        right:
          kind: bind
          left:
            kind: call
            function: helper
          right:
            kind: void
  - name: helper
    body:
      - kind: binary
        op: "*"
        left:
          kind: binary
          op: "+"
          left:
            kind: int
            int: 1
          right:
            kind: int
            int: 2
        right:
          kind: int
          int: 3
`

func TestFullPipelineFoldsInlinesAndDropsDeadHelper(t *testing.T) {
	doc, err := irscript.Load([]byte(foldAndInlineDoc))
	require.NoError(t, err)

	prog, err := irscript.NewBuilder().Build(doc)
	require.NoError(t, err)

	res, err := Run(prog, config.Default(), nil)
	require.NoError(t, err)

	require.Len(t, res.Final.Functions, 1, "helper should be inlined at both call sites and then dropped")
	assert.Equal(t, "main", res.Final.Functions[0].Name)

	for _, stage := range Ordered {
		require.Contains(t, res.Stages, stage)
	}

	snaps.MatchSnapshot(t, irdump.Text(res.Final))
}

const constantExprDoc = `
functions:
  - name: main
    body:
      - kind: binary
        op: "=="
        left:
          kind: binary
          op: "+"
          left:
            kind: int
            int: 1
          right:
            kind: int
            int: 2
        right:
          kind: int
          int: 3
      - kind: void
`

func TestPipelineCanSkipDisabledStages(t *testing.T) {
	doc, err := irscript.Load([]byte(constantExprDoc))
	require.NoError(t, err)
	prog, err := irscript.NewBuilder().Build(doc)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Memory = false
	cfg.TailCall = false

	res, err := Run(prog, cfg, nil)
	require.NoError(t, err)
	assert.Nil(t, res.TailCall, "Pass TC was disabled, no side table should be produced")
	assert.Same(t, res.Stages[StageMemory], res.Stages[StageElide],
		"a skipped stage's recorded output must be identical to the previous stage's")
}
