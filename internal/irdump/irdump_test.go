package irdump

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelsoft/corec/internal/ir"
	"github.com/kestrelsoft/corec/internal/types"
)

func sampleProgram() *ir.Program {
	in := types.NewInterner()
	pos := ir.Position{}
	block := ir.NewBlock()
	block.Append(ir.NewIntLiteral(in, pos, 42))
	main := &ir.Function{Name: "main", Entry: block, IsMain: true, ReturnType: in.Int()}
	prog := ir.New(in)
	prog.Functions = append(prog.Functions, main)
	return prog
}

func TestTextRendersFunctionAndBody(t *testing.T) {
	text := Text(sampleProgram())
	assert.Contains(t, text, "func main(0 args) -> Int {")
	assert.True(t, strings.Contains(text, "int 42"))
}

func TestJSONAndFunctionNamesRoundTrip(t *testing.T) {
	doc, err := JSON(sampleProgram())
	require.NoError(t, err)

	names := FunctionNames(doc)
	require.Len(t, names, 1)
	assert.Equal(t, "main", names[0])
	assert.Contains(t, doc, `"isMain":true`)
}
