package elide

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelsoft/corec/internal/ir"
	"github.com/kestrelsoft/corec/internal/types"
)

func TestTupleAccessRenumberedAfterEmptySlotElided(t *testing.T) {
	in := types.NewInterner()
	pos := ir.Position{}

	// (Int, (), Int) — index 2 should become index 1 after the empty tuple is dropped.
	tuple := ir.NewTupleLiteral(in, pos, []ir.Expr{
		ir.NewIntLiteral(in, pos, 10),
		ir.NewTupleLiteral(in, pos, nil),
		ir.NewIntLiteral(in, pos, 20),
	})
	access := ir.NewTupleAccess(pos, in.Int(), tuple, 2)

	mainBlock := ir.NewBlock()
	mainBlock.Append(access)
	main := &ir.Function{Name: "main", Entry: mainBlock, IsMain: true, ReturnType: in.Int()}

	src := ir.New(in)
	src.Functions = append(src.Functions, main)

	out, err := Run(src)
	require.NoError(t, err)

	result := out.Main().Entry.Last()
	ta, ok := result.(*ir.TupleAccess)
	require.True(t, ok, "expected a TupleAccess, got %T", result)
	assert.Equal(t, 1, ta.Index, "third slot should renumber to index 1 once the empty slot is dropped")

	tl, ok := ta.Tuple.(*ir.TupleLiteral)
	require.True(t, ok)
	assert.Len(t, tl.Elements, 2, "the compacted tuple should have only the two non-empty elements")
}

func TestEmptyArgumentDroppedFromFunctionSignature(t *testing.T) {
	in := types.NewInterner()
	pos := ir.Position{}

	// f(Int, ()) -> Int, body reads argument 0.
	fnBlock := ir.NewBlock()
	fnBlock.Append(ir.NewArgument(pos, in.Int(), 0))
	fn := &ir.Function{Name: "f", ArgumentTypes: []types.Type{in.Int(), in.Tuple(nil)}, ReturnType: in.Int(), Entry: fnBlock}

	mainBlock := ir.NewBlock()
	mainBlock.Append(ir.NewBind(pos, ir.NewFunctionCall(pos, fn, []ir.Expr{
		ir.NewIntLiteral(in, pos, 7),
		ir.NewTupleLiteral(in, pos, nil),
	}), ir.NewVoidLiteral(in, pos)))
	main := &ir.Function{Name: "main", Entry: mainBlock, IsMain: true, ReturnType: in.Void()}

	src := ir.New(in)
	src.Functions = append(src.Functions, main, fn)

	out, err := Run(src)
	require.NoError(t, err)

	var outFn *ir.Function
	for _, f := range out.Functions {
		if f.Name == "f" {
			outFn = f
		}
	}
	require.NotNil(t, outFn)
	assert.Len(t, outFn.ArgumentTypes, 1, "the empty-tuple argument slot should be dropped from the signature")

	arg, ok := outFn.Entry.Last().(*ir.Argument)
	require.True(t, ok)
	assert.Equal(t, 0, arg.Index, "the surviving argument keeps index 0")
}
