package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelsoft/corec/internal/ir"
	"github.com/kestrelsoft/corec/internal/types"
)

// TestFinalUseLeftBareThenFreed builds a block whose first statement
// computes a managed (Array) value, reused by pointer as the block's
// second statement — its only other reference, and therefore its last
// use — with a Void statement following to keep that use from escaping:
//
//	arr            // [0] defines the value
//	arr            // [1] the value's last use: must be bare, not copied
//	void           // [2] the block's own result; arr must be freed before it
//
// and checks the last use is left unwrapped and a free is spliced in
// right after it, before the escaping Void statement.
func TestFinalUseLeftBareThenFreed(t *testing.T) {
	in := types.NewInterner()
	pos := ir.Position{}

	arr := ir.NewArrayLiteral(in, pos, in.Int(), []ir.Expr{ir.NewIntLiteral(in, pos, 1)})

	block := ir.NewBlock()
	block.Append(arr)
	block.Append(arr)
	block.Append(ir.NewVoidLiteral(in, pos))

	main := &ir.Function{Name: "main", Entry: block, IsMain: true, ReturnType: in.Void()}
	src := ir.New(in)
	src.Functions = append(src.Functions, main)

	out, err := Run(src)
	require.NoError(t, err)

	stmts := out.Main().Entry.Exprs
	require.Len(t, stmts, 4, "expected the original 3 statements plus one spliced free")

	_, firstBare := stmts[0].(*ir.ArrayLiteral)
	assert.True(t, firstBare, "the defining statement is never itself wrapped in copy")

	_, secondBare := stmts[1].(*ir.ArrayLiteral)
	assert.True(t, secondBare, "the value's only other (and therefore last) use must not be wrapped in copy")

	free, ok := stmts[2].(*ir.Intrinsic)
	require.True(t, ok, "expected a spliced free statement, got %T", stmts[2])
	assert.Equal(t, ir.IntrinsicFree, free.Name)

	_, finalVoid := stmts[3].(*ir.VoidLiteral)
	assert.True(t, finalVoid, "the block's own escaping result is unaffected")
}

// TestMiddleUseCopied builds a block where the same value is referenced
// three times: the middle reference is neither the definition nor the
// last use, so it must be wrapped in a copy, while the first and last
// are left bare.
func TestMiddleUseCopied(t *testing.T) {
	in := types.NewInterner()
	pos := ir.Position{}

	arr := ir.NewArrayLiteral(in, pos, in.Int(), []ir.Expr{ir.NewIntLiteral(in, pos, 1)})

	block := ir.NewBlock()
	block.Append(arr) // [0] define
	block.Append(arr) // [1] middle use
	block.Append(arr) // [2] last use, block result

	main := &ir.Function{Name: "main", Entry: block, IsMain: true, ReturnType: arr.Type()}
	src := ir.New(in)
	src.Functions = append(src.Functions, main)

	out, err := Run(src)
	require.NoError(t, err)

	stmts := out.Main().Entry.Exprs
	require.Len(t, stmts, 3, "the middle use is a copy wrapped inline, not a spliced statement")

	_, firstBare := stmts[0].(*ir.ArrayLiteral)
	assert.True(t, firstBare, "the defining statement is never itself wrapped in copy")

	copyExpr, ok := stmts[1].(*ir.Intrinsic)
	require.True(t, ok, "the middle (non-final) use must be wrapped, got %T", stmts[1])
	assert.Equal(t, ir.IntrinsicCopy, copyExpr.Name)

	_, lastBare := stmts[2].(*ir.ArrayLiteral)
	assert.True(t, lastBare, "the final use must not be wrapped in copy")
}

func TestIntsNeverCopiedOrFreed(t *testing.T) {
	in := types.NewInterner()
	pos := ir.Position{}

	one := ir.NewIntLiteral(in, pos, 1)

	block := ir.NewBlock()
	block.Append(one)
	block.Append(one)
	block.Append(ir.NewVoidLiteral(in, pos))

	main := &ir.Function{Name: "main", Entry: block, IsMain: true, ReturnType: in.Void()}
	src := ir.New(in)
	src.Functions = append(src.Functions, main)

	out, err := Run(src)
	require.NoError(t, err)

	for _, e := range out.Main().Entry.Exprs {
		if intr, ok := e.(*ir.Intrinsic); ok {
			assert.NotEqual(t, ir.IntrinsicCopy, intr.Name, "Int values must never be copied")
			assert.NotEqual(t, ir.IntrinsicFree, intr.Name, "Int values must never be freed")
		}
	}
}
