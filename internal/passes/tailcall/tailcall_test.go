package tailcall

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelsoft/corec/internal/ir"
	"github.com/kestrelsoft/corec/internal/types"
)

func TestLastStatementCallIsTail(t *testing.T) {
	in := types.NewInterner()
	pos := ir.Position{}

	calleeBlock := ir.NewBlock()
	calleeBlock.Append(ir.NewIntLiteral(in, pos, 1))
	callee := &ir.Function{Name: "callee", Entry: calleeBlock, ReturnType: in.Int()}

	call := ir.NewFunctionCall(pos, callee, nil)
	mainBlock := ir.NewBlock()
	mainBlock.Append(call)
	main := &ir.Function{Name: "main", Entry: mainBlock, IsMain: true, ReturnType: in.Int()}

	src := ir.New(in)
	src.Functions = append(src.Functions, main, callee)

	out, res, err := Run(src)
	require.NoError(t, err)
	assert.Same(t, src, out, "Pass TC must return the program unchanged")
	assert.True(t, res.IsTail(call))
}

func TestCallInBothIfArmsIsTail(t *testing.T) {
	in := types.NewInterner()
	pos := ir.Position{}

	calleeBlock := ir.NewBlock()
	calleeBlock.Append(ir.NewIntLiteral(in, pos, 1))
	callee := &ir.Function{Name: "callee", Entry: calleeBlock, ReturnType: in.Int()}

	thenCall := ir.NewFunctionCall(pos, callee, nil)
	elseCall := ir.NewFunctionCall(pos, callee, nil)
	cond := ir.NewIntLiteral(in, pos, 1)
	thenBlock := ir.NewBlock()
	thenBlock.Append(thenCall)
	elseBlock := ir.NewBlock()
	elseBlock.Append(elseCall)
	ifExpr := ir.NewIf(pos, in.Int(), cond, thenBlock, elseBlock)

	mainBlock := ir.NewBlock()
	mainBlock.Append(ifExpr)
	main := &ir.Function{Name: "main", Entry: mainBlock, IsMain: true, ReturnType: in.Int()}

	src := ir.New(in)
	src.Functions = append(src.Functions, main, callee)

	_, res, err := Run(src)
	require.NoError(t, err)
	assert.True(t, res.IsTail(thenCall))
	assert.True(t, res.IsTail(elseCall))
}

func TestCallNotInTailPositionIsUnmarked(t *testing.T) {
	in := types.NewInterner()
	pos := ir.Position{}

	calleeBlock := ir.NewBlock()
	calleeBlock.Append(ir.NewIntLiteral(in, pos, 1))
	callee := &ir.Function{Name: "callee", Entry: calleeBlock, ReturnType: in.Int()}

	nestedCall := ir.NewFunctionCall(pos, callee, nil)
	wrapped := ir.NewBinaryExpression(in, pos, ir.OpAdd, nestedCall, ir.NewIntLiteral(in, pos, 1))

	mainBlock := ir.NewBlock()
	mainBlock.Append(wrapped)
	main := &ir.Function{Name: "main", Entry: mainBlock, IsMain: true, ReturnType: in.Int()}

	src := ir.New(in)
	src.Functions = append(src.Functions, main, callee)

	_, res, err := Run(src)
	require.NoError(t, err)
	assert.False(t, res.IsTail(nestedCall), "a call used as an operand of a binary expression is not in tail position")
}
