package deadcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelsoft/corec/internal/ir"
	"github.com/kestrelsoft/corec/internal/types"
)

// TestLiveReferenceKeptDeadDropped builds a block with three statements:
// a value that a later statement references (must survive), a value
// nothing ever references and that isn't the block's result (must be
// dropped), and the block's own final, result-producing statement.
func TestLiveReferenceKeptDeadDropped(t *testing.T) {
	in := types.NewInterner()
	pos := ir.Position{}

	five := ir.NewIntLiteral(in, pos, 5)
	dead := ir.NewIntLiteral(in, pos, 99)
	result := ir.NewBinaryExpression(in, pos, ir.OpAdd, five, ir.NewIntLiteral(in, pos, 1))

	block := ir.NewBlock()
	block.Append(five)
	block.Append(dead)
	block.Append(result)

	main := &ir.Function{Name: "main", Entry: block, IsMain: true, ReturnType: in.Int()}
	src := ir.New(in)
	src.Functions = append(src.Functions, main)

	out, err := Run(src)
	require.NoError(t, err)

	stmts := out.Main().Entry.Exprs
	require.Len(t, stmts, 2, "the unreferenced, non-final statement must be swept away")
	assert.Same(t, five, stmts[0], "the referenced definition survives")
	assert.Same(t, result, stmts[1], "the block's own result always survives")
}

// TestArgumentAndCaseVariableAlwaysKept checks that Argument and
// CaseVariable nodes survive the sweep even when nothing in the
// function body ever reads them again.
func TestArgumentAndCaseVariableAlwaysKept(t *testing.T) {
	in := types.NewInterner()
	pos := ir.Position{}

	arg := ir.NewArgument(pos, in.Int(), 0)

	block := ir.NewBlock()
	block.Append(arg)
	block.Append(ir.NewVoidLiteral(in, pos))

	main := &ir.Function{Name: "main", Entry: block, IsMain: true, ArgumentTypes: []types.Type{in.Int()}, ReturnType: in.Void()}
	src := ir.New(in)
	src.Functions = append(src.Functions, main)

	out, err := Run(src)
	require.NoError(t, err)

	stmts := out.Main().Entry.Exprs
	require.Len(t, stmts, 2, "an otherwise-unreferenced Argument statement is never swept")
	assert.Same(t, arg, stmts[0])
}

// TestNestedBlockSweptIndependently checks that an If's Then and Else
// arms are each swept on their own: a dead statement in one arm is
// dropped regardless of what the other arm or the enclosing block does.
func TestNestedBlockSweptIndependently(t *testing.T) {
	in := types.NewInterner()
	pos := ir.Position{}

	cond := ir.NewIntLiteral(in, pos, 1)

	thenDead := ir.NewIntLiteral(in, pos, 10)
	thenResult := ir.NewIntLiteral(in, pos, 20)
	thenBlock := ir.NewBlock()
	thenBlock.Append(thenDead)
	thenBlock.Append(thenResult)

	elseResult := ir.NewIntLiteral(in, pos, 30)
	elseBlock := ir.NewBlock()
	elseBlock.Append(elseResult)

	ifExpr := ir.NewIf(pos, in.Int(), cond, thenBlock, elseBlock)

	mainBlock := ir.NewBlock()
	mainBlock.Append(ifExpr)

	main := &ir.Function{Name: "main", Entry: mainBlock, IsMain: true, ReturnType: in.Int()}
	src := ir.New(in)
	src.Functions = append(src.Functions, main)

	out, err := Run(src)
	require.NoError(t, err)

	stmts := out.Main().Entry.Exprs
	require.Len(t, stmts, 1)
	outIf, ok := stmts[0].(*ir.If)
	require.True(t, ok)

	require.Len(t, outIf.Then.Exprs, 1, "the dead statement in Then must be swept")
	assert.Same(t, thenResult, outIf.Then.Exprs[0])

	require.Len(t, outIf.Else.Exprs, 1)
	assert.Same(t, elseResult, outIf.Else.Exprs[0])
}
