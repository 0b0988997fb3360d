package closure

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelsoft/corec/internal/ir"
	"github.com/kestrelsoft/corec/internal/types"
)

func TestClosureErasedToDispatchCall(t *testing.T) {
	in := types.NewInterner()
	pos := ir.Position{}

	addBlock := ir.NewBlock()
	captured := ir.NewArgument(pos, in.Int(), 0)
	param := ir.NewArgument(pos, in.Int(), 1)
	addBlock.Append(ir.NewBinaryExpression(in, pos, ir.OpAdd, captured, param))
	target := &ir.Function{Name: "addN", ArgumentTypes: []types.Type{in.Int(), in.Int()}, ReturnType: in.Int()}
	target.Entry = addBlock

	closureVal := ir.NewClosure(in, pos, []ir.Expr{ir.NewIntLiteral(in, pos, 5)}, target)
	call := ir.NewClosureCall(pos, in.Int(), closureVal, []ir.Expr{ir.NewIntLiteral(in, pos, 3)})

	mainBlock := ir.NewBlock()
	mainBlock.Append(ir.NewBind(pos, call, ir.NewVoidLiteral(in, pos)))
	main := &ir.Function{Name: "main", Entry: mainBlock, IsMain: true}

	src := ir.New(in)
	src.Functions = append(src.Functions, main, target)

	out, err := Run(src)
	require.NoError(t, err)

	var outMain *ir.Function
	var sawDispatcher bool
	for _, fn := range out.Functions {
		if fn.IsMain {
			outMain = fn
		}
		if strings.Contains(fn.Name, "closure$dispatch$") {
			sawDispatcher = true
		}
	}
	require.NotNil(t, outMain)
	assert.True(t, sawDispatcher, "expected a synthesized dispatcher function")

	bind, ok := outMain.Entry.Exprs[0].(*ir.Bind)
	require.True(t, ok)
	_, isCall := bind.Left.(*ir.FunctionCall)
	assert.True(t, isCall, "closure call must become a direct FunctionCall against the dispatcher, got %T", bind.Left)

	_, isClosureLit := bind.Left.(*ir.Closure)
	assert.False(t, isClosureLit, "no Closure literal should survive Pass L")
}
