// Package deadcode implements Pass D: for each function independently,
// it marks every expression in the function's entry block live by
// transitively walking from the block's last expression (recursing into
// an If arm's or a Switch case's own last expression, and into every
// sub-expression an expression references), then sweeps the block down
// to just the marked expressions plus every Argument and CaseVariable
// node, preserving their original relative order. Arguments/case
// variables are always kept live even when otherwise unreferenced,
// matching the original's DeadCodeElimination::Mark/Sweep — this pass
// deliberately does not shrink an argument list. Discarding a whole
// function left with no callers after inlining is Pass I's job, not
// this one's: Pass D only ever rewrites a function's own body.
package deadcode

import "github.com/kestrelsoft/corec/internal/ir"

// Run executes Pass D over src.
func Run(src *ir.Program) (*ir.Program, error) {
	dst := ir.New(src.Interner)
	for _, fn := range src.Functions {
		nf := &ir.Function{Name: fn.Name, ArgumentTypes: fn.ArgumentTypes, ReturnType: fn.ReturnType, IsMain: fn.IsMain}
		nf.Entry = sweepBlock(fn.Entry)
		dst.Functions = append(dst.Functions, nf)
	}
	return dst, nil
}

// sweepBlock marks live expressions in b and returns a new block
// containing only those expressions (plus Argument/CaseVariable nodes),
// in their original order.
func sweepBlock(b *ir.Block) *ir.Block {
	if b == nil {
		return nil
	}
	live := map[ir.Expr]bool{}
	mark(b.Last(), live)

	out := ir.NewBlock()
	for _, e := range b.Exprs {
		if live[e] || alwaysLive(e) {
			out.Append(sweepNested(e))
		}
	}
	return out
}

// alwaysLive reports whether e survives a sweep even when nothing
// references it, per the spec's "Arguments and case-variables are
// always considered live."
func alwaysLive(e ir.Expr) bool {
	switch e.(type) {
	case *ir.Argument, *ir.CaseVariable:
		return true
	default:
		return false
	}
}

// sweepNested recurses the sweep into e's own nested blocks (an If's
// arms, a Switch's case bodies); every other expression kind is left as
// is, since Pass D only ever removes whole statements, never rewrites
// one.
func sweepNested(e ir.Expr) ir.Expr {
	switch n := e.(type) {
	case *ir.If:
		n.Then = sweepBlock(n.Then)
		n.Else = sweepBlock(n.Else)
		return n
	case *ir.Switch:
		for i, c := range n.Cases {
			n.Cases[i] = ir.SwitchCase{CaseName: c.CaseName, Variable: c.Variable, Body: sweepBlock(c.Body)}
		}
		return n
	default:
		return n
	}
}

// mark transitively marks e and everything it references as live. An
// If/Switch marks only into its arm/case's own last expression — that
// arm's sweep, run afterward by sweepBlock, independently decides which
// of its statements survive.
func mark(e ir.Expr, live map[ir.Expr]bool) {
	if e == nil || live[e] {
		return
	}
	live[e] = true
	switch n := e.(type) {
	case *ir.ArrayLiteral:
		markAll(n.Elements, live)
	case *ir.TupleLiteral:
		markAll(n.Elements, live)
	case *ir.StructLiteral:
		markAll(n.Fields, live)
	case *ir.EnumLiteral:
		mark(n.Payload, live)
	case *ir.BinaryExpression:
		mark(n.Left, live)
		mark(n.Right, live)
	case *ir.If:
		mark(n.Condition, live)
		markBlockResult(n.Then, live)
		markBlockResult(n.Else, live)
	case *ir.Switch:
		mark(n.Scrutinee, live)
		for _, c := range n.Cases {
			markBlockResult(c.Body, live)
		}
	case *ir.TupleAccess:
		mark(n.Tuple, live)
	case *ir.StructAccess:
		mark(n.Struct, live)
	case *ir.Closure:
		markAll(n.CapturedArgs, live)
	case *ir.ClosureAccess:
		mark(n.Closure, live)
	case *ir.FunctionCall:
		markAll(n.Arguments, live)
	case *ir.ClosureCall:
		mark(n.Closure, live)
		markAll(n.Arguments, live)
	case *ir.MethodCall:
		mark(n.Receiver, live)
		if n.Method != nil {
			mark(n.Method, live)
		}
		markAll(n.Arguments, live)
	case *ir.Intrinsic:
		markAll(n.Arguments, live)
	case *ir.Bind:
		mark(n.Left, live)
		mark(n.Right, live)
	case *ir.Return:
		mark(n.Value, live)
	}
}

// markBlockResult marks a nested block's own last expression (and
// everything it transitively references) live.
func markBlockResult(b *ir.Block, live map[ir.Expr]bool) {
	if b == nil {
		return
	}
	mark(b.Last(), live)
}

func markAll(es []ir.Expr, live map[ir.Expr]bool) {
	for _, e := range es {
		mark(e, live)
	}
}
