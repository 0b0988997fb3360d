// Package tailcall implements Pass TC, the pipeline's final stage: it
// marks every FunctionCall occupying a syntactic tail position so a code
// generator can turn self-recursion into a loop instead of growing the
// stack. A call is in tail position when it is a function's last
// executed expression: the last statement of a function's entry block,
// either arm of a tail-position If, every arm of a tail-position Switch,
// the operand of a Return, or the right-hand side of a Bind that is
// itself in tail position (Bind's left side is always evaluated purely
// for effect and is never a tail position).
//
// Tail positions are recorded in a side table keyed by *ir.FunctionCall
// rather than a field on the node itself, so this pass — unlike every
// other pass — does not need to rebuild the program; it only annotates
// it.
package tailcall

import "github.com/kestrelsoft/corec/internal/ir"

// Result is the side table Pass TC produces: the set of FunctionCall
// nodes in src that occupy a tail position.
type Result struct {
	TailCalls map[*ir.FunctionCall]bool
}

// IsTail reports whether call was found in tail position.
func (r *Result) IsTail(call *ir.FunctionCall) bool {
	return r.TailCalls[call]
}

// Run marks every tail-position FunctionCall in src and returns src
// unchanged alongside the side table (Pass TC is the only pass that does
// not allocate a fresh Program, since it never rewrites a node).
func Run(src *ir.Program) (*ir.Program, *Result, error) {
	r := &Result{TailCalls: map[*ir.FunctionCall]bool{}}
	for _, fn := range src.Functions {
		markBlockTail(fn.Entry, r)
	}
	return src, r, nil
}

func markBlockTail(b *ir.Block, r *Result) {
	if b == nil || len(b.Exprs) == 0 {
		return
	}
	markExprTail(b.Last(), r)
}

func markExprTail(e ir.Expr, r *Result) {
	switch n := e.(type) {
	case *ir.FunctionCall:
		r.TailCalls[n] = true
	case *ir.If:
		markBlockTail(n.Then, r)
		markBlockTail(n.Else, r)
	case *ir.Switch:
		for _, c := range n.Cases {
			markBlockTail(c.Body, r)
		}
	case *ir.Return:
		markExprTail(n.Value, r)
	case *ir.Bind:
		markExprTail(n.Right, r)
	}
}
