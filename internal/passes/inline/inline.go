// Package inline implements Pass I: it substitutes calls to small or
// single-caller functions with their body, then discards any function
// left with zero remaining callers (main excepted). A function that
// calls itself directly is never inlined anywhere; a function reached
// again through the call chain currently being expanded (mutual
// recursion) is left as a plain call at that inner site, tracked by an
// in-progress set.
package inline

import (
	"github.com/kestrelsoft/corec/internal/ir"
	"github.com/kestrelsoft/corec/internal/types"
)

// SizeThreshold is the default maximum entry-block length (in top-level
// expressions) a function may have and still qualify for size-based
// inlining, independent of its caller count. Size-based eligibility
// counts only those top-level expressions; it does not look at whether
// the function makes calls of its own.
const SizeThreshold = 3

type pass struct {
	interner    *types.Interner
	callerCount map[*ir.Function]int
	threshold   int
	expanding   map[*ir.Function]bool
	selfCalling map[*ir.Function]bool
}

// Run executes Pass I over src using threshold as the size cutoff (pass
// SizeThreshold for the default).
func Run(src *ir.Program, threshold int) (*ir.Program, error) {
	p := &pass{
		interner:    src.Interner,
		callerCount: make(map[*ir.Function]int),
		threshold:   threshold,
		expanding:   make(map[*ir.Function]bool),
		selfCalling: make(map[*ir.Function]bool),
	}
	for _, fn := range src.Functions {
		p.countCalls(fn.Entry, p.callerCount)
		p.selfCalling[fn] = callsSelf(fn)
	}

	newFunctions := make(map[*ir.Function]*ir.Function, len(src.Functions))
	for _, fn := range src.Functions {
		newFunctions[fn] = &ir.Function{Name: fn.Name, ArgumentTypes: fn.ArgumentTypes, ReturnType: fn.ReturnType, IsMain: fn.IsMain}
	}
	for _, fn := range src.Functions {
		body, err := p.inlineBlock(fn.Entry)
		if err != nil {
			return nil, err
		}
		newFunctions[fn].Entry = body
	}

	finalCallers := make(map[*ir.Function]int)
	for _, fn := range src.Functions {
		p.countCalls(newFunctions[fn].Entry, finalCallers)
	}

	dst := ir.New(src.Interner)
	for _, fn := range src.Functions {
		nf := newFunctions[fn]
		if nf.IsMain || finalCallers[fn] > 0 {
			dst.Functions = append(dst.Functions, nf)
		}
	}
	return retarget(dst, newFunctions), nil
}

// retarget rewrites every surviving FunctionCall so it points at the new
// Function values (newFunctions maps old->new), since inlineBlock built
// calls against the old Function pointers as call targets for functions
// it chose not to inline.
func retarget(dst *ir.Program, newFunctions map[*ir.Function]*ir.Function) *ir.Program {
	for _, fn := range dst.Functions {
		retargetBlock(fn.Entry, newFunctions)
	}
	return dst
}

func retargetBlock(b *ir.Block, m map[*ir.Function]*ir.Function) {
	for i, e := range b.Exprs {
		b.Exprs[i] = retargetExpr(e, m)
	}
}

func retargetExpr(e ir.Expr, m map[*ir.Function]*ir.Function) ir.Expr {
	switch n := e.(type) {
	case *ir.FunctionCall:
		for i, a := range n.Arguments {
			n.Arguments[i] = retargetExpr(a, m)
		}
		if nf, ok := m[n.Function]; ok {
			n.Function = nf
		}
		return n
	case *ir.ArrayLiteral:
		for i, el := range n.Elements {
			n.Elements[i] = retargetExpr(el, m)
		}
		return n
	case *ir.TupleLiteral:
		for i, el := range n.Elements {
			n.Elements[i] = retargetExpr(el, m)
		}
		return n
	case *ir.StructLiteral:
		for i, f := range n.Fields {
			n.Fields[i] = retargetExpr(f, m)
		}
		return n
	case *ir.EnumLiteral:
		n.Payload = retargetExpr(n.Payload, m)
		return n
	case *ir.BinaryExpression:
		n.Left = retargetExpr(n.Left, m)
		n.Right = retargetExpr(n.Right, m)
		return n
	case *ir.If:
		n.Condition = retargetExpr(n.Condition, m)
		retargetBlock(n.Then, m)
		retargetBlock(n.Else, m)
		return n
	case *ir.Switch:
		n.Scrutinee = retargetExpr(n.Scrutinee, m)
		for _, c := range n.Cases {
			retargetBlock(c.Body, m)
		}
		return n
	case *ir.TupleAccess:
		n.Tuple = retargetExpr(n.Tuple, m)
		return n
	case *ir.StructAccess:
		n.Struct = retargetExpr(n.Struct, m)
		return n
	case *ir.Intrinsic:
		for i, a := range n.Arguments {
			n.Arguments[i] = retargetExpr(a, m)
		}
		return n
	case *ir.Bind:
		n.Left = retargetExpr(n.Left, m)
		n.Right = retargetExpr(n.Right, m)
		return n
	case *ir.Return:
		n.Value = retargetExpr(n.Value, m)
		return n
	default:
		return e
	}
}

func callsSelf(fn *ir.Function) bool {
	found := false
	var walk func(b *ir.Block)
	var walkExpr func(e ir.Expr)
	walkExpr = func(e ir.Expr) {
		if found {
			return
		}
		switch n := e.(type) {
		case *ir.FunctionCall:
			if n.Function == fn {
				found = true
				return
			}
			for _, a := range n.Arguments {
				walkExpr(a)
			}
		case *ir.ArrayLiteral:
			for _, el := range n.Elements {
				walkExpr(el)
			}
		case *ir.TupleLiteral:
			for _, el := range n.Elements {
				walkExpr(el)
			}
		case *ir.StructLiteral:
			for _, f := range n.Fields {
				walkExpr(f)
			}
		case *ir.EnumLiteral:
			walkExpr(n.Payload)
		case *ir.BinaryExpression:
			walkExpr(n.Left)
			walkExpr(n.Right)
		case *ir.If:
			walkExpr(n.Condition)
			walk(n.Then)
			walk(n.Else)
		case *ir.Switch:
			walkExpr(n.Scrutinee)
			for _, c := range n.Cases {
				walk(c.Body)
			}
		case *ir.TupleAccess:
			walkExpr(n.Tuple)
		case *ir.StructAccess:
			walkExpr(n.Struct)
		case *ir.Intrinsic:
			for _, a := range n.Arguments {
				walkExpr(a)
			}
		case *ir.Bind:
			walkExpr(n.Left)
			walkExpr(n.Right)
		case *ir.Return:
			walkExpr(n.Value)
		}
	}
	walk = func(b *ir.Block) {
		for _, e := range b.Exprs {
			walkExpr(e)
		}
	}
	walk(fn.Entry)
	return found
}

func (p *pass) countCalls(b *ir.Block, counts map[*ir.Function]int) {
	for _, e := range b.Exprs {
		p.countCallsExpr(e, counts)
	}
}

func (p *pass) countCallsExpr(e ir.Expr, counts map[*ir.Function]int) {
	switch n := e.(type) {
	case *ir.FunctionCall:
		counts[n.Function]++
		for _, a := range n.Arguments {
			p.countCallsExpr(a, counts)
		}
	case *ir.ArrayLiteral:
		for _, el := range n.Elements {
			p.countCallsExpr(el, counts)
		}
	case *ir.TupleLiteral:
		for _, el := range n.Elements {
			p.countCallsExpr(el, counts)
		}
	case *ir.StructLiteral:
		for _, f := range n.Fields {
			p.countCallsExpr(f, counts)
		}
	case *ir.EnumLiteral:
		p.countCallsExpr(n.Payload, counts)
	case *ir.BinaryExpression:
		p.countCallsExpr(n.Left, counts)
		p.countCallsExpr(n.Right, counts)
	case *ir.If:
		p.countCallsExpr(n.Condition, counts)
		p.countCalls(n.Then, counts)
		p.countCalls(n.Else, counts)
	case *ir.Switch:
		p.countCallsExpr(n.Scrutinee, counts)
		for _, c := range n.Cases {
			p.countCalls(c.Body, counts)
		}
	case *ir.TupleAccess:
		p.countCallsExpr(n.Tuple, counts)
	case *ir.StructAccess:
		p.countCallsExpr(n.Struct, counts)
	case *ir.Intrinsic:
		for _, a := range n.Arguments {
			p.countCallsExpr(a, counts)
		}
	case *ir.Bind:
		p.countCallsExpr(n.Left, counts)
		p.countCallsExpr(n.Right, counts)
	case *ir.Return:
		p.countCallsExpr(n.Value, counts)
	}
}

func (p *pass) eligible(fn *ir.Function) bool {
	if fn.IsMain || p.selfCalling[fn] {
		return false
	}
	if p.callerCount[fn] == 1 {
		return true
	}
	return len(fn.Entry.Exprs) <= p.threshold
}

// inlineBlock rebuilds b, splicing the substituted body of an eligible
// callee directly into the statement list wherever a call appears in
// statement position. A Bind in statement position is split into its
// Left and Right sides, each handled as a statement of its own, so a
// call on either side of such a Bind is in statement position too. A
// call nested inside any other expression (e.g. an argument to another
// call) is rebuilt but never inlined — that would require hoisting it
// out as a fresh statement, which this pass does not do.
func (p *pass) inlineBlock(b *ir.Block) (*ir.Block, error) {
	out := ir.NewBlock()
	for _, e := range b.Exprs {
		pending := []ir.Expr{e}
		for len(pending) > 0 {
			s := pending[0]
			pending = pending[1:]
			if bind, ok := s.(*ir.Bind); ok {
				pending = append([]ir.Expr{bind.Left, bind.Right}, pending...)
				continue
			}
			if call, ok := s.(*ir.FunctionCall); ok {
				stmts, err := p.inlineStatement(call)
				if err != nil {
					return nil, err
				}
				out.Exprs = append(out.Exprs, stmts...)
				continue
			}
			ne, err := p.inlineExpr(s)
			if err != nil {
				return nil, err
			}
			out.Append(ne)
		}
	}
	return out, nil
}

// inlineStatement returns the statements that should replace a
// statement-position call to an eligible callee — the callee's own body
// with every Argument(i) substituted by the actual (already-inlined)
// argument expression, per spec — or a single rebuilt call when the
// callee is not inlined here.
func (p *pass) inlineStatement(n *ir.FunctionCall) ([]ir.Expr, error) {
	args, err := p.inlineExprs(n.Arguments)
	if err != nil {
		return nil, err
	}
	callee := n.Function
	if !p.eligible(callee) || p.expanding[callee] {
		return []ir.Expr{ir.NewFunctionCall(n.Pos(), callee, args)}, nil
	}

	p.expanding[callee] = true
	defer delete(p.expanding, callee)

	substituted := p.substituteArguments(callee.Entry, args)
	body, err := p.inlineBlock(substituted)
	if err != nil {
		return nil, err
	}
	return body.Exprs, nil
}

func (p *pass) inlineExprs(in []ir.Expr) ([]ir.Expr, error) {
	out := make([]ir.Expr, len(in))
	for i, e := range in {
		ne, err := p.inlineExpr(e)
		if err != nil {
			return nil, err
		}
		out[i] = ne
	}
	return out, nil
}

func (p *pass) inlineExpr(e ir.Expr) (ir.Expr, error) {
	switch n := e.(type) {
	case *ir.ArrayLiteral:
		elems, err := p.inlineExprs(n.Elements)
		if err != nil {
			return nil, err
		}
		return ir.NewArrayLiteral(p.interner, n.Pos(), n.Type().(*types.ArrayType).Element, elems), nil
	case *ir.TupleLiteral:
		elems, err := p.inlineExprs(n.Elements)
		if err != nil {
			return nil, err
		}
		return ir.NewTupleLiteral(p.interner, n.Pos(), elems), nil
	case *ir.StructLiteral:
		fields, err := p.inlineExprs(n.Fields)
		if err != nil {
			return nil, err
		}
		return ir.NewStructLiteral(n.Pos(), n.Type().(*types.StructType), fields), nil
	case *ir.EnumLiteral:
		payload, err := p.inlineExpr(n.Payload)
		if err != nil {
			return nil, err
		}
		return ir.NewEnumLiteral(n.Pos(), n.Type().(*types.EnumType), n.CaseIndex, payload), nil
	case *ir.BinaryExpression:
		left, err := p.inlineExpr(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := p.inlineExpr(n.Right)
		if err != nil {
			return nil, err
		}
		return ir.NewBinaryExpression(p.interner, n.Pos(), n.Op, left, right), nil
	case *ir.If:
		cond, err := p.inlineExpr(n.Condition)
		if err != nil {
			return nil, err
		}
		thenB, err := p.inlineBlock(n.Then)
		if err != nil {
			return nil, err
		}
		elseB, err := p.inlineBlock(n.Else)
		if err != nil {
			return nil, err
		}
		return ir.NewIf(n.Pos(), n.Type(), cond, thenB, elseB), nil
	case *ir.Switch:
		scrutinee, err := p.inlineExpr(n.Scrutinee)
		if err != nil {
			return nil, err
		}
		cases := make([]ir.SwitchCase, len(n.Cases))
		for i, c := range n.Cases {
			body, err := p.inlineBlock(c.Body)
			if err != nil {
				return nil, err
			}
			cases[i] = ir.SwitchCase{CaseName: c.CaseName, Variable: c.Variable, Body: body}
		}
		return ir.NewSwitch(n.Pos(), n.Type(), scrutinee, cases), nil
	case *ir.TupleAccess:
		tuple, err := p.inlineExpr(n.Tuple)
		if err != nil {
			return nil, err
		}
		return ir.NewTupleAccess(n.Pos(), n.Type(), tuple, n.Index), nil
	case *ir.StructAccess:
		structExpr, err := p.inlineExpr(n.Struct)
		if err != nil {
			return nil, err
		}
		return ir.NewStructAccess(n.Pos(), n.Type(), structExpr, n.FieldIndex, n.FieldName), nil
	case *ir.Intrinsic:
		args, err := p.inlineExprs(n.Arguments)
		if err != nil {
			return nil, err
		}
		return ir.NewIntrinsic(n.Pos(), n.Type(), n.Name, args), nil
	case *ir.Bind:
		left, err := p.inlineExpr(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := p.inlineExpr(n.Right)
		if err != nil {
			return nil, err
		}
		return ir.NewBind(n.Pos(), left, right), nil
	case *ir.Return:
		val, err := p.inlineExpr(n.Value)
		if err != nil {
			return nil, err
		}
		return ir.NewReturn(p.interner, n.Pos(), val), nil
	case *ir.FunctionCall:
		// Nested (non-statement-position) call: rebuild but do not
		// inline, to avoid hoisting statements out of an expression
		// context.
		args, err := p.inlineExprs(n.Arguments)
		if err != nil {
			return nil, err
		}
		return ir.NewFunctionCall(n.Pos(), n.Function, args), nil
	default:
		return n, nil
	}
}

// substituteArguments rewrites a callee body for inlining: every
// Argument(i) reference is replaced by args[i] itself, per spec §4.5
// ("Argument(i) references are substituted with the actual argument
// expressions"). args[i] is shared by pointer at every substitution
// site rather than re-evaluated, the same cross-reference model every
// other pass relies on.
func (p *pass) substituteArguments(b *ir.Block, args []ir.Expr) *ir.Block {
	out := ir.NewBlock()
	for _, e := range b.Exprs {
		out.Append(p.substituteExpr(e, args))
	}
	return out
}

func (p *pass) substituteExpr(e ir.Expr, args []ir.Expr) ir.Expr {
	switch n := e.(type) {
	case *ir.IntLiteral, *ir.VoidLiteral, *ir.StringLiteral, *ir.TypeLiteral, *ir.CaseVariable:
		return n
	case *ir.Argument:
		return args[n.Index]
	case *ir.ArrayLiteral:
		elems := p.substituteAll(n.Elements, args)
		return ir.NewArrayLiteral(p.interner, n.Pos(), n.Type().(*types.ArrayType).Element, elems)
	case *ir.TupleLiteral:
		elems := p.substituteAll(n.Elements, args)
		return ir.NewTupleLiteral(p.interner, n.Pos(), elems)
	case *ir.StructLiteral:
		fields := p.substituteAll(n.Fields, args)
		return ir.NewStructLiteral(n.Pos(), n.Type().(*types.StructType), fields)
	case *ir.EnumLiteral:
		return ir.NewEnumLiteral(n.Pos(), n.Type().(*types.EnumType), n.CaseIndex, p.substituteExpr(n.Payload, args))
	case *ir.BinaryExpression:
		return ir.NewBinaryExpression(p.interner, n.Pos(), n.Op, p.substituteExpr(n.Left, args), p.substituteExpr(n.Right, args))
	case *ir.If:
		return ir.NewIf(n.Pos(), n.Type(), p.substituteExpr(n.Condition, args), p.substituteArguments(n.Then, args), p.substituteArguments(n.Else, args))
	case *ir.Switch:
		scrutinee := p.substituteExpr(n.Scrutinee, args)
		cases := make([]ir.SwitchCase, len(n.Cases))
		for i, c := range n.Cases {
			cases[i] = ir.SwitchCase{CaseName: c.CaseName, Variable: c.Variable, Body: p.substituteArguments(c.Body, args)}
		}
		return ir.NewSwitch(n.Pos(), n.Type(), scrutinee, cases)
	case *ir.TupleAccess:
		return ir.NewTupleAccess(n.Pos(), n.Type(), p.substituteExpr(n.Tuple, args), n.Index)
	case *ir.StructAccess:
		return ir.NewStructAccess(n.Pos(), n.Type(), p.substituteExpr(n.Struct, args), n.FieldIndex, n.FieldName)
	case *ir.FunctionCall:
		return ir.NewFunctionCall(n.Pos(), n.Function, p.substituteAll(n.Arguments, args))
	case *ir.Intrinsic:
		return ir.NewIntrinsic(n.Pos(), n.Type(), n.Name, p.substituteAll(n.Arguments, args))
	case *ir.Bind:
		return ir.NewBind(n.Pos(), p.substituteExpr(n.Left, args), p.substituteExpr(n.Right, args))
	case *ir.Return:
		return ir.NewReturn(p.interner, n.Pos(), p.substituteExpr(n.Value, args))
	default:
		return e
	}
}

func (p *pass) substituteAll(es []ir.Expr, args []ir.Expr) []ir.Expr {
	out := make([]ir.Expr, len(es))
	for i, e := range es {
		out[i] = p.substituteExpr(e, args)
	}
	return out
}
