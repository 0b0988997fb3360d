// Package memory implements Pass M: it inserts the copy/free intrinsics
// that make every managed value's lifetime explicit. A managed value
// (anything but Int, Void, or a type value) is copied at every use that is not its last,
// and freed immediately after its last use — unless that use is the
// value the enclosing block or a Return hands to its caller, in which
// case ownership simply transfers outward and no free is inserted.
//
// The analysis is a single forward walk recording, for every expression
// node's identity, the sequence number of its last reference — reuse of
// the exact same *Expr object at more than one position in a function is
// how this DAG-shaped IR expresses "compute once, read many times" (see
// Block's doc comment in package ir), so node identity rather than any
// named-slot scheme is what this pass tracks. Argument is the one
// exception: a given argument index may be rebuilt as a fresh node at
// each syntactic reference, so its uses are tallied by index instead. A
// second walk in the same order rewrites the program using that table.
// There is no branch reconciliation for either If or Switch: no free is
// spliced into an arm or case body that does not use a value defined in
// an enclosing block. Frees are only ever inserted between the
// top-level statements of the block that defined the value.
package memory

import (
	"github.com/kestrelsoft/corec/internal/ir"
	"github.com/kestrelsoft/corec/internal/types"
)

// info tracks the liveness table built by the first walk.
type info struct {
	lastUseSeq    map[ir.Expr]int
	lastArgUseSeq map[int]int
}

type pass struct {
	interner *types.Interner
	seq      int
}

// Run executes Pass M over src.
func Run(src *ir.Program) (*ir.Program, error) {
	p := &pass{interner: src.Interner}
	dst := ir.New(src.Interner)
	for _, fn := range src.Functions {
		nf := &ir.Function{Name: fn.Name, ArgumentTypes: fn.ArgumentTypes, ReturnType: fn.ReturnType, IsMain: fn.IsMain}

		p.seq = 0
		st := &info{lastUseSeq: map[ir.Expr]int{}, lastArgUseSeq: map[int]int{}}
		p.analyzeBlock(fn.Entry, st)

		p.seq = 0
		rw := &rewriter{pass: p, info: st, rewritten: map[ir.Expr]ir.Expr{}, freed: map[ir.Expr]bool{}}
		nf.Entry = rw.rewriteBlock(fn.Entry)
		dst.Functions = append(dst.Functions, nf)
	}
	return dst, nil
}

func managed(t types.Type) bool {
	switch t.Kind() {
	case types.KindInt, types.KindVoid, types.KindTypeOfType:
		return false
	default:
		return true
	}
}

// analyzeBlock walks b, and every nested block reachable through it (an
// If's arms, a Switch case's body), recording the sequence number of
// each managed expression node's last reference.
func (p *pass) analyzeBlock(b *ir.Block, st *info) {
	for _, e := range b.Exprs {
		p.analyzeExpr(e, st)
	}
}

func (p *pass) analyzeExpr(e ir.Expr, st *info) {
	p.seq++
	if arg, ok := e.(*ir.Argument); ok {
		st.lastArgUseSeq[arg.Index] = p.seq
		return
	}
	if managed(e.Type()) {
		_, seen := st.lastUseSeq[e]
		st.lastUseSeq[e] = p.seq
		if seen {
			// A later reference to an already-visited managed node does
			// not re-walk its children, matching rewriteExpr's reuse of
			// the cached rebuild, so both walks number positions alike.
			return
		}
	}
	switch n := e.(type) {
	case *ir.ArrayLiteral:
		for _, el := range n.Elements {
			p.analyzeExpr(el, st)
		}
	case *ir.TupleLiteral:
		for _, el := range n.Elements {
			p.analyzeExpr(el, st)
		}
	case *ir.StructLiteral:
		for _, f := range n.Fields {
			p.analyzeExpr(f, st)
		}
	case *ir.EnumLiteral:
		p.analyzeExpr(n.Payload, st)
	case *ir.BinaryExpression:
		p.analyzeExpr(n.Left, st)
		p.analyzeExpr(n.Right, st)
	case *ir.If:
		p.analyzeExpr(n.Condition, st)
		p.analyzeBlock(n.Then, st)
		p.analyzeBlock(n.Else, st)
	case *ir.Switch:
		p.analyzeExpr(n.Scrutinee, st)
		for _, c := range n.Cases {
			p.analyzeBlock(c.Body, st)
		}
	case *ir.TupleAccess:
		p.analyzeExpr(n.Tuple, st)
	case *ir.StructAccess:
		p.analyzeExpr(n.Struct, st)
	case *ir.FunctionCall:
		for _, a := range n.Arguments {
			p.analyzeExpr(a, st)
		}
	case *ir.Intrinsic:
		for _, a := range n.Arguments {
			p.analyzeExpr(a, st)
		}
	case *ir.Bind:
		p.analyzeExpr(n.Left, st)
		p.analyzeExpr(n.Right, st)
	case *ir.Return:
		p.analyzeExpr(n.Value, st)
	}
}

type rewriter struct {
	pass *pass
	info *info

	// rewritten memoizes the rebuilt form of every managed node already
	// visited once, by the original node's identity, so a second visit
	// (the node reused at another position) returns the same rebuilt
	// object instead of rebuilding — and therefore re-evaluating — it.
	rewritten map[ir.Expr]ir.Expr
	freed     map[ir.Expr]bool
}

// rewriteBlock re-walks b in the same order as analyzeBlock, producing a
// new block with copy/free intrinsics spliced in. After every statement
// but the block's last, it frees every managed value b itself defined
// (as one of its own top-level statements) whose last reference has now
// been passed — whether that value was read again later or never read
// at all, it is freed right where it was defined if unused. The block's
// final statement is never followed by a free: its value is the block's
// result and ownership passes to whatever consumes it (the enclosing
// function's caller, an If/Switch arm's join point, or an outer Bind).
func (rw *rewriter) rewriteBlock(b *ir.Block) *ir.Block {
	out := ir.NewBlock()
	var pending []ir.Expr
	defined := map[ir.Expr]bool{}
	for i, e := range b.Exprs {
		isLast := i == len(b.Exprs)-1
		rewritten := rw.rewriteExpr(e)
		out.Append(rewritten)
		if managed(e.Type()) && !defined[e] {
			defined[e] = true
			pending = append(pending, e)
		}

		if isLast {
			continue
		}
		after := rw.pass.seq
		var stillPending []ir.Expr
		for _, orig := range pending {
			if rw.freed[orig] {
				continue
			}
			if rw.info.lastUseSeq[orig] <= after {
				out.Append(ir.NewFree(rw.pass.interner, e.Pos(), rw.rewritten[orig]))
				rw.freed[orig] = true
				continue
			}
			stillPending = append(stillPending, orig)
		}
		pending = stillPending
	}
	return out
}

// rewriteExpr rebuilds e. The first visit to a managed node rebuilds its
// children (recording the rebuilt result under e's identity); every
// later visit to the same e — a second reference sharing the same
// object — is wrapped in a copy unless this is e's last reference, in
// which case the single stored value transfers directly.
func (rw *rewriter) rewriteExpr(e ir.Expr) ir.Expr {
	rw.pass.seq++
	if arg, ok := e.(*ir.Argument); ok {
		isLast := rw.info.lastArgUseSeq[arg.Index] == rw.pass.seq
		if managed(arg.Type()) && !isLast {
			return ir.NewCopy(arg.Pos(), arg)
		}
		return arg
	}
	isManaged := managed(e.Type())
	if isManaged {
		if cached, ok := rw.rewritten[e]; ok {
			isLast := rw.info.lastUseSeq[e] == rw.pass.seq
			if !isLast {
				return ir.NewCopy(e.Pos(), cached)
			}
			return cached
		}
	}

	var result ir.Expr
	switch n := e.(type) {
	case *ir.ArrayLiteral:
		elems := make([]ir.Expr, len(n.Elements))
		for i, el := range n.Elements {
			elems[i] = rw.rewriteExpr(el)
		}
		result = ir.NewArrayLiteral(rw.pass.interner, n.Pos(), n.Type().(*types.ArrayType).Element, elems)
	case *ir.TupleLiteral:
		elems := make([]ir.Expr, len(n.Elements))
		for i, el := range n.Elements {
			elems[i] = rw.rewriteExpr(el)
		}
		result = ir.NewTupleLiteral(rw.pass.interner, n.Pos(), elems)
	case *ir.StructLiteral:
		fields := make([]ir.Expr, len(n.Fields))
		for i, f := range n.Fields {
			fields[i] = rw.rewriteExpr(f)
		}
		result = ir.NewStructLiteral(n.Pos(), n.Type().(*types.StructType), fields)
	case *ir.EnumLiteral:
		payload := rw.rewriteExpr(n.Payload)
		result = ir.NewEnumLiteral(n.Pos(), n.Type().(*types.EnumType), n.CaseIndex, payload)
	case *ir.BinaryExpression:
		left := rw.rewriteExpr(n.Left)
		right := rw.rewriteExpr(n.Right)
		result = ir.NewBinaryExpression(rw.pass.interner, n.Pos(), n.Op, left, right)
	case *ir.If:
		cond := rw.rewriteExpr(n.Condition)
		thenB := rw.rewriteBlock(n.Then)
		elseB := rw.rewriteBlock(n.Else)
		result = ir.NewIf(n.Pos(), n.Type(), cond, thenB, elseB)
	case *ir.Switch:
		scrutinee := rw.rewriteExpr(n.Scrutinee)
		cases := make([]ir.SwitchCase, len(n.Cases))
		for i, c := range n.Cases {
			body := rw.rewriteBlock(c.Body)
			cases[i] = ir.SwitchCase{CaseName: c.CaseName, Variable: c.Variable, Body: body}
		}
		result = ir.NewSwitch(n.Pos(), n.Type(), scrutinee, cases)
	case *ir.TupleAccess:
		tuple := rw.rewriteExpr(n.Tuple)
		result = ir.NewTupleAccess(n.Pos(), n.Type(), tuple, n.Index)
	case *ir.StructAccess:
		structExpr := rw.rewriteExpr(n.Struct)
		result = ir.NewStructAccess(n.Pos(), n.Type(), structExpr, n.FieldIndex, n.FieldName)
	case *ir.FunctionCall:
		args := make([]ir.Expr, len(n.Arguments))
		for i, a := range n.Arguments {
			args[i] = rw.rewriteExpr(a)
		}
		result = ir.NewFunctionCall(n.Pos(), n.Function, args)
	case *ir.Intrinsic:
		args := make([]ir.Expr, len(n.Arguments))
		for i, a := range n.Arguments {
			args[i] = rw.rewriteExpr(a)
		}
		result = ir.NewIntrinsic(n.Pos(), n.Type(), n.Name, args)
	case *ir.Bind:
		left := rw.rewriteExpr(n.Left)
		right := rw.rewriteExpr(n.Right)
		result = ir.NewBind(n.Pos(), left, right)
	case *ir.Return:
		result = ir.NewReturn(rw.pass.interner, n.Pos(), rw.rewriteExpr(n.Value))
	default:
		result = e
	}

	if isManaged {
		rw.rewritten[e] = result
	}
	return result
}
