// Package closure implements Pass L: it erases every Closure value into
// a tagged environment (an Enum whose cases are the distinct closure
// literal sites sharing a signature, each case's payload the tuple of
// that site's captured values) and every dynamic ClosureCall into a
// direct call of a synthesized dispatcher function that switches on the
// tag. After this pass no Closure, ClosureAccess, or ClosureCall node,
// and no ClosureType, survives anywhere in the program.
package closure

import (
	"fmt"

	"github.com/kestrelsoft/corec/internal/corecerr"
	"github.com/kestrelsoft/corec/internal/ir"
	"github.com/kestrelsoft/corec/internal/types"
)

type site struct {
	capturedTypes []types.Type
	target        *ir.Function
}

type closureInfo struct {
	enum  *types.EnumType
	sites []*site
	index map[*ir.Closure]int // node -> case index, filled during discovery
}

type pass struct {
	interner *types.Interner

	byClosureType map[*types.ClosureType]*closureInfo
	typeMemo      map[types.Type]types.Type
	funcMemo      map[*ir.Function]*ir.Function
	dispatchers   map[*types.ClosureType]*ir.Function
}

// Run executes Pass L over src.
func Run(src *ir.Program) (*ir.Program, error) {
	p := &pass{
		interner:      src.Interner,
		byClosureType: make(map[*types.ClosureType]*closureInfo),
		typeMemo:      make(map[types.Type]types.Type),
		funcMemo:      make(map[*ir.Function]*ir.Function),
		dispatchers:   make(map[*types.ClosureType]*ir.Function),
	}

	p.discover(src)
	p.buildDispatchers()

	dst := ir.New(src.Interner)
	for _, fn := range src.Functions {
		dst.Functions = append(dst.Functions, p.registerFunction(fn))
	}
	for _, fn := range src.Functions {
		newFn := p.funcMemo[fn]
		body, err := p.transformBlock(fn.Entry)
		if err != nil {
			return nil, err
		}
		newFn.Entry = body
	}
	for ct, fn := range p.dispatchers {
		body, err := p.buildDispatchBody(ct)
		if err != nil {
			return nil, err
		}
		fn.Entry = body
		dst.Functions = append(dst.Functions, fn)
	}
	return dst, nil
}

// discover walks the whole program read-only, recording every Closure
// literal site grouped by its ClosureType.
func (p *pass) discover(prog *ir.Program) {
	for _, fn := range prog.Functions {
		p.discoverBlock(fn.Entry)
	}
}

func (p *pass) discoverBlock(b *ir.Block) {
	for _, e := range b.Exprs {
		p.discoverExpr(e)
	}
}

func (p *pass) discoverExpr(e ir.Expr) {
	switch n := e.(type) {
	case *ir.Closure:
		ct := n.Type().(*types.ClosureType)
		info := p.byClosureType[ct]
		if info == nil {
			info = &closureInfo{enum: p.interner.NewEnum(fmt.Sprintf("Closure#%p", ct)), index: make(map[*ir.Closure]int)}
			p.byClosureType[ct] = info
		}
		capturedTypes := make([]types.Type, len(n.CapturedArgs))
		for i, c := range n.CapturedArgs {
			capturedTypes[i] = c.Type()
		}
		info.index[n] = len(info.sites)
		info.sites = append(info.sites, &site{capturedTypes: capturedTypes, target: n.Function})
		for _, c := range n.CapturedArgs {
			p.discoverExpr(c)
		}
		p.discoverBlock(n.Function.Entry)

	case *ir.ArrayLiteral:
		for _, el := range n.Elements {
			p.discoverExpr(el)
		}
	case *ir.TupleLiteral:
		for _, el := range n.Elements {
			p.discoverExpr(el)
		}
	case *ir.StructLiteral:
		for _, f := range n.Fields {
			p.discoverExpr(f)
		}
	case *ir.EnumLiteral:
		p.discoverExpr(n.Payload)
	case *ir.BinaryExpression:
		p.discoverExpr(n.Left)
		p.discoverExpr(n.Right)
	case *ir.If:
		p.discoverExpr(n.Condition)
		p.discoverBlock(n.Then)
		p.discoverBlock(n.Else)
	case *ir.Switch:
		p.discoverExpr(n.Scrutinee)
		for _, c := range n.Cases {
			p.discoverBlock(c.Body)
		}
	case *ir.TupleAccess:
		p.discoverExpr(n.Tuple)
	case *ir.StructAccess:
		p.discoverExpr(n.Struct)
	case *ir.ClosureAccess:
		p.discoverExpr(n.Closure)
	case *ir.FunctionCall:
		for _, a := range n.Arguments {
			p.discoverExpr(a)
		}
	case *ir.ClosureCall:
		p.discoverExpr(n.Closure)
		for _, a := range n.Arguments {
			p.discoverExpr(a)
		}
	case *ir.Intrinsic:
		for _, a := range n.Arguments {
			p.discoverExpr(a)
		}
	case *ir.Bind:
		p.discoverExpr(n.Left)
		p.discoverExpr(n.Right)
	case *ir.Return:
		p.discoverExpr(n.Value)
	}
}

func (p *pass) buildDispatchers() {
	for ct, info := range p.byClosureType {
		cases := make([]types.EnumCase, len(info.sites))
		for i, s := range info.sites {
			payload := envPayloadType(p.interner, s.capturedTypes)
			cases[i] = types.EnumCase{Name: fmt.Sprintf("case%d", i), Payload: payload}
		}
		info.enum.SetCases(cases)

		params := make([]types.Type, len(ct.Params))
		for i, t := range ct.Params {
			params[i] = p.transformType(t)
		}
		argTypes := append([]types.Type{info.enum}, params...)
		fn := &ir.Function{
			Name:          fmt.Sprintf("closure$dispatch$%p", ct),
			ArgumentTypes: argTypes,
			ReturnType:    p.transformType(ct.Result),
		}
		p.dispatchers[ct] = fn
	}
}

func envPayloadType(interner *types.Interner, capturedTypes []types.Type) types.Type {
	if len(capturedTypes) == 0 {
		return interner.Void()
	}
	return interner.Tuple(capturedTypes)
}

func (p *pass) buildDispatchBody(ct *types.ClosureType) (*ir.Block, error) {
	info := p.byClosureType[ct]
	fn := p.dispatchers[ct]
	nparams := len(ct.Params)

	cases := make([]ir.SwitchCase, len(info.sites))
	for i, s := range info.sites {
		target := p.registerFunction(s.target)
		var variable *ir.CaseVariable
		var unpacked []ir.Expr
		if len(s.capturedTypes) > 0 {
			payload := info.enum.Cases[i].Payload
			variable = ir.NewCaseVariable(ir.Position{}, payload)
			for j := range s.capturedTypes {
				unpacked = append(unpacked, ir.NewTupleAccess(ir.Position{}, p.transformType(s.capturedTypes[j]), variable, j))
			}
		}
		args := append(append([]ir.Expr(nil), unpacked...), dispatchParamArgs(fn, nparams)...)
		body := ir.NewBlock()
		body.Append(ir.NewFunctionCall(ir.Position{}, target, args))
		cases[i] = ir.SwitchCase{CaseName: info.enum.Cases[i].Name, Variable: variable, Body: body}
	}
	scrutinee := ir.NewArgument(ir.Position{}, fn.ArgumentTypes[0], 0)
	sw := ir.NewSwitch(ir.Position{}, fn.ReturnType, scrutinee, cases)
	block := ir.NewBlock()
	block.Append(sw)
	return block, nil
}

func dispatchParamArgs(fn *ir.Function, nparams int) []ir.Expr {
	args := make([]ir.Expr, nparams)
	for i := 0; i < nparams; i++ {
		args[i] = ir.NewArgument(ir.Position{}, fn.ArgumentTypes[i+1], i+1)
	}
	return args
}

func (p *pass) registerFunction(fn *ir.Function) *ir.Function {
	if nf, ok := p.funcMemo[fn]; ok {
		return nf
	}
	argTypes := make([]types.Type, len(fn.ArgumentTypes))
	for i, t := range fn.ArgumentTypes {
		argTypes[i] = p.transformType(t)
	}
	nf := &ir.Function{
		Name:          fn.Name,
		ArgumentTypes: argTypes,
		ReturnType:    p.transformType(fn.ReturnType),
		IsMain:        fn.IsMain,
	}
	p.funcMemo[fn] = nf
	return nf
}

func (p *pass) transformType(t types.Type) types.Type {
	if nt, ok := p.typeMemo[t]; ok {
		return nt
	}
	switch k := t.(type) {
	case *types.IntType, *types.VoidType, *types.StringType, *types.StringIteratorType:
		p.typeMemo[t] = t
		return t
	case *types.ArrayType:
		elem := p.transformType(k.Element)
		nt := p.interner.Array(elem)
		p.typeMemo[t] = nt
		return nt
	case *types.TupleType:
		elems := make([]types.Type, len(k.Elements))
		for i, e := range k.Elements {
			elems[i] = p.transformType(e)
		}
		nt := p.interner.Tuple(elems)
		p.typeMemo[t] = nt
		return nt
	case *types.ClosureType:
		info := p.byClosureType[k]
		if info == nil {
			// No literal of this closure type exists anywhere: the type
			// is uninhabited after lowering. Model it as an empty enum.
			e := p.interner.NewEnum(fmt.Sprintf("Closure#%p", k))
			e.SetCases(nil)
			p.typeMemo[t] = e
			return e
		}
		p.typeMemo[t] = info.enum
		return info.enum
	case *types.ReferenceType:
		inner := p.transformType(k.Inner)
		nt := p.interner.Reference(inner)
		p.typeMemo[t] = nt
		return nt
	case *types.TypeOfTypeType:
		inner := p.transformType(k.Inner)
		nt := p.interner.TypeOfType(inner)
		p.typeMemo[t] = nt
		return nt
	case *types.StructType:
		nt := p.interner.NewStruct(k.Name)
		p.typeMemo[t] = nt
		fields := make([]types.StructField, len(k.Fields))
		for i, f := range k.Fields {
			fields[i] = types.StructField{Name: f.Name, Type: p.transformType(f.Type)}
		}
		nt.SetFields(fields)
		return nt
	case *types.EnumType:
		nt := p.interner.NewEnum(k.Name)
		p.typeMemo[t] = nt
		cases := make([]types.EnumCase, len(k.Cases))
		for i, c := range k.Cases {
			cases[i] = types.EnumCase{Name: c.Name, Payload: p.transformType(c.Payload)}
		}
		nt.SetCases(cases)
		return nt
	default:
		return t
	}
}

func (p *pass) transformBlock(b *ir.Block) (*ir.Block, error) {
	out := ir.NewBlock()
	for _, e := range b.Exprs {
		ne, err := p.transformExpr(e)
		if err != nil {
			return nil, err
		}
		out.Append(ne)
	}
	return out, nil
}

func (p *pass) transformExprs(in []ir.Expr) ([]ir.Expr, error) {
	out := make([]ir.Expr, len(in))
	for i, e := range in {
		ne, err := p.transformExpr(e)
		if err != nil {
			return nil, err
		}
		out[i] = ne
	}
	return out, nil
}

func (p *pass) transformExpr(e ir.Expr) (ir.Expr, error) {
	switch n := e.(type) {
	case *ir.IntLiteral:
		return n, nil
	case *ir.VoidLiteral:
		return n, nil
	case *ir.StringLiteral:
		return n, nil
	case *ir.TypeLiteral:
		return n, nil
	case *ir.Argument:
		return ir.NewArgument(n.Pos(), p.transformType(n.Type()), n.Index), nil
	case *ir.CaseVariable:
		return ir.NewCaseVariable(n.Pos(), p.transformType(n.Type())), nil

	case *ir.ArrayLiteral:
		elems, err := p.transformExprs(n.Elements)
		if err != nil {
			return nil, err
		}
		elemType := p.transformType(n.Type().(*types.ArrayType).Element)
		return ir.NewArrayLiteral(p.interner, n.Pos(), elemType, elems), nil

	case *ir.TupleLiteral:
		elems, err := p.transformExprs(n.Elements)
		if err != nil {
			return nil, err
		}
		return ir.NewTupleLiteral(p.interner, n.Pos(), elems), nil

	case *ir.StructLiteral:
		fields, err := p.transformExprs(n.Fields)
		if err != nil {
			return nil, err
		}
		st := p.transformType(n.Type()).(*types.StructType)
		return ir.NewStructLiteral(n.Pos(), st, fields), nil

	case *ir.EnumLiteral:
		payload, err := p.transformExpr(n.Payload)
		if err != nil {
			return nil, err
		}
		et := p.transformType(n.Type()).(*types.EnumType)
		return ir.NewEnumLiteral(n.Pos(), et, n.CaseIndex, payload), nil

	case *ir.BinaryExpression:
		left, err := p.transformExpr(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := p.transformExpr(n.Right)
		if err != nil {
			return nil, err
		}
		return ir.NewBinaryExpression(p.interner, n.Pos(), n.Op, left, right), nil

	case *ir.If:
		cond, err := p.transformExpr(n.Condition)
		if err != nil {
			return nil, err
		}
		thenB, err := p.transformBlock(n.Then)
		if err != nil {
			return nil, err
		}
		elseB, err := p.transformBlock(n.Else)
		if err != nil {
			return nil, err
		}
		return ir.NewIf(n.Pos(), p.transformType(n.Type()), cond, thenB, elseB), nil

	case *ir.Switch:
		scrutinee, err := p.transformExpr(n.Scrutinee)
		if err != nil {
			return nil, err
		}
		cases := make([]ir.SwitchCase, len(n.Cases))
		for i, c := range n.Cases {
			body, err := p.transformBlock(c.Body)
			if err != nil {
				return nil, err
			}
			var variable *ir.CaseVariable
			if c.Variable != nil {
				variable = ir.NewCaseVariable(c.Variable.Pos(), p.transformType(c.Variable.Type()))
			}
			cases[i] = ir.SwitchCase{CaseName: c.CaseName, Variable: variable, Body: body}
		}
		return ir.NewSwitch(n.Pos(), p.transformType(n.Type()), scrutinee, cases), nil

	case *ir.TupleAccess:
		tuple, err := p.transformExpr(n.Tuple)
		if err != nil {
			return nil, err
		}
		return ir.NewTupleAccess(n.Pos(), p.transformType(n.Type()), tuple, n.Index), nil

	case *ir.StructAccess:
		structExpr, err := p.transformExpr(n.Struct)
		if err != nil {
			return nil, err
		}
		return ir.NewStructAccess(n.Pos(), p.transformType(n.Type()), structExpr, n.FieldIndex, n.FieldName), nil

	case *ir.Closure:
		return p.lowerClosureLiteral(n)

	case *ir.ClosureAccess:
		// Only a literal closure can be inspected this way. Pass T passes
		// ClosureAccess nodes through unchanged, so one over any other
		// closure value reaches this pass and is reported as unsupported.
		if lit, ok := n.Closure.(*ir.Closure); ok {
			if n.Index < 0 || n.Index >= len(lit.CapturedArgs) {
				return nil, corecerr.New(corecerr.MetaError, n.Pos(), "closure access index out of range")
			}
			return p.transformExpr(lit.CapturedArgs[n.Index])
		}
		return nil, corecerr.New(corecerr.MetaError, n.Pos(), "closure access on a non-literal closure value is unsupported")

	case *ir.FunctionCall:
		args, err := p.transformExprs(n.Arguments)
		if err != nil {
			return nil, err
		}
		fn := p.registerFunction(n.Function)
		return ir.NewFunctionCall(n.Pos(), fn, args), nil

	case *ir.ClosureCall:
		closureExpr, err := p.transformExpr(n.Closure)
		if err != nil {
			return nil, err
		}
		args, err := p.transformExprs(n.Arguments)
		if err != nil {
			return nil, err
		}
		ct, ok := n.Closure.Type().(*types.ClosureType)
		if !ok {
			return nil, corecerr.New(corecerr.MetaError, n.Pos(), "closure call on non-closure type after Pass T")
		}
		dispatcher, ok := p.dispatchers[ct]
		if !ok {
			return nil, corecerr.New(corecerr.MetaError, n.Pos(), "no closure values of this type were ever constructed")
		}
		allArgs := append([]ir.Expr{closureExpr}, args...)
		return ir.NewFunctionCall(n.Pos(), dispatcher, allArgs), nil

	case *ir.Intrinsic:
		args, err := p.transformExprs(n.Arguments)
		if err != nil {
			return nil, err
		}
		return ir.NewIntrinsic(n.Pos(), p.transformType(n.Type()), n.Name, args), nil

	case *ir.Bind:
		left, err := p.transformExpr(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := p.transformExpr(n.Right)
		if err != nil {
			return nil, err
		}
		return ir.NewBind(n.Pos(), left, right), nil

	case *ir.Return:
		val, err := p.transformExpr(n.Value)
		if err != nil {
			return nil, err
		}
		return ir.NewReturn(p.interner, n.Pos(), val), nil

	default:
		return nil, fmt.Errorf("closure: unhandled expression %T", e)
	}
}

func (p *pass) lowerClosureLiteral(n *ir.Closure) (ir.Expr, error) {
	ct := n.Type().(*types.ClosureType)
	info := p.byClosureType[ct]
	caseIdx := info.index[n]

	captured, err := p.transformExprs(n.CapturedArgs)
	if err != nil {
		return nil, err
	}
	var payload ir.Expr
	if len(captured) == 0 {
		payload = ir.NewVoidLiteral(p.interner, n.Pos())
	} else {
		payload = ir.NewTupleLiteral(p.interner, n.Pos(), captured)
	}
	return ir.NewEnumLiteral(n.Pos(), info.enum, caseIdx, payload), nil
}
