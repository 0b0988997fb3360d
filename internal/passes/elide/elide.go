// Package elide implements Pass V: it removes every slot whose type is
// empty (types.IsEmpty: an empty tuple, a tuple of empty elements, or
// TypeOfType; Void is not empty) from tuples, struct fields, and
// function argument lists, renumbering the surviving TupleAccess,
// StructAccess, and Argument indices. A reference to a dropped slot
// (there is nothing left to read) is replaced by a fresh Void value —
// that carries exactly as much information as the slot did, namely
// none.
package elide

import (
	"fmt"

	"github.com/kestrelsoft/corec/internal/ir"
	"github.com/kestrelsoft/corec/internal/types"
)

// remap[i] is the new index of old slot i, or -1 if it was dropped.
type remap []int

func buildRemap(ts []types.Type) remap {
	r := make(remap, len(ts))
	next := 0
	for i, t := range ts {
		if types.IsEmpty(t) {
			r[i] = -1
			continue
		}
		r[i] = next
		next++
	}
	return r
}

func filterEmpty(ts []types.Type) []types.Type {
	out := make([]types.Type, 0, len(ts))
	for _, t := range ts {
		if !types.IsEmpty(t) {
			out = append(out, t)
		}
	}
	return out
}

type funcInfo struct {
	fn    *ir.Function
	remap remap
}

type structInfo struct {
	st    *types.StructType
	remap remap
}

type pass struct {
	interner *types.Interner

	funcs   map[*ir.Function]*funcInfo
	structs map[*types.StructType]*structInfo
	enums   map[*types.EnumType]*types.EnumType

	// currentFunc is the funcInfo of the function whose body is being
	// rewritten, used to remap Argument indices.
	currentFunc *funcInfo

	// emptyCaseVar is pushed/popped while processing a Switch case body
	// whose bound variable's payload type compacted to empty; a
	// CaseVariable read inside such a body becomes a fresh Void value.
	emptyCaseVar []bool
}

// Run executes Pass V over src.
func Run(src *ir.Program) (*ir.Program, error) {
	p := &pass{
		interner: src.Interner,
		funcs:    make(map[*ir.Function]*funcInfo),
		structs:  make(map[*types.StructType]*structInfo),
		enums:    make(map[*types.EnumType]*types.EnumType),
	}

	dst := ir.New(src.Interner)
	for _, fn := range src.Functions {
		dst.Functions = append(dst.Functions, p.registerFunc(fn).fn)
	}
	for _, fn := range src.Functions {
		info := p.funcs[fn]
		p.currentFunc = info
		body, err := p.transformBlock(fn.Entry)
		if err != nil {
			return nil, err
		}
		info.fn.Entry = body
	}
	p.currentFunc = nil
	return dst, nil
}

func (p *pass) registerFunc(fn *ir.Function) *funcInfo {
	if info, ok := p.funcs[fn]; ok {
		return info
	}
	r := buildRemap(fn.ArgumentTypes)
	newArgs := filterEmpty(fn.ArgumentTypes)
	nf := &ir.Function{
		Name:          fn.Name,
		ArgumentTypes: newArgs,
		ReturnType:    p.transformType(fn.ReturnType),
		IsMain:        fn.IsMain,
	}
	info := &funcInfo{fn: nf, remap: r}
	p.funcs[fn] = info
	return info
}

// transformType compacts Struct/Enum field and payload types; Tuple
// compaction happens at each construction/access site instead, since it
// depends on which concrete elements are present there.
func (p *pass) transformType(t types.Type) types.Type {
	switch k := t.(type) {
	case *types.IntType, *types.VoidType, *types.StringType, *types.StringIteratorType:
		return t
	case *types.ArrayType:
		return p.interner.Array(p.transformType(k.Element))
	case *types.TupleType:
		elems := make([]types.Type, len(k.Elements))
		for i, e := range k.Elements {
			elems[i] = p.transformType(e)
		}
		return p.interner.Tuple(filterEmpty(elems))
	case *types.ReferenceType:
		return p.interner.Reference(p.transformType(k.Inner))
	case *types.StructType:
		return p.registerStruct(k).st
	case *types.EnumType:
		return p.registerEnum(k)
	default:
		return t
	}
}

func (p *pass) registerStruct(st *types.StructType) *structInfo {
	if info, ok := p.structs[st]; ok {
		return info
	}
	nt := p.interner.NewStruct(st.Name)
	info := &structInfo{st: nt, remap: buildRemap(fieldTypes(st))}
	p.structs[st] = info
	fields := make([]types.StructField, 0, len(st.Fields))
	for _, f := range st.Fields {
		if types.IsEmpty(f.Type) {
			continue
		}
		fields = append(fields, types.StructField{Name: f.Name, Type: p.transformType(f.Type)})
	}
	nt.SetFields(fields)
	return info
}

func fieldTypes(st *types.StructType) []types.Type {
	out := make([]types.Type, len(st.Fields))
	for i, f := range st.Fields {
		out[i] = f.Type
	}
	return out
}

func (p *pass) registerEnum(et *types.EnumType) *types.EnumType {
	if nt, ok := p.enums[et]; ok {
		return nt
	}
	nt := p.interner.NewEnum(et.Name)
	p.enums[et] = nt
	cases := make([]types.EnumCase, len(et.Cases))
	for i, c := range et.Cases {
		cases[i] = types.EnumCase{Name: c.Name, Payload: p.transformType(c.Payload)}
	}
	nt.SetCases(cases)
	return nt
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
	case *ir.IntLiteral, *ir.StringLiteral:
		return n, nil
	case *ir.VoidLiteral:
		return n, nil
	case *ir.TypeLiteral:
		return n, nil

	case *ir.CaseVariable:
		if len(p.emptyCaseVar) > 0 && p.emptyCaseVar[len(p.emptyCaseVar)-1] {
			return ir.NewVoidLiteral(p.interner, n.Pos()), nil
		}
		return ir.NewCaseVariable(n.Pos(), p.transformType(n.Type())), nil

	case *ir.Argument:
		fnInfo := p.currentFunc
		if fnInfo == nil {
			return nil, fmt.Errorf("elide: argument reference outside a function")
		}
		newIndex := fnInfo.remap[n.Index]
		if newIndex < 0 {
			return ir.NewVoidLiteral(p.interner, n.Pos()), nil
		}
		return ir.NewArgument(n.Pos(), p.transformType(n.Type()), newIndex), nil

	case *ir.ArrayLiteral:
		elems, err := p.transformExprs(n.Elements)
		if err != nil {
			return nil, err
		}
		return ir.NewArrayLiteral(p.interner, n.Pos(), p.transformType(n.Type().(*types.ArrayType).Element), elems), nil

	case *ir.TupleLiteral:
		var surviving []ir.Expr
		for _, el := range n.Elements {
			if types.IsEmpty(el.Type()) {
				continue
			}
			ne, err := p.transformExpr(el)
			if err != nil {
				return nil, err
			}
			surviving = append(surviving, ne)
		}
		return ir.NewTupleLiteral(p.interner, n.Pos(), surviving), nil

	case *ir.StructLiteral:
		st := n.Type().(*types.StructType)
		info := p.registerStruct(st)
		var surviving []ir.Expr
		for i, f := range n.Fields {
			if info.remap[i] < 0 {
				continue
			}
			nf, err := p.transformExpr(f)
			if err != nil {
				return nil, err
			}
			surviving = append(surviving, nf)
		}
		return ir.NewStructLiteral(n.Pos(), info.st, surviving), nil

	case *ir.EnumLiteral:
		payload, err := p.transformExpr(n.Payload)
		if err != nil {
			return nil, err
		}
		et := p.registerEnum(n.Type().(*types.EnumType))
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
		return p.transformSwitch(n)

	case *ir.TupleAccess:
		oldTupleType, ok := n.Tuple.Type().(*types.TupleType)
		if !ok {
			return nil, fmt.Errorf("elide: tuple access on non-tuple type")
		}
		r := buildRemap(oldTupleType.Elements)
		tuple, err := p.transformExpr(n.Tuple)
		if err != nil {
			return nil, err
		}
		if r[n.Index] < 0 {
			return ir.NewVoidLiteral(p.interner, n.Pos()), nil
		}
		return ir.NewTupleAccess(n.Pos(), p.transformType(n.Type()), tuple, r[n.Index]), nil

	case *ir.StructAccess:
		oldStructType, ok := n.Struct.Type().(*types.StructType)
		if !ok {
			return nil, fmt.Errorf("elide: struct access on non-struct type")
		}
		info := p.registerStruct(oldStructType)
		structExpr, err := p.transformExpr(n.Struct)
		if err != nil {
			return nil, err
		}
		if info.remap[n.FieldIndex] < 0 {
			return ir.NewVoidLiteral(p.interner, n.Pos()), nil
		}
		return ir.NewStructAccess(n.Pos(), p.transformType(n.Type()), structExpr, info.remap[n.FieldIndex], n.FieldName), nil

	case *ir.FunctionCall:
		info := p.registerFunc(n.Function)
		var args []ir.Expr
		for i, a := range n.Arguments {
			if info.remap[i] < 0 {
				continue
			}
			na, err := p.transformExpr(a)
			if err != nil {
				return nil, err
			}
			args = append(args, na)
		}
		return ir.NewFunctionCall(n.Pos(), info.fn, args), nil

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
		return nil, fmt.Errorf("elide: unhandled expression %T", e)
	}
}

func (p *pass) transformSwitch(n *ir.Switch) (ir.Expr, error) {
	scrutinee, err := p.transformExpr(n.Scrutinee)
	if err != nil {
		return nil, err
	}
	cases := make([]ir.SwitchCase, len(n.Cases))
	for i, c := range n.Cases {
		empty := c.Variable == nil || types.IsEmpty(p.transformType(c.Variable.Type()))
		p.emptyCaseVar = append(p.emptyCaseVar, empty)
		body, err := p.transformBlock(c.Body)
		p.emptyCaseVar = p.emptyCaseVar[:len(p.emptyCaseVar)-1]
		if err != nil {
			return nil, err
		}
		var variable *ir.CaseVariable
		if c.Variable != nil && !empty {
			variable = ir.NewCaseVariable(c.Variable.Pos(), p.transformType(c.Variable.Type()))
		}
		cases[i] = ir.SwitchCase{CaseName: c.CaseName, Variable: variable, Body: body}
	}
	return ir.NewSwitch(n.Pos(), p.transformType(n.Type()), scrutinee, cases), nil
}
