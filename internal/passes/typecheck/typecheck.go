// Package typecheck implements Pass T: type checking, constant folding,
// and resolution of the compile-time-only intrinsics. It is the only
// pass that may still see a partially typed program — a Function whose
// ReturnType is nil, recursively discovered while the function's own
// body is still being checked.
package typecheck

import (
	"fmt"

	"github.com/kestrelsoft/corec/internal/corecerr"
	"github.com/kestrelsoft/corec/internal/ir"
	"github.com/kestrelsoft/corec/internal/types"
)

// Importer loads and type-checks another program by import path, used
// by the import intrinsic. The core never parses source text itself;
// whatever embeds this pass supplies a concrete Importer (or none, in
// which case import fails with a meta error).
type Importer interface {
	Import(path string) (*ir.Program, error)
}

type pass struct {
	interner *types.Interner
	importer Importer

	// inProgress marks a function whose return type is being computed,
	// so a recursive call to it during Pass T is diagnosable instead of
	// infinitely recursing.
	inProgress map[*ir.Function]bool
	fileTable  map[string]*ir.Program

	// checked memoizes the checked *ir.Function for each original
	// *ir.Function so every call site (and the top-level declaration
	// order in Run) ends up pointing at the same checked object.
	checked map[*ir.Function]*ir.Function

	// importedFuncs accumulates the functions of every distinct program
	// pulled in via resolveImport, appended to the destination program
	// once Run's own function loop is done.
	importedFuncs []*ir.Function
}

// Run executes Pass T over src, returning a freshly built Program. src's
// functions may have a nil ReturnType; the result's never do (main's is
// Void).
func Run(src *ir.Program, importer Importer) (*ir.Program, error) {
	p := &pass{
		interner:   src.Interner,
		importer:   importer,
		inProgress: make(map[*ir.Function]bool),
		fileTable:  make(map[string]*ir.Program),
		checked:    make(map[*ir.Function]*ir.Function),
	}
	dst := ir.New(src.Interner)
	for _, fn := range src.Functions {
		out, err := p.resolveFunction(fn)
		if err != nil {
			return nil, err
		}
		dst.Functions = append(dst.Functions, out)
	}
	dst.Functions = append(dst.Functions, p.importedFuncs...)
	if main := dst.Main(); main != nil {
		if !isVoid(main.ReturnType) {
			return nil, corecerr.New(corecerr.TypeError, ir.Position{}, "main must return Void")
		}
		if len(main.ArgumentTypes) != 0 {
			return nil, corecerr.New(corecerr.TypeError, ir.Position{}, "main must take no arguments")
		}
	}
	return dst, nil
}

func isVoid(t types.Type) bool {
	_, ok := t.(*types.VoidType)
	return ok
}

func (p *pass) checkFunction(fn *ir.Function) (*ir.Function, error) {
	if p.inProgress[fn] {
		return nil, corecerr.New(corecerr.TypeError, ir.Position{},
			"cannot determine return type of recursive call to %q", fn.Name)
	}
	p.inProgress[fn] = true
	defer delete(p.inProgress, fn)

	out := &ir.Function{Name: fn.Name, ArgumentTypes: fn.ArgumentTypes, IsMain: fn.IsMain}
	block, err := p.checkBlock(fn.Entry)
	if err != nil {
		return nil, err
	}
	out.Entry = block
	if last := block.Last(); last != nil {
		out.ReturnType = last.Type()
	} else {
		out.ReturnType = p.interner.Void()
	}
	return out, nil
}

func (p *pass) checkBlock(b *ir.Block) (*ir.Block, error) {
	out := ir.NewBlock()
	for _, e := range b.Exprs {
		ne, err := p.checkExpr(e)
		if err != nil {
			return nil, err
		}
		out.Append(ne)
	}
	return out, nil
}

// checkExpr folds constants, resolves compile-time-only intrinsics, and
// otherwise rebuilds e's children into a fresh node of the same kind.
func (p *pass) checkExpr(e ir.Expr) (ir.Expr, error) {
	switch n := e.(type) {
	case *ir.IntLiteral, *ir.VoidLiteral, *ir.StringLiteral, *ir.TypeLiteral,
		*ir.Argument, *ir.CaseVariable:
		return n, nil

	case *ir.ArrayLiteral:
		elems, err := p.checkExprs(n.Elements)
		if err != nil {
			return nil, err
		}
		elemType := n.Type().(*types.ArrayType).Element
		return ir.NewArrayLiteral(p.interner, n.Pos(), elemType, elems), nil

	case *ir.TupleLiteral:
		elems, err := p.checkExprs(n.Elements)
		if err != nil {
			return nil, err
		}
		return ir.NewTupleLiteral(p.interner, n.Pos(), elems), nil

	case *ir.StructLiteral:
		fields, err := p.checkExprs(n.Fields)
		if err != nil {
			return nil, err
		}
		st := n.Type().(*types.StructType)
		if len(fields) != len(st.Fields) {
			return nil, corecerr.New(corecerr.TypeError, n.Pos(),
				"struct %q expects %d fields, got %d", st.Name, len(st.Fields), len(fields))
		}
		return ir.NewStructLiteral(n.Pos(), st, fields), nil

	case *ir.EnumLiteral:
		payload, err := p.checkExpr(n.Payload)
		if err != nil {
			return nil, err
		}
		return ir.NewEnumLiteral(n.Pos(), n.Type().(*types.EnumType), n.CaseIndex, payload), nil

	case *ir.BinaryExpression:
		return p.checkBinary(n)

	case *ir.If:
		cond, err := p.checkExpr(n.Condition)
		if err != nil {
			return nil, err
		}
		if _, ok := cond.Type().(*types.IntType); !ok {
			return nil, corecerr.New(corecerr.TypeError, n.Pos(), "if condition must be Int")
		}
		thenB, err := p.checkBlock(n.Then)
		if err != nil {
			return nil, err
		}
		elseB, err := p.checkBlock(n.Else)
		if err != nil {
			return nil, err
		}
		if cl, ok := cond.(*ir.IntLiteral); ok {
			if cl.Value != 0 {
				return blockToExpr(p.interner, n.Pos(), thenB), nil
			}
			return blockToExpr(p.interner, n.Pos(), elseB), nil
		}
		thenType, elseType := blockType(p.interner, thenB), blockType(p.interner, elseB)
		if thenType != elseType {
			return nil, corecerr.New(corecerr.TypeError, n.Pos(), "if branches must have the same type")
		}
		return ir.NewIf(n.Pos(), thenType, cond, thenB, elseB), nil

	case *ir.Switch:
		return p.checkSwitch(n)

	case *ir.TupleAccess:
		tuple, err := p.checkExpr(n.Tuple)
		if err != nil {
			return nil, err
		}
		tt, ok := tuple.Type().(*types.TupleType)
		if !ok || n.Index < 0 || n.Index >= len(tt.Elements) {
			return nil, corecerr.New(corecerr.TypeError, n.Pos(), "invalid tuple access at index %d", n.Index)
		}
		if lit, ok := tuple.(*ir.TupleLiteral); ok {
			return lit.Elements[n.Index], nil
		}
		return ir.NewTupleAccess(n.Pos(), tt.Elements[n.Index], tuple, n.Index), nil

	case *ir.StructAccess:
		structExpr, err := p.checkExpr(n.Struct)
		if err != nil {
			return nil, err
		}
		st := types.AsStruct(structExpr.Type())
		if st == nil {
			return nil, corecerr.New(corecerr.TypeError, n.Pos(), "struct access on non-struct type")
		}
		idx, ok := st.FieldIndex(n.FieldName)
		if !ok {
			return nil, corecerr.New(corecerr.TypeError, n.Pos(), "missing field %q", n.FieldName)
		}
		return ir.NewStructAccess(n.Pos(), st.Fields[idx].Type, structExpr, idx, n.FieldName), nil

	case *ir.Closure:
		return p.checkClosure(n)

	case *ir.ClosureAccess:
		closureExpr, err := p.checkExpr(n.Closure)
		if err != nil {
			return nil, err
		}
		return ir.NewClosureAccess(n.Pos(), n.Type(), closureExpr, n.Index), nil

	case *ir.FunctionCall:
		args, err := p.checkExprs(n.Arguments)
		if err != nil {
			return nil, err
		}
		fn, err := p.resolveFunction(n.Function)
		if err != nil {
			return nil, err
		}
		return ir.NewFunctionCall(n.Pos(), fn, args), nil

	case *ir.ClosureCall:
		return p.checkClosureCall(n)

	case *ir.MethodCall:
		return p.checkMethodCall(n)

	case *ir.Intrinsic:
		return p.checkIntrinsic(n)

	case *ir.Bind:
		left, err := p.checkExpr(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := p.checkExpr(n.Right)
		if err != nil {
			return nil, err
		}
		return ir.NewBind(n.Pos(), left, right), nil

	case *ir.Return:
		val, err := p.checkExpr(n.Value)
		if err != nil {
			return nil, err
		}
		return ir.NewReturn(p.interner, n.Pos(), val), nil

	default:
		return nil, fmt.Errorf("typecheck: unhandled expression %T", e)
	}
}

func (p *pass) checkExprs(in []ir.Expr) ([]ir.Expr, error) {
	out := make([]ir.Expr, len(in))
	for i, e := range in {
		ne, err := p.checkExpr(e)
		if err != nil {
			return nil, err
		}
		out[i] = ne
	}
	return out, nil
}

func (p *pass) checkBinary(n *ir.BinaryExpression) (ir.Expr, error) {
	left, err := p.checkExpr(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := p.checkExpr(n.Right)
	if err != nil {
		return nil, err
	}
	if !sameType(left.Type(), right.Type()) {
		return nil, corecerr.New(corecerr.TypeError, n.Pos(), "mismatched operand types in binary expression")
	}
	if li, lok := left.(*ir.IntLiteral); lok {
		if ri, rok := right.(*ir.IntLiteral); rok {
			return foldInt(p.interner, n.Pos(), n.Op, li.Value, ri.Value)
		}
	}
	return ir.NewBinaryExpression(p.interner, n.Pos(), n.Op, left, right), nil
}

func foldInt(interner *types.Interner, pos ir.Position, op ir.BinaryOp, a, b int32) (ir.Expr, error) {
	var result int32
	switch op {
	case ir.OpAdd:
		result = a + b
	case ir.OpSub:
		result = a - b
	case ir.OpMul:
		result = a * b
	case ir.OpDiv:
		if b == 0 {
			return nil, corecerr.New(corecerr.EvalError, pos, "division by zero")
		}
		result = a / b
	case ir.OpRem:
		if b == 0 {
			return nil, corecerr.New(corecerr.EvalError, pos, "division by zero")
		}
		result = a % b
	case ir.OpEq:
		result = boolInt(a == b)
	case ir.OpNe:
		result = boolInt(a != b)
	case ir.OpLt:
		result = boolInt(a < b)
	case ir.OpLe:
		result = boolInt(a <= b)
	case ir.OpGt:
		result = boolInt(a > b)
	case ir.OpGe:
		result = boolInt(a >= b)
	}
	return ir.NewIntLiteral(interner, pos, result), nil
}

func boolInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

func sameType(a, b types.Type) bool { return a == b }

// blockType is a block's result type: its last expression's type, or
// Void for an empty block.
func blockType(interner *types.Interner, b *ir.Block) types.Type {
	if last := b.Last(); last != nil {
		return last.Type()
	}
	return interner.Void()
}

// blockToExpr collapses a (possibly multi-statement) block into a
// single expression usable wherever only one Expr is accepted — as when
// an If with a constant condition is elided and one whole branch's
// residual statements must still run in order for their effects. Chains
// every statement but the last into the left side of a Bind, right-
// associated, so execution order and side effects are preserved; the
// last statement's value (and type) is the result.
func blockToExpr(interner *types.Interner, pos ir.Position, b *ir.Block) ir.Expr {
	if len(b.Exprs) == 0 {
		return ir.NewVoidLiteral(interner, pos)
	}
	return foldBind(b.Exprs)
}

func foldBind(exprs []ir.Expr) ir.Expr {
	if len(exprs) == 1 {
		return exprs[0]
	}
	return ir.NewBind(exprs[0].Pos(), exprs[0], foldBind(exprs[1:]))
}

func (p *pass) checkSwitch(n *ir.Switch) (ir.Expr, error) {
	scrutinee, err := p.checkExpr(n.Scrutinee)
	if err != nil {
		return nil, err
	}
	enum := types.AsEnum(scrutinee.Type())
	if enum == nil {
		return nil, corecerr.New(corecerr.TypeError, n.Pos(), "switch scrutinee must be an enum")
	}
	if len(n.Cases) != len(enum.Cases) {
		return nil, corecerr.New(corecerr.TypeError, n.Pos(), "switch must cover all %d cases of %q, got %d",
			len(enum.Cases), enum.Name, len(n.Cases))
	}
	cases := make([]ir.SwitchCase, len(n.Cases))
	var resultType types.Type
	for i, c := range n.Cases {
		if c.CaseName != enum.Cases[i].Name {
			return nil, corecerr.New(corecerr.TypeError, n.Pos(),
				"switch case %d: expected %q, got %q", i, enum.Cases[i].Name, c.CaseName)
		}
		body, err := p.checkBlock(c.Body)
		if err != nil {
			return nil, err
		}
		var variable *ir.CaseVariable
		if c.Variable != nil {
			variable = ir.NewCaseVariable(c.Variable.Pos(), enum.Cases[i].Payload)
		}
		cases[i] = ir.SwitchCase{CaseName: c.CaseName, Variable: variable, Body: body}
		if last := body.Last(); last != nil {
			resultType = last.Type()
		}
	}
	if resultType == nil {
		resultType = p.interner.Void()
	}
	if literalEnum, ok := scrutinee.(*ir.EnumLiteral); ok {
		matched := cases[literalEnum.CaseIndex]
		body := substituteCaseVariableBlock(matched.Body, literalEnum.Payload)
		return blockToExpr(p.interner, n.Pos(), body), nil
	}
	return ir.NewSwitch(n.Pos(), resultType, scrutinee, cases), nil
}

// substituteCaseVariableBlock rebuilds b with every CaseVariable leaf
// replaced by payload, binding the matched case's variable to the
// literal's payload the way spec §4.2 requires when constant-folding a
// switch over a compile-time EnumLiteral scrutinee. payload is shared by
// pointer at every substitution site rather than re-evaluated, per how
// cross-expression references work within a block.
func substituteCaseVariableBlock(b *ir.Block, payload ir.Expr) *ir.Block {
	out := ir.NewBlock()
	for _, e := range b.Exprs {
		out.Append(substituteCaseVariableExpr(e, payload))
	}
	return out
}

func substituteCaseVariableExpr(e ir.Expr, payload ir.Expr) ir.Expr {
	switch n := e.(type) {
	case *ir.CaseVariable:
		return payload
	case *ir.ArrayLiteral:
		n.Elements = substituteCaseVariableAll(n.Elements, payload)
		return n
	case *ir.TupleLiteral:
		n.Elements = substituteCaseVariableAll(n.Elements, payload)
		return n
	case *ir.StructLiteral:
		n.Fields = substituteCaseVariableAll(n.Fields, payload)
		return n
	case *ir.EnumLiteral:
		n.Payload = substituteCaseVariableExpr(n.Payload, payload)
		return n
	case *ir.BinaryExpression:
		n.Left = substituteCaseVariableExpr(n.Left, payload)
		n.Right = substituteCaseVariableExpr(n.Right, payload)
		return n
	case *ir.If:
		n.Condition = substituteCaseVariableExpr(n.Condition, payload)
		n.Then = substituteCaseVariableBlock(n.Then, payload)
		n.Else = substituteCaseVariableBlock(n.Else, payload)
		return n
	case *ir.Switch:
		n.Scrutinee = substituteCaseVariableExpr(n.Scrutinee, payload)
		for i, c := range n.Cases {
			n.Cases[i] = ir.SwitchCase{CaseName: c.CaseName, Variable: c.Variable, Body: substituteCaseVariableBlock(c.Body, payload)}
		}
		return n
	case *ir.TupleAccess:
		n.Tuple = substituteCaseVariableExpr(n.Tuple, payload)
		return n
	case *ir.StructAccess:
		n.Struct = substituteCaseVariableExpr(n.Struct, payload)
		return n
	case *ir.Closure:
		n.CapturedArgs = substituteCaseVariableAll(n.CapturedArgs, payload)
		return n
	case *ir.ClosureAccess:
		n.Closure = substituteCaseVariableExpr(n.Closure, payload)
		return n
	case *ir.FunctionCall:
		n.Arguments = substituteCaseVariableAll(n.Arguments, payload)
		return n
	case *ir.ClosureCall:
		n.Closure = substituteCaseVariableExpr(n.Closure, payload)
		n.Arguments = substituteCaseVariableAll(n.Arguments, payload)
		return n
	case *ir.MethodCall:
		n.Receiver = substituteCaseVariableExpr(n.Receiver, payload)
		if n.Method != nil {
			n.Method = substituteCaseVariableExpr(n.Method, payload)
		}
		n.Arguments = substituteCaseVariableAll(n.Arguments, payload)
		return n
	case *ir.Intrinsic:
		n.Arguments = substituteCaseVariableAll(n.Arguments, payload)
		return n
	case *ir.Bind:
		n.Left = substituteCaseVariableExpr(n.Left, payload)
		n.Right = substituteCaseVariableExpr(n.Right, payload)
		return n
	case *ir.Return:
		n.Value = substituteCaseVariableExpr(n.Value, payload)
		return n
	default:
		return n
	}
}

func substituteCaseVariableAll(es []ir.Expr, payload ir.Expr) []ir.Expr {
	out := make([]ir.Expr, len(es))
	for i, e := range es {
		out[i] = substituteCaseVariableExpr(e, payload)
	}
	return out
}

func (p *pass) checkClosure(n *ir.Closure) (ir.Expr, error) {
	captured, err := p.checkExprs(n.CapturedArgs)
	if err != nil {
		return nil, err
	}
	fn, err := p.resolveFunction(n.Function)
	if err != nil {
		return nil, err
	}
	return ir.NewClosure(p.interner, n.Pos(), captured, fn), nil
}

func (p *pass) checkClosureCall(n *ir.ClosureCall) (ir.Expr, error) {
	closureExpr, err := p.checkExpr(n.Closure)
	if err != nil {
		return nil, err
	}
	args, err := p.checkExprs(n.Arguments)
	if err != nil {
		return nil, err
	}
	ct, ok := closureExpr.Type().(*types.ClosureType)
	if !ok {
		return nil, corecerr.New(corecerr.TypeError, n.Pos(), "closure call on non-closure type")
	}
	if lit, ok := closureExpr.(*ir.Closure); ok {
		allArgs := append(append([]ir.Expr(nil), lit.CapturedArgs...), args...)
		return ir.NewFunctionCall(n.Pos(), lit.Function, allArgs), nil
	}
	return ir.NewClosureCall(n.Pos(), ct.Result, closureExpr, args), nil
}

// checkMethodCall resolves Receiver.Name(args): first a same-named
// struct field holding a closure, falling back to the pre-resolved
// Method expression set by whatever built this program.
func (p *pass) checkMethodCall(n *ir.MethodCall) (ir.Expr, error) {
	receiver, err := p.checkExpr(n.Receiver)
	if err != nil {
		return nil, err
	}
	args, err := p.checkExprs(n.Arguments)
	if err != nil {
		return nil, err
	}
	if st := types.AsStruct(receiver.Type()); st != nil {
		if idx, ok := st.FieldIndex(n.MethodName); ok {
			if _, isClosure := st.Fields[idx].Type.(*types.ClosureType); isClosure {
				access := ir.NewStructAccess(n.Pos(), st.Fields[idx].Type, receiver, idx, n.MethodName)
				return p.checkClosureCall(&ir.ClosureCall{Closure: access, Arguments: n.Arguments})
			}
		}
	}
	if n.Method == nil {
		return nil, corecerr.New(corecerr.MetaError, n.Pos(), "unresolved method %q", n.MethodName)
	}
	method, err := p.checkExpr(n.Method)
	if err != nil {
		return nil, err
	}
	if fn, ok := method.(*ir.FunctionCall); ok {
		allArgs := append(append([]ir.Expr{receiver}, args...), fn.Arguments...)
		resolved, err := p.resolveFunction(fn.Function)
		if err != nil {
			return nil, err
		}
		return ir.NewFunctionCall(n.Pos(), resolved, allArgs), nil
	}
	return nil, corecerr.New(corecerr.MetaError, n.Pos(), "method %q did not resolve to a function", n.MethodName)
}

// resolveFunction type-checks fn's body on first reference and memoizes
// the result so a function shared by multiple call sites is checked
// once.
func (p *pass) resolveFunction(fn *ir.Function) (*ir.Function, error) {
	if out, ok := p.checked[fn]; ok {
		return out, nil
	}
	out, err := p.checkFunction(fn)
	if err != nil {
		return nil, err
	}
	p.checked[fn] = out
	return out, nil
}

func (p *pass) checkIntrinsic(n *ir.Intrinsic) (ir.Expr, error) {
	switch n.Name {
	case ir.IntrinsicTypeOf:
		if len(n.Arguments) != 1 {
			return nil, corecerr.New(corecerr.TypeError, n.Pos(), "typeOf takes exactly 1 argument")
		}
		arg, err := p.checkExpr(n.Arguments[0])
		if err != nil {
			return nil, err
		}
		return ir.NewTypeLiteral(p.interner, n.Pos(), arg.Type()), nil

	case ir.IntrinsicArrayType:
		lit, err := p.typeLiteralArg(n, 0)
		if err != nil {
			return nil, err
		}
		return ir.NewTypeLiteral(p.interner, n.Pos(), p.interner.Array(lit)), nil

	case ir.IntrinsicReferenceType:
		lit, err := p.typeLiteralArg(n, 0)
		if err != nil {
			return nil, err
		}
		return ir.NewTypeLiteral(p.interner, n.Pos(), p.interner.Reference(lit)), nil

	case ir.IntrinsicTupleType:
		elems := make([]types.Type, len(n.Arguments))
		for i := range n.Arguments {
			lit, err := p.typeLiteralArg(n, i)
			if err != nil {
				return nil, err
			}
			elems[i] = lit
		}
		return ir.NewTypeLiteral(p.interner, n.Pos(), p.interner.Tuple(elems)), nil

	case ir.IntrinsicError:
		msg := "compile-time error"
		if len(n.Arguments) == 1 {
			arg, err := p.checkExpr(n.Arguments[0])
			if err != nil {
				return nil, err
			}
			if sl, ok := arg.(*ir.StringLiteral); ok {
				msg = sl.Value
			}
		}
		return nil, corecerr.New(corecerr.EvalError, n.Pos(), "%s", msg)

	case ir.IntrinsicImport:
		if len(n.Arguments) != 1 {
			return nil, corecerr.New(corecerr.TypeError, n.Pos(), "import takes exactly 1 argument")
		}
		arg, err := p.checkExpr(n.Arguments[0])
		if err != nil {
			return nil, err
		}
		sl, ok := arg.(*ir.StringLiteral)
		if !ok {
			return nil, corecerr.New(corecerr.TypeError, n.Pos(), "import path must be a constant string")
		}
		return p.resolveImport(n.Pos(), sl.Value)

	default:
		args, err := p.checkExprs(n.Arguments)
		if err != nil {
			return nil, err
		}
		resultType, err := intrinsicResultType(p.interner, n.Pos(), n.Name, args)
		if err != nil {
			return nil, err
		}
		return ir.NewIntrinsic(n.Pos(), resultType, n.Name, args), nil
	}
}

func (p *pass) typeLiteralArg(n *ir.Intrinsic, index int) (types.Type, error) {
	if index >= len(n.Arguments) {
		return nil, corecerr.New(corecerr.TypeError, n.Pos(), "%s: missing argument %d", n.Name, index)
	}
	arg, err := p.checkExpr(n.Arguments[index])
	if err != nil {
		return nil, err
	}
	lit, ok := arg.(*ir.TypeLiteral)
	if !ok {
		return nil, corecerr.New(corecerr.TypeError, n.Pos(), "%s: argument %d must be a type literal", n.Name, index)
	}
	return lit.Value, nil
}

// resolveImport uses path exactly as given as its file-table key; it
// does no normalization and does not resolve path relative to the
// importing file. It memoizes the result in a per-run file table so a diamond import
// graph is parsed and checked at most once; importing a file currently
// in progress is the same "recursive" diagnostic as a recursive call.
// A successful import merges the imported program's functions into this
// run's destination program and resolves to a call of its entry
// function, so the imported code actually runs at the import site
// instead of being silently discarded.
func (p *pass) resolveImport(pos ir.Position, path string) (ir.Expr, error) {
	if p.importer == nil {
		return nil, corecerr.New(corecerr.MetaError, pos, "import is unavailable: no importer configured")
	}
	if _, inProgress := p.fileTable[path]; inProgress && p.fileTable[path] == nil {
		return nil, corecerr.New(corecerr.MetaError, pos, "recursive import of %q", path)
	}
	if prog, ok := p.fileTable[path]; ok && prog != nil {
		return p.importCall(pos, prog)
	}
	p.fileTable[path] = nil
	prog, err := p.importer.Import(path)
	if err != nil {
		return nil, corecerr.New(corecerr.MetaError, pos, "import %q: %v", path, err)
	}
	p.fileTable[path] = prog
	p.importedFuncs = append(p.importedFuncs, prog.Functions...)
	return p.importCall(pos, prog)
}

// importCall builds the FunctionCall that stands in for an import
// expression: a zero-argument call of prog's entry function. An import
// with no functions at all resolves to Void, matching a no-op file.
func (p *pass) importCall(pos ir.Position, prog *ir.Program) (ir.Expr, error) {
	entry := prog.Main()
	if entry == nil {
		return ir.NewVoidLiteral(p.interner, pos), nil
	}
	return ir.NewFunctionCall(pos, entry, nil), nil
}

// intrinsicResultType validates argument count/types for the runtime
// intrinsics per the fixed signature table and returns the result type.
func intrinsicResultType(interner *types.Interner, pos ir.Position, name ir.IntrinsicName, args []ir.Expr) (types.Type, error) {
	arity := func(n int) error {
		if len(args) != n {
			return corecerr.New(corecerr.TypeError, pos, "%s takes exactly %d argument(s), got %d", name, n, len(args))
		}
		return nil
	}
	switch name {
	case ir.IntrinsicPutChar:
		if err := arity(1); err != nil {
			return nil, err
		}
		return interner.Void(), nil
	case ir.IntrinsicPutStr:
		if err := arity(1); err != nil {
			return nil, err
		}
		return interner.Void(), nil
	case ir.IntrinsicGetChar:
		if err := arity(0); err != nil {
			return nil, err
		}
		return interner.Int(), nil
	case ir.IntrinsicArrayGet:
		if err := arity(2); err != nil {
			return nil, err
		}
		at, ok := args[0].Type().(*types.ArrayType)
		if !ok {
			return nil, corecerr.New(corecerr.TypeError, pos, "arrayGet: first argument must be an array")
		}
		return at.Element, nil
	case ir.IntrinsicArrayLength:
		if err := arity(1); err != nil {
			return nil, err
		}
		return interner.Int(), nil
	case ir.IntrinsicArraySplice:
		if err := arity(3); err != nil {
			return nil, err
		}
		return args[0].Type(), nil
	case ir.IntrinsicStringPush:
		if err := arity(2); err != nil {
			return nil, err
		}
		return interner.Str(), nil
	case ir.IntrinsicStringIterator:
		if err := arity(1); err != nil {
			return nil, err
		}
		return interner.StringIterator(), nil
	case ir.IntrinsicStringIteratorIsValid:
		if err := arity(1); err != nil {
			return nil, err
		}
		return interner.Int(), nil
	case ir.IntrinsicStringIteratorGet:
		if err := arity(1); err != nil {
			return nil, err
		}
		return interner.Int(), nil
	case ir.IntrinsicStringIteratorNext:
		if err := arity(1); err != nil {
			return nil, err
		}
		return interner.StringIterator(), nil
	case ir.IntrinsicReference:
		if err := arity(1); err != nil {
			return nil, err
		}
		st, en := types.AsStruct(args[0].Type()), types.AsEnum(args[0].Type())
		if st == nil && en == nil {
			return nil, corecerr.New(corecerr.TypeError, pos, "reference: argument must be a struct or enum")
		}
		return interner.Reference(args[0].Type()), nil
	case ir.IntrinsicCopy:
		if err := arity(1); err != nil {
			return nil, err
		}
		return args[0].Type(), nil
	case ir.IntrinsicFree:
		if err := arity(1); err != nil {
			return nil, err
		}
		return interner.Void(), nil
	default:
		// Unknown intrinsic names are accepted (typed Void) so a backend
		// can register additional intrinsics the core doesn't know
		// about.
		return interner.Void(), nil
	}
}
