package ir

import (
	"golang.org/x/text/unicode/norm"

	"github.com/kestrelsoft/corec/internal/types"
)

// BinaryOp enumerates the binary operators.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpRem
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
)

func (op BinaryOp) String() string {
	return [...]string{"+", "-", "*", "/", "%", "==", "!=", "<", "<=", ">", ">="}[op]
}

// IsComparison reports whether op always produces an Int (0/1) rather
// than an operand-typed result.
func (op BinaryOp) IsComparison() bool {
	return op >= OpEq
}

type IntLiteral struct {
	base
	Value int32
}

func NewIntLiteral(interner *types.Interner, pos Position, value int32) *IntLiteral {
	return &IntLiteral{base: newBase(interner.Int(), pos), Value: value}
}

type VoidLiteral struct{ base }

func NewVoidLiteral(interner *types.Interner, pos Position) *VoidLiteral {
	return &VoidLiteral{base: newBase(interner.Void(), pos)}
}

type StringLiteral struct {
	base
	Value string
}

// NewStringLiteral normalizes value to Unicode NFC so that two source
// spellings of the same string (e.g. precomposed vs. combining-mark
// accented characters) compare equal and hash identically downstream,
// in particular for the StructField/EnumCase name lookups in internal/types.
func NewStringLiteral(interner *types.Interner, pos Position, value string) *StringLiteral {
	return &StringLiteral{base: newBase(interner.Str(), pos), Value: norm.NFC.String(value)}
}

// TypeLiteral carries a compile-time type value, produced by typeOf,
// arrayType, tupleType, referenceType and consumed only by other
// compile-time-only intrinsics; Pass T folds every use of it away and
// Pass V elides the TypeOfType values it produces.
type TypeLiteral struct {
	base
	Value types.Type
}

func NewTypeLiteral(interner *types.Interner, pos Position, value types.Type) *TypeLiteral {
	return &TypeLiteral{base: newBase(interner.TypeOfType(value), pos), Value: value}
}

type ArrayLiteral struct {
	base
	Elements []Expr
}

func NewArrayLiteral(interner *types.Interner, pos Position, element types.Type, elements []Expr) *ArrayLiteral {
	return &ArrayLiteral{base: newBase(interner.Array(element), pos), Elements: elements}
}

type TupleLiteral struct {
	base
	Elements []Expr
}

func NewTupleLiteral(interner *types.Interner, pos Position, elements []Expr) *TupleLiteral {
	elemTypes := make([]types.Type, len(elements))
	for i, e := range elements {
		elemTypes[i] = e.Type()
	}
	return &TupleLiteral{base: newBase(interner.Tuple(elemTypes), pos), Elements: elements}
}

// StructLiteral builds a value of a nominal struct type; Fields are
// positional, matching StructType.Fields order.
type StructLiteral struct {
	base
	Fields []Expr
}

func NewStructLiteral(pos Position, structType *types.StructType, fields []Expr) *StructLiteral {
	return &StructLiteral{base: newBase(structType, pos), Fields: fields}
}

// EnumLiteral builds a value of a nominal enum type selecting CaseIndex;
// Payload is VoidLiteral for a nullary case.
type EnumLiteral struct {
	base
	CaseIndex int
	Payload   Expr
}

func NewEnumLiteral(pos Position, enumType *types.EnumType, caseIndex int, payload Expr) *EnumLiteral {
	return &EnumLiteral{base: newBase(enumType, pos), CaseIndex: caseIndex, Payload: payload}
}

type BinaryExpression struct {
	base
	Op          BinaryOp
	Left, Right Expr
}

func NewBinaryExpression(interner *types.Interner, pos Position, op BinaryOp, left, right Expr) *BinaryExpression {
	resultType := left.Type()
	if op.IsComparison() {
		resultType = interner.Int()
	}
	return &BinaryExpression{base: newBase(resultType, pos), Op: op, Left: left, Right: right}
}

// If is block-scoped in both arms, matching the original's
// get_then_block/get_else_block: a branch can sequence more than one
// effect before yielding its value as the branch's last expression.
type If struct {
	base
	Condition  Expr
	Then, Else *Block
}

func NewIf(pos Position, resultType types.Type, condition Expr, thenBlock, elseBlock *Block) *If {
	return &If{base: newBase(resultType, pos), Condition: condition, Then: thenBlock, Else: elseBlock}
}

// SwitchCase binds Variable (if the case is non-nullary) to the payload
// and evaluates Body; cases must appear in exactly the scrutinee enum's
// declaration order (spec keeps strict positional matching).
type SwitchCase struct {
	CaseName string
	Variable *CaseVariable
	Body     *Block
}

type Switch struct {
	base
	Scrutinee Expr
	Cases     []SwitchCase
}

func NewSwitch(pos Position, resultType types.Type, scrutinee Expr, cases []SwitchCase) *Switch {
	return &Switch{base: newBase(resultType, pos), Scrutinee: scrutinee, Cases: cases}
}

type TupleAccess struct {
	base
	Tuple Expr
	Index int
}

func NewTupleAccess(pos Position, resultType types.Type, tuple Expr, index int) *TupleAccess {
	return &TupleAccess{base: newBase(resultType, pos), Tuple: tuple, Index: index}
}

type StructAccess struct {
	base
	Struct     Expr
	FieldIndex int
	FieldName  string
}

func NewStructAccess(pos Position, resultType types.Type, structExpr Expr, fieldIndex int, fieldName string) *StructAccess {
	return &StructAccess{base: newBase(resultType, pos), Struct: structExpr, FieldIndex: fieldIndex, FieldName: fieldName}
}

// Closure captures CapturedArgs by value and refers to Function; it is
// eliminated entirely by Pass L (erased into an EnumLiteral of a
// synthesized per-closure-type enum whose payload carries the captures).
type Closure struct {
	base
	CapturedArgs []Expr
	Function     *Function
}

func NewClosure(interner *types.Interner, pos Position, captured []Expr, fn *Function) *Closure {
	paramTypes := make([]types.Type, 0, len(fn.ArgumentTypes)-len(captured))
	if len(fn.ArgumentTypes) >= len(captured) {
		paramTypes = append(paramTypes, fn.ArgumentTypes[len(captured):]...)
	}
	return &Closure{base: newBase(interner.Closure(paramTypes, fn.ReturnType), pos), CapturedArgs: captured, Function: fn}
}

// ClosureAccess reads the Index'th captured argument of a closure value.
// Pass L replaces one whose operand is a closure literal with that
// captured expression and rejects any other.
type ClosureAccess struct {
	base
	Closure Expr
	Index   int
}

func NewClosureAccess(pos Position, resultType types.Type, closureExpr Expr, index int) *ClosureAccess {
	return &ClosureAccess{base: newBase(resultType, pos), Closure: closureExpr, Index: index}
}

// Argument reads the Index'th argument of the enclosing function.
type Argument struct {
	base
	Index int
}

func NewArgument(pos Position, argType types.Type, index int) *Argument {
	return &Argument{base: newBase(argType, pos), Index: index}
}

// CaseVariable reads the payload bound by the enclosing Switch case.
type CaseVariable struct {
	base
}

func NewCaseVariable(pos Position, payloadType types.Type) *CaseVariable {
	return &CaseVariable{base: newBase(payloadType, pos)}
}

type FunctionCall struct {
	base
	Function  *Function
	Arguments []Expr
}

func NewFunctionCall(pos Position, fn *Function, args []Expr) *FunctionCall {
	return &FunctionCall{base: newBase(fn.ReturnType, pos), Function: fn, Arguments: args}
}

// ClosureCall calls a first-class closure value. Pass T turns a call of
// a closure literal into a direct FunctionCall; Pass L turns every
// remaining one into a call of its closure type's dispatcher function.
type ClosureCall struct {
	base
	Closure   Expr
	Arguments []Expr
}

func NewClosureCall(pos Position, resultType types.Type, closureExpr Expr, args []Expr) *ClosureCall {
	return &ClosureCall{base: newBase(resultType, pos), Closure: closureExpr, Arguments: args}
}

// MethodCall is a method call pre-resolved by whatever produced this
// program (the irscript loader has no node kind for it). Method, when
// non-nil, is the resolved callee and must check to a FunctionCall, whose
// arguments follow the receiver and call arguments; Pass T trusts it and
// never re-resolves method names by itself except for the
// same-named-closure-field lookup, which it tries first.
type MethodCall struct {
	base
	Receiver   Expr
	MethodName string
	Method     Expr
	Arguments  []Expr
}

func NewMethodCall(pos Position, resultType types.Type, receiver Expr, methodName string, method Expr, args []Expr) *MethodCall {
	return &MethodCall{base: newBase(resultType, pos), Receiver: receiver, MethodName: methodName, Method: method, Arguments: args}
}

// IntrinsicName enumerates the fixed intrinsic catalog (spec §6).
type IntrinsicName string

const (
	IntrinsicPutChar               IntrinsicName = "putChar"
	IntrinsicPutStr                IntrinsicName = "putStr"
	IntrinsicGetChar               IntrinsicName = "getChar"
	IntrinsicArrayGet              IntrinsicName = "arrayGet"
	IntrinsicArrayLength            IntrinsicName = "arrayLength"
	IntrinsicArraySplice            IntrinsicName = "arraySplice"
	IntrinsicStringPush             IntrinsicName = "stringPush"
	IntrinsicStringIterator         IntrinsicName = "stringIterator"
	IntrinsicStringIteratorIsValid  IntrinsicName = "stringIteratorIsValid"
	IntrinsicStringIteratorGet      IntrinsicName = "stringIteratorGet"
	IntrinsicStringIteratorNext     IntrinsicName = "stringIteratorNext"
	IntrinsicReference              IntrinsicName = "reference"
	IntrinsicCopy                   IntrinsicName = "copy"
	IntrinsicFree                   IntrinsicName = "free"
	IntrinsicTypeOf                 IntrinsicName = "typeOf"
	IntrinsicArrayType              IntrinsicName = "arrayType"
	IntrinsicTupleType              IntrinsicName = "tupleType"
	IntrinsicReferenceType          IntrinsicName = "referenceType"
	IntrinsicError                  IntrinsicName = "error"
	IntrinsicImport                 IntrinsicName = "import"
)

// BorrowingIntrinsics don't consume their arguments: the memory-
// management pass frees them only if the call site was their final live
// use, and only after the call returns.
var BorrowingIntrinsics = map[IntrinsicName]bool{
	IntrinsicPutStr:               true,
	IntrinsicArrayGet:             true,
	IntrinsicArrayLength:          true,
	IntrinsicStringIteratorIsValid: true,
	IntrinsicStringIteratorGet:    true,
}

// CompileTimeOnlyIntrinsics must be fully evaluated away by Pass T; none
// may survive into the lowered IR.
var CompileTimeOnlyIntrinsics = map[IntrinsicName]bool{
	IntrinsicTypeOf:        true,
	IntrinsicArrayType:     true,
	IntrinsicTupleType:     true,
	IntrinsicReferenceType: true,
	IntrinsicError:         true,
	IntrinsicImport:        true,
}

type Intrinsic struct {
	base
	Name      IntrinsicName
	Arguments []Expr
}

func NewIntrinsic(pos Position, resultType types.Type, name IntrinsicName, args []Expr) *Intrinsic {
	return &Intrinsic{base: newBase(resultType, pos), Name: name, Arguments: args}
}

// Bind evaluates Left and Right in order purely for their effects; it
// introduces no name of its own. Its type and value are Right's — Left
// is evaluated and discarded. A value that needs to be read again after
// being computed is not named by a Bind; it is referenced again by
// sharing the same Expr node at more than one position in the block (see
// Block's doc comment on cross-expression, non-owning references).
type Bind struct {
	base
	Left, Right Expr
}

func NewBind(pos Position, left, right Expr) *Bind {
	return &Bind{base: newBase(right.Type(), pos), Left: left, Right: right}
}

// Return exits the enclosing function immediately with Value, short-
// circuiting the rest of the current block.
type Return struct {
	base
	Value Expr
}

func NewReturn(interner *types.Interner, pos Position, value Expr) *Return {
	return &Return{base: newBase(interner.Void(), pos), Value: value}
}

// Copy and Free are memory-management intrinsics inserted by Pass M; they
// reuse the Intrinsic node (IntrinsicCopy/IntrinsicFree) rather than
// separate node kinds, matching the single-entry intrinsic table of
// spec §6.
func NewCopy(pos Position, value Expr) *Intrinsic {
	return NewIntrinsic(pos, value.Type(), IntrinsicCopy, []Expr{value})
}

func NewFree(interner *types.Interner, pos Position, value Expr) *Intrinsic {
	return NewIntrinsic(pos, interner.Void(), IntrinsicFree, []Expr{value})
}
