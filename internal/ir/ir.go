// Package ir implements the core's typed intermediate representation:
// expressions organized into blocks, blocks owned by functions, and an
// ordered list of functions forming a program. Every pass consumes one
// *Program and produces a freshly built *Program; nodes are immutable
// after insertion into a block except for a function's ReturnType (set
// once, lazily, by Pass T) and a nominal type's field/case list.
package ir

import "github.com/kestrelsoft/corec/internal/types"

// Position is a source location carried on every expression for
// diagnostics. It is set by whatever produces the partially-typed
// program the core consumes (a parser, or — in this repo — the
// irscript loader) and carried forward unchanged by every pass.
type Position struct {
	File   string
	Line   int
	Column int
}

func (p Position) String() string {
	if p.File == "" {
		return "<unknown>"
	}
	return p.File
}

// Expr is implemented by every IR expression node. Nodes never mutate
// after being linked into a Block; a pass that needs a different result
// builds a brand new node instead.
type Expr interface {
	Type() types.Type
	Pos() Position
	exprNode()
}

type base struct {
	typ types.Type
	pos Position
}

func (b *base) Type() types.Type { return b.typ }
func (b *base) Pos() Position    { return b.pos }
func (b *base) exprNode()        {}

func newBase(t types.Type, pos Position) base { return base{typ: t, pos: pos} }

// Block is an ordered sequence of expressions. The last expression is
// the block's value (and, for a function's entry block, its implicit
// return unless an earlier Return fires first).
type Block struct {
	Exprs []Expr
}

func NewBlock() *Block { return &Block{} }

func (b *Block) Append(e Expr) Expr {
	b.Exprs = append(b.Exprs, e)
	return e
}

// Last returns the block's final expression, or nil for an empty block.
func (b *Block) Last() Expr {
	if len(b.Exprs) == 0 {
		return nil
	}
	return b.Exprs[len(b.Exprs)-1]
}

// Function owns exactly one entry block. ReturnType is nil until Pass T
// resolves it; a premature recursive read of an unresolved ReturnType is
// the "cannot determine return type of recursive call" error.
type Function struct {
	Name          string
	ArgumentTypes []types.Type
	ReturnType    types.Type
	Entry         *Block
	IsMain        bool
}

// Program is an ordered list of functions; by convention the first is
// main, taking no arguments. After Pass T, main returns Void.
type Program struct {
	Functions []*Function
	Interner  *types.Interner
}

func (p *Program) Main() *Function {
	if len(p.Functions) == 0 {
		return nil
	}
	return p.Functions[0]
}

// New returns an empty Program sharing the given Interner. Each pass
// allocates its destination Program with New, using the same Interner
// instance as its input so types remain comparable across the pipeline.
func New(interner *types.Interner) *Program {
	return &Program{Interner: interner}
}
