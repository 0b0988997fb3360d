// Package irscript is the stand-in for "whatever parses source text into
// the core's typed intermediate representation" (spec's Non-goals
// explicitly keep the core itself parser-free). It reads a YAML document
// describing a Program's types and functions and builds an *ir.Program
// from it, decoding the YAML with github.com/goccy/go-yaml. It is deliberately not a full
// source-language front end: it is the fixture format the pipeline's
// tests, the "dump" and "demo" CLI subcommands, and any future real
// parser's golden tests can all share.
package irscript

import (
	"fmt"

	"github.com/goccy/go-yaml"

	"github.com/kestrelsoft/corec/internal/ir"
	"github.com/kestrelsoft/corec/internal/types"
)

// Document is the top-level YAML shape: named struct/enum declarations
// followed by an ordered function list (the first function is main).
type Document struct {
	Structs   []TypeDecl   `yaml:"structs"`
	Enums     []TypeDecl   `yaml:"enums"`
	Functions []FuncDecl   `yaml:"functions"`
}

// TypeDecl declares one nominal struct or enum by name and its ordered
// member list (field names for a struct, case names for an enum), each
// carrying a type expression string.
type TypeDecl struct {
	Name    string      `yaml:"name"`
	Members []MemberDecl `yaml:"members"`
}

type MemberDecl struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// FuncDecl declares one function: its argument type expressions and the
// expression tree making up its entry block.
type FuncDecl struct {
	Name      string     `yaml:"name"`
	Arguments []string   `yaml:"arguments"`
	Body      []NodeDecl `yaml:"body"`
}

// NodeDecl is a tagged union read from YAML: Kind selects which of the
// remaining fields apply, mirroring how the teacher's bytecode package
// decodes one opcode-tagged instruction at a time.
type NodeDecl struct {
	Kind string `yaml:"kind"`

	Int    *int32  `yaml:"int"`
	String *string `yaml:"string"`

	Op    string     `yaml:"op"`
	Left  *NodeDecl  `yaml:"left"`
	Right *NodeDecl  `yaml:"right"`

	Condition  *NodeDecl  `yaml:"condition"`
	Then       []NodeDecl `yaml:"then"`
	Else       []NodeDecl `yaml:"else"`

	Elements []NodeDecl `yaml:"elements"`
	Fields   []NodeDecl `yaml:"fields"`

	Tuple *NodeDecl `yaml:"tuple"`
	Index int        `yaml:"index"`

	Struct    *NodeDecl `yaml:"struct"`
	FieldName string     `yaml:"field_name"`

	Function  string     `yaml:"function"`
	Arguments []NodeDecl `yaml:"arguments"`

	Name string `yaml:"name"`

	Value *NodeDecl `yaml:"value"`

	// ID tags this node's built Expr so a later "ref" node elsewhere in
	// the same function can reuse the exact same object, the fixture
	// equivalent of the cross-expression node sharing every pass
	// produces (see Block's doc comment in package ir). Ref names the ID
	// to reuse.
	ID  string `yaml:"id"`
	Ref string `yaml:"ref"`

	EnumType  string     `yaml:"enum_type"`
	CaseName  string     `yaml:"case_name"`
	Payload   *NodeDecl  `yaml:"payload"`
	Scrutinee *NodeDecl  `yaml:"scrutinee"`
	Cases     []CaseDecl `yaml:"cases"`
}

// CaseDecl is one Switch arm: the enum case matched, whether the arm
// binds the case's payload to a CaseVariable, and the case's body.
type CaseDecl struct {
	Case string     `yaml:"case"`
	Bind bool       `yaml:"bind"`
	Body []NodeDecl `yaml:"body"`
}

// Load parses a YAML document into a Document.
func Load(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("irscript: %w", err)
	}
	return &doc, nil
}

// Builder turns a Document into an *ir.Program against a shared
// Interner, resolving type-expression strings and forward function-name
// references as it goes.
type Builder struct {
	interner *types.Interner
	structs  map[string]*types.StructType
	enums    map[string]*types.EnumType
	funcs    map[string]*ir.Function

	// currentArgTypes gives an "argument" node a type without the fixture
	// author repeating it, mirroring how Argument is resolved against a
	// live function body everywhere else in this repo.
	currentArgTypes []types.Type

	// shared resolves an "id"-tagged node's built Expr for a later "ref"
	// node in the same function, scoped per function like
	// currentArgTypes.
	shared map[string]ir.Expr
}

// NewBuilder returns a Builder writing into a fresh Interner.
func NewBuilder() *Builder {
	return &Builder{
		interner: types.NewInterner(),
		structs:  map[string]*types.StructType{},
		enums:    map[string]*types.EnumType{},
		funcs:    map[string]*ir.Function{},
	}
}

// Build constructs a Program from doc. Function bodies may reference any
// function declared anywhere in doc, including themselves and functions
// declared later, matching how a real parser would resolve top-level
// declarations.
func (b *Builder) Build(doc *Document) (*ir.Program, error) {
	for _, sd := range doc.Structs {
		b.structs[sd.Name] = b.interner.NewStruct(sd.Name)
	}
	for _, ed := range doc.Enums {
		b.enums[ed.Name] = b.interner.NewEnum(ed.Name)
	}
	for _, sd := range doc.Structs {
		fields := make([]types.StructField, len(sd.Members))
		for i, m := range sd.Members {
			t, err := b.resolveType(m.Type)
			if err != nil {
				return nil, err
			}
			fields[i] = types.StructField{Name: m.Name, Type: t}
		}
		b.structs[sd.Name].SetFields(fields)
	}
	for _, ed := range doc.Enums {
		cases := make([]types.EnumCase, len(ed.Members))
		for i, m := range ed.Members {
			t, err := b.resolveType(m.Type)
			if err != nil {
				return nil, err
			}
			cases[i] = types.EnumCase{Name: m.Name, Payload: t}
		}
		b.enums[ed.Name].SetCases(cases)
	}

	prog := ir.New(b.interner)
	for i, fd := range doc.Functions {
		argTypes := make([]types.Type, len(fd.Arguments))
		for i, a := range fd.Arguments {
			t, err := b.resolveType(a)
			if err != nil {
				return nil, err
			}
			argTypes[i] = t
		}
		fn := &ir.Function{Name: fd.Name, ArgumentTypes: argTypes, IsMain: i == 0}
		b.funcs[fd.Name] = fn
		prog.Functions = append(prog.Functions, fn)
	}
	for _, fd := range doc.Functions {
		fn := b.funcs[fd.Name]
		b.currentArgTypes = fn.ArgumentTypes
		b.shared = map[string]ir.Expr{}
		block, err := b.buildBlock(fd.Body)
		if err != nil {
			return nil, fmt.Errorf("irscript: function %s: %w", fd.Name, err)
		}
		fn.Entry = block
	}
	return prog, nil
}

func (b *Builder) buildBlock(decls []NodeDecl) (*ir.Block, error) {
	block := ir.NewBlock()
	for _, d := range decls {
		e, err := b.buildNode(d)
		if err != nil {
			return nil, err
		}
		block.Append(e)
	}
	return block, nil
}

var binaryOps = map[string]ir.BinaryOp{
	"+": ir.OpAdd, "-": ir.OpSub, "*": ir.OpMul, "/": ir.OpDiv, "%": ir.OpRem,
	"==": ir.OpEq, "!=": ir.OpNe, "<": ir.OpLt, "<=": ir.OpLe, ">": ir.OpGt, ">=": ir.OpGe,
}

func (b *Builder) buildNode(d NodeDecl) (ir.Expr, error) {
	pos := ir.Position{}
	if d.Kind == "ref" {
		e, ok := b.shared[d.Ref]
		if !ok {
			return nil, fmt.Errorf("ref to unknown id %q", d.Ref)
		}
		return e, nil
	}
	e, err := b.buildNodeKind(d, pos)
	if err != nil {
		return nil, err
	}
	if d.ID != "" {
		b.shared[d.ID] = e
	}
	return e, nil
}

func (b *Builder) buildNodeKind(d NodeDecl, pos ir.Position) (ir.Expr, error) {
	switch d.Kind {
	case "int":
		if d.Int == nil {
			return nil, fmt.Errorf("int node missing value")
		}
		return ir.NewIntLiteral(b.interner, pos, *d.Int), nil
	case "void":
		return ir.NewVoidLiteral(b.interner, pos), nil
	case "string":
		if d.String == nil {
			return nil, fmt.Errorf("string node missing value")
		}
		return ir.NewStringLiteral(b.interner, pos, *d.String), nil
	case "binary":
		op, ok := binaryOps[d.Op]
		if !ok {
			return nil, fmt.Errorf("unknown operator %q", d.Op)
		}
		left, err := b.buildNode(*d.Left)
		if err != nil {
			return nil, err
		}
		right, err := b.buildNode(*d.Right)
		if err != nil {
			return nil, err
		}
		return ir.NewBinaryExpression(b.interner, pos, op, left, right), nil
	case "if":
		cond, err := b.buildNode(*d.Condition)
		if err != nil {
			return nil, err
		}
		thenB, err := b.buildBlock(d.Then)
		if err != nil {
			return nil, err
		}
		elseB, err := b.buildBlock(d.Else)
		if err != nil {
			return nil, err
		}
		resultType := types.Type(b.interner.Void())
		if last := thenB.Last(); last != nil {
			resultType = last.Type()
		}
		return ir.NewIf(pos, resultType, cond, thenB, elseB), nil
	case "array":
		elems, err := b.buildNodes(d.Elements)
		if err != nil {
			return nil, err
		}
		elemType := types.Type(b.interner.Void())
		if len(elems) > 0 {
			elemType = elems[0].Type()
		}
		return ir.NewArrayLiteral(b.interner, pos, elemType, elems), nil
	case "tuple":
		elems, err := b.buildNodes(d.Elements)
		if err != nil {
			return nil, err
		}
		return ir.NewTupleLiteral(b.interner, pos, elems), nil
	case "tuple_access":
		tuple, err := b.buildNode(*d.Tuple)
		if err != nil {
			return nil, err
		}
		tt, ok := tuple.Type().(*types.TupleType)
		if !ok || d.Index >= len(tt.Elements) {
			return nil, fmt.Errorf("tuple_access: bad index %d", d.Index)
		}
		return ir.NewTupleAccess(pos, tt.Elements[d.Index], tuple, d.Index), nil
	case "struct":
		st, ok := b.structs[d.Name]
		if !ok {
			return nil, fmt.Errorf("unknown struct %q", d.Name)
		}
		fields, err := b.buildNodes(d.Fields)
		if err != nil {
			return nil, err
		}
		return ir.NewStructLiteral(pos, st, fields), nil
	case "struct_access":
		structExpr, err := b.buildNode(*d.Struct)
		if err != nil {
			return nil, err
		}
		st := types.AsStruct(structExpr.Type())
		if st == nil {
			return nil, fmt.Errorf("struct_access on non-struct type")
		}
		idx, ok := st.FieldIndex(d.FieldName)
		if !ok {
			return nil, fmt.Errorf("struct %s has no field %q", st.Name, d.FieldName)
		}
		return ir.NewStructAccess(pos, st.Fields[idx].Type, structExpr, idx, d.FieldName), nil
	case "enum":
		et, ok := b.enums[d.EnumType]
		if !ok {
			return nil, fmt.Errorf("unknown enum %q", d.EnumType)
		}
		idx, ok := et.CaseIndex(d.CaseName)
		if !ok {
			return nil, fmt.Errorf("enum %s has no case %q", et.Name, d.CaseName)
		}
		var payload ir.Expr
		var err error
		if d.Payload != nil {
			payload, err = b.buildNode(*d.Payload)
			if err != nil {
				return nil, err
			}
		} else {
			payload = ir.NewVoidLiteral(b.interner, pos)
		}
		return ir.NewEnumLiteral(pos, et, idx, payload), nil
	case "switch":
		scrutinee, err := b.buildNode(*d.Scrutinee)
		if err != nil {
			return nil, err
		}
		et := types.AsEnum(scrutinee.Type())
		if et == nil {
			return nil, fmt.Errorf("switch on non-enum type")
		}
		cases := make([]ir.SwitchCase, len(d.Cases))
		var resultType types.Type
		for i, cd := range d.Cases {
			idx, ok := et.CaseIndex(cd.Case)
			if !ok {
				return nil, fmt.Errorf("enum %s has no case %q", et.Name, cd.Case)
			}
			var variable *ir.CaseVariable
			if cd.Bind {
				variable = ir.NewCaseVariable(pos, et.Cases[idx].Payload)
			}
			body, err := b.buildBlock(cd.Body)
			if err != nil {
				return nil, err
			}
			if resultType == nil && body.Last() != nil {
				resultType = body.Last().Type()
			}
			cases[i] = ir.SwitchCase{CaseName: cd.Case, Variable: variable, Body: body}
		}
		if resultType == nil {
			resultType = b.interner.Void()
		}
		return ir.NewSwitch(pos, resultType, scrutinee, cases), nil
	case "call":
		fn, ok := b.funcs[d.Function]
		if !ok {
			return nil, fmt.Errorf("unknown function %q", d.Function)
		}
		args, err := b.buildNodes(d.Arguments)
		if err != nil {
			return nil, err
		}
		return ir.NewFunctionCall(pos, fn, args), nil
	case "argument":
		if d.Index < 0 || d.Index >= len(b.currentArgTypes) {
			return nil, fmt.Errorf("argument index %d out of range", d.Index)
		}
		return ir.NewArgument(pos, b.currentArgTypes[d.Index], d.Index), nil
	case "bind":
		left, err := b.buildNode(*d.Left)
		if err != nil {
			return nil, err
		}
		right, err := b.buildNode(*d.Right)
		if err != nil {
			return nil, err
		}
		return ir.NewBind(pos, left, right), nil
	case "return":
		val, err := b.buildNode(*d.Value)
		if err != nil {
			return nil, err
		}
		return ir.NewReturn(b.interner, pos, val), nil
	default:
		return nil, fmt.Errorf("unknown node kind %q", d.Kind)
	}
}

func (b *Builder) buildNodes(decls []NodeDecl) ([]ir.Expr, error) {
	out := make([]ir.Expr, len(decls))
	for i, d := range decls {
		e, err := b.buildNode(d)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

// resolveType parses a small type-expression grammar: Int, Void, String,
// StringIterator, Array<T>, Tuple<A,B,...>, Reference<T>, or a bare name
// naming a previously declared struct or enum.
func (b *Builder) resolveType(expr string) (types.Type, error) {
	switch expr {
	case "Int":
		return b.interner.Int(), nil
	case "Void":
		return b.interner.Void(), nil
	case "String":
		return b.interner.Str(), nil
	case "StringIterator":
		return b.interner.StringIterator(), nil
	}
	if inner, ok := unwrap(expr, "Array<", ">"); ok {
		elem, err := b.resolveType(inner)
		if err != nil {
			return nil, err
		}
		return b.interner.Array(elem), nil
	}
	if inner, ok := unwrap(expr, "Reference<", ">"); ok {
		elem, err := b.resolveType(inner)
		if err != nil {
			return nil, err
		}
		return b.interner.Reference(elem), nil
	}
	if inner, ok := unwrap(expr, "Tuple<", ">"); ok {
		parts := splitTopLevel(inner)
		elems := make([]types.Type, len(parts))
		for i, part := range parts {
			t, err := b.resolveType(part)
			if err != nil {
				return nil, err
			}
			elems[i] = t
		}
		return b.interner.Tuple(elems), nil
	}
	if st, ok := b.structs[expr]; ok {
		return st, nil
	}
	if et, ok := b.enums[expr]; ok {
		return et, nil
	}
	return nil, fmt.Errorf("irscript: unresolvable type expression %q", expr)
}

func unwrap(s, prefix, suffix string) (string, bool) {
	if len(s) < len(prefix)+len(suffix) {
		return "", false
	}
	if s[:len(prefix)] != prefix || s[len(s)-len(suffix):] != suffix {
		return "", false
	}
	return s[len(prefix) : len(s)-len(suffix)], true
}

func splitTopLevel(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '<':
			depth++
		case '>':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, trimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	parts = append(parts, trimSpace(s[start:]))
	return parts
}

func trimSpace(s string) string {
	for len(s) > 0 && s[0] == ' ' {
		s = s[1:]
	}
	for len(s) > 0 && s[len(s)-1] == ' ' {
		s = s[:len(s)-1]
	}
	return s
}
