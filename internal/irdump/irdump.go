// Package irdump renders a *ir.Program for human inspection: an indented
// text tree for terminal output, and a JSON document built incrementally
// with github.com/tidwall/sjson (queryable afterward with
// github.com/tidwall/gjson) for tooling that wants to pick one field out
// of a large dump without decoding the whole thing into Go structs —
// the same tradeoff the teacher's own jsonvalue package makes for
// dynamically shaped script values.
package irdump

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/kestrelsoft/corec/internal/ir"
)

// Text renders prog as an indented tree, one function per top-level
// entry.
func Text(prog *ir.Program) string {
	var sb strings.Builder
	for _, fn := range prog.Functions {
		fmt.Fprintf(&sb, "func %s(%d args) -> %s {\n", fn.Name, len(fn.ArgumentTypes), typeString(fn.ReturnType))
		writeBlock(&sb, fn.Entry, 1)
		sb.WriteString("}\n")
	}
	return sb.String()
}

func typeString(t interface{ String() string }) string {
	if t == nil {
		return "?"
	}
	return t.String()
}

func indent(sb *strings.Builder, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
}

func writeBlock(sb *strings.Builder, b *ir.Block, depth int) {
	if b == nil {
		return
	}
	for _, e := range b.Exprs {
		writeExpr(sb, e, depth)
	}
}

func writeExpr(sb *strings.Builder, e ir.Expr, depth int) {
	indent(sb, depth)
	switch n := e.(type) {
	case *ir.IntLiteral:
		fmt.Fprintf(sb, "int %d\n", n.Value)
	case *ir.VoidLiteral:
		sb.WriteString("void\n")
	case *ir.StringLiteral:
		fmt.Fprintf(sb, "string %q\n", n.Value)
	case *ir.TypeLiteral:
		fmt.Fprintf(sb, "type %s\n", n.Value.String())
	case *ir.ArrayLiteral:
		fmt.Fprintf(sb, "array[%d] {\n", len(n.Elements))
		for _, el := range n.Elements {
			writeExpr(sb, el, depth+1)
		}
		indent(sb, depth)
		sb.WriteString("}\n")
	case *ir.TupleLiteral:
		fmt.Fprintf(sb, "tuple[%d] {\n", len(n.Elements))
		for _, el := range n.Elements {
			writeExpr(sb, el, depth+1)
		}
		indent(sb, depth)
		sb.WriteString("}\n")
	case *ir.StructLiteral:
		fmt.Fprintf(sb, "struct %s {\n", n.Type().String())
		for _, f := range n.Fields {
			writeExpr(sb, f, depth+1)
		}
		indent(sb, depth)
		sb.WriteString("}\n")
	case *ir.EnumLiteral:
		fmt.Fprintf(sb, "enum %s#%d {\n", n.Type().String(), n.CaseIndex)
		writeExpr(sb, n.Payload, depth+1)
		indent(sb, depth)
		sb.WriteString("}\n")
	case *ir.BinaryExpression:
		fmt.Fprintf(sb, "binary %s {\n", n.Op.String())
		writeExpr(sb, n.Left, depth+1)
		writeExpr(sb, n.Right, depth+1)
		indent(sb, depth)
		sb.WriteString("}\n")
	case *ir.If:
		sb.WriteString("if {\n")
		writeExpr(sb, n.Condition, depth+1)
		indent(sb, depth)
		sb.WriteString("then\n")
		writeBlock(sb, n.Then, depth+1)
		indent(sb, depth)
		sb.WriteString("else\n")
		writeBlock(sb, n.Else, depth+1)
		indent(sb, depth)
		sb.WriteString("}\n")
	case *ir.Switch:
		sb.WriteString("switch {\n")
		writeExpr(sb, n.Scrutinee, depth+1)
		for _, c := range n.Cases {
			indent(sb, depth+1)
			fmt.Fprintf(sb, "case %s:\n", c.CaseName)
			writeBlock(sb, c.Body, depth+2)
		}
		indent(sb, depth)
		sb.WriteString("}\n")
	case *ir.TupleAccess:
		fmt.Fprintf(sb, "tuple_access #%d {\n", n.Index)
		writeExpr(sb, n.Tuple, depth+1)
		indent(sb, depth)
		sb.WriteString("}\n")
	case *ir.StructAccess:
		fmt.Fprintf(sb, "struct_access .%s {\n", n.FieldName)
		writeExpr(sb, n.Struct, depth+1)
		indent(sb, depth)
		sb.WriteString("}\n")
	case *ir.Closure:
		fmt.Fprintf(sb, "closure %s [%d captured]\n", n.Function.Name, len(n.CapturedArgs))
	case *ir.ClosureAccess:
		fmt.Fprintf(sb, "closure_access #%d\n", n.Index)
	case *ir.Argument:
		fmt.Fprintf(sb, "argument #%d\n", n.Index)
	case *ir.CaseVariable:
		sb.WriteString("case_variable\n")
	case *ir.FunctionCall:
		fmt.Fprintf(sb, "call %s {\n", n.Function.Name)
		for _, a := range n.Arguments {
			writeExpr(sb, a, depth+1)
		}
		indent(sb, depth)
		sb.WriteString("}\n")
	case *ir.ClosureCall:
		sb.WriteString("closure_call {\n")
		writeExpr(sb, n.Closure, depth+1)
		for _, a := range n.Arguments {
			writeExpr(sb, a, depth+1)
		}
		indent(sb, depth)
		sb.WriteString("}\n")
	case *ir.MethodCall:
		fmt.Fprintf(sb, "method_call .%s {\n", n.MethodName)
		writeExpr(sb, n.Receiver, depth+1)
		for _, a := range n.Arguments {
			writeExpr(sb, a, depth+1)
		}
		indent(sb, depth)
		sb.WriteString("}\n")
	case *ir.Intrinsic:
		fmt.Fprintf(sb, "intrinsic %s {\n", n.Name)
		for _, a := range n.Arguments {
			writeExpr(sb, a, depth+1)
		}
		indent(sb, depth)
		sb.WriteString("}\n")
	case *ir.Bind:
		sb.WriteString("bind {\n")
		writeExpr(sb, n.Left, depth+1)
		writeExpr(sb, n.Right, depth+1)
		indent(sb, depth)
		sb.WriteString("}\n")
	case *ir.Return:
		sb.WriteString("return {\n")
		writeExpr(sb, n.Value, depth+1)
		indent(sb, depth)
		sb.WriteString("}\n")
	default:
		fmt.Fprintf(sb, "<%T>\n", e)
	}
}

// JSON renders prog as a JSON object whose "functions" array holds, per
// function, its name, return type, argument count, statement count, and
// main flag — enough for a caller to
// query with gjson without pulling in this package's own types.
func JSON(prog *ir.Program) (string, error) {
	doc := "{}"
	var err error
	for i, fn := range prog.Functions {
		base := fmt.Sprintf("functions.%d", i)
		if doc, err = sjson.Set(doc, base+".name", fn.Name); err != nil {
			return "", err
		}
		if doc, err = sjson.Set(doc, base+".returnType", typeString(fn.ReturnType)); err != nil {
			return "", err
		}
		if doc, err = sjson.Set(doc, base+".argumentCount", len(fn.ArgumentTypes)); err != nil {
			return "", err
		}
		if doc, err = sjson.Set(doc, base+".statementCount", len(fn.Entry.Exprs)); err != nil {
			return "", err
		}
		if doc, err = sjson.Set(doc, base+".isMain", fn.IsMain); err != nil {
			return "", err
		}
	}
	return doc, nil
}

// FunctionNames queries a dump produced by JSON for the ordered list of
// function names, demonstrating the gjson side of the round trip.
func FunctionNames(doc string) []string {
	var names []string
	for _, r := range gjson.Get(doc, "functions.#.name").Array() {
		names = append(names, r.String())
	}
	return names
}
