// Package types implements the core's type system: a small set of
// structural types that are hash-consed by an Interner, and two nominal
// types (Struct, Enum) whose identity is their pointer, created via a
// handle-then-populate idiom so recursive type graphs can be built.
package types

import "fmt"

// Kind classifies a Type without requiring a type switch.
type Kind int

const (
	KindInt Kind = iota
	KindVoid
	KindString
	KindStringIterator
	KindArray
	KindTuple
	KindStruct
	KindEnum
	KindClosure
	KindReference
	KindTypeOfType
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "Int"
	case KindVoid:
		return "Void"
	case KindString:
		return "String"
	case KindStringIterator:
		return "StringIterator"
	case KindArray:
		return "Array"
	case KindTuple:
		return "Tuple"
	case KindStruct:
		return "Struct"
	case KindEnum:
		return "Enum"
	case KindClosure:
		return "Closure"
	case KindReference:
		return "Reference"
	case KindTypeOfType:
		return "TypeOfType"
	default:
		return "?"
	}
}

// Type is implemented by every member of the type system. Structural
// types are hash-consed: two Types with the same Kind and structure are
// the same Go value, so equality is pointer/interface equality once a
// type has passed through an Interner. Struct and Enum are nominal: two
// distinct NewStruct calls never compare equal even with identical
// fields.
type Type interface {
	Kind() Kind
	String() string
}

// IsEmpty reports whether a type carries no runtime representation: an
// empty tuple, a tuple all of whose elements are empty, or TypeOfType
// (spec Pass V elides exactly these; Void is a real zero-size value in
// its own right and is not elided).
func IsEmpty(t Type) bool {
	switch tt := t.(type) {
	case *TupleType:
		for _, e := range tt.Elements {
			if !IsEmpty(e) {
				return false
			}
		}
		return true
	case *TypeOfTypeType:
		return true
	default:
		return false
	}
}

type IntType struct{}

func (*IntType) Kind() Kind     { return KindInt }
func (*IntType) String() string { return "Int" }

type VoidType struct{}

func (*VoidType) Kind() Kind     { return KindVoid }
func (*VoidType) String() string { return "Void" }

type StringType struct{}

func (*StringType) Kind() Kind     { return KindString }
func (*StringType) String() string { return "String" }

type StringIteratorType struct{}

func (*StringIteratorType) Kind() Kind     { return KindStringIterator }
func (*StringIteratorType) String() string { return "StringIterator" }

type ArrayType struct{ Element Type }

func (*ArrayType) Kind() Kind { return KindArray }
func (a *ArrayType) String() string {
	return fmt.Sprintf("Array<%s>", a.Element.String())
}

type TupleType struct{ Elements []Type }

func (*TupleType) Kind() Kind { return KindTuple }
func (t *TupleType) String() string {
	s := "Tuple<"
	for i, e := range t.Elements {
		if i > 0 {
			s += ", "
		}
		s += e.String()
	}
	return s + ">"
}

type ClosureType struct {
	Params []Type
	Result Type
}

func (*ClosureType) Kind() Kind { return KindClosure }
func (c *ClosureType) String() string {
	s := "Closure("
	for i, p := range c.Params {
		if i > 0 {
			s += ", "
		}
		s += p.String()
	}
	return s + ") -> " + c.Result.String()
}

type ReferenceType struct{ Inner Type }

func (*ReferenceType) Kind() Kind { return KindReference }
func (r *ReferenceType) String() string {
	return fmt.Sprintf("Reference<%s>", r.Inner.String())
}

// TypeOfType is the type of a type literal used by compile-time-only
// intrinsics (typeOf, arrayType, tupleType, referenceType). Pass V
// elides every value of this type, since it never has a runtime
// representation.
type TypeOfTypeType struct{ Inner Type }

func (*TypeOfTypeType) Kind() Kind { return KindTypeOfType }
func (t *TypeOfTypeType) String() string {
	return fmt.Sprintf("TypeOf<%s>", t.Inner.String())
}

// StructField is one field of a nominal struct type, in declaration order.
type StructField struct {
	Name string
	Type Type
}

// StructType is a nominal, identity-based record type. It is created via
// Interner.NewStruct with no fields, then populated once via SetFields so
// a struct can hold a field whose type (directly or through an Array,
// Tuple, or Reference) is the struct itself.
type StructType struct {
	Name     string
	Fields   []StructField
	populated bool
}

func (*StructType) Kind() Kind     { return KindStruct }
func (s *StructType) String() string { return s.Name }

// SetFields populates a struct's field list. It may be called only once.
func (s *StructType) SetFields(fields []StructField) {
	if s.populated {
		panic("types: struct " + s.Name + " fields already set")
	}
	s.Fields = fields
	s.populated = true
}

func (s *StructType) FieldIndex(name string) (int, bool) {
	for i, f := range s.Fields {
		if f.Name == name {
			return i, true
		}
	}
	return 0, false
}

// EnumCase is one case of a nominal enum type. A nullary case's Payload
// is the Void type.
type EnumCase struct {
	Name    string
	Payload Type
}

// EnumType is a nominal, identity-based tagged-union type, created and
// populated the same way as StructType.
type EnumType struct {
	Name      string
	Cases     []EnumCase
	populated bool
}

func (*EnumType) Kind() Kind     { return KindEnum }
func (e *EnumType) String() string { return e.Name }

func (e *EnumType) SetCases(cases []EnumCase) {
	if e.populated {
		panic("types: enum " + e.Name + " cases already set")
	}
	e.Cases = cases
	e.populated = true
}

func (e *EnumType) CaseIndex(name string) (int, bool) {
	for i, c := range e.Cases {
		if c.Name == name {
			return i, true
		}
	}
	return 0, false
}

// Unwrap strips a single layer of Reference, returning the underlying
// type. It is used wherever the original allows "T or Reference<T>"
// (e.g. the reference, struct-access, and enum-switch rules).
func Unwrap(t Type) Type {
	if r, ok := t.(*ReferenceType); ok {
		return r.Inner
	}
	return t
}

// AsStruct returns the struct type underlying t, looking through at most
// one Reference layer, or nil if t is not a struct (possibly referenced).
func AsStruct(t Type) *StructType {
	s, _ := Unwrap(t).(*StructType)
	return s
}

// AsEnum is the enum analogue of AsStruct.
func AsEnum(t Type) *EnumType {
	e, _ := Unwrap(t).(*EnumType)
	return e
}
