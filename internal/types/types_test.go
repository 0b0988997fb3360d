package types

import "testing"

func TestArraysAreHashConsedByElement(t *testing.T) {
	in := NewInterner()
	a := in.Array(in.Int())
	b := in.Array(in.Int())
	if a != b {
		t.Fatalf("expected Array<Int> to be the same pointer both times, got %p and %p", a, b)
	}
	c := in.Array(in.Str())
	if a == c {
		t.Fatalf("Array<Int> and Array<String> must not alias")
	}
}

func TestTuplesAreHashConsedByShape(t *testing.T) {
	in := NewInterner()
	a := in.Tuple([]Type{in.Int(), in.Str()})
	b := in.Tuple([]Type{in.Int(), in.Str()})
	if a != b {
		t.Fatalf("expected identical tuple shapes to intern to the same pointer")
	}
	c := in.Tuple([]Type{in.Str(), in.Int()})
	if a == c {
		t.Fatalf("differently ordered tuple shapes must not alias")
	}
}

func TestStructsAreNominalNotHashConsed(t *testing.T) {
	in := NewInterner()
	a := in.NewStruct("Point")
	a.SetFields([]StructField{{Name: "x", Type: in.Int()}})
	b := in.NewStruct("Point")
	b.SetFields([]StructField{{Name: "x", Type: in.Int()}})
	if a == b {
		t.Fatalf("two NewStruct calls with identical names/fields must still be distinct types")
	}
}

func TestSetFieldsTwiceOnSameStructPanics(t *testing.T) {
	in := NewInterner()
	s := in.NewStruct("Dup")
	s.SetFields([]StructField{{Name: "a", Type: in.Int()}})

	defer func() {
		if recover() == nil {
			t.Fatalf("expected SetFields to panic the second time")
		}
	}()
	s.SetFields([]StructField{{Name: "b", Type: in.Int()}})
}

func TestSelfReferentialStructViaReference(t *testing.T) {
	in := NewInterner()
	node := in.NewStruct("Node")
	node.SetFields([]StructField{
		{Name: "value", Type: in.Int()},
		{Name: "next", Type: in.Reference(node)},
	})
	if node.Fields[1].Type.(*ReferenceType).Inner != node {
		t.Fatalf("a struct must be able to reference itself through a Reference field")
	}
}

func TestIsEmpty(t *testing.T) {
	in := NewInterner()
	cases := []struct {
		t     Type
		empty bool
	}{
		{in.Void(), false},
		{in.TypeOfType(in.Int()), true},
		{in.Int(), false},
		{in.Str(), false},
		{in.Array(in.Int()), false},
	}
	for _, c := range cases {
		if got := IsEmpty(c.t); got != c.empty {
			t.Errorf("IsEmpty(%s) = %v, want %v", c.t.String(), got, c.empty)
		}
	}
}

func TestAsStructLooksThroughOneReferenceLayer(t *testing.T) {
	in := NewInterner()
	s := in.NewStruct("S")
	s.SetFields(nil)
	ref := in.Reference(s)
	if AsStruct(ref) != s {
		t.Fatalf("AsStruct must unwrap a single Reference layer")
	}
	if AsStruct(in.Int()) != nil {
		t.Fatalf("AsStruct on a non-struct type must return nil")
	}
}
