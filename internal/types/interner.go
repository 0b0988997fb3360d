package types

// Interner hash-conses every structural Type so that structural equality
// reduces to Go equality. Its lifetime spans an entire pipeline run: a
// Program built through one pass keeps referencing Types produced by the
// same Interner the next pass reads from, exactly as the type interner
// outlives each individual pass in the original design.
//
// Struct and Enum are nominal, not hash-consed: NewStruct/NewEnum always
// allocate a fresh, distinct type, even when called twice with the same
// name and fields.
type Interner struct {
	intT            *IntType
	voidT           *VoidType
	stringT         *StringType
	stringIteratorT *StringIteratorType

	arrays      map[Type]*ArrayType
	tuples      map[string]*TupleType
	closures    map[string]*ClosureType
	references  map[Type]*ReferenceType
	typeOfTypes map[Type]*TypeOfTypeType

	structs []*StructType
	enums   []*EnumType
}

// NewInterner returns an Interner with the singleton primitive types
// already allocated.
func NewInterner() *Interner {
	return &Interner{
		intT:            &IntType{},
		voidT:           &VoidType{},
		stringT:         &StringType{},
		stringIteratorT: &StringIteratorType{},
		arrays:          make(map[Type]*ArrayType),
		tuples:          make(map[string]*TupleType),
		closures:        make(map[string]*ClosureType),
		references:      make(map[Type]*ReferenceType),
		typeOfTypes:     make(map[Type]*TypeOfTypeType),
	}
}

func (in *Interner) Int() *IntType                       { return in.intT }
func (in *Interner) Void() *VoidType                     { return in.voidT }
func (in *Interner) Str() *StringType                    { return in.stringT }
func (in *Interner) StringIterator() *StringIteratorType { return in.stringIteratorT }

func (in *Interner) Array(element Type) *ArrayType {
	if a, ok := in.arrays[element]; ok {
		return a
	}
	a := &ArrayType{Element: element}
	in.arrays[element] = a
	return a
}

func (in *Interner) Tuple(elements []Type) *TupleType {
	key := tupleKey(elements)
	if t, ok := in.tuples[key]; ok {
		return t
	}
	cp := append([]Type(nil), elements...)
	t := &TupleType{Elements: cp}
	in.tuples[key] = t
	return t
}

func (in *Interner) Closure(params []Type, result Type) *ClosureType {
	key := tupleKey(params) + "->" + result.String()
	if c, ok := in.closures[key]; ok {
		return c
	}
	cp := append([]Type(nil), params...)
	c := &ClosureType{Params: cp, Result: result}
	in.closures[key] = c
	return c
}

func (in *Interner) Reference(inner Type) *ReferenceType {
	if r, ok := in.references[inner]; ok {
		return r
	}
	r := &ReferenceType{Inner: inner}
	in.references[inner] = r
	return r
}

func (in *Interner) TypeOfType(inner Type) *TypeOfTypeType {
	if t, ok := in.typeOfTypes[inner]; ok {
		return t
	}
	t := &TypeOfTypeType{Inner: inner}
	in.typeOfTypes[inner] = t
	return t
}

// NewStruct allocates a fresh, empty, nominal struct type. Call SetFields
// once the field types (possibly referencing the struct itself) are
// known.
func (in *Interner) NewStruct(name string) *StructType {
	s := &StructType{Name: name}
	in.structs = append(in.structs, s)
	return s
}

// NewEnum is the enum analogue of NewStruct.
func (in *Interner) NewEnum(name string) *EnumType {
	e := &EnumType{Name: name}
	in.enums = append(in.enums, e)
	return e
}

func tupleKey(elements []Type) string {
	key := "("
	for i, e := range elements {
		if i > 0 {
			key += ","
		}
		key += e.String()
	}
	return key + ")"
}
