package irscript

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelsoft/corec/internal/ir"
)

const sumDoc = `
functions:
  - name: main
    body:
      - kind: binary
        op: "+"
        left:
          kind: int
          int: 1
        right:
          kind: int
          int: 2
`

func TestLoadAndBuildSimpleExpression(t *testing.T) {
	doc, err := Load([]byte(sumDoc))
	require.NoError(t, err)
	require.Len(t, doc.Functions, 1)

	prog, err := NewBuilder().Build(doc)
	require.NoError(t, err)
	require.Len(t, prog.Functions, 1)

	main := prog.Main()
	assert.True(t, main.IsMain)
	bin, ok := main.Entry.Last().(*ir.BinaryExpression)
	require.True(t, ok)
	assert.Equal(t, ir.OpAdd, bin.Op)
}

const structDoc = `
structs:
  - name: Pair
    members:
      - name: first
        type: Int
      - name: second
        type: Int
functions:
  - name: main
    body:
      - kind: struct_access
        struct:
          kind: struct
          name: Pair
          fields:
            - kind: int
              int: 10
            - kind: int
              int: 20
        field_name: second
`

func TestStructRoundTrip(t *testing.T) {
	doc, err := Load([]byte(structDoc))
	require.NoError(t, err)

	prog, err := NewBuilder().Build(doc)
	require.NoError(t, err)

	access, ok := prog.Main().Entry.Last().(*ir.StructAccess)
	require.True(t, ok)
	assert.Equal(t, 1, access.FieldIndex)
	assert.Equal(t, "second", access.FieldName)
}

const bindDoc = `
functions:
  - name: main
    arguments: ["Int"]
    body:
      - kind: bind
        left:
          kind: argument
          index: 0
        right:
          kind: argument
          index: 0
`

func TestBindEvaluatesBothSidesTypesAfterRight(t *testing.T) {
	doc, err := Load([]byte(bindDoc))
	require.NoError(t, err)

	prog, err := NewBuilder().Build(doc)
	require.NoError(t, err)

	main := prog.Main()
	require.Len(t, main.Entry.Exprs, 1)

	bind, ok := main.Entry.Exprs[0].(*ir.Bind)
	require.True(t, ok)

	left, ok := bind.Left.(*ir.Argument)
	require.True(t, ok)
	assert.Equal(t, 0, left.Index)

	right, ok := bind.Right.(*ir.Argument)
	require.True(t, ok)
	assert.Equal(t, 0, right.Index)

	assert.Equal(t, bind.Right.Type(), bind.Type(), "Bind's type is that of its right side")
}

const sharedNodeDoc = `
functions:
  - name: main
    body:
      - kind: int
        int: 7
        id: seven
      - kind: bind
        left:
          kind: ref
          ref: seven
        right:
          kind: ref
          ref: seven
`

// TestRefReusesSharedNode checks that an "id"-tagged node and a later
// "ref" to it resolve to the exact same *ir.Expr object, the fixture
// format's way of expressing the IR's DAG-shaped node sharing (see
// Block's doc comment in package ir).
func TestRefReusesSharedNode(t *testing.T) {
	doc, err := Load([]byte(sharedNodeDoc))
	require.NoError(t, err)

	prog, err := NewBuilder().Build(doc)
	require.NoError(t, err)

	main := prog.Main()
	require.Len(t, main.Entry.Exprs, 2)

	seven, ok := main.Entry.Exprs[0].(*ir.IntLiteral)
	require.True(t, ok)

	bind, ok := main.Entry.Exprs[1].(*ir.Bind)
	require.True(t, ok)

	assert.Same(t, seven, bind.Left, "left ref must resolve to the exact same node")
	assert.Same(t, seven, bind.Right, "right ref must resolve to the exact same node")
}

func TestRefToUnknownIDErrors(t *testing.T) {
	doc := &Document{Functions: []FuncDecl{{Name: "main", Body: []NodeDecl{{Kind: "ref", Ref: "missing"}}}}}
	_, err := NewBuilder().Build(doc)
	assert.Error(t, err)
}

func TestUnknownNodeKindErrors(t *testing.T) {
	doc := &Document{Functions: []FuncDecl{{Name: "main", Body: []NodeDecl{{Kind: "bogus"}}}}}
	_, err := NewBuilder().Build(doc)
	assert.Error(t, err)
}
