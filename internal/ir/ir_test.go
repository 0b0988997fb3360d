package ir

import (
	"testing"

	"github.com/kestrelsoft/corec/internal/types"
)

func TestBlockAppendAndLast(t *testing.T) {
	in := types.NewInterner()
	b := NewBlock()
	if b.Last() != nil {
		t.Fatalf("empty block's Last must be nil")
	}
	first := NewIntLiteral(in, Position{}, 1)
	second := NewIntLiteral(in, Position{}, 2)
	b.Append(first)
	b.Append(second)
	if b.Last() != second {
		t.Fatalf("Last must return the most recently appended expression")
	}
	if len(b.Exprs) != 2 {
		t.Fatalf("expected 2 expressions, got %d", len(b.Exprs))
	}
}

func TestProgramMainIsFirstFunction(t *testing.T) {
	in := types.NewInterner()
	p := New(in)
	if p.Main() != nil {
		t.Fatalf("empty program's Main must be nil")
	}
	main := &Function{Name: "main", IsMain: true, Entry: NewBlock()}
	other := &Function{Name: "helper", Entry: NewBlock()}
	p.Functions = append(p.Functions, main, other)
	if p.Main() != main {
		t.Fatalf("Main must return the first declared function")
	}
}

func TestStringLiteralNormalizesToNFC(t *testing.T) {
	in := types.NewInterner()
	// "e" followed by a combining acute accent (U+0065 U+0301) must
	// normalize to the single precomposed rune U+00E9.
	decomposed := "é"
	lit := NewStringLiteral(in, Position{}, decomposed)
	precomposed := "é"
	if lit.Value != precomposed {
		t.Fatalf("expected NFC-normalized value %q, got %q", precomposed, lit.Value)
	}
	if len([]rune(lit.Value)) != 1 {
		t.Fatalf("expected normalization to collapse to a single rune, got %d", len([]rune(lit.Value)))
	}
}

func TestPositionStringHandlesUnknownFile(t *testing.T) {
	if got := (Position{}).String(); got != "<unknown>" {
		t.Fatalf("expected <unknown> for a zero Position, got %q", got)
	}
	if got := (Position{File: "a.ir"}).String(); got != "a.ir" {
		t.Fatalf("expected file name to be returned verbatim, got %q", got)
	}
}
