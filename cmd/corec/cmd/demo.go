package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kestrelsoft/corec/internal/config"
	"github.com/kestrelsoft/corec/internal/irdump"
	"github.com/kestrelsoft/corec/internal/irscript"
	"github.com/kestrelsoft/corec/internal/pipeline"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a small built-in program through every pass and show each stage",
	RunE: func(cmd *cobra.Command, args []string) error {
		doc := builtinDemo()
		prog, err := irscript.NewBuilder().Build(doc)
		if err != nil {
			return err
		}
		res, err := pipeline.Run(prog, config.Default(), noImporter{})
		if err != nil {
			return err
		}
		for _, stage := range pipeline.Ordered {
			fmt.Printf("=== %s ===\n", stage)
			fmt.Print(irdump.Text(res.Stages[stage]))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(demoCmd)
}

// builtinDemo mirrors the constant-folding and inlining scenarios: main
// computes (1+2)*3 through a helper called twice, both call sites small
// enough for Pass I to inline, leaving the helper with no callers, so
// Pass I drops it from the program itself.
func builtinDemo() *irscript.Document {
	one := func() irscript.NodeDecl { v := int32(1); return irscript.NodeDecl{Kind: "int", Int: &v} }
	two := func() irscript.NodeDecl { v := int32(2); return irscript.NodeDecl{Kind: "int", Int: &v} }
	three := func() irscript.NodeDecl { v := int32(3); return irscript.NodeDecl{Kind: "int", Int: &v} }

	sumThenTriple := irscript.NodeDecl{
		Kind: "binary", Op: "*",
		Left: &irscript.NodeDecl{
			Kind: "binary", Op: "+",
			Left:  ptr(one()),
			Right: ptr(two()),
		},
		Right: ptr(three()),
	}

	helper := irscript.FuncDecl{
		Name:      "helper",
		Arguments: nil,
		Body:      []irscript.NodeDecl{sumThenTriple},
	}

	callHelper := irscript.NodeDecl{Kind: "call", Function: "helper"}

	main := irscript.FuncDecl{
		Name:      "main",
		Arguments: nil,
		Body: []irscript.NodeDecl{
			{Kind: "bind", Left: ptr(callHelper), Right: ptr(irscript.NodeDecl{
				Kind: "bind", Left: ptr(callHelper), Right: ptr(irscript.NodeDecl{Kind: "void"}),
			})},
		},
	}

	return &irscript.Document{Functions: []irscript.FuncDecl{main, helper}}
}

func ptr(n irscript.NodeDecl) *irscript.NodeDecl { return &n }
