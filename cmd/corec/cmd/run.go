package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kestrelsoft/corec/internal/corecerr"
	"github.com/kestrelsoft/corec/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run <program.yaml>",
	Short: "Run the full pipeline over a program and report the result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prog, err := loadProgram(args[0])
		if err != nil {
			return err
		}
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		res, err := pipeline.Run(prog, cfg, noImporter{})
		if err != nil {
			if diag, ok := err.(*corecerr.Diagnostic); ok {
				fmt.Println(diag.Format(true))
				return fmt.Errorf("pipeline failed")
			}
			return err
		}
		fmt.Printf("ok: %d functions survived the pipeline\n", len(res.Final.Functions))
		if res.TailCall != nil {
			fmt.Printf("tail calls marked: %d\n", len(res.TailCall.TailCalls))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
