package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kestrelsoft/corec/internal/corecerr"
	"github.com/kestrelsoft/corec/internal/irdump"
	"github.com/kestrelsoft/corec/internal/pipeline"
)

var (
	dumpStage  string
	dumpFormat string
)

var dumpCmd = &cobra.Command{
	Use:   "dump <program.yaml>",
	Short: "Run the pipeline and render one intermediate stage",
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
				return fmt.Errorf("%s", diag.Format(true))
			}
			return err
		}
		stage, ok := res.Stages[pipeline.StageName(dumpStage)]
		if !ok {
			return fmt.Errorf("unknown stage %q (want one of %v)", dumpStage, pipeline.Ordered)
		}
		switch dumpFormat {
		case "text":
			fmt.Print(irdump.Text(stage))
		case "json":
			doc, err := irdump.JSON(stage)
			if err != nil {
				return err
			}
			fmt.Println(doc)
		default:
			return fmt.Errorf("unknown format %q (want text or json)", dumpFormat)
		}
		return nil
	},
}

func init() {
	dumpCmd.Flags().StringVar(&dumpStage, "stage", string(pipeline.StageTailCall), "pipeline stage to render")
	dumpCmd.Flags().StringVar(&dumpFormat, "format", "text", "output format: text or json")
	rootCmd.AddCommand(dumpCmd)
}
