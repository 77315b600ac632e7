package cmd

import (
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/batterycare/core/model"
	"github.com/kilianp07/batterycare/pkg/export"
	"github.com/kilianp07/batterycare/simulator"
)

var (
	genDays  int
	genSeed  int64
	genStart string
	genOut   string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a synthetic telemetry file",
	RunE:  runGenerate,
}

func init() {
	def := simulator.DefaultConfig()
	generateCmd.Flags().IntVar(&genDays, "days", def.Days, "number of daily readings")
	generateCmd.Flags().Int64Var(&genSeed, "seed", def.Seed, "random seed")
	generateCmd.Flags().StringVar(&genStart, "start", def.Start.Format(model.DateLayout), "first reading date (YYYY-MM-DD)")
	generateCmd.Flags().StringVarP(&genOut, "out", "o", "", "output CSV file (default stdout)")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	start, err := time.Parse(model.DateLayout, genStart)
	if err != nil {
		return err
	}
	cfg := simulator.DefaultConfig()
	cfg.Days = genDays
	cfg.Seed = genSeed
	cfg.Start = start
	records, err := simulator.Generate(cfg)
	if err != nil {
		return err
	}
	return writeOutput(cmd.OutOrStdout(), genOut, func(w io.Writer) error {
		return export.WriteTelemetryCSV(w, records)
	})
}
