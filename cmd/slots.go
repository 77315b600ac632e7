package cmd

import (
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/batterycare/core/model"
	"github.com/kilianp07/batterycare/core/scheduler"
	"github.com/kilianp07/batterycare/pkg/export"
)

var (
	slotsBase string
	slotsOut  string
)

var slotsCmd = &cobra.Command{
	Use:   "slots",
	Short: "List the dealer availability pool",
	RunE:  runSlots,
}

func init() {
	slotsCmd.Flags().StringVar(&slotsBase, "base", "", "base date (YYYY-MM-DD, default today)")
	slotsCmd.Flags().StringVarP(&slotsOut, "out", "o", "", "output CSV file (default stdout)")
	rootCmd.AddCommand(slotsCmd)
}

func runSlots(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	base := time.Now()
	if slotsBase != "" {
		if base, err = time.Parse(model.DateLayout, slotsBase); err != nil {
			return err
		}
	}
	pool := scheduler.BuildPool(cfg.Scheduler, base)
	return writeOutput(cmd.OutOrStdout(), slotsOut, func(w io.Writer) error {
		return export.WriteSlotsCSV(w, pool)
	})
}
