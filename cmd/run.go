package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/batterycare/app"
	"github.com/kilianp07/batterycare/infra/telemetry"
	"github.com/kilianp07/batterycare/pkg/export"
)

var runOut string

var runCmd = &cobra.Command{
	Use:   "run <telemetry.csv>",
	Short: "Run the workflow once over a telemetry file and print the artifact",
	Args:  cobra.ExactArgs(1),
	RunE:  runOnce,
}

func init() {
	runCmd.Flags().StringVarP(&runOut, "out", "o", "", "write the artifact to this file instead of stdout")
	rootCmd.AddCommand(runCmd)
}

func runOnce(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	records, err := telemetry.LoadFile(args[0])
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer closeService(svc)

	res, runErr := svc.Run(ctx, records)
	if res.DeliveryErr != nil {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "notification not delivered: %v\n", res.DeliveryErr)
	}
	if err := writeOutput(cmd.OutOrStdout(), runOut, func(w io.Writer) error {
		return export.WriteState(w, res.State)
	}); err != nil {
		return err
	}
	return runErr
}

// writeOutput writes to path, or to stdout when path is empty.
func writeOutput(stdout io.Writer, path string, write func(io.Writer) error) error {
	if path == "" {
		return write(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
