package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	coreknowledge "github.com/kilianp07/batterycare/core/knowledge"
	"github.com/kilianp07/batterycare/infra/knowledge"
)

var (
	kbPath    string
	kbSize    int
	kbOverlap int
)

var knowledgeCmd = &cobra.Command{
	Use:   "knowledge",
	Short: "Manage the service manual index",
}

var ingestCmd = &cobra.Command{
	Use:   "ingest <manual.txt>...",
	Short: "Split manuals into sections and store them in the SQLite index",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&kbPath, "db", "", "index path (default knowledge.conf.path or knowledge.db)")
	ingestCmd.Flags().IntVar(&kbSize, "chunk-size", coreknowledge.DefaultChunkSize, "chunk size in characters")
	ingestCmd.Flags().IntVar(&kbOverlap, "chunk-overlap", coreknowledge.DefaultChunkOverlap, "overlap between chunks")
	knowledgeCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(knowledgeCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := kbPath
	if path == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		path, _ = cfg.Knowledge.Conf["path"].(string)
	}
	if path == "" {
		path = "knowledge.db"
	}
	idx, err := knowledge.NewSQLiteIndex(path)
	if err != nil {
		return err
	}
	defer func() { _ = idx.Close() }()

	for _, name := range args {
		f, err := os.Open(name)
		if err != nil {
			return err
		}
		n, err := idx.Ingest(cmd.Context(), filepath.Base(name), f, kbSize, kbOverlap)
		_ = f.Close()
		if err != nil {
			return fmt.Errorf("ingest %s: %w", name, err)
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %d chunks\n", name, n)
	}
	total, err := idx.Count(cmd.Context())
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "index %s holds %d chunks\n", path, total)
	return nil
}
