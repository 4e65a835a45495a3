package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/d1j/facebook-stats/internal/presentation/formatter"
	"github.com/d1j/facebook-stats/internal/store"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List recorded runs, or print one of them",
	Long: `Runs are recorded when --db is given. Without arguments the most recent runs
are listed; with a run id the stored matrix or series is printed again.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVar(&historyLimit, "limit", 20,
		"Number of runs to list (0 = all)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	path := dbPath
	if path == "" {
		path = defaultDBPath
	}

	s, err := store.NewSQLiteStore(expandPath(path))
	if err != nil {
		return fmt.Errorf("failed to open run history: %w", err)
	}
	defer s.Close()

	out := cmd.OutOrStdout()
	if len(args) == 0 {
		f, err := formatter.NewRunsFormatter(outputFormat)
		if err != nil {
			return err
		}
		runs, err := s.ListRuns(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		return f.FormatRuns(out, runs)
	}

	run, err := s.GetRun(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if run.Snapshot != nil {
		f, err := formatter.NewMatrixFormatter(outputFormat)
		if err != nil {
			return err
		}
		if err := f.FormatMatrix(out, *run.Snapshot); err != nil {
			return err
		}
	}
	if run.Series != nil {
		f, err := formatter.NewSeriesFormatter(outputFormat)
		if err != nil {
			return err
		}
		if err := f.FormatSeries(out, run.Series); err != nil {
			return err
		}
	}
	return nil
}
