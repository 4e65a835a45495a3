package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/d1j/facebook-stats/internal/analyzer"
	"github.com/d1j/facebook-stats/internal/data/watcher"
	"github.com/d1j/facebook-stats/internal/presentation/formatter"
	"github.com/d1j/facebook-stats/internal/store"
	"github.com/d1j/facebook-stats/internal/util"
)

var watchDebounce string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-print the reaction matrix whenever the archive changes",
	Long: `Prints the report once, then watches the archive directory and prints it
again after fragments are added, replaced or removed. Unchanged fragments are
served from the cache. Stop with Ctrl+C.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVar(&watchDebounce, "debounce", "2s",
		"Quiet period after the last change before re-running")
}

func runWatch(cmd *cobra.Command, args []string) error {
	quiet, err := time.ParseDuration(watchDebounce)
	if err != nil || quiet <= 0 {
		return fmt.Errorf("invalid debounce %q: use a positive duration such as 2s", watchDebounce)
	}
	f, err := formatter.NewMatrixFormatter(outputFormat)
	if err != nil {
		return err
	}
	a, err := newAnalyzer()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fw, err := watcher.NewFileWatcher([]string{expandPath(dataDir)})
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", dataDir, err)
	}
	defer fw.Close()

	out := cmd.OutOrStdout()
	if err := renderOnce(ctx, a, f, out); err != nil {
		return err
	}

	return watchLoop(ctx, watcher.Debounce(ctx, fw.Events(), quiet), func(batch []watcher.FileEvent) error {
		util.LogInfo("Archive changed", util.Field{Key: "events", Value: len(batch)})
		fmt.Fprintf(out, "\n%s: %d change(s)\n", util.GetTimeProvider().Format(time.Now(), "2006-01-02 15:04:05"), len(batch))
		return renderOnce(ctx, a, f, out)
	})
}

// watchLoop calls render for each batch until the batches end or ctx is done.
// A failed render is logged and the loop keeps going.
func watchLoop(ctx context.Context, batches <-chan []watcher.FileEvent, render func([]watcher.FileEvent) error) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case batch, ok := <-batches:
			if !ok {
				return nil
			}
			if err := render(batch); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				util.LogError("Re-run failed", util.Field{Key: "error", Value: err.Error()})
			}
		}
	}
}

func renderOnce(ctx context.Context, a *analyzer.Analyzer, f formatter.MatrixFormatter, out io.Writer) error {
	dataset, err := a.Load(ctx)
	if err != nil {
		return err
	}
	snapshot, _ := dataset.Matrix()
	if err := f.FormatMatrix(out, snapshot); err != nil {
		return err
	}
	return recordRun(ctx, &store.RunRecord{Command: "watch", Snapshot: &snapshot}, dataset)
}
