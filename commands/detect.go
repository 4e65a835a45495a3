package commands

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/d1j/facebook-stats/internal/analyzer"
	"github.com/d1j/facebook-stats/internal/core/model"
	"github.com/d1j/facebook-stats/internal/util"
)

var detectCmd = &cobra.Command{
	Use:    "detect",
	Short:  "Debug command to analyze the archive and print ingestion results",
	Long:   `Loads the archive and prints what happened to every fragment and record, without aggregating.`,
	Hidden: true, // Hidden from help
	RunE:   runDetect,
}

func init() {
	rootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, args []string) error {
	dataset, err := loadDataset(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load archive: %w", err)
	}
	dataset.Matrix()

	printDetection(cmd.OutOrStdout(), dataset)
	return nil
}

func printDetection(w io.Writer, dataset *analyzer.Dataset) {
	stats := dataset.Stats
	rule := strings.Repeat("=", 60)

	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "=== Archive Detection ===")
	fmt.Fprintf(w, "Timestamp: %s\n", util.GetTimeProvider().Now().Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(w, "Data Directory: %s\n", expandPath(dataDir))
	fmt.Fprintf(w, "Timezone: %s\n", dataset.Location)
	fmt.Fprintf(w, "Reaction: %s\n", reactionName(dataset.Reaction))
	fmt.Fprintln(w, rule)

	fmt.Fprintln(w, "=== Fragments ===")
	fmt.Fprintf(w, "Files: %d (%d failed)\n", stats.Files, stats.FailedFiles)
	for _, file := range dataset.Files {
		fmt.Fprintf(w, "  %s\n", file)
	}
	if stats.CacheHits+stats.CacheMisses > 0 {
		fmt.Fprintf(w, "Cache: %d hits, %d misses (%.1f%% hit rate)\n",
			stats.CacheHits, stats.CacheMisses, stats.HitRate())
		reasons := make([]string, 0, len(stats.MissReasons))
		for reason := range stats.MissReasons {
			reasons = append(reasons, reason)
		}
		sort.Strings(reasons)
		for _, reason := range reasons {
			fmt.Fprintf(w, "  miss %s: %d\n", reason, stats.MissReasons[reason])
		}
	}
	fmt.Fprintln(w, rule)

	fmt.Fprintln(w, "=== Records ===")
	fmt.Fprintf(w, "Messages: %s\n", util.FormatNumber(stats.Messages))
	fmt.Fprintf(w, "Malformed: %s\n", util.FormatNumber(stats.Malformed))
	fmt.Fprintf(w, "Unsent: %s\n", util.FormatNumber(stats.Unsent))
	fmt.Fprintf(w, "Duplicates: %s\n", util.FormatNumber(stats.Duplicates))
	fmt.Fprintf(w, "Events: %s\n", util.FormatNumber(stats.Events))
	fmt.Fprintln(w, rule)

	fmt.Fprintln(w, "=== Participants ===")
	fmt.Fprintf(w, "Registered: %d\n", stats.Participants)
	for _, id := range dataset.Registry.SortedIDs() {
		name, _ := dataset.Registry.Name(id)
		fmt.Fprintf(w, "  %s\n", name)
	}
	if len(stats.UnknownNames) > 0 {
		fmt.Fprintf(w, "Unknown: %s (%d messages, %d reactions skipped)\n",
			strings.Join(stats.UnknownNames, ", "), stats.UnknownSenders, stats.UnknownActors)
	}
	fmt.Fprintln(w, rule)
}

func reactionName(reaction string) string {
	if reaction == model.ReactionAny {
		return "any"
	}
	return reaction
}
