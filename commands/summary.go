package commands

import (
	"github.com/spf13/cobra"

	"github.com/d1j/facebook-stats/internal/presentation/formatter"
	"github.com/d1j/facebook-stats/internal/presentation/interaction"
)

var (
	summarySort    string
	summaryReverse bool
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarize messages, media and calls per sender",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)

	summaryCmd.Flags().StringVar(&summarySort, "sort", "name",
		"Order participants by name, messages, photos, videos or calls")
	summaryCmd.Flags().BoolVar(&summaryReverse, "reverse", false,
		"Reverse the sort order")
}

func runSummary(cmd *cobra.Command, args []string) error {
	f, err := formatter.NewActivityFormatter(outputFormat)
	if err != nil {
		return err
	}
	field, err := interaction.ParseSortField(summarySort)
	if err != nil {
		return err
	}

	dataset, err := loadDataset(cmd.Context())
	if err != nil {
		return err
	}

	summary := dataset.Activity()
	interaction.NewActivitySorter(field, summaryReverse).Sort(summary.Participants)
	return f.FormatActivity(cmd.OutOrStdout(), summary)
}
