package commands

import (
	"github.com/spf13/cobra"

	"github.com/d1j/facebook-stats/internal/analyzer"
	"github.com/d1j/facebook-stats/internal/data/aggregator"
	"github.com/d1j/facebook-stats/internal/presentation/formatter"
	"github.com/d1j/facebook-stats/internal/store"
	"github.com/d1j/facebook-stats/internal/util"
)

var (
	seriesFrom        string
	seriesTo          string
	seriesGranularity string
	seriesMetric      string
	seriesDirection   string
)

var seriesCmd = &cobra.Command{
	Use:   "series",
	Short: "Print a gap-free activity series per participant",
	Long: `Counts messages or reactions per participant per calendar day or month.
Every participant active in the range gets one row per bucket, zero included,
so the output can be charted directly.

Bounds are calendar dates in --timezone and both are inclusive. A --to given
as YYYY-MM covers that whole month. When omitted they are taken from the first
and last observation.`,
	RunE: runSeries,
}

func init() {
	rootCmd.AddCommand(seriesCmd)

	seriesCmd.Flags().StringVar(&seriesFrom, "from", "",
		"First bucket (YYYY-MM-DD or YYYY-MM)")
	seriesCmd.Flags().StringVar(&seriesTo, "to", "",
		"Last bucket (YYYY-MM-DD, or YYYY-MM for the whole month)")
	seriesCmd.Flags().StringVar(&seriesGranularity, "granularity", string(aggregator.GranularityDay),
		"Bucket size (day, month)")
	seriesCmd.Flags().StringVar(&seriesMetric, "metric", string(aggregator.MetricMessages),
		"What to count (messages, reactions)")
	seriesCmd.Flags().StringVar(&seriesDirection, "direction", string(aggregator.DirectionSent),
		"Attribute to the sender (sent) or the message author (received)")
}

func seriesRequest() (analyzer.SeriesRequest, error) {
	var req analyzer.SeriesRequest
	var err error

	if req.Granularity, err = aggregator.ParseGranularity(seriesGranularity); err != nil {
		return req, err
	}
	if req.Metric, err = aggregator.ParseMetric(seriesMetric); err != nil {
		return req, err
	}
	if req.Direction, err = aggregator.ParseDirection(seriesDirection); err != nil {
		return req, err
	}

	tp := util.GetTimeProvider()
	if req.From, err = tp.ParseDate(seriesFrom); err != nil {
		return req, err
	}
	if req.To, err = tp.ParseEndDate(seriesTo); err != nil {
		return req, err
	}
	return req, nil
}

func runSeries(cmd *cobra.Command, args []string) error {
	f, err := formatter.NewSeriesFormatter(outputFormat)
	if err != nil {
		return err
	}
	req, err := seriesRequest()
	if err != nil {
		return err
	}

	dataset, err := loadDataset(cmd.Context())
	if err != nil {
		return err
	}

	series, err := dataset.Series(req)
	if err != nil {
		return err
	}
	if series.Skipped > 0 {
		util.LogWarnf("Skipped %d observations of unknown participants %v", series.Skipped, series.UnknownNames)
	}

	if err := f.FormatSeries(cmd.OutOrStdout(), series); err != nil {
		return err
	}

	return recordRun(cmd.Context(), &store.RunRecord{
		Command: "series",
		Series:  series,
	}, dataset)
}
