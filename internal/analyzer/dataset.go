package analyzer

import (
	"time"

	"github.com/d1j/facebook-stats/internal/core/model"
	"github.com/d1j/facebook-stats/internal/core/registry"
	"github.com/d1j/facebook-stats/internal/data/aggregator"
)

// Dataset is a loaded archive: the participant registry and the normalized
// events, ready to be aggregated any number of times.
type Dataset struct {
	Registry *registry.Registry
	Events   []*model.Event
	Files    []string
	Stats    *IngestStats
	Reaction string
	Location *time.Location
}

// SeriesRequest selects a time series.
type SeriesRequest struct {
	Metric      aggregator.Metric
	Direction   aggregator.Direction
	Granularity aggregator.Granularity
	From        *time.Time
	To          *time.Time
}

// Matrix folds every event into a fresh interaction matrix.
func (d *Dataset) Matrix() (aggregator.Snapshot, aggregator.FoldReport) {
	m := aggregator.NewMatrix(d.Registry, d.Reaction)
	report := m.FoldAll(d.Events)
	d.Stats.RecordFold(report)
	return m.Snapshot(), report
}

// Series builds the dense time series described by req.
func (d *Dataset) Series(req SeriesRequest) (*aggregator.BucketSeries, error) {
	observations, err := aggregator.Observe(d.Events, req.Metric, req.Direction)
	if err != nil {
		return nil, err
	}

	return aggregator.NewSeriesAggregator(d.Registry).Aggregate(observations, aggregator.SeriesOptions{
		Granularity: req.Granularity,
		From:        req.From,
		To:          req.To,
		Location:    d.Location,
	})
}

// Activity tallies per-sender activity.
func (d *Dataset) Activity() aggregator.ActivitySummary {
	return aggregator.SummarizeActivity(d.Events, d.Location)
}
