// Package store keeps a history of aggregation runs.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/d1j/facebook-stats/internal/data/aggregator"
)

// ErrNotFound is returned by GetRun for unknown ids.
var ErrNotFound = errors.New("run not found")

// RunRecord is one stored run. Series is nil for runs that only produced a
// matrix.
type RunRecord struct {
	ID         string                   `json:"id"`
	CreatedAt  time.Time                `json:"createdAt"`
	Command    string                   `json:"command"`
	ArchiveDir string                   `json:"archiveDir"`
	Timezone   string                   `json:"timezone"`
	Files      int                      `json:"files"`
	Events     int                      `json:"events"`
	Snapshot   *aggregator.Snapshot     `json:"snapshot,omitempty"`
	Series     *aggregator.BucketSeries `json:"series,omitempty"`
}

// RunSummary is a listing entry.
type RunSummary struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"createdAt"`
	Command      string    `json:"command"`
	ArchiveDir   string    `json:"archiveDir"`
	Reaction     string    `json:"reaction"`
	Participants int       `json:"participants"`
	Events       int       `json:"events"`
	SeriesPoints int       `json:"seriesPoints"`
}

// Store persists runs.
type Store interface {
	SaveRun(ctx context.Context, run *RunRecord) (string, error)
	ListRuns(ctx context.Context, limit int) ([]RunSummary, error)
	GetRun(ctx context.Context, id string) (*RunRecord, error)
	Close() error
}
