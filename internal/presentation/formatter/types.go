package formatter

import (
	"errors"
	"fmt"
	"io"

	"github.com/d1j/facebook-stats/internal/data/aggregator"
	"github.com/d1j/facebook-stats/internal/store"
)

// Output formats accepted by --output.
const (
	FormatTable   = "table"
	FormatCSV     = "csv"
	FormatJSON    = "json"
	FormatSummary = "summary"
)

var ErrUnsupportedFormat = errors.New("unsupported output format")

// MatrixFormatter renders a reaction matrix snapshot.
type MatrixFormatter interface {
	FormatMatrix(w io.Writer, snapshot aggregator.Snapshot) error
}

// SeriesFormatter renders a dense bucket series.
type SeriesFormatter interface {
	FormatSeries(w io.Writer, series *aggregator.BucketSeries) error
}

// ActivityFormatter renders an activity summary.
type ActivityFormatter interface {
	FormatActivity(w io.Writer, summary aggregator.ActivitySummary) error
}

// RunsFormatter renders the run history.
type RunsFormatter interface {
	FormatRuns(w io.Writer, runs []store.RunSummary) error
}

func unsupported(format, what string) error {
	return fmt.Errorf("%w: %q for %s", ErrUnsupportedFormat, format, what)
}

func NewMatrixFormatter(format string) (MatrixFormatter, error) {
	switch format {
	case FormatTable, "":
		return NewTableFormatter(), nil
	case FormatCSV:
		return NewCSVFormatter(), nil
	case FormatJSON:
		return NewJSONFormatter(), nil
	default:
		return nil, unsupported(format, "report")
	}
}

func NewSeriesFormatter(format string) (SeriesFormatter, error) {
	switch format {
	case FormatCSV, "":
		return NewCSVFormatter(), nil
	case FormatTable:
		return NewTableFormatter(), nil
	case FormatJSON:
		return NewJSONFormatter(), nil
	default:
		return nil, unsupported(format, "series")
	}
}

func NewActivityFormatter(format string) (ActivityFormatter, error) {
	switch format {
	case FormatSummary, FormatTable, "":
		return NewSummaryFormatter(), nil
	case FormatJSON:
		return NewJSONFormatter(), nil
	default:
		return nil, unsupported(format, "summary")
	}
}

func NewRunsFormatter(format string) (RunsFormatter, error) {
	switch format {
	case FormatTable, "":
		return NewTableFormatter(), nil
	case FormatJSON:
		return NewJSONFormatter(), nil
	default:
		return nil, unsupported(format, "history")
	}
}
