package formatter

import (
	"io"

	"github.com/bytedance/sonic"

	"github.com/d1j/facebook-stats/internal/data/aggregator"
	"github.com/d1j/facebook-stats/internal/store"
)

type JSONFormatter struct{}

func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

func (f *JSONFormatter) FormatMatrix(w io.Writer, snapshot aggregator.Snapshot) error {
	return f.encode(w, snapshot)
}

func (f *JSONFormatter) FormatSeries(w io.Writer, series *aggregator.BucketSeries) error {
	return f.encode(w, series)
}

func (f *JSONFormatter) FormatActivity(w io.Writer, summary aggregator.ActivitySummary) error {
	return f.encode(w, summary)
}

func (f *JSONFormatter) FormatRuns(w io.Writer, runs []store.RunSummary) error {
	if runs == nil {
		runs = []store.RunSummary{}
	}
	return f.encode(w, runs)
}

func (f *JSONFormatter) encode(w io.Writer, v any) error {
	// ConfigStd keeps map keys sorted and HTML escaping identical to encoding/json.
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
