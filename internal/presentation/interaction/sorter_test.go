package interaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d1j/facebook-stats/internal/data/aggregator"
)

func participants() []aggregator.ActivityStats {
	return []aggregator.ActivityStats{
		{Name: "Ona", Messages: 5, Photos: 1},
		{Name: "Petras", Messages: 9, Photos: 1},
		{Name: "Žygimantas", Messages: 2, Calls: 3},
		{Name: "Agnė", Messages: 5},
	}
}

func names(ps []aggregator.ActivityStats) []string {
	var out []string
	for _, p := range ps {
		out = append(out, p.Name)
	}
	return out
}

func TestActivitySorter(t *testing.T) {
	tests := []struct {
		name     string
		field    SortField
		reverse  bool
		expected []string
	}{
		{"by name", SortByName, false, []string{"Agnė", "Ona", "Petras", "Žygimantas"}},
		{"by name reversed", SortByName, true, []string{"Žygimantas", "Petras", "Ona", "Agnė"}},
		{"by messages ties by name", SortByMessages, false, []string{"Petras", "Agnė", "Ona", "Žygimantas"}},
		{"by messages reversed", SortByMessages, true, []string{"Žygimantas", "Agnė", "Ona", "Petras"}},
		{"by photos", SortByPhotos, false, []string{"Ona", "Petras", "Agnė", "Žygimantas"}},
		{"by calls", SortByCalls, false, []string{"Žygimantas", "Agnė", "Ona", "Petras"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ps := participants()
			NewActivitySorter(tt.field, tt.reverse).Sort(ps)
			assert.Equal(t, tt.expected, names(ps))
		})
	}
}

func TestParseSortField(t *testing.T) {
	field, err := ParseSortField("videos")
	require.NoError(t, err)
	assert.Equal(t, SortByVideos, field)

	_, err = ParseSortField("cost")
	assert.ErrorContains(t, err, `invalid sort field "cost"`)
}
