package aggregator

import (
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d1j/facebook-stats/internal/core/model"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 15, 30, 0, 0, time.UTC)
}

func datePtr(t time.Time) *time.Time {
	return &t
}

func dayOptions() SeriesOptions {
	return SeriesOptions{Granularity: GranularityDay, Location: time.UTC}
}

func TestAggregateDailyFillsGaps(t *testing.T) {
	agg := NewSeriesAggregator(newRegistry("Alice", "Bob"))
	observations := []Observation{
		{Participant: "Alice", At: day(2019, 8, 1)},
		{Participant: "Alice", At: day(2019, 8, 1)},
		{Participant: "Bob", At: day(2019, 8, 5)},
	}

	series, err := agg.Aggregate(observations, dayOptions())

	require.NoError(t, err)
	assert.Equal(t, "2019-08-01", series.From)
	assert.Equal(t, "2019-08-05", series.To)
	assert.Equal(t, []string{"Alice", "Bob"}, series.Participants)

	alice := series.ForParticipant("Alice")
	require.Len(t, alice, 5)
	assert.Equal(t, []int{2, 0, 0, 0, 0}, counts(alice))

	bob := series.ForParticipant("Bob")
	require.Len(t, bob, 5)
	assert.Equal(t, []int{0, 0, 0, 0, 1}, counts(bob))
	assert.Equal(t, []string{"2019-08-01", "2019-08-02", "2019-08-03", "2019-08-04", "2019-08-05"}, dates(bob))
}

func TestAggregateMonthlySpansEmptyMonth(t *testing.T) {
	agg := NewSeriesAggregator(newRegistry("Alice"))
	observations := []Observation{
		{Participant: "Alice", At: day(2020, 1, 15)},
		{Participant: "Alice", At: day(2020, 3, 3)},
		{Participant: "Alice", At: day(2020, 3, 31)},
	}

	series, err := agg.Aggregate(observations, SeriesOptions{Granularity: GranularityMonth, Location: time.UTC})

	require.NoError(t, err)
	points := series.ForParticipant("Alice")
	assert.Equal(t, []string{"2020-01-01", "2020-02-01", "2020-03-01"}, dates(points))
	assert.Equal(t, []int{1, 0, 2}, counts(points))
}

func TestAggregateMonthlyAcrossYearEnd(t *testing.T) {
	agg := NewSeriesAggregator(newRegistry("Alice"))
	observations := []Observation{
		{Participant: "Alice", At: day(2019, 11, 30)},
		{Participant: "Alice", At: day(2020, 2, 29)},
	}

	series, err := agg.Aggregate(observations, SeriesOptions{Granularity: GranularityMonth, Location: time.UTC})

	require.NoError(t, err)
	assert.Equal(t, []string{"2019-11-01", "2019-12-01", "2020-01-01", "2020-02-01"}, dates(series.Points))
}

func TestAggregateDailyAcrossLeapDay(t *testing.T) {
	agg := NewSeriesAggregator(newRegistry("Alice"))
	observations := []Observation{
		{Participant: "Alice", At: day(2020, 2, 28)},
		{Participant: "Alice", At: day(2020, 3, 1)},
	}

	series, err := agg.Aggregate(observations, dayOptions())

	require.NoError(t, err)
	assert.Equal(t, []string{"2020-02-28", "2020-02-29", "2020-03-01"}, dates(series.Points))
}

func TestAggregateUsesLocalCalendarDate(t *testing.T) {
	vilnius, err := time.LoadLocation("Europe/Vilnius")
	require.NoError(t, err)
	agg := NewSeriesAggregator(newRegistry("Alice"))
	// 22:30 UTC on Aug 1 is already Aug 2 in Vilnius.
	observations := []Observation{{Participant: "Alice", At: time.Date(2019, 8, 1, 22, 30, 0, 0, time.UTC)}}

	series, err := agg.Aggregate(observations, SeriesOptions{Granularity: GranularityDay, Location: vilnius})

	require.NoError(t, err)
	assert.Equal(t, "2019-08-02", series.From)
}

func TestAggregateDSTTransition(t *testing.T) {
	vilnius, err := time.LoadLocation("Europe/Vilnius")
	require.NoError(t, err)
	agg := NewSeriesAggregator(newRegistry("Alice"))
	observations := []Observation{
		{Participant: "Alice", At: time.Date(2019, 10, 26, 12, 0, 0, 0, vilnius)},
		{Participant: "Alice", At: time.Date(2019, 10, 28, 12, 0, 0, 0, vilnius)},
	}

	series, err := agg.Aggregate(observations, SeriesOptions{Granularity: GranularityDay, Location: vilnius})

	require.NoError(t, err)
	assert.Equal(t, []string{"2019-10-26", "2019-10-27", "2019-10-28"}, dates(series.Points))
}

func TestAggregateExplicitRange(t *testing.T) {
	agg := NewSeriesAggregator(newRegistry("Alice", "Bob"))
	observations := []Observation{
		{Participant: "Alice", At: day(2019, 8, 1)},
		{Participant: "Bob", At: day(2019, 8, 10)},
		{Participant: "Alice", At: day(2019, 8, 4)},
	}

	t.Run("restrict", func(t *testing.T) {
		opts := dayOptions()
		opts.From = datePtr(day(2019, 8, 3))
		opts.To = datePtr(day(2019, 8, 5))

		series, err := agg.Aggregate(observations, opts)

		require.NoError(t, err)
		assert.Equal(t, []string{"Alice"}, series.Participants, "Bob has no data inside the range")
		assert.Equal(t, []int{0, 1, 0}, counts(series.Points))
	})

	t.Run("extend", func(t *testing.T) {
		opts := dayOptions()
		opts.From = datePtr(day(2019, 7, 30))

		series, err := agg.Aggregate(observations, opts)

		require.NoError(t, err)
		assert.Equal(t, "2019-07-30", series.From)
		assert.Equal(t, "2019-08-10", series.To)
		assert.Len(t, series.ForParticipant("Bob"), 12)
	})

	t.Run("month_bounds_truncate", func(t *testing.T) {
		opts := SeriesOptions{Granularity: GranularityMonth, Location: time.UTC}
		opts.From = datePtr(day(2019, 7, 20))

		series, err := agg.Aggregate(observations, opts)

		require.NoError(t, err)
		assert.Equal(t, "2019-07-01", series.From)
		assert.Equal(t, []string{"2019-07-01", "2019-07-01", "2019-08-01", "2019-08-01"}, dates(series.Points))
	})
}

func TestAggregateGapFreeProperty(t *testing.T) {
	agg := NewSeriesAggregator(newRegistry("Ada", "Ben", "Cid"))
	var observations []Observation
	for i, name := range []string{"Ada", "Ben", "Cid", "Ada", "Cid"} {
		observations = append(observations, Observation{Participant: name, At: day(2019, 1, 1).AddDate(0, 0, i*17)})
	}

	series, err := agg.Aggregate(observations, dayOptions())
	require.NoError(t, err)

	seen := make(map[string]map[string]int)
	for _, p := range series.Points {
		if seen[p.Participant] == nil {
			seen[p.Participant] = make(map[string]int)
		}
		seen[p.Participant][p.Date]++
	}

	steps := 0
	for d := day(2019, 1, 1); !d.After(day(2019, 3, 10)); d = d.AddDate(0, 0, 1) {
		steps++
		for _, name := range series.Participants {
			assert.Equal(t, 1, seen[name][d.Format("2006-01-02")], "%s on %s", name, d.Format("2006-01-02"))
		}
	}
	assert.Len(t, series.Points, steps*3)
}

func TestAggregateSortedByDateThenParticipantOrder(t *testing.T) {
	agg := NewSeriesAggregator(newRegistry("Zed", "Amy"))
	observations := []Observation{
		{Participant: "Amy", At: day(2019, 8, 2)},
		{Participant: "Zed", At: day(2019, 8, 1)},
	}

	series, err := agg.Aggregate(observations, dayOptions())

	require.NoError(t, err)
	var order []string
	for _, p := range series.Points {
		order = append(order, p.Date+" "+p.Participant)
	}
	assert.Equal(t, []string{
		"2019-08-01 Zed", "2019-08-01 Amy",
		"2019-08-02 Zed", "2019-08-02 Amy",
	}, order)
}

func TestAggregateErrors(t *testing.T) {
	agg := NewSeriesAggregator(newRegistry("Alice"))

	t.Run("empty_without_bounds", func(t *testing.T) {
		_, err := agg.Aggregate(nil, dayOptions())
		assert.ErrorIs(t, err, ErrEmptyRange)
	})

	t.Run("empty_with_one_bound", func(t *testing.T) {
		opts := dayOptions()
		opts.From = datePtr(day(2019, 8, 1))
		_, err := agg.Aggregate(nil, opts)
		assert.ErrorIs(t, err, ErrEmptyRange)
	})

	t.Run("empty_with_both_bounds", func(t *testing.T) {
		opts := dayOptions()
		opts.From = datePtr(day(2019, 8, 1))
		opts.To = datePtr(day(2019, 8, 3))
		series, err := agg.Aggregate(nil, opts)
		require.NoError(t, err)
		assert.Empty(t, series.Points)
	})

	t.Run("empty_with_bounds_at_zero_time", func(t *testing.T) {
		opts := dayOptions()
		opts.From = datePtr(time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC))
		opts.To = datePtr(time.Date(1, 1, 3, 0, 0, 0, 0, time.UTC))
		series, err := agg.Aggregate(nil, opts)
		require.NoError(t, err)
		assert.Equal(t, "0001-01-01", series.From)
		assert.Equal(t, "0001-01-03", series.To)
	})

	t.Run("inverted_range", func(t *testing.T) {
		opts := dayOptions()
		opts.From = datePtr(day(2019, 8, 5))
		opts.To = datePtr(day(2019, 8, 1))
		_, err := agg.Aggregate([]Observation{{Participant: "Alice", At: day(2019, 8, 2)}}, opts)

		assert.ErrorIs(t, err, ErrInvalidRange)
		var rangeErr *InvalidRangeError
		assert.True(t, errors.As(err, &rangeErr))
	})
}

func TestAggregateSkipsUnknownParticipants(t *testing.T) {
	agg := NewSeriesAggregator(newRegistry("Alice"))
	observations := []Observation{
		{Participant: "Alice", At: day(2019, 8, 1)},
		{Participant: "Mallory", At: day(2019, 8, 9)},
	}

	series, err := agg.Aggregate(observations, dayOptions())

	require.NoError(t, err)
	assert.Equal(t, 1, series.Skipped)
	assert.Equal(t, []string{"Mallory"}, series.UnknownNames)
	assert.Equal(t, "2019-08-01", series.To)
}

func TestObserve(t *testing.T) {
	events := []*model.Event{
		message("Alice", day(2019, 8, 1), "Bob", "Carol"),
		message("Bob", day(2019, 8, 2)),
	}

	tests := []struct {
		name      string
		metric    Metric
		direction Direction
		expected  []string
	}{
		{name: "messages_sent", metric: MetricMessages, direction: DirectionSent, expected: []string{"Alice", "Bob"}},
		{name: "reactions_sent", metric: MetricReactions, direction: DirectionSent, expected: []string{"Bob", "Carol"}},
		{name: "reactions_received", metric: MetricReactions, direction: DirectionReceived, expected: []string{"Alice", "Alice"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			observations, err := Observe(events, tt.metric, tt.direction)
			require.NoError(t, err)

			var participants []string
			for _, obs := range observations {
				participants = append(participants, obs.Participant)
			}
			assert.Equal(t, tt.expected, participants)
		})
	}

	_, err := Observe(events, MetricMessages, DirectionReceived)
	assert.ErrorIs(t, err, ErrUnsupportedSeries)
}

func TestParseSeriesParameters(t *testing.T) {
	g, err := ParseGranularity("month")
	require.NoError(t, err)
	assert.Equal(t, GranularityMonth, g)
	_, err = ParseGranularity("week")
	assert.Error(t, err)

	m, err := ParseMetric("reactions")
	require.NoError(t, err)
	assert.Equal(t, MetricReactions, m)
	_, err = ParseMetric("photos")
	assert.Error(t, err)

	d, err := ParseDirection("received")
	require.NoError(t, err)
	assert.Equal(t, DirectionReceived, d)
	_, err = ParseDirection("both")
	assert.Error(t, err)
}

func counts(points []SeriesPoint) []int {
	out := make([]int, len(points))
	for i, p := range points {
		out[i] = p.Count
	}
	return out
}

func dates(points []SeriesPoint) []string {
	out := make([]string, len(points))
	for i, p := range points {
		out[i] = p.Date
	}
	return out
}
