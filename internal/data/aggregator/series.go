package aggregator

import (
	"fmt"
	"sort"
	"time"

	"github.com/d1j/facebook-stats/internal/core/model"
	"github.com/d1j/facebook-stats/internal/core/registry"
	"github.com/d1j/facebook-stats/internal/util"
)

const dateLayout = "2006-01-02"

type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityMonth Granularity = "month"
)

// Metric selects what a series counts.
type Metric string

const (
	MetricMessages  Metric = "messages"
	MetricReactions Metric = "reactions"
)

// Direction selects who an observation is attributed to.
type Direction string

const (
	DirectionSent     Direction = "sent"
	DirectionReceived Direction = "received"
)

func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(s); g {
	case GranularityDay, GranularityMonth:
		return g, nil
	}
	return "", fmt.Errorf("invalid granularity %q (use day or month)", s)
}

func ParseMetric(s string) (Metric, error) {
	switch m := Metric(s); m {
	case MetricMessages, MetricReactions:
		return m, nil
	}
	return "", fmt.Errorf("invalid metric %q (use messages or reactions)", s)
}

func ParseDirection(s string) (Direction, error) {
	switch d := Direction(s); d {
	case DirectionSent, DirectionReceived:
		return d, nil
	}
	return "", fmt.Errorf("invalid direction %q (use sent or received)", s)
}

// Truncate maps an instant to the start of its bucket. The local calendar
// date in loc is kept and returned as midnight UTC, so that stepping between
// buckets never crosses a DST transition.
func (g Granularity) Truncate(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	year, month, day := t.In(loc).Date()
	if g == GranularityMonth {
		day = 1
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Next returns the bucket following bucket.
func (g Granularity) Next(bucket time.Time) time.Time {
	if g == GranularityMonth {
		return bucket.AddDate(0, 1, 0)
	}
	return bucket.AddDate(0, 0, 1)
}

// Observation is one countable occurrence attributed to a participant.
type Observation struct {
	Participant string
	At          time.Time
}

// Observe derives observations from events for the requested series.
func Observe(events []*model.Event, metric Metric, direction Direction) ([]Observation, error) {
	if metric == MetricMessages && direction == DirectionReceived {
		return nil, fmt.Errorf("%w: messages are only counted for their sender", ErrUnsupportedSeries)
	}

	var observations []Observation
	for _, event := range events {
		switch metric {
		case MetricMessages:
			observations = append(observations, Observation{Participant: event.Sender, At: event.Timestamp})
		case MetricReactions:
			for _, reaction := range event.Reactions {
				participant := event.Sender
				if direction == DirectionSent {
					participant = reaction.Actor
				}
				observations = append(observations, Observation{Participant: participant, At: event.Timestamp})
			}
		default:
			return nil, fmt.Errorf("%w: metric %q", ErrUnsupportedSeries, metric)
		}
	}
	return observations, nil
}

type SeriesOptions struct {
	Granularity Granularity
	// From and To restrict or extend the range. Nil bounds are derived from
	// the data.
	From     *time.Time
	To       *time.Time
	Location *time.Location
}

// SeriesPoint is one (participant, bucket, count) entry.
type SeriesPoint struct {
	ID          model.ParticipantID `json:"-"`
	Participant string              `json:"participant"`
	Bucket      time.Time           `json:"-"`
	Date        string              `json:"date"`
	Count       int                 `json:"count"`
}

// BucketSeries is a dense series: every participant has exactly one point per
// bucket between From and To inclusive.
type BucketSeries struct {
	Granularity  Granularity   `json:"granularity"`
	From         string        `json:"from"`
	To           string        `json:"to"`
	Participants []string      `json:"participants"`
	Points       []SeriesPoint `json:"points"`
	Skipped      int           `json:"skipped"`
	UnknownNames []string      `json:"unknownNames,omitempty"`
}

// Count returns the count of participant in the bucket holding date.
func (s *BucketSeries) Count(participant string, date time.Time) (int, bool) {
	key := date.Format(dateLayout)
	for _, p := range s.Points {
		if p.Participant == participant && p.Date == key {
			return p.Count, true
		}
	}
	return 0, false
}

// ForParticipant returns the points of one participant in date order.
func (s *BucketSeries) ForParticipant(participant string) []SeriesPoint {
	var points []SeriesPoint
	for _, p := range s.Points {
		if p.Participant == participant {
			points = append(points, p)
		}
	}
	return points
}

// SeriesAggregator converts observations into dense calendar series. Each
// call is independent.
type SeriesAggregator struct {
	registry *registry.Registry
}

func NewSeriesAggregator(reg *registry.Registry) *SeriesAggregator {
	return &SeriesAggregator{registry: reg}
}

type bucketKey struct {
	participant model.ParticipantID
	bucket      time.Time
}

// Aggregate counts observations per participant and bucket and fills every
// missing bucket in the resolved range with zero.
func (a *SeriesAggregator) Aggregate(observations []Observation, opts SeriesOptions) (*BucketSeries, error) {
	granularity := opts.Granularity
	if granularity == "" {
		granularity = GranularityDay
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	series := &BucketSeries{Granularity: granularity}
	counts := make(map[bucketKey]int)
	unknown := make(map[string]struct{})
	var minBucket, maxBucket time.Time
	seen := false

	for _, obs := range observations {
		id, err := a.registry.Lookup(obs.Participant)
		if err != nil {
			series.Skipped++
			unknown[obs.Participant] = struct{}{}
			continue
		}
		bucket := granularity.Truncate(obs.At, loc)
		counts[bucketKey{participant: id, bucket: bucket}]++

		if !seen || bucket.Before(minBucket) {
			minBucket = bucket
		}
		if !seen || bucket.After(maxBucket) {
			maxBucket = bucket
		}
		seen = true
	}
	for name := range unknown {
		series.UnknownNames = append(series.UnknownNames, name)
	}
	sort.Strings(series.UnknownNames)
	if series.Skipped > 0 {
		util.LogDebugf("Skipped %d observations of %d unknown participants", series.Skipped, len(unknown))
	}

	from, to := minBucket, maxBucket
	if opts.From != nil {
		from = granularity.Truncate(*opts.From, loc)
	}
	if opts.To != nil {
		to = granularity.Truncate(*opts.To, loc)
	}
	if !seen && (opts.From == nil || opts.To == nil) {
		return nil, ErrEmptyRange
	}
	if from.After(to) {
		return nil, &InvalidRangeError{From: from, To: to}
	}
	series.From = from.Format(dateLayout)
	series.To = to.Format(dateLayout)

	present := make(map[model.ParticipantID]bool)
	for key := range counts {
		if !key.bucket.Before(from) && !key.bucket.After(to) {
			present[key.participant] = true
		}
	}
	ids := make([]model.ParticipantID, 0, len(present))
	for id := range present {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		name, _ := a.registry.Name(id)
		series.Participants = append(series.Participants, name)
	}

	// Emitting step-major in id order yields the date-sorted series directly.
	for bucket := from; !bucket.After(to); bucket = granularity.Next(bucket) {
		date := bucket.Format(dateLayout)
		for i, id := range ids {
			series.Points = append(series.Points, SeriesPoint{
				ID:          id,
				Participant: series.Participants[i],
				Bucket:      bucket,
				Date:        date,
				Count:       counts[bucketKey{participant: id, bucket: bucket}],
			})
		}
	}

	return series, nil
}
