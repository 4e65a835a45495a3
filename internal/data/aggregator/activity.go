package aggregator

import (
	"sort"
	"time"

	"github.com/d1j/facebook-stats/internal/core/model"
)

// ActivityStats counts what a sender posted.
type ActivityStats struct {
	Name         string `json:"name"`
	Messages     int    `json:"messages"`
	Photos       int    `json:"photos"`
	Videos       int    `json:"videos"`
	Calls        int    `json:"calls"`
	CallDuration int64  `json:"callDuration"`
}

// ActivitySummary holds per-sender activity sorted by name plus totals.
type ActivitySummary struct {
	Participants []ActivityStats `json:"participants"`
	Total        ActivityStats   `json:"total"`
	First        string          `json:"first,omitempty"`
	Last         string          `json:"last,omitempty"`
}

// SummarizeActivity tallies messages, media and calls per sender. Call
// duration is only summed into the total. First and Last are calendar dates
// in loc.
func SummarizeActivity(events []*model.Event, loc *time.Location) ActivitySummary {
	if loc == nil {
		loc = time.Local
	}
	bySender := make(map[string]*ActivityStats)
	summary := ActivitySummary{Total: ActivityStats{Name: "Total"}}

	for i, event := range events {
		stats, ok := bySender[event.Sender]
		if !ok {
			stats = &ActivityStats{Name: event.Sender}
			bySender[event.Sender] = stats
		}

		stats.Messages++
		stats.Photos += event.Photos
		stats.Videos += event.Videos
		if event.IsCall() {
			stats.Calls++
			summary.Total.CallDuration += event.CallDuration
		}

		day := event.Timestamp.In(loc).Format(dateLayout)
		if i == 0 || day < summary.First {
			summary.First = day
		}
		if day > summary.Last {
			summary.Last = day
		}
	}

	for _, stats := range bySender {
		summary.Participants = append(summary.Participants, *stats)
		summary.Total.Messages += stats.Messages
		summary.Total.Photos += stats.Photos
		summary.Total.Videos += stats.Videos
		summary.Total.Calls += stats.Calls
	}
	sort.Slice(summary.Participants, func(i, j int) bool {
		return summary.Participants[i].Name < summary.Participants[j].Name
	})

	return summary
}
