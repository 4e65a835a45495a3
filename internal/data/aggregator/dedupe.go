package aggregator

import (
	"strconv"
	"strings"

	"github.com/d1j/facebook-stats/internal/core/model"
)

// Deduplicate drops events identical in sender, timestamp, type and
// reactions, keeping the first occurrence. It returns the kept events and the
// number dropped. Fragments exported twice overlap this way.
func Deduplicate(events []*model.Event) ([]*model.Event, int) {
	seen := make(map[string]struct{}, len(events))
	kept := make([]*model.Event, 0, len(events))

	for _, event := range events {
		key := eventKey(event)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, event)
	}

	return kept, len(events) - len(kept)
}

func eventKey(event *model.Event) string {
	var b strings.Builder
	b.WriteString(event.Sender)
	b.WriteByte(0)
	b.WriteString(strconv.FormatInt(event.Timestamp.UnixMilli(), 10))
	b.WriteByte(0)
	b.WriteString(event.Type)
	for _, r := range event.Reactions {
		b.WriteByte(0)
		b.WriteString(r.Actor)
		b.WriteByte(1)
		b.WriteString(r.Kind)
	}
	return b.String()
}
