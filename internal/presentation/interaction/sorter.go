package interaction

import (
	"fmt"
	"sort"

	"github.com/d1j/facebook-stats/internal/data/aggregator"
)

// SortField represents the field to sort participants by
type SortField int

const (
	SortByName SortField = iota
	SortByMessages
	SortByPhotos
	SortByVideos
	SortByCalls
)

var sortFieldNames = map[string]SortField{
	"name":     SortByName,
	"messages": SortByMessages,
	"photos":   SortByPhotos,
	"videos":   SortByVideos,
	"calls":    SortByCalls,
}

// ParseSortField maps a --sort value to a field.
func ParseSortField(s string) (SortField, error) {
	field, ok := sortFieldNames[s]
	if !ok {
		return SortByName, fmt.Errorf("invalid sort field %q: use name, messages, photos, videos or calls", s)
	}
	return field, nil
}

// SortOrder represents the sort order
type SortOrder int

const (
	SortAscending SortOrder = iota
	SortDescending
)

// ActivitySorter orders the participants of an activity summary
type ActivitySorter struct {
	field SortField
	order SortOrder
}

// NewActivitySorter creates a sorter. Counts sort descending and names
// ascending unless reversed.
func NewActivitySorter(field SortField, reverse bool) *ActivitySorter {
	order := SortDescending
	if field == SortByName {
		order = SortAscending
	}
	if reverse {
		order = 1 - order
	}
	return &ActivitySorter{field: field, order: order}
}

// Sort sorts the participants in place. Ties keep name order.
func (s *ActivitySorter) Sort(participants []aggregator.ActivityStats) {
	key := func(p aggregator.ActivityStats) int {
		switch s.field {
		case SortByMessages:
			return p.Messages
		case SortByPhotos:
			return p.Photos
		case SortByVideos:
			return p.Videos
		case SortByCalls:
			return p.Calls
		}
		return 0
	}

	sort.SliceStable(participants, func(i, j int) bool {
		a, b := participants[i], participants[j]
		if s.field == SortByName || key(a) == key(b) {
			if s.order == SortDescending && s.field == SortByName {
				return a.Name > b.Name
			}
			return a.Name < b.Name
		}
		if s.order == SortDescending {
			return key(a) > key(b)
		}
		return key(a) < key(b)
	})
}
