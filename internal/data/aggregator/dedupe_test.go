package aggregator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/d1j/facebook-stats/internal/core/model"
)

func TestDeduplicate(t *testing.T) {
	at := time.Date(2019, 8, 1, 12, 0, 0, 0, time.UTC)
	first := message("Alice", at, "Bob")
	copyOfFirst := message("Alice", at, "Bob")
	otherReaction := message("Alice", at, "Carol")
	later := message("Alice", at.Add(time.Millisecond), "Bob")

	kept, dropped := Deduplicate([]*model.Event{first, copyOfFirst, otherReaction, later})

	assert.Equal(t, 1, dropped)
	assert.Equal(t, []*model.Event{first, otherReaction, later}, kept)
}

func TestDeduplicateNoDuplicates(t *testing.T) {
	at := time.Date(2019, 8, 1, 12, 0, 0, 0, time.UTC)
	events := []*model.Event{message("Alice", at), message("Bob", at)}

	kept, dropped := Deduplicate(events)

	assert.Zero(t, dropped)
	assert.Len(t, kept, 2)
}
