package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEventIsCall(t *testing.T) {
	tests := []struct {
		name     string
		event    Event
		expected bool
	}{
		{name: "call", event: Event{Type: MessageCall}, expected: true},
		{name: "generic", event: Event{Type: MessageGeneric}, expected: false},
		{name: "untyped", event: Event{Sender: "Alice", Timestamp: time.Unix(0, 0)}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.event.IsCall())
		})
	}
}

func TestReactionConstants(t *testing.T) {
	assert.Equal(t, "😆", ReactionCha)
	assert.Empty(t, ReactionAny)
}
