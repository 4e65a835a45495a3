package model

import "time"

// Reaction is a retained reaction on a message.
type Reaction struct {
	Actor string `json:"actor"`
	Kind  string `json:"kind"`
}

// Event is a normalized message. It is never mutated after normalization.
type Event struct {
	Sender       string     `json:"sender"`
	Timestamp    time.Time  `json:"timestamp"`
	Reactions    []Reaction `json:"reactions,omitempty"`
	Type         string     `json:"type,omitempty"`
	Photos       int        `json:"photos,omitempty"`
	Videos       int        `json:"videos,omitempty"`
	CallDuration int64      `json:"callDuration,omitempty"`
}

// IsCall reports whether the event is a call record.
func (e *Event) IsCall() bool {
	return e.Type == MessageCall
}
