// Package normalizer turns raw archive records into events.
package normalizer

import (
	"errors"
	"fmt"
	"time"

	"github.com/d1j/facebook-stats/internal/core/model"
)

// ErrMalformedRecord is wrapped by every MalformedRecordError.
var ErrMalformedRecord = errors.New("malformed record")

// MalformedRecordError describes a record missing a required field or
// carrying any field with the wrong shape.
type MalformedRecordError struct {
	Field  string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record: %s %s", e.Field, e.Reason)
}

func (e *MalformedRecordError) Unwrap() error {
	return ErrMalformedRecord
}

// MatchesKind reports whether a reaction kind is counted for target.
// The empty target matches every kind.
func MatchesKind(kind, target string) bool {
	return target == model.ReactionAny || kind == target
}

// Normalize converts one raw message into an event keeping only reactions of
// the target kind. Unsent messages yield a nil event and a nil error.
func Normalize(raw model.RawMessage, target string) (*model.Event, error) {
	if err := validate(raw); err != nil {
		return nil, err
	}
	if raw.IsUnsent {
		return nil, nil
	}

	event := &model.Event{
		Sender:       raw.SenderName.Value,
		Timestamp:    time.UnixMilli(raw.TimestampMs.Value),
		Type:         raw.Type,
		Photos:       len(raw.Photos),
		Videos:       len(raw.Videos),
		CallDuration: raw.CallDuration,
	}

	for _, r := range raw.Reactions {
		if r.Actor == "" || !MatchesKind(r.Reaction, target) {
			continue
		}
		event.Reactions = append(event.Reactions, model.Reaction{Actor: r.Actor, Kind: r.Reaction})
	}

	return event, nil
}

func validate(raw model.RawMessage) error {
	switch {
	case !raw.SenderName.Present:
		return &MalformedRecordError{Field: "sender_name", Reason: "is missing"}
	case !raw.SenderName.Valid:
		return &MalformedRecordError{Field: "sender_name", Reason: "is not a string"}
	case raw.SenderName.Value == "":
		return &MalformedRecordError{Field: "sender_name", Reason: "is empty"}
	case !raw.TimestampMs.Present:
		return &MalformedRecordError{Field: "timestamp_ms", Reason: "is missing"}
	case !raw.TimestampMs.Valid:
		return &MalformedRecordError{Field: "timestamp_ms", Reason: "is not an integer"}
	case raw.TimestampMs.Value <= 0:
		return &MalformedRecordError{Field: "timestamp_ms", Reason: "is not positive"}
	case raw.DecodeError != "":
		return &MalformedRecordError{Field: "message", Reason: "has a wrong-typed field: " + raw.DecodeError}
	}
	return nil
}
