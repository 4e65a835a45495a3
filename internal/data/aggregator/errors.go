package aggregator

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnknownParticipant = errors.New("unknown participant")
	ErrEmptyRange         = errors.New("cannot derive date range from empty input")
	ErrInvalidRange       = errors.New("invalid date range")
	ErrUnsupportedSeries  = errors.New("unsupported series")
)

// Participant roles reported by UnknownParticipantError.
const (
	RoleSender = "sender"
	RoleActor  = "actor"
)

// UnknownParticipantError reports a sender or reaction actor that is not in
// the registry. Only the contribution of that participant is dropped.
type UnknownParticipantError struct {
	Name string
	Role string
}

func (e *UnknownParticipantError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Role, e.Name)
}

func (e *UnknownParticipantError) Unwrap() error {
	return ErrUnknownParticipant
}

type InvalidRangeError struct {
	From time.Time
	To   time.Time
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid date range: from %s is after to %s",
		e.From.Format(dateLayout), e.To.Format(dateLayout))
}

func (e *InvalidRangeError) Unwrap() error {
	return ErrInvalidRange
}
