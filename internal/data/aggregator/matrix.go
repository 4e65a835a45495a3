package aggregator

import (
	"errors"
	"fmt"
	"sort"

	"github.com/d1j/facebook-stats/internal/core/model"
	"github.com/d1j/facebook-stats/internal/core/normalizer"
	"github.com/d1j/facebook-stats/internal/core/registry"
	"github.com/d1j/facebook-stats/internal/util"
)

// Matrix counts messages per participant and target-kind reactions between
// every pair of participants. A single cell given[actor][receiver] backs both
// the actor's given-to and the receiver's received-from counters, so the two
// views are transposes of each other.
type Matrix struct {
	registry *registry.Registry
	target   string
	sent     []int
	given    [][]int
}

// ParticipantStats is one row of a matrix snapshot. ReceivedFrom and GivenTo
// are aligned with Snapshot.Names.
type ParticipantStats struct {
	ID            model.ParticipantID `json:"-"`
	Name          string              `json:"name"`
	MessagesSent  int                 `json:"messagesSent"`
	TotalReceived int                 `json:"totalReceived"`
	TotalGiven    int                 `json:"totalGiven"`
	ReceivedFrom  []int               `json:"receivedFrom"`
	GivenTo       []int               `json:"givenTo"`
}

// Snapshot is a fixed-width view of the matrix sorted by participant name.
type Snapshot struct {
	Reaction     string             `json:"reaction"`
	Names        []string           `json:"names"`
	Participants []ParticipantStats `json:"participants"`
}

// FoldReport summarizes a FoldAll batch.
type FoldReport struct {
	Events           int      `json:"events"`
	Folded           int      `json:"folded"`
	SkippedEvents    int      `json:"skippedEvents"`
	SkippedReactions int      `json:"skippedReactions"`
	UnknownNames     []string `json:"unknownNames,omitempty"`
}

func NewMatrix(reg *registry.Registry, target string) *Matrix {
	m := &Matrix{
		registry: reg,
		target:   target,
	}
	m.grow()
	return m
}

// grow widens the counters to the current registry size.
func (m *Matrix) grow() {
	n := m.registry.Len()
	if n <= len(m.sent) {
		return
	}

	for i := range m.given {
		row := make([]int, n)
		copy(row, m.given[i])
		m.given[i] = row
	}
	for len(m.given) < n {
		m.given = append(m.given, make([]int, n))
	}
	sent := make([]int, n)
	copy(sent, m.sent)
	m.sent = sent
}

// Fold adds one event. It does not deduplicate: folding the same event twice
// counts it twice. An unknown sender drops the whole event; an unknown
// reaction actor drops only that reaction. Both are reported as
// UnknownParticipantError values.
func (m *Matrix) Fold(event *model.Event) error {
	sender, err := m.registry.Lookup(event.Sender)
	if err != nil {
		return &UnknownParticipantError{Name: event.Sender, Role: RoleSender}
	}
	m.grow()
	m.sent[sender]++

	var errs []error
	for _, reaction := range event.Reactions {
		if !normalizer.MatchesKind(reaction.Kind, m.target) {
			continue
		}
		actor, err := m.registry.Lookup(reaction.Actor)
		if err != nil {
			errs = append(errs, &UnknownParticipantError{Name: reaction.Actor, Role: RoleActor})
			continue
		}
		m.grow()
		m.given[actor][sender]++
	}

	return errors.Join(errs...)
}

// FoldAll folds a batch of events and reports skipped contributions instead
// of failing.
func (m *Matrix) FoldAll(events []*model.Event) FoldReport {
	report := FoldReport{Events: len(events)}
	unknown := make(map[string]struct{})

	for _, event := range events {
		err := m.Fold(event)
		if err == nil {
			report.Folded++
			continue
		}

		for _, unknownErr := range unknownParticipants(err) {
			unknown[unknownErr.Name] = struct{}{}
			if unknownErr.Role == RoleSender {
				report.SkippedEvents++
			} else {
				report.SkippedReactions++
			}
		}
		if !isSenderError(err) {
			report.Folded++
		}
		util.LogDebug(fmt.Sprintf("Partial fold of message at %s: %v", event.Timestamp.Format("2006-01-02 15:04:05"), err))
	}

	for name := range unknown {
		report.UnknownNames = append(report.UnknownNames, name)
	}
	sort.Strings(report.UnknownNames)

	return report
}

func unknownParticipants(err error) []*UnknownParticipantError {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []*UnknownParticipantError
		for _, e := range joined.Unwrap() {
			out = append(out, unknownParticipants(e)...)
		}
		return out
	}
	var unknownErr *UnknownParticipantError
	if errors.As(err, &unknownErr) {
		return []*UnknownParticipantError{unknownErr}
	}
	return nil
}

func isSenderError(err error) bool {
	var unknownErr *UnknownParticipantError
	return errors.As(err, &unknownErr) && unknownErr.Role == RoleSender
}

// MessagesSent returns the number of folded messages sent by id.
func (m *Matrix) MessagesSent(id model.ParticipantID) int {
	if int(id) >= len(m.sent) || id < 0 {
		return 0
	}
	return m.sent[id]
}

// Given returns how many target reactions actor gave on receiver's messages.
func (m *Matrix) Given(actor, receiver model.ParticipantID) int {
	if actor < 0 || receiver < 0 || int(actor) >= len(m.given) || int(receiver) >= len(m.given[actor]) {
		return 0
	}
	return m.given[actor][receiver]
}

// Received returns how many target reactions receiver got from actor.
func (m *Matrix) Received(receiver, actor model.ParticipantID) int {
	return m.Given(actor, receiver)
}

// Snapshot returns every registered participant sorted by name, each with a
// breakdown covering all participants including zero counts.
func (m *Matrix) Snapshot() Snapshot {
	m.grow()
	order := m.registry.SortedIDs()

	snapshot := Snapshot{
		Reaction:     m.target,
		Names:        make([]string, len(order)),
		Participants: make([]ParticipantStats, len(order)),
	}
	for col, id := range order {
		snapshot.Names[col], _ = m.registry.Name(id)
	}

	for row, id := range order {
		stats := ParticipantStats{
			ID:           id,
			Name:         snapshot.Names[row],
			MessagesSent: m.MessagesSent(id),
			ReceivedFrom: make([]int, len(order)),
			GivenTo:      make([]int, len(order)),
		}
		for col, other := range order {
			stats.ReceivedFrom[col] = m.Received(id, other)
			stats.GivenTo[col] = m.Given(id, other)
			stats.TotalReceived += stats.ReceivedFrom[col]
			stats.TotalGiven += stats.GivenTo[col]
		}
		snapshot.Participants[row] = stats
	}

	return snapshot
}

// Index returns the column of name in the snapshot, or -1.
func (s Snapshot) Index(name string) int {
	i := sort.SearchStrings(s.Names, name)
	if i < len(s.Names) && s.Names[i] == name {
		return i
	}
	return -1
}

// Row returns the stats of name.
func (s Snapshot) Row(name string) (ParticipantStats, bool) {
	i := s.Index(name)
	if i < 0 {
		return ParticipantStats{}, false
	}
	return s.Participants[i], true
}
