package aggregator

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d1j/facebook-stats/internal/core/model"
	"github.com/d1j/facebook-stats/internal/core/registry"
)

func newRegistry(names ...string) *registry.Registry {
	reg := registry.New()
	for _, name := range names {
		reg.Ensure(name)
	}
	return reg
}

func message(sender string, at time.Time, actors ...string) *model.Event {
	event := &model.Event{Sender: sender, Timestamp: at, Type: model.MessageGeneric}
	for _, actor := range actors {
		event.Reactions = append(event.Reactions, model.Reaction{Actor: actor, Kind: model.ReactionCha})
	}
	return event
}

var t0 = time.Date(2019, 8, 1, 12, 0, 0, 0, time.UTC)

func TestMatrixSingleReaction(t *testing.T) {
	reg := newRegistry("P1", "P2", "P3")
	m := NewMatrix(reg, model.ReactionCha)

	require.NoError(t, m.Fold(message("P1", t0, "P2")))
	require.NoError(t, m.Fold(message("P2", t0)))
	require.NoError(t, m.Fold(message("P3", t0)))

	snapshot := m.Snapshot()
	require.Equal(t, []string{"P1", "P2", "P3"}, snapshot.Names)

	p1, _ := snapshot.Row("P1")
	p2, _ := snapshot.Row("P2")
	p3, _ := snapshot.Row("P3")

	assert.Equal(t, []int{0, 1, 0}, p1.ReceivedFrom)
	assert.Equal(t, []int{0, 0, 0}, p1.GivenTo)
	assert.Equal(t, []int{1, 0, 0}, p2.GivenTo)
	assert.Equal(t, []int{0, 0, 0}, p2.ReceivedFrom)
	assert.Equal(t, []int{0, 0, 0}, p3.ReceivedFrom)
	assert.Equal(t, []int{0, 0, 0}, p3.GivenTo)

	for _, row := range snapshot.Participants {
		assert.Equal(t, 1, row.MessagesSent, row.Name)
	}
	assert.Equal(t, 1, p1.TotalReceived)
	assert.Equal(t, 1, p2.TotalGiven)
}

func TestMatrixUnknownActorDropsOnlyReaction(t *testing.T) {
	reg := newRegistry("Alice", "Bob")
	m := NewMatrix(reg, model.ReactionCha)

	err := m.Fold(message("Alice", t0, "Mallory", "Bob"))

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownParticipant))
	var unknownErr *UnknownParticipantError
	require.True(t, errors.As(err, &unknownErr))
	assert.Equal(t, "Mallory", unknownErr.Name)
	assert.Equal(t, RoleActor, unknownErr.Role)

	alice := reg.Ensure("Alice")
	bob := reg.Ensure("Bob")
	assert.Equal(t, 1, m.MessagesSent(alice))
	assert.Equal(t, 1, m.Received(alice, bob))
	assert.Equal(t, 2, reg.Len(), "folding must never register participants")
}

func TestMatrixUnknownSenderSkipsEvent(t *testing.T) {
	reg := newRegistry("Alice", "Bob")
	m := NewMatrix(reg, model.ReactionCha)

	err := m.Fold(message("Mallory", t0, "Alice"))

	var unknownErr *UnknownParticipantError
	require.True(t, errors.As(err, &unknownErr))
	assert.Equal(t, RoleSender, unknownErr.Role)

	snapshot := m.Snapshot()
	for _, row := range snapshot.Participants {
		assert.Zero(t, row.MessagesSent)
		assert.Zero(t, row.TotalGiven)
	}
}

func TestMatrixIgnoresOtherKinds(t *testing.T) {
	reg := newRegistry("Alice", "Bob")
	m := NewMatrix(reg, model.ReactionCha)
	event := &model.Event{
		Sender:    "Alice",
		Timestamp: t0,
		Reactions: []model.Reaction{{Actor: "Bob", Kind: "❤"}},
	}

	require.NoError(t, m.Fold(event))

	alice, _ := reg.Lookup("Alice")
	bob, _ := reg.Lookup("Bob")
	assert.Zero(t, m.Received(alice, bob))
}

func TestMatrixDoubleFoldDoubleCounts(t *testing.T) {
	reg := newRegistry("Alice", "Bob")
	m := NewMatrix(reg, model.ReactionCha)
	event := message("Alice", t0, "Bob")

	require.NoError(t, m.Fold(event))
	require.NoError(t, m.Fold(event))

	row, _ := m.Snapshot().Row("Alice")
	assert.Equal(t, 2, row.MessagesSent)
	assert.Equal(t, 2, row.TotalReceived)
}

func TestMatrixGrowsWithRegistry(t *testing.T) {
	reg := newRegistry("Alice")
	m := NewMatrix(reg, model.ReactionCha)
	require.NoError(t, m.Fold(message("Alice", t0)))

	reg.Ensure("Zoe")
	require.NoError(t, m.Fold(message("Alice", t0, "Zoe")))

	snapshot := m.Snapshot()
	require.Len(t, snapshot.Participants, 2)
	alice, _ := snapshot.Row("Alice")
	zoe, _ := snapshot.Row("Zoe")
	assert.Equal(t, []int{0, 1}, alice.ReceivedFrom)
	assert.Equal(t, []int{1, 0}, zoe.GivenTo)
	assert.Equal(t, 2, alice.MessagesSent)
}

func TestMatrixSnapshotIncludesSilentParticipants(t *testing.T) {
	reg := newRegistry("Carol", "Alice", "Bob")
	m := NewMatrix(reg, model.ReactionCha)

	snapshot := m.Snapshot()

	assert.Equal(t, []string{"Alice", "Bob", "Carol"}, snapshot.Names)
	for _, row := range snapshot.Participants {
		assert.Len(t, row.ReceivedFrom, 3)
		assert.Len(t, row.GivenTo, 3)
	}
	assert.Equal(t, -1, snapshot.Index("Mallory"))
}

func TestMatrixSymmetryAndConservation(t *testing.T) {
	names := []string{"Ada", "Ben", "Cid", "Dot", "Eve"}
	reg := newRegistry(names...)
	m := NewMatrix(reg, model.ReactionCha)
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 500; i++ {
		sender := names[rng.Intn(len(names))]
		var actors []string
		for j := rng.Intn(4); j > 0; j-- {
			actors = append(actors, names[rng.Intn(len(names))])
		}
		if rng.Intn(10) == 0 {
			actors = append(actors, fmt.Sprintf("stranger-%d", i))
		}
		_ = m.Fold(message(sender, t0.Add(time.Duration(i)*time.Minute), actors...))
	}

	snapshot := m.Snapshot()
	for i, a := range snapshot.Participants {
		sumReceived, sumGiven := 0, 0
		for j, b := range snapshot.Participants {
			assert.Equal(t, a.GivenTo[j], b.ReceivedFrom[i], "%s->%s", a.Name, b.Name)
			sumReceived += a.ReceivedFrom[j]
			sumGiven += a.GivenTo[j]
		}
		assert.Equal(t, sumReceived, a.TotalReceived, a.Name)
		assert.Equal(t, sumGiven, a.TotalGiven, a.Name)
	}
}

func TestFoldAllReport(t *testing.T) {
	reg := newRegistry("Alice", "Bob")
	m := NewMatrix(reg, model.ReactionCha)
	events := []*model.Event{
		message("Alice", t0, "Bob"),
		message("Mallory", t0, "Alice"),
		message("Bob", t0, "Trudy", "Alice", "Trudy"),
	}

	report := m.FoldAll(events)

	assert.Equal(t, 3, report.Events)
	assert.Equal(t, 2, report.Folded)
	assert.Equal(t, 1, report.SkippedEvents)
	assert.Equal(t, 2, report.SkippedReactions)
	assert.Equal(t, []string{"Mallory", "Trudy"}, report.UnknownNames)

	bob, _ := m.Snapshot().Row("Bob")
	assert.Equal(t, 1, bob.TotalReceived)
}

func TestMatrixPointQueriesOutOfRange(t *testing.T) {
	m := NewMatrix(newRegistry("Alice"), model.ReactionCha)

	assert.Zero(t, m.Given(0, 9))
	assert.Zero(t, m.Given(-1, 0))
	assert.Zero(t, m.MessagesSent(9))
}
