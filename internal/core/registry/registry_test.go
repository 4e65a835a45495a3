package registry

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d1j/facebook-stats/internal/core/model"
)

func TestEnsureIsIdempotent(t *testing.T) {
	r := New()

	first := r.Ensure("Alice")
	second := r.Ensure("Alice")

	assert.Equal(t, first, second)
	assert.Equal(t, 1, r.Len())
}

func TestEnsureAllocatesInFirstSeenOrder(t *testing.T) {
	r := New()
	names := []string{"Carol", "Alice", "Bob", "Alice", "Carol"}

	var ids []model.ParticipantID
	for _, name := range names {
		ids = append(ids, r.Ensure(name))
	}

	assert.Equal(t, []model.ParticipantID{0, 1, 2, 1, 0}, ids)
	assert.Equal(t, []string{"Carol", "Alice", "Bob"}, r.Names())
}

func TestEnsureMatchesExactNamesOnly(t *testing.T) {
	r := New()

	a := r.Ensure("alice")
	b := r.Ensure("Alice")
	c := r.Ensure("Alice ")

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, b, c)
	assert.Equal(t, 3, r.Len())
}

func TestLookup(t *testing.T) {
	r := New()
	id := r.Ensure("Alice")

	got, err := r.Lookup("Alice")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = r.Lookup("Mallory")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, r.Len(), "Lookup must not register names")
}

func TestName(t *testing.T) {
	r := New()
	id := r.Ensure("Alice")

	name, ok := r.Name(id)
	assert.True(t, ok)
	assert.Equal(t, "Alice", name)

	_, ok = r.Name(5)
	assert.False(t, ok)
	_, ok = r.Name(-1)
	assert.False(t, ok)
}

func TestSortedIDs(t *testing.T) {
	r := New()
	carol := r.Ensure("Carol")
	alice := r.Ensure("Alice")
	bob := r.Ensure("Bob")

	assert.Equal(t, []model.ParticipantID{alice, bob, carol}, r.SortedIDs())
}

func TestEnsureConcurrent(t *testing.T) {
	r := New()
	const workers = 16
	const names = 50

	var wg sync.WaitGroup
	results := make([][]model.ParticipantID, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < names; i++ {
				results[w] = append(results[w], r.Ensure(fmt.Sprintf("participant-%d", i)))
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, names, r.Len())
	for w := 1; w < workers; w++ {
		assert.Equal(t, results[0], results[w], "every worker must observe the same ids")
	}
}
