package signaling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterestsCompatible(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want bool
	}{
		{
			name: "both empty",
			a:    nil,
			b:    nil,
			want: true,
		},
		{
			name: "joiner empty is wildcard",
			a:    nil,
			b:    []string{"music"},
			want: true,
		},
		{
			name: "waiter empty is wildcard",
			a:    []string{"music"},
			b:    nil,
			want: true,
		},
		{
			name: "overlapping sets",
			a:    []string{"gaming", "music"},
			b:    []string{"music", "travel"},
			want: true,
		},
		{
			name: "disjoint sets",
			a:    []string{"gaming"},
			b:    []string{"music"},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, interestsCompatible(tt.a, tt.b))
		})
	}
}

func TestWaitingQueue_MatchFIFO(t *testing.T) {
	q := NewWaitingQueue()
	first := &Session{ID: "first"}
	second := &Session{ID: "second"}
	q.Enqueue(first)
	q.Enqueue(second)

	got := q.Match(&Session{ID: "joiner"})

	require.NotNil(t, got)
	assert.Equal(t, "first", got.ID, "first compatible waiter wins")
	assert.Equal(t, 1, q.Len())
	assert.True(t, q.Contains("second"))
}

func TestWaitingQueue_MatchSkipsIncompatible(t *testing.T) {
	q := NewWaitingQueue()
	q.Enqueue(&Session{ID: "gamer", Interests: []string{"gaming"}})
	q.Enqueue(&Session{ID: "musician", Interests: []string{"music"}})

	got := q.Match(&Session{ID: "joiner", Interests: []string{"music"}})

	require.NotNil(t, got)
	assert.Equal(t, "musician", got.ID)
	assert.True(t, q.Contains("gamer"), "skipped waiter stays queued")
}

func TestWaitingQueue_NoSelfMatch(t *testing.T) {
	q := NewWaitingQueue()
	s := &Session{ID: "solo"}
	q.Enqueue(s)

	assert.Nil(t, q.Match(s))
	assert.Equal(t, 1, q.Len())
}

func TestWaitingQueue_NoDuplicateEntries(t *testing.T) {
	q := NewWaitingQueue()
	s := &Session{ID: "once"}
	q.Enqueue(s)
	q.Enqueue(s)

	assert.Equal(t, 1, q.Len())
}

func TestWaitingQueue_Remove(t *testing.T) {
	q := NewWaitingQueue()
	q.Enqueue(&Session{ID: "a"})
	q.Enqueue(&Session{ID: "b"})
	q.Enqueue(&Session{ID: "c"})

	assert.True(t, q.Remove("b"))
	assert.False(t, q.Remove("b"))
	assert.Equal(t, 2, q.Len())

	// Order of the survivors is preserved.
	got := q.Match(&Session{ID: "joiner"})
	require.NotNil(t, got)
	assert.Equal(t, "a", got.ID)
}
