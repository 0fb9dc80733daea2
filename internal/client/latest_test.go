// AngelaMos | 2026
// latest_test.go

package client

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatestDiscardsSupersededResponse(t *testing.T) {
	release := map[int]chan struct{}{
		1: make(chan struct{}),
		2: make(chan struct{}),
	}
	started := make(chan int, 2)

	l := NewLatest(func(ctx context.Context, page int) (string, error) {
		started <- page
		<-release[page]
		return "page-" + string(rune('0'+page)), nil
	})

	type result struct {
		value string
		err   error
	}
	first := make(chan result, 1)
	go func() {
		v, err := l.Fetch(context.Background(), 1)
		first <- result{v, err}
	}()
	require.Equal(t, 1, <-started)

	second := make(chan result, 1)
	go func() {
		v, err := l.Fetch(context.Background(), 2)
		second <- result{v, err}
	}()
	require.Equal(t, 2, <-started)

	close(release[2])
	got := <-second
	require.NoError(t, got.err)
	assert.Equal(t, "page-2", got.value)

	close(release[1])
	stale := <-first
	require.ErrorIs(t, stale.err, ErrSuperseded)

	key, value, ok := l.Current()
	require.True(t, ok)
	assert.Equal(t, 2, key)
	assert.Equal(t, "page-2", value)
}

func TestLatestKeepsPreviousValueOnError(t *testing.T) {
	boom := errors.New("boom")
	fail := false

	l := NewLatest(func(ctx context.Context, key string) (int, error) {
		if fail {
			return 0, boom
		}
		return len(key), nil
	})

	_, err := l.Fetch(context.Background(), "abc")
	require.NoError(t, err)

	fail = true
	_, err = l.Fetch(context.Background(), "abcdef")
	require.ErrorIs(t, err, boom)

	key, value, ok := l.Current()
	require.True(t, ok)
	assert.Equal(t, "abc", key)
	assert.Equal(t, 3, value)
}

func TestProjectVote(t *testing.T) {
	tests := []struct {
		name string
		from Tally
		next int
		want Tally
	}{
		{"first upvote", Tally{}, 1, Tally{Upvotes: 1, Vote: 1}},
		{"up to down", Tally{Upvotes: 3, Downvotes: 1, Vote: 1}, -1, Tally{Upvotes: 2, Downvotes: 2, Vote: -1}},
		{"retract", Tally{Downvotes: 1, Vote: -1}, 0, Tally{}},
		{"same vote", Tally{Upvotes: 1, Vote: 1}, 1, Tally{Upvotes: 1, Vote: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ProjectVote(tt.from, tt.next))
		})
	}
}

func TestOptimisticOlderResultDoesNotOverwriteNewer(t *testing.T) {
	o := NewOptimistic(0)
	ctx := context.Background()

	firstSent := make(chan struct{})
	releaseFirst := make(chan struct{})
	done := make(chan struct{})

	go func() {
		_, _ = o.Apply(ctx,
			func(v int) int { return v + 1 },
			func(context.Context) (int, error) {
				close(firstSent)
				<-releaseFirst
				return 1, nil
			})
		close(done)
	}()
	<-firstSent

	_, err := o.Apply(ctx,
		func(v int) int { return v + 10 },
		func(context.Context) (int, error) { return 11, nil })
	require.NoError(t, err)

	close(releaseFirst)
	<-done

	shown, state := o.View()
	assert.Equal(t, 11, shown)
	assert.Equal(t, StateCommitted, state)
}
