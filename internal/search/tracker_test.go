// AngelaMos | 2026
// tracker_test.go

package search

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/forum-api/internal/core"
)

type vocab map[string]bool

func (v vocab) Exists(_ context.Context, name string) (bool, error) {
	return v[name], nil
}

func newTestTracker(t *testing.T, now *time.Time) *Tracker {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	tr := NewTracker(rdb, vocab{"go": true, "rust": true, "sql": true, "css": true}, 7*24*time.Hour, 3)
	tr.now = func() time.Time { return *now }
	return tr
}

func record(t *testing.T, tr *Tracker, tag string, n int) {
	t.Helper()
	for range n {
		require.NoError(t, tr.Record(context.Background(), tag))
	}
}

func TestPopularTopThreeOverWindow(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	tr := newTestTracker(t, &now)

	now = now.AddDate(0, 0, -10)
	record(t, tr, "css", 50)

	now = now.AddDate(0, 0, 5)
	record(t, tr, "go", 2)
	record(t, tr, "rust", 1)

	now = now.AddDate(0, 0, 5)
	record(t, tr, "go", 3)
	record(t, tr, "sql", 4)
	record(t, tr, "rust", 1)

	popular, err := tr.Popular(context.Background())
	require.NoError(t, err)

	require.Len(t, popular, 3)
	assert.Equal(t, "go", popular[0].Tag)
	assert.Equal(t, int64(5), popular[0].Count)
	assert.Equal(t, now.Truncate(time.Second), popular[0].LastSearched)
	assert.Equal(t, "sql", popular[1].Tag)
	assert.Equal(t, "rust", popular[2].Tag)
	assert.Equal(t, int64(2), popular[2].Count)
}

func TestRecordRejectsUnknownTag(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	tr := newTestTracker(t, &now)

	err := tr.Record(context.Background(), "cobol")
	require.ErrorIs(t, err, core.ErrInvalidInput)

	require.ErrorIs(t, tr.Record(context.Background(), "   "), core.ErrInvalidInput)

	popular, err := tr.Popular(context.Background())
	require.NoError(t, err)
	assert.Empty(t, popular)
}

func TestRecordNormalizesTag(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	tr := newTestTracker(t, &now)

	record(t, tr, " GO ", 1)
	record(t, tr, "go", 1)

	popular, err := tr.Popular(context.Background())
	require.NoError(t, err)
	require.Len(t, popular, 1)
	assert.Equal(t, int64(2), popular[0].Count)
}

func TestPopularSkipsDeletedTags(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	tr := newTestTracker(t, &now)

	record(t, tr, "css", 9)
	record(t, tr, "go", 5)
	record(t, tr, "sql", 3)
	record(t, tr, "rust", 1)

	delete(tr.tags.(vocab), "css")

	popular, err := tr.Popular(context.Background())
	require.NoError(t, err)

	require.Len(t, popular, 3)
	assert.Equal(t, "go", popular[0].Tag)
	assert.Equal(t, "sql", popular[1].Tag)
	assert.Equal(t, "rust", popular[2].Tag)
	assert.Equal(t, int64(1), popular[2].Count)
}
