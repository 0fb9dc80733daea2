// AngelaMos | 2026
// service_test.go

package membership

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/forum-api/internal/core"
)

type memStore struct {
	mu         sync.Mutex
	records    map[string]Record
	writes     int
	swapMisses int
	failGet    error
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]Record)}
}

func (m *memStore) GetMembership(_ context.Context, userID string) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failGet != nil {
		return Record{}, m.failGet
	}
	rec, ok := m.records[userID]
	if !ok {
		return Record{}, core.ErrNotFound
	}
	return rec, nil
}

func (m *memStore) DowngradeExpired(_ context.Context, userID string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[userID]
	if !ok || !NeedsDowngrade(rec.Tier, rec.ExpiresAt, now) {
		return false, nil
	}
	m.records[userID] = Record{Tier: Bronze}
	m.writes++
	return true, nil
}

func (m *memStore) SwapMembership(_ context.Context, userID string, prev, next Record) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.swapMisses > 0 {
		m.swapMisses--
		return false, nil
	}

	cur := m.records[userID]
	if cur.Tier != prev.Tier || !sameTime(cur.ExpiresAt, prev.ExpiresAt) {
		return false, nil
	}
	m.records[userID] = next
	m.writes++
	return true, nil
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

type recordingNotifier struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (n *recordingNotifier) Notify(_ context.Context, _, text, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.texts = append(n.texts, text)
	return n.err
}

func TestCheckAndDowngradeIdempotentForBronze(t *testing.T) {
	store := newMemStore()
	store.records["u1"] = Record{Tier: Bronze}
	notifier := &recordingNotifier{}
	svc := NewService(store, notifier, 30*24*time.Hour)

	for range 2 {
		tier, err := svc.CheckAndDowngrade(context.Background(), "u1")
		require.NoError(t, err)
		assert.Equal(t, Bronze, tier)
	}

	assert.Zero(t, store.writes)
	assert.Empty(t, notifier.texts)
	assert.Equal(t, Record{Tier: Bronze}, store.records["u1"])
}

func TestCheckAndDowngradeExpiredGold(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	expired := now.Add(-time.Hour)

	store := newMemStore()
	store.records["u1"] = Record{Tier: Gold, ExpiresAt: &expired}
	notifier := &recordingNotifier{}
	svc := NewService(store, notifier, time.Hour).
		WithClock(func() time.Time { return now })

	tier, err := svc.CheckAndDowngrade(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, Bronze, tier)
	assert.Equal(t, 1, store.writes)
	assert.Len(t, notifier.texts, 1)

	tier, err = svc.CheckAndDowngrade(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, Bronze, tier)
	assert.Equal(t, 1, store.writes, "second run must not write")
	assert.Len(t, notifier.texts, 1)
}

func TestCheckAndDowngradeActiveGoldUntouched(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	later := now.Add(time.Hour)

	store := newMemStore()
	store.records["u1"] = Record{Tier: Gold, ExpiresAt: &later}
	svc := NewService(store, nil, time.Hour).
		WithClock(func() time.Time { return now })

	tier, err := svc.CheckAndDowngrade(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, Gold, tier)
	assert.Zero(t, store.writes)
}

func TestCheckAndDowngradeNotifierFailureIgnored(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	expired := now.Add(-time.Minute)

	store := newMemStore()
	store.records["u1"] = Record{Tier: Gold, ExpiresAt: &expired}
	notifier := &recordingNotifier{err: errors.New("smtp down")}
	svc := NewService(store, notifier, time.Hour).
		WithClock(func() time.Time { return now })

	tier, err := svc.CheckAndDowngrade(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, Bronze, tier)
}

func TestCheckAndDowngradeStoreError(t *testing.T) {
	store := newMemStore()
	store.failGet = core.ErrNotFound
	svc := NewService(store, nil, time.Hour)

	tier, err := svc.CheckAndDowngrade(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Equal(t, Bronze, tier)
}

func TestUpgrade(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	month := 30 * 24 * time.Hour

	t.Run("bronze becomes gold for one period", func(t *testing.T) {
		store := newMemStore()
		store.records["u1"] = Record{Tier: Bronze}
		svc := NewService(store, nil, month).WithClock(func() time.Time { return now })

		rec, err := svc.Upgrade(context.Background(), "u1")
		require.NoError(t, err)
		assert.Equal(t, Gold, rec.Tier)
		require.NotNil(t, rec.ExpiresAt)
		assert.Equal(t, now.Add(month), *rec.ExpiresAt)
	})

	t.Run("active gold is extended", func(t *testing.T) {
		current := now.Add(5 * 24 * time.Hour)
		store := newMemStore()
		store.records["u1"] = Record{Tier: Gold, ExpiresAt: &current}
		svc := NewService(store, nil, month).WithClock(func() time.Time { return now })

		rec, err := svc.Upgrade(context.Background(), "u1")
		require.NoError(t, err)
		assert.Equal(t, current.Add(month), *rec.ExpiresAt)
	})

	t.Run("retries lost swaps", func(t *testing.T) {
		store := newMemStore()
		store.records["u1"] = Record{Tier: Bronze}
		store.swapMisses = 2
		svc := NewService(store, nil, month).WithClock(func() time.Time { return now })

		rec, err := svc.Upgrade(context.Background(), "u1")
		require.NoError(t, err)
		assert.Equal(t, Gold, rec.Tier)
	})

	t.Run("gives up after repeated conflicts", func(t *testing.T) {
		store := newMemStore()
		store.records["u1"] = Record{Tier: Bronze}
		store.swapMisses = maxSwapAttempts
		svc := NewService(store, nil, month).WithClock(func() time.Time { return now })

		_, err := svc.Upgrade(context.Background(), "u1")
		assert.ErrorIs(t, err, core.ErrConflict)
		assert.Equal(t, Bronze, store.records["u1"].Tier)
	})
}

func TestConcurrentUpgradesKeepEveryPeriod(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	month := 30 * 24 * time.Hour

	store := newMemStore()
	store.records["u1"] = Record{Tier: Bronze}
	svc := NewService(store, nil, month).WithClock(func() time.Time { return now })

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Upgrade(context.Background(), "u1"); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.NotNil(t, store.records["u1"].ExpiresAt)
	assert.Equal(t, now.Add(time.Duration(succeeded)*month), *store.records["u1"].ExpiresAt)
}
