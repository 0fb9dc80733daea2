// AngelaMos | 2026
// tier_test.go

package membership

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffective(t *testing.T) {
	now := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	past := now.Add(-time.Second)
	future := now.Add(time.Hour)

	tests := []struct {
		name      string
		stored    Tier
		expiresAt *time.Time
		want      Tier
	}{
		{"bronze", Bronze, nil, Bronze},
		{"gold without expiry is permanent", Gold, nil, Gold},
		{"gold expiring later", Gold, &future, Gold},
		{"gold expired", Gold, &past, Bronze},
		{"gold expiring exactly now", Gold, &now, Bronze},
		{"unknown stored tier", Tier("platinum"), nil, Bronze},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Effective(tt.stored, tt.expiresAt, now))
		})
	}
}

func TestNeedsDowngrade(t *testing.T) {
	now := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	assert.True(t, NeedsDowngrade(Gold, &past, now))
	assert.False(t, NeedsDowngrade(Gold, &future, now))
	assert.False(t, NeedsDowngrade(Gold, nil, now))
	assert.False(t, NeedsDowngrade(Bronze, &past, now))
}

func TestExtendedExpiry(t *testing.T) {
	now := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	month := 30 * 24 * time.Hour

	t.Run("bronze starts from now", func(t *testing.T) {
		got := ExtendedExpiry(Bronze, nil, now, month)
		require.NotNil(t, got)
		assert.Equal(t, now.Add(month), *got)
	})

	t.Run("active gold carries remaining time", func(t *testing.T) {
		current := now.Add(10 * 24 * time.Hour)
		got := ExtendedExpiry(Gold, &current, now, month)
		require.NotNil(t, got)
		assert.Equal(t, current.Add(month), *got)
	})

	t.Run("expired gold starts from now", func(t *testing.T) {
		current := now.Add(-time.Hour)
		got := ExtendedExpiry(Gold, &current, now, month)
		require.NotNil(t, got)
		assert.Equal(t, now.Add(month), *got)
	})

	t.Run("permanent gold stays permanent", func(t *testing.T) {
		assert.Nil(t, ExtendedExpiry(Gold, nil, now, month))
	})
}
