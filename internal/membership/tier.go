// AngelaMos | 2026
// tier.go

package membership

import (
	"time"
)

type Tier string

const (
	Bronze Tier = "bronze"
	Gold   Tier = "gold"
)

func (t Tier) Valid() bool {
	return t == Bronze || t == Gold
}

// Effective is the tier that governs permissions at now. A stored gold
// tier counts only while its expiry is unset (permanent) or in the future;
// anything else, including an unknown stored value, is bronze.
func Effective(stored Tier, expiresAt *time.Time, now time.Time) Tier {
	if stored != Gold {
		return Bronze
	}
	if expiresAt == nil || expiresAt.After(now) {
		return Gold
	}
	return Bronze
}

// NeedsDowngrade reports whether the stored record still claims gold
// although its expiry has passed.
func NeedsDowngrade(stored Tier, expiresAt *time.Time, now time.Time) bool {
	return stored == Gold && expiresAt != nil && !expiresAt.After(now)
}

// ExtendedExpiry is the expiry after buying another period of length d.
// Time left on an active gold membership carries over. A nil result means
// the membership is permanent and stays that way.
func ExtendedExpiry(
	stored Tier,
	expiresAt *time.Time,
	now time.Time,
	d time.Duration,
) *time.Time {
	if stored == Gold && expiresAt == nil {
		return nil
	}

	start := now
	if stored == Gold && expiresAt.After(now) {
		start = *expiresAt
	}

	next := start.Add(d)
	return &next
}
