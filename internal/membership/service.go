// AngelaMos | 2026
// service.go

package membership

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/forum-api/internal/core"
)

// Record is the stored membership state of one user.
type Record struct {
	Tier      Tier
	ExpiresAt *time.Time
}

type Store interface {
	GetMembership(ctx context.Context, userID string) (Record, error)
	// DowngradeExpired flips a stored gold past its expiry to bronze and
	// reports whether a row changed. It must be a single conditional write.
	DowngradeExpired(ctx context.Context, userID string, now time.Time) (bool, error)
	// SwapMembership writes next only if the stored state still equals prev.
	SwapMembership(ctx context.Context, userID string, prev, next Record) (bool, error)
}

type Notifier interface {
	Notify(ctx context.Context, userID, text, link string) error
}

const maxSwapAttempts = 3

type Service struct {
	store        Store
	notifier     Notifier
	goldDuration time.Duration
	now          func() time.Time
}

func NewService(store Store, notifier Notifier, goldDuration time.Duration) *Service {
	return &Service{
		store:        store,
		notifier:     notifier,
		goldDuration: goldDuration,
		now:          time.Now,
	}
}

// WithClock replaces the time source; used by tests to move past expiry.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Now() time.Time {
	return s.now()
}

// CheckAndDowngrade reconciles the stored tier with its expiry and returns
// the effective tier read back from the store. Safe to call any number of
// times: a user that is not expired gold is never written.
func (s *Service) CheckAndDowngrade(ctx context.Context, userID string) (Tier, error) {
	ctx, span := core.StartSpan(ctx, "membership.check_and_downgrade",
		attribute.String("user.id", userID))
	defer span.End()

	now := s.now()

	downgraded, err := s.store.DowngradeExpired(ctx, userID, now)
	if err != nil {
		core.SetSpanError(ctx, err)
		return Bronze, fmt.Errorf("check membership: %w", err)
	}

	if downgraded {
		core.MembershipDowngrades.Inc()
		core.AddSpanEvent(ctx, "membership.downgraded")
		slog.InfoContext(ctx, "membership downgraded", "user_id", userID)

		if s.notifier != nil {
			if err := s.notifier.Notify(
				ctx,
				userID,
				"Your gold membership has expired. You are now a bronze member.",
				"/membership",
			); err != nil {
				slog.WarnContext(ctx, "downgrade notification failed",
					"user_id", userID,
					"error", err,
				)
			}
		}
	}

	rec, err := s.store.GetMembership(ctx, userID)
	if err != nil {
		return Bronze, fmt.Errorf("check membership: %w", err)
	}

	return Effective(rec.Tier, rec.ExpiresAt, now), nil
}

// Upgrade grants one gold period. Concurrent upgrades are serialized by
// compare-and-swap on the stored record so no purchased period is lost.
func (s *Service) Upgrade(ctx context.Context, userID string) (Record, error) {
	ctx, span := core.StartSpan(ctx, "membership.upgrade",
		attribute.String("user.id", userID))
	defer span.End()

	for range maxSwapAttempts {
		prev, err := s.store.GetMembership(ctx, userID)
		if err != nil {
			return Record{}, fmt.Errorf("upgrade membership: %w", err)
		}

		next := Record{
			Tier: Gold,
			ExpiresAt: ExtendedExpiry(
				prev.Tier,
				prev.ExpiresAt,
				s.now(),
				s.goldDuration,
			),
		}

		swapped, err := s.store.SwapMembership(ctx, userID, prev, next)
		if err != nil {
			core.SetSpanError(ctx, err)
			return Record{}, fmt.Errorf("upgrade membership: %w", err)
		}

		if swapped {
			core.MembershipUpgrades.Inc()
			core.AddSpanEvent(ctx, "membership.upgraded")
			return next, nil
		}
	}

	return Record{}, fmt.Errorf(
		"upgrade membership: concurrent modification: %w",
		core.ErrConflict,
	)
}
