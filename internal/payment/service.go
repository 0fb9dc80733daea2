// AngelaMos | 2026
// service.go

package payment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/forum-api/internal/config"
	"github.com/carterperez-dev/forum-api/internal/core"
	"github.com/carterperez-dev/forum-api/internal/membership"
	"github.com/carterperez-dev/forum-api/internal/policy"
)

type Upgrader interface {
	Upgrade(ctx context.Context, userID string) (membership.Record, error)
}

type Service struct {
	repo      Repository
	processor Processor
	members   Upgrader
	policy    *policy.Policy
	price     int64
	currency  string
}

func NewService(
	repo Repository,
	processor Processor,
	members Upgrader,
	pol *policy.Policy,
	cfg config.MembershipConfig,
) *Service {
	return &Service{
		repo:      repo,
		processor: processor,
		members:   members,
		policy:    pol,
		price:     cfg.PriceCents,
		currency:  strings.ToLower(cfg.Currency),
	}
}

// CreateIntent opens a payment for one gold period. The amount must match
// the configured price; the client never sets what it pays for.
func (s *Service) CreateIntent(
	ctx context.Context,
	sess *policy.Session,
	amountCents int64,
) (*IntentResponse, error) {
	if err := s.policy.Authorize(sess, policy.ActionPurchaseMembership, policy.Target{}); err != nil {
		return nil, err
	}
	if s.processor == nil {
		return nil, fmt.Errorf("create intent: payments not configured: %w", core.ErrUnavailable)
	}
	if amountCents != s.price {
		return nil, fmt.Errorf(
			"create intent: amount %d does not match price %d: %w",
			amountCents, s.price, core.ErrInvalidInput,
		)
	}

	intent, err := s.processor.CreateIntent(ctx, s.price, s.currency, map[string]string{
		"user_id": sess.UserID,
		"email":   sess.Email,
	})
	if err != nil {
		return nil, fmt.Errorf("create intent: %w: %w", core.ErrUnavailable, err)
	}

	return &IntentResponse{
		ClientSecret: intent.ClientSecret,
		IntentID:     intent.ID,
		AmountCents:  s.price,
		Currency:     s.currency,
	}, nil
}

// Confirm records a succeeded intent and grants gold. Confirming the same
// intent again returns the stored payment without a second upgrade.
func (s *Service) Confirm(
	ctx context.Context,
	sess *policy.Session,
	intentID string,
) (*ConfirmResponse, error) {
	ctx, span := core.StartSpan(ctx, "payment.confirm",
		attribute.String("payment.intent_id", intentID))
	defer span.End()

	if err := s.policy.Authorize(sess, policy.ActionPurchaseMembership, policy.Target{}); err != nil {
		return nil, err
	}
	if s.processor == nil {
		return nil, fmt.Errorf("confirm payment: payments not configured: %w", core.ErrUnavailable)
	}

	intent, err := s.processor.GetIntent(ctx, intentID)
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, fmt.Errorf("confirm payment: %w: %w", core.ErrUnavailable, err)
	}

	if err := s.verify(sess, intent); err != nil {
		return nil, err
	}

	payment := &Payment{
		ID:          uuid.New().String(),
		UserID:      sess.UserID,
		Email:       strings.ToLower(sess.Email),
		IntentID:    intent.ID,
		AmountCents: intent.AmountCents,
		Currency:    intent.Currency,
		Status:      intent.Status,
	}

	inserted, err := s.repo.Record(ctx, payment)
	if err != nil {
		return nil, err
	}

	if !inserted {
		if payment.UserID != sess.UserID {
			return nil, fmt.Errorf("confirm payment: intent owned by another user: %w", core.ErrForbidden)
		}
		slog.InfoContext(ctx, "payment already recorded", "intent_id", intentID)
		return &ConfirmResponse{Payment: *payment, Duplicate: true}, nil
	}

	rec, err := s.members.Upgrade(ctx, sess.UserID)
	if err != nil {
		// without the upgrade the payment must stay confirmable
		if delErr := s.repo.DeleteByIntent(ctx, intentID); delErr != nil {
			slog.ErrorContext(ctx, "payment rollback failed",
				"intent_id", intentID,
				"error", delErr,
			)
		}
		core.SetSpanError(ctx, err)
		return nil, err
	}

	slog.InfoContext(ctx, "membership purchased",
		"user_id", sess.UserID,
		"intent_id", intentID,
		"expires_at", rec.ExpiresAt,
	)

	return &ConfirmResponse{
		Payment:         *payment,
		Member:          rec.Tier,
		MemberExpiresAt: rec.ExpiresAt,
	}, nil
}

func (s *Service) verify(sess *policy.Session, intent *Intent) error {
	if intent.Status != StatusSucceeded {
		return fmt.Errorf(
			"confirm payment: intent status %s: %w",
			intent.Status, core.ErrInvalidInput,
		)
	}
	if intent.AmountCents != s.price || !strings.EqualFold(intent.Currency, s.currency) {
		return fmt.Errorf(
			"confirm payment: intent amount %d %s: %w",
			intent.AmountCents, intent.Currency, core.ErrInvalidInput,
		)
	}
	// Intents are only ever created with the buyer's id in metadata; one
	// without it was not created here and is not honored.
	if owner := intent.Metadata["user_id"]; owner != sess.UserID {
		return fmt.Errorf("confirm payment: intent not owned by caller: %w", core.ErrForbidden)
	}
	return nil
}

func (s *Service) ListMine(
	ctx context.Context,
	sess *policy.Session,
	params core.PageParams,
) ([]Payment, int, error) {
	if !sess.Authenticated() {
		return nil, 0, fmt.Errorf("list payments: %w", core.ErrUnauthorized)
	}
	return s.repo.ListByUser(ctx, sess.UserID, params)
}

func (s *Service) ListAll(
	ctx context.Context,
	sess *policy.Session,
	params core.PageParams,
) ([]Payment, int, error) {
	if err := s.policy.Authorize(sess, policy.ActionViewAllPayments, policy.Target{}); err != nil {
		return nil, 0, err
	}
	return s.repo.ListAll(ctx, params)
}
