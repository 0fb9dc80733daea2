// AngelaMos | 2026
// entity.go

package payment

import (
	"time"

	"github.com/carterperez-dev/forum-api/internal/membership"
)

type Payment struct {
	ID          string    `db:"id"           json:"id"`
	UserID      string    `db:"user_id"      json:"user_id"`
	Email       string    `db:"email"        json:"email"`
	IntentID    string    `db:"intent_id"    json:"intent_id"`
	AmountCents int64     `db:"amount_cents" json:"amount_cents"`
	Currency    string    `db:"currency"     json:"currency"`
	Status      string    `db:"status"       json:"status"`
	CreatedAt   time.Time `db:"created_at"   json:"created_at"`
}

type CreateIntentRequest struct {
	AmountCents int64 `json:"amount" validate:"required,gt=0"`
}

type IntentResponse struct {
	ClientSecret string `json:"client_secret"`
	IntentID     string `json:"intent_id"`
	AmountCents  int64  `json:"amount"`
	Currency     string `json:"currency"`
}

type ConfirmRequest struct {
	IntentID string `json:"intent_id" validate:"required,max=255"`
}

type ConfirmResponse struct {
	Payment         Payment         `json:"payment"`
	Member          membership.Tier `json:"member"`
	MemberExpiresAt *time.Time      `json:"member_expires_at,omitempty"`
	// Duplicate is true when the intent had already been recorded.
	Duplicate bool `json:"duplicate"`
}
