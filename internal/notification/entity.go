// AngelaMos | 2026
// entity.go

package notification

import (
	"time"
)

type Notification struct {
	ID        string    `db:"id"         json:"id"`
	UserID    string    `db:"user_id"    json:"user_id"`
	Text      string    `db:"text"       json:"text"`
	Link      string    `db:"link"       json:"link"`
	Read      bool      `db:"read"       json:"read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type UnreadCountResponse struct {
	Count int `json:"count"`
}
