package domain

import (
	"time"

	"github.com/google/uuid"
)

// InvitationCode attributes registrations to a distribution channel. It
// carries no ownership.
type InvitationCode struct {
	ID        uuid.UUID `db:"id" json:"id"`
	EventID   uuid.UUID `db:"event_id" json:"eventId"`
	Channel   string    `db:"channel" json:"channel"`
	Code      string    `db:"code" json:"code"`
	Uses      int       `db:"uses" json:"uses"`
	CreatedBy string    `db:"created_by" json:"createdBy"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
