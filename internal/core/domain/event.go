package domain

import (
	"time"

	"github.com/google/uuid"
)

type Event struct {
	ID               uuid.UUID `db:"id" json:"id"`
	Name             string    `db:"name" json:"name"`
	Slug             string    `db:"slug" json:"slug"`
	CapacityTotal    *int      `db:"capacity_total" json:"capacityTotal"`
	RequiresApproval bool      `db:"requires_approval" json:"requiresApproval"`
	WaitlistEnabled  bool      `db:"waitlist_enabled" json:"waitlistEnabled"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
}

// HasRoom reports whether one more registration can be confirmed given the
// current number of confirmed rows. A nil capacity is unlimited.
func (e *Event) HasRoom(confirmed int) bool {
	if e.CapacityTotal == nil {
		return true
	}
	return confirmed < *e.CapacityTotal
}

// Capacity is the derived admission snapshot of an event.
type Capacity struct {
	EventID    uuid.UUID `json:"eventId"`
	Total      *int      `json:"total"`
	Confirmed  int       `json:"confirmed"`
	Remaining  *int      `json:"remaining"`
	Waitlisted int       `json:"waitlisted"`
}

func NewCapacity(e *Event, confirmed, waitlisted int) Capacity {
	c := Capacity{
		EventID:    e.ID,
		Total:      e.CapacityTotal,
		Confirmed:  confirmed,
		Waitlisted: waitlisted,
	}
	if e.CapacityTotal != nil {
		remaining := *e.CapacityTotal - confirmed
		if remaining < 0 {
			remaining = 0
		}
		c.Remaining = &remaining
	}
	return c
}
