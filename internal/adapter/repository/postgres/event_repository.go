package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/srgjo27/eventpass/internal/core/domain"
)

const eventColumns = `id, name, slug, capacity_total, requires_approval, waitlist_enabled, created_at`

type EventRepository struct {
	db sqlx.ExtContext
}

func NewEventRepository(db sqlx.ExtContext) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Create(ctx context.Context, event *domain.Event) error {
	query := `
	INSERT INTO events (` + eventColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		event.ID, event.Name, event.Slug, event.CapacityTotal, event.RequiresApproval, event.WaitlistEnabled, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert event: %w", translate(err))
	}

	return nil
}

func (r *EventRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	return r.get(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
}

// GetForUpdate locks the event row. Every operation that reads or changes
// capacity accounting holds this lock, which serialises admission per event.
func (r *EventRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	return r.get(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, id)
}

func (r *EventRepository) get(ctx context.Context, query string, id uuid.UUID) (*domain.Event, error) {
	var event domain.Event
	if err := sqlx.GetContext(ctx, r.db, &event, query, id); err != nil {
		return nil, fmt.Errorf("get event: %w", translate(err))
	}
	return &event, nil
}
