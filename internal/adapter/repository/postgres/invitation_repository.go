package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/srgjo27/eventpass/internal/core/domain"
)

const invitationColumns = `id, event_id, channel, code, uses, created_by, created_at`

type InvitationRepository struct {
	db sqlx.ExtContext
}

func NewInvitationRepository(db sqlx.ExtContext) *InvitationRepository {
	return &InvitationRepository{db: db}
}

func (r *InvitationRepository) Create(ctx context.Context, inv *domain.InvitationCode) error {
	query := `
	INSERT INTO invitation_codes (` + invitationColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		inv.ID, inv.EventID, inv.Channel, inv.Code, inv.Uses, inv.CreatedBy, inv.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert invitation code: %w", translate(err))
	}
	return nil
}

func (r *InvitationRepository) GetByCode(ctx context.Context, code string) (*domain.InvitationCode, error) {
	var inv domain.InvitationCode
	err := sqlx.GetContext(ctx, r.db, &inv, `SELECT `+invitationColumns+` FROM invitation_codes WHERE code = $1`, code)
	if err != nil {
		return nil, fmt.Errorf("get invitation code: %w", translate(err))
	}
	return &inv, nil
}

func (r *InvitationRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]domain.InvitationCode, error) {
	var invs []domain.InvitationCode
	err := sqlx.SelectContext(ctx, r.db, &invs,
		`SELECT `+invitationColumns+` FROM invitation_codes WHERE event_id = $1 ORDER BY created_at ASC`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list invitation codes: %w", translate(err))
	}
	return invs, nil
}

func (r *InvitationRepository) IncrementUses(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `UPDATE invitation_codes SET uses = uses + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment invitation uses: %w", translate(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("increment invitation uses: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *InvitationRepository) CodeTaken(ctx context.Context, code string) (bool, error) {
	var taken bool
	err := sqlx.GetContext(ctx, r.db, &taken, `SELECT EXISTS (SELECT 1 FROM invitation_codes WHERE code = $1)`, code)
	if err != nil {
		return false, fmt.Errorf("check invitation code: %w", translate(err))
	}
	return taken, nil
}
