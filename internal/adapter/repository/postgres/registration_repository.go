package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/srgjo27/eventpass/internal/core/domain"
)

const registrationColumns = `id, event_id, holder_id, attendee_name, status, checked_in, checked_in_at,
	checkin_code, waitlist_position, previous_holder_id, transferred_at, transferred_to,
	invitation_code_id, version, created_at, updated_at`

type RegistrationRepository struct {
	db sqlx.ExtContext
}

func NewRegistrationRepository(db sqlx.ExtContext) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

func (r *RegistrationRepository) Create(ctx context.Context, reg *domain.Registration) error {
	query := `
	INSERT INTO registrations (` + registrationColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := r.db.ExecContext(ctx, query,
		reg.ID, reg.EventID, reg.HolderID, reg.AttendeeName, reg.Status, reg.CheckedIn, reg.CheckedInAt,
		reg.CheckinCode, reg.WaitlistPosition, reg.PreviousHolderID, reg.TransferredAt, reg.TransferredTo,
		reg.InvitationCodeID, reg.Version, reg.CreatedAt, reg.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert registration: %w", translate(err))
	}

	return nil
}

func (r *RegistrationRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Registration, error) {
	return r.getOne(ctx, `SELECT `+registrationColumns+` FROM registrations WHERE id = $1`, id)
}

func (r *RegistrationRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Registration, error) {
	return r.getOne(ctx, `SELECT `+registrationColumns+` FROM registrations WHERE id = $1 FOR UPDATE`, id)
}

func (r *RegistrationRepository) GetByCheckinCodeForUpdate(ctx context.Context, eventID uuid.UUID, code string) (*domain.Registration, error) {
	query := `
	SELECT ` + registrationColumns + `
	FROM registrations
	WHERE event_id = $1 AND checkin_code = $2
	FOR UPDATE
	`
	return r.getOne(ctx, query, eventID, code)
}

func (r *RegistrationRepository) FindActive(ctx context.Context, eventID uuid.UUID, holderID string) (*domain.Registration, error) {
	query := `
	SELECT ` + registrationColumns + `
	FROM registrations
	WHERE event_id = $1 AND holder_id = $2 AND status IN ('pending', 'confirmed', 'waitlisted')
	LIMIT 1
	`
	return r.getOne(ctx, query, eventID, holderID)
}

func (r *RegistrationRepository) CountByStatus(ctx context.Context, eventID uuid.UUID, status domain.RegistrationStatus) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, r.db, &n,
		`SELECT COUNT(*) FROM registrations WHERE event_id = $1 AND status = $2`, eventID, status)
	if err != nil {
		return 0, fmt.Errorf("count registrations: %w", translate(err))
	}
	return n, nil
}

func (r *RegistrationRepository) MaxWaitlistPosition(ctx context.Context, eventID uuid.UUID) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, r.db, &n, `
	SELECT COALESCE(MAX(waitlist_position), 0)
	FROM registrations
	WHERE event_id = $1 AND status = 'waitlisted'
	`, eventID)
	if err != nil {
		return 0, fmt.Errorf("max waitlist position: %w", translate(err))
	}
	return n, nil
}

func (r *RegistrationRepository) FirstWaitlistedForUpdate(ctx context.Context, eventID uuid.UUID) (*domain.Registration, error) {
	query := `
	SELECT ` + registrationColumns + `
	FROM registrations
	WHERE event_id = $1 AND status = 'waitlisted'
	ORDER BY waitlist_position ASC, created_at ASC
	LIMIT 1
	FOR UPDATE
	`
	return r.getOne(ctx, query, eventID)
}

func (r *RegistrationRepository) ListWaitlist(ctx context.Context, eventID uuid.UUID) ([]domain.Registration, error) {
	query := `
	SELECT ` + registrationColumns + `
	FROM registrations
	WHERE event_id = $1 AND status = 'waitlisted'
	ORDER BY waitlist_position ASC, created_at ASC
	`

	var regs []domain.Registration
	if err := sqlx.SelectContext(ctx, r.db, &regs, query, eventID); err != nil {
		return nil, fmt.Errorf("list waitlist: %w", translate(err))
	}
	return regs, nil
}

// ShiftWaitlist closes the gap left at position after.
func (r *RegistrationRepository) ShiftWaitlist(ctx context.Context, eventID uuid.UUID, after int, now time.Time) error {
	query := `
	UPDATE registrations
	SET waitlist_position = waitlist_position - 1,
		version = version + 1,
		updated_at = $3
	WHERE event_id = $1 AND status = 'waitlisted' AND waitlist_position > $2
	`

	if _, err := r.db.ExecContext(ctx, query, eventID, after, now); err != nil {
		return fmt.Errorf("shift waitlist: %w", translate(err))
	}
	return nil
}

// Update writes every mutable column, guarded by the version the caller
// read. Check-in history is only ever set, never cleared, by the domain.
func (r *RegistrationRepository) Update(ctx context.Context, reg *domain.Registration) error {
	query := `
	UPDATE registrations
	SET holder_id = $2,
		attendee_name = $3,
		status = $4,
		checked_in = $5,
		checked_in_at = $6,
		checkin_code = $7,
		waitlist_position = $8,
		previous_holder_id = $9,
		transferred_at = $10,
		transferred_to = $11,
		updated_at = $12,
		version = version + 1
	WHERE id = $1 AND version = $13
	`

	res, err := r.db.ExecContext(ctx, query,
		reg.ID, reg.HolderID, reg.AttendeeName, reg.Status, reg.CheckedIn, reg.CheckedInAt,
		reg.CheckinCode, reg.WaitlistPosition, reg.PreviousHolderID, reg.TransferredAt, reg.TransferredTo,
		reg.UpdatedAt, reg.Version,
	)
	if err != nil {
		return fmt.Errorf("update registration: %w", translate(err))
	}
	if err := expectOneRow(res); err != nil {
		return fmt.Errorf("update registration %s: %w", reg.ID, err)
	}

	reg.Version++
	return nil
}

func (r *RegistrationRepository) CheckinCodeTaken(ctx context.Context, eventID uuid.UUID, code string) (bool, error) {
	query := `
	SELECT EXISTS (SELECT 1 FROM registrations WHERE event_id = $1 AND checkin_code = $2)
		OR EXISTS (SELECT 1 FROM retired_checkin_codes WHERE event_id = $1 AND code = $2)
	`

	var taken bool
	if err := sqlx.GetContext(ctx, r.db, &taken, query, eventID, code); err != nil {
		return false, fmt.Errorf("check checkin code: %w", translate(err))
	}
	return taken, nil
}

func (r *RegistrationRepository) RetireCheckinCode(ctx context.Context, eventID uuid.UUID, code string, registrationID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO retired_checkin_codes (event_id, code, registration_id) VALUES ($1, $2, $3)`,
		eventID, code, registrationID)
	if err != nil {
		return fmt.Errorf("retire checkin code: %w", translate(err))
	}
	return nil
}

func (r *RegistrationRepository) getOne(ctx context.Context, query string, args ...any) (*domain.Registration, error) {
	var reg domain.Registration
	if err := sqlx.GetContext(ctx, r.db, &reg, query, args...); err != nil {
		return nil, fmt.Errorf("get registration: %w", translate(err))
	}
	return &reg, nil
}
