package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/srgjo27/eventpass/internal/core/domain"
)

const offerColumns = `id, registration_id, event_id, from_user_id, to_user_id, code, status,
	created_at, expires_at, resolved_at, version`

type TransferOfferRepository struct {
	db sqlx.ExtContext
}

func NewTransferOfferRepository(db sqlx.ExtContext) *TransferOfferRepository {
	return &TransferOfferRepository{db: db}
}

func (r *TransferOfferRepository) Create(ctx context.Context, offer *domain.TransferOffer) error {
	query := `
	INSERT INTO transfer_offers (` + offerColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(ctx, query,
		offer.ID, offer.RegistrationID, offer.EventID, offer.FromUserID, offer.ToUserID, offer.Code,
		offer.Status, offer.CreatedAt, offer.ExpiresAt, offer.ResolvedAt, offer.Version,
	)
	if err != nil {
		return fmt.Errorf("insert transfer offer: %w", translate(err))
	}
	return nil
}

func (r *TransferOfferRepository) Get(ctx context.Context, id uuid.UUID) (*domain.TransferOffer, error) {
	return r.getOne(ctx, `SELECT `+offerColumns+` FROM transfer_offers WHERE id = $1`, id)
}

func (r *TransferOfferRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.TransferOffer, error) {
	return r.getOne(ctx, `SELECT `+offerColumns+` FROM transfer_offers WHERE id = $1 FOR UPDATE`, id)
}

func (r *TransferOfferRepository) GetByCode(ctx context.Context, code string) (*domain.TransferOffer, error) {
	return r.getOne(ctx, `SELECT `+offerColumns+` FROM transfer_offers WHERE code = $1`, code)
}

func (r *TransferOfferRepository) FindPendingForUpdate(ctx context.Context, registrationID uuid.UUID) (*domain.TransferOffer, error) {
	query := `
	SELECT ` + offerColumns + `
	FROM transfer_offers
	WHERE registration_id = $1 AND status = 'pending'
	FOR UPDATE
	`
	return r.getOne(ctx, query, registrationID)
}

func (r *TransferOfferRepository) Update(ctx context.Context, offer *domain.TransferOffer) error {
	query := `
	UPDATE transfer_offers
	SET status = $2,
		to_user_id = $3,
		resolved_at = $4,
		version = version + 1
	WHERE id = $1 AND version = $5
	`

	res, err := r.db.ExecContext(ctx, query, offer.ID, offer.Status, offer.ToUserID, offer.ResolvedAt, offer.Version)
	if err != nil {
		return fmt.Errorf("update transfer offer: %w", translate(err))
	}
	if err := expectOneRow(res); err != nil {
		return fmt.Errorf("update transfer offer %s: %w", offer.ID, err)
	}

	offer.Version++
	return nil
}

func (r *TransferOfferRepository) CodeTaken(ctx context.Context, code string) (bool, error) {
	var taken bool
	err := sqlx.GetContext(ctx, r.db, &taken, `SELECT EXISTS (SELECT 1 FROM transfer_offers WHERE code = $1)`, code)
	if err != nil {
		return false, fmt.Errorf("check offer code: %w", translate(err))
	}
	return taken, nil
}

func (r *TransferOfferRepository) ExpireLapsed(ctx context.Context, now time.Time) (int, error) {
	query := `
	UPDATE transfer_offers
	SET status = 'expired',
		resolved_at = $1,
		version = version + 1
	WHERE status = 'pending' AND expires_at < $1
	`

	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("expire lapsed offers: %w", translate(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (r *TransferOfferRepository) getOne(ctx context.Context, query string, args ...any) (*domain.TransferOffer, error) {
	var offer domain.TransferOffer
	if err := sqlx.GetContext(ctx, r.db, &offer, query, args...); err != nil {
		return nil, fmt.Errorf("get transfer offer: %w", translate(err))
	}
	return &offer, nil
}
