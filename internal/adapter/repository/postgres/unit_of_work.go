package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/srgjo27/eventpass/internal/core/ports"
)

type UnitOfWork struct {
	db *sqlx.DB
}

func NewUnitOfWork(db *sqlx.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

// Do runs fn inside one READ COMMITTED transaction. Atomicity of each
// operation comes from the row locks (SELECT ... FOR UPDATE) the
// repositories take, always in event -> registration -> offer order.
func (u *UnitOfWork) Do(ctx context.Context, fn func(tx ports.Tx) error) error {
	tx, err := u.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", translate(err))
	}

	defer tx.Rollback()

	if err := fn(&txRepos{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", translate(err))
	}

	return nil
}

type txRepos struct {
	tx *sqlx.Tx
}

func (t *txRepos) Events() ports.EventRepository {
	return &EventRepository{db: t.tx}
}

func (t *txRepos) Registrations() ports.RegistrationRepository {
	return &RegistrationRepository{db: t.tx}
}

func (t *txRepos) Offers() ports.TransferOfferRepository {
	return &TransferOfferRepository{db: t.tx}
}

func (t *txRepos) Invitations() ports.InvitationRepository {
	return &InvitationRepository{db: t.tx}
}
