package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/srgjo27/eventpass/internal/core/domain"
)

const (
	constraintActiveHolder    = "registrations_active_holder_key"
	constraintOnePendingOffer = "transfer_offers_one_pending_key"
)

// translate maps driver failures onto the domain taxonomy. Unique
// violations on the unique indexes are business outcomes; every other
// unique violation, serialization failure or deadlock is a retryable
// conflict.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}

	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}

	switch pqErr.Code {
	case "23505":
		switch pqErr.Constraint {
		case constraintActiveHolder:
			return fmt.Errorf("%w: %s", domain.ErrDuplicateRegistration, pqErr.Message)
		case constraintOnePendingOffer:
			return fmt.Errorf("%w: %s", domain.ErrAlreadyTransferring, pqErr.Message)
		}
		return fmt.Errorf("%w: %s", domain.ErrStoreConflict, pqErr.Message)
	case "40001", "40P01", "55P03":
		return fmt.Errorf("%w: %s", domain.ErrStoreConflict, pqErr.Message)
	}
	return err
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: row was modified by another transaction", domain.ErrStoreConflict)
	}
	return nil
}
