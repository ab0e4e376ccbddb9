package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/srgjo27/eventpass/internal/core/codegen"
	"github.com/srgjo27/eventpass/internal/core/domain"
	"github.com/srgjo27/eventpass/internal/core/ports"
)

type CheckinService struct {
	base
}

func NewCheckinService(d Deps) *CheckinService {
	return &CheckinService{base: newBase(d, "checkin")}
}

// CheckIn consumes code for eventID exactly once. Codes bound to anything
// other than a confirmed registration, including retired codes, are
// ErrNotFound; a second use is ErrAlreadyCheckedIn.
func (s *CheckinService) CheckIn(ctx context.Context, eventID uuid.UUID, code string) (*domain.Registration, error) {
	code = codegen.Normalize(code)
	if code == "" {
		return nil, fmt.Errorf("code is required: %w", domain.ErrInvalidInput)
	}

	var reg *domain.Registration
	err := s.atomically(ctx, "checkin", func(tx ports.Tx) error {
		r, err := tx.Registrations().GetByCheckinCodeForUpdate(ctx, eventID, code)
		if err != nil {
			return err
		}
		if err := r.CheckIn(s.now()); err != nil {
			return err
		}
		if err := tx.Registrations().Update(ctx, r); err != nil {
			return err
		}
		reg = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "checked in", "event_id", reg.EventID, "registration_id", reg.ID)
	s.notify(ctx, domain.NotifyCheckedIn, reg.HolderID, reg.EventID, reg.ID, nil)
	return reg, nil
}
