package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/srgjo27/eventpass/internal/core/domain"
	"github.com/srgjo27/eventpass/internal/core/ports"
)

// InvitationService mints per-channel attribution codes. Codes are unique
// across all events.
type InvitationService struct {
	base
}

func NewInvitationService(d Deps) *InvitationService {
	return &InvitationService{base: newBase(d, "invitation")}
}

// Create returns the channel's existing code if one was already minted;
// created reports whether this call minted it.
func (s *InvitationService) Create(ctx context.Context, eventID uuid.UUID, channel, createdBy string) (inv *domain.InvitationCode, created bool, err error) {
	channel = strings.ToLower(strings.TrimSpace(channel))
	if channel == "" {
		return nil, false, fmt.Errorf("channel is required: %w", domain.ErrInvalidInput)
	}

	err = s.atomically(ctx, "create_invitation", func(tx ports.Tx) error {
		created = false
		if _, err := tx.Events().GetForUpdate(ctx, eventID); err != nil {
			return err
		}
		existing, err := tx.Invitations().ListByEvent(ctx, eventID)
		if err != nil {
			return err
		}
		for i := range existing {
			if existing[i].Channel == channel {
				inv = &existing[i]
				return nil
			}
		}

		code, err := s.codes.Unique(ctx, s.opts.InviteCodeLength, tx.Invitations().CodeTaken)
		if err != nil {
			return err
		}
		inv = &domain.InvitationCode{
			ID:        uuid.New(),
			EventID:   eventID,
			Channel:   channel,
			Code:      code,
			CreatedBy: createdBy,
			CreatedAt: s.now(),
		}
		if err := tx.Invitations().Create(ctx, inv); err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	s.log.InfoContext(ctx, "invitation code ready", "event_id", eventID, "channel", channel, "created", created)
	return inv, created, nil
}

func (s *InvitationService) List(ctx context.Context, eventID uuid.UUID) ([]domain.InvitationCode, error) {
	var list []domain.InvitationCode
	err := s.store.Do(ctx, func(tx ports.Tx) error {
		if _, err := tx.Events().Get(ctx, eventID); err != nil {
			return err
		}
		var err error
		list, err = tx.Invitations().ListByEvent(ctx, eventID)
		return err
	})
	return list, err
}
