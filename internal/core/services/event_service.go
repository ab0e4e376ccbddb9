package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/srgjo27/eventpass/internal/core/domain"
	"github.com/srgjo27/eventpass/internal/core/ports"
)

type CreateEventInput struct {
	Name             string
	CapacityTotal    *int
	RequiresApproval bool
	WaitlistEnabled  bool
}

type EventService struct {
	base
}

func NewEventService(d Deps) *EventService {
	return &EventService{base: newBase(d, "event")}
}

func (s *EventService) Create(ctx context.Context, in CreateEventInput) (*domain.Event, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("event name is required: %w", domain.ErrInvalidInput)
	}
	if in.CapacityTotal != nil && *in.CapacityTotal < 0 {
		return nil, fmt.Errorf("capacity must not be negative: %w", domain.ErrInvalidInput)
	}

	event := &domain.Event{
		ID:               uuid.New(),
		Name:             name,
		Slug:             slug.Make(name),
		CapacityTotal:    in.CapacityTotal,
		RequiresApproval: in.RequiresApproval,
		WaitlistEnabled:  in.WaitlistEnabled,
		CreatedAt:        s.now(),
	}
	err := s.atomically(ctx, "create_event", func(tx ports.Tx) error {
		return tx.Events().Create(ctx, event)
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "event created", "event_id", event.ID)
	return event, nil
}

func (s *EventService) Get(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	var event *domain.Event
	err := s.store.Do(ctx, func(tx ports.Tx) error {
		var err error
		event, err = tx.Events().Get(ctx, id)
		return err
	})
	return event, err
}
