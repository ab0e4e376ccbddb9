package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/srgjo27/eventpass/internal/core/domain"
)

// Notifier is a fire-and-forget sink; callers log failures and move on.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
	BroadcastOffer(ctx context.Context, offer *domain.TransferOffer) error
}

// CapacityCache holds advisory capacity snapshots. The ledger stays the
// source of truth for admission.
//
// Every Invalidate bumps the event's generation. A refill reads the
// generation before it reads the ledger and passes it to Set, which drops
// the snapshot if an invalidation happened in between.
type CapacityCache interface {
	Get(ctx context.Context, eventID uuid.UUID) (*domain.Capacity, error)
	Generation(ctx context.Context, eventID uuid.UUID) (int64, error)
	Set(ctx context.Context, c domain.Capacity, generation int64) (bool, error)
	Invalidate(ctx context.Context, eventID uuid.UUID) error
}
