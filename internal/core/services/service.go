// Package services holds the coordination core: every state transition of a
// registration or transfer offer runs here inside one unit of work.
package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/srgjo27/eventpass/internal/core/codegen"
	"github.com/srgjo27/eventpass/internal/core/domain"
	"github.com/srgjo27/eventpass/internal/core/ports"
	"github.com/srgjo27/eventpass/internal/platform/logger"
)

type Options struct {
	OfferWindow       time.Duration
	CheckinCodeLength int
	InviteCodeLength  int
	OfferCodeLength   int
	CodeMaxAttempts   int
	RetryAttempts     int
}

func DefaultOptions() Options {
	return Options{
		OfferWindow:       30 * time.Minute,
		CheckinCodeLength: 6,
		InviteCodeLength:  8,
		OfferCodeLength:   10,
		CodeMaxAttempts:   8,
		RetryAttempts:     3,
	}
}

// Deps is shared by every service. Cache and Notifier may be nil.
type Deps struct {
	Store    ports.UnitOfWork
	Cache    ports.CapacityCache
	Notifier ports.Notifier
	Clock    clockwork.Clock
	Logger   *slog.Logger
	Options  Options
}

type base struct {
	store    ports.UnitOfWork
	cache    ports.CapacityCache
	notifier ports.Notifier
	clock    clockwork.Clock
	log      *slog.Logger
	opts     Options
	codes    *codegen.Generator
}

func newBase(d Deps, component string) base {
	if d.Clock == nil {
		d.Clock = clockwork.NewRealClock()
	}
	if d.Logger == nil {
		d.Logger = logger.Discard()
	}
	if d.Options.RetryAttempts < 1 {
		d.Options.RetryAttempts = 1
	}
	return base{
		store:    d.Store,
		cache:    d.Cache,
		notifier: d.Notifier,
		clock:    d.Clock,
		log:      d.Logger.With("component", component),
		opts:     d.Options,
		codes:    codegen.New(codegen.Alphabet, d.Options.CodeMaxAttempts),
	}
}

// atomically runs fn in a unit of work and replays it while the store
// reports a conflict, up to the configured attempt budget.
func (b *base) atomically(ctx context.Context, op string, fn func(tx ports.Tx) error) error {
	var err error
	for attempt := 1; attempt <= b.opts.RetryAttempts; attempt++ {
		err = b.store.Do(ctx, fn)
		if !errors.Is(err, domain.ErrStoreConflict) {
			return err
		}
		b.log.WarnContext(ctx, "store conflict", "op", op, "attempt", attempt)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
	}
	return err
}

// mintCheckinCode draws a code that is neither bound nor retired in the event.
func (b *base) mintCheckinCode(ctx context.Context, tx ports.Tx, eventID uuid.UUID) (string, error) {
	return b.codes.Unique(ctx, b.opts.CheckinCodeLength, func(ctx context.Context, code string) (bool, error) {
		return tx.Registrations().CheckinCodeTaken(ctx, eventID, code)
	})
}

// now reads the injected clock in UTC.
func (b *base) now() time.Time {
	return b.clock.Now().UTC()
}

func (b *base) invalidate(ctx context.Context, eventID uuid.UUID) {
	if b.cache == nil {
		return
	}
	if err := b.cache.Invalidate(ctx, eventID); err != nil {
		b.log.WarnContext(ctx, "capacity cache invalidate failed", "event_id", eventID, "error", err)
	}
}

func (b *base) notify(ctx context.Context, typ domain.NotificationType, userID string, eventID, registrationID uuid.UUID, offerID *uuid.UUID) {
	if b.notifier == nil {
		return
	}
	n := domain.Notification{
		Type:           typ,
		UserID:         userID,
		EventID:        eventID,
		RegistrationID: registrationID,
		OfferID:        offerID,
		OccurredAt:     b.now(),
	}
	if err := b.notifier.Notify(ctx, n); err != nil {
		b.log.WarnContext(ctx, "notify failed", "type", typ, "user_id", userID, "error", err)
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
