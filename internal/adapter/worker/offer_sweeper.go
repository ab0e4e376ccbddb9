// Package worker runs periodic housekeeping. Nothing here is required for
// correctness: offers expire lazily whether or not a sweep has run.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
)

type OfferExpirer interface {
	ExpireStaleOffers(ctx context.Context) (int, error)
}

// OfferSweeper persists the expired status of lapsed transfer offers on a
// fixed interval.
type OfferSweeper struct {
	scheduler gocron.Scheduler
	expirer   OfferExpirer
	interval  time.Duration
	log       *slog.Logger
}

// NewOfferSweeper schedules sweeps on clk, the same clock the services read.
func NewOfferSweeper(expirer OfferExpirer, interval time.Duration, clk clockwork.Clock, log *slog.Logger) (*OfferSweeper, error) {
	scheduler, err := gocron.NewScheduler(gocron.WithClock(clk))
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	s := &OfferSweeper{
		scheduler: scheduler,
		expirer:   expirer,
		interval:  interval,
		log:       log.With("component", "offer_sweeper"),
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { s.Sweep(context.Background()) }),
		gocron.WithName("expire-transfer-offers"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return nil, fmt.Errorf("schedule offer sweep: %w", err)
	}
	return s, nil
}

func (s *OfferSweeper) Start() {
	s.log.Info("offer sweeper started", "interval", s.interval)
	s.scheduler.Start()
}

// Stop waits for a running sweep to finish.
func (s *OfferSweeper) Stop() error {
	if err := s.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("stop offer sweeper: %w", err)
	}
	s.log.Info("offer sweeper stopped")
	return nil
}

// Sweep runs one pass. Failures are logged and retried on the next tick.
func (s *OfferSweeper) Sweep(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.interval)
	defer cancel()

	n, err := s.expirer.ExpireStaleOffers(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "offer sweep failed", "error", err)
		return
	}
	if n > 0 {
		s.log.DebugContext(ctx, "offer sweep done", "expired", n)
	}
}
