package service

import (
	"context"
	"sync"
	"time"

	"giveaway-bot/internal/common/logger"
	"giveaway-bot/internal/features/giveaway/repository"
)

// ExpirationService is the recurring background task that completes due
// giveaways. One tick scans the scheduled records and runs completion for
// every record whose deadline has passed; a failing record is logged and
// retried on the next tick, it never stops the loop.
var _ ExpirationScheduler = (*ExpirationService)(nil)

type ExpirationService struct {
	ctx      context.Context
	cancel   context.CancelFunc
	repo     repository.GiveawayRepository
	service  GiveawayService
	interval time.Duration
	wg       sync.WaitGroup
	now      func() time.Time
}

func NewExpirationService(repo repository.GiveawayRepository, service GiveawayService, interval time.Duration) *ExpirationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &ExpirationService{
		ctx:      ctx,
		cancel:   cancel,
		repo:     repo,
		service:  service,
		interval: interval,
		now:      time.Now,
	}
}

func (s *ExpirationService) Start() {
	logger.Info().Dur("interval", s.interval).Msg("Starting expiration scheduler")
	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := s.Tick(s.ctx, s.now()); err != nil {
					logger.Error().Err(err).Msg("Expiration tick failed")
				}
			case <-s.ctx.Done():
				return
			}
		}
	}()
}

// Stop cancels the loop before its next tick. An in-flight tick is allowed
// to complete.
func (s *ExpirationService) Stop() {
	logger.Info().Msg("Stopping expiration scheduler")
	s.cancel()
	s.wg.Wait()
	logger.Info().Msg("Expiration scheduler stopped")
}

// Tick runs one scan. Only confirmed, not-yet-ended records are candidates;
// of those, only records whose end date has passed are completed.
func (s *ExpirationService) Tick(ctx context.Context, now time.Time) error {
	scheduled, err := s.repo.ListScheduled(ctx)
	if err != nil {
		return err
	}
	logger.Debug().Int("candidates", len(scheduled)).Msg("Checking giveaways")

	for _, giveaway := range scheduled {
		if giveaway.EndDate.After(now) {
			continue
		}
		if err := s.service.CompleteGiveaway(ctx, giveaway.ID); err != nil {
			// Skip this record for now, the next tick retries it.
			logger.Error().Err(err).Str("giveaway_id", giveaway.ID).
				Msg("Failed to complete giveaway")
		}
	}
	return nil
}
