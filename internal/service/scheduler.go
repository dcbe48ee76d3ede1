package service

import (
	"context"
	"errors"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"go.uber.org/zap"

	"cargo/internal/domain"
)

// PayoutRunner runs the payout batch of a date.
type PayoutRunner interface {
	RunWeeklyBatch(ctx context.Context, runDate time.Time) (*BatchResult, error)
}

// PayoutScheduler triggers the weekly batch on payout day once the
// configured hour has passed.
type PayoutScheduler struct {
	runner   PayoutRunner
	loc      *time.Location
	hour     int
	interval time.Duration
	nrApp    *newrelic.Application
	logger   *zap.Logger
	now      func() time.Time

	lastRun time.Time
}

// NewPayoutScheduler creates a new PayoutScheduler. nrApp may be nil.
func NewPayoutScheduler(runner PayoutRunner, loc *time.Location, hour int, interval time.Duration, nrApp *newrelic.Application, logger *zap.Logger) *PayoutScheduler {
	if loc == nil {
		loc = time.UTC
	}
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &PayoutScheduler{
		runner:   runner,
		loc:      loc,
		hour:     hour,
		interval: interval,
		nrApp:    nrApp,
		logger:   logger.Named("payout-scheduler"),
		now:      time.Now,
	}
}

// WithClock replaces the scheduler clock.
func (s *PayoutScheduler) WithClock(now func() time.Time) *PayoutScheduler {
	s.now = now
	return s
}

// Run checks on every interval until ctx is cancelled.
func (s *PayoutScheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("payout scheduler started",
		zap.String("timezone", s.loc.String()),
		zap.Int("hour", s.hour),
		zap.Duration("interval", s.interval),
	)

	s.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("payout scheduler stopped")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs today's batch when it is due. It reports whether a batch ran.
func (s *PayoutScheduler) Tick(ctx context.Context) bool {
	local := s.now().In(s.loc)
	today := domain.LocalDate(local, s.loc)
	if local.Weekday() != domain.PayoutWeekday || local.Hour() < s.hour || s.lastRun.Equal(today) {
		return false
	}

	var txn *newrelic.Transaction
	if s.nrApp != nil {
		txn = s.nrApp.StartTransaction("payout-batch")
		defer txn.End()
		ctx = newrelic.NewContext(ctx, txn)
	}

	_, err := s.runner.RunWeeklyBatch(ctx, today)
	switch {
	case err == nil:
		s.lastRun = today
		return true
	case errors.Is(err, ErrPayoutAlreadyRun):
		s.lastRun = today
	case errors.Is(err, ErrResourceBusy):
		s.logger.Debug("payout batch running elsewhere")
	default:
		if txn != nil {
			txn.NoticeError(err)
		}
		s.logger.Error("payout batch failed", zap.Error(err))
	}
	return false
}
