package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ImmigreatAI/Course-site-sub000/internal/usecase"
)

// ExpiryWorker periodically flips overdue enrollments to expired so ownership
// checks stop treating them as owned.
type ExpiryWorker struct {
	interval time.Duration
	enrollUC usecase.EnrollmentUseCase
	log      *zerolog.Logger
}

func NewExpiryWorker(interval time.Duration, enrollUC usecase.EnrollmentUseCase, logger *zerolog.Logger) *ExpiryWorker {
	compLog := logger.With().Str("component", "ExpiryWorker").Logger()
	return &ExpiryWorker{
		interval: interval,
		enrollUC: enrollUC,
		log:      &compLog,
	}
}

func (w *ExpiryWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting expiry worker")
	// Run once on startup, then on every tick
	w.sweep(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping expiry worker")
			return ctx.Err()
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ExpiryWorker) sweep(ctx context.Context) {
	n, err := w.enrollUC.ExpireDue(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("expiry sweep failed")
		return
	}
	if n > 0 {
		w.log.Info().Int("count", n).Msg("enrollments expired")
	}
}
