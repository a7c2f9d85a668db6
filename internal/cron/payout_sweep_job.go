package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/haventrip/haventrip-backend/internal/payouts"
	"github.com/haventrip/haventrip-backend/pkg/logger"
)

const (
	payoutSweepLag       = time.Hour
	payoutSweepBatchSize = 100
)

type PayoutSweepJobParams struct {
	Logger    *logger.Logger
	Bookings  payoutCandidateSource
	Payouts   payoutReconciler
	Lag       time.Duration
	BatchSize int
}

type payoutCandidateSource interface {
	ListUnreconciled(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error)
}

type payoutReconciler interface {
	Reconcile(ctx context.Context, bookingID uuid.UUID) (*payouts.Result, error)
}

// NewPayoutSweepJob builds the job that releases host payouts for paid
// bookings whose settled event was lost or never acked. Reconcile is
// idempotent, so sweeping a booking the consumer already handled is harmless.
func NewPayoutSweepJob(params PayoutSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Bookings == nil {
		return nil, fmt.Errorf("booking source required")
	}
	if params.Payouts == nil {
		return nil, fmt.Errorf("payout service required")
	}
	lag := params.Lag
	if lag <= 0 {
		lag = payoutSweepLag
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = payoutSweepBatchSize
	}
	return &payoutSweepJob{
		logg:      params.Logger,
		bookings:  params.Bookings,
		payouts:   params.Payouts,
		lag:       lag,
		batchSize: batchSize,
		now:       time.Now,
	}, nil
}

type payoutSweepJob struct {
	logg      *logger.Logger
	bookings  payoutCandidateSource
	payouts   payoutReconciler
	lag       time.Duration
	batchSize int
	now       func() time.Time
}

func (j *payoutSweepJob) Name() string { return "payout-sweep" }

func (j *payoutSweepJob) Run(ctx context.Context) error {
	// The lag keeps the sweep from racing the consumer on freshly paid
	// bookings that are still in flight.
	cutoff := j.now().UTC().Add(-j.lag)
	ids, err := j.bookings.ListUnreconciled(ctx, cutoff, j.batchSize)
	if err != nil {
		return fmt.Errorf("payout sweep: list unreconciled: %w", err)
	}

	var reconciled, alreadyPaid int
	var errs []error
	for _, id := range ids {
		result, err := j.payouts.Reconcile(ctx, id)
		if err != nil {
			errs = append(errs, fmt.Errorf("booking %s: %w", id, err))
			errCtx := j.logg.WithField(ctx, "booking_id", id)
			j.logg.Error(errCtx, "payout sweep reconcile failed", err)
			continue
		}
		if result.AlreadyPaid {
			alreadyPaid++
			continue
		}
		reconciled++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"candidates":   len(ids),
		"reconciled":   reconciled,
		"already_paid": alreadyPaid,
		"failed":       len(errs),
	})
	j.logg.Info(logCtx, "payout sweep complete")
	return multierr.Combine(errs...)
}
