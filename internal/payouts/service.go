package payouts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/haventrip/haventrip-backend/internal/bookings"
	"github.com/haventrip/haventrip-backend/internal/wallets"
	"github.com/haventrip/haventrip-backend/pkg/config"
	"github.com/haventrip/haventrip-backend/pkg/enums"
	pkgerrors "github.com/haventrip/haventrip-backend/pkg/errors"
	"github.com/haventrip/haventrip-backend/pkg/logger"
	"github.com/haventrip/haventrip-backend/pkg/metrics"
	"github.com/haventrip/haventrip-backend/pkg/outbox"
	"github.com/haventrip/haventrip-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Result reports what one reconciliation run did.
type Result struct {
	BookingID        uuid.UUID `json:"booking_id"`
	AlreadyPaid      bool      `json:"already_paid"`
	PayoutCents      int64     `json:"payout_cents"`
	PointsAward      int64     `json:"points_award"`
	GuestPointsAward int64     `json:"guest_points_award"`
	ReconciledAt     time.Time `json:"reconciled_at"`
}

// Service releases host earnings for paid, confirmed bookings exactly once.
type Service interface {
	Reconcile(ctx context.Context, bookingID uuid.UUID) (*Result, error)
}

type service struct {
	repo    bookings.Repository
	wallets wallets.Service
	tx      txRunner
	outbox  outboxPublisher
	loyalty config.LoyaltyConfig
	metrics *metrics.SettlementMetrics
	logg    *logger.Logger
}

// NewService wires the payout reconciliation service.
func NewService(repo bookings.Repository, walletsSvc wallets.Service, tx txRunner, outboxSvc outboxPublisher, loyalty config.LoyaltyConfig, settlementMetrics *metrics.SettlementMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("booking repository required")
	}
	if walletsSvc == nil {
		return nil, fmt.Errorf("wallet service required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:    repo,
		wallets: walletsSvc,
		tx:      tx,
		outbox:  outboxSvc,
		loyalty: loyalty,
		metrics: settlementMetrics,
		logg:    logg,
	}, nil
}

// Reconcile pays the host for one booking. Repeated calls are no-ops once the
// payout marker is set; the decision is made on a locked re-read inside the
// transaction, so a double fire cannot double credit.
func (s *service) Reconcile(ctx context.Context, bookingID uuid.UUID) (*Result, error) {
	if bookingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking id is required")
	}

	result := &Result{BookingID: bookingID}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		booking, err := repo.GetByIDForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}

		if booking.PayoutStatus == enums.PayoutStatusCompleted {
			result.AlreadyPaid = true
			result.PayoutCents = booking.PayoutAmountCents
			return nil
		}
		if booking.PaymentStatus != enums.PaymentStatusPaid || booking.Status != enums.BookingStatusConfirmed {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("booking is %s/%s, payout requires confirmed/paid", booking.Status, booking.PaymentStatus))
		}

		payout := booking.TotalCents - booking.ServiceFeeCents
		if payout < 0 {
			payout = 0
		}
		now := time.Now().UTC()
		note := payoutNote(booking.ID)

		if payout > 0 {
			if _, err := s.wallets.Credit(ctx, tx, wallets.MovementInput{
				Account:     wallets.AccountRef{OwnerID: booking.HostID, Kind: enums.AccountKindHost, Namespace: enums.AccountNamespaceWallet},
				AmountCents: payout,
				Type:        enums.LedgerEntryTypeHostPayout,
				BookingID:   &booking.ID,
				Note:        note,
			}); err != nil {
				return err
			}
		}
		if s.loyalty.HostPointsPerBooking > 0 {
			if _, err := s.wallets.Credit(ctx, tx, wallets.MovementInput{
				Account:     wallets.AccountRef{OwnerID: booking.HostID, Kind: enums.AccountKindHost, Namespace: enums.AccountNamespacePoints},
				AmountCents: s.loyalty.HostPointsPerBooking,
				Type:        enums.LedgerEntryTypePointsAward,
				BookingID:   &booking.ID,
				Note:        note,
			}); err != nil {
				return err
			}
		}
		// Gateway bookings defer every loyalty award to this job; wallet
		// bookings award at settlement and never reach here unstamped.
		if s.loyalty.GuestPointsPerBooking > 0 {
			if _, err := s.wallets.Credit(ctx, tx, wallets.MovementInput{
				Account:     wallets.AccountRef{OwnerID: booking.GuestID, Kind: enums.AccountKindGuest, Namespace: enums.AccountNamespacePoints},
				AmountCents: s.loyalty.GuestPointsPerBooking,
				Type:        enums.LedgerEntryTypePointsAward,
				BookingID:   &booking.ID,
				Note:        note,
			}); err != nil {
				return err
			}
		}

		if err := repo.StampPayout(ctx, booking.ID, bookings.PayoutStamp{
			Status:      enums.PayoutStatusCompleted,
			AmountCents: payout,
			PaidAt:      now,
		}); err != nil {
			return err
		}

		result.PayoutCents = payout
		result.PointsAward = s.loyalty.HostPointsPerBooking
		result.GuestPointsAward = s.loyalty.GuestPointsPerBooking
		result.ReconciledAt = now

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBookingPayoutCompleted,
			AggregateType: enums.AggregateBooking,
			AggregateID:   booking.ID,
			Version:       1,
			Data: payloads.BookingPayoutCompletedEvent{
				BookingID:         booking.ID,
				HostID:            booking.HostID,
				PayoutAmountCents: payout,
				PaidAt:            now,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	if !result.AlreadyPaid {
		s.metrics.IncPayoutCompleted()
	}
	return result, nil
}

func payoutNote(bookingID uuid.UUID) *string {
	note := "payout for booking " + bookingID.String()
	return &note
}
