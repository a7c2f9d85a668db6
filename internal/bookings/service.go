package bookings

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/haventrip/haventrip-backend/internal/availability"
	"github.com/haventrip/haventrip-backend/internal/offers"
	"github.com/haventrip/haventrip-backend/internal/pricing"
	"github.com/haventrip/haventrip-backend/internal/wallets"
	"github.com/haventrip/haventrip-backend/pkg/config"
	"github.com/haventrip/haventrip-backend/pkg/db/models"
	"github.com/haventrip/haventrip-backend/pkg/enums"
	pkgerrors "github.com/haventrip/haventrip-backend/pkg/errors"
	"github.com/haventrip/haventrip-backend/pkg/gateway"
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

type listingStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Listing, error)
}

type promoSource interface {
	ActivePromos(ctx context.Context, hostID uuid.UUID) ([]models.Offer, error)
}

// confirmationSender is notified after a successful commit. Failures are
// logged and never abort settlement.
type confirmationSender interface {
	SendBookingConfirmation(ctx context.Context, booking *models.Booking) error
}

// SettleInput describes one booking attempt.
type SettleInput struct {
	GuestID       uuid.UUID
	ListingID     uuid.UUID
	CheckIn       *time.Time
	CheckOut      *time.Time
	SlotDate      *time.Time
	SlotTime      *string
	Participants  int
	PaymentMethod enums.PaymentMethod

	// Gateway path only.
	PaymentSourceID string
	IdempotencyKey  string

	CouponCode string
	Reward     *pricing.RewardSelection
}

// SettlementResult is what the caller gets back from a committed (or pending)
// settlement.
type SettlementResult struct {
	BookingID          uuid.UUID           `json:"booking_id"`
	Status             enums.BookingStatus `json:"status"`
	PaymentStatus      enums.PaymentStatus `json:"payment_status"`
	Breakdown          *pricing.Breakdown  `json:"breakdown"`
	TotalCents         int64               `json:"total_cents"`
	HostPayoutCents    int64               `json:"host_payout_cents"`
	GuestPointsAwarded int64               `json:"guest_points_awarded"`
	HostPointsAwarded  int64               `json:"host_points_awarded"`
}

// Service runs quoting and the settlement transaction.
type Service interface {
	Quote(ctx context.Context, input SettleInput) (*pricing.Breakdown, error)
	Settle(ctx context.Context, input SettleInput) (*SettlementResult, error)
	ConfirmPayment(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	ListByGuest(ctx context.Context, filter ListFilter) ([]models.Booking, error)
}

type service struct {
	repo       Repository
	listings   listingStore
	offers     offers.Repository
	promos     promoSource
	guard      availability.Guard
	wallets    wallets.Service
	tx         txRunner
	outbox     outboxPublisher
	capturer   gateway.Capturer
	fees       pricing.FeeSchedule
	loyalty    config.LoyaltyConfig
	platformID uuid.UUID
	currency   enums.Currency
	metrics    *metrics.SettlementMetrics
	notifier   confirmationSender
	logg       *logger.Logger
}

// ServiceParams collects the settlement service dependencies.
type ServiceParams struct {
	Repo       Repository
	Listings   listingStore
	Offers     offers.Repository
	Promos     promoSource
	Guard      availability.Guard
	Wallets    wallets.Service
	Tx         txRunner
	Outbox     outboxPublisher
	Capturer   gateway.Capturer
	Fees       pricing.FeeSchedule
	Loyalty    config.LoyaltyConfig
	PlatformID uuid.UUID
	Currency   enums.Currency
	Metrics    *metrics.SettlementMetrics
	Notifier   confirmationSender
	Logger     *logger.Logger
}

// NewService wires the booking settlement service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("booking repository required")
	}
	if params.Listings == nil {
		return nil, fmt.Errorf("listing store required")
	}
	if params.Offers == nil {
		return nil, fmt.Errorf("offer repository required")
	}
	if params.Promos == nil {
		return nil, fmt.Errorf("promo source required")
	}
	if params.Guard == nil {
		return nil, fmt.Errorf("availability guard required")
	}
	if params.Wallets == nil {
		return nil, fmt.Errorf("wallet service required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.PlatformID == uuid.Nil {
		return nil, fmt.Errorf("platform account id required")
	}
	if params.Currency == "" {
		params.Currency = enums.CurrencyPHP
	}
	return &service{
		repo:       params.Repo,
		listings:   params.Listings,
		offers:     params.Offers,
		promos:     params.Promos,
		guard:      params.Guard,
		wallets:    params.Wallets,
		tx:         params.Tx,
		outbox:     params.Outbox,
		capturer:   params.Capturer,
		fees:       params.Fees,
		loyalty:    params.Loyalty,
		platformID: params.PlatformID,
		currency:   params.Currency,
		metrics:    params.Metrics,
		notifier:   params.Notifier,
		logg:       params.Logger,
	}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking id is required")
	}
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListByGuest(ctx context.Context, filter ListFilter) ([]models.Booking, error) {
	if filter.GuestID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "guest id is required")
	}
	return s.repo.ListByGuest(ctx, filter)
}

// Quote computes the breakdown for the proposed booking without side effects.
func (s *service) Quote(ctx context.Context, input SettleInput) (*pricing.Breakdown, error) {
	prepared, err := s.prepare(ctx, input)
	if err != nil {
		return nil, err
	}
	return prepared.breakdown, nil
}

// preparedAttempt is everything loaded and computed before the transaction.
type preparedAttempt struct {
	listing   *models.Listing
	request   availability.Request
	breakdown *pricing.Breakdown
	coupon    *models.Offer
	quantity  int64
	refDate   time.Time
}

func (s *service) prepare(ctx context.Context, input SettleInput) (*preparedAttempt, error) {
	if input.GuestID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "guest id is required")
	}
	if input.ListingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing id is required")
	}

	listing, err := s.listings.GetByID(ctx, input.ListingID)
	if err != nil {
		return nil, err
	}
	if !listing.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing is not available")
	}

	request := availability.Request{
		Listing:      listing,
		CheckIn:      input.CheckIn,
		CheckOut:     input.CheckOut,
		SlotDate:     input.SlotDate,
		SlotTime:     input.SlotTime,
		Participants: input.Participants,
	}

	quantity, refDate, err := quantityAndDate(listing, input)
	if err != nil {
		return nil, err
	}

	promos, err := s.promos.ActivePromos(ctx, listing.HostID)
	if err != nil {
		return nil, err
	}

	var (
		coupon      *models.Offer
		couponUsage offers.UsageCounts
	)
	if input.CouponCode != "" {
		coupon, err = s.offers.FindCouponByCode(ctx, input.CouponCode)
		if err != nil {
			return nil, err
		}
		couponUsage, err = s.usage(ctx, s.offers, coupon, input.GuestID)
		if err != nil {
			return nil, err
		}
	}

	breakdown, err := pricing.Quote(pricing.QuoteInput{
		Listing:       listing,
		Quantity:      quantity,
		ReferenceDate: refDate,
		Promos:        promos,
		Coupon:        coupon,
		CouponUsage:   couponUsage,
		Reward:        input.Reward,
	}, s.fees)
	if err != nil {
		return nil, err
	}

	return &preparedAttempt{
		listing:   listing,
		request:   request,
		breakdown: breakdown,
		coupon:    coupon,
		quantity:  quantity,
		refDate:   refDate,
	}, nil
}

// Settle runs one booking attempt end to end: quote, advisory probe, optional
// gateway capture, then the atomic settlement transaction.
func (s *service) Settle(ctx context.Context, input SettleInput) (*SettlementResult, error) {
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment method %q", input.PaymentMethod))
	}

	prepared, err := s.prepare(ctx, input)
	if err != nil {
		return nil, err
	}

	if err := s.guard.Probe(ctx, prepared.request); err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeCapacityConflict) {
			s.metrics.IncCapacityConflict()
		}
		return nil, err
	}

	switch input.PaymentMethod {
	case enums.PaymentMethodWallet:
		return s.settleWallet(ctx, input, prepared)
	default:
		return s.settleGateway(ctx, input, prepared)
	}
}

func (s *service) settleWallet(ctx context.Context, input SettleInput, prepared *preparedAttempt) (*SettlementResult, error) {
	guestWallet := wallets.AccountRef{OwnerID: input.GuestID, Kind: enums.AccountKindGuest, Namespace: enums.AccountNamespaceWallet}

	// Fail fast before opening a transaction; the debit re-validates inside.
	account, err := s.wallets.Balance(ctx, guestWallet)
	if err != nil {
		return nil, err
	}
	if account.BalanceCents < prepared.breakdown.TotalCents {
		s.metrics.IncInsufficientFunds()
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientFunds, "balance too low")
	}

	booking := s.newBooking(input, prepared, enums.BookingStatusConfirmed, enums.PaymentStatusPaid, nil)
	result := &SettlementResult{
		BookingID:          booking.ID,
		Status:             booking.Status,
		PaymentStatus:      booking.PaymentStatus,
		Breakdown:          prepared.breakdown,
		TotalCents:         prepared.breakdown.TotalCents,
		HostPayoutCents:    prepared.breakdown.SubtotalCents,
		GuestPointsAwarded: s.loyalty.GuestPointsPerBooking,
		HostPointsAwarded:  s.loyalty.HostPointsPerBooking,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.guard.Reserve(ctx, tx, prepared.request, booking.ID); err != nil {
			return err
		}
		if err := s.recheckCouponAndRecord(ctx, tx, input, prepared, booking.ID); err != nil {
			return err
		}

		// Host payout happens in the same commit on the wallet path.
		booking.PayoutStatus = enums.PayoutStatusCompleted
		booking.PayoutAmountCents = prepared.breakdown.SubtotalCents
		now := time.Now().UTC()
		booking.PayoutAt = &now
		if err := s.repo.WithTx(tx).Create(ctx, booking); err != nil {
			return err
		}

		note := bookingNote(booking.ID)
		if _, err := s.wallets.Debit(ctx, tx, wallets.MovementInput{
			Account:     guestWallet,
			AmountCents: prepared.breakdown.TotalCents,
			Type:        enums.LedgerEntryTypeBookingCharge,
			BookingID:   &booking.ID,
			Note:        note,
		}); err != nil {
			return err
		}
		if _, err := s.wallets.Credit(ctx, tx, wallets.MovementInput{
			Account:     wallets.AccountRef{OwnerID: prepared.listing.HostID, Kind: enums.AccountKindHost, Namespace: enums.AccountNamespaceWallet},
			AmountCents: prepared.breakdown.SubtotalCents,
			Type:        enums.LedgerEntryTypeHostEarning,
			BookingID:   &booking.ID,
			Note:        note,
		}); err != nil {
			return err
		}
		if prepared.breakdown.ServiceFeeCents > 0 {
			if _, err := s.wallets.Credit(ctx, tx, wallets.MovementInput{
				Account:     wallets.AccountRef{OwnerID: s.platformID, Kind: enums.AccountKindPlatform, Namespace: enums.AccountNamespaceWallet},
				AmountCents: prepared.breakdown.ServiceFeeCents,
				Type:        enums.LedgerEntryTypePlatformFee,
				BookingID:   &booking.ID,
				Note:        note,
			}); err != nil {
				return err
			}
		}
		if err := s.awardPoints(ctx, tx, input.GuestID, enums.AccountKindGuest, s.loyalty.GuestPointsPerBooking, booking.ID); err != nil {
			return err
		}
		if err := s.awardPoints(ctx, tx, prepared.listing.HostID, enums.AccountKindHost, s.loyalty.HostPointsPerBooking, booking.ID); err != nil {
			return err
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBookingSettled,
			AggregateType: enums.AggregateBooking,
			AggregateID:   booking.ID,
			Version:       1,
			Data: payloads.BookingSettledEvent{
				BookingID:        booking.ID,
				GuestID:          booking.GuestID,
				HostID:           booking.HostID,
				ListingID:        booking.ListingID,
				PaymentMethod:    booking.PaymentMethod,
				TotalCents:       booking.TotalCents,
				HostPayoutCents:  prepared.breakdown.SubtotalCents,
				GuestPointsAward: s.loyalty.GuestPointsPerBooking,
				HostPointsAward:  s.loyalty.HostPointsPerBooking,
				SettledAt:        time.Now().UTC(),
			},
		})
	})
	if err != nil {
		return nil, s.classify(err)
	}

	s.metrics.IncSettled(string(enums.PaymentMethodWallet))
	s.notifyCommitted(ctx, booking)
	return result, nil
}

func (s *service) settleGateway(ctx context.Context, input SettleInput, prepared *preparedAttempt) (*SettlementResult, error) {
	if s.capturer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment gateway not configured")
	}

	bookingID := uuid.New()
	capture, err := s.capturer.Capture(ctx, gateway.CaptureParams{
		AmountCents:    prepared.breakdown.TotalCents,
		Currency:       prepared.breakdown.Currency,
		SourceID:       input.PaymentSourceID,
		CustomerID:     input.GuestID.String(),
		BookingRef:     bookingID.String(),
		IdempotencyKey: input.IdempotencyKey,
	})
	if err != nil {
		s.metrics.IncGatewayDeclined()
		return nil, err
	}
	if capture.Status == gateway.CaptureDeclined {
		s.metrics.IncGatewayDeclined()
		return nil, pkgerrors.New(pkgerrors.CodeGatewayDeclined, "payment was declined")
	}

	status := enums.BookingStatusConfirmed
	payment := enums.PaymentStatusPaid
	if capture.Status == gateway.CapturePending {
		status = enums.BookingStatusPending
		payment = enums.PaymentStatusPending
	}

	booking := s.newBooking(input, prepared, status, payment, &capture.PaymentID)
	booking.ID = bookingID
	result := &SettlementResult{
		BookingID:     booking.ID,
		Status:        status,
		PaymentStatus: payment,
		Breakdown:     prepared.breakdown,
		TotalCents:    prepared.breakdown.TotalCents,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.guard.Reserve(ctx, tx, prepared.request, booking.ID); err != nil {
			return err
		}
		if err := s.recheckCouponAndRecord(ctx, tx, input, prepared, booking.ID); err != nil {
			return err
		}
		if err := s.repo.WithTx(tx).Create(ctx, booking); err != nil {
			return err
		}

		if payment == enums.PaymentStatusPending {
			// No ledger effects until the capture confirms.
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventBookingPending,
				AggregateType: enums.AggregateBooking,
				AggregateID:   booking.ID,
				Version:       1,
				Data: payloads.BookingPendingEvent{
					BookingID:        booking.ID,
					GuestID:          booking.GuestID,
					ListingID:        booking.ListingID,
					GatewayPaymentID: capture.PaymentID,
				},
			})
		}

		// Money moved externally; host payout and all loyalty awards are
		// credited by the payout reconciliation job, exactly once per booking.
		result.HostPayoutCents = prepared.breakdown.SubtotalCents

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBookingSettled,
			AggregateType: enums.AggregateBooking,
			AggregateID:   booking.ID,
			Version:       1,
			Data: payloads.BookingSettledEvent{
				BookingID:       booking.ID,
				GuestID:         booking.GuestID,
				HostID:          booking.HostID,
				ListingID:       booking.ListingID,
				PaymentMethod:   booking.PaymentMethod,
				TotalCents:      booking.TotalCents,
				HostPayoutCents: prepared.breakdown.SubtotalCents,
				SettledAt:       time.Now().UTC(),
			},
		})
	})
	if err != nil {
		// The guest may already be charged. Surface loudly; there is no
		// automatic refund path.
		if pkgerrors.IsCode(err, pkgerrors.CodeCapacityConflict) && s.logg != nil {
			s.logg.Error(ctx, "gateway capture committed but settlement aborted", fmt.Errorf("capture %s: %w", capture.PaymentID, err))
		}
		return nil, s.classify(err)
	}

	s.metrics.IncSettled(string(enums.PaymentMethodCardGateway))
	if payment == enums.PaymentStatusPaid {
		s.notifyCommitted(ctx, booking)
	}
	return result, nil
}

// ConfirmPayment flips a pending gateway booking to confirmed and paid once
// the capture settles, emitting the status-change event that triggers payout
// reconciliation. Already-paid bookings pass through unchanged.
func (s *service) ConfirmPayment(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking id is required")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		booking, err := repo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if booking.PaymentStatus == enums.PaymentStatusPaid && booking.Status == enums.BookingStatusConfirmed {
			return nil
		}
		if booking.PaymentMethod != enums.PaymentMethodCardGateway {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only gateway bookings await payment confirmation")
		}
		if err := repo.UpdatePaymentState(ctx, id, enums.BookingStatusConfirmed, enums.PaymentStatusPaid); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBookingPaymentStatusChanged,
			AggregateType: enums.AggregateBooking,
			AggregateID:   id,
			Version:       1,
			Data: payloads.BookingPaymentStatusChangedEvent{
				BookingID: id,
				HostID:    booking.HostID,
				Status:    enums.PaymentStatusPaid,
				ChangedAt: time.Now().UTC(),
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// recheckCouponAndRecord recounts coupon usage inside the settlement
// transaction and writes the redemption audit row.
func (s *service) recheckCouponAndRecord(ctx context.Context, tx *gorm.DB, input SettleInput, prepared *preparedAttempt, bookingID uuid.UUID) error {
	if prepared.coupon == nil || prepared.breakdown.CouponDiscountCents <= 0 {
		return nil
	}

	repo := s.offers.WithTx(tx)
	usage, err := s.usage(ctx, repo, prepared.coupon, input.GuestID)
	if err != nil {
		return err
	}
	if err := offers.Eligible(prepared.coupon, prepared.listing.ID, prepared.refDate, prepared.breakdown.RawSubtotalCents, usage); err != nil {
		return err
	}

	return repo.CreateRedemption(ctx, &models.OfferRedemption{
		ID:          uuid.New(),
		OfferID:     prepared.coupon.ID,
		GuestID:     input.GuestID,
		BookingID:   bookingID,
		AmountCents: prepared.breakdown.CouponDiscountCents,
	})
}

func (s *service) usage(ctx context.Context, repo offers.Repository, offer *models.Offer, guestID uuid.UUID) (offers.UsageCounts, error) {
	if offer.MaxUses == 0 && offer.MaxUsesPerGuest == 0 {
		return offers.UsageCounts{}, nil
	}
	total, err := repo.CountRedemptions(ctx, offer.ID)
	if err != nil {
		return offers.UsageCounts{}, err
	}
	byGuest, err := repo.CountRedemptionsByGuest(ctx, offer.ID, guestID)
	if err != nil {
		return offers.UsageCounts{}, err
	}
	return offers.UsageCounts{Total: total, ByGuest: byGuest}, nil
}

func (s *service) awardPoints(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, kind enums.AccountKind, points int64, bookingID uuid.UUID) error {
	if points <= 0 {
		return nil
	}
	_, err := s.wallets.Credit(ctx, tx, wallets.MovementInput{
		Account:     wallets.AccountRef{OwnerID: ownerID, Kind: kind, Namespace: enums.AccountNamespacePoints},
		AmountCents: points,
		Type:        enums.LedgerEntryTypePointsAward,
		BookingID:   &bookingID,
		Note:        bookingNote(bookingID),
	})
	return err
}

func (s *service) newBooking(input SettleInput, prepared *preparedAttempt, status enums.BookingStatus, payment enums.PaymentStatus, gatewayPaymentID *string) *models.Booking {
	breakdown := prepared.breakdown
	participants := input.Participants
	if participants <= 0 {
		participants = 1
	}
	return &models.Booking{
		ID:            uuid.New(),
		GuestID:       input.GuestID,
		HostID:        prepared.listing.HostID,
		ListingID:     prepared.listing.ID,
		Status:        status,
		PaymentMethod: input.PaymentMethod,
		PaymentStatus: payment,
		CheckIn:       input.CheckIn,
		CheckOut:      input.CheckOut,
		SlotDate:      input.SlotDate,
		SlotTime:      input.SlotTime,
		Participants:  participants,

		Currency:             enums.Currency(breakdown.Currency),
		RawSubtotalCents:     breakdown.RawSubtotalCents,
		ListingDiscountCents: breakdown.ListingDiscountCents,
		PromoDiscountCents:   breakdown.PromoDiscountCents,
		CouponDiscountCents:  breakdown.CouponDiscountCents,
		RewardDiscountCents:  breakdown.RewardDiscountCents,
		SubtotalCents:        breakdown.SubtotalCents,
		ServiceFeeCents:      breakdown.ServiceFeeCents,
		TotalCents:           breakdown.TotalCents,

		AppliedPromoID:   breakdown.PromoID,
		AppliedCouponID:  breakdown.CouponID,
		GatewayPaymentID: gatewayPaymentID,
	}
}

func (s *service) notifyCommitted(ctx context.Context, booking *models.Booking) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.SendBookingConfirmation(ctx, booking); err != nil && s.logg != nil {
		s.logg.Error(ctx, "booking confirmation failed", err)
	}
}

// classify bumps metrics for typed settlement failures on their way out.
func (s *service) classify(err error) error {
	switch {
	case pkgerrors.IsCode(err, pkgerrors.CodeCapacityConflict):
		s.metrics.IncCapacityConflict()
	case pkgerrors.IsCode(err, pkgerrors.CodeInsufficientFunds):
		s.metrics.IncInsufficientFunds()
	}
	return err
}

func quantityAndDate(listing *models.Listing, input SettleInput) (int64, time.Time, error) {
	if listing.UnitType == enums.UnitTypePerNight {
		if input.CheckIn == nil || input.CheckOut == nil {
			return 0, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "check-in and check-out are required")
		}
		nights := int64(truncateToDay(*input.CheckOut).Sub(truncateToDay(*input.CheckIn)).Hours() / 24)
		if nights <= 0 {
			return 0, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "check-out must be after check-in")
		}
		return nights, truncateToDay(*input.CheckIn), nil
	}

	if input.SlotDate == nil {
		return 0, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "slot date is required")
	}
	if input.Participants <= 0 {
		return 0, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "participants must be positive")
	}
	return int64(input.Participants), truncateToDay(*input.SlotDate), nil
}

func bookingNote(bookingID uuid.UUID) *string {
	note := "booking " + bookingID.String()
	return &note
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
