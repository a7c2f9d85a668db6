package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/haventrip/haventrip-backend/pkg/enums"
)

// BookingSettledEvent signals a booking committed atomically with its ledger
// writes and capacity locks.
type BookingSettledEvent struct {
	BookingID        uuid.UUID           `json:"booking_id"`
	GuestID          uuid.UUID           `json:"guest_id"`
	HostID           uuid.UUID           `json:"host_id"`
	ListingID        uuid.UUID           `json:"listing_id"`
	PaymentMethod    enums.PaymentMethod `json:"payment_method"`
	TotalCents       int64               `json:"total_cents"`
	HostPayoutCents  int64               `json:"host_payout_cents"`
	GuestPointsAward int64               `json:"guest_points_award"`
	HostPointsAward  int64               `json:"host_points_award"`
	SettledAt        time.Time           `json:"settled_at"`
}

// BookingPendingEvent is emitted when a gateway capture came back pending and
// the booking was recorded without ledger effects.
type BookingPendingEvent struct {
	BookingID        uuid.UUID `json:"booking_id"`
	GuestID          uuid.UUID `json:"guest_id"`
	ListingID        uuid.UUID `json:"listing_id"`
	GatewayPaymentID string    `json:"gateway_payment_id"`
}

// BookingPaymentStatusChangedEvent reports a payment status transition on an
// existing booking, typically pending -> paid.
type BookingPaymentStatusChangedEvent struct {
	BookingID uuid.UUID           `json:"booking_id"`
	HostID    uuid.UUID           `json:"host_id"`
	Status    enums.PaymentStatus `json:"status"`
	ChangedAt time.Time           `json:"changed_at"`
}

// BookingPayoutCompletedEvent is emitted once per booking when the host
// payout reconciliation commits.
type BookingPayoutCompletedEvent struct {
	BookingID         uuid.UUID `json:"booking_id"`
	HostID            uuid.UUID `json:"host_id"`
	PayoutAmountCents int64     `json:"payout_amount_cents"`
	PaidAt            time.Time `json:"paid_at"`
}

// NotificationRequestedEvent tells downstream systems to alert a recipient.
type NotificationRequestedEvent struct {
	RecipientID uuid.UUID              `json:"recipient_id"`
	BookingID   uuid.UUID              `json:"booking_id"`
	Type        enums.NotificationType `json:"type"`
}

// ListingDiscountChangedEvent invalidates cached promo views for a host.
type ListingDiscountChangedEvent struct {
	ListingID uuid.UUID `json:"listing_id"`
	HostID    uuid.UUID `json:"host_id"`
	ChangedAt time.Time `json:"changed_at"`
}
