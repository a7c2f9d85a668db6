package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/haventrip/haventrip-backend/pkg/enums"
)

// Booking is the settled (or pending) reservation with its full price
// breakdown frozen at settlement time.
type Booking struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	GuestID   uuid.UUID `gorm:"column:guest_id;type:uuid;not null;index:bookings_guest_id_idx"`
	HostID    uuid.UUID `gorm:"column:host_id;type:uuid;not null;index:bookings_host_id_idx"`
	ListingID uuid.UUID `gorm:"column:listing_id;type:uuid;not null;index:bookings_listing_id_idx"`

	Status        enums.BookingStatus `gorm:"column:status;type:booking_status_enum;not null"`
	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;type:payment_method_enum;not null"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;type:payment_status_enum;not null"`

	// Night-mode stays book [check_in, check_out); slot-mode bookings carry a
	// single date plus start time.
	CheckIn      *time.Time `gorm:"column:check_in;type:date"`
	CheckOut     *time.Time `gorm:"column:check_out;type:date"`
	SlotDate     *time.Time `gorm:"column:slot_date;type:date"`
	SlotTime     *string    `gorm:"column:slot_time"`
	Participants int        `gorm:"column:participants;not null;default:1"`

	Currency             enums.Currency `gorm:"column:currency;type:currency_enum;not null"`
	RawSubtotalCents     int64          `gorm:"column:raw_subtotal_cents;not null"`
	ListingDiscountCents int64          `gorm:"column:listing_discount_cents;not null;default:0"`
	PromoDiscountCents   int64          `gorm:"column:promo_discount_cents;not null;default:0"`
	CouponDiscountCents  int64          `gorm:"column:coupon_discount_cents;not null;default:0"`
	RewardDiscountCents  int64          `gorm:"column:reward_discount_cents;not null;default:0"`
	SubtotalCents        int64          `gorm:"column:subtotal_cents;not null"`
	ServiceFeeCents      int64          `gorm:"column:service_fee_cents;not null"`
	TotalCents           int64          `gorm:"column:total_cents;not null"`

	AppliedPromoID   *uuid.UUID `gorm:"column:applied_promo_id;type:uuid"`
	AppliedCouponID  *uuid.UUID `gorm:"column:applied_coupon_id;type:uuid"`
	GatewayPaymentID *string    `gorm:"column:gateway_payment_id"`

	PayoutStatus      enums.PayoutStatus `gorm:"column:payout_status;type:payout_status_enum;not null;default:none"`
	PayoutAmountCents int64              `gorm:"column:payout_amount_cents;not null;default:0"`
	PayoutAt          *time.Time         `gorm:"column:payout_at"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
