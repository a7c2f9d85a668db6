package models

import (
	"time"

	"github.com/google/uuid"
)

// OfferRedemption is the append-only audit row written when a settlement
// consumes an offer. Usage caps are enforced by counting these rows.
type OfferRedemption struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OfferID     uuid.UUID `gorm:"column:offer_id;type:uuid;not null;index:offer_redemptions_offer_id_idx;uniqueIndex:offer_redemptions_booking_offer_key"`
	GuestID     uuid.UUID `gorm:"column:guest_id;type:uuid;not null;index:offer_redemptions_guest_id_idx"`
	BookingID   uuid.UUID `gorm:"column:booking_id;type:uuid;not null;uniqueIndex:offer_redemptions_booking_offer_key"`
	AmountCents int64     `gorm:"column:amount_cents;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}
