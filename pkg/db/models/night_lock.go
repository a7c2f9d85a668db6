package models

import (
	"time"

	"github.com/google/uuid"
)

// NightLock marks one night of one listing as occupied. Row existence is the
// lock; the composite unique index makes double-booking a constraint
// violation rather than a read-then-write race.
type NightLock struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ListingID uuid.UUID `gorm:"column:listing_id;type:uuid;not null;uniqueIndex:night_locks_listing_night_key"`
	Night     time.Time `gorm:"column:night;type:date;not null;uniqueIndex:night_locks_listing_night_key"`
	BookingID uuid.UUID `gorm:"column:booking_id;type:uuid;not null;index:night_locks_booking_id_idx"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
