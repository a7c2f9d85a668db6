package models

import (
	"time"

	"github.com/google/uuid"
)

// SlotLock tracks the occupant count for one listing slot. Capacity 0 means
// unlimited. The count only ever increments.
type SlotLock struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ListingID     uuid.UUID `gorm:"column:listing_id;type:uuid;not null;uniqueIndex:slot_locks_listing_slot_key"`
	SlotDate      time.Time `gorm:"column:slot_date;type:date;not null;uniqueIndex:slot_locks_listing_slot_key"`
	SlotTime      string    `gorm:"column:slot_time;not null;uniqueIndex:slot_locks_listing_slot_key"`
	Capacity      int       `gorm:"column:capacity;not null;default:0"`
	OccupantCount int       `gorm:"column:occupant_count;not null;default:0"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
