package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/haventrip/haventrip-backend/pkg/enums"
)

// Listing represents the canonical host inventory entry: a stay, an
// experience, or a bookable service.
type Listing struct {
	ID         uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	HostID     uuid.UUID             `gorm:"column:host_id;type:uuid;not null;index:listings_host_id_idx"`
	Title      string                `gorm:"column:title;not null"`
	Subtitle   *string               `gorm:"column:subtitle"`
	Category   enums.ListingCategory `gorm:"column:category;type:listing_category_enum;not null"`
	UnitType   enums.UnitType        `gorm:"column:unit_type;type:unit_type_enum;not null"`
	PriceCents int64                 `gorm:"column:price_cents;not null"`
	Currency   enums.Currency        `gorm:"column:currency;type:currency_enum;not null;default:PHP"`

	// Listing-level discount applied before any offer.
	DiscountType  enums.DiscountType `gorm:"column:discount_type;type:discount_type_enum;not null;default:none"`
	DiscountValue int64              `gorm:"column:discount_value;not null;default:0"`

	// Capacity applies to slot-mode listings; 0 means unlimited.
	Capacity  int            `gorm:"column:capacity;not null;default:0"`
	Amenities pq.StringArray `gorm:"column:amenities;type:text[]"`
	IsActive  bool           `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
