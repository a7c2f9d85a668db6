package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/haventrip/haventrip-backend/pkg/db/types"
	"github.com/haventrip/haventrip-backend/pkg/enums"
)

// Offer is a host-authored promo or coupon. Coupons carry a redemption code;
// promos apply automatically when eligible.
type Offer struct {
	ID     uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	HostID uuid.UUID       `gorm:"column:host_id;type:uuid;not null;index:offers_host_id_idx"`
	Kind   enums.OfferKind `gorm:"column:kind;type:offer_kind_enum;not null"`
	Code   *string         `gorm:"column:code;uniqueIndex:offers_code_key"`

	Scope      enums.OfferScope  `gorm:"column:scope;type:offer_scope_enum;not null;default:all"`
	ListingIDs dbtypes.UUIDArray `gorm:"column:listing_ids;type:uuid[]"`

	DiscountType  enums.DiscountType `gorm:"column:discount_type;type:discount_type_enum;not null"`
	DiscountValue int64              `gorm:"column:discount_value;not null"`

	MinSubtotalCents int64 `gorm:"column:min_subtotal_cents;not null;default:0"`
	MaxDiscountCents int64 `gorm:"column:max_discount_cents;not null;default:0"`

	// Usage caps; 0 means uncapped. Consumption is derived from redemption
	// rows, never stored as a counter.
	MaxUses         int `gorm:"column:max_uses;not null;default:0"`
	MaxUsesPerGuest int `gorm:"column:max_uses_per_guest;not null;default:0"`

	StartsAt  *time.Time `gorm:"column:starts_at;type:date"`
	EndsAt    *time.Time `gorm:"column:ends_at;type:date"`
	IsActive  bool       `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
