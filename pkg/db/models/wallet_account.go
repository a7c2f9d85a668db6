package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/haventrip/haventrip-backend/pkg/enums"
)

// WalletAccount is a money or points balance owned by a guest, a host, or
// the platform. BalanceCents always equals the sum of its ledger deltas.
type WalletAccount struct {
	ID        uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	OwnerID   uuid.UUID              `gorm:"column:owner_id;type:uuid;not null;uniqueIndex:wallet_accounts_owner_kind_ns_key"`
	Kind      enums.AccountKind      `gorm:"column:kind;type:account_kind_enum;not null;uniqueIndex:wallet_accounts_owner_kind_ns_key"`
	Namespace enums.AccountNamespace `gorm:"column:namespace;type:account_namespace_enum;not null;uniqueIndex:wallet_accounts_owner_kind_ns_key"`
	Currency  enums.Currency         `gorm:"column:currency;type:currency_enum;not null;default:PHP"`

	BalanceCents int64 `gorm:"column:balance_cents;not null;default:0"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
