package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/haventrip/haventrip-backend/pkg/enums"
)

// LedgerEntry is an immutable signed movement against a wallet account.
// BalanceAfterCents is computed from a balance read inside the same
// transaction, never from a blind increment.
type LedgerEntry struct {
	ID                uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	AccountID         uuid.UUID             `gorm:"column:account_id;type:uuid;not null;index:ledger_entries_account_id_idx"`
	BookingID         *uuid.UUID            `gorm:"column:booking_id;type:uuid;index:ledger_entries_booking_id_idx"`
	Type              enums.LedgerEntryType `gorm:"column:type;type:ledger_entry_type_enum;not null"`
	AmountCents       int64                 `gorm:"column:amount_cents;not null"`
	BalanceAfterCents int64                 `gorm:"column:balance_after_cents;not null"`
	Note              *string               `gorm:"column:note"`
	CreatedAt         time.Time             `gorm:"column:created_at;autoCreateTime"`
}
