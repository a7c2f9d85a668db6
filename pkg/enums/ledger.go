package enums

import "fmt"

// AccountKind identifies who owns a ledger account.
type AccountKind string

const (
	AccountKindGuest    AccountKind = "guest"
	AccountKindHost     AccountKind = "host"
	AccountKindPlatform AccountKind = "platform"
)

var validAccountKinds = []AccountKind{
	AccountKindGuest,
	AccountKindHost,
	AccountKindPlatform,
}

// IsValid reports whether the value is a known AccountKind.
func (k AccountKind) IsValid() bool {
	for _, candidate := range validAccountKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// AccountNamespace separates spendable wallet balances from loyalty points.
type AccountNamespace string

const (
	AccountNamespaceWallet AccountNamespace = "wallet"
	AccountNamespacePoints AccountNamespace = "points"
)

var validAccountNamespaces = []AccountNamespace{
	AccountNamespaceWallet,
	AccountNamespacePoints,
}

// IsValid reports whether the value is a known AccountNamespace.
func (n AccountNamespace) IsValid() bool {
	for _, candidate := range validAccountNamespaces {
		if candidate == n {
			return true
		}
	}
	return false
}

// LedgerEntryType maps to the ledger_entry_type enum in Postgres.
type LedgerEntryType string

const (
	LedgerEntryTypeBookingCharge LedgerEntryType = "booking_charge"
	LedgerEntryTypeHostEarning   LedgerEntryType = "host_earning"
	LedgerEntryTypePlatformFee   LedgerEntryType = "platform_fee"
	LedgerEntryTypePointsAward   LedgerEntryType = "points_award"
	LedgerEntryTypeHostPayout    LedgerEntryType = "host_payout"
	LedgerEntryTypeAdjustment    LedgerEntryType = "adjustment"
)

var validLedgerEntryTypes = []LedgerEntryType{
	LedgerEntryTypeBookingCharge,
	LedgerEntryTypeHostEarning,
	LedgerEntryTypePlatformFee,
	LedgerEntryTypePointsAward,
	LedgerEntryTypeHostPayout,
	LedgerEntryTypeAdjustment,
}

// IsValid reports whether the value matches the canonical ledger entry enum.
func (t LedgerEntryType) IsValid() bool {
	for _, candidate := range validLedgerEntryTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseLedgerEntryType converts raw input into LedgerEntryType.
func ParseLedgerEntryType(value string) (LedgerEntryType, error) {
	for _, candidate := range validLedgerEntryTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ledger entry type %q", value)
}
