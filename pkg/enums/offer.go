package enums

import "fmt"

// OfferKind distinguishes auto-applied promos from code-entered coupons.
type OfferKind string

const (
	OfferKindPromo  OfferKind = "promo"
	OfferKindCoupon OfferKind = "coupon"
)

var validOfferKinds = []OfferKind{
	OfferKindPromo,
	OfferKindCoupon,
}

// String implements fmt.Stringer.
func (k OfferKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known OfferKind.
func (k OfferKind) IsValid() bool {
	for _, candidate := range validOfferKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseOfferKind converts raw input into an OfferKind.
func ParseOfferKind(value string) (OfferKind, error) {
	for _, candidate := range validOfferKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid offer kind %q", value)
}

// OfferScope controls which listings an offer can discount.
type OfferScope string

const (
	OfferScopeAll      OfferScope = "all"
	OfferScopeListings OfferScope = "listings"
)

var validOfferScopes = []OfferScope{
	OfferScopeAll,
	OfferScopeListings,
}

// IsValid reports whether the value is a known OfferScope.
func (s OfferScope) IsValid() bool {
	for _, candidate := range validOfferScopes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseOfferScope converts raw input into an OfferScope.
func ParseOfferScope(value string) (OfferScope, error) {
	for _, candidate := range validOfferScopes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid offer scope %q", value)
}
