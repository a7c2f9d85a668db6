package enums

import "fmt"

// ListingCategory determines the service-fee schedule applied to a booking.
type ListingCategory string

const (
	ListingCategoryStay       ListingCategory = "stay"
	ListingCategoryExperience ListingCategory = "experience"
	ListingCategoryService    ListingCategory = "service"
)

var validListingCategories = []ListingCategory{
	ListingCategoryStay,
	ListingCategoryExperience,
	ListingCategoryService,
}

// String implements fmt.Stringer.
func (c ListingCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ListingCategory.
func (c ListingCategory) IsValid() bool {
	for _, candidate := range validListingCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseListingCategory converts raw input into a ListingCategory.
func ParseListingCategory(value string) (ListingCategory, error) {
	for _, candidate := range validListingCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid listing category %q", value)
}

// UnitType describes how a listing's capacity is consumed.
type UnitType string

const (
	UnitTypePerNight       UnitType = "per_night"
	UnitTypePerParticipant UnitType = "per_participant"
)

var validUnitTypes = []UnitType{
	UnitTypePerNight,
	UnitTypePerParticipant,
}

// IsValid reports whether the value is a known UnitType.
func (u UnitType) IsValid() bool {
	for _, candidate := range validUnitTypes {
		if candidate == u {
			return true
		}
	}
	return false
}

// ParseUnitType converts raw input into a UnitType.
func ParseUnitType(value string) (UnitType, error) {
	for _, candidate := range validUnitTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid unit type %q", value)
}
