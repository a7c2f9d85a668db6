package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateBooking      OutboxAggregateType = "booking"
	AggregateLedgerEntry  OutboxAggregateType = "ledger_entry"
	AggregateNotification OutboxAggregateType = "notification"
	AggregateListing      OutboxAggregateType = "listing"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateBooking,
	AggregateLedgerEntry,
	AggregateNotification,
	AggregateListing,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventBookingSettled              OutboxEventType = "booking_settled"
	EventBookingPending              OutboxEventType = "booking_pending"
	EventBookingPaymentStatusChanged OutboxEventType = "booking_payment_status_changed"
	EventBookingPayoutCompleted      OutboxEventType = "booking_payout_completed"
	EventNotificationRequested       OutboxEventType = "notification_requested"
	EventListingDiscountChanged      OutboxEventType = "listing_discount_changed"
)

var validOutboxEventTypes = []OutboxEventType{
	EventBookingSettled,
	EventBookingPending,
	EventBookingPaymentStatusChanged,
	EventBookingPayoutCompleted,
	EventNotificationRequested,
	EventListingDiscountChanged,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
