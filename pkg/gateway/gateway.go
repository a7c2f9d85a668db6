package gateway

import "context"

// CaptureStatus is the normalized outcome of a card capture attempt.
type CaptureStatus string

const (
	CaptureCompleted CaptureStatus = "completed"
	CapturePending   CaptureStatus = "pending"
	CaptureDeclined  CaptureStatus = "declined"
)

// CaptureParams carries the inputs for charging a guest's card.
type CaptureParams struct {
	AmountCents    int64
	Currency       string
	SourceID       string
	CustomerID     string
	BookingRef     string
	IdempotencyKey string
	Note           string
}

// CaptureResult is the gateway's answer; Status drives the settlement path.
type CaptureResult struct {
	PaymentID string
	Status    CaptureStatus
}

// Capturer is the surface the settlement service depends on.
type Capturer interface {
	Capture(ctx context.Context, params CaptureParams) (*CaptureResult, error)
}
