package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/haventrip/haventrip-backend/pkg/enums"
	"github.com/haventrip/haventrip-backend/pkg/logger"
	"github.com/haventrip/haventrip-backend/pkg/outbox"
)

type fakePayoutNotifier struct {
	calls []uuid.UUID
	err   error
}

func (f *fakePayoutNotifier) SendPayoutReleased(ctx context.Context, bookingID, hostID uuid.UUID, amountCents int64) error {
	f.calls = append(f.calls, bookingID)
	return f.err
}

type fakeIdempotency struct {
	check    func(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	deleteFn func(ctx context.Context, consumer string, eventID uuid.UUID) error
}

func (f fakeIdempotency) CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error) {
	if f.check != nil {
		return f.check(ctx, consumer, eventID)
	}
	return false, nil
}

func (f fakeIdempotency) Delete(ctx context.Context, consumer string, eventID uuid.UUID) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, consumer, eventID)
	}
	return nil
}

func mustConsumer(t *testing.T, svc payoutNotifier, manager fakeIdempotency) *Consumer {
	t.Helper()
	consumer, err := NewConsumer(svc, nil, manager, logger.New(logger.Options{
		ServiceName: "notifications-test",
		Level:       logger.ParseLevel("debug"),
		Output:      io.Discard,
	}))
	if err != nil {
		t.Fatalf("failed to build consumer: %v", err)
	}
	return consumer
}

func buildEnvelope(t *testing.T, eventID uuid.UUID, payload any) outbox.PayloadEnvelope {
	t.Helper()
	bytes, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return outbox.PayloadEnvelope{
		Version:    1,
		EventID:    eventID.String(),
		OccurredAt: time.Now(),
		Data:       bytes,
	}
}

func TestNotificationConsumerHandlesPayoutCompleted(t *testing.T) {
	svc := &fakePayoutNotifier{}
	consumer := mustConsumer(t, svc, fakeIdempotency{})

	bookingID := uuid.New()
	envelope := buildEnvelope(t, uuid.New(), map[string]any{
		"booking_id":          bookingID.String(),
		"host_id":             uuid.NewString(),
		"payout_amount_cents": 3000,
	})
	if err := consumer.Process(context.Background(), enums.EventBookingPayoutCompleted, envelope); err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if len(svc.calls) != 1 || svc.calls[0] != bookingID {
		t.Fatalf("expected one notification for %s, got %v", bookingID, svc.calls)
	}
}

func TestNotificationConsumerSkipsOtherEvents(t *testing.T) {
	svc := &fakePayoutNotifier{}
	consumer := mustConsumer(t, svc, fakeIdempotency{})

	envelope := buildEnvelope(t, uuid.New(), map[string]any{"booking_id": uuid.NewString()})
	if err := consumer.Process(context.Background(), enums.EventBookingSettled, envelope); err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if len(svc.calls) != 0 {
		t.Fatalf("non-payout event must not notify")
	}
}

func TestNotificationConsumerIsIdempotent(t *testing.T) {
	svc := &fakePayoutNotifier{}
	manager := fakeIdempotency{
		check: func(_ context.Context, _ string, _ uuid.UUID) (bool, error) {
			return true, nil
		},
	}
	consumer := mustConsumer(t, svc, manager)

	envelope := buildEnvelope(t, uuid.New(), map[string]any{
		"booking_id": uuid.NewString(),
		"host_id":    uuid.NewString(),
	})
	if err := consumer.Process(context.Background(), enums.EventBookingPayoutCompleted, envelope); err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if len(svc.calls) != 0 {
		t.Fatalf("expected no notification when event already processed")
	}
}

func TestNotificationConsumerDeletesKeyOnFailure(t *testing.T) {
	svc := &fakePayoutNotifier{err: errors.New("db down")}
	deleted := false
	manager := fakeIdempotency{
		deleteFn: func(_ context.Context, _ string, _ uuid.UUID) error {
			deleted = true
			return nil
		},
	}
	consumer := mustConsumer(t, svc, manager)

	envelope := buildEnvelope(t, uuid.New(), map[string]any{
		"booking_id": uuid.NewString(),
		"host_id":    uuid.NewString(),
	})
	if err := consumer.Process(context.Background(), enums.EventBookingPayoutCompleted, envelope); err == nil {
		t.Fatalf("expected error when notification fails")
	}
	if !deleted {
		t.Fatalf("expected idempotency key deletion on failure")
	}
}
