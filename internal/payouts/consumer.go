package payouts

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/haventrip/haventrip-backend/pkg/enums"
	pkgerrors "github.com/haventrip/haventrip-backend/pkg/errors"
	"github.com/haventrip/haventrip-backend/pkg/logger"
	"github.com/haventrip/haventrip-backend/pkg/outbox"
	"github.com/haventrip/haventrip-backend/pkg/outbox/payloads"
)

const payoutConsumerName = "payout-reconciler"

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Consumer watches booking events and releases the host payout once a booking
// is confirmed and paid. Reconcile itself is idempotent, so a replayed event
// that slips past the Redis guard still cannot double credit.
type Consumer struct {
	svc          Service
	subscription *pubsub.Subscriber
	idempotency  idempotencyChecker
	logg         *logger.Logger
	eventFilter  map[enums.OutboxEventType]struct{}
}

// NewConsumer builds a payout reconciliation consumer. The subscription may be
// nil when the caller drives Process directly.
func NewConsumer(svc Service, subscription *pubsub.Subscriber, manager idempotencyChecker, logg *logger.Logger) (*Consumer, error) {
	if svc == nil {
		return nil, fmt.Errorf("payout service required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		svc:          svc,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
		eventFilter: map[enums.OutboxEventType]struct{}{
			enums.EventBookingSettled:              {},
			enums.EventBookingPaymentStatusChanged: {},
		},
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	if c.subscription == nil {
		return fmt.Errorf("bookings subscription not configured")
	}
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		eventType := enums.OutboxEventType(msg.Attributes["event_type"])
		logCtx := c.logg.WithFields(ctx, map[string]any{
			"message_id": msg.ID,
			"event_type": eventType,
		})

		var envelope outbox.PayloadEnvelope
		if err := json.Unmarshal(msg.Data, &envelope); err != nil {
			c.logg.Error(logCtx, "failed to decode envelope", err)
			msg.Ack()
			return
		}

		if err := c.Process(ctx, eventType, envelope); err != nil {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

// Process reconciles the payout referenced by the event. A returned error
// means the message should be redelivered.
func (c *Consumer) Process(ctx context.Context, eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) error {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"event_id":   envelope.EventID,
		"event_type": eventType,
	})

	if _, ok := c.eventFilter[eventType]; !ok {
		c.logg.Info(logCtx, "event not handled by payout consumer")
		return nil
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return nil
	}

	bookingID, relevant, err := c.bookingFromPayload(eventType, envelope.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		return nil
	}
	if !relevant {
		c.logg.Info(logCtx, "event does not trigger a payout")
		return nil
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, payoutConsumerName, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return err
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return nil
	}

	logCtx = c.logg.WithFields(logCtx, map[string]any{"booking_id": bookingID})

	result, err := c.svc.Reconcile(ctx, bookingID)
	if err != nil {
		// A booking that is missing or not yet confirmed will not change on
		// redelivery; everything else is worth a retry.
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) || pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
			c.logg.Warn(logCtx, fmt.Sprintf("payout skipped: %v", err))
			return nil
		}
		c.logg.Error(logCtx, "payout reconciliation failed", err)
		_ = c.idempotency.Delete(ctx, payoutConsumerName, eventID)
		return err
	}

	if result.AlreadyPaid {
		c.logg.Info(logCtx, "payout already completed")
		return nil
	}
	c.logg.Info(logCtx, "host payout reconciled")
	return nil
}

func (c *Consumer) bookingFromPayload(eventType enums.OutboxEventType, data json.RawMessage) (uuid.UUID, bool, error) {
	switch eventType {
	case enums.EventBookingSettled:
		var payload payloads.BookingSettledEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return uuid.Nil, false, fmt.Errorf("decode settled payload: %w", err)
		}
		if payload.BookingID == uuid.Nil {
			return uuid.Nil, false, fmt.Errorf("booking id missing")
		}
		return payload.BookingID, true, nil
	case enums.EventBookingPaymentStatusChanged:
		var payload payloads.BookingPaymentStatusChangedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return uuid.Nil, false, fmt.Errorf("decode status payload: %w", err)
		}
		if payload.BookingID == uuid.Nil {
			return uuid.Nil, false, fmt.Errorf("booking id missing")
		}
		// Only a transition to paid releases money.
		return payload.BookingID, payload.Status == enums.PaymentStatusPaid, nil
	default:
		return uuid.Nil, false, nil
	}
}
