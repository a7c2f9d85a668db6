package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/haventrip/haventrip-backend/pkg/enums"
	"github.com/haventrip/haventrip-backend/pkg/logger"
	"github.com/haventrip/haventrip-backend/pkg/outbox"
	"github.com/haventrip/haventrip-backend/pkg/outbox/payloads"
)

const payoutNotificationConsumer = "payout-notifications"

type payoutNotifier interface {
	SendPayoutReleased(ctx context.Context, bookingID, hostID uuid.UUID, amountCents int64) error
}

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Consumer watches domain events and turns completed payouts into host notifications.
type Consumer struct {
	svc          payoutNotifier
	subscription *pubsub.Subscriber
	idempotency  idempotencyChecker
	logg         *logger.Logger
}

// NewConsumer builds a payout notification consumer. The subscription may be
// nil when the caller drives Process directly.
func NewConsumer(svc payoutNotifier, subscription *pubsub.Subscriber, manager idempotencyChecker, logg *logger.Logger) (*Consumer, error) {
	if svc == nil {
		return nil, fmt.Errorf("notifications service required")
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
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	if c.subscription == nil {
		return fmt.Errorf("notification subscription not configured")
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

// Process creates the host notification for one payout event. A returned
// error means the message should be redelivered.
func (c *Consumer) Process(ctx context.Context, eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) error {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"event_id":   envelope.EventID,
		"event_type": eventType,
	})

	if eventType != enums.EventBookingPayoutCompleted {
		c.logg.Info(logCtx, "skipping non-payout event")
		return nil
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return nil
	}

	var payload payloads.BookingPayoutCompletedEvent
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		return nil
	}
	if payload.BookingID == uuid.Nil || payload.HostID == uuid.Nil {
		c.logg.Error(logCtx, "payload missing ids", fmt.Errorf("booking %s host %s", payload.BookingID, payload.HostID))
		return nil
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, payoutNotificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return err
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return nil
	}

	if err := c.svc.SendPayoutReleased(ctx, payload.BookingID, payload.HostID, payload.PayoutAmountCents); err != nil {
		c.logg.Error(logCtx, "payout notification failed", err)
		_ = c.idempotency.Delete(ctx, payoutNotificationConsumer, eventID)
		return err
	}

	c.logg.Info(logCtx, "host notified of payout")
	return nil
}
