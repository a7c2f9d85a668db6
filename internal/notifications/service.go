package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/haventrip/haventrip-backend/pkg/db/models"
	"github.com/haventrip/haventrip-backend/pkg/enums"
	pkgerrors "github.com/haventrip/haventrip-backend/pkg/errors"
	"github.com/haventrip/haventrip-backend/pkg/outbox"
	"github.com/haventrip/haventrip-backend/pkg/outbox/payloads"
	"github.com/haventrip/haventrip-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service defines notification read/write operations.
type Service interface {
	List(ctx context.Context, params ListParams) (*ListResult, error)
	MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error)
	SendBookingConfirmation(ctx context.Context, booking *models.Booking) error
	SendPayoutReleased(ctx context.Context, bookingID, hostID uuid.UUID, amountCents int64) error
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
}

// ListParams configures pagination for notifications.
type ListParams struct {
	RecipientID uuid.UUID
	Limit       int
	Cursor      string
	UnreadOnly  bool
}

// ListResult wraps returned notifications and the cursor for the next page.
type ListResult struct {
	Items  []models.Notification `json:"items"`
	Cursor string                `json:"cursor"`
}

// NewService wires notifications dependencies.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "tx runner required")
	}
	if outboxSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: outboxSvc}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.RecipientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipient id required")
	}

	query := listNotificationsParams{
		RecipientID: params.RecipientID,
		Limit:       pagination.LimitWithBuffer(params.Limit),
		UnreadOnly:  params.UnreadOnly,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}

	cursor := ""
	if next != nil {
		cursor = next.Encode()
	}

	return &ListResult{
		Items:  rows,
		Cursor: cursor,
	}, nil
}

func (s *service) MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID) error {
	if recipientID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient id required")
	}
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	result, err := s.repo.MarkRead(ctx, recipientID, notificationID, time.Now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !result.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	if recipientID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "recipient id required")
	}

	count, err := s.repo.MarkAllRead(ctx, recipientID, time.Now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return count, nil
}

// SendBookingConfirmation records an in-app notification for the guest and
// requests downstream delivery. Pending gateway bookings get the pending
// variant so the guest knows payment is still in flight.
func (s *service) SendBookingConfirmation(ctx context.Context, booking *models.Booking) error {
	if booking == nil || booking.ID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "booking required")
	}
	if booking.GuestID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "booking guest id required")
	}

	notificationType := enums.NotificationTypeBookingConfirmation
	title := "Booking confirmed"
	message := fmt.Sprintf("Your booking is confirmed. Total charged: %s.", formatCents(booking.TotalCents, booking.Currency))
	if booking.PaymentStatus != enums.PaymentStatusPaid {
		notificationType = enums.NotificationTypeBookingPending
		title = "Booking received"
		message = "Your booking was received and is awaiting payment confirmation."
	}

	return s.create(ctx, &models.Notification{
		ID:          uuid.New(),
		RecipientID: booking.GuestID,
		Type:        notificationType,
		Title:       title,
		Message:     message,
		BookingID:   &booking.ID,
	})
}

// SendPayoutReleased notifies the host that their earnings were credited.
func (s *service) SendPayoutReleased(ctx context.Context, bookingID, hostID uuid.UUID, amountCents int64) error {
	if bookingID == uuid.Nil || hostID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "booking and host ids required")
	}

	return s.create(ctx, &models.Notification{
		ID:          uuid.New(),
		RecipientID: hostID,
		Type:        enums.NotificationTypePayoutReleased,
		Title:       "Payout released",
		Message:     fmt.Sprintf("Your payout of %d.%02d for booking %s was released.", amountCents/100, amountCents%100, bookingID),
		BookingID:   &bookingID,
	})
}

func (s *service) create(ctx context.Context, notification *models.Notification) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, notification); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create notification")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventNotificationRequested,
			AggregateType: enums.AggregateNotification,
			AggregateID:   notification.ID,
			Version:       1,
			Data: payloads.NotificationRequestedEvent{
				RecipientID: notification.RecipientID,
				BookingID:   derefUUID(notification.BookingID),
				Type:        notification.Type,
			},
		})
	})
}

func formatCents(cents int64, currency enums.Currency) string {
	return fmt.Sprintf("%d.%02d %s", cents/100, cents%100, currency)
}

func derefUUID(id *uuid.UUID) uuid.UUID {
	if id == nil {
		return uuid.Nil
	}
	return *id
}
