package listings

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
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// PromoInvalidator drops cached promo views when host pricing changes.
type PromoInvalidator interface {
	Invalidate(ctx context.Context, hostID uuid.UUID) error
}

// Service defines listing operations beyond repository reads.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	ListByHost(ctx context.Context, hostID uuid.UUID) ([]models.Listing, error)
	SetDiscountPolicy(ctx context.Context, input SetDiscountPolicyInput) (*models.Listing, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	outbox   outboxPublisher
	promoInv PromoInvalidator
}

// SetDiscountPolicyInput carries the host's listing-level discount change.
type SetDiscountPolicyInput struct {
	ListingID     uuid.UUID
	HostID        uuid.UUID
	DiscountType  enums.DiscountType
	DiscountValue int64
}

// NewService wires the listing service with its dependencies.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher, promoInv PromoInvalidator) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("listing repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: outboxSvc, promoInv: promoInv}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing id is required")
	}
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListByHost(ctx context.Context, hostID uuid.UUID) ([]models.Listing, error) {
	if hostID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "host id is required")
	}
	return s.repo.ListByHost(ctx, hostID)
}

func (s *service) SetDiscountPolicy(ctx context.Context, input SetDiscountPolicyInput) (*models.Listing, error) {
	if input.ListingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing id is required")
	}
	if !input.DiscountType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid discount type %q", input.DiscountType))
	}
	if input.DiscountValue < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount value must be non-negative")
	}
	if input.DiscountType == enums.DiscountTypePercentage && input.DiscountValue > 100 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "percentage discount cannot exceed 100")
	}

	listing, err := s.repo.GetByID(ctx, input.ListingID)
	if err != nil {
		return nil, err
	}
	if input.HostID != uuid.Nil && listing.HostID != input.HostID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "listing belongs to another host")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateDiscountPolicy(ctx, input.ListingID, DiscountPolicyUpdate{
			DiscountType:  string(input.DiscountType),
			DiscountValue: input.DiscountValue,
		}); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventListingDiscountChanged,
			AggregateType: enums.AggregateListing,
			AggregateID:   input.ListingID,
			Version:       1,
			Data: payloads.ListingDiscountChangedEvent{
				ListingID: input.ListingID,
				HostID:    listing.HostID,
				ChangedAt: time.Now().UTC(),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	// Best effort: a stale promo cache heals on TTL anyway.
	if s.promoInv != nil {
		_ = s.promoInv.Invalidate(ctx, listing.HostID)
	}

	return s.repo.GetByID(ctx, input.ListingID)
}
