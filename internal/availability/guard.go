package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/haventrip/haventrip-backend/pkg/db"
	"github.com/haventrip/haventrip-backend/pkg/db/models"
	"github.com/haventrip/haventrip-backend/pkg/enums"
	pkgerrors "github.com/haventrip/haventrip-backend/pkg/errors"
)

// Request describes the capacity a proposed booking would consume. Night-mode
// listings use [CheckIn, CheckOut); slot-mode listings use SlotDate/SlotTime
// plus a participant count.
type Request struct {
	Listing      *models.Listing
	CheckIn      *time.Time
	CheckOut     *time.Time
	SlotDate     *time.Time
	SlotTime     *string
	Participants int
}

// Guard answers whether capacity is free and claims it inside the settlement
// transaction. Probe is advisory; Reserve is authoritative.
type Guard interface {
	Probe(ctx context.Context, req Request) error
	Reserve(ctx context.Context, tx *gorm.DB, req Request, bookingID uuid.UUID) error
}

type guard struct {
	db *gorm.DB
}

// NewGuard builds the availability guard over the shared database handle.
func NewGuard(database *gorm.DB) (Guard, error) {
	if database == nil {
		return nil, fmt.Errorf("database handle required")
	}
	return &guard{db: database}, nil
}

// Probe runs the capacity check outside any transaction. A passing probe can
// be stale by commit time; Reserve repeats the check authoritatively.
func (g *guard) Probe(ctx context.Context, req Request) error {
	if err := validate(req); err != nil {
		return err
	}
	if nightMode(req.Listing) {
		return g.checkNights(g.db.WithContext(ctx), req, false)
	}
	return g.checkSlot(g.db.WithContext(ctx), req, false)
}

// Reserve claims the capacity inside the caller's transaction. All lock rows
// are read before any write so a conflict aborts with nothing written.
func (g *guard) Reserve(ctx context.Context, tx *gorm.DB, req Request, bookingID uuid.UUID) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "reserve requires a transaction")
	}
	if bookingID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "booking id is required")
	}
	if err := validate(req); err != nil {
		return err
	}

	handle := tx.WithContext(ctx)
	if nightMode(req.Listing) {
		if err := g.checkNights(handle, req, true); err != nil {
			return err
		}
		return g.claimNights(handle, req, bookingID)
	}
	if err := g.checkSlot(handle, req, true); err != nil {
		return err
	}
	return g.claimSlot(handle, req)
}

func (g *guard) checkNights(handle *gorm.DB, req Request, forUpdate bool) error {
	nights := nightsBetween(*req.CheckIn, *req.CheckOut)
	query := handle.
		Where("listing_id = ? AND night IN ?", req.Listing.ID, nights)
	if forUpdate {
		// FOR UPDATE cannot wrap an aggregate; read the rows and count here.
		query = db.LockForUpdate(query)
	}

	var taken []models.NightLock
	if err := query.Find(&taken).Error; err != nil {
		return err
	}
	if len(taken) > 0 {
		return pkgerrors.New(pkgerrors.CodeCapacityConflict, "one or more nights are already booked")
	}
	return nil
}

func (g *guard) claimNights(handle *gorm.DB, req Request, bookingID uuid.UUID) error {
	for _, night := range nightsBetween(*req.CheckIn, *req.CheckOut) {
		lock := models.NightLock{
			ID:        uuid.New(),
			ListingID: req.Listing.ID,
			Night:     night,
			BookingID: bookingID,
		}
		if err := handle.Create(&lock).Error; err != nil {
			if db.IsUniqueViolation(err, "night_locks_listing_night_key") || db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeCapacityConflict, "one or more nights are already booked")
			}
			return err
		}
	}
	return nil
}

func (g *guard) checkSlot(handle *gorm.DB, req Request, forUpdate bool) error {
	lock, err := g.readSlot(handle, req, forUpdate)
	if err != nil {
		return err
	}
	// Capacity comes from the listing, not the lock row. The row keeps a
	// snapshot for audit; host capacity edits take effect on the next reserve.
	occupied := 0
	if lock != nil {
		occupied = lock.OccupantCount
	}
	if req.Listing.Capacity > 0 && occupied+req.Participants > req.Listing.Capacity {
		return pkgerrors.New(pkgerrors.CodeCapacityConflict, "slot is full")
	}
	return nil
}

func (g *guard) claimSlot(handle *gorm.DB, req Request) error {
	lock, err := g.readSlot(handle, req, true)
	if err != nil {
		return err
	}
	if lock == nil {
		created := models.SlotLock{
			ID:            uuid.New(),
			ListingID:     req.Listing.ID,
			SlotDate:      truncateToDay(*req.SlotDate),
			SlotTime:      *req.SlotTime,
			Capacity:      req.Listing.Capacity,
			OccupantCount: req.Participants,
		}
		if err := handle.Create(&created).Error; err != nil {
			if db.IsUniqueViolation(err, "slot_locks_listing_slot_key") || db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeCapacityConflict, "slot is full")
			}
			return err
		}
		return nil
	}

	updated := lock.OccupantCount + req.Participants
	if req.Listing.Capacity > 0 && updated > req.Listing.Capacity {
		return pkgerrors.New(pkgerrors.CodeCapacityConflict, "slot is full")
	}
	return handle.Model(&models.SlotLock{}).
		Where("id = ? AND occupant_count = ?", lock.ID, lock.OccupantCount).
		Update("occupant_count", updated).Error
}

func (g *guard) readSlot(handle *gorm.DB, req Request, forUpdate bool) (*models.SlotLock, error) {
	query := handle.
		Where("listing_id = ? AND slot_date = ? AND slot_time = ?",
			req.Listing.ID, truncateToDay(*req.SlotDate), *req.SlotTime)
	if forUpdate {
		query = db.LockForUpdate(query)
	}

	var lock models.SlotLock
	err := query.First(&lock).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &lock, nil
}

func validate(req Request) error {
	if req.Listing == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "listing is required")
	}
	if nightMode(req.Listing) {
		if req.CheckIn == nil || req.CheckOut == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "check-in and check-out are required")
		}
		if !truncateToDay(*req.CheckIn).Before(truncateToDay(*req.CheckOut)) {
			return pkgerrors.New(pkgerrors.CodeValidation, "check-out must be after check-in")
		}
		return nil
	}
	if req.SlotDate == nil || req.SlotTime == nil || *req.SlotTime == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "slot date and time are required")
	}
	if req.Participants <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "participants must be positive")
	}
	return nil
}

func nightMode(listing *models.Listing) bool {
	return listing.UnitType == enums.UnitTypePerNight
}

// nightsBetween enumerates [checkIn, checkOut) as UTC dates.
func nightsBetween(checkIn, checkOut time.Time) []time.Time {
	start := truncateToDay(checkIn)
	end := truncateToDay(checkOut)
	var nights []time.Time
	for night := start; night.Before(end); night = night.AddDate(0, 0, 1) {
		nights = append(nights, night)
	}
	return nights
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
