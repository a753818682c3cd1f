package common

import (
	"errors"
	"log"
	"tenanthub/src/db"
	"tenanthub/src/models"
	"tenanthub/src/types"
	"tenanthub/src/utils"
	"time"

	"gorm.io/gorm"
)

// CreateBooking validates a visit or rent request against the property and
// persists the pending booking together with its creation timeline entry.
func CreateBooking(body *types.CreateBookingRequestBody, userID uint) (*models.Booking, error) {
	now := time.Now()
	booking := models.Booking{
		BookingType: types.BookingType(body.BookingType),
		Status:      types.BOOKING_PENDING,
		PropertyID:  body.PropertyID,
		UserID:      userID,
		Payment: models.PaymentDetails{
			AdvanceAmount:        body.AdvanceAmount,
			CommissionPercentage: body.CommissionPercentage,
		},
	}
	if body.VisitDate != nil {
		visitDate, err := utils.ParseDate("visitDate", *body.VisitDate)
		if err != nil {
			return nil, err
		}
		booking.VisitDate = &visitDate
	}
	if body.VisitTimeSlot != nil {
		slot := types.VisitTimeSlot(*body.VisitTimeSlot)
		booking.VisitTimeSlot = &slot
	}
	if body.RentalStart != nil {
		start, err := utils.ParseDate("rentalStart", *body.RentalStart)
		if err != nil {
			return nil, err
		}
		end := start.AddDate(0, int(body.DurationMonths), 0)
		booking.RentalStart = &start
		booking.RentalEnd = &end
		booking.DurationMonths = body.DurationMonths
	}
	if err := booking.ValidateForCreate(now); err != nil {
		return nil, err
	}
	booking.RecomputeSplit()

	db := db.GetDb()
	err := db.Transaction(func(tx *gorm.DB) error {
		var property models.Property
		if err := tx.
			Model(&models.Property{}).
			Where(&models.Property{ID: body.PropertyID}).
			First(&property).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return types.NewNotFoundError("property", body.PropertyID)
			}
			return err
		}
		if !property.IsAvailable {
			return types.NewValidationError("property", "is not currently available")
		}
		if err := tx.Create(&booking).Error; err != nil {
			return err
		}
		entry := booking.RecordCreated(userID, now)
		if err := tx.Create(entry).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	go func() {
		notify(userID, types.NOTIFY_BOOKING_CREATED, types.JSONB{"booking_id": booking.ID})
		admin, err := AdminRecipient(db)
		if err != nil {
			log.Printf("[CreateBooking] No admin recipient resolved: %s\n", err.Error())
			return
		}
		notify(admin.ID, types.NOTIFY_BOOKING_CREATED, types.JSONB{"booking_id": booking.ID})
	}()
	return &booking, nil
}

func requireAdmin(tx *gorm.DB, actorID uint) (*models.User, error) {
	var actor models.User
	if err := tx.
		Model(&models.User{}).
		Where(&models.User{ID: actorID}).
		First(&actor).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrForbidden
		}
		return nil, err
	}
	if actor.Role != types.ROLE_ADMIN {
		return nil, types.ErrForbidden
	}
	return &actor, nil
}

func loadBooking(tx *gorm.DB, id uint) (*models.Booking, error) {
	var booking models.Booking
	if err := tx.
		Model(&models.Booking{}).
		Where(&models.Booking{ID: id}).
		First(&booking).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NewNotFoundError("booking", id)
		}
		return nil, err
	}
	return &booking, nil
}

// saveDecision persists an approve/reject/cancel transition with a
// compare-and-swap on the starting status, so a concurrent transition cannot
// be applied twice. Timeline append and status write commit together.
func saveDecision(tx *gorm.DB, booking *models.Booking, from types.BookingStatus, entry *models.TimelineEntry) error {
	res := tx.
		Model(&models.Booking{}).
		Where("id = ? AND status = ?", booking.ID, from).
		Updates(map[string]any{
			"status":               booking.Status,
			"approval_is_approved": booking.Approval.IsApproved,
			"approval_approved_by": booking.Approval.ApprovedBy,
			"approval_approved_at": booking.Approval.ApprovedAt,
			"approval_notes":       booking.Approval.Notes,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return &types.InvalidTransitionError{From: from, To: booking.Status}
	}
	return tx.Create(entry).Error
}

// ApproveBooking confirms a pending booking on behalf of an administrator.
func ApproveBooking(id uint, actorID uint, notes string) (*models.Booking, error) {
	now := time.Now()
	var booking *models.Booking
	db := db.GetDb()
	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := requireAdmin(tx, actorID); err != nil {
			return err
		}
		b, err := loadBooking(tx, id)
		if err != nil {
			return err
		}
		from := b.Status
		entry, err := b.Approve(actorID, notes, now)
		if err != nil {
			return err
		}
		booking = b
		return saveDecision(tx, b, from, entry)
	})
	if err != nil {
		return nil, err
	}
	go notify(booking.UserID, types.NOTIFY_BOOKING_CONFIRMED, types.JSONB{
		"booking_id": booking.ID,
		"notes":      notes,
	})
	return booking, nil
}

// RejectBooking rejects a pending booking, keeping the reason on the
// timeline and in the notification to the requester.
func RejectBooking(id uint, actorID uint, notes string) (*models.Booking, error) {
	now := time.Now()
	var booking *models.Booking
	db := db.GetDb()
	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := requireAdmin(tx, actorID); err != nil {
			return err
		}
		b, err := loadBooking(tx, id)
		if err != nil {
			return err
		}
		from := b.Status
		entry, err := b.Reject(actorID, notes, now)
		if err != nil {
			return err
		}
		booking = b
		return saveDecision(tx, b, from, entry)
	})
	if err != nil {
		return nil, err
	}
	go notify(booking.UserID, types.NOTIFY_BOOKING_REJECTED, types.JSONB{
		"booking_id": booking.ID,
		"reason":     notes,
	})
	return booking, nil
}

// CancelBooking cancels a pending or confirmed booking. Requesters may cancel
// their own bookings; admins may cancel any.
func CancelBooking(id uint, actorID uint) (*models.Booking, error) {
	now := time.Now()
	var booking *models.Booking
	db := db.GetDb()
	err := db.Transaction(func(tx *gorm.DB) error {
		b, err := loadBooking(tx, id)
		if err != nil {
			return err
		}
		var actor models.User
		if err := tx.
			Model(&models.User{}).
			Where(&models.User{ID: actorID}).
			First(&actor).
			Error; err != nil {
			return types.ErrForbidden
		}
		if b.UserID != actorID && actor.Role != types.ROLE_ADMIN {
			return types.ErrForbidden
		}
		from := b.Status
		entry, err := b.Cancel(actorID, now)
		if err != nil {
			return err
		}
		booking = b
		return saveDecision(tx, b, from, entry)
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// ViewBooking loads a booking with its timeline, enforcing the read rule:
// the requester, an admin, or the owner of the booked property.
func ViewBooking(id uint, actorID uint) (*models.Booking, error) {
	db := db.GetDb()
	var booking models.Booking
	if err := db.
		Model(&models.Booking{}).
		Where(&models.Booking{ID: id}).
		Preload("Property").
		Preload("Timeline", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("created_at asc")
		}).
		First(&booking).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NewNotFoundError("booking", id)
		}
		return nil, err
	}
	var actor models.User
	if err := db.
		Model(&models.User{}).
		Where(&models.User{ID: actorID}).
		First(&actor).
		Error; err != nil {
		return nil, types.ErrForbidden
	}
	var ownerID uint
	if booking.Property != nil {
		ownerID = booking.Property.OwnerID
	}
	if !booking.CanView(&actor, ownerID) {
		return nil, types.ErrForbidden
	}
	return &booking, nil
}

// ListUserBookings returns the requester's own bookings, newest first.
func ListUserBookings(userID uint) ([]models.Booking, error) {
	db := db.GetDb()
	var bookings []models.Booking
	err := db.
		Model(&models.Booking{}).
		Where(&models.Booking{UserID: userID}).
		Order("created_at desc").
		Find(&bookings).
		Error
	return bookings, err
}

// ListPendingBookings is the admin work queue.
func ListPendingBookings() ([]models.Booking, error) {
	db := db.GetDb()
	var bookings []models.Booking
	err := db.
		Model(&models.Booking{}).
		Where("status = ?", types.BOOKING_PENDING).
		Preload("Property").
		Order("created_at asc").
		Find(&bookings).
		Error
	return bookings, err
}
