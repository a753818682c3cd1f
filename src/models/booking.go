package models

import (
	"tenanthub/src/types"
	"time"
)

type AdminApproval struct {
	IsApproved bool       `json:"is_approved"`
	ApprovedBy *uint      `json:"approved_by,omitempty"`
	ApprovedAt *time.Time `json:"approved_at,omitempty"`
	Notes      string     `json:"notes,omitempty"`
}

type PaymentDetails struct {
	AdvanceAmount        float64    `json:"advance_amount"`
	CommissionPercentage float64    `json:"commission_percentage"`
	AdminCommission      float64    `json:"admin_commission"`
	OwnerAmount          float64    `json:"owner_amount"`
	IsPaid               bool       `json:"is_paid"`
	PaymentMethod        string     `json:"payment_method,omitempty"`
	TransactionID        string     `json:"transaction_id,omitempty"`
	PaymentDate          *time.Time `json:"payment_date,omitempty"`
}

// Booking is the central aggregate. It owns its timeline and payment
// sub-record and holds ids only for Property and User. Bookings are never
// deleted; cancellation is a terminal status.
type Booking struct {
	ID          uint                `gorm:"primarykey" json:"id"`
	BookingType types.BookingType   `json:"booking_type"`
	Status      types.BookingStatus `gorm:"default:'pending'" json:"status"`

	VisitDate     *time.Time           `json:"visit_date,omitempty"`
	VisitTimeSlot *types.VisitTimeSlot `json:"visit_time_slot,omitempty"`

	RentalStart    *time.Time `json:"rental_start,omitempty"`
	RentalEnd      *time.Time `json:"rental_end,omitempty"`
	DurationMonths uint       `json:"duration_months,omitempty"`

	PropertyID uint `json:"property_id"`
	UserID     uint `json:"user_id"`

	Approval AdminApproval  `gorm:"embedded;embeddedPrefix:approval_" json:"admin_approval"`
	Payment  PaymentDetails `gorm:"embedded;embeddedPrefix:payment_" json:"payment"`

	Property *Property       `gorm:"foreignKey:property_id" json:"property,omitempty"`
	User     *User           `gorm:"foreignKey:user_id" json:"user,omitempty"`
	Timeline []TimelineEntry `gorm:"foreignKey:booking_id" json:"timeline,omitempty"`

	types.Timestamps
}

// ValidateForCreate checks the type-conditional required fields. Property
// availability is checked separately because it needs a lookup.
func (b *Booking) ValidateForCreate(now time.Time) error {
	switch b.BookingType {
	case types.BOOKING_TYPE_VISIT:
		if b.VisitDate == nil {
			return types.NewValidationError("visitDate", "required for visit bookings")
		}
		if !b.VisitDate.After(now) {
			return types.NewValidationError("visitDate", "must be in the future")
		}
		if b.VisitTimeSlot == nil {
			return types.NewValidationError("visitTimeSlot", "required for visit bookings")
		}
	case types.BOOKING_TYPE_RENT:
		if b.RentalStart == nil {
			return types.NewValidationError("rentalStart", "required for rent bookings")
		}
		if b.DurationMonths == 0 {
			return types.NewValidationError("durationMonths", "required for rent bookings")
		}
	default:
		return types.NewValidationError("bookingType", "must be visit or rent")
	}
	if b.Payment.AdvanceAmount < 0 {
		return types.NewValidationError("advanceAmount", "must not be negative")
	}
	if b.Payment.CommissionPercentage < 0 || b.Payment.CommissionPercentage > 100 {
		return types.NewValidationError("commissionPercentage", "must be between 0 and 100")
	}
	return nil
}

// RecomputeSplit rederives the commission split from the advance amount and
// percentage, overwriting any stale derived values.
func (b *Booking) RecomputeSplit() {
	commission, ownerShare := SplitAmount(b.Payment.AdvanceAmount, b.Payment.CommissionPercentage)
	b.Payment.AdminCommission = commission
	b.Payment.OwnerAmount = ownerShare
}

func (b *Booking) transition(to types.BookingStatus) error {
	if !b.Status.CanTransition(to) {
		return &types.InvalidTransitionError{From: b.Status, To: to}
	}
	b.Status = to
	return nil
}

func (b *Booking) appendTimeline(action string, actorID uint, notes string, now time.Time) *TimelineEntry {
	entry := NewTimelineEntry(b.ID, action, actorID, notes, now)
	b.Timeline = append(b.Timeline, entry)
	return &b.Timeline[len(b.Timeline)-1]
}

// RecordCreated appends the creation timeline entry for a fresh pending
// booking.
func (b *Booking) RecordCreated(actorID uint, now time.Time) *TimelineEntry {
	return b.appendTimeline(ActionCreated, actorID, "", now)
}

// Approve moves a pending booking to confirmed, fills in the approval
// sub-record and appends the timeline entry. Any other starting status is an
// invalid transition.
func (b *Booking) Approve(actorID uint, notes string, now time.Time) (*TimelineEntry, error) {
	if err := b.transition(types.BOOKING_CONFIRMED); err != nil {
		return nil, err
	}
	b.Approval = AdminApproval{
		IsApproved: true,
		ApprovedBy: &actorID,
		ApprovedAt: &now,
		Notes:      notes,
	}
	return b.appendTimeline(ActionApproved, actorID, notes, now), nil
}

// Reject moves a pending booking to rejected, keeping the reason in both the
// approval sub-record and the timeline entry.
func (b *Booking) Reject(actorID uint, notes string, now time.Time) (*TimelineEntry, error) {
	if err := b.transition(types.BOOKING_REJECTED); err != nil {
		return nil, err
	}
	b.Approval = AdminApproval{
		IsApproved: false,
		ApprovedBy: &actorID,
		ApprovedAt: &now,
		Notes:      notes,
	}
	return b.appendTimeline(ActionRejected, actorID, notes, now), nil
}

// Cancel is reachable from pending and confirmed only.
func (b *Booking) Cancel(actorID uint, now time.Time) (*TimelineEntry, error) {
	if err := b.transition(types.BOOKING_CANCELLED); err != nil {
		return nil, err
	}
	return b.appendTimeline(ActionCancelled, actorID, "", now), nil
}

// CanView implements the read authorization rule: the requester, any admin,
// or the owner of the booked property.
func (b *Booking) CanView(actor *User, propertyOwnerID uint) bool {
	if actor == nil {
		return false
	}
	if actor.ID == b.UserID {
		return true
	}
	switch actor.Role {
	case types.ROLE_ADMIN:
		return true
	case types.ROLE_OWNER:
		return actor.ID == propertyOwnerID
	}
	return false
}
