package models

import (
	"tenanthub/src/types"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newRentBooking(now time.Time) *Booking {
	start := now.AddDate(0, 0, 7)
	end := start.AddDate(0, 6, 0)
	return &Booking{
		ID:             1,
		BookingType:    types.BOOKING_TYPE_RENT,
		Status:         types.BOOKING_PENDING,
		RentalStart:    &start,
		RentalEnd:      &end,
		DurationMonths: 6,
		PropertyID:     10,
		UserID:         42,
		Payment: PaymentDetails{
			AdvanceAmount:        1200,
			CommissionPercentage: 10,
		},
	}
}

func TestBookingTransitions(t *testing.T) {
	cases := []struct {
		from    types.BookingStatus
		to      types.BookingStatus
		allowed bool
	}{
		{types.BOOKING_PENDING, types.BOOKING_CONFIRMED, true},
		{types.BOOKING_PENDING, types.BOOKING_REJECTED, true},
		{types.BOOKING_PENDING, types.BOOKING_CANCELLED, true},
		{types.BOOKING_PENDING, types.BOOKING_COMPLETED, false},
		{types.BOOKING_CONFIRMED, types.BOOKING_COMPLETED, true},
		{types.BOOKING_CONFIRMED, types.BOOKING_CANCELLED, true},
		{types.BOOKING_CONFIRMED, types.BOOKING_REJECTED, false},
		{types.BOOKING_CONFIRMED, types.BOOKING_PENDING, false},
		{types.BOOKING_REJECTED, types.BOOKING_CONFIRMED, false},
		{types.BOOKING_COMPLETED, types.BOOKING_CANCELLED, false},
		{types.BOOKING_CANCELLED, types.BOOKING_CONFIRMED, false},
	}
	for _, c := range cases {
		assert.Equalf(t, c.allowed, c.from.CanTransition(c.to), "%s -> %s", c.from, c.to)
	}
}

func TestValidateForCreate(t *testing.T) {
	now := time.Now()

	t.Run("rent booking with all fields passes", func(t *testing.T) {
		booking := newRentBooking(now)
		assert.Nil(t, booking.ValidateForCreate(now))
	})

	t.Run("visit booking with past date fails", func(t *testing.T) {
		past := now.AddDate(0, 0, -1)
		slot := types.SLOT_MORNING
		booking := &Booking{
			BookingType:   types.BOOKING_TYPE_VISIT,
			VisitDate:     &past,
			VisitTimeSlot: &slot,
		}
		err := booking.ValidateForCreate(now)
		assert.NotNil(t, err)
		var verr *types.ValidationError
		assert.ErrorAs(t, err, &verr)
		assert.Equal(t, "visitDate", verr.Field)
	})

	t.Run("visit booking without time slot fails", func(t *testing.T) {
		future := now.AddDate(0, 0, 3)
		booking := &Booking{
			BookingType: types.BOOKING_TYPE_VISIT,
			VisitDate:   &future,
		}
		err := booking.ValidateForCreate(now)
		var verr *types.ValidationError
		assert.ErrorAs(t, err, &verr)
		assert.Equal(t, "visitTimeSlot", verr.Field)
	})

	t.Run("rent booking without duration fails", func(t *testing.T) {
		booking := newRentBooking(now)
		booking.DurationMonths = 0
		err := booking.ValidateForCreate(now)
		var verr *types.ValidationError
		assert.ErrorAs(t, err, &verr)
		assert.Equal(t, "durationMonths", verr.Field)
	})

	t.Run("commission percentage out of range fails", func(t *testing.T) {
		booking := newRentBooking(now)
		booking.Payment.CommissionPercentage = 101
		err := booking.ValidateForCreate(now)
		var verr *types.ValidationError
		assert.ErrorAs(t, err, &verr)
		assert.Equal(t, "commissionPercentage", verr.Field)
	})
}

func TestApproveRejectCancel(t *testing.T) {
	now := time.Now()
	admin := uint(7)

	t.Run("approve fills approval and appends timeline", func(t *testing.T) {
		booking := newRentBooking(now)
		entry, err := booking.Approve(admin, "looks good", now)
		assert.Nil(t, err)
		assert.Equal(t, types.BOOKING_CONFIRMED, booking.Status)
		assert.True(t, booking.Approval.IsApproved)
		assert.Equal(t, admin, *booking.Approval.ApprovedBy)
		assert.Equal(t, ActionApproved, entry.Action)
		assert.Equal(t, "looks good", entry.Notes)
	})

	t.Run("reject keeps reason on record and timeline", func(t *testing.T) {
		booking := newRentBooking(now)
		entry, err := booking.Reject(admin, "property already taken", now)
		assert.Nil(t, err)
		assert.Equal(t, types.BOOKING_REJECTED, booking.Status)
		assert.False(t, booking.Approval.IsApproved)
		assert.Equal(t, "property already taken", booking.Approval.Notes)
		assert.Equal(t, "property already taken", entry.Notes)
	})

	t.Run("approve after reject is an invalid transition", func(t *testing.T) {
		booking := newRentBooking(now)
		_, err := booking.Reject(admin, "no", now)
		assert.Nil(t, err)
		_, err = booking.Approve(admin, "changed my mind", now)
		var terr *types.InvalidTransitionError
		assert.ErrorAs(t, err, &terr)
		assert.Equal(t, types.BOOKING_REJECTED, terr.From)
		assert.Equal(t, types.BOOKING_REJECTED, booking.Status)
		assert.Len(t, booking.Timeline, 1)
	})

	t.Run("cancel allowed from confirmed", func(t *testing.T) {
		booking := newRentBooking(now)
		_, err := booking.Approve(admin, "", now)
		assert.Nil(t, err)
		_, err = booking.Cancel(booking.UserID, now)
		assert.Nil(t, err)
		assert.Equal(t, types.BOOKING_CANCELLED, booking.Status)
	})

	t.Run("cancel blocked after completion", func(t *testing.T) {
		booking := newRentBooking(now)
		_, err := booking.Approve(admin, "", now)
		assert.Nil(t, err)
		rec := NewPaymentRecord(booking, types.GATEWAY_BKASH, nil)
		applied, err := ApplySettlement(booking, rec, "TRX123", booking.UserID, now)
		assert.Nil(t, err)
		assert.True(t, applied)
		_, err = booking.Cancel(booking.UserID, now)
		var terr *types.InvalidTransitionError
		assert.ErrorAs(t, err, &terr)
	})
}

func TestFullBookingLifecycle(t *testing.T) {
	now := time.Now()
	booking := newRentBooking(now)
	booking.RecordCreated(booking.UserID, now)

	assert.Nil(t, booking.ValidateForCreate(now))
	booking.RecomputeSplit()
	assert.Equal(t, 120.0, booking.Payment.AdminCommission)
	assert.Equal(t, 1080.0, booking.Payment.OwnerAmount)

	admin := uint(7)
	_, err := booking.Approve(admin, "", now)
	assert.Nil(t, err)

	rec := NewPaymentRecord(booking, types.GATEWAY_CARD, nil)
	assert.Equal(t, 120.0, rec.Commission)
	assert.Equal(t, 1080.0, rec.OwnerShare)

	applied, err := ApplySettlement(booking, rec, "pi_abc123", booking.UserID, now)
	assert.Nil(t, err)
	assert.True(t, applied)
	assert.Equal(t, types.BOOKING_COMPLETED, booking.Status)
	assert.Equal(t, types.PAYMENT_COMPLETED, rec.Status)
	assert.True(t, booking.Payment.IsPaid)
	assert.Equal(t, "pi_abc123", booking.Payment.TransactionID)
	assert.Equal(t, "card", booking.Payment.PaymentMethod)
	assert.Len(t, booking.Timeline, 3)

	statuses := ReplayStatuses(booking.Timeline)
	assert.Equal(t, []types.BookingStatus{
		types.BOOKING_PENDING,
		types.BOOKING_CONFIRMED,
		types.BOOKING_COMPLETED,
	}, statuses)
	for i := 1; i < len(statuses); i++ {
		assert.Truef(t, statuses[i-1].CanTransition(statuses[i]), "%s -> %s", statuses[i-1], statuses[i])
	}
}

func TestApplySettlement(t *testing.T) {
	now := time.Now()
	admin := uint(7)

	t.Run("is a no-op when already completed", func(t *testing.T) {
		booking := newRentBooking(now)
		_, err := booking.Approve(admin, "", now)
		assert.Nil(t, err)
		rec := NewPaymentRecord(booking, types.GATEWAY_CARD, nil)

		applied, err := ApplySettlement(booking, rec, "pi_1", booking.UserID, now)
		assert.Nil(t, err)
		assert.True(t, applied)
		entries := len(booking.Timeline)

		applied, err = ApplySettlement(booking, rec, "pi_1", booking.UserID, now)
		assert.Nil(t, err)
		assert.False(t, applied)
		assert.Len(t, booking.Timeline, entries)
		assert.Equal(t, types.BOOKING_COMPLETED, booking.Status)
	})

	t.Run("refuses a failed record", func(t *testing.T) {
		booking := newRentBooking(now)
		_, err := booking.Approve(admin, "", now)
		assert.Nil(t, err)
		rec := NewPaymentRecord(booking, types.GATEWAY_BKASH, nil)
		assert.Nil(t, rec.MarkFailed(now))

		applied, err := ApplySettlement(booking, rec, "TRX1", booking.UserID, now)
		assert.NotNil(t, err)
		assert.False(t, applied)
		assert.Equal(t, types.BOOKING_CONFIRMED, booking.Status)
	})

	t.Run("requires a confirmed booking", func(t *testing.T) {
		booking := newRentBooking(now)
		rec := NewPaymentRecord(booking, types.GATEWAY_BKASH, nil)
		applied, err := ApplySettlement(booking, rec, "TRX1", booking.UserID, now)
		assert.ErrorIs(t, err, types.ErrBookingNotReady)
		assert.False(t, applied)
		assert.Equal(t, types.PAYMENT_PENDING, rec.Status)
	})

	t.Run("leaves booking untouched on failure", func(t *testing.T) {
		booking := newRentBooking(now)
		_, err := booking.Approve(admin, "", now)
		assert.Nil(t, err)
		rec := NewPaymentRecord(booking, types.GATEWAY_BKASH, nil)
		assert.Nil(t, rec.MarkFailed(now))
		assert.Equal(t, types.BOOKING_CONFIRMED, booking.Status)
		assert.False(t, booking.Payment.IsPaid)
		assert.Error(t, rec.MarkFailed(now))
	})
}
