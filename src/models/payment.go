package models

import (
	"fmt"
	"math"
	"tenanthub/src/types"
	"time"

	"github.com/google/uuid"
)

// PaymentRecord is one settlement attempt against exactly one booking. The
// partial unique index keeps a second pending record from ever being created
// for the same booking, even under concurrent initiations.
type PaymentRecord struct {
	ID        uuid.UUID `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`
	BookingID uint      `gorm:"index:idx_payment_records_pending,unique,where:status = 'pending'" json:"booking_id"`

	Gateway    types.PaymentGateway `json:"gateway"`
	Amount     float64              `json:"amount"`
	Commission float64              `json:"commission"`
	OwnerShare float64              `json:"owner_share"`

	PayerNumber *string             `json:"payer_number,omitempty"`
	ExternalID  string              `json:"external_id,omitempty"`
	Status      types.PaymentStatus `gorm:"default:'pending'" json:"status"`
	PaymentDate *time.Time          `json:"payment_date,omitempty"`

	// ClientSecret is handed back to card-rail callers once and never stored.
	ClientSecret *string `gorm:"-" json:"client_secret,omitempty"`

	Booking *Booking `gorm:"foreignKey:booking_id" json:"-"`

	types.Timestamps
}

// SplitAmount computes the commission split. The commission is truncated to
// two decimal places and the owner share is the exact remainder, so the two
// always sum to amount with no rounding leakage.
func SplitAmount(amount, percentage float64) (commission, ownerShare float64) {
	amountCents := int64(math.Round(amount * 100))
	basisPoints := int64(math.Round(percentage * 100))
	commissionCents := amountCents * basisPoints / 10000
	return float64(commissionCents) / 100, float64(amountCents-commissionCents) / 100
}

// NewPaymentRecord creates a pending record for a confirmed booking with the
// split computed at the moment the amount is known.
func NewPaymentRecord(b *Booking, gateway types.PaymentGateway, payerNumber *string) *PaymentRecord {
	commission, ownerShare := SplitAmount(b.Payment.AdvanceAmount, b.Payment.CommissionPercentage)
	return &PaymentRecord{
		ID:          uuid.New(),
		BookingID:   b.ID,
		Gateway:     gateway,
		Amount:      b.Payment.AdvanceAmount,
		Commission:  commission,
		OwnerShare:  ownerShare,
		PayerNumber: payerNumber,
		Status:      types.PAYMENT_PENDING,
	}
}

// ApplySettlement marks the record completed and moves the booking to
// completed with its payment sub-record filled in, as one in-memory unit. The
// caller persists both inside a single transaction. Applying a settlement to
// an already completed record is a no-op so duplicated webhooks cannot
// double-credit; applied reports whether anything changed.
func ApplySettlement(b *Booking, rec *PaymentRecord, externalTrxID string, actorID uint, now time.Time) (applied bool, err error) {
	if rec.Status == types.PAYMENT_COMPLETED {
		return false, nil
	}
	if rec.Status.Terminal() {
		return false, fmt.Errorf("payment record [%s] is %s and cannot complete", rec.ID, rec.Status)
	}
	if b.Status != types.BOOKING_CONFIRMED {
		return false, types.ErrBookingNotReady
	}
	if err := b.transition(types.BOOKING_COMPLETED); err != nil {
		return false, err
	}
	rec.Status = types.PAYMENT_COMPLETED
	if externalTrxID != "" {
		rec.ExternalID = externalTrxID
	}
	rec.PaymentDate = &now

	b.Payment.AdminCommission = rec.Commission
	b.Payment.OwnerAmount = rec.OwnerShare
	b.Payment.IsPaid = true
	b.Payment.PaymentMethod = string(rec.Gateway)
	b.Payment.TransactionID = rec.ExternalID
	b.Payment.PaymentDate = &now
	b.appendTimeline(ActionPaymentProcessed, actorID, "", now)
	return true, nil
}

// MarkFailed records a gateway failure. The booking is deliberately left
// untouched so settlement can be retried with a fresh record.
func (r *PaymentRecord) MarkFailed(now time.Time) error {
	if r.Status.Terminal() {
		return fmt.Errorf("payment record [%s] is already %s", r.ID, r.Status)
	}
	r.Status = types.PAYMENT_FAILED
	r.PaymentDate = &now
	return nil
}

// HasPendingPayment reports whether any record in the slice still counts
// against the one-pending-payment-per-booking limit.
func HasPendingPayment(records []PaymentRecord) bool {
	for _, r := range records {
		if !r.Status.Terminal() {
			return true
		}
	}
	return false
}
