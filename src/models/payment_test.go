package models

import (
	"math"
	"tenanthub/src/types"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSplitAmount(t *testing.T) {
	cases := []struct {
		amount     float64
		percentage float64
		commission float64
		ownerShare float64
	}{
		{1200, 10, 120, 1080},
		{1000, 0, 0, 1000},
		{1000, 100, 1000, 0},
		{999.99, 10, 99.99, 900},
		{0.01, 50, 0, 0.01},
		{100, 33.33, 33.33, 66.67},
		{0, 10, 0, 0},
		{55.55, 7.5, 4.16, 51.39},
	}
	for _, c := range cases {
		commission, ownerShare := SplitAmount(c.amount, c.percentage)
		assert.Equalf(t, c.commission, commission, "commission of %.2f at %.2f%%", c.amount, c.percentage)
		assert.Equalf(t, c.ownerShare, ownerShare, "owner share of %.2f at %.2f%%", c.amount, c.percentage)
		sumCents := int64(math.Round((commission + ownerShare) * 100))
		assert.Equalf(t, int64(math.Round(c.amount*100)), sumCents, "split of %.2f at %.2f%% must sum back", c.amount, c.percentage)
	}
}

func TestNewPaymentRecord(t *testing.T) {
	now := time.Now()
	booking := newRentBooking(now)
	payer := "01712345678"

	rec := NewPaymentRecord(booking, types.GATEWAY_BKASH, &payer)
	assert.Equal(t, booking.ID, rec.BookingID)
	assert.Equal(t, types.PAYMENT_PENDING, rec.Status)
	assert.Equal(t, booking.Payment.AdvanceAmount, rec.Amount)
	assert.Equal(t, rec.Amount, rec.Commission+rec.OwnerShare)
	assert.Equal(t, payer, *rec.PayerNumber)
}

func TestPaymentStatusTerminal(t *testing.T) {
	assert.False(t, types.PAYMENT_PENDING.Terminal())
	assert.True(t, types.PAYMENT_COMPLETED.Terminal())
	assert.True(t, types.PAYMENT_FAILED.Terminal())
	assert.True(t, types.PAYMENT_EXPIRED.Terminal())
}

func TestHasPendingPayment(t *testing.T) {
	records := []PaymentRecord{
		{Status: types.PAYMENT_FAILED},
		{Status: types.PAYMENT_EXPIRED},
	}
	assert.False(t, HasPendingPayment(records))

	records = append(records, PaymentRecord{Status: types.PAYMENT_PENDING})
	assert.True(t, HasPendingPayment(records))
}
