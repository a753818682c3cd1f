package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type JSONB map[string]any

func (a JSONB) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONB) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

type BookingType string

const (
	BOOKING_TYPE_VISIT BookingType = "visit"
	BOOKING_TYPE_RENT  BookingType = "rent"
)

type BookingStatus string

const (
	BOOKING_PENDING   BookingStatus = "pending"
	BOOKING_CONFIRMED BookingStatus = "confirmed"
	BOOKING_REJECTED  BookingStatus = "rejected"
	BOOKING_COMPLETED BookingStatus = "completed"
	BOOKING_CANCELLED BookingStatus = "cancelled"
)

// bookingTransitions is the full transition graph. rejected, completed and
// cancelled are terminal.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BOOKING_PENDING:   {BOOKING_CONFIRMED, BOOKING_REJECTED, BOOKING_CANCELLED},
	BOOKING_CONFIRMED: {BOOKING_COMPLETED, BOOKING_CANCELLED},
}

func (s BookingStatus) CanTransition(to BookingStatus) bool {
	for _, next := range bookingTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

type VisitTimeSlot string

const (
	SLOT_MORNING   VisitTimeSlot = "morning"
	SLOT_AFTERNOON VisitTimeSlot = "afternoon"
	SLOT_EVENING   VisitTimeSlot = "evening"
)

type PaymentStatus string

const (
	PAYMENT_PENDING   PaymentStatus = "pending"
	PAYMENT_COMPLETED PaymentStatus = "completed"
	PAYMENT_FAILED    PaymentStatus = "failed"
	PAYMENT_EXPIRED   PaymentStatus = "expired"
)

// Terminal reports whether the record can never change again. Only pending
// records count against the one-pending-payment-per-booking limit.
func (s PaymentStatus) Terminal() bool {
	return s != PAYMENT_PENDING
}

type PaymentGateway string

const (
	GATEWAY_CARD  PaymentGateway = "card"
	GATEWAY_BKASH PaymentGateway = "bkash"
)

type UserRole string

const (
	ROLE_USER  UserRole = "user"
	ROLE_OWNER UserRole = "owner"
	ROLE_ADMIN UserRole = "admin"
)

type NotificationKind string

const (
	NOTIFY_BOOKING_CREATED   NotificationKind = "BookingCreated"
	NOTIFY_BOOKING_CONFIRMED NotificationKind = "BookingConfirmed"
	NOTIFY_BOOKING_REJECTED  NotificationKind = "BookingRejected"
	NOTIFY_PAYMENT_RECEIVED  NotificationKind = "PaymentReceived"
)

type CreateBookingRequestBody struct {
	PropertyID           uint    `json:"property" binding:"required"`
	BookingType          string  `json:"booking_type" binding:"required,oneof=visit rent"`
	VisitDate            *string `json:"visit_date,omitempty" binding:"omitempty,futuredate"`
	VisitTimeSlot        *string `json:"visit_time_slot,omitempty" binding:"omitempty,oneof=morning afternoon evening"`
	RentalStart          *string `json:"rental_start,omitempty"`
	DurationMonths       uint    `json:"duration_months,omitempty"`
	AdvanceAmount        float64 `json:"advance_amount" binding:"required,gte=0"`
	CommissionPercentage float64 `json:"commission_percentage" binding:"gte=0,lte=100"`
}

type AdminDecisionRequestBody struct {
	Action string `json:"action" binding:"required,oneof=approve reject"`
	Notes  string `json:"notes,omitempty"`
}

type InitiatePaymentRequestBody struct {
	BookingID   uint   `json:"booking" binding:"required"`
	Gateway     string `json:"gateway" binding:"required,oneof=card bkash"`
	PayerNumber string `json:"payer_number,omitempty"`
}

type RegisterUserRequestBody struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role,omitempty" binding:"omitempty,oneof=user owner admin"`
}

type LoginRequestBody struct {
	Email string `json:"email" binding:"required,email"`
}

type CreatePropertyRequestBody struct {
	Title       string  `json:"title" binding:"required"`
	Location    string  `json:"location,omitempty"`
	MonthlyRent float64 `json:"monthly_rent,omitempty" binding:"omitempty,gte=0"`
	Available   *bool   `json:"available,omitempty"`
}

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}

type PaymentRequestParams struct {
	ID string `uri:"id" binding:"required,uuid"`
}
