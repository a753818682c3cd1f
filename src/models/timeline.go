package models

import (
	"tenanthub/src/types"
	"time"

	"github.com/google/uuid"
)

// Timeline actions. One entry is appended for every accepted transition, in
// the same database transaction as the status write.
const (
	ActionCreated          = "created booking"
	ActionApproved         = "approved booking"
	ActionRejected         = "rejected booking"
	ActionCancelled        = "cancelled booking"
	ActionPaymentProcessed = "processed payment"
)

// TimelineEntry is an append-only audit row. Entries are never updated,
// deleted or reordered.
type TimelineEntry struct {
	ID          uuid.UUID `gorm:"primarykey;type:uuid" json:"id"`
	BookingID   uint      `gorm:"index" json:"booking_id"`
	Action      string    `json:"action"`
	PerformedBy uint      `json:"performed_by"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewTimelineEntry(bookingID uint, action string, actorID uint, notes string, now time.Time) TimelineEntry {
	return TimelineEntry{
		ID:          uuid.New(),
		BookingID:   bookingID,
		Action:      action,
		PerformedBy: actorID,
		Notes:       notes,
		CreatedAt:   now,
	}
}

var actionStatus = map[string]types.BookingStatus{
	ActionCreated:          types.BOOKING_PENDING,
	ActionApproved:         types.BOOKING_CONFIRMED,
	ActionRejected:         types.BOOKING_REJECTED,
	ActionCancelled:        types.BOOKING_CANCELLED,
	ActionPaymentProcessed: types.BOOKING_COMPLETED,
}

// ReplayStatuses reconstructs the sequence of statuses a booking passed
// through from its timeline, in order.
func ReplayStatuses(entries []TimelineEntry) []types.BookingStatus {
	statuses := make([]types.BookingStatus, 0, len(entries))
	for _, e := range entries {
		if s, ok := actionStatus[e.Action]; ok {
			statuses = append(statuses, s)
		}
	}
	return statuses
}
