package models

import (
	"tenanthub/src/types"

	"github.com/google/uuid"
)

// Notification is a persisted record of every dispatch attempt. Delivery is
// fire-and-forget; a failed send never rolls back the transition that
// produced it.
type Notification struct {
	ID          uuid.UUID              `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`
	RecipientID uint                   `json:"recipient_id"`
	Kind        types.NotificationKind `json:"kind"`
	Payload     types.JSONB            `gorm:"type:jsonb" json:"payload,omitempty"`
	Delivered   bool                   `json:"delivered"`

	types.Timestamps
}
