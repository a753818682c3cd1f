package models

import "tenanthub/src/types"

type User struct {
	ID    uint           `gorm:"primarykey" json:"id"`
	Name  string         `json:"name,omitempty"`
	Email string         `gorm:"uniqueIndex" json:"email,omitempty"`
	Phone string         `json:"phone,omitempty"`
	Role  types.UserRole `gorm:"default:'user'" json:"role,omitempty"`

	Bookings   []Booking  `gorm:"foreignKey:user_id" json:"bookings,omitempty"`
	Properties []Property `gorm:"foreignKey:owner_id" json:"properties,omitempty"`

	types.Timestamps
}
