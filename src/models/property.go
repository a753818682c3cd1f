package models

import "tenanthub/src/types"

// Property is the minimal catalog row the engine needs: ownership and
// availability. Full catalog CRUD lives elsewhere.
type Property struct {
	ID          uint    `gorm:"primarykey" json:"id"`
	Title       string  `json:"title,omitempty"`
	Location    string  `json:"location,omitempty"`
	MonthlyRent float64 `json:"monthly_rent,omitempty"`
	IsAvailable bool    `gorm:"default:true" json:"is_available"`
	OwnerID     uint    `json:"owner_id,omitempty"`

	Owner *User `gorm:"foreignKey:owner_id" json:"owner,omitempty"`

	types.Timestamps
}
