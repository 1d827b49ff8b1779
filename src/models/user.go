package models

import "apms/src/types"

type User struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	Email       string         `gorm:"uniqueIndex" json:"email"`
	Name        string         `json:"name"`
	Image       string         `json:"image,omitempty"`
	Role        types.UserRole `gorm:"default:'RESIDENT'" json:"role,omitempty"`
	ApartmentNo string         `json:"apartment_no,omitempty"`
	Block       string         `json:"block,omitempty"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`

	types.Timestamps
}
