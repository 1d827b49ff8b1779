package models

import (
	"apms/src/types"
	"time"
)

type Announcement struct {
	ID       uint                       `gorm:"primarykey" json:"id"`
	Title    string                     `json:"title"`
	Slug     string                     `gorm:"index" json:"slug,omitempty"`
	Content  string                     `json:"content"`
	Category types.AnnouncementCategory `gorm:"default:'GENERAL'" json:"category,omitempty"`
	Priority types.Priority             `gorm:"default:'MEDIUM'" json:"priority,omitempty"`
	StartDate time.Time                 `json:"start_date,omitempty"`
	EndDate  *time.Time                 `json:"end_date,omitempty"`
	IsActive bool                       `gorm:"default:true" json:"is_active"`

	types.Timestamps
}
