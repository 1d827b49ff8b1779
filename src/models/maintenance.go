package models

import (
	"apms/src/types"
	"time"
)

type Maintenance struct {
	ID            uint                      `gorm:"primarykey" json:"id"`
	ApartmentNo   string                    `gorm:"index" json:"apartment_no"`
	Block         string                    `json:"block,omitempty"`
	Title         string                    `json:"title"`
	Description   string                    `json:"description"`
	Status        types.MaintenanceStatus   `gorm:"default:'PENDING'" json:"status,omitempty"`
	Priority      types.Priority            `gorm:"default:'MEDIUM'" json:"priority,omitempty"`
	Category      types.MaintenanceCategory `json:"category"`
	AssignedTo    string                    `json:"assigned_to,omitempty"`
	EstimatedCost *float64                  `json:"estimated_cost,omitempty"`
	ActualCost    *float64                  `json:"actual_cost,omitempty"`
	StartDate     *time.Time                `json:"start_date,omitempty"`
	CompletionDate *time.Time               `json:"completion_date,omitempty"`
	Notes         types.JSONBArray          `gorm:"type:jsonb" json:"notes,omitempty"`

	types.Timestamps
}
