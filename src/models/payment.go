package models

import (
	"apms/src/types"
	"time"
)

type Payment struct {
	ID            uint                 `gorm:"primarykey" json:"id"`
	ApartmentNo   string               `gorm:"index" json:"apartment_no"`
	Block         string               `json:"block,omitempty"`
	Amount        float64              `json:"amount"`
	DueDate       time.Time            `json:"due_date"`
	Status        types.PaymentStatus  `gorm:"default:'PENDING'" json:"status,omitempty"`
	PaymentDate   *time.Time           `json:"payment_date,omitempty"`
	PaymentMethod *types.PaymentMethod `json:"payment_method,omitempty"`
	ReceiptNo     string               `json:"receipt_no,omitempty"`
	Description   string               `json:"description,omitempty"`

	types.Timestamps
}
