package models

import (
	"apms/src/types"
	"time"
)

type Reservation struct {
	ID             uint                    `gorm:"primarykey" json:"id"`
	ApartmentNo    string                  `gorm:"index" json:"apartment_no"`
	Facility       types.Facility          `gorm:"index" json:"facility"`
	StartTime      time.Time               `json:"start_time"`
	EndTime        time.Time               `json:"end_time"`
	Status         types.ReservationStatus `gorm:"default:'PENDING'" json:"status,omitempty"`
	Description    string                  `json:"description,omitempty"`
	NumberOfPeople uint                    `json:"number_of_people,omitempty"`

	types.Timestamps
}
