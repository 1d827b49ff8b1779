package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

// JSONBArray backs the free-form note lists stored as jsonb columns.
type JSONBArray []any

func (a JSONBArray) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONBArray) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

type Facility string

const (
	FACILITY_POOL         Facility = "POOL"
	FACILITY_GYM          Facility = "GYM"
	FACILITY_MEETING_ROOM Facility = "MEETING_ROOM"
	FACILITY_PARTY_ROOM   Facility = "PARTY_ROOM"
	FACILITY_PARKING      Facility = "PARKING"
)

type ReservationStatus string

const (
	RESERVATION_PENDING   ReservationStatus = "PENDING"
	RESERVATION_APPROVED  ReservationStatus = "APPROVED"
	RESERVATION_REJECTED  ReservationStatus = "REJECTED"
	RESERVATION_CANCELLED ReservationStatus = "CANCELLED"
)

type PaymentStatus string

const (
	PAYMENT_PENDING PaymentStatus = "PENDING"
	PAYMENT_PAID    PaymentStatus = "PAID"
	PAYMENT_OVERDUE PaymentStatus = "OVERDUE"
)

type PaymentMethod string

const (
	PAYMENT_METHOD_CASH          PaymentMethod = "CASH"
	PAYMENT_METHOD_BANK_TRANSFER PaymentMethod = "BANK_TRANSFER"
	PAYMENT_METHOD_CREDIT_CARD   PaymentMethod = "CREDIT_CARD"
)

type MaintenanceStatus string

const (
	MAINTENANCE_PENDING     MaintenanceStatus = "PENDING"
	MAINTENANCE_IN_PROGRESS MaintenanceStatus = "IN_PROGRESS"
	MAINTENANCE_COMPLETED   MaintenanceStatus = "COMPLETED"
	MAINTENANCE_CANCELLED   MaintenanceStatus = "CANCELLED"
)

type Priority string

const (
	PRIORITY_LOW    Priority = "LOW"
	PRIORITY_MEDIUM Priority = "MEDIUM"
	PRIORITY_HIGH   Priority = "HIGH"
	PRIORITY_URGENT Priority = "URGENT"
)

type MaintenanceCategory string

const (
	MAINTENANCE_PLUMBING   MaintenanceCategory = "PLUMBING"
	MAINTENANCE_ELECTRICAL MaintenanceCategory = "ELECTRICAL"
	MAINTENANCE_HVAC       MaintenanceCategory = "HVAC"
	MAINTENANCE_STRUCTURAL MaintenanceCategory = "STRUCTURAL"
	MAINTENANCE_ELEVATOR   MaintenanceCategory = "ELEVATOR"
	MAINTENANCE_OTHER      MaintenanceCategory = "OTHER"
)

type AnnouncementCategory string

const (
	ANNOUNCEMENT_GENERAL     AnnouncementCategory = "GENERAL"
	ANNOUNCEMENT_MAINTENANCE AnnouncementCategory = "MAINTENANCE"
	ANNOUNCEMENT_PAYMENT     AnnouncementCategory = "PAYMENT"
	ANNOUNCEMENT_EVENT       AnnouncementCategory = "EVENT"
	ANNOUNCEMENT_EMERGENCY   AnnouncementCategory = "EMERGENCY"
)

type UserRole string

const (
	ROLE_ADMIN    UserRole = "ADMIN"
	ROLE_MANAGER  UserRole = "MANAGER"
	ROLE_RESIDENT UserRole = "RESIDENT"
)

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}

type CreateReservationRequestBody struct {
	ApartmentNo    string   `json:"apartment_no" binding:"required"`
	Facility       Facility `json:"facility" binding:"required,oneof=POOL GYM MEETING_ROOM PARTY_ROOM PARKING"`
	StartTime      string   `json:"start_time" binding:"required,bookabledate" time_format:"2006-01-02T15:04:05Z07:00"`
	EndTime        string   `json:"end_time" binding:"required,gtdate=StartTime" time_format:"2006-01-02T15:04:05Z07:00"`
	Description    string   `json:"description,omitempty"`
	NumberOfPeople uint     `json:"number_of_people,omitempty"`
}

type UpdateReservationRequestBody struct {
	Status         *ReservationStatus `json:"status,omitempty" binding:"omitempty,oneof=PENDING APPROVED REJECTED CANCELLED"`
	StartTime      *string            `json:"start_time,omitempty" binding:"omitempty" time_format:"2006-01-02T15:04:05Z07:00"`
	EndTime        *string            `json:"end_time,omitempty" binding:"omitempty" time_format:"2006-01-02T15:04:05Z07:00"`
	Description    *string            `json:"description,omitempty"`
	NumberOfPeople *uint              `json:"number_of_people,omitempty"`
}

type ReservationsQueryFilters struct {
	Facility    string `form:"facility" binding:"omitempty,oneof=POOL GYM MEETING_ROOM PARTY_ROOM PARKING"`
	Status      string `form:"status" binding:"omitempty,oneof=PENDING APPROVED REJECTED CANCELLED"`
	ApartmentNo string `form:"apartmentNo"`
	StartDate   string `form:"startDate"`
	EndDate     string `form:"endDate"`
}

type CreatePaymentRequestBody struct {
	ApartmentNo string  `json:"apartment_no" binding:"required"`
	Block       string  `json:"block,omitempty"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	DueDate     string  `json:"due_date" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	Description string  `json:"description,omitempty"`
}

type UpdatePaymentRequestBody struct {
	Amount      *float64       `json:"amount,omitempty" binding:"omitempty,gt=0"`
	DueDate     *string        `json:"due_date,omitempty"`
	Status      *PaymentStatus `json:"status,omitempty" binding:"omitempty,oneof=PENDING PAID OVERDUE"`
	Description *string        `json:"description,omitempty"`
}

type PayPaymentRequestBody struct {
	PaymentMethod PaymentMethod `json:"payment_method" binding:"required,oneof=CASH BANK_TRANSFER CREDIT_CARD"`
	PaymentDate   string        `json:"payment_date,omitempty"`
}

type CreateMaintenanceRequestBody struct {
	ApartmentNo string              `json:"apartment_no" binding:"required"`
	Title       string              `json:"title" binding:"required"`
	Description string              `json:"description" binding:"required"`
	Category    MaintenanceCategory `json:"category" binding:"required,oneof=PLUMBING ELECTRICAL HVAC STRUCTURAL ELEVATOR OTHER"`
	Priority    Priority            `json:"priority,omitempty" binding:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
}

type UpdateMaintenanceRequestBody struct {
	Status      *MaintenanceStatus `json:"status,omitempty" binding:"omitempty,oneof=PENDING IN_PROGRESS COMPLETED CANCELLED"`
	Priority    *Priority          `json:"priority,omitempty" binding:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	AssignedTo  *string            `json:"assigned_to,omitempty"`
	ActualCost  *float64           `json:"actual_cost,omitempty"`
	Description *string            `json:"description,omitempty"`
}

type CreateAnnouncementRequestBody struct {
	Title    string               `json:"title" binding:"required"`
	Content  string               `json:"content" binding:"required"`
	Category AnnouncementCategory `json:"category,omitempty" binding:"omitempty,oneof=GENERAL MAINTENANCE PAYMENT EVENT EMERGENCY"`
	Priority Priority             `json:"priority,omitempty" binding:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	EndDate  *string              `json:"end_date,omitempty"`
}

type RegisterUserRequestBody struct {
	Email       string `json:"email" binding:"required,email"`
	Name        string `json:"name" binding:"required"`
	ApartmentNo string `json:"apartment_no,omitempty"`
	Block       string `json:"block,omitempty"`
}

type LoginRequestBody struct {
	Email string `json:"email" binding:"required,email"`
}

type Claims struct {
	Username    string `json:"username"`
	Role        string `json:"role"`
	ApartmentNo string `json:"apartment_no"`
	jwt.RegisteredClaims
}
