package utils

import (
	"apms/src/config"
	"apms/src/db"
	"apms/src/lib"
	"apms/src/models"
	"apms/src/types"
	"errors"
	"fmt"
	"hash/fnv"
	"log"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrReservationConflict = errors.New("Bu zaman diliminde başka bir rezervasyon bulunmaktadır")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrInvalidStatusChange = errors.New("invalid status change")
	ErrInvalidTimeRange    = errors.New("start_time must be before end_time")
)

var jwtKey = []byte(os.Getenv("JWT_SECRET"))

func GenerateJWT(email string, userId uint, role string, apartmentNo string) (string, error) {
	exp := time.Now().Add(24 * time.Hour)
	claims := &types.Claims{
		Username:    email,
		Role:        role,
		ApartmentNo: apartmentNo,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(userId),
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtKey)
}

// CanTransition enforces the reservation lifecycle:
// PENDING -> APPROVED | REJECTED | CANCELLED, APPROVED -> CANCELLED,
// REJECTED and CANCELLED are terminal.
func CanTransition(from, to types.ReservationStatus) bool {
	if from == to {
		return true
	}
	switch from {
	case types.RESERVATION_PENDING:
		return to == types.RESERVATION_APPROVED ||
			to == types.RESERVATION_REJECTED ||
			to == types.RESERVATION_CANCELLED
	case types.RESERVATION_APPROVED:
		return to == types.RESERVATION_CANCELLED
	default:
		return false
	}
}

// SlotTaken reports whether [start, end) intersects any reservation in the
// list. Intervals are half-open so back-to-back bookings never collide.
// CANCELLED and REJECTED rows never block a slot.
func SlotTaken(existing []models.Reservation, start, end time.Time, excludeID uint) bool {
	for _, r := range existing {
		if r.ID == excludeID {
			continue
		}
		if r.Status == types.RESERVATION_CANCELLED || r.Status == types.RESERVATION_REJECTED {
			continue
		}
		if r.StartTime.Before(end) && r.EndTime.After(start) {
			return true
		}
	}
	return false
}

// facilityLockID maps a facility to a stable advisory lock key so that
// concurrent bookings for the same facility serialize on the database.
func facilityLockID(facility types.Facility) int64 {
	h := fnv.New64a()
	h.Write([]byte("reservations:"))
	h.Write([]byte(facility))
	return int64(h.Sum64())
}

func CreateReservation(params *types.CreateReservationRequestBody) (*models.Reservation, error) {
	startTime, err := time.Parse(config.TIME_PARSE_FORMAT, params.StartTime)
	if err != nil {
		log.Printf("Error parsing start_time: %s\n", err.Error())
		return nil, err
	}
	endTime, err := time.Parse(config.TIME_PARSE_FORMAT, params.EndTime)
	if err != nil {
		log.Printf("Error parsing end_time: %s\n", err.Error())
		return nil, err
	}
	if !startTime.Before(endTime) {
		return nil, ErrInvalidTimeRange
	}

	reservation := models.Reservation{
		ApartmentNo:    params.ApartmentNo,
		Facility:       params.Facility,
		StartTime:      startTime,
		EndTime:        endTime,
		Status:         types.RESERVATION_PENDING,
		Description:    params.Description,
		NumberOfPeople: params.NumberOfPeople,
	}

	db := db.GetDb()
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", facilityLockID(params.Facility)).Error; err != nil {
			return err
		}
		var existing []models.Reservation
		if err := tx.
			Model(&models.Reservation{}).
			Where(&models.Reservation{Facility: params.Facility}).
			Where("status NOT IN (?)", []types.ReservationStatus{
				types.RESERVATION_CANCELLED,
				types.RESERVATION_REJECTED,
			}).
			Where("start_time < ? AND end_time > ?", endTime, startTime).
			Find(&existing).
			Error; err != nil {
			return err
		}
		if SlotTaken(existing, startTime, endTime, 0) {
			return ErrReservationConflict
		}
		if err := tx.Create(&reservation).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

func UpdateReservation(id uint, params *types.UpdateReservationRequestBody) (*models.Reservation, error) {
	var reservation models.Reservation
	db := db.GetDb()
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Model(&models.Reservation{}).
			Where(&models.Reservation{ID: id}).
			First(&reservation).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReservationNotFound
			}
			return err
		}

		// CANCELLED and REJECTED rows accept no further changes, with or
		// without a status in the request
		if reservation.Status == types.RESERVATION_CANCELLED ||
			reservation.Status == types.RESERVATION_REJECTED {
			return ErrInvalidStatusChange
		}

		updates := models.Reservation{}
		if params.Status != nil {
			if !CanTransition(reservation.Status, *params.Status) {
				return ErrInvalidStatusChange
			}
			updates.Status = *params.Status
		}
		if params.Description != nil {
			updates.Description = *params.Description
		}
		if params.NumberOfPeople != nil {
			updates.NumberOfPeople = *params.NumberOfPeople
		}

		startTime := reservation.StartTime
		endTime := reservation.EndTime
		timingChanged := false
		if params.StartTime != nil {
			t, err := time.Parse(config.TIME_PARSE_FORMAT, *params.StartTime)
			if err != nil {
				return err
			}
			startTime = t
			timingChanged = true
		}
		if params.EndTime != nil {
			t, err := time.Parse(config.TIME_PARSE_FORMAT, *params.EndTime)
			if err != nil {
				return err
			}
			endTime = t
			timingChanged = true
		}

		if timingChanged {
			if !startTime.Before(endTime) {
				return ErrInvalidTimeRange
			}
			if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", facilityLockID(reservation.Facility)).Error; err != nil {
				return err
			}
			var existing []models.Reservation
			if err := tx.
				Model(&models.Reservation{}).
				Where(&models.Reservation{Facility: reservation.Facility}).
				Where("id <> ?", id).
				Where("status NOT IN (?)", []types.ReservationStatus{
					types.RESERVATION_CANCELLED,
					types.RESERVATION_REJECTED,
				}).
				Where("start_time < ? AND end_time > ?", endTime, startTime).
				Find(&existing).
				Error; err != nil {
				return err
			}
			if SlotTaken(existing, startTime, endTime, id) {
				return ErrReservationConflict
			}
			updates.StartTime = startTime
			updates.EndTime = endTime
		}

		if err := tx.
			Model(&models.Reservation{}).
			Where(&models.Reservation{ID: id}).
			Updates(&updates).
			Error; err != nil {
			return err
		}
		if err := tx.
			Model(&models.Reservation{}).
			Where(&models.Reservation{ID: id}).
			First(&reservation).
			Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

func GetReservation(id uint) (*models.Reservation, error) {
	db := db.GetDb()
	var reservation models.Reservation
	if err := db.
		Model(&models.Reservation{}).
		Where(&models.Reservation{ID: id}).
		First(&reservation).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	return &reservation, nil
}

func ListReservations(filters *types.ReservationsQueryFilters) ([]models.Reservation, error) {
	db := db.GetDb()
	q := db.Model(&models.Reservation{})
	if filters.Facility != "" {
		q = q.Where("facility = ?", filters.Facility)
	}
	if filters.Status != "" {
		q = q.Where("status = ?", filters.Status)
	}
	if filters.ApartmentNo != "" {
		q = q.Where("apartment_no = ?", filters.ApartmentNo)
	}
	if filters.StartDate != "" {
		startDate, err := parseDateOrTime(filters.StartDate)
		if err != nil {
			return nil, err
		}
		q = q.Where("start_time >= ?", startDate)
	}
	if filters.EndDate != "" {
		endDate, err := parseDateOrTime(filters.EndDate)
		if err != nil {
			return nil, err
		}
		q = q.Where("start_time <= ?", endDate)
	}
	var reservations []models.Reservation
	if err := q.Order("start_time asc").Find(&reservations).Error; err != nil {
		return nil, err
	}
	return reservations, nil
}

func DeleteReservation(id uint) error {
	db := db.GetDb()
	res := db.Unscoped().Delete(&models.Reservation{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrReservationNotFound
	}
	return nil
}

func parseDateOrTime(value string) (time.Time, error) {
	if len(value) == len(config.DATE_PARSE_FORMAT) && !strings.Contains(value, "T") {
		return time.Parse(config.DATE_PARSE_FORMAT, value)
	}
	return time.Parse(config.TIME_PARSE_FORMAT, value)
}

func NewReceiptNo() string {
	return fmt.Sprintf("RCPT-%s", strings.ToUpper(uuid.NewString()[:8]))
}

// MarkOverduePayments flips PENDING payments past their due date to OVERDUE.
// Runs from the daily cron job registered in boot.InitScheduler.
func MarkOverduePayments() {
	db := db.GetDb()
	err := db.Transaction(func(tx *gorm.DB) error {
		res := tx.
			Model(&models.Payment{}).
			Where("status = ?", types.PAYMENT_PENDING).
			Where("due_date < ?", time.Now()).
			Update("status", types.PAYMENT_OVERDUE)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			log.Printf("Marked %d payments as overdue\n", res.RowsAffected)
		}
		return nil
	})
	if err != nil {
		log.Printf("Error while processing overdue payments: %s\n", err.Error())
	}
}

// SendPaymentReminders mails every resident with an OVERDUE payment.
func SendPaymentReminders() {
	db := db.GetDb()
	var payments []models.Payment
	if err := db.
		Model(&models.Payment{}).
		Where("status = ?", types.PAYMENT_OVERDUE).
		Order("due_date asc").
		Limit(500).
		Find(&payments).
		Error; err != nil {
		log.Printf("Error retrieving overdue payments: %s\n", err.Error())
		return
	}
	if len(payments) == 0 {
		return
	}

	byApartment := map[string][]models.Payment{}
	for _, p := range payments {
		byApartment[p.ApartmentNo] = append(byApartment[p.ApartmentNo], p)
	}
	from := os.Getenv("MAIL_FROM")
	for apartmentNo, due := range byApartment {
		var user models.User
		if err := db.
			Model(&models.User{}).
			Where(&models.User{ApartmentNo: apartmentNo}).
			First(&user).
			Error; err != nil {
			log.Printf("No resident found for apartment %s: %s\n", apartmentNo, err.Error())
			continue
		}
		var total float64
		for _, p := range due {
			total += p.Amount
		}
		body := fmt.Sprintf("Dear %s,\n\nApartment %s has %d overdue dues payment(s) totaling %.2f. Please settle them at your earliest convenience.\n", user.Name, apartmentNo, len(due), total)
		if err := lib.SendMail(&lib.SendMailInput{
			From:     from,
			FromName: "Site Management",
			To:       []string{user.Email},
			Subject:  "Overdue dues reminder",
			Body:     body,
		}); err != nil {
			log.Printf("Error sending reminder to %s: %s\n", user.Email, err.Error())
		}
	}
}
