package main

import (
	"apms/src/db"
	"apms/src/models"
	"apms/src/types"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type paymentTotalsRow struct {
	Status types.PaymentStatus
	Total  float64
}

// residentHandlers backs the mobile app's dashboard fetch. The client caches
// this payload wholesale for offline use.
func residentHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/resident/dashboard", func(ctx *gin.Context) {
			apartmentNo := ctx.GetString("apartment_no")
			if apartmentNo == "" {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "no apartment linked to this account"})
				return
			}
			db := db.GetDb()

			var totals []paymentTotalsRow
			if err := db.
				Model(&models.Payment{}).
				Select("status, sum(amount) as total").
				Where("apartment_no = ?", apartmentNo).
				Group("status").
				Scan(&totals).
				Error; err != nil {
				log.Printf("Error aggregating payments for %s: %s\n", apartmentNo, err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			paymentStats := gin.H{"paid": 0.0, "pending": 0.0, "overdue": 0.0, "total_due": 0.0}
			for _, row := range totals {
				switch row.Status {
				case types.PAYMENT_PAID:
					paymentStats["paid"] = row.Total
				case types.PAYMENT_PENDING:
					paymentStats["pending"] = row.Total
				case types.PAYMENT_OVERDUE:
					paymentStats["overdue"] = row.Total
				}
			}
			paymentStats["total_due"] = paymentStats["pending"].(float64) + paymentStats["overdue"].(float64)

			var payments []models.Payment
			if err := db.
				Model(&models.Payment{}).
				Where("apartment_no = ?", apartmentNo).
				Order("due_date desc").
				Limit(50).
				Find(&payments).
				Error; err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			var recentMaintenance []models.Maintenance
			if err := db.
				Model(&models.Maintenance{}).
				Where("apartment_no = ?", apartmentNo).
				Order("created_at desc").
				Limit(5).
				Find(&recentMaintenance).
				Error; err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			var upcomingReservations []models.Reservation
			if err := db.
				Model(&models.Reservation{}).
				Where("apartment_no = ?", apartmentNo).
				Where("start_time >= ?", time.Now()).
				Order("start_time asc").
				Limit(5).
				Find(&upcomingReservations).
				Error; err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			announcements, err := activeAnnouncements()
			if err != nil {
				log.Printf("Error retrieving announcements: %s\n", err.Error())
				announcements = []models.Announcement{}
			}

			ctx.JSON(http.StatusOK, gin.H{
				"payments":      gin.H{"stats": paymentStats, "items": payments},
				"maintenance":   gin.H{"recent": recentMaintenance},
				"reservations":  gin.H{"upcoming": upcomingReservations},
				"announcements": announcements,
			})
		})
	return g
}
