package main

import (
	"apms/src/db"
	"apms/src/models"
	"apms/src/types"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type monthlyReport struct {
	Month            string           `json:"month"`
	DuesIncome       float64          `json:"dues_income"`
	MaintenanceStats map[string]int64 `json:"maintenance_stats"`
	MaintenanceByCat []categoryCount  `json:"maintenance_by_category"`
	ReservationStats map[string]int64 `json:"reservation_stats"`
}

type categoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

func reportHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/reports", func(ctx *gin.Context) {
			var query struct {
				Months int `form:"months" binding:"omitempty,min=1,max=24"`
			}
			if err := ctx.ShouldBindQuery(&query); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			months := query.Months
			if months == 0 {
				months = 12
			}

			db := db.GetDb()
			now := time.Now()
			reports := make([]monthlyReport, 0, months)
			for i := 0; i < months; i++ {
				monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -i, 0)
				monthEnd := monthStart.AddDate(0, 1, 0)

				var income float64
				if err := db.
					Model(&models.Payment{}).
					Select("coalesce(sum(amount), 0)").
					Where("status = ?", types.PAYMENT_PAID).
					Where("payment_date >= ? AND payment_date < ?", monthStart, monthEnd).
					Scan(&income).
					Error; err != nil {
					ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				}

				maintenanceStats := map[string]int64{}
				for _, status := range []types.MaintenanceStatus{
					types.MAINTENANCE_PENDING,
					types.MAINTENANCE_IN_PROGRESS,
					types.MAINTENANCE_COMPLETED,
				} {
					var count int64
					if err := db.
						Model(&models.Maintenance{}).
						Where("status = ?", status).
						Where("created_at >= ? AND created_at < ?", monthStart, monthEnd).
						Count(&count).
						Error; err != nil {
						ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
						return
					}
					maintenanceStats[string(status)] = count
				}

				var byCategory []categoryCount
				if err := db.
					Model(&models.Maintenance{}).
					Select("category, count(*) as count").
					Where("created_at >= ? AND created_at < ?", monthStart, monthEnd).
					Group("category").
					Scan(&byCategory).
					Error; err != nil {
					ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				}

				reservationStats := map[string]int64{}
				for _, status := range []types.ReservationStatus{
					types.RESERVATION_PENDING,
					types.RESERVATION_APPROVED,
					types.RESERVATION_REJECTED,
				} {
					var count int64
					if err := db.
						Model(&models.Reservation{}).
						Where("status = ?", status).
						Where("created_at >= ? AND created_at < ?", monthStart, monthEnd).
						Count(&count).
						Error; err != nil {
						ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
						return
					}
					reservationStats[string(status)] = count
				}

				reports = append(reports, monthlyReport{
					Month:            monthStart.Format("2006-01"),
					DuesIncome:       income,
					MaintenanceStats: maintenanceStats,
					MaintenanceByCat: byCategory,
					ReservationStats: reservationStats,
				})
			}

			ctx.JSON(http.StatusOK, gin.H{"data": reports, "count": len(reports)})
		})
	return g
}
