package main

import (
	"apms/src/db"
	"apms/src/models"
	"apms/src/types"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func maintenanceHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/maintenance", func(ctx *gin.Context) {
			var filters struct {
				Status      string `form:"status" binding:"omitempty,oneof=PENDING IN_PROGRESS COMPLETED CANCELLED"`
				ApartmentNo string `form:"apartmentNo"`
				Priority    string `form:"priority" binding:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
				Category    string `form:"category" binding:"omitempty,oneof=PLUMBING ELECTRICAL HVAC STRUCTURAL ELEVATOR OTHER"`
			}
			if err := ctx.ShouldBindQuery(&filters); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			db := db.GetDb()
			q := db.Model(&models.Maintenance{})
			if filters.Status != "" {
				q = q.Where("status = ?", filters.Status)
			}
			if filters.ApartmentNo != "" {
				q = q.Where("apartment_no = ?", filters.ApartmentNo)
			}
			if filters.Priority != "" {
				q = q.Where("priority = ?", filters.Priority)
			}
			if filters.Category != "" {
				q = q.Where("category = ?", filters.Category)
			}
			var requests []models.Maintenance
			if err := q.Order("created_at desc").Limit(100).Find(&requests).Error; err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": requests, "count": len(requests)})
		}).
		GET("/maintenance/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			db := db.GetDb()
			var request models.Maintenance
			if err := db.
				Model(&models.Maintenance{}).
				Where(&models.Maintenance{ID: params.ID}).
				First(&request).
				Error; err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "maintenance request not found"})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": request})
		}).
		POST("/maintenance", func(ctx *gin.Context) {
			var body types.CreateMaintenanceRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			priority := body.Priority
			if priority == "" {
				priority = types.PRIORITY_MEDIUM
			}
			request := models.Maintenance{
				ApartmentNo: body.ApartmentNo,
				Block:       ctx.GetString("block"),
				Title:       body.Title,
				Description: body.Description,
				Status:      types.MAINTENANCE_PENDING,
				Priority:    priority,
				Category:    body.Category,
			}
			db := db.GetDb()
			if err := db.Create(&request).Error; err != nil {
				log.Printf("error creating maintenance request: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": request})
		}).
		PUT("/maintenance/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body types.UpdateMaintenanceRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			db := db.GetDb()
			var request models.Maintenance
			err := db.Transaction(func(tx *gorm.DB) error {
				if err := tx.
					Model(&models.Maintenance{}).
					Where(&models.Maintenance{ID: params.ID}).
					First(&request).
					Error; err != nil {
					return err
				}
				updates := models.Maintenance{}
				if body.Status != nil {
					if request.Status == types.MAINTENANCE_CANCELLED ||
						request.Status == types.MAINTENANCE_COMPLETED {
						return errors.New("request is already closed")
					}
					updates.Status = *body.Status
					if *body.Status == types.MAINTENANCE_IN_PROGRESS && request.StartDate == nil {
						now := time.Now()
						updates.StartDate = &now
					}
					if *body.Status == types.MAINTENANCE_COMPLETED {
						now := time.Now()
						updates.CompletionDate = &now
					}
				}
				if body.Priority != nil {
					updates.Priority = *body.Priority
				}
				if body.AssignedTo != nil {
					updates.AssignedTo = *body.AssignedTo
				}
				if body.ActualCost != nil {
					updates.ActualCost = body.ActualCost
				}
				if body.Description != nil {
					updates.Description = *body.Description
				}
				if err := tx.
					Model(&models.Maintenance{}).
					Where(&models.Maintenance{ID: params.ID}).
					Updates(&updates).
					Error; err != nil {
					return err
				}
				if err := tx.
					Model(&models.Maintenance{}).
					Where(&models.Maintenance{ID: params.ID}).
					First(&request).
					Error; err != nil {
					return err
				}
				return nil
			})
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.JSON(http.StatusNotFound, gin.H{"error": "maintenance request not found"})
					return
				}
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": request})
		}).
		DELETE("/maintenance/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			db := db.GetDb()
			res := db.Unscoped().Delete(&models.Maintenance{}, params.ID)
			if res.Error != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": res.Error.Error()})
				return
			}
			if res.RowsAffected == 0 {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "maintenance request not found"})
				return
			}
			ctx.Status(http.StatusNoContent)
		})
	return g
}
