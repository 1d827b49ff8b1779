package main

import (
	"apms/src/config"
	"apms/src/db"
	"apms/src/models"
	"apms/src/types"
	"apms/src/utils"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func paymentHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/payments", func(ctx *gin.Context) {
			var filters struct {
				Status      string `form:"status" binding:"omitempty,oneof=PENDING PAID OVERDUE"`
				ApartmentNo string `form:"apartmentNo"`
			}
			if err := ctx.ShouldBindQuery(&filters); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			db := db.GetDb()
			q := db.Model(&models.Payment{})
			if filters.Status != "" {
				q = q.Where("status = ?", filters.Status)
			}
			if filters.ApartmentNo != "" {
				q = q.Where("apartment_no = ?", filters.ApartmentNo)
			}
			var payments []models.Payment
			if err := q.Order("due_date desc").Limit(100).Find(&payments).Error; err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": payments, "count": len(payments)})
		}).
		GET("/payments/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			db := db.GetDb()
			var payment models.Payment
			if err := db.
				Model(&models.Payment{}).
				Where(&models.Payment{ID: params.ID}).
				First(&payment).
				Error; err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": payment})
		}).
		POST("/payments", func(ctx *gin.Context) {
			var body types.CreatePaymentRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			dueDate, err := time.Parse(config.TIME_PARSE_FORMAT, body.DueDate)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			payment := models.Payment{
				ApartmentNo: body.ApartmentNo,
				Block:       body.Block,
				Amount:      body.Amount,
				DueDate:     dueDate,
				Status:      types.PAYMENT_PENDING,
				Description: body.Description,
			}
			db := db.GetDb()
			if err := db.Create(&payment).Error; err != nil {
				log.Printf("error creating payment: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": payment})
		}).
		PUT("/payments/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body types.UpdatePaymentRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			updates := models.Payment{}
			if body.Amount != nil {
				updates.Amount = *body.Amount
			}
			if body.Status != nil {
				updates.Status = *body.Status
			}
			if body.Description != nil {
				updates.Description = *body.Description
			}
			if body.DueDate != nil {
				dueDate, err := time.Parse(config.TIME_PARSE_FORMAT, *body.DueDate)
				if err != nil {
					ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				}
				updates.DueDate = dueDate
			}
			db := db.GetDb()
			var payment models.Payment
			err := db.Transaction(func(tx *gorm.DB) error {
				if err := tx.
					Model(&models.Payment{}).
					Where(&models.Payment{ID: params.ID}).
					First(&payment).
					Error; err != nil {
					return err
				}
				if err := tx.
					Model(&models.Payment{}).
					Where(&models.Payment{ID: params.ID}).
					Updates(&updates).
					Error; err != nil {
					return err
				}
				return nil
			})
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
					return
				}
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": payment})
		}).
		DELETE("/payments/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			db := db.GetDb()
			res := db.Unscoped().Delete(&models.Payment{}, params.ID)
			if res.Error != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": res.Error.Error()})
				return
			}
			if res.RowsAffected == 0 {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
				return
			}
			ctx.Status(http.StatusNoContent)
		}).
		POST("/payments/reminders", func(ctx *gin.Context) {
			go utils.SendPaymentReminders()
			ctx.JSON(http.StatusAccepted, gin.H{"message": "reminders scheduled"})
		})
	return g
}

// payPaymentHandler settles a pending payment. Residents call this one
// directly, so it is mounted outside the admin group.
func payPaymentHandler(ctx *gin.Context) {
	var params types.SimpleRequestParams
	if err := ctx.ShouldBindUri(&params); err != nil {
		ctx.Status(http.StatusBadRequest)
		return
	}
	var body types.PayPaymentRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	paymentDate := time.Now()
	if body.PaymentDate != "" {
		parsed, err := time.Parse(config.DATE_PARSE_FORMAT, body.PaymentDate)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		paymentDate = parsed
	}
	var payment models.Payment
	db := db.GetDb()
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Model(&models.Payment{}).
			Where(&models.Payment{ID: params.ID}).
			First(&payment).
			Error; err != nil {
			return err
		}
		if payment.Status == types.PAYMENT_PAID {
			return errors.New("payment has already been made")
		}
		if err := tx.
			Model(&models.Payment{}).
			Where(&models.Payment{ID: params.ID}).
			Updates(&models.Payment{
				Status:        types.PAYMENT_PAID,
				PaymentDate:   &paymentDate,
				PaymentMethod: &body.PaymentMethod,
				ReceiptNo:     utils.NewReceiptNo(),
			}).
			Error; err != nil {
			return err
		}
		if err := tx.
			Model(&models.Payment{}).
			Where(&models.Payment{ID: params.ID}).
			First(&payment).
			Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
			return
		}
		log.Printf("Could not complete request: %s\n", err.Error())
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"data": payment})
}
