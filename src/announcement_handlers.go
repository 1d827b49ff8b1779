package main

import (
	"apms/src/config"
	"apms/src/db"
	"apms/src/lib"
	"apms/src/models"
	"apms/src/types"
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

const activeAnnouncementsCacheKey = "announcements:active"

func invalidateAnnouncementsCache() {
	rd := lib.GetRedisClient()
	if rd == nil {
		return
	}
	if err := rd.Del(context.Background(), activeAnnouncementsCacheKey).Err(); err != nil {
		log.Printf("[redis] Error invalidating announcements cache: %s\n", err.Error())
	}
}

func activeAnnouncements() ([]models.Announcement, error) {
	rd := lib.GetRedisClient()
	if rd != nil {
		val := rd.Get(context.Background(), activeAnnouncementsCacheKey).Val()
		if val != "" {
			var cached []models.Announcement
			if err := json.Unmarshal([]byte(val), &cached); err == nil {
				return cached, nil
			}
		}
	}
	db := db.GetDb()
	var announcements []models.Announcement
	if err := db.
		Model(&models.Announcement{}).
		Where("is_active = ?", true).
		Where(db.Where("end_date IS NULL").Or("end_date >= ?", time.Now())).
		Order("created_at desc").
		Limit(50).
		Find(&announcements).
		Error; err != nil {
		return nil, err
	}
	if rd != nil {
		if bytes, err := json.Marshal(&announcements); err == nil {
			if err := rd.Set(context.Background(), activeAnnouncementsCacheKey, string(bytes), 5*time.Minute).Err(); err != nil {
				log.Printf("[redis] Error caching announcements: %s\n", err.Error())
			}
		}
	}
	return announcements, nil
}

func announcementHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/announcements", func(ctx *gin.Context) {
			var body types.CreateAnnouncementRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			announcement := models.Announcement{
				Title:     body.Title,
				Slug:      slug.Make(body.Title),
				Content:   body.Content,
				Category:  body.Category,
				Priority:  body.Priority,
				StartDate: time.Now(),
				IsActive:  true,
			}
			if body.EndDate != nil {
				endDate, err := time.Parse(config.TIME_PARSE_FORMAT, *body.EndDate)
				if err != nil {
					ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				}
				announcement.EndDate = &endDate
			}
			db := db.GetDb()
			if err := db.Create(&announcement).Error; err != nil {
				log.Printf("error creating announcement: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			invalidateAnnouncementsCache()
			ctx.JSON(http.StatusCreated, gin.H{"data": announcement})
		}).
		PUT("/announcements/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body struct {
				Title    *string `json:"title,omitempty"`
				Content  *string `json:"content,omitempty"`
				IsActive *bool   `json:"is_active,omitempty"`
			}
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			db := db.GetDb()
			var announcement models.Announcement
			err := db.Transaction(func(tx *gorm.DB) error {
				if err := tx.
					Model(&models.Announcement{}).
					Where(&models.Announcement{ID: params.ID}).
					First(&announcement).
					Error; err != nil {
					return err
				}
				updates := map[string]any{}
				if body.Title != nil {
					updates["title"] = *body.Title
					updates["slug"] = slug.Make(*body.Title)
				}
				if body.Content != nil {
					updates["content"] = *body.Content
				}
				if body.IsActive != nil {
					updates["is_active"] = *body.IsActive
				}
				if len(updates) == 0 {
					return nil
				}
				if err := tx.
					Model(&models.Announcement{}).
					Where(&models.Announcement{ID: params.ID}).
					Updates(updates).
					Error; err != nil {
					return err
				}
				if err := tx.
					Model(&models.Announcement{}).
					Where(&models.Announcement{ID: params.ID}).
					First(&announcement).
					Error; err != nil {
					return err
				}
				return nil
			})
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.JSON(http.StatusNotFound, gin.H{"error": "announcement not found"})
					return
				}
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			invalidateAnnouncementsCache()
			ctx.JSON(http.StatusOK, gin.H{"data": announcement})
		}).
		DELETE("/announcements/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			db := db.GetDb()
			res := db.Unscoped().Delete(&models.Announcement{}, params.ID)
			if res.Error != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": res.Error.Error()})
				return
			}
			if res.RowsAffected == 0 {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "announcement not found"})
				return
			}
			invalidateAnnouncementsCache()
			ctx.Status(http.StatusNoContent)
		})
	return g
}
