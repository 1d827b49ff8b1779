package controllers

import (
	"apms/src/db"
	"apms/src/lib"
	"apms/src/models"
	"apms/src/types"
	"apms/src/utils"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func AuthLogin(ctx *gin.Context) (token *string, status int, err error) {
	var body types.LoginRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return nil, http.StatusBadRequest, err
	}

	db := db.GetDb()
	var user models.User
	if err = db.
		Model(&models.User{}).
		Where(&models.User{Email: body.Email}).
		First(&user).
		Error; err != nil {
		log.Printf("error: %s\n", err.Error())
		return nil, http.StatusNotFound, err
	}
	if !user.IsActive {
		return nil, http.StatusForbidden, errors.New("account is disabled")
	}

	jwt, err := utils.GenerateJWT(user.Email, user.ID, string(user.Role), user.ApartmentNo)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}

	if rd := lib.GetRedisClient(); rd != nil {
		if _, err := rd.JSONSet(ctx, fmt.Sprintf("%d:user", user.ID), "$", &user).Result(); err != nil {
			log.Printf("[redis] Error updating user cache: %s\n", err.Error())
		}
	}

	return &jwt, http.StatusOK, nil
}

func AuthRegister(ctx *gin.Context) (id *uint, status int, err error) {
	var body types.RegisterUserRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return nil, http.StatusBadRequest, err
	}

	user := models.User{
		Email:       body.Email,
		Name:        body.Name,
		Role:        types.ROLE_RESIDENT,
		ApartmentNo: body.ApartmentNo,
		Block:       body.Block,
		IsActive:    true,
	}
	db := db.GetDb()
	if err := db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where(&models.User{Email: body.Email}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return errors.New("a user with this email already exists")
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return nil
	}); err != nil {
		log.Printf("[AuthRegister] error: %s\n", err.Error())
		return nil, http.StatusBadRequest, err
	}

	return &user.ID, http.StatusCreated, nil
}
