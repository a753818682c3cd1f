package controllers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"tenanthub/src/db"
	"tenanthub/src/models"
	"tenanthub/src/types"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

var jwtKey = []byte(os.Getenv("JWT_SECRET"))

func GenerateJWT(user *models.User) (string, error) {
	now := time.Now()
	claims := types.Claims{
		Username: user.Email,
		Role:     string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(24 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtKey)
}

func AuthRegister(ctx *gin.Context) (uint, int, error) {
	var body types.RegisterUserRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return 0, http.StatusBadRequest, err
	}
	role := types.ROLE_USER
	if body.Role != "" {
		role = types.UserRole(body.Role)
	}
	user := models.User{
		Name:  body.Name,
		Email: body.Email,
		Role:  role,
	}
	db := db.GetDb()
	if err := db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&user).Error
	}); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "duplicate key value") {
			return 0, http.StatusConflict, errors.New("email is already registered")
		}
		log.Printf("[AuthRegister] Error creating user: %s\n", err.Error())
		return 0, http.StatusUnprocessableEntity, err
	}
	return user.ID, http.StatusOK, nil
}

func AuthLogin(ctx *gin.Context) (*string, int, error) {
	var body types.LoginRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return nil, http.StatusBadRequest, err
	}
	db := db.GetDb()
	var user models.User
	if err := db.
		Model(&models.User{}).
		Where(&models.User{Email: body.Email}).
		First(&user).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, http.StatusNotFound, errors.New("unknown account")
		}
		return nil, http.StatusUnprocessableEntity, err
	}
	token, err := GenerateJWT(&user)
	if err != nil {
		log.Printf("[AuthLogin] Error generating token: %s\n", err.Error())
		return nil, http.StatusInternalServerError, err
	}
	return &token, http.StatusOK, nil
}
