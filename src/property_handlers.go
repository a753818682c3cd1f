package main

import (
	"log"
	"net/http"
	"tenanthub/src/db"
	"tenanthub/src/models"
	"tenanthub/src/types"

	"github.com/gin-gonic/gin"
)

func propertyHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/properties", func(ctx *gin.Context) {
			var body types.CreatePropertyRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			property := models.Property{
				Title:       body.Title,
				Location:    body.Location,
				MonthlyRent: body.MonthlyRent,
				IsAvailable: true,
				OwnerID:     userId,
			}
			if body.Available != nil {
				property.IsAvailable = *body.Available
			}
			conn := db.GetDb()
			if err := conn.Create(&property).Error; err != nil {
				log.Printf("Error creating Property: %s\n", err.Error())
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": property})
		}).
		GET("/properties", func(ctx *gin.Context) {
			var properties []models.Property
			conn := db.GetDb()
			if err := conn.Where("is_available = ?", true).Find(&properties).Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": properties, "count": len(properties)})
		}).
		GET("/properties/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var property models.Property
			conn := db.GetDb()
			if err := conn.First(&property, params.ID).Error; err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": types.NewNotFoundError("Property", params.ID).Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": property})
		})
	return g
}
