package main

import (
	"log"
	"net/http"
	"tenanthub/src/common"
	"tenanthub/src/types"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func paymentHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/payments/initiate", func(ctx *gin.Context) {
			var body types.InitiatePaymentRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			record, err := common.InitiatePayment(&body, userId)
			if err != nil {
				log.Printf("Error initiating payment for Booking [%d]: %s\n", body.BookingID, err.Error())
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": record})
		}).
		POST("/payments/:id/execute", func(ctx *gin.Context) {
			var params types.PaymentRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			paymentId, err := uuid.Parse(params.ID)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			record, err := common.ExecutePayment(paymentId, userId)
			if err != nil {
				log.Printf("Error executing payment [%s]: %s\n", paymentId, err.Error())
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": record})
		}).
		GET("/payments/:id", func(ctx *gin.Context) {
			var params types.PaymentRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			paymentId, err := uuid.Parse(params.ID)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			record, err := common.GetPaymentStatus(paymentId, userId)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": record})
		})
	return g
}
