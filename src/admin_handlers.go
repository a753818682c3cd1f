package main

import (
	"log"
	"net/http"
	"tenanthub/src/common"
	"tenanthub/src/models"
	"tenanthub/src/types"

	"github.com/gin-gonic/gin"
)

func adminHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/bookings/pending", func(ctx *gin.Context) {
			bookings, err := common.ListPendingBookings()
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": bookings, "count": len(bookings)})
		}).
		PUT("/bookings/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.AdminDecisionRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			actorId := ctx.GetUint("id")
			var booking *models.Booking
			var err error
			if body.Action == "approve" {
				booking, err = common.ApproveBooking(params.ID, actorId, body.Notes)
			} else {
				booking, err = common.RejectBooking(params.ID, actorId, body.Notes)
			}
			if err != nil {
				log.Printf("Could not %s Booking [%d]: %s\n", body.Action, params.ID, err.Error())
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": booking})
		})
	return g
}
