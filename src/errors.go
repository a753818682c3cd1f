package main

import (
	"errors"
	"net/http"
	"tenanthub/src/types"

	"github.com/gin-gonic/gin"
)

// respondError maps the engine's error taxonomy onto HTTP statuses. Anything
// unrecognized is surfaced as a 422 without leaking internals.
func respondError(ctx *gin.Context, err error) {
	var validationErr *types.ValidationError
	var notFoundErr *types.NotFoundError
	var transitionErr *types.InvalidTransitionError
	var paymentErr *types.PaymentFailedError

	switch {
	case errors.As(err, &validationErr):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error(), "field": validationErr.Field})
	case errors.As(err, &notFoundErr):
		ctx.JSON(http.StatusNotFound, gin.H{"error": notFoundErr.Error()})
	case errors.Is(err, types.ErrForbidden):
		ctx.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.As(err, &transitionErr):
		ctx.JSON(http.StatusConflict, gin.H{"error": transitionErr.Error()})
	case errors.Is(err, types.ErrBookingNotReady):
		ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, types.ErrDuplicatePayment):
		ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &paymentErr):
		ctx.JSON(http.StatusPaymentRequired, gin.H{"error": paymentErr.Error()})
	case errors.Is(err, types.ErrGatewayTimeout):
		ctx.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})
	case errors.Is(err, types.ErrWebhookUnverifiable):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Error while processing request"})
	}
}
