package main

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
	"tenanthub/src/common"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// stripeWebhookRoute receives the card rail's asynchronous completion events.
// The signature is verified before anything is applied; an unverifiable
// payload is discarded with a 400.
func stripeWebhookRoute(g *gin.Engine) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	apiv1.POST("/webhook/stripe", func(ctx *gin.Context) {
		payload, err := io.ReadAll(ctx.Request.Body)
		if err != nil {
			log.Printf("Error reading request body: %s\n", err.Error())
			ctx.Status(http.StatusServiceUnavailable)
			return
		}
		whsecret := os.Getenv("STRIPE_WEBHOOK_SECRET")
		event, err := webhook.ConstructEvent(payload, ctx.GetHeader("Stripe-Signature"), whsecret)
		if err != nil {
			log.Printf("Error verifying webhook signature: %s\n", err.Error())
			ctx.Status(http.StatusBadRequest)
			return
		}
		log.Printf("[StripeEvent] %s\n", event.Type)
		switch event.Type {
		case "payment_intent.succeeded":
			var pi stripe.PaymentIntent
			if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
				log.Printf("[Stripe] Error parsing PaymentIntent: %s\n", err.Error())
				break
			}
			if err := common.ApplyCardSettlement(pi.ID, event.ID); err != nil {
				log.Printf("Error settling PaymentIntent [%s]: %s\n", pi.ID, err.Error())
			}
		case "payment_intent.payment_failed":
			var pi stripe.PaymentIntent
			if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
				log.Printf("[Stripe] Error parsing PaymentIntent: %s\n", err.Error())
				break
			}
			if err := common.FailCardSettlement(pi.ID, event.ID); err != nil {
				log.Printf("Error failing PaymentIntent [%s]: %s\n", pi.ID, err.Error())
			}
		}
		ctx.Status(http.StatusNoContent)
	})
	return apiv1
}
