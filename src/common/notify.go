package common

import (
	"fmt"
	"log"
	"os"
	"tenanthub/src/db"
	"tenanthub/src/lib"
	"tenanthub/src/models"
	"tenanthub/src/types"

	"gorm.io/gorm"
)

// notify is the dispatch seam every transition goes through. Tests swap it
// out to observe dispatches without a mail server.
var notify = Notify

// Notify records a notification for the recipient and attempts delivery.
// Callers run it in a goroutine after their transaction commits; a delivery
// failure is logged and never affects the transition that produced it.
func Notify(recipientID uint, kind types.NotificationKind, payload types.JSONB) {
	db := db.GetDb()
	notification := models.Notification{
		RecipientID: recipientID,
		Kind:        kind,
		Payload:     payload,
	}
	var recipient models.User
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Model(&models.User{}).
			Where(&models.User{ID: recipientID}).
			First(&recipient).
			Error; err != nil {
			return err
		}
		return tx.Create(&notification).Error
	})
	if err != nil {
		log.Printf("[Notify] Could not record %s for user %d: %s\n", kind, recipientID, err.Error())
		return
	}
	if recipient.Email == "" {
		return
	}
	if err := lib.SendMail(&lib.SendMailInput{
		From:     os.Getenv("MAIL_FROM"),
		FromName: "TenantHub",
		To:       []string{recipient.Email},
		Subject:  string(kind),
		Body:     fmt.Sprintf("%s: %v", kind, payload),
	}); err != nil {
		log.Printf("[Notify] Delivery of %s to user %d failed: %s\n", kind, recipientID, err.Error())
		return
	}
	if err := db.
		Model(&models.Notification{}).
		Where("id = ?", notification.ID).
		Update("delivered", true).
		Error; err != nil {
		log.Printf("[Notify] Could not mark notification %s delivered: %s\n", notification.ID, err.Error())
	}
}

// AdminRecipient resolves which administrator gets booking-created notices.
// Configurable through ADMIN_RECIPIENT_EMAIL, falling back to the
// longest-standing admin account.
func AdminRecipient(tx *gorm.DB) (*models.User, error) {
	var admin models.User
	if email := os.Getenv("ADMIN_RECIPIENT_EMAIL"); email != "" {
		if err := tx.
			Model(&models.User{}).
			Where(&models.User{Email: email, Role: types.ROLE_ADMIN}).
			First(&admin).
			Error; err == nil {
			return &admin, nil
		}
	}
	err := tx.
		Model(&models.User{}).
		Where(&models.User{Role: types.ROLE_ADMIN}).
		Order("id asc").
		First(&admin).
		Error
	if err != nil {
		return nil, err
	}
	return &admin, nil
}
