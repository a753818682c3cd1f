package common

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"tenanthub/src/config"
	"tenanthub/src/db"
	"tenanthub/src/lib"
	"tenanthub/src/models"
	"tenanthub/src/types"
	"tenanthub/src/utils"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func paymentCurrency() string {
	if c := os.Getenv("PAYMENT_CURRENCY"); c != "" {
		return c
	}
	return "usd"
}

func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "duplicate key value")
}

// InitiatePayment starts a settlement attempt for a confirmed booking. The
// commission split is computed here, at the moment the amount is known. The
// one-pending-record rule is enforced three deep: an in-process init lock, a
// pre-check inside the transaction, and the partial unique index.
func InitiatePayment(body *types.InitiatePaymentRequestBody, actorID uint) (*models.PaymentRecord, error) {
	gateway := types.PaymentGateway(body.Gateway)
	if gateway == types.GATEWAY_BKASH && !utils.ValidPayerNumber(body.PayerNumber) {
		return nil, types.NewValidationError("payerNumber", "must be an 11-digit carrier number")
	}

	if !AcquireBookingInitLock(body.BookingID) {
		return nil, types.ErrDuplicatePayment
	}
	defer ReleaseBookingInitLock(body.BookingID)

	var record *models.PaymentRecord
	conn := db.GetDb()
	err := conn.Transaction(func(tx *gorm.DB) error {
		booking, err := loadBooking(tx, body.BookingID)
		if err != nil {
			return err
		}
		var actor models.User
		if err := tx.
			Model(&models.User{}).
			Where(&models.User{ID: actorID}).
			First(&actor).
			Error; err != nil {
			return types.ErrForbidden
		}
		if booking.UserID != actorID && actor.Role != types.ROLE_ADMIN {
			return types.ErrForbidden
		}
		if booking.Status != types.BOOKING_CONFIRMED {
			return types.ErrBookingNotReady
		}

		var pendingCount int64
		if err := tx.
			Model(&models.PaymentRecord{}).
			Where("booking_id = ? AND status = ?", booking.ID, types.PAYMENT_PENDING).
			Count(&pendingCount).
			Error; err != nil {
			return err
		}
		if pendingCount > 0 {
			return types.ErrDuplicatePayment
		}

		booking.RecomputeSplit()
		var payer *string
		if gateway == types.GATEWAY_BKASH {
			payer = &body.PayerNumber
		}
		rec := models.NewPaymentRecord(booking, gateway, payer)
		if err := tx.Create(rec).Error; err != nil {
			if isDuplicateKey(err) {
				return types.ErrDuplicatePayment
			}
			return err
		}
		record = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The gateway call runs after the record commits so a slow rail never
	// holds a database transaction open. Nothing has been charged at this
	// step, so any gateway error fails the record and frees the booking.
	var externalID string
	switch gateway {
	case types.GATEWAY_CARD:
		pi, err := lib.CreatePaymentIntent(utils.AmountToCents(record.Amount), paymentCurrency(), map[string]string{
			"payment_id": record.ID.String(),
			"booking_id": fmt.Sprint(record.BookingID),
		})
		if err != nil {
			log.Printf("[InitiatePayment] Error creating intent for booking %d: %s\n", record.BookingID, err.Error())
			failInitiatedRecord(conn, record)
			return nil, &types.PaymentFailedError{Reason: err.Error()}
		}
		externalID = pi.ID
		record.ClientSecret = &pi.ClientSecret
	case types.GATEWAY_BKASH:
		id, err := lib.GetBkashClient().CreatePayment(record.Amount, body.PayerNumber, record.ID.String())
		if err != nil {
			failInitiatedRecord(conn, record)
			return nil, err
		}
		externalID = id
	}

	if err := conn.
		Model(&models.PaymentRecord{}).
		Where("id = ?", record.ID).
		Update("external_id", externalID).
		Error; err != nil {
		return nil, err
	}
	record.ExternalID = externalID
	return record, nil
}

// failInitiatedRecord moves a just-created pending record to failed after the
// gateway refused to open the payment.
func failInitiatedRecord(conn *gorm.DB, rec *models.PaymentRecord) {
	now := time.Now()
	if err := rec.MarkFailed(now); err != nil {
		return
	}
	if err := conn.
		Model(&models.PaymentRecord{}).
		Where("id = ? AND status = ?", rec.ID, types.PAYMENT_PENDING).
		Updates(map[string]any{"status": rec.Status, "payment_date": rec.PaymentDate}).
		Error; err != nil {
		log.Printf("[InitiatePayment] Could not mark record %s failed: %s\n", rec.ID, err.Error())
	}
}

func loadPaymentRecord(tx *gorm.DB, id uuid.UUID) (*models.PaymentRecord, error) {
	var rec models.PaymentRecord
	if err := tx.
		Model(&models.PaymentRecord{}).
		Where("id = ?", id).
		First(&rec).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NewNotFoundError("payment", id)
		}
		return nil, err
	}
	return &rec, nil
}

// persistSettlement writes the completed record, the completed booking and
// the timeline entry as one transaction, with a compare-and-swap on both
// starting statuses. A lost CAS means another writer already applied the
// settlement; that is reported as not-applied rather than an error.
func persistSettlement(tx *gorm.DB, booking *models.Booking, rec *models.PaymentRecord) (bool, error) {
	res := tx.
		Model(&models.PaymentRecord{}).
		Where("id = ? AND status = ?", rec.ID, types.PAYMENT_PENDING).
		Updates(map[string]any{
			"status":       rec.Status,
			"external_id":  rec.ExternalID,
			"payment_date": rec.PaymentDate,
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected != 1 {
		return false, nil
	}
	res = tx.
		Model(&models.Booking{}).
		Where("id = ? AND status = ?", booking.ID, types.BOOKING_CONFIRMED).
		Updates(map[string]any{
			"status":                   booking.Status,
			"payment_admin_commission": booking.Payment.AdminCommission,
			"payment_owner_amount":     booking.Payment.OwnerAmount,
			"payment_is_paid":          booking.Payment.IsPaid,
			"payment_payment_method":   booking.Payment.PaymentMethod,
			"payment_transaction_id":   booking.Payment.TransactionID,
			"payment_payment_date":     booking.Payment.PaymentDate,
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected != 1 {
		return false, fmt.Errorf("booking %d changed status while settling payment %s", booking.ID, rec.ID)
	}
	entry := booking.Timeline[len(booking.Timeline)-1]
	if err := tx.Create(&entry).Error; err != nil {
		return false, err
	}
	return true, nil
}

// ExecutePayment drives the wallet rail's second step. Gateway success
// completes the record and the booking in one unit of work; gateway failure
// marks the record failed and leaves the booking confirmed so the caller can
// start a fresh attempt.
func ExecutePayment(paymentID uuid.UUID, actorID uint) (*models.PaymentRecord, error) {
	now := time.Now()
	conn := db.GetDb()

	var rec *models.PaymentRecord
	var booking *models.Booking
	err := conn.Transaction(func(tx *gorm.DB) error {
		r, err := loadPaymentRecord(tx, paymentID)
		if err != nil {
			return err
		}
		b, err := loadBooking(tx, r.BookingID)
		if err != nil {
			return err
		}
		var actor models.User
		if err := tx.
			Model(&models.User{}).
			Where(&models.User{ID: actorID}).
			First(&actor).
			Error; err != nil {
			return types.ErrForbidden
		}
		if b.UserID != actorID && actor.Role != types.ROLE_ADMIN {
			return types.ErrForbidden
		}
		rec, booking = r, b
		return nil
	})
	if err != nil {
		return nil, err
	}
	if rec.Gateway != types.GATEWAY_BKASH {
		return nil, types.NewValidationError("gateway", "only wallet payments are executed by the caller")
	}
	if rec.Status == types.PAYMENT_COMPLETED {
		return rec, nil
	}
	if rec.Status.Terminal() {
		return nil, &types.PaymentFailedError{Reason: fmt.Sprintf("payment record is %s", rec.Status)}
	}

	trxID, err := lib.GetBkashClient().ExecutePayment(rec.ExternalID)
	if err != nil {
		if errors.Is(err, types.ErrGatewayTimeout) {
			// Outcome unknown: leave the record pending for the
			// reconciliation sweep rather than guessing.
			return nil, err
		}
		if ferr := conn.Transaction(func(tx *gorm.DB) error {
			if merr := rec.MarkFailed(now); merr != nil {
				return merr
			}
			return tx.
				Model(&models.PaymentRecord{}).
				Where("id = ? AND status = ?", rec.ID, types.PAYMENT_PENDING).
				Updates(map[string]any{"status": rec.Status, "payment_date": rec.PaymentDate}).
				Error
		}); ferr != nil {
			log.Printf("[ExecutePayment] Could not mark record %s failed: %s\n", rec.ID, ferr.Error())
		}
		return nil, err
	}

	err = conn.Transaction(func(tx *gorm.DB) error {
		applied, err := models.ApplySettlement(booking, rec, trxID, actorID, now)
		if err != nil {
			return err
		}
		if !applied {
			return nil
		}
		_, err = persistSettlement(tx, booking, rec)
		return err
	})
	if err != nil {
		return nil, err
	}
	go notify(booking.UserID, types.NOTIFY_PAYMENT_RECEIVED, types.JSONB{
		"booking_id": booking.ID,
		"amount":     rec.Amount,
	})
	return rec, nil
}

// settleWebhookEvent wraps one webhook application with event-id dedup. The
// id is recorded only after apply succeeds: a redelivery of an event whose
// transaction failed must still be applied, while a redelivery of an applied
// event short-circuits here. A lost race between two concurrent deliveries is
// harmless because application itself is idempotent.
func settleWebhookEvent(eventID string, apply func() error) error {
	ctx := context.Background()
	if eventID != "" && lib.WebhookSeen(ctx, eventID) {
		log.Printf("[Webhook] Event %s already processed. Skipping\n", eventID)
		return nil
	}
	if err := apply(); err != nil {
		return err
	}
	if eventID != "" {
		lib.MarkWebhookSeen(ctx, eventID)
	}
	return nil
}

// ApplyCardSettlement reacts to a verified card-rail webhook. Duplicated or
// out-of-order deliveries are no-ops: an applied event id short-circuits, and
// an already-completed record applies nothing.
func ApplyCardSettlement(externalID string, eventID string) error {
	now := time.Now()
	conn := db.GetDb()
	var rec models.PaymentRecord
	var booking *models.Booking
	err := settleWebhookEvent(eventID, func() error {
		return conn.Transaction(func(tx *gorm.DB) error {
			if err := tx.
				Model(&models.PaymentRecord{}).
				Where(&models.PaymentRecord{ExternalID: externalID, Gateway: types.GATEWAY_CARD}).
				First(&rec).
				Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return types.NewNotFoundError("payment", externalID)
				}
				return err
			}
			b, err := loadBooking(tx, rec.BookingID)
			if err != nil {
				return err
			}
			booking = b
			applied, err := models.ApplySettlement(b, &rec, externalID, b.UserID, now)
			if err != nil {
				return err
			}
			if !applied {
				booking = nil
				return nil
			}
			persisted, err := persistSettlement(tx, b, &rec)
			if err != nil {
				return err
			}
			if !persisted {
				booking = nil
			}
			return nil
		})
	})
	if err != nil {
		return err
	}
	if booking != nil {
		go notify(booking.UserID, types.NOTIFY_PAYMENT_RECEIVED, types.JSONB{
			"booking_id": booking.ID,
			"amount":     rec.Amount,
		})
	}
	return nil
}

// FailCardSettlement marks a card-rail record failed after the gateway
// reported the intent failed. The booking stays confirmed and retryable.
func FailCardSettlement(externalID string, eventID string) error {
	now := time.Now()
	conn := db.GetDb()
	return settleWebhookEvent(eventID, func() error {
		return conn.Transaction(func(tx *gorm.DB) error {
			var rec models.PaymentRecord
			if err := tx.
				Model(&models.PaymentRecord{}).
				Where(&models.PaymentRecord{ExternalID: externalID, Gateway: types.GATEWAY_CARD}).
				First(&rec).
				Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return types.NewNotFoundError("payment", externalID)
				}
				return err
			}
			if rec.Status.Terminal() {
				return nil
			}
			if err := rec.MarkFailed(now); err != nil {
				return err
			}
			return tx.
				Model(&models.PaymentRecord{}).
				Where("id = ? AND status = ?", rec.ID, types.PAYMENT_PENDING).
				Updates(map[string]any{"status": rec.Status, "payment_date": rec.PaymentDate}).
				Error
		})
	})
}

// GetPaymentStatus reads a settlement attempt straight from the database,
// which is the source of truth for record status.
func GetPaymentStatus(paymentID uuid.UUID, actorID uint) (*models.PaymentRecord, error) {
	conn := db.GetDb()
	rec, err := loadPaymentRecord(conn, paymentID)
	if err != nil {
		return nil, err
	}
	booking, err := loadBooking(conn, rec.BookingID)
	if err != nil {
		return nil, err
	}
	var actor models.User
	if err := conn.
		Model(&models.User{}).
		Where(&models.User{ID: actorID}).
		First(&actor).
		Error; err != nil {
		return nil, types.ErrForbidden
	}
	var ownerID uint
	var property models.Property
	if err := conn.
		Model(&models.Property{}).
		Where(&models.Property{ID: booking.PropertyID}).
		First(&property).
		Error; err == nil {
		ownerID = property.OwnerID
	}
	if !booking.CanView(&actor, ownerID) {
		return nil, types.ErrForbidden
	}
	return rec, nil
}

// ExpirePendingPayments is the reconciliation sweep: pending records older
// than the TTL move to the terminal expired status, freeing their bookings
// for a fresh attempt. Run on a schedule, not in any request path.
func ExpirePendingPayments() {
	conn := db.GetDb()
	cutoff := time.Now().Add(-config.PendingPaymentTTL())
	res := conn.
		Model(&models.PaymentRecord{}).
		Where("status = ? AND created_at < ?", types.PAYMENT_PENDING, cutoff).
		Update("status", types.PAYMENT_EXPIRED)
	if res.Error != nil {
		log.Printf("[ExpirePendingPayments] Sweep failed: %s\n", res.Error.Error())
		return
	}
	if res.RowsAffected > 0 {
		log.Printf("[ExpirePendingPayments] Expired %d stale pending records\n", res.RowsAffected)
	}
}
