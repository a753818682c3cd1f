package common

import (
	"log"
	"tenanthub/src/db"
	"tenanthub/src/types"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	conn, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening a stub database connection", err)
	}

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: conn}), &gorm.Config{})
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening gorm database", err)
	}
	t.Cleanup(func() { conn.Close() })

	return gormDB, mock
}

type dispatch struct {
	recipientID uint
	kind        types.NotificationKind
	payload     types.JSONB
}

func captureNotify(t *testing.T) chan dispatch {
	ch := make(chan dispatch, 4)
	notify = func(recipientID uint, kind types.NotificationKind, payload types.JSONB) {
		ch <- dispatch{recipientID: recipientID, kind: kind, payload: payload}
	}
	t.Cleanup(func() { notify = Notify })
	return ch
}

func TestRejectBookingNotifiesRequester(t *testing.T) {
	gormDB, mock := newMockDB(t)
	db.NewDB(gormDB)
	dispatches := captureNotify(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "role"}).
			AddRow(7, "admin@example.com", "admin"))
	mock.ExpectQuery(`SELECT \* FROM "bookings"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status", "user_id", "property_id", "booking_type"}).
			AddRow(1, "pending", 42, 10, "rent"))
	mock.ExpectExec(`UPDATE "bookings" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "timeline_entries"`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	booking, err := RejectBooking(1, 7, "property already taken")
	assert.Nil(t, err)
	assert.Equal(t, types.BOOKING_REJECTED, booking.Status)
	assert.Equal(t, "property already taken", booking.Approval.Notes)

	select {
	case d := <-dispatches:
		assert.Equal(t, uint(42), d.recipientID)
		assert.Equal(t, types.NOTIFY_BOOKING_REJECTED, d.kind)
		assert.Equal(t, "property already taken", d.payload["reason"])
	case <-time.After(time.Second):
		t.Fatal("expected a rejection notification to be dispatched")
	}
	select {
	case d := <-dispatches:
		t.Fatalf("expected exactly one dispatch, got a second: %v", d)
	case <-time.After(50 * time.Millisecond):
	}

	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestRejectBookingInvalidTransitionDoesNotNotify(t *testing.T) {
	gormDB, mock := newMockDB(t)
	db.NewDB(gormDB)
	dispatches := captureNotify(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "role"}).
			AddRow(7, "admin@example.com", "admin"))
	mock.ExpectQuery(`SELECT \* FROM "bookings"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status", "user_id", "property_id", "booking_type"}).
			AddRow(1, "completed", 42, 10, "rent"))
	mock.ExpectRollback()

	_, err := RejectBooking(1, 7, "too late")
	var terr *types.InvalidTransitionError
	assert.ErrorAs(t, err, &terr)
	assert.Equal(t, types.BOOKING_COMPLETED, terr.From)

	select {
	case d := <-dispatches:
		t.Fatalf("expected no dispatch for a failed transition, got: %v", d)
	case <-time.After(50 * time.Millisecond):
	}

	assert.Nil(t, mock.ExpectationsWereMet())
}
