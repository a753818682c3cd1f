package common

import (
	"errors"
	"tenanthub/src/lib"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestSettleWebhookEvent(t *testing.T) {
	mr := miniredis.RunT(t)
	lib.NewRedisClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	defer lib.NewRedisClient(nil)

	t.Run("failed apply leaves the event re-deliverable", func(t *testing.T) {
		applies := 0
		apply := func() error {
			applies++
			if applies == 1 {
				return errors.New("storage unavailable")
			}
			return nil
		}

		err := settleWebhookEvent("evt_fail_once", apply)
		assert.NotNil(t, err)

		// Redelivery after a failed transaction must reach apply again.
		err = settleWebhookEvent("evt_fail_once", apply)
		assert.Nil(t, err)
		assert.Equal(t, 2, applies)

		// Now the event is recorded and further deliveries short-circuit.
		err = settleWebhookEvent("evt_fail_once", apply)
		assert.Nil(t, err)
		assert.Equal(t, 2, applies)
	})

	t.Run("applied event is recorded once", func(t *testing.T) {
		applies := 0
		apply := func() error {
			applies++
			return nil
		}
		assert.Nil(t, settleWebhookEvent("evt_ok", apply))
		assert.Nil(t, settleWebhookEvent("evt_ok", apply))
		assert.Nil(t, settleWebhookEvent("evt_ok", apply))
		assert.Equal(t, 1, applies)
	})

	t.Run("empty event id is never deduplicated", func(t *testing.T) {
		applies := 0
		apply := func() error {
			applies++
			return nil
		}
		assert.Nil(t, settleWebhookEvent("", apply))
		assert.Nil(t, settleWebhookEvent("", apply))
		assert.Equal(t, 2, applies)
	})
}
