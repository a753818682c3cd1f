package lib

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestWebhookSeen(t *testing.T) {
	mr := miniredis.RunT(t)
	NewRedisClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	defer NewRedisClient(nil)

	ctx := context.Background()
	assert.False(t, WebhookSeen(ctx, "evt_1"))

	MarkWebhookSeen(ctx, "evt_1")
	assert.True(t, WebhookSeen(ctx, "evt_1"))
	assert.False(t, WebhookSeen(ctx, "evt_2"))

	ttl := mr.TTL("webhook:evt_1")
	assert.Greater(t, ttl.Hours(), 23.0)
}
