package lib

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

var redisClient *redis.Client

func GetRedisClient() *redis.Client {
	if redisClient != nil {
		return redisClient
	}
	redisHost := os.Getenv("REDIS_HOST")
	opt, err := redis.ParseURL(redisHost)
	if err != nil {
		log.Printf("[redis] Error parsing connection string: %s\n", err.Error())
		return nil
	}
	rdb := redis.NewClient(opt)
	redisClient = rdb
	return rdb
}

func NewRedisClient(c *redis.Client) {
	redisClient = c
}

// WebhookSeen reports whether a gateway event id was already applied.
// Upstream gateways may deliver the same event more than once; a seen id
// short-circuits reapplication.
func WebhookSeen(ctx context.Context, eventID string) bool {
	rd := GetRedisClient()
	if rd == nil {
		return false
	}
	n, err := rd.Exists(ctx, fmt.Sprintf("webhook:%s", eventID)).Result()
	if err != nil {
		log.Printf("[redis] Error checking webhook event %s: %s\n", eventID, err.Error())
		return false
	}
	return n > 0
}

// MarkWebhookSeen records an applied event id. Callers mark only after their
// settlement transaction commits, so a failed apply leaves the event
// re-deliverable.
func MarkWebhookSeen(ctx context.Context, eventID string) {
	rd := GetRedisClient()
	if rd == nil {
		return
	}
	if err := rd.Set(ctx, fmt.Sprintf("webhook:%s", eventID), 1, 24*time.Hour).Err(); err != nil {
		log.Printf("[redis] Error recording webhook event %s: %s\n", eventID, err.Error())
	}
}
