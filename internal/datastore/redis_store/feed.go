package redis_store

import (
	"context"
	"fmt"
	"time"

	"safeconnect/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	FEED_MAX_ITEMS = 50
	FEED_TTL       = 30 * 24 * time.Hour
)

func dbKeyActivityFeed(userID string) string {
	return fmt.Sprintf("wallet:feed:%s", userID)
}

// PushActivity prepends an item to the user's feed and trims it to the cap.
// Callers treat failures as best-effort; the ledger stays authoritative.
func PushActivity(ctx context.Context, cmd redis.UniversalClient, userID string, item *models.ActivityItem) error {
	b, err := msgpack.Marshal(item)
	if err != nil {
		return err
	}

	key := dbKeyActivityFeed(userID)
	pipe := cmd.TxPipeline()
	pipe.LPush(ctx, key, b)
	pipe.LTrim(ctx, key, 0, FEED_MAX_ITEMS-1)
	pipe.Expire(ctx, key, FEED_TTL)
	_, err = pipe.Exec(ctx)
	return err
}

func ListActivity(ctx context.Context, cmd redis.UniversalClient, userID string, limit int) ([]*models.ActivityItem, error) {
	if limit <= 0 || limit > FEED_MAX_ITEMS {
		limit = FEED_MAX_ITEMS
	}

	raw, err := cmd.LRange(ctx, dbKeyActivityFeed(userID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	items := make([]*models.ActivityItem, 0, len(raw))
	for _, entry := range raw {
		var item models.ActivityItem
		if err := msgpack.Unmarshal([]byte(entry), &item); err != nil {
			// skip entries written by older encodings
			continue
		}
		items = append(items, &item)
	}

	return items, nil
}

// MarkReminderSent records that an expiry reminder went out for this premium
// period; SETNX keeps the cron from notifying twice for the same expiry.
func MarkReminderSent(ctx context.Context, cmd redis.UniversalClient, userID string, premiumUntil time.Time) (bool, error) {
	key := fmt.Sprintf("premium:reminder:%s:%d", userID, premiumUntil.Unix())
	return cmd.SetNX(ctx, key, 1, 48*time.Hour).Result()
}
