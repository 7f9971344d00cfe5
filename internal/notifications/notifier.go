// Package notifications fans inbox notifications out over Redis pub/sub.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"quorum/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// Event is the JSON payload published for each stored notification.
type Event struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"user_id"`
	Content   string    `json:"content"`
	Link      string    `json:"link"`
	CreatedAt time.Time `json:"created_at"`
}

// Notifier provides helpers to publish notifications into Redis channels
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
// A nil client turns every call into a no-op.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishUser sends ev to the recipient's channel.
func (n *Notifier) PublishUser(ctx context.Context, ev Event) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return n.rdb.Publish(ctx, UserChannel(ev.UserID), payload).Err()
}

// SubscribeUser streams the events published for userID until ctx is cancelled,
// then closes the returned channel. Payloads that fail to decode are skipped.
func (n *Notifier) SubscribeUser(ctx context.Context, userID uint) (<-chan Event, error) {
	out := make(chan Event, 16)
	if n == nil || n.rdb == nil {
		close(out)
		return out, nil
	}

	channel := UserChannel(userID)
	sub := n.rdb.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", channel, err)
	}
	ch := sub.Channel()

	go func() {
		defer close(out)
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					middleware.Logger.WarnContext(ctx, "dropping malformed notification",
						slog.String("channel", channel),
						slog.String("error", err.Error()),
					)
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// UserChannel derives the Redis channel name for a user.
func UserChannel(userID uint) string {
	return "notifications:user:" + strconv.FormatUint(uint64(userID), 10)
}
