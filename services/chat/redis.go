package chat

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/xiao99xiao/bookme-sub003/models"
	"github.com/xiao99xiao/bookme-sub003/utils"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const channelPrefix = "chat:conv:"

// RedisTransport fans messages out over Redis pub/sub, one channel per
// conversation.
type RedisTransport struct {
	Client *redis.Client
}

func NewRedisTransport(client *redis.Client) *RedisTransport {
	return &RedisTransport{Client: client}
}

func channelFor(conversationID string) string {
	return channelPrefix + conversationID
}

// Publish broadcasts the message to every live subscriber of the
// conversation.
func (t *RedisTransport) Publish(ctx context.Context, conversationID string, msg models.Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message %s: %w", msg.ID, err)
	}
	if err := t.Client.Publish(ctx, channelFor(conversationID), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish message %s: %w", msg.ID, err)
	}
	return nil
}

// Subscribe opens a pub/sub subscription for the conversation. The returned
// cancel function closes the subscription, which in turn closes the channel.
func (t *RedisTransport) Subscribe(ctx context.Context, conversationID string) (<-chan models.Message, func(), error) {
	pubsub := t.Client.Subscribe(ctx, channelFor(conversationID))

	// Force the subscription to be established before we report success.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("failed to subscribe to conversation %s: %w", conversationID, err)
	}

	out := make(chan models.Message, 16)
	go func() {
		defer close(out)
		logger := utils.GetLogger()
		for raw := range pubsub.Channel() {
			var msg models.Message
			if err := json.Unmarshal([]byte(raw.Payload), &msg); err != nil {
				logger.Warn("dropping undecodable chat payload",
					zap.String("conversation_id", conversationID), zap.Error(err))
				continue
			}
			out <- msg
		}
	}()

	cancel := func() { _ = pubsub.Close() }
	return out, cancel, nil
}
