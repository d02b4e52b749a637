package chat

import (
	"context"

	"github.com/xiao99xiao/bookme-sub003/models"
)

// Transport is the publish/subscribe channel carrying live messages, keyed
// by conversation id. The service publishes after persisting; subscribers
// deduplicate by message id because the sender receives its own message back
// and a resubscribe may redeliver.
type Transport interface {
	Publish(ctx context.Context, conversationID string, msg models.Message) error
	// Subscribe returns a channel of live messages for the conversation and
	// a cancel function that terminates the subscription and closes the
	// channel.
	Subscribe(ctx context.Context, conversationID string) (<-chan models.Message, func(), error)
}

// Sender is the request/response path used for outgoing messages; the
// DefaultChatService satisfies it. Sessions send through it and receive
// echoes through the Transport.
type Sender interface {
	SendMessage(ctx context.Context, conversationID, senderID, content string) (*models.Message, error)
}
