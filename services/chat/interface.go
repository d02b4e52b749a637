package chat

import (
	"context"
	"time"

	"github.com/xiao99xiao/bookme-sub003/models"
)

// ChatService owns two-party conversations: get-or-create semantics,
// cursor pagination, sends with server-assigned ids and live fan-out, and
// read-state.
type ChatService interface {
	// GetOrCreateConversation is idempotent for an unordered participant
	// pair (optionally scoped to a booking): repeated and concurrent calls
	// converge on one conversation.
	GetOrCreateConversation(ctx context.Context, userA, userB, bookingID string) (*models.Conversation, error)
	// GetConversation fetches a conversation the user participates in.
	GetConversation(ctx context.Context, conversationID, userID string) (*models.Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]models.Conversation, error)
	// GetMessages returns up to limit messages ascending by created_at.
	// With before set, only strictly older messages (backward pagination);
	// without it, the most recent page.
	GetMessages(ctx context.Context, conversationID, userID string, limit int, before *time.Time) ([]models.Message, error)
	SendMessage(ctx context.Context, conversationID, senderID, content string) (*models.Message, error)
	// MarkAsRead flips is_read on every message not sent by userID. It is
	// fire-and-forget: failures are logged, never surfaced.
	MarkAsRead(ctx context.Context, conversationID, userID string)
}
