package conversationRepo

import (
	"errors"
	"time"

	"github.com/xiao99xiao/bookme-sub003/models"
)

// ErrNotFound is returned when no conversation matches the given id.
var ErrNotFound = errors.New("conversation not found")

// ConversationRepository defines data access for conversations and their
// messages.
type ConversationRepository interface {
	// GetOrCreate inserts the conversation unless one already exists for the
	// same normalized participant pair (and booking, when set). The unique
	// index makes concurrent first calls converge on a single row: an insert
	// conflict is treated as the "get" path.
	GetOrCreate(conv *models.Conversation) (*models.Conversation, error)
	GetByID(id string) (*models.Conversation, error)
	ListByParticipant(userID string) ([]models.Conversation, error)

	InsertMessage(msg *models.Message) error
	// ListMessages returns up to limit messages in ascending created_at
	// order. With a cursor, only messages strictly older than it are
	// returned; without one, the most recent page.
	ListMessages(conversationID string, limit int, before *time.Time) ([]models.Message, error)
	// MarkRead flips is_read on every message in the conversation not sent
	// by readerID and reports how many were flipped.
	MarkRead(conversationID, readerID string) (int64, error)
}
