package chat

import (
	"context"
	"strings"
	"time"

	conversationRepo "github.com/xiao99xiao/bookme-sub003/database/repository/conversation"
	"github.com/xiao99xiao/bookme-sub003/models"
	"github.com/xiao99xiao/bookme-sub003/services/notification"
	"github.com/xiao99xiao/bookme-sub003/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultPageSize = 50

// DefaultChatService is the production ChatService implementation.
type DefaultChatService struct {
	Repo      conversationRepo.ConversationRepository
	Transport Transport
	Notifier  notification.NotificationService

	// Now is injectable for deterministic ordering in tests.
	Now func() time.Time

	Logger *zap.Logger
}

func (s *DefaultChatService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *DefaultChatService) logger() *zap.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return utils.GetLogger()
}

// GetOrCreateConversation returns the one conversation for the unordered
// (userA, userB) pair, creating it on first call. The unique index at the
// persistence layer makes concurrent first calls converge on a single row.
func (s *DefaultChatService) GetOrCreateConversation(ctx context.Context, userA, userB, bookingID string) (*models.Conversation, error) {
	if userA == "" || userB == "" {
		return nil, newError(CodeValidation, "both participants are required")
	}
	if userA == userB {
		return nil, newError(CodeValidation, "cannot start a conversation with yourself")
	}

	a, b := models.NormalizePair(userA, userB)
	conv := &models.Conversation{
		ID:           uuid.New().String(),
		ParticipantA: a,
		ParticipantB: b,
		BookingID:    bookingID,
	}
	return s.Repo.GetOrCreate(conv)
}

// GetConversation fetches a conversation on behalf of a participant.
func (s *DefaultChatService) GetConversation(ctx context.Context, conversationID, userID string) (*models.Conversation, error) {
	conv, err := s.getConversation(conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, newError(CodeForbidden, "user is not a participant of this conversation")
	}
	return conv, nil
}

// ListConversations returns the user's conversations, most recently active first.
func (s *DefaultChatService) ListConversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	return s.Repo.ListByParticipant(userID)
}

// GetMessages serves both the initial load (no cursor, most recent page) and
// backward pagination (cursor set, strictly older messages).
func (s *DefaultChatService) GetMessages(ctx context.Context, conversationID, userID string, limit int, before *time.Time) ([]models.Message, error) {
	conv, err := s.getConversation(conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, newError(CodeForbidden, "user is not a participant of this conversation")
	}

	if limit <= 0 || limit > defaultPageSize {
		limit = defaultPageSize
	}
	return s.Repo.ListMessages(conversationID, limit, before)
}

// SendMessage persists the message with a server-assigned id and timestamp,
// then fans it out to live subscribers. A failed fan-out is not a failed
// send: the message is durable and will be seen on the next page load.
func (s *DefaultChatService) SendMessage(ctx context.Context, conversationID, senderID, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, newError(CodeValidation, "message content must not be empty")
	}

	conv, err := s.getConversation(conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(senderID) {
		return nil, newError(CodeForbidden, "user is not a participant of this conversation")
	}

	msg := &models.Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		CreatedAt:      s.now(),
	}
	if err := s.Repo.InsertMessage(msg); err != nil {
		return nil, err
	}

	if s.Transport != nil {
		if err := s.Transport.Publish(ctx, conversationID, *msg); err != nil {
			s.logger().Warn("failed to broadcast message",
				zap.String("message_id", msg.ID), zap.Error(err))
		}
	}

	s.notifyRecipient(ctx, conv, msg)
	return msg, nil
}

// MarkAsRead flips the read flag on everything the counterparty sent.
// Failures are logged only; the UI never waits on this.
func (s *DefaultChatService) MarkAsRead(ctx context.Context, conversationID, userID string) {
	if _, err := s.Repo.MarkRead(conversationID, userID); err != nil {
		s.logger().Warn("failed to mark conversation read",
			zap.String("conversation_id", conversationID),
			zap.String("user_id", userID),
			zap.Error(err))
	}
}

func (s *DefaultChatService) getConversation(id string) (*models.Conversation, error) {
	conv, err := s.Repo.GetByID(id)
	if err != nil {
		if err == conversationRepo.ErrNotFound {
			return nil, newError(CodeNotFound, "conversation not found")
		}
		return nil, err
	}
	return conv, nil
}

func (s *DefaultChatService) notifyRecipient(ctx context.Context, conv *models.Conversation, msg *models.Message) {
	if s.Notifier == nil {
		return
	}
	recipient := conv.ParticipantA
	if recipient == msg.SenderID {
		recipient = conv.ParticipantB
	}
	go func(recipient string, msg models.Message) {
		if err := s.Notifier.NotifyNewMessage(context.WithoutCancel(ctx), recipient, &msg); err != nil {
			s.logger().Warn("chat push notification failed",
				zap.String("message_id", msg.ID), zap.Error(err))
		}
	}(recipient, *msg)
}
