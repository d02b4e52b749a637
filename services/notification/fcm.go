package notification

import (
	"context"
	"fmt"

	catalogRepo "github.com/xiao99xiao/bookme-sub003/database/repository/catalog"
	"github.com/xiao99xiao/bookme-sub003/models"
	"github.com/xiao99xiao/bookme-sub003/utils"

	"firebase.google.com/go/v4/messaging"
)

// DefaultNotificationService sends pushes through Firebase Cloud Messaging,
// looking up device tokens in the user catalog.
type DefaultNotificationService struct {
	Catalog catalogRepo.CatalogRepository
}

func NewDefaultNotificationService(catalog catalogRepo.CatalogRepository) (*DefaultNotificationService, error) {
	if catalog == nil {
		return nil, fmt.Errorf("notification service initialization error: catalog repository is nil")
	}
	return &DefaultNotificationService{Catalog: catalog}, nil
}

// NotifyBookingStatus pushes the new status to both booking parties.
func (s *DefaultNotificationService) NotifyBookingStatus(ctx context.Context, b *models.Booking) error {
	title := "Booking update"
	body := fmt.Sprintf("Your booking is now %s", b.Status)
	data := map[string]string{
		"type":       "booking_status",
		"booking_id": b.ID,
		"status":     b.Status.String(),
	}

	var firstErr error
	for _, userID := range []string{b.CustomerID, b.ProviderID} {
		if err := s.push(ctx, userID, title, body, data); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NotifyNewMessage pushes a chat notification to the recipient.
func (s *DefaultNotificationService) NotifyNewMessage(ctx context.Context, recipientID string, msg *models.Message) error {
	data := map[string]string{
		"type":            "chat_message",
		"conversation_id": msg.ConversationID,
		"message_id":      msg.ID,
	}
	return s.push(ctx, recipientID, "New message", msg.Content, data)
}

func (s *DefaultNotificationService) push(ctx context.Context, userID, title, body string, data map[string]string) error {
	if utils.FCMClient == nil {
		// Push notifications disabled; nothing to deliver.
		return nil
	}

	u, err := s.Catalog.GetUser(userID)
	if err != nil {
		return fmt.Errorf("push: could not find user %s: %w", userID, err)
	}
	if u.FCMToken == "" {
		return fmt.Errorf("push: user %s has no FCM token", userID)
	}

	message := &messaging.Message{
		Token: u.FCMToken,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}
	if _, err := utils.FCMClient.Send(ctx, message); err != nil {
		return fmt.Errorf("push: failed to send to user %s: %w", userID, err)
	}
	return nil
}
