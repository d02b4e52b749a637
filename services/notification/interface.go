package notification

import (
	"context"

	"github.com/xiao99xiao/bookme-sub003/models"
)

// NotificationService defines methods for sending FCM pushes. Callers treat
// failures as log-only; a lost push never fails the triggering operation.
type NotificationService interface {
	// NotifyBookingStatus informs both parties that a booking changed.
	NotifyBookingStatus(ctx context.Context, booking *models.Booking) error
	// NotifyNewMessage pings the conversation counterparty about a new
	// chat message.
	NotifyNewMessage(ctx context.Context, recipientID string, msg *models.Message) error
}
