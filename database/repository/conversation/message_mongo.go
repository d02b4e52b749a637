package conversationRepo

import (
	"fmt"
	"time"

	"github.com/xiao99xiao/bookme-sub003/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// InsertMessage persists a message and bumps the conversation's
// last_message_at marker.
func (r *MongoConversationRepo) InsertMessage(msg *models.Message) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	if _, err := r.messages.InsertOne(ctx, msg); err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}

	update := bson.M{"$set": bson.M{"last_message_at": msg.CreatedAt}}
	if _, err := r.coll.UpdateOne(ctx, bson.M{"id": msg.ConversationID}, update); err != nil {
		return fmt.Errorf("failed to touch conversation %s: %w", msg.ConversationID, err)
	}
	return nil
}

// ListMessages fetches the newest messages first, then reverses so callers
// always see ascending created_at order. The before cursor selects strictly
// older messages for backward pagination.
func (r *MongoConversationRepo) ListMessages(conversationID string, limit int, before *time.Time) ([]models.Message, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	filter := bson.M{"conversation_id": conversationID}
	if before != nil {
		filter["created_at"] = bson.M{"$lt": *before}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.messages.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer cursor.Close(ctx)

	var msgs []models.Message
	if err := cursor.All(ctx, &msgs); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}

	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// MarkRead flips is_read on all messages not sent by readerID.
func (r *MongoConversationRepo) MarkRead(conversationID, readerID string) (int64, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	filter := bson.M{
		"conversation_id": conversationID,
		"sender_id":       bson.M{"$ne": readerID},
		"is_read":         false,
	}
	result, err := r.messages.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"is_read": true}})
	if err != nil {
		return 0, fmt.Errorf("failed to mark messages read: %w", err)
	}
	return result.ModifiedCount, nil
}
