package conversationRepo

import (
	"context"
	"fmt"
	"time"

	"github.com/xiao99xiao/bookme-sub003/database"
	"github.com/xiao99xiao/bookme-sub003/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoConversationRepo implements ConversationRepository using MongoDB.
type MongoConversationRepo struct {
	coll     *mongo.Collection
	messages *mongo.Collection
}

// NewMongoConversationRepo creates a new instance of ConversationRepository
// using MongoDB.
func NewMongoConversationRepo() ConversationRepository {
	repo := &MongoConversationRepo{
		coll:     database.Collection("conversations"),
		messages: database.Collection("messages"),
	}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create conversation indexes: %v\n", err)
	}
	return repo
}

func newContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func (r *MongoConversationRepo) ensureIndexes() error {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	convIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		// One conversation per normalized pair (and booking). Concurrent
		// get-or-create races resolve on this index.
		{
			Keys: bson.D{
				{Key: "participant_a", Value: 1},
				{Key: "participant_b", Value: 1},
				{Key: "booking_id", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, convIndexes); err != nil {
		return fmt.Errorf("failed to create conversation indexes: %w", err)
	}

	msgIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "conversation_id", Value: 1}, {Key: "created_at", Value: -1}}},
	}
	if _, err := r.messages.Indexes().CreateMany(ctx, msgIndexes); err != nil {
		return fmt.Errorf("failed to create message indexes: %w", err)
	}
	return nil
}

// GetOrCreate inserts the conversation; a duplicate-key error means another
// caller won the race, in which case the existing row is fetched instead.
func (r *MongoConversationRepo) GetOrCreate(conv *models.Conversation) (*models.Conversation, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	conv.ParticipantA, conv.ParticipantB = models.NormalizePair(conv.ParticipantA, conv.ParticipantB)
	pairFilter := bson.M{
		"participant_a": conv.ParticipantA,
		"participant_b": conv.ParticipantB,
		"booking_id":    conv.BookingID,
	}

	var existing models.Conversation
	err := r.coll.FindOne(ctx, pairFilter).Decode(&existing)
	if err == nil {
		return &existing, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("failed to look up conversation: %w", err)
	}

	conv.CreatedAt = time.Now()
	if _, err := r.coll.InsertOne(ctx, conv); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			if err := r.coll.FindOne(ctx, pairFilter).Decode(&existing); err != nil {
				return nil, fmt.Errorf("failed to fetch conversation after conflict: %w", err)
			}
			return &existing, nil
		}
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return conv, nil
}

// GetByID retrieves a conversation by its unique ID.
func (r *MongoConversationRepo) GetByID(id string) (*models.Conversation, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	var conv models.Conversation
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&conv); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch conversation %s: %w", id, err)
	}
	return &conv, nil
}

// ListByParticipant returns the user's conversations, most recently active first.
func (r *MongoConversationRepo) ListByParticipant(userID string) ([]models.Conversation, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	filter := bson.M{"$or": bson.A{
		bson.M{"participant_a": userID},
		bson.M{"participant_b": userID},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "last_message_at", Value: -1}})

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer cursor.Close(ctx)

	var convs []models.Conversation
	if err := cursor.All(ctx, &convs); err != nil {
		return nil, fmt.Errorf("failed to decode conversations: %w", err)
	}
	return convs, nil
}
