package rescheduleRepo

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

// MongoRescheduleRepo implements RescheduleRepository using MongoDB.
type MongoRescheduleRepo struct {
	coll *mongo.Collection
}

// NewMongoRescheduleRepo creates a new instance of RescheduleRepository using MongoDB.
func NewMongoRescheduleRepo() RescheduleRepository {
	repo := &MongoRescheduleRepo{coll: database.Collection("reschedule_requests")}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create reschedule indexes: %v\n", err)
	}
	return repo
}

func newContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func (r *MongoRescheduleRepo) ensureIndexes() error {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		// Partial unique index: at most one pending request per booking.
		{
			Keys: bson.D{{Key: "booking_id", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": models.RescheduleStatusPending}),
		},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// Create inserts a new pending reschedule request. A duplicate-key error on
// the partial index means an active request already exists.
func (r *MongoRescheduleRepo) Create(req *models.RescheduleRequest) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	req.CreatedAt = time.Now()
	if _, err := r.coll.InsertOne(ctx, req); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrActiveRequestExists
		}
		return fmt.Errorf("failed to create reschedule request: %w", err)
	}
	return nil
}

// GetByID retrieves a reschedule request by its unique ID.
func (r *MongoRescheduleRepo) GetByID(id string) (*models.RescheduleRequest, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	var req models.RescheduleRequest
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&req); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch reschedule request %s: %w", id, err)
	}
	return &req, nil
}

// ListByBooking returns all requests for a booking, newest first.
func (r *MongoRescheduleRepo) ListByBooking(bookingID string) ([]models.RescheduleRequest, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{"booking_id": bookingID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list reschedule requests: %w", err)
	}
	defer cursor.Close(ctx)

	var reqs []models.RescheduleRequest
	if err := cursor.All(ctx, &reqs); err != nil {
		return nil, fmt.Errorf("failed to decode reschedule requests: %w", err)
	}
	return reqs, nil
}

// Resolve moves a pending request to a terminal status via compare-and-set,
// so two parties racing to resolve cannot both win.
func (r *MongoRescheduleRepo) Resolve(id string, to models.RescheduleStatus) (*models.RescheduleRequest, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	now := time.Now()
	filter := bson.M{"id": id, "status": models.RescheduleStatusPending}
	update := bson.M{"$set": bson.M{"status": to, "resolved_at": now}}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.RescheduleRequest
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to resolve reschedule request %s: %w", id, err)
	}
	return &updated, nil
}
