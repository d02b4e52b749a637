package catalogRepo

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

// MongoCatalogRepo implements CatalogRepository using MongoDB.
type MongoCatalogRepo struct {
	services *mongo.Collection
	users    *mongo.Collection
}

// NewMongoCatalogRepo creates a new instance of CatalogRepository using MongoDB.
func NewMongoCatalogRepo() CatalogRepository {
	repo := &MongoCatalogRepo{
		services: database.Collection("services"),
		users:    database.Collection("users"),
	}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create catalog indexes: %v\n", err)
	}
	return repo
}

func newContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func (r *MongoCatalogRepo) ensureIndexes() error {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	unique := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	if _, err := r.services.Indexes().CreateMany(ctx, unique); err != nil {
		return fmt.Errorf("failed to create service indexes: %w", err)
	}
	if _, err := r.users.Indexes().CreateMany(ctx, unique); err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}
	return nil
}

// GetService retrieves a service summary by id.
func (r *MongoCatalogRepo) GetService(id string) (*models.ServiceSummary, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	var svc models.ServiceSummary
	if err := r.services.FindOne(ctx, bson.M{"id": id}).Decode(&svc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch service %s: %w", id, err)
	}
	return &svc, nil
}

// UpsertService writes a service summary.
func (r *MongoCatalogRepo) UpsertService(svc *models.ServiceSummary) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	opts := options.Replace().SetUpsert(true)
	if _, err := r.services.ReplaceOne(ctx, bson.M{"id": svc.ID}, svc, opts); err != nil {
		return fmt.Errorf("failed to upsert service %s: %w", svc.ID, err)
	}
	return nil
}

// GetUser retrieves a user summary by id.
func (r *MongoCatalogRepo) GetUser(id string) (*models.UserSummary, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	var user models.UserSummary
	if err := r.users.FindOne(ctx, bson.M{"id": id}).Decode(&user); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch user %s: %w", id, err)
	}
	return &user, nil
}

// UpsertUser writes a user summary.
func (r *MongoCatalogRepo) UpsertUser(user *models.UserSummary) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	opts := options.Replace().SetUpsert(true)
	if _, err := r.users.ReplaceOne(ctx, bson.M{"id": user.ID}, user, opts); err != nil {
		return fmt.Errorf("failed to upsert user %s: %w", user.ID, err)
	}
	return nil
}
