package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"github.com/xiao99xiao/bookme-sub003/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// CancelWithRecord moves the booking to cancelled and inserts the
// cancellation audit record in one multi-document transaction. A booking
// must never end up cancelled without its recorded breakdown, nor the other
// way round.
func (r *MongoBookingRepo) CancelWithRecord(
	ctx context.Context,
	bookingID string,
	from models.BookingStatus,
	at time.Time,
	record *models.CancellationRecord,
) error {
	client := r.coll.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	txnFn := func(sc mongo.SessionContext) error {
		filter := bson.M{"id": bookingID, "status": from}
		update := bson.M{"$set": bson.M{
			"status":       models.BookingStatusCancelled,
			"cancelled_at": at,
			"updated_at":   at,
		}}

		res, err := r.coll.UpdateOne(sc, filter, update)
		if err != nil {
			return fmt.Errorf("cancel status update failed: %w", err)
		}
		if res.MatchedCount == 0 {
			return ErrStatusConflict
		}

		record.CreatedAt = at
		if _, err := r.recordsColl.InsertOne(sc, record); err != nil {
			return fmt.Errorf("insert cancellation record failed: %w", err)
		}
		return nil
	}

	if err := mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		if err := txnFn(sc); err != nil {
			_ = sc.AbortTransaction(sc)
			return err
		}
		return sc.CommitTransaction(sc)
	}); err != nil {
		if err == ErrStatusConflict {
			return err
		}
		return fmt.Errorf("cancellation transaction failed: %w", err)
	}

	return nil
}
