package workers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/xiao99xiao/bookme-sub003/services/booking"
	"github.com/xiao99xiao/bookme-sub003/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// InitLifecycleWorker runs the background task worker. It processes the
// delayed jobs the lifecycle service enqueues: reschedule-window expiries
// and booking auto-starts.
func InitLifecycleWorker(svc booking.LifecycleService) {
	logger := utils.GetLogger().Named("worker")

	srv := asynq.NewServer(
		redisOpts(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeRescheduleExpire, handleRescheduleExpire(svc, logger))
	mux.HandleFunc(TypeBookingStart, handleBookingStart(svc, logger))

	go func() {
		logger.Info("starting lifecycle worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				logger.Error("worker failed to start",
					zap.Int("attempt", attempts), zap.Int("max", maxAttempts), zap.Error(err))

				if attempts == maxAttempts {
					logger.Fatal("max worker start attempts reached")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second)
			} else {
				break
			}
		}
	}()
}

func handleRescheduleExpire(svc booking.LifecycleService, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p rescheduleExpirePayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Error("invalid reschedule expiry payload", zap.Error(err))
			return err
		}

		// Requests resolved within the window come back as a no-op, so
		// any error here is worth retrying.
		if err := svc.ExpireReschedule(ctx, p.RequestID); err != nil {
			logger.Error("failed to expire reschedule request",
				zap.String("request_id", p.RequestID), zap.Error(err))
			return err
		}

		logger.Info("reschedule request expiry processed", zap.String("request_id", p.RequestID))
		return nil
	}
}

func handleBookingStart(svc booking.LifecycleService, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p bookingStartPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Error("invalid booking start payload", zap.Error(err))
			return err
		}

		// Bookings cancelled or rescheduled after enqueue come back as a
		// no-op.
		if err := svc.StartBooking(ctx, p.BookingID); err != nil {
			logger.Error("failed to start booking",
				zap.String("booking_id", p.BookingID), zap.Error(err))
			return err
		}

		logger.Info("booking start processed", zap.String("booking_id", p.BookingID))
		return nil
	}
}
