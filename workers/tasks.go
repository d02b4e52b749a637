package workers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/xiao99xiao/bookme-sub003/config"

	"github.com/hibiken/asynq"
)

const (
	TypeRescheduleExpire = "reschedule:expire"
	TypeBookingStart     = "booking:start"
)

type rescheduleExpirePayload struct {
	RequestID string `json:"request_id"`
}

type bookingStartPayload struct {
	BookingID string `json:"booking_id"`
}

func redisOpts() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisTaskDB,
	}
}

// AsynqScheduler enqueues the lifecycle's delayed jobs. It implements
// booking.TaskScheduler.
type AsynqScheduler struct {
	client *asynq.Client
}

func NewAsynqScheduler() *AsynqScheduler {
	return &AsynqScheduler{client: asynq.NewClient(redisOpts())}
}

// ScheduleRescheduleExpiry enqueues the expiry of a pending reschedule
// request at the end of its window.
func (s *AsynqScheduler) ScheduleRescheduleExpiry(requestID string, at time.Time) error {
	payload, err := json.Marshal(rescheduleExpirePayload{RequestID: requestID})
	if err != nil {
		return fmt.Errorf("marshal reschedule expiry payload: %w", err)
	}
	task := asynq.NewTask(TypeRescheduleExpire, payload)
	if _, err := s.client.Enqueue(task, asynq.ProcessAt(at)); err != nil {
		return fmt.Errorf("enqueue reschedule expiry: %w", err)
	}
	return nil
}

// ScheduleBookingStart enqueues the confirmed -> in_progress auto-transition
// at the booking's start time.
func (s *AsynqScheduler) ScheduleBookingStart(bookingID string, at time.Time) error {
	payload, err := json.Marshal(bookingStartPayload{BookingID: bookingID})
	if err != nil {
		return fmt.Errorf("marshal booking start payload: %w", err)
	}
	task := asynq.NewTask(TypeBookingStart, payload)
	if _, err := s.client.Enqueue(task, asynq.ProcessAt(at)); err != nil {
		return fmt.Errorf("enqueue booking start: %w", err)
	}
	return nil
}

// Close releases the underlying asynq client.
func (s *AsynqScheduler) Close() error {
	return s.client.Close()
}
