package booking

import (
	"context"
	"time"

	"github.com/xiao99xiao/bookme-sub003/models"
)

// CreateBookingInput carries the fields of a successful checkout. The
// booking enters the lifecycle as pending, or paid when the payment service
// already captured funds.
type CreateBookingInput struct {
	ServiceID       string    `json:"service_id"`
	CustomerID      string    `json:"customer_id"`
	ScheduledAt     time.Time `json:"scheduled_at"`
	CustomerNotes   string    `json:"customer_notes"`
	Paid            bool      `json:"paid"`
	PaymentIntentID string    `json:"payment_intent_id"`
}

// LifecycleService owns the booking status state machine and its
// cancellation/refund side effects.
type LifecycleService interface {
	Create(ctx context.Context, input CreateBookingInput) (*models.BookingDetail, error)
	GetDetail(ctx context.Context, bookingID string) (*models.BookingDetail, error)
	List(ctx context.Context, userID string, role models.Role) ([]models.Booking, error)
	Delete(ctx context.Context, bookingID string) error

	// Transition validates and applies a status change, stamping the single
	// corresponding side-effect timestamp exactly once.
	Transition(ctx context.Context, bookingID string, newStatus models.BookingStatus, actorID string) (*models.BookingDetail, error)

	// EvaluateCancellationPolicies returns the policies available to the
	// acting role given the booking's time-to-start. Deterministic in
	// (now, scheduled_at, role).
	EvaluateCancellationPolicies(ctx context.Context, bookingID string, role models.Role) ([]models.CancellationPolicy, error)
	ComputeRefundBreakdown(ctx context.Context, bookingID, policyKey string) (*models.RefundBreakdown, error)
	CancelWithPolicy(ctx context.Context, bookingID, policyKey, actorID, explanation string) (*models.BookingDetail, error)
	// RejectPaidBooking cancels a paid-but-unconfirmed booking with a full
	// customer refund, bypassing the generic policy table.
	RejectPaidBooking(ctx context.Context, bookingID, actorID, reason string) (*models.BookingDetail, error)

	RequestReschedule(ctx context.Context, bookingID, requesterID string, proposedAt time.Time, reason string) (*models.RescheduleRequest, error)
	ResolveReschedule(ctx context.Context, requestID, resolverID string, approve bool) (*models.RescheduleRequest, error)
	WithdrawReschedule(ctx context.Context, requestID, requesterID string) (*models.RescheduleRequest, error)
	// ExpireReschedule is invoked by the background worker once a request's
	// window has elapsed; it is a no-op if the request was resolved already.
	ExpireReschedule(ctx context.Context, requestID string) error
	// StartBooking is invoked by the background worker at scheduled_at and
	// moves a still-confirmed booking into in_progress.
	StartBooking(ctx context.Context, bookingID string) error

	SubmitReview(ctx context.Context, bookingID, customerID string, rating int, comment string) (*models.Review, error)
}

// TaskScheduler enqueues the delayed jobs the lifecycle depends on. The
// asynq-backed implementation lives in the workers package.
type TaskScheduler interface {
	ScheduleRescheduleExpiry(requestID string, at time.Time) error
	ScheduleBookingStart(bookingID string, at time.Time) error
}
