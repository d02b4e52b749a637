package booking

import (
	"context"

	"github.com/xiao99xiao/bookme-sub003/models"

	"go.uber.org/zap"
)

// transitions is the single source of truth for the lifecycle graph.
// Terminal states (declined, cancelled, completed) admit nothing.
var transitions = map[models.BookingStatus][]models.BookingStatus{
	models.BookingStatusPending: {
		models.BookingStatusConfirmed,
		models.BookingStatusDeclined,
		models.BookingStatusCancelled,
	},
	models.BookingStatusPaid: {
		models.BookingStatusConfirmed,
		models.BookingStatusCancelled,
	},
	models.BookingStatusConfirmed: {
		models.BookingStatusInProgress,
		models.BookingStatusCancelled,
	},
	models.BookingStatusInProgress: {
		models.BookingStatusCompleted,
	},
}

// canTransition reports whether to is reachable from from in one step.
func canTransition(from, to models.BookingStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// timestampField names the side-effect timestamp stamped by a transition
// into the given status, or "" when the transition has none (in_progress).
func timestampField(to models.BookingStatus) string {
	switch to {
	case models.BookingStatusConfirmed:
		return "confirmed_at"
	case models.BookingStatusDeclined:
		return "declined_at"
	case models.BookingStatusCancelled:
		return "cancelled_at"
	case models.BookingStatusCompleted:
		return "completed_at"
	default:
		return ""
	}
}

// Transition validates and applies a status change on behalf of actorID.
func (s *DefaultLifecycleService) Transition(ctx context.Context, bookingID string, newStatus models.BookingStatus, actorID string) (*models.BookingDetail, error) {
	if !newStatus.IsValid() {
		return nil, newError(CodeInvalidStatus, "unrecognized status %q", newStatus)
	}

	b, err := s.getBooking(bookingID)
	if err != nil {
		return nil, err
	}

	if !canTransition(b.Status, newStatus) {
		return nil, newError(CodeInvalidTransition, "cannot move booking from %s to %s", b.Status, newStatus)
	}
	if err := s.authorizeTransition(b, newStatus, actorID); err != nil {
		return nil, err
	}

	updated, err := s.applyTransition(b, newStatus)
	if err != nil {
		return nil, err
	}

	s.invalidateDetail(ctx, bookingID)
	s.notifyStatus(ctx, updated)

	if newStatus == models.BookingStatusConfirmed && s.Tasks != nil {
		if err := s.Tasks.ScheduleBookingStart(updated.ID, updated.ScheduledAt); err != nil {
			s.logger().Warn("failed to schedule booking start task",
				zap.String("booking_id", updated.ID), zap.Error(err))
		}
	}

	return s.buildDetail(updated), nil
}

// authorizeTransition enforces who may drive which transition: the provider
// accepts, declines, starts and completes; either party may cancel.
func (s *DefaultLifecycleService) authorizeTransition(b *models.Booking, to models.BookingStatus, actorID string) error {
	switch to {
	case models.BookingStatusConfirmed, models.BookingStatusDeclined,
		models.BookingStatusInProgress, models.BookingStatusCompleted:
		if actorID != b.ProviderID {
			return newError(CodeForbidden, "only the booking's provider may set status %s", to)
		}
	case models.BookingStatusCancelled:
		if actorID != b.ProviderID && actorID != b.CustomerID {
			return newError(CodeForbidden, "only a booking participant may cancel")
		}
	}
	return nil
}

// applyTransition performs the compare-and-set update and stamps the
// timestamp field.
func (s *DefaultLifecycleService) applyTransition(b *models.Booking, to models.BookingStatus) (*models.Booking, error) {
	updated, err := s.Repo.UpdateStatus(b.ID, b.Status, to, timestampField(to), s.now())
	if err != nil {
		return nil, s.mapRepoError(err)
	}
	return updated, nil
}

// StartBooking is the worker entry point for the confirmed -> in_progress
// auto-transition at scheduled_at. Bookings that were cancelled or
// rescheduled in the meantime are left alone.
func (s *DefaultLifecycleService) StartBooking(ctx context.Context, bookingID string) error {
	b, err := s.getBooking(bookingID)
	if err != nil {
		if ErrorCode(err) == CodeNotFound {
			return nil
		}
		return err
	}
	if b.Status != models.BookingStatusConfirmed {
		return nil
	}
	if b.ScheduledAt.After(s.now()) {
		// Rescheduled to a later time after the task was enqueued.
		return nil
	}

	if _, err := s.applyTransition(b, models.BookingStatusInProgress); err != nil {
		if ErrorCode(err) == CodeConflict {
			return nil
		}
		return err
	}
	s.invalidateDetail(ctx, bookingID)
	return nil
}
