package booking

import (
	"context"
	"time"

	rescheduleRepo "github.com/xiao99xiao/bookme-sub003/database/repository/reschedule"
	"github.com/xiao99xiao/bookme-sub003/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestReschedule opens a pending reschedule request on behalf of either
// party. The persistence layer enforces at most one active request per
// booking; the request auto-expires after the configured window.
func (s *DefaultLifecycleService) RequestReschedule(ctx context.Context, bookingID, requesterID string, proposedAt time.Time, reason string) (*models.RescheduleRequest, error) {
	b, err := s.getBooking(bookingID)
	if err != nil {
		return nil, err
	}
	if !isCancellable(b.Status) {
		return nil, newError(CodeConflict, "booking in status %s can no longer be rescheduled", b.Status)
	}
	role, err := roleOf(b, requesterID)
	if err != nil {
		return nil, err
	}
	if !proposedAt.After(s.now()) {
		return nil, newError(CodeValidation, "proposed time must be in the future")
	}

	req := &models.RescheduleRequest{
		ID:                  uuid.New().String(),
		BookingID:           bookingID,
		RequesterID:         requesterID,
		RequesterRole:       role,
		ProposedScheduledAt: proposedAt,
		Reason:              reason,
		Status:              models.RescheduleStatusPending,
		ExpiresAt:           s.now().Add(s.RescheduleWindow),
	}
	if err := s.Reschedules.Create(req); err != nil {
		if err == rescheduleRepo.ErrActiveRequestExists {
			return nil, newError(CodeConflict, "an active reschedule request already exists for this booking")
		}
		return nil, err
	}

	if s.Tasks != nil {
		if err := s.Tasks.ScheduleRescheduleExpiry(req.ID, req.ExpiresAt); err != nil {
			s.logger().Warn("failed to schedule reschedule expiry task",
				zap.String("request_id", req.ID), zap.Error(err))
		}
	}

	return req, nil
}

// ResolveReschedule lets the counterparty approve or reject a pending
// request. Approval moves the booking's scheduled_at to the proposed time.
func (s *DefaultLifecycleService) ResolveReschedule(ctx context.Context, requestID, resolverID string, approve bool) (*models.RescheduleRequest, error) {
	req, err := s.getReschedule(requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != models.RescheduleStatusPending {
		return nil, newError(CodeConflict, "reschedule request is already %s", req.Status)
	}

	b, err := s.getBooking(req.BookingID)
	if err != nil {
		return nil, err
	}
	if _, err := roleOf(b, resolverID); err != nil {
		return nil, err
	}
	if resolverID == req.RequesterID {
		return nil, newError(CodeForbidden, "a reschedule request is resolved by the other party")
	}

	to := models.RescheduleStatusRejected
	if approve {
		to = models.RescheduleStatusApproved
	}
	resolved, err := s.Reschedules.Resolve(requestID, to)
	if err != nil {
		return nil, s.mapRescheduleError(err)
	}

	if approve {
		if err := s.Repo.UpdateScheduledAt(b.ID, req.ProposedScheduledAt); err != nil {
			return nil, s.mapRepoError(err)
		}
		s.invalidateDetail(ctx, b.ID)
		s.notifyStatus(ctx, b)
	}
	return resolved, nil
}

// WithdrawReschedule lets the creator take back a still-pending request.
func (s *DefaultLifecycleService) WithdrawReschedule(ctx context.Context, requestID, requesterID string) (*models.RescheduleRequest, error) {
	req, err := s.getReschedule(requestID)
	if err != nil {
		return nil, err
	}
	if req.RequesterID != requesterID {
		return nil, newError(CodeForbidden, "only the request's creator may withdraw it")
	}
	if req.Status != models.RescheduleStatusPending {
		return nil, newError(CodeConflict, "reschedule request is already %s", req.Status)
	}

	resolved, err := s.Reschedules.Resolve(requestID, models.RescheduleStatusWithdrawn)
	if err != nil {
		return nil, s.mapRescheduleError(err)
	}
	return resolved, nil
}

// ExpireReschedule marks an unresolved request expired. Requests resolved in
// the meantime are left alone; a vanished request is not an error.
func (s *DefaultLifecycleService) ExpireReschedule(ctx context.Context, requestID string) error {
	if _, err := s.Reschedules.Resolve(requestID, models.RescheduleStatusExpired); err != nil {
		if err == rescheduleRepo.ErrNotFound {
			return nil
		}
		return err
	}
	return nil
}

func (s *DefaultLifecycleService) getReschedule(id string) (*models.RescheduleRequest, error) {
	req, err := s.Reschedules.GetByID(id)
	if err != nil {
		return nil, s.mapRescheduleError(err)
	}
	return req, nil
}

func (s *DefaultLifecycleService) mapRescheduleError(err error) error {
	if err == rescheduleRepo.ErrNotFound {
		return newError(CodeNotFound, "reschedule request not found")
	}
	return err
}
