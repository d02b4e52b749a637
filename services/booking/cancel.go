package booking

import (
	"context"
	"strings"

	"github.com/xiao99xiao/bookme-sub003/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// rejectPaidPolicy is the fixed full-refund policy applied when a host
// rejects a booking that was already paid but never confirmed. The host
// never rendered service, so the generic policy table does not apply.
var rejectPaidPolicy = models.CancellationPolicy{
	ReasonKey:               "host_reject_paid",
	Title:                   "Booking rejected",
	Description:             "The host rejected the paid booking; the visitor is refunded in full.",
	Role:                    models.RoleHost,
	CustomerRefundPercent:   100,
	ProviderEarningsPercent: 0,
	PlatformFeePercent:      0,
}

// CancelWithPolicy cancels the booking under the selected policy. The status
// change and the audit record persist atomically; the settlement intent is
// recorded after the transaction commits.
func (s *DefaultLifecycleService) CancelWithPolicy(ctx context.Context, bookingID, policyKey, actorID, explanation string) (*models.BookingDetail, error) {
	b, err := s.getBooking(bookingID)
	if err != nil {
		return nil, err
	}

	role, err := roleOf(b, actorID)
	if err != nil {
		return nil, err
	}

	policy, err := s.policyForBooking(ctx, b, role, policyKey)
	if err != nil {
		return nil, err
	}
	if policy.RequiresExplanation && strings.TrimSpace(explanation) == "" {
		return nil, newError(CodeExplanationRequired, "policy %q requires an explanation", policyKey)
	}

	breakdown := computeBreakdown(policy, b.TotalPrice)
	record := &models.CancellationRecord{
		ID:          uuid.New().String(),
		BookingID:   b.ID,
		PolicyKey:   policy.ReasonKey,
		CancelledBy: actorID,
		Role:        role,
		Explanation: strings.TrimSpace(explanation),
		Breakdown:   breakdown,
	}

	return s.cancelAndSettle(ctx, b, record)
}

// RejectPaidBooking handles the paid-but-unconfirmed special case: the
// booking moves to cancelled and the customer is refunded in full.
func (s *DefaultLifecycleService) RejectPaidBooking(ctx context.Context, bookingID, actorID, reason string) (*models.BookingDetail, error) {
	b, err := s.getBooking(bookingID)
	if err != nil {
		return nil, err
	}
	if actorID != b.ProviderID {
		return nil, newError(CodeForbidden, "only the booking's provider may reject it")
	}
	if b.Status != models.BookingStatusPaid {
		return nil, newError(CodeInvalidTransition, "only paid bookings can be rejected, booking is %s", b.Status)
	}

	breakdown := computeBreakdown(&rejectPaidPolicy, b.TotalPrice)
	record := &models.CancellationRecord{
		ID:          uuid.New().String(),
		BookingID:   b.ID,
		PolicyKey:   rejectPaidPolicy.ReasonKey,
		CancelledBy: actorID,
		Role:        models.RoleHost,
		Explanation: strings.TrimSpace(reason),
		Breakdown:   breakdown,
	}

	return s.cancelAndSettle(ctx, b, record)
}

func (s *DefaultLifecycleService) cancelAndSettle(ctx context.Context, b *models.Booking, record *models.CancellationRecord) (*models.BookingDetail, error) {
	if err := s.Repo.CancelWithRecord(ctx, b.ID, b.Status, s.now(), record); err != nil {
		return nil, s.mapRepoError(err)
	}

	updated, err := s.getBooking(b.ID)
	if err != nil {
		return nil, err
	}

	s.invalidateDetail(ctx, b.ID)
	s.notifyStatus(ctx, updated)

	if s.Settlement != nil {
		if err := s.Settlement.RecordRefund(ctx, updated, record); err != nil {
			// Settlement execution is an external collaborator; the audit
			// record already carries the intent.
			s.logger().Error("failed to record refund settlement",
				zap.String("booking_id", b.ID),
				zap.String("policy", record.PolicyKey),
				zap.Error(err))
		}
	}

	return s.buildDetail(updated), nil
}

// roleOf maps an acting user onto their marketplace role for the booking.
func roleOf(b *models.Booking, actorID string) (models.Role, error) {
	switch actorID {
	case b.ProviderID:
		return models.RoleHost, nil
	case b.CustomerID:
		return models.RoleVisitor, nil
	default:
		return "", newError(CodeForbidden, "user %s is not a participant of this booking", actorID)
	}
}
