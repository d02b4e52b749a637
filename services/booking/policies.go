package booking

import (
	"context"
	"math"

	"github.com/xiao99xiao/bookme-sub003/models"
)

const minutesInTwelveHours = 12 * 60

// defaultPolicies is the cancellation policy catalog. Each entry's three
// percentages sum to 100. Visitors get better refunds the earlier they
// cancel; hosts may always cancel with a full customer refund but must
// explain themselves.
var defaultPolicies = []models.CancellationPolicy{
	{
		ReasonKey:               "visitor_early_cancel",
		Title:                   "Cancel in advance",
		Description:             "Cancelling more than 12 hours before the start returns the full amount.",
		Role:                    models.RoleVisitor,
		CustomerRefundPercent:   100,
		ProviderEarningsPercent: 0,
		PlatformFeePercent:      0,
		MinMinutesUntilStart:    minutesInTwelveHours,
	},
	{
		ReasonKey:               "visitor_standard_cancel",
		Title:                   "Cancel within 12 hours",
		Description:             "Cancelling inside the 12-hour window returns half; the host keeps most of the rest.",
		Role:                    models.RoleVisitor,
		CustomerRefundPercent:   50,
		ProviderEarningsPercent: 40,
		PlatformFeePercent:      10,
		MinMinutesUntilStart:    60,
		MaxMinutesUntilStart:    minutesInTwelveHours,
	},
	{
		ReasonKey:               "visitor_late_cancel",
		Title:                   "Last-minute cancellation",
		Description:             "Cancelling less than an hour before the start forfeits the payment.",
		Role:                    models.RoleVisitor,
		CustomerRefundPercent:   0,
		ProviderEarningsPercent: 90,
		PlatformFeePercent:      10,
		MinMinutesUntilStart:    0,
		MaxMinutesUntilStart:    60,
	},
	{
		ReasonKey:               "host_cancel",
		Title:                   "Host cancellation",
		Description:             "The host cancels and the visitor is refunded in full. An explanation is required.",
		Role:                    models.RoleHost,
		CustomerRefundPercent:   100,
		ProviderEarningsPercent: 0,
		PlatformFeePercent:      0,
		RequiresExplanation:     true,
		MinMinutesUntilStart:    math.MinInt32,
	},
}

// cancellableStatuses are the states a booking may be cancelled from via the
// policy flow.
func isCancellable(status models.BookingStatus) bool {
	switch status {
	case models.BookingStatusPending, models.BookingStatusPaid, models.BookingStatusConfirmed:
		return true
	default:
		return false
	}
}

// EvaluateCancellationPolicies returns the applicable policy set for the
// acting role, ordered as in the catalog, each annotated with the booking's
// current minutes-until-start.
func (s *DefaultLifecycleService) EvaluateCancellationPolicies(ctx context.Context, bookingID string, role models.Role) ([]models.CancellationPolicy, error) {
	if !role.IsValid() {
		return nil, newError(CodeValidation, "unrecognized role %q", role)
	}

	b, err := s.getBooking(bookingID)
	if err != nil {
		return nil, err
	}
	if !isCancellable(b.Status) {
		return nil, newError(CodeConflict, "booking in status %s can no longer be cancelled", b.Status)
	}

	minutes := int(b.ScheduledAt.Sub(s.now()).Minutes())

	var applicable []models.CancellationPolicy
	for _, p := range defaultPolicies {
		if p.Role != role || !p.AppliesTo(minutes) {
			continue
		}
		p.MinutesUntilStart = minutes
		applicable = append(applicable, p)
	}
	return applicable, nil
}

// policyForBooking resolves a policy key against the set currently
// applicable to the booking for the given role.
func (s *DefaultLifecycleService) policyForBooking(ctx context.Context, b *models.Booking, role models.Role, policyKey string) (*models.CancellationPolicy, error) {
	policies, err := s.EvaluateCancellationPolicies(ctx, b.ID, role)
	if err != nil {
		return nil, err
	}
	for i := range policies {
		if policies[i].ReasonKey == policyKey {
			return &policies[i], nil
		}
	}
	return nil, newError(CodePolicyNotFound, "policy %q is not applicable to this booking", policyKey)
}
