package booking

import (
	"context"
	"math"

	"github.com/xiao99xiao/bookme-sub003/models"
)

// computeBreakdown splits totalPrice (dollars) by the policy percentages in
// cents. Customer and provider shares round half-up; whatever remainder is
// left lands in the platform fee so the three parts always sum to the total.
func computeBreakdown(policy *models.CancellationPolicy, totalPrice float64) models.RefundBreakdown {
	totalCents := int64(math.Round(totalPrice * 100))

	customer := roundPercent(totalCents, policy.CustomerRefundPercent)
	provider := roundPercent(totalCents, policy.ProviderEarningsPercent)
	platform := totalCents - customer - provider

	return models.RefundBreakdown{
		PolicyKey:             policy.ReasonKey,
		TotalCents:            totalCents,
		CustomerRefundCents:   customer,
		ProviderEarningsCents: provider,
		PlatformFeeCents:      platform,
	}
}

func roundPercent(totalCents int64, percent int) int64 {
	return (totalCents*int64(percent) + 50) / 100
}

// ComputeRefundBreakdown resolves the policy key against the booking's
// currently-applicable policies (either role) and returns the cent-exact
// split of its total price.
func (s *DefaultLifecycleService) ComputeRefundBreakdown(ctx context.Context, bookingID, policyKey string) (*models.RefundBreakdown, error) {
	b, err := s.getBooking(bookingID)
	if err != nil {
		return nil, err
	}
	if !isCancellable(b.Status) {
		return nil, newError(CodeConflict, "booking in status %s can no longer be cancelled", b.Status)
	}

	minutes := int(b.ScheduledAt.Sub(s.now()).Minutes())
	for i := range defaultPolicies {
		p := defaultPolicies[i]
		if p.ReasonKey != policyKey || !p.AppliesTo(minutes) {
			continue
		}
		breakdown := computeBreakdown(&p, b.TotalPrice)
		return &breakdown, nil
	}
	return nil, newError(CodePolicyNotFound, "policy %q is not applicable to this booking", policyKey)
}
