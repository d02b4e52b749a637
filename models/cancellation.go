package models

import "time"

// CancellationPolicy describes one way a booking may be cancelled: who may
// use it, inside which time window, and how the money splits. Policies are
// evaluated against a booking at request time, never stored per booking.
type CancellationPolicy struct {
	ReasonKey               string `bson:"reason_key" json:"reason_key"`
	Title                   string `bson:"title" json:"title"`
	Description             string `bson:"description" json:"description"`
	Role                    Role   `bson:"role" json:"role"`
	CustomerRefundPercent   int    `bson:"customer_refund_percentage" json:"customer_refund_percentage"`
	ProviderEarningsPercent int    `bson:"provider_earnings_percentage" json:"provider_earnings_percentage"`
	PlatformFeePercent      int    `bson:"platform_fee_percentage" json:"platform_fee_percentage"`
	RequiresExplanation     bool   `bson:"requires_explanation" json:"requires_explanation"`
	MinMinutesUntilStart    int    `bson:"min_minutes_until_start" json:"min_minutes_until_start"`
	MaxMinutesUntilStart    int    `bson:"max_minutes_until_start" json:"max_minutes_until_start"` // 0 means unbounded
	MinutesUntilStart       int    `bson:"-" json:"minutes_until_start"`
}

// AppliesTo reports whether the policy window covers the given
// minutes-until-start. Negative minutes (booking already started) only
// match policies whose lower bound reaches below zero.
func (p CancellationPolicy) AppliesTo(minutesUntilStart int) bool {
	if minutesUntilStart < p.MinMinutesUntilStart {
		return false
	}
	if p.MaxMinutesUntilStart > 0 && minutesUntilStart >= p.MaxMinutesUntilStart {
		return false
	}
	return true
}

// RefundBreakdown holds the absolute split of a booking's total price for a
// selected cancellation policy. Amounts are in cents so the three parts sum
// exactly to the total; any rounding remainder lands in the platform fee.
type RefundBreakdown struct {
	PolicyKey             string `bson:"policy_key" json:"policy_key"`
	TotalCents            int64  `bson:"total_cents" json:"total_cents"`
	CustomerRefundCents   int64  `bson:"customer_refund_cents" json:"customer_refund_cents"`
	ProviderEarningsCents int64  `bson:"provider_earnings_cents" json:"provider_earnings_cents"`
	PlatformFeeCents      int64  `bson:"platform_fee_cents" json:"platform_fee_cents"`
}

// CancellationRecord is the audit row persisted atomically with a
// cancel-with-policy status change. Settlement reads it, the lifecycle
// manager only writes it.
type CancellationRecord struct {
	ID          string          `bson:"id" json:"id"`
	BookingID   string          `bson:"booking_id" json:"booking_id"`
	PolicyKey   string          `bson:"policy_key" json:"policy_key"`
	CancelledBy string          `bson:"cancelled_by" json:"cancelled_by"`
	Role        Role            `bson:"role" json:"role"`
	Explanation string          `bson:"explanation,omitempty" json:"explanation,omitempty"`
	Breakdown   RefundBreakdown `bson:"breakdown" json:"breakdown"`
	CreatedAt   time.Time       `bson:"created_at" json:"created_at"`
}
