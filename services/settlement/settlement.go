package settlement

import (
	"context"
	"fmt"

	"github.com/xiao99xiao/bookme-sub003/models"
	"github.com/xiao99xiao/bookme-sub003/utils"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/refund"
	"go.uber.org/zap"
)

// SettlementService is triggered after a refund breakdown has been computed
// and recorded. Its responsibility ends at initiating the refund intent;
// reconciliation lives with the payment provider.
type SettlementService interface {
	RecordRefund(ctx context.Context, booking *models.Booking, record *models.CancellationRecord) error
}

// StripeSettlement executes customer refunds against the booking's payment
// intent. Provider earnings and platform fees settle through the regular
// payout schedule and need no action here.
type StripeSettlement struct{}

func NewStripeSettlement() *StripeSettlement {
	return &StripeSettlement{}
}

func (s *StripeSettlement) RecordRefund(ctx context.Context, booking *models.Booking, record *models.CancellationRecord) error {
	if record.Breakdown.CustomerRefundCents == 0 {
		return nil
	}
	if booking.PaymentIntentID == "" {
		return fmt.Errorf("settlement: booking %s has no payment intent to refund against", booking.ID)
	}

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(booking.PaymentIntentID),
		Amount:        stripe.Int64(record.Breakdown.CustomerRefundCents),
		Metadata: map[string]string{
			"booking_id": booking.ID,
			"policy_key": record.PolicyKey,
		},
	}
	if _, err := refund.New(params); err != nil {
		return fmt.Errorf("settlement: stripe refund for booking %s failed: %w", booking.ID, err)
	}
	return nil
}

// LogSettlement is used when no Stripe key is configured: the intent is
// already recorded in the cancellation audit row, so we only log it for
// manual settlement.
type LogSettlement struct{}

func NewLogSettlement() *LogSettlement {
	return &LogSettlement{}
}

func (s *LogSettlement) RecordRefund(ctx context.Context, booking *models.Booking, record *models.CancellationRecord) error {
	utils.GetLogger().Info("refund intent recorded, settlement deferred",
		zap.String("booking_id", booking.ID),
		zap.String("policy", record.PolicyKey),
		zap.Int64("customer_refund_cents", record.Breakdown.CustomerRefundCents))
	return nil
}
