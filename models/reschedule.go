package models

import "time"

// RescheduleStatus enumerates the states of a reschedule request.
type RescheduleStatus string

const (
	RescheduleStatusPending   RescheduleStatus = "pending"
	RescheduleStatusApproved  RescheduleStatus = "approved"
	RescheduleStatusRejected  RescheduleStatus = "rejected"
	RescheduleStatusWithdrawn RescheduleStatus = "withdrawn"
	RescheduleStatusExpired   RescheduleStatus = "expired"
)

// RescheduleRequest proposes a new scheduled_at for a booking. At most one
// pending request may exist per booking; the counterparty resolves it, the
// creator may withdraw it, and unresolved requests expire automatically.
type RescheduleRequest struct {
	ID                  string           `bson:"id" json:"id"`
	BookingID           string           `bson:"booking_id" json:"booking_id"`
	RequesterID         string           `bson:"requester_id" json:"requester_id"`
	RequesterRole       Role             `bson:"requester_role" json:"requester_role"`
	ProposedScheduledAt time.Time        `bson:"proposed_scheduled_at" json:"proposed_scheduled_at"`
	Reason              string           `bson:"reason,omitempty" json:"reason,omitempty"`
	Status              RescheduleStatus `bson:"status" json:"status"`
	ExpiresAt           time.Time        `bson:"expires_at" json:"expires_at"`
	CreatedAt           time.Time        `bson:"created_at" json:"created_at"`
	ResolvedAt          *time.Time       `bson:"resolved_at,omitempty" json:"resolved_at,omitempty"`
}
