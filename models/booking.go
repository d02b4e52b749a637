package models

import "time"

// BookingStatus enumerates the lifecycle states of a booking.
type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "pending"
	BookingStatusPaid       BookingStatus = "paid"
	BookingStatusConfirmed  BookingStatus = "confirmed"
	BookingStatusDeclined   BookingStatus = "declined"
	BookingStatusInProgress BookingStatus = "in_progress"
	BookingStatusCompleted  BookingStatus = "completed"
	BookingStatusCancelled  BookingStatus = "cancelled"
)

func (s BookingStatus) String() string { return string(s) }

// IsValid reports whether s is one of the recognized status values.
func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingStatusPending, BookingStatusPaid, BookingStatusConfirmed,
		BookingStatusDeclined, BookingStatusInProgress,
		BookingStatusCompleted, BookingStatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transitions are allowed from s.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusDeclined || s == BookingStatusCancelled || s == BookingStatusCompleted
}

// Booking represents a booked service slot between a customer and a provider.
type Booking struct {
	ID              string        `bson:"id" json:"id"`
	ServiceID       string        `bson:"service_id" json:"service_id"`
	ProviderID      string        `bson:"provider_id" json:"provider_id"`
	CustomerID      string        `bson:"customer_id" json:"customer_id"`
	Status          BookingStatus `bson:"status" json:"status"`
	ScheduledAt     time.Time     `bson:"scheduled_at" json:"scheduled_at"`
	DurationMinutes int           `bson:"duration_minutes" json:"duration_minutes"`
	TotalPrice      float64       `bson:"total_price" json:"total_price"`
	ServiceFee      float64       `bson:"service_fee" json:"service_fee"`
	IsOnline        bool          `bson:"is_online" json:"is_online"`
	Location        string        `bson:"location,omitempty" json:"location,omitempty"`
	MeetingPlatform string        `bson:"meeting_platform,omitempty" json:"meeting_platform,omitempty"`
	MeetingLink     string        `bson:"meeting_link,omitempty" json:"meeting_link,omitempty"`
	CustomerNotes   string        `bson:"customer_notes,omitempty" json:"customer_notes,omitempty"`
	PaymentIntentID string        `bson:"payment_intent_id,omitempty" json:"payment_intent_id,omitempty"`

	// Side-effect timestamps. Each is set exactly once, at the moment the
	// corresponding transition occurs, and never edited afterwards.
	ConfirmedAt *time.Time `bson:"confirmed_at,omitempty" json:"confirmed_at,omitempty"`
	DeclinedAt  *time.Time `bson:"declined_at,omitempty" json:"declined_at,omitempty"`
	CancelledAt *time.Time `bson:"cancelled_at,omitempty" json:"cancelled_at,omitempty"`
	CompletedAt *time.Time `bson:"completed_at,omitempty" json:"completed_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// BookingDetail is a booking joined with summaries of its service and the
// two parties, returned by the status-transition endpoint.
type BookingDetail struct {
	Booking  Booking         `json:"booking"`
	Service  *ServiceSummary `json:"service,omitempty"`
	Provider *UserSummary    `json:"provider,omitempty"`
	Customer *UserSummary    `json:"customer,omitempty"`
}
