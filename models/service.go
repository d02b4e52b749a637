package models

import "time"

// ServiceSummary is the slice of a service offering joined onto bookings.
type ServiceSummary struct {
	ID              string  `bson:"id" json:"id"`
	ProviderID      string  `bson:"provider_id" json:"provider_id"`
	Title           string  `bson:"title" json:"title"`
	DurationMinutes int     `bson:"duration_minutes" json:"duration_minutes"`
	Price           float64 `bson:"price" json:"price"`
	IsOnline        bool    `bson:"is_online" json:"is_online"`
	Location        string  `bson:"location,omitempty" json:"location,omitempty"`
}

// Review is the customer's one-per-booking rating of the provider.
type Review struct {
	ID         string    `bson:"id" json:"id"`
	BookingID  string    `bson:"booking_id" json:"booking_id"`
	ServiceID  string    `bson:"service_id" json:"service_id"`
	CustomerID string    `bson:"customer_id" json:"customer_id"`
	ProviderID string    `bson:"provider_id" json:"provider_id"`
	Rating     int       `bson:"rating" json:"rating"`
	Comment    string    `bson:"comment,omitempty" json:"comment,omitempty"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
}
