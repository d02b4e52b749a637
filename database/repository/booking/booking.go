package bookingRepo

import (
	"context"
	"errors"
	"time"

	"github.com/xiao99xiao/bookme-sub003/models"
)

// ErrNotFound is returned when no booking matches the given id.
var ErrNotFound = errors.New("booking not found")

// ErrStatusConflict is returned when a compare-and-set status update matched
// no document, i.e. the booking moved to another status concurrently.
var ErrStatusConflict = errors.New("booking status changed concurrently")

// BookingRepository defines the interface for booking data access.
type BookingRepository interface {
	Create(booking *models.Booking) error
	GetByID(id string) (*models.Booking, error)
	// UpdateStatus atomically moves a booking from one status to another and
	// stamps tsField (e.g. "confirmed_at") with the given time. It returns
	// the updated document, ErrStatusConflict when the booking is no longer
	// in the expected status, or ErrNotFound.
	UpdateStatus(id string, from, to models.BookingStatus, tsField string, at time.Time) (*models.Booking, error)
	UpdateScheduledAt(id string, scheduledAt time.Time) error
	Delete(id string) error
	ListByCustomer(customerID string) ([]models.Booking, error)
	ListByProvider(providerID string) ([]models.Booking, error)
	// CancelWithRecord performs the cancel transition and persists the audit
	// record in a single transaction: either both land or neither does.
	CancelWithRecord(ctx context.Context, bookingID string, from models.BookingStatus, at time.Time, record *models.CancellationRecord) error
}
