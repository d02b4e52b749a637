package rescheduleRepo

import (
	"errors"

	"github.com/xiao99xiao/bookme-sub003/models"
)

// ErrNotFound is returned when no reschedule request matches the given id.
var ErrNotFound = errors.New("reschedule request not found")

// ErrActiveRequestExists is returned when a booking already carries a
// pending request; at most one may be active at a time.
var ErrActiveRequestExists = errors.New("an active reschedule request already exists for this booking")

// RescheduleRepository defines data access for reschedule requests.
type RescheduleRepository interface {
	Create(req *models.RescheduleRequest) error
	GetByID(id string) (*models.RescheduleRequest, error)
	ListByBooking(bookingID string) ([]models.RescheduleRequest, error)
	// Resolve moves a pending request into a terminal status. It fails with
	// ErrNotFound when the request is absent or no longer pending.
	Resolve(id string, to models.RescheduleStatus) (*models.RescheduleRequest, error)
}
