package catalogRepo

import (
	"errors"

	"github.com/xiao99xiao/bookme-sub003/models"
)

// ErrNotFound is returned when a service or user summary is absent.
var ErrNotFound = errors.New("catalog entry not found")

// CatalogRepository exposes the service offerings and user summaries joined
// onto bookings and conversations. Profile management itself lives outside
// this service; we only read the mirrored display fields.
type CatalogRepository interface {
	GetService(id string) (*models.ServiceSummary, error)
	UpsertService(svc *models.ServiceSummary) error
	GetUser(id string) (*models.UserSummary, error)
	UpsertUser(user *models.UserSummary) error
}
