package booking

import (
	"context"
	"encoding/json"
	"time"

	bookingRepo "github.com/xiao99xiao/bookme-sub003/database/repository/booking"
	catalogRepo "github.com/xiao99xiao/bookme-sub003/database/repository/catalog"
	rescheduleRepo "github.com/xiao99xiao/bookme-sub003/database/repository/reschedule"
	reviewRepo "github.com/xiao99xiao/bookme-sub003/database/repository/review"
	"github.com/xiao99xiao/bookme-sub003/models"
	"github.com/xiao99xiao/bookme-sub003/services/notification"
	"github.com/xiao99xiao/bookme-sub003/services/settlement"
	"github.com/xiao99xiao/bookme-sub003/utils"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	detailCacheTTL    = 10 * time.Minute
	detailCachePrefix = "booking:detail:"

	// platformFeePercent is the platform's cut of a booking's price.
	platformFeePercent = 10
)

// DefaultLifecycleService is the production LifecycleService implementation.
type DefaultLifecycleService struct {
	Repo        bookingRepo.BookingRepository
	Reschedules rescheduleRepo.RescheduleRepository
	Catalog     catalogRepo.CatalogRepository
	Reviews     reviewRepo.ReviewRepository
	Settlement  settlement.SettlementService
	Notifier    notification.NotificationService
	Tasks       TaskScheduler
	Cache       *redis.Client

	// RescheduleWindow is how long a reschedule request stays pending.
	RescheduleWindow time.Duration

	// Now is injectable for deterministic policy evaluation in tests.
	Now func() time.Time

	Logger *zap.Logger
}

func (s *DefaultLifecycleService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *DefaultLifecycleService) logger() *zap.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return utils.GetLogger()
}

// Create records a successful checkout as a new booking in pending (or paid)
// status, deriving price, duration and location from the service offering.
func (s *DefaultLifecycleService) Create(ctx context.Context, input CreateBookingInput) (*models.BookingDetail, error) {
	if input.ServiceID == "" || input.CustomerID == "" {
		return nil, newError(CodeValidation, "service_id and customer_id are required")
	}
	if !input.ScheduledAt.After(s.now()) {
		return nil, newError(CodeValidation, "scheduled_at must be in the future")
	}

	svc, err := s.Catalog.GetService(input.ServiceID)
	if err != nil {
		if err == catalogRepo.ErrNotFound {
			return nil, newError(CodeNotFound, "service %s not found", input.ServiceID)
		}
		return nil, err
	}
	if svc.ProviderID == input.CustomerID {
		return nil, newError(CodeValidation, "cannot book your own service")
	}

	status := models.BookingStatusPending
	if input.Paid {
		status = models.BookingStatusPaid
	}

	b := &models.Booking{
		ID:              uuid.New().String(),
		ServiceID:       svc.ID,
		ProviderID:      svc.ProviderID,
		CustomerID:      input.CustomerID,
		Status:          status,
		ScheduledAt:     input.ScheduledAt,
		DurationMinutes: svc.DurationMinutes,
		TotalPrice:      svc.Price,
		ServiceFee:      svc.Price * platformFeePercent / 100,
		IsOnline:        svc.IsOnline,
		Location:        svc.Location,
		CustomerNotes:   input.CustomerNotes,
		PaymentIntentID: input.PaymentIntentID,
	}
	if err := s.Repo.Create(b); err != nil {
		return nil, err
	}

	s.notifyStatus(ctx, b)
	return s.buildDetail(b), nil
}

// GetDetail returns the booking joined with its service and party summaries,
// served from the Redis cache when warm.
func (s *DefaultLifecycleService) GetDetail(ctx context.Context, bookingID string) (*models.BookingDetail, error) {
	if s.Cache != nil {
		if data, err := s.Cache.Get(ctx, detailCachePrefix+bookingID).Result(); err == nil {
			var detail models.BookingDetail
			if err := json.Unmarshal([]byte(data), &detail); err == nil {
				return &detail, nil
			}
		}
	}

	b, err := s.getBooking(bookingID)
	if err != nil {
		return nil, err
	}
	detail := s.buildDetail(b)

	if s.Cache != nil {
		if data, err := json.Marshal(detail); err == nil {
			if err := s.Cache.Set(ctx, detailCachePrefix+bookingID, data, detailCacheTTL).Err(); err != nil {
				s.logger().Warn("failed to cache booking detail", zap.String("booking_id", bookingID), zap.Error(err))
			}
		}
	}
	return detail, nil
}

// List returns the user's bookings for the given marketplace side.
func (s *DefaultLifecycleService) List(ctx context.Context, userID string, role models.Role) ([]models.Booking, error) {
	switch role {
	case models.RoleHost:
		return s.Repo.ListByProvider(userID)
	case models.RoleVisitor:
		return s.Repo.ListByCustomer(userID)
	default:
		return nil, newError(CodeValidation, "unrecognized role %q", role)
	}
}

// Delete removes the booking row entirely. This is the admin correction
// path, distinct from cancellation: no policy, no audit record.
func (s *DefaultLifecycleService) Delete(ctx context.Context, bookingID string) error {
	if err := s.Repo.Delete(bookingID); err != nil {
		return s.mapRepoError(err)
	}
	s.invalidateDetail(ctx, bookingID)
	return nil
}

// SubmitReview records the customer's one-per-booking review of the provider.
func (s *DefaultLifecycleService) SubmitReview(ctx context.Context, bookingID, customerID string, rating int, comment string) (*models.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, newError(CodeValidation, "rating must be between 1 and 5")
	}

	b, err := s.getBooking(bookingID)
	if err != nil {
		return nil, err
	}
	if b.CustomerID != customerID {
		return nil, newError(CodeForbidden, "only the booking's customer may review it")
	}
	if b.Status != models.BookingStatusCompleted {
		return nil, newError(CodeConflict, "only completed bookings can be reviewed")
	}

	review := &models.Review{
		ID:         uuid.New().String(),
		BookingID:  b.ID,
		ServiceID:  b.ServiceID,
		CustomerID: b.CustomerID,
		ProviderID: b.ProviderID,
		Rating:     rating,
		Comment:    comment,
	}
	if err := s.Reviews.Create(review); err != nil {
		if err == reviewRepo.ErrAlreadyReviewed {
			return nil, newError(CodeConflict, "booking already reviewed")
		}
		return nil, err
	}
	return review, nil
}

func (s *DefaultLifecycleService) getBooking(id string) (*models.Booking, error) {
	b, err := s.Repo.GetByID(id)
	if err != nil {
		return nil, s.mapRepoError(err)
	}
	return b, nil
}

func (s *DefaultLifecycleService) mapRepoError(err error) error {
	switch err {
	case bookingRepo.ErrNotFound:
		return newError(CodeNotFound, "booking not found")
	case bookingRepo.ErrStatusConflict:
		return newError(CodeConflict, "booking status changed concurrently, reload and retry")
	default:
		return err
	}
}

// buildDetail joins the booking with service and party summaries. Missing
// summaries are tolerated; the booking itself is the source of truth.
func (s *DefaultLifecycleService) buildDetail(b *models.Booking) *models.BookingDetail {
	detail := &models.BookingDetail{Booking: *b}
	if s.Catalog == nil {
		return detail
	}
	if svc, err := s.Catalog.GetService(b.ServiceID); err == nil {
		detail.Service = svc
	}
	if provider, err := s.Catalog.GetUser(b.ProviderID); err == nil {
		detail.Provider = provider
	}
	if customer, err := s.Catalog.GetUser(b.CustomerID); err == nil {
		detail.Customer = customer
	}
	return detail
}

func (s *DefaultLifecycleService) invalidateDetail(ctx context.Context, bookingID string) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Del(ctx, detailCachePrefix+bookingID).Err(); err != nil {
		s.logger().Warn("failed to invalidate booking detail cache",
			zap.String("booking_id", bookingID), zap.Error(err))
	}
}

func (s *DefaultLifecycleService) notifyStatus(ctx context.Context, b *models.Booking) {
	if s.Notifier == nil {
		return
	}
	go func(b models.Booking) {
		if err := s.Notifier.NotifyBookingStatus(context.WithoutCancel(ctx), &b); err != nil {
			s.logger().Warn("booking status notification failed",
				zap.String("booking_id", b.ID), zap.Error(err))
		}
	}(*b)
}
