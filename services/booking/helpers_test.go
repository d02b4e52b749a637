package booking

import (
	"context"
	"sync"
	"time"

	bookingRepo "github.com/xiao99xiao/bookme-sub003/database/repository/booking"
	catalogRepo "github.com/xiao99xiao/bookme-sub003/database/repository/catalog"
	rescheduleRepo "github.com/xiao99xiao/bookme-sub003/database/repository/reschedule"
	reviewRepo "github.com/xiao99xiao/bookme-sub003/database/repository/review"
	"github.com/xiao99xiao/bookme-sub003/models"

	"go.uber.org/zap"
)

// testNow is the frozen clock every test service runs on.
var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[string]*models.Booking
	records  []*models.CancellationRecord
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[string]*models.Booking)}
}

func (r *fakeBookingRepo) Create(b *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *b
	r.bookings[b.ID] = &cp
	return nil
}

func (r *fakeBookingRepo) GetByID(id string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *fakeBookingRepo) UpdateStatus(id string, from, to models.BookingStatus, tsField string, at time.Time) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrNotFound
	}
	if b.Status != from {
		return nil, bookingRepo.ErrStatusConflict
	}
	b.Status = to
	b.UpdatedAt = at
	stampTimestamp(b, tsField, at)
	cp := *b
	return &cp, nil
}

func stampTimestamp(b *models.Booking, tsField string, at time.Time) {
	switch tsField {
	case "confirmed_at":
		b.ConfirmedAt = &at
	case "declined_at":
		b.DeclinedAt = &at
	case "cancelled_at":
		b.CancelledAt = &at
	case "completed_at":
		b.CompletedAt = &at
	}
}

func (r *fakeBookingRepo) UpdateScheduledAt(id string, scheduledAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return bookingRepo.ErrNotFound
	}
	b.ScheduledAt = scheduledAt
	return nil
}

func (r *fakeBookingRepo) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[id]; !ok {
		return bookingRepo.ErrNotFound
	}
	delete(r.bookings, id)
	return nil
}

func (r *fakeBookingRepo) ListByCustomer(customerID string) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.bookings {
		if b.CustomerID == customerID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) ListByProvider(providerID string) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.bookings {
		if b.ProviderID == providerID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) CancelWithRecord(ctx context.Context, bookingID string, from models.BookingStatus, at time.Time, record *models.CancellationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[bookingID]
	if !ok {
		return bookingRepo.ErrNotFound
	}
	if b.Status != from {
		return bookingRepo.ErrStatusConflict
	}
	b.Status = models.BookingStatusCancelled
	b.CancelledAt = &at
	b.UpdatedAt = at
	cp := *record
	r.records = append(r.records, &cp)
	return nil
}

type fakeRescheduleRepo struct {
	mu       sync.Mutex
	requests map[string]*models.RescheduleRequest
}

func newFakeRescheduleRepo() *fakeRescheduleRepo {
	return &fakeRescheduleRepo{requests: make(map[string]*models.RescheduleRequest)}
}

func (r *fakeRescheduleRepo) Create(req *models.RescheduleRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.requests {
		if existing.BookingID == req.BookingID && existing.Status == models.RescheduleStatusPending {
			return rescheduleRepo.ErrActiveRequestExists
		}
	}
	cp := *req
	r.requests[req.ID] = &cp
	return nil
}

func (r *fakeRescheduleRepo) GetByID(id string) (*models.RescheduleRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, rescheduleRepo.ErrNotFound
	}
	cp := *req
	return &cp, nil
}

func (r *fakeRescheduleRepo) ListByBooking(bookingID string) ([]models.RescheduleRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.RescheduleRequest
	for _, req := range r.requests {
		if req.BookingID == bookingID {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (r *fakeRescheduleRepo) Resolve(id string, to models.RescheduleStatus) (*models.RescheduleRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok || req.Status != models.RescheduleStatusPending {
		return nil, rescheduleRepo.ErrNotFound
	}
	req.Status = to
	resolved := testNow
	req.ResolvedAt = &resolved
	cp := *req
	return &cp, nil
}

type fakeCatalogRepo struct {
	services map[string]*models.ServiceSummary
	users    map[string]*models.UserSummary
}

func newFakeCatalogRepo() *fakeCatalogRepo {
	return &fakeCatalogRepo{
		services: make(map[string]*models.ServiceSummary),
		users:    make(map[string]*models.UserSummary),
	}
}

func (r *fakeCatalogRepo) GetService(id string) (*models.ServiceSummary, error) {
	svc, ok := r.services[id]
	if !ok {
		return nil, catalogRepo.ErrNotFound
	}
	return svc, nil
}

func (r *fakeCatalogRepo) UpsertService(svc *models.ServiceSummary) error {
	r.services[svc.ID] = svc
	return nil
}

func (r *fakeCatalogRepo) GetUser(id string) (*models.UserSummary, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, catalogRepo.ErrNotFound
	}
	return user, nil
}

func (r *fakeCatalogRepo) UpsertUser(user *models.UserSummary) error {
	r.users[user.ID] = user
	return nil
}

type fakeReviewRepo struct {
	reviews []*models.Review
}

func (r *fakeReviewRepo) Create(review *models.Review) error {
	for _, existing := range r.reviews {
		if existing.BookingID == review.BookingID {
			return reviewRepo.ErrAlreadyReviewed
		}
	}
	r.reviews = append(r.reviews, review)
	return nil
}

func (r *fakeReviewRepo) ListByProvider(providerID string) ([]models.Review, error) {
	var out []models.Review
	for _, review := range r.reviews {
		if review.ProviderID == providerID {
			out = append(out, *review)
		}
	}
	return out, nil
}

type settleCall struct {
	booking *models.Booking
	record  *models.CancellationRecord
}

type fakeSettlement struct {
	mu    sync.Mutex
	calls []settleCall
}

func (s *fakeSettlement) RecordRefund(ctx context.Context, booking *models.Booking, record *models.CancellationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, settleCall{booking: booking, record: record})
	return nil
}

type fakeNotifier struct {
	mu             sync.Mutex
	statusNotices  int
	messageNotices int
}

func (n *fakeNotifier) NotifyBookingStatus(ctx context.Context, booking *models.Booking) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.statusNotices++
	return nil
}

func (n *fakeNotifier) NotifyNewMessage(ctx context.Context, recipientID string, msg *models.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messageNotices++
	return nil
}

type scheduledTask struct {
	id string
	at time.Time
}

type fakeTaskScheduler struct {
	mu       sync.Mutex
	starts   []scheduledTask
	expiries []scheduledTask
}

func (s *fakeTaskScheduler) ScheduleRescheduleExpiry(requestID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expiries = append(s.expiries, scheduledTask{id: requestID, at: at})
	return nil
}

func (s *fakeTaskScheduler) ScheduleBookingStart(bookingID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.starts = append(s.starts, scheduledTask{id: bookingID, at: at})
	return nil
}

// testEnv bundles a service wired onto in-memory fakes with a frozen clock.
type testEnv struct {
	svc         *DefaultLifecycleService
	bookings    *fakeBookingRepo
	reschedules *fakeRescheduleRepo
	catalog     *fakeCatalogRepo
	reviews     *fakeReviewRepo
	settlement  *fakeSettlement
	notifier    *fakeNotifier
	tasks       *fakeTaskScheduler
}

func newTestEnv() *testEnv {
	env := &testEnv{
		bookings:    newFakeBookingRepo(),
		reschedules: newFakeRescheduleRepo(),
		catalog:     newFakeCatalogRepo(),
		reviews:     &fakeReviewRepo{},
		settlement:  &fakeSettlement{},
		notifier:    &fakeNotifier{},
		tasks:       &fakeTaskScheduler{},
	}
	env.svc = &DefaultLifecycleService{
		Repo:             env.bookings,
		Reschedules:      env.reschedules,
		Catalog:          env.catalog,
		Reviews:          env.reviews,
		Settlement:       env.settlement,
		Notifier:         env.notifier,
		Tasks:            env.tasks,
		RescheduleWindow: 48 * time.Hour,
		Now:              func() time.Time { return testNow },
		Logger:           zap.NewNop(),
	}
	return env
}

// seedBooking puts a booking directly into the fake store. untilStart is the
// distance between the frozen clock and scheduled_at.
func (env *testEnv) seedBooking(id string, status models.BookingStatus, untilStart time.Duration) *models.Booking {
	b := &models.Booking{
		ID:          id,
		ServiceID:   "svc-1",
		ProviderID:  "host-1",
		CustomerID:  "visitor-1",
		Status:      status,
		ScheduledAt: testNow.Add(untilStart),
		TotalPrice:  100.00,
		CreatedAt:   testNow.Add(-24 * time.Hour),
	}
	env.bookings.bookings[id] = b
	return b
}
