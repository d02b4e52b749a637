package booking

import (
	"context"
	"testing"
	"time"

	"github.com/xiao99xiao/bookme-sub003/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestReschedule_CreatesPendingRequest(t *testing.T) {
	env := newTestEnv()
	env.seedBooking("b1", models.BookingStatusConfirmed, 24*time.Hour)
	proposed := testNow.Add(72 * time.Hour)

	req, err := env.svc.RequestReschedule(context.Background(), "b1", "visitor-1", proposed, "conflict came up")

	require.NoError(t, err)
	assert.Equal(t, models.RescheduleStatusPending, req.Status)
	assert.Equal(t, models.RoleVisitor, req.RequesterRole)
	assert.True(t, req.ProposedScheduledAt.Equal(proposed))
	assert.True(t, req.ExpiresAt.Equal(testNow.Add(48*time.Hour)))

	require.Len(t, env.tasks.expiries, 1)
	assert.Equal(t, req.ID, env.tasks.expiries[0].id)
	assert.True(t, env.tasks.expiries[0].at.Equal(req.ExpiresAt))
}

func TestRequestReschedule_OneActivePerBooking(t *testing.T) {
	env := newTestEnv()
	env.seedBooking("b1", models.BookingStatusConfirmed, 24*time.Hour)
	proposed := testNow.Add(72 * time.Hour)

	_, err := env.svc.RequestReschedule(context.Background(), "b1", "visitor-1", proposed, "")
	require.NoError(t, err)

	_, err = env.svc.RequestReschedule(context.Background(), "b1", "host-1", proposed, "")
	require.Error(t, err)
	assert.Equal(t, CodeConflict, ErrorCode(err))
}

func TestRequestReschedule_ProposedTimeMustBeFuture(t *testing.T) {
	env := newTestEnv()
	env.seedBooking("b1", models.BookingStatusConfirmed, 24*time.Hour)

	_, err := env.svc.RequestReschedule(context.Background(), "b1", "visitor-1", testNow.Add(-time.Hour), "")

	require.Error(t, err)
	assert.Equal(t, CodeValidation, ErrorCode(err))
}

func TestRequestReschedule_TerminalBooking(t *testing.T) {
	env := newTestEnv()
	env.seedBooking("b1", models.BookingStatusCancelled, 24*time.Hour)

	_, err := env.svc.RequestReschedule(context.Background(), "b1", "visitor-1", testNow.Add(72*time.Hour), "")

	require.Error(t, err)
	assert.Equal(t, CodeConflict, ErrorCode(err))
}

func TestResolveReschedule_ApproveMovesBooking(t *testing.T) {
	env := newTestEnv()
	env.seedBooking("b1", models.BookingStatusConfirmed, 24*time.Hour)
	proposed := testNow.Add(72 * time.Hour)

	req, err := env.svc.RequestReschedule(context.Background(), "b1", "visitor-1", proposed, "")
	require.NoError(t, err)

	resolved, err := env.svc.ResolveReschedule(context.Background(), req.ID, "host-1", true)

	require.NoError(t, err)
	assert.Equal(t, models.RescheduleStatusApproved, resolved.Status)
	assert.True(t, env.bookings.bookings["b1"].ScheduledAt.Equal(proposed))
}

func TestResolveReschedule_RejectKeepsSchedule(t *testing.T) {
	env := newTestEnv()
	b := env.seedBooking("b1", models.BookingStatusConfirmed, 24*time.Hour)
	original := b.ScheduledAt

	req, err := env.svc.RequestReschedule(context.Background(), "b1", "host-1", testNow.Add(72*time.Hour), "")
	require.NoError(t, err)

	resolved, err := env.svc.ResolveReschedule(context.Background(), req.ID, "visitor-1", false)

	require.NoError(t, err)
	assert.Equal(t, models.RescheduleStatusRejected, resolved.Status)
	assert.True(t, env.bookings.bookings["b1"].ScheduledAt.Equal(original))
}

func TestResolveReschedule_RequesterCannotResolve(t *testing.T) {
	env := newTestEnv()
	env.seedBooking("b1", models.BookingStatusConfirmed, 24*time.Hour)

	req, err := env.svc.RequestReschedule(context.Background(), "b1", "visitor-1", testNow.Add(72*time.Hour), "")
	require.NoError(t, err)

	_, err = env.svc.ResolveReschedule(context.Background(), req.ID, "visitor-1", true)

	require.Error(t, err)
	assert.Equal(t, CodeForbidden, ErrorCode(err))
}

func TestResolveReschedule_AlreadyResolved(t *testing.T) {
	env := newTestEnv()
	env.seedBooking("b1", models.BookingStatusConfirmed, 24*time.Hour)

	req, err := env.svc.RequestReschedule(context.Background(), "b1", "visitor-1", testNow.Add(72*time.Hour), "")
	require.NoError(t, err)
	_, err = env.svc.ResolveReschedule(context.Background(), req.ID, "host-1", false)
	require.NoError(t, err)

	_, err = env.svc.ResolveReschedule(context.Background(), req.ID, "host-1", true)

	require.Error(t, err)
	assert.Equal(t, CodeConflict, ErrorCode(err))
}

func TestWithdrawReschedule_CreatorOnly(t *testing.T) {
	env := newTestEnv()
	env.seedBooking("b1", models.BookingStatusConfirmed, 24*time.Hour)

	req, err := env.svc.RequestReschedule(context.Background(), "b1", "visitor-1", testNow.Add(72*time.Hour), "")
	require.NoError(t, err)

	_, err = env.svc.WithdrawReschedule(context.Background(), req.ID, "host-1")
	require.Error(t, err)
	assert.Equal(t, CodeForbidden, ErrorCode(err))

	withdrawn, err := env.svc.WithdrawReschedule(context.Background(), req.ID, "visitor-1")
	require.NoError(t, err)
	assert.Equal(t, models.RescheduleStatusWithdrawn, withdrawn.Status)
}

func TestExpireReschedule_PendingBecomesExpired(t *testing.T) {
	env := newTestEnv()
	env.seedBooking("b1", models.BookingStatusConfirmed, 24*time.Hour)

	req, err := env.svc.RequestReschedule(context.Background(), "b1", "visitor-1", testNow.Add(72*time.Hour), "")
	require.NoError(t, err)

	require.NoError(t, env.svc.ExpireReschedule(context.Background(), req.ID))

	stored, err := env.reschedules.GetByID(req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RescheduleStatusExpired, stored.Status)
}

func TestExpireReschedule_ResolvedIsNoop(t *testing.T) {
	env := newTestEnv()
	env.seedBooking("b1", models.BookingStatusConfirmed, 24*time.Hour)

	req, err := env.svc.RequestReschedule(context.Background(), "b1", "visitor-1", testNow.Add(72*time.Hour), "")
	require.NoError(t, err)
	_, err = env.svc.ResolveReschedule(context.Background(), req.ID, "host-1", true)
	require.NoError(t, err)

	require.NoError(t, env.svc.ExpireReschedule(context.Background(), req.ID))

	stored, err := env.reschedules.GetByID(req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RescheduleStatusApproved, stored.Status)
}

func TestExpireReschedule_MissingIsNoop(t *testing.T) {
	env := newTestEnv()
	require.NoError(t, env.svc.ExpireReschedule(context.Background(), "missing"))
}

func TestRequestReschedule_AfterResolvedAllowsNewRequest(t *testing.T) {
	env := newTestEnv()
	env.seedBooking("b1", models.BookingStatusConfirmed, 24*time.Hour)

	first, err := env.svc.RequestReschedule(context.Background(), "b1", "visitor-1", testNow.Add(72*time.Hour), "")
	require.NoError(t, err)
	_, err = env.svc.WithdrawReschedule(context.Background(), first.ID, "visitor-1")
	require.NoError(t, err)

	second, err := env.svc.RequestReschedule(context.Background(), "b1", "visitor-1", testNow.Add(96*time.Hour), "")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}
