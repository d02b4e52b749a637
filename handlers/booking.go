package handlers

import (
	"net/http"
	"time"

	"github.com/xiao99xiao/bookme-sub003/models"
	"github.com/xiao99xiao/bookme-sub003/services/booking"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BookingHandler exposes the booking lifecycle over HTTP.
type BookingHandler struct {
	Svc    booking.LifecycleService
	Logger *zap.Logger
}

func NewBookingHandler(svc booking.LifecycleService, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{Svc: svc, Logger: logger}
}

// statusForError maps lifecycle error codes onto HTTP statuses. Anything
// untyped is a persistence failure and stays a 500.
func statusForError(err error) int {
	switch booking.ErrorCode(err) {
	case booking.CodeNotFound, booking.CodePolicyNotFound:
		return http.StatusNotFound
	case booking.CodeInvalidStatus, booking.CodeValidation, booking.CodeExplanationRequired:
		return http.StatusBadRequest
	case booking.CodeInvalidTransition, booking.CodeConflict:
		return http.StatusConflict
	case booking.CodeForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func (h *BookingHandler) fail(c *gin.Context, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		h.Logger.Error("booking request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// CreateBooking handles POST /api/bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var input booking.CreateBookingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	input.CustomerID = c.GetString("userID")

	detail, err := h.Svc.Create(c.Request.Context(), input)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, detail)
}

// GetBooking handles GET /api/bookings/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	detail, err := h.Svc.GetDetail(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// ListBookings handles GET /api/bookings?role=host|visitor.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	role := models.Role(c.DefaultQuery("role", string(models.RoleVisitor)))
	bookings, err := h.Svc.List(c.Request.Context(), c.GetString("userID"), role)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

// TransitionBooking handles PATCH /api/bookings/:id with a JSON body
// {"status": "..."} restricted to the recognized status set.
func (h *BookingHandler) TransitionBooking(c *gin.Context) {
	var req struct {
		Status models.BookingStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	detail, err := h.Svc.Transition(c.Request.Context(), c.Param("id"), req.Status, c.GetString("userID"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// DeleteBooking handles DELETE /api/bookings/:id, the admin hard-delete
// path, distinct from cancellation.
func (h *BookingHandler) DeleteBooking(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Booking deleted"})
}

// GetCancellationPolicies handles GET /api/bookings/:id/cancellation-policies.
func (h *BookingHandler) GetCancellationPolicies(c *gin.Context) {
	role := models.Role(c.DefaultQuery("role", string(models.RoleVisitor)))
	policies, err := h.Svc.EvaluateCancellationPolicies(c.Request.Context(), c.Param("id"), role)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"policies": policies})
}

// GetRefundBreakdown handles GET /api/bookings/:id/refund-breakdown?policy=...
func (h *BookingHandler) GetRefundBreakdown(c *gin.Context) {
	policyKey := c.Query("policy")
	if policyKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "policy query parameter is required"})
		return
	}
	breakdown, err := h.Svc.ComputeRefundBreakdown(c.Request.Context(), c.Param("id"), policyKey)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, breakdown)
}

// CancelBooking handles POST /api/bookings/:id/cancel.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	var req struct {
		PolicyKey   string `json:"policy_key" binding:"required"`
		Explanation string `json:"explanation"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	detail, err := h.Svc.CancelWithPolicy(c.Request.Context(), c.Param("id"), req.PolicyKey, c.GetString("userID"), req.Explanation)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// RejectBooking handles POST /api/bookings/:id/reject for paid bookings.
func (h *BookingHandler) RejectBooking(c *gin.Context) {
	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	detail, err := h.Svc.RejectPaidBooking(c.Request.Context(), c.Param("id"), c.GetString("userID"), req.Reason)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// RequestReschedule handles POST /api/bookings/:id/reschedule.
func (h *BookingHandler) RequestReschedule(c *gin.Context) {
	var req struct {
		ProposedScheduledAt time.Time `json:"proposed_scheduled_at" binding:"required"`
		Reason              string    `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	request, err := h.Svc.RequestReschedule(c.Request.Context(), c.Param("id"), c.GetString("userID"), req.ProposedScheduledAt, req.Reason)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, request)
}

// ResolveReschedule handles POST /api/bookings/:id/reschedule/:reqId/resolve.
func (h *BookingHandler) ResolveReschedule(c *gin.Context) {
	var req struct {
		Approve bool `json:"approve"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	request, err := h.Svc.ResolveReschedule(c.Request.Context(), c.Param("reqId"), c.GetString("userID"), req.Approve)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, request)
}

// WithdrawReschedule handles DELETE /api/bookings/:id/reschedule/:reqId.
func (h *BookingHandler) WithdrawReschedule(c *gin.Context) {
	request, err := h.Svc.WithdrawReschedule(c.Request.Context(), c.Param("reqId"), c.GetString("userID"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, request)
}

// SubmitReview handles POST /api/bookings/:id/review.
func (h *BookingHandler) SubmitReview(c *gin.Context) {
	var req struct {
		Rating  int    `json:"rating" binding:"required"`
		Comment string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	review, err := h.Svc.SubmitReview(c.Request.Context(), c.Param("id"), c.GetString("userID"), req.Rating, req.Comment)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, review)
}
