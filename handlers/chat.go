package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/xiao99xiao/bookme-sub003/services/chat"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ChatHandler exposes conversations and messages over HTTP.
type ChatHandler struct {
	Svc    chat.ChatService
	Logger *zap.Logger
}

func NewChatHandler(svc chat.ChatService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{Svc: svc, Logger: logger}
}

func chatStatusForError(err error) int {
	switch chat.ErrorCode(err) {
	case chat.CodeNotFound:
		return http.StatusNotFound
	case chat.CodeValidation:
		return http.StatusBadRequest
	case chat.CodeForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func (h *ChatHandler) fail(c *gin.Context, err error) {
	status := chatStatusForError(err)
	if status == http.StatusInternalServerError {
		h.Logger.Error("chat request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// GetOrCreateConversation handles POST /api/conversations.
func (h *ChatHandler) GetOrCreateConversation(c *gin.Context) {
	var req struct {
		PeerID    string `json:"peer_id" binding:"required"`
		BookingID string `json:"booking_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	conv, err := h.Svc.GetOrCreateConversation(c.Request.Context(), c.GetString("userID"), req.PeerID, req.BookingID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

// ListConversations handles GET /api/conversations.
func (h *ChatHandler) ListConversations(c *gin.Context) {
	convs, err := h.Svc.ListConversations(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": convs})
}

// GetMessages handles GET /api/conversations/:id/messages?limit=&before=.
// Without a cursor it returns the most recent page; with one, strictly
// older messages.
func (h *ChatHandler) GetMessages(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
			return
		}
		limit = n
	}

	var before *time.Time
	if raw := c.Query("before"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "before must be an RFC3339 timestamp"})
			return
		}
		before = &t
	}

	msgs, err := h.Svc.GetMessages(c.Request.Context(), c.Param("id"), c.GetString("userID"), limit, before)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// SendMessage handles POST /api/conversations/:id/messages.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	msg, err := h.Svc.SendMessage(c.Request.Context(), c.Param("id"), c.GetString("userID"), req.Content)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// MarkAsRead handles POST /api/conversations/:id/read. Fire-and-forget:
// the response is 202 regardless, read-state failures are only logged.
func (h *ChatHandler) MarkAsRead(c *gin.Context) {
	h.Svc.MarkAsRead(c.Request.Context(), c.Param("id"), c.GetString("userID"))
	c.JSON(http.StatusAccepted, gin.H{"message": "ok"})
}
