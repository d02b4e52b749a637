package handlers

import (
	"net/http"
	"time"

	"github.com/xiao99xiao/bookme-sub003/services/chat"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser origins are already constrained by the CORS layer; the
	// bearer token is what authorizes the socket.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ChatGateway bridges a conversation's pub/sub channel onto a WebSocket so
// browser clients receive live deliveries. Sends still go through the
// request/response endpoint; the socket is delivery-only.
type ChatGateway struct {
	Svc       chat.ChatService
	Transport chat.Transport
	Logger    *zap.Logger
}

func NewChatGateway(svc chat.ChatService, transport chat.Transport, logger *zap.Logger) *ChatGateway {
	return &ChatGateway{Svc: svc, Transport: transport, Logger: logger}
}

func closeDeadline() time.Time {
	return time.Now().Add(time.Second)
}

// Subscribe handles GET /api/conversations/:id/ws.
func (g *ChatGateway) Subscribe(c *gin.Context) {
	conversationID := c.Param("id")
	userID := c.GetString("userID")

	if _, err := g.Svc.GetConversation(c.Request.Context(), conversationID, userID); err != nil {
		c.JSON(chatStatusForError(err), gin.H{"error": err.Error()})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		g.Logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ch, cancel, err := g.Transport.Subscribe(c.Request.Context(), conversationID)
	if err != nil {
		g.Logger.Error("failed to subscribe to conversation",
			zap.String("conversation_id", conversationID), zap.Error(err))
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "subscribe failed"),
			closeDeadline())
		return
	}
	defer cancel()

	// Drain reads so close frames and pings are processed; client frames
	// carry no payload we act on.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
