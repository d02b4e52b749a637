package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/xiao99xiao/bookme-sub003/models"
	"github.com/xiao99xiao/bookme-sub003/services/chat"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubChatService satisfies chat.ChatService; the gateway only calls
// GetConversation.
type stubChatService struct {
	conversation *models.Conversation
	err          error
}

func (s *stubChatService) GetOrCreateConversation(ctx context.Context, userA, userB, bookingID string) (*models.Conversation, error) {
	return s.conversation, s.err
}

func (s *stubChatService) GetConversation(ctx context.Context, conversationID, userID string) (*models.Conversation, error) {
	return s.conversation, s.err
}

func (s *stubChatService) ListConversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	return nil, s.err
}

func (s *stubChatService) GetMessages(ctx context.Context, conversationID, userID string, limit int, before *time.Time) ([]models.Message, error) {
	return nil, s.err
}

func (s *stubChatService) SendMessage(ctx context.Context, conversationID, senderID, content string) (*models.Message, error) {
	return nil, s.err
}

func (s *stubChatService) MarkAsRead(ctx context.Context, conversationID, userID string) {}

// stubTransport hands out a single controllable subscription and records
// when it is cancelled.
type stubTransport struct {
	mu           sync.Mutex
	subscribeErr error
	ch           chan models.Message
	cancelled    int
}

func (t *stubTransport) Publish(ctx context.Context, conversationID string, msg models.Message) error {
	t.ch <- msg
	return nil
}

func (t *stubTransport) Subscribe(ctx context.Context, conversationID string) (<-chan models.Message, func(), error) {
	if t.subscribeErr != nil {
		return nil, nil, t.subscribeErr
	}
	cancel := func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		t.cancelled++
	}
	return t.ch, cancel, nil
}

func (t *stubTransport) cancelCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled
}

func setupGatewayServer(svc chat.ChatService, transport chat.Transport) *httptest.Server {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) { c.Set("userID", "visitor-1") })
	gateway := NewChatGateway(svc, transport, zap.NewNop())
	router.GET("/api/conversations/:id/ws", gateway.Subscribe)
	return httptest.NewServer(router)
}

func gatewayWSURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/conversations/c1/ws"
}

func TestGatewaySubscribe_NonParticipantRejectedBeforeUpgrade(t *testing.T) {
	svc := &stubChatService{err: &chat.ChatError{Code: chat.CodeForbidden, Message: "not a participant"}}
	srv := setupGatewayServer(svc, &stubTransport{})
	defer srv.Close()

	conn, resp, err := websocket.DefaultDialer.Dial(gatewayWSURL(srv), nil)

	require.Error(t, err)
	require.Nil(t, conn)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestGatewaySubscribe_SubscribeFailureSendsCloseFrame(t *testing.T) {
	svc := &stubChatService{conversation: &models.Conversation{ID: "c1", ParticipantA: "visitor-1", ParticipantB: "host-1"}}
	transport := &stubTransport{subscribeErr: assert.AnError}
	srv := setupGatewayServer(svc, transport)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(gatewayWSURL(srv), nil)
	require.NoError(t, err)
	defer conn.Close()

	_, _, err = conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseInternalServerErr))
}

func TestGatewaySubscribe_FansOutAndUnsubscribesOnDisconnect(t *testing.T) {
	svc := &stubChatService{conversation: &models.Conversation{ID: "c1", ParticipantA: "visitor-1", ParticipantB: "host-1"}}
	transport := &stubTransport{ch: make(chan models.Message, 1)}
	srv := setupGatewayServer(svc, transport)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(gatewayWSURL(srv), nil)
	require.NoError(t, err)

	sent := models.Message{
		ID:             "m1",
		ConversationID: "c1",
		SenderID:       "host-1",
		Content:        "hello",
		CreatedAt:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, transport.Publish(context.Background(), "c1", sent))

	var got models.Message
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "m1", got.ID)
	assert.Equal(t, "hello", got.Content)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool {
		return transport.cancelCount() == 1
	}, time.Second, 5*time.Millisecond)
}
