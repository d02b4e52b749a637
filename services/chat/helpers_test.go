package chat

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	conversationRepo "github.com/xiao99xiao/bookme-sub003/database/repository/conversation"
	"github.com/xiao99xiao/bookme-sub003/models"

	"go.uber.org/zap"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type fakeConversationRepo struct {
	mu            sync.Mutex
	conversations map[string]*models.Conversation
	messages      map[string][]models.Message
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{
		conversations: make(map[string]*models.Conversation),
		messages:      make(map[string][]models.Message),
	}
}

func (r *fakeConversationRepo) GetOrCreate(conv *models.Conversation) (*models.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.conversations {
		if existing.ParticipantA == conv.ParticipantA &&
			existing.ParticipantB == conv.ParticipantB &&
			existing.BookingID == conv.BookingID {
			cp := *existing
			return &cp, nil
		}
	}
	cp := *conv
	cp.CreatedAt = testNow
	r.conversations[conv.ID] = &cp
	out := cp
	return &out, nil
}

func (r *fakeConversationRepo) GetByID(id string) (*models.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.conversations[id]
	if !ok {
		return nil, conversationRepo.ErrNotFound
	}
	cp := *conv
	return &cp, nil
}

func (r *fakeConversationRepo) ListByParticipant(userID string) ([]models.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Conversation
	for _, conv := range r.conversations {
		if conv.HasParticipant(userID) {
			out = append(out, *conv)
		}
	}
	return out, nil
}

func (r *fakeConversationRepo) InsertMessage(msg *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages[msg.ConversationID] = append(r.messages[msg.ConversationID], *msg)
	if conv, ok := r.conversations[msg.ConversationID]; ok {
		conv.LastMessageAt = msg.CreatedAt
	}
	return nil
}

func (r *fakeConversationRepo) ListMessages(conversationID string, limit int, before *time.Time) ([]models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Message
	for _, msg := range r.messages[conversationID] {
		if before != nil && !msg.CreatedAt.Before(*before) {
			continue
		}
		out = append(out, msg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (r *fakeConversationRepo) MarkRead(conversationID, readerID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	msgs := r.messages[conversationID]
	for i := range msgs {
		if msgs[i].SenderID != readerID && !msgs[i].IsRead {
			msgs[i].IsRead = true
			n++
		}
	}
	return n, nil
}

// fakeTransport records publishes and hands out controllable subscriptions.
type fakeTransport struct {
	mu        sync.Mutex
	published []models.Message

	subscribeErr error
	subscribers  []chan models.Message
	cancelled    int
}

func (t *fakeTransport) Publish(ctx context.Context, conversationID string, msg models.Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.published = append(t.published, msg)
	for _, ch := range t.subscribers {
		ch <- msg
	}
	return nil
}

func (t *fakeTransport) Subscribe(ctx context.Context, conversationID string) (<-chan models.Message, func(), error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.subscribeErr != nil {
		return nil, nil, t.subscribeErr
	}
	ch := make(chan models.Message, 16)
	t.subscribers = append(t.subscribers, ch)
	cancel := func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		for i, sub := range t.subscribers {
			if sub == ch {
				t.subscribers = append(t.subscribers[:i], t.subscribers[i+1:]...)
				break
			}
		}
		t.cancelled++
	}
	return ch, cancel, nil
}

func (t *fakeTransport) cancelCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled
}

// failingSender always rejects, for optimistic rollback tests.
type failingSender struct{}

func (failingSender) SendMessage(ctx context.Context, conversationID, senderID, content string) (*models.Message, error) {
	return nil, errors.New("network down")
}

func newTestChatService() (*DefaultChatService, *fakeConversationRepo, *fakeTransport) {
	repo := newFakeConversationRepo()
	transport := &fakeTransport{}
	svc := &DefaultChatService{
		Repo:      repo,
		Transport: transport,
		Now:       func() time.Time { return testNow },
		Logger:    zap.NewNop(),
	}
	return svc, repo, transport
}
