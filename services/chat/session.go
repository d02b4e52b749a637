package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/xiao99xiao/bookme-sub003/models"

	"github.com/google/uuid"
)

// ConnState is the observable connection state of a session.
type ConnState string

const (
	StateConnecting   ConnState = "connecting"
	StateConnected    ConnState = "connected"
	StateDisconnected ConnState = "disconnected"
	// StateGaveUp means the retry ceiling was hit; the user must retry
	// manually via Connect.
	StateGaveUp ConnState = "gave_up"
)

const (
	// maxTrackedMessages caps both the displayed list and the seen-id set.
	// The two are evicted in lock-step: dropping a message while keeping its
	// id (or the reverse) would re-admit duplicates on scroll-back.
	maxTrackedMessages = 100

	baseReconnectDelay = 2 * time.Second
	maxReconnectDelay  = 30 * time.Second
	maxReconnectTries  = 8
)

// Session is the client-side replica of one conversation: it merges history
// pages and live deliveries into a single deduplicated, timestamp-ordered
// view, supports optimistic sends with rollback, and reconnects with
// exponential backoff.
type Session struct {
	ConversationID string
	UserID         string

	transport Transport
	sender    Sender

	// OnStateChange, when set, observes connection state transitions.
	OnStateChange func(ConnState)

	mu       sync.Mutex
	state    ConnState
	messages []models.Message
	seen     map[string]struct{}
	compose  string
	cancel   context.CancelFunc

	// sleep is injectable so tests don't wait out real backoff delays.
	sleep func(time.Duration)
}

// NewSession creates a disconnected session for one conversation.
func NewSession(transport Transport, sender Sender, conversationID, userID string) *Session {
	return &Session{
		ConversationID: conversationID,
		UserID:         userID,
		transport:      transport,
		sender:         sender,
		state:          StateDisconnected,
		seen:           make(map[string]struct{}),
		sleep:          time.Sleep,
	}
}

// Connect starts the subscribe/reconnect loop. It returns immediately;
// state transitions are observable via State and OnStateChange.
func (s *Session) Connect(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = cancel
	s.mu.Unlock()

	go s.run(ctx)
}

// Close leaves the conversation, terminating the subscription.
func (s *Session) Close() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.setState(StateDisconnected)
}

func (s *Session) run(ctx context.Context) {
	attempt := 0
	for {
		if ctx.Err() != nil {
			return
		}
		s.setState(StateConnecting)

		ch, cancel, err := s.transport.Subscribe(ctx, s.ConversationID)
		if err != nil {
			s.setState(StateDisconnected)
			attempt++
			if attempt >= maxReconnectTries {
				s.setState(StateGaveUp)
				return
			}
			s.sleep(reconnectDelay(attempt))
			continue
		}

		s.setState(StateConnected)
		attempt = 0

	recv:
		for {
			select {
			case <-ctx.Done():
				// Leaving the conversation must tear down the subscription,
				// not just stop observing it.
				cancel()
				s.setState(StateDisconnected)
				return
			case msg, ok := <-ch:
				if !ok {
					break recv
				}
				s.Receive(msg)
			}
		}
		cancel()
		s.setState(StateDisconnected)

		if ctx.Err() != nil {
			return
		}
		attempt++
		if attempt >= maxReconnectTries {
			s.setState(StateGaveUp)
			return
		}
		s.sleep(reconnectDelay(attempt))
	}
}

// reconnectDelay doubles per attempt from the base, capped.
func reconnectDelay(attempt int) time.Duration {
	delay := baseReconnectDelay << (attempt - 1)
	if delay > maxReconnectDelay || delay <= 0 {
		return maxReconnectDelay
	}
	return delay
}

// Receive merges a live delivery into the view, dropping duplicates by id.
// Messages are inserted by timestamp, not blindly appended, so a late
// arrival still lands in order.
func (s *Session) Receive(msg models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertLocked(msg)
}

// LoadHistory merges a page of persisted messages (initial load or
// scroll-back) into the view.
func (s *Session) LoadHistory(msgs []models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, msg := range msgs {
		s.insertLocked(msg)
	}
}

// Send performs an optimistic send: the message appears locally at once and
// the compose box empties. On failure the optimistic copy is rolled back and
// the content restored for resubmission.
func (s *Session) Send(ctx context.Context, content string) (*models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, newError(CodeValidation, "message content must not be empty")
	}

	pending := models.Message{
		ID:             "pending-" + uuid.New().String(),
		ConversationID: s.ConversationID,
		SenderID:       s.UserID,
		Content:        content,
		CreatedAt:      time.Now(),
	}

	s.mu.Lock()
	s.compose = ""
	s.insertLocked(pending)
	s.mu.Unlock()

	msg, err := s.sender.SendMessage(ctx, s.ConversationID, s.UserID, content)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(pending.ID)
	if err != nil {
		s.compose = content
		return nil, err
	}
	// The confirmed copy may already have arrived through the live channel;
	// insertLocked deduplicates either way.
	s.insertLocked(*msg)
	return msg, nil
}

// SetCompose stores the in-progress input text.
func (s *Session) SetCompose(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.compose = text
}

// Compose returns the current input text (restored after a failed send).
func (s *Session) Compose() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.compose
}

// Messages returns a snapshot of the ordered, deduplicated view.
func (s *Session) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// State returns the current connection state.
func (s *Session) State() ConnState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(state ConnState) {
	s.mu.Lock()
	if s.state == state {
		s.mu.Unlock()
		return
	}
	s.state = state
	handler := s.OnStateChange
	s.mu.Unlock()

	if handler != nil {
		handler(state)
	}
}

// insertLocked adds the message in timestamp order, skipping ids already
// seen, then enforces the cap by evicting the oldest entries from the list
// and the id set together.
func (s *Session) insertLocked(msg models.Message) {
	if _, dup := s.seen[msg.ID]; dup {
		return
	}
	s.seen[msg.ID] = struct{}{}

	i := len(s.messages)
	for i > 0 && s.messages[i-1].CreatedAt.After(msg.CreatedAt) {
		i--
	}
	s.messages = append(s.messages, models.Message{})
	copy(s.messages[i+1:], s.messages[i:])
	s.messages[i] = msg

	for len(s.messages) > maxTrackedMessages {
		delete(s.seen, s.messages[0].ID)
		s.messages = s.messages[1:]
	}
}

// removeLocked drops a message (the rolled-back optimistic copy) from both
// the list and the id set.
func (s *Session) removeLocked(id string) {
	if _, ok := s.seen[id]; !ok {
		return
	}
	delete(s.seen, id)
	for i := range s.messages {
		if s.messages[i].ID == id {
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			return
		}
	}
}
