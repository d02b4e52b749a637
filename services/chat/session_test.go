package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/xiao99xiao/bookme-sub003/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionMessage(id string, offset time.Duration) models.Message {
	return models.Message{
		ID:             id,
		ConversationID: "c1",
		SenderID:       "bob",
		Content:        "m-" + id,
		CreatedAt:      testNow.Add(offset),
	}
}

func TestSession_ReceiveDeduplicatesByID(t *testing.T) {
	s := NewSession(&fakeTransport{}, failingSender{}, "c1", "alice")

	msg := sessionMessage("m1", 0)
	s.Receive(msg)
	s.Receive(msg)
	s.Receive(msg)

	assert.Len(t, s.Messages(), 1)
}

func TestSession_HistoryAndLiveOverlapYieldsOneCopy(t *testing.T) {
	s := NewSession(&fakeTransport{}, failingSender{}, "c1", "alice")

	m1 := sessionMessage("m1", 0)
	m2 := sessionMessage("m2", time.Minute)

	s.Receive(m2)
	s.LoadHistory([]models.Message{m1, m2})

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "m1", msgs[0].ID)
	assert.Equal(t, "m2", msgs[1].ID)
}

func TestSession_LateArrivalInsertedInTimestampOrder(t *testing.T) {
	s := NewSession(&fakeTransport{}, failingSender{}, "c1", "alice")

	s.Receive(sessionMessage("m1", 0))
	s.Receive(sessionMessage("m3", 2*time.Minute))
	s.Receive(sessionMessage("m2", time.Minute))

	msgs := s.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, []string{"m1", "m2", "m3"}, []string{msgs[0].ID, msgs[1].ID, msgs[2].ID})
}

func TestSession_CapEvictsOldestInLockStep(t *testing.T) {
	s := NewSession(&fakeTransport{}, failingSender{}, "c1", "alice")

	for i := 0; i < maxTrackedMessages+20; i++ {
		s.Receive(sessionMessage(fmt.Sprintf("m%03d", i), time.Duration(i)*time.Second))
	}

	msgs := s.Messages()
	require.Len(t, msgs, maxTrackedMessages)
	assert.Equal(t, "m020", msgs[0].ID)

	s.mu.Lock()
	seenSize := len(s.seen)
	_, evictedStillSeen := s.seen["m000"]
	s.mu.Unlock()
	assert.Equal(t, maxTrackedMessages, seenSize)
	assert.False(t, evictedStillSeen)

	// An evicted id can re-enter via scroll-back without distorting the cap.
	s.Receive(sessionMessage("m000", 0))
	assert.Len(t, s.Messages(), maxTrackedMessages)
}

type scriptedSender struct {
	mu     sync.Mutex
	reply  *models.Message
	err    error
	before func()
}

func (s *scriptedSender) SendMessage(ctx context.Context, conversationID, senderID, content string) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.before != nil {
		s.before()
	}
	if s.err != nil {
		return nil, s.err
	}
	cp := *s.reply
	cp.Content = content
	return &cp, nil
}

func TestSession_SendOptimisticThenConfirmed(t *testing.T) {
	confirmed := sessionMessage("server-1", time.Minute)
	sender := &scriptedSender{reply: &confirmed}
	s := NewSession(&fakeTransport{}, sender, "c1", "alice")
	s.SetCompose("hello")

	msg, err := s.Send(context.Background(), "hello")

	require.NoError(t, err)
	assert.Equal(t, "server-1", msg.ID)

	msgs := s.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "server-1", msgs[0].ID)
	assert.Empty(t, s.Compose())
}

func TestSession_SendFailureRollsBackAndRestoresCompose(t *testing.T) {
	sender := &scriptedSender{err: errors.New("network down")}
	s := NewSession(&fakeTransport{}, sender, "c1", "alice")
	s.Receive(sessionMessage("m1", 0))
	s.SetCompose("hello again")

	_, err := s.Send(context.Background(), "hello again")

	require.Error(t, err)
	msgs := s.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "m1", msgs[0].ID)
	assert.Equal(t, "hello again", s.Compose())
}

func TestSession_SendRejectsBlankContent(t *testing.T) {
	s := NewSession(&fakeTransport{}, failingSender{}, "c1", "alice")

	_, err := s.Send(context.Background(), "   ")

	require.Error(t, err)
	assert.Equal(t, CodeValidation, ErrorCode(err))
	assert.Empty(t, s.Messages())
}

func TestSession_EchoBeforeSendReturnsDoesNotDuplicate(t *testing.T) {
	confirmed := sessionMessage("server-1", time.Minute)
	var s *Session
	sender := &scriptedSender{reply: &confirmed}
	s = NewSession(&fakeTransport{}, sender, "c1", "alice")
	// The live channel delivers the confirmed copy while the send is still
	// in flight.
	sender.before = func() { s.Receive(confirmed) }

	_, err := s.Send(context.Background(), confirmed.Content)

	require.NoError(t, err)
	assert.Len(t, s.Messages(), 1)
}

func TestSession_LiveDeliveryThroughTransport(t *testing.T) {
	transport := &fakeTransport{}
	s := NewSession(transport, failingSender{}, "c1", "alice")
	s.sleep = func(time.Duration) {}

	s.Connect(context.Background())
	defer s.Close()

	require.Eventually(t, func() bool {
		return s.State() == StateConnected
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, transport.Publish(context.Background(), "c1", sessionMessage("m1", 0)))

	require.Eventually(t, func() bool {
		return len(s.Messages()) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestSession_ReconnectBacksOffThenGivesUp(t *testing.T) {
	transport := &fakeTransport{subscribeErr: errors.New("redis unreachable")}
	s := NewSession(transport, failingSender{}, "c1", "alice")

	var mu sync.Mutex
	var delays []time.Duration
	s.sleep = func(d time.Duration) {
		mu.Lock()
		delays = append(delays, d)
		mu.Unlock()
	}

	gaveUp := make(chan struct{})
	s.OnStateChange = func(state ConnState) {
		if state == StateGaveUp {
			close(gaveUp)
		}
	}

	s.Connect(context.Background())

	select {
	case <-gaveUp:
	case <-time.After(2 * time.Second):
		t.Fatal("session never gave up")
	}

	assert.Equal(t, StateGaveUp, s.State())

	mu.Lock()
	defer mu.Unlock()
	want := []time.Duration{
		2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second,
		30 * time.Second, 30 * time.Second, 30 * time.Second,
	}
	assert.Equal(t, want, delays)
}

func TestSession_CloseUnsubscribesAndStopsMerging(t *testing.T) {
	transport := &fakeTransport{}
	s := NewSession(transport, failingSender{}, "c1", "alice")
	s.sleep = func(time.Duration) {}

	s.Connect(context.Background())
	require.Eventually(t, func() bool {
		return s.State() == StateConnected
	}, time.Second, 5*time.Millisecond)

	s.Close()
	assert.Equal(t, StateDisconnected, s.State())

	// Leaving must tear down the subscription, not merely stop watching it.
	require.Eventually(t, func() bool {
		return transport.cancelCount() == 1
	}, time.Second, 5*time.Millisecond)

	// Deliveries after leaving never reach the view.
	require.NoError(t, transport.Publish(context.Background(), "c1", sessionMessage("m1", 0)))
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, s.Messages())
}
