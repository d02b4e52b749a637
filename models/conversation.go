package models

import "time"

// Conversation is a two-party chat thread, optionally attached to a booking.
// The participant pair is stored normalized (ParticipantA < ParticipantB
// lexicographically) so that lookup is symmetric and the unique index on the
// pair makes get-or-create race-free.
type Conversation struct {
	ID            string    `bson:"id" json:"id"`
	ParticipantA  string    `bson:"participant_a" json:"participant_a"`
	ParticipantB  string    `bson:"participant_b" json:"participant_b"`
	BookingID     string    `bson:"booking_id,omitempty" json:"booking_id,omitempty"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
	LastMessageAt time.Time `bson:"last_message_at,omitempty" json:"last_message_at,omitempty"`
}

// NormalizePair orders two participant ids canonically.
func NormalizePair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// HasParticipant reports whether the given user belongs to the conversation.
func (c Conversation) HasParticipant(userID string) bool {
	return c.ParticipantA == userID || c.ParticipantB == userID
}

// Message is a single chat message. IDs are globally unique and serve as the
// deduplication key on the receiving side; created_at defines delivery order
// within a conversation.
type Message struct {
	ID             string    `bson:"id" json:"id"`
	ConversationID string    `bson:"conversation_id" json:"conversation_id"`
	SenderID       string    `bson:"sender_id" json:"sender_id"`
	Content        string    `bson:"content" json:"content"`
	IsRead         bool      `bson:"is_read" json:"is_read"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
}
