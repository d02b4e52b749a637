package models

// Role distinguishes the two sides of the marketplace when evaluating
// cancellation policies and reschedule requests.
type Role string

const (
	RoleHost    Role = "host"
	RoleVisitor Role = "visitor"
)

func (r Role) IsValid() bool { return r == RoleHost || r == RoleVisitor }

// UserSummary is the slice of a user profile joined onto bookings and
// conversations. Identity itself lives with the auth provider; we only
// mirror display fields.
type UserSummary struct {
	ID        string `bson:"id" json:"id"`
	Name      string `bson:"name" json:"name"`
	AvatarURL string `bson:"avatar_url,omitempty" json:"avatar_url,omitempty"`
	FCMToken  string `bson:"fcm_token,omitempty" json:"-"`
}
