package domain

import "time"

// Role identifies who authored a transcript entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Message is one transcript entry. IDs increase with creation order.
type Message struct {
	ID        int64     `json:"id"`
	TripID    string    `json:"trip_id,omitempty"`
	Content   string    `json:"content"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Exchange is a user message, the assistant reply it produced and the
// roadmap that resulted. It is persisted as a unit.
type Exchange struct {
	TripID    string     `json:"trip_id"`
	UserID    string     `json:"user_id"`
	User      Message    `json:"user"`
	Assistant Message    `json:"assistant"`
	Roadmap   *Itinerary `json:"roadmap,omitempty"`
}

// SessionState is the generation state of a roadmap session.
type SessionState string

const (
	StateIdle       SessionState = "idle"
	StateGenerating SessionState = "generating"
)

// SessionEvent is broadcast whenever a session changes state.
type SessionEvent struct {
	SessionID string       `json:"session_id"`
	Type      string       `json:"type"` // "generating" | "updated"
	State     SessionState `json:"state"`
	Message   *Message     `json:"message,omitempty"`
	Itinerary *Itinerary   `json:"itinerary,omitempty"`
	Error     string       `json:"error,omitempty"`
	Time      time.Time    `json:"time"`
}

// SessionSnapshot is a point-in-time copy of a session, as cached and served over HTTP.
type SessionSnapshot struct {
	ID         string       `json:"id"`
	State      SessionState `json:"state"`
	Transcript []Message    `json:"transcript"`
	Itinerary  *Itinerary   `json:"itinerary"`
	UpdatedAt  time.Time    `json:"updated_at"`
}
