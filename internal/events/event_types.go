package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered             EventType = "user_registered"
	EventUserVerificationRequested  EventType = "user_verification_requested"
	EventUserVerified               EventType = "user_verified"
	EventUserPasswordResetRequested EventType = "user_password_reset_requested"
	EventUserPasswordChanged        EventType = "user_password_changed"
	EventUserLoggedIn               EventType = "user_logged_in"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    string      `json:"user_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// VerificationRequestedPayload payload. Token delivery is handled outside
// this service; the event only carries what a mailer needs.
type VerificationRequestedPayload struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

// PasswordResetRequestedPayload payload.
type PasswordResetRequestedPayload struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

// UserLoggedInPayload payload.
type UserLoggedInPayload struct {
	Role       string `json:"role"`
	CustomerID *int64 `json:"customer_id,omitempty"`
}
