package events

import "time"

// EventType enumerates audit event identifiers.
type EventType string

const (
	EventUserRegistered         EventType = "user_registered"
	EventLoginSucceeded         EventType = "login_succeeded"
	EventLoginFailed            EventType = "login_failed"
	EventTokenRefreshed         EventType = "token_refreshed"
	EventAuthenticationRejected EventType = "authentication_rejected"
)

// Event represents a security-relevant moment emitted by the auth pipeline.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Subject   string      `json:"subject,omitempty"`
	Origin    string      `json:"origin,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	UserID string `json:"user_id"`
}

// LoginFailedPayload payload.
type LoginFailedPayload struct {
	Reason string `json:"reason"`
}

// TokenRefreshedPayload payload.
type TokenRefreshedPayload struct {
	UserID string `json:"user_id"`
}

// AuthenticationRejectedPayload payload.
type AuthenticationRejectedPayload struct {
	Path string `json:"path"`
	Kind string `json:"kind"`
}
