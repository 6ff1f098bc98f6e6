package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/account-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserCreated            EventType = "user_created"
	EventUserUpdated            EventType = "user_updated"
	EventUserStatusChanged      EventType = "user_status_changed"
	EventUserDeleted            EventType = "user_deleted"
	EventLoginSucceeded         EventType = "login_succeeded"
	EventLoginFailed            EventType = "login_failed"
	EventPasswordResetRequested EventType = "password_reset_requested"
	EventPasswordResetCompleted EventType = "password_reset_completed"
	EventPasswordChanged        EventType = "password_changed"
	EventOnboardingMailFailed   EventType = "onboarding_mail_failed"
)

// Actor identifies who triggered an event; nil fields mean the action
// was unauthenticated (login attempts, reset requests).
type Actor struct {
	Email *string      `json:"email,omitempty"`
	Role  *domain.Role `json:"role,omitempty"`
}

// Event represents a credential-lifecycle event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    *string     `json:"user_id,omitempty"`
	Email     string      `json:"email,omitempty"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// New builds an event with id and timestamp filled in.
func New(eventType EventType, userID *string, email string, actor Actor, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    userID,
		Email:     email,
		Actor:     actor,
		Timestamp: time.Now(),
		Payload:   payload,
	}
}

// LoginFailedPayload carries the failure reason without credentials.
type LoginFailedPayload struct {
	Reason string `json:"reason"`
}

// UserStatusChangedPayload payload.
type UserStatusChangedPayload struct {
	Active bool `json:"active"`
}

// OnboardingMailFailedPayload payload.
type OnboardingMailFailedPayload struct {
	Error string `json:"error"`
}
