package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/events"
	"github.com/spec-kit/account-service/internal/repository"
)

// AuditService records credential-lifecycle events to the log and the
// audit_logs table. Persistence failures never propagate to the flows.
type AuditService struct {
	dispatcher events.Dispatcher
	logs       repository.AuditLogRepository
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logs repository.AuditLogRepository, logger *zap.Logger) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		logs:       logs,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to all lifecycle events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	for _, eventType := range []events.EventType{
		events.EventUserCreated,
		events.EventUserUpdated,
		events.EventUserStatusChanged,
		events.EventUserDeleted,
		events.EventLoginSucceeded,
		events.EventLoginFailed,
		events.EventPasswordResetRequested,
		events.EventPasswordResetCompleted,
		events.EventPasswordChanged,
		events.EventOnboardingMailFailed,
	} {
		a.dispatcher.Subscribe(eventType, a.record)
	}
}

func (a *AuditService) record(ctx context.Context, event events.Event) error {
	level := "info"
	switch event.Type {
	case events.EventLoginFailed, events.EventOnboardingMailFailed:
		level = "warn"
	}

	a.logger.Info(string(event.Type),
		zap.String("event_id", event.ID),
		zap.String("email", event.Email),
		zap.Any("payload", event.Payload))

	if a.logs == nil {
		return nil
	}

	entry := &repository.AuditLogEntry{
		Level:      level,
		EventType:  string(event.Type),
		Message:    string(event.Type),
		UserID:     event.UserID,
		ActorEmail: event.Actor.Email,
		Data:       payloadMap(event.Payload),
	}
	if event.Actor.Role != nil {
		role := string(*event.Actor.Role)
		entry.ActorRole = &role
	}

	if err := a.logs.Insert(ctx, entry); err != nil {
		a.logger.Debug("audit log write failed", zap.Error(err))
	}
	return nil
}

func payloadMap(payload interface{}) map[string]any {
	if payload == nil {
		return nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}
