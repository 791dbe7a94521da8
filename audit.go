package authcore

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"

	internalaudit "github.com/kvels/authcore/internal/audit"
)

// AuditEvent is a structured audit record emitted by the service. Each
// event carries a unique EventID for downstream correlation.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the service's async audit
// dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer], one object per line.
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

const (
	auditEventSignupSuccess    = "signup_success"
	auditEventSignupRejected   = "signup_rejected"
	auditEventSignupDuplicate  = "signup_duplicate"
	auditEventSignupExternal   = "signup_external"
	auditEventLoginSuccess     = "login_success"
	auditEventLoginFailure     = "login_failure"
	auditEventLoginExternal    = "login_external"
	auditEventLogoutSession    = "logout_session"
	auditEventAccountDeleted   = "account_deleted"
	auditEventSessionsCascaded = "sessions_cascaded"
)

// AuditErrorCode is the stable short code recorded in an event's Error
// field, derived from the domain error taxonomy.
type AuditErrorCode string

const (
	auditErrValidation   AuditErrorCode = "validation_failed"
	auditErrDuplicate    AuditErrorCode = "duplicate_email"
	auditErrUnknownEmail AuditErrorCode = "unknown_email"
	auditErrUserNotFound AuditErrorCode = "user_not_found"
	auditErrUnauthorized AuditErrorCode = "unauthorized"
	auditErrUnavailable  AuditErrorCode = "backend_unavailable"
	auditErrInternal     AuditErrorCode = "internal_error"
)

func (s *Service) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID int64,
	err error,
	metadataBuilder func() map[string]string,
) {
	if s == nil || s.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		EventID:   uuid.NewString(),
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		UserID:    userID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	s.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrValidation):
		return auditErrValidation
	case errors.Is(err, ErrEmailAlreadyExists):
		return auditErrDuplicate
	case errors.Is(err, ErrEmailDoesNotExist):
		return auditErrUnknownEmail
	case errors.Is(err, ErrUserNotFound):
		return auditErrUserNotFound
	case errors.Is(err, ErrUnauthorized):
		return auditErrUnauthorized
	case errors.Is(err, ErrBackendUnavailable):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
