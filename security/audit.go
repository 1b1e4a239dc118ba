package security

import (
	"go.uber.org/zap"
)

// AuditEvent names a security-relevant occurrence.
type AuditEvent string

const (
	EventLoginSuccess       AuditEvent = "login_success"
	EventLoginFailure       AuditEvent = "login_failure"
	EventAccountLocked      AuditEvent = "account_locked"
	EventPasswordChange     AuditEvent = "password_change"
	EventTokenRefresh       AuditEvent = "token_refresh"
	EventLogout             AuditEvent = "logout"
	EventSuspiciousActivity AuditEvent = "suspicious_activity"
)

// AuditLogger writes security events to a dedicated named logger.
type AuditLogger struct {
	log *zap.Logger
}

// NewAuditLogger derives the security_audit logger from base.
func NewAuditLogger(base *zap.Logger) *AuditLogger {
	return &AuditLogger{log: base.Named("security_audit")}
}

// Log records event for userID. Failures and lockouts log at warn level.
func (a *AuditLogger) Log(event AuditEvent, userID string, details map[string]interface{}) {
	fields := []zap.Field{
		zap.String("event_type", string(event)),
		zap.String("user_id", userID),
		zap.Any("details", details),
	}
	switch event {
	case EventLoginFailure, EventAccountLocked, EventSuspiciousActivity:
		a.log.Warn("security event", fields...)
	default:
		a.log.Info("security event", fields...)
	}
}
