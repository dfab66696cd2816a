// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/stratacontent/internal/app/store/audit"
	"github.com/dalemusser/stratacontent/internal/app/system/network"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging for rejected bearer tokens and admin denials.
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Auth string
	// Admin controls logging for content and account changes.
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Admin string
	// TrustProxy reads the client address from X-Forwarded-For / X-Real-IP.
	TrustProxy bool
}

// Actor identifies the authenticated caller behind an event.
type Actor struct {
	UID   string
	Email string
}

// Logger writes audit events to MongoDB (via audit.Store) and zap.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}

	if event.ActorUID != "" {
		fields = append(fields, zap.String("actor_uid", event.ActorUID))
	}
	if event.ActorEmail != "" {
		fields = append(fields, zap.String("actor_email", event.ActorEmail))
	}
	if event.SubjectID != "" {
		fields = append(fields, zap.String("subject_id", event.SubjectID))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

func (l *Logger) setting(category string) string {
	switch category {
	case audit.CategoryAuth:
		return l.config.Auth
	case audit.CategoryAdmin:
		return l.config.Admin
	default:
		return "all"
	}
}

// Log records an audit event based on configuration.
// A nil Logger is a no-op so handlers can be built without one in tests.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	setting := l.setting(event.Category)
	if setting == "" {
		setting = "all"
	}
	if setting == "off" {
		return
	}

	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}

	if (setting == "all" || setting == "db") && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func (l *Logger) base(r *http.Request, category, eventType string, actor Actor) audit.Event {
	return audit.Event{
		Category:   category,
		EventType:  eventType,
		ActorUID:   actor.UID,
		ActorEmail: actor.Email,
		IP:         network.ClientIP(r, l.config.TrustProxy),
		UserAgent:  r.UserAgent(),
	}
}

// --- Auth events ---

// AuthRejected logs a request turned away for a missing or invalid bearer token.
func (l *Logger) AuthRejected(r *http.Request, reason string) {
	if l == nil {
		return
	}
	e := l.base(r, audit.CategoryAuth, audit.EventAuthRejected, Actor{})
	e.FailureReason = reason
	e.Details = map[string]string{"path": r.URL.Path}
	l.Log(r.Context(), e)
}

// AdminDenied logs a valid token whose email is not on the admin allowlist.
func (l *Logger) AdminDenied(r *http.Request, actor Actor) {
	if l == nil {
		return
	}
	e := l.base(r, audit.CategoryAuth, audit.EventAdminDenied, actor)
	e.FailureReason = "not an admin"
	e.Details = map[string]string{"path": r.URL.Path}
	l.Log(r.Context(), e)
}

// SignInFailed logs a rejected password sign-in on the token endpoint.
func (l *Logger) SignInFailed(r *http.Request, email, reason string) {
	if l == nil {
		return
	}
	e := l.base(r, audit.CategoryAuth, audit.EventSignInFailed, Actor{Email: email})
	e.FailureReason = reason
	l.Log(r.Context(), e)
}

// TokenIssued logs a successful password sign-in.
func (l *Logger) TokenIssued(r *http.Request, actor Actor) {
	if l == nil {
		return
	}
	e := l.base(r, audit.CategoryAuth, audit.EventTokenIssued, actor)
	e.Success = true
	l.Log(r.Context(), e)
}

// --- Admin events ---

// Admin logs a successful admin action on subjectID.
func (l *Logger) Admin(r *http.Request, actor Actor, eventType, subjectID string, details map[string]string) {
	if l == nil {
		return
	}
	e := l.base(r, audit.CategoryAdmin, eventType, actor)
	e.SubjectID = subjectID
	e.Success = true
	e.Details = details
	l.Log(r.Context(), e)
}

// UserCreated logs an admin creating a phone user.
func (l *Logger) UserCreated(r *http.Request, actor Actor, uid, phone, courseName string) {
	l.Admin(r, actor, audit.EventUserCreated, uid, map[string]string{
		"phone":       phone,
		"course_name": courseName,
	})
}

// NodesImported logs a finished bulk import.
func (l *Logger) NodesImported(r *http.Request, actor Actor, runID string, rows, created, updated int) {
	l.Admin(r, actor, audit.EventNodesImported, runID, map[string]string{
		"rows":    strconv.Itoa(rows),
		"created": strconv.Itoa(created),
		"updated": strconv.Itoa(updated),
	})
}

// PushSent logs a push message accepted by FCM.
func (l *Logger) PushSent(r *http.Request, actor Actor, target, messageName string) {
	l.Admin(r, actor, audit.EventPushSent, target, map[string]string{
		"message": messageName,
	})
}
