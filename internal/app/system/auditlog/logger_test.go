package auditlog_test

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/stratacontent/internal/app/store/audit"
	"github.com/dalemusser/stratacontent/internal/app/system/auditlog"
	"github.com/dalemusser/stratacontent/internal/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_NilIsNoop(t *testing.T) {
	var l *auditlog.Logger
	r := httptest.NewRequest("GET", "/api/nodes", nil)
	l.AuthRejected(r, "missing token")
	l.UserCreated(r, auditlog.Actor{UID: "a"}, "uid", "5550101234", "RN")
}

func TestLogger_Settings(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	core, logs := observer.New(zap.InfoLevel)
	l := auditlog.New(store, zap.New(core), auditlog.Config{Auth: "log", Admin: "db"})

	r := httptest.NewRequest("POST", "/api/admin/users", nil)
	r.RemoteAddr = "10.0.0.9:4444"
	l.AuthRejected(r, "Invalid/expired token")
	l.UserCreated(r, auditlog.Actor{UID: "admin-uid", Email: "admin@example.com"}, "new-uid", "5550101234", "RN")

	if logs.Len() != 1 {
		t.Fatalf("zap entries = %d, want 1 (auth only)", logs.Len())
	}
	if got := logs.All()[0].ContextMap()["event_type"]; got != audit.EventAuthRejected {
		t.Errorf("zap event_type = %v, want %q", got, audit.EventAuthRejected)
	}

	events, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("stored events = %d, want 1 (admin only)", len(events))
	}
	e := events[0]
	if e.EventType != audit.EventUserCreated || e.SubjectID != "new-uid" || e.ActorEmail != "admin@example.com" {
		t.Errorf("stored event = %+v", e)
	}
	if e.IP != "10.0.0.9" {
		t.Errorf("IP = %q, want %q", e.IP, "10.0.0.9")
	}
	if e.Details["phone"] != "5550101234" {
		t.Errorf("Details[phone] = %q", e.Details["phone"])
	}
}

func TestLogger_Off(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := auditlog.New(nil, zap.New(core), auditlog.Config{Auth: "off", Admin: "log"})

	r := httptest.NewRequest("GET", "/", nil)
	l.AdminDenied(r, auditlog.Actor{Email: "someone@example.com"})
	if logs.Len() != 0 {
		t.Errorf("zap entries = %d, want 0 with auth off", logs.Len())
	}

	l.PushSent(r, auditlog.Actor{UID: "a"}, "course_rn", "projects/p/messages/1")
	if logs.Len() != 1 {
		t.Errorf("zap entries = %d, want 1", logs.Len())
	}
}
