package status

import (
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/stratacontent/internal/app/system/tasks"
	"github.com/dalemusser/stratacontent/internal/testutil"
	"go.uber.org/zap"
)

func TestServe(t *testing.T) {
	db := testutil.SetupTestDB(t)

	h := NewHandler(Options{
		Client:      db.Client(),
		AuthMode:    "hmac",
		PushProject: "demo-project",
		Jobs: func() []tasks.JobStatus {
			return []tasks.JobStatus{{Name: "audit-log-cleanup", Interval: 6 * time.Hour, Runs: 1}}
		},
		Config: []ConfigGroup{{Name: "Auth", Items: []ConfigItem{
			{Name: "auth_hmac_secret", Value: Mask("super-secret-value")},
		}}},
	}, zap.NewNop())

	rec := testutil.NewRecorder()
	Routes(h).ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/"))
	rec.AssertStatus(t, http.StatusOK)

	var rep Report
	rec.DecodeJSON(t, &rep)
	if !rep.Database.Connected || rep.Database.Error != "" {
		t.Errorf("database = %+v", rep.Database)
	}
	if rep.AuthMode != "hmac" || !rep.Push.Enabled || rep.Push.Project != "demo-project" {
		t.Errorf("report = %+v", rep)
	}
	if len(rep.Jobs) != 1 || rep.Jobs[0].Name != "audit-log-cleanup" || rep.Jobs[0].Runs != 1 {
		t.Errorf("jobs = %v", rep.Jobs)
	}
	if rep.Runtime.GoVersion == "" {
		t.Error("go version missing")
	}
	if got := rep.Config[0].Items[0].Value; got != "su**************ue" {
		t.Errorf("masked secret = %q", got)
	}
}

func TestServe_NoClientAndNoPush(t *testing.T) {
	h := NewHandler(Options{AuthMode: "firebase"}, zap.NewNop())

	rec := testutil.NewRecorder()
	Routes(h).ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/"))
	rec.AssertStatus(t, http.StatusOK)

	var rep Report
	rec.DecodeJSON(t, &rep)
	if rep.Database.Connected || rep.Push.Enabled || rep.Jobs == nil {
		t.Errorf("report = %+v", rep)
	}
}

func TestMask(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", ""},
		{"abc", "****"},
		{"abcdef", "ab**ef"},
	}
	for _, tt := range tests {
		if got := Mask(tt.in); got != tt.want {
			t.Errorf("Mask(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "0 mins"},
		{time.Minute, "1 min"},
		{2*time.Hour + 5*time.Minute, "2 hours 5 mins"},
		{49 * time.Hour, "2 days 1 hour"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		b    uint64
		want string
	}{
		{512, "512 B"},
		{1536, "1.5 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.b); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.b, got, tt.want)
		}
	}
}
