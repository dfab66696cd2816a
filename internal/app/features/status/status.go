// internal/app/features/status/status.go
//
// Package status reports runtime, database and configuration state to
// admins as JSON (GET /api/admin/status).
package status

import (
	"context"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/stratacontent/internal/app/system/jsonutil"
	"github.com/dalemusser/stratacontent/internal/app/system/tasks"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const checkTimeout = 10 * time.Second

var startTime = time.Now()

// ConfigItem is one configuration value. Secrets arrive already masked.
type ConfigItem struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ConfigGroup is a logical group of configuration items.
type ConfigGroup struct {
	Name  string       `json:"name"`
	Items []ConfigItem `json:"items"`
}

// Options carries what the status report shows.
type Options struct {
	Client      *mongo.Client
	AuthMode    string
	PushProject string // blank when push is disabled
	Jobs        func() []tasks.JobStatus
	Config      []ConfigGroup
}

// Handler serves the status report.
type Handler struct {
	opts Options
	log  *zap.Logger
}

// NewHandler creates a new status Handler.
func NewHandler(opts Options, logger *zap.Logger) *Handler {
	return &Handler{opts: opts, log: logger}
}

// Routes returns the status router. The caller applies admin protection.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.Serve)
	return r
}

type databaseReport struct {
	Connected bool   `json:"connected"`
	Error     string `json:"error,omitempty"`
	PingMS    int64  `json:"pingMs"`
	Version   string `json:"version,omitempty"`
}

type runtimeReport struct {
	GoVersion    string `json:"goVersion"`
	Uptime       string `json:"uptime"`
	NumGoroutine int    `json:"goroutines"`
	MemAlloc     string `json:"memAlloc"`
}

type pushReport struct {
	Enabled bool   `json:"enabled"`
	Project string `json:"project,omitempty"`
}

// Report is the status body.
type Report struct {
	Database databaseReport    `json:"database"`
	Runtime  runtimeReport     `json:"runtime"`
	AuthMode string            `json:"authMode"`
	Push     pushReport        `json:"push"`
	Jobs     []tasks.JobStatus `json:"jobs"`
	Config   []ConfigGroup     `json:"config"`
}

// Serve handles GET /.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	rep := Report{
		Runtime: runtimeReport{
			GoVersion:    runtime.Version(),
			Uptime:       formatDuration(time.Since(startTime)),
			NumGoroutine: runtime.NumGoroutine(),
			MemAlloc:     formatBytes(m.Alloc),
		},
		AuthMode: h.opts.AuthMode,
		Push:     pushReport{Enabled: h.opts.PushProject != "", Project: h.opts.PushProject},
		Jobs:     []tasks.JobStatus{},
		Config:   h.opts.Config,
	}
	if h.opts.Jobs != nil {
		if jobs := h.opts.Jobs(); jobs != nil {
			rep.Jobs = jobs
		}
	}
	rep.Database = h.checkDatabase(ctx)

	jsonutil.OK(w, rep)
}

func (h *Handler) checkDatabase(ctx context.Context) databaseReport {
	var rep databaseReport
	if h.opts.Client == nil {
		rep.Error = "no client"
		return rep
	}

	pingStart := time.Now()
	if err := h.opts.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.log.Warn("status: database ping failed", zap.Error(err))
		rep.Error = err.Error()
		return rep
	}
	rep.Connected = true
	rep.PingMS = time.Since(pingStart).Milliseconds()

	var info bson.M
	if err := h.opts.Client.Database("admin").RunCommand(ctx, bson.D{{Key: "buildInfo", Value: 1}}).Decode(&info); err == nil {
		if version, ok := info["version"].(string); ok {
			rep.Version = version
		}
	}
	return rep
}

// Mask hides all but the two first and last characters of a secret.
func Mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60

	if days > 0 {
		return formatPlural(days, "day") + " " + formatPlural(hours, "hour")
	}
	if hours > 0 {
		return formatPlural(hours, "hour") + " " + formatPlural(minutes, "min")
	}
	return formatPlural(minutes, "min")
}

func formatPlural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return strconv.Itoa(n) + " " + unit + "s"
}

// formatBytes formats bytes with binary units and one decimal.
func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return strconv.Itoa(int(b)) + " B"
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	tenths := int(float64(b) / float64(div) * 10)
	return strconv.Itoa(tenths/10) + "." + strconv.Itoa(tenths%10) + " " + string("KMGTPE"[exp]) + "iB"
}
