// internal/app/features/auditlog/auditlog.go
//
// Package auditlog serves the audit trail to admins as JSON.
//
//	GET /api/admin/audit?category=&eventType=&actor=&subject=&success=&start=&end=&tz=&page=
package auditlog

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/stratacontent/internal/app/store/audit"
	"github.com/dalemusser/stratacontent/internal/app/system/jsonutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const pageSize = 50

// Handler serves audit queries.
type Handler struct {
	auditStore *audit.Store
	logger     *zap.Logger
}

// NewHandler creates a new audit log Handler.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		auditStore: audit.New(db),
		logger:     logger,
	}
}

// Routes returns the audit router. The caller applies admin protection.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/event-types", h.EventTypes)
	return r
}

type listItem struct {
	ID            string            `json:"id"`
	Timestamp     time.Time         `json:"timestamp"`
	Category      string            `json:"category"`
	EventType     string            `json:"eventType"`
	ActorUID      string            `json:"actorUid,omitempty"`
	ActorEmail    string            `json:"actorEmail,omitempty"`
	SubjectID     string            `json:"subjectId,omitempty"`
	IP            string            `json:"ip"`
	Success       bool              `json:"success"`
	FailureReason string            `json:"failureReason,omitempty"`
	Details       map[string]string `json:"details,omitempty"`
}

// EventTypes lists the known event types, optionally for one category.
func (h *Handler) EventTypes(w http.ResponseWriter, r *http.Request) {
	category := strings.TrimSpace(r.URL.Query().Get("category"))
	types := audit.EventTypes(category)
	if types == nil {
		jsonutil.BadRequest(w, "Unknown category")
		return
	}
	jsonutil.OK(w, map[string]any{"eventTypes": types})
}

// List returns one page of audit events, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	category := strings.TrimSpace(q.Get("category"))
	if category != "" && audit.EventTypes(category) == nil {
		jsonutil.BadRequest(w, "Unknown category")
		return
	}

	page := 1
	if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 0 {
		page = p
	}

	// Dates are read in the caller's timezone, falling back to UTC.
	loc := time.UTC
	if tz := strings.TrimSpace(q.Get("tz")); tz != "" {
		parsed, err := time.LoadLocation(tz)
		if err != nil {
			jsonutil.BadRequest(w, "Unknown timezone")
			return
		}
		loc = parsed
	}

	filter := audit.Filter{
		Category:  category,
		EventType: strings.TrimSpace(q.Get("eventType")),
		Actor:     strings.TrimSpace(q.Get("actor")),
		SubjectID: strings.TrimSpace(q.Get("subject")),
	}
	if s := strings.TrimSpace(q.Get("success")); s != "" {
		ok, err := strconv.ParseBool(s)
		if err != nil {
			jsonutil.BadRequest(w, "success must be true or false")
			return
		}
		filter.Success = &ok
	}
	if s := strings.TrimSpace(q.Get("start")); s != "" {
		t, err := time.ParseInLocation("2006-01-02", s, loc)
		if err != nil {
			jsonutil.BadRequest(w, "start must be YYYY-MM-DD")
			return
		}
		filter.Since = &t
	}
	if s := strings.TrimSpace(q.Get("end")); s != "" {
		t, err := time.ParseInLocation("2006-01-02", s, loc)
		if err != nil {
			jsonutil.BadRequest(w, "end must be YYYY-MM-DD")
			return
		}
		endOfDay := t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		filter.Until = &endOfDay
	}

	result, err := h.auditStore.List(r.Context(), filter, page, pageSize)
	if err != nil {
		h.logger.Error("failed to query audit events", zap.Error(err))
		jsonutil.InternalError(w, "Failed to load audit events")
		return
	}
	events, total := result.Events, result.Total

	items := make([]listItem, 0, len(events))
	for _, e := range events {
		items = append(items, listItem{
			ID:            e.ID.Hex(),
			Timestamp:     e.CreatedAt,
			Category:      e.Category,
			EventType:     e.EventType,
			ActorUID:      e.ActorUID,
			ActorEmail:    e.ActorEmail,
			SubjectID:     e.SubjectID,
			IP:            e.IP,
			Success:       e.Success,
			FailureReason: e.FailureReason,
			Details:       e.Details,
		})
	}

	totalPages := int((total + pageSize - 1) / pageSize)
	if totalPages < 1 {
		totalPages = 1
	}

	jsonutil.OK(w, map[string]any{
		"items":      items,
		"page":       page,
		"totalPages": totalPages,
		"total":      total,
		"hasNext":    page < totalPages,
	})
}
