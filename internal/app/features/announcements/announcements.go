// Package announcements manages push announcement records.
//
// Endpoints (mounted at /api/announcements, bearer + admin):
//   - GET    /            - list, newest first
//   - POST   /            - create, optionally publishing right away
//   - POST   /{id}/send   - push an existing announcement to its audience
//   - POST   /{id}/toggle - flip the published flag
//   - DELETE /{id}        - delete
package announcements

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/stratacontent/internal/app/store/announcement"
	"github.com/dalemusser/stratacontent/internal/app/store/audit"
	"github.com/dalemusser/stratacontent/internal/app/system/auditlog"
	"github.com/dalemusser/stratacontent/internal/app/system/auth"
	"github.com/dalemusser/stratacontent/internal/app/system/fcm"
	"github.com/dalemusser/stratacontent/internal/app/system/htmlsanitize"
	"github.com/dalemusser/stratacontent/internal/app/system/inputval"
	"github.com/dalemusser/stratacontent/internal/app/system/jsonutil"
	"github.com/dalemusser/stratacontent/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Sender delivers a push message and returns the name FCM assigned to it.
type Sender interface {
	Send(ctx context.Context, msg fcm.Message) (string, error)
}

// Handler serves the announcement endpoints.
type Handler struct {
	announcements *announcement.Store
	sender        Sender
	audit         *auditlog.Logger
	logger        *zap.Logger
	now           func() time.Time
}

// NewHandler creates a Handler.
func NewHandler(db *mongo.Database, sender Sender, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		announcements: announcement.New(db),
		sender:        sender,
		audit:         audit,
		logger:        logger,
		now:           time.Now,
	}
}

// Routes returns the router; the caller applies auth.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Post("/{id}/send", h.Send)
	r.Post("/{id}/toggle", h.Toggle)
	r.Delete("/{id}", h.Delete)
	return r
}

// List handles GET /.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.announcements.List(r.Context())
	if err != nil {
		h.logger.Error("list announcements failed", zap.Error(err))
		jsonutil.InternalError(w, "Failed to list announcements")
		return
	}
	jsonutil.Success(w, map[string]any{"items": items})
}

type createInput struct {
	Title    string `json:"title" validate:"required" label:"Title"`
	Body     string `json:"body"`
	Audience string `json:"audience"`
	Type     string `json:"type" validate:"announcementtype" label:"Type" msg:"Type must be one of announcement, info, video, pdf, folder"`
	NodeID   string `json:"nodeId"`
	URL      string `json:"url"`
	Publish  bool   `json:"publish"`
}

// Create handles POST /. Title and body are reduced to plain text. With
// "publish": true the announcement is pushed to its audience topic and
// marked published; a failed push leaves it stored but unpublished.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in createInput
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "Invalid JSON body")
		return
	}
	in.Title = htmlsanitize.Text(in.Title)
	in.Body = htmlsanitize.Text(in.Body)
	in.Audience = strings.TrimSpace(in.Audience)
	in.Type = strings.ToLower(strings.TrimSpace(in.Type))
	in.NodeID = strings.TrimSpace(in.NodeID)
	in.URL = strings.TrimSpace(in.URL)
	if in.Type == "" {
		in.Type = string(models.AnnouncementPlain)
	}

	if res := inputval.Validate(in); res.HasErrors() {
		jsonutil.BadRequest(w, res.First())
		return
	}
	if in.NodeID != "" && !inputval.IsValidObjectID(in.NodeID) {
		jsonutil.BadRequest(w, "nodeId must be a valid id")
		return
	}
	if in.URL != "" && !inputval.IsValidHTTPURL(in.URL) {
		jsonutil.BadRequest(w, "url must be an http(s) url")
		return
	}

	ctx := r.Context()
	ann, err := h.announcements.Create(ctx, announcement.CreateInput{
		Title:    in.Title,
		Body:     in.Body,
		Type:     models.AnnouncementType(in.Type),
		Audience: in.Audience,
		NodeID:   in.NodeID,
		URL:      in.URL,
	})
	if err != nil {
		h.logger.Error("create announcement failed", zap.Error(err))
		jsonutil.InternalError(w, "Failed to create announcement")
		return
	}

	h.logger.Info("announcement created",
		zap.String("id", ann.ID.Hex()),
		zap.String("audience", ann.Audience))
	h.audit.Admin(r, auth.Actor(r), audit.EventAnnouncementCreated, ann.ID.Hex(), map[string]string{
		"audience": ann.Audience,
		"type":     string(ann.Type),
	})

	if !in.Publish {
		jsonutil.Success(w, map[string]any{"announcement": ann})
		return
	}
	h.publish(w, r, ann)
}

// Send handles POST /{id}/send.
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	id, ok := announcementID(w, r)
	if !ok {
		return
	}

	ann, err := h.announcements.GetByID(r.Context(), id)
	if errors.Is(err, announcement.ErrNotFound) {
		jsonutil.NotFound(w, "Announcement not found")
		return
	}
	if err != nil {
		h.logger.Error("get announcement failed", zap.String("id", id.Hex()), zap.Error(err))
		jsonutil.InternalError(w, "Failed to load announcement")
		return
	}
	h.publish(w, r, ann)
}

// publish pushes ann to its audience topic, records the send and writes
// the response.
func (h *Handler) publish(w http.ResponseWriter, r *http.Request, ann *models.Announcement) {
	ctx := r.Context()
	msg := fcm.TopicMessage(ann.Audience, ann.Title, ann.Body, pushData(ann))

	name, err := h.sender.Send(ctx, msg)
	if err != nil {
		h.logger.Error("announcement push failed",
			zap.String("id", ann.ID.Hex()),
			zap.String("topic", msg.Topic),
			zap.Error(err))
		status, text := http.StatusBadGateway, "FCM send failed"
		if errors.Is(err, fcm.ErrNotConfigured) {
			status, text = http.StatusInternalServerError, "Push notifications are not configured"
		}
		jsonutil.JSON(w, status, map[string]any{
			"error":        text,
			"announcement": ann,
		})
		return
	}

	if err := h.announcements.MarkSent(ctx, ann.ID, name, h.now()); err != nil {
		h.logger.Error("mark announcement sent failed", zap.String("id", ann.ID.Hex()), zap.Error(err))
		jsonutil.InternalError(w, "Push sent but the announcement was not updated")
		return
	}
	sent, err := h.announcements.GetByID(ctx, ann.ID)
	if err != nil {
		h.logger.Error("reload announcement failed", zap.String("id", ann.ID.Hex()), zap.Error(err))
		jsonutil.InternalError(w, "Failed to load announcement")
		return
	}

	h.logger.Info("announcement sent",
		zap.String("id", ann.ID.Hex()),
		zap.String("topic", msg.Topic),
		zap.String("name", name))
	h.audit.Admin(r, auth.Actor(r), audit.EventAnnouncementSent, ann.ID.Hex(), map[string]string{
		"topic":   msg.Topic,
		"message": name,
	})

	jsonutil.Success(w, map[string]any{
		"announcement": sent,
		"name":         name,
	})
}

// pushData routes a tap on the notification to the announced content.
func pushData(ann *models.Announcement) map[string]any {
	data := map[string]any{
		"type":           string(ann.Type),
		"announcementId": ann.ID.Hex(),
	}
	if ann.NodeID != "" {
		data["nodeId"] = ann.NodeID
	}
	if ann.URL != "" {
		data["url"] = ann.URL
	}
	return data
}

// Toggle handles POST /{id}/toggle.
func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	id, ok := announcementID(w, r)
	if !ok {
		return
	}

	ann, err := h.announcements.TogglePublished(r.Context(), id)
	if errors.Is(err, announcement.ErrNotFound) {
		jsonutil.NotFound(w, "Announcement not found")
		return
	}
	if err != nil {
		h.logger.Error("toggle announcement failed", zap.String("id", id.Hex()), zap.Error(err))
		jsonutil.InternalError(w, "Failed to update announcement")
		return
	}

	published := "false"
	if ann.Published {
		published = "true"
	}
	h.audit.Admin(r, auth.Actor(r), audit.EventAnnouncementToggled, id.Hex(), map[string]string{
		"published": published,
	})
	jsonutil.Success(w, map[string]any{"announcement": ann})
}

// Delete handles DELETE /{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := announcementID(w, r)
	if !ok {
		return
	}

	err := h.announcements.Delete(r.Context(), id)
	if errors.Is(err, announcement.ErrNotFound) {
		jsonutil.NotFound(w, "Announcement not found")
		return
	}
	if err != nil {
		h.logger.Error("delete announcement failed", zap.String("id", id.Hex()), zap.Error(err))
		jsonutil.InternalError(w, "Failed to delete announcement")
		return
	}

	h.logger.Info("announcement deleted", zap.String("id", id.Hex()))
	h.audit.Admin(r, auth.Actor(r), audit.EventAnnouncementDeleted, id.Hex(), nil)
	jsonutil.Success(w, map[string]any{"id": id.Hex()})
}

func announcementID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		jsonutil.BadRequest(w, "Invalid announcement id")
		return primitive.NilObjectID, false
	}
	return id, true
}
