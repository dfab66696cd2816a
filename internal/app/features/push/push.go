// Package push exposes push-notification dispatch over HTTP.
//
// Endpoints (mounted at /api/fcm):
//   - GET  /ping      - liveness, public
//   - POST /announce  - send to an audience topic (bearer + admin)
//   - POST /testToken - send to one device token (bearer + admin)
package push

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dalemusser/stratacontent/internal/app/system/auditlog"
	"github.com/dalemusser/stratacontent/internal/app/system/auth"
	"github.com/dalemusser/stratacontent/internal/app/system/fcm"
	"github.com/dalemusser/stratacontent/internal/app/system/htmlsanitize"
	"github.com/dalemusser/stratacontent/internal/app/system/jsonutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Sender delivers a message and returns the name FCM assigned to it.
type Sender interface {
	Send(ctx context.Context, msg fcm.Message) (string, error)
}

// Handler serves the push endpoints.
type Handler struct {
	sender Sender
	audit  *auditlog.Logger
	logger *zap.Logger
	now    func() time.Time
}

// NewHandler creates a Handler.
func NewHandler(sender Sender, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		sender: sender,
		audit:  audit,
		logger: logger,
		now:    time.Now,
	}
}

// Routes returns the router. protect guards every route except /ping.
func Routes(h *Handler, protect func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/ping", h.Ping)
	r.Group(func(pr chi.Router) {
		pr.Use(protect)
		pr.Post("/announce", h.Announce)
		pr.Post("/testToken", h.TestToken)
	})
	return r
}

// Ping handles GET /ping.
func (h *Handler) Ping(w http.ResponseWriter, r *http.Request) {
	jsonutil.Success(w, map[string]any{
		"ts": h.now().UTC().Format(time.RFC3339),
	})
}

type announceInput struct {
	Audience string         `json:"audience"`
	Title    string         `json:"title"`
	Body     string         `json:"body"`
	Data     map[string]any `json:"data"`
}

// Announce handles POST /announce.
func (h *Handler) Announce(w http.ResponseWriter, r *http.Request) {
	var in announceInput
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "Invalid JSON body")
		return
	}
	title := htmlsanitize.Text(in.Title)
	if title == "" {
		jsonutil.BadRequest(w, "Title is required")
		return
	}

	msg := fcm.TopicMessage(in.Audience, title, htmlsanitize.Text(in.Body), in.Data)
	h.send(w, r, msg, msg.Topic)
}

type tokenInput struct {
	Token string         `json:"token"`
	Title string         `json:"title"`
	Body  string         `json:"body"`
	Data  map[string]any `json:"data"`
}

// TestToken handles POST /testToken, a single-device send for diagnostics.
func (h *Handler) TestToken(w http.ResponseWriter, r *http.Request) {
	var in tokenInput
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "Invalid JSON body")
		return
	}
	if in.Token == "" {
		jsonutil.BadRequest(w, "Token is required")
		return
	}
	title := htmlsanitize.Text(in.Title)
	if title == "" {
		title = "Test"
	}

	msg := fcm.TokenMessage(in.Token, title, htmlsanitize.Text(in.Body), in.Data)
	h.send(w, r, msg, "token:"+tokenPrefix(in.Token))
}

func (h *Handler) send(w http.ResponseWriter, r *http.Request, msg fcm.Message, target string) {
	name, err := h.sender.Send(r.Context(), msg)
	if err != nil {
		h.logger.Error("push send failed",
			zap.String("target", target),
			zap.Error(err))
		if errors.Is(err, fcm.ErrNotConfigured) {
			jsonutil.InternalError(w, "Push notifications are not configured")
			return
		}
		jsonutil.BadGateway(w, "FCM send failed")
		return
	}

	h.logger.Info("push sent",
		zap.String("target", target),
		zap.String("name", name))
	h.audit.PushSent(r, auth.Actor(r), target, name)

	jsonutil.OK(w, map[string]string{"name": name})
}

func tokenPrefix(token string) string {
	if len(token) > 12 {
		return token[:12]
	}
	return token
}
