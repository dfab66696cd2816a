// internal/app/features/login/login.go
//
// Package login issues bearer tokens for provisioned identities when the
// server runs with auth_mode=hmac. Production deployments sign users in
// with Firebase and never mount this route.
//
//	POST /api/auth/token  {email, password} -> {token, expiresIn, uid}
package login

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/stratacontent/internal/app/store/identity"
	"github.com/dalemusser/stratacontent/internal/app/store/ratelimit"
	"github.com/dalemusser/stratacontent/internal/app/system/auditlog"
	"github.com/dalemusser/stratacontent/internal/app/system/authutil"
	"github.com/dalemusser/stratacontent/internal/app/system/jsonutil"
	"github.com/dalemusser/stratacontent/internal/app/system/normalize"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Issuer signs tokens. *auth.HMACVerifier satisfies it.
type Issuer interface {
	Issue(uid, email string, ttl time.Duration) (string, error)
}

// Handler serves the token endpoint.
type Handler struct {
	identities *identity.Store
	attempts   *ratelimit.Store // nil disables lockout
	issuer     Issuer
	ttl        time.Duration
	audit      *auditlog.Logger
	logger     *zap.Logger
}

// NewHandler creates a Handler. attempts may be nil.
func NewHandler(db *mongo.Database, issuer Issuer, ttl time.Duration, attempts *ratelimit.Store, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Handler{
		identities: identity.New(db),
		attempts:   attempts,
		issuer:     issuer,
		ttl:        ttl,
		audit:      audit,
		logger:     logger,
	}
}

// Routes mounts POST /token.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/token", h.Token)
	return r
}

type tokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func lockedMessage(until *time.Time) string {
	if until == nil {
		return "Too many failed sign-in attempts. Please try again later."
	}
	remaining := time.Until(*until)
	if remaining > time.Minute {
		return fmt.Sprintf("Too many failed sign-in attempts. Please try again in %d minute(s).", int(remaining.Minutes())+1)
	}
	return fmt.Sprintf("Too many failed sign-in attempts. Please try again in %d second(s).", int(remaining.Seconds())+1)
}

// Token checks the password and returns a signed bearer token.
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.BadRequest(w, "Invalid JSON")
		return
	}
	email := normalize.Email(req.Email)
	if email == "" || strings.TrimSpace(req.Password) == "" {
		jsonutil.BadRequest(w, "Email and password are required")
		return
	}

	if h.attempts != nil {
		if d := h.attempts.Check(r.Context(), email); !d.Allowed {
			h.audit.SignInFailed(r, email, "locked out")
			jsonutil.Error(w, http.StatusTooManyRequests, lockedMessage(d.LockedUntil))
			return
		}
	}

	id, err := h.identities.GetByEmail(r.Context(), email)
	switch {
	case errors.Is(err, identity.ErrNotFound):
		h.reject(w, r, email, "unknown email")
		return
	case err != nil:
		h.logger.Error("token: identity lookup failed", zap.Error(err), zap.String("email", email))
		jsonutil.InternalError(w, "Sign-in failed")
		return
	case id.Disabled:
		h.reject(w, r, email, "identity disabled")
		return
	case !authutil.CheckPassword(req.Password, id.PasswordHash):
		h.reject(w, r, email, "wrong password")
		return
	}

	token, err := h.issuer.Issue(id.UID, id.Email, h.ttl)
	if err != nil {
		h.logger.Error("token: signing failed", zap.Error(err))
		jsonutil.InternalError(w, "Sign-in failed")
		return
	}
	if h.attempts != nil {
		if err := h.attempts.Clear(r.Context(), email); err != nil {
			h.logger.Warn("token: clearing failed attempts", zap.Error(err))
		}
	}
	h.audit.TokenIssued(r, auditlog.Actor{UID: id.UID, Email: id.Email})

	jsonutil.OK(w, map[string]any{
		"token":     token,
		"expiresIn": int(h.ttl.Seconds()),
		"uid":       id.UID,
	})
}

// reject counts the failure and answers 401, or 429 when this failure
// starts a lockout. The message never says which check failed.
func (h *Handler) reject(w http.ResponseWriter, r *http.Request, email, reason string) {
	h.audit.SignInFailed(r, email, reason)
	if h.attempts != nil {
		d, err := h.attempts.RecordFailure(r.Context(), email)
		if err != nil {
			h.logger.Warn("token: recording failed attempt", zap.Error(err))
		} else if !d.Allowed {
			jsonutil.Error(w, http.StatusTooManyRequests, lockedMessage(d.LockedUntil))
			return
		}
	}
	jsonutil.Unauthorized(w, "Invalid credentials")
}
