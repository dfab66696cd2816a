// Package auth verifies bearer tokens and gates admin routes.
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/stratacontent/internal/app/system/auditlog"
	"github.com/dalemusser/stratacontent/internal/app/system/authutil"
	"github.com/dalemusser/stratacontent/internal/app/system/jsonutil"
	"go.uber.org/zap"
)

// Messages returned with 401 and 403 responses.
const (
	MsgMissingToken = "Missing Authorization Bearer token"
	MsgInvalidToken = "Invalid/expired token"
	MsgForbidden    = "Forbidden"
)

type ctxKey string

const claimsKey ctxKey = "claims"

// CurrentClaims returns the verified caller and a "found?" flag.
func CurrentClaims(r *http.Request) (*Claims, bool) {
	c, ok := r.Context().Value(claimsKey).(*Claims)
	return c, ok
}

// Actor converts the current caller into an audit actor.
func Actor(r *http.Request) auditlog.Actor {
	if c, ok := CurrentClaims(r); ok {
		return auditlog.Actor{UID: c.UID, Email: c.Email}
	}
	return auditlog.Actor{}
}

func withClaims(r *http.Request, c *Claims) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), claimsKey, c))
}

// WithTestClaims injects Claims into the request context for testing.
func WithTestClaims(r *http.Request, c *Claims) *http.Request {
	return withClaims(r, c)
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// RequireBearer returns middleware that rejects requests without a valid
// bearer token (401) and stores the verified Claims in the context.
func RequireBearer(v Verifier, audit *auditlog.Logger, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				audit.AuthRejected(r, "missing token")
				jsonutil.Unauthorized(w, MsgMissingToken)
				return
			}

			claims, err := v.Verify(r.Context(), token)
			if err != nil {
				logger.Debug("bearer token rejected",
					zap.Error(err),
					zap.String("path", r.URL.Path))
				audit.AuthRejected(r, "invalid token")
				jsonutil.Unauthorized(w, MsgInvalidToken)
				return
			}

			next.ServeHTTP(w, withClaims(r, claims))
		})
	}
}

// RequireAdmin returns middleware that allows only callers whose token email
// is on the allowlist. It must run after RequireBearer.
func RequireAdmin(admins authutil.Allowlist, audit *auditlog.Logger, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, ok := CurrentClaims(r)
			if !ok {
				jsonutil.Unauthorized(w, MsgMissingToken)
				return
			}
			if !admins.Contains(c.Email) {
				logger.Info("admin access denied",
					zap.String("uid", c.UID),
					zap.String("email", c.Email),
					zap.String("path", r.URL.Path))
				audit.AdminDenied(r, auditlog.Actor{UID: c.UID, Email: c.Email})
				jsonutil.Forbidden(w, MsgForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Admin combines RequireBearer and RequireAdmin.
func Admin(v Verifier, admins authutil.Allowlist, audit *auditlog.Logger, logger *zap.Logger) func(http.Handler) http.Handler {
	bearer := RequireBearer(v, audit, logger)
	admin := RequireAdmin(admins, audit, logger)
	return func(next http.Handler) http.Handler {
		return bearer(admin(next))
	}
}
