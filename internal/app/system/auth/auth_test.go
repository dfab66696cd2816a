package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/stratacontent/internal/app/system/authutil"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "this-is-a-test-secret-32-chars!!"

func newTestVerifier(t *testing.T) *HMACVerifier {
	t.Helper()
	v, err := NewHMACVerifier(testSecret, "")
	require.NoError(t, err)
	return v
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestNewHMACVerifier_ShortSecret(t *testing.T) {
	_, err := NewHMACVerifier("short", "")
	assert.Error(t, err)
}

func TestHMACVerifier_RoundTrip(t *testing.T) {
	v := newTestVerifier(t)
	token, err := v.Issue("uid-1", "admin@example.com", time.Hour)
	require.NoError(t, err)

	c, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "uid-1", c.UID)
	assert.Equal(t, "admin@example.com", c.Email)
}

func TestHMACVerifier_Rejects(t *testing.T) {
	v := newTestVerifier(t)
	other, err := NewHMACVerifier("a-completely-different-secret!!", "")
	require.NoError(t, err)

	expired, _ := v.Issue("uid-1", "a@example.com", -time.Minute)
	foreign, _ := other.Issue("uid-1", "a@example.com", time.Hour)
	noSubject, _ := v.Issue("", "a@example.com", time.Hour)
	wrongIssuer, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "uid-1",
		Issuer:    "someone-else",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testSecret))

	for name, token := range map[string]string{
		"expired":      expired,
		"foreign key":  foreign,
		"no subject":   noSubject,
		"wrong issuer": wrongIssuer,
		"garbage":      "not.a.jwt",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestNewFirebaseVerifier_RequiresProject(t *testing.T) {
	_, err := NewFirebaseVerifier(context.Background(), "", "")
	assert.Error(t, err)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi"},
		{"bearer abc", "abc"},
		{"Basic dXNlcjpwYXNz", ""},
		{"Bearer", ""},
		{"", ""},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", "/", nil)
		if tt.header != "" {
			r.Header.Set("Authorization", tt.header)
		}
		assert.Equal(t, tt.want, BearerToken(r), "header %q", tt.header)
	}
}

func TestRequireBearer(t *testing.T) {
	v := newTestVerifier(t)
	var seen *Claims
	h := RequireBearer(v, nil, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = CurrentClaims(r)
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("missing", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/nodes", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, MsgMissingToken, errorBody(t, rec))
	})

	t.Run("invalid", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/nodes", nil)
		req.Header.Set("Authorization", "Bearer nope")
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, MsgInvalidToken, errorBody(t, rec))
	})

	t.Run("valid", func(t *testing.T) {
		token, err := v.Issue("uid-9", "x@example.com", time.Hour)
		require.NoError(t, err)
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/nodes", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, seen)
		assert.Equal(t, "uid-9", seen.UID)
	})
}

func TestRequireAdmin(t *testing.T) {
	admins := authutil.NewAllowlist("Admin@Example.com, ops@example.com")
	h := RequireAdmin(admins, nil, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		claims *Claims
		want   int
	}{
		{"no claims", nil, http.StatusUnauthorized},
		{"not admin", &Claims{UID: "u", Email: "student@example.com"}, http.StatusForbidden},
		{"no email", &Claims{UID: "u"}, http.StatusForbidden},
		{"admin case-insensitive", &Claims{UID: "u", Email: "ADMIN@example.com"}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/admin/users", nil)
			if tt.claims != nil {
				req = WithTestClaims(req, tt.claims)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusForbidden {
				assert.Equal(t, MsgForbidden, errorBody(t, rec))
			}
		})
	}
}

func TestActor(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	assert.Empty(t, Actor(req).UID)

	req = WithTestClaims(req, &Claims{UID: "u1", Email: "a@example.com"})
	a := Actor(req)
	assert.Equal(t, "u1", a.UID)
	assert.Equal(t, "a@example.com", a.Email)
}
