package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/dalemusser/stratacontent/internal/app/system/auth"
)

// AdminEmail is on the allowlist returned by AdminAllowlist.
const AdminEmail = "admin@test.com"

// TestUser represents the caller carried by a bearer token.
type TestUser struct {
	UID   string
	Email string
}

// AdminUser returns a TestUser whose email is an admin.
func AdminUser() TestUser {
	return TestUser{UID: "admin-uid", Email: AdminEmail}
}

// StudentUser returns a TestUser that is signed in but not an admin.
func StudentUser() TestUser {
	return TestUser{UID: "student-uid", Email: "5550101234@phoneuser.test"}
}

// WithUser puts the user's claims in the request context, bypassing token
// verification.
func WithUser(r *http.Request, user TestUser) *http.Request {
	return auth.WithTestClaims(r, &auth.Claims{UID: user.UID, Email: user.Email})
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

// NewJSONRequest creates a request whose body is v encoded as JSON.
func NewJSONRequest(method, target string, v any) *http.Request {
	var body io.Reader = http.NoBody
	if v != nil {
		b, err := json.Marshal(v)
		if err != nil {
			panic(err)
		}
		body = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// NewAuthenticatedRequest creates a JSON request with the user in context.
func NewAuthenticatedRequest(method, target string, user TestUser, v any) *http.Request {
	return WithUser(NewJSONRequest(method, target, v), user)
}

// NewMultipartRequest creates a multipart/form-data request with one file
// part named field.
func NewMultipartRequest(method, target, field, filename string, content []byte) *http.Request {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		panic(err)
	}
	if _, err := fw.Write(content); err != nil {
		panic(err)
	}
	if err := mw.Close(); err != nil {
		panic(err)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t interface{ Errorf(string, ...any) }, expected int) {
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d (body: %s)", r.Code, expected, r.Body.String())
	}
}

// AssertContains checks if the response body contains the expected string.
func (r *ResponseRecorder) AssertContains(t interface{ Errorf(string, ...any) }, expected string) {
	body := r.Body.String()
	if !strings.Contains(body, expected) {
		t.Errorf("response body does not contain %q", expected)
	}
}

// AssertError checks the {"error": msg} envelope.
func (r *ResponseRecorder) AssertError(t interface{ Errorf(string, ...any) }, expected string) {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(r.Body.Bytes(), &body); err != nil {
		t.Errorf("response is not a JSON error: %v (body: %s)", err, r.Body.String())
		return
	}
	if body.Error != expected {
		t.Errorf("error: got %q, want %q", body.Error, expected)
	}
}

// DecodeJSON decodes the response body into v.
func (r *ResponseRecorder) DecodeJSON(t interface {
	Fatalf(string, ...any)
}, v any) {
	if err := json.Unmarshal(r.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response: %v (body: %s)", err, r.Body.String())
	}
}
