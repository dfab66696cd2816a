package adminusers

import (
	"net/http"
	"testing"

	"github.com/dalemusser/stratacontent/internal/app/store/identity"
	"github.com/dalemusser/stratacontent/internal/app/store/profile"
	"github.com/dalemusser/stratacontent/internal/app/system/authutil"
	"github.com/dalemusser/stratacontent/internal/domain/models"
	"github.com/dalemusser/stratacontent/internal/testutil"
	"go.uber.org/zap"
)

const testDomain = "phoneuser.test"

func newHandler(t *testing.T) *Handler {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return NewHandler(db, testDomain, nil, zap.NewNop())
}

func create(h *Handler, body map[string]any) *testutil.ResponseRecorder {
	req := testutil.NewAuthenticatedRequest(http.MethodPost, "/", testutil.AdminUser(), body)
	rec := testutil.NewRecorder()
	Routes(h).ServeHTTP(rec, req)
	return rec
}

func TestCreate(t *testing.T) {
	h := newHandler(t)

	rec := create(h, map[string]any{
		"phone":      "(555) 010-1234",
		"password":   "secret1",
		"name":       "Asha",
		"courseName": "  GNM   2nd year ",
	})
	rec.AssertStatus(t, http.StatusOK)

	var resp struct {
		OK    bool   `json:"ok"`
		UID   string `json:"uid"`
		Email string `json:"email"`
		Phone string `json:"phone"`
	}
	rec.DecodeJSON(t, &resp)
	if !resp.OK || resp.UID == "" {
		t.Fatalf("response = %+v", resp)
	}
	if resp.Email != "5550101234@phoneuser.test" || resp.Phone != "5550101234" {
		t.Errorf("email/phone = %q/%q", resp.Email, resp.Phone)
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()

	p, err := h.profiles.GetByPhone(ctx, "5550101234")
	if err != nil {
		t.Fatalf("GetByPhone() error = %v", err)
	}
	if p.UID != resp.UID || p.CourseName != "GNM 2nd year" || p.Name != "Asha" {
		t.Errorf("profile = %+v", p)
	}

	id, err := h.identities.GetByUID(ctx, resp.UID)
	if err != nil {
		t.Fatalf("GetByUID() error = %v", err)
	}
	if !authutil.CheckPassword("secret1", id.PasswordHash) {
		t.Error("stored hash does not match password")
	}
	if id.DisplayName != "Asha" {
		t.Errorf("DisplayName = %q, want Asha", id.DisplayName)
	}
}

func TestCreate_DisplayNameDefaultsToPhone(t *testing.T) {
	h := newHandler(t)

	rec := create(h, map[string]any{"phone": "5550109999", "password": "secret1", "courseName": "RN"})
	rec.AssertStatus(t, http.StatusOK)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	id, err := h.identities.GetByEmail(ctx, "5550109999@phoneuser.test")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if id.DisplayName != "5550109999" {
		t.Errorf("DisplayName = %q, want phone", id.DisplayName)
	}
	p, _ := h.profiles.GetByPhone(ctx, "5550109999")
	if p.Name != "" {
		t.Errorf("profile Name = %q, want empty", p.Name)
	}
}

func TestCreate_Validation(t *testing.T) {
	h := newHandler(t)

	tests := []struct {
		name string
		body map[string]any
		want string
	}{
		{"missing phone", map[string]any{"password": "secret1", "courseName": "RN"}, "Phone must be 10 digits"},
		{"short phone", map[string]any{"phone": "555010", "password": "secret1", "courseName": "RN"}, "Phone must be 10 digits"},
		{"long phone", map[string]any{"phone": "555010123456", "password": "secret1", "courseName": "RN"}, "Phone must be 10 digits"},
		{"weak password", map[string]any{"phone": "5550101234", "password": "12345", "courseName": "RN"}, "Password must be at least 6 characters"},
		{"missing course", map[string]any{"phone": "5550101234", "password": "secret1"}, "Course name is required"},
		{"short course", map[string]any{"phone": "5550101234", "password": "secret1", "courseName": " R "}, "Course name is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := create(h, tt.body)
			rec.AssertStatus(t, http.StatusBadRequest)
			rec.AssertError(t, tt.want)
		})
	}
}

func TestCreate_InvalidJSON(t *testing.T) {
	h := newHandler(t)
	req := testutil.WithUser(testutil.NewRequest(http.MethodPost, "/"), testutil.AdminUser())
	rec := testutil.NewRecorder()
	Routes(h).ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestCreate_DuplicatePhone(t *testing.T) {
	h := newHandler(t)
	body := map[string]any{"phone": "5550101234", "password": "secret1", "courseName": "RN"}

	create(h, body).AssertStatus(t, http.StatusOK)

	rec := create(h, body)
	rec.AssertStatus(t, http.StatusConflict)
	rec.AssertError(t, "This phone already exists (5550101234@phoneuser.test).")
}

func TestCreate_DuplicateEmail(t *testing.T) {
	h := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// An identity without a profile, e.g. left over from an older import.
	if _, err := h.identities.Create(ctx, identity.CreateInput{
		Email:    "5550101234@phoneuser.test",
		Password: "secret1",
	}); err != nil {
		t.Fatalf("identities.Create() error = %v", err)
	}

	rec := create(h, map[string]any{"phone": "5550101234", "password": "secret1", "courseName": "RN"})
	rec.AssertStatus(t, http.StatusConflict)
	rec.AssertError(t, "This mobile is already registered.")

	if _, err := h.profiles.GetByPhone(ctx, "5550101234"); err != profile.ErrNotFound {
		t.Errorf("profile should not exist, GetByPhone() error = %v", err)
	}
}

func TestList(t *testing.T) {
	h := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	create(h, map[string]any{"phone": "5550101234", "password": "secret1", "name": "Asha", "courseName": "RN"}).
		AssertStatus(t, http.StatusOK)
	lone, err := h.identities.Create(ctx, identity.CreateInput{
		Email:       "instructor@example.com",
		Password:    "secret1",
		DisplayName: "Instructor",
	})
	if err != nil {
		t.Fatalf("identities.Create() error = %v", err)
	}

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/", testutil.AdminUser(), nil)
	rec := testutil.NewRecorder()
	Routes(h).ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	var resp struct {
		OK    bool      `json:"ok"`
		Users []userRow `json:"users"`
	}
	rec.DecodeJSON(t, &resp)
	if !resp.OK || len(resp.Users) != 2 {
		t.Fatalf("response = %+v", resp)
	}

	byUID := map[string]userRow{}
	for _, u := range resp.Users {
		byUID[u.UID] = u
	}

	instructor := byUID[lone.UID]
	if instructor.Phone != nil || instructor.CourseName != "" {
		t.Errorf("identity-only row = %+v", instructor)
	}
	if instructor.Name == nil || *instructor.Name != "Instructor" {
		t.Errorf("identity-only name = %v", instructor.Name)
	}
	if instructor.CreatedAt == nil {
		t.Error("createdAt should be set")
	}

	for uid, u := range byUID {
		if uid == lone.UID {
			continue
		}
		if u.Phone == nil || *u.Phone != "5550101234" || u.Name == nil || *u.Name != "Asha" || u.CourseName != "RN" {
			t.Errorf("profile row = %+v", u)
		}
	}
}

func TestMergeUser(t *testing.T) {
	id := models.Identity{UID: "u1", Email: "a@x.test", DisplayName: "Display"}

	row := mergeUser(id, models.Profile{Phone: "5550101234", Email: "b@x.test", CourseName: "RN"}, true)
	if *row.Email != "a@x.test" {
		t.Errorf("Email = %q, want identity email", *row.Email)
	}
	if *row.Name != "Display" {
		t.Errorf("Name = %q, want display name fallback", *row.Name)
	}
	if row.CreatedAt != nil {
		t.Error("CreatedAt should be nil for zero time")
	}

	row = mergeUser(models.Identity{UID: "u2"}, models.Profile{Email: "p@x.test"}, true)
	if row.Email == nil || *row.Email != "p@x.test" {
		t.Errorf("Email = %v, want profile email fallback", row.Email)
	}
	if row.Phone != nil || row.Name != nil {
		t.Errorf("missing values should be null: %+v", row)
	}
}
