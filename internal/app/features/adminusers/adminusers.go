// Package adminusers lets admins provision phone-number users and list
// everyone who can sign in.
//
// Endpoints (mounted at /api/admin/users, bearer + admin):
//   - GET  / - list identities merged with their profiles
//   - POST / - create an identity and its profile from a phone number
package adminusers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dalemusser/stratacontent/internal/app/store/identity"
	"github.com/dalemusser/stratacontent/internal/app/store/profile"
	"github.com/dalemusser/stratacontent/internal/app/system/auditlog"
	"github.com/dalemusser/stratacontent/internal/app/system/auth"
	"github.com/dalemusser/stratacontent/internal/app/system/authutil"
	"github.com/dalemusser/stratacontent/internal/app/system/inputval"
	"github.com/dalemusser/stratacontent/internal/app/system/jsonutil"
	"github.com/dalemusser/stratacontent/internal/app/system/normalize"
	"github.com/dalemusser/stratacontent/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the admin user endpoints.
type Handler struct {
	identities  *identity.Store
	profiles    *profile.Store
	emailDomain string
	audit       *auditlog.Logger
	logger      *zap.Logger
}

// NewHandler creates a Handler. emailDomain is the mail domain of the
// synthetic sign-in addresses (authutil.DefaultPhoneUserDomain when empty).
func NewHandler(db *mongo.Database, emailDomain string, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	if emailDomain == "" {
		emailDomain = authutil.DefaultPhoneUserDomain
	}
	return &Handler{
		identities:  identity.New(db),
		profiles:    profile.New(db),
		emailDomain: emailDomain,
		audit:       audit,
		logger:      logger,
	}
}

// Routes returns the router; the caller applies auth.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	return r
}

type createInput struct {
	Phone      string `json:"phone" validate:"required,phone10" label:"Phone" msg:"Phone must be 10 digits"`
	Password   string `json:"password" validate:"required,min=6" label:"Password" msg:"Password must be at least 6 characters"`
	Name       string `json:"name"`
	CourseName string `json:"courseName" validate:"required,coursename" label:"Course name"`
}

// Create handles POST /. Body: {phone, password, name?, courseName}.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in createInput
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "Invalid JSON body")
		return
	}
	in.Phone = normalize.Phone(in.Phone)
	in.Name = normalize.Name(in.Name)
	in.CourseName = normalize.CourseName(in.CourseName)

	if res := inputval.Validate(in); res.HasErrors() {
		jsonutil.BadRequest(w, res.First())
		return
	}

	ctx := r.Context()
	email := authutil.PhoneEmail(in.Phone, h.emailDomain)

	existing, err := h.profiles.GetByPhone(ctx, in.Phone)
	switch {
	case err == nil:
		jsonutil.Conflict(w, phoneTakenMessage(existing.Email))
		return
	case !errors.Is(err, profile.ErrNotFound):
		h.logger.Error("profile lookup failed", zap.String("phone", in.Phone), zap.Error(err))
		jsonutil.InternalError(w, "Failed to create user")
		return
	}

	displayName := in.Name
	if displayName == "" {
		displayName = in.Phone
	}
	ident, err := h.identities.Create(ctx, identity.CreateInput{
		Email:       email,
		Password:    in.Password,
		DisplayName: displayName,
	})
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrDuplicateEmail):
			jsonutil.Conflict(w, "This mobile is already registered.")
		case errors.Is(err, authutil.ErrPasswordTooShort), errors.Is(err, authutil.ErrPasswordTooLong):
			jsonutil.BadRequest(w, err.Error())
		default:
			h.logger.Error("identity create failed", zap.String("email", email), zap.Error(err))
			jsonutil.InternalError(w, "Failed to create user")
		}
		return
	}

	_, err = h.profiles.Create(ctx, profile.CreateInput{
		Phone:      in.Phone,
		UID:        ident.UID,
		Email:      email,
		Name:       in.Name,
		CourseName: in.CourseName,
	})
	if err != nil {
		// Without a profile the identity is unreachable from the user list.
		if derr := h.identities.Delete(ctx, ident.UID); derr != nil {
			h.logger.Error("orphaned identity after profile failure",
				zap.String("uid", ident.UID), zap.Error(derr))
		}
		if errors.Is(err, profile.ErrDuplicatePhone) {
			jsonutil.Conflict(w, phoneTakenMessage(""))
			return
		}
		h.logger.Error("profile create failed", zap.String("phone", in.Phone), zap.Error(err))
		jsonutil.InternalError(w, "Failed to create user")
		return
	}

	h.logger.Info("user created",
		zap.String("uid", ident.UID),
		zap.String("email", email))
	h.audit.UserCreated(r, auth.Actor(r), ident.UID, in.Phone, in.CourseName)

	jsonutil.Success(w, map[string]any{
		"uid":   ident.UID,
		"email": email,
		"phone": in.Phone,
	})
}

func phoneTakenMessage(email string) string {
	if email == "" {
		return "This phone already exists."
	}
	return fmt.Sprintf("This phone already exists (%s).", email)
}

// userRow is one entry of the list response. Missing values are null.
type userRow struct {
	UID        string  `json:"uid"`
	Phone      *string `json:"phone"`
	Email      *string `json:"email"`
	Name       *string `json:"name"`
	CourseName string  `json:"courseName"`
	CreatedAt  *string `json:"createdAt"`
}

// List handles GET /.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	idents, err := h.identities.ListAll(ctx)
	if err != nil {
		h.logger.Error("list identities failed", zap.Error(err))
		jsonutil.InternalError(w, "Failed to list users")
		return
	}

	uids := make([]string, len(idents))
	for i, id := range idents {
		uids[i] = id.UID
	}
	profiles, err := h.profiles.MapByUID(ctx, uids)
	if err != nil {
		h.logger.Error("load profiles failed", zap.Error(err))
		jsonutil.InternalError(w, "Failed to list users")
		return
	}

	users := make([]userRow, 0, len(idents))
	for _, id := range idents {
		p, ok := profiles[id.UID]
		users = append(users, mergeUser(id, p, ok))
	}

	h.logger.Debug("listed users",
		zap.Int("identities", len(idents)),
		zap.Int("profiles", len(profiles)))

	jsonutil.Success(w, map[string]any{"users": users})
}

// mergeUser prefers the profile's phone and name and the identity's email.
func mergeUser(id models.Identity, p models.Profile, hasProfile bool) userRow {
	row := userRow{UID: id.UID}
	if hasProfile {
		row.Phone = firstNonEmpty(p.Phone)
		row.Email = firstNonEmpty(id.Email, p.Email)
		row.Name = firstNonEmpty(p.Name, id.DisplayName)
		row.CourseName = p.CourseName
	} else {
		row.Email = firstNonEmpty(id.Email)
		row.Name = firstNonEmpty(id.DisplayName)
	}
	if !id.CreatedAt.IsZero() {
		s := id.CreatedAt.UTC().Format(time.RFC3339)
		row.CreatedAt = &s
	}
	return row
}

func firstNonEmpty(vals ...string) *string {
	for _, v := range vals {
		if v != "" {
			return &v
		}
	}
	return nil
}
