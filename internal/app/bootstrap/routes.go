// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"strings"
	"time"

	adminusersfeature "github.com/dalemusser/stratacontent/internal/app/features/adminusers"
	announcementsfeature "github.com/dalemusser/stratacontent/internal/app/features/announcements"
	auditlogfeature "github.com/dalemusser/stratacontent/internal/app/features/auditlog"
	healthfeature "github.com/dalemusser/stratacontent/internal/app/features/health"
	loginfeature "github.com/dalemusser/stratacontent/internal/app/features/login"
	nodesfeature "github.com/dalemusser/stratacontent/internal/app/features/nodes"
	pushfeature "github.com/dalemusser/stratacontent/internal/app/features/push"
	statusfeature "github.com/dalemusser/stratacontent/internal/app/features/status"
	"github.com/dalemusser/stratacontent/internal/app/store/audit"
	"github.com/dalemusser/stratacontent/internal/app/store/ratelimit"
	"github.com/dalemusser/stratacontent/internal/app/system/apicors"
	"github.com/dalemusser/stratacontent/internal/app/system/auditlog"
	"github.com/dalemusser/stratacontent/internal/app/system/auth"
	"github.com/dalemusser/stratacontent/internal/app/system/authutil"
	"github.com/dalemusser/stratacontent/internal/app/system/jsonutil"
	"github.com/dalemusser/stratacontent/internal/app/system/tasks"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/middleware"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// importRouteTimeout bounds a synchronous CSV import (?wait=1). Everything
// else shares requestTimeout.
const (
	requestTimeout     = 30 * time.Second
	importRouteTimeout = 30 * time.Minute
)

// BuildHandler constructs the root HTTP handler for this WAFFLE app.
//
// Route layout:
//   - /health, /ready, /readyz, /livez          public probes
//   - /api/fcm/ping                             public
//   - /api/auth/token                           public, hmac mode only
//   - /api/fcm/{announce,testToken}             bearer + admin
//   - /api/admin/{users,audit,status},
//     /api/nodes, /api/announcements            bearer + admin
//   - <storage_local_url>/*                     uploaded files (local storage)
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	auditLogger := auditlog.New(audit.New(deps.MongoDatabase), logger, auditlog.Config{
		Auth:       appCfg.AuditLogAuth,
		Admin:      appCfg.AuditLogAdmin,
		TrustProxy: appCfg.TrustProxy,
	})

	admins := authutil.NewAllowlist(appCfg.AdminEmails...)
	protect := auth.Admin(deps.Verifier, admins, auditLogger, logger)

	r := chi.NewRouter()

	// ─────────────────────────────────────────────────────────────────────────────
	// Global Middleware (applies to ALL routes)
	// ─────────────────────────────────────────────────────────────────────────────

	r.Use(chimw.RequestID)
	if appCfg.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(chimw.Recoverer)

	// CORS must run before auth so preflight requests are answered.
	r.Use(apicors.Middleware(appCfg.CORSOrigins...))

	// Security headers: X-Frame-Options, X-Content-Type-Options, etc.
	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))

	// ─────────────────────────────────────────────────────────────────────────────
	// Public routes
	// ─────────────────────────────────────────────────────────────────────────────

	healthHandler := healthfeature.NewHandler(deps.MongoClient, deps.Push != nil, logger)
	r.With(chimw.Timeout(requestTimeout)).Mount("/health", healthfeature.Routes(healthHandler))
	healthfeature.MountRootEndpoints(r, healthHandler)

	// Uploaded files (local storage only)
	if appCfg.StorageType == "local" || appCfg.StorageType == "" {
		prefix := "/" + strings.Trim(appCfg.StorageLocalURL, "/")
		r.Handle(prefix+"/*", fileserver.Handler(prefix, appCfg.StorageLocalPath))
	}

	// ─────────────────────────────────────────────────────────────────────────────
	// API routes
	// ─────────────────────────────────────────────────────────────────────────────

	r.Route("/api", func(api chi.Router) {
		api.Group(func(g chi.Router) {
			g.Use(chimw.Timeout(requestTimeout))

			// Token endpoint exists only when this service signs its own tokens.
			if deps.Issuer != nil {
				var attempts *ratelimit.Store
				if appCfg.RateLimitEnabled {
					attempts = ratelimit.New(deps.MongoDatabase, ratelimit.Limits{
						MaxAttempts: appCfg.RateLimitLoginAttempts,
						Window:      appCfg.RateLimitLoginWindow,
						Lockout:     appCfg.RateLimitLoginLockout,
					})
				}
				loginHandler := loginfeature.NewHandler(deps.MongoDatabase, deps.Issuer, appCfg.TokenTTL, attempts, auditLogger, logger)
				g.Mount("/auth", loginfeature.Routes(loginHandler))
				logger.Info("token endpoint enabled", zap.String("path", "/api/auth/token"))
			}

			pushHandler := pushfeature.NewHandler(deps.Push, auditLogger, logger)
			g.Mount("/fcm", pushfeature.Routes(pushHandler, protect))

			adminUsersHandler := adminusersfeature.NewHandler(deps.MongoDatabase, appCfg.PhoneUserDomain, auditLogger, logger)
			g.With(protect).Mount("/admin/users", adminusersfeature.Routes(adminUsersHandler))

			auditHandler := auditlogfeature.NewHandler(deps.MongoDatabase, logger)
			g.With(protect).Mount("/admin/audit", auditlogfeature.Routes(auditHandler))

			statusHandler := statusfeature.NewHandler(statusfeature.Options{
				Client:      deps.MongoClient,
				AuthMode:    appCfg.AuthMode,
				PushProject: deps.Push.ProjectID(),
				Jobs: func() []tasks.JobStatus {
					if taskRunner == nil {
						return nil
					}
					return taskRunner.Status()
				},
				Config: statusConfigGroups(coreCfg, appCfg),
			}, logger)
			g.With(protect).Mount("/admin/status", statusfeature.Routes(statusHandler))

			announcementsHandler := announcementsfeature.NewHandler(deps.MongoDatabase, deps.Push, auditLogger, logger)
			g.With(protect).Mount("/announcements", announcementsfeature.Routes(announcementsHandler))
		})

		// Node routes include the CSV import, which may run for minutes
		// when the caller waits for it.
		api.Group(func(g chi.Router) {
			g.Use(chimw.Timeout(importRouteTimeout))
			nodesHandler := nodesfeature.NewHandler(deps.MongoDatabase, deps.FileStorage, auditLogger, logger)
			g.With(protect).Mount("/nodes", nodesfeature.Routes(nodesHandler))
		})

		api.NotFound(func(w http.ResponseWriter, _ *http.Request) {
			jsonutil.NotFound(w, "Not found")
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		jsonutil.NotFound(w, "Not found")
	})

	return r, nil
}
