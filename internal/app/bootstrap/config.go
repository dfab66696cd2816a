// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// EnvVarPrefix is the prefix for environment variables.
const EnvVarPrefix = "STRATACONTENT"

// Auth modes.
const (
	AuthModeFirebase = "firebase"
	AuthModeHMAC     = "hmac"
)

// appConfigKeys defines the configuration keys for this application.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, admin_emails, etc.
//   - Environment variables: STRATACONTENT_MONGO_URI, STRATACONTENT_ADMIN_EMAILS, etc.
//   - Command-line flags: --mongo_uri, --admin_emails, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "stratacontent", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Admin access
	{Name: "admin_emails", Default: "", Desc: "Comma-separated emails allowed to call admin endpoints"},
	{Name: "phone_user_domain", Default: "phone.local", Desc: "Email domain for phone users (<digits>@domain)"},

	// Bearer token verification
	{Name: "auth_mode", Default: AuthModeFirebase, Desc: "Token verifier: 'firebase' or 'hmac'"},
	{Name: "firebase_project_id", Default: "", Desc: "Firebase project id (token audience and issuer)"},
	{Name: "jwks_url", Default: "", Desc: "Override the Firebase JWKS URL"},
	{Name: "auth_hmac_secret", Default: "", Desc: "HS256 secret for auth_mode=hmac (16+ chars)"},
	{Name: "token_ttl", Default: "1h", Desc: "Lifetime of tokens issued in hmac mode"},

	// Sign-in lockout (hmac mode token endpoint)
	{Name: "rate_limit_enabled", Default: true, Desc: "Lock out emails after repeated failed sign-ins"},
	{Name: "rate_limit_login_attempts", Default: 5, Desc: "Max failed sign-ins before lockout"},
	{Name: "rate_limit_login_window", Default: "15m", Desc: "Time window for counting failed sign-ins"},
	{Name: "rate_limit_login_lockout", Default: "15m", Desc: "Lockout duration after exceeding limit"},

	// Push notifications
	{Name: "fcm_project_id", Default: "", Desc: "Firebase project for FCM (blank: from credentials)"},
	{Name: "fcm_credentials_file", Default: "", Desc: "Path to a service account JSON file"},
	{Name: "fcm_credentials_json", Default: "", Desc: "Service account JSON (wins over the file)"},
	{Name: "fcm_endpoint", Default: "", Desc: "Override the FCM API base URL"},

	// File storage configuration
	{Name: "storage_type", Default: "local", Desc: "Storage backend: 'local' or 's3'"},
	{Name: "storage_local_path", Default: "./uploads", Desc: "Local storage path for uploaded files"},
	{Name: "storage_local_url", Default: "/files", Desc: "URL prefix for serving local files"},

	// S3/CloudFront configuration
	{Name: "storage_s3_region", Default: "", Desc: "AWS region for S3"},
	{Name: "storage_s3_bucket", Default: "", Desc: "S3 bucket name"},
	{Name: "storage_s3_prefix", Default: "uploads/", Desc: "S3 key prefix"},
	{Name: "storage_cf_url", Default: "", Desc: "CloudFront distribution URL"},
	{Name: "storage_cf_keypair_id", Default: "", Desc: "CloudFront key pair ID"},
	{Name: "storage_cf_key_path", Default: "", Desc: "Path to CloudFront private key file"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "trust_proxy", Default: false, Desc: "Read client IPs from X-Forwarded-For / X-Real-IP"},
	{Name: "cors_origins", Default: "*", Desc: "Comma-separated origins allowed to call the API"},

	// Retention
	{Name: "import_retention", Default: "720h", Desc: "How long finished import runs are kept"},
	{Name: "audit_retention", Default: "2160h", Desc: "How long audit events are kept"},

	// Admin seeding configuration
	{Name: "seed_admin_email", Default: "", Desc: "Email of an admin identity to create on startup"},
	{Name: "seed_admin_password", Default: "", Desc: "Password for the seeded admin identity"},
	{Name: "seed_admin_name", Default: "Admin", Desc: "Display name for the seeded admin identity"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, STRATACONTENT_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, EnvVarPrefix, appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		AdminEmails:     splitList(appValues.String("admin_emails")),
		PhoneUserDomain: appValues.String("phone_user_domain"),

		AuthMode:          strings.ToLower(strings.TrimSpace(appValues.String("auth_mode"))),
		FirebaseProjectID: appValues.String("firebase_project_id"),
		JWKSURL:           appValues.String("jwks_url"),
		AuthHMACSecret:    appValues.String("auth_hmac_secret"),
		TokenTTL:          appValues.Duration("token_ttl", time.Hour),

		RateLimitEnabled:       appValues.Bool("rate_limit_enabled"),
		RateLimitLoginAttempts: appValues.Int("rate_limit_login_attempts"),
		RateLimitLoginWindow:   appValues.Duration("rate_limit_login_window", 15*time.Minute),
		RateLimitLoginLockout:  appValues.Duration("rate_limit_login_lockout", 15*time.Minute),

		FCMProjectID:       appValues.String("fcm_project_id"),
		FCMCredentialsFile: appValues.String("fcm_credentials_file"),
		FCMCredentialsJSON: appValues.String("fcm_credentials_json"),
		FCMEndpoint:        appValues.String("fcm_endpoint"),

		StorageType:      appValues.String("storage_type"),
		StorageLocalPath: appValues.String("storage_local_path"),
		StorageLocalURL:  appValues.String("storage_local_url"),

		StorageS3Region:    appValues.String("storage_s3_region"),
		StorageS3Bucket:    appValues.String("storage_s3_bucket"),
		StorageS3Prefix:    appValues.String("storage_s3_prefix"),
		StorageCFURL:       appValues.String("storage_cf_url"),
		StorageCFKeyPairID: appValues.String("storage_cf_keypair_id"),
		StorageCFKeyPath:   appValues.String("storage_cf_key_path"),

		AuditLogAuth:  appValues.String("audit_log_auth"),
		AuditLogAdmin: appValues.String("audit_log_admin"),
		TrustProxy:    appValues.Bool("trust_proxy"),
		CORSOrigins:   splitList(appValues.String("cors_origins")),

		ImportRetention: appValues.Duration("import_retention", 720*time.Hour),
		AuditRetention:  appValues.Duration("audit_retention", 2160*time.Hour),

		SeedAdminEmail:    appValues.String("seed_admin_email"),
		SeedAdminPassword: appValues.String("seed_admin_password"),
		SeedAdminName:     appValues.String("seed_admin_name"),
	}

	return coreCfg, appCfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ValidateConfig performs app-specific config validation.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	switch appCfg.AuthMode {
	case AuthModeFirebase:
		if appCfg.FirebaseProjectID == "" {
			return fmt.Errorf("firebase_project_id is required when auth_mode=%s", AuthModeFirebase)
		}
	case AuthModeHMAC:
		if len(appCfg.AuthHMACSecret) < 16 {
			return fmt.Errorf("auth_hmac_secret must be at least 16 characters when auth_mode=%s", AuthModeHMAC)
		}
		if coreCfg != nil && coreCfg.Env == "prod" {
			logger.Warn("auth_mode=hmac in production; tokens are signed with a shared secret")
		}
	default:
		return fmt.Errorf("unknown auth_mode %q (want %s or %s)", appCfg.AuthMode, AuthModeFirebase, AuthModeHMAC)
	}

	switch appCfg.StorageType {
	case "local", "":
	case "s3":
		if appCfg.StorageS3Bucket == "" || appCfg.StorageS3Region == "" {
			return fmt.Errorf("storage_s3_region and storage_s3_bucket are required when storage_type=s3")
		}
	default:
		return fmt.Errorf("unknown storage type: %s", appCfg.StorageType)
	}

	if len(appCfg.AdminEmails) == 0 {
		logger.Warn("admin_emails is empty; every admin endpoint will answer 403")
	}
	return nil
}
