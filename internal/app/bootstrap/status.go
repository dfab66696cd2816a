// internal/app/bootstrap/status.go
package bootstrap

import (
	"strconv"
	"strings"

	statusfeature "github.com/dalemusser/stratacontent/internal/app/features/status"
	"github.com/dalemusser/waffle/config"
)

// statusConfigGroups lists the effective configuration for the admin
// status report. Secrets are masked.
func statusConfigGroups(coreCfg *config.CoreConfig, appCfg AppConfig) []statusfeature.ConfigGroup {
	item := func(name, value string) statusfeature.ConfigItem {
		return statusfeature.ConfigItem{Name: name, Value: value}
	}
	mask := statusfeature.Mask

	return []statusfeature.ConfigGroup{
		{Name: "Server", Items: []statusfeature.ConfigItem{
			item("env", coreCfg.Env),
			item("trust_proxy", strconv.FormatBool(appCfg.TrustProxy)),
			item("cors_origins", strings.Join(appCfg.CORSOrigins, ",")),
		}},
		{Name: "Database", Items: []statusfeature.ConfigItem{
			item("mongo_uri", mask(appCfg.MongoURI)),
			item("mongo_database", appCfg.MongoDatabase),
			item("mongo_max_pool_size", strconv.FormatUint(appCfg.MongoMaxPoolSize, 10)),
			item("mongo_min_pool_size", strconv.FormatUint(appCfg.MongoMinPoolSize, 10)),
		}},
		{Name: "Auth", Items: []statusfeature.ConfigItem{
			item("auth_mode", appCfg.AuthMode),
			item("firebase_project_id", appCfg.FirebaseProjectID),
			item("jwks_url", appCfg.JWKSURL),
			item("auth_hmac_secret", mask(appCfg.AuthHMACSecret)),
			item("token_ttl", appCfg.TokenTTL.String()),
			item("admin_emails", strings.Join(appCfg.AdminEmails, ",")),
			item("phone_user_domain", appCfg.PhoneUserDomain),
			item("rate_limit_enabled", strconv.FormatBool(appCfg.RateLimitEnabled)),
			item("rate_limit_login_attempts", strconv.Itoa(appCfg.RateLimitLoginAttempts)),
		}},
		{Name: "Push", Items: []statusfeature.ConfigItem{
			item("fcm_project_id", appCfg.FCMProjectID),
			item("fcm_credentials_file", appCfg.FCMCredentialsFile),
			item("fcm_credentials_json", mask(appCfg.FCMCredentialsJSON)),
			item("fcm_endpoint", appCfg.FCMEndpoint),
		}},
		{Name: "Storage", Items: []statusfeature.ConfigItem{
			item("storage_type", appCfg.StorageType),
			item("storage_local_path", appCfg.StorageLocalPath),
			item("storage_local_url", appCfg.StorageLocalURL),
			item("storage_s3_region", appCfg.StorageS3Region),
			item("storage_s3_bucket", appCfg.StorageS3Bucket),
		}},
		{Name: "Retention", Items: []statusfeature.ConfigItem{
			item("import_retention", appCfg.ImportRetention.String()),
			item("audit_retention", appCfg.AuditRetention.String()),
			item("audit_log_auth", appCfg.AuditLogAuth),
			item("audit_log_admin", appCfg.AuditLogAdmin),
		}},
	}
}
