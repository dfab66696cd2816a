// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig covers ports, TLS, logging and timeouts. Everything
// below is specific to the content service and is loaded in LoadConfig.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Maximum connections in pool (default: 100)
	MongoMinPoolSize uint64 // Minimum connections to keep warm (default: 10)

	// Admin access
	AdminEmails     []string // Emails allowed through auth.RequireAdmin
	PhoneUserDomain string   // Domain for synthetic phone-user emails

	// Bearer token verification
	AuthMode          string        // "firebase" or "hmac"
	FirebaseProjectID string        // Expected aud and iss suffix of Firebase ID tokens
	JWKSURL           string        // Blank uses Google's securetoken JWKS
	AuthHMACSecret    string        // HS256 secret (hmac mode)
	TokenTTL          time.Duration // Lifetime of tokens from /api/auth/token

	// Sign-in lockout for the hmac token endpoint
	RateLimitEnabled       bool
	RateLimitLoginAttempts int
	RateLimitLoginWindow   time.Duration
	RateLimitLoginLockout  time.Duration

	// Push notifications. With no credentials found, push is disabled and
	// send endpoints answer 500.
	FCMProjectID       string
	FCMCredentialsFile string
	FCMCredentialsJSON string
	FCMEndpoint        string

	// File storage configuration
	StorageType      string // Storage backend: "local" or "s3"
	StorageLocalPath string // Local storage path (e.g., "./uploads")
	StorageLocalURL  string // URL prefix for serving local files (e.g., "/files")

	// S3/CloudFront configuration (only used if StorageType is "s3")
	StorageS3Region    string
	StorageS3Bucket    string
	StorageS3Prefix    string
	StorageCFURL       string
	StorageCFKeyPairID string
	StorageCFKeyPath   string

	// Audit logging
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	AuditLogAuth  string
	AuditLogAdmin string
	TrustProxy    bool     // Client IP from proxy headers
	CORSOrigins   []string // Empty or "*" allows any origin

	// Background cleanup
	ImportRetention time.Duration
	AuditRetention  time.Duration

	// Admin seeding configuration
	SeedAdminEmail    string
	SeedAdminPassword string
	SeedAdminName     string
}
