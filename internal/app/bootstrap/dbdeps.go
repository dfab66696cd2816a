// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/stratacontent/internal/app/system/auth"
	"github.com/dalemusser/stratacontent/internal/app/system/fcm"
	"github.com/dalemusser/waffle/pantry/storage"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database and backend dependencies for this WAFFLE app.
//
// It is created in ConnectDB and passed to EnsureSchema, Startup,
// BuildHandler and Shutdown.
type DBDeps struct {
	// MongoDB client and database
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// FileStorage holds root-folder background images.
	FileStorage storage.Store

	// Push is nil when no FCM credentials were found.
	Push *fcm.Client

	// Verifier checks bearer tokens. Issuer is set only in hmac mode and
	// backs the /api/auth/token endpoint.
	Verifier auth.Verifier
	Issuer   *auth.HMACVerifier

	// StopBackground ends the JWKS refresh and token source goroutines.
	StopBackground context.CancelFunc
}
