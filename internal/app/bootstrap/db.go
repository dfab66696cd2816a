// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/stratacontent/internal/app/system/auth"
	"github.com/dalemusser/stratacontent/internal/app/system/fcm"
	"github.com/dalemusser/stratacontent/internal/app/system/indexes"
	"github.com/dalemusser/stratacontent/internal/app/system/seeding"
	"github.com/dalemusser/stratacontent/internal/app/system/validators"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/storage"
	"go.uber.org/zap"
)

// ConnectDB connects to MongoDB and builds the other backends: file
// storage, the FCM client and the bearer token verifier.
//
// The JWKS refresh and the FCM token source outlive this call. They run on
// a detached context that Shutdown cancels through deps.StopBackground.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	// Configure MongoDB connection pool
	poolCfg := wafflemongo.DefaultPoolConfig()
	if appCfg.MongoMaxPoolSize > 0 {
		poolCfg.MaxPoolSize = appCfg.MongoMaxPoolSize
	}
	if appCfg.MongoMinPoolSize > 0 {
		poolCfg.MinPoolSize = appCfg.MongoMinPoolSize
	}

	client, err := wafflemongo.ConnectWithPool(ctx, appCfg.MongoURI, appCfg.MongoDatabase, poolCfg)
	if err != nil {
		return DBDeps{}, err
	}
	deps := DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
	}

	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase),
		zap.Uint64("max_pool_size", poolCfg.MaxPoolSize),
		zap.Uint64("min_pool_size", poolCfg.MinPoolSize),
	)

	if deps.FileStorage, err = newFileStorage(ctx, appCfg, logger); err != nil {
		return DBDeps{}, err
	}

	longLived, stop := context.WithCancel(context.WithoutCancel(ctx))
	deps.StopBackground = stop

	switch appCfg.AuthMode {
	case AuthModeHMAC:
		v, err := auth.NewHMACVerifier(appCfg.AuthHMACSecret, "")
		if err != nil {
			stop()
			return DBDeps{}, err
		}
		deps.Verifier, deps.Issuer = v, v
		logger.Info("bearer tokens: HS256 shared secret")
	default:
		v, err := auth.NewFirebaseVerifier(longLived, appCfg.FirebaseProjectID, appCfg.JWKSURL)
		if err != nil {
			stop()
			return DBDeps{}, fmt.Errorf("failed to initialize token verifier: %w", err)
		}
		deps.Verifier = v
		logger.Info("bearer tokens: Firebase ID tokens",
			zap.String("project", appCfg.FirebaseProjectID))
	}

	push, err := fcm.New(longLived, fcm.Config{
		ProjectID:       appCfg.FCMProjectID,
		CredentialsJSON: appCfg.FCMCredentialsJSON,
		CredentialsFile: appCfg.FCMCredentialsFile,
		Endpoint:        appCfg.FCMEndpoint,
	})
	if err != nil {
		logger.Warn("push notifications disabled", zap.Error(err))
	} else {
		deps.Push = push
		logger.Info("initialized FCM client", zap.String("project", push.ProjectID()))
	}

	return deps, nil
}

func newFileStorage(ctx context.Context, appCfg AppConfig, logger *zap.Logger) (storage.Store, error) {
	switch appCfg.StorageType {
	case "s3":
		store, err := storage.NewS3(ctx, storage.S3Config{
			Region:                   appCfg.StorageS3Region,
			Bucket:                   appCfg.StorageS3Bucket,
			Prefix:                   appCfg.StorageS3Prefix,
			CloudFrontURL:            appCfg.StorageCFURL,
			CloudFrontKeyPairID:      appCfg.StorageCFKeyPairID,
			CloudFrontPrivateKeyPath: appCfg.StorageCFKeyPath,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 storage: %w", err)
		}
		logger.Info("initialized S3/CloudFront file storage",
			zap.String("bucket", appCfg.StorageS3Bucket),
			zap.String("prefix", appCfg.StorageS3Prefix),
		)
		return store, nil
	case "local", "":
		store, err := storage.NewLocal(storage.LocalConfig{
			BasePath: appCfg.StorageLocalPath,
			BaseURL:  appCfg.StorageLocalURL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize local storage: %w", err)
		}
		logger.Info("initialized local file storage",
			zap.String("path", appCfg.StorageLocalPath),
			zap.String("url", appCfg.StorageLocalURL),
		)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", appCfg.StorageType)
	}
}

// EnsureSchema attaches collection validators, reconciles indexes and seeds
// the configured admin identity.
//
// The context has a timeout based on coreCfg.IndexBootTimeout.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase

	// Validators first so indexes are created on existing collections.
	logger.Info("ensuring collections and validators")
	if err := validators.EnsureAll(ctx, db); err != nil {
		logger.Error("failed to ensure validators", zap.Error(err))
		return err
	}

	logger.Info("ensuring database indexes")
	if err := indexes.EnsureAll(ctx, db); err != nil {
		logger.Error("failed to ensure indexes", zap.Error(err))
		return err
	}

	logger.Info("seeding default data")
	if err := seeding.SeedAll(ctx, db, seeding.Options{
		AdminEmail:    appCfg.SeedAdminEmail,
		AdminPassword: appCfg.SeedAdminPassword,
		AdminName:     appCfg.SeedAdminName,
	}, logger); err != nil {
		logger.Error("failed to seed default data", zap.Error(err))
		return err
	}

	logger.Info("database schema ensured successfully")
	return nil
}
