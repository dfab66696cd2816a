// internal/app/system/seeding/seeding.go
package seeding

import (
	"context"
	"errors"

	"github.com/dalemusser/stratacontent/internal/app/store/identity"
	"github.com/dalemusser/stratacontent/internal/app/system/normalize"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Options selects what SeedAll creates. Blank fields skip that seed.
type Options struct {
	AdminEmail    string
	AdminPassword string
	AdminName     string
}

// SeedAll seeds default data if not already present.
func SeedAll(ctx context.Context, db *mongo.Database, opts Options, logger *zap.Logger) error {
	if err := seedAdminIdentity(ctx, db, opts, logger); err != nil {
		return err
	}
	return nil
}

// seedAdminIdentity creates a sign-in identity for the configured admin so
// a fresh hmac-mode deployment can obtain a token. An existing identity is
// left untouched, including its password.
func seedAdminIdentity(ctx context.Context, db *mongo.Database, opts Options, logger *zap.Logger) error {
	email := normalize.Email(opts.AdminEmail)
	if email == "" || opts.AdminPassword == "" {
		return nil
	}
	store := identity.New(db)

	existing, err := store.GetByEmail(ctx, email)
	if err == nil {
		logger.Debug("admin identity already present",
			zap.String("email", email),
			zap.String("uid", existing.UID))
		return nil
	}
	if !errors.Is(err, identity.ErrNotFound) {
		return err
	}

	name := opts.AdminName
	if name == "" {
		name = "Admin"
	}
	created, err := store.Create(ctx, identity.CreateInput{
		Email:       email,
		Password:    opts.AdminPassword,
		DisplayName: name,
	})
	if errors.Is(err, identity.ErrDuplicateEmail) {
		// Another instance seeded it first.
		return nil
	}
	if err != nil {
		return err
	}

	logger.Info("created admin identity",
		zap.String("email", email),
		zap.String("uid", created.UID))
	return nil
}
