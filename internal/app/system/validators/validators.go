// Package validators creates collections and attaches $jsonSchema validators
// so malformed documents are rejected by the server as well as the app.
package validators

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. Servers without collMod/validator support (some DocumentDB
// versions) are logged and skipped.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("nodes", nodesSchema())
	ensure("profiles", profilesSchema())
	ensure("identities", identitiesSchema())
	ensure("announcements", announcementsSchema())
	ensure("import_runs", importRunsSchema())
	ensure("audit_logs", nil)
	ensure("signin_attempts", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when name already exists.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{"name": name})
	if err != nil {
		return false, err
	}
	return len(names) > 0, nil
}

// ensureCollection idempotently makes sure name exists. created is true
// only when this call created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	if exists, listErr := collectionExists(ctx, db, name); listErr == nil && exists {
		zap.L().Debug("collection exists", zap.String("collection", name))
		return false, nil
	}
	if err := db.CreateCollection(ctx, name); err != nil {
		// Lost a race with another instance, or listing failed above.
		if isNamespaceExistsErr(err) {
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

// setValidator uses moderate validation so documents written before the
// schema existed can still be updated.
func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	if err := db.RunCommand(ctx, cmd).Err(); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

// commandErr reports whether err is a command error with one of codes or
// whose text contains one of the phrases.
func commandErr(err error, codes []int32, phrases ...string) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		for _, c := range codes {
			if ce.Code == c {
				return true
			}
		}
	}
	s := strings.ToLower(err.Error())
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func isNamespaceExistsErr(err error) bool {
	return commandErr(err, []int32{48}, "already exists", "namespace exists")
}

func isNoSuchCommand(err error) bool {
	return commandErr(err, []int32{59}, "no such command")
}

func isNotImplemented(err error) bool {
	return commandErr(err, []int32{115}, "not implemented", "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

func nodesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"type", "name", "name_lowercase", "parent_id", "order", "is_active"},
			"properties": bson.M{
				"type":           bson.M{"enum": bson.A{"folder", "video", "pdf", "link"}},
				"name":           bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"name_lowercase": bson.M{"bsonType": "string"},
				"parent_id":      bson.M{"bsonType": bson.A{"objectId", "null"}},
				"order":          bson.M{"bsonType": bson.A{"int", "long"}},
				"is_active":      bson.M{"bsonType": "bool"},
				"provider":       bson.M{"enum": bson.A{"youtube", "gdrive", "direct", "unknown"}},
			},
		},
	}
}

func profilesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"_id", "uid", "email", "course_name"},
			"properties": bson.M{
				"_id":         bson.M{"bsonType": "string", "pattern": "^[0-9]{10}$"},
				"uid":         bson.M{"bsonType": "string", "minLength": 1},
				"email":       bson.M{"bsonType": "string", "minLength": 3},
				"course_name": bson.M{"bsonType": "string", "minLength": 2},
			},
		},
	}
}

func announcementsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"title", "audience", "type", "published"},
			"properties": bson.M{
				"title":     bson.M{"bsonType": "string", "minLength": 1},
				"audience":  bson.M{"bsonType": "string", "minLength": 1},
				"type":      bson.M{"enum": bson.A{"announcement", "info", "video", "pdf", "folder"}},
				"published": bson.M{"bsonType": "bool"},
			},
		},
	}
}

func identitiesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"_id", "email", "password_hash", "disabled"},
			"properties": bson.M{
				"_id":           bson.M{"bsonType": "string", "minLength": 1},
				"email":         bson.M{"bsonType": "string", "pattern": "^[^@\\s]+@[^@\\s]+$"},
				"password_hash": bson.M{"bsonType": "string", "minLength": 1},
				"disabled":      bson.M{"bsonType": "bool"},
			},
		},
	}
}

func importRunsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"status", "total", "processed", "progress", "started_at"},
			"properties": bson.M{
				"status":    bson.M{"enum": bson.A{"running", "completed", "failed"}},
				"total":     bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
				"processed": bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
				"progress":  bson.M{"bsonType": bson.A{"double", "int"}, "minimum": 0, "maximum": 1},
			},
		},
	}
}
