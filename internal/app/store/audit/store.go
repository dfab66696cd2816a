// internal/app/store/audit/store.go
//
// Package audit stores security and admin events. Entries are written by
// system/auditlog and read back by the admin audit endpoint.
package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName holds audit events.
const CollectionName = "audit_logs"

// Event categories
const (
	CategoryAuth  = "auth"
	CategoryAdmin = "admin"
)

// Auth event types
const (
	EventAuthRejected = "auth_rejected"
	EventAdminDenied  = "admin_denied"
	EventSignInFailed = "signin_failed"
	EventTokenIssued  = "token_issued"
)

// Admin event types
const (
	EventUserCreated         = "user_created"
	EventAnnouncementCreated = "announcement_created"
	EventAnnouncementSent    = "announcement_sent"
	EventAnnouncementToggled = "announcement_toggled"
	EventAnnouncementDeleted = "announcement_deleted"
	EventPushSent            = "push_sent"
	EventNodeCreated         = "node_created"
	EventNodeUpdated         = "node_updated"
	EventNodeDeleted         = "node_deleted"
	EventNodesImported       = "nodes_imported"
	EventBackgroundSet       = "background_set"
)

// Event represents an audit event.
type Event struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	CreatedAt time.Time          `bson:"created_at"`

	Category  string `bson:"category"`
	EventType string `bson:"event_type"`

	// Who acted, as carried by the bearer token.
	ActorUID   string `bson:"actor_uid,omitempty"`
	ActorEmail string `bson:"actor_email,omitempty"`

	// What was acted on: a uid, phone, node or announcement id.
	SubjectID string `bson:"subject_id,omitempty"`

	IP        string `bson:"ip"`
	UserAgent string `bson:"user_agent,omitempty"`

	Success       bool   `bson:"success"`
	FailureReason string `bson:"failure_reason,omitempty"`

	Details map[string]string `bson:"details,omitempty"`
}

// Filter selects audit events. Zero fields match everything.
type Filter struct {
	Category  string
	EventType string
	// Actor matches either the actor uid or the actor email.
	Actor     string
	SubjectID string
	Success   *bool
	Since     *time.Time
	Until     *time.Time
}

func (f Filter) query() bson.M {
	q := bson.M{}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.EventType != "" {
		q["event_type"] = f.EventType
	}
	if f.Actor != "" {
		q["$or"] = bson.A{
			bson.M{"actor_uid": f.Actor},
			bson.M{"actor_email": strings.ToLower(f.Actor)},
		}
	}
	if f.SubjectID != "" {
		q["subject_id"] = f.SubjectID
	}
	if f.Success != nil {
		q["success"] = *f.Success
	}
	if f.Since != nil || f.Until != nil {
		span := bson.M{}
		if f.Since != nil {
			span["$gte"] = *f.Since
		}
		if f.Until != nil {
			span["$lte"] = *f.Until
		}
		q["created_at"] = span
	}
	return q
}

// Page is one page of events plus the total matching the filter.
type Page struct {
	Events []Event
	Total  int64
}

// EventTypes returns the known event types of category, or of every
// category when category is blank. Unknown categories return nil.
func EventTypes(category string) []string {
	auth := []string{EventAuthRejected, EventAdminDenied, EventSignInFailed, EventTokenIssued}
	admin := []string{
		EventUserCreated,
		EventAnnouncementCreated, EventAnnouncementSent, EventAnnouncementToggled, EventAnnouncementDeleted,
		EventPushSent,
		EventNodeCreated, EventNodeUpdated, EventNodeDeleted, EventNodesImported, EventBackgroundSet,
	}
	switch category {
	case CategoryAuth:
		return auth
	case CategoryAdmin:
		return admin
	case "":
		return append(auth, admin...)
	}
	return nil
}

// Store persists audit events in the audit_logs collection.
type Store struct {
	c *mongo.Collection
}

// New creates a Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(CollectionName)}
}

// Log inserts event, filling ID and CreatedAt when unset.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

// List returns page (1-based) of events matching f, newest first.
func (s *Store) List(ctx context.Context, f Filter, page, size int) (Page, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 50
	}
	q := f.query()

	total, err := s.c.CountDocuments(ctx, q)
	if err != nil {
		return Page{}, fmt.Errorf("count audit events: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64((page - 1) * size)).
		SetLimit(int64(size))
	cur, err := s.c.Find(ctx, q, opts)
	if err != nil {
		return Page{}, fmt.Errorf("find audit events: %w", err)
	}
	defer cur.Close(ctx)

	events := []Event{}
	if err := cur.All(ctx, &events); err != nil {
		return Page{}, fmt.Errorf("decode audit events: %w", err)
	}
	return Page{Events: events, Total: total}, nil
}

// Recent returns the newest limit events.
func (s *Store) Recent(ctx context.Context, limit int) ([]Event, error) {
	p, err := s.List(ctx, Filter{}, 1, limit)
	return p.Events, err
}

// Count returns how many events match f.
func (s *Store) Count(ctx context.Context, f Filter) (int64, error) {
	return s.c.CountDocuments(ctx, f.query())
}

// DeleteBefore removes events older than cutoff.
func (s *Store) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"created_at": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
