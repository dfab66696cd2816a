package announcement

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/stratacontent/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when the announcement does not exist.
var ErrNotFound = errors.New("announcement not found")

// Store provides access to the announcements collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new announcement store.
func New(db *mongo.Database) *Store {
	return &Store{
		c: db.Collection("announcements"),
	}
}

// CreateInput contains the input for creating an announcement.
type CreateInput struct {
	Title    string
	Body     string
	Type     models.AnnouncementType
	Audience string
	NodeID   string
	URL      string
}

// Create records a new, unpublished announcement. A blank type becomes
// "announcement" and a blank audience becomes "all".
func (s *Store) Create(ctx context.Context, input CreateInput) (*models.Announcement, error) {
	now := time.Now()
	ann := models.Announcement{
		ID:        primitive.NewObjectID(),
		Title:     input.Title,
		Body:      input.Body,
		Type:      input.Type,
		Audience:  input.Audience,
		NodeID:    input.NodeID,
		URL:       input.URL,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if ann.Type == "" {
		ann.Type = models.AnnouncementPlain
	}
	if ann.Audience == "" {
		ann.Audience = "all"
	}

	if _, err := s.c.InsertOne(ctx, ann); err != nil {
		return nil, err
	}
	return &ann, nil
}

// GetByID retrieves an announcement by ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Announcement, error) {
	var ann models.Announcement
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&ann)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ann, nil
}

// List returns every announcement, newest first.
func (s *Store) List(ctx context.Context) ([]models.Announcement, error) {
	cursor, err := s.c.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	announcements := []models.Announcement{}
	if err := cursor.All(ctx, &announcements); err != nil {
		return nil, err
	}
	return announcements, nil
}

// MarkSent records a successful push and publishes the announcement.
func (s *Store) MarkSent(ctx context.Context, id primitive.ObjectID, messageName string, at time.Time) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"published":    true,
			"message_name": messageName,
			"sent_at":      at,
			"updated_at":   time.Now(),
		},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetPublished sets the published flag.
func (s *Store) SetPublished(ctx context.Context, id primitive.ObjectID, published bool) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"published":  published,
			"updated_at": time.Now(),
		},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// TogglePublished flips the published flag and returns the updated record.
func (s *Store) TogglePublished(ctx context.Context, id primitive.ObjectID) (*models.Announcement, error) {
	// Pipeline update so the flip is a single atomic write.
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "published", Value: bson.D{{Key: "$not", Value: bson.A{"$published"}}}},
			{Key: "updated_at", Value: "$$NOW"},
		}}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var ann models.Announcement
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&ann)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ann, nil
}

// Delete deletes an announcement.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
