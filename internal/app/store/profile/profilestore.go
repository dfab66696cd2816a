// Package profile stores per-phone student profiles.
package profile

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/stratacontent/internal/app/system/normalize"
	"github.com/dalemusser/stratacontent/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound       = errors.New("profile not found")
	ErrDuplicatePhone = errors.New("a profile for this phone already exists")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("profiles")}
}

// CreateInput contains the input for creating a profile. Phone must already
// be normalized to digits.
type CreateInput struct {
	Phone      string
	UID        string
	Email      string
	Name       string
	CourseName string
}

// Create inserts a profile keyed by phone. Returns ErrDuplicatePhone when
// the phone already has one.
func (s *Store) Create(ctx context.Context, input CreateInput) (*models.Profile, error) {
	now := time.Now()
	name := normalize.Name(input.Name)
	course := normalize.CourseName(input.CourseName)
	p := models.Profile{
		Phone:        input.Phone,
		UID:          input.UID,
		Email:        normalize.Email(input.Email),
		Name:         name,
		NameCI:       text.Fold(name),
		CourseName:   course,
		CourseNameCI: text.Fold(course),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		if wafflemongo.IsDup(err) {
			return nil, ErrDuplicatePhone
		}
		return nil, err
	}
	return &p, nil
}

// GetByPhone loads the profile for a phone number.
func (s *Store) GetByPhone(ctx context.Context, phone string) (*models.Profile, error) {
	var p models.Profile
	err := s.c.FindOne(ctx, bson.M{"_id": phone}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// MapByUID returns the profiles for the given uids keyed by uid. When a uid
// has several profiles the most recently created wins.
func (s *Store) MapByUID(ctx context.Context, uids []string) (map[string]models.Profile, error) {
	out := make(map[string]models.Profile, len(uids))
	if len(uids) == 0 {
		return out, nil
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"uid": bson.M{"$in": uids}}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var p models.Profile
		if err := cur.Decode(&p); err != nil {
			return nil, err
		}
		out[p.UID] = p
	}
	return out, cur.Err()
}

// CountByCourse returns how many profiles belong to a course, ignoring case
// and diacritics.
func (s *Store) CountByCourse(ctx context.Context, course string) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"course_name_ci": text.Fold(normalize.CourseName(course))})
}

// Delete removes the profile for a phone number.
func (s *Store) Delete(ctx context.Context, phone string) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": phone})
	return err
}
