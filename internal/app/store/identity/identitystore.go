// Package identity stores sign-in identities for provisioned users.
package identity

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/stratacontent/internal/app/system/authutil"
	"github.com/dalemusser/stratacontent/internal/app/system/normalize"
	"github.com/dalemusser/stratacontent/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PageSize is the default page size for ListPage.
const PageSize = 1000

var (
	ErrNotFound       = errors.New("identity not found")
	ErrDuplicateEmail = errors.New("an identity with this email already exists")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("identities")}
}

// CreateInput contains the input for creating an identity.
type CreateInput struct {
	Email       string
	Password    string
	DisplayName string
}

// Create hashes the password and inserts a new identity with a random uid.
// Returns ErrDuplicateEmail when the email is taken.
func (s *Store) Create(ctx context.Context, input CreateInput) (*models.Identity, error) {
	if err := authutil.ValidatePassword(input.Password); err != nil {
		return nil, err
	}
	hash, err := authutil.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	id := models.Identity{
		UID:          uuid.NewString(),
		Email:        normalize.Email(input.Email),
		DisplayName:  normalize.Name(input.DisplayName),
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}
	if _, err := s.c.InsertOne(ctx, id); err != nil {
		if wafflemongo.IsDup(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return &id, nil
}

// GetByUID loads an identity by uid.
func (s *Store) GetByUID(ctx context.Context, uid string) (*models.Identity, error) {
	return s.findOne(ctx, bson.M{"_id": uid})
}

// GetByEmail loads an identity by email, ignoring case.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.Identity, error) {
	return s.findOne(ctx, bson.M{"email": normalize.Email(email)})
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (*models.Identity, error) {
	var id models.Identity
	err := s.c.FindOne(ctx, filter).Decode(&id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// ListPage returns up to limit identities with uid greater than afterUID,
// in uid order. next is the cursor for the following page and is empty when
// there are no more identities.
func (s *Store) ListPage(ctx context.Context, afterUID string, limit int) (page []models.Identity, next string, err error) {
	if limit <= 0 {
		limit = PageSize
	}
	filter := bson.M{}
	if afterUID != "" {
		filter["_id"] = bson.M{"$gt": afterUID}
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetLimit(int64(limit) + 1)

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, "", err
	}
	defer cur.Close(ctx)

	page = []models.Identity{}
	if err := cur.All(ctx, &page); err != nil {
		return nil, "", err
	}
	if len(page) > limit {
		page = page[:limit]
		next = page[limit-1].UID
	}
	return page, next, nil
}

// ListAll walks every page of identities.
func (s *Store) ListAll(ctx context.Context) ([]models.Identity, error) {
	var all []models.Identity
	after := ""
	for {
		page, next, err := s.ListPage(ctx, after, PageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if next == "" {
			return all, nil
		}
		after = next
	}
}

// Delete removes an identity. Used to roll back a half-provisioned user.
func (s *Store) Delete(ctx context.Context, uid string) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": uid})
	return err
}
