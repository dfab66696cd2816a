// Package ratelimit counts failed sign-in attempts per email and locks an
// email out once it fails too often inside a window.
package ratelimit

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName holds one document per email with recent failures.
const CollectionName = "signin_attempts"

// Attempt tracks failed sign-ins for one email.
type Attempt struct {
	Email        string     `bson:"_id"`
	AttemptCount int        `bson:"attempt_count"`
	WindowStart  time.Time  `bson:"window_start"`
	LockedUntil  *time.Time `bson:"locked_until"`
	LastAttempt  time.Time  `bson:"last_attempt"` // TTL index target
}

// Limits configures the lockout policy.
type Limits struct {
	MaxAttempts int
	Window      time.Duration
	Lockout     time.Duration
}

// DefaultLimits allows five failures per fifteen minutes.
func DefaultLimits() Limits {
	return Limits{MaxAttempts: 5, Window: 15 * time.Minute, Lockout: 15 * time.Minute}
}

// Decision is the outcome of a check.
type Decision struct {
	Allowed     bool
	Remaining   int        // attempts left before lockout
	LockedUntil *time.Time // set while locked out
}

// Store manages failed sign-in tracking.
type Store struct {
	c      *mongo.Collection
	limits Limits
	now    func() time.Time
}

// New creates a Store. Zero fields in limits take DefaultLimits values.
func New(db *mongo.Database, limits Limits) *Store {
	def := DefaultLimits()
	if limits.MaxAttempts <= 0 {
		limits.MaxAttempts = def.MaxAttempts
	}
	if limits.Window <= 0 {
		limits.Window = def.Window
	}
	if limits.Lockout <= 0 {
		limits.Lockout = def.Lockout
	}
	return &Store{
		c:      db.Collection(CollectionName),
		limits: limits,
		now:    time.Now,
	}
}

func key(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Check reports whether email may try to sign in. Lookup errors fail open.
func (s *Store) Check(ctx context.Context, email string) Decision {
	a, err := s.Get(ctx, email)
	if err != nil || a == nil {
		return Decision{Allowed: true, Remaining: s.limits.MaxAttempts}
	}
	return s.decide(a)
}

func (s *Store) decide(a *Attempt) Decision {
	now := s.now()
	if a.LockedUntil != nil && now.Before(*a.LockedUntil) {
		return Decision{Allowed: false, LockedUntil: a.LockedUntil}
	}
	if now.After(a.WindowStart.Add(s.limits.Window)) {
		return Decision{Allowed: true, Remaining: s.limits.MaxAttempts}
	}
	remaining := s.limits.MaxAttempts - a.AttemptCount
	if remaining <= 0 {
		return Decision{Allowed: false}
	}
	return Decision{Allowed: true, Remaining: remaining}
}

// RecordFailure counts one failed attempt and returns the resulting
// decision. The failure that reaches MaxAttempts starts the lockout.
func (s *Store) RecordFailure(ctx context.Context, email string) (Decision, error) {
	now := s.now()
	a, err := s.Get(ctx, email)
	if err != nil {
		return Decision{Allowed: true, Remaining: s.limits.MaxAttempts}, err
	}
	if a == nil || now.After(a.WindowStart.Add(s.limits.Window)) {
		a = &Attempt{Email: key(email), WindowStart: now}
	}
	a.AttemptCount++
	a.LastAttempt = now
	a.LockedUntil = nil
	if a.AttemptCount >= s.limits.MaxAttempts {
		until := now.Add(s.limits.Lockout)
		a.LockedUntil = &until
	}

	_, err = s.c.ReplaceOne(ctx, bson.M{"_id": a.Email}, a, options.Replace().SetUpsert(true))
	if err != nil {
		return Decision{Allowed: true, Remaining: s.limits.MaxAttempts}, err
	}
	return s.decide(a), nil
}

// Clear forgets the failures for email, typically after a good sign-in.
func (s *Store) Clear(ctx context.Context, email string) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": key(email)})
	return err
}

// Get returns the attempt record for email, or nil if there is none.
func (s *Store) Get(ctx context.Context, email string) (*Attempt, error) {
	var a Attempt
	err := s.c.FindOne(ctx, bson.M{"_id": key(email)}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
