package models

import "time"

// Identity is a sign-in record for a provisioned user.
//
// UID is a random string identifier (not an ObjectID) so identities created
// here line up with profiles keyed elsewhere by uid.
type Identity struct {
	UID          string    `bson:"_id" json:"uid"`
	Email        string    `bson:"email" json:"email"` // lowercase, unique
	DisplayName  string    `bson:"display_name" json:"displayName"`
	PasswordHash string    `bson:"password_hash" json:"-"` // bcrypt
	Disabled     bool      `bson:"disabled" json:"disabled"`
	CreatedAt    time.Time `bson:"created_at" json:"createdAt"`
}
