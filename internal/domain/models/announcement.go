package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AnnouncementType tells the mobile app how to open an announcement.
type AnnouncementType string

const (
	AnnouncementPlain  AnnouncementType = "announcement"
	AnnouncementInfo   AnnouncementType = "info"
	AnnouncementVideo  AnnouncementType = "video"
	AnnouncementPDF    AnnouncementType = "pdf"
	AnnouncementFolder AnnouncementType = "folder"
)

// IsValidAnnouncementType reports whether t names a known announcement type.
func IsValidAnnouncementType(t string) bool {
	switch AnnouncementType(t) {
	case AnnouncementPlain, AnnouncementInfo, AnnouncementVideo, AnnouncementPDF, AnnouncementFolder:
		return true
	}
	return false
}

// Announcement is a push notification record. Published announcements have
// been sent to their audience topic at least once.
type Announcement struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Body        string             `bson:"body" json:"body"`
	Type        AnnouncementType   `bson:"type" json:"type"`
	Audience    string             `bson:"audience" json:"audience"`
	NodeID      string             `bson:"node_id,omitempty" json:"nodeId,omitempty"`
	URL         string             `bson:"url,omitempty" json:"url,omitempty"`
	Published   bool               `bson:"published" json:"published"`
	MessageName string             `bson:"message_name,omitempty" json:"messageName,omitempty"` // FCM message id of the last send
	SentAt      *time.Time         `bson:"sent_at,omitempty" json:"sentAt,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updatedAt"`
}
