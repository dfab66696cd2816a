package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NodeType is the kind of entry in the content tree.
type NodeType string

const (
	NodeFolder NodeType = "folder"
	NodeVideo  NodeType = "video"
	NodePDF    NodeType = "pdf"
	NodeLink   NodeType = "link"
)

// AllNodeTypes lists the valid node types in display order.
func AllNodeTypes() []NodeType {
	return []NodeType{NodeFolder, NodeVideo, NodePDF, NodeLink}
}

// IsValidNodeType reports whether t names a known node type.
func IsValidNodeType(t string) bool {
	for _, nt := range AllNodeTypes() {
		if string(nt) == t {
			return true
		}
	}
	return false
}

// Provider classifies where a node's url is hosted.
type Provider string

const (
	ProviderYouTube Provider = "youtube"
	ProviderGDrive  Provider = "gdrive"
	ProviderDirect  Provider = "direct"
	ProviderUnknown Provider = "unknown"
)

// Node is a folder or a file reference in the content tree.
// Root nodes have a nil ParentID, which is stored as an explicit null.
type Node struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Type          NodeType            `bson:"type" json:"type"`
	Name          string              `bson:"name" json:"name"`
	NameLowercase string              `bson:"name_lowercase" json:"name_lowercase"`
	ParentID      *primitive.ObjectID `bson:"parent_id" json:"parentId"`
	Order         int                 `bson:"order" json:"order"`
	IsActive      bool                `bson:"is_active" json:"isActive"`

	// File metadata, only ever set on non-folder nodes.
	URL      string   `bson:"url,omitempty" json:"url,omitempty"`
	Provider Provider `bson:"provider,omitempty" json:"provider,omitempty"`
	VideoID  string   `bson:"video_id,omitempty" json:"videoId,omitempty"`
	DriveID  string   `bson:"drive_id,omitempty" json:"driveId,omitempty"`
	ThumbURL string   `bson:"thumb_url,omitempty" json:"thumbUrl,omitempty"`
	Mime     string   `bson:"mime,omitempty" json:"mime,omitempty"`
	CDNURL   string   `bson:"cdn_url,omitempty" json:"cdnUrl,omitempty"`

	// Background image for root folders.
	BgImageURL string `bson:"bg_image_url,omitempty" json:"bgImageUrl,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// IsRoot returns true if the node sits at the top of the tree.
func (n *Node) IsRoot() bool {
	return n.ParentID == nil
}

// IsFolder returns true for folder nodes.
func (n *Node) IsFolder() bool {
	return n.Type == NodeFolder
}
