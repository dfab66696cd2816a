// Package node provides storage for the content tree.
//
// Every folder, video, pdf and link lives in the nodes collection. A node's
// children are exactly the nodes whose parent_id equals its _id; root nodes
// carry an explicit null parent_id.
package node

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/stratacontent/internal/app/system/txn"
	"github.com/dalemusser/stratacontent/internal/app/system/urlmeta"
	"github.com/dalemusser/stratacontent/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// ErrNotFound is returned when the node does not exist.
var ErrNotFound = errors.New("node not found")

// ErrCycle is returned when a parent chain loops back on itself.
var ErrCycle = errors.New("node parent chain contains a cycle")

// CollectionName is the MongoDB collection holding content nodes.
const CollectionName = "nodes"

// Store provides access to the nodes collection.
type Store struct {
	c *mongo.Collection

	// runTxn and beforeDelete are replaced in tests to force the
	// non-transactional path and fail a delete part way.
	runTxn       func(ctx context.Context, db *mongo.Database, log *zap.Logger, fn txn.Func) error
	beforeDelete func(id primitive.ObjectID) error
}

// New creates a new node store.
func New(db *mongo.Database) *Store {
	return &Store{
		c:      db.Collection(CollectionName),
		runTxn: txn.Run,
	}
}

// CreateInput contains the input for creating a node.
type CreateInput struct {
	Type       models.NodeType
	Name       string
	ParentID   *primitive.ObjectID // nil = root
	Order      int
	IsActive   bool
	URL        string
	Mime       string
	CDNURL     string
	BgImageURL string // root folders only
}

// Create inserts a new node. For non-folder nodes with a url, the provider
// metadata is derived from the url before the insert.
func (s *Store) Create(ctx context.Context, input CreateInput) (*models.Node, error) {
	now := time.Now()
	n := models.Node{
		ID:            primitive.NewObjectID(),
		Type:          input.Type,
		Name:          input.Name,
		NameLowercase: strings.ToLower(input.Name),
		ParentID:      input.ParentID,
		Order:         input.Order,
		IsActive:      input.IsActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if n.IsFolder() {
		if n.IsRoot() {
			n.BgImageURL = input.BgImageURL
		}
	} else {
		n.URL = strings.TrimSpace(input.URL)
		n.Mime = input.Mime
		n.CDNURL = input.CDNURL
		if n.URL != "" {
			applyMeta(&n, urlmeta.ForSave(n.URL))
			if n.Mime == "" {
				n.Mime = urlmeta.GuessMime(n.URL)
			}
		}
	}

	if _, err := s.c.InsertOne(ctx, n); err != nil {
		return nil, err
	}
	return &n, nil
}

func applyMeta(n *models.Node, m urlmeta.Meta) {
	n.Provider = m.Provider
	n.VideoID = m.VideoID
	n.DriveID = m.DriveID
	n.ThumbURL = m.ThumbURL
}

// GetByID retrieves a node by ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Node, error) {
	var n models.Node
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&n)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// ParentRef is the target of a move. A ParentRef with a nil ID moves the
// node to the root.
type ParentRef struct {
	ID *primitive.ObjectID
}

// UpdateInput contains the input for a partial update. Nil fields are left
// untouched.
type UpdateInput struct {
	Type       *models.NodeType
	Name       *string
	MoveTo     *ParentRef
	Order      *int
	IsActive   *bool
	URL        *string
	Mime       *string
	CDNURL     *string
	BgImageURL *string
}

// derivedFields are recomputed from url whenever it changes.
var derivedFields = []string{"provider", "video_id", "drive_id", "thumb_url"}

// fileFields only belong on non-folder nodes.
var fileFields = []string{"url", "mime", "cdn_url", "provider", "video_id", "drive_id", "thumb_url"}

// Update applies a partial update. Setting Name refreshes name_lowercase.
// Setting URL on a non-folder node recomputes the provider metadata, and
// clears metadata the new url no longer yields. When the resulting node is
// a folder every file field is removed and URL, Mime and CDNURL are ignored.
// updated_at is always refreshed. Returns ErrNotFound if the node does not
// exist.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, input UpdateInput) error {
	set := bson.M{"updated_at": time.Now()}
	unset := bson.M{}

	if input.Type != nil {
		set["type"] = *input.Type
	}
	if input.Name != nil {
		set["name"] = *input.Name
		set["name_lowercase"] = strings.ToLower(*input.Name)
	}
	if input.MoveTo != nil {
		set["parent_id"] = input.MoveTo.ID
	}
	if input.Order != nil {
		set["order"] = *input.Order
	}
	if input.IsActive != nil {
		set["is_active"] = *input.IsActive
	}
	if input.BgImageURL != nil {
		set["bg_image_url"] = *input.BgImageURL
	}

	touchesFile := input.URL != nil || input.Mime != nil || input.CDNURL != nil
	if input.Type != nil || touchesFile {
		nodeType, err := s.effectiveType(ctx, id, input.Type)
		if err != nil {
			return err
		}
		if nodeType == models.NodeFolder {
			for _, f := range fileFields {
				unset[f] = ""
			}
		} else {
			if input.Mime != nil {
				set["mime"] = *input.Mime
			}
			if input.CDNURL != nil {
				set["cdn_url"] = *input.CDNURL
			}
			if input.URL != nil {
				raw := strings.TrimSpace(*input.URL)
				set["url"] = raw
				m := urlmeta.ForSave(raw)
				derived := map[string]string{}
				if raw != "" {
					derived["provider"] = string(m.Provider)
					derived["video_id"] = m.VideoID
					derived["drive_id"] = m.DriveID
					derived["thumb_url"] = m.ThumbURL
				}
				for _, f := range derivedFields {
					if v := derived[f]; v != "" {
						set[f] = v
					} else {
						unset[f] = ""
					}
				}
			}
		}
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// effectiveType is the patch type when present, else the stored type.
func (s *Store) effectiveType(ctx context.Context, id primitive.ObjectID, patch *models.NodeType) (models.NodeType, error) {
	if patch != nil {
		return *patch, nil
	}
	var doc struct {
		Type models.NodeType `bson:"type"`
	}
	opts := options.FindOne().SetProjection(bson.M{"type": 1})
	err := s.c.FindOne(ctx, bson.M{"_id": id}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return doc.Type, nil
}

// Delete deletes a single node. Children are not touched; use
// RecursiveDelete for folders.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// ListChildren returns every node directly under parentID, ordered by order
// then name. Pass nil for the root.
func (s *Store) ListChildren(ctx context.Context, parentID *primitive.ObjectID) ([]models.Node, error) {
	findOpts := options.Find().SetSort(bson.D{
		{Key: "order", Value: 1},
		{Key: "name", Value: 1},
	})

	cursor, err := s.c.Find(ctx, bson.M{"parent_id": parentID}, findOpts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	nodes := []models.Node{}
	if err := cursor.All(ctx, &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

// CountChildren returns the number of nodes directly under parentID.
func (s *Store) CountChildren(ctx context.Context, parentID *primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"parent_id": parentID})
}

// GetMaxOrder returns the largest order among parentID's children, or 0
// when it has none. New nodes are placed at max+1; concurrent creates may
// pick the same value, which is allowed since order is not unique.
func (s *Store) GetMaxOrder(ctx context.Context, parentID *primitive.ObjectID) (int, error) {
	opts := options.FindOne().
		SetSort(bson.D{{Key: "order", Value: -1}}).
		SetProjection(bson.M{"order": 1})

	var doc struct {
		Order int `bson:"order"`
	}
	err := s.c.FindOne(ctx, bson.M{"parent_id": parentID}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return doc.Order, nil
}

// FindByName returns the first node under parentID whose name matches
// case-insensitively, or nil if there is none.
func (s *Store) FindByName(ctx context.Context, name string, parentID *primitive.ObjectID) (*models.Node, error) {
	return s.findOne(ctx, bson.M{
		"parent_id":      parentID,
		"name_lowercase": strings.ToLower(name),
	})
}

// FindFolderByName is FindByName restricted to folders.
func (s *Store) FindFolderByName(ctx context.Context, name string, parentID *primitive.ObjectID) (*models.Node, error) {
	return s.findOne(ctx, bson.M{
		"parent_id":      parentID,
		"name_lowercase": strings.ToLower(name),
		"type":           models.NodeFolder,
	})
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (*models.Node, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "_id", Value: 1}})
	var n models.Node
	err := s.c.FindOne(ctx, filter, opts).Decode(&n)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// GetAncestors returns the ancestors of a node ordered from the root down
// to its immediate parent.
func (s *Store) GetAncestors(ctx context.Context, id primitive.ObjectID) ([]models.Node, error) {
	n, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var ancestors []models.Node
	seen := map[primitive.ObjectID]bool{n.ID: true}
	for parentID := n.ParentID; parentID != nil; {
		if seen[*parentID] {
			return nil, ErrCycle
		}
		seen[*parentID] = true
		parent, err := s.GetByID(ctx, *parentID)
		if err != nil {
			return nil, err
		}
		ancestors = append([]models.Node{*parent}, ancestors...)
		parentID = parent.ParentID
	}
	return ancestors, nil
}
