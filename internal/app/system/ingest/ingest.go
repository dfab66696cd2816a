// Package ingest loads rows describing content nodes into the content tree.
//
// Each row names a folder path, a node type, a node name and optionally a url
// and an order. Folders along the path are created on demand and the named
// node is upserted under the last one, so running the same rows twice
// leaves the tree unchanged.
package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/dalemusser/stratacontent/internal/app/store/node"
	"github.com/dalemusser/stratacontent/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Row is one node to ingest.
type Row struct {
	Path  string `yaml:"path"`
	Type  string `yaml:"type"`
	Name  string `yaml:"name"`
	URL   string `yaml:"url"`
	Order int    `yaml:"order"`
}

// Tree is the subset of the node store ingestion needs.
type Tree interface {
	FindFolderByName(ctx context.Context, name string, parentID *primitive.ObjectID) (*models.Node, error)
	FindByName(ctx context.Context, name string, parentID *primitive.ObjectID) (*models.Node, error)
	Create(ctx context.Context, input node.CreateInput) (*models.Node, error)
	Update(ctx context.Context, id primitive.ObjectID, input node.UpdateInput) error
}

// Result summarises a run. Counts cover the rows processed before any
// error.
type Result struct {
	Rows           int `json:"rows"`
	FoldersCreated int `json:"foldersCreated"`
	NodesCreated   int `json:"nodesCreated"`
	NodesUpdated   int `json:"nodesUpdated"`
}

// ProgressFunc is called after each row with the number of rows done.
type ProgressFunc func(done, total int)

// Run ingests rows in order. The first failing row stops the run; rows
// before it stay applied and the error names the 1-based row number.
func Run(ctx context.Context, tree Tree, rows []Row, progress ProgressFunc) (Result, error) {
	r := &runner{
		tree:    tree,
		folders: map[string]*primitive.ObjectID{"": nil},
	}
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return r.res, err
		}
		if err := r.apply(ctx, row); err != nil {
			return r.res, fmt.Errorf("row %d (%q): %w", i+1, row.Name, err)
		}
		r.res.Rows++
		if progress != nil {
			progress(i+1, len(rows))
		}
	}
	return r.res, nil
}

type runner struct {
	tree Tree
	// folders caches resolved folder ids by lowercased path for one run.
	folders map[string]*primitive.ObjectID
	res     Result
}

func (r *runner) apply(ctx context.Context, row Row) error {
	name := strings.TrimSpace(row.Name)
	if name == "" {
		return fmt.Errorf("name is required")
	}
	nodeType := strings.ToLower(strings.TrimSpace(row.Type))
	if !models.IsValidNodeType(nodeType) {
		return fmt.Errorf("unknown type %q", row.Type)
	}

	parentID, err := r.ensurePath(ctx, row.Path)
	if err != nil {
		return err
	}

	nt := models.NodeType(nodeType)
	url := strings.TrimSpace(row.URL)

	existing, err := r.tree.FindByName(ctx, name, parentID)
	if err != nil {
		return fmt.Errorf("lookup %q: %w", name, err)
	}
	if existing != nil {
		active := true
		order := row.Order
		in := node.UpdateInput{
			Type:     &nt,
			Order:    &order,
			IsActive: &active,
		}
		// A blank url keeps the stored one.
		if url != "" {
			in.URL = &url
		}
		if err := r.tree.Update(ctx, existing.ID, in); err != nil {
			return fmt.Errorf("update %q: %w", name, err)
		}
		r.res.NodesUpdated++
		return nil
	}

	if _, err := r.tree.Create(ctx, node.CreateInput{
		Type:     nt,
		Name:     name,
		ParentID: parentID,
		Order:    row.Order,
		IsActive: true,
		URL:      url,
	}); err != nil {
		return fmt.Errorf("create %q: %w", name, err)
	}
	r.res.NodesCreated++
	return nil
}

// ensurePath resolves a slash separated folder path to the id of its last
// folder, creating missing folders along the way. A blank path is the root.
func (r *runner) ensurePath(ctx context.Context, path string) (*primitive.ObjectID, error) {
	var parentID *primitive.ObjectID
	key := ""
	for _, seg := range splitPath(path) {
		if key == "" {
			key = strings.ToLower(seg)
		} else {
			key += "/" + strings.ToLower(seg)
		}
		if id, ok := r.folders[key]; ok {
			parentID = id
			continue
		}

		folder, err := r.tree.FindFolderByName(ctx, seg, parentID)
		if err != nil {
			return nil, fmt.Errorf("lookup folder %q: %w", key, err)
		}
		if folder == nil {
			folder, err = r.tree.Create(ctx, node.CreateInput{
				Type:     models.NodeFolder,
				Name:     seg,
				ParentID: parentID,
				Order:    0,
				IsActive: true,
			})
			if err != nil {
				return nil, fmt.Errorf("create folder %q: %w", key, err)
			}
			r.res.FoldersCreated++
		}
		id := folder.ID
		r.folders[key] = &id
		parentID = &id
	}
	return parentID, nil
}

// splitPath returns the trimmed, non-empty segments of path.
func splitPath(path string) []string {
	var segs []string
	for _, s := range strings.Split(path, "/") {
		if s = strings.TrimSpace(s); s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}
