package node

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/stratacontent/internal/app/system/txn"
	"github.com/dalemusser/stratacontent/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// DeleteError reports a recursive delete that stopped part way. Deleted is
// the number of nodes that stay deleted: zero when the delete ran inside a
// transaction that was rolled back.
type DeleteError struct {
	FailedID primitive.ObjectID
	Deleted  int
	Err      error
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("recursive delete failed at node %s after %d deletions: %v",
		e.FailedID.Hex(), e.Deleted, e.Err)
}

func (e *DeleteError) Unwrap() error { return e.Err }

// RecursiveDelete removes a node and, for folders, every descendant. Children
// are removed before their parent so an interrupted delete never leaves
// orphans behind. It returns the number of nodes removed.
//
// The walk runs inside a transaction when the deployment supports one.
// Returns ErrNotFound if the node does not exist.
func (s *Store) RecursiveDelete(ctx context.Context, id primitive.ObjectID) (int, error) {
	root, err := s.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}

	var (
		deleted int
		inTxn   bool
	)
	err = s.runTxn(ctx, s.c.Database(), zap.L(), func(ctx context.Context) error {
		// WithTransaction may retry, so every attempt starts from zero.
		deleted = 0
		inTxn = txn.InTransaction(ctx)
		return s.deleteSubtree(ctx, root, &deleted)
	})
	if err != nil {
		var de *DeleteError
		if !errors.As(err, &de) {
			de = &DeleteError{FailedID: id, Err: err}
		}
		if inTxn {
			deleted = 0
		}
		de.Deleted = deleted
		return deleted, de
	}
	return deleted, nil
}

func (s *Store) deleteSubtree(ctx context.Context, n *models.Node, deleted *int) error {
	if n.IsFolder() {
		children, err := s.ListChildren(ctx, &n.ID)
		if err != nil {
			return &DeleteError{FailedID: n.ID, Err: err}
		}
		for i := range children {
			if err := s.deleteSubtree(ctx, &children[i], deleted); err != nil {
				return err
			}
		}
	}
	if s.beforeDelete != nil {
		if err := s.beforeDelete(n.ID); err != nil {
			return &DeleteError{FailedID: n.ID, Err: err}
		}
	}
	if err := s.Delete(ctx, n.ID); err != nil {
		return &DeleteError{FailedID: n.ID, Err: err}
	}
	*deleted++
	return nil
}
