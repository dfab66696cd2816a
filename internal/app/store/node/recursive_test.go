package node

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/stratacontent/internal/app/system/txn"
	"github.com/dalemusser/stratacontent/internal/domain/models"
	"github.com/dalemusser/stratacontent/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func TestStore_RecursiveDelete_Subtree(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// root
	// ├── sub
	// │   ├── deep.pdf
	// │   └── deeper (empty folder)
	// └── top.mp4
	root, _ := store.Create(ctx, CreateInput{Type: models.NodeFolder, Name: "root"})
	sub, _ := store.Create(ctx, CreateInput{Type: models.NodeFolder, Name: "sub", ParentID: &root.ID})
	store.Create(ctx, CreateInput{Type: models.NodePDF, Name: "deep", ParentID: &sub.ID})
	store.Create(ctx, CreateInput{Type: models.NodeFolder, Name: "deeper", ParentID: &sub.ID})
	store.Create(ctx, CreateInput{Type: models.NodeVideo, Name: "top", ParentID: &root.ID})
	keep, _ := store.Create(ctx, CreateInput{Type: models.NodeLink, Name: "sibling"})

	deleted, err := store.RecursiveDelete(ctx, root.ID)
	if err != nil {
		t.Fatalf("RecursiveDelete() error = %v", err)
	}
	if deleted != 5 {
		t.Errorf("RecursiveDelete() deleted = %d, want 5", deleted)
	}

	count, err := db.Collection(CollectionName).CountDocuments(ctx, map[string]any{})
	if err != nil {
		t.Fatalf("CountDocuments() error = %v", err)
	}
	if count != 1 {
		t.Errorf("remaining nodes = %d, want 1", count)
	}
	if _, err := store.GetByID(ctx, keep.ID); err != nil {
		t.Errorf("sibling outside the subtree was removed: %v", err)
	}
}

func TestStore_RecursiveDelete_Leaf(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	leaf, _ := store.Create(ctx, CreateInput{Type: models.NodePDF, Name: "handout"})

	deleted, err := store.RecursiveDelete(ctx, leaf.ID)
	if err != nil {
		t.Fatalf("RecursiveDelete() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
	if _, err := store.GetByID(ctx, leaf.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}
}

func TestStore_RecursiveDelete_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deleted, err := store.RecursiveDelete(ctx, primitive.NewObjectID())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("RecursiveDelete() error = %v, want ErrNotFound", err)
	}
	if deleted != 0 {
		t.Errorf("deleted = %d, want 0", deleted)
	}
}

func TestStore_RecursiveDelete_PartialWithoutTransaction(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store.runTxn = func(ctx context.Context, _ *mongo.Database, _ *zap.Logger, fn txn.Func) error {
		return fn(ctx)
	}

	// root
	// └── sub
	//     ├── a.pdf
	//     └── b.pdf
	root, _ := store.Create(ctx, CreateInput{Type: models.NodeFolder, Name: "root"})
	sub, _ := store.Create(ctx, CreateInput{Type: models.NodeFolder, Name: "sub", ParentID: &root.ID})
	a, _ := store.Create(ctx, CreateInput{Type: models.NodePDF, Name: "a", ParentID: &sub.ID, Order: 1})
	b, _ := store.Create(ctx, CreateInput{Type: models.NodePDF, Name: "b", ParentID: &sub.ID, Order: 2})

	cause := errors.New("write concern timeout")
	store.beforeDelete = func(id primitive.ObjectID) error {
		if id == sub.ID {
			return cause
		}
		return nil
	}

	deleted, err := store.RecursiveDelete(ctx, root.ID)
	var de *DeleteError
	if !errors.As(err, &de) {
		t.Fatalf("RecursiveDelete() error = %v, want *DeleteError", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("error should wrap the failing delete: %v", err)
	}
	if deleted != 2 || de.Deleted != 2 {
		t.Errorf("deleted = %d, DeleteError.Deleted = %d, want 2", deleted, de.Deleted)
	}
	if de.FailedID != sub.ID {
		t.Errorf("FailedID = %s, want %s", de.FailedID.Hex(), sub.ID.Hex())
	}

	for _, id := range []primitive.ObjectID{a.ID, b.ID} {
		if _, err := store.GetByID(ctx, id); !errors.Is(err, ErrNotFound) {
			t.Errorf("child %s should stay deleted: %v", id.Hex(), err)
		}
	}
	for _, id := range []primitive.ObjectID{root.ID, sub.ID} {
		if _, err := store.GetByID(ctx, id); err != nil {
			t.Errorf("ancestor %s should remain: %v", id.Hex(), err)
		}
	}
}

func TestDeleteError(t *testing.T) {
	cause := errors.New("connection reset")
	id := primitive.NewObjectID()
	err := error(&DeleteError{FailedID: id, Deleted: 3, Err: cause})

	if !errors.Is(err, cause) {
		t.Error("DeleteError should unwrap to its cause")
	}
	var de *DeleteError
	if !errors.As(err, &de) || de.Deleted != 3 || de.FailedID != id {
		t.Errorf("errors.As() = %+v", de)
	}
}
