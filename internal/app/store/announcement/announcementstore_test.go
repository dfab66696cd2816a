package announcement

import (
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/stratacontent/internal/domain/models"
	"github.com/dalemusser/stratacontent/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ann, err := store.Create(ctx, CreateInput{
		Title:  "Exam moved",
		Body:   "Now on Friday",
		NodeID: "abc",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if ann.ID.IsZero() {
		t.Error("ID should not be zero")
	}
	if ann.Type != models.AnnouncementPlain {
		t.Errorf("Type = %q, want default %q", ann.Type, models.AnnouncementPlain)
	}
	if ann.Audience != "all" {
		t.Errorf("Audience = %q, want default all", ann.Audience)
	}
	if ann.Published {
		t.Error("new announcement should not be published")
	}

	got, err := store.GetByID(ctx, ann.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Title != "Exam moved" || got.NodeID != "abc" {
		t.Errorf("GetByID() = %+v", got)
	}
}

func TestStore_List_NewestFirst(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for _, title := range []string{"first", "second", "third"} {
		if _, err := store.Create(ctx, CreateInput{Title: title}); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("List() returned %d, want 3", len(list))
	}
	if list[0].Title != "third" || list[2].Title != "first" {
		t.Errorf("List() order = %q, %q, %q", list[0].Title, list[1].Title, list[2].Title)
	}
}

func TestStore_TogglePublished(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ann, _ := store.Create(ctx, CreateInput{Title: "t"})

	got, err := store.TogglePublished(ctx, ann.ID)
	if err != nil {
		t.Fatalf("TogglePublished() error = %v", err)
	}
	if !got.Published {
		t.Error("first toggle should publish")
	}

	got, err = store.TogglePublished(ctx, ann.ID)
	if err != nil {
		t.Fatalf("TogglePublished() error = %v", err)
	}
	if got.Published {
		t.Error("second toggle should unpublish")
	}

	if _, err := store.TogglePublished(ctx, primitive.NewObjectID()); !errors.Is(err, ErrNotFound) {
		t.Errorf("TogglePublished() missing error = %v, want ErrNotFound", err)
	}
}

func TestStore_MarkSent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ann, _ := store.Create(ctx, CreateInput{Title: "t", Audience: "course_rn"})
	at := time.Now().UTC().Truncate(time.Millisecond)

	if err := store.MarkSent(ctx, ann.ID, "projects/p/messages/1", at); err != nil {
		t.Fatalf("MarkSent() error = %v", err)
	}

	got, _ := store.GetByID(ctx, ann.ID)
	if !got.Published || got.MessageName != "projects/p/messages/1" {
		t.Errorf("after MarkSent: published=%v name=%q", got.Published, got.MessageName)
	}
	if got.SentAt == nil || !got.SentAt.Equal(at) {
		t.Errorf("SentAt = %v, want %v", got.SentAt, at)
	}
}

func TestStore_SetPublished(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ann, _ := store.Create(ctx, CreateInput{Title: "t"})
	if err := store.SetPublished(ctx, ann.ID, true); err != nil {
		t.Fatalf("SetPublished() error = %v", err)
	}
	got, _ := store.GetByID(ctx, ann.ID)
	if !got.Published {
		t.Error("SetPublished(true) did not publish")
	}
}

func TestStore_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ann, _ := store.Create(ctx, CreateInput{Title: "t"})
	if err := store.Delete(ctx, ann.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.GetByID(ctx, ann.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}
	if err := store.Delete(ctx, ann.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}
