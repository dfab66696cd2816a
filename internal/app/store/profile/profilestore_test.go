package profile

import (
	"errors"
	"testing"

	"github.com/dalemusser/stratacontent/internal/testutil"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	p, err := store.Create(ctx, CreateInput{
		Phone:      "5550101234",
		UID:        "uid-1",
		Email:      "5550101234@example.com",
		Name:       " Jane Roe ",
		CourseName: "  NCLEX   RN ",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if p.Name != "Jane Roe" {
		t.Errorf("Name = %q, want trimmed", p.Name)
	}
	if p.CourseName != "NCLEX RN" {
		t.Errorf("CourseName = %q, want %q", p.CourseName, "NCLEX RN")
	}

	got, err := store.GetByPhone(ctx, "5550101234")
	if err != nil {
		t.Fatalf("GetByPhone() error = %v", err)
	}
	if got.UID != "uid-1" || got.Email != "5550101234@example.com" {
		t.Errorf("GetByPhone() = %+v", got)
	}
}

func TestStore_Create_DuplicatePhone(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	in := CreateInput{Phone: "5550101234", UID: "u1", Email: "a@example.com", CourseName: "RN"}
	if _, err := store.Create(ctx, in); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	in.UID = "u2"
	if _, err := store.Create(ctx, in); !errors.Is(err, ErrDuplicatePhone) {
		t.Errorf("Create() duplicate error = %v, want ErrDuplicatePhone", err)
	}
}

func TestStore_GetByPhone_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.GetByPhone(ctx, "0000000000"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByPhone() error = %v, want ErrNotFound", err)
	}
}

func TestStore_MapByUID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store.Create(ctx, CreateInput{Phone: "1111111111", UID: "a", Email: "a@x.com", CourseName: "RN"})
	store.Create(ctx, CreateInput{Phone: "2222222222", UID: "b", Email: "b@x.com", CourseName: "LPN"})
	store.Create(ctx, CreateInput{Phone: "3333333333", UID: "c", Email: "c@x.com", CourseName: "RN"})

	m, err := store.MapByUID(ctx, []string{"a", "b", "missing"})
	if err != nil {
		t.Fatalf("MapByUID() error = %v", err)
	}
	if len(m) != 2 {
		t.Fatalf("MapByUID() returned %d profiles, want 2", len(m))
	}
	if m["b"].Phone != "2222222222" {
		t.Errorf("profile for b = %+v", m["b"])
	}

	empty, err := store.MapByUID(ctx, nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("MapByUID(nil) = %v, %v", empty, err)
	}
}

func TestStore_CountByCourse(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store.Create(ctx, CreateInput{Phone: "1111111111", UID: "a", Email: "a@x.com", CourseName: "Rn Batch"})
	store.Create(ctx, CreateInput{Phone: "2222222222", UID: "b", Email: "b@x.com", CourseName: "RN BATCH"})
	store.Create(ctx, CreateInput{Phone: "3333333333", UID: "c", Email: "c@x.com", CourseName: "LPN"})

	n, err := store.CountByCourse(ctx, "rn  batch")
	if err != nil {
		t.Fatalf("CountByCourse() error = %v", err)
	}
	if n != 2 {
		t.Errorf("CountByCourse() = %d, want 2", n)
	}
}
