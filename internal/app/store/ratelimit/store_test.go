package ratelimit

import (
	"testing"
	"time"

	"github.com/dalemusser/stratacontent/internal/testutil"
)

func newStore(t *testing.T, max int) *Store {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return New(db, Limits{MaxAttempts: max, Window: 15 * time.Minute, Lockout: 30 * time.Minute})
}

func TestNew_Defaults(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := New(db, Limits{})
	if s.limits != DefaultLimits() {
		t.Errorf("limits = %+v, want %+v", s.limits, DefaultLimits())
	}
}

func TestStore_Check_NoRecord(t *testing.T) {
	s := newStore(t, 5)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	d := s.Check(ctx, "new@example.com")
	if !d.Allowed || d.Remaining != 5 || d.LockedUntil != nil {
		t.Errorf("Check() = %+v, want allowed with 5 remaining", d)
	}
}

func TestStore_RecordFailure_CountsDown(t *testing.T) {
	s := newStore(t, 5)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for i := 1; i <= 3; i++ {
		d, err := s.RecordFailure(ctx, "user@example.com")
		if err != nil {
			t.Fatalf("RecordFailure() error = %v", err)
		}
		if !d.Allowed || d.Remaining != 5-i {
			t.Errorf("after %d failures: %+v", i, d)
		}
	}

	// Keys are case-insensitive.
	if d := s.Check(ctx, " USER@Example.com "); d.Remaining != 2 {
		t.Errorf("Check() remaining = %d, want 2", d.Remaining)
	}
}

func TestStore_RecordFailure_LocksOut(t *testing.T) {
	s := newStore(t, 3)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	var d Decision
	for i := 0; i < 3; i++ {
		var err error
		if d, err = s.RecordFailure(ctx, "locked@example.com"); err != nil {
			t.Fatalf("RecordFailure() error = %v", err)
		}
	}
	if d.Allowed || d.LockedUntil == nil {
		t.Fatalf("third failure = %+v, want locked", d)
	}
	if d := s.Check(ctx, "locked@example.com"); d.Allowed {
		t.Error("Check() during lockout should deny")
	}
}

func TestStore_LockoutExpires(t *testing.T) {
	s := newStore(t, 2)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now()
	s.now = func() time.Time { return now }
	s.RecordFailure(ctx, "later@example.com")
	s.RecordFailure(ctx, "later@example.com")

	s.now = func() time.Time { return now.Add(31 * time.Minute) }
	d := s.Check(ctx, "later@example.com")
	if !d.Allowed || d.Remaining != 2 {
		t.Errorf("Check() after lockout = %+v, want allowed with 2 remaining", d)
	}

	// A new failure after the window starts a fresh count.
	d, err := s.RecordFailure(ctx, "later@example.com")
	if err != nil {
		t.Fatalf("RecordFailure() error = %v", err)
	}
	if !d.Allowed || d.Remaining != 1 {
		t.Errorf("RecordFailure() after window = %+v", d)
	}
}

func TestStore_Clear(t *testing.T) {
	s := newStore(t, 5)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	s.RecordFailure(ctx, "clear@example.com")
	if err := s.Clear(ctx, "clear@example.com"); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	a, err := s.Get(ctx, "clear@example.com")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if a != nil {
		t.Errorf("Get() after Clear = %+v, want nil", a)
	}
}
