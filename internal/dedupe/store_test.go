package dedupe

import (
	"context"
	"testing"
	"time"
)

func TestSeenAfterMark(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	ctx := context.Background()

	seen, err := s.Seen(ctx, "U1", "1700.0001")
	if err != nil {
		t.Fatal(err)
	}
	if seen {
		t.Error("expected unseen key before mark")
	}

	if err := s.Mark(ctx, "U1", "1700.0001"); err != nil {
		t.Fatal(err)
	}

	seen, err = s.Seen(ctx, "U1", "1700.0001")
	if err != nil {
		t.Fatal(err)
	}
	if !seen {
		t.Error("expected seen key after mark")
	}
}

func TestSeenIsScopedToRater(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	ctx := context.Background()

	if err := s.Mark(ctx, "U1", "1700.0001"); err != nil {
		t.Fatal(err)
	}

	seen, err := s.Seen(ctx, "U2", "1700.0001")
	if err != nil {
		t.Fatal(err)
	}
	if seen {
		t.Error("another rater's mark must not count as seen")
	}
}

func TestMarkIsIdempotent(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	ctx := context.Background()

	if err := s.Mark(ctx, "U1", "1700.0001"); err != nil {
		t.Fatal(err)
	}
	if err := s.Mark(ctx, "U1", "1700.0001"); err != nil {
		t.Fatalf("second mark should not fail: %v", err)
	}
}

func TestExpiredKeysAreNotSeen(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	ctx := context.Background()

	now := time.Now()
	s.now = func() time.Time { return now }
	if err := s.Mark(ctx, "U1", "1700.0001"); err != nil {
		t.Fatal(err)
	}

	s.now = func() time.Time { return now.Add(retention + time.Hour) }
	seen, err := s.Seen(ctx, "U1", "1700.0001")
	if err != nil {
		t.Fatal(err)
	}
	if seen {
		t.Error("expected expired key to be unseen")
	}

	if err := s.Sweep(ctx); err != nil {
		t.Fatal(err)
	}
}
