package chat

import (
	"fmt"
	"testing"
	"time"
)

func TestStoreLoadSave(t *testing.T) {
	t.Parallel()

	s := NewStore(time.Minute, 10)
	s.Save(Session{ID: "s1", UserID: "u1", Messages: []Message{{Role: "user", Content: "hi"}}})

	got, ok := s.Load("s1")
	if !ok {
		t.Fatal("expected session to load")
	}
	if got.UserID != "u1" || len(got.Messages) != 1 {
		t.Errorf("unexpected session: %+v", got)
	}

	// The returned session is a copy; mutating it must not affect the store.
	got.Messages[0].Content = "changed"
	again, _ := s.Load("s1")
	if again.Messages[0].Content != "hi" {
		t.Error("stored session was mutated through a loaded copy")
	}
}

func TestStoreExpiresSessions(t *testing.T) {
	t.Parallel()

	s := NewStore(30*time.Minute, 10)
	current := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return current }

	s.Save(Session{ID: "s1"})
	if _, ok := s.Load("s1"); !ok {
		t.Fatal("expected fresh session to load")
	}

	current = current.Add(31 * time.Minute)
	if _, ok := s.Load("s1"); ok {
		t.Error("expected session to expire after the TTL")
	}
	if s.Len() != 0 {
		t.Errorf("expected purge to drop expired session, len=%d", s.Len())
	}
}

func TestStoreLoadRefreshesActivity(t *testing.T) {
	t.Parallel()

	s := NewStore(30*time.Minute, 10)
	current := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return current }

	s.Save(Session{ID: "s1"})

	// Touch the session every 20 minutes; it must survive past the raw TTL.
	for i := 0; i < 3; i++ {
		current = current.Add(20 * time.Minute)
		if _, ok := s.Load("s1"); !ok {
			t.Fatalf("session expired despite activity at step %d", i)
		}
	}
}

func TestStoreEvictsLeastRecentlyActive(t *testing.T) {
	t.Parallel()

	s := NewStore(time.Hour, 3)
	current := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return current }

	for i := 1; i <= 3; i++ {
		s.Save(Session{ID: fmt.Sprintf("s%d", i)})
		current = current.Add(time.Minute)
	}
	// s1 is oldest; adding a fourth session evicts it.
	s.Save(Session{ID: "s4"})

	if s.Len() != 3 {
		t.Fatalf("expected capacity 3 after eviction, len=%d", s.Len())
	}
	if _, ok := s.Load("s1"); ok {
		t.Error("expected oldest session to be evicted")
	}
	for _, id := range []string{"s2", "s3", "s4"} {
		if _, ok := s.Load(id); !ok {
			t.Errorf("expected session %s to survive", id)
		}
	}
}

func TestStoreDelete(t *testing.T) {
	t.Parallel()

	s := NewStore(time.Hour, 10)
	s.Save(Session{ID: "s1"})
	s.Delete("s1")
	if _, ok := s.Load("s1"); ok {
		t.Error("expected deleted session to be gone")
	}
}
