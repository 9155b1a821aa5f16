package players

import (
	"errors"
	"sync"
	"testing"
)

func TestNewStore(t *testing.T) {
	s := NewStore()
	if s == nil {
		t.Fatal("NewStore() returned nil")
	}
	if s.Count() != 0 {
		t.Errorf("new store should be empty, got %d players", s.Count())
	}
}

func TestStore_Register(t *testing.T) {
	s := NewStore()
	p, err := s.Register("id1")
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if p.ID != "id1" {
		t.Errorf("player ID = %q, want %q", p.ID, "id1")
	}
	if p.Score != 0 {
		t.Errorf("player Score = %d, want 0", p.Score)
	}
	if p.Level != 1 {
		t.Errorf("player Level = %d, want 1", p.Level)
	}
	if p.Ready {
		t.Error("player Ready should be false")
	}
}

func TestStore_Register_Duplicate(t *testing.T) {
	s := NewStore()
	s.Register("id1")

	_, err := s.Register("id1")
	if !errors.Is(err, ErrDuplicateID) {
		t.Errorf("Register() error = %v, want ErrDuplicateID", err)
	}
}

func TestStore_Get(t *testing.T) {
	s := NewStore()
	s.Register("id1")
	s.SetName("id1", "Alice")

	p, err := s.Get("id1")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if p.Name != "Alice" {
		t.Errorf("Name = %q, want %q", p.Name, "Alice")
	}

	_, err = s.Get("nonexistent")
	if !errors.Is(err, ErrUnknownClient) {
		t.Errorf("Get() error = %v, want ErrUnknownClient", err)
	}
}

func TestStore_Get_ReturnsCopy(t *testing.T) {
	s := NewStore()
	s.Register("id1")

	p, _ := s.Get("id1")
	p.Score = 999
	p.Ready = true

	again, _ := s.Get("id1")
	if again.Score != 0 || again.Ready {
		t.Errorf("mutating the returned copy leaked into the store: %+v", again)
	}
}

func TestStore_Remove(t *testing.T) {
	s := NewStore()
	s.Register("id1")
	s.Register("id2")

	s.Remove("id1")
	if s.Exists("id1") {
		t.Error("player should be gone after removal")
	}
	if s.Count() != 1 {
		t.Errorf("Count = %d, want 1 after removal", s.Count())
	}

	// Removing again must not panic or error
	s.Remove("id1")
	s.Remove("nonexistent")
}

func TestStore_AddScore(t *testing.T) {
	s := NewStore()
	s.Register("id1")

	p := s.AddScore("id1", 10)
	if p.Score != 10 {
		t.Errorf("Score = %d, want 10", p.Score)
	}

	p = s.AddScore("id1", 20)
	if p.Score != 30 {
		t.Errorf("Score = %d, want 30", p.Score)
	}

	// Score never goes negative
	p = s.AddScore("id1", -100)
	if p.Score != 0 {
		t.Errorf("Score = %d, want 0 after clamping", p.Score)
	}

	if s.AddScore("nonexistent", 5) != nil {
		t.Error("AddScore should return nil for nonexistent player")
	}
}

func TestStore_SetLevel(t *testing.T) {
	s := NewStore()
	s.Register("id1")

	p := s.SetLevel("id1", 3)
	if p.Level != 3 {
		t.Errorf("Level = %d, want 3", p.Level)
	}

	// Levels below 1 are rejected
	if s.SetLevel("id1", 0) != nil {
		t.Error("SetLevel(0) should be rejected")
	}
	got, _ := s.Get("id1")
	if got.Level != 3 {
		t.Errorf("Level = %d, want 3 after rejected update", got.Level)
	}
}

func TestStore_SetReady(t *testing.T) {
	s := NewStore()
	s.Register("id1")

	p := s.SetReady("id1", true)
	if !p.Ready {
		t.Error("player should be ready")
	}

	p = s.SetReady("id1", false)
	if p.Ready {
		t.Error("player should not be ready")
	}

	if s.SetReady("nonexistent", true) != nil {
		t.Error("SetReady should return nil for nonexistent player")
	}
}

func TestStore_ResetProgress(t *testing.T) {
	s := NewStore()
	s.Register("id1")
	s.Register("id2")
	s.Register("id3")
	s.AddScore("id1", 100)
	s.SetLevel("id1", 4)
	s.AddScore("id2", 50)

	s.ResetProgress([]string{"id1", "id2"})

	p1, _ := s.Get("id1")
	p2, _ := s.Get("id2")
	if p1.Score != 0 || p1.Level != 1 {
		t.Errorf("id1 = score %d level %d, want 0/1", p1.Score, p1.Level)
	}
	if p2.Score != 0 || p2.Level != 1 {
		t.Errorf("id2 = score %d level %d, want 0/1", p2.Score, p2.Level)
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := NewStore()
	s.Register("id1")

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.AddScore("id1", 1)
		}()
	}
	wg.Wait()

	p, _ := s.Get("id1")
	if p.Score != 100 {
		t.Errorf("concurrent Score = %d, want 100", p.Score)
	}
}
