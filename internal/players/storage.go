package players

import (
	"errors"
	"sync"
)

var (
	ErrDuplicateID   = errors.New("client id already registered")
	ErrUnknownClient = errors.New("unknown client")
)

// Player holds the transient per-connection state for one client.
type Player struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
	Level int    `json:"level"`
	Ready bool   `json:"ready"`
}

type Store struct {
	mu      sync.Mutex
	players map[string]*Player
}

func NewStore() *Store {
	return &Store{
		players: make(map[string]*Player),
	}
}

// Register creates a fresh Player for a new connection.
func (s *Store) Register(id string) (*Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.players[id]; exists {
		return nil, ErrDuplicateID
	}
	player := &Player{ID: id, Score: 0, Level: 1}
	s.players[id] = player
	return player, nil
}

// Remove deletes a player. No-op if the id is already gone, so disconnect
// cleanup can run more than once.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.players, id)
}

// Get returns a copy of a player's state. Handing out a copy keeps
// readers off the store's internal record, which other goroutines mutate
// under the lock.
func (s *Store) Get(id string) (Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, exists := s.players[id]
	if !exists {
		return Player{}, ErrUnknownClient
	}
	return *p, nil
}

func (s *Store) Exists(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.players[id]
	return exists
}

func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.players)
}

func (s *Store) SetName(id, name string) *Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, e := s.players[id]; e {
		p.Name = name
		return p
	}
	return nil
}

// AddScore adds points to a player's score, clamping at zero.
func (s *Store) AddScore(id string, points int) *Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, e := s.players[id]; e {
		p.Score += points
		if p.Score < 0 {
			p.Score = 0
		}
		return p
	}
	return nil
}

// SetLevel sets a player's level. Levels below 1 are ignored.
func (s *Store) SetLevel(id string, level int) *Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	if level < 1 {
		return nil
	}
	if p, e := s.players[id]; e {
		p.Level = level
		return p
	}
	return nil
}

func (s *Store) SetReady(id string, isReady bool) *Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, e := s.players[id]; e {
		p.Ready = isReady
		return p
	}
	return nil
}

// ResetProgress returns the listed players to score 0 and level 1,
// used when a game starts.
func (s *Store) ResetProgress(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if p, e := s.players[id]; e {
			p.Score = 0
			p.Level = 1
		}
	}
}
