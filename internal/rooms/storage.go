package rooms

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomFull     = errors.New("room is full")
	ErrNotAMember   = errors.New("client is not a member of the room")
)

// Store is the authoritative directory of live rooms. Membership is kept
// in insertion order so creator identity stays deterministic, and a
// reverse index maps each client to the room it belongs to.
type Store struct {
	mu       sync.Mutex
	rooms    map[string]*Room
	byClient map[string]string // client id -> room code
	capacity int
}

func NewStore(capacity int) *Store {
	return &Store{
		rooms:    make(map[string]*Room),
		byClient: make(map[string]string),
		capacity: capacity,
	}
}

// Create generates a unique code and registers creatorID as the room's
// sole member. Collisions are retried, and after every attemptsPerLength
// misses the code widens by one character, so a crowded directory slows
// generation down but can never make it fail.
func (s *Store) Create(creatorID string) (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for attempt := 0; ; attempt++ {
		code, err := generateCode(codeLengthFor(attempt))
		if err != nil {
			return nil, fmt.Errorf("generating room code: %w", err)
		}
		if _, exists := s.rooms[code]; exists {
			continue
		}

		room := &Room{
			Code:      code,
			Members:   []string{creatorID},
			Capacity:  s.capacity,
			CreatedAt: time.Now(),
		}
		s.rooms[code] = room
		s.byClient[creatorID] = code
		return room, nil
	}
}

// Join adds a client to a room, enforcing capacity. Joining a room the
// client is already in is a no-op.
func (s *Store) Join(code, clientID string) (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, exists := s.rooms[code]
	if !exists {
		return nil, ErrRoomNotFound
	}
	if room.HasMember(clientID) {
		return room, nil
	}
	if len(room.Members) >= room.Capacity {
		return nil, ErrRoomFull
	}
	room.Members = append(room.Members, clientID)
	s.byClient[clientID] = code
	return room, nil
}

// Leave removes a client from a room. When the last member leaves the
// room is destroyed and its code freed for reuse. The second return value
// reports whether the room still exists.
func (s *Store) Leave(code, clientID string) (*Room, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, exists := s.rooms[code]
	if !exists {
		return nil, false, ErrRoomNotFound
	}

	found := false
	members := room.Members[:0]
	for _, m := range room.Members {
		if m == clientID {
			found = true
			continue
		}
		members = append(members, m)
	}
	if !found {
		return room, true, ErrNotAMember
	}
	room.Members = members
	delete(s.byClient, clientID)

	if len(room.Members) == 0 {
		delete(s.rooms, code)
		return room, false, nil
	}
	return room, true, nil
}

// RoomOf resolves which room a client currently belongs to.
func (s *Store) RoomOf(clientID string) (*Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	code, exists := s.byClient[clientID]
	if !exists {
		return nil, false
	}
	room, exists := s.rooms[code]
	if !exists {
		// Index out of sync with directory; repair and report absent.
		delete(s.byClient, clientID)
		return nil, false
	}
	return room, true
}

func (s *Store) Get(code string) (*Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, exists := s.rooms[code]
	return room, exists
}

// Members returns a snapshot of a room's member ids in insertion order.
func (s *Store) Members(code string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, exists := s.rooms[code]
	if !exists {
		return nil
	}
	members := make([]string, len(room.Members))
	copy(members, room.Members)
	return members
}

func (s *Store) List() []*Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		list = append(list, r)
	}
	return list
}

// Restore reinstalls a recovered room, used when reloading checkpoints at
// startup. Existing rooms with the same code are replaced.
func (s *Store) Restore(code string, members []string) *Room {
	s.mu.Lock()
	defer s.mu.Unlock()

	room := &Room{
		Code:      code,
		Members:   append([]string(nil), members...),
		Capacity:  s.capacity,
		CreatedAt: time.Now(),
	}
	s.rooms[code] = room
	for _, m := range members {
		s.byClient[m] = code
	}
	return room
}
