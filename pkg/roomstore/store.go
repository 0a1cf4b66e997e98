package roomstore

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/castaneai/potluck/pkg/dicegame"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomExists   = errors.New("room code already in use")
)

// Store keeps every live room keyed by join code. Rooms exist only for the
// lifetime of the process; a room with no players must be deleted by its
// owner.
type Store interface {
	CreateRoom(ctx context.Context, room *dicegame.Room) error
	GetRoom(ctx context.Context, code string) (*dicegame.Room, error)
	DeleteRoom(ctx context.Context, code string) error
	ListRooms(ctx context.Context) ([]*dicegame.Room, error)
}

type InMemoryStore struct {
	rooms map[string]*dicegame.Room
	mu    sync.RWMutex
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		rooms: make(map[string]*dicegame.Room),
	}
}

func (s *InMemoryStore) CreateRoom(ctx context.Context, room *dicegame.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[room.Code]; ok {
		return ErrRoomExists
	}
	s.rooms[room.Code] = room
	return nil
}

func (s *InMemoryStore) GetRoom(ctx context.Context, code string) (*dicegame.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[code]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

func (s *InMemoryStore) DeleteRoom(ctx context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[code]; !ok {
		return ErrRoomNotFound
	}
	delete(s.rooms, code)
	return nil
}

func (s *InMemoryStore) ListRooms(ctx context.Context) ([]*dicegame.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rooms := make([]*dicegame.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, room)
	}
	return rooms, nil
}
