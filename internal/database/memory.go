package database

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/unoroom/server/internal/game"
	"github.com/unoroom/server/internal/models"
)

// MemoryStore is an in-memory game.Store used by tests and local
// development. Documents are stored as JSON so load/save round-trips
// behave like the Postgres store.
type MemoryStore struct {
	mu    sync.Mutex
	rooms map[string][]byte
	saves int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rooms: make(map[string][]byte)}
}

func (s *MemoryStore) LoadRoomByCode(_ context.Context, code string) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.rooms[code]
	if !ok {
		return nil, &game.NotFoundError{Resource: "room", Key: code}
	}
	var room models.Room
	if err := json.Unmarshal(doc, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *MemoryStore) SaveRoom(_ context.Context, room *models.Room) error {
	doc, err := json.Marshal(room)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.Code] = doc
	s.saves++
	return nil
}

func (s *MemoryStore) DeleteRoom(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, code)
	return nil
}

// SweepStale removes rooms created before the cutoff or already ended.
func (s *MemoryStore) SweepStale(_ context.Context, olderThan time.Duration) ([]string, error) {
	cutoff := time.Now().Add(-olderThan)
	s.mu.Lock()
	defer s.mu.Unlock()
	var codes []string
	for code, doc := range s.rooms {
		var room models.Room
		if err := json.Unmarshal(doc, &room); err != nil {
			continue
		}
		if room.Created.Before(cutoff) || room.Status == models.StatusEnded {
			delete(s.rooms, code)
			codes = append(codes, code)
		}
	}
	return codes, nil
}

// Saves reports how many times SaveRoom has been called.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
