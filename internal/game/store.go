package game

import (
	"context"

	"github.com/unoroom/server/internal/models"
)

// Store is the room persistence contract the engine needs. Implementations
// must make LoadRoomByCode return a *NotFoundError when the code does not
// resolve.
type Store interface {
	LoadRoomByCode(ctx context.Context, code string) (*models.Room, error)
	SaveRoom(ctx context.Context, room *models.Room) error
}

// ActionRecord describes one accepted state transition for the action
// history stream.
type ActionRecord struct {
	RoomCode  string         `json:"roomCode"`
	ActorID   string         `json:"actorId,omitempty"`
	Action    string         `json:"action"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp int64          `json:"timestamp"`
}

// Recorder receives action records. Publishing is best-effort; the engine
// never blocks a move on it.
type Recorder interface {
	Publish(ctx context.Context, rec ActionRecord) error
}
