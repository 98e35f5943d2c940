// Package cache streams accepted game actions to Redis so an external
// consumer can keep a move history per room. Publishing is best-effort.
package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/unoroom/server/internal/game"
)

// Recorder implements game.Recorder on a Redis client. A nil Recorder or
// nil client publishes nothing.
type Recorder struct {
	rdb *redis.Client
	log *logrus.Logger
}

// Connect verifies the Redis connection and returns a recorder.
func Connect(ctx context.Context, addr string, log *logrus.Logger) (*Recorder, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return &Recorder{rdb: rdb, log: log}, nil
}

// Close shuts the underlying client down.
func (r *Recorder) Close() error {
	if r == nil || r.rdb == nil {
		return nil
	}
	return r.rdb.Close()
}

// Publish appends one action record to the room's history list.
func (r *Recorder) Publish(ctx context.Context, rec game.ActionRecord) error {
	if r == nil || r.rdb == nil {
		return nil
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode action record: %w", err)
	}
	key := "uno:actions:" + rec.RoomCode
	if err := r.rdb.RPush(ctx, key, data).Err(); err != nil {
		return fmt.Errorf("push action record: %w", err)
	}
	return nil
}
