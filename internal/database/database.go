// Package database persists room documents in Postgres. Each room is one
// JSONB document keyed by its code, which keeps the engine's load/save
// cycle a single-row read and upsert.
package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/unoroom/server/internal/game"
	"github.com/unoroom/server/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS rooms (
	code    text PRIMARY KEY,
	doc     jsonb NOT NULL,
	status  text NOT NULL,
	created timestamptz NOT NULL
)`

// Store implements game.Store on a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
	log  *logrus.Logger
}

// Connect opens the pool and ensures the schema exists.
func Connect(ctx context.Context, url string, log *logrus.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{pool: pool, log: log}, nil
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// LoadRoomByCode fetches one room document. A missing code is reported as
// *game.NotFoundError so callers can tell it apart from validation errors.
func (s *Store) LoadRoomByCode(ctx context.Context, code string) (*models.Room, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx, `SELECT doc FROM rooms WHERE code = $1`, code).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &game.NotFoundError{Resource: "room", Key: code}
	}
	if err != nil {
		return nil, fmt.Errorf("load room %s: %w", code, err)
	}
	var room models.Room
	if err := json.Unmarshal(doc, &room); err != nil {
		return nil, fmt.Errorf("decode room %s: %w", code, err)
	}
	return &room, nil
}

// SaveRoom upserts the full room document.
func (s *Store) SaveRoom(ctx context.Context, room *models.Room) error {
	doc, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("encode room %s: %w", room.Code, err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO rooms (code, doc, status, created) VALUES ($1, $2, $3, $4)
		ON CONFLICT (code) DO UPDATE SET doc = excluded.doc, status = excluded.status`,
		room.Code, doc, room.Status, room.Created)
	if err != nil {
		return fmt.Errorf("save room %s: %w", room.Code, err)
	}
	return nil
}

// DeleteRoom removes one room document.
func (s *Store) DeleteRoom(ctx context.Context, code string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM rooms WHERE code = $1`, code)
	if err != nil {
		return fmt.Errorf("delete room %s: %w", code, err)
	}
	return nil
}

// SweepStale deletes rooms created before the cutoff or already ended,
// returning the codes removed so in-memory sessions can be dropped too.
func (s *Store) SweepStale(ctx context.Context, olderThan time.Duration) ([]string, error) {
	cutoff := time.Now().Add(-olderThan)
	rows, err := s.pool.Query(ctx, `
		DELETE FROM rooms WHERE created <= $1 OR status = $2 RETURNING code`,
		cutoff, models.StatusEnded)
	if err != nil {
		return nil, fmt.Errorf("sweep rooms: %w", err)
	}
	defer rows.Close()
	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(codes) > 0 {
		s.log.WithField("count", len(codes)).Info("swept stale rooms")
	}
	return codes, nil
}
