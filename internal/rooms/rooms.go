// Package rooms handles room creation and joining: short codes, member
// registration and the session tokens handed back to clients.
package rooms

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/unoroom/server/internal/game"
	"github.com/unoroom/server/internal/models"
	"github.com/unoroom/server/internal/tokens"
)

// MaxPlayers caps room membership.
const MaxPlayers = 10

// JoinOutcome tags the result of a join attempt.
type JoinOutcome int

const (
	JoinOK JoinOutcome = iota
	JoinRoomNotFound
	JoinNameConflict
	JoinRoomFull
	JoinTooLate // game already started or ended
)

// JoinResult is the full outcome of Join. Token is set only for JoinOK.
type JoinResult struct {
	Outcome JoinOutcome
	Token   string
	UserID  string
}

// CreateResult is returned to the host after creating a room.
type CreateResult struct {
	Code   string
	Token  string
	HostID string
}

// Service creates and fills rooms on top of the shared room store.
type Service struct {
	store  game.Store
	tokens *tokens.Service
	log    *logrus.Logger
}

// New creates a room service.
func New(store game.Store, tok *tokens.Service, log *logrus.Logger) *Service {
	return &Service{store: store, tokens: tok, log: log}
}

// Create registers a new room with the caller as host and returns the room
// code plus the host's session token.
func (s *Service) Create(ctx context.Context, hostName string) (CreateResult, error) {
	host := newUser(hostName, true)
	room := &models.Room{
		Code:    generateCode(),
		Status:  models.StatusCreated,
		Users:   []models.RoomUser{{User: host}},
		Created: time.Now().UTC(),
	}
	if err := s.store.SaveRoom(ctx, room); err != nil {
		return CreateResult{}, fmt.Errorf("create room: %w", err)
	}
	token, err := s.tokens.Issue(host.ID, true)
	if err != nil {
		return CreateResult{}, err
	}
	s.log.WithFields(logrus.Fields{"room": room.Code, "host": host.ID}).Info("room created")
	return CreateResult{Code: room.Code, Token: token, HostID: host.ID}, nil
}

// Join adds a named player to an existing room. Every non-success case is
// reported as a distinct outcome, never an error string.
func (s *Service) Join(ctx context.Context, code, name string) (JoinResult, error) {
	room, err := s.store.LoadRoomByCode(ctx, code)
	if err != nil {
		var nf *game.NotFoundError
		if errors.As(err, &nf) {
			return JoinResult{Outcome: JoinRoomNotFound}, nil
		}
		return JoinResult{}, err
	}
	for _, u := range room.Users {
		if u.User.Name == name {
			return JoinResult{Outcome: JoinNameConflict}, nil
		}
	}
	if len(room.Users) >= MaxPlayers {
		return JoinResult{Outcome: JoinRoomFull}, nil
	}
	if room.Status != models.StatusCreated {
		return JoinResult{Outcome: JoinTooLate}, nil
	}

	user := newUser(name, false)
	room.Users = append(room.Users, models.RoomUser{User: user})
	if err := s.store.SaveRoom(ctx, room); err != nil {
		return JoinResult{}, fmt.Errorf("join room: %w", err)
	}
	token, err := s.tokens.Issue(user.ID, false)
	if err != nil {
		return JoinResult{}, err
	}
	s.log.WithFields(logrus.Fields{"room": code, "user": user.ID, "name": name}).Info("player joined")
	return JoinResult{Outcome: JoinOK, Token: token, UserID: user.ID}, nil
}

// Users returns the current roster of a room.
func (s *Service) Users(ctx context.Context, code string) ([]models.User, error) {
	room, err := s.store.LoadRoomByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	out := make([]models.User, len(room.Users))
	for i, u := range room.Users {
		out[i] = u.User
	}
	return out, nil
}

// newUser mints a member with a generated id and avatar.
func newUser(name string, isHost bool) models.User {
	id := uuid.NewString()
	return models.User{
		ID:     id,
		Name:   name,
		ImgURL: fmt.Sprintf("https://picsum.photos/seed/%s/200", id),
		IsHost: isHost,
	}
}

// generateCode returns a 6-character room code.
func generateCode() string {
	b := make([]byte, 3)
	rand.Read(b)
	return hex.EncodeToString(b)
}
