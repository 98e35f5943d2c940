// Package game implements the turn/move resolution engine for Uno rooms:
// deck and discard management, turn order, move application, turn-timeout
// scheduling and the per-room session facade that serializes all of it.
package game

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/unoroom/server/internal/catalog"
	"github.com/unoroom/server/internal/models"
)

// handSize is the number of cards dealt to each player at game start.
const handSize = 7

// DefaultTurnTimeout is how long the current player may stall before a
// forced draw-and-pass is applied on their behalf.
const DefaultTurnTimeout = 90 * time.Second

// Manager is the game session facade. Every state transition for a room
// (init, move, removal, timer-fired forced move) runs as one serialized
// unit under that room's session lock; different rooms proceed in parallel.
type Manager struct {
	store    Store
	recorder Recorder

	// TurnTimeout arms the per-player stall timer; zero disables it.
	TurnTimeout time.Duration

	// BroadcastFn pushes a fresh public snapshot to every room member.
	BroadcastFn func(code string, state PublicState)
	// BroadcastToPlayerFn pushes one member's private hand view.
	BroadcastToPlayerFn func(code, playerID string, state PrivateState)

	mu       sync.Mutex
	sessions map[string]*session
}

// session holds the in-memory serialization state for one room: the lock,
// the armed stall timers and the RNG feeding shuffles.
type session struct {
	code   string
	mu     sync.Mutex
	rng    *rand.Rand
	timers map[string]*time.Timer
	seq    int // bumped on every accepted mutation; stale timers check it
}

// NewManager creates a facade over the given store. recorder may be nil.
func NewManager(store Store, recorder Recorder) *Manager {
	return &Manager{
		store:       store,
		recorder:    recorder,
		TurnTimeout: DefaultTurnTimeout,
		sessions:    make(map[string]*session),
	}
}

// session returns the session for code, creating it on first use.
func (m *Manager) session(code string) *session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[code]
	if !ok {
		s = &session{
			code:   code,
			rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
			timers: make(map[string]*time.Timer),
		}
		m.sessions[code] = s
	}
	return s
}

// InitGame deals a fresh game for the room. A room that is already
// inProgress or ended is left untouched.
func (m *Manager) InitGame(ctx context.Context, code string) error {
	s := m.session(code)
	s.mu.Lock()
	defer s.mu.Unlock()

	room, err := m.store.LoadRoomByCode(ctx, code)
	if err != nil {
		return err
	}
	if room.Status != models.StatusCreated {
		return nil
	}
	if len(room.Users) == 0 {
		return &ValidationError{Reason: "room has no players"}
	}

	ids := catalog.IDs()
	shuffle(ids, s.rng)
	hands, rest := deal(ids, len(room.Users), handSize)
	for i := range room.Users {
		room.Users[i].Cards = hands[i]
	}
	room.Options.Discard = []string{rest[0]}
	room.Options.Deck = rest[1:]
	room.Status = models.StatusInProgress
	room.Options.Order = models.OrderForward
	room.Options.CurrentUser = room.Users[0].User.ID
	if catalog.IsWild(room.Options.Discard[0]) {
		room.Options.ChosenColor = models.Colors[s.rng.Intn(len(models.Colors))]
	} else {
		room.Options.ChosenColor = ""
	}

	if err := m.store.SaveRoom(ctx, room); err != nil {
		return err
	}
	s.seq++
	log.Printf("room %s: game started with %d players", code, len(room.Users))
	m.recordAction(code, "", "game_init", map[string]any{"players": len(room.Users)})
	m.broadcast(room)
	m.armTimer(s, room.Options.CurrentUser)
	return nil
}

// Move validates and applies one move by playerID. The room is persisted
// and broadcast only when the move is accepted; a rejected move leaves
// both the stored and in-memory state untouched.
func (m *Manager) Move(ctx context.Context, code, playerID string, mv models.MoveRequest) error {
	s := m.session(code)
	s.mu.Lock()
	defer s.mu.Unlock()

	room, err := m.store.LoadRoomByCode(ctx, code)
	if err != nil {
		return err
	}
	if room.Status != models.StatusInProgress {
		return &ValidationError{Reason: "game is not in progress"}
	}
	if room.Options.CurrentUser != playerID {
		return &AuthorizationError{Reason: "not the current player"}
	}

	if err := applyMove(room, s.rng, playerID, mv); err != nil {
		return err
	}
	if err := m.store.SaveRoom(ctx, room); err != nil {
		return err
	}
	// Disarm only once the move is accepted and persisted; a rejected move
	// leaves the actor's stall timer live.
	m.disarmTimer(s, playerID)
	s.seq++
	m.recordAction(code, playerID, mv.Action, map[string]any{
		"cardId":      mv.Data.CardID,
		"chosenColor": mv.Data.ChosenColor,
	})
	m.broadcast(room)
	if room.Status == models.StatusInProgress {
		m.armTimer(s, room.Options.CurrentUser)
	} else {
		log.Printf("room %s: game ended, winner %s", code, playerID)
		m.stopAllTimers(s)
	}
	return nil
}

// RemovePlayer deletes a player from the room. When the game is running,
// the removed player's cards go back to the deck and, if it was their
// turn, the turn advances first so the order stays valid. Removing the
// last remaining player ends the game.
func (m *Manager) RemovePlayer(ctx context.Context, code, playerID string) error {
	s := m.session(code)
	s.mu.Lock()
	defer s.mu.Unlock()

	room, err := m.store.LoadRoomByCode(ctx, code)
	if err != nil {
		return err
	}
	idx := room.FindUser(playerID)
	if idx < 0 {
		return &NotFoundError{Resource: "player", Key: playerID}
	}

	wasCurrent := room.Status == models.StatusInProgress && room.Options.CurrentUser == playerID
	if wasCurrent {
		shiftTurn(room, playerID, 1)
	}
	m.disarmTimer(s, playerID)
	if room.Status == models.StatusInProgress {
		room.Options.Deck = append(room.Options.Deck, room.Users[idx].Cards...)
	}
	room.Users = append(room.Users[:idx], room.Users[idx+1:]...)
	if room.Status == models.StatusInProgress && len(room.Users) == 0 {
		room.Status = models.StatusEnded
		room.Options.CurrentUser = ""
	}

	if err := m.store.SaveRoom(ctx, room); err != nil {
		return err
	}
	s.seq++
	log.Printf("room %s: removed player %s", code, playerID)
	m.recordAction(code, playerID, "player_removed", nil)
	m.broadcast(room)
	// Every removal bumps seq, which stales any armed timer; re-arm the
	// current player's unconditionally. armTimer replaces an existing one.
	if room.Status == models.StatusInProgress &&
		room.FindUser(room.Options.CurrentUser) >= 0 {
		m.armTimer(s, room.Options.CurrentUser)
	} else {
		m.stopAllTimers(s)
	}
	return nil
}

// PublicState returns the shared snapshot for a room.
func (m *Manager) PublicState(ctx context.Context, code string) (PublicState, error) {
	s := m.session(code)
	s.mu.Lock()
	defer s.mu.Unlock()

	room, err := m.store.LoadRoomByCode(ctx, code)
	if err != nil {
		return PublicState{}, err
	}
	return publicState(room), nil
}

// PrivateState returns one player's own view, including hand contents.
func (m *Manager) PrivateState(ctx context.Context, code, playerID string) (PrivateState, error) {
	s := m.session(code)
	s.mu.Lock()
	defer s.mu.Unlock()

	room, err := m.store.LoadRoomByCode(ctx, code)
	if err != nil {
		return PrivateState{}, err
	}
	st, err := privateState(room, playerID)
	if err != nil {
		return PrivateState{}, err
	}
	return *st, nil
}

// Forget drops the in-memory session for a room that no longer exists,
// cancelling any armed timers. Called by the retention sweep.
func (m *Manager) Forget(code string) {
	m.mu.Lock()
	s, ok := m.sessions[code]
	if ok {
		delete(m.sessions, code)
	}
	m.mu.Unlock()
	if !ok {
		return
	}
	s.mu.Lock()
	m.stopAllTimers(s)
	s.mu.Unlock()
}

// broadcast pushes the public snapshot plus every member's private view.
// Assumes the session lock is held.
func (m *Manager) broadcast(room *models.Room) {
	if m.BroadcastFn != nil {
		m.BroadcastFn(room.Code, publicState(room))
	}
	if m.BroadcastToPlayerFn == nil {
		return
	}
	for i := range room.Users {
		id := room.Users[i].User.ID
		st, err := privateState(room, id)
		if err != nil {
			continue
		}
		m.BroadcastToPlayerFn(room.Code, id, *st)
	}
}

// recordAction publishes one action record asynchronously. Failures are
// logged and never block or fail the move that produced them.
func (m *Manager) recordAction(code, actorID, action string, payload map[string]any) {
	if m.recorder == nil {
		return
	}
	rec := ActionRecord{
		RoomCode:  code,
		ActorID:   actorID,
		Action:    action,
		Payload:   payload,
		Timestamp: time.Now().UnixMilli(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := m.recorder.Publish(ctx, rec); err != nil {
			log.Printf("room %s: failed publishing action %q: %v", code, action, err)
		}
	}()
}
