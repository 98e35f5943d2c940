package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/unoroom/server/internal/game"
	"github.com/unoroom/server/internal/models"
)

// wsMessage is the JSON envelope for both directions of the websocket.
type wsMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func envelope(event string, data any) []byte {
	payload, _ := json.Marshal(data)
	msg, _ := json.Marshal(wsMessage{Event: event, Data: payload})
	return msg
}

// errorFrame follows the client contract: the message sits under
// data.message.
func errorFrame(message string) []byte {
	return envelope("error", map[string]any{"data": map[string]string{"message": message}})
}

// stateFrame wraps a snapshot for either the whole room or one member.
func stateFrame(scope string, state any) []byte {
	return envelope("game.state", map[string]any{
		"event": scope,
		"data":  map[string]any{"state": state},
	})
}

func (s *Server) publishPublicState(code string, state game.PublicState) {
	s.hub.broadcast(code, stateFrame("game.state.all", state))
}

func (s *Server) publishPrivateState(code, playerID string, state game.PrivateState) {
	s.hub.sendToUser(code, playerID, stateFrame("game.state.user", state))
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	token := r.URL.Query().Get("token")

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // any origin may connect
	})
	if err != nil {
		s.log.WithError(err).Warn("websocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	ctx := r.Context()

	users, err := s.rooms.Users(ctx, code)
	if err != nil {
		conn.Write(ctx, websocket.MessageText, errorFrame("There is no such room"))
		conn.Close(websocket.StatusPolicyViolation, "room not found")
		return
	}
	identity, err := s.tokens.Verify(token)
	if err != nil {
		conn.Write(ctx, websocket.MessageText, errorFrame("Invalid token"))
		conn.Close(websocket.StatusPolicyViolation, "invalid token")
		return
	}
	var self *models.User
	for i := range users {
		if users[i].ID == identity.ID {
			self = &users[i]
			break
		}
	}
	if self == nil {
		conn.Write(ctx, websocket.MessageText, errorFrame("There is no such user"))
		conn.Close(websocket.StatusPolicyViolation, "unknown user")
		return
	}

	m := &member{
		connID: uuid.NewString(),
		userID: identity.ID,
		send:   make(chan []byte, 64),
	}
	s.hub.add(code, m)
	defer s.hub.remove(code, m.connID)

	s.log.WithFields(map[string]any{"room": code, "user": identity.ID}).Info("websocket connected")
	s.hub.broadcast(code, envelope("room.players", map[string]any{
		"event": "room.newConnection",
		"data":  map[string]any{"users": users, "newUser": self},
	}))
	s.sendGameState(ctx, code)

	// Writer: drain the member's send channel onto the socket.
	go func() {
		for msg := range m.send {
			if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}()

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			break
		}
		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.hub.sendToUser(code, identity.ID, errorFrame("invalid message"))
			continue
		}
		s.handleEvent(ctx, code, identity.ID, identity.IsHost, m, msg)
	}
	s.log.WithFields(map[string]any{"room": code, "user": identity.ID}).Info("websocket disconnected")
}

type deleteUserPayload struct {
	UserID string `json:"userId"`
}

func (s *Server) handleEvent(ctx context.Context, code, userID string, isHost bool, m *member, msg wsMessage) {
	sendErr := func(message string) {
		select {
		case m.send <- errorFrame(message):
		default:
		}
	}

	switch msg.Event {
	case "initGame":
		if !isHost {
			sendErr("U not a host")
			return
		}
		if err := s.manager.InitGame(ctx, code); err != nil {
			sendErr(userMessage(err))
		}

	case "move":
		var mv models.MoveRequest
		if err := json.Unmarshal(msg.Data, &mv); err != nil {
			sendErr("invalid move payload")
			return
		}
		if err := s.manager.Move(ctx, code, userID, mv); err != nil {
			sendErr(userMessage(err))
		}

	case "deleteUser":
		if !isHost {
			sendErr("U not a host")
			return
		}
		var payload deleteUserPayload
		if err := json.Unmarshal(msg.Data, &payload); err != nil || payload.UserID == "" {
			sendErr("invalid deleteUser payload")
			return
		}
		if err := s.manager.RemovePlayer(ctx, code, payload.UserID); err != nil {
			sendErr(userMessage(err))
		}

	default:
		sendErr("unknown event: " + msg.Event)
	}
}

// sendGameState pushes the current snapshots to a room, mirroring what the
// facade broadcasts after each mutation. Used when a connection is opened.
func (s *Server) sendGameState(ctx context.Context, code string) {
	public, err := s.manager.PublicState(ctx, code)
	if err != nil {
		return
	}
	s.publishPublicState(code, public)
	for _, u := range public.Users {
		private, err := s.manager.PrivateState(ctx, code, u.ID)
		if err != nil {
			continue
		}
		s.publishPrivateState(code, u.ID, private)
	}
}

// userMessage maps engine errors onto the messages surfaced to clients.
func userMessage(err error) string {
	var authErr *game.AuthorizationError
	if errors.As(err, &authErr) {
		return "Not current user"
	}
	var nfErr *game.NotFoundError
	if errors.As(err, &nfErr) {
		if nfErr.Resource == "player" {
			return "There is no such user"
		}
		return "There is no such room"
	}
	var valErr *game.ValidationError
	if errors.As(err, &valErr) {
		return valErr.Reason
	}
	return "Something went wrong"
}
