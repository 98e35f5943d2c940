// Package server is the HTTP and websocket gateway: room creation and
// joining over REST, gameplay over a per-room websocket.
package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/unoroom/server/internal/game"
	"github.com/unoroom/server/internal/rooms"
	"github.com/unoroom/server/internal/tokens"
)

// Server wires the room service, token service and game facade to HTTP.
type Server struct {
	mux     *http.ServeMux
	rooms   *rooms.Service
	tokens  *tokens.Service
	manager *game.Manager
	hub     *hub
	log     *logrus.Logger
}

// New creates the gateway and hooks the game facade's broadcast callbacks
// into the connection hub.
func New(roomSvc *rooms.Service, tok *tokens.Service, manager *game.Manager, log *logrus.Logger) *Server {
	s := &Server{
		mux:     http.NewServeMux(),
		rooms:   roomSvc,
		tokens:  tok,
		manager: manager,
		hub:     newHub(),
		log:     log,
	}
	manager.BroadcastFn = s.publishPublicState
	manager.BroadcastToPlayerFn = s.publishPrivateState
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /rooms/create", s.handleCreateRoom)
	s.mux.HandleFunc("POST /rooms/connect", s.handleConnectRoom)
	s.mux.HandleFunc("GET /ws", s.handleWebSocket)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

type createRoomRequest struct {
	Name string `json:"name"`
}

type connectRoomRequest struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name required"})
		return
	}
	res, err := s.rooms.Create(r.Context(), strings.TrimSpace(req.Name))
	if err != nil {
		s.log.WithError(err).Error("create room failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Something went wrong"})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"event": "create",
		"data":  map[string]string{"code": res.Code, "token": res.Token},
	})
}

func (s *Server) handleConnectRoom(w http.ResponseWriter, r *http.Request) {
	var req connectRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil ||
		strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Code) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name and code required"})
		return
	}
	res, err := s.rooms.Join(r.Context(), strings.TrimSpace(req.Code), strings.TrimSpace(req.Name))
	if err != nil {
		s.log.WithError(err).Error("join room failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Something went wrong"})
		return
	}
	switch res.Outcome {
	case rooms.JoinOK:
		writeJSON(w, http.StatusOK, map[string]any{
			"event": "connect",
			"data":  map[string]string{"token": res.Token},
		})
	case rooms.JoinRoomNotFound:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "There is no such room"})
	case rooms.JoinNameConflict:
		writeJSON(w, http.StatusConflict, map[string]string{"error": "There is already such a user"})
	case rooms.JoinRoomFull:
		writeJSON(w, http.StatusConflict, map[string]string{"error": "Too many players in room"})
	case rooms.JoinTooLate:
		writeJSON(w, http.StatusConflict, map[string]string{"error": "Game already started or ended"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
