package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/diodzi/gthacks-backend/internal/rooms/dto"
	"github.com/diodzi/gthacks-backend/internal/rooms/registry"
	"github.com/diodzi/gthacks-backend/internal/rooms/ws"
)

type Server struct {
	log *zap.Logger
	reg *registry.Registry
	hub *ws.Hub
}

func NewServer(log *zap.Logger, reg *registry.Registry, hub *ws.Hub) *Server {
	return &Server{log: log, reg: reg, hub: hub}
}

func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/rooms", s.createRoom) // POST
	mux.HandleFunc("/rooms/", s.roomRoute) // DELETE /rooms/{id} | GET /rooms/{id}/ws
}

func (s *Server) createRoom(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if req.Title == "" || req.OwnerID == "" || req.GameID == "" {
		writeError(w, http.StatusBadRequest, "title, ownerId and gameId are required")
		return
	}

	id, err := s.reg.Create(r.Context(), req.OwnerID, req.GameID, req.Title)
	if err != nil {
		s.log.Error("create room", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "try again")
		return
	}
	writeJSON(w, dto.CreateRoomResponse{RoomID: id})
}

func (s *Server) roomRoute(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/rooms/"), "/")

	switch {
	case len(parts) == 1 && parts[0] != "":
		s.deleteRoom(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "ws":
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.hub.Serve(w, r, parts[0])
	default:
		http.NotFound(w, r)
	}
}

// deleteRoom derruba todas as conexões e apaga a sala; idempotente.
// Só o dono pode encerrar uma sala ativa; sala já ausente passa direto,
// aí a chamada vira só a limpeza da linha persistida.
func (s *Server) deleteRoom(w http.ResponseWriter, r *http.Request, roomID string) {
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	requester := r.URL.Query().Get("requesterId")
	if requester == "" {
		writeError(w, http.StatusBadRequest, "requesterId is required")
		return
	}
	if room, ok := s.reg.Get(roomID); ok && room.OwnerID != requester {
		writeError(w, http.StatusForbidden, "only the room owner can delete it")
		return
	}

	if err := s.reg.Delete(r.Context(), roomID); err != nil {
		s.log.Error("delete room", zap.String("roomId", roomID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "try again")
		return
	}
	writeJSON(w, dto.DeleteRoomResponse{Message: "room " + roomID + " deleted"})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(dto.ErrorResponse{Error: msg})
}
