// Package webapi exposes a small read-only HTTP surface next to the
// websocket endpoint, mainly for health checks and a lobby room browser.
package webapi

import (
	"encoding/json"
	"log"
	"net/http"
	"sort"

	"github.com/go-chi/chi"

	"github.com/castaneai/potluck/pkg/roomstore"
)

type Server struct {
	store roomstore.Store
}

func NewServer(store roomstore.Store) *Server {
	return &Server{store: store}
}

type roomSummary struct {
	RoomCode string `json:"roomCode"`
	Players  int    `json:"players"`
	Round    int    `json:"round"`
	Started  bool   `json:"started"`
}

type listRoomsResponse struct {
	Rooms []roomSummary `json:"rooms"`
}

func (s *Server) HTTPHandler() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("content-type", "application/json")
		w.Write([]byte(`{"status": "ok"}`))
	})
	r.Get("/rooms", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("content-type", "application/json")
		rooms, err := s.store.ListRooms(req.Context())
		if err != nil {
			log.Printf("failed to list rooms: %+v", err)
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error": "internal server error"}`))
			return
		}
		resp := listRoomsResponse{Rooms: make([]roomSummary, 0, len(rooms))}
		for _, room := range rooms {
			room.Lock()
			resp.Rooms = append(resp.Rooms, roomSummary{
				RoomCode: room.Code,
				Players:  len(room.Players),
				Round:    room.Round,
				Started:  room.Started,
			})
			room.Unlock()
		}
		sort.Slice(resp.Rooms, func(i, j int) bool { return resp.Rooms[i].RoomCode < resp.Rooms[j].RoomCode })
		enc := json.NewEncoder(w)
		if err := enc.Encode(&resp); err != nil {
			log.Printf("failed to encode JSON: %+v", err)
		}
	})
	return r
}
