package server

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/promptfall/promptfall/internal"
)

func (s *Server) RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	// Apply CORS middleware
	r.Use(s.corsMiddleware)

	r.HandleFunc("/", s.HealthHandler)

	r.HandleFunc("/rooms", s.ListOpenRooms).Methods(http.MethodGet)

	r.HandleFunc("/rooms/{code}/history", s.GetRoomHistory).Methods(http.MethodGet)

	r.HandleFunc("/ws", s.HandleWebSocket)

	return r
}

// CORS middleware
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// CORS Headers
		w.Header().Set("Access-Control-Allow-Origin", "*") // Wildcard allows all origins
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type")
		w.Header().Set("Access-Control-Allow-Credentials", "false") // Credentials not allowed with wildcard origins

		// If it's a websocket upgrade, skip further CORS checks
		if strings.ToLower(r.Header.Get("Upgrade")) == "websocket" {
			next.ServeHTTP(w, r)
			return
		}

		// Handle preflight OPTIONS requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"status": "ok"}

	jsonResp, err := json.Marshal(resp)
	if err != nil {
		log.Printf("error handling JSON marshal. Err: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	_, _ = w.Write(jsonResp)
}

// ListOpenRooms returns the joinable lobbies for the room browser.
func (s *Server) ListOpenRooms(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now().UnixMilli()

	rooms := s.game.Rooms.OpenRooms()
	resp := internal.APIResponse{
		StatusCode:    http.StatusOK,
		RespStartTime: startTime,
		Data:          rooms,
	}

	// Calculate response times
	endTime := time.Now().UnixMilli()
	resp.RespEndTime = endTime
	resp.NetRespTime = endTime - startTime

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("Error encoding response: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// GetRoomHistory returns a room's archived rounds. Rooms play fine
// without an archive; the endpoint then reports an empty history.
func (s *Server) GetRoomHistory(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now().UnixMilli()
	code := mux.Vars(r)["code"]

	resp := internal.APIResponse{
		StatusCode:    http.StatusOK,
		RespStartTime: startTime,
	}

	if s.history == nil {
		resp.Data = []struct{}{}
	} else {
		rounds, err := s.history.RoundsForRoom(r.Context(), code)
		if err != nil {
			log.Printf("[GetRoomHistory] room=%s: %v", code, err)
			resp.StatusCode = http.StatusInternalServerError
			resp.Data = "history unavailable"
		} else {
			resp.Data = rounds
		}
	}

	// Calculate response times
	endTime := time.Now().UnixMilli()
	resp.RespEndTime = endTime
	resp.NetRespTime = endTime - startTime

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("Error encoding response: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
