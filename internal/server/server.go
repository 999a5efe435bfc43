package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/promptfall/promptfall/internal/archive"
	"github.com/promptfall/promptfall/internal/game"
)

// DraftGenerator writes an AI response suggestion for a challenge.
type DraftGenerator interface {
	Draft(ctx context.Context, challengeText string) (string, error)
}

// RoundHistory reads back archived rounds for a room.
type RoundHistory interface {
	RoundsForRoom(ctx context.Context, roomCode string) ([]archive.ArchivedRound, error)
}

type Server struct {
	port int

	game    *game.Service
	drafts  DraftGenerator
	history RoundHistory
}

// NewServer assembles the HTTP server around an already-wired game
// service. drafts and history may be nil; the handlers degrade to
// fallback drafts and an empty history.
func NewServer(port int, svc *game.Service, drafts DraftGenerator, history RoundHistory) *http.Server {
	s := &Server{
		port:    port,
		game:    svc,
		drafts:  drafts,
		history: history,
	}

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}
