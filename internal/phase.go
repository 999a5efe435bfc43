package internal

import "time"

const (
	MaxPlayersPerRoom = 4
	MinPlayersToStart = 2

	VotingPhaseDuration = 20 * time.Second

	// GraceWindow is how long a dropped player's identity and score are
	// held for reconnection before the roster evicts them.
	GraceWindow = 30 * time.Second

	// EarlyAdvanceDelay is the debounce floor applied when every
	// participant has already acted: the phase clock is re-armed to this
	// instead of firing inline, so in-flight actions still land.
	EarlyAdvanceDelay = 2 * time.Second

	ChallengeFetchBudget = 4 * time.Second
	DraftBudget          = 8 * time.Second
)

type GamePhase string

const (
	PhaseLobby     GamePhase = "lobby"
	PhaseChallenge GamePhase = "challenge"
	PhaseVoting    GamePhase = "voting"
	PhaseResults   GamePhase = "results"
	PhaseClosed    GamePhase = "closed"
)
