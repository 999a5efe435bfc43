package internal

import (
	"context"
	"sync"
	"time"
)

type GameTimer struct {
	StartTime     time.Time     `json:"start_time"`
	Duration      time.Duration `json:"duration"`
	TimeRemaining time.Duration `json:"time_remaining"`
	IsActive      bool          `json:"is_active"`
	Context       context.Context
	Cancel        context.CancelFunc
}

type Room struct {
	Code string `json:"code"`
	Name string `json:"name"`

	// Game state
	Phase     GamePhase  `json:"phase"`
	Challenge *Challenge `json:"challenge,omitempty"`

	// Roster
	Players   map[string]*Player `json:"-"`
	JoinOrder []string           `json:"-"`

	// Round collections, reset on every challenge entry
	Responses map[string]*PlayerResponse `json:"-"`
	Votes     map[string]string          `json:"-"`

	RoundNumber int           `json:"round_number"`
	LastResults []RoundResult `json:"-"`

	// PhaseSeq increments on every phase entry. Timer callbacks and
	// early-advance triggers carry the seq they were armed for and no-op
	// once it moves on, so a transition fires at most once per phase
	// instance.
	PhaseSeq int64     `json:"-"`
	Deadline time.Time `json:"-"`

	// Starting marks a challenge fetch in flight between lobby/results
	// and the next challenge phase.
	Starting bool `json:"-"`

	Timer *GameTimer `json:"-"`

	// Concurrency control
	Mu sync.RWMutex `json:"-"`

	// Context for cleanup
	Context context.Context    `json:"-"`
	Cancel  context.CancelFunc `json:"-"`
}

// RoomSnapshot is the full client view, broadcast after every mutation.
// Responses appear from the voting phase on, results only in results.
type RoomSnapshot struct {
	Code               string           `json:"code"`
	Name               string           `json:"name"`
	Phase              GamePhase        `json:"phase"`
	RoundNumber        int              `json:"round_number"`
	Players            []PlayerSnapshot `json:"players"`
	Challenge          *Challenge       `json:"challenge,omitempty"`
	DeadlineMs         int64            `json:"deadline_ms,omitempty"`
	ResponsesSubmitted int              `json:"responses_submitted"`
	VotesCast          int              `json:"votes_cast"`
	Responses          []ResponseView   `json:"responses,omitempty"`
	Results            []RoundResult    `json:"results,omitempty"`
}

type ResponseView struct {
	PlayerId   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	Text       string `json:"text"`
}

// Helpers below assume the caller holds r.Mu (read or write).

func (r *Room) ConnectedCount() int {
	count := 0
	for _, player := range r.Players {
		if player.IsConnected {
			count++
		}
	}
	return count
}

func (r *Room) PlayersInJoinOrder() []*Player {
	players := make([]*Player, 0, len(r.JoinOrder))
	for _, id := range r.JoinOrder {
		if player, ok := r.Players[id]; ok {
			players = append(players, player)
		}
	}
	return players
}

func (r *Room) AllConnectedSubmitted() bool {
	for _, player := range r.Players {
		if !player.IsConnected {
			continue
		}
		if _, ok := r.Responses[player.Id]; !ok {
			return false
		}
	}
	return true
}

// AllEligibleVoted reports whether every connected player who still has a
// valid target left to vote for has voted. A player whose only non-empty
// response is their own has no valid target and never blocks the phase.
func (r *Room) AllEligibleVoted() bool {
	for _, player := range r.Players {
		if !player.IsConnected {
			continue
		}
		if _, voted := r.Votes[player.Id]; voted {
			continue
		}
		if r.hasVoteTarget(player.Id) {
			return false
		}
	}
	return true
}

func (r *Room) hasVoteTarget(voterId string) bool {
	for id, resp := range r.Responses {
		if id != voterId && resp.Text != "" {
			return true
		}
	}
	return false
}

// Snapshot builds the broadcast view. Caller must hold r.Mu.
func (r *Room) Snapshot() RoomSnapshot {
	snap := RoomSnapshot{
		Code:               r.Code,
		Name:               r.Name,
		Phase:              r.Phase,
		RoundNumber:        r.RoundNumber,
		Challenge:          r.Challenge,
		ResponsesSubmitted: r.countRealResponses(),
		VotesCast:          len(r.Votes),
	}
	if !r.Deadline.IsZero() {
		snap.DeadlineMs = r.Deadline.UnixMilli()
	}

	snap.Players = make([]PlayerSnapshot, 0, len(r.JoinOrder))
	for _, player := range r.PlayersInJoinOrder() {
		_, submitted := r.Responses[player.Id]
		_, voted := r.Votes[player.Id]
		snap.Players = append(snap.Players, PlayerSnapshot{
			Id:           player.Id,
			DisplayName:  player.DisplayName,
			Score:        player.Score,
			IsConnected:  player.IsConnected,
			HasSubmitted: submitted,
			HasVoted:     voted,
		})
	}

	if r.Phase == PhaseVoting || r.Phase == PhaseResults {
		snap.Responses = make([]ResponseView, 0, len(r.Responses))
		for _, player := range r.PlayersInJoinOrder() {
			resp, ok := r.Responses[player.Id]
			if !ok || resp.Text == "" {
				continue
			}
			snap.Responses = append(snap.Responses, ResponseView{
				PlayerId:   player.Id,
				PlayerName: player.DisplayName,
				Text:       resp.Text,
			})
		}
	}
	if r.Phase == PhaseResults {
		snap.Results = r.LastResults
	}
	return snap
}

func (r *Room) countRealResponses() int {
	count := 0
	for _, resp := range r.Responses {
		if resp.Text != "" {
			count++
		}
	}
	return count
}
