package internal

import "time"

// Challenge is one round's prompt. Immutable once assigned to a round.
type Challenge struct {
	Text        string `json:"text"`
	Category    string `json:"category"`
	TimeLimit   int    `json:"time_limit_sec"`
	RoundNumber int    `json:"round_number"`
}

func (c Challenge) Duration() time.Duration {
	return time.Duration(c.TimeLimit) * time.Second
}

// PlayerResponse is one player's submission for the current round. Order
// is the arrival index within the round; players who never submit get an
// empty-text placeholder ordered after every real submission, which keeps
// the scorer's tie-break total.
type PlayerResponse struct {
	Text        string    `json:"text"`
	SubmittedAt time.Time `json:"submitted_at"`
	Order       int       `json:"order"`
}

// RoundResult is one row of a scored round, derived by the scorer and
// kept only until the next round starts.
type RoundResult struct {
	Rank         int    `json:"rank"`
	PlayerId     string `json:"player_id"`
	PlayerName   string `json:"player_name"`
	ResponseText string `json:"response_text"`
	VoteCount    int    `json:"vote_count"`
	TotalScore   int    `json:"total_score"`
}

// RoomSummary is the room-browser view of a joinable room.
type RoomSummary struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	PlayerCount int    `json:"player_count"`
	MaxPlayers  int    `json:"max_players"`
}
