package game

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/promptfall/promptfall/internal"
)

// =============================================================================
// GAME FLOW
// =============================================================================

// RoundRecord is one finished round, handed to the archiver.
type RoundRecord struct {
	RoomCode    string
	RoomName    string
	RoundNumber int
	Challenge   string
	Category    string
	PlayedAt    time.Time
	Results     []internal.RoundResult
}

// RoundArchiver persists finished rounds. Archiving is best effort and
// never blocks or fails the game.
type RoundArchiver interface {
	RecordRound(ctx context.Context, record RoundRecord) error
}

const archiveBudget = 5 * time.Second

// Service drives every room's game loop. All collaborators are injected
// so tests can run rooms against fakes.
type Service struct {
	Rooms   *Directory
	Source  ChallengeSource
	Archive RoundArchiver

	// fallback backs FetchChallenge when Source errors or runs long.
	fallback *StaticSource
}

// NewService wires a game service. source may be nil to play from the
// built-in pool only; archive may be nil to skip persistence.
func NewService(rooms *Directory, source ChallengeSource, archive RoundArchiver) *Service {
	if rooms == nil {
		rooms = NewDirectory()
	}
	s := &Service{
		Rooms:    rooms,
		Source:   source,
		Archive:  archive,
		fallback: NewStaticSource(),
	}
	if s.Source == nil {
		s.Source = s.fallback
	}
	return s
}

// StartGame kicks off round one from the lobby.
func (s *Service) StartGame(room *internal.Room) error {
	return s.startRound(room, internal.PhaseLobby)
}

// ContinueGame starts the next round from the results screen.
func (s *Service) ContinueGame(room *internal.Room) error {
	return s.startRound(room, internal.PhaseResults)
}

// startRound moves the room into a fresh challenge phase. The challenge
// fetch may go remote, so the room lock is released around it and the
// room re-validated before the transition applies; Starting keeps a
// second start from racing the fetch.
func (s *Service) startRound(room *internal.Room, fromPhase internal.GamePhase) error {
	// 1. Validate and claim the start.
	room.Mu.Lock()
	if room.Phase != fromPhase {
		room.Mu.Unlock()
		return internal.ErrInvalidPhaseForAction
	}
	if room.Starting {
		room.Mu.Unlock()
		return internal.ErrStartInProgress
	}
	if room.ConnectedCount() < internal.MinPlayersToStart {
		room.Mu.Unlock()
		return internal.ErrNotEnoughPlayers
	}
	room.Starting = true
	seq := room.PhaseSeq
	nextRound := room.RoundNumber + 1
	room.Mu.Unlock()

	// 2. Fetch the prompt outside the lock.
	challenge := FetchChallenge(s.Source, s.fallback, nextRound)

	// 3. Re-validate. The room may have advanced, emptied, or closed
	// while the fetch was in flight.
	room.Mu.Lock()
	room.Starting = false
	if room.Phase != fromPhase || room.PhaseSeq != seq {
		room.Mu.Unlock()
		log.Printf("[startRound] room=%s: state moved during challenge fetch, dropping round %d", room.Code, nextRound)
		return internal.ErrInvalidPhaseForAction
	}
	if room.ConnectedCount() < internal.MinPlayersToStart {
		room.Mu.Unlock()
		return internal.ErrNotEnoughPlayers
	}

	room.Phase = internal.PhaseChallenge
	room.PhaseSeq++
	armed := room.PhaseSeq
	room.RoundNumber = nextRound
	room.Challenge = &challenge
	room.Responses = make(map[string]*internal.PlayerResponse)
	room.Votes = make(map[string]string)
	room.LastResults = nil
	startPhaseTimerLocked(room, challenge.Duration(), func() {
		s.handlePhaseTimeout(room, internal.PhaseChallenge, armed)
	})
	deadline := room.Deadline
	room.Mu.Unlock()

	log.Printf("[startRound] room=%s round=%d: challenge %q (%ds)", room.Code, nextRound, challenge.Text, challenge.TimeLimit)

	BroadcastPhaseChange(room, internal.PhaseChallenge, nextRound, deadline)
	BroadcastRoomSnapshot(room)
	return nil
}

// SubmitResponse records a player's answer for the running challenge.
// One submission per player per round; empty text is rejected rather
// than stored as a blank entry.
func (s *Service) SubmitResponse(room *internal.Room, player *internal.Player, text string) error {
	if strings.TrimSpace(text) == "" {
		return internal.ErrEmptySubmission
	}

	room.Mu.Lock()
	if _, ok := room.Players[player.Id]; !ok {
		room.Mu.Unlock()
		return internal.ErrPlayerNotInRoom
	}
	if room.Phase != internal.PhaseChallenge {
		room.Mu.Unlock()
		return internal.ErrInvalidPhaseForAction
	}
	if _, ok := room.Responses[player.Id]; ok {
		room.Mu.Unlock()
		return internal.ErrDuplicateSubmission
	}
	order := len(room.Responses)
	room.Responses[player.Id] = &internal.PlayerResponse{
		Text:        text,
		SubmittedAt: time.Now(),
		Order:       order,
	}
	submitted := room.countRealResponses()
	room.Mu.Unlock()

	log.Printf("[SubmitResponse] room=%s player=%s: response %d in", room.Code, player.Id, submitted)
	BroadcastRoomSnapshot(room)
	s.maybeAdvanceEarly(room)
	return nil
}

// CastVote records one vote for another player's response. The vote is
// final for the round.
func (s *Service) CastVote(room *internal.Room, player *internal.Player, targetId string) error {
	room.Mu.Lock()
	if _, ok := room.Players[player.Id]; !ok {
		room.Mu.Unlock()
		return internal.ErrPlayerNotInRoom
	}
	if room.Phase != internal.PhaseVoting {
		room.Mu.Unlock()
		return internal.ErrInvalidPhaseForAction
	}
	if _, ok := room.Votes[player.Id]; ok {
		room.Mu.Unlock()
		return internal.ErrDuplicateVote
	}
	if targetId == player.Id {
		room.Mu.Unlock()
		return internal.ErrSelfVote
	}
	target, ok := room.Responses[targetId]
	if !ok || target.Text == "" {
		room.Mu.Unlock()
		return internal.ErrInvalidVoteTarget
	}
	if _, ok := room.Players[targetId]; !ok {
		room.Mu.Unlock()
		return internal.ErrInvalidVoteTarget
	}
	room.Votes[player.Id] = targetId
	votes := len(room.Votes)
	room.Mu.Unlock()

	log.Printf("[CastVote] room=%s player=%s voted (%d total)", room.Code, player.Id, votes)

	SafeBroadcastToRoom(room, internal.Message[internal.VoteCastData]{
		Type: "vote_cast",
		Data: internal.VoteCastData{VoterId: player.Id, VotesCast: votes},
	})
	BroadcastRoomSnapshot(room)
	s.maybeAdvanceEarly(room)
	return nil
}

// EndGame returns the room to the lobby. Round state is wiped; total
// scores stick around until the room closes.
func (s *Service) EndGame(room *internal.Room) error {
	room.Mu.Lock()
	if room.Phase != internal.PhaseResults {
		room.Mu.Unlock()
		return internal.ErrInvalidPhaseForAction
	}
	cancelPhaseTimerLocked(room)
	room.Phase = internal.PhaseLobby
	room.PhaseSeq++
	room.RoundNumber = 0
	room.Challenge = nil
	room.Responses = make(map[string]*internal.PlayerResponse)
	room.Votes = make(map[string]string)
	room.LastResults = nil
	room.Mu.Unlock()

	log.Printf("[EndGame] room=%s: back to lobby, scores kept", room.Code)
	BroadcastPhaseChange(room, internal.PhaseLobby, 0, time.Time{})
	BroadcastRoomSnapshot(room)
	return nil
}

// handlePhaseTimeout runs when a phase clock expires. The seq pins it to
// the phase instance it was armed for; the transition it dispatches to
// re-validates under the lock, so a stale callback is a no-op.
func (s *Service) handlePhaseTimeout(room *internal.Room, phase internal.GamePhase, seq int64) {
	switch phase {
	case internal.PhaseChallenge:
		s.beginVoting(room, seq)
	case internal.PhaseVoting:
		s.finishRound(room, seq)
	}
}

// beginVoting closes submissions and opens the vote. Players who never
// submitted get an empty placeholder ordered after every real
// submission, so the round ranking stays total.
func (s *Service) beginVoting(room *internal.Room, fromSeq int64) {
	room.Mu.Lock()
	if room.Phase != internal.PhaseChallenge || room.PhaseSeq != fromSeq {
		room.Mu.Unlock()
		return
	}

	order := len(room.Responses)
	for _, player := range room.PlayersInJoinOrder() {
		if _, ok := room.Responses[player.Id]; ok {
			continue
		}
		room.Responses[player.Id] = &internal.PlayerResponse{
			SubmittedAt: time.Now(),
			Order:       order,
		}
		order++
	}

	room.Phase = internal.PhaseVoting
	room.PhaseSeq++
	armed := room.PhaseSeq
	roundNumber := room.RoundNumber
	startPhaseTimerLocked(room, internal.VotingPhaseDuration, func() {
		s.handlePhaseTimeout(room, internal.PhaseVoting, armed)
	})
	deadline := room.Deadline
	room.Mu.Unlock()

	log.Printf("[beginVoting] room=%s round=%d: voting open", room.Code, roundNumber)
	BroadcastPhaseChange(room, internal.PhaseVoting, roundNumber, deadline)
	BroadcastRoomSnapshot(room)

	// A round with nothing votable has nothing to wait for.
	s.maybeAdvanceEarly(room)
}

// finishRound ranks the responses, applies score deltas, and lands the
// room on the results screen. The results screen has no clock; players
// move on with continue_game or end_game.
func (s *Service) finishRound(room *internal.Room, fromSeq int64) {
	room.Mu.Lock()
	if room.Phase != internal.PhaseVoting || room.PhaseSeq != fromSeq {
		room.Mu.Unlock()
		return
	}

	results := RankRound(room.Players, room.Responses, room.Votes)
	for _, row := range results {
		if player, ok := room.Players[row.PlayerId]; ok {
			player.Score = row.TotalScore
		}
	}
	room.LastResults = results
	room.Phase = internal.PhaseResults
	room.PhaseSeq++
	cancelPhaseTimerLocked(room)
	roundNumber := room.RoundNumber

	var record *RoundRecord
	if s.Archive != nil && room.Challenge != nil {
		record = &RoundRecord{
			RoomCode:    room.Code,
			RoomName:    room.Name,
			RoundNumber: roundNumber,
			Challenge:   room.Challenge.Text,
			Category:    room.Challenge.Category,
			PlayedAt:    time.Now(),
			Results:     results,
		}
	}
	room.Mu.Unlock()

	log.Printf("[finishRound] room=%s round=%d: %d result rows", room.Code, roundNumber, len(results))
	BroadcastPhaseChange(room, internal.PhaseResults, roundNumber, time.Time{})
	BroadcastRoomSnapshot(room)

	if record != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), archiveBudget)
			defer cancel()
			if err := s.Archive.RecordRound(ctx, *record); err != nil {
				log.Printf("[finishRound] room=%s round=%d: archive failed: %v", room.Code, roundNumber, err)
			}
		}()
	}
}

// maybeAdvanceEarly re-checks the running phase's completion condition
// and, when met, shortens the clock so the phase closes a beat later
// through the normal timeout path. Checking and re-arming happen in one
// critical section; the armed seq stays that of the current phase, so
// the shortened clock still targets the same transition.
func (s *Service) maybeAdvanceEarly(room *internal.Room) {
	room.Mu.Lock()
	defer room.Mu.Unlock()

	if room.Timer == nil || !room.Timer.IsActive {
		return
	}

	var done bool
	switch room.Phase {
	case internal.PhaseChallenge:
		done = room.ConnectedCount() > 0 && room.AllConnectedSubmitted()
	case internal.PhaseVoting:
		done = room.ConnectedCount() > 0 && room.AllEligibleVoted()
	default:
		return
	}
	if !done {
		return
	}

	remaining := time.Until(room.Deadline)
	if remaining <= internal.EarlyAdvanceDelay {
		return
	}

	phase := room.Phase
	armed := room.PhaseSeq
	startPhaseTimerLocked(room, internal.EarlyAdvanceDelay, func() {
		s.handlePhaseTimeout(room, phase, armed)
	})
	log.Printf("[maybeAdvanceEarly] room=%s: %s phase closing in %v", room.Code, phase, internal.EarlyAdvanceDelay)
}
