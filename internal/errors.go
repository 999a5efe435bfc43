package internal

import "errors"

// Action rejection errors. None of these are fatal to a room: the
// offending intent is answered with an action_rejected message and the
// room state stays untouched.
var (
	ErrRoomNotFound          = errors.New("room not found")
	ErrRoomFull              = errors.New("room is full")
	ErrGameInProgress        = errors.New("round already in progress")
	ErrInvalidPhaseForAction = errors.New("action not valid in current phase")
	ErrDuplicateSubmission   = errors.New("response already submitted this round")
	ErrEmptySubmission       = errors.New("response text is empty")
	ErrDuplicateVote         = errors.New("vote already cast this round")
	ErrSelfVote              = errors.New("cannot vote for your own response")
	ErrInvalidVoteTarget     = errors.New("vote target has no response this round")
	ErrPlayerNotInRoom       = errors.New("player is not in this room")
	ErrNotEnoughPlayers      = errors.New("not enough players to start")
	ErrStartInProgress       = errors.New("a round start is already in flight")
)
