package internal

type Message[T any] struct {
	Type string `json:"type"`
	Data T      `json:"data"`
}

// ===== Inbound intent payloads =====

type CreateRoomData struct {
	DisplayName string `json:"display_name"`
	RoomName    string `json:"room_name"`
}

type JoinRoomData struct {
	Code        string `json:"code"`
	DisplayName string `json:"display_name"`
	// PlayerId, when set, asks to reconnect as a previously dropped
	// player instead of joining fresh.
	PlayerId string `json:"player_id,omitempty"`
}

type SetNameData struct {
	DisplayName string `json:"display_name"`
}

type SubmitResponseData struct {
	Text string `json:"text"`
}

type CastVoteData struct {
	TargetPlayerId string `json:"target_player_id"`
}

// ===== Outbound event payloads =====

type ConnectedData struct {
	PlayerId string `json:"player_id"`
}

type RoomJoinedData struct {
	PlayerId string       `json:"player_id"`
	Room     RoomSnapshot `json:"room"`
}

type PlayerJoinedData struct {
	PlayerId    string `json:"player_id"`
	DisplayName string `json:"display_name"`
	PlayerCount int    `json:"player_count"`
}

type PlayerLeftData struct {
	PlayerId    string `json:"player_id"`
	DisplayName string `json:"display_name"`
	PlayerCount int    `json:"player_count"`
	Reason      string `json:"reason,omitempty"`
}

type PhaseChangedData struct {
	Phase       GamePhase `json:"phase"`
	RoundNumber int       `json:"round_number"`
	DeadlineMs  int64     `json:"deadline_ms,omitempty"`
}

type TimerUpdateData struct {
	TimeRemaining int64     `json:"time_remaining_ms"`
	Phase         GamePhase `json:"phase"`
	IsActive      bool      `json:"is_active"`
}

type VoteCastData struct {
	VoterId   string `json:"voter_id"`
	VotesCast int    `json:"votes_cast"`
}

type DraftReadyData struct {
	Text string `json:"text"`
	// Source is "ai" when the generator answered, "fallback" otherwise.
	Source string `json:"source"`
}

type ActionRejectedData struct {
	Reason string `json:"reason"`
	Detail string `json:"detail,omitempty"`
}

type RoomClosedData struct {
	Code string `json:"code"`
}

type RoomListData struct {
	Rooms []RoomSummary `json:"rooms"`
}

// APIResponse wraps plain HTTP endpoints with request timing.
type APIResponse struct {
	StatusCode    int   `json:"status_code"`
	RespStartTime int64 `json:"resp_time_start_ms"`
	RespEndTime   int64 `json:"resp_time_end_ms"`
	NetRespTime   int64 `json:"net_resp_time_ms"`
	Data          any   `json:"data"`
}
