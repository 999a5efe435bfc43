package client

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/promptfall/promptfall/internal"
)

// =============================================================================
// GAME CLIENT
// =============================================================================

// Client is the terminal client's connection to a game server. Server
// events stream out of Events in arrival order; the channel closes when
// the socket drops.
type Client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	Events chan internal.Message[json.RawMessage]
}

func Dial(serverURL string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.Dial(serverURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", serverURL, err)
	}

	c := &Client{
		conn:   conn,
		Events: make(chan internal.Message[json.RawMessage], 32),
	}
	go c.readLoop()
	return c, nil
}

func (c *Client) readLoop() {
	defer close(c.Events)
	for {
		var msg internal.Message[json.RawMessage]
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}
		c.Events <- msg
	}
}

func (c *Client) send(msgType string, data any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(internal.Message[any]{Type: msgType, Data: data})
}

func (c *Client) CreateRoom(displayName, roomName string) error {
	return c.send("create_room", internal.CreateRoomData{
		DisplayName: displayName,
		RoomName:    roomName,
	})
}

// JoinRoom joins a room fresh, or reclaims a previous seat when rejoinId
// is the player id from a dropped session.
func (c *Client) JoinRoom(code, displayName, rejoinId string) error {
	return c.send("join_room", internal.JoinRoomData{
		Code:        code,
		DisplayName: displayName,
		PlayerId:    rejoinId,
	})
}

func (c *Client) LeaveRoom() error {
	return c.send("leave_room", struct{}{})
}

func (c *Client) SetName(displayName string) error {
	return c.send("set_name", internal.SetNameData{DisplayName: displayName})
}

func (c *Client) StartGame() error {
	return c.send("start_game", struct{}{})
}

func (c *Client) SubmitResponse(text string) error {
	return c.send("submit_response", internal.SubmitResponseData{Text: text})
}

func (c *Client) GenerateDraft() error {
	return c.send("generate_draft", struct{}{})
}

func (c *Client) CastVote(targetPlayerId string) error {
	return c.send("cast_vote", internal.CastVoteData{TargetPlayerId: targetPlayerId})
}

func (c *Client) ContinueGame() error {
	return c.send("continue_game", struct{}{})
}

func (c *Client) EndGame() error {
	return c.send("end_game", struct{}{})
}

func (c *Client) ListRooms() error {
	return c.send("list_rooms", struct{}{})
}

func (c *Client) Close() error {
	return c.conn.Close()
}
