package gateway

import (
	"encoding/json"

	"github.com/squeakgame/squeak/pkg/server"
)

// Inbound is the wire envelope for client-to-server messages.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Outbound is the wire envelope for server-to-client messages. Game
// event types reuse the server's catalog verbatim. Snapshot rides along
// on events that let a client rebuild its whole view, like deals,
// rotations and scoreboards.
type Outbound struct {
	Type     string               `json:"type"`
	Data     interface{}          `json:"data,omitempty"`
	Snapshot *server.RoomSnapshot `json:"snapshot,omitempty"`
}

// Inbound message types not covered by the game event catalog.
const (
	msgCreateRoom = "createRoom"
	msgJoinRoom   = "joinRoom"
	msgAddBot     = "addBot"
	msgLeaveRoom  = "leaveRoom"
	msgStartGame  = "startGame"
	msgMove       = "move"
	msgDraw       = "draw"
	msgRedraw     = "redraw"
	msgVote       = "vote"
	msgSyncReport     = "syncReport"
	msgScoreboard     = "scoreboard"
	msgPlayerStats    = "playerStats"
	msgListRooms      = "listRooms"
	msgRemoveBot      = "removeBot"
	msgUpdateSettings = "updateSettings"
)

// Outbound message types outside the game event catalog.
const (
	msgWelcome     = "welcome"
	msgError       = "error"
	msgRoomCreated = "roomCreated"
	msgRoomJoined  = "roomJoined"
	msgRoomList    = "roomList"
)

// Inbound payload bodies.

// createRoomRequest carries the host-tunable settings, for both
// createRoom and updateSettings.
type createRoomRequest struct {
	PointsToWin int   `json:"pointsToWin"`
	MaxPlayers  int   `json:"maxPlayers"`
	Private     bool  `json:"private,omitempty"`
	Seed        int64 `json:"seed,omitempty"`
}

type joinRoomRequest struct {
	Code string `json:"code"`
}

type addBotRequest struct {
	Name       string `json:"name"`
	Difficulty string `json:"difficulty"`
}

type removeBotRequest struct {
	BotID string `json:"botId"`
}

type redrawRequest struct {
	StackIdx int `json:"stackIdx"`
}

type voteRequest struct {
	Category string `json:"category"`
	Agree    bool   `json:"agree"`
}

type scoreboardRequest struct {
	Limit int `json:"limit"`
}

// Outbound payload bodies.

type welcomeBody struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
}

type errorBody struct {
	Message string `json:"message"`
}

type roomBody struct {
	Code string `json:"code"`
}

type scoreboardBody struct {
	Lines []scoreboardEntry `json:"lines"`
}

type roomListBody struct {
	Rooms []server.RoomInfo `json:"rooms"`
}

type scoreboardEntry struct {
	PlayerID     string `json:"playerId"`
	Name         string `json:"name"`
	GamesWon     int64  `json:"gamesWon"`
	RoundsPlayed int64  `json:"roundsPlayed"`
	Squeaks      int64  `json:"squeaks"`
	TotalPoints  int64  `json:"totalPoints"`
}

// eventEnvelope wraps a game event for the wire.
func eventEnvelope(event *server.GameEvent) *Outbound {
	return &Outbound{
		Type:     string(event.Type),
		Data:     event.Payload,
		Snapshot: event.Snapshot,
	}
}
