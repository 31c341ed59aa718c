package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/squeakgame/squeak/pkg/server"
	"github.com/squeakgame/squeak/pkg/squeak"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second

	maxMessageSize = 4096
	sendBuffer     = 64
)

// Client is one websocket connection. The read pump routes inbound
// messages to the registry and the player's current room; the write pump
// drains the send queue. DeliverEvent makes it a server.Subscriber.
type Client struct {
	gw   *Gateway
	conn *websocket.Conn

	playerID string
	name     string

	// room is the room this connection is acting in. Only the read
	// pump touches it.
	room *server.Room

	send chan []byte
	done chan struct{}
}

func newClient(gw *Gateway, conn *websocket.Conn, playerID, name string) *Client {
	return &Client{
		gw:       gw,
		conn:     conn,
		playerID: playerID,
		name:     name,
		send:     make(chan []byte, sendBuffer),
		done:     make(chan struct{}),
	}
}

// DeliverEvent queues a game event for this connection. Never blocks: a
// client that cannot drain its queue is dropped by the write pump and
// will resync on reconnect.
func (c *Client) DeliverEvent(event *server.GameEvent) {
	raw, err := json.Marshal(eventEnvelope(event))
	if err != nil {
		c.gw.log.Errorf("Failed to marshal %s event for %s: %v", event.Type, c.playerID, err)
		return
	}
	select {
	case c.send <- raw:
	case <-c.done:
	default:
		c.gw.log.Warnf("Send queue full for %s, dropping %s event", c.playerID, event.Type)
	}
}

// enqueue marshals and queues a non-event message.
func (c *Client) enqueue(msgType string, body interface{}) {
	raw, err := json.Marshal(&Outbound{Type: msgType, Data: body})
	if err != nil {
		c.gw.log.Errorf("Failed to marshal %s message for %s: %v", msgType, c.playerID, err)
		return
	}
	select {
	case c.send <- raw:
	case <-c.done:
	default:
	}
}

func (c *Client) writeWelcome() {
	c.enqueue(msgWelcome, &welcomeBody{PlayerID: c.playerID, Name: c.name})
}

func (c *Client) sendError(err error) {
	c.enqueue(msgError, &errorBody{Message: err.Error()})
}

// readPump reads and dispatches inbound messages until the connection
// drops, then tears the client down.
func (c *Client) readPump() {
	defer c.disconnect()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.gw.log.Warnf("Read error for %s: %v", c.playerID, err)
			}
			return
		}
		var msg Inbound
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.sendError(fmt.Errorf("malformed message: %v", err))
			continue
		}
		if err := c.handleMessage(&msg); err != nil {
			c.sendError(err)
		}
	}
}

// writePump drains the send queue and keeps the connection alive with
// pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case raw := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// disconnect unsubscribes and marks the player gone in their room. Their
// cards stay in play; a reconnect picks the seat back up.
func (c *Client) disconnect() {
	c.gw.srv.Unsubscribe(c.playerID)
	if c.room != nil {
		if err := c.room.Leave(c.playerID); err != nil {
			c.gw.log.Debugf("Leave on disconnect for %s: %v", c.playerID, err)
		}
	}
	close(c.done)
	c.gw.log.Infof("Player %s disconnected", c.playerID)
}

// handleMessage routes one inbound message. Returned errors go back to
// the client as error messages; room-level denials travel as
// cardDropDenied events instead.
func (c *Client) handleMessage(msg *Inbound) error {
	switch msg.Type {
	case msgCreateRoom:
		var req createRoomRequest
		if err := unmarshalData(msg.Data, &req); err != nil {
			return err
		}
		room, err := c.gw.srv.CreateRoom(c.playerID, c.name, server.RoomSettings{
			PointsToWin: req.PointsToWin,
			MaxPlayers:  req.MaxPlayers,
			Private:     req.Private,
			Seed:        req.Seed,
		})
		if err != nil {
			return err
		}
		c.room = room
		c.enqueue(msgRoomCreated, &roomBody{Code: room.ID})
		return nil

	case msgJoinRoom:
		var req joinRoomRequest
		if err := unmarshalData(msg.Data, &req); err != nil {
			return err
		}
		room, err := c.gw.srv.JoinRoom(req.Code, c.playerID, c.name)
		if err != nil {
			return err
		}
		c.room = room
		c.enqueue(msgRoomJoined, &roomBody{Code: room.ID})
		return nil

	case msgAddBot:
		room, err := c.currentRoom()
		if err != nil {
			return err
		}
		var req addBotRequest
		if err := unmarshalData(msg.Data, &req); err != nil {
			return err
		}
		if req.Name == "" {
			req.Name = "Bot"
		}
		return room.AddBot(req.Name, squeak.BotDifficulty(req.Difficulty))

	case msgRemoveBot:
		room, err := c.currentRoom()
		if err != nil {
			return err
		}
		var req removeBotRequest
		if err := unmarshalData(msg.Data, &req); err != nil {
			return err
		}
		return room.RemoveBot(c.playerID, req.BotID)

	case msgUpdateSettings:
		room, err := c.currentRoom()
		if err != nil {
			return err
		}
		var req createRoomRequest
		if err := unmarshalData(msg.Data, &req); err != nil {
			return err
		}
		return room.UpdateSettings(c.playerID, server.RoomSettings{
			PointsToWin: req.PointsToWin,
			MaxPlayers:  req.MaxPlayers,
			Private:     req.Private,
			Seed:        req.Seed,
		})

	case msgListRooms:
		c.enqueue(msgRoomList, &roomListBody{Rooms: c.gw.srv.ListRooms()})
		return nil

	case msgLeaveRoom:
		room, err := c.currentRoom()
		if err != nil {
			return err
		}
		c.room = nil
		return room.Leave(c.playerID)

	case msgStartGame:
		room, err := c.currentRoom()
		if err != nil {
			return err
		}
		return room.Start(c.playerID)

	case msgMove:
		room, err := c.currentRoom()
		if err != nil {
			return err
		}
		var req server.MoveRequest
		if err := unmarshalData(msg.Data, &req); err != nil {
			return err
		}
		return room.HandleMove(c.playerID, &req)

	case msgDraw:
		room, err := c.currentRoom()
		if err != nil {
			return err
		}
		return room.HandleDraw(c.playerID)

	case msgRedraw:
		room, err := c.currentRoom()
		if err != nil {
			return err
		}
		var req redrawRequest
		if err := unmarshalData(msg.Data, &req); err != nil {
			return err
		}
		return room.HandleRedraw(c.playerID, req.StackIdx)

	case msgVote:
		room, err := c.currentRoom()
		if err != nil {
			return err
		}
		var req voteRequest
		if err := unmarshalData(msg.Data, &req); err != nil {
			return err
		}
		return room.HandleVote(c.playerID, squeak.VoteCategory(req.Category), req.Agree)

	case msgSyncReport:
		room, err := c.currentRoom()
		if err != nil {
			return err
		}
		var report server.ClientStateReport
		if err := unmarshalData(msg.Data, &report); err != nil {
			return err
		}
		report.PlayerID = c.playerID
		return room.HandleSyncReport(&report)

	case msgScoreboard:
		var req scoreboardRequest
		if err := unmarshalData(msg.Data, &req); err != nil {
			return err
		}
		stats, err := c.gw.srv.Scoreboard(req.Limit)
		if err != nil {
			return err
		}
		body := &scoreboardBody{}
		for _, st := range stats {
			body.Lines = append(body.Lines, scoreboardEntry{
				PlayerID:     st.PlayerID,
				Name:         st.Name,
				GamesWon:     st.GamesWon,
				RoundsPlayed: st.RoundsPlayed,
				Squeaks:      st.Squeaks,
				TotalPoints:  st.TotalPoints,
			})
		}
		c.enqueue(msgScoreboard, body)
		return nil

	case msgPlayerStats:
		st, err := c.gw.srv.PlayerStats(c.playerID)
		if err != nil {
			return err
		}
		c.enqueue(msgPlayerStats, &scoreboardEntry{
			PlayerID:     st.PlayerID,
			Name:         st.Name,
			GamesWon:     st.GamesWon,
			RoundsPlayed: st.RoundsPlayed,
			Squeaks:      st.Squeaks,
			TotalPoints:  st.TotalPoints,
		})
		return nil

	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
}

func (c *Client) currentRoom() (*server.Room, error) {
	if c.room == nil {
		return nil, fmt.Errorf("not in a room")
	}
	return c.room, nil
}

func unmarshalData(data json.RawMessage, v interface{}) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("malformed message body: %v", err)
	}
	return nil
}
