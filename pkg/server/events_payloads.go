package server

import (
	"github.com/squeakgame/squeak/pkg/cards"
	"github.com/squeakgame/squeak/pkg/squeak"
)

// Each event carries exactly one payload implementing this interface.
// Payloads marshal to the JSON body of the websocket message of the
// matching event type.
type EventPayload interface {
	Kind() GameEventType
}

// ---------- Membership payloads ----------

type PlayerJoinedPayload struct {
	PlayerID    string   `json:"playerId"`
	Name        string   `json:"name"`
	IsBot       bool     `json:"isBot"`
	PlayerCount int      `json:"playerCount"`
	MaxPlayers  int      `json:"maxPlayers"`
	PlayerIDs   []string `json:"playerIds"`
}

func (PlayerJoinedPayload) Kind() GameEventType { return GameEventTypePlayerJoined }

type PlayerLeftPayload struct {
	PlayerID    string `json:"playerId"`
	PlayerCount int    `json:"playerCount"`
	MidRound    bool   `json:"midRound"` // cards stay in play when true
	NewHostID   string `json:"newHostId,omitempty"`
}

func (PlayerLeftPayload) Kind() GameEventType { return GameEventTypePlayerLeft }

type RoomIsFullPayload struct {
	RoomID     string `json:"roomId"`
	MaxPlayers int    `json:"maxPlayers"`
}

func (RoomIsFullPayload) Kind() GameEventType { return GameEventTypeRoomIsFull }

// ---------- Action payloads ----------

type CardDropApprovedPayload struct {
	PlayerID     string       `json:"playerId"`
	Card         cards.Card   `json:"card"`
	Source       string       `json:"source"`
	Dest         string       `json:"dest"`
	Row          int          `json:"row"`
	Col          int          `json:"col"`
	FromStack    int          `json:"fromStack"`
	ToStack      int          `json:"toStack"`
	Carried      []cards.Card `json:"carried,omitempty"`
	EmptiedStack int          `json:"emptiedStack"`
	ClearedKing  bool         `json:"clearedKing"`
}

func (CardDropApprovedPayload) Kind() GameEventType { return GameEventTypeCardDropApproved }

func approvedPayload(res *squeak.MoveResult) *CardDropApprovedPayload {
	return &CardDropApprovedPayload{
		PlayerID:     res.PlayerID,
		Card:         res.Card,
		Source:       res.Source,
		Dest:         res.Dest,
		Row:          res.Row,
		Col:          res.Col,
		FromStack:    res.FromStack,
		ToStack:      res.ToStack,
		Carried:      res.Carried,
		EmptiedStack: res.EmptiedStack,
		ClearedKing:  res.ClearedKing,
	}
}

// CardDropDeniedPayload goes only to the player whose move was rejected;
// the client rolls the card back to where it came from.
type CardDropDeniedPayload struct {
	PlayerID string `json:"playerId"`
	Reason   string `json:"reason"`
}

func (CardDropDeniedPayload) Kind() GameEventType { return GameEventTypeCardDropDenied }

type CardDrawnPayload struct {
	PlayerID      string       `json:"playerId"`
	Exposed       []cards.Card `json:"exposed"`
	Reset         bool         `json:"reset"`
	DrawPileCount int          `json:"drawPileCount"`
}

func (CardDrawnPayload) Kind() GameEventType { return GameEventTypeCardDrawn }

type StackRefilledPayload struct {
	PlayerID        string     `json:"playerId"`
	Card            cards.Card `json:"card"`
	StackIdx        int        `json:"stackIdx"`
	SqueakDeckCount int        `json:"squeakDeckCount"`
}

func (StackRefilledPayload) Kind() GameEventType { return GameEventTypeStackRefilled }

// ---------- Coordination payloads ----------

type DecksRotatedPayload struct {
	Trigger string `json:"trigger"` // "vote" or "stuck"
}

func (DecksRotatedPayload) Kind() GameEventType { return GameEventTypeDecksRotated }

type VoteUpdatedPayload struct {
	Category string `json:"category"`
	For      int    `json:"for"`
	Against  int    `json:"against"`
	Voted    int    `json:"voted"`
	Required int    `json:"required"`
	Finished bool   `json:"finished"`
	Passed   bool   `json:"passed"`
}

func (VoteUpdatedPayload) Kind() GameEventType { return GameEventTypeVoteUpdated }

func votePayload(t *squeak.VoteTally) *VoteUpdatedPayload {
	return &VoteUpdatedPayload{
		Category: string(t.Category),
		For:      t.For,
		Against:  t.Against,
		Voted:    t.Voted,
		Required: t.Required,
		Finished: t.Finished,
		Passed:   t.Passed,
	}
}

// ---------- Round boundary payloads ----------

type ScoreboardLine struct {
	PlayerID       string `json:"playerId"`
	Name           string `json:"name"`
	CardsPlayed    int    `json:"cardsPlayed"`
	SqueakModifier int    `json:"squeakModifier"`
	RoundPoints    int    `json:"roundPoints"`
	NewTotal       int    `json:"newTotal"`
	Rank           int    `json:"rank"`
}

type ScoreboardPayload struct {
	Round      int              `json:"round"`
	SqueakerID string           `json:"squeakerId,omitempty"`
	Lines      []ScoreboardLine `json:"lines"`
	WinnerID   string           `json:"winnerId,omitempty"`
	GameOver   bool             `json:"gameOver"`
}

func (ScoreboardPayload) Kind() GameEventType { return GameEventTypeScoreboard }

func scoreboardPayload(res *squeak.RoundResult) *ScoreboardPayload {
	p := &ScoreboardPayload{
		Round:      res.Round,
		SqueakerID: res.SqueakerID,
		WinnerID:   res.WinnerID,
		GameOver:   res.GameOver,
	}
	for _, st := range res.Stats {
		p.Lines = append(p.Lines, ScoreboardLine{
			PlayerID:       st.PlayerID,
			Name:           st.Name,
			CardsPlayed:    len(st.CardsPlayed),
			SqueakModifier: st.SqueakModifier,
			RoundPoints:    st.RoundPoints,
			NewTotal:       st.NewTotal,
			Rank:           st.Rank,
		})
	}
	return p
}

type GameStartedPayload struct {
	RoomID    string   `json:"roomId"`
	PlayerIDs []string `json:"playerIds"`
	Round     int      `json:"round"`
}

func (GameStartedPayload) Kind() GameEventType { return GameEventTypeGameStarted }

type RoundStartedPayload struct {
	Round int `json:"round"`
}

func (RoundStartedPayload) Kind() GameEventType { return GameEventTypeRoundStarted }

type GameEndedPayload struct {
	WinnerID string `json:"winnerId"`
	Reason   string `json:"reason,omitempty"`
}

func (GameEndedPayload) Kind() GameEventType { return GameEventTypeGameEnded }

// SyncStatePayload carries the full authoritative view for one player.
type SyncStatePayload struct {
	Snapshot *RoomSnapshot `json:"snapshot"`
}

func (SyncStatePayload) Kind() GameEventType { return GameEventTypeSyncState }
