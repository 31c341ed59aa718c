package server

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/decred/slog"

	"github.com/squeakgame/squeak/pkg/cards"
	"github.com/squeakgame/squeak/pkg/squeak"
	"github.com/squeakgame/squeak/pkg/utils"
)

var (
	ErrRoomFull          = errors.New("room is full")
	ErrRoomClosed        = errors.New("room is closed")
	ErrGameInProgress    = errors.New("game already in progress")
	ErrGameNotStarted    = errors.New("game not started")
	ErrNotHost           = errors.New("only the host can do that")
	ErrNotEnoughPlayers  = errors.New("need at least two players")
	ErrSeatsBelowCurrent = errors.New("max players below current seat count")
)

// Seat count bounds for a room.
const (
	minSeats = 2
	maxSeats = 5
)

// RoomSettings are the host's knobs for one room.
type RoomSettings struct {
	PointsToWin int
	MaxPlayers  int

	// Private rooms are left out of the public room listing.
	Private bool

	// Seed gives deterministic deals when non-zero.
	Seed int64

	// StuckInterval is the stuck-game detector cadence.
	StuckInterval time.Duration

	// VoteTimeout abandons a vote whose ballots never complete.
	VoteTimeout time.Duration

	// NextRoundDelay is the scoreboard display window between rounds.
	NextRoundDelay time.Duration

	// RedrawDelay is how long an emptied squeak stack slot waits
	// before it is refilled from the reserve, mirroring the physical
	// reach-and-flip.
	RedrawDelay time.Duration
}

func (s *RoomSettings) applyDefaults() {
	if s.PointsToWin <= 0 {
		s.PointsToWin = 100
	}
	if s.MaxPlayers <= 0 {
		s.MaxPlayers = maxSeats
	}
	if s.MaxPlayers < minSeats {
		s.MaxPlayers = minSeats
	}
	if s.MaxPlayers > maxSeats {
		s.MaxPlayers = maxSeats
	}
	if s.StuckInterval <= 0 {
		s.StuckInterval = 5 * time.Second
	}
	if s.VoteTimeout <= 0 {
		s.VoteTimeout = 30 * time.Second
	}
	if s.NextRoundDelay <= 0 {
		s.NextRoundDelay = 5 * time.Second
	}
	if s.RedrawDelay <= 0 {
		s.RedrawDelay = time.Second
	}
}

// MoveRequest is a client's claimed move, decoded from the wire. The
// server never trusts it: every field is re-validated by the engine.
type MoveRequest struct {
	Kind string `json:"kind"` // deckToBoard, deckToStack, stackToBoard, stackToStack

	Card      *cards.Card `json:"card,omitempty"`
	Row       int         `json:"row"`
	Col       int         `json:"col"`
	FromStack int         `json:"fromStack"`
	ToStack   int         `json:"toStack"`
}

type seat struct {
	player *squeak.Player
}

// Room is one game room. All game state is owned by the room's actor
// goroutine: exported methods marshal onto the command queue and never
// touch the game directly, so no lock guards the engine.
type Room struct {
	ID     string
	HostID string

	log      slog.Logger
	server   *Server
	settings RoomSettings

	cmds      chan func()
	quit      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once

	// Actor-owned state below.
	game    *squeak.Game
	seats   []*seat
	started bool
	over    bool

	voteTimer *time.Timer
	botTimers map[string]*time.Timer

	// roundGen guards against stale timers firing into a later round.
	roundGen int
}

// NewRoom creates a room and starts its actor goroutine.
func NewRoom(id, hostID string, settings RoomSettings, srv *Server) *Room {
	settings.applyDefaults()
	r := &Room{
		ID:        id,
		HostID:    hostID,
		log:       srv.logBackend.Logger("ROOM"),
		server:    srv,
		settings:  settings,
		cmds:      make(chan func(), 64),
		quit:      make(chan struct{}),
		botTimers: make(map[string]*time.Timer),
	}
	r.wg.Add(1)
	go r.run()
	return r
}

// run is the actor loop. Every game mutation happens here.
func (r *Room) run() {
	defer r.wg.Done()
	stuck := time.NewTicker(r.settings.StuckInterval)
	defer stuck.Stop()

	for {
		select {
		case <-r.quit:
			return
		case fn := <-r.cmds:
			fn()
		case <-stuck.C:
			r.stuckTick()
		}
	}
}

// do enqueues fn onto the actor. Returns false when the room is closed.
func (r *Room) do(fn func()) bool {
	select {
	case r.cmds <- fn:
		return true
	case <-r.quit:
		return false
	}
}

// call runs fn on the actor and waits for it to finish.
func (r *Room) call(fn func()) error {
	done := make(chan struct{})
	if !r.do(func() {
		fn()
		close(done)
	}) {
		return ErrRoomClosed
	}
	select {
	case <-done:
		return nil
	case <-r.quit:
		return ErrRoomClosed
	}
}

// Close stops the actor and every outstanding timer. Safe to call more
// than once; teardown and server shutdown can race.
func (r *Room) Close() {
	r.closeOnce.Do(func() {
		r.call(func() {
			r.cancelTimers()
			r.over = true
		})
		close(r.quit)
	})
	r.wg.Wait()
}

func (r *Room) cancelTimers() {
	if r.voteTimer != nil {
		r.voteTimer.Stop()
		r.voteTimer = nil
	}
	for id, t := range r.botTimers {
		t.Stop()
		delete(r.botTimers, id)
	}
}

// playerIDs returns every seated player ID, for event targeting.
func (r *Room) playerIDs() []string {
	ids := make([]string, 0, len(r.seats))
	for _, s := range r.seats {
		ids = append(ids, s.player.ID)
	}
	return ids
}

// broadcast publishes an event to every player in the room.
func (r *Room) broadcast(payload EventPayload, snapshot *RoomSnapshot) {
	r.server.publish(&GameEvent{
		Type:      payload.Kind(),
		RoomID:    r.ID,
		PlayerIDs: r.playerIDs(),
		Payload:   payload,
		Snapshot:  snapshot,
	})
}

// whisper publishes an event to a single player.
func (r *Room) whisper(playerID string, payload EventPayload, snapshot *RoomSnapshot) {
	r.server.publish(&GameEvent{
		Type:      payload.Kind(),
		RoomID:    r.ID,
		PlayerIDs: []string{playerID},
		Payload:   payload,
		Snapshot:  snapshot,
	})
}

// Join seats a player, or reconnects one who left mid-round.
func (r *Room) Join(playerID, name string) error {
	var err error
	cerr := r.call(func() {
		// Reconnect path: the seat is still there, just unfreeze it.
		if r.started {
			if _, ok := r.game.Player(playerID); ok && r.game.Disconnected[playerID] {
				delete(r.game.Disconnected, playerID)
				r.whisper(playerID, &SyncStatePayload{Snapshot: BuildRoomSnapshot(r.ID, r.game)}, nil)
				return
			}
			err = ErrGameInProgress
			return
		}
		for _, s := range r.seats {
			if s.player.ID == playerID {
				return // already seated, idempotent
			}
		}
		if len(r.seats) >= r.settings.MaxPlayers {
			r.whisper(playerID, &RoomIsFullPayload{RoomID: r.ID, MaxPlayers: r.settings.MaxPlayers}, nil)
			err = ErrRoomFull
			return
		}
		r.seats = append(r.seats, &seat{player: squeak.NewPlayer(playerID, name)})
		r.broadcast(&PlayerJoinedPayload{
			PlayerID:    playerID,
			Name:        name,
			PlayerCount: len(r.seats),
			MaxPlayers:  r.settings.MaxPlayers,
			PlayerIDs:   r.playerIDs(),
		}, nil)
	})
	if cerr != nil {
		return cerr
	}
	return err
}

// AddBot seats a bot. Only before the game starts.
func (r *Room) AddBot(name string, difficulty squeak.BotDifficulty) error {
	var err error
	cerr := r.call(func() {
		if r.started {
			err = ErrGameInProgress
			return
		}
		if len(r.seats) >= r.settings.MaxPlayers {
			err = ErrRoomFull
			return
		}
		bot := squeak.NewBot(fmt.Sprintf("bot-%s-%d", r.ID, len(r.seats)), name, difficulty)
		r.seats = append(r.seats, &seat{player: bot})
		r.broadcast(&PlayerJoinedPayload{
			PlayerID:    bot.ID,
			Name:        name,
			IsBot:       true,
			PlayerCount: len(r.seats),
			MaxPlayers:  r.settings.MaxPlayers,
			PlayerIDs:   r.playerIDs(),
		}, nil)
	})
	if cerr != nil {
		return cerr
	}
	return err
}

// RemoveBot unseats a bot. Host only, before the game starts.
func (r *Room) RemoveBot(playerID, botID string) error {
	var err error
	cerr := r.call(func() {
		if playerID != r.HostID {
			err = ErrNotHost
			return
		}
		if r.started {
			err = ErrGameInProgress
			return
		}
		for i, s := range r.seats {
			if s.player.ID == botID && s.player.IsBot {
				r.seats = append(r.seats[:i], r.seats[i+1:]...)
				r.broadcast(&PlayerLeftPayload{PlayerID: botID, PlayerCount: len(r.seats)}, nil)
				return
			}
		}
		err = squeak.ErrPlayerNotFound
	})
	if cerr != nil {
		return cerr
	}
	return err
}

// UpdateSettings lets the host retune the room before the game starts.
// Only the game-facing knobs move; the room's timer cadences are fixed
// at creation. The seat cap never drops below the seats already taken.
func (r *Room) UpdateSettings(playerID string, settings RoomSettings) error {
	var err error
	cerr := r.call(func() {
		if playerID != r.HostID {
			err = ErrNotHost
			return
		}
		if r.started {
			err = ErrGameInProgress
			return
		}
		next := r.settings
		next.PointsToWin = settings.PointsToWin
		next.MaxPlayers = settings.MaxPlayers
		next.Private = settings.Private
		if settings.Seed != 0 {
			next.Seed = settings.Seed
		}
		next.applyDefaults()
		if next.MaxPlayers < len(r.seats) {
			err = ErrSeatsBelowCurrent
			return
		}
		r.settings = next
	})
	if cerr != nil {
		return cerr
	}
	return err
}

// Info returns the room's listing line.
func (r *Room) Info() RoomInfo {
	var info RoomInfo
	r.call(func() {
		info = RoomInfo{
			Code:        r.ID,
			HostID:      r.HostID,
			PlayerCount: len(r.seats),
			MaxPlayers:  r.settings.MaxPlayers,
			Started:     r.started,
			Private:     r.settings.Private,
		}
	})
	return info
}

// Leave removes a player. Before the game starts the seat is freed;
// mid-round the player's cards stay in play and the seat is marked
// disconnected so bots and scoring still account for them. A departing
// host hands the room to the next human seat, and a room with no humans
// left is torn down.
func (r *Room) Leave(playerID string) error {
	return r.call(func() {
		seated := false
		for _, s := range r.seats {
			if s.player.ID == playerID {
				seated = true
			}
		}
		// Leaving twice is a no-op.
		if !seated || (r.started && r.game.Disconnected[playerID]) {
			return
		}

		left := &PlayerLeftPayload{PlayerID: playerID}
		if !r.started {
			for i, s := range r.seats {
				if s.player.ID == playerID {
					r.seats = append(r.seats[:i], r.seats[i+1:]...)
					break
				}
			}
		} else {
			r.game.MarkDisconnected(playerID)
			left.MidRound = true
		}
		left.PlayerCount = len(r.seats)

		if playerID == r.HostID {
			r.HostID = r.nextHost()
			left.NewHostID = r.HostID
		}
		r.broadcast(left, nil)

		if !r.humansRemain() {
			r.log.Infof("Room %s has no humans left, tearing down", r.ID)
			go r.server.CloseRoom(r.ID)
		}
	})
}

// nextHost picks the first connected human seat, or "" when none is
// left.
func (r *Room) nextHost() string {
	for _, s := range r.seats {
		if s.player.IsBot || s.player.ID == r.HostID {
			continue
		}
		if r.started && r.game.Disconnected[s.player.ID] {
			continue
		}
		return s.player.ID
	}
	return ""
}

// humansRemain reports whether any connected human still holds a seat.
func (r *Room) humansRemain() bool {
	for _, s := range r.seats {
		if s.player.IsBot {
			continue
		}
		if r.started && r.game.Disconnected[s.player.ID] {
			continue
		}
		return true
	}
	return false
}

// Host returns the current host's player ID.
func (r *Room) Host() string {
	var id string
	r.call(func() { id = r.HostID })
	return id
}

// Start deals the first round. Host only.
func (r *Room) Start(playerID string) error {
	var err error
	cerr := r.call(func() {
		if playerID != r.HostID {
			err = ErrNotHost
			return
		}
		if r.started {
			err = ErrGameInProgress
			return
		}
		if len(r.seats) < minSeats {
			err = ErrNotEnoughPlayers
			return
		}
		players := make([]*squeak.Player, 0, len(r.seats))
		for _, s := range r.seats {
			players = append(players, s.player)
		}
		r.game = squeak.NewGame(squeak.Config{
			PointsToWin: r.settings.PointsToWin,
			Seed:        r.settings.Seed,
		}, players)
		r.started = true
		r.startRound()
		r.broadcast(&GameStartedPayload{RoomID: r.ID, PlayerIDs: r.playerIDs(), Round: r.game.Round}, nil)
	})
	if cerr != nil {
		return cerr
	}
	return err
}

// startRound deals and tells every client to rebuild its view.
func (r *Room) startRound() {
	r.roundGen++
	r.game.StartRound()
	snap := BuildRoomSnapshot(r.ID, r.game)
	r.broadcast(&RoundStartedPayload{Round: r.game.Round}, snap)
	r.scheduleBots()
}

// HandleMove validates and applies a claimed move, broadcasting approval
// or whispering a denial back to the claimant.
func (r *Room) HandleMove(playerID string, req *MoveRequest) error {
	return r.call(func() {
		if !r.started {
			r.whisper(playerID, &CardDropDeniedPayload{PlayerID: playerID, Reason: ErrGameNotStarted.Error()}, nil)
			return
		}
		res, err := r.applyMove(playerID, req)
		if err != nil {
			r.whisper(playerID, &CardDropDeniedPayload{PlayerID: playerID, Reason: err.Error()}, nil)
			return
		}
		r.broadcast(approvedPayload(res), nil)
		if res.EmptiedStack >= 0 {
			r.scheduleRedraw(playerID, res.EmptiedStack)
		}
	})
}

func (r *Room) applyMove(playerID string, req *MoveRequest) (*squeak.MoveResult, error) {
	switch req.Kind {
	case "deckToBoard":
		if req.Card == nil {
			return nil, fmt.Errorf("move carries no card")
		}
		return r.game.PlayDeckToBoard(playerID, *req.Card, req.Row, req.Col)
	case "deckToStack":
		if req.Card == nil {
			return nil, fmt.Errorf("move carries no card")
		}
		return r.game.PlayDeckToStack(playerID, *req.Card, req.ToStack)
	case "stackToBoard":
		return r.game.PlayStackToBoard(playerID, req.FromStack, req.Row, req.Col)
	case "stackToStack":
		return r.game.PlayStackToStack(playerID, req.FromStack, req.ToStack)
	default:
		return nil, fmt.Errorf("unknown move kind %q", req.Kind)
	}
}

// HandleDraw advances the player's draw-pile window.
func (r *Room) HandleDraw(playerID string) error {
	return r.call(func() {
		if !r.started {
			return
		}
		out, err := r.game.Draw(playerID)
		if err != nil {
			r.whisper(playerID, &CardDropDeniedPayload{PlayerID: playerID, Reason: err.Error()}, nil)
			return
		}
		p, _ := r.game.Player(playerID)
		r.log.Tracef("Player %s drew in room %s; window now %s", playerID, r.ID, utils.FormatCards(out.Exposed))
		r.broadcast(&CardDrawnPayload{
			PlayerID:      playerID,
			Exposed:       out.Exposed,
			Reset:         out.Reset,
			DrawPileCount: len(p.DrawPile),
		}, nil)
	})
}

// HandleRedraw refills an empty squeak stack slot from the reserve. When
// the reserve runs dry the player has squeaked and the round is scored.
func (r *Room) HandleRedraw(playerID string, stackIdx int) error {
	return r.call(func() {
		if !r.started {
			return
		}
		r.redraw(playerID, stackIdx)
	})
}

func (r *Room) redraw(playerID string, stackIdx int) {
	res, err := r.game.DrawFromSqueakDeck(playerID, stackIdx)
	if err != nil {
		r.whisper(playerID, &CardDropDeniedPayload{PlayerID: playerID, Reason: err.Error()}, nil)
		return
	}
	p, _ := r.game.Player(playerID)
	r.broadcast(&StackRefilledPayload{
		PlayerID:        playerID,
		Card:            res.Card,
		StackIdx:        res.StackIdx,
		SqueakDeckCount: len(p.SqueakDeck),
	}, nil)
	if res.SqueakDeckEmpty {
		r.endRound(playerID)
	}
}

// HandleVote records a ballot, resolving the vote's action when the last
// ballot lands.
func (r *Room) HandleVote(playerID string, category squeak.VoteCategory, agree bool) error {
	return r.call(func() {
		if !r.started {
			return
		}
		opened := false
		if _, inProgress := r.game.VoteInProgress(); !inProgress {
			opened = true
		}
		tally, err := r.game.CastVote(playerID, category, agree)
		if err != nil {
			r.whisper(playerID, &CardDropDeniedPayload{PlayerID: playerID, Reason: err.Error()}, nil)
			return
		}
		r.broadcast(votePayload(tally), nil)

		if tally.Finished {
			r.resolveVote(category, tally.Passed)
			return
		}
		if opened {
			r.armVoteTimer()
		}
	})
}

// armVoteTimer abandons a vote whose ballots never complete, so one
// absent player cannot wedge the coordinator.
func (r *Room) armVoteTimer() {
	if r.voteTimer != nil {
		r.voteTimer.Stop()
	}
	gen := r.roundGen
	r.voteTimer = time.AfterFunc(r.settings.VoteTimeout, func() {
		r.do(func() {
			if r.roundGen != gen || !r.started {
				return
			}
			if _, inProgress := r.game.VoteInProgress(); !inProgress {
				return
			}
			r.log.Debugf("Vote in room %s timed out", r.ID)
			r.game.ClearVote()
		})
	})
}

func (r *Room) resolveVote(category squeak.VoteCategory, passed bool) {
	if r.voteTimer != nil {
		r.voteTimer.Stop()
		r.voteTimer = nil
	}
	r.game.ClearVote()
	if !passed {
		return
	}
	switch category {
	case squeak.VoteRotateDecks:
		r.game.MergeWindowsAndRotate()
		r.broadcast(&DecksRotatedPayload{Trigger: "vote"}, BuildRoomSnapshot(r.ID, r.game))
	case squeak.VoteEndRound:
		r.endRound("")
	}
}

// HandleSyncReport reconciles a client digest against authoritative
// state, whispering back the full snapshot when the client drifted.
func (r *Room) HandleSyncReport(report *ClientStateReport) error {
	return r.call(func() {
		if !r.started {
			return
		}
		if snap := r.Reconcile(report); snap != nil {
			r.whisper(report.PlayerID, &SyncStatePayload{Snapshot: snap}, nil)
		}
	})
}

// Snapshot returns the current public view. Used by reconnects and tests.
func (r *Room) Snapshot() (*RoomSnapshot, error) {
	var snap *RoomSnapshot
	err := r.call(func() {
		if r.started {
			snap = BuildRoomSnapshot(r.ID, r.game)
		}
	})
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, ErrGameNotStarted
	}
	return snap, nil
}

// stuckTick runs the stuck-game detector on the actor.
func (r *Room) stuckTick() {
	if !r.started || r.over {
		return
	}
	switch r.game.StuckTick() {
	case squeak.StuckRotated:
		r.log.Infof("Room %s stuck; rotated all draw piles", r.ID)
		r.broadcast(&DecksRotatedPayload{Trigger: "stuck"}, BuildRoomSnapshot(r.ID, r.game))
	case squeak.StuckForcedReset:
		r.log.Warnf("Room %s stuck beyond the rotation cap; forcing round end", r.ID)
		r.endRound("")
	}
}

// scheduleBots arms a turn timer for every seated bot.
func (r *Room) scheduleBots() {
	for _, s := range r.seats {
		if s.player.IsBot {
			r.scheduleBot(s.player.ID, s.player.Difficulty.CooldownDelay())
		}
	}
}

// scheduleBot arms one bot's next turn. The generation check drops timers
// that outlive their round.
func (r *Room) scheduleBot(botID string, delay time.Duration) {
	if t, ok := r.botTimers[botID]; ok {
		t.Stop()
	}
	gen := r.roundGen
	r.botTimers[botID] = time.AfterFunc(delay, func() {
		r.do(func() {
			if r.roundGen != gen || !r.started || r.over || r.game.Frozen() {
				return
			}
			r.botTurn(botID)
		})
	})
}

// botTurn plays one bot action through the same handlers as human moves.
func (r *Room) botTurn(botID string) {
	p, ok := r.game.Player(botID)
	if !ok {
		return
	}
	delay := p.Difficulty.CooldownDelay()

	act, err := r.game.BotAct(botID)
	if err != nil {
		r.log.Errorf("Bot %s turn failed: %v", botID, err)
		return
	}
	switch {
	case act.Squeaked:
		r.endRound(botID)
		return
	case act.Move != nil:
		r.broadcast(approvedPayload(act.Move), nil)
		if act.Move.EmptiedStack >= 0 {
			r.scheduleRedraw(botID, act.Move.EmptiedStack)
		}
	case act.Draw != nil:
		r.broadcast(&CardDrawnPayload{
			PlayerID:      botID,
			Exposed:       act.Draw.Exposed,
			Reset:         act.Draw.Reset,
			DrawPileCount: len(p.DrawPile),
		}, nil)
	}
	r.scheduleBot(botID, delay)
}

// scheduleRedraw refills an emptied stack slot after the redraw delay,
// ending the round if that empties the reserve. Armed for bots and
// humans alike; when the client's own redraw message already refilled
// the slot, the timer finds it occupied and stands down.
func (r *Room) scheduleRedraw(playerID string, stackIdx int) {
	gen := r.roundGen
	time.AfterFunc(r.settings.RedrawDelay, func() {
		r.do(func() {
			if r.roundGen != gen || !r.started || r.over || r.game.Frozen() {
				return
			}
			if p, ok := r.game.Player(playerID); !ok || len(p.SqueakStacks[stackIdx]) > 0 {
				return
			}
			r.redraw(playerID, stackIdx)
		})
	})
}

// endRound freezes, scores, persists and either finishes the game or
// schedules the next deal.
func (r *Room) endRound(squeakerID string) {
	r.cancelTimers()
	res := r.game.ScoreRound(squeakerID)
	r.broadcast(scoreboardPayload(res), BuildRoomSnapshot(r.ID, r.game))

	// Persistence is fire-and-forget; a slow disk never blocks play.
	records := make([]*RoundRecord, 0, len(res.Stats))
	for _, st := range res.Stats {
		records = append(records, &RoundRecord{
			RoomID:   r.ID,
			Round:    res.Round,
			PlayerID: st.PlayerID,
			Points:   int64(st.RoundPoints),
			Squeaked: st.PlayerID == squeakerID && squeakerID != "",
			Rank:     st.Rank,
			WonGame:  res.GameOver && st.PlayerID == res.WinnerID,
		})
	}
	r.server.recordRoundAsync(r.ID, records)

	if res.GameOver {
		r.over = true
		r.broadcast(&GameEndedPayload{WinnerID: res.WinnerID}, nil)
		return
	}

	gen := r.roundGen
	time.AfterFunc(r.settings.NextRoundDelay, func() {
		r.do(func() {
			if r.roundGen != gen || r.over {
				return
			}
			r.startRound()
		})
	})
}
