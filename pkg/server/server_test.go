package server

import (
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vctt94/bisonbotkit/logging"

	"github.com/squeakgame/squeak/pkg/squeak"
)

// InMemoryDB implements Database interface for testing
type InMemoryDB struct {
	mu      sync.RWMutex
	players map[string]*PlayerStats
	rounds  []*RoundRecord
}

// NewInMemoryDB creates a new in-memory database for testing
func NewInMemoryDB() *InMemoryDB {
	return &InMemoryDB{
		players: make(map[string]*PlayerStats),
	}
}

func (m *InMemoryDB) UpsertPlayer(playerID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if stats, ok := m.players[playerID]; ok {
		stats.Name = name
		return nil
	}
	m.players[playerID] = &PlayerStats{PlayerID: playerID, Name: name}
	return nil
}

func (m *InMemoryDB) GetPlayerStats(playerID string) (*PlayerStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats, ok := m.players[playerID]
	if !ok {
		return nil, fmt.Errorf("player not found")
	}
	c := *stats
	return &c, nil
}

func (m *InMemoryDB) RecordRound(records []*RoundRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range records {
		m.rounds = append(m.rounds, rec)
		stats, ok := m.players[rec.PlayerID]
		if !ok {
			stats = &PlayerStats{PlayerID: rec.PlayerID, Name: rec.PlayerID}
			m.players[rec.PlayerID] = stats
		}
		stats.RoundsPlayed++
		stats.TotalPoints += rec.Points
		if rec.Squeaked {
			stats.Squeaks++
		}
		if rec.WonGame {
			stats.GamesWon++
		}
	}
	return nil
}

func (m *InMemoryDB) TopPlayers(limit int) ([]*PlayerStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*PlayerStats, 0, len(m.players))
	for _, stats := range m.players {
		c := *stats
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TotalPoints > out[j].TotalPoints })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *InMemoryDB) Close() error { return nil }

func (m *InMemoryDB) roundCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rounds)
}

// testSubscriber buffers delivered events for assertions.
type testSubscriber struct {
	events chan *GameEvent
}

func newTestSubscriber() *testSubscriber {
	return &testSubscriber{events: make(chan *GameEvent, 128)}
}

func (ts *testSubscriber) DeliverEvent(event *GameEvent) {
	select {
	case ts.events <- event:
	default:
	}
}

// waitEvent blocks until an event of the wanted type arrives, discarding
// others along the way.
func (ts *testSubscriber) waitEvent(t *testing.T, want GameEventType) *GameEvent {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-ts.events:
			if ev.Type == want {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s event", want)
			return nil
		}
	}
}

func newTestServer(t *testing.T) (*Server, *InMemoryDB) {
	t.Helper()
	memDB := NewInMemoryDB()
	logBackend, err := logging.NewLogBackend(logging.LogConfig{DebugLevel: "error"})
	require.NoError(t, err)
	srv := NewServer(memDB, logBackend)
	t.Cleanup(srv.Stop)
	return srv, memDB
}

// quietSettings keeps background timers out of the test's way.
func quietSettings() RoomSettings {
	return RoomSettings{
		PointsToWin:    100,
		MaxPlayers:     4,
		Seed:           42,
		StuckInterval:  time.Hour,
		VoteTimeout:    time.Hour,
		NextRoundDelay: time.Hour,
	}
}

func TestCreateAndJoinRoom(t *testing.T) {
	srv, memDB := newTestServer(t)

	room, err := srv.CreateRoom("alice", "Alice", quietSettings())
	require.NoError(t, err)
	require.NotNil(t, room)
	assert.Len(t, room.ID, 6)

	got, err := srv.GetRoom(room.ID)
	require.NoError(t, err)
	assert.Same(t, room, got)

	_, err = srv.JoinRoom(room.ID, "bob", "Bob")
	require.NoError(t, err)

	// Joining twice is idempotent.
	_, err = srv.JoinRoom(room.ID, "bob", "Bob")
	require.NoError(t, err)

	_, err = srv.JoinRoom("ZZZZZZ", "cora", "Cora")
	assert.ErrorIs(t, err, ErrRoomNotFound)

	// Both players were registered for the scoreboard.
	stats, err := memDB.GetPlayerStats("bob")
	require.NoError(t, err)
	assert.Equal(t, "Bob", stats.Name)
}

func TestRoomRejectsPlayersWhenFull(t *testing.T) {
	srv, _ := newTestServer(t)

	settings := quietSettings()
	settings.MaxPlayers = 2
	room, err := srv.CreateRoom("alice", "Alice", settings)
	require.NoError(t, err)
	require.NoError(t, room.Join("bob", "Bob"))

	err = room.Join("cora", "Cora")
	assert.ErrorIs(t, err, ErrRoomFull)
}

func TestOnlyHostStartsTheGame(t *testing.T) {
	srv, _ := newTestServer(t)

	room, err := srv.CreateRoom("alice", "Alice", quietSettings())
	require.NoError(t, err)
	require.NoError(t, room.Join("bob", "Bob"))

	assert.ErrorIs(t, room.Start("bob"), ErrNotHost)
	require.NoError(t, room.Start("alice"))
	assert.ErrorIs(t, room.Start("alice"), ErrGameInProgress)
}

func TestStartDealsEveryPlayer(t *testing.T) {
	srv, _ := newTestServer(t)

	room, err := srv.CreateRoom("alice", "Alice", quietSettings())
	require.NoError(t, err)
	require.NoError(t, room.Join("bob", "Bob"))
	require.NoError(t, room.Start("alice"))

	snap, err := room.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Round)
	require.Len(t, snap.Players, 2)
	for _, ps := range snap.Players {
		assert.Equal(t, 13, ps.SqueakDeckCount)
		assert.Equal(t, 35, ps.DrawPileCount)
		for _, stack := range ps.SqueakStacks {
			assert.Len(t, stack, 1)
		}
	}
	for row := range snap.Board {
		for _, cell := range snap.Board[row] {
			assert.Nil(t, cell.Top)
			assert.Zero(t, cell.Count)
		}
	}
}

func TestJoinAfterStartIsRejected(t *testing.T) {
	srv, _ := newTestServer(t)

	room, err := srv.CreateRoom("alice", "Alice", quietSettings())
	require.NoError(t, err)
	require.NoError(t, room.Join("bob", "Bob"))
	require.NoError(t, room.Start("alice"))

	err = room.Join("late", "Latecomer")
	assert.ErrorIs(t, err, ErrGameInProgress)
}

func TestStartNeedsTwoPlayers(t *testing.T) {
	srv, _ := newTestServer(t)

	room, err := srv.CreateRoom("alice", "Alice", quietSettings())
	require.NoError(t, err)
	assert.ErrorIs(t, room.Start("alice"), ErrNotEnoughPlayers)
}

func TestMaxPlayersIsClamped(t *testing.T) {
	srv, _ := newTestServer(t)

	settings := quietSettings()
	settings.MaxPlayers = 100
	room, err := srv.CreateRoom("alice", "Alice", settings)
	require.NoError(t, err)
	for _, id := range []string{"bob", "cora", "dave", "erin"} {
		require.NoError(t, room.Join(id, id))
	}
	assert.ErrorIs(t, room.Join("frank", "Frank"), ErrRoomFull)

	settings.MaxPlayers = 1
	tiny, err := srv.CreateRoom("gail", "Gail", settings)
	require.NoError(t, err)
	require.NoError(t, tiny.Join("hank", "Hank"))
	assert.ErrorIs(t, tiny.Join("iris", "Iris"), ErrRoomFull)
}

func TestEmptyRoomIsTornDown(t *testing.T) {
	srv, _ := newTestServer(t)

	room, err := srv.CreateRoom("alice", "Alice", quietSettings())
	require.NoError(t, err)
	require.NoError(t, room.AddBot("Bot", squeak.BotEasy))

	// The last human walking out takes the room with them, bots and
	// all.
	require.NoError(t, room.Leave("alice"))
	require.Eventually(t, func() bool {
		_, err := srv.GetRoom(room.ID)
		return err != nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHostTransfersOnLeave(t *testing.T) {
	srv, _ := newTestServer(t)

	sub := newTestSubscriber()
	srv.Subscribe("bob", sub)

	room, err := srv.CreateRoom("alice", "Alice", quietSettings())
	require.NoError(t, err)
	require.NoError(t, room.Join("bob", "Bob"))
	require.NoError(t, room.Join("cora", "Cora"))

	require.NoError(t, room.Leave("alice"))
	assert.Equal(t, "bob", room.Host())

	ev := sub.waitEvent(t, GameEventTypePlayerLeft)
	assert.Equal(t, "bob", ev.Payload.(*PlayerLeftPayload).NewHostID)

	// The new host can start the game, the old one is gone.
	require.NoError(t, room.Start("bob"))
}

func TestUpdateSettingsIsHostOnly(t *testing.T) {
	srv, _ := newTestServer(t)

	room, err := srv.CreateRoom("alice", "Alice", quietSettings())
	require.NoError(t, err)
	require.NoError(t, room.Join("bob", "Bob"))

	assert.ErrorIs(t, room.UpdateSettings("bob", RoomSettings{MaxPlayers: 3}), ErrNotHost)

	require.NoError(t, room.UpdateSettings("alice", RoomSettings{MaxPlayers: 2}))
	assert.ErrorIs(t, room.Join("cora", "Cora"), ErrRoomFull)

	// The cap cannot cut under players already seated.
	require.NoError(t, room.UpdateSettings("alice", RoomSettings{MaxPlayers: 4}))
	require.NoError(t, room.Join("cora", "Cora"))
	assert.ErrorIs(t, room.UpdateSettings("alice", RoomSettings{MaxPlayers: 2}), ErrSeatsBelowCurrent)
}

func TestRemoveBotIsHostOnly(t *testing.T) {
	srv, _ := newTestServer(t)

	room, err := srv.CreateRoom("alice", "Alice", quietSettings())
	require.NoError(t, err)
	require.NoError(t, room.Join("bob", "Bob"))
	require.NoError(t, room.AddBot("Bot", squeak.BotMedium))
	botID := fmt.Sprintf("bot-%s-2", room.ID)

	assert.ErrorIs(t, room.RemoveBot("bob", botID), ErrNotHost)
	require.NoError(t, room.RemoveBot("alice", botID))
	assert.ErrorIs(t, room.RemoveBot("alice", botID), squeak.ErrPlayerNotFound)
	assert.Equal(t, 2, room.Info().PlayerCount)
}

func TestListRoomsShowsPublicRoomsOnly(t *testing.T) {
	srv, _ := newTestServer(t)

	open, err := srv.CreateRoom("alice", "Alice", quietSettings())
	require.NoError(t, err)

	hidden := quietSettings()
	hidden.Private = true
	_, err = srv.CreateRoom("bob", "Bob", hidden)
	require.NoError(t, err)

	rooms := srv.ListRooms()
	require.Len(t, rooms, 1)
	assert.Equal(t, open.ID, rooms[0].Code)
	assert.Equal(t, "alice", rooms[0].HostID)
	assert.Equal(t, 1, rooms[0].PlayerCount)
}

func TestCloseRoomStopsActor(t *testing.T) {
	srv, _ := newTestServer(t)

	room, err := srv.CreateRoom("alice", "Alice", quietSettings())
	require.NoError(t, err)
	code := room.ID

	srv.CloseRoom(code)
	_, err = srv.GetRoom(code)
	assert.ErrorIs(t, err, ErrRoomNotFound)
	assert.ErrorIs(t, room.Join("bob", "Bob"), ErrRoomClosed)
}
