package e2e

import (
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vctt94/bisonbotkit/logging"

	"github.com/squeakgame/squeak/pkg/server"
	"github.com/squeakgame/squeak/pkg/squeak"
)

// TestFullRoundOverSQLite drives a complete round through the public
// server API against a real SQLite database: create, join, start, vote
// the round to an end and check the persisted scoreboard.
func TestFullRoundOverSQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "squeak.sqlite")
	db, err := server.NewDatabase(dbPath)
	require.NoError(t, err)
	defer db.Close()

	logBackend, err := logging.NewLogBackend(logging.LogConfig{DebugLevel: "error"})
	require.NoError(t, err)

	srv := server.NewServer(db, logBackend)
	defer srv.Stop()

	room, err := srv.CreateRoom("alice", "Alice", server.RoomSettings{
		PointsToWin:    100,
		MaxPlayers:     4,
		Seed:           7,
		StuckInterval:  time.Hour,
		VoteTimeout:    time.Hour,
		NextRoundDelay: time.Hour,
	})
	require.NoError(t, err)

	_, err = srv.JoinRoom(room.ID, "bob", "Bob")
	require.NoError(t, err)
	require.NoError(t, room.Start("alice"))

	snap, err := room.Snapshot()
	require.NoError(t, err)
	require.Len(t, snap.Players, 2)

	// Both players agree to end the round.
	require.NoError(t, room.HandleVote("alice", squeak.VoteEndRound, true))
	require.NoError(t, room.HandleVote("bob", squeak.VoteEndRound, true))

	// The round freezes and the results land in SQLite.
	require.Eventually(t, func() bool {
		stats, err := db.GetPlayerStats("alice")
		return err == nil && stats.RoundsPlayed == 1
	}, 5*time.Second, 20*time.Millisecond)

	stats, err := db.GetPlayerStats("alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.RoundsPlayed)
	assert.Equal(t, int64(0), stats.Squeaks)
	// Nobody played a card before the vote; the full reserve is owed.
	assert.Equal(t, int64(-13), stats.TotalPoints)

	top, err := db.TopPlayers(10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	for _, line := range top {
		assert.Equal(t, int64(-13), line.TotalPoints)
	}

	snap, err = room.Snapshot()
	require.NoError(t, err)
	assert.True(t, snap.Frozen)
}
