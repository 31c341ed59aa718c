package server

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/squeakgame/squeak/pkg/server/internal/db"
)

// PlayerStats and RoundRecord are aliased here so Database
// implementations and fakes can live outside this package.
type (
	PlayerStats = db.PlayerStats
	RoundRecord = db.RoundRecord
)

// Database defines the interface for database operations
type Database interface {
	// UpsertPlayer creates or renames a player row
	UpsertPlayer(playerID, name string) error
	// GetPlayerStats returns a player's aggregate scoreboard line
	GetPlayerStats(playerID string) (*PlayerStats, error)

	// RecordRound atomically persists every player's line of a finished
	// round and updates the aggregates
	RecordRound(records []*RoundRecord) error

	// TopPlayers returns the global scoreboard, best first
	TopPlayers(limit int) ([]*PlayerStats, error)

	// Close closes the database connection
	Close() error
}

// NewDatabase creates a new database connection
func NewDatabase(dbPath string) (Database, error) {
	// Ensure the directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %v", err)
	}

	// Create the database
	return db.NewDB(dbPath)
}
