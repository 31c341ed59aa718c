package db

import (
	"database/sql"
	"fmt"
)

// DB represents the database connection
type DB struct {
	*sql.DB
}

// PlayerStats is one player's aggregate line of the persistent scoreboard.
type PlayerStats struct {
	PlayerID     string
	Name         string
	GamesWon     int64
	RoundsPlayed int64
	Squeaks      int64
	TotalPoints  int64
}

// RoundRecord is one player's line of a finished round, persisted for the
// scoreboard history.
type RoundRecord struct {
	RoomID   string
	Round    int
	PlayerID string
	Points   int64
	Squeaked bool
	Rank     int
	WonGame  bool
}

// NewDB creates a new database connection
func NewDB(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Create tables if they don't exist
	if err := createTables(db); err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// createTables creates the necessary database tables
func createTables(db *sql.DB) error {
	// Create players table
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS players (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			games_won INTEGER NOT NULL DEFAULT 0,
			rounds_played INTEGER NOT NULL DEFAULT 0,
			squeaks INTEGER NOT NULL DEFAULT 0,
			total_points INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return err
	}

	// Create rounds table
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS rounds (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			room_id TEXT NOT NULL,
			round INTEGER NOT NULL,
			player_id TEXT NOT NULL,
			points INTEGER NOT NULL,
			squeaked INTEGER NOT NULL DEFAULT 0,
			rank INTEGER NOT NULL,
			won_game INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (player_id) REFERENCES players(id)
		)
	`)
	if err != nil {
		return err
	}

	return nil
}

// UpsertPlayer creates the player row if missing and refreshes the name.
func (db *DB) UpsertPlayer(playerID, name string) error {
	_, err := db.Exec(`
		INSERT INTO players (id, name)
		VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET name = ?
	`, playerID, name, name)
	return err
}

// GetPlayerStats returns a player's aggregate scoreboard line.
func (db *DB) GetPlayerStats(playerID string) (*PlayerStats, error) {
	stats := &PlayerStats{PlayerID: playerID}
	err := db.QueryRow(`
		SELECT name, games_won, rounds_played, squeaks, total_points
		FROM players WHERE id = ?
	`, playerID).Scan(&stats.Name, &stats.GamesWon, &stats.RoundsPlayed, &stats.Squeaks, &stats.TotalPoints)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("player not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player stats: %v", err)
	}
	return stats, nil
}

// RecordRound persists every player's line of a finished round and folds
// the deltas into the aggregate player rows, in one transaction.
func (db *DB) RecordRound(records []*RoundRecord) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, rec := range records {
		_, err = tx.Exec(`
			INSERT INTO rounds (room_id, round, player_id, points, squeaked, rank, won_game)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, rec.RoomID, rec.Round, rec.PlayerID, rec.Points, rec.Squeaked, rec.Rank, rec.WonGame)
		if err != nil {
			return err
		}

		squeaked := 0
		if rec.Squeaked {
			squeaked = 1
		}
		won := 0
		if rec.WonGame {
			won = 1
		}
		_, err = tx.Exec(`
			INSERT INTO players (id, name, rounds_played, squeaks, total_points, games_won)
			VALUES (?, ?, 1, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				rounds_played = rounds_played + 1,
				squeaks = squeaks + ?,
				total_points = total_points + ?,
				games_won = games_won + ?
		`, rec.PlayerID, rec.PlayerID, squeaked, rec.Points, won, squeaked, rec.Points, won)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// TopPlayers returns the scoreboard ordered by total points descending.
func (db *DB) TopPlayers(limit int) ([]*PlayerStats, error) {
	rows, err := db.Query(`
		SELECT id, name, games_won, rounds_played, squeaks, total_points
		FROM players
		ORDER BY total_points DESC, games_won DESC, id ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query scoreboard: %v", err)
	}
	defer rows.Close()

	var out []*PlayerStats
	for rows.Next() {
		stats := &PlayerStats{}
		if err := rows.Scan(&stats.PlayerID, &stats.Name, &stats.GamesWon,
			&stats.RoundsPlayed, &stats.Squeaks, &stats.TotalPoints); err != nil {
			return nil, err
		}
		out = append(out, stats)
	}
	return out, rows.Err()
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}
