package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/squeakgame/squeak/pkg/cards"
)

// FormatCards is a helper function for displaying cards in logs
func FormatCards(cs []cards.Card) string {
	if len(cs) == 0 {
		return "None"
	}

	result := ""
	for i, c := range cs {
		if i > 0 {
			result += " "
		}
		result += c.String()
	}

	return result
}

// EnsureDataDirExists creates the datadir and necessary subdirectories if they don't exist
func EnsureDataDirExists(datadir string) error {
	// Create main datadir
	if err := os.MkdirAll(datadir, 0700); err != nil {
		return fmt.Errorf("failed to create datadir %s: %v", datadir, err)
	}

	// Create logs subdirectory
	logsDir := filepath.Join(datadir, "logs")
	if err := os.MkdirAll(logsDir, 0700); err != nil {
		return fmt.Errorf("failed to create logs directory %s: %v", logsDir, err)
	}

	return nil
}
