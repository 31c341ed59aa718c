package squeak

import "errors"

// Engine errors. Invalid moves are expected and frequent, so callers log
// them at trace level and answer with a denial event rather than treating
// them as failures.
var (
	ErrPlayerNotFound = errors.New("squeak: player not found")
	ErrInvalidMove    = errors.New("squeak: move failed validation")
	ErrRoundFrozen    = errors.New("squeak: round is frozen for scoring")
	ErrNotPlayable    = errors.New("squeak: card is not currently playable")
	ErrStackEmpty     = errors.New("squeak: squeak stack is empty")
	ErrStackOccupied  = errors.New("squeak: squeak stack is not empty")
	ErrSqueakDeckDry  = errors.New("squeak: squeak deck has no cards left")
	ErrVoteConflict   = errors.New("squeak: a vote of a different category is in progress")
	ErrVoteFinished   = errors.New("squeak: vote already resolved")
	ErrNotSeated      = errors.New("squeak: player is not seated in this round")
)
