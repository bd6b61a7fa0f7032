// Package suggest asks an external chess engine for moves and checks its
// answers against the local rules before anyone trusts them.
package suggest

import (
	"context"
	"errors"
)

var (
	// ErrEngineDesync marks a suggestion that could not be obtained or did
	// not validate. It is logged and answered with a fallback move.
	ErrEngineDesync = errors.New("external engine desync")
	ErrNoLegalMoves = errors.New("no legal moves")
	ErrEngineExited = errors.New("engine process exited")
)

// Engine is an external move source that names squares in long algebraic
// notation ("e2e4", "e7e8q").
type Engine interface {
	// NewGame discards all engine state and starts from fen, or from the
	// standard position when fen is empty.
	NewGame(ctx context.Context, fen string) error
	// Play appends moves to the engine's current game.
	Play(ctx context.Context, moves ...string) error
	// BestMove asks for a move at the given strength level.
	BestMove(ctx context.Context, level int) (string, error)
	Close() error
}
