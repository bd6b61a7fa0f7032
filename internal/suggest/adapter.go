package suggest

import (
	"context"
	"fmt"
	"log"
	"sync"

	"chessx/internal/game"
)

// Position is the part of a game the adapter reads. *game.Engine satisfies
// it.
type Position interface {
	Origin() string
	MoveLog() []game.Move
	LegalMoves() []game.Move
	IsCapture(game.Move) bool
}

// Suggestion is a validated move. Fallback is set when the external engine's
// answer was unusable and the local policy chose instead.
type Suggestion struct {
	Move     game.Move
	Fallback bool
}

// Adapter keeps an external engine in step with a local game. The engine is
// fed incrementally while the local log only grows; any rewind forces a full
// replay into a fresh engine game.
type Adapter struct {
	mu     sync.Mutex
	engine Engine
	synced bool
	origin string
	seen   []game.Move
}

func NewAdapter(engine Engine) *Adapter {
	return &Adapter{engine: engine}
}

// Invalidate forces a full replay on the next request. Call it after undo,
// redo, reset or adopting a remote game.
func (a *Adapter) Invalidate() {
	a.mu.Lock()
	a.synced = false
	a.mu.Unlock()
}

// Suggest returns a legal move for the side to move in pos. Engine failures
// never surface as errors; only a position without legal moves or a
// cancelled context does.
func (a *Adapter) Suggest(ctx context.Context, pos Position, level int) (Suggestion, error) {
	legal := pos.LegalMoves()
	if len(legal) == 0 {
		return Suggestion{}, ErrNoLegalMoves
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	m, err := a.ask(ctx, pos, legal, level)
	if err == nil {
		return Suggestion{Move: m}, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Suggestion{}, ctxErr
	}
	log.Printf("suggest: %v", err)
	return Suggestion{Move: fallback(pos, legal), Fallback: true}, nil
}

func (a *Adapter) ask(ctx context.Context, pos Position, legal []game.Move, level int) (game.Move, error) {
	if err := a.sync(ctx, pos); err != nil {
		a.synced = false
		return game.Move{}, fmt.Errorf("%w: replay: %v", ErrEngineDesync, err)
	}
	lan, err := a.engine.BestMove(ctx, level)
	if err != nil {
		a.synced = false
		return game.Move{}, fmt.Errorf("%w: best move: %v", ErrEngineDesync, err)
	}
	m, err := game.ParseMove(lan)
	if err != nil {
		return game.Move{}, fmt.Errorf("%w: %v", ErrEngineDesync, err)
	}
	resolved, ok := matchLegal(m, legal)
	if !ok {
		return game.Move{}, fmt.Errorf("%w: engine suggested illegal move %s", ErrEngineDesync, lan)
	}
	return resolved, nil
}

// sync brings the engine to the position at the end of pos's move log.
func (a *Adapter) sync(ctx context.Context, pos Position) error {
	moves := pos.MoveLog()
	origin := pos.Origin()

	if a.synced && origin == a.origin && extends(moves, a.seen) {
		if err := a.engine.Play(ctx, lanList(moves[len(a.seen):])...); err != nil {
			return err
		}
		a.seen = moves
		return nil
	}

	if err := a.engine.NewGame(ctx, origin); err != nil {
		return err
	}
	if err := a.engine.Play(ctx, lanList(moves)...); err != nil {
		return err
	}
	a.origin = origin
	a.seen = moves
	a.synced = true
	return nil
}

func extends(moves, prefix []game.Move) bool {
	if len(prefix) > len(moves) {
		return false
	}
	for i := range prefix {
		if moves[i] != prefix[i] {
			return false
		}
	}
	return true
}

func lanList(moves []game.Move) []string {
	out := make([]string, len(moves))
	for i, m := range moves {
		out[i] = m.String()
	}
	return out
}

// matchLegal finds m among the legal moves. A promotion without a piece
// letter is read as a queen.
func matchLegal(m game.Move, legal []game.Move) (game.Move, bool) {
	if m.Promotion == game.NoPiece {
		for _, lm := range legal {
			if lm.From == m.From && lm.To == m.To && (lm.Promotion == game.NoPiece || lm.Promotion == game.Queen) {
				return lm, true
			}
		}
		return game.Move{}, false
	}
	for _, lm := range legal {
		if lm == m {
			return lm, true
		}
	}
	return game.Move{}, false
}

// fallback picks the first capturing move, else the first legal move.
func fallback(pos Position, legal []game.Move) game.Move {
	for _, m := range legal {
		if pos.IsCapture(m) {
			return m
		}
	}
	return legal[0]
}
