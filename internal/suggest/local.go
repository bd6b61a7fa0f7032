package suggest

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/notnil/chess"
)

var pieceValue = map[chess.PieceType]int{
	chess.Pawn:   1,
	chess.Knight: 3,
	chess.Bishop: 3,
	chess.Rook:   5,
	chess.Queen:  9,
}

// LocalEngine is an in-process Engine backed by github.com/notnil/chess.
// Level 1 and below plays a random legal move; higher levels prefer checks,
// then the most valuable capture.
type LocalEngine struct {
	mu   sync.Mutex
	game *chess.Game
	rng  *rand.Rand
}

func NewLocalEngine(seed int64) *LocalEngine {
	return &LocalEngine{
		game: chess.NewGame(),
		rng:  rand.New(rand.NewSource(seed)),
	}
}

func (e *LocalEngine) NewGame(_ context.Context, fen string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if fen == "" {
		e.game = chess.NewGame()
		return nil
	}
	opt, err := chess.FEN(padFEN(fen))
	if err != nil {
		return fmt.Errorf("local engine: %w", err)
	}
	e.game = chess.NewGame(opt)
	return nil
}

func (e *LocalEngine) Play(_ context.Context, moves ...string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, lan := range moves {
		m, err := chess.UCINotation{}.Decode(e.game.Position(), lan)
		if err != nil {
			return fmt.Errorf("local engine: decode %s: %w", lan, err)
		}
		if err := e.game.Move(m); err != nil {
			return fmt.Errorf("local engine: play %s: %w", lan, err)
		}
	}
	return nil
}

func (e *LocalEngine) BestMove(_ context.Context, level int) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	moves := e.game.ValidMoves()
	if len(moves) == 0 {
		return "", errors.New("local engine: no valid moves")
	}
	pos := e.game.Position()

	best := moves[0]
	if level <= 1 {
		best = moves[e.rng.Intn(len(moves))]
	} else {
		bestScore := -1
		for _, m := range moves {
			if s := scoreMove(pos, m); s > bestScore {
				best, bestScore = m, s
			}
		}
	}
	return chess.UCINotation{}.Encode(pos, best), nil
}

func (e *LocalEngine) Close() error { return nil }

func scoreMove(pos *chess.Position, m *chess.Move) int {
	score := 0
	if m.HasTag(chess.Check) {
		score += 100
	}
	switch {
	case m.HasTag(chess.EnPassant):
		score += pieceValue[chess.Pawn]
	case m.HasTag(chess.Capture):
		score += pieceValue[pos.Board().Piece(m.S2()).Type()]
	}
	return score
}

// padFEN adds the move counters notnil/chess requires when they are absent.
func padFEN(fen string) string {
	fields := strings.Fields(fen)
	switch len(fields) {
	case 4:
		fields = append(fields, "0", "1")
	case 5:
		fields = append(fields, "1")
	}
	return strings.Join(fields, " ")
}
