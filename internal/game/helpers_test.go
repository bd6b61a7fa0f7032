package game

import "testing"

func mustSquare(t *testing.T, coord string) Square {
	t.Helper()
	sq, ok := CoordToSquare(coord)
	if !ok {
		t.Fatalf("invalid square %q", coord)
	}
	return sq
}

func mustMove(t *testing.T, lan string) Move {
	t.Helper()
	m, err := ParseMove(lan)
	if err != nil {
		t.Fatalf("parse move %q: %v", lan, err)
	}
	return m
}

func mustFEN(t *testing.T, fen string, opts ...Option) *Engine {
	t.Helper()
	eng, err := NewEngineFromFEN(fen, opts...)
	if err != nil {
		t.Fatalf("load fen %q: %v", fen, err)
	}
	return eng
}

// play applies each move and fails the test on the first rejection.
func play(t *testing.T, eng *Engine, moves ...string) Result {
	t.Helper()
	var res Result
	for _, lan := range moves {
		var err error
		res, err = eng.Move(mustMove(t, lan))
		if err != nil {
			t.Fatalf("move %s: %v", lan, err)
		}
	}
	return res
}

// clearBoard returns a state with only the two kings on the given squares.
func clearBoard(t *testing.T, whiteKing, blackKing string) GameState {
	t.Helper()
	var st GameState
	st.Board.Place(mustSquare(t, whiteKing), Piece{Color: White, Type: King})
	st.Board.Place(mustSquare(t, blackKing), Piece{Color: Black, Type: King})
	st.Turn = White
	return st
}

func targetSet(squares []Square) map[string]bool {
	out := make(map[string]bool, len(squares))
	for _, sq := range squares {
		out[sq.String()] = true
	}
	return out
}
