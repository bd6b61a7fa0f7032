package game

// GameState is the complete position plus the bookkeeping needed to continue
// a game from it.
type GameState struct {
	Board       Board
	Turn        Color
	Castling    CastlingRights
	EnPassant   EnPassantTarget
	LastMove    Move
	HasLastMove bool
	Outcome     Outcome
	MoveLog     []Move
	// Captured lists the piece types taken by each side, indexed by the
	// capturing color.
	Captured [2][]PieceType
	// Origin is the FEN the game started from; empty means the standard
	// starting position.
	Origin string
	// HalfmoveClock counts plies since the last capture or pawn move.
	HalfmoveClock int
	// Fullmove starts at 1 and grows after each Black move.
	Fullmove int
}

// NewGameState returns the standard starting position with White to move.
func NewGameState() GameState {
	s := GameState{
		Board:     StandardBoard(),
		Turn:      White,
		Castling:  CastlingAll,
		EnPassant: NoEnPassantTarget(),
		Fullmove:  1,
	}
	s.Outcome = s.evaluate()
	return s
}

// Clone returns a deep copy sharing no mutable structure with s.
func (s *GameState) Clone() GameState {
	out := *s
	out.MoveLog = append([]Move(nil), s.MoveLog...)
	for i := range s.Captured {
		out.Captured[i] = append([]PieceType(nil), s.Captured[i]...)
	}
	return out
}

func (s *GameState) InCheck(color Color) bool { return s.Board.InCheck(color) }

// evaluate classifies the position for the side to move.
func (s *GameState) evaluate() Outcome {
	current := s.Turn
	inCheck := s.InCheck(current)
	hasMove := s.SideHasAnyLegalMove(current)

	switch {
	case !hasMove && inCheck:
		return Outcome{Status: StatusCheckmate, HasWinner: true, Winner: current.Opposite()}
	case !hasMove:
		return Outcome{Status: StatusStalemate}
	case inCheck:
		return Outcome{Status: StatusCheck}
	default:
		return Outcome{Status: StatusInProgress}
	}
}

// CheckedKing returns the square of the side-to-move's king when it is in
// check, for highlighting.
func (s *GameState) CheckedKing() (Square, bool) {
	if s.Outcome.Status != StatusCheck && s.Outcome.Status != StatusCheckmate {
		return 0, false
	}
	return s.Board.KingSquare(s.Turn)
}

// validate checks the structural invariants a position must hold regardless
// of how it was reached.
func (s *GameState) validate() error {
	for _, color := range []Color{White, Black} {
		if n := s.Board.Count(color, King); n != 1 {
			return wrapInvalid("%s has %d kings", color, n)
		}
	}
	if s.HalfmoveClock < 0 || s.Fullmove < 1 {
		return wrapInvalid("move counters %d/%d out of range", s.HalfmoveClock, s.Fullmove)
	}
	if s.Turn != White && s.Turn != Black {
		return wrapInvalid("invalid side to move %d", s.Turn)
	}
	if sq, ok := s.EnPassant.Square(); ok {
		if want := s.Turn.Opposite().PawnRank() + s.Turn.Opposite().Forward(); sq.Rank() != want {
			return wrapInvalid("en-passant target %s is not behind a double push", sq)
		}
	}
	return nil
}
