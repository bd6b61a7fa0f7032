package game

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseFEN reads a position in Forsyth-Edwards Notation. The move counters
// are optional and default to 0 and 1.
func ParseFEN(fen string) (GameState, error) {
	fields := strings.Fields(fen)
	if len(fields) < 4 {
		return GameState{}, wrapInvalid("fen %q: want at least 4 fields", fen)
	}

	var st GameState
	rows := strings.Split(fields[0], "/")
	if len(rows) != 8 {
		return GameState{}, wrapInvalid("fen %q: want 8 rows, got %d", fen, len(rows))
	}
	for rank, row := range rows {
		file := 0
		for _, ch := range row {
			if ch >= '1' && ch <= '8' {
				file += int(ch - '0')
				continue
			}
			pc, ok := ParsePiece(string(ch))
			if !ok || file > 7 {
				return GameState{}, wrapInvalid("fen %q: bad row %q", fen, row)
			}
			sq, _ := SquareFromCoords(rank, file)
			st.Board.Place(sq, pc)
			file++
		}
		if file != 8 {
			return GameState{}, wrapInvalid("fen %q: row %q has %d files", fen, row, file)
		}
	}

	switch fields[1] {
	case "w":
		st.Turn = White
	case "b":
		st.Turn = Black
	default:
		return GameState{}, wrapInvalid("fen %q: bad side %q", fen, fields[1])
	}

	cr, err := ParseCastlingRights(fields[2])
	if err != nil {
		return GameState{}, wrapInvalid("fen %q: %v", fen, err)
	}
	st.Castling = cr

	ep, err := ParseEnPassantTarget(fields[3])
	if err != nil {
		return GameState{}, wrapInvalid("fen %q: %v", fen, err)
	}
	st.EnPassant = ep

	st.Fullmove = 1
	counters := []*int{&st.HalfmoveClock, &st.Fullmove}
	for i, f := range fields[4:] {
		n, err := strconv.Atoi(f)
		if err != nil || i >= len(counters) {
			return GameState{}, wrapInvalid("fen %q: bad counter %q", fen, f)
		}
		*counters[i] = n
	}

	if err := st.validate(); err != nil {
		return GameState{}, err
	}
	st.Outcome = st.evaluate()
	return st, nil
}

// FEN renders the position with its move counters.
func (s *GameState) FEN() string {
	var sb strings.Builder
	for rank := 0; rank < 8; rank++ {
		if rank > 0 {
			sb.WriteByte('/')
		}
		empty := 0
		for file := 0; file < 8; file++ {
			sq, _ := SquareFromCoords(rank, file)
			pc, ok := s.Board.PieceAt(sq)
			if !ok {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			sb.WriteString(pc.String())
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
	}
	side := "w"
	if s.Turn == Black {
		side = "b"
	}
	fmt.Fprintf(&sb, " %s %s %s %d %d", side, s.Castling, s.EnPassant, s.HalfmoveClock, s.Fullmove)
	return sb.String()
}

// NewEngineFromFEN starts a game at the given position. The FEN is kept as
// the game's origin so the move log can be replayed from it.
func NewEngineFromFEN(fen string, opts ...Option) (*Engine, error) {
	st, err := ParseFEN(fen)
	if err != nil {
		return nil, err
	}
	st.Origin = strings.Join(strings.Fields(fen), " ")
	return NewEngineFromState(st, opts...)
}

func (e *Engine) FEN() string { return e.state.FEN() }
