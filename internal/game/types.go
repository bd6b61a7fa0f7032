package game

import (
	"fmt"
	"strings"

	"chessx/internal/shared"
)

type (
	Color     = shared.Color
	PieceType = shared.PieceType
	Square    = shared.Square
)

const (
	White = shared.White
	Black = shared.Black

	NoPiece = shared.NoPiece
	Pawn    = shared.Pawn
	Knight  = shared.Knight
	Bishop  = shared.Bishop
	Rook    = shared.Rook
	Queen   = shared.Queen
	King    = shared.King
)

func CoordToSquare(coord string) (Square, bool) { return shared.CoordToSquare(coord) }

func SquareFromCoords(rank, file int) (Square, bool) { return shared.SquareFromCoords(rank, file) }

func ParsePromotionPiece(s string) (PieceType, bool) { return shared.ParsePromotionPiece(s) }

// Piece is a colored piece; the zero value is an empty square.
type Piece struct {
	Color Color
	Type  PieceType
}

func (p Piece) Empty() bool { return p.Type == NoPiece }

// String returns the FEN letter: upper case for White, "" when empty.
func (p Piece) String() string {
	if p.Empty() {
		return ""
	}
	s := p.Type.String()
	if p.Color == Black {
		return strings.ToLower(s)
	}
	return s
}

func ParsePiece(s string) (Piece, bool) {
	if len(s) != 1 {
		return Piece{}, false
	}
	pt, ok := shared.ParsePieceType(s)
	if !ok {
		return Piece{}, false
	}
	color := White
	if s == strings.ToLower(s) {
		color = Black
	}
	return Piece{Color: color, Type: pt}, true
}

type CastlingRights uint8

const (
	CastlingNone          CastlingRights = 0
	CastlingWhiteKingside CastlingRights = 1 << iota
	CastlingWhiteQueenside
	CastlingBlackKingside
	CastlingBlackQueenside
	CastlingAll = CastlingWhiteKingside | CastlingWhiteQueenside | CastlingBlackKingside | CastlingBlackQueenside
)

type CastlingSide uint8

const (
	CastleKingside CastlingSide = iota
	CastleQueenside
)

func (cs CastlingSide) String() string {
	switch cs {
	case CastleKingside:
		return "kingside"
	case CastleQueenside:
		return "queenside"
	default:
		return "?"
	}
}

func CastlingRight(color Color, side CastlingSide) CastlingRights {
	switch color {
	case White:
		if side == CastleQueenside {
			return CastlingWhiteQueenside
		}
		return CastlingWhiteKingside
	case Black:
		if side == CastleQueenside {
			return CastlingBlackQueenside
		}
		return CastlingBlackKingside
	default:
		return CastlingNone
	}
}

func CastlingRightsForColor(color Color) CastlingRights {
	switch color {
	case White:
		return CastlingWhiteKingside | CastlingWhiteQueenside
	case Black:
		return CastlingBlackKingside | CastlingBlackQueenside
	default:
		return CastlingNone
	}
}

func (cr CastlingRights) Has(right CastlingRights) bool { return cr&right != 0 }

func (cr CastlingRights) HasSide(color Color, side CastlingSide) bool {
	return cr.Has(CastlingRight(color, side))
}

func (cr CastlingRights) Without(right CastlingRights) CastlingRights { return cr &^ right }

func (cr CastlingRights) WithoutColor(color Color) CastlingRights {
	return cr.Without(CastlingRightsForColor(color))
}

func (cr CastlingRights) String() string {
	if cr == CastlingNone {
		return "-"
	}
	var b strings.Builder
	if cr.Has(CastlingWhiteKingside) {
		b.WriteByte('K')
	}
	if cr.Has(CastlingWhiteQueenside) {
		b.WriteByte('Q')
	}
	if cr.Has(CastlingBlackKingside) {
		b.WriteByte('k')
	}
	if cr.Has(CastlingBlackQueenside) {
		b.WriteByte('q')
	}
	return b.String()
}

func ParseCastlingRights(s string) (CastlingRights, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" || trimmed == "-" {
		return CastlingNone, nil
	}
	var rights CastlingRights
	for _, r := range trimmed {
		switch r {
		case 'K':
			rights |= CastlingWhiteKingside
		case 'Q':
			rights |= CastlingWhiteQueenside
		case 'k':
			rights |= CastlingBlackKingside
		case 'q':
			rights |= CastlingBlackQueenside
		default:
			return CastlingNone, fmt.Errorf("invalid castling flag %q", string(r))
		}
	}
	return rights, nil
}

func (cr CastlingRights) MarshalText() ([]byte, error) { return []byte(cr.String()), nil }

func (cr *CastlingRights) UnmarshalText(text []byte) error {
	parsed, err := ParseCastlingRights(string(text))
	if err != nil {
		return err
	}
	*cr = parsed
	return nil
}

// EnPassantTarget is the square a pawn skipped on its double push. It is
// valid for the next move only.
type EnPassantTarget struct {
	square Square
	valid  bool
}

func NewEnPassantTarget(sq Square) EnPassantTarget { return EnPassantTarget{square: sq, valid: true} }

func NoEnPassantTarget() EnPassantTarget { return EnPassantTarget{} }

func (e EnPassantTarget) Valid() bool { return e.valid }

func (e EnPassantTarget) Square() (Square, bool) {
	if !e.valid {
		return 0, false
	}
	return e.square, true
}

func (e EnPassantTarget) String() string {
	if !e.valid {
		return "-"
	}
	return e.square.String()
}

func ParseEnPassantTarget(s string) (EnPassantTarget, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" || trimmed == "-" {
		return EnPassantTarget{}, nil
	}
	sq, ok := CoordToSquare(trimmed)
	if !ok {
		return EnPassantTarget{}, fmt.Errorf("invalid en-passant square %q", s)
	}
	return NewEnPassantTarget(sq), nil
}

func (e EnPassantTarget) MarshalText() ([]byte, error) { return []byte(e.String()), nil }

func (e *EnPassantTarget) UnmarshalText(text []byte) error {
	parsed, err := ParseEnPassantTarget(string(text))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// Move is a request to move the piece on From to To. Promotion is only
// meaningful for a pawn reaching the far rank.
type Move struct {
	From      Square
	To        Square
	Promotion PieceType
}

// String renders the move in long algebraic form, e.g. "e2e4" or "e7e8q".
func (m Move) String() string {
	s := m.From.String() + m.To.String()
	if m.Promotion.IsPromotion() {
		s += strings.ToLower(m.Promotion.String())
	}
	return s
}

func ParseMove(s string) (Move, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 4 && len(s) != 5 {
		return Move{}, fmt.Errorf("invalid move %q", s)
	}
	from, ok := CoordToSquare(s[0:2])
	if !ok {
		return Move{}, fmt.Errorf("invalid move %q: bad origin", s)
	}
	to, ok := CoordToSquare(s[2:4])
	if !ok {
		return Move{}, fmt.Errorf("invalid move %q: bad destination", s)
	}
	m := Move{From: from, To: to}
	if len(s) == 5 {
		pt, ok := shared.ParsePromotionPiece(s[4:])
		if !ok {
			return Move{}, fmt.Errorf("invalid move %q: bad promotion", s)
		}
		m.Promotion = pt
	}
	return m, nil
}

func (m Move) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Move) UnmarshalText(text []byte) error {
	parsed, err := ParseMove(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

type Status uint8

const (
	StatusInProgress Status = iota
	StatusCheck
	StatusCheckmate
	StatusStalemate
)

func (s Status) String() string {
	switch s {
	case StatusInProgress:
		return "ongoing"
	case StatusCheck:
		return "check"
	case StatusCheckmate:
		return "checkmate"
	case StatusStalemate:
		return "stalemate"
	default:
		return "?"
	}
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Status) UnmarshalText(text []byte) error {
	switch string(text) {
	case "ongoing", "":
		*s = StatusInProgress
	case "check":
		*s = StatusCheck
	case "checkmate":
		*s = StatusCheckmate
	case "stalemate":
		*s = StatusStalemate
	default:
		return fmt.Errorf("invalid status %q", string(text))
	}
	return nil
}

// Outcome classifies a position for the side to move.
type Outcome struct {
	Status    Status `json:"status"`
	HasWinner bool   `json:"hasWinner"`
	Winner    Color  `json:"winner"`
}

// Terminal reports whether forward moves are no longer accepted.
func (o Outcome) Terminal() bool {
	return o.Status == StatusCheckmate || o.Status == StatusStalemate
}

func (o Outcome) String() string {
	switch o.Status {
	case StatusCheckmate:
		return fmt.Sprintf("Checkmate - %s wins", o.Winner)
	case StatusStalemate:
		return "Stalemate - draw"
	case StatusCheck:
		return "Check!"
	default:
		return "Select a piece"
	}
}
