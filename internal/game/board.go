package game

import (
	"encoding/json"
	"fmt"
)

// Board maps each of the 64 squares to a piece or nothing. It is a value:
// copying a Board copies every square.
type Board struct {
	squares [64]Piece
}

var backRankOrder = [8]PieceType{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

// StandardBoard returns the initial chess position.
func StandardBoard() Board {
	var b Board
	for _, color := range []Color{White, Black} {
		for file, pt := range backRankOrder {
			sq, _ := SquareFromCoords(color.HomeRank(), file)
			b.Place(sq, Piece{Color: color, Type: pt})
			pawnSq, _ := SquareFromCoords(color.PawnRank(), file)
			b.Place(pawnSq, Piece{Color: color, Type: Pawn})
		}
	}
	return b
}

func (b *Board) PieceAt(sq Square) (Piece, bool) {
	pc := b.squares[sq]
	return pc, !pc.Empty()
}

func (b *Board) IsEmpty(sq Square) bool { return b.squares[sq].Empty() }

func (b *Board) Place(sq Square, pc Piece) { b.squares[sq] = pc }

// Remove clears sq and returns what stood there.
func (b *Board) Remove(sq Square) Piece {
	pc := b.squares[sq]
	b.squares[sq] = Piece{}
	return pc
}

// MoveRaw relocates the piece on from to to without any rule checks and
// returns whatever occupied to.
func (b *Board) MoveRaw(from, to Square) Piece {
	captured := b.squares[to]
	b.squares[to] = b.squares[from]
	b.squares[from] = Piece{}
	return captured
}

func (b *Board) KingSquare(color Color) (Square, bool) {
	for idx, pc := range b.squares {
		if pc.Type == King && pc.Color == color {
			return Square(idx), true
		}
	}
	return 0, false
}

// Occupancy returns the squares holding pieces of color.
func (b *Board) Occupancy(color Color) Bitboard {
	var bb Bitboard
	for idx, pc := range b.squares {
		if !pc.Empty() && pc.Color == color {
			bb = bb.Add(Square(idx))
		}
	}
	return bb
}

func (b *Board) Count(color Color, pt PieceType) int {
	n := 0
	for _, pc := range b.squares {
		if pc.Type == pt && pc.Color == color {
			n++
		}
	}
	return n
}

func (b Board) MarshalJSON() ([]byte, error) {
	var out [64]string
	for idx, pc := range b.squares {
		out[idx] = pc.String()
	}
	return json.Marshal(out)
}

func (b *Board) UnmarshalJSON(data []byte) error {
	var in []string
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if len(in) != len(b.squares) {
		return fmt.Errorf("board must have %d squares, got %d", len(b.squares), len(in))
	}
	var next Board
	for idx, s := range in {
		if s == "" {
			continue
		}
		pc, ok := ParsePiece(s)
		if !ok {
			return fmt.Errorf("invalid piece %q on %s", s, Square(idx))
		}
		next.squares[idx] = pc
	}
	*b = next
	return nil
}
