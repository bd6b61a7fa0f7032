package game

import "math/bits"

// Bitboard represents a 64-bit set of squares.
type Bitboard uint64

func (b Bitboard) Empty() bool { return b == 0 }

func (b Bitboard) Has(s Square) bool { return b&(1<<s) != 0 }

func (b Bitboard) Add(s Square) Bitboard { return b | (1 << s) }

func (b Bitboard) Remove(s Square) Bitboard { return b &^ (1 << s) }

func (b Bitboard) Count() int { return bits.OnesCount64(uint64(b)) }

// Squares lists members in ascending order.
func (b Bitboard) Squares() []Square {
	out := make([]Square, 0, b.Count())
	b.Iter(func(sq Square) { out = append(out, sq) })
	return out
}

func (b Bitboard) Iter(fn func(Square)) {
	bb := uint64(b)
	for bb != 0 {
		fn(Square(bits.TrailingZeros64(bb)))
		bb &= bb - 1
	}
}
