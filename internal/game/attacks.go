package game

import "chessx/internal/shared"

// IsAttacked reports whether any piece of by attacks sq on this exact board.
// Each piece family is probed outward from sq.
func (b *Board) IsAttacked(sq Square, by Color) bool {
	// A pawn of by attacks sq from one row behind it, relative to by's advance.
	pawnRank := sq.Rank() - by.Forward()
	for _, df := range []int{-1, 1} {
		if from, ok := SquareFromCoords(pawnRank, sq.File()+df); ok {
			if pc := b.squares[from]; pc.Type == Pawn && pc.Color == by {
				return true
			}
		}
	}

	for _, delta := range shared.KnightOffsets {
		if from, ok := shared.Step(sq, delta); ok {
			if pc := b.squares[from]; pc.Type == Knight && pc.Color == by {
				return true
			}
		}
	}

	for _, delta := range shared.KingOffsets {
		if from, ok := shared.Step(sq, delta); ok {
			if pc := b.squares[from]; pc.Type == King && pc.Color == by {
				return true
			}
		}
	}

	for _, delta := range shared.BishopDirections {
		if pc, ok := b.firstPiece(sq, delta); ok && pc.Color == by && (pc.Type == Bishop || pc.Type == Queen) {
			return true
		}
	}
	for _, delta := range shared.RookDirections {
		if pc, ok := b.firstPiece(sq, delta); ok && pc.Color == by && (pc.Type == Rook || pc.Type == Queen) {
			return true
		}
	}
	return false
}

// firstPiece walks from sq along delta and returns the first occupant.
func (b *Board) firstPiece(sq Square, delta shared.Delta) (Piece, bool) {
	cur := sq
	for {
		next, ok := shared.Step(cur, delta)
		if !ok {
			return Piece{}, false
		}
		if pc := b.squares[next]; !pc.Empty() {
			return pc, true
		}
		cur = next
	}
}

// InCheck reports whether color's king is attacked. A missing king counts
// as in check so that no move can leave a side without one.
func (b *Board) InCheck(color Color) bool {
	kingSq, ok := b.KingSquare(color)
	if !ok {
		return true
	}
	return b.IsAttacked(kingSq, color.Opposite())
}
