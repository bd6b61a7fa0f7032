package game

import "chessx/internal/shared"

// PseudoMoves returns the geometric destinations of the piece on sq,
// without regard to the safety of its own king. Squares holding a king are
// never included.
func (s *GameState) PseudoMoves(sq Square) Bitboard {
	pc, ok := s.Board.PieceAt(sq)
	if !ok {
		return 0
	}

	var moves Bitboard
	switch pc.Type {
	case Pawn:
		moves = s.pawnMoves(sq, pc)
	case Knight:
		moves = s.stepMoves(sq, pc, shared.KnightOffsets[:])
	case Bishop:
		moves = s.slidingMoves(sq, pc, shared.BishopDirections[:])
	case Rook:
		moves = s.slidingMoves(sq, pc, shared.RookDirections[:])
	case Queen:
		moves = s.slidingMoves(sq, pc, shared.RookDirections[:])
		moves |= s.slidingMoves(sq, pc, shared.BishopDirections[:])
	case King:
		moves = s.stepMoves(sq, pc, shared.KingOffsets[:])
		moves |= s.castlingMoves(sq, pc)
	}

	moves.Iter(func(to Square) {
		if s.Board.squares[to].Type == King {
			moves = moves.Remove(to)
		}
	})
	return moves
}

func (s *GameState) pawnMoves(from Square, pc Piece) Bitboard {
	var moves Bitboard
	dir := pc.Color.Forward()
	rank := from.Rank()
	file := from.File()

	if target, ok := SquareFromCoords(rank+dir, file); ok && s.Board.IsEmpty(target) {
		moves = moves.Add(target)
		if rank == pc.Color.PawnRank() {
			if double, ok := SquareFromCoords(rank+2*dir, file); ok && s.Board.IsEmpty(double) {
				moves = moves.Add(double)
			}
		}
	}

	for _, df := range []int{-1, 1} {
		target, ok := SquareFromCoords(rank+dir, file+df)
		if !ok {
			continue
		}
		if victim, ok := s.Board.PieceAt(target); ok {
			if victim.Color != pc.Color {
				moves = moves.Add(target)
			}
			continue
		}
		if s.isEnPassantCapture(from, target, pc) {
			moves = moves.Add(target)
		}
	}
	return moves
}

// isEnPassantCapture reports whether a pawn move from->to takes en passant.
func (s *GameState) isEnPassantCapture(from, to Square, pc Piece) bool {
	if pc.Type != Pawn || from.File() == to.File() {
		return false
	}
	epSq, ok := s.EnPassant.Square()
	if !ok || epSq != to || !s.Board.IsEmpty(to) {
		return false
	}
	victimSq, ok := enPassantVictim(to, pc.Color)
	if !ok {
		return false
	}
	victim := s.Board.squares[victimSq]
	return victim.Type == Pawn && victim.Color != pc.Color
}

// enPassantVictim is the square directly behind to, relative to the mover.
func enPassantVictim(to Square, mover Color) (Square, bool) {
	return SquareFromCoords(to.Rank()-mover.Forward(), to.File())
}

func (s *GameState) stepMoves(from Square, pc Piece, offsets []shared.Delta) Bitboard {
	var moves Bitboard
	for _, delta := range offsets {
		target, ok := shared.Step(from, delta)
		if !ok {
			continue
		}
		occupant := s.Board.squares[target]
		if occupant.Empty() || occupant.Color != pc.Color {
			moves = moves.Add(target)
		}
	}
	return moves
}

func (s *GameState) slidingMoves(from Square, pc Piece, directions []shared.Delta) Bitboard {
	var moves Bitboard
	for _, delta := range directions {
		cur := from
		for {
			target, ok := shared.Step(cur, delta)
			if !ok {
				break
			}
			occupant := s.Board.squares[target]
			if occupant.Empty() {
				moves = moves.Add(target)
				cur = target
				continue
			}
			if occupant.Color != pc.Color {
				moves = moves.Add(target)
			}
			break
		}
	}
	return moves
}

func (s *GameState) castlingMoves(from Square, pc Piece) Bitboard {
	var moves Bitboard
	for _, side := range []CastlingSide{CastleKingside, CastleQueenside} {
		if dest, ok := s.castleDestination(from, pc, side); ok {
			moves = moves.Add(dest)
		}
	}
	return moves
}

func (s *GameState) castleDestination(from Square, pc Piece, side CastlingSide) (Square, bool) {
	home, _ := SquareFromCoords(pc.Color.HomeRank(), 4)
	if from != home || !s.Castling.HasSide(pc.Color, side) {
		return 0, false
	}
	enemy := pc.Color.Opposite()
	rank := home.Rank()

	rookFile, step := 7, 1
	if side == CastleQueenside {
		rookFile, step = 0, -1
	}
	rookSq, _ := SquareFromCoords(rank, rookFile)
	if rook := s.Board.squares[rookSq]; rook.Type != Rook || rook.Color != pc.Color {
		return 0, false
	}
	for _, sq := range shared.Line(home, rookSq) {
		if !s.Board.IsEmpty(sq) {
			return 0, false
		}
	}

	if s.Board.IsAttacked(home, enemy) {
		return 0, false
	}
	transit, _ := SquareFromCoords(rank, home.File()+step)
	dest, _ := SquareFromCoords(rank, home.File()+2*step)
	if s.Board.IsAttacked(transit, enemy) || s.Board.IsAttacked(dest, enemy) {
		return 0, false
	}
	return dest, true
}

// LegalMoves filters PseudoMoves by playing each one on a scratch board and
// discarding those that leave the mover's king attacked.
func (s *GameState) LegalMoves(sq Square) Bitboard {
	pc, ok := s.Board.PieceAt(sq)
	if !ok {
		return 0
	}
	var legal Bitboard
	s.PseudoMoves(sq).Iter(func(to Square) {
		scratch := s.Board
		s.playOnBoard(&scratch, Move{From: sq, To: to})
		if !scratch.InCheck(pc.Color) {
			legal = legal.Add(to)
		}
	})
	return legal
}

// SideHasAnyLegalMove reports whether color has at least one legal move.
func (s *GameState) SideHasAnyLegalMove(color Color) bool {
	found := false
	s.Board.Occupancy(color).Iter(func(sq Square) {
		if !found && !s.LegalMoves(sq).Empty() {
			found = true
		}
	})
	return found
}

// boardEffect describes what playing a move did to the board.
type boardEffect struct {
	mover         Piece
	landed        Piece
	captured      Piece
	captureSquare Square
	castle        bool
	castleSide    CastlingSide
	enPassant     bool
	promoted      bool
}

// playOnBoard performs the board part of a move: en-passant victim removal,
// castling rook relocation and promotion. It does not validate the move.
func (s *GameState) playOnBoard(b *Board, m Move) boardEffect {
	mover := b.squares[m.From]
	fx := boardEffect{mover: mover, landed: mover, captureSquare: m.To}

	if s.isEnPassantCapture(m.From, m.To, mover) {
		victimSq, _ := enPassantVictim(m.To, mover.Color)
		fx.captured = b.Remove(victimSq)
		fx.captureSquare = victimSq
		fx.enPassant = true
	}

	if mover.Type == King && m.From.Rank() == m.To.Rank() && abs(m.To.File()-m.From.File()) == 2 {
		fx.castle = true
		rookFromFile, rookToFile := 7, m.To.File()-1
		fx.castleSide = CastleKingside
		if m.To.File() < m.From.File() {
			rookFromFile, rookToFile = 0, m.To.File()+1
			fx.castleSide = CastleQueenside
		}
		rookFrom, _ := SquareFromCoords(m.From.Rank(), rookFromFile)
		rookTo, _ := SquareFromCoords(m.From.Rank(), rookToFile)
		b.MoveRaw(rookFrom, rookTo)
	}

	if mover.Type == Pawn && m.To.Rank() == mover.Color.PromotionRank() {
		promo := m.Promotion
		if !promo.IsPromotion() {
			promo = Queen
		}
		fx.landed = Piece{Color: mover.Color, Type: promo}
		fx.promoted = true
	}

	if captured := b.MoveRaw(m.From, m.To); !captured.Empty() {
		fx.captured = captured
	}
	b.Place(m.To, fx.landed)
	return fx
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
