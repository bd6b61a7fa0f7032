// Package game implements the chess rules engine and its move history.
package game

import (
	"fmt"

	"chessx/internal/shared"
)

// Engine owns one game: the current state and its undo/redo history.
// It is not safe for concurrent use.
type Engine struct {
	state    GameState
	history  History
	notifier Notifier
}

type Option func(*Engine)

func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// NewEngine creates an engine at the standard starting position.
func NewEngine(opts ...Option) *Engine {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}
	eng.Reset()
	return eng
}

// NewEngineFromState creates an engine continuing from an arbitrary
// position. The outcome is recomputed from the board.
func NewEngineFromState(st GameState, opts ...Option) (*Engine, error) {
	if err := st.validate(); err != nil {
		return nil, err
	}
	eng := &Engine{state: st.Clone()}
	for _, opt := range opts {
		opt(eng)
	}
	eng.state.Outcome = eng.state.evaluate()
	return eng, nil
}

// Reset starts a new game and forgets all history.
func (e *Engine) Reset() {
	e.state = NewGameState()
	e.history.Clear()
	e.emit(Event{Kind: EventGameStarted, Side: White, Outcome: e.state.Outcome})
}

// Result describes a committed move.
type Result struct {
	Move          Move
	Mover         Piece
	Captured      Piece
	CaptureSquare Square
	Castle        bool
	EnPassant     bool
	Promoted      bool
	Outcome       Outcome
	Events        []Event
}

// Move validates and applies m for the side to move. On error the state is
// unchanged and an IllegalAttempt event is emitted.
func (e *Engine) Move(m Move) (Result, error) {
	var err error
	if e.state.Outcome.Terminal() {
		err = fmt.Errorf("%w: %s", ErrTerminalGame, e.state.Outcome)
	} else {
		err = e.checkLegal(m)
	}
	if err != nil {
		ev := Event{Kind: EventIllegalAttempt, Move: m, Side: e.state.Turn, Outcome: e.state.Outcome}
		e.emit(ev)
		return Result{Events: []Event{ev}}, err
	}

	e.history.Commit(NewSnapshot(&e.state))
	res := e.apply(m)
	for _, ev := range res.Events {
		e.emit(ev)
	}
	return res, nil
}

func (e *Engine) checkLegal(m Move) error {
	if !m.From.Valid() || !m.To.Valid() {
		return fmt.Errorf("%w: square out of range", ErrIllegalMove)
	}
	pc, ok := e.state.Board.PieceAt(m.From)
	if !ok {
		return fmt.Errorf("%w: no piece on %s", ErrIllegalMove, m.From)
	}
	if pc.Color != e.state.Turn {
		return fmt.Errorf("%w: %s is not %s's piece", ErrIllegalMove, m.From, e.state.Turn)
	}
	if !e.state.LegalMoves(m.From).Has(m.To) {
		return fmt.Errorf("%w: %s", ErrIllegalMove, m)
	}
	return nil
}

// apply mutates the state for an already validated move.
func (e *Engine) apply(m Move) Result {
	st := &e.state
	mover := st.Turn

	fx := st.playOnBoard(&st.Board, m)
	if !fx.promoted {
		m.Promotion = NoPiece
	} else {
		m.Promotion = fx.landed.Type
	}

	st.Castling = updateCastling(st.Castling, fx.mover, m.From, fx.captured, fx.captureSquare)

	st.EnPassant = NoEnPassantTarget()
	if fx.mover.Type == Pawn && abs(m.To.Rank()-m.From.Rank()) == 2 {
		if mid, ok := SquareFromCoords((m.From.Rank()+m.To.Rank())/2, m.From.File()); ok {
			st.EnPassant = NewEnPassantTarget(mid)
		}
	}

	if !fx.captured.Empty() {
		st.Captured[mover.Index()] = append(st.Captured[mover.Index()], fx.captured.Type)
	}

	if fx.mover.Type == Pawn || !fx.captured.Empty() {
		st.HalfmoveClock = 0
	} else {
		st.HalfmoveClock++
	}
	if mover == Black {
		st.Fullmove++
	}

	st.Turn = mover.Opposite()
	st.Outcome = st.evaluate()
	st.MoveLog = append(st.MoveLog, m)
	st.LastMove = m
	st.HasLastMove = true

	res := Result{
		Move:          m,
		Mover:         fx.mover,
		Captured:      fx.captured,
		CaptureSquare: fx.captureSquare,
		Castle:        fx.castle,
		EnPassant:     fx.enPassant,
		Promoted:      fx.promoted,
		Outcome:       st.Outcome,
	}
	res.Events = moveEvents(res, mover)
	return res
}

func moveEvents(res Result, mover Color) []Event {
	first := Event{Kind: EventMoved, Move: res.Move, Side: mover, Outcome: res.Outcome}
	if !res.Captured.Empty() {
		first.Kind = EventCaptured
		first.Captured = res.Captured.Type
	}
	events := []Event{first}
	switch {
	case res.Outcome.Terminal():
		events = append(events, Event{Kind: EventGameEnded, Move: res.Move, Side: mover, Outcome: res.Outcome})
	case res.Outcome.Status == StatusCheck:
		events = append(events, Event{Kind: EventCheck, Move: res.Move, Side: mover, Outcome: res.Outcome})
	}
	return events
}

func castlingRightForRook(color Color, sq Square) CastlingRights {
	if sq.Rank() != color.HomeRank() {
		return CastlingNone
	}
	switch sq.File() {
	case 0:
		return CastlingRight(color, CastleQueenside)
	case 7:
		return CastlingRight(color, CastleKingside)
	}
	return CastlingNone
}

// updateCastling only ever removes rights.
func updateCastling(cr CastlingRights, mover Piece, from Square, captured Piece, captureSq Square) CastlingRights {
	switch mover.Type {
	case King:
		cr = cr.WithoutColor(mover.Color)
	case Rook:
		cr = cr.Without(castlingRightForRook(mover.Color, from))
	}
	if captured.Type == Rook {
		cr = cr.Without(castlingRightForRook(captured.Color, captureSq))
	}
	return cr
}

// Undo steps back up to n moves and returns how many were undone.
func (e *Engine) Undo(n int) int {
	done := 0
	for ; done < n; done++ {
		prev, ok := e.history.Undo(NewSnapshot(&e.state))
		if !ok {
			break
		}
		e.state = prev.State()
	}
	return done
}

// Redo reapplies up to n undone moves and returns how many were redone.
func (e *Engine) Redo(n int) int {
	done := 0
	for ; done < n; done++ {
		next, ok := e.history.Redo(NewSnapshot(&e.state))
		if !ok {
			break
		}
		e.state = next.State()
	}
	return done
}

func (e *Engine) CanUndo() bool { return e.history.CanUndo() }

func (e *Engine) CanRedo() bool { return e.history.CanRedo() }

func (e *Engine) HistoryDepth() (undo, redo int) { return e.history.Depth() }

func (e *Engine) Turn() Color { return e.state.Turn }

func (e *Engine) Outcome() Outcome { return e.state.Outcome }

func (e *Engine) Castling() CastlingRights { return e.state.Castling }

func (e *Engine) EnPassant() EnPassantTarget { return e.state.EnPassant }

func (e *Engine) PieceAt(sq Square) (Piece, bool) {
	if !sq.Valid() {
		return Piece{}, false
	}
	return e.state.Board.PieceAt(sq)
}

func (e *Engine) Board() Board { return e.state.Board }

// Origin is the FEN the game started from, or "" for the standard position.
func (e *Engine) Origin() string { return e.state.Origin }

func (e *Engine) LastMove() (Move, bool) { return e.state.LastMove, e.state.HasLastMove }

func (e *Engine) MoveLog() []Move { return append([]Move(nil), e.state.MoveLog...) }

// Captured returns the piece types taken so far by color.
func (e *Engine) Captured(color Color) []PieceType {
	return append([]PieceType(nil), e.state.Captured[color.Index()]...)
}

// LegalTargets lists the legal destinations of the piece on sq in ascending
// order. Pieces of the side not to move have none.
func (e *Engine) LegalTargets(sq Square) []Square {
	if !sq.Valid() {
		return nil
	}
	pc, ok := e.state.Board.PieceAt(sq)
	if !ok || pc.Color != e.state.Turn || e.state.Outcome.Terminal() {
		return nil
	}
	return e.state.LegalMoves(sq).Squares()
}

// LegalMoves enumerates every legal move for the side to move, ordered by
// origin then destination. Promotions expand to Queen, Rook, Bishop, Knight.
func (e *Engine) LegalMoves() []Move {
	if e.state.Outcome.Terminal() {
		return nil
	}
	var out []Move
	e.state.Board.Occupancy(e.state.Turn).Iter(func(from Square) {
		pc := e.state.Board.squares[from]
		e.state.LegalMoves(from).Iter(func(to Square) {
			if pc.Type == Pawn && to.Rank() == pc.Color.PromotionRank() {
				for _, pt := range shared.PromotionTypes {
					out = append(out, Move{From: from, To: to, Promotion: pt})
				}
				return
			}
			out = append(out, Move{From: from, To: to})
		})
	})
	return out
}

// IsCapture reports whether m would take a piece in the current position.
func (e *Engine) IsCapture(m Move) bool {
	if !m.From.Valid() || !m.To.Valid() {
		return false
	}
	pc, ok := e.state.Board.PieceAt(m.From)
	if !ok {
		return false
	}
	if target, ok := e.state.Board.PieceAt(m.To); ok && target.Color != pc.Color {
		return true
	}
	return e.state.isEnPassantCapture(m.From, m.To, pc)
}

// Snapshot returns an independent copy of the current state.
func (e *Engine) Snapshot() Snapshot { return NewSnapshot(&e.state) }

// Clone returns an engine at the same position with no history and no
// notifier.
func (e *Engine) Clone() *Engine {
	return &Engine{state: e.state.Clone()}
}

// Save serializes the game, including both history stacks when withHistory
// is set.
func (e *Engine) Save(withHistory bool) SavedGame {
	saved := SavedGame{Current: e.Snapshot()}
	if withHistory {
		saved.History, saved.Redo = e.history.Stacks()
	}
	return saved
}

// Adopt replaces the whole game with g. Moves are not replayed; only the
// structural invariants are checked and the outcome is recomputed.
func (e *Engine) Adopt(g SavedGame) error {
	st := g.Current.State()
	if err := st.validate(); err != nil {
		return err
	}
	st.Outcome = st.evaluate()
	e.state = st
	e.history.Restore(g.History, g.Redo)
	return nil
}

func (e *Engine) emit(ev Event) {
	if e.notifier != nil {
		e.notifier.Notify(ev)
	}
}
