package game

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestScholarsMate(t *testing.T) {
	eng := NewEngine()
	res := play(t, eng, "e2e4", "e7e5", "d1h5", "b8c6", "f1c4", "g8f6", "h5f7")

	out := eng.Outcome()
	if out.Status != StatusCheckmate || !out.HasWinner || out.Winner != White {
		t.Fatalf("outcome = %+v, want white checkmate", out)
	}
	if res.Captured != (Piece{Color: Black, Type: Pawn}) {
		t.Fatalf("captured = %v, want black pawn", res.Captured)
	}
	if got := out.String(); got != "Checkmate - white wins" {
		t.Fatalf("status line = %q", got)
	}
	if len(eng.LegalMoves()) != 0 {
		t.Fatalf("mated side still has moves")
	}

	res, err := eng.Move(mustMove(t, "a7a6"))
	if !errors.Is(err, ErrTerminalGame) {
		t.Fatalf("move after mate: err = %v, want ErrTerminalGame", err)
	}
	if got := eventKinds(res.Events); !reflect.DeepEqual(got, []EventKind{EventIllegalAttempt}) {
		t.Fatalf("move after mate events = %v", got)
	}
	if len(eng.MoveLog()) != 7 {
		t.Fatalf("terminal rejection changed the log")
	}
}

func TestStalemateHasNoLegalMoves(t *testing.T) {
	eng := mustFEN(t, "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
	if got := eng.Outcome().Status; got != StatusStalemate {
		t.Fatalf("status = %v, want stalemate", got)
	}
	b := eng.Board()
	if b.InCheck(Black) {
		t.Fatalf("stalemated king must not be in check")
	}
	if eng.state.SideHasAnyLegalMove(Black) {
		t.Fatalf("black should have no legal move")
	}
	if _, err := eng.Move(mustMove(t, "h8g8")); !errors.Is(err, ErrTerminalGame) {
		t.Fatalf("err = %v, want ErrTerminalGame", err)
	}
}

func TestStalemateReachedByMove(t *testing.T) {
	eng := mustFEN(t, "7k/8/6K1/8/8/8/8/5Q2 w - - 0 1")
	res := play(t, eng, "f1f7")
	if res.Outcome.Status != StatusStalemate || res.Outcome.HasWinner {
		t.Fatalf("outcome = %+v, want stalemate", res.Outcome)
	}
	if kinds := eventKinds(res.Events); !reflect.DeepEqual(kinds, []EventKind{EventMoved, EventGameEnded}) {
		t.Fatalf("events = %v", kinds)
	}
}

func TestRejectedMovesLeaveStateUnchanged(t *testing.T) {
	tests := []struct {
		name string
		move string
	}{
		{"EmptyOrigin", "e4e5"},
		{"WrongSide", "e7e5"},
		{"IllegalDestination", "e2e5"},
		{"OwnPieceCapture", "a1a2"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			var events []Event
			eng := NewEngine(WithNotifier(NotifierFunc(func(ev Event) { events = append(events, ev) })))
			before := eng.FEN()
			res, err := eng.Move(mustMove(t, tt.move))
			if !errors.Is(err, ErrIllegalMove) {
				t.Fatalf("err = %v, want ErrIllegalMove", err)
			}
			if eng.FEN() != before || eng.CanUndo() {
				t.Fatalf("state changed after rejected move")
			}
			if len(res.Events) != 1 || res.Events[0].Kind != EventIllegalAttempt {
				t.Fatalf("result events = %v", res.Events)
			}
			if got := events[len(events)-1].Kind; got != EventIllegalAttempt {
				t.Fatalf("last notified event = %v", got)
			}
		})
	}
}

func TestMoveEvents(t *testing.T) {
	var seen []EventKind
	eng := NewEngine(WithNotifier(NotifierFunc(func(ev Event) { seen = append(seen, ev.Kind) })))
	if len(seen) != 1 || seen[0] != EventGameStarted {
		t.Fatalf("events after construction = %v", seen)
	}

	res := play(t, eng, "e2e4")
	if got := eventKinds(res.Events); !reflect.DeepEqual(got, []EventKind{EventMoved}) {
		t.Fatalf("quiet move events = %v", got)
	}

	res = play(t, eng, "f7f6", "d1h5")
	if got := eventKinds(res.Events); !reflect.DeepEqual(got, []EventKind{EventMoved, EventCheck}) {
		t.Fatalf("checking move events = %v", got)
	}
	if eng.Outcome().Status != StatusCheck {
		t.Fatalf("status = %v, want check", eng.Outcome().Status)
	}
	v := eng.View(nil)
	if !v.HasCheckedKing || v.CheckedKing != mustSquare(t, "e8") {
		t.Fatalf("checked king = %v/%v, want e8", v.CheckedKing, v.HasCheckedKing)
	}

	res = play(t, eng, "g7g6", "h5g6")
	if got := eventKinds(res.Events); !reflect.DeepEqual(got, []EventKind{EventCaptured, EventCheck}) {
		t.Fatalf("capture events = %v", got)
	}
	if res.Events[0].Captured != Pawn {
		t.Fatalf("captured kind = %v", res.Events[0].Captured)
	}
	if got := eng.Captured(White); !reflect.DeepEqual(got, []PieceType{Pawn}) {
		t.Fatalf("white captures = %v", got)
	}
	want := []EventKind{EventGameStarted, EventMoved, EventMoved, EventMoved, EventCheck, EventMoved, EventCaptured, EventCheck}
	if !reflect.DeepEqual(seen, want) {
		t.Fatalf("notified = %v, want %v", seen, want)
	}
}

func TestEnPassantRemovesPassedPawn(t *testing.T) {
	eng := NewEngine()
	play(t, eng, "a2a3", "d7d5", "a3a4", "d5d4", "e2e4")

	ep, ok := eng.EnPassant().Square()
	if !ok || ep != mustSquare(t, "e3") {
		t.Fatalf("en-passant target = %v, want e3", eng.EnPassant())
	}

	res := play(t, eng, "d4e3")
	if !res.EnPassant || res.CaptureSquare != mustSquare(t, "e4") {
		t.Fatalf("result = %+v, want en passant on e4", res)
	}
	if _, ok := eng.PieceAt(mustSquare(t, "e4")); ok {
		t.Fatalf("passed pawn still on e4")
	}
	if pc, _ := eng.PieceAt(mustSquare(t, "e3")); pc != (Piece{Color: Black, Type: Pawn}) {
		t.Fatalf("e3 holds %v, want black pawn", pc)
	}
	if eng.EnPassant().Valid() {
		t.Fatalf("en-passant target should expire")
	}
}

func TestEnPassantExpiresAfterOneMove(t *testing.T) {
	eng := NewEngine()
	play(t, eng, "e2e4", "a7a6", "e4e5", "d7d5", "a2a3", "a6a5")
	if targetSet(eng.LegalTargets(mustSquare(t, "e5")))["d6"] {
		t.Fatalf("en passant allowed after the target expired")
	}
}

func TestPromotion(t *testing.T) {
	tests := []struct {
		name string
		move string
		want PieceType
	}{
		{"DefaultsToQueen", "a7a8", Queen},
		{"ExplicitKnight", "a7a8n", Knight},
		{"ExplicitRook", "a7a8r", Rook},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			eng := mustFEN(t, "8/P6k/8/8/8/8/8/K7 w - - 0 1")
			res := play(t, eng, tt.move)
			if !res.Promoted || res.Move.Promotion != tt.want {
				t.Fatalf("result = %+v, want promotion to %v", res, tt.want)
			}
			pc, _ := eng.PieceAt(mustSquare(t, "a8"))
			if pc != (Piece{Color: White, Type: tt.want}) {
				t.Fatalf("a8 holds %v, want white %v", pc, tt.want)
			}
		})
	}
}

func TestCastlingMovesRookAndClearsRights(t *testing.T) {
	eng := mustFEN(t, "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	res := play(t, eng, "e1g1")
	if !res.Castle {
		t.Fatalf("castle not reported")
	}
	if pc, _ := eng.PieceAt(mustSquare(t, "f1")); pc != (Piece{Color: White, Type: Rook}) {
		t.Fatalf("f1 holds %v, want white rook", pc)
	}
	if _, ok := eng.PieceAt(mustSquare(t, "h1")); ok {
		t.Fatalf("h1 should be empty")
	}
	if got := eng.Castling().String(); got != "kq" {
		t.Fatalf("rights = %q, want kq", got)
	}

	play(t, eng, "e8c8")
	if pc, _ := eng.PieceAt(mustSquare(t, "d8")); pc != (Piece{Color: Black, Type: Rook}) {
		t.Fatalf("d8 holds %v, want black rook", pc)
	}
	if got := eng.Castling().String(); got != "-" {
		t.Fatalf("rights = %q, want -", got)
	}
}

func TestRookMovesAndCapturesClearRights(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		move string
		want string
	}{
		{"WhiteTakesA8", "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", "a1a8", "Kk"},
		{"BlackTakesH1", "r3k2r/8/8/8/8/8/8/R3K2R b KQkq - 0 1", "h8h1", "Qq"},
		{"KingStep", "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", "e1d1", "kq"},
		{"RookLift", "r3k2r/8/8/8/8/8/8/R3K2R b KQkq - 0 1", "a8a5", "KQk"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			eng := mustFEN(t, tt.fen)
			play(t, eng, tt.move)
			if got := eng.Castling().String(); got != tt.want {
				t.Fatalf("rights after %s = %q, want %q", tt.move, got, tt.want)
			}
		})
	}
}

func TestUndoRedoRoundTrip(t *testing.T) {
	eng := NewEngine()
	play(t, eng, "e2e4", "d7d5", "e4d5")
	after := eng.state.Clone()

	if n := eng.Undo(2); n != 2 {
		t.Fatalf("undone = %d, want 2", n)
	}
	if got := len(eng.MoveLog()); got != 1 {
		t.Fatalf("log length after undo = %d, want 1", got)
	}
	if n := eng.Redo(2); n != 2 {
		t.Fatalf("redone = %d, want 2", n)
	}
	if !reflect.DeepEqual(eng.state, after) {
		t.Fatalf("state after redo differs:\n got %+v\nwant %+v", eng.state, after)
	}
}

func TestUndoRestoresExactPriorState(t *testing.T) {
	eng := NewEngine()
	play(t, eng, "e2e4", "c7c5")
	before := eng.state.Clone()
	play(t, eng, "g1f3")
	eng.Undo(1)
	if !reflect.DeepEqual(eng.state, before) {
		t.Fatalf("undo did not restore the prior state")
	}
	if eng.EnPassant().String() != "c6" {
		t.Fatalf("en-passant target = %s, want c6", eng.EnPassant())
	}
}

func TestUndoBeyondHistory(t *testing.T) {
	eng := NewEngine()
	play(t, eng, "e2e4")
	if n := eng.Undo(5); n != 1 {
		t.Fatalf("undone = %d, want 1", n)
	}
	if n := eng.Undo(1); n != 0 || eng.CanUndo() {
		t.Fatalf("undo on empty history = %d", n)
	}
	if n := eng.Redo(3); n != 1 {
		t.Fatalf("redone = %d, want 1", n)
	}
}

func TestRedoThenUndoIsNoop(t *testing.T) {
	eng := NewEngine()
	play(t, eng, "e2e4", "e7e5")
	eng.Undo(1)
	before := eng.state.Clone()
	eng.Redo(1)
	eng.Undo(1)
	if !reflect.DeepEqual(eng.state, before) {
		t.Fatalf("redo then undo changed state")
	}
}

func TestNewMoveClearsRedo(t *testing.T) {
	eng := NewEngine()
	play(t, eng, "e2e4", "e7e5", "g1f3")
	eng.Undo(2)
	if !eng.CanRedo() {
		t.Fatalf("redo should be available")
	}
	play(t, eng, "d7d5")
	if eng.CanRedo() {
		t.Fatalf("redo survived a new move")
	}
	if n := eng.Redo(1); n != 0 {
		t.Fatalf("redone = %d after new move", n)
	}
}

func TestUndoAfterMateResumesPlay(t *testing.T) {
	eng := NewEngine()
	play(t, eng, "f2f3", "e7e5", "g2g4", "d8h4")
	if !eng.Outcome().Terminal() {
		t.Fatalf("expected fool's mate")
	}
	eng.Undo(1)
	if eng.Outcome().Terminal() {
		t.Fatalf("undo left the game terminal")
	}
	play(t, eng, "d8e7")
}

func TestResetClearsHistory(t *testing.T) {
	eng := NewEngine()
	play(t, eng, "e2e4")
	eng.Undo(1)
	eng.Reset()
	if eng.CanUndo() || eng.CanRedo() || len(eng.MoveLog()) != 0 {
		t.Fatalf("reset kept history")
	}
}

func TestSaveAdoptRoundTrip(t *testing.T) {
	eng := NewEngine()
	play(t, eng, "e2e4", "d7d5", "e4d5", "d8d5")
	eng.Undo(1)

	data, err := json.Marshal(eng.Save(true))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var saved SavedGame
	if err := json.Unmarshal(data, &saved); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	other := NewEngine()
	if err := other.Adopt(saved); err != nil {
		t.Fatalf("adopt: %v", err)
	}
	if !reflect.DeepEqual(other.state, eng.state) {
		t.Fatalf("adopted state differs:\n got %+v\nwant %+v", other.state, eng.state)
	}
	if !other.CanRedo() || !other.CanUndo() {
		t.Fatalf("history was not restored")
	}
	other.Redo(1)
	if got := other.Captured(Black); !reflect.DeepEqual(got, []PieceType{Pawn}) {
		t.Fatalf("black captures after redo = %v", got)
	}
}

func TestAdoptWithoutHistory(t *testing.T) {
	src := NewEngine()
	play(t, src, "e2e4")

	dst := NewEngine()
	play(t, dst, "d2d4")
	if err := dst.Adopt(src.Save(false)); err != nil {
		t.Fatalf("adopt: %v", err)
	}
	if dst.CanUndo() || dst.FEN() != src.FEN() {
		t.Fatalf("adopt did not replace the game")
	}
}

func TestAdoptRecomputesOutcome(t *testing.T) {
	st, err := ParseFEN("7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	st.Outcome = Outcome{Status: StatusInProgress}
	eng := NewEngine()
	if err := eng.Adopt(SavedGame{Current: Snapshot{state: st}}); err != nil {
		t.Fatalf("adopt: %v", err)
	}
	if eng.Outcome().Status != StatusStalemate {
		t.Fatalf("outcome = %v, want recomputed stalemate", eng.Outcome().Status)
	}
}

func TestAdoptRejectsBrokenSnapshot(t *testing.T) {
	st := clearBoard(t, "e1", "e8")
	st.Board.Remove(mustSquare(t, "e8"))
	eng := NewEngine()
	play(t, eng, "e2e4")
	before := eng.FEN()
	err := eng.Adopt(SavedGame{Current: Snapshot{state: st}})
	if !errors.Is(err, ErrInvalidSnapshot) {
		t.Fatalf("err = %v, want ErrInvalidSnapshot", err)
	}
	if eng.FEN() != before {
		t.Fatalf("failed adopt changed state")
	}
}

func TestSnapshotJSONRejectsMissingKing(t *testing.T) {
	board := make([]string, 64)
	board[60] = "K"
	payload, _ := json.Marshal(map[string]any{
		"board":     board,
		"turn":      "white",
		"castling":  "-",
		"enPassant": "-",
		"moveLog":   []string{},
	})
	var snap Snapshot
	if err := json.Unmarshal(payload, &snap); !errors.Is(err, ErrInvalidSnapshot) {
		t.Fatalf("err = %v, want ErrInvalidSnapshot", err)
	}
}

func TestFENRoundTrip(t *testing.T) {
	fens := []string{
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"rnbqkbnr/ppp1pppp/8/8/3pP3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1",
	}
	for _, fen := range fens {
		eng := mustFEN(t, fen)
		if got := eng.FEN(); got != fen {
			t.Fatalf("FEN() = %q, want %q", got, fen)
		}
		if eng.Origin() != fen {
			t.Fatalf("origin = %q", eng.Origin())
		}
	}
}

func TestParseFENErrors(t *testing.T) {
	bad := []string{
		"",
		"8/8/8/8/8/8/8/8 w - -",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP w KQkq - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR x KQkq - 0 1",
		"rnbqkbnr/pppppppp/9/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq e4 0 1",
	}
	for _, fen := range bad {
		if _, err := ParseFEN(fen); !errors.Is(err, ErrInvalidSnapshot) {
			t.Fatalf("ParseFEN(%q) err = %v, want ErrInvalidSnapshot", fen, err)
		}
	}
}

func TestStateReportsHistoryAndStatus(t *testing.T) {
	eng := NewEngine()
	play(t, eng, "e2e4")
	bs := eng.State()
	if len(bs.Pieces) != 32 || bs.Turn != Black || bs.LastMove != "e2e4" {
		t.Fatalf("state = %+v", bs)
	}
	if !bs.CanUndo || bs.CanRedo || bs.Message != "Select a piece" {
		t.Fatalf("state flags = %+v", bs)
	}
	sel := mustSquare(t, "e2")
	v := eng.View(&sel)
	if !v.HasSelection || len(v.Targets) != 0 {
		t.Fatalf("white pawn on black's turn should have no targets: %+v", v)
	}
}

func eventKinds(events []Event) []EventKind {
	out := make([]EventKind, len(events))
	for i, ev := range events {
		out[i] = ev.Kind
	}
	return out
}

func TestPromotionWithCapture(t *testing.T) {
	eng := mustFEN(t, "1r2k3/P7/8/8/8/8/8/4K3 w - - 0 1")
	res := play(t, eng, "a7b8q")
	if res.Captured != (Piece{Color: Black, Type: Rook}) || !res.Promoted {
		t.Fatalf("result = %+v", res)
	}
	if pc, _ := eng.PieceAt(mustSquare(t, "b8")); pc != (Piece{Color: White, Type: Queen}) {
		t.Fatalf("b8 = %v, want white queen", pc)
	}
	if got := eng.Outcome().Status; got != StatusCheck {
		t.Fatalf("status = %v, want check along the eighth rank", got)
	}
}

func TestSnapshotIsIndependentOfEngine(t *testing.T) {
	eng := NewEngine()
	play(t, eng, "e2e4", "d7d5")
	snap := eng.Snapshot()
	want := snap.State()

	play(t, eng, "e4d5")
	st := snap.State()
	st.MoveLog[0] = mustMove(t, "a2a3")
	st.Board.Remove(mustSquare(t, "e1"))
	st.Captured[White.Index()] = append(st.Captured[White.Index()], Queen)

	if got := snap.State(); !reflect.DeepEqual(got, want) {
		t.Fatalf("snapshot changed:\n got %+v\nwant %+v", got, want)
	}
	if n := snap.MoveCount(); n != 2 {
		t.Fatalf("snapshot move count = %d", n)
	}
}

func TestEventJSONRoundTrip(t *testing.T) {
	ev := Event{
		Kind:     EventCaptured,
		Move:     mustMove(t, "e4d5"),
		Side:     White,
		Captured: Pawn,
		Outcome:  Outcome{Status: StatusCheck},
	}
	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got Event
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal %s: %v", data, err)
	}
	if !reflect.DeepEqual(got, ev) {
		t.Fatalf("round trip = %+v, want %+v", got, ev)
	}

	var kind EventKind
	if err := kind.UnmarshalText([]byte("teleported")); err == nil {
		t.Fatalf("unknown kind accepted")
	}
}

func TestFENMoveCounters(t *testing.T) {
	eng := mustFEN(t, "4k3/8/8/8/8/8/4P3/4K3 b - - 10 40")
	play(t, eng, "e8d8")
	if got := eng.FEN(); got != "3k4/8/8/8/8/8/4P3/4K3 w - - 11 41" {
		t.Fatalf("after black move: %s", got)
	}
	play(t, eng, "e1d1")
	if got := eng.FEN(); got != "3k4/8/8/8/8/8/4P3/3K4 b - - 12 41" {
		t.Fatalf("after white move: %s", got)
	}
	play(t, eng, "d8c8", "e2e4")
	if got := eng.FEN(); got != "2k5/8/8/8/4P3/8/8/3K4 b - e3 0 42" {
		t.Fatalf("after pawn move: %s", got)
	}
	eng.Undo(1)
	if got := eng.FEN(); got != "2k5/8/8/8/8/8/4P3/3K4 w - - 13 42" {
		t.Fatalf("after undo: %s", got)
	}
}
