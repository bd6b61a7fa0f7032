package game

import (
	"encoding/json"
	"fmt"
)

// Snapshot is an immutable copy of a GameState. It is what the undo/redo
// stacks hold and what gets persisted.
type Snapshot struct {
	state GameState
}

func NewSnapshot(s *GameState) Snapshot { return Snapshot{state: s.Clone()} }

// State returns a fresh copy of the captured state.
func (s Snapshot) State() GameState { return s.state.Clone() }

func (s Snapshot) Turn() Color { return s.state.Turn }

func (s Snapshot) Outcome() Outcome { return s.state.Outcome }

func (s Snapshot) MoveCount() int { return len(s.state.MoveLog) }

type snapshotRecord struct {
	Board     Board               `json:"board"`
	Turn      Color               `json:"turn"`
	Castling  CastlingRights      `json:"castling"`
	EnPassant EnPassantTarget     `json:"enPassant"`
	LastMove  *Move               `json:"lastMove,omitempty"`
	Outcome   Outcome             `json:"outcome"`
	MoveLog   []Move              `json:"moveLog"`
	Captured  map[string][]string `json:"captured,omitempty"`
	Origin    string              `json:"origin,omitempty"`
	Halfmove  int                 `json:"halfmove"`
	Fullmove  int                 `json:"fullmove,omitempty"`
}

func (s Snapshot) MarshalJSON() ([]byte, error) {
	st := &s.state
	rec := snapshotRecord{
		Board:     st.Board,
		Turn:      st.Turn,
		Castling:  st.Castling,
		EnPassant: st.EnPassant,
		Outcome:   st.Outcome,
		MoveLog:   st.MoveLog,
		Origin:    st.Origin,
		Halfmove:  st.HalfmoveClock,
		Fullmove:  st.Fullmove,
	}
	if rec.MoveLog == nil {
		rec.MoveLog = []Move{}
	}
	if st.HasLastMove {
		last := st.LastMove
		rec.LastMove = &last
	}
	for _, color := range []Color{White, Black} {
		taken := st.Captured[color.Index()]
		if len(taken) == 0 {
			continue
		}
		if rec.Captured == nil {
			rec.Captured = make(map[string][]string, 2)
		}
		names := make([]string, len(taken))
		for i, pt := range taken {
			names[i] = pt.String()
		}
		rec.Captured[color.String()] = names
	}
	return json.Marshal(rec)
}

// UnmarshalJSON restores a snapshot and checks its structural invariants.
// The stored outcome is recomputed from the position.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var rec snapshotRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	st := GameState{
		Board:     rec.Board,
		Turn:      rec.Turn,
		Castling:  rec.Castling,
		EnPassant: rec.EnPassant,
		MoveLog:   rec.MoveLog,
		Origin:    rec.Origin,

		HalfmoveClock: rec.Halfmove,
		Fullmove:      rec.Fullmove,
	}
	if st.Fullmove == 0 {
		st.Fullmove = 1 + len(st.MoveLog)/2
	}
	if rec.LastMove != nil {
		st.LastMove = *rec.LastMove
		st.HasLastMove = true
	}
	for name, taken := range rec.Captured {
		color, ok := parseColorName(name)
		if !ok {
			return fmt.Errorf("invalid captured side %q", name)
		}
		for _, t := range taken {
			pc, ok := ParsePiece(t)
			if !ok {
				return fmt.Errorf("invalid captured piece %q", t)
			}
			st.Captured[color.Index()] = append(st.Captured[color.Index()], pc.Type)
		}
	}
	if err := st.validate(); err != nil {
		return err
	}
	st.Outcome = st.evaluate()
	s.state = st
	return nil
}

func parseColorName(name string) (Color, bool) {
	var c Color
	if err := c.UnmarshalText([]byte(name)); err != nil {
		return White, false
	}
	return c, true
}

// SavedGame is the persisted form of a game: the current position and,
// optionally, both history stacks.
type SavedGame struct {
	Current Snapshot   `json:"current"`
	History []Snapshot `json:"history,omitempty"`
	Redo    []Snapshot `json:"redo,omitempty"`
}
