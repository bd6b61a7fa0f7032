package game

// View is a read-only picture of the game for a renderer. Targets holds the
// legal destinations of the selected square, if any.
type View struct {
	Board          Board
	Turn           Color
	Selected       Square
	HasSelection   bool
	Targets        []Square
	LastMove       Move
	HasLastMove    bool
	Outcome        Outcome
	CheckedKing    Square
	HasCheckedKing bool
}

// View returns the current picture. Pass a square the renderer has selected,
// or nil.
func (e *Engine) View(selected *Square) View {
	v := View{
		Board:       e.state.Board,
		Turn:        e.state.Turn,
		LastMove:    e.state.LastMove,
		HasLastMove: e.state.HasLastMove,
		Outcome:     e.state.Outcome,
	}
	v.CheckedKing, v.HasCheckedKing = e.state.CheckedKing()
	if selected != nil && selected.Valid() {
		v.Selected = *selected
		v.HasSelection = true
		v.Targets = e.LegalTargets(*selected)
	}
	return v
}

// PieceState is one occupied square in a BoardState.
type PieceState struct {
	Square string    `json:"square"`
	Color  Color     `json:"color"`
	Type   PieceType `json:"type"`
	Symbol string    `json:"symbol"`
}

// BoardState is a serializable representation of the game state.
type BoardState struct {
	Pieces      []PieceState           `json:"pieces"`
	Turn        Color                  `json:"turn"`
	Status      Status                 `json:"status"`
	Message     string                 `json:"message"`
	InCheck     bool                   `json:"inCheck"`
	CheckedKing string                 `json:"checkedKing,omitempty"`
	GameOver    bool                   `json:"gameOver"`
	HasWinner   bool                   `json:"hasWinner"`
	Winner      Color                  `json:"winner"`
	Castling    CastlingRights         `json:"castling"`
	EnPassant   EnPassantTarget        `json:"enPassant"`
	LastMove    string                 `json:"lastMove,omitempty"`
	MoveLog     []Move                 `json:"moveLog"`
	Captured    map[string][]PieceType `json:"captured"`
	CanUndo     bool                   `json:"canUndo"`
	CanRedo     bool                   `json:"canRedo"`
	FEN         string                 `json:"fen"`
}

// State builds the JSON-ready view of the game.
func (e *Engine) State() BoardState {
	st := &e.state
	bs := BoardState{
		Turn:      st.Turn,
		Status:    st.Outcome.Status,
		Message:   st.Outcome.String(),
		GameOver:  st.Outcome.Terminal(),
		HasWinner: st.Outcome.HasWinner,
		Winner:    st.Outcome.Winner,
		Castling:  st.Castling,
		EnPassant: st.EnPassant,
		MoveLog:   e.MoveLog(),
		Captured: map[string][]PieceType{
			White.String(): e.Captured(White),
			Black.String(): e.Captured(Black),
		},
		CanUndo: e.CanUndo(),
		CanRedo: e.CanRedo(),
		FEN:     st.FEN(),
	}
	for idx, pc := range st.Board.squares {
		if pc.Empty() {
			continue
		}
		bs.Pieces = append(bs.Pieces, PieceState{
			Square: Square(idx).String(),
			Color:  pc.Color,
			Type:   pc.Type,
			Symbol: pc.String(),
		})
	}
	if sq, ok := st.CheckedKing(); ok {
		bs.InCheck = true
		bs.CheckedKing = sq.String()
	}
	if st.HasLastMove {
		bs.LastMove = st.LastMove.String()
	}
	return bs
}
