package game

// History keeps the undo and redo stacks of snapshots. Redo is only filled
// by Undo and is dropped by every new Commit.
type History struct {
	undo []Snapshot
	redo []Snapshot
}

// Commit records the state from before a move.
func (h *History) Commit(before Snapshot) {
	h.undo = append(h.undo, before)
	h.redo = nil
}

// Undo pops the latest snapshot, pushing current onto the redo stack.
func (h *History) Undo(current Snapshot) (Snapshot, bool) {
	if len(h.undo) == 0 {
		return Snapshot{}, false
	}
	idx := len(h.undo) - 1
	prev := h.undo[idx]
	h.undo = h.undo[:idx]
	h.redo = append(h.redo, current)
	return prev, true
}

// Redo pops the latest redo snapshot, pushing current onto the undo stack.
func (h *History) Redo(current Snapshot) (Snapshot, bool) {
	if len(h.redo) == 0 {
		return Snapshot{}, false
	}
	idx := len(h.redo) - 1
	next := h.redo[idx]
	h.redo = h.redo[:idx]
	h.undo = append(h.undo, current)
	return next, true
}

func (h *History) CanUndo() bool { return len(h.undo) > 0 }

func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// Depth returns the sizes of the undo and redo stacks.
func (h *History) Depth() (undo, redo int) { return len(h.undo), len(h.redo) }

func (h *History) Clear() {
	h.undo = nil
	h.redo = nil
}

// Stacks returns copies of both stacks, oldest first.
func (h *History) Stacks() (undo, redo []Snapshot) {
	return append([]Snapshot(nil), h.undo...), append([]Snapshot(nil), h.redo...)
}

func (h *History) Restore(undo, redo []Snapshot) {
	h.undo = append([]Snapshot(nil), undo...)
	h.redo = append([]Snapshot(nil), redo...)
}
