package shared

// Delta is a (row, file) step on the board.
type Delta struct {
	DR int
	DF int
}

var (
	RookDirections = [...]Delta{
		{DR: 1, DF: 0},
		{DR: -1, DF: 0},
		{DR: 0, DF: 1},
		{DR: 0, DF: -1},
	}
	BishopDirections = [...]Delta{
		{DR: 1, DF: 1},
		{DR: 1, DF: -1},
		{DR: -1, DF: 1},
		{DR: -1, DF: -1},
	}
	KnightOffsets = [...]Delta{
		{DR: 2, DF: 1},
		{DR: 1, DF: 2},
		{DR: -1, DF: 2},
		{DR: -2, DF: 1},
		{DR: -2, DF: -1},
		{DR: -1, DF: -2},
		{DR: 1, DF: -2},
		{DR: 2, DF: -1},
	}
	KingOffsets = [...]Delta{
		{DR: 1, DF: 0}, {DR: 1, DF: 1}, {DR: 0, DF: 1}, {DR: -1, DF: 1},
		{DR: -1, DF: 0}, {DR: -1, DF: -1}, {DR: 0, DF: -1}, {DR: 1, DF: -1},
	}
)

// Step returns the square d away from s, if it is on the board.
func Step(s Square, d Delta) (Square, bool) {
	return SquareFromCoords(s.Rank()+d.DR, s.File()+d.DF)
}

// Line returns the squares strictly between from and to when they share a
// rank, file or diagonal; nil otherwise.
func Line(from, to Square) []Square {
	dr := to.Rank() - from.Rank()
	df := to.File() - from.File()
	stepR := normalize(dr)
	stepF := normalize(df)

	aligned := false
	switch {
	case dr == 0 && df != 0:
		aligned = true
	case df == 0 && dr != 0:
		aligned = true
	case abs(dr) == abs(df) && dr != 0:
		aligned = true
	}

	if !aligned {
		return nil
	}

	distance := max(abs(dr), abs(df)) - 1
	if distance <= 0 {
		return nil
	}

	squares := make([]Square, 0, distance)
	rank := from.Rank()
	file := from.File()
	for i := 0; i < distance; i++ {
		rank += stepR
		file += stepF
		sq, ok := SquareFromCoords(rank, file)
		if !ok {
			return nil
		}
		squares = append(squares, sq)
	}
	return squares
}

func normalize(v int) int {
	if v > 0 {
		return 1
	}
	if v < 0 {
		return -1
	}
	return 0
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
