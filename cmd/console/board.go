package main

import (
	"fmt"
	"io"
	"strings"

	"chessx/internal/game"
)

const (
	whiteKing   = "♔"
	whiteQueen  = "♕"
	whiteRook   = "♖"
	whiteBishop = "♗"
	whiteKnight = "♘"
	whitePawn   = "♙"
	blackKing   = "♚"
	blackQueen  = "♛"
	blackRook   = "♜"
	blackBishop = "♝"
	blackKnight = "♞"
	blackPawn   = "♟"
)

const (
	fgBlack   = 30
	bgWhite   = 47
	bgRed     = 41
	bgYellow  = 43
	bgHiWhite = 107
)

var pieceSymbols = map[game.Piece]string{
	{Color: game.White, Type: game.King}:   whiteKing,
	{Color: game.White, Type: game.Queen}:  whiteQueen,
	{Color: game.White, Type: game.Rook}:   whiteRook,
	{Color: game.White, Type: game.Bishop}: whiteBishop,
	{Color: game.White, Type: game.Knight}: whiteKnight,
	{Color: game.White, Type: game.Pawn}:   whitePawn,
	{Color: game.Black, Type: game.King}:   blackKing,
	{Color: game.Black, Type: game.Queen}:  blackQueen,
	{Color: game.Black, Type: game.Rook}:   blackRook,
	{Color: game.Black, Type: game.Bishop}: blackBishop,
	{Color: game.Black, Type: game.Knight}: blackKnight,
	{Color: game.Black, Type: game.Pawn}:   blackPawn,
}

// printBoard draws the position with rank 8 on top. Highlighted squares get
// a yellow background and the checked king a red one.
func printBoard(w io.Writer, st game.BoardState, highlight map[game.Square]bool, color bool) {
	var squares [64]game.Piece
	for _, ps := range st.Pieces {
		if sq, ok := game.CoordToSquare(ps.Square); ok {
			squares[sq] = game.Piece{Color: ps.Color, Type: ps.Type}
		}
	}
	checked, hasChecked := game.CoordToSquare(st.CheckedKing)

	var b strings.Builder
	for rank := 0; rank < 8; rank++ {
		fmt.Fprintf(&b, "%d ", 8-rank)
		for file := 0; file < 8; file++ {
			sq, _ := game.SquareFromCoords(rank, file)
			mark := ""
			switch {
			case hasChecked && sq == checked:
				mark = "check"
			case highlight[sq]:
				mark = "target"
			}
			b.WriteString(squareString(squares[sq], (rank+file)%2 == 1, mark, color))
		}
		b.WriteByte('\n')
	}
	b.WriteString("  a b c d e f g h\n")
	io.WriteString(w, b.String())
}

func squareString(pc game.Piece, dark bool, mark string, color bool) string {
	s := pieceSymbols[pc]
	if !color {
		switch {
		case s == "" && mark == "target":
			s = "*"
		case s == "":
			s = "."
		}
		return s + " "
	}
	if s == "" {
		s = " "
	}
	s += " "
	var bg int
	switch {
	case mark == "check":
		bg = bgRed
	case mark == "target":
		bg = bgYellow
	case dark:
		bg = bgWhite
	default:
		bg = bgHiWhite
	}
	const escape = "\x1b"
	const reset = 0
	return fmt.Sprintf("%s[%d;%dm%s%s[%dm", escape, fgBlack, bg, s, escape, reset)
}
