// Package game implements the Tic-Tac-Toe engine behind the
// TICTACTOE_INVITE, TICTACTOE_MOVE and TICTACTOE_RESULT messages.
package game

import (
	"errors"
	"fmt"
	"strings"
)

const (
	SymbolX byte = 'X'
	SymbolO byte = 'O'
)

// Result field values announced when a game ends.
const (
	ResultWin  = "WIN"
	ResultLoss = "LOSS"
	ResultDraw = "DRAW"
)

var (
	ErrBadPosition = errors.New("position out of range")
	ErrOccupied    = errors.New("cell already taken")
	ErrWrongTurn   = errors.New("not this symbol's turn")
	ErrFinished    = errors.New("game already finished")
	ErrNotYourGame = errors.New("move is not yours to make")
)

// winningLines are the 8 ways to win: 3 rows, 3 columns, 2 diagonals.
var winningLines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// Board holds the 9 cells, positions 0 through 8 reading left to
// right, top to bottom. A zero byte is an empty cell.
type Board [9]byte

func (b *Board) place(pos int, symbol byte) error {
	if pos < 0 || pos > 8 {
		return ErrBadPosition
	}
	if b[pos] != 0 {
		return ErrOccupied
	}
	b[pos] = symbol
	return nil
}

// Winner returns the winning symbol and its line, if any.
func (b Board) Winner() (byte, [3]int, bool) {
	for _, line := range winningLines {
		s := b[line[0]]
		if s != 0 && s == b[line[1]] && s == b[line[2]] {
			return s, line, true
		}
	}
	return 0, [3]int{}, false
}

// Full reports whether every cell is taken.
func (b Board) Full() bool {
	for _, c := range b {
		if c == 0 {
			return false
		}
	}
	return true
}

// String renders the board for the console, empty cells showing
// their position number.
func (b Board) String() string {
	cell := func(i int) string {
		if b[i] == 0 {
			return fmt.Sprintf("%d", i)
		}
		return string(b[i])
	}
	var sb strings.Builder
	for row := 0; row < 3; row++ {
		sb.WriteString(fmt.Sprintf(" %s | %s | %s \n", cell(row*3), cell(row*3+1), cell(row*3+2)))
		if row < 2 {
			sb.WriteString("---+---+---\n")
		}
	}
	return sb.String()
}

// Game is one session against a peer. X always moves first.
type Game struct {
	ID          string
	Opponent    string
	LocalSymbol byte
	Board       Board
	NextTurn    byte
	Turn        int
	Finished    bool
	Winner      byte
	Line        [3]int
}

// apply places a symbol, enforcing turn order, and settles the game
// state afterwards.
func (g *Game) apply(pos int, symbol byte) error {
	if g.Finished {
		return ErrFinished
	}
	if symbol != g.NextTurn {
		return ErrWrongTurn
	}
	if err := g.Board.place(pos, symbol); err != nil {
		return err
	}

	g.Turn++
	if winner, line, won := g.Board.Winner(); won {
		g.Finished = true
		g.Winner = winner
		g.Line = line
	} else if g.Board.Full() {
		g.Finished = true
	} else if symbol == SymbolX {
		g.NextTurn = SymbolO
	} else {
		g.NextTurn = SymbolX
	}
	return nil
}

// Outcome reports the finished game from the local player's side.
func (g *Game) Outcome() string {
	if !g.Finished {
		return ""
	}
	switch g.Winner {
	case 0:
		return ResultDraw
	case g.LocalSymbol:
		return ResultWin
	default:
		return ResultLoss
	}
}

// Other returns the opposing symbol.
func Other(symbol byte) byte {
	if symbol == SymbolX {
		return SymbolO
	}
	return SymbolX
}

// FormatLine renders a winning line as it rides the wire, e.g.
// "0,4,8".
func FormatLine(line [3]int) string {
	return fmt.Sprintf("%d,%d,%d", line[0], line[1], line[2])
}
