package game

import (
	"errors"
	"strings"
	"testing"
)

func TestGameWinDetection(t *testing.T) {
	g := &Game{LocalSymbol: SymbolX, NextTurn: SymbolX}

	// X takes the top row: 0, 1, 2
	moves := []struct {
		pos    int
		symbol byte
	}{
		{0, SymbolX}, {3, SymbolO},
		{1, SymbolX}, {4, SymbolO},
		{2, SymbolX},
	}
	for _, mv := range moves {
		if err := g.apply(mv.pos, mv.symbol); err != nil {
			t.Fatalf("apply(%d, %c): %v", mv.pos, mv.symbol, err)
		}
	}

	if !g.Finished || g.Winner != SymbolX {
		t.Fatalf("Finished=%v Winner=%c, want finished X win", g.Finished, g.Winner)
	}
	if g.Line != [3]int{0, 1, 2} {
		t.Errorf("Line = %v, want [0 1 2]", g.Line)
	}
	if g.Outcome() != ResultWin {
		t.Errorf("Outcome = %q, want %q", g.Outcome(), ResultWin)
	}
	if FormatLine(g.Line) != "0,1,2" {
		t.Errorf("FormatLine = %q", FormatLine(g.Line))
	}

	if err := g.apply(5, SymbolO); !errors.Is(err, ErrFinished) {
		t.Errorf("move after win err = %v, want ErrFinished", err)
	}
}

func TestGameDiagonalAndColumnWins(t *testing.T) {
	tests := []struct {
		name  string
		cells [3]int
	}{
		{"left column", [3]int{0, 3, 6}},
		{"main diagonal", [3]int{0, 4, 8}},
		{"anti diagonal", [3]int{2, 4, 6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b Board
			for _, pos := range tt.cells {
				b[pos] = SymbolO
			}
			winner, line, won := b.Winner()
			if !won || winner != SymbolO || line != tt.cells {
				t.Errorf("Winner() = %c %v %v", winner, line, won)
			}
		})
	}
}

func TestGameDraw(t *testing.T) {
	g := &Game{LocalSymbol: SymbolO, NextTurn: SymbolX}

	// X O X / X O O / O X X leaves no line
	seq := []struct {
		pos    int
		symbol byte
	}{
		{0, SymbolX}, {1, SymbolO}, {2, SymbolX},
		{4, SymbolO}, {3, SymbolX}, {5, SymbolO},
		{7, SymbolX}, {6, SymbolO}, {8, SymbolX},
	}
	for _, mv := range seq {
		if err := g.apply(mv.pos, mv.symbol); err != nil {
			t.Fatalf("apply(%d, %c): %v", mv.pos, mv.symbol, err)
		}
	}

	if !g.Finished || g.Winner != 0 {
		t.Fatalf("Finished=%v Winner=%v, want finished draw", g.Finished, g.Winner)
	}
	if g.Outcome() != ResultDraw {
		t.Errorf("Outcome = %q, want %q", g.Outcome(), ResultDraw)
	}
}

func TestGameMoveValidation(t *testing.T) {
	g := &Game{LocalSymbol: SymbolX, NextTurn: SymbolX}

	if err := g.apply(9, SymbolX); !errors.Is(err, ErrBadPosition) {
		t.Errorf("out of range err = %v", err)
	}
	if err := g.apply(-1, SymbolX); !errors.Is(err, ErrBadPosition) {
		t.Errorf("negative err = %v", err)
	}
	if err := g.apply(4, SymbolO); !errors.Is(err, ErrWrongTurn) {
		t.Errorf("O before X err = %v", err)
	}
	if err := g.apply(4, SymbolX); err != nil {
		t.Fatalf("valid move: %v", err)
	}
	if err := g.apply(4, SymbolO); !errors.Is(err, ErrOccupied) {
		t.Errorf("occupied err = %v", err)
	}
	if g.Turn != 1 {
		t.Errorf("Turn = %d after one valid move", g.Turn)
	}
}

func TestBoardString(t *testing.T) {
	var b Board
	b[4] = SymbolX
	s := b.String()
	if !strings.Contains(s, "X") || !strings.Contains(s, "0") {
		t.Errorf("render missing cells:\n%s", s)
	}
}
