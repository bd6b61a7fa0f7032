package suggest

import (
	"context"
	"testing"

	"chessx/internal/game"
)

func TestLocalEngineStrongLevelPrefersCheckThenCapture(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		want string
	}{
		{"Capture", "4k3/8/8/3q4/4P3/8/8/4K3 w - - 0 1", "e4d5"},
		{"CheckOverQuietMove", "4k3/8/8/8/8/8/8/R3K3 w - - 0 1", "a1a8"},
		{"BiggerCapture", "4k3/8/8/2r1n3/3P4/8/8/4K3 w - - 0 1", "d4c5"},
	}
	ctx := context.Background()
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			e := NewLocalEngine(1)
			if err := e.NewGame(ctx, tt.fen); err != nil {
				t.Fatalf("new game: %v", err)
			}
			got, err := e.BestMove(ctx, 2)
			if err != nil {
				t.Fatalf("best move: %v", err)
			}
			if got != tt.want {
				t.Fatalf("best move = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestLocalEngineSeededRandomIsRepeatable(t *testing.T) {
	ctx := context.Background()
	pick := func() string {
		e := NewLocalEngine(42)
		if err := e.Play(ctx, "e2e4", "e7e5"); err != nil {
			t.Fatalf("play: %v", err)
		}
		m, err := e.BestMove(ctx, 1)
		if err != nil {
			t.Fatalf("best move: %v", err)
		}
		return m
	}
	first, second := pick(), pick()
	if first != second {
		t.Fatalf("same seed gave %s and %s", first, second)
	}
}

func TestLocalEngineRejectsIllegalReplay(t *testing.T) {
	e := NewLocalEngine(1)
	if err := e.Play(context.Background(), "e2e5"); err == nil {
		t.Fatalf("expected error for illegal move")
	}
}

func TestLocalEngineAcceptsShortFEN(t *testing.T) {
	e := NewLocalEngine(1)
	if err := e.NewGame(context.Background(), "4k3/8/8/8/8/8/4P3/4K3 w - -"); err != nil {
		t.Fatalf("new game: %v", err)
	}
}

func TestAdapterWithLocalEngineAlwaysLegal(t *testing.T) {
	ctx := context.Background()
	eng := game.NewEngine()
	a := NewAdapter(NewLocalEngine(7))
	for ply := 0; ply < 30 && !eng.Outcome().Terminal(); ply++ {
		s, err := a.Suggest(ctx, eng, 1+ply%3)
		if err != nil {
			t.Fatalf("ply %d: %v", ply, err)
		}
		if s.Fallback {
			t.Fatalf("ply %d: local engine fell out of sync", ply)
		}
		if _, err := eng.Move(s.Move); err != nil {
			t.Fatalf("ply %d: suggested %s rejected: %v", ply, s.Move, err)
		}
		if ply == 10 {
			eng.Undo(3)
			a.Invalidate()
		}
	}
}
