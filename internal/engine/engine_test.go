package engine

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/hailam/duckplay/internal/board"
)

func mustFEN(t *testing.T, fen string) *board.Position {
	t.Helper()
	pos, err := board.ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN(%q): %v", fen, err)
	}
	return pos
}

func TestSearchBasic(t *testing.T) {
	pos := board.NewPosition()
	eng := NewEngine(WithHashSize(4))

	move, err := eng.SearchWithLimits(pos, SearchLimits{Depth: 3})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if !pos.IsLegal(move) {
		t.Errorf("search returned illegal move %s", move)
	}
	t.Logf("Best move: %s", move.String())
}

func TestSearchFindsMate(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		want string
	}{
		{"rook mate", "8/8/8/8/8/r2k4/8/3K4 b - - 0 1", "a3a1"},
		{"only move", "2Q5/5pk1/8/8/1b6/1b6/r3n1P1/2K5 w - - 0 1", "c1b1"},
		{"queen drop", "k7/8/1K6/8/8/8/8/8[Q] w - - 0 1", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos := mustFEN(t, tt.fen)
			eng := NewEngine(WithHashSize(4))

			move, err := eng.SearchWithLimits(pos, SearchLimits{Depth: 3})
			if err != nil {
				t.Fatalf("search: %v", err)
			}
			if tt.want != "" && move.String() != tt.want {
				t.Errorf("got %s, want %s", move, tt.want)
			}
			pos.MakeMove(move)
			if tt.want == "" && pos.State() != board.Mate {
				t.Errorf("%s does not mate, state %s", move, pos.State())
			}
		})
	}
}

func TestSearchNoLegalMoves(t *testing.T) {
	pos := mustFEN(t, "R4k2/8/5K2/8/8/8/8/8 b - - 0 1")
	eng := NewEngine(WithHashSize(1))

	move, err := eng.Search(pos, 100*time.Millisecond)
	if !errors.Is(err, ErrNoLegalMoves) {
		t.Fatalf("err = %v, want ErrNoLegalMoves", err)
	}
	if move != board.NoMove {
		t.Errorf("move = %s, want none", move)
	}
}

func TestSearchDeterministic(t *testing.T) {
	tests := []struct {
		fen   string
		depth int
	}{
		{board.StartFEN, 4},
		{"r1bqkbnr/pppp1ppp/2n5/8/3pP3/5N2/PPP2PPP/RNBQKB1R w KQkq - 0 4", 3},
		{"rnbqkbnr/pppppppp/8/8/4$3/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1", 2},
	}
	for _, tt := range tests {
		limits := SearchLimits{Depth: tt.depth}
		first, err := NewEngine(WithHashSize(2)).SearchWithLimits(mustFEN(t, tt.fen), limits)
		if err != nil {
			t.Fatalf("%s: %v", tt.fen, err)
		}
		eng := NewEngine(WithHashSize(2))
		for i := 0; i < 2; i++ {
			again, err := eng.SearchWithLimits(mustFEN(t, tt.fen), limits)
			if err != nil {
				t.Fatalf("%s: %v", tt.fen, err)
			}
			if again != first {
				t.Errorf("%s: run %d chose %s, first run chose %s", tt.fen, i, again, first)
			}
		}
	}
}

func TestSearchLeavesPositionUntouched(t *testing.T) {
	pos := mustFEN(t, "r1bqkbnr/pppp1ppp/2n5/8/3pP3/5N2/PPP2PPP/RNBQKB1R w KQkq - 0 4")
	fen, hash, history := pos.ToFEN(), pos.Hash, len(pos.History)

	if _, err := NewEngine().SearchWithLimits(pos, SearchLimits{Depth: 3}); err != nil {
		t.Fatalf("search: %v", err)
	}
	if pos.ToFEN() != fen || pos.Hash != hash || len(pos.History) != history {
		t.Errorf("position changed: %s", pos.ToFEN())
	}
}

func TestDuckSearch(t *testing.T) {
	pos := mustFEN(t, "rnbqkbnr/pppppppp/8/8/4$3/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	eng := NewEngine(WithHashSize(2))

	move, err := eng.SearchWithLimits(pos, SearchLimits{Depth: 2})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if move.IsDuck() {
		t.Fatalf("expected a piece move first, got %s", move)
	}
	pos.MakeMove(move)
	if !pos.DuckPending {
		t.Fatal("no duck placement pending after a piece move")
	}

	duck, err := eng.SearchWithLimits(pos, SearchLimits{Depth: 2})
	if err != nil {
		t.Fatalf("duck search: %v", err)
	}
	if !duck.IsDuck() || !pos.IsLegal(duck) {
		t.Fatalf("expected a legal duck placement, got %s", duck)
	}
	pos.MakeMove(duck)
	if pos.SideToMove != board.Black || pos.DuckPending {
		t.Errorf("turn did not pass after the duck: %s", pos.ToFEN())
	}
}

func TestDuckSearchCapturesKing(t *testing.T) {
	pos := mustFEN(t, "4k3/8/8/8/8/8/$7/4RK2 w - - 0 1")
	eng := NewEngine(WithHashSize(1))

	move, err := eng.SearchWithLimits(pos, SearchLimits{Depth: 2})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if move.String() != "e1e8" {
		t.Fatalf("got %s, want e1e8", move)
	}
	pos.MakeMove(move)
	if pos.State() != board.Mate {
		t.Errorf("state after king capture = %s, want MATE", pos.State())
	}
}

func TestSearchLimits(t *testing.T) {
	t.Run("nodes", func(t *testing.T) {
		pos := board.NewPosition()
		move, err := NewEngine(WithHashSize(1)).SearchWithLimits(pos, SearchLimits{Nodes: 1})
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if !pos.IsLegal(move) {
			t.Errorf("illegal fallback move %s", move)
		}
	})

	t.Run("stop", func(t *testing.T) {
		pos := board.NewPosition()
		eng := NewEngine(WithHashSize(1))

		done := make(chan board.Move, 1)
		go func() {
			move, _ := eng.SearchWithLimits(pos.Copy(), SearchLimits{Infinite: true})
			done <- move
		}()
		time.Sleep(50 * time.Millisecond)
		eng.Stop()

		select {
		case move := <-done:
			if !pos.IsLegal(move) {
				t.Errorf("illegal move after stop: %s", move)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("search did not stop")
		}
	})

	t.Run("cancelled before start", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		pos := board.NewPosition()
		move, err := NewEngine(WithHashSize(1)).SearchContext(ctx, pos, SearchLimits{Infinite: true})
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if !pos.IsLegal(move) {
			t.Errorf("illegal move after cancel: %s", move)
		}
	})

	t.Run("deadline with full pockets", func(t *testing.T) {
		const fen = "r1bqk2r/pppp1ppp/2n2n2/2b1p3/2B1P3/2N2N2/PPPP1PPP/R1BQK2R[QRRBBNNPPPPqrrbbnnpppp] w KQkq - 0 1"
		eng := NewEngine(WithHashSize(1))
		for _, budget := range []time.Duration{5 * time.Millisecond, 10 * time.Millisecond, 20 * time.Millisecond} {
			pos := mustFEN(t, fen)
			start := time.Now()
			if _, err := eng.Search(pos, budget); err != nil {
				t.Fatalf("search: %v", err)
			}
			if elapsed := time.Since(start); elapsed > budget+4*time.Millisecond {
				t.Errorf("search took %v on a %v budget", elapsed, budget)
			}
		}
	})

	t.Run("budget", func(t *testing.T) {
		pos := board.NewPosition()
		start := time.Now()
		move, err := NewEngine(WithHashSize(1)).Search(pos, 200*time.Millisecond)
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if elapsed := time.Since(start); elapsed > 2*time.Second {
			t.Errorf("search took %v on a 200ms budget", elapsed)
		}
		if !pos.IsLegal(move) {
			t.Errorf("illegal move %s", move)
		}
	})
}

func TestSearchInfo(t *testing.T) {
	eng := NewEngine(WithHashSize(1))
	var depths []int
	eng.OnInfo = func(info SearchInfo) {
		depths = append(depths, info.Depth)
		if len(info.PV) == 0 {
			t.Errorf("depth %d reported an empty PV", info.Depth)
		}
	}
	if _, err := eng.SearchWithLimits(board.NewPosition(), SearchLimits{Depth: 3}); err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(depths) != 3 || depths[2] != 3 {
		t.Errorf("reported depths %v, want [1 2 3]", depths)
	}
}

func TestEvaluateSymmetric(t *testing.T) {
	for _, fen := range []string{
		board.StartFEN,
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR b KQkq - 0 1",
	} {
		if got := Evaluate(mustFEN(t, fen)); got != tempoBonus {
			t.Errorf("Evaluate(%s) = %d, want %d", fen, got, tempoBonus)
		}
	}

	// A piece in hand is worth more than nothing.
	with := Evaluate(mustFEN(t, "4k3/8/8/8/8/8/8/4K3[N] w - - 0 1"))
	without := Evaluate(mustFEN(t, "4k3/8/8/8/8/8/8/4K3[] w - - 0 1"))
	if with <= without+KnightValue {
		t.Errorf("pocket knight scored %d, bare kings %d", with, without)
	}
}

func TestPawnHashTable(t *testing.T) {
	pt := NewPawnTable(1)
	pos := board.NewPosition()
	white := pos.Pieces[board.White][board.Pawn]
	black := pos.Pieces[board.Black][board.Pawn]

	if _, _, found := pt.Probe(white, black); found {
		t.Error("Expected cache miss on first probe")
	}

	pt.Store(white, black, -15, -20)
	mg, eg, found := pt.Probe(white, black)
	if !found {
		t.Fatal("Expected cache hit after store")
	}
	if mg != -15 || eg != -20 {
		t.Errorf("Wrong values: got mg=%d, eg=%d, want -15, -20", mg, eg)
	}

	if _, _, found := pt.Probe(white&^board.SquareBB(board.E2), black); found {
		t.Error("Different pawn structure hit the cache")
	}
}

func TestScoreToString(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{0, "0.00"},
		{5, "0.05"},
		{-150, "-1.50"},
		{MateScore - 1, "Mate in 1"},
		{MateScore - 3, "Mate in 2"},
		{-MateScore + 2, "Mated in 1"},
	}
	for _, tt := range tests {
		if got := ScoreToString(tt.score); got != tt.want {
			t.Errorf("ScoreToString(%d) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestPerft(t *testing.T) {
	eng := NewEngine(WithHashSize(1))
	if got := eng.Perft(board.NewPosition(), 3); got != 8902 {
		t.Errorf("perft(3) = %d, want 8902", got)
	}
	// The duck on e4 stops e2e4; every other move leaves 31 empty
	// squares for the duck.
	duck := mustFEN(t, "rnbqkbnr/pppppppp/8/8/4$3/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	if got := eng.Perft(duck, 2); got != 19*31 {
		t.Errorf("duck perft(2) = %d, want %d", got, 19*31)
	}
}

func TestDuckPlacementOrder(t *testing.T) {
	pos := mustFEN(t, "rnbqkbnr/pppppppp/8/7$/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	m, err := board.ParseMove("e2e4", pos)
	if err != nil {
		t.Fatal(err)
	}
	pos.MakeMove(m)

	moves := pos.GenerateLegalMoves()
	if moves.Len() < 5 {
		t.Fatalf("%d duck placements", moves.Len())
	}
	generated := slices.Clone(moves.Slice())
	ttMove := generated[3]

	scores := NewMoveOrderer().ScoreMoves(pos, moves, 0, ttMove)
	for i, score := range scores {
		want := 0
		if i == 3 {
			want = TTMoveScore
		}
		if score != want {
			t.Errorf("score of %s = %d, want %d", generated[i], score, want)
		}
	}

	for i := 0; i < moves.Len(); i++ {
		PickMove(moves, scores, i)
	}
	want := slices.Clone(generated)
	want[0], want[3] = ttMove, generated[0]
	if got := moves.Slice(); !slices.Equal(got, want) {
		t.Errorf("picked order %v, want %v", got, want)
	}
}
