package board

import (
	"sort"
	"strings"
	"testing"

	"github.com/dylhunn/dragontoothmg"
)

// perft counts the number of leaf nodes at the given depth.
func perft(p *Position, depth int) int64 {
	if depth == 0 {
		return 1
	}

	moves := p.GenerateLegalMoves()
	if depth == 1 {
		return int64(moves.Len())
	}

	var nodes int64
	for i := 0; i < moves.Len(); i++ {
		undo := p.MakeMove(moves.Get(i))
		nodes += perft(p, depth-1)
		p.UnmakeMove(undo)
	}
	return nodes
}

func TestPerft(t *testing.T) {
	tests := []struct {
		name     string
		fen      string
		expected []int64 // indexed by depth-1
	}{
		{"start", StartFEN, []int64{20, 400, 8902, 197281}},
		{"kiwipete", "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -", []int64{48, 2039, 97862}},
		{"position3", "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - -", []int64{14, 191, 2812, 43238}},
		{"position4", "r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1", []int64{6, 264, 9467}},
		{"position5", "rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8", []int64{44, 1486, 62379}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pos, err := ParseFEN(tc.fen)
			if err != nil {
				t.Fatalf("Failed to parse FEN: %v", err)
			}
			for i, want := range tc.expected {
				if got := perft(pos, i+1); got != want {
					t.Errorf("perft(%d) = %d, want %d", i+1, got, want)
				}
			}
			if got := pos.ToFEN(); got != mustFEN(t, tc.fen).ToFEN() {
				t.Errorf("position changed by perft: %s", got)
			}
		})
	}
}

func mustFEN(t *testing.T, fen string) *Position {
	t.Helper()
	pos, err := ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN(%q): %v", fen, err)
	}
	return pos
}

// TestPerftEnPassantPin checks the horizontal pin that forbids e4xd3:
// removing both pawns would expose the black king on a4 to the rook on h4.
func TestPerftEnPassantPin(t *testing.T) {
	pos := mustFEN(t, "8/8/8/8/k2Pp2R/8/8/4K3 b - d3 0 1")

	for _, m := range pos.GenerateLegalMoves().Slice() {
		if m.IsEnPassant() {
			t.Errorf("En passant move %v should be illegal (horizontal pin)", m)
		}
	}
	if got := perft(pos, 1); got != 6 {
		t.Errorf("perft(1) = %d, want 6", got)
	}
	if got := perft(pos, 2); got != 94 {
		t.Errorf("perft(2) = %d, want 94", got)
	}
}

func sortedUCI(moves []string) []string {
	for i := range moves {
		moves[i] = strings.ToLower(moves[i])
	}
	sort.Strings(moves)
	return moves
}

// TestMoveGenMatchesReference walks a few plies from several positions
// and compares every legal move set against dragontoothmg.
func TestMoveGenMatchesReference(t *testing.T) {
	fens := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
		"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
		"r3k2r/8/8/8/3pPp2/8/8/R3K1R1 b Qkq e3 0 1",
	}

	var walk func(t *testing.T, pos *Position, ref *dragontoothmg.Board, depth int)
	walk = func(t *testing.T, pos *Position, ref *dragontoothmg.Board, depth int) {
		ours := pos.GenerateLegalMoves()
		var got []string
		for _, m := range ours.Slice() {
			got = append(got, m.String())
		}
		var want []string
		for _, m := range ref.GenerateLegalMoves() {
			want = append(want, m.String())
		}
		got, want = sortedUCI(got), sortedUCI(want)
		if len(got) != len(want) {
			t.Fatalf("%s: %d moves, reference has %d\n got: %v\nwant: %v", pos.ToFEN(), len(got), len(want), got, want)
		}
		for i := range got {
			if got[i] != want[i] {
				t.Fatalf("%s: move lists differ at %d: %s vs %s", pos.ToFEN(), i, got[i], want[i])
			}
		}
		if depth == 0 {
			return
		}
		refMoves := ref.GenerateLegalMoves()
		for _, m := range ours.Slice() {
			for i := range refMoves {
				if !strings.EqualFold(refMoves[i].String(), m.String()) {
					continue
				}
				undo := pos.MakeMove(m)
				unapply := ref.Apply(refMoves[i])
				walk(t, pos, ref, depth-1)
				unapply()
				pos.UnmakeMove(undo)
				break
			}
		}
	}

	for _, fen := range fens {
		pos := mustFEN(t, fen)
		ref := dragontoothmg.ParseFen(fen)
		walk(t, pos, &ref, 1)
	}
}
