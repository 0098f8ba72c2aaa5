package board

import (
	"errors"
	"testing"
)

func TestDuckGame(t *testing.T) {
	pos := mustFEN(t, "rnbqkbnr/pppppppp/8/7$/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")

	play := func(s string) {
		t.Helper()
		pos.MakeMove(mustParse(t, pos, s))
	}
	rejects := func(s string) {
		t.Helper()
		if m, err := ParseMove(s, pos); err == nil {
			t.Errorf("%s accepted as %s on %s", s, m.DebugString(), pos.ToFEN())
		}
	}

	play("e2e4")
	if !pos.DuckPending || pos.SideToMove != White {
		t.Fatalf("after e2e4: pending=%v side=%s", pos.DuckPending, pos.SideToMove)
	}
	for _, m := range pos.GenerateLegalMoves().Slice() {
		if !m.IsDuck() {
			t.Fatalf("non-duck move %s while placement pending", m)
		}
	}
	rejects("$@h5")
	rejects("$@e4")
	play("$@e6")

	rejects("e7e5")
	rejects("d7e6")
	want := "rnbqkbnr/pppppppp/4$3/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1"
	if got := pos.ToFEN(); got != want {
		t.Errorf("FEN = %s, want %s", got, want)
	}
	if pos.Duck != E6 {
		t.Errorf("duck on %s, want e6", pos.Duck)
	}

	for _, s := range []string{"d7d5", "$@e3", "f1b5", "$@f3"} {
		play(s)
	}
	if got := pos.State(); got != Check {
		t.Errorf("State() = %s, want CHECK", got)
	}
	// No self-check rule: black may ignore the bishop.
	play("f7f6")
	play("$@f4")
	play("b5e8")
	if got := pos.State(); got != Mate {
		t.Errorf("after king capture State() = %s, want MATE", got)
	}
	if pos.GenerateLegalMoves().Len() != 0 {
		t.Error("moves generated after the king was captured")
	}
}

func TestDuckBlocksSliders(t *testing.T) {
	pos := mustFEN(t, "4k3/8/8/8/4$3/8/8/4R1K1 w - - 0 1")
	if pos.IsSquareAttacked(E8, White) {
		t.Error("rook attacks e8 through the duck")
	}
	if !pos.IsSquareAttacked(E3, White) {
		t.Error("rook should attack e3")
	}

	pos = mustFEN(t, "4k3/8/8/8/8/8/8/$3R1K1 w - - 0 1")
	for _, m := range pos.GenerateLegalMoves().Slice() {
		if m.To == A1 {
			t.Errorf("%s lands on the duck", m)
		}
	}
	if _, err := ParseMove("e1b1", pos); err != nil {
		t.Errorf("e1b1 rejected: %v", err)
	}
}

func TestHouseDrops(t *testing.T) {
	pos := mustFEN(t, "4k3/8/8/3p4/4P3/8/8/4K3[] w - - 0 1")
	pos.MakeMove(mustParse(t, pos, "e4d5"))
	if got := pos.Pockets[White][Pawn]; got != 1 {
		t.Fatalf("white pawn pocket = %d, want 1", got)
	}
	if got, want := pos.ToFEN(), "4k3/8/8/3P4/8/8/8/4K3[P] b - - 0 1"; got != want {
		t.Errorf("FEN = %s, want %s", got, want)
	}

	pos.MakeMove(mustParse(t, pos, "e8e7"))
	drops := 0
	for _, m := range pos.GenerateLegalMoves().Slice() {
		if !m.IsDrop() {
			continue
		}
		drops++
		if m.To.Rank() == 0 || m.To.Rank() == 7 {
			t.Errorf("pawn drop on back rank: %s", m)
		}
	}
	// 48 squares on ranks 2-7 minus those of the black king and the d5 pawn.
	if drops != 46 {
		t.Errorf("%d pawn drops, want 46", drops)
	}

	m := mustParse(t, pos, "P@d6")
	if !m.GivesCheck() {
		t.Error("P@d6 should give check")
	}
	pos.MakeMove(m)
	if pos.Pockets[White][Pawn] != 0 || pos.PieceAt(D6) != WhitePawn {
		t.Error("drop did not move the pawn from pocket to board")
	}
	if got := pos.State(); got != Check {
		t.Errorf("State() = %s, want CHECK", got)
	}
}

func TestHouseDropMustAnswerCheck(t *testing.T) {
	pos := mustFEN(t, "4k3/8/8/8/8/8/8/r3K3[N] w - - 0 1")
	for _, m := range pos.GenerateLegalMoves().Slice() {
		if m.IsDrop() && (m.To < B1 || m.To > D1) {
			t.Errorf("drop %s leaves the king in check", m)
		}
	}
	if _, err := ParseMove("N@c1", pos); err != nil {
		t.Errorf("blocking drop rejected: %v", err)
	}
}

func TestBuilder(t *testing.T) {
	b := NewBuilder()
	b.Put(C8, King, Black)
	b.Put(A8, Rook, Black)
	b.Put(F1, King, White)
	b.Put(G1, Rook, White)
	b.SetCastlingsEPAnd50(true, true, true, true, NoSquare, 0)
	b.SetTurn(White)
	pos, err := b.Commit()
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if got, want := pos.ToFEN(), "r1k5/8/8/8/8/8/8/5KR1 w KQkq - 0 1"; got != want {
		t.Errorf("FEN = %s, want %s", got, want)
	}
	for _, m := range pos.GenerateLegalMoves().Slice() {
		if m.IsCastling() {
			t.Errorf("castling %s generated without king on its home square", m)
		}
	}

	b.Remove(C8)
	if _, err := b.Commit(); err == nil {
		t.Error("Commit accepted a missing king")
	}
	b.Put(C8, King, Black)
	b.Put(D8, Pawn, White)
	if _, err := b.Commit(); err == nil {
		t.Error("Commit accepted a pawn on the last rank")
	}
	b.Remove(D8)
	b.SetCastlingsEPAnd50(false, false, false, false, E3, 0)
	if _, err := b.Commit(); !errors.Is(err, ErrInvalidPosition) {
		t.Errorf("Commit with e3 en passant and White to move: %v", err)
	}
	b.SetCastlingsEPAnd50(false, false, false, false, NoSquare, 0)
	b.PutDuck(D4)
	pos, err = b.Commit()
	if err != nil {
		t.Fatalf("Commit with duck: %v", err)
	}
	if pos.Variant != DuckChess || pos.PieceAt(D4) != DuckPiece {
		t.Errorf("duck not committed: %s", pos.ToFEN())
	}
}

func TestSetVariant(t *testing.T) {
	pos := mustFEN(t, "rnbqkbnr/pppppppp/8/7$/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	pos.SetVariant(Standard)
	if got := pos.ToFEN(); got != StartFEN {
		t.Errorf("duck kept after leaving duck chess: %s", got)
	}
	if pos.Hash != NewPosition().Hash {
		t.Error("hash differs from the plain start position")
	}

	pos.SetVariant(House)
	if got := pos.ToFEN(); got != "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR[] w KQkq - 0 1" {
		t.Errorf("house FEN = %s", got)
	}
	pos.SetVariant(DuckChess)
	if pos.Duck != NoSquare || pos.HasPocketPieces() {
		t.Errorf("duck %s, pockets %v", pos.Duck, pos.Pockets)
	}
	if n := pos.GenerateLegalMoves().Len(); n != 20 {
		t.Errorf("%d moves in duck chess before the first placement, want 20", n)
	}
}
