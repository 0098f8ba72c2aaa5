package board

import "testing"

func TestMoveCodeRoundTrip(t *testing.T) {
	fens := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
		"r3k3/8/8/8/8/8/8/4K3[QNPp] w q - 0 1",
		"8/8/8/8/k2Pp2R/8/8/4K3 b - d3 0 1",
	}
	for _, fen := range fens {
		pos := mustFEN(t, fen)
		for _, m := range pos.GenerateLegalMoves().Slice() {
			if got := DecodeMove(m.Encode()); got != m {
				t.Errorf("%s: DecodeMove(Encode(%s)) = %s", fen, m.DebugString(), got.DebugString())
			}
		}
	}

	duck := mustFEN(t, "rnbqkbnr/pppppppp/8/7$/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	duck.MakeMove(mustParse(t, duck, "e2e4"))
	for _, m := range duck.GenerateLegalMoves().Slice() {
		if got := DecodeMove(m.Encode()); got != m {
			t.Errorf("duck: DecodeMove(Encode(%s)) = %s", m.DebugString(), got.DebugString())
		}
	}

	if NoMove.Encode() != 0 || DecodeMove(0) != NoMove {
		t.Error("NoMove must encode to 0")
	}
}

func mustParse(t *testing.T, pos *Position, s string) Move {
	t.Helper()
	m, err := ParseMove(s, pos)
	if err != nil {
		t.Fatalf("ParseMove(%q) on %s: %v", s, pos.ToFEN(), err)
	}
	return m
}

func TestMoveStrings(t *testing.T) {
	pos := mustFEN(t, "rnbqkbnr/pppp1ppp/4p3/8/6P1/5P2/PPPPP2P/RNBQKBNR b KQkq - 0 2")
	m := mustParse(t, pos, "d8h4")
	tests := []struct {
		got, want string
	}{
		{m.String(), "d8h4"},
		{m.DebugString(), "Qd8-h4+"},
		{m.ToSAN(pos), "Qh4#"},
		{NewPromotion(E7, E8, NoPieceType, Knight).String(), "e7e8n"},
		{NewDrop(Knight, E4).String(), "N@e4"},
		{NewDuckMove(H5, E6).String(), "$@e6"},
		{NewMove(E5, D4, Pawn, Pawn).DebugString(), "Pe5xd4"},
	}
	for _, tc := range tests {
		if tc.got != tc.want {
			t.Errorf("got %q, want %q", tc.got, tc.want)
		}
	}
}

func TestParseSAN(t *testing.T) {
	pos := NewPosition()
	for _, san := range []string{"e4", "e5", "Nf3", "Nc6", "Bb5", "a6", "O-O"} {
		m, err := ParseSAN(san, pos)
		if err != nil {
			t.Fatalf("ParseSAN(%q): %v", san, err)
		}
		if got := m.ToSAN(pos); got != san {
			t.Errorf("ToSAN = %q, want %q", got, san)
		}
		pos.MakeMove(m)
	}
	want := "r1bqkbnr/1ppp1ppp/p1n5/1B2p3/4P3/5N2/PPPP1PPP/RNBQ1RK1 b kq - 1 4"
	if got := pos.ToFEN(); got != want {
		t.Errorf("FEN = %s, want %s", got, want)
	}
}
