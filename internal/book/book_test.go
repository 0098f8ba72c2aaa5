package book

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hailam/duckplay/internal/board"
)

type record struct {
	key    uint64
	move   uint16
	weight uint16
}

// encode packs a move the way Polyglot stores it.
func encode(from, to board.Square, promo uint16) uint16 {
	return uint16(to.File()) | uint16(to.Rank())<<3 |
		uint16(from.File())<<6 | uint16(from.Rank())<<9 | promo<<12
}

func bookBytes(records ...record) []byte {
	var buf bytes.Buffer
	for _, r := range records {
		binary.Write(&buf, binary.BigEndian, r.key)
		binary.Write(&buf, binary.BigEndian, r.move)
		binary.Write(&buf, binary.BigEndian, r.weight)
		binary.Write(&buf, binary.BigEndian, uint32(0)) // learn
	}
	return buf.Bytes()
}

func mustFEN(t *testing.T, fen string) *board.Position {
	t.Helper()
	pos, err := board.ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN(%q): %v", fen, err)
	}
	return pos
}

func TestPolyglotHash(t *testing.T) {
	pos := board.NewPosition()
	hash1 := pos.PolyglotHash()

	move, err := board.ParseMove("e2e4", pos)
	if err != nil {
		t.Fatal(err)
	}
	undo := pos.MakeMove(move)
	if pos.PolyglotHash() == hash1 {
		t.Error("PolyglotHash should change after move")
	}
	pos.UnmakeMove(undo)
	if hash := pos.PolyglotHash(); hash != hash1 {
		t.Errorf("PolyglotHash not restored after unmake: %x != %x", hash, hash1)
	}
}

func TestBookLoadAndProbe(t *testing.T) {
	start := board.NewPosition()
	afterE4 := mustFEN(t, "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1")
	castle := mustFEN(t, "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	illegal := mustFEN(t, "4k3/8/8/8/8/8/8/4K3 w - - 0 1")

	data := bookBytes(
		record{start.PolyglotHash(), encode(board.G1, board.F3, 0), 50},
		record{start.PolyglotHash(), encode(board.E2, board.E4, 0), 100},
		record{start.PolyglotHash(), encode(board.D2, board.D4, 0), 100},
		record{afterE4.PolyglotHash(), encode(board.E7, board.E5, 0), 7},
		record{castle.PolyglotHash(), encode(board.E1, board.H1, 0), 1},
		record{illegal.PolyglotHash(), encode(board.A2, board.A4, 0), 1},
	)

	b, err := LoadReader(bytes.NewReader(data), 0)
	if err != nil {
		t.Fatalf("Failed to load book: %v", err)
	}
	defer b.Close()

	if b.Size() != 4 {
		t.Errorf("Expected book size 4, got %d", b.Size())
	}

	tests := []struct {
		name string
		pos  *board.Position
		want string
	}{
		{"highest weight, first on tie", start, "e2e4"},
		{"reply", afterE4, "e7e5"},
		{"castling", castle, "e1g1"},
		{"illegal stored move", illegal, ""},
		{"unknown", mustFEN(t, "4k3/8/8/8/8/8/4P3/4K3 w - - 0 1"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			move, found := b.Probe(tt.pos)
			if tt.want == "" {
				if found {
					t.Errorf("expected a miss, got %s", move)
				}
				return
			}
			if !found {
				t.Fatal("Expected to find move in book")
			}
			if move.String() != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, move)
			}
			if !tt.pos.IsLegal(move) {
				t.Errorf("book move %s is not legal", move)
			}
		})
	}
}

func TestBookMisses(t *testing.T) {
	start := board.NewPosition()
	afterE4 := mustFEN(t, "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1")
	data := bookBytes(
		record{start.PolyglotHash(), encode(board.E2, board.E4, 0), 1},
		record{afterE4.PolyglotHash(), encode(board.E7, board.E5, 0), 1},
	)

	b, err := LoadReader(bytes.NewReader(data), 1)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	if _, found := b.Probe(start); !found {
		t.Error("ply 0 should be inside a depth-1 book")
	}
	if move, found := b.Probe(afterE4); found {
		t.Errorf("ply 1 is past the depth limit, got %s", move)
	}

	duck := start.Copy()
	duck.Variant = board.DuckChess
	if move, found := b.Probe(duck); found {
		t.Errorf("duck chess probe hit %s", move)
	}

	var nilBook *Book
	if _, found := nilBook.Probe(start); found {
		t.Error("nil book hit")
	}
	if _, found := Empty().Probe(start); found {
		t.Error("empty book hit")
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	start := board.NewPosition()
	good := filepath.Join(dir, "good.bin")
	if err := os.WriteFile(good, bookBytes(record{start.PolyglotHash(), encode(board.D2, board.D4, 0), 1}), 0o644); err != nil {
		t.Fatal(err)
	}
	truncated := filepath.Join(dir, "truncated.bin")
	if err := os.WriteFile(truncated, make([]byte, 15), 0o644); err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(dir, "missing.bin")

	b, err := Open(good, 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if move, found := b.Probe(start); !found || move.String() != "d2d4" {
		t.Errorf("Probe = %s, %v; want d2d4", move, found)
	}
	b.Close()

	for _, path := range []string{truncated, missing} {
		if _, err := Open(path, 0); !errors.Is(err, ErrDatabaseLoad) {
			t.Errorf("Open(%s) err = %v, want ErrDatabaseLoad", filepath.Base(path), err)
		}
	}
	if _, err := LoadReader(bytes.NewReader(make([]byte, 20)), 0); !errors.Is(err, ErrDatabaseLoad) {
		t.Errorf("LoadReader on a partial record: err = %v", err)
	}

	empty, err := OpenOptional(missing, 0)
	if err != nil {
		t.Fatalf("OpenOptional on a missing file: %v", err)
	}
	if empty.Size() != 0 {
		t.Errorf("missing file gave %d positions", empty.Size())
	}
	if _, err := OpenOptional(truncated, 0); !errors.Is(err, ErrDatabaseLoad) {
		t.Errorf("OpenOptional on a corrupt file: err = %v", err)
	}
}
