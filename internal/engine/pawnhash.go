package engine

import "github.com/hailam/duckplay/internal/board"

// PawnEntry stores a cached pawn structure evaluation. Both pawn sets
// are kept so a lookup never returns another structure's score.
type PawnEntry struct {
	White   board.Bitboard
	Black   board.Bitboard
	MgScore int16 // Middlegame score
	EgScore int16 // Endgame score
	used    bool
}

// PawnTable is a hash table for caching pawn structure evaluations.
type PawnTable struct {
	entries []PawnEntry
	mask    uint64
}

// NewPawnTable creates a new pawn hash table with the given size in MB.
func NewPawnTable(sizeMB int) *PawnTable {
	entrySize := 24
	numEntries := (sizeMB * 1024 * 1024) / entrySize

	size := 1
	for size*2 <= numEntries {
		size *= 2
	}

	return &PawnTable{
		entries: make([]PawnEntry, size),
		mask:    uint64(size - 1),
	}
}

func pawnIndex(white, black board.Bitboard) uint64 {
	h := uint64(white)*0x9E3779B97F4A7C15 ^ uint64(black)*0xC2B2AE3D27D4EB4F
	return h ^ h>>29
}

// Probe looks up the evaluation of a pawn structure.
func (pt *PawnTable) Probe(white, black board.Bitboard) (mg, eg int, found bool) {
	entry := &pt.entries[pawnIndex(white, black)&pt.mask]
	if entry.used && entry.White == white && entry.Black == black {
		return int(entry.MgScore), int(entry.EgScore), true
	}
	return 0, 0, false
}

// Store saves a pawn structure evaluation in the hash table.
func (pt *PawnTable) Store(white, black board.Bitboard, mg, eg int) {
	pt.entries[pawnIndex(white, black)&pt.mask] = PawnEntry{
		White:   white,
		Black:   black,
		MgScore: int16(mg),
		EgScore: int16(eg),
		used:    true,
	}
}

// Clear clears the pawn hash table.
func (pt *PawnTable) Clear() {
	clear(pt.entries)
}
