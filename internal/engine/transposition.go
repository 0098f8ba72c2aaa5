package engine

import (
	"github.com/hailam/duckplay/internal/board"
)

// TTFlag says how a stored score relates to the true value.
type TTFlag uint8

const (
	TTExact      TTFlag = iota // score is exact
	TTLowerBound               // beta cutoff, true value >= score
	TTUpperBound               // no move raised alpha, true value <= score
)

// TTEntry is one slot of the table.
type TTEntry struct {
	Key      uint64     // full hash, checked on probe
	BestMove board.Code // 0 when none
	Score    int16      // mate scores relative to the stored node
	Depth    int8       // remaining depth
	Flag     TTFlag
}

// TranspositionTable is a hash table for storing search results. It is
// owned by a single searcher and is not safe for concurrent use.
type TranspositionTable struct {
	entries []TTEntry
	size    uint64
	mask    uint64

	hits   uint64
	probes uint64
}

// NewTranspositionTable allocates about sizeMB megabytes, rounded down to a power-of-two entry count.
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	if sizeMB < 1 {
		sizeMB = 1
	}
	entrySize := uint64(16)
	numEntries := roundDownToPowerOf2((uint64(sizeMB) * 1024 * 1024) / entrySize)

	return &TranspositionTable{
		entries: make([]TTEntry, numEntries),
		size:    numEntries,
		mask:    numEntries - 1,
	}
}

func roundDownToPowerOf2(n uint64) uint64 {
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return (n + 1) >> 1
}

// Probe looks up a position. Entries stored at depth zero never match.
func (tt *TranspositionTable) Probe(hash uint64) (TTEntry, bool) {
	tt.probes++
	entry := tt.entries[hash&tt.mask]
	if entry.Key == hash && entry.Depth > 0 {
		tt.hits++
		return entry, true
	}
	return TTEntry{}, false
}

// Store saves a search result, keeping a deeper entry for the same key.
func (tt *TranspositionTable) Store(hash uint64, depth int, score int, flag TTFlag, bestMove board.Move) {
	entry := &tt.entries[hash&tt.mask]
	if entry.Key == hash && int(entry.Depth) > depth {
		return
	}
	var code board.Code
	if bestMove != board.NoMove {
		code = bestMove.Encode()
	}
	*entry = TTEntry{
		Key:      hash,
		BestMove: code,
		Score:    int16(score),
		Depth:    int8(depth),
		Flag:     flag,
	}
}

// Move returns the entry's best move, or NoMove.
func (e TTEntry) Move() board.Move {
	if e.BestMove == 0 {
		return board.NoMove
	}
	return board.DecodeMove(e.BestMove)
}

// Clear empties the table. Every search starts from a cleared table so
// results depend only on the position and the limits.
func (tt *TranspositionTable) Clear() {
	clear(tt.entries)
	tt.hits = 0
	tt.probes = 0
}

// HashFull samples the first thousand slots and reports how many are used, in permille.
func (tt *TranspositionTable) HashFull() int {
	used := 0
	sampleSize := 1000
	if uint64(sampleSize) > tt.size {
		sampleSize = int(tt.size)
	}
	for i := 0; i < sampleSize; i++ {
		if tt.entries[i].Key != 0 {
			used++
		}
	}
	return (used * 1000) / sampleSize
}

// HitRate is the percentage of probes that found their key.
func (tt *TranspositionTable) HitRate() float64 {
	if tt.probes == 0 {
		return 0
	}
	return float64(tt.hits) / float64(tt.probes) * 100
}

func (tt *TranspositionTable) Size() uint64 {
	return tt.size
}

// AdjustScoreFromTT converts a stored mate score back to a distance
// from the current ply.
func AdjustScoreFromTT(score int, ply int) int {
	if score > MateScore-MaxPly {
		return score - ply
	}
	if score < -MateScore+MaxPly {
		return score + ply
	}
	return score
}

// AdjustScoreToTT makes a mate score relative to the node being stored.
func AdjustScoreToTT(score int, ply int) int {
	if score > MateScore-MaxPly {
		return score + ply
	}
	if score < -MateScore+MaxPly {
		return score - ply
	}
	return score
}
