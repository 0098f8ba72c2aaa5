package engine

import (
	"slices"

	"github.com/hailam/duckplay/internal/board"
)

// duckCandidateCount bounds the duck placements searched per node.
const duckCandidateCount = 8

// Duck placement heuristics
const (
	duckShieldsKing   = 1000 // Placement removes every attacker of our king
	duckBlocksAttack  = 300  // Placement removes some attackers
	duckNearEnemyKing = 40   // Placement takes a flight square
	duckCentrality    = 5    // Per step towards the centre
)

// duckCandidates ranks the pending duck placements and keeps the best
// few, best first. Equal scores keep square order so the result is
// deterministic.
func duckCandidates(pos *board.Position, placements *board.MoveList) *board.MoveList {
	us := pos.SideToMove
	them := us.Other()
	ownKing := pos.KingSquare(us)
	enemyKing := pos.KingSquare(them)
	base := pos.AllOccupied &^ board.SquareBB(pos.Duck)

	threats := 0
	if ownKing != board.NoSquare {
		threats = pos.AttackersByColor(ownKing, them, base).PopCount()
	}

	type ranked struct {
		move  board.Move
		score int
	}
	list := make([]ranked, 0, placements.Len())
	for i := 0; i < placements.Len(); i++ {
		m := placements.Get(i)
		score := duckCentrality * centrality(m.To)
		if threats > 0 {
			left := pos.AttackersByColor(ownKing, them, base|board.SquareBB(m.To)).PopCount()
			switch {
			case left == 0:
				score += duckShieldsKing
			case left < threats:
				score += duckBlocksAttack
			}
		}
		if enemyKing != board.NoSquare && board.KingAttacks(enemyKing).IsSet(m.To) {
			score += duckNearEnemyKing
		}
		list = append(list, ranked{m, score})
	}

	slices.SortStableFunc(list, func(a, b ranked) int {
		return b.score - a.score
	})

	out := board.NewMoveList()
	for i := 0; i < len(list) && i < duckCandidateCount; i++ {
		out.Add(list[i].move)
	}
	return out
}

// centrality is 0 in the corners and 6 on the four centre squares.
func centrality(sq board.Square) int {
	df := 2*sq.File() - 7
	dr := 2*sq.Rank() - 7
	if df < 0 {
		df = -df
	}
	if dr < 0 {
		dr = -dr
	}
	return 7 - (df+dr)/2
}
