package engine

import (
	"github.com/hailam/duckplay/internal/board"
)

// Move ordering priorities
const (
	TTMoveScore     = 10000000 // TT move gets highest priority
	GoodCaptureBase = 1000000  // Base score for captures
	KillerScore1    = 900000   // First killer move
	KillerScore2    = 800000   // Second killer move
	DropBase        = 100000   // Drops rank above ordinary quiet moves
)

// MVV-LVA (Most Valuable Victim - Least Valuable Attacker) scores.
// Higher score = search first. Kings are only captured where the
// variant allows it, and that capture ends the game.
var mvvLva = [6][6]int{
	//       P    N    B    R    Q    K  (attacker)
	/* P */ {15, 14, 14, 13, 12, 11},
	/* N */ {25, 24, 24, 23, 22, 21},
	/* B */ {35, 34, 34, 33, 32, 31},
	/* R */ {45, 44, 44, 43, 42, 41},
	/* Q */ {55, 54, 54, 53, 52, 51},
	/* K */ {99, 98, 98, 97, 96, 95},
}

// MoveOrderer handles move ordering for the search.
type MoveOrderer struct {
	// Killer moves (quiet moves that caused beta cutoffs)
	killers [MaxPly][2]board.Move

	// History heuristic indexed by [color][piece type][to]. Drops have no
	// from square, so the moving piece stands in for it.
	history [2][6][64]int
}

// NewMoveOrderer creates a new move orderer.
func NewMoveOrderer() *MoveOrderer {
	mo := &MoveOrderer{}
	mo.Clear()
	return mo
}

// Clear resets killers and history.
func (mo *MoveOrderer) Clear() {
	for i := range mo.killers {
		mo.killers[i] = [2]board.Move{board.NoMove, board.NoMove}
	}
	mo.history = [2][6][64]int{}
}

// ScoreMoves assigns an ordering score to every move in the list. Duck
// placements score zero unless one is the TT move. PickMove swaps that
// one to the front, so the remaining placements keep a fixed order that
// is not always the generated one.
func (mo *MoveOrderer) ScoreMoves(pos *board.Position, moves *board.MoveList, ply int, ttMove board.Move) []int {
	scores := make([]int, moves.Len())
	for i := range scores {
		scores[i] = mo.scoreMove(pos.SideToMove, moves.Get(i), ply, ttMove)
	}
	return scores
}

func (mo *MoveOrderer) scoreMove(us board.Color, m board.Move, ply int, ttMove board.Move) int {
	if ttMove != board.NoMove && m.SameAction(ttMove) {
		return TTMoveScore
	}
	if m.IsDuck() {
		return 0
	}

	if m.IsCapture() {
		score := GoodCaptureBase + mvvLva[m.Captured][m.Piece]*1000
		if m.IsPromotion() {
			score += board.PieceValue[m.Promotion]
		}
		return score
	}

	if m.IsPromotion() {
		return GoodCaptureBase - 1000 + int(m.Promotion)*100
	}

	if ply < MaxPly {
		if m.SameAction(mo.killers[ply][0]) {
			return KillerScore1
		}
		if m.SameAction(mo.killers[ply][1]) {
			return KillerScore2
		}
	}

	score := mo.history[us][m.Piece][m.To]
	if m.IsDrop() {
		score += DropBase
	}
	return score
}

// PickMove selects the best remaining move and moves it to position index.
// Ties keep generation order.
func PickMove(moves *board.MoveList, scores []int, index int) {
	best := index
	for j := index + 1; j < moves.Len(); j++ {
		if scores[j] > scores[best] {
			best = j
		}
	}
	if best != index {
		moves.Swap(index, best)
		scores[index], scores[best] = scores[best], scores[index]
	}
}

// UpdateKillers adds a killer move at the given ply.
func (mo *MoveOrderer) UpdateKillers(m board.Move, ply int) {
	if ply >= MaxPly || m.SameAction(mo.killers[ply][0]) {
		return
	}
	mo.killers[ply][1] = mo.killers[ply][0]
	mo.killers[ply][0] = m
}

// UpdateHistory rewards a quiet move that caused a cutoff.
func (mo *MoveOrderer) UpdateHistory(us board.Color, m board.Move, depth int) {
	h := &mo.history[us][m.Piece][m.To]
	*h += depth * depth
	if *h > 400000 {
		for c := range mo.history {
			for pt := range mo.history[c] {
				for sq := range mo.history[c][pt] {
					mo.history[c][pt][sq] /= 2
				}
			}
		}
	}
}
