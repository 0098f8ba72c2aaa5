package engine

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/hailam/duckplay/internal/board"
)

// Search constants
const (
	Infinity  = 30000
	MateScore = 29000
	MaxPly    = 128
)

// Pruning constants
const (
	deltaMargin   = 200 // Quiescence delta pruning margin
	maxQuiescence = 32  // Quiescence plies below the horizon
)

// PVTable stores the principal variation.
type PVTable struct {
	length [MaxPly + 1]int
	moves  [MaxPly + 1][MaxPly + 1]board.Move
}

func (pv *PVTable) update(ply int, m board.Move) {
	pv.moves[ply][ply] = m
	for next := ply + 1; next < pv.length[ply+1]; next++ {
		pv.moves[ply][next] = pv.moves[ply+1][next]
	}
	pv.length[ply] = pv.length[ply+1]
}

// Searcher performs a single-threaded alpha-beta search on its own copy
// of the position.
type Searcher struct {
	pos     *board.Position
	tt      *TranspositionTable
	pawns   *PawnTable
	orderer *MoveOrderer
	pv      PVTable

	done     <-chan struct{}
	nodes    uint64
	maxNodes uint64
	deadline time.Time
	stopFlag atomic.Bool
	stopped  bool
}

// NewSearcher creates a new searcher.
func NewSearcher(tt *TranspositionTable) *Searcher {
	return &Searcher{
		tt:      tt,
		pawns:   NewPawnTable(1),
		orderer: NewMoveOrderer(),
	}
}

// Stop signals the search to stop. It is safe to call from any goroutine.
func (s *Searcher) Stop() {
	s.stopFlag.Store(true)
}

// Reset prepares for a new search with the given limits. The search
// also stops once ctx is done.
func (s *Searcher) Reset(ctx context.Context, deadline time.Time, maxNodes uint64) {
	s.done = ctx.Done()
	s.stopFlag.Store(false)
	s.stopped = false
	s.nodes = 0
	s.maxNodes = maxNodes
	s.deadline = deadline
	s.orderer.Clear()
	s.pawns.Clear()
	s.pv = PVTable{}
}

// Nodes returns the number of nodes searched.
func (s *Searcher) Nodes() uint64 {
	return s.nodes
}

// Stopped reports whether the last search was interrupted.
func (s *Searcher) Stopped() bool {
	return s.stopped
}

// GetPV returns the principal variation from the last completed root search.
func (s *Searcher) GetPV() []board.Move {
	pv := make([]board.Move, s.pv.length[0])
	copy(pv, s.pv.moves[0][:s.pv.length[0]])
	return pv
}

// checkStop runs at every node, so a search overruns its deadline by at
// most one node expansion.
func (s *Searcher) checkStop() bool {
	if s.stopped {
		return true
	}
	switch {
	case s.stopFlag.Load():
		s.stopped = true
	case s.maxNodes > 0 && s.nodes >= s.maxNodes:
		s.stopped = true
	case !s.deadline.IsZero() && time.Now().After(s.deadline):
		s.stopped = true
	default:
		select {
		case <-s.done:
			s.stopped = true
		default:
		}
	}
	return s.stopped
}

// SearchRoot searches pos to depth within (alpha, beta). When the search
// is interrupted it returns the best root move fully searched so far,
// possibly NoMove, and completed is false.
func (s *Searcher) SearchRoot(pos *board.Position, depth, alpha, beta int) (best board.Move, bestScore int, completed bool) {
	s.pos = pos
	s.pv.length[0] = 0
	us := pos.SideToMove

	moves := pos.GenerateLegalMoves()
	if pos.DuckPending {
		moves = duckCandidates(pos, moves)
	}
	ttMove := board.NoMove
	if entry, ok := s.tt.Probe(pos.Hash); ok {
		ttMove = entry.Move()
	}
	scores := s.orderer.ScoreMoves(pos, moves, 0, ttMove)

	best, bestScore = board.NoMove, -Infinity
	alphaOrig := alpha
	for i := 0; i < moves.Len(); i++ {
		PickMove(moves, scores, i)
		m := moves.Get(i)

		undo := pos.MakeMove(m)
		score := s.child(m, us, depth, 1, alpha, beta)
		pos.UnmakeMove(undo)

		if s.stopped {
			return best, bestScore, false
		}
		if score > bestScore {
			bestScore, best = score, m
			s.pv.update(0, m)
		}
		if score > alpha {
			alpha = score
		}
		if alpha >= beta {
			break
		}
	}

	s.tt.Store(pos.Hash, depth, AdjustScoreToTT(bestScore, 0), boundFlag(bestScore, alphaOrig, beta), best)
	return best, bestScore, true
}

// child scores the position reached by m. A piece move that leaves a
// duck placement pending keeps the same side on move, so its score is
// not negated; the placement itself costs no depth.
func (s *Searcher) child(m board.Move, us board.Color, depth, ply, alpha, beta int) int {
	next := depth - 1
	if m.IsDuck() {
		next = depth
	}
	if s.pos.SideToMove == us {
		return s.negamax(next, ply, alpha, beta)
	}
	return -s.negamax(next, ply, -beta, -alpha)
}

func (s *Searcher) negamax(depth, ply, alpha, beta int) int {
	s.pv.length[ply] = ply
	if s.checkStop() {
		return 0
	}
	s.nodes++

	pos := s.pos
	us := pos.SideToMove
	if pos.Pieces[us][board.King] == 0 {
		// The king was captured.
		return -MateScore + ply
	}
	if ply >= MaxPly {
		return EvaluateWithPawnTable(pos, s.pawns)
	}
	if pos.HalfMoveClock >= 100 || pos.IsRepetition() {
		return 0
	}
	// Checks at the horizon get one more full ply so mates are seen.
	if !pos.DuckPending && (depth < 0 || depth == 0 && !pos.InCheck(us)) {
		return s.quiescence(ply, 0, alpha, beta)
	}

	alphaOrig := alpha
	ttMove := board.NoMove
	if entry, ok := s.tt.Probe(pos.Hash); ok {
		ttMove = entry.Move()
		if int(entry.Depth) >= depth {
			score := AdjustScoreFromTT(int(entry.Score), ply)
			switch entry.Flag {
			case TTExact:
				return score
			case TTLowerBound:
				alpha = max(alpha, score)
			case TTUpperBound:
				beta = min(beta, score)
			}
			if alpha >= beta {
				return score
			}
		}
	}

	moves := pos.GenerateLegalMoves()
	if moves.Len() == 0 {
		if pos.InCheck(us) {
			return -MateScore + ply
		}
		return 0
	}
	if pos.DuckPending {
		moves = duckCandidates(pos, moves)
	}
	scores := s.orderer.ScoreMoves(pos, moves, ply, ttMove)

	best, bestScore := board.NoMove, -Infinity
	for i := 0; i < moves.Len(); i++ {
		PickMove(moves, scores, i)
		m := moves.Get(i)

		undo := pos.MakeMove(m)
		score := s.child(m, us, depth, ply+1, alpha, beta)
		pos.UnmakeMove(undo)

		if s.stopped {
			return 0
		}
		if score > bestScore {
			bestScore, best = score, m
		}
		if score > alpha {
			alpha = score
			s.pv.update(ply, m)
		}
		if alpha >= beta {
			if m.IsQuiet() && !m.IsDuck() {
				s.orderer.UpdateKillers(m, ply)
				s.orderer.UpdateHistory(us, m, depth)
			}
			break
		}
	}

	s.tt.Store(pos.Hash, depth, AdjustScoreToTT(bestScore, ply), boundFlag(bestScore, alphaOrig, beta), best)
	return bestScore
}

func boundFlag(score, alpha, beta int) TTFlag {
	switch {
	case score <= alpha:
		return TTUpperBound
	case score >= beta:
		return TTLowerBound
	}
	return TTExact
}

// quiescence resolves captures below the horizon. A pending duck is
// placed on the best heuristic square without branching.
func (s *Searcher) quiescence(ply, qply, alpha, beta int) int {
	s.pv.length[ply] = ply
	if s.checkStop() {
		return 0
	}
	s.nodes++

	pos := s.pos
	us := pos.SideToMove
	if pos.Pieces[us][board.King] == 0 {
		return -MateScore + ply
	}
	if ply >= MaxPly || qply >= maxQuiescence {
		return EvaluateWithPawnTable(pos, s.pawns)
	}

	if pos.DuckPending {
		placements := duckCandidates(pos, pos.DuckPlacements())
		if placements.Len() == 0 {
			return EvaluateWithPawnTable(pos, s.pawns)
		}
		undo := pos.MakeMove(placements.Get(0))
		score := -s.quiescence(ply+1, qply+1, -beta, -alpha)
		pos.UnmakeMove(undo)
		return score
	}

	standPat := EvaluateWithPawnTable(pos, s.pawns)
	if standPat >= beta {
		return beta
	}
	if standPat > alpha {
		alpha = standPat
	}

	moves := pos.GenerateCaptures()
	scores := s.orderer.ScoreMoves(pos, moves, ply, board.NoMove)
	for i := 0; i < moves.Len(); i++ {
		PickMove(moves, scores, i)
		m := moves.Get(i)

		gain := 0
		if m.IsCapture() {
			gain = pieceValues[m.Captured]
		}
		if m.IsPromotion() {
			gain += pieceValues[m.Promotion] - PawnValue
		}
		if m.Captured != board.King && standPat+gain+deltaMargin < alpha {
			continue
		}

		undo := pos.MakeMove(m)
		var score int
		if pos.SideToMove == us {
			score = s.quiescence(ply+1, qply+1, alpha, beta)
		} else {
			score = -s.quiescence(ply+1, qply+1, -beta, -alpha)
		}
		pos.UnmakeMove(undo)

		if s.stopped {
			return 0
		}
		if score >= beta {
			return beta
		}
		if score > alpha {
			alpha = score
		}
	}
	return alpha
}
