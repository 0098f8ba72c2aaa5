package engine

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/hailam/duckplay/internal/board"
)

// ErrNoLegalMoves is returned when asked to search a position whose side
// to move has nothing to play.
var ErrNoLegalMoves = errors.New("no legal moves")

// DefaultHashSize is the transposition table size in MB.
const DefaultHashSize = 16

// SearchInfo contains information about the current search.
type SearchInfo struct {
	Depth    int
	Score    int
	Nodes    uint64
	Time     time.Duration
	PV       []board.Move
	HashFull int // Permille of hash table used
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for search diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithHashSize sets the transposition table size in MB.
func WithHashSize(mb int) Option {
	return func(e *Engine) {
		e.hashMB = mb
	}
}

// Engine picks moves for any board variant. An Engine runs one search at
// a time; Stop may be called from another goroutine.
type Engine struct {
	searcher *Searcher
	tt       *TranspositionTable
	tm       *TimeManager
	logger   *zap.Logger
	hashMB   int

	// Callbacks
	OnInfo func(SearchInfo)
}

// NewEngine creates a new engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		logger: zap.NewNop(),
		hashMB: DefaultHashSize,
		tm:     NewTimeManager(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.tt = NewTranspositionTable(e.hashMB)
	e.searcher = NewSearcher(e.tt)
	return e
}

// Search finds a move for pos within budget. A zero budget searches
// until Stop is called.
func (e *Engine) Search(pos *board.Position, budget time.Duration) (board.Move, error) {
	return e.SearchWithLimits(pos, SearchLimits{MoveTime: budget})
}

// SearchWithLimits finds a move under the given limits. pos is not
// modified. The result is always legal: the best move of the deepest
// completed iteration, else the best move of the interrupted first
// iteration, else the first legal move.
func (e *Engine) SearchWithLimits(pos *board.Position, limits SearchLimits) (board.Move, error) {
	return e.SearchContext(context.Background(), pos, limits)
}

// SearchContext is SearchWithLimits that also stops when ctx is done.
// Cancelling ctx works even before the search has started, unlike Stop.
func (e *Engine) SearchContext(ctx context.Context, pos *board.Position, limits SearchLimits) (board.Move, error) {
	legal := pos.GenerateLegalMoves()
	if legal.Len() == 0 {
		return board.NoMove, ErrNoLegalMoves
	}

	root := pos.Copy()
	ply := 2*(root.FullMoveNumber-1) + int(root.SideToMove)
	e.tm.Init(limits, root.SideToMove, ply)
	e.tt.Clear()
	e.searcher.Reset(ctx, e.tm.Deadline(), limits.Nodes)

	maxDepth := MaxPly - 1
	if limits.Depth > 0 {
		maxDepth = min(limits.Depth, maxDepth)
	}

	bestMove, bestScore := board.NoMove, 0
	const aspirationWindow = 50

	for depth := 1; depth <= maxDepth; depth++ {
		alpha, beta := -Infinity, Infinity
		if depth >= 5 && bestMove != board.NoMove {
			alpha, beta = bestScore-aspirationWindow, bestScore+aspirationWindow
		}

		var move board.Move
		var score int
		var completed bool
		for {
			move, score, completed = e.searcher.SearchRoot(root, depth, alpha, beta)
			if !completed || (score > alpha && score < beta) {
				break
			}
			if alpha == -Infinity && beta == Infinity {
				break
			}
			alpha, beta = -Infinity, Infinity
		}

		if !completed {
			if bestMove == board.NoMove && move != board.NoMove {
				bestMove = move
			}
			e.logger.Debug("search interrupted",
				zap.Int("depth", depth),
				zap.Uint64("nodes", e.searcher.Nodes()),
				zap.Duration("elapsed", e.tm.Elapsed()),
			)
			break
		}

		bestMove, bestScore = move, score
		pv := e.searcher.GetPV()
		e.logger.Debug("iteration complete",
			zap.Int("depth", depth),
			zap.Int("score", score),
			zap.String("best", move.String()),
			zap.Uint64("nodes", e.searcher.Nodes()),
			zap.Duration("elapsed", e.tm.Elapsed()),
		)
		if e.OnInfo != nil {
			e.OnInfo(SearchInfo{
				Depth:    depth,
				Score:    score,
				Nodes:    e.searcher.Nodes(),
				Time:     e.tm.Elapsed(),
				PV:       pv,
				HashFull: e.tt.HashFull(),
			})
		}

		if score > MateScore-MaxPly || score < -MateScore+MaxPly {
			break
		}
		if e.tm.PastOptimum() {
			break
		}
	}

	if bestMove == board.NoMove {
		bestMove = legal.Get(0)
	}
	e.logger.Info("search finished",
		zap.String("move", bestMove.String()),
		zap.String("score", ScoreToString(bestScore)),
		zap.Uint64("nodes", e.searcher.Nodes()),
		zap.Duration("elapsed", e.tm.Elapsed()),
	)
	return bestMove, nil
}

// Stop stops the current search.
func (e *Engine) Stop() {
	e.searcher.Stop()
}

// Clear clears the transposition table and other caches.
func (e *Engine) Clear() {
	e.tt.Clear()
	e.searcher.orderer.Clear()
	e.searcher.pawns.Clear()
}

// Perft counts the leaf nodes of the legal move tree to depth. Duck
// placements count as plies of their own.
func (e *Engine) Perft(pos *board.Position, depth int) uint64 {
	if depth == 0 {
		return 1
	}

	moves := pos.GenerateLegalMoves()
	if depth == 1 {
		return uint64(moves.Len())
	}

	var nodes uint64
	for i := 0; i < moves.Len(); i++ {
		undo := pos.MakeMove(moves.Get(i))
		nodes += e.Perft(pos, depth-1)
		pos.UnmakeMove(undo)
	}
	return nodes
}

// Evaluate returns the static evaluation of a position.
func (e *Engine) Evaluate(pos *board.Position) int {
	return Evaluate(pos)
}

// ScoreToString converts a score to a human-readable string.
func ScoreToString(score int) string {
	if score > MateScore-MaxPly {
		return "Mate in " + strconv.Itoa((MateScore-score+1)/2)
	}
	if score < -MateScore+MaxPly {
		return "Mated in " + strconv.Itoa((MateScore+score+1)/2)
	}
	return strconv.FormatFloat(float64(score)/100, 'f', 2, 64)
}
