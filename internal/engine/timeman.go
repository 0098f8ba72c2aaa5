package engine

import (
	"time"

	"github.com/hailam/duckplay/internal/board"
)

// SearchLimits specifies constraints on a search. Zero values mean no
// limit; a search with no limit at all runs until Stop.
type SearchLimits struct {
	Depth     int              // maximum search depth
	Nodes     uint64           // maximum nodes to search
	MoveTime  time.Duration    // fixed time per move (overrides clock times)
	Time      [2]time.Duration // remaining clock per color
	Inc       [2]time.Duration // increment per move per color
	MovesToGo int              // moves until next time control (0 = sudden death)
	Infinite  bool             // search until stopped
}

// TimeManager turns limits into a search deadline.
type TimeManager struct {
	optimumTime time.Duration // Stop starting new iterations after this
	maximumTime time.Duration // Hard deadline, 0 for none
	startTime   time.Time
}

// NewTimeManager creates a new time manager.
func NewTimeManager() *TimeManager {
	return &TimeManager{}
}

// Init starts the clock for a search by us at the given game ply.
func (tm *TimeManager) Init(limits SearchLimits, us board.Color, ply int) {
	tm.startTime = time.Now()
	tm.optimumTime, tm.maximumTime = 0, 0

	if limits.Infinite {
		return
	}

	// Fixed move time: iterations only start in the first half of the
	// budget since the next one rarely finishes in the rest.
	if limits.MoveTime > 0 {
		tm.optimumTime = limits.MoveTime / 2
		tm.maximumTime = limits.MoveTime
		return
	}

	timeLeft := limits.Time[us]
	if timeLeft == 0 {
		return
	}

	mtg := limits.MovesToGo
	if mtg == 0 {
		mtg = min(max(50-ply/4, 10), 50)
	}

	tm.optimumTime = timeLeft/time.Duration(mtg) + limits.Inc[us]*9/10
	tm.maximumTime = min(tm.optimumTime*5, timeLeft*8/10)

	if tm.optimumTime < 10*time.Millisecond {
		tm.optimumTime = 10 * time.Millisecond
	}
	if tm.maximumTime < 50*time.Millisecond {
		tm.maximumTime = 50 * time.Millisecond
	}
}

// Deadline returns the hard stop time, or the zero time for none.
func (tm *TimeManager) Deadline() time.Time {
	if tm.maximumTime == 0 {
		return time.Time{}
	}
	return tm.startTime.Add(tm.maximumTime)
}

// Elapsed returns the time elapsed since search started.
func (tm *TimeManager) Elapsed() time.Duration {
	return time.Since(tm.startTime)
}

// PastOptimum reports whether a new iteration should not be started.
func (tm *TimeManager) PastOptimum() bool {
	return tm.optimumTime > 0 && tm.Elapsed() >= tm.optimumTime
}
