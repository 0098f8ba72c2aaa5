// Package protocol runs a line-oriented command loop over a game session.
// It speaks the UCI subset a chess GUI needs plus commands for duck
// placements, house drops, the opening book and stored sessions.
package protocol

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hailam/duckplay/internal/board"
	"github.com/hailam/duckplay/internal/engine"
	"github.com/hailam/duckplay/internal/session"
	"github.com/hailam/duckplay/internal/storage"
)

// Option configures a Protocol.
type Option func(*Protocol)

// WithLogger sets the logger for protocol events.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Protocol) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithStorage enables the save, load and sessions commands.
func WithStorage(store *storage.Storage) Option {
	return func(p *Protocol) {
		p.store = store
	}
}

// Protocol reads commands and writes replies. Searches run in the
// background so that "stop" can interrupt them; every other command
// waits for a running search to finish first.
type Protocol struct {
	session *session.Session
	store   *storage.Storage
	logger  *zap.Logger

	mu  sync.Mutex
	out io.Writer

	searchDone chan struct{}
	cancel     context.CancelFunc
	infinite   bool
}

// New creates a protocol handler writing to out.
func New(s *session.Session, out io.Writer, opts ...Option) *Protocol {
	p := &Protocol{
		session: s,
		out:     out,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Session returns the session commands currently act on.
func (p *Protocol) Session() *session.Session {
	return p.session
}

// Run processes commands from r until "quit" or end of input. "stop",
// "quit" and "isready" are answered while a search runs; other commands
// wait for it. Quit stops the search, end of input stops only an
// infinite one. Run returns after the search has finished.
func (p *Protocol) Run(r io.Reader) error {
	defer func() {
		if p.infinite {
			p.stop()
		}
		p.wait()
	}()

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd, args := parts[0], parts[1:]
		switch cmd {
		case "stop":
			p.stop()
			continue
		case "quit":
			p.stop()
			return nil
		case "isready":
			p.println("readyok")
			continue
		}
		p.wait()
		p.logger.Debug("command", zap.String("line", line))
		p.handle(cmd, args)
	}
	return scanner.Err()
}

func (p *Protocol) handle(cmd string, args []string) {
	switch cmd {
	case "uci":
		p.handleUCI()
	case "ucinewgame":
		p.session.Engine().Clear()
		p.session.NewGame()
	case "setoption":
		p.handleSetOption(args)
	case "position":
		p.handlePosition(args)
	case "go":
		p.handleGo(args)
	case "move":
		p.handleMove(args)
	case "duck":
		p.handleDuck(args)
	case "drop":
		p.handleDrop(args)
	case "variant":
		p.handleVariant(args)
	case "book":
		p.handleBook(args)
	case "d":
		pos := p.session.Board()
		p.printf("%s\nFen: %s\n", pos.String(), pos.ToFEN())
	case "state":
		p.println(p.session.State().String())
	case "perft":
		p.handlePerft(args)
	case "save":
		p.handleSave()
	case "load":
		p.handleLoad(args)
	case "sessions":
		p.handleSessions()
	default:
		p.printf("info string unknown command %s\n", cmd)
	}
}

func (p *Protocol) println(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, s)
}

func (p *Protocol) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, format, args...)
}

func (p *Protocol) fail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	p.logger.Debug("command failed", zap.String("reason", msg))
	p.println("info string " + msg)
}

func (p *Protocol) handleUCI() {
	p.println("id name duckplay")
	p.println("id author duckplay authors")
	p.println("option name Variant type combo default standard var standard var duck var house")
	p.println("option name MoveTime type spin default " +
		strconv.Itoa(int(session.DefaultSearchTime/time.Millisecond)) + " min 1 max 600000")
	p.println("uciok")
}

// handleSetOption handles "setoption name <name> value <value>".
func (p *Protocol) handleSetOption(args []string) {
	var name, value []string
	target := &name
	for _, arg := range args {
		switch arg {
		case "name":
			target = &name
		case "value":
			target = &value
		default:
			*target = append(*target, arg)
		}
	}

	switch strings.ToLower(strings.Join(name, " ")) {
	case "variant":
		p.handleVariant(value)
	case "movetime":
		ms, err := strconv.Atoi(strings.Join(value, ""))
		if err != nil || ms <= 0 {
			p.fail("invalid move time %q", strings.Join(value, " "))
			return
		}
		p.session.SetSearchTime(ms)
	default:
		p.fail("unknown option %q", strings.Join(name, " "))
	}
}

// handlePosition parses and sets up a position.
// Formats:
//   - position startpos
//   - position startpos moves e2e4 $@e6
//   - position fen <fen>
//   - position fen <fen> moves e2e4
func (p *Protocol) handlePosition(args []string) {
	if len(args) == 0 {
		p.fail("position needs startpos or fen")
		return
	}

	movesAt := len(args)
	for i, arg := range args {
		if arg == "moves" {
			movesAt = i
			break
		}
	}

	switch args[0] {
	case "startpos":
		p.session.NewGame()
	case "fen":
		fen := strings.Join(args[1:movesAt], " ")
		if err := p.session.NewGameFromFEN(fen); err != nil {
			p.fail("invalid FEN: %v", err)
			return
		}
	default:
		p.fail("position needs startpos or fen")
		return
	}

	if movesAt == len(args) {
		return
	}
	for _, text := range args[movesAt+1:] {
		if err := p.session.Play(text); err != nil {
			p.fail("invalid move %s: %v", text, err)
			return
		}
	}
}

// parseGoOptions parses "go" command arguments.
func parseGoOptions(args []string, us board.Color) (limits engine.SearchLimits, custom bool) {
	value := func(i int) int {
		if i+1 >= len(args) {
			return 0
		}
		n, _ := strconv.Atoi(args[i+1])
		return n
	}
	ms := func(i int) time.Duration {
		return time.Duration(value(i)) * time.Millisecond
	}

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "depth":
			limits.Depth = value(i)
			i++
		case "nodes":
			limits.Nodes = uint64(max(value(i), 0))
			i++
		case "movetime":
			limits.MoveTime = ms(i)
			i++
		case "wtime":
			limits.Time[board.White] = ms(i)
			i++
		case "btime":
			limits.Time[board.Black] = ms(i)
			i++
		case "winc":
			limits.Inc[board.White] = ms(i)
			i++
		case "binc":
			limits.Inc[board.Black] = ms(i)
			i++
		case "movestogo":
			limits.MovesToGo = value(i)
			i++
		case "infinite":
			limits.Infinite = true
		}
	}
	custom = limits.Depth > 0 || limits.Nodes > 0 || limits.MoveTime > 0 ||
		limits.Time[us] > 0 || limits.Infinite
	return limits, custom
}

// handleGo starts a search on a copy of the game and reports the result
// as "bestmove". Plain "go" uses the session's move time.
func (p *Protocol) handleGo(args []string) {
	pos := p.session.Board()
	limits, custom := parseGoOptions(args, pos.SideToMove)

	eng := p.session.Engine()
	eng.OnInfo = func(info engine.SearchInfo) {
		p.sendInfo(pos, info)
	}

	if !custom {
		limits = engine.SearchLimits{MoveTime: p.session.SearchTime()}
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	p.searchDone, p.cancel = done, cancel
	p.infinite = limits.Infinite
	go func() {
		defer close(done)
		move, err := p.session.SearchContext(ctx, limits)
		if err != nil {
			p.logger.Info("search failed", zap.Error(err))
			if errors.Is(err, engine.ErrNoLegalMoves) {
				p.println("info string " + p.session.State().String())
			}
		}
		p.println("bestmove " + move.String())
	}()
}

// sendInfo outputs search info in UCI format. The PV is cut at the first
// move that is not legal in the line.
func (p *Protocol) sendInfo(root *board.Position, info engine.SearchInfo) {
	parts := []string{"depth " + strconv.Itoa(info.Depth)}

	switch {
	case info.Score > engine.MateScore-engine.MaxPly:
		parts = append(parts, fmt.Sprintf("score mate %d", (engine.MateScore-info.Score+1)/2))
	case info.Score < -engine.MateScore+engine.MaxPly:
		parts = append(parts, fmt.Sprintf("score mate -%d", (engine.MateScore+info.Score+1)/2))
	default:
		parts = append(parts, fmt.Sprintf("score cp %d", info.Score))
	}

	parts = append(parts,
		fmt.Sprintf("nodes %d", info.Nodes),
		fmt.Sprintf("time %d", info.Time.Milliseconds()),
	)
	if info.Time > 0 {
		parts = append(parts, fmt.Sprintf("nps %d", uint64(float64(info.Nodes)/info.Time.Seconds())))
	}
	if info.HashFull > 0 {
		parts = append(parts, fmt.Sprintf("hashfull %d", info.HashFull))
	}

	pos := root.Copy()
	pv := make([]string, 0, len(info.PV))
	for _, m := range info.PV {
		if !pos.IsLegal(m) {
			break
		}
		pv = append(pv, m.String())
		pos.MakeMove(m)
	}
	if len(pv) > 0 {
		parts = append(parts, "pv "+strings.Join(pv, " "))
	}

	p.println("info " + strings.Join(parts, " "))
}

func (p *Protocol) stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wait()
}

func (p *Protocol) wait() {
	if p.searchDone == nil {
		return
	}
	<-p.searchDone
	p.cancel()
	p.searchDone, p.cancel = nil, nil
}

// handleMove handles "move e2e4" and "move e7e8n".
func (p *Protocol) handleMove(args []string) {
	if len(args) != 1 || len(args[0]) < 4 || len(args[0]) > 5 {
		p.fail("usage: move <from><to>[promotion]")
		return
	}
	text := args[0]
	from, err1 := board.ParseSquare(text[0:2])
	to, err2 := board.ParseSquare(text[2:4])
	if err := errors.Join(err1, err2); err != nil {
		p.fail("invalid move %s: %v", text, err)
		return
	}
	promo := board.Queen
	if len(text) == 5 {
		promo = board.PieceTypeFromChar(text[4])
	}
	if !p.session.RequestMovePromote(from, to, promo) {
		p.fail("illegal move %s", text)
	}
}

// handleDuck handles "duck e6".
func (p *Protocol) handleDuck(args []string) {
	if len(args) != 1 {
		p.fail("usage: duck <square>")
		return
	}
	sq, err := board.ParseSquare(args[0])
	if err != nil {
		p.fail("invalid square %s: %v", args[0], err)
		return
	}
	if !p.session.RequestDuckMove(sq) {
		p.fail("illegal duck placement %s", args[0])
	}
}

// handleDrop handles "drop N e4"; the letter's case gives the color.
func (p *Protocol) handleDrop(args []string) {
	if len(args) != 2 || len(args[0]) != 1 {
		p.fail("usage: drop <piece> <square>")
		return
	}
	piece := board.PieceFromChar(args[0][0])
	sq, err := board.ParseSquare(args[1])
	if piece == board.NoPiece || err != nil {
		p.fail("invalid drop %s %s", args[0], args[1])
		return
	}
	if !p.session.PutPieceHouse(sq, piece.Type(), piece.Color() == board.White) {
		p.fail("illegal drop %s %s", args[0], args[1])
	}
}

func (p *Protocol) handleVariant(args []string) {
	if len(args) != 1 {
		p.fail("usage: variant standard|duck|house")
		return
	}
	v, err := board.ParseVariant(args[0])
	if err != nil {
		p.fail("%v", err)
		return
	}
	p.session.SetVariant(v)
}

// handleBook handles "book" (probe) and "book <path> [depth]" (load).
func (p *Protocol) handleBook(args []string) {
	if len(args) == 0 {
		if m, ok := p.session.SearchDB(); ok {
			p.println("bookmove " + m.String())
		} else {
			p.println("bookmove none")
		}
		return
	}

	depth := 0
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			p.fail("invalid book depth %s", args[1])
			return
		}
		depth = n
	}
	if err := p.session.LoadDB(args[0], depth); err != nil {
		p.fail("%v", err)
		return
	}
	p.printf("info string book loaded, %d positions\n", p.session.Book().Size())
}

// handlePerft runs a perft test.
func (p *Protocol) handlePerft(args []string) {
	depth := 3
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 {
			p.fail("invalid depth %s", args[0])
			return
		}
		depth = n
	}

	start := time.Now()
	nodes := p.session.Engine().Perft(p.session.Board(), depth)
	elapsed := time.Since(start)

	p.printf("Nodes: %d\n", nodes)
	p.printf("Time: %v\n", elapsed)
	if elapsed > 0 {
		p.printf("NPS: %.0f\n", float64(nodes)/elapsed.Seconds())
	}
}

func (p *Protocol) handleSave() {
	if p.store == nil {
		p.fail("no session store")
		return
	}
	rec := p.session.Snapshot()
	if err := p.store.SaveSession(&rec); err != nil {
		p.fail("%v", err)
		return
	}
	p.println("saved " + rec.ID)
}

// handleLoad replaces the session with a stored one. The engine and the
// opening book carry over.
func (p *Protocol) handleLoad(args []string) {
	if p.store == nil {
		p.fail("no session store")
		return
	}
	if len(args) != 1 {
		p.fail("usage: load <id>")
		return
	}
	rec, err := p.store.LoadSession(args[0])
	if err != nil {
		p.fail("%v", err)
		return
	}
	s, err := session.Restore(rec,
		session.WithLogger(p.logger),
		session.WithEngine(p.session.Engine()),
		session.WithBook(p.session.Book()),
	)
	if err != nil {
		p.fail("%v", err)
		return
	}
	p.session = s
	p.println("loaded " + s.ID())
}

func (p *Protocol) handleSessions() {
	if p.store == nil {
		p.fail("no session store")
		return
	}
	recs, err := p.store.ListSessions()
	if err != nil {
		p.fail("%v", err)
		return
	}
	for _, rec := range recs {
		p.printf("session %s %s %s\n", rec.ID, rec.UpdatedAt.Format(time.RFC3339), rec.FEN)
	}
	p.printf("sessions %d\n", len(recs))
}
