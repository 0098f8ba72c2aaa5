// Package session drives one game: it validates requested moves against
// the rules of the current variant, asks the engine or the opening book
// for replies and converts the game to and from its stored form.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hailam/duckplay/internal/board"
	"github.com/hailam/duckplay/internal/book"
	"github.com/hailam/duckplay/internal/engine"
	"github.com/hailam/duckplay/internal/storage"
)

// DefaultSearchTime is the engine budget per move.
const DefaultSearchTime = time.Second

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger for game events. It is passed on to the
// engine and book the session creates itself.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithEngine makes the session search with eng.
func WithEngine(eng *engine.Engine) Option {
	return func(s *Session) {
		s.engine = eng
	}
}

// WithSearchTime sets the engine budget per move.
func WithSearchTime(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.searchTime = d
		}
	}
}

// WithBook sets the opening book consulted before searching.
func WithBook(b *book.Book) Option {
	return func(s *Session) {
		s.book = b
	}
}

// Session owns the game position. A Session is not safe for concurrent
// use; Stop on its engine is the only call allowed during Search.
type Session struct {
	id         string
	pos        *board.Position
	engine     *engine.Engine
	book       *book.Book
	searchTime time.Duration
	logger     *zap.Logger
	createdAt  time.Time
}

// New creates a session holding the standard starting position.
func New(opts ...Option) *Session {
	s := &Session{
		id:         uuid.NewString(),
		pos:        board.NewPosition(),
		searchTime: DefaultSearchTime,
		logger:     zap.NewNop(),
		createdAt:  time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.engine == nil {
		s.engine = engine.NewEngine(engine.WithLogger(s.logger))
	}
	s.logger = s.logger.With(zap.String("session", s.id))
	return s
}

// ID returns the session's unique id.
func (s *Session) ID() string {
	return s.id
}

// Engine returns the engine used by Search.
func (s *Session) Engine() *engine.Engine {
	return s.engine
}

// NewGame resets to the starting position, keeping the current variant.
func (s *Session) NewGame() {
	variant := s.pos.Variant
	s.pos = board.NewPosition()
	s.pos.SetVariant(variant)
	s.logger.Info("new game", zap.Stringer("variant", variant))
}

// NewGameFromFEN loads fen. A duck in the placement field selects duck
// chess and a pocket selects house mode. On error the game is unchanged.
func (s *Session) NewGameFromFEN(fen string) error {
	pos, err := board.ParseFEN(fen)
	if err != nil {
		return err
	}
	s.pos = pos
	s.logger.Info("game loaded",
		zap.String("fen", fen),
		zap.Stringer("variant", pos.Variant),
	)
	return nil
}

// SetVariant switches the rule set of the current game.
func (s *Session) SetVariant(v board.Variant) {
	s.pos.SetVariant(v)
	s.logger.Debug("variant set", zap.Stringer("variant", v))
}

// CommitBoard replaces the game with the drafted position.
func (s *Session) CommitBoard(b *board.Builder) error {
	pos, err := b.Commit()
	if err != nil {
		return err
	}
	s.pos = pos
	s.logger.Info("board committed", zap.String("fen", pos.ToFEN()))
	return nil
}

// RequestMove plays the piece move from -> to if it is legal. Pawns
// reaching the last rank become queens. A king moved onto its own rook
// castles on that side.
func (s *Session) RequestMove(from, to board.Square) bool {
	return s.RequestMovePromote(from, to, board.Queen)
}

// RequestMovePromote is RequestMove with the promotion piece given.
func (s *Session) RequestMovePromote(from, to board.Square, promo board.PieceType) bool {
	legal := s.pos.GenerateLegalMoves()
	m, ok := legal.Find(from, to, promo)
	if !ok {
		m, ok = legal.Find(from, castlingTarget(s.pos, from, to), promo)
		ok = ok && m.IsCastling()
	}
	if !ok {
		s.logger.Debug("move rejected",
			zap.Stringer("from", from),
			zap.Stringer("to", to),
			zap.String("fen", s.pos.ToFEN()),
		)
		return false
	}
	s.play(m)
	return true
}

// castlingTarget maps a king dragged onto its rook to the king's
// castling destination. Other moves map to to.
func castlingTarget(pos *board.Position, from, to board.Square) board.Square {
	if !pos.Pieces[pos.SideToMove][board.King].IsSet(from) {
		return to
	}
	switch {
	case from == board.E1 && to == board.H1:
		return board.G1
	case from == board.E1 && to == board.A1:
		return board.C1
	case from == board.E8 && to == board.H8:
		return board.G8
	case from == board.E8 && to == board.A8:
		return board.C8
	}
	return to
}

// RequestDuckMove places the duck on sq if a placement is pending and sq
// is empty.
func (s *Session) RequestDuckMove(sq board.Square) bool {
	placements := s.pos.DuckPlacements()
	for _, m := range placements.Slice() {
		if m.To == sq {
			s.play(m)
			return true
		}
	}
	s.logger.Debug("duck placement rejected",
		zap.Stringer("square", sq),
		zap.Bool("pending", s.pos.DuckPending),
	)
	return false
}

// PutPieceHouse drops a pocket piece of type pt on sq. isWhite must name
// the side to move.
func (s *Session) PutPieceHouse(sq board.Square, pt board.PieceType, isWhite bool) bool {
	color := board.Black
	if isWhite {
		color = board.White
	}
	if color != s.pos.SideToMove {
		return false
	}
	for _, m := range s.pos.GenerateDrops().Slice() {
		if m.Piece == pt && m.To == sq {
			s.play(m)
			return true
		}
	}
	s.logger.Debug("drop rejected",
		zap.Stringer("square", sq),
		zap.Stringer("piece", pt),
	)
	return false
}

// Move plays an encoded move as returned by Search or SearchDB. A code
// that is not a legal move of the current position, NoMove included, is
// refused and the game is left unchanged.
func (s *Session) Move(code board.Code) bool {
	m := board.DecodeMove(code)
	if m == board.NoMove || !s.pos.IsLegal(m) {
		s.logger.Debug("encoded move rejected", zap.Uint32("code", uint32(code)))
		return false
	}
	s.play(m)
	return true
}

func (s *Session) play(m board.Move) {
	if !s.logger.Core().Enabled(zap.DebugLevel) {
		s.pos.MakeMove(m)
		return
	}
	san := m.ToSAN(s.pos)
	s.pos.MakeMove(m)
	s.logger.Debug("move played",
		zap.String("move", m.String()),
		zap.String("san", san),
		zap.Stringer("state", s.pos.State()),
	)
}

// Play parses text as a move in UCI, drop ("N@e4") or duck ("$@e6")
// form and plays it if legal.
func (s *Session) Play(text string) error {
	m, err := board.ParseMove(text, s.pos)
	if err != nil {
		return err
	}
	s.play(m)
	return nil
}

// Search returns the move to play: the book move when there is one,
// otherwise the engine's choice within the search time. The game is not
// changed.
func (s *Session) Search() (board.Move, error) {
	return s.SearchContext(context.Background(), engine.SearchLimits{MoveTime: s.searchTime})
}

// SearchContext is Search with explicit engine limits. The engine stops
// early when ctx is done and still returns a legal move.
func (s *Session) SearchContext(ctx context.Context, limits engine.SearchLimits) (board.Move, error) {
	if m, ok := s.SearchDB(); ok {
		return m, nil
	}
	m, err := s.engine.SearchContext(ctx, s.pos, limits)
	if err != nil {
		return board.NoMove, fmt.Errorf("search %s: %w", s.pos.ToFEN(), err)
	}
	return m, nil
}

// SetSearchTime sets the engine budget in milliseconds. Values of zero
// or less restore DefaultSearchTime.
func (s *Session) SetSearchTime(ms int) {
	s.searchTime = DefaultSearchTime
	if ms > 0 {
		s.searchTime = time.Duration(ms) * time.Millisecond
	}
}

// SearchTime returns the engine budget per move.
func (s *Session) SearchTime() time.Duration {
	return s.searchTime
}

// SearchDB probes the opening book.
func (s *Session) SearchDB() (board.Move, bool) {
	m, ok := s.book.Probe(s.pos)
	if ok {
		s.logger.Debug("book hit", zap.String("move", m.String()))
	}
	return m, ok
}

// LoadDB replaces the opening book with the file at path. The old book
// stays in use if loading fails.
func (s *Session) LoadDB(path string, maxDepth int) error {
	b, err := book.Open(path, maxDepth, book.WithLogger(s.logger))
	if err != nil {
		return err
	}
	if err := s.book.Close(); err != nil {
		s.logger.Warn("close previous book", zap.Error(err))
	}
	s.book = b
	return nil
}

// Book returns the opening book, nil when none is loaded.
func (s *Session) Book() *book.Book {
	return s.book
}

// Board returns a copy of the current position.
func (s *Session) Board() *board.Position {
	return s.pos.Copy()
}

// State classifies the current position.
func (s *Session) State() board.GameState {
	return s.pos.State()
}

// Snapshot returns the stored form of the session. The pending duck
// phase and the repetition history are not part of FEN and are kept
// alongside it.
func (s *Session) Snapshot() storage.SessionRecord {
	return storage.SessionRecord{
		ID:          s.id,
		FEN:         s.pos.ToFEN(),
		Variant:     s.pos.Variant.String(),
		DuckPending: s.pos.DuckPending,
		StartMove:   s.pos.StartMove,
		Turns:       s.pos.Turns,
		History:     append([]uint64(nil), s.pos.History...),
		SearchTime:  int(s.searchTime / time.Millisecond),
		CreatedAt:   s.createdAt,
	}
}

// ErrBadRecord is returned by Restore for records that do not describe
// a playable game.
var ErrBadRecord = errors.New("invalid session record")

// Restore rebuilds a session from its stored form.
func Restore(rec *storage.SessionRecord, opts ...Option) (*Session, error) {
	pos, err := parseRecordFEN(rec.FEN, rec.DuckPending)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrBadRecord, rec.ID, err)
	}
	variant, err := board.ParseVariant(rec.Variant)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrBadRecord, rec.ID, err)
	}
	if variant != pos.Variant {
		return nil, fmt.Errorf("%w %s: variant %s does not match FEN", ErrBadRecord, rec.ID, rec.Variant)
	}
	if rec.DuckPending && variant != board.DuckChess {
		return nil, fmt.Errorf("%w %s: duck pending outside duck chess", ErrBadRecord, rec.ID)
	}
	if rec.StartMove > 0 {
		pos.StartMove = rec.StartMove
		pos.Turns = rec.Turns
	}
	pos.DuckPending = rec.DuckPending
	pos.History = append([]uint64(nil), rec.History...)
	pos.Hash = pos.ComputeHash()

	if rec.ID != "" {
		opts = append(opts, func(s *Session) { s.id = rec.ID })
	}
	s := New(opts...)
	s.pos = pos
	if !rec.CreatedAt.IsZero() {
		s.createdAt = rec.CreatedAt
	}
	s.SetSearchTime(rec.SearchTime)
	s.logger.Info("session restored", zap.String("fen", rec.FEN))
	return s, nil
}

// Close releases the opening book.
func (s *Session) Close() error {
	return s.book.Close()
}

// parseRecordFEN parses a snapshot FEN. While a duck placement is
// pending the mover is still on turn, so an en passant square left by its
// double push sits on the mover's own side of the board.
func parseRecordFEN(fen string, duckPending bool) (*board.Position, error) {
	fields := strings.Fields(fen)
	if !duckPending || len(fields) < 4 || fields[3] == "-" {
		return board.ParseFEN(fen)
	}
	ep := fields[3]
	fields[3] = "-"
	pos, err := board.ParseFEN(strings.Join(fields, " "))
	if err != nil {
		return nil, err
	}
	sq, err := board.ParseSquare(ep)
	if err != nil {
		return nil, err
	}
	epRank := 2
	if pos.SideToMove == board.Black {
		epRank = 5
	}
	if sq.Rank() != epRank {
		return nil, fmt.Errorf("%w: en passant square %s during %s's duck placement", board.ErrMalformedFEN, ep, pos.SideToMove)
	}
	pos.EnPassant = sq
	return pos, nil
}
