// Package book serves opening moves from a Polyglot-layout file.
package book

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"github.com/hailam/duckplay/internal/board"
)

// ErrDatabaseLoad is wrapped by every failure to read a book file.
var ErrDatabaseLoad = errors.New("opening book load failed")

// entrySize is the size of one file record:
// 8 bytes key, 2 bytes move, 2 bytes weight, 4 bytes learn data.
const entrySize = 16

// Option configures a Book.
type Option func(*Book)

// WithLogger sets the logger used while loading and probing.
func WithLogger(logger *zap.Logger) Option {
	return func(b *Book) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// Book maps positions to their highest-weighted move. The entries live
// in an in-memory badger store and are read-only after loading.
type Book struct {
	db       *badger.DB
	maxDepth int
	size     int
	logger   *zap.Logger
}

// Open loads the book at path. Probes miss from ply maxDepth on; a
// maxDepth of zero or less means no limit.
func Open(path string, maxDepth int, opts ...Option) (*Book, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabaseLoad, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabaseLoad, err)
	}
	if info.Size()%entrySize != 0 {
		return nil, fmt.Errorf("%w: %s: size %d is not a multiple of %d", ErrDatabaseLoad, path, info.Size(), entrySize)
	}
	return LoadReader(file, maxDepth, opts...)
}

// OpenOptional is like Open but returns an empty book when path does
// not exist.
func OpenOptional(path string, maxDepth int, opts ...Option) (*Book, error) {
	b, err := Open(path, maxDepth, opts...)
	if errors.Is(err, fs.ErrNotExist) {
		return Empty(), nil
	}
	return b, err
}

// Empty returns a book that misses every probe.
func Empty() *Book {
	return &Book{logger: zap.NewNop()}
}

// LoadReader reads Polyglot records from r until EOF. Where a key
// repeats, the highest weight wins and ties keep the earlier record.
func LoadReader(r io.Reader, maxDepth int, opts ...Option) (*Book, error) {
	b := &Book{maxDepth: maxDepth, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(b)
	}

	type best struct {
		move   uint16
		weight uint16
	}
	entries := make(map[uint64]best)
	order := make([]uint64, 0, 1024)
	records := 0

	var entry [entrySize]byte
	for {
		_, err := io.ReadFull(r, entry[:])
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %w", ErrDatabaseLoad, records, err)
		}
		records++

		key := binary.BigEndian.Uint64(entry[0:8])
		move := binary.BigEndian.Uint16(entry[8:10])
		weight := binary.BigEndian.Uint16(entry[10:12])

		prev, seen := entries[key]
		if !seen {
			order = append(order, key)
		}
		if !seen || weight > prev.weight {
			entries[key] = best{move, weight}
		}
	}

	dbOpts := badger.DefaultOptions("").WithInMemory(true)
	dbOpts.Logger = nil
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabaseLoad, err)
	}

	wb := db.NewWriteBatch()
	defer wb.Cancel()
	for _, key := range order {
		e := entries[key]
		var val [4]byte
		binary.BigEndian.PutUint16(val[0:2], e.move)
		binary.BigEndian.PutUint16(val[2:4], e.weight)
		if err := wb.Set(dbKey(key), val[:]); err != nil {
			db.Close()
			return nil, fmt.Errorf("%w: %w", ErrDatabaseLoad, err)
		}
	}
	if err := wb.Flush(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %w", ErrDatabaseLoad, err)
	}

	b.db = db
	b.size = len(order)
	b.logger.Info("opening book loaded",
		zap.Int("records", records),
		zap.Int("positions", b.size),
		zap.Int("max_depth", maxDepth),
	)
	return b, nil
}

func dbKey(key uint64) []byte {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], key)
	return k[:]
}

// Probe returns the book move for pos. It misses outside standard chess,
// past the depth limit, on unknown positions and when the stored move is
// not legal in pos.
func (b *Book) Probe(pos *board.Position) (board.Move, bool) {
	if b == nil || b.db == nil || pos.Variant != board.Standard {
		return board.NoMove, false
	}
	if b.maxDepth > 0 && gamePly(pos) >= b.maxDepth {
		return board.NoMove, false
	}

	var data uint16
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(dbKey(pos.PolyglotHash()))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			data = binary.BigEndian.Uint16(val[0:2])
			return nil
		})
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			b.logger.Warn("book probe failed", zap.Error(err))
		}
		return board.NoMove, false
	}

	move, ok := decodeMove(pos, data)
	if !ok {
		b.logger.Debug("book move not legal",
			zap.String("fen", pos.ToFEN()),
			zap.Uint16("move", data),
		)
	}
	return move, ok
}

// gamePly counts half-moves from the start of the game.
func gamePly(pos *board.Position) int {
	return 2*(pos.FullMoveNumber-1) + int(pos.SideToMove)
}

// decodeMove converts a Polyglot move to the matching legal move.
// Polyglot move format (bits):
// 0-5: to square
// 6-11: from square
// 12-14: promotion piece (0=none, 1=knight, 2=bishop, 3=rook, 4=queen)
func decodeMove(pos *board.Position, data uint16) (board.Move, bool) {
	to := board.NewSquare(int(data&7), int(data>>3&7))
	from := board.NewSquare(int(data>>6&7), int(data>>9&7))
	promo := data >> 12 & 7

	// Castling is stored as the king taking its own rook.
	if king := pos.Pieces[pos.SideToMove][board.King]; king.IsSet(from) {
		switch {
		case from == board.E1 && to == board.H1:
			to = board.G1
		case from == board.E1 && to == board.A1:
			to = board.C1
		case from == board.E8 && to == board.H8:
			to = board.G8
		case from == board.E8 && to == board.A8:
			to = board.C8
		}
	}

	promoTypes := [...]board.PieceType{board.NoPieceType, board.Knight, board.Bishop, board.Rook, board.Queen}
	if int(promo) >= len(promoTypes) {
		return board.NoMove, false
	}
	move, ok := pos.GenerateLegalMoves().Find(from, to, promoTypes[promo])
	if ok && move.IsPromotion() && promo == 0 {
		return board.NoMove, false
	}
	return move, ok
}

// Size returns the number of unique positions in the book.
func (b *Book) Size() int {
	if b == nil {
		return 0
	}
	return b.size
}

// Close releases the book's store.
func (b *Book) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}
