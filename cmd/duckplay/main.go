package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/hailam/duckplay/internal/board"
	"github.com/hailam/duckplay/internal/book"
	"github.com/hailam/duckplay/internal/engine"
	"github.com/hailam/duckplay/internal/protocol"
	"github.com/hailam/duckplay/internal/session"
	"github.com/hailam/duckplay/internal/storage"
)

var (
	debug     = flag.Bool("debug", false, "human-readable debug logging on stderr")
	bookPath  = flag.String("book", "", "Polyglot opening book; a missing file means no book")
	bookDepth = flag.Int("book-depth", 0, "stop using the book from this ply on (0 = never)")
	hashMB    = flag.Int("hash", engine.DefaultHashSize, "transposition table size in MB")
	moveTime  = flag.Duration("movetime", session.DefaultSearchTime, "search time per move")
	variant   = flag.String("variant", "standard", "rules to start with: standard, duck or house")
	dataDir   = flag.String("data", "", "session database directory (default: platform data dir)")
	noStore   = flag.Bool("nostore", false, "run without the session database")
)

func main() {
	flag.Parse()

	logger, err := newLogger(*debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "duckplay: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(logger); err != nil {
		logger.Error("duckplay failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(logger *zap.Logger) error {
	v, err := board.ParseVariant(*variant)
	if err != nil {
		return err
	}

	openings := book.Empty()
	if *bookPath != "" {
		openings, err = book.OpenOptional(*bookPath, *bookDepth, book.WithLogger(logger))
		if err != nil {
			return err
		}
	}

	eng := engine.NewEngine(engine.WithLogger(logger), engine.WithHashSize(*hashMB))
	s := session.New(
		session.WithLogger(logger),
		session.WithEngine(eng),
		session.WithBook(openings),
		session.WithSearchTime(*moveTime),
	)
	defer s.Close()
	s.SetVariant(v)

	opts := []protocol.Option{protocol.WithLogger(logger)}
	if !*noStore {
		store, err := openStore(logger)
		if err != nil {
			logger.Warn("session database unavailable", zap.Error(err))
		} else {
			defer store.Close()
			opts = append(opts, protocol.WithStorage(store))
		}
	}

	logger.Info("duckplay started",
		zap.Stringer("variant", v),
		zap.Int("book_positions", openings.Size()),
		zap.Duration("movetime", *moveTime),
		zap.String("session", s.ID()),
	)
	start := time.Now()
	err = protocol.New(s, os.Stdout, opts...).Run(os.Stdin)
	logger.Info("duckplay stopped", zap.Duration("uptime", time.Since(start)))
	return err
}

func openStore(logger *zap.Logger) (*storage.Storage, error) {
	if *dataDir != "" {
		return storage.Open(*dataDir, storage.WithLogger(logger))
	}
	return storage.OpenDefault(storage.WithLogger(logger))
}
