package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

// ErrSessionNotFound is returned when no session has the requested id.
var ErrSessionNotFound = errors.New("session not found")

// Storage keys
const (
	sessionPrefix = "session/"
)

// SessionRecord is the persisted form of a game session.
type SessionRecord struct {
	ID          string    `json:"id"`
	FEN         string    `json:"fen"`
	Variant     string    `json:"variant"`
	DuckPending bool      `json:"duck_pending,omitempty"`
	StartMove   int       `json:"start_move"`
	Turns       int       `json:"turns"`
	History     []uint64  `json:"history,omitempty"`
	SearchTime  int       `json:"search_time_ms"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Option configures a Storage.
type Option func(*Storage)

// WithLogger sets the logger for storage events.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Storage) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Storage wraps BadgerDB for persistent storage
type Storage struct {
	db     *badger.DB
	logger *zap.Logger
}

// Open opens (creating if needed) the session database in dir.
func Open(dir string, opts ...Option) (*Storage, error) {
	s := &Storage{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	dbOpts := badger.DefaultOptions(dir)
	dbOpts.Logger = nil // Disable badger's own logging

	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("open session store %s: %w", dir, err)
	}
	s.db = db
	s.logger.Debug("session store opened", zap.String("dir", dir))
	return s, nil
}

// OpenDefault opens the session database in the platform data directory.
func OpenDefault(opts ...Option) (*Storage, error) {
	dir, err := GetDatabaseDir()
	if err != nil {
		return nil, fmt.Errorf("locate session store: %w", err)
	}
	return Open(dir, opts...)
}

// Close closes the database
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func sessionKey(id string) []byte {
	return []byte(sessionPrefix + id)
}

// SaveSession writes rec, stamping its creation and update times.
func (s *Storage) SaveSession(rec *SessionRecord) error {
	if rec.ID == "" {
		return errors.New("save session: empty id")
	}
	now := time.Now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", rec.ID, err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(sessionKey(rec.ID), data)
	})
	if err != nil {
		return fmt.Errorf("save session %s: %w", rec.ID, err)
	}
	s.logger.Debug("session saved", zap.String("id", rec.ID), zap.String("fen", rec.FEN))
	return nil
}

// LoadSession reads the session with the given id.
func (s *Storage) LoadSession(id string) (*SessionRecord, error) {
	rec := &SessionRecord{}

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(sessionKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrSessionNotFound
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, rec)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	return rec, nil
}

// ListSessions returns every stored session, most recently updated first.
func (s *Storage) ListSessions() ([]SessionRecord, error) {
	var records []SessionRecord

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(sessionPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec SessionRecord
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	slices.SortStableFunc(records, func(a, b SessionRecord) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return records, nil
}

// DeleteSession removes the session with the given id.
func (s *Storage) DeleteSession(id string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(sessionKey(id)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrSessionNotFound
			}
			return err
		}
		return txn.Delete(sessionKey(id))
	})
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	s.logger.Debug("session deleted", zap.String("id", id))
	return nil
}
