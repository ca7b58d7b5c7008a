// Package session keeps browser sessions and their visit counters in Badger.
// Records expire through Badger's TTL, so abandoned sessions need no sweeper.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/NickLinnik/LocalLibrary/internal/domain"
	"github.com/NickLinnik/LocalLibrary/internal/id"
)

const sessionPrefix = "session:"

// Sentinel errors.
var (
	ErrNotFound = errors.New("session not found")
	ErrExpired  = errors.New("session expired")
)

// Store wraps a Badger database holding sessions.
type Store struct {
	db     *badger.DB
	ttl    time.Duration
	logger *slog.Logger
}

// Open opens (or creates) the session database at path. An empty path
// keeps everything in memory.
func Open(path string, ttl time.Duration, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = nil // Badger's own logging is too chatty
	opts.CompactL0OnClose = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}

	if logger != nil {
		logger.Info("session store opened", "path", path, "ttl", ttl)
	}

	return &Store{db: db, ttl: ttl, logger: logger}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// TTL returns the lifetime given to new sessions.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Create starts a new session, optionally bound to userID.
func (s *Store) Create(_ context.Context, userID string) (*domain.Session, error) {
	sessionID, err := id.Generate(id.PrefixSession)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	sess := &domain.Session{
		ID:        sessionID,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	if err := s.db.Update(func(txn *badger.Txn) error {
		return s.put(txn, sess)
	}); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	return sess, nil
}

// Get returns a live session.
func (s *Store) Get(_ context.Context, sessionID string) (*domain.Session, error) {
	var sess *domain.Session
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		sess, err = s.load(txn, sessionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// CountVisit increments the visit counter and returns the new count.
func (s *Store) CountVisit(_ context.Context, sessionID string) (int, error) {
	var visits int
	err := s.db.Update(func(txn *badger.Txn) error {
		sess, err := s.load(txn, sessionID)
		if err != nil {
			return err
		}
		sess.Visits++
		visits = sess.Visits
		return s.put(txn, sess)
	})
	if err != nil {
		return 0, err
	}
	return visits, nil
}

// Promote replaces an anonymous session with a fresh one bound to userID.
// The visit counter carries over; the old ID stops working.
func (s *Store) Promote(ctx context.Context, oldID, userID string) (*domain.Session, error) {
	visits := 0
	if oldID != "" {
		if old, err := s.Get(ctx, oldID); err == nil {
			visits = old.Visits
		}
	}

	sess, err := s.Create(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.db.Update(func(txn *badger.Txn) error {
		sess.Visits = visits
		if err := s.put(txn, sess); err != nil {
			return err
		}
		if oldID == "" {
			return nil
		}
		return txn.Delete([]byte(sessionPrefix + oldID))
	}); err != nil {
		return nil, fmt.Errorf("promote session: %w", err)
	}

	return sess, nil
}

// Delete removes a session. Deleting a missing session is not an error.
func (s *Store) Delete(_ context.Context, sessionID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(sessionPrefix + sessionID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

// CollectGarbage reclaims value log space left by expired and deleted
// sessions. It returns how many log files were rewritten.
func (s *Store) CollectGarbage() (int, error) {
	rewritten := 0
	for {
		err := s.db.RunValueLogGC(0.5)
		switch {
		case errors.Is(err, badger.ErrNoRewrite), errors.Is(err, badger.ErrGCInMemoryMode):
			return rewritten, nil
		case err != nil:
			return rewritten, fmt.Errorf("session gc: %w", err)
		}
		rewritten++
	}
}

func (s *Store) load(txn *badger.Txn, sessionID string) (*domain.Session, error) {
	item, err := txn.Get([]byte(sessionPrefix + sessionID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var sess domain.Session
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &sess)
	}); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}

	if sess.IsExpired() {
		return nil, ErrExpired
	}
	return &sess, nil
}

func (s *Store) put(txn *badger.Txn, sess *domain.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return ErrExpired
	}
	return txn.SetEntry(badger.NewEntry([]byte(sessionPrefix+sess.ID), data).WithTTL(ttl))
}
