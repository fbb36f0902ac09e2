// Package otpstore keeps pending phone verifications in BadgerDB.
//
// Entries are keyed by the one-time code and carry a native TTL, so an
// abandoned verification disappears without a sweeper. Take reads and deletes
// an entry inside one read-write transaction; of two concurrent Takes for the
// same code exactly one observes the entry.
package otpstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/metrosite-backend/internal/domain"
)

const (
	keyPrefix = "otp:"

	// gcInterval is how often an on-disk store reclaims value log space
	// left behind by consumed and expired verifications.
	gcInterval     = 5 * time.Minute
	gcDiscardRatio = 0.5
)

var (
	// ErrNotFound is returned when no live entry exists for a code.
	ErrNotFound = errors.New("verification not found")
	// ErrExists is returned by Put when the code is already taken.
	ErrExists = errors.New("verification code already in use")
)

// Store is a Badger-backed pending verification store.
type Store struct {
	db *badger.DB

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// Open opens the store at path. An empty path opens an in-memory instance,
// which is what tests and single-node development use.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts.ValueLogFileSize = 16 << 20
		opts.SyncWrites = true
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for verifications: %w", err)
	}
	s := &Store{db: db, stop: make(chan struct{}), done: make(chan struct{})}
	if path == "" {
		close(s.done)
	} else {
		go s.gcLoop(gcInterval)
	}
	return s, nil
}

// Close stops value log GC and releases the underlying database. It is safe
// to call more than once.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		close(s.stop)
		<-s.done
		s.closeErr = s.db.Close()
	})
	return s.closeErr
}

// RunGC rewrites value log files until Badger reports nothing left to
// reclaim. It is a no-op for in-memory stores.
func (s *Store) RunGC() error {
	if s.db.Opts().InMemory {
		return nil
	}
	for {
		err := s.db.RunValueLogGC(gcDiscardRatio)
		switch {
		case err == nil:
			continue
		case errors.Is(err, badger.ErrNoRewrite), errors.Is(err, badger.ErrRejected):
			return nil
		default:
			return fmt.Errorf("value log gc: %w", err)
		}
	}
}

func (s *Store) gcLoop(every time.Duration) {
	defer close(s.done)
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-t.C:
			if err := s.RunGC(); err != nil {
				log.Warn().Err(err).Msg("verification store gc")
			}
		}
	}
}

func key(code string) []byte { return []byte(keyPrefix + code) }

// Put stores pv under code for ttl. It fails with ErrExists when a live entry
// already holds the code, including one written by a concurrent Put.
func (s *Store) Put(ctx context.Context, code string, pv *domain.PendingVerification, ttl time.Duration) error {
	if code == "" || pv == nil {
		return errors.New("code and verification are required")
	}
	if ttl <= 0 {
		return errors.New("ttl must be positive")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(pv)
	if err != nil {
		return fmt.Errorf("marshal verification: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key(code))
		switch {
		case err == nil:
			return ErrExists
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}
		return txn.SetEntry(badger.NewEntry(key(code), data).WithTTL(ttl))
	})
	if errors.Is(err, badger.ErrConflict) {
		return ErrExists
	}
	return err
}

// Exists reports whether a live entry holds code.
func (s *Store) Exists(ctx context.Context, code string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key(code))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Take atomically removes and returns the entry for code. An entry whose
// ExpiresAt is not after now is removed and reported as ErrNotFound, as is a
// transaction conflict with a concurrent Take.
func (s *Store) Take(ctx context.Context, code string, now time.Time) (*domain.PendingVerification, error) {
	if code == "" {
		return nil, ErrNotFound
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var pv domain.PendingVerification
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key(code))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get verification: %w", err)
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &pv)
		}); err != nil {
			return fmt.Errorf("decode verification: %w", err)
		}
		return txn.Delete(key(code))
	})
	switch {
	case errors.Is(err, badger.ErrConflict):
		return nil, ErrNotFound
	case err != nil:
		return nil, err
	}
	if pv.Expired(now) {
		return nil, ErrNotFound
	}
	return &pv, nil
}
