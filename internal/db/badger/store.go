// Package badger implements db.Store over an embedded BadgerDB instance,
// for single-node deployments and tests that should not need a network
// database. Sets are laid out as prefixed member keys, which keeps SMembers
// a plain prefix iteration.
package badger

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"go.uber.org/zap"

	"github.com/kailas-cloud/fcdex/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// setSep separates a set key from its member in the key layout. Keys and
// members must not contain a NUL byte.
const setSep = "\x00"

// Config holds parameters for an embedded Badger store.
type Config struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string
	// InMemory keeps all data in RAM; used by tests and the SDK.
	InMemory bool
	// Logger receives Badger's internal log output. Optional.
	Logger *zap.Logger
}

// Store implements db.Store via BadgerDB.
type Store struct {
	bdb *badger.DB
}

// NewStore opens (or creates) a Badger database.
func NewStore(cfg Config) (*Store, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		info, err := os.Stat(cfg.Path)
		if os.IsNotExist(err) {
			if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
				return nil, fmt.Errorf("create database dir: %w", err)
			}
		} else if err != nil {
			return nil, fmt.Errorf("stat database dir: %w", err)
		} else if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", cfg.Path)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	opts.Logger = &badgerLogger{sugar: logger.Sugar()}
	opts.Compression = options.None

	bdb, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Store{bdb: bdb}, nil
}

// Ping reports an error when the database has been closed.
func (s *Store) Ping(_ context.Context) error {
	if s.bdb.IsClosed() {
		return &db.Error{Op: db.OpPing, Err: fmt.Errorf("database is closed")}
	}
	return nil
}

// Close shuts down the database.
func (s *Store) Close() {
	_ = s.bdb.Close()
}

// WaitForReady returns immediately; an embedded store is ready once opened.
func (s *Store) WaitForReady(ctx context.Context, _ time.Duration) error {
	return s.Ping(ctx)
}

// Get retrieves a value by key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	var out []byte
	err := s.bdb.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, db.ErrKeyNotFound
		}
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return out, nil
}

// Set stores a value at the given key.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	err := s.bdb.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

// Del removes a key.
func (s *Store) Del(_ context.Context, key string) error {
	err := s.bdb.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	return nil
}

// Exists reports whether a key is present.
func (s *Store) Exists(_ context.Context, key string) (bool, error) {
	err := s.bdb.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		return err
	})
	if err == nil {
		return true, nil
	}
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	return false, &db.Error{Op: db.OpExists, Err: err}
}

// SAdd adds members to a set.
func (s *Store) SAdd(_ context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	err := s.bdb.Update(func(txn *badger.Txn) error {
		for _, m := range members {
			if err := txn.Set([]byte(key+setSep+m), nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &db.Error{Op: db.OpSAdd, Err: err}
	}
	return nil
}

// SMembers returns the members of a set in sorted order. A missing key
// yields an empty slice.
func (s *Store) SMembers(_ context.Context, key string) ([]string, error) {
	prefix := []byte(key + setSep)
	var members []string
	err := s.bdb.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			members = append(members, string(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, &db.Error{Op: db.OpSMembers, Err: err}
	}
	return members, nil
}

// Scan lists keys matching a "prefix*" pattern in lexicographic order.
// Set member keys are excluded; they are internal layout.
func (s *Store) Scan(_ context.Context, pattern string) ([]string, error) {
	prefix, ok := strings.CutSuffix(pattern, "*")
	if !ok {
		return nil, &db.Error{Op: db.OpScan, Err: fmt.Errorf("pattern %q must end with '*'", pattern)}
	}

	var keys []string
	err := s.bdb.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			k := string(it.Item().Key())
			if strings.Contains(k, setSep) {
				continue
			}
			keys = append(keys, k)
		}
		return nil
	})
	if err != nil {
		return nil, &db.Error{Op: db.OpScan, Err: err}
	}
	return keys, nil
}

// badgerLogger adapts zap to the badger.Logger interface.
type badgerLogger struct {
	sugar *zap.SugaredLogger
}

var _ badger.Logger = (*badgerLogger)(nil)

func (l *badgerLogger) Errorf(msg string, args ...any)   { l.sugar.Errorf(msg, args...) }
func (l *badgerLogger) Warningf(msg string, args ...any) { l.sugar.Warnf(msg, args...) }
func (l *badgerLogger) Infof(msg string, args ...any)    { l.sugar.Debugf(msg, args...) }
func (l *badgerLogger) Debugf(msg string, args ...any)   { l.sugar.Debugf(msg, args...) }
