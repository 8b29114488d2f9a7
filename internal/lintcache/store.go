// Package lintcache keeps per-file rule results between runs in a bbolt
// database. Only rules without an aggregation step are cached: their
// diagnostics depend on nothing but the file, the options and the engine.
package lintcache

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	bolt "go.etcd.io/bbolt"

	"tslint/internal/diag"
	"tslint/internal/source"
)

var bucketResults = []byte("results")

// Key identifies one cached result.
type Key struct {
	FileHash    [32]byte
	Rule        string
	Fingerprint string // options fingerprint of the rule instance
	Engine      string // engine version
}

func (k Key) bytes() []byte {
	return []byte(hex.EncodeToString(k.FileHash[:]) + "/" + k.Fingerprint + "/" + k.Engine)
}

// Store is a bbolt-backed result cache. A nil *Store is a valid, always-missing cache.
type Store struct {
	db   *bolt.DB
	path string

	hits, misses atomic.Int64
}

// DefaultPath returns $XDG_CACHE_HOME/<app>/lint.db (or ~/.cache/...).
func DefaultPath(app string) (string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, app, "lint.db"), nil
}

// Open opens (or creates) the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("lintcache: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("lintcache open: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the database file.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}

// Get returns the cached diagnostics for key, rebound to file.
func (s *Store) Get(key Key, file source.FileID) ([]diag.Diagnostic, bool, error) {
	if s == nil {
		return nil, false, nil
	}
	var raw []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		root := tx.Bucket(bucketResults)
		if root == nil {
			return nil
		}
		rb := root.Bucket([]byte(key.Rule))
		if rb == nil {
			return nil
		}
		// срез bbolt валиден только внутри транзакции
		if v := rb.Get(key.bytes()); v != nil {
			raw = make([]byte, len(v))
			copy(raw, v)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if raw == nil {
		s.misses.Add(1)
		return nil, false, nil
	}
	var p payload
	if err := msgpack.Unmarshal(raw, &p); err != nil {
		return nil, false, fmt.Errorf("lintcache decode %s: %w", key.Rule, err)
	}
	if p.Schema != schemaVersion {
		s.misses.Add(1)
		return nil, false, nil
	}
	s.hits.Add(1)
	return p.decode(file), true, nil
}

// Put stores diags for key. Deferred suggestions are resolved first.
func (s *Store) Put(key Key, file source.FileID, diags []diag.Diagnostic) error {
	if s == nil {
		return nil
	}
	p, err := encode(file, diags)
	if err != nil {
		return err
	}
	raw, err := msgpack.Marshal(p)
	if err != nil {
		return fmt.Errorf("lintcache encode %s: %w", key.Rule, err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		root, err := tx.CreateBucketIfNotExists(bucketResults)
		if err != nil {
			return err
		}
		rb, err := root.CreateBucketIfNotExists([]byte(key.Rule))
		if err != nil {
			return err
		}
		return rb.Put(key.bytes(), raw)
	})
}

// DropAll invalidates every cached result.
func (s *Store) DropAll() error {
	if s == nil {
		return nil
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(bucketResults) == nil {
			return nil
		}
		return tx.DeleteBucket(bucketResults)
	})
}

// Len returns the number of cached results of rule ("" counts all rules).
func (s *Store) Len(rule string) (int, error) {
	if s == nil {
		return 0, nil
	}
	n := 0
	err := s.db.View(func(tx *bolt.Tx) error {
		root := tx.Bucket(bucketResults)
		if root == nil {
			return nil
		}
		return root.ForEach(func(name, v []byte) error {
			if v != nil || (rule != "" && string(name) != rule) {
				return nil
			}
			n += root.Bucket(name).Stats().KeyN
			return nil
		})
	})
	return n, err
}

// Stats reports hits and misses since Open.
func (s *Store) Stats() (hits, misses int64) {
	if s == nil {
		return 0, 0
	}
	return s.hits.Load(), s.misses.Load()
}
