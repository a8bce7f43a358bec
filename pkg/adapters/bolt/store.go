// Package bolt is a local note store in a single bbolt database file.
package bolt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/introspection"
	bolt "go.etcd.io/bbolt"

	"github.com/aretw0/corkboard/pkg/core"
)

var bucketNotes = []byte("notes")

// Store keeps one JSON record per note, keyed by note ID.
type Store struct {
	path string
	db   *bolt.DB

	mu        sync.Mutex
	lastWrite time.Time
	records   int
}

// Open opens or creates the database at path. A database locked by another
// process fails with core.ErrStorageUnavailable after timeout.
func Open(path string, timeout time.Duration) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("database path is required: %w", core.ErrStorageUnavailable)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrStorageUnavailable, err)
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w: %w", path, core.ErrStorageUnavailable, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketNotes)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w: %w", core.ErrStorageUnavailable, err)
	}
	return &Store{path: path, db: db}, nil
}

// ReplaceAll implements core.LocalStore. The bucket is dropped and
// rewritten in one transaction, so readers see the old or the new snapshot.
func (s *Store) ReplaceAll(ctx context.Context, records []core.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketNotes); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}
		b, err := tx.CreateBucket(bucketNotes)
		if err != nil {
			return err
		}
		for i, r := range records {
			r.Order = i
			raw, err := json.Marshal(r)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(r.ID), raw); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace notes: %w: %w", core.ErrStorageWriteFailed, err)
	}

	s.mu.Lock()
	s.lastWrite = time.Now()
	s.records = len(records)
	s.mu.Unlock()
	return nil
}

// LoadAll implements core.LocalStore.
func (s *Store) LoadAll(ctx context.Context) ([]core.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]core.Record, 0)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketNotes)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var r core.Record
			if err := json.Unmarshal(v, &r); err != nil {
				return fmt.Errorf("note %s: %w: %w", k, core.ErrDecodeFailed, err)
			}
			out = append(out, r)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("load notes: %w: %w", core.ErrStorageUnavailable, err)
	}
	core.SortByOrder(out)
	return out, nil
}

// Close implements core.LocalStore.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// StoreState exposes internal state for observability.
type StoreState struct {
	Path      string     `json:"path"`
	Records   int        `json:"records"`
	LastWrite *time.Time `json:"last_write,omitempty"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := StoreState{Path: s.path, Records: s.records}
	if !s.lastWrite.IsZero() {
		t := s.lastWrite
		st.LastWrite = &t
	}
	return st
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "bolt-store"
}

var _ introspection.Introspectable = (*Store)(nil)
var _ introspection.Component = (*Store)(nil)
var _ core.LocalStore = (*Store)(nil)
