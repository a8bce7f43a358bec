// Package fs is a local note store that keeps one JSON file per note in a
// directory, so notes can be inspected and edited by hand. A watch worker
// reports external edits.
package fs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/corkboard/pkg/core"
)

// NotePattern matches note files inside the store directory.
const NotePattern = "*.json"

const noteExt = ".json"

// Config configures a Store.
type Config struct {
	Path   string
	Logger *slog.Logger
	// ErrorHandler receives watcher failures. Optional.
	ErrorHandler func(error)
}

// Store implements core.LocalStore on a directory.
type Store struct {
	Path   string
	config Config

	mu            sync.RWMutex
	records       int
	lastWrite     *time.Time
	watcherActive bool
}

// NewStore creates a store rooted at config.Path. The directory is created
// on the first write.
func NewStore(config Config) *Store {
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{Path: config.Path, config: config}
}

// ReplaceAll implements core.LocalStore. Every record is written to
// <id>.json, then files of notes no longer present are removed.
func (s *Store) ReplaceAll(ctx context.Context, records []core.Record) error {
	if err := os.MkdirAll(s.Path, 0o755); err != nil {
		return fmt.Errorf("%w: %w", core.ErrStorageWriteFailed, err)
	}

	keep := make(map[string]struct{}, len(records))
	for i, r := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.Order = i
		name, err := writeRecord(s.Path, r)
		if err != nil {
			return fmt.Errorf("%w: %w", core.ErrStorageWriteFailed, err)
		}
		keep[name] = struct{}{}
	}

	if err := s.removeStale(keep); err != nil {
		return fmt.Errorf("%w: %w", core.ErrStorageWriteFailed, err)
	}

	now := time.Now()
	s.mu.Lock()
	s.records = len(records)
	s.lastWrite = &now
	s.mu.Unlock()
	return nil
}

func (s *Store) removeStale(keep map[string]struct{}) error {
	matches, err := doublestar.Glob(os.DirFS(s.Path), NotePattern)
	if err != nil {
		return err
	}
	var errs []error
	for _, m := range matches {
		if _, ok := keep[m]; ok {
			continue
		}
		if err := os.Remove(filepath.Join(s.Path, m)); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LoadAll implements core.LocalStore. A missing directory is an empty
// store. A file that does not parse fails the whole load, so a half-saved
// hand edit never drops a note from the board.
//
// Records without an ID take it from the file name.
func (s *Store) LoadAll(ctx context.Context) ([]core.Record, error) {
	if _, err := os.Stat(s.Path); errors.Is(err, os.ErrNotExist) {
		return []core.Record{}, nil
	}
	matches, err := doublestar.Glob(os.DirFS(s.Path), NotePattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrStorageUnavailable, err)
	}

	out := make([]core.Record, 0, len(matches))
	for _, m := range matches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(filepath.Join(s.Path, m))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue // removed since the glob
			}
			return nil, fmt.Errorf("%w: %w", core.ErrStorageUnavailable, err)
		}
		var r core.Record
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("%s: %w: %w: %w", m, core.ErrStorageUnavailable, core.ErrDecodeFailed, err)
		}
		if r.ID == "" {
			r.ID = strings.TrimSuffix(m, noteExt)
		}
		out = append(out, r)
	}
	core.SortByOrder(out)
	return out, nil
}

// Close implements core.LocalStore.
func (s *Store) Close() error { return nil }

// fileName maps a note ID to its file, rejecting IDs that would escape the
// directory.
func fileName(id string) (string, error) {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return "", fmt.Errorf("note id %q is not a valid file name", id)
	}
	return id + noteExt, nil
}

// idFromPath is the inverse of fileName for watcher events.
func idFromPath(path string) (string, bool) {
	base := filepath.Base(path)
	if ok, _ := doublestar.Match(NotePattern, base); !ok {
		return "", false
	}
	return strings.TrimSuffix(base, noteExt), true
}

var _ core.LocalStore = (*Store)(nil)
