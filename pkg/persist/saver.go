package persist

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/aretw0/corkboard/pkg/core"
)

// Writer is the save side of a Bridge.
type Writer interface {
	Save(ctx context.Context, records []core.Record) error
}

// Saver coalesces snapshots submitted by the board. Only the newest
// unwritten snapshot is kept, and writes happen one at a time in submission
// order, so the last submitted snapshot is the one left in the store.
type Saver struct {
	w      Writer
	logger *slog.Logger

	mu      sync.Mutex
	pending []core.Record
	has     bool
	seq     uint64
	written uint64

	writeMu sync.Mutex
	wake    chan struct{}
}

// NewSaver creates a saver writing through w.
func NewSaver(w Writer, logger *slog.Logger) *Saver {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Saver{w: w, logger: logger, wake: make(chan struct{}, 1)}
}

// Submit queues records, replacing any snapshot not yet written, and
// returns its sequence number.
func (s *Saver) Submit(records []core.Record) uint64 {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.pending = records
	s.has = true
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return seq
}

// Pending reports whether a submitted snapshot has not finished writing.
// A failed write counts as finished.
func (s *Saver) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.written < s.seq
}

// Written returns the sequence number of the last finished write.
func (s *Saver) Written() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.written
}

// Flush writes the pending snapshot, if any, before returning.
func (s *Saver) Flush(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if !s.has {
		s.mu.Unlock()
		return nil
	}
	records, seq := s.pending, s.seq
	s.pending, s.has = nil, false
	s.mu.Unlock()

	err := s.w.Save(ctx, records)

	s.mu.Lock()
	if seq > s.written {
		s.written = seq
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("save failed", "seq", seq, "notes", len(records), "error", err)
		return err
	}
	s.logger.Debug("saved", "seq", seq, "notes", len(records))
	return nil
}

// Run writes submitted snapshots until ctx is done, then flushes whatever
// is still pending.
func (s *Saver) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			_ = s.Flush(context.WithoutCancel(ctx))
			return ctx.Err()
		case <-s.wake:
			_ = s.Flush(ctx)
		}
	}
}
