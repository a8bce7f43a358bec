// Package board owns the live note list. It applies pointer gestures,
// creation, deletion and playback to it, saves it through the persistence
// bridge and merges polled snapshots back in.
//
// All handlers are serialised by one mutex, so callers may drive a Board
// from any goroutine. Store, network and metadata I/O never run under it.
package board

import (
	"context"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/aretw0/corkboard/pkg/camera"
	"github.com/aretw0/corkboard/pkg/core"
	"github.com/aretw0/corkboard/pkg/gesture"
	"github.com/aretw0/corkboard/pkg/media"
	"github.com/aretw0/corkboard/pkg/persist"
	"github.com/aretw0/corkboard/pkg/playback"
)

// DefaultPollInterval is the cadence of the re-sync poll.
const DefaultPollInterval = 2 * time.Second

// Store is the persistence the board talks to. *persist.Bridge implements it.
type Store interface {
	Load(ctx context.Context) ([]core.Record, error)
	Save(ctx context.Context, records []core.Record) error
}

// Board is the note store of one canvas.
type Board struct {
	mu sync.Mutex

	notes   []*core.Note
	cam     *camera.Camera
	gesture *gesture.Controller
	player  *playback.Controller

	store     Store
	saver     *persist.Saver
	extractor media.Extractor
	uploader  core.AudioUploader
	validate  *validator.Validate

	logger   *slog.Logger
	notify   func(error)
	rnd      func() float64
	now      func() time.Time
	measure  core.Measurer
	device   playback.Device
	interval time.Duration

	viewport      core.Size
	dialogOpen    bool
	pendingDelete string

	fingerprint string
	lastPoll    time.Time
	lastPollErr error
	failures    []error

	subs  []chan core.Event
	nudge chan struct{}

	// uploads counts audio uploads in flight; idle is signalled when it
	// drops to zero.
	uploads int
	idle    *sync.Cond
	closing bool
	closed  bool
}

// Option configures a Board.
type Option func(*Board)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Board) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithDevice sets the audio device. The default is playback.SilentDevice.
func WithDevice(d playback.Device) Option {
	return func(b *Board) { b.device = d }
}

// WithExtractor enables metadata extraction for new music notes.
func WithExtractor(e media.Extractor) Option {
	return func(b *Board) { b.extractor = e }
}

// WithUploader enables best-effort audio uploads for new music notes.
func WithUploader(u core.AudioUploader) Option {
	return func(b *Board) { b.uploader = u }
}

// WithNotifier sets the sink for user-visible failures such as playback
// errors. It is called without the board lock held.
func WithNotifier(fn func(error)) Option {
	return func(b *Board) { b.notify = fn }
}

// WithPollInterval overrides DefaultPollInterval.
func WithPollInterval(d time.Duration) Option {
	return func(b *Board) {
		if d > 0 {
			b.interval = d
		}
	}
}

// WithRand sets the random source used for placement jitter, colors and
// rotations.
func WithRand(r *rand.Rand) Option {
	return func(b *Board) { b.rnd = r.Float64 }
}

// WithClock sets the creation time source.
func WithClock(now func() time.Time) Option {
	return func(b *Board) { b.now = now }
}

// WithMeasurer sets the text measurer used to size expanded notes.
func WithMeasurer(m core.Measurer) Option {
	return func(b *Board) { b.measure = m }
}

// WithZoomRange overrides the camera zoom limits.
func WithZoomRange(minZoom, maxZoom float64) Option {
	return func(b *Board) {
		b.cam.MinZoom = minZoom
		b.cam.MaxZoom = maxZoom
	}
}

// WithViewport sets the initial viewport size in screen pixels.
func WithViewport(w, h float64) Option {
	return func(b *Board) { b.viewport = core.Size{W: w, H: h} }
}

// New creates an empty board saving to store. Call Poll to load the
// persisted notes.
func New(store Store, opts ...Option) *Board {
	b := &Board{
		cam:      camera.New(),
		gesture:  gesture.NewController(),
		store:    store,
		validate: validator.New(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		rnd:      rand.Float64,
		now:      time.Now,
		measure:  core.DefaultMeasurer,
		device:   playback.SilentDevice{},
		interval: DefaultPollInterval,
		viewport: core.Size{W: 1280, H: 800},
		nudge:    make(chan struct{}, 1),
	}
	b.idle = sync.NewCond(&b.mu)
	for _, opt := range opts {
		opt(b)
	}
	b.saver = persist.NewSaver(store, b.logger)
	b.player = playback.New(b.device, b.logger)
	b.player.OnEnded(func(id string) {
		go b.TrackEnded(id)
	})
	return b
}

// unlock releases the board lock and then hands queued failures to the
// notifier.
func (b *Board) unlock() {
	failures := b.failures
	b.failures = nil
	b.mu.Unlock()

	if b.notify == nil {
		return
	}
	for _, err := range failures {
		b.notify(err)
	}
}

// Notes returns copies of the notes in stacking order, bottom first.
func (b *Board) Notes() []*core.Note {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*core.Note, len(b.notes))
	for i, n := range b.notes {
		out[i] = n.Clone()
	}
	return out
}

// Note returns a copy of the note with id.
func (b *Board) Note(id string) (*core.Note, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n := b.lookup(id); n != nil {
		return n.Clone(), true
	}
	return nil, false
}

// Camera returns a copy of the camera.
func (b *Board) Camera() camera.Camera {
	b.mu.Lock()
	defer b.mu.Unlock()
	return *b.cam
}

// SetViewport records the screen size used to centre new notes.
func (b *Board) SetViewport(w, h float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.viewport = core.Size{W: w, H: h}
}

// OpenDialog marks an editing dialog as open. Polls are skipped until
// CloseDialog.
func (b *Board) OpenDialog() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dialogOpen = true
}

// CloseDialog reverses OpenDialog.
func (b *Board) CloseDialog() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dialogOpen = false
}

// Subscribe returns a channel receiving board events. Events are dropped
// when the buffer is full. The channel is closed by Close.
func (b *Board) Subscribe(buffer int) <-chan core.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan core.Event, max(buffer, 1))
	if b.closed {
		close(ch)
		return ch
	}
	b.subs = append(b.subs, ch)
	return ch
}

func (b *Board) emit(t core.EventType, id string) {
	e := core.NewEvent(t, id)
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
			b.logger.Debug("event dropped", "event", e.String())
		}
	}
}

// Flush writes any pending snapshot and waits for background uploads.
func (b *Board) Flush(ctx context.Context) error {
	err := b.saver.Flush(ctx)
	b.waitUploads()
	return err
}

// Close stops playback, flushes pending saves and closes subscriber
// channels. Music created after Close starts is not uploaded.
func (b *Board) Close(ctx context.Context) error {
	b.mu.Lock()
	b.closing = true
	b.player.Stop(b.lookup)
	b.mu.Unlock()

	err := b.Flush(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.closed = true
		for _, ch := range b.subs {
			close(ch)
		}
		b.subs = nil
	}
	return err
}

// commit queues the current list for saving.
func (b *Board) commit() {
	b.saver.Submit(core.Snapshot(b.notes))
}

func (b *Board) lookup(id string) *core.Note {
	if i := b.indexOf(id); i >= 0 {
		return b.notes[i]
	}
	return nil
}

func (b *Board) indexOf(id string) int {
	for i, n := range b.notes {
		if n.ID == id {
			return i
		}
	}
	return -1
}

// busy reports whether a poll must not touch the note list.
func (b *Board) busy() bool {
	return b.gesture.Dragging() || b.dialogOpen || b.pendingDelete != "" || b.saver.Pending()
}
