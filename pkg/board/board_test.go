package board

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/corkboard/pkg/core"
	"github.com/aretw0/corkboard/pkg/gesture"
	"github.com/aretw0/corkboard/pkg/media"
	"github.com/aretw0/corkboard/pkg/playback"
)

type memStore struct {
	mu      sync.Mutex
	records []core.Record
	saves   int
	loadErr error
	onLoad  func()
}

func (s *memStore) Load(context.Context) ([]core.Record, error) {
	if s.onLoad != nil {
		s.onLoad()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return append([]core.Record(nil), s.records...), nil
}

func (s *memStore) Save(_ context.Context, records []core.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	s.records = append([]core.Record(nil), records...)
	return nil
}

func (s *memStore) snapshot() []core.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Record(nil), s.records...)
}

type fakeExtractor struct {
	md  media.Metadata
	err error
}

func (e fakeExtractor) Extract(context.Context, []byte) (media.Metadata, error) {
	return e.md, e.err
}

func newBoard(t *testing.T, store Store, opts ...Option) *Board {
	t.Helper()
	opts = append([]Option{WithRand(rand.New(rand.NewPCG(1, 2)))}, opts...)
	return New(store, opts...)
}

func centre(n *core.Note) (float64, float64) {
	return n.Position.X + n.Size.W/2, n.Position.Y + n.Size.H/2
}

func addText(t *testing.T, b *Board, content string) *core.Note {
	t.Helper()
	n, err := b.Create(context.Background(), core.CreateRequest{Kind: core.KindText, Content: content})
	require.NoError(t, err)
	return n
}

func addMusic(t *testing.T, b *Board, name string) *core.Note {
	t.Helper()
	n, err := b.Create(context.Background(), core.CreateRequest{
		Kind:          core.KindMusic,
		Audio:         []byte{0xff, 0xfb, 0x90, 0x00},
		AudioMimeType: "audio/mpeg",
		AudioName:     name,
	})
	require.NoError(t, err)
	return n
}

func TestBoard_TextExpandCollapse(t *testing.T) {
	b := newBoard(t, &memStore{})
	n := addText(t, b, "Hello")

	notes := b.Notes()
	require.Len(t, notes, 1)
	assert.Equal(t, core.KindText, notes[0].Kind())
	tb, _ := notes[0].Text()
	assert.False(t, tb.Expanded)
	assert.Equal(t, core.BaseSize(core.KindText), notes[0].Size)

	cx, cy := centre(n)
	b.PointerDown(cx, cy)
	assert.Equal(t, gesture.OutcomeClick, b.PointerUp(cx, cy))

	got, _ := b.Note(n.ID)
	tb, _ = got.Text()
	assert.True(t, tb.Expanded)
	assert.Equal(t, core.ExpandedWidth, got.Size.W)

	b.PointerDown(cx, cy)
	b.PointerUp(cx, cy)
	got, _ = b.Note(n.ID)
	tb, _ = got.Text()
	assert.False(t, tb.Expanded)
	assert.Equal(t, core.BaseSize(core.KindText), got.Size)
}

func TestBoard_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Placed Near Viewport Centre", func(t *testing.T) {
		b := newBoard(t, &memStore{}, WithViewport(1000, 600))
		n := addText(t, b, "x")
		cx, cy := centre(n)
		assert.InDelta(t, 500, cx, placementJitter)
		assert.InDelta(t, 300, cy, placementJitter)
		assert.InDelta(t, 0, n.Rotation, createRotation)
		assert.Contains(t, core.Palette, n.Color)
		assert.NotEmpty(t, n.View.DisplayTime)
	})

	t.Run("New Notes Go On Top", func(t *testing.T) {
		b := newBoard(t, &memStore{})
		a := addText(t, b, "a")
		c := addText(t, b, "c")
		notes := b.Notes()
		assert.Equal(t, []string{a.ID, c.ID}, []string{notes[0].ID, notes[1].ID})
	})

	t.Run("Invalid Requests", func(t *testing.T) {
		b := newBoard(t, &memStore{})
		_, err := b.Create(ctx, core.CreateRequest{Kind: core.KindText})
		assert.ErrorIs(t, err, core.ErrInvalidRequest)
		_, err = b.Create(ctx, core.CreateRequest{Kind: core.KindMusic})
		assert.ErrorIs(t, err, core.ErrInvalidRequest)
		_, err = b.Create(ctx, core.CreateRequest{Kind: "video", Content: "x"})
		assert.ErrorIs(t, err, core.ErrInvalidRequest)
		_, err = b.Create(ctx, core.CreateRequest{Kind: core.KindText, Content: " \n\t "})
		assert.ErrorIs(t, err, core.ErrInvalidRequest)
		assert.Empty(t, b.Notes())
	})

	t.Run("Text Is Trimmed", func(t *testing.T) {
		b := newBoard(t, &memStore{})
		n := addText(t, b, "  hello  \n")
		assert.Equal(t, "hello", n.Content())
	})

	t.Run("Saved On Flush", func(t *testing.T) {
		store := &memStore{}
		b := newBoard(t, store)
		n := addText(t, b, "persist me")
		require.NoError(t, b.Flush(ctx))

		recs := store.snapshot()
		require.Len(t, recs, 1)
		assert.Equal(t, n.ID, recs[0].ID)
		assert.Equal(t, "persist me", recs[0].Content)
	})
}

func TestBoard_CreateMusicMetadata(t *testing.T) {
	cover := []byte("not really an image")

	t.Run("Extracted Title And Cover", func(t *testing.T) {
		b := newBoard(t, &memStore{}, WithExtractor(fakeExtractor{md: media.Metadata{Title: "Tagged", CoverArt: cover}}))
		n := addMusic(t, b, "file.mp3")
		m, ok := n.Music()
		require.True(t, ok)
		assert.Equal(t, "Tagged", m.Title)
		assert.Equal(t, cover, m.CoverArt)
		assert.True(t, n.View.CoverFailed, "undecodable cover falls back to a placeholder")
		assert.Equal(t, core.BaseSize(core.KindMusic), n.Size)
	})

	t.Run("User Title Wins", func(t *testing.T) {
		b := newBoard(t, &memStore{}, WithExtractor(fakeExtractor{md: media.Metadata{Title: "Tagged"}}))
		n, err := b.Create(context.Background(), core.CreateRequest{
			Kind: core.KindMusic, Content: "Mine", Audio: []byte{1}, AudioName: "x.mp3",
		})
		require.NoError(t, err)
		assert.Equal(t, "Mine", n.Content())
	})

	t.Run("Falls Back To File Name", func(t *testing.T) {
		b := newBoard(t, &memStore{}, WithExtractor(fakeExtractor{err: core.ErrDecodeFailed}))
		n := addMusic(t, b, "/music/Song Name.mp3")
		assert.Equal(t, "Song Name", n.Content())
	})

	t.Run("Unknown Track", func(t *testing.T) {
		b := newBoard(t, &memStore{})
		n := addMusic(t, b, "")
		assert.Equal(t, unknownTitle, n.Content())
	})
}

type fakeUploader struct {
	mu    sync.Mutex
	names []string
}

func (u *fakeUploader) UploadAudio(_ context.Context, name string, _ []byte) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.names = append(u.names, name)
	return "ref-" + name, nil
}

func TestBoard_CreateMusicUploads(t *testing.T) {
	up := &fakeUploader{}
	b := newBoard(t, &memStore{}, WithUploader(up))
	addMusic(t, b, "a.mp3")
	addText(t, b, "text notes are not uploaded")
	require.NoError(t, b.Flush(context.Background()))

	up.mu.Lock()
	defer up.mu.Unlock()
	assert.Equal(t, []string{"a.mp3"}, up.names)
}

// gatedUploader blocks every upload until release is closed.
type gatedUploader struct {
	fakeUploader
	release chan struct{}
}

func (u *gatedUploader) UploadAudio(ctx context.Context, name string, data []byte) (string, error) {
	<-u.release
	return u.fakeUploader.UploadAudio(ctx, name, data)
}

func TestBoard_UploadTracking(t *testing.T) {
	ctx := context.Background()

	t.Run("Flush Waits For Uploads", func(t *testing.T) {
		up := &gatedUploader{release: make(chan struct{})}
		b := newBoard(t, &memStore{}, WithUploader(up))
		addMusic(t, b, "a.mp3")

		done := make(chan error, 1)
		go func() { done <- b.Flush(ctx) }()
		select {
		case <-done:
			t.Fatal("flush returned while an upload was in flight")
		case <-time.After(50 * time.Millisecond):
		}

		close(up.release)
		require.NoError(t, <-done)
		up.mu.Lock()
		defer up.mu.Unlock()
		assert.Equal(t, []string{"a.mp3"}, up.names)
	})

	t.Run("Concurrent Create And Flush", func(t *testing.T) {
		up := &fakeUploader{}
		b := newBoard(t, &memStore{}, WithUploader(up))

		var wg sync.WaitGroup
		for i := range 8 {
			wg.Add(2)
			go func() {
				defer wg.Done()
				_, err := b.Create(ctx, core.CreateRequest{
					Kind:      core.KindMusic,
					Audio:     []byte{byte(i)},
					AudioName: fmt.Sprintf("%d.mp3", i),
				})
				assert.NoError(t, err)
			}()
			go func() {
				defer wg.Done()
				assert.NoError(t, b.Flush(ctx))
			}()
		}
		wg.Wait()
		require.NoError(t, b.Flush(ctx))

		up.mu.Lock()
		defer up.mu.Unlock()
		assert.Len(t, up.names, 8)
	})

	t.Run("No Upload After Close", func(t *testing.T) {
		up := &fakeUploader{}
		b := newBoard(t, &memStore{}, WithUploader(up))
		require.NoError(t, b.Close(ctx))

		addMusic(t, b, "late.mp3")
		require.NoError(t, b.Flush(ctx))
		up.mu.Lock()
		defer up.mu.Unlock()
		assert.Empty(t, up.names)
	})
}

type countingDevice struct {
	playback.SilentDevice
	mu     sync.Mutex
	opened int
}

func (d *countingDevice) Open(src core.AudioSource, onEnded func()) (playback.Handle, error) {
	d.mu.Lock()
	d.opened++
	d.mu.Unlock()
	return d.SilentDevice.Open(src, onEnded)
}

func TestBoard_SinglePlayback(t *testing.T) {
	dev := &countingDevice{}
	b := newBoard(t, &memStore{}, WithDevice(dev))
	a := addMusic(t, b, "a.mp3")
	c := addMusic(t, b, "b.mp3")

	require.NoError(t, b.TogglePlayback(a.ID))
	require.NoError(t, b.TogglePlayback(c.ID))

	na, _ := b.Note(a.ID)
	nc, _ := b.Note(c.ID)
	assert.False(t, na.Playing())
	assert.True(t, nc.Playing())
	assert.Equal(t, c.ID, b.Playing())
	assert.Equal(t, 2, dev.opened)

	playing := 0
	for _, n := range b.Notes() {
		if n.Playing() {
			playing++
		}
	}
	assert.Equal(t, 1, playing)
}

func TestBoard_PlaybackFailureNotifies(t *testing.T) {
	var got []error
	b := newBoard(t, &memStore{}, WithNotifier(func(err error) { got = append(got, err) }))
	n := addMusic(t, b, "a.mp3")

	// Strip the audio so the device refuses it.
	b.mu.Lock()
	m, _ := b.lookup(n.ID).Music()
	m.Audio = core.AudioSource{}
	b.mu.Unlock()

	err := b.TogglePlayback(n.ID)
	require.ErrorIs(t, err, core.ErrPlaybackFailed)
	require.Len(t, got, 1)
	assert.ErrorIs(t, got[0], core.ErrPlaybackFailed)
	assert.Empty(t, b.Playing())

	assert.ErrorIs(t, b.TogglePlayback("missing"), core.ErrNotFound)
}

func TestBoard_PlayControlTogglesPlayback(t *testing.T) {
	b := newBoard(t, &memStore{})
	n := addMusic(t, b, "a.mp3")

	// Play button centre, 35 units inside the bottom-right corner.
	px := n.Position.X + n.Size.W - 35
	py := n.Position.Y + n.Size.H - 35
	b.PointerDown(px, py)
	assert.Equal(t, gesture.OutcomeControl, b.PointerUp(px, py))
	assert.Equal(t, n.ID, b.Playing())

	b.TrackEnded(n.ID)
	assert.Empty(t, b.Playing())
	got, _ := b.Note(n.ID)
	assert.False(t, got.Playing())
}

func TestBoard_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("Stops Playback First", func(t *testing.T) {
		store := &memStore{}
		b := newBoard(t, store)
		n := addMusic(t, b, "a.mp3")
		require.NoError(t, b.TogglePlayback(n.ID))

		require.NoError(t, b.RequestDelete(n.ID))
		id, err := b.ConfirmDelete()
		require.NoError(t, err)
		assert.Equal(t, n.ID, id)
		assert.Empty(t, b.Playing())
		assert.Empty(t, b.Notes())

		require.NoError(t, b.Flush(ctx))
		assert.Empty(t, store.snapshot())
	})

	t.Run("Cancel Keeps Note", func(t *testing.T) {
		b := newBoard(t, &memStore{})
		n := addText(t, b, "keep")
		require.NoError(t, b.RequestDelete(n.ID))
		b.CancelDelete()
		assert.Empty(t, b.PendingDelete())
		assert.Len(t, b.Notes(), 1)
		_, err := b.ConfirmDelete()
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("Delete Control Requests Confirmation", func(t *testing.T) {
		b := newBoard(t, &memStore{})
		n := addText(t, b, "x")
		dx := n.Position.X + n.Size.W - 15
		dy := n.Position.Y + 15
		b.PointerDown(dx, dy)
		b.PointerUp(dx, dy)
		assert.Equal(t, n.ID, b.PendingDelete())
		assert.Len(t, b.Notes(), 1)
	})

	t.Run("Unknown ID", func(t *testing.T) {
		b := newBoard(t, &memStore{})
		assert.ErrorIs(t, b.RequestDelete("nope"), core.ErrNotFound)
	})
}

func TestBoard_DragRaisesAndMoves(t *testing.T) {
	b := newBoard(t, &memStore{})
	a := addText(t, b, "a")
	c := addText(t, b, "c")
	events := b.Subscribe(8)

	// Grab a where it does not overlap c: both sit near the centre, so move
	// c out of the way first.
	cx, cy := centre(c)
	b.PointerDown(cx, cy)
	b.PointerMove(cx+400, cy)
	b.PointerUp(cx+400, cy)

	ax, ay := centre(a)
	b.PointerDown(ax, ay)
	b.PointerMove(ax+50, ay+20)
	assert.Equal(t, gesture.OutcomeDrag, b.PointerUp(ax+50, ay+20))

	notes := b.Notes()
	assert.Equal(t, a.ID, notes[1].ID, "dragged note is on top")
	assert.InDelta(t, a.Position.X+50, notes[1].Position.X, 1e-9)
	assert.InDelta(t, a.Position.Y+20, notes[1].Position.Y, 1e-9)

	var got []core.Event
	for len(events) > 0 {
		got = append(got, <-events)
	}
	require.Len(t, got, 2)
	assert.Equal(t, core.EventModify, got[1].Type)
	assert.Equal(t, a.ID, got[1].ID)
}

func TestBoard_PanAndWheel(t *testing.T) {
	b := newBoard(t, &memStore{})
	b.PointerDown(10, 10)
	b.PointerMove(60, 30)
	assert.Equal(t, gesture.OutcomePan, b.PointerUp(60, 30))

	cam := b.Camera()
	assert.Equal(t, 50.0, cam.OffsetX)
	assert.Equal(t, 20.0, cam.OffsetY)

	b.Wheel(100, 100, -100)
	assert.InDelta(t, 1.1, b.Camera().Zoom, 1e-9)
}

func TestBoard_Poll(t *testing.T) {
	ctx := context.Background()

	t.Run("Merges External Changes", func(t *testing.T) {
		store := &memStore{records: []core.Record{{ID: "1", Kind: core.KindText, Content: "hi"}}}
		b := newBoard(t, store)
		events := b.Subscribe(4)

		changed, err := b.Poll(ctx)
		require.NoError(t, err)
		assert.True(t, changed)
		require.Len(t, b.Notes(), 1)
		assert.Equal(t, core.GridPosition(0), b.Notes()[0].Position)
		assert.Equal(t, core.EventReload, (<-events).Type)

		changed, err = b.Poll(ctx)
		require.NoError(t, err)
		assert.False(t, changed, "unchanged snapshot is not merged again")
	})

	t.Run("Skipped While Busy", func(t *testing.T) {
		store := &memStore{records: []core.Record{{ID: "1", Content: "hi"}}}
		b := newBoard(t, store)

		b.OpenDialog()
		changed, _ := b.Poll(ctx)
		assert.False(t, changed)
		b.CloseDialog()

		addText(t, b, "unsaved")
		changed, _ = b.Poll(ctx)
		assert.False(t, changed, "pending save holds off polls")
		require.NoError(t, b.Flush(ctx))

		changed, err := b.Poll(ctx)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Len(t, b.Notes(), 1, "local edits were saved before the merge")
		assert.Equal(t, "unsaved", b.Notes()[0].Content())
	})

	t.Run("Skipped While Dragging", func(t *testing.T) {
		store := &memStore{}
		b := newBoard(t, store)
		n := addText(t, b, "x")
		require.NoError(t, b.Flush(ctx))

		cx, cy := centre(n)
		b.PointerDown(cx, cy)
		store.mu.Lock()
		store.records = nil
		store.mu.Unlock()
		changed, _ := b.Poll(ctx)
		assert.False(t, changed)
		assert.Len(t, b.Notes(), 1)
	})

	t.Run("Discards Load When Interaction Starts", func(t *testing.T) {
		store := &memStore{records: []core.Record{{ID: "1", Content: "hi"}}}
		b := newBoard(t, store)
		store.onLoad = b.OpenDialog

		changed, err := b.Poll(ctx)
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Empty(t, b.Notes())

		store.onLoad = nil
		b.CloseDialog()
		changed, _ = b.Poll(ctx)
		assert.True(t, changed, "applied at the next tick")
	})

	t.Run("Load Failure Keeps Notes", func(t *testing.T) {
		store := &memStore{}
		b := newBoard(t, store)
		addText(t, b, "x")
		require.NoError(t, b.Flush(ctx))

		store.loadErr = errors.Join(core.ErrStorageUnavailable, errors.New("gone"))
		_, err := b.Poll(ctx)
		assert.ErrorIs(t, err, core.ErrStorageUnavailable)
		assert.Len(t, b.Notes(), 1)

		st := b.State().(State)
		assert.NotEmpty(t, st.LastPollError)
	})

	t.Run("External Delete Stops Playback", func(t *testing.T) {
		store := &memStore{}
		b := newBoard(t, store)
		n := addMusic(t, b, "a.mp3")
		require.NoError(t, b.Flush(ctx))
		require.NoError(t, b.TogglePlayback(n.ID))

		store.mu.Lock()
		store.records = []core.Record{}
		store.mu.Unlock()
		changed, err := b.Poll(ctx)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Empty(t, b.Playing())
	})

	t.Run("Kind Change Stops Playback", func(t *testing.T) {
		store := &memStore{}
		b := newBoard(t, store)
		n := addMusic(t, b, "a.mp3")
		require.NoError(t, b.Flush(ctx))
		require.NoError(t, b.TogglePlayback(n.ID))

		store.mu.Lock()
		store.records = []core.Record{{ID: n.ID, Kind: core.KindText, Content: "now a note"}}
		store.mu.Unlock()
		changed, err := b.Poll(ctx)
		require.NoError(t, err)
		assert.True(t, changed)

		got, ok := b.Note(n.ID)
		require.True(t, ok)
		assert.Equal(t, core.KindText, got.Kind())
		assert.Empty(t, b.Playing())
		assert.ErrorIs(t, b.TogglePlayback(n.ID), core.ErrInvalidRequest)
	})

	t.Run("Repeated IDs Keep First", func(t *testing.T) {
		store := &memStore{records: []core.Record{
			{ID: "x", Content: "first"},
			{ID: "x", Content: "second"},
		}}
		b := newBoard(t, store)
		changed, err := b.Poll(ctx)
		require.NoError(t, err)
		assert.True(t, changed)

		notes := b.Notes()
		require.Len(t, notes, 1)
		assert.Equal(t, "first", notes[0].Content())
	})
}

func TestBoard_Run(t *testing.T) {
	store := &memStore{}
	b := newBoard(t, store, WithPollInterval(10*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	addText(t, b, "background save")
	require.Eventually(t, func() bool { return len(store.snapshot()) == 1 }, time.Second, 5*time.Millisecond)

	store.mu.Lock()
	store.records = append(store.records, core.Record{ID: "ext", Content: "from elsewhere", Order: 1})
	store.mu.Unlock()
	b.Nudge()
	require.Eventually(t, func() bool { return len(b.Notes()) == 2 }, time.Second, 5*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func TestBoard_CloseClosesSubscriptions(t *testing.T) {
	b := newBoard(t, &memStore{})
	ch := b.Subscribe(1)
	require.NoError(t, b.Close(context.Background()))
	_, ok := <-ch
	assert.False(t, ok)

	_, ok = <-b.Subscribe(1)
	assert.False(t, ok, "subscribing after close yields a closed channel")
}

func TestBoard_Introspection(t *testing.T) {
	b := newBoard(t, &memStore{}, WithPollInterval(time.Second))
	addText(t, b, "x")

	st, ok := b.State().(State)
	require.True(t, ok)
	assert.Equal(t, 1, st.Notes)
	assert.Equal(t, "idle", st.Gesture)
	assert.True(t, st.SavePending)
	assert.Equal(t, "1s", st.PollInterval)
	assert.Equal(t, "board", b.ComponentType())
}
