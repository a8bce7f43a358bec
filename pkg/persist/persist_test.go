package persist

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/corkboard/pkg/core"
)

type memLocal struct {
	mu      sync.Mutex
	records []core.Record
	loadErr error
	saveErr error
	loads   int
	block   chan struct{}
}

func (m *memLocal) ReplaceAll(_ context.Context, records []core.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.records = append([]core.Record(nil), records...)
	return nil
}

func (m *memLocal) LoadAll(context.Context) ([]core.Record, error) {
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return append([]core.Record(nil), m.records...), nil
}

func (m *memLocal) Close() error { return nil }

type memRemote struct {
	mu       sync.Mutex
	records  []core.Record
	fetchErr error
	pushErr  error
	pushes   int
}

func (m *memRemote) Fetch(context.Context) ([]core.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return append([]core.Record(nil), m.records...), nil
}

func (m *memRemote) Push(_ context.Context, records []core.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pushes++
	if m.pushErr != nil {
		return m.pushErr
	}
	m.records = append([]core.Record(nil), records...)
	return nil
}

func rec(id string) core.Record {
	return core.Record{ID: id, Kind: core.KindMusic, Content: id, AudioBytes: []byte{1, 2}}
}

func TestBridge_Load(t *testing.T) {
	ctx := context.Background()

	t.Run("Local Wins When Non Empty", func(t *testing.T) {
		local := &memLocal{records: []core.Record{rec("a")}}
		remote := &memRemote{records: []core.Record{rec("b")}}
		got, err := NewBridge(local, WithRemote(remote)).Load(ctx)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "a", got[0].ID)
	})

	t.Run("Remote When Local Empty", func(t *testing.T) {
		remote := &memRemote{records: []core.Record{rec("b")}}
		got, err := NewBridge(&memLocal{}, WithRemote(remote)).Load(ctx)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "b", got[0].ID)
	})

	t.Run("Remote When Local Unavailable", func(t *testing.T) {
		local := &memLocal{loadErr: errors.New("locked")}
		remote := &memRemote{records: []core.Record{rec("b")}}
		got, err := NewBridge(local, WithRemote(remote)).Load(ctx)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("Remote Failure Is Not Surfaced", func(t *testing.T) {
		remote := &memRemote{fetchErr: errors.New("offline")}
		got, err := NewBridge(&memLocal{}, WithRemote(remote)).Load(ctx)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("Both Unavailable", func(t *testing.T) {
		local := &memLocal{loadErr: errors.New("locked")}
		remote := &memRemote{fetchErr: errors.New("offline")}
		_, err := NewBridge(local, WithRemote(remote)).Load(ctx)
		assert.ErrorIs(t, err, core.ErrStorageUnavailable)
	})

	t.Run("Local Unavailable Without Remote", func(t *testing.T) {
		_, err := NewBridge(&memLocal{loadErr: errors.New("locked")}).Load(ctx)
		assert.ErrorIs(t, err, core.ErrStorageUnavailable)
	})
}

func TestBridge_ConcurrentLoadsShareOneRead(t *testing.T) {
	local := &memLocal{records: []core.Record{rec("a")}, block: make(chan struct{})}
	b := NewBridge(local)

	var wg sync.WaitGroup
	results := make([][]core.Record, 4)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = b.Load(context.Background())
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(local.block)
	wg.Wait()

	assert.LessOrEqual(t, local.loads, len(results))
	for _, r := range results {
		assert.Len(t, r, 1)
	}
}

func TestBridge_Save(t *testing.T) {
	ctx := context.Background()

	t.Run("Mirrors Lite View", func(t *testing.T) {
		local := &memLocal{}
		remote := &memRemote{}
		b := NewBridge(local, WithRemote(remote))

		require.NoError(t, b.Save(ctx, []core.Record{rec("a")}))
		b.Wait()

		assert.NotEmpty(t, local.records[0].AudioBytes, "local keeps audio")
		require.Len(t, remote.records, 1)
		assert.Nil(t, remote.records[0].AudioBytes, "remote gets the lite view")
	})

	t.Run("Remote Failure Is Logged Only", func(t *testing.T) {
		remote := &memRemote{pushErr: errors.New("offline")}
		b := NewBridge(&memLocal{}, WithRemote(remote))
		require.NoError(t, b.Save(ctx, []core.Record{rec("a")}))
		b.Wait()
		assert.Equal(t, 1, remote.pushes)
	})

	t.Run("Local Failure Wraps Write Failed", func(t *testing.T) {
		remote := &memRemote{}
		b := NewBridge(&memLocal{saveErr: errors.New("disk full")}, WithRemote(remote))
		err := b.Save(ctx, []core.Record{rec("a")})
		assert.ErrorIs(t, err, core.ErrStorageWriteFailed)
		b.Wait()
		assert.Zero(t, remote.pushes)
	})
}

type recordingWriter struct {
	mu     sync.Mutex
	writes [][]core.Record
	err    error
}

func (w *recordingWriter) Save(_ context.Context, records []core.Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.writes = append(w.writes, records)
	return w.err
}

func TestSaver_CoalescesToNewest(t *testing.T) {
	w := &recordingWriter{}
	s := NewSaver(w, nil)

	s.Submit([]core.Record{rec("a")})
	s.Submit([]core.Record{rec("a"), rec("b")})
	assert.True(t, s.Pending())

	require.NoError(t, s.Flush(context.Background()))
	assert.False(t, s.Pending())
	require.Len(t, w.writes, 1)
	assert.Len(t, w.writes[0], 2)
	assert.Equal(t, uint64(2), s.Written())

	require.NoError(t, s.Flush(context.Background()), "nothing pending")
	assert.Len(t, w.writes, 1)
}

func TestSaver_FailedWriteIsNotPending(t *testing.T) {
	w := &recordingWriter{err: core.ErrStorageWriteFailed}
	s := NewSaver(w, nil)
	s.Submit(nil)

	assert.ErrorIs(t, s.Flush(context.Background()), core.ErrStorageWriteFailed)
	assert.False(t, s.Pending())
}

func TestSaver_RunFlushesOnCancel(t *testing.T) {
	w := &recordingWriter{}
	s := NewSaver(w, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	s.Submit([]core.Record{rec("a")})
	require.Eventually(t, func() bool { return !s.Pending() }, time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	w.mu.Lock()
	defer w.mu.Unlock()
	assert.NotEmpty(t, w.writes)
	assert.Equal(t, "a", w.writes[len(w.writes)-1][0].ID)
}
