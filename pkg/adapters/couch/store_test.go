package couch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/corkboard/pkg/core"
)

// fakeCouch answers the handful of CouchDB endpoints the store uses.
type fakeCouch struct {
	mu        sync.Mutex
	dbs       map[string]bool
	docs      map[string]map[string]any
	revs      map[string]int
	conflicts int // PUTs to reject with 409 before accepting
}

func newFakeCouch(t *testing.T) (*fakeCouch, *httptest.Server) {
	t.Helper()
	f := &fakeCouch{
		dbs:  map[string]bool{},
		docs: map[string]map[string]any{},
		revs: map[string]int{},
	}
	ts := httptest.NewServer(f)
	t.Cleanup(ts.Close)
	return f, ts
}

func writeCouch(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (f *fakeCouch) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	parts := strings.SplitN(strings.Trim(r.URL.Path, "/"), "/", 2)
	db := parts[0]
	notFound := map[string]string{"error": "not_found", "reason": "missing"}

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodHead:
			if !f.dbs[db] {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.WriteHeader(http.StatusOK)
		case http.MethodPut:
			f.dbs[db] = true
			writeCouch(w, http.StatusCreated, map[string]bool{"ok": true})
		default:
			writeCouch(w, http.StatusMethodNotAllowed, map[string]string{"error": "method_not_allowed"})
		}
		return
	}

	key := db + "/" + parts[1]
	if !f.dbs[db] {
		writeCouch(w, http.StatusNotFound, notFound)
		return
	}
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		doc, ok := f.docs[key]
		if !ok {
			writeCouch(w, http.StatusNotFound, notFound)
			return
		}
		w.Header().Set("ETag", fmt.Sprintf("%q", doc["_rev"]))
		writeCouch(w, http.StatusOK, doc)
	case http.MethodPut:
		data, _ := io.ReadAll(r.Body)
		var doc map[string]any
		if err := json.Unmarshal(data, &doc); err != nil {
			writeCouch(w, http.StatusBadRequest, map[string]string{"error": "bad_request"})
			return
		}
		current := ""
		if existing, ok := f.docs[key]; ok {
			current, _ = existing["_rev"].(string)
		}
		sent, _ := doc["_rev"].(string)
		if f.conflicts > 0 || sent != current {
			if f.conflicts > 0 {
				f.conflicts--
			}
			writeCouch(w, http.StatusConflict, map[string]string{"error": "conflict", "reason": "Document update conflict."})
			return
		}
		f.revs[key]++
		rev := fmt.Sprintf("%d-abc", f.revs[key])
		doc["_rev"] = rev
		f.docs[key] = doc
		writeCouch(w, http.StatusCreated, map[string]any{"ok": true, "id": parts[1], "rev": rev})
	default:
		writeCouch(w, http.StatusMethodNotAllowed, map[string]string{"error": "method_not_allowed"})
	}
}

func TestOpen_CreatesDatabase(t *testing.T) {
	f, ts := newFakeCouch(t)

	s, err := Open(context.Background(), ts.URL, "")
	require.NoError(t, err)
	defer s.Close()

	assert.True(t, f.dbs[DefaultDB])
}

func TestStore_PushFetch(t *testing.T) {
	ctx := context.Background()
	_, ts := newFakeCouch(t)
	s, err := Open(ctx, ts.URL, "boards")
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Fetch(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	pos := core.Point{X: 1, Y: 2}
	require.NoError(t, s.Push(ctx, []core.Record{
		{ID: "a", Kind: core.KindText, Content: "hi", Position: &pos},
		{ID: "b", Kind: core.KindMusic, Content: "Song", AudioBytes: []byte{1, 2}},
	}))
	// second push updates the existing revision
	require.NoError(t, s.Push(ctx, []core.Record{
		{ID: "b", Kind: core.KindMusic, Content: "Song", AudioBytes: []byte{1, 2}},
		{ID: "a", Kind: core.KindText, Content: "hi", Position: &pos},
	}))

	got, err = s.Fetch(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)
	assert.Nil(t, got[0].AudioBytes, "remote keeps the lite view")
	assert.Equal(t, &pos, got[1].Position)
	assert.Equal(t, 1, got[1].Order)
}

func TestStore_PushRetriesConflict(t *testing.T) {
	ctx := context.Background()
	f, ts := newFakeCouch(t)
	s, err := Open(ctx, ts.URL, "")
	require.NoError(t, err)
	defer s.Close()

	f.mu.Lock()
	f.conflicts = 1
	f.mu.Unlock()
	require.NoError(t, s.Push(ctx, []core.Record{{ID: "a"}}))

	f.mu.Lock()
	f.conflicts = maxConflictRetries
	f.mu.Unlock()
	err = s.Push(ctx, []core.Record{{ID: "a"}})
	assert.ErrorIs(t, err, core.ErrStorageWriteFailed)
}

func TestStore_Unavailable(t *testing.T) {
	_, err := Open(context.Background(), "", "")
	assert.ErrorIs(t, err, core.ErrStorageUnavailable)

	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()
	_, err = Open(context.Background(), url, "")
	assert.ErrorIs(t, err, core.ErrStorageUnavailable)
}
