// Package couch mirrors the lite note snapshot into a CouchDB database.
//
// The whole board lives in one document so a push replaces it atomically;
// a concurrent writer shows up as a revision conflict and the push retries
// against the newer revision.
package couch

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-kivik/kivik/v4"
	_ "github.com/go-kivik/kivik/v4/couchdb" // The CouchDB driver

	"github.com/aretw0/corkboard/pkg/core"
)

const (
	// DefaultDB is used when no database name is given.
	DefaultDB = "corkboard"
	// BoardDocID is the document holding the snapshot.
	BoardDocID = "board"

	maxConflictRetries = 3
)

type boardDoc struct {
	ID        string        `json:"_id"`
	Rev       string        `json:"_rev,omitempty"`
	DocType   string        `json:"doc_type"`
	Notes     []core.Record `json:"notes"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Store implements core.RemoteStore.
type Store struct {
	client *kivik.Client
	db     *kivik.DB
	name   string
}

// Open connects to the CouchDB server at url and creates the database if
// it does not exist yet.
func Open(ctx context.Context, url, dbName string) (*Store, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("couchdb url is required: %w", core.ErrStorageUnavailable)
	}
	if dbName == "" {
		dbName = DefaultDB
	}

	client, err := kivik.New("couch", url)
	if err != nil {
		return nil, fmt.Errorf("connect couchdb: %w: %w", core.ErrStorageUnavailable, err)
	}

	exists, err := client.DBExists(ctx, dbName)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("check database %s: %w: %w", dbName, core.ErrStorageUnavailable, err)
	}
	if !exists {
		if err := client.CreateDB(ctx, dbName); err != nil && kivik.HTTPStatus(err) != http.StatusPreconditionFailed {
			_ = client.Close()
			return nil, fmt.Errorf("create database %s: %w: %w", dbName, core.ErrStorageUnavailable, err)
		}
	}

	return &Store{client: client, db: client.DB(dbName), name: dbName}, nil
}

// Fetch implements core.RemoteStore. A database without a board document
// holds no notes.
func (s *Store) Fetch(ctx context.Context) ([]core.Record, error) {
	doc, err := s.get(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch board: %w: %w", core.ErrStorageUnavailable, err)
	}
	if doc == nil || doc.Notes == nil {
		return []core.Record{}, nil
	}
	core.SortByOrder(doc.Notes)
	return doc.Notes, nil
}

// Push implements core.RemoteStore.
func (s *Store) Push(ctx context.Context, records []core.Record) error {
	lite := core.LiteSnapshot(records)
	for i := range lite {
		lite[i].Order = i
	}

	var err error
	for range maxConflictRetries {
		if err = s.put(ctx, lite); err == nil || kivik.HTTPStatus(err) != http.StatusConflict {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("push board: %w: %w", core.ErrStorageWriteFailed, err)
	}
	return nil
}

func (s *Store) put(ctx context.Context, records []core.Record) error {
	current, err := s.get(ctx)
	if err != nil {
		return err
	}
	doc := boardDoc{
		ID:        BoardDocID,
		DocType:   "board",
		Notes:     records,
		UpdatedAt: time.Now().UTC(),
	}
	if current != nil {
		doc.Rev = current.Rev
	}
	_, err = s.db.Put(ctx, BoardDocID, doc)
	return err
}

// get returns nil when the board document does not exist.
func (s *Store) get(ctx context.Context) (*boardDoc, error) {
	var doc boardDoc
	if err := s.db.Get(ctx, BoardDocID).ScanDoc(&doc); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &doc, nil
}

// Close releases the client.
func (s *Store) Close() error {
	return s.client.Close()
}

var _ core.RemoteStore = (*Store)(nil)
