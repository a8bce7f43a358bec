package core

import "context"

// LocalStore is the durable store on this device. It is authoritative
// whenever it holds any record.
type LocalStore interface {
	// ReplaceAll clears the store and writes records, keyed by ID.
	ReplaceAll(ctx context.Context, records []Record) error

	// LoadAll returns every record in stacking order.
	LoadAll(ctx context.Context) ([]Record, error)

	Close() error
}

// RemoteStore is the optional backend. It receives lite records (no audio
// payload) and is read only when the local store is empty.
type RemoteStore interface {
	Fetch(ctx context.Context) ([]Record, error)
	Push(ctx context.Context, records []Record) error
}

// AudioUploader is implemented by remote stores that keep a copy of the
// raw audio files.
type AudioUploader interface {
	UploadAudio(ctx context.Context, name string, data []byte) (string, error)
}
