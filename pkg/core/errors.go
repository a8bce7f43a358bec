package core

import "errors"

// Error taxonomy. Adapters wrap their causes with %w so callers can classify
// failures with errors.Is. None of them is fatal to the interaction loop.
var (
	// ErrStorageUnavailable means a store could not be opened or read.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrStorageWriteFailed means a save attempt failed. It is not retried;
	// the next save supersedes it.
	ErrStorageWriteFailed = errors.New("storage write failed")
	// ErrDecodeFailed means audio or image bytes were malformed.
	ErrDecodeFailed = errors.New("decode failed")
	// ErrPlaybackFailed means the audio device refused to play a track.
	ErrPlaybackFailed = errors.New("playback failed")

	ErrNotFound       = errors.New("note not found")
	ErrInvalidRequest = errors.New("invalid request")
)
