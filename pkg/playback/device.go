package playback

import (
	"fmt"
	"sync"

	"github.com/aretw0/corkboard/pkg/core"
)

// Handle is a playable audio object owned by the platform. Decoding happens
// behind it.
type Handle interface {
	Play() error
	Pause()
	Paused() bool
	SetLoop(loop bool)
	// Close releases the handle. It is called once, after Pause.
	Close() error
}

// Device opens handles from raw audio. onEnded is called when a track
// finishes or is stopped externally; it must be called from a goroutine of
// the device, never from inside Play.
type Device interface {
	Open(src core.AudioSource, onEnded func()) (Handle, error)
}

// SilentDevice tracks play/pause state without producing sound. It is used
// by headless tools.
type SilentDevice struct{}

// Open implements Device.
func (SilentDevice) Open(src core.AudioSource, onEnded func()) (Handle, error) {
	if src.Empty() {
		return nil, fmt.Errorf("no audio data: %w", core.ErrDecodeFailed)
	}
	return &silentHandle{paused: true}, nil
}

type silentHandle struct {
	mu     sync.Mutex
	paused bool
	loop   bool
	closed bool
}

func (h *silentHandle) Play() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return fmt.Errorf("handle closed")
	}
	h.paused = false
	return nil
}

func (h *silentHandle) Pause() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.paused = true
}

func (h *silentHandle) Paused() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.paused
}

func (h *silentHandle) SetLoop(loop bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.loop = loop
}

func (h *silentHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	h.paused = true
	return nil
}
