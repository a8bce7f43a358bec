package platform

import (
	"log/slog"

	"github.com/aretw0/corkboard/pkg/board"
	"github.com/aretw0/corkboard/pkg/core"
	"github.com/aretw0/corkboard/pkg/media"
	"github.com/aretw0/corkboard/pkg/playback"
)

// options holds the wiring overrides for an App.
type options struct {
	logger    *slog.Logger
	local     core.LocalStore
	remote    core.RemoteStore
	device    playback.Device
	extractor media.Extractor
	notifier  func(error)
	devSafety bool
	boardOpts []board.Option
}

// Option configures how New assembles an App.
type Option func(*options)

func defaultOptions() *options {
	return &options{
		device:    playback.SilentDevice{},
		extractor: media.NewID3Extractor(),
		devSafety: true,
	}
}

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLocalStore injects a local store instead of opening the configured
// adapter. The App takes ownership and closes it.
func WithLocalStore(s core.LocalStore) Option {
	return func(o *options) {
		o.local = s
	}
}

// WithRemoteStore injects a remote store instead of the configured one.
func WithRemoteStore(s core.RemoteStore) Option {
	return func(o *options) {
		o.remote = s
	}
}

// WithDevice sets the audio device. Defaults to playback.SilentDevice.
func WithDevice(d playback.Device) Option {
	return func(o *options) {
		o.device = d
	}
}

// WithExtractor replaces the ID3 metadata extractor.
func WithExtractor(e media.Extractor) Option {
	return func(o *options) {
		o.extractor = e
	}
}

// WithNotifier registers the callback for user-visible failures.
func WithNotifier(fn func(error)) Option {
	return func(o *options) {
		o.notifier = fn
	}
}

// WithDevSafety controls the sandbox used under `go run` and `go test`.
// By default the store is redirected to a temporary directory in those
// runs. Setting this to false operates on the configured path.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.devSafety = enabled
	}
}

// WithBoardOptions passes extra options to board.New after the ones
// derived from the configuration.
func WithBoardOptions(opts ...board.Option) Option {
	return func(o *options) {
		o.boardOpts = append(o.boardOpts, opts...)
	}
}
