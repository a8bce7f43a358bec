package corkboard

import (
	"context"
	"log/slog"

	"github.com/aretw0/corkboard/internal/platform"
	"github.com/aretw0/corkboard/pkg/board"
	"github.com/aretw0/corkboard/pkg/config"
	"github.com/aretw0/corkboard/pkg/core"
	"github.com/aretw0/corkboard/pkg/media"
	"github.com/aretw0/corkboard/pkg/playback"
)

// --- Types ---

// App is a wired board together with its local and remote stores.
type App = platform.App

// Config is the runtime configuration.
type Config = config.Config

// --- Configuration ---

// Option configures how Open assembles an App.
type Option = platform.Option

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithLocalStore injects a local store instead of the configured adapter.
func WithLocalStore(s core.LocalStore) Option {
	return platform.WithLocalStore(s)
}

// WithRemoteStore injects a remote store instead of the configured one.
func WithRemoteStore(s core.RemoteStore) Option {
	return platform.WithRemoteStore(s)
}

// WithDevice sets the audio device used for playback.
func WithDevice(d playback.Device) Option {
	return platform.WithDevice(d)
}

// WithExtractor replaces the ID3 metadata extractor.
func WithExtractor(e media.Extractor) Option {
	return platform.WithExtractor(e)
}

// WithNotifier registers the callback for user-visible failures.
func WithNotifier(fn func(error)) Option {
	return platform.WithNotifier(fn)
}

// WithDevSafety controls the temporary-directory sandbox used under
// `go run` and `go test`.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// WithBoardOptions passes extra options to the board.
func WithBoardOptions(opts ...board.Option) Option {
	return platform.WithBoardOptions(opts...)
}

// --- Factory ---

// LoadConfig reads the configuration from path, or from the first default
// file in the working directory when path is empty.
func LoadConfig(path string) (Config, error) {
	return config.Load(path)
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return config.Default()
}

// Open assembles an App from cfg. Call Run to load and sync the board and
// Close to flush it.
func Open(ctx context.Context, cfg Config, opts ...Option) (*App, error) {
	return platform.New(ctx, cfg, opts...)
}

// --- Safety & Utils ---

// FindConfig looks upwards from startDir for a corkboard config file.
func FindConfig(startDir string) (string, error) {
	return platform.FindConfig(startDir)
}

// IsDevRun reports whether the process runs under `go run` or `go test`.
func IsDevRun() bool {
	return platform.IsDevRun()
}
