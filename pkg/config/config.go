// Package config loads corkboard settings from an optional YAML or TOML
// file, a .env file and CORKBOARD_* environment variables, in that order of
// increasing precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CORKBOARD_"

// Store adapters.
const (
	StoreBolt = "bolt"
	StoreFS   = "fs"
)

// Remote kinds. An empty kind disables the remote mirror.
const (
	RemoteHTTP  = "http"
	RemoteCouch = "couch"
)

// DefaultFiles are tried in order when no explicit path is given.
var DefaultFiles = []string{"corkboard.yaml", "corkboard.yml", "corkboard.toml"}

// Duration is a time.Duration written as a string ("2s", "500ms").
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Config is the full set of runtime settings.
type Config struct {
	// DataDir holds the local store and uploaded music unless overridden.
	DataDir string       `yaml:"data_dir" toml:"data_dir" validate:"required"`
	Store   StoreConfig  `yaml:"store" toml:"store"`
	Remote  RemoteConfig `yaml:"remote" toml:"remote"`
	Board   BoardConfig  `yaml:"board" toml:"board"`
	Server  ServerConfig `yaml:"server" toml:"server"`
	Log     LogConfig    `yaml:"log" toml:"log"`
}

type StoreConfig struct {
	Adapter     string   `yaml:"adapter" toml:"adapter" validate:"oneof=bolt fs"`
	Path        string   `yaml:"path" toml:"path"`
	LockTimeout Duration `yaml:"lock_timeout" toml:"lock_timeout" validate:"gt=0"`
	// Watch reports external edits of an fs store to the board.
	Watch bool `yaml:"watch" toml:"watch"`
}

type RemoteConfig struct {
	Kind     string   `yaml:"kind" toml:"kind" validate:"omitempty,oneof=http couch"`
	URL      string   `yaml:"url" toml:"url" validate:"required_with=Kind"`
	Database string   `yaml:"database" toml:"database"`
	Timeout  Duration `yaml:"timeout" toml:"timeout" validate:"gt=0"`
}

type BoardConfig struct {
	PollInterval Duration `yaml:"poll_interval" toml:"poll_interval" validate:"gt=0"`
	MinZoom      float64  `yaml:"min_zoom" toml:"min_zoom" validate:"gt=0"`
	MaxZoom      float64  `yaml:"max_zoom" toml:"max_zoom" validate:"gtfield=MinZoom"`
	Width        float64  `yaml:"width" toml:"width" validate:"gt=0"`
	Height       float64  `yaml:"height" toml:"height" validate:"gt=0"`
}

type ServerConfig struct {
	Addr           string `yaml:"addr" toml:"addr" validate:"required"`
	AllowedOrigins string `yaml:"allowed_origins" toml:"allowed_origins"`
	MusicDir       string `yaml:"music_dir" toml:"music_dir"`
}

type LogConfig struct {
	Level string `yaml:"level" toml:"level" validate:"oneof=debug info warn error"`
}

// Default returns the built-in settings.
func Default() Config {
	dataDir := ".corkboard"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".corkboard")
	}
	return Config{
		DataDir: dataDir,
		Store: StoreConfig{
			Adapter:     StoreBolt,
			LockTimeout: Duration(2 * time.Second),
		},
		Remote: RemoteConfig{
			Timeout: Duration(30 * time.Second),
		},
		Board: BoardConfig{
			PollInterval: Duration(2 * time.Second),
			MinZoom:      0.2,
			MaxZoom:      2.0,
			Width:        1280,
			Height:       800,
		},
		Server: ServerConfig{
			Addr:           "127.0.0.1:8080",
			AllowedOrigins: "*",
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads path (or the first of DefaultFiles present when path is
// empty), then .env, then the environment.
func Load(path string) (Config, error) {
	return load(path, ".env")
}

func load(path, envFile string) (Config, error) {
	cfg := Default()

	if path == "" {
		for _, name := range DefaultFiles {
			if _, err := os.Stat(name); err == nil {
				path = name
				break
			}
		}
	}
	if path != "" {
		if err := readFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	cfg.ResolvePaths()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	strs := map[string]*string{
		"DATA_DIR":        &cfg.DataDir,
		"STORE":           &cfg.Store.Adapter,
		"STORE_PATH":      &cfg.Store.Path,
		"REMOTE":          &cfg.Remote.Kind,
		"REMOTE_URL":      &cfg.Remote.URL,
		"REMOTE_DATABASE": &cfg.Remote.Database,
		"SERVER_ADDR":     &cfg.Server.Addr,
		"ALLOWED_ORIGINS": &cfg.Server.AllowedOrigins,
		"MUSIC_DIR":       &cfg.Server.MusicDir,
		"LOG_LEVEL":       &cfg.Log.Level,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = strings.TrimSpace(v)
		}
	}

	durations := map[string]*Duration{
		"LOCK_TIMEOUT":   &cfg.Store.LockTimeout,
		"REMOTE_TIMEOUT": &cfg.Remote.Timeout,
		"POLL_INTERVAL":  &cfg.Board.PollInterval,
	}
	for key, dst := range durations {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			if err := dst.UnmarshalText([]byte(v)); err != nil {
				return fmt.Errorf("invalid %s%s: %w", EnvPrefix, key, err)
			}
		}
	}

	if v, ok := os.LookupEnv(EnvPrefix + "WATCH"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %sWATCH: %w", EnvPrefix, err)
		}
		cfg.Store.Watch = b
	}
	return nil
}

// ResolvePaths fills store and music locations left empty from DataDir.
func (c *Config) ResolvePaths() {
	if c.Store.Path == "" {
		switch c.Store.Adapter {
		case StoreFS:
			c.Store.Path = filepath.Join(c.DataDir, "notes")
		default:
			c.Store.Path = filepath.Join(c.DataDir, "notes.db")
		}
	}
	if c.Server.MusicDir == "" {
		c.Server.MusicDir = filepath.Join(c.DataDir, "music")
	}
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
