package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/corkboard"
	"github.com/aretw0/corkboard/internal/platform"
)

var (
	verbose    bool
	configPath string
	storeFlag  string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "corkboard",
	Short: "A virtual bulletin board of sticky notes and music notes",
	Long: `Corkboard keeps sticky text notes and playable music notes on an
infinite canvas, persists them locally and mirrors them to a sync server.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: nearest corkboard.yaml or corkboard.toml)")
	rootCmd.PersistentFlags().StringVar(&storeFlag, "store", "", "Override the store adapter (bolt or fs)")
}

// loadConfig resolves the config file from the flag or the nearest parent
// directory, then applies flag overrides.
func loadConfig() (corkboard.Config, error) {
	path := configPath
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return corkboard.Config{}, err
		}
		found, err := corkboard.FindConfig(wd)
		if err != nil && !errors.Is(err, platform.ErrNoConfig) {
			return corkboard.Config{}, err
		}
		path = found
	}

	cfg, err := corkboard.LoadConfig(path)
	if err != nil {
		return corkboard.Config{}, err
	}
	if storeFlag != "" {
		cfg.Store.Adapter = strings.ToLower(storeFlag)
		cfg.Store.Path = ""
		cfg.ResolvePaths()
		if err := cfg.Validate(); err != nil {
			return corkboard.Config{}, err
		}
	}
	return cfg, nil
}

// openBoard opens the app and loads the persisted notes. A load failure is
// fatal here, since saving an empty board over an unreadable store would
// drop every note.
func openBoard(ctx context.Context) *corkboard.App {
	cfg, err := loadConfig()
	if err != nil {
		fatal("Error loading config", err)
	}
	app, err := corkboard.Open(ctx, cfg, corkboard.WithLogger(slog.Default()))
	if err != nil {
		fatal("Error opening board", err)
	}
	if _, err := app.Board.Poll(ctx); err != nil {
		_ = app.Close(ctx)
		fatal("Error loading notes", err)
	}
	return app
}
