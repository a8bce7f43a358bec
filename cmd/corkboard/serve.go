package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/corkboard/internal/platform"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the sync server",
	Long: `Serve exposes the local store over the sync API so other devices can
mirror their boards to it and fetch it when their own store is empty.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fatal("Error loading config", err)
		}
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}

		local, err := platform.OpenLocal(cfg, slog.Default())
		if err != nil {
			fatal("Error opening store", err)
		}
		defer local.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := platform.NewServer(cfg, local, slog.Default())
		if err := srv.ListenAndServe(ctx, cfg.Server.Addr); err != nil {
			fatal("Server failed", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.addr)")
}
