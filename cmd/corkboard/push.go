package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/corkboard/internal/platform"
)

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Mirror the local board to the configured remote",
	Long: `Push sends the local notes, without audio payloads, to the remote
store. The board does this on every save; push is for catching up after
working offline.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		cfg, err := loadConfig()
		if err != nil {
			fatal("Error loading config", err)
		}

		local, err := platform.OpenLocal(cfg, slog.Default())
		if err != nil {
			fatal("Error opening local store", err)
		}
		defer local.Close()

		rs, err := platform.OpenRemote(ctx, cfg)
		if err != nil {
			fatal("Error opening remote store", err)
		}

		n, err := platform.Push(ctx, local, rs)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: Push failed: %v\n", err)
			fmt.Println("Tip: Set remote.kind and remote.url in the config, or CORKBOARD_REMOTE and CORKBOARD_REMOTE_URL.")
			os.Exit(1)
		}
		fmt.Printf("Pushed %d notes to %s.\n", n, cfg.Remote.URL)
	},
}

func init() {
	rootCmd.AddCommand(pushCmd)
}
