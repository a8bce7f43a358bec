package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	lcadapter "github.com/aretw0/corkboard/pkg/adapters/lifecycle"
	"github.com/aretw0/corkboard/pkg/core"
)

var watchReloadsOnly bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep the board in sync and print changes as they happen",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		app := openBoard(ctx)
		defer app.Close(context.WithoutCancel(ctx))

		var types []core.EventType
		if watchReloadsOnly {
			types = append(types, core.EventReload)
		}
		src := lcadapter.NewSource(app.Board.Subscribe(64), types...)
		if err := src.Start(ctx); err != nil {
			fatal("Error starting event source", err)
		}

		done := make(chan error, 1)
		go func() { done <- app.Run(ctx) }()

		fmt.Printf("Watching %d notes (Ctrl+C to stop)\n", len(app.Board.Notes()))
		for e := range src.Events() {
			fmt.Println(e.String())
		}
		if err := <-done; err != nil {
			slog.Error("board stopped", "error", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().BoolVar(&watchReloadsOnly, "reloads", false, "Only report reconciliations")
}
