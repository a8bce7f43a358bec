package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/corkboard/pkg/core"
)

var (
	listJSON bool
	listKind string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the notes on the board, bottom to top",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := openBoard(ctx)
		defer app.Close(ctx)

		var notes []*core.Note
		for _, n := range app.Board.Notes() {
			if listKind != "" && string(n.Kind()) != listKind {
				continue
			}
			notes = append(notes, n)
		}

		if listJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(core.LiteSnapshot(core.Snapshot(notes))); err != nil {
				fatal("Error encoding JSON", err)
			}
			return
		}

		for _, n := range notes {
			marker := ""
			if m, ok := n.Music(); ok && len(m.Audio.Data) == 0 {
				marker = " (no audio on this device)"
			}
			fmt.Printf("%s  %-5s  (%.0f, %.0f)  %s%s\n", n.ID, n.Kind(), n.Position.X, n.Position.Y, n.Content(), marker)
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.Flags().StringVar(&listKind, "kind", "", "Only list notes of this kind (text or music)")
}
