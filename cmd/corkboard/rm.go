package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:     "rm [id]",
	Aliases: []string{"delete"},
	Short:   "Remove a note from the board",
	Long:    `Remove permanently deletes a note. A playing music note is stopped first.`,
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := openBoard(ctx)

		if err := app.Board.RequestDelete(args[0]); err != nil {
			_ = app.Close(ctx)
			fatal("Error deleting note", err)
		}
		id, err := app.Board.ConfirmDelete()
		if err != nil {
			_ = app.Close(ctx)
			fatal("Error deleting note", err)
		}
		if err := app.Close(ctx); err != nil {
			fatal("Error saving board", err)
		}
		fmt.Printf("Note removed: %s\n", id)
	},
}

func init() {
	rootCmd.AddCommand(rmCmd)
}
