package main

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/corkboard/pkg/core"
)

var (
	musicTitle string
	coverPath  string
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Pin a new note to the board",
}

var addTextCmd = &cobra.Command{
	Use:   "text [content]",
	Short: "Add a sticky text note",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		create(core.CreateRequest{
			Kind:    core.KindText,
			Content: strings.Join(args, " "),
		})
	},
}

var addMusicCmd = &cobra.Command{
	Use:   "music [file]",
	Short: "Add a music note from an audio file",
	Long: `Add a music note. The title and cover art are read from the file's ID3
tags unless given as flags; the file name is the fallback title.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := args[0]
		audio, err := os.ReadFile(path)
		if err != nil {
			fatal("Error reading audio file", err)
		}

		req := core.CreateRequest{
			Kind:          core.KindMusic,
			Content:       musicTitle,
			Audio:         audio,
			AudioMimeType: mime.TypeByExtension(filepath.Ext(path)),
			AudioName:     filepath.Base(path),
		}
		if coverPath != "" {
			if req.CoverArt, err = os.ReadFile(coverPath); err != nil {
				fatal("Error reading cover art", err)
			}
		}
		create(req)
	},
}

func create(req core.CreateRequest) {
	ctx := context.Background()
	app := openBoard(ctx)

	note, err := app.Board.Create(ctx, req)
	if err != nil {
		_ = app.Close(ctx)
		fatal("Error creating note", err)
	}
	if err := app.Close(ctx); err != nil {
		fatal("Error saving board", err)
	}
	fmt.Printf("Note pinned: %s (%s)\n", note.ID, note.Content())
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.AddCommand(addTextCmd, addMusicCmd)
	addMusicCmd.Flags().StringVar(&musicTitle, "title", "", "Track title")
	addMusicCmd.Flags().StringVar(&coverPath, "cover", "", "Cover art image (JPEG or PNG)")
}
