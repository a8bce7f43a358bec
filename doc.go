// Package corkboard is the composition root of a virtual bulletin board.
//
// Notes (sticky text notes and playable music notes) live on an infinite,
// pannable and zoomable canvas. The board package owns the live note list
// and applies gestures to it; everything it needs from the outside world
// goes through ports in pkg/core:
//
//   - core.LocalStore is the durable store on this device (bbolt or a
//     directory of JSON files).
//   - core.RemoteStore is the optional mirror (the sync server or CouchDB).
//     It receives lite records without audio and is read only when the
//     local store is empty.
//   - playback.Device plays audio; media.Extractor reads ID3 tags.
//
// Usage:
//
//	cfg, err := corkboard.LoadConfig("")
//	app, err := corkboard.Open(ctx, cfg, corkboard.WithLogger(logger))
//	defer app.Close(ctx)
//
//	note, err := app.Board.Create(ctx, core.CreateRequest{Kind: core.KindText, Content: "Hi"})
//	go app.Run(ctx) // polls the stores every two seconds
package corkboard
