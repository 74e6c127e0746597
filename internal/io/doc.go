// Package ioutils provides file system and image helpers for the
// processing pipeline.
//
// # Workspaces
//
// Every processed file gets its own directory, removed afterwards:
//
//	ws, err := ioutils.NewWorkspace("", jobID)
//	defer ws.Cleanup()
//	local := ws.Path("track.mp3")
//
// # Image Processing
//
// The ImageService turns an uploaded picture into an embeddable cover:
//
//	svc := ioutils.NewImageService()
//	jpeg, err := svc.PrepareCover(ctx, pngData, 1000)
package ioutils
