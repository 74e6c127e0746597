package ioutils

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// CopyFile copies src to dst, creating or truncating dst.
//
// Example:
//
//	err := CopyFile(ctx, "in.mp3", "out/in.mp3")
func CopyFile(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	if err := EnsureDir(filepath.Dir(dst)); err != nil {
		return err
	}
	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		_ = destFile.Close()
		return err
	}
	return destFile.Close()
}

// EnsureDir creates a directory and all its parents with mode 0755.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}

// Workspace is a private scratch directory for processing one file.
//
// Each workspace is named after a fresh id so concurrent jobs never
// share files:
//
//	ws, err := NewWorkspace(os.TempDir(), "")
//	defer ws.Cleanup()
//	path := ws.Path("song.mp3")
type Workspace struct {
	ID  string
	Dir string
}

// NewWorkspace creates a workspace under root. An empty id gets a random
// one.
func NewWorkspace(root, id string) (*Workspace, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if root == "" {
		root = os.TempDir()
	}
	dir := filepath.Join(root, "tagbot-"+id)
	if err := EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &Workspace{ID: id, Dir: dir}, nil
}

// Path returns the location of name inside the workspace. Only the base
// name is used.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.Dir, filepath.Base(name))
}

// Cleanup removes the workspace and everything in it.
func (w *Workspace) Cleanup() error {
	return os.RemoveAll(w.Dir)
}
