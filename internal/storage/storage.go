// Package storage keeps album cover images for the tag bot.
//
// A cover is stored once, when the admin uploads it, and read back for
// every tagged file. Covers live on local disk by default or in an S3
// bucket when one is configured. The snapshot only keeps the reference
// returned by Put.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a reference points at nothing.
var ErrNotFound = errors.New("cover not found")

// ErrInvalidRef is returned for references that could escape the store.
var ErrInvalidRef = errors.New("invalid cover reference")

// Store saves and loads cover images by reference.
type Store interface {
	// Put stores a JPEG and returns its reference.
	Put(ctx context.Context, data []byte) (ref string, err error)

	// Get loads the image behind ref. Missing images return ErrNotFound.
	Get(ctx context.Context, ref string) ([]byte, error)

	// Delete removes the image behind ref. Deleting a missing image is
	// not an error.
	Delete(ctx context.Context, ref string) error

	// Purge removes every stored cover.
	Purge(ctx context.Context) error
}

// Config selects and configures a Store.
type Config struct {
	// Dir holds covers when no bucket is set.
	Dir string

	S3 S3Config
}

// New returns an S3Storage when cfg names a bucket and a LocalStorage
// otherwise.
func New(ctx context.Context, cfg Config) (Store, error) {
	if cfg.S3.Bucket != "" {
		return NewS3Storage(ctx, cfg.S3)
	}
	return NewLocalStorage(cfg.Dir)
}

// newRef builds a unique cover file name such as
// "album_cover_1735689600_1f0c2a9b.jpg".
func newRef(now time.Time) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("album_cover_%d_%s.jpg", now.Unix(), id)
}

// checkRef rejects empty references and ones containing path separators.
func checkRef(ref string) error {
	if ref == "" || ref == "." || ref == ".." || strings.ContainsAny(ref, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	return nil
}
