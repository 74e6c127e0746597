package bot

import (
	"context"
	"log/slog"

	"github.com/handiism/tagbot/internal/model"
	"github.com/handiism/tagbot/internal/session"
	"github.com/handiism/tagbot/internal/state"
	"github.com/handiism/tagbot/internal/storage"
)

// Resetter drops the stored configuration. *persist.Gateway implements it.
type Resetter interface {
	Reset(ctx context.Context) error
}

// NewResetFunc returns the action run when the admin confirms a reset:
// stored covers are purged, the stored snapshot is dropped and the live
// snapshot goes back to the reset defaults. covers and store may be nil.
//
// The live snapshot is always replaced, so cleanup failures are logged and
// the reset still counts as done.
func NewResetFunc(store Resetter, covers storage.Store, mgr *state.Manager, logger *slog.Logger) session.ResetFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context) error {
		if covers != nil {
			if err := covers.Purge(ctx); err != nil {
				logger.Warn("reset: failed to purge album covers", "error", err)
			}
		}
		if store != nil {
			if err := store.Reset(ctx); err != nil {
				logger.Warn("reset: failed to drop stored settings", "error", err)
			}
		}
		mgr.Replace(ctx, model.ResetSnapshot())
		logger.Info("settings reset to defaults")
		return nil
	}
}
