package persist

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/handiism/tagbot/internal/model"
)

// Source tells where a loaded snapshot came from.
type Source int

const (
	SourceDefaults Source = iota
	SourceDatabase
	SourceBackup
)

func (s Source) String() string {
	switch s {
	case SourceDatabase:
		return "database"
	case SourceBackup:
		return "backup"
	default:
		return "defaults"
	}
}

// Edit log outcomes.
const (
	EditSuccess = "success"
	EditFailed  = "failed"
)

// EditLog is one entry of the processed-files log.
type EditLog struct {
	ID       int64     `json:"id"`
	JobID    string    `json:"job_id,omitempty"`
	FileName string    `json:"file_name"`
	EditType string    `json:"edit_type"`
	Details  any       `json:"edit_details,omitempty"`
	EditedBy int64     `json:"edited_by,omitempty"`
	EditedAt time.Time `json:"edited_at"`
	Status   string    `json:"status"`
}

// DetailsJSON returns the details encoded as JSON.
func (e EditLog) DetailsJSON() string {
	switch d := e.Details.(type) {
	case nil:
		return ""
	case json.RawMessage:
		return string(d)
	default:
		data, err := json.Marshal(d)
		if err != nil {
			return ""
		}
		return string(data)
	}
}

// Gateway loads and stores the configuration snapshot.
//
// The database is the primary store and the JSON file a backup; either
// may be missing. Loading tries the database, then the backup, then the
// built-in defaults. Saving writes both and reports every failure.
type Gateway struct {
	db         *DB
	backupPath string
	logger     *slog.Logger
}

// NewGateway creates a gateway. db may be nil, in which case only the
// backup file is used.
func NewGateway(db *DB, backupPath string, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{db: db, backupPath: backupPath, logger: logger}
}

// Load returns the stored snapshot and where it came from. Load never
// fails: storage errors are logged and the next source is tried.
func (g *Gateway) Load(ctx context.Context) (*model.Snapshot, Source) {
	if g.db != nil {
		snap, err := g.db.LoadSnapshot(ctx)
		switch {
		case err != nil:
			g.logger.Warn("failed to load settings from database", slog.String("error", err.Error()))
		case snap != nil:
			return snap, SourceDatabase
		}
	}

	if g.backupPath != "" {
		snap, err := LoadBackup(g.backupPath)
		switch {
		case err != nil:
			g.logger.Warn("failed to load backup file", slog.String("path", g.backupPath), slog.String("error", err.Error()))
		case snap != nil:
			if g.db != nil {
				if err := g.db.SaveSnapshot(ctx, snap); err != nil {
					g.logger.Warn("failed to copy backup into database", slog.String("error", err.Error()))
				}
			}
			return snap, SourceBackup
		}
	}

	return model.DefaultSnapshot(), SourceDefaults
}

// Save writes the snapshot to the database and the backup file. Both are
// attempted; the returned error joins every failure.
func (g *Gateway) Save(ctx context.Context, snap *model.Snapshot) error {
	var errs []error
	if g.db != nil {
		if err := g.db.SaveSnapshot(ctx, snap); err != nil {
			errs = append(errs, err)
		}
	}
	if g.backupPath != "" {
		if err := SaveBackup(g.backupPath, snap); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Reset removes the stored snapshot from both stores.
func (g *Gateway) Reset(ctx context.Context) error {
	var errs []error
	if g.db != nil {
		if err := g.db.DeleteSnapshot(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if g.backupPath != "" {
		if err := RemoveBackup(g.backupPath); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogEdit records one processed file. Without a database it only logs.
func (g *Gateway) LogEdit(ctx context.Context, entry EditLog) error {
	if g.db == nil {
		g.logger.Info("edit",
			slog.String("file", entry.FileName),
			slog.String("type", entry.EditType),
			slog.String("status", entry.Status),
		)
		return nil
	}
	_, err := g.db.InsertEdit(ctx, entry)
	return err
}

// RecentEdits returns the newest edit log entries.
func (g *Gateway) RecentEdits(ctx context.Context, limit int) ([]EditLog, error) {
	if g.db == nil {
		return nil, nil
	}
	return g.db.RecentEdits(ctx, limit)
}
