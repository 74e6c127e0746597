package persist

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/handiism/tagbot/internal/model"
)

// settingsKey is the row of the settings table holding the snapshot.
const settingsKey = "bot_settings"

// DB is the SQLite store for the configuration snapshot and the edit log.
type DB struct {
	db   *sql.DB
	path string
}

// OpenDB opens or creates the database at path and applies migrations.
func OpenDB(ctx context.Context, path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Serialize writers; SQLite allows one at a time anyway.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}

	d := &DB{db: db, path: path}
	if err := d.applyMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return d, nil
}

// Path returns the database file path.
func (d *DB) Path() string { return d.path }

// Close closes the underlying database connection.
func (d *DB) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}

// LoadSnapshot reads the stored snapshot. It returns (nil, nil) when no
// snapshot has been saved yet.
func (d *DB) LoadSnapshot(ctx context.Context) (*model.Snapshot, error) {
	var value string
	err := d.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", settingsKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query settings: %w", err)
	}
	snap, err := decodeSnapshot([]byte(value))
	if err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	return snap, nil
}

// SaveSnapshot upserts the snapshot.
func (d *DB) SaveSnapshot(ctx context.Context, snap *model.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	_, err = d.db.ExecContext(
		ctx,
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
         ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		settingsKey,
		string(data),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// DeleteSnapshot removes the stored snapshot.
func (d *DB) DeleteSnapshot(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, "DELETE FROM settings WHERE key = ?", settingsKey); err != nil {
		return fmt.Errorf("delete settings: %w", err)
	}
	return nil
}

// InsertEdit appends one entry to the edit log and returns its id.
func (d *DB) InsertEdit(ctx context.Context, entry EditLog) (int64, error) {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return 0, fmt.Errorf("marshal edit details: %w", err)
	}
	if entry.EditedAt.IsZero() {
		entry.EditedAt = time.Now()
	}
	if entry.Status == "" {
		entry.Status = EditSuccess
	}

	res, err := d.db.ExecContext(
		ctx,
		`INSERT INTO edit_logs (file_name, edit_type, edit_details, edited_by, edited_at, job_id, status)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.FileName,
		entry.EditType,
		string(details),
		nullableInt(entry.EditedBy),
		entry.EditedAt.UTC().Format(time.RFC3339Nano),
		nullableString(entry.JobID),
		entry.Status,
	)
	if err != nil {
		return 0, fmt.Errorf("insert edit log: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// RecentEdits returns up to limit edit log entries, newest first.
func (d *DB) RecentEdits(ctx context.Context, limit int) ([]EditLog, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.db.QueryContext(
		ctx,
		`SELECT id, file_name, edit_type, edit_details, edited_by, edited_at, job_id, status
         FROM edit_logs ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query edit logs: %w", err)
	}
	defer rows.Close()

	var out []EditLog
	for rows.Next() {
		var (
			entry    EditLog
			details  sql.NullString
			editedBy sql.NullInt64
			editedAt string
			jobID    sql.NullString
		)
		if err := rows.Scan(&entry.ID, &entry.FileName, &entry.EditType, &details, &editedBy, &editedAt, &jobID, &entry.Status); err != nil {
			return nil, fmt.Errorf("scan edit log: %w", err)
		}
		entry.EditedBy = editedBy.Int64
		entry.JobID = jobID.String
		if t, err := time.Parse(time.RFC3339Nano, editedAt); err == nil {
			entry.EditedAt = t
		}
		if details.Valid && details.String != "" && details.String != "null" {
			entry.Details = json.RawMessage(details.String)
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate edit logs: %w", err)
	}
	return out, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableInt(value int64) any {
	if value == 0 {
		return nil
	}
	return value
}
