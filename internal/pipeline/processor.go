package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/handiism/tagbot/internal/audio"
	"github.com/handiism/tagbot/internal/engine"
	ioutils "github.com/handiism/tagbot/internal/io"
	"github.com/handiism/tagbot/internal/model"
	"github.com/handiism/tagbot/internal/persist"
)

// ErrFailed is returned after a recovered panic. The panic itself is only
// logged.
var ErrFailed = errors.New("processing failed")

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// ProgressEvent is a progress update for one job.
type ProgressEvent struct {
	JobID   string
	Message string
	Level   ProgressLevel
}

// Downloader fetches a URL into a local file.
type Downloader interface {
	DownloadFile(ctx context.Context, url, destPath string, onProgress func(written, total int64)) error
}

// FileResolver turns a chat file handle into a download URL.
type FileResolver interface {
	FileURL(ctx context.Context, fileID string) (string, error)
}

// SnapshotSource hands out the current configuration.
type SnapshotSource interface {
	View() *model.Snapshot
}

// CoverSource loads a stored album cover.
type CoverSource interface {
	Get(ctx context.Context, ref string) ([]byte, error)
}

// EditLogger records processed files.
type EditLogger interface {
	LogEdit(ctx context.Context, entry persist.EditLog) error
}

// Processor runs one audio item through download, resolution, tagging and
// cover embedding. A Processor is safe for concurrent use; every job works
// in its own temporary directory.
type Processor struct {
	snapshots  SnapshotSource
	downloader Downloader
	resolver   FileResolver
	codec      audio.Codec
	covers     CoverSource
	edits      EditLogger
	logger     *slog.Logger
	tempRoot   string

	onProgress func(ProgressEvent)
}

// Option configures a Processor.
type Option func(*Processor)

// WithFileResolver sets how items that only carry a FileID are located.
func WithFileResolver(r FileResolver) Option { return func(p *Processor) { p.resolver = r } }

// WithCovers enables album cover embedding.
func WithCovers(c CoverSource) Option { return func(p *Processor) { p.covers = c } }

// WithEditLog records every job through l.
func WithEditLog(l EditLogger) Option { return func(p *Processor) { p.edits = l } }

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option { return func(p *Processor) { p.logger = l } }

// WithTempRoot sets where job workspaces are created.
func WithTempRoot(dir string) Option { return func(p *Processor) { p.tempRoot = dir } }

// WithProgress sets the progress callback.
func WithProgress(fn func(ProgressEvent)) Option { return func(p *Processor) { p.onProgress = fn } }

// NewProcessor creates a Processor.
func NewProcessor(snapshots SnapshotSource, downloader Downloader, codec audio.Codec, opts ...Option) *Processor {
	p := &Processor{
		snapshots:  snapshots,
		downloader: downloader,
		codec:      codec,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Result describes a finished job. The file at Path stays on disk until
// Close is called.
type Result struct {
	JobID string

	// Path is the processed file.
	Path string

	// FileName is the name to send the file under.
	FileName string

	// Title and Fields are the resolved values. Empty on passthrough.
	Title  string
	Fields map[model.FieldID]string

	Changes []engine.Change

	// Passthrough is set when the bot is disabled: the file is returned
	// unchanged.
	Passthrough bool

	// Unsupported is set when the file format can't be tagged.
	Unsupported bool

	CoverApplied bool

	workspace *ioutils.Workspace
}

// Artist returns the resolved artist, if any.
func (r *Result) Artist() string {
	return r.Fields[model.FieldArtist]
}

// Album returns the resolved album, if any.
func (r *Result) Album() string {
	return r.Fields[model.FieldAlbum]
}

// Close removes the job workspace.
func (r *Result) Close() error {
	if r == nil || r.workspace == nil {
		return nil
	}
	return r.workspace.Cleanup()
}

// Process runs item through the pipeline. On error the workspace has
// already been removed. A panic anywhere in the job is recovered and
// reported as ErrFailed.
func (p *Processor) Process(ctx context.Context, item *model.AudioItem) (res *Result, err error) {
	jobID := uuid.NewString()
	logger := p.logger.With("job_id", jobID, "file", item.FileName, "chat_id", item.ChatID)

	ws, err := ioutils.NewWorkspace(p.tempRoot, jobID)
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic while processing", "panic", r, "stack", string(debug.Stack()))
			res, err = nil, ErrFailed
		}
		if err != nil {
			_ = ws.Cleanup()
			p.progress(ProgressEvent{JobID: jobID, Message: fmt.Sprintf("Error processing %s: %v", item.FileName, err), Level: LevelError})
			p.logEdit(ctx, logger, persist.EditLog{
				JobID:    jobID,
				FileName: item.FileName,
				EditType: "metadata",
				Details:  map[string]string{"error": err.Error()},
				EditedBy: item.SenderID,
				Status:   persist.EditFailed,
			})
		}
	}()

	start := time.Now()
	res, err = p.run(ctx, logger, item, ws)
	if err != nil {
		return nil, err
	}

	logger.Info("item processed",
		"output", res.FileName,
		"passthrough", res.Passthrough,
		"unsupported", res.Unsupported,
		"changes", len(res.Changes),
		"duration", time.Since(start))
	return res, nil
}

func (p *Processor) run(ctx context.Context, logger *slog.Logger, item *model.AudioItem, ws *ioutils.Workspace) (*Result, error) {
	res := &Result{JobID: ws.ID, workspace: ws}

	src, err := p.fetch(ctx, item, ws)
	if err != nil {
		return nil, err
	}
	res.Path = src
	res.FileName = p.originalName(item)

	snap := p.snapshots.View()
	if !snap.Toggles.BotEnabled {
		res.Passthrough = true
		p.progress(ProgressEvent{JobID: ws.ID, Message: "Bot disabled, file returned unchanged", Level: LevelVerbose})
		return res, nil
	}

	if !audio.Supports(res.FileName, item.MimeType) {
		res.Unsupported = true
		p.progress(ProgressEvent{JobID: ws.ID, Message: fmt.Sprintf("Unsupported format, %s returned unchanged", res.FileName), Level: LevelWarning})
		return res, nil
	}

	originals, err := p.codec.ReadFields(src)
	if err != nil {
		return nil, fmt.Errorf("read tags: %w", err)
	}

	resolved := engine.Resolve(snap, engine.Input{
		Originals: originals,
		Title:     item.TitleInput(),
	})
	if resolved.Passthrough {
		res.Passthrough = true
		return res, nil
	}

	if err := p.codec.WriteFields(src, resolved.Fields); err != nil {
		return nil, fmt.Errorf("write tags: %w", err)
	}
	res.Fields = resolved.Fields
	res.Title = resolved.Fields[model.FieldTitle]
	res.Changes = resolved.Changes(originals)

	if snap.Toggles.AlbumCover && snap.HasCover() && p.covers != nil {
		res.CoverApplied = p.applyCover(ctx, logger, ws.ID, src, snap.CoverRef)
	}

	res.FileName = item.OutputFileName(res.Title)
	out := ws.Path(res.FileName)
	if out != src {
		if err := os.Rename(src, out); err != nil {
			return nil, fmt.Errorf("rename output: %w", err)
		}
		res.Path = out
	}

	p.logEdit(ctx, logger, persist.EditLog{
		JobID:    ws.ID,
		FileName: res.FileName,
		EditType: "metadata",
		Details:  res.Changes,
		EditedBy: item.SenderID,
		Status:   persist.EditSuccess,
	})
	p.progress(ProgressEvent{JobID: ws.ID, Message: fmt.Sprintf("Tagged: %s", res.FileName), Level: LevelSuccess})
	return res, nil
}

// fetch puts the item's bytes into the workspace and returns the path.
func (p *Processor) fetch(ctx context.Context, item *model.AudioItem, ws *ioutils.Workspace) (string, error) {
	ext := strings.ToLower(filepath.Ext(item.FileName))
	if ext == "" && item.LocalPath != "" {
		ext = strings.ToLower(filepath.Ext(item.LocalPath))
	}
	dest := ws.Path("source" + ext)

	if item.LocalPath != "" {
		if err := ioutils.CopyFile(ctx, item.LocalPath, dest); err != nil {
			return "", fmt.Errorf("copy input: %w", err)
		}
		return dest, nil
	}

	url := item.URL
	if url == "" {
		if p.resolver == nil || item.FileID == "" {
			return "", fmt.Errorf("%w: item has no source", model.ErrInvalidInput)
		}
		var err error
		if url, err = p.resolver.FileURL(ctx, item.FileID); err != nil {
			return "", fmt.Errorf("resolve file: %w", err)
		}
	}

	name := p.originalName(item)
	p.progress(ProgressEvent{JobID: ws.ID, Message: fmt.Sprintf("Downloading %s", name), Level: LevelVerbose})
	if err := p.downloader.DownloadFile(ctx, url, dest, p.downloadProgress(ws.ID, name)); err != nil {
		return "", fmt.Errorf("download: %w", err)
	}
	return dest, nil
}

// progressStep is the percentage between two download progress events.
const progressStep = 25

// downloadProgress reports a download in progressStep increments. It
// returns nil when nobody listens, so the downloader can skip counting.
// Downloads of unknown size only report completion.
func (p *Processor) downloadProgress(jobID, name string) func(written, total int64) {
	if p.onProgress == nil {
		return nil
	}
	reported := 0
	return func(written, total int64) {
		if total <= 0 {
			return
		}
		pct := int(written * 100 / total)
		if pct > 100 {
			pct = 100
		}
		step := pct / progressStep * progressStep
		if step <= reported {
			return
		}
		reported = step
		p.progress(ProgressEvent{
			JobID:   jobID,
			Message: fmt.Sprintf("Downloading %s: %d%% of %d KB", name, step, (total+1023)/1024),
			Level:   LevelVerbose,
		})
	}
}

// applyCover embeds the stored cover. Failures are reported and skipped.
func (p *Processor) applyCover(ctx context.Context, logger *slog.Logger, jobID, path, ref string) bool {
	img, err := p.covers.Get(ctx, ref)
	if err == nil {
		err = p.codec.SetCover(path, img)
	}
	if err != nil {
		logger.Warn("album cover not applied", "ref", ref, "error", err)
		p.progress(ProgressEvent{JobID: jobID, Message: fmt.Sprintf("Album cover not applied: %v", err), Level: LevelWarning})
		return false
	}
	return true
}

func (p *Processor) originalName(item *model.AudioItem) string {
	name := item.FileName
	if name == "" && item.LocalPath != "" {
		name = filepath.Base(item.LocalPath)
	}
	if name = model.SanitizeFileName(name); name == "" {
		return item.OutputFileName(model.DefaultTitle)
	}
	return name
}

func (p *Processor) logEdit(ctx context.Context, logger *slog.Logger, entry persist.EditLog) {
	if p.edits == nil {
		return
	}
	if err := p.edits.LogEdit(ctx, entry); err != nil {
		logger.Warn("edit log write failed", "error", err)
	}
}

func (p *Processor) progress(event ProgressEvent) {
	if p.onProgress != nil {
		p.onProgress(event)
	}
}
