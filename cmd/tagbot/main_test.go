package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handiism/tagbot/internal/audio"
	"github.com/handiism/tagbot/internal/model"
	"github.com/handiism/tagbot/internal/persist"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func isolateEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, key := range []string{"DATABASE_PATH", "BACKUP_PATH", "COVER_DIR", "TEMP_DIR", "S3_BUCKET", "SESSION_DRIVER", "LOG_LEVEL"} {
		// Setenv restores the original value after the test.
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	t.Setenv("DATA_DIR", filepath.Join(dir, "env-data"))
	t.Setenv("LOG_FORMAT", "json")
	return dir
}

func TestShow_Defaults(t *testing.T) {
	dir := isolateEnv(t)

	out, err := runCommand(t, "--data-dir", dir, "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Settings loaded from defaults")
	assert.Contains(t, out, model.DefaultTemplateKey)
	assert.Contains(t, out, "Replacements")
	assert.FileExists(t, filepath.Join(dir, "tagbot.db"))
}

func TestApply_TagsFileAndLogsEdit(t *testing.T) {
	dir := isolateEnv(t)
	src := filepath.Join(t.TempDir(), "track 01.mp3")
	require.NoError(t, os.WriteFile(src, bytes.Repeat([]byte{0xFF, 0xFB, 0x90, 0x64}, 256), 0o644))
	outDir := t.TempDir()

	out, err := runCommand(t, "--data-dir", dir, "apply", src, "--title", "Morning", "--out", outDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Saved")

	dest := filepath.Join(outDir, "Morning.mp3")
	fields, err := audio.NewTagger().ReadFields(dest)
	require.NoError(t, err)
	assert.Equal(t, "Morning", fields[model.FieldTitle])

	out, err = runCommand(t, "--data-dir", dir, "log")
	require.NoError(t, err)
	assert.Contains(t, out, "Morning.mp3")
}

func TestApply_DryRunWritesNothing(t *testing.T) {
	dir := isolateEnv(t)
	src := filepath.Join(t.TempDir(), "a.mp3")
	require.NoError(t, os.WriteFile(src, bytes.Repeat([]byte{0xFF, 0xFB, 0x90, 0x64}, 256), 0o644))
	outDir := t.TempDir()

	_, err := runCommand(t, "--data-dir", dir, "apply", src, "--title", "Evening", "--out", outDir, "--dry-run")
	require.NoError(t, err)
	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestApply_RefusesToOverwriteInput(t *testing.T) {
	dir := isolateEnv(t)
	src := filepath.Join(t.TempDir(), "song.mp3")
	original := bytes.Repeat([]byte{0xFF, 0xFB, 0x90, 0x64}, 256)
	require.NoError(t, os.WriteFile(src, original, 0o644))

	_, err := runCommand(t, "--data-dir", dir, "apply", src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--in-place")
	data, err := os.ReadFile(src)
	require.NoError(t, err)
	assert.Equal(t, original, data)

	out, err := runCommand(t, "--data-dir", dir, "apply", src, "--in-place")
	require.NoError(t, err)
	assert.Contains(t, out, "Saved "+src)
	fields, err := audio.NewTagger().ReadFields(src)
	require.NoError(t, err)
	assert.Equal(t, "song", fields[model.FieldTitle])
}

func TestApply_MissingFile(t *testing.T) {
	dir := isolateEnv(t)
	_, err := runCommand(t, "--data-dir", dir, "apply", filepath.Join(dir, "nope.mp3"))
	assert.Error(t, err)
}

func TestReset(t *testing.T) {
	dir := isolateEnv(t)

	const nasheedName = "قالب الأناشيد"

	out, err := runCommand(t, "--data-dir", dir, "show")
	require.NoError(t, err)
	assert.Contains(t, out, nasheedName)

	_, err = runCommand(t, "--data-dir", dir, "reset")
	require.Error(t, err)

	out, err = runCommand(t, "--data-dir", dir, "reset", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "All settings were reset.")

	out, err = runCommand(t, "--data-dir", dir, "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Settings loaded from database")
	assert.NotContains(t, out, nasheedName)

	db, err := persist.OpenDB(context.Background(), filepath.Join(dir, "tagbot.db"))
	require.NoError(t, err)
	defer db.Close()
	snap, source := persist.NewGateway(db, filepath.Join(dir, "bot_data.json"), slog.New(slog.NewTextHandler(io.Discard, nil))).Load(context.Background())
	assert.Equal(t, persist.SourceDatabase, source)
	assert.Len(t, snap.Templates, 1)
	assert.Contains(t, snap.Templates, model.DefaultTemplateKey)
}

func TestLog_Empty(t *testing.T) {
	dir := isolateEnv(t)
	out, err := runCommand(t, "--data-dir", dir, "log")
	require.NoError(t, err)
	assert.Contains(t, out, "No processed files yet.")
}
