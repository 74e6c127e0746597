package ioutils

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodeJPEG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func TestImageService_PrepareCover(t *testing.T) {
	svc := NewImageService()
	ctx := context.Background()

	tests := []struct {
		name         string
		w, h, max    int
		wantW, wantH int
	}{
		{"landscape", 300, 200, 150, 150, 100},
		{"portrait", 200, 300, 150, 100, 150},
		{"small stays", 80, 60, 150, 80, 60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := svc.PrepareCover(ctx, pngBytes(t, tt.w, tt.h), tt.max)
			require.NoError(t, err)
			b := decodeJPEG(t, out).Bounds()
			assert.Equal(t, tt.wantW, b.Dx())
			assert.Equal(t, tt.wantH, b.Dy())
		})
	}
}

func TestImageService_Errors(t *testing.T) {
	svc := NewImageService()

	_, err := svc.PrepareCover(context.Background(), []byte("not an image"), 100)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.ConvertToJPEG(ctx, pngBytes(t, 10, 10))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestImageService_ConvertToJPEG(t *testing.T) {
	out, err := NewImageService().ConvertToJPEG(context.Background(), pngBytes(t, 20, 10))
	require.NoError(t, err)
	assert.Equal(t, 20, decodeJPEG(t, out).Bounds().Dx())
}

func TestWorkspace(t *testing.T) {
	root := t.TempDir()
	ws, err := NewWorkspace(root, "job-1")
	require.NoError(t, err)
	assert.DirExists(t, ws.Dir)
	assert.Equal(t, filepath.Join(ws.Dir, "x.mp3"), ws.Path("../../x.mp3"))

	require.NoError(t, os.WriteFile(ws.Path("x.mp3"), []byte("data"), 0o644))
	require.NoError(t, ws.Cleanup())
	assert.NoDirExists(t, ws.Dir)

	other, err := NewWorkspace(root, "")
	require.NoError(t, err)
	assert.NotEmpty(t, other.ID)
	assert.NotEqual(t, ws.Dir, other.Dir)
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.bin")
	dst := filepath.Join(dir, "nested", "b.bin")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0o644))

	require.NoError(t, CopyFile(context.Background(), src, dst))
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}
