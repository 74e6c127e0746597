package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(retries uint) *Client {
	return NewClient(WithMaxRetries(retries), WithRetryDelay(time.Millisecond))
}

func TestDownloadFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tagbot", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte("ID3 audio bytes"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "nested", "track.mp3")
	var last int64
	err := newTestClient(0).DownloadFile(context.Background(), srv.URL, dest, func(written, total int64) {
		last = written
	})
	require.NoError(t, err)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "ID3 audio bytes", string(data))
	assert.Equal(t, int64(len(data)), last)
}

func TestDownloadFileRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("partial"))
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "track.mp3")
	require.NoError(t, newTestClient(3).DownloadFile(context.Background(), srv.URL, dest, nil))
	assert.Equal(t, int32(3), calls.Load())

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(data))
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(3).Get(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStatus))
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetGivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestClient(2).Get(context.Background(), srv.URL)
	require.ErrorIs(t, err, ErrStatus)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDownloadBytes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte{0xff, 0xd8, 0xff})
	}))
	defer srv.Close()

	data, err := newTestClient(0).DownloadBytes(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xd8, 0xff}, data)
}

func TestGetCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(3).Get(ctx, "http://127.0.0.1:1")
	require.ErrorIs(t, err, context.Canceled)
}

func TestProgressWriter(t *testing.T) {
	var updates []int64
	pw := &ProgressWriter{
		Writer:   &discard{},
		Total:    10,
		OnUpdate: func(written, total int64) { updates = append(updates, written) },
	}
	_, _ = pw.Write([]byte("abcd"))
	_, _ = pw.Write([]byte("efghij"))

	assert.Equal(t, []int64{4, 10}, updates)
	assert.Equal(t, int64(10), pw.Written)
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
