package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/avast/retry-go/v4"
)

// ErrStatus is wrapped by errors for non-200 responses.
var ErrStatus = errors.New("unexpected HTTP status")

// Default client settings.
const (
	DefaultTimeout    = 120 * time.Second
	DefaultMaxRetries = 3
	DefaultRetryDelay = time.Second
)

// Client downloads files over HTTP, retrying transient failures.
//
// Client provides:
//   - Configured User-Agent header
//   - Timeout handling
//   - Retries with exponential backoff for network errors and 5xx responses
//   - File download with progress tracking
//
// Example usage:
//
//	client := NewClient(WithMaxRetries(5))
//
//	// Download a voice note or audio file to disk
//	err := client.DownloadFile(ctx, fileURL, "/tmp/job/track.mp3", func(written, total int64) {
//	    fmt.Printf("%d / %d\n", written, total)
//	})
type Client struct {
	httpClient *http.Client
	userAgent  string
	maxRetries uint
	retryDelay time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithMaxRetries sets how many times a failed request is retried.
// Zero disables retries.
func WithMaxRetries(n uint) Option {
	return func(c *Client) { c.maxRetries = n }
}

// WithRetryDelay sets the initial backoff between attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) { c.retryDelay = d }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// NewClient creates a new HTTP client.
//
// Without options the client uses a 120 second timeout, three retries
// starting one second apart and a "tagbot" User-Agent.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		userAgent:  "tagbot",
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ProgressWriter wraps a writer to track download progress.
//
// Example:
//
//	pw := &ProgressWriter{
//	    Writer: file,
//	    Total:  contentLength,
//	    OnUpdate: func(written, total int64) {
//	        fmt.Printf("%d / %d bytes\n", written, total)
//	    },
//	}
//	io.Copy(pw, response.Body)
type ProgressWriter struct {
	// Writer is the underlying writer to write data to.
	Writer io.Writer

	// Total is the expected total bytes (from Content-Length header).
	// Negative when unknown.
	Total int64

	// Written is the current number of bytes written.
	Written int64

	// OnUpdate is called after each Write with current progress.
	OnUpdate func(written, total int64)
}

// Write implements io.Writer, tracking progress and calling OnUpdate.
func (pw *ProgressWriter) Write(p []byte) (int, error) {
	n, err := pw.Writer.Write(p)
	pw.Written += int64(n)
	if pw.OnUpdate != nil {
		pw.OnUpdate(pw.Written, pw.Total)
	}
	return n, err
}

// Get performs a GET request and returns the response body.
//
// Returns an error wrapping ErrStatus when the response is not 200 OK.
// Client errors (4xx) are not retried.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	return retry.DoWithData(func() ([]byte, error) {
		resp, err := c.do(ctx, url)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		return io.ReadAll(resp.Body)
	}, c.retryOptions(ctx)...)
}

// DownloadBytes downloads a file and returns the bytes in memory.
//
// Use this for small files like cover photos. For audio, use DownloadFile
// to stream directly to disk.
func (c *Client) DownloadBytes(ctx context.Context, url string) ([]byte, error) {
	return c.Get(ctx, url)
}

// DownloadFile downloads url to destPath, creating parent directories.
//
// Each attempt truncates destPath, so a retry never appends to a partial
// file. onProgress may be nil.
func (c *Client) DownloadFile(ctx context.Context, url, destPath string, onProgress func(written, total int64)) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("create download dir: %w", err)
	}
	return retry.Do(func() error {
		return c.downloadOnce(ctx, url, destPath, onProgress)
	}, c.retryOptions(ctx)...)
}

func (c *Client) downloadOnce(ctx context.Context, url, destPath string, onProgress func(written, total int64)) error {
	resp, err := c.do(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	file, err := os.Create(destPath)
	if err != nil {
		return retry.Unrecoverable(err)
	}
	defer file.Close()

	var writer io.Writer = file
	if onProgress != nil {
		writer = &ProgressWriter{
			Writer:   file,
			Total:    resp.ContentLength,
			OnUpdate: onProgress,
		}
	}

	if _, err := io.Copy(writer, resp.Body); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(destPath), err)
	}
	return file.Close()
}

// do sends one GET. The caller closes the body of a non-nil response.
func (c *Client) do(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, retry.Unrecoverable(err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		err := fmt.Errorf("%w: %s", ErrStatus, resp.Status)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, retry.Unrecoverable(err)
		}
		return nil, err
	}
	return resp, nil
}

func (c *Client) retryOptions(ctx context.Context) []retry.Option {
	return []retry.Option{
		retry.Context(ctx),
		retry.Attempts(c.maxRetries + 1),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	}
}
