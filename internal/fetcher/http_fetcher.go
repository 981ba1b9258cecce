package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	_maxImageSize = 10 * 1024 * 1024 // 10 MB

	// DefaultTimeout bounds a single thumbnail download.
	DefaultTimeout = 5 * time.Second
)

// HTTPFetcher handles downloading thumbnail bytes from HTTP/HTTPS URLs
type HTTPFetcher struct {
	logger     *zap.Logger
	client     *http.Client
	localFiles bool
}

// NewHTTPFetcher creates a new HTTP-based fetcher instance.
// A non-positive timeout selects DefaultTimeout.
func NewHTTPFetcher(logger *zap.Logger, timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPFetcher{
		logger: logger,
		client: &http.Client{
			Timeout: timeout, // a slow thumbnail host must not stall the badge
		},
	}
}

// AllowLocalFiles also accepts file:// URLs, which local media players
// use for cached cover art.
func (f *HTTPFetcher) AllowLocalFiles() *HTTPFetcher {
	f.localFiles = true
	return f
}

// Fetch downloads image data from the given URL
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if path, ok := strings.CutPrefix(url, "file://"); ok && f.localFiles {
		return f.readFile(path)
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, fmt.Errorf("unsupported url scheme: %q", url)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", "playbadge/1.0")
	req.Header.Set("Accept", "image/*")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "image/") {
		return nil, fmt.Errorf("url is not an image: %s", resp.Header.Get("Content-Type"))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, _maxImageSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	f.logger.Debug("Thumbnail fetched", zap.Int("bytes", len(data)), zap.String("url", redact(url)))
	return data, nil
}

func (f *HTTPFetcher) readFile(path string) ([]byte, error) {
	if unescaped, err := neturl.PathUnescape(path); err == nil {
		path = unescaped
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open local art: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, _maxImageSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read local art: %w", err)
	}
	if ct := http.DetectContentType(data); !strings.HasPrefix(ct, "image/") {
		return nil, fmt.Errorf("local file is not an image: %s", ct)
	}

	f.logger.Debug("Thumbnail read from disk", zap.Int("bytes", len(data)), zap.String("path", path))
	return data, nil
}

// redact drops the query string, which may carry provider tokens.
func redact(url string) string {
	if i := strings.IndexByte(url, '?'); i >= 0 {
		return url[:i]
	}
	return url
}
