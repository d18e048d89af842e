package playlist

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "wizju/1.0"

	// maxPlaylistBytes bounds a single download.
	maxPlaylistBytes = 64 << 20
)

// ErrInvalidURL is returned for playlist URLs that are not http(s).
var ErrInvalidURL = errors.New("invalid playlist url")

// Fetcher downloads playlists over HTTP.
type Fetcher struct {
	userAgent  string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewFetcher creates a fetcher. Zero values select the defaults.
func NewFetcher(timeout time.Duration, userAgent string, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Fetcher{
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Fetch returns the body of the playlist at url.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, fmt.Errorf("%w: %s", ErrInvalidURL, url)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	f.logger.Debug("fetching playlist", "url", url)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		f.logger.Error("playlist request failed", "url", url, "error", err)
		return nil, fmt.Errorf("fetch playlist: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		f.logger.Error("playlist request error", "url", url, "status", resp.StatusCode)
		return nil, fmt.Errorf("fetch playlist: unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPlaylistBytes))
	if err != nil {
		return nil, fmt.Errorf("read playlist: %w", err)
	}
	return body, nil
}
