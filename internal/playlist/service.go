// Package playlist downloads and parses M3U playlists into media inputs.
package playlist

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/mmcdole/wizju/internal/domain"
)

// Loaded is the result of reading one source's playlist.
type Loaded struct {
	Items      []domain.MediaInput
	Categories []string
}

// Service orchestrates fetcher + parser.
type Service struct {
	fetcher *Fetcher
	parser  domain.PlaylistParser
	logger  *slog.Logger
}

// NewService creates a new playlist service. A nil parser selects M3UParser.
func NewService(fetcher *Fetcher, parser domain.PlaylistParser, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if parser == nil {
		parser = M3UParser{}
	}
	if fetcher == nil {
		fetcher = NewFetcher(0, "", logger)
	}
	return &Service{fetcher: fetcher, parser: parser, logger: logger}
}

// Load fetches and parses the playlist at url and maps its entries to
// media inputs owned by sourceID.
func (s *Service) Load(ctx context.Context, url, sourceID string) (Loaded, error) {
	body, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return Loaded{}, err
	}

	entries, err := s.parser.Parse(bytes.NewReader(body))
	if err != nil {
		s.logger.Error("failed to parse playlist", "url", url, "error", err)
		return Loaded{}, fmt.Errorf("parse playlist: %w", err)
	}
	if len(entries) == 0 {
		s.logger.Warn("playlist has no entries", "url", url)
	}

	items := ToMediaInputs(entries, sourceID)
	loaded := Loaded{Items: items, Categories: ExtractCategories(items)}
	s.logger.Debug("loaded playlist", "url", url, "items", len(items), "categories", len(loaded.Categories))
	return loaded, nil
}
