// Package library ties sources, their media, playlists and playback together.
package library

import (
	"context"
	"log/slog"
	"time"

	"github.com/mmcdole/wizju/internal/favorites"
	"github.com/mmcdole/wizju/internal/media"
	"github.com/mmcdole/wizju/internal/playlist"
	"github.com/mmcdole/wizju/internal/recent"
	"github.com/mmcdole/wizju/internal/sources"
)

// PlaylistLoader reads a source's playlist.
type PlaylistLoader interface {
	Load(ctx context.Context, url, sourceID string) (playlist.Loaded, error)
}

// Player starts playback of a stream URL.
type Player interface {
	Launch(url string, offset time.Duration) error
}

// Service orchestrates registries + playlist loading + playback.
type Service struct {
	Sources   *sources.Registry
	Media     *media.Registry
	Favorites *favorites.Service
	Recent    *recent.Service

	loader PlaylistLoader
	player Player
	logger *slog.Logger
}

// Deps are the collaborators of a Service.
type Deps struct {
	Sources   *sources.Registry
	Media     *media.Registry
	Favorites *favorites.Service
	Recent    *recent.Service
	Loader    PlaylistLoader
	Player    Player
}

// NewService creates a new library service.
func NewService(deps Deps, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		Sources:   deps.Sources,
		Media:     deps.Media,
		Favorites: deps.Favorites,
		Recent:    deps.Recent,
		loader:    deps.Loader,
		player:    deps.Player,
		logger:    logger,
	}
}

// Load fills the source and media caches from storage.
func (s *Service) Load(ctx context.Context) {
	s.Sources.Load(ctx)
	s.Media.LoadAll(ctx)
	s.logger.Debug("library loaded", "sources", len(s.Sources.Sources()))
}
