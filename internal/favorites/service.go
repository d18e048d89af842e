// Package favorites keeps the user's pinned media records.
package favorites

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/mmcdole/wizju/internal/collection"
	"github.com/mmcdole/wizju/internal/domain"
)

const (
	StorageKey = "wizju_favorites"

	// MaxFavorites caps the list; adding past it evicts the oldest entry.
	MaxFavorites = 20
)

// Service reads and writes favourites straight through to storage.
type Service struct {
	favorites *collection.Collection[domain.Favorite, domain.FavoriteInput]
	logger    *slog.Logger
	mu        sync.Mutex
}

func NewService(backend domain.Backend, logger *slog.Logger, opts ...collection.Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	opts = append([]collection.Option{collection.WithLogger(logger)}, opts...)
	return &Service{
		favorites: collection.New(backend, StorageKey, domain.NewFavorite, opts...),
		logger:    logger,
	}
}

// List returns every favourite, newest first.
func (s *Service) List(ctx context.Context) []domain.Favorite {
	items := s.favorites.LoadAll(ctx)
	sortNewestFirst(items)
	return items
}

// IsFavorite reports whether the media record from sourceID is pinned.
func (s *Service) IsFavorite(ctx context.Context, mediaID, sourceID string) bool {
	return indexOf(s.favorites.LoadAll(ctx), mediaID, sourceID) >= 0
}

// Add pins media. It returns false when it is already pinned.
func (s *Service) Add(ctx context.Context, media domain.MediaRecord, sourceID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(ctx, s.favorites.LoadAll(ctx), media, sourceID)
}

func (s *Service) add(ctx context.Context, items []domain.Favorite, media domain.MediaRecord, sourceID string) (bool, error) {
	if indexOf(items, media.ID, sourceID) >= 0 {
		s.logger.Debug("already a favorite", "title", media.Title)
		return false, nil
	}

	sortNewestFirst(items)
	if len(items) >= MaxFavorites {
		evicted := items[MaxFavorites-1:]
		s.logger.Debug("evicting oldest favorites", "count", len(evicted))
		items = items[:MaxFavorites-1]
	}

	fav := s.favorites.NewRecord(domain.FavoriteInput{Media: media, SourceID: sourceID})
	updated := append([]domain.Favorite{fav}, items...)
	if err := s.favorites.SaveAll(ctx, updated); err != nil {
		return false, err
	}
	s.logger.Info("added favorite", "title", media.Title, "sourceID", sourceID)
	return true, nil
}

// Remove unpins a media record. It returns false when it was not pinned.
func (s *Service) Remove(ctx context.Context, mediaID, sourceID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remove(ctx, s.favorites.LoadAll(ctx), mediaID, sourceID)
}

func (s *Service) remove(ctx context.Context, items []domain.Favorite, mediaID, sourceID string) (bool, error) {
	i := indexOf(items, mediaID, sourceID)
	if i < 0 {
		return false, nil
	}
	if _, err := s.favorites.Remove(ctx, items, items[i].ID); err != nil {
		return false, err
	}
	s.logger.Info("removed favorite", "mediaID", mediaID, "sourceID", sourceID)
	return true, nil
}

// Toggle pins or unpins media and reports whether it is pinned afterwards.
func (s *Service) Toggle(ctx context.Context, media domain.MediaRecord, sourceID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.favorites.LoadAll(ctx)
	if indexOf(items, media.ID, sourceID) >= 0 {
		_, err := s.remove(ctx, items, media.ID, sourceID)
		return false, err
	}
	added, err := s.add(ctx, items, media, sourceID)
	return added, err
}

// RemoveBySource drops every favourite that came from sourceID.
func (s *Service) RemoveBySource(ctx context.Context, sourceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.favorites.LoadAll(ctx)
	kept := make([]domain.Favorite, 0, len(items))
	for _, f := range items {
		if f.SourceID != sourceID {
			kept = append(kept, f)
		}
	}
	if len(kept) == len(items) {
		return nil
	}
	return s.favorites.SaveAll(ctx, kept)
}

func (s *Service) Count(ctx context.Context) int {
	return len(s.favorites.LoadAll(ctx))
}

func (s *Service) Max() int { return MaxFavorites }

// Clear removes every favourite. Failures are only logged.
func (s *Service) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.favorites.Clear(ctx)
}

// MediaItems returns the pinned media records, newest first.
func (s *Service) MediaItems(ctx context.Context) []domain.MediaRecord {
	favs := s.List(ctx)
	out := make([]domain.MediaRecord, 0, len(favs))
	for _, f := range favs {
		out = append(out, f.Media)
	}
	return out
}

func (s *Service) UsageBytes(ctx context.Context) int {
	return s.favorites.UsageBytes(ctx)
}

func indexOf(items []domain.Favorite, mediaID, sourceID string) int {
	for i, f := range items {
		if f.Media.ID == mediaID && f.SourceID == sourceID {
			return i
		}
	}
	return -1
}

func sortNewestFirst(items []domain.Favorite) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].DateAdded.After(items[j].DateAdded)
	})
}
