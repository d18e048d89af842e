// Package recent tracks recently watched media and playback positions.
package recent

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/mmcdole/wizju/internal/collection"
	"github.com/mmcdole/wizju/internal/domain"
)

const (
	StorageKey = "wizju_recent_watching"
	MaxItems   = 20
)

type Service struct {
	items  *collection.Collection[domain.RecentItem, domain.RecentInput]
	logger *slog.Logger
	mu     sync.Mutex
}

func NewService(backend domain.Backend, logger *slog.Logger, opts ...collection.Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	opts = append([]collection.Option{collection.WithLogger(logger)}, opts...)
	return &Service{
		items:  collection.New(backend, StorageKey, domain.NewRecentItem, opts...),
		logger: logger,
	}
}

// List returns the watch history, most recently watched first.
func (s *Service) List(ctx context.Context) []domain.RecentItem {
	items := s.items.LoadAll(ctx)
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].WatchedAt.After(items[j].WatchedAt)
	})
	return items
}

// Record marks a media record as just watched. An existing entry for the
// same media and source keeps its id and moves to the front.
func (s *Service) Record(ctx context.Context, in domain.RecentInput) (domain.RecentItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.List(ctx)

	var entry domain.RecentItem
	rest := make([]domain.RecentItem, 0, len(items))
	found := false
	for _, it := range items {
		if !found && it.Media.ID == in.Media.ID && it.SourceID == in.SourceID {
			entry = it
			found = true
			continue
		}
		rest = append(rest, it)
	}

	if found {
		entry.Media = in.Media
		entry.WatchedAt = s.items.Now()
		entry.LastPosition = in.LastPosition
	} else {
		entry = s.items.NewRecord(in)
	}

	updated := append([]domain.RecentItem{entry}, rest...)
	if len(updated) > MaxItems {
		updated = updated[:MaxItems]
	}
	if err := s.items.SaveAll(ctx, updated); err != nil {
		return domain.RecentItem{}, err
	}
	s.logger.Debug("recorded watch", "title", in.Media.Title, "sourceID", in.SourceID)
	return entry, nil
}

func (s *Service) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.items.Remove(ctx, s.items.LoadAll(ctx), id)
	return err
}

// RemoveBySource drops every entry that came from sourceID.
func (s *Service) RemoveBySource(ctx context.Context, sourceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.items.LoadAll(ctx)
	kept := make([]domain.RecentItem, 0, len(items))
	for _, it := range items {
		if it.SourceID != sourceID {
			kept = append(kept, it)
		}
	}
	return s.items.SaveAll(ctx, kept)
}

// UpdatePosition stores the playback position in seconds and bumps the
// watch time. Unknown ids are ignored.
func (s *Service) UpdatePosition(ctx context.Context, id string, seconds float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.items.Now()
	_, err := s.items.Update(ctx, s.items.LoadAll(ctx), id, func(it domain.RecentItem) domain.RecentItem {
		it.LastPosition = &seconds
		it.WatchedAt = now
		return it
	})
	return err
}

// Find returns the entry for a media record from sourceID.
func (s *Service) Find(ctx context.Context, mediaID, sourceID string) (domain.RecentItem, bool) {
	for _, it := range s.items.LoadAll(ctx) {
		if it.Media.ID == mediaID && it.SourceID == sourceID {
			return it, true
		}
	}
	return domain.RecentItem{}, false
}

// Clear removes the whole history. Failures are only logged.
func (s *Service) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items.Clear(ctx)
}

func (s *Service) UsageBytes(ctx context.Context) int {
	return s.items.UsageBytes(ctx)
}

// ByKind returns display records for entries of the given kind.
func (s *Service) ByKind(ctx context.Context, kind domain.MediaKind) []domain.MediaRecord {
	var matched []domain.RecentItem
	for _, it := range s.List(ctx) {
		if it.Media.Type == kind {
			matched = append(matched, it)
		}
	}
	return s.Display(matched)
}

// Channels returns display records for recently watched live channels.
func (s *Service) Channels(ctx context.Context) []domain.MediaRecord {
	return s.ByKind(ctx, domain.MediaKindLive)
}

// Display turns entries into media records whose description says when
// they were watched and whose remaining time says how much was played.
func (s *Service) Display(items []domain.RecentItem) []domain.MediaRecord {
	now := s.items.Now()
	out := make([]domain.MediaRecord, 0, len(items))
	for _, it := range items {
		m := it.Media
		m.Description = watchedInfo(it, now)
		m.TimeRemaining = ""
		if it.LastPosition != nil && *it.LastPosition > 0 {
			m.TimeRemaining = formatPlayed(*it.LastPosition)
		}
		out = append(out, m)
	}
	return out
}

func watchedInfo(it domain.RecentItem, now time.Time) string {
	ago := "Recently watched"
	if now.Sub(it.WatchedAt) >= time.Hour {
		ago = humanize.RelTime(it.WatchedAt, now, "ago", "from now")
	}
	if it.Media.Description != "" {
		return it.Media.Description + " • " + ago
	}
	return ago
}

func formatPlayed(seconds float64) string {
	minutes := int(seconds / 60)
	if minutes > 60 {
		return fmt.Sprintf("%dh %dm played", minutes/60, minutes%60)
	}
	return fmt.Sprintf("%dmin played", minutes)
}
