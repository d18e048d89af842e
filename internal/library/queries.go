package library

import (
	"context"

	"github.com/mmcdole/wizju/internal/domain"
)

// Usage is the persisted size of each stored collection, in bytes.
type Usage struct {
	Sources   int
	Media     map[string]int
	Favorites int
	Recent    int
	Limit     int
}

// Total sums every collection.
func (u Usage) Total() int {
	total := u.Sources + u.Favorites + u.Recent
	for _, n := range u.Media {
		total += n
	}
	return total
}

// Usage reports storage use per collection.
func (s *Service) Usage(ctx context.Context) Usage {
	u := Usage{
		Sources:   s.Sources.UsageBytes(ctx),
		Media:     make(map[string]int),
		Favorites: s.Favorites.UsageBytes(ctx),
		Recent:    s.Recent.UsageBytes(ctx),
		Limit:     s.Media.Limit(),
	}
	ids, err := s.Media.PartitionIDs(ctx)
	if err != nil {
		s.logger.Error("failed to list media partitions", "error", err)
		return u
	}
	for _, id := range ids {
		u.Media[id] = s.Media.UsageBytes(ctx, id)
	}
	return u
}

// Items returns the cached media of a source, or of every source when
// sourceID is empty, optionally narrowed to one kind.
func (s *Service) Items(sourceID string, kind domain.MediaKind) []domain.MediaRecord {
	var items []domain.MediaRecord
	if sourceID == "" {
		items = s.Media.All()
	} else {
		items = s.Media.BySource(sourceID)
	}
	if kind == "" {
		return items
	}

	out := []domain.MediaRecord{}
	for _, m := range items {
		if m.Type == kind {
			out = append(out, m)
		}
	}
	return out
}
