package playlist

import (
	"sort"
	"strings"

	"github.com/mmcdole/wizju/internal/domain"
)

// ToMediaInputs maps parsed entries to live media records owned by sourceID.
func ToMediaInputs(entries []domain.PlaylistEntry, sourceID string) []domain.MediaInput {
	out := make([]domain.MediaInput, 0, len(entries))
	for _, e := range entries {
		title := e.Name
		if title == "" {
			title = "Unknown"
		}
		category := e.Group
		if category == "" {
			category = "general"
		}
		out = append(out, domain.MediaInput{
			Title:       title,
			Description: e.Group,
			Thumbnail:   e.Logo,
			Category:    category,
			URL:         e.URL,
			Type:        domain.MediaKindLive,
			Genre:       e.Group,
			TvgName:     e.TvgName,
			GroupTitle:  e.Group,
			SourceID:    sourceID,
		})
	}
	return out
}

// ExtractCategories returns the distinct category labels of items, sorted.
// A category field may hold several labels separated by ";".
func ExtractCategories(items []domain.MediaInput) []string {
	seen := make(map[string]struct{})
	for _, item := range items {
		for _, c := range strings.Split(item.Category, ";") {
			if c = strings.TrimSpace(c); c != "" {
				seen[c] = struct{}{}
			}
		}
	}

	categories := make([]string, 0, len(seen))
	for c := range seen {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	return categories
}
