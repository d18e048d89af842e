// Package search ranks media records and category labels against a typed
// filter query.
package search

import (
	"sort"
	"strings"

	catfuzzy "github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/sahilm/fuzzy"

	"github.com/mmcdole/wizju/internal/domain"
)

// Result is a ranked record with the title positions that matched.
type Result struct {
	Record         domain.MediaRecord
	MatchedIndexes []int
	Score          int
}

// Index implements sahilm/fuzzy.Source over record titles.
type Index struct {
	records     []domain.MediaRecord
	lowerTitles []string
}

// NewIndex pre-computes the lowercase titles of records.
func NewIndex(records []domain.MediaRecord) *Index {
	lower := make([]string, len(records))
	for i, r := range records {
		lower[i] = strings.ToLower(r.Title)
	}
	return &Index{records: records, lowerTitles: lower}
}

func (idx *Index) String(i int) string { return idx.lowerTitles[i] }
func (idx *Index) Len() int            { return len(idx.records) }

// Rank returns the indexed records matching query, best match first.
// An empty query returns every record in index order.
func (idx *Index) Rank(query string) []Result {
	if strings.TrimSpace(query) == "" {
		out := make([]Result, len(idx.records))
		for i, r := range idx.records {
			out[i] = Result{Record: r}
		}
		return out
	}

	matches := fuzzy.FindFrom(strings.ToLower(query), idx)
	out := make([]Result, len(matches))
	for i, m := range matches {
		out[i] = Result{
			Record:         idx.records[m.Index],
			MatchedIndexes: m.MatchedIndexes,
			Score:          m.Score,
		}
	}
	return out
}

// Rank is NewIndex(records).Rank(query).
func Rank(query string, records []domain.MediaRecord) []Result {
	return NewIndex(records).Rank(query)
}

// Records strips the match metadata from results.
func Records(results []Result) []domain.MediaRecord {
	out := make([]domain.MediaRecord, len(results))
	for i, r := range results {
		out[i] = r.Record
	}
	return out
}

// MatchCategories returns the categories that fuzzily contain query,
// closest first. An empty query returns categories unchanged.
func MatchCategories(query string, categories []string) []string {
	if strings.TrimSpace(query) == "" {
		return categories
	}

	ranks := catfuzzy.RankFindFold(query, categories)
	sort.SliceStable(ranks, func(i, j int) bool {
		if ranks[i].Distance != ranks[j].Distance {
			return ranks[i].Distance < ranks[j].Distance
		}
		return ranks[i].OriginalIndex < ranks[j].OriginalIndex
	})

	out := make([]string, len(ranks))
	for i, r := range ranks {
		out[i] = r.Target
	}
	return out
}
