// Package media caches the media records of every source, one partition
// per source, and derives the browse and search views from that cache.
package media

import (
	"context"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/mmcdole/wizju/internal/collection"
	"github.com/mmcdole/wizju/internal/domain"
)

// KeyPrefix prefixes the backend key of every media partition.
const KeyPrefix = "wizju_media_items"

// Registry maps source ids to their cached media records.
type Registry struct {
	items  *collection.Partitioned[domain.MediaRecord, domain.MediaInput]
	limit  int
	logger *slog.Logger

	mu    sync.Mutex
	cache map[string][]domain.MediaRecord
}

// NewRegistry creates a registry over backend. A non-positive limitBytes
// selects collection.DefaultLimitBytes.
func NewRegistry(backend domain.Backend, limitBytes int, logger *slog.Logger, opts ...collection.Option) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	if limitBytes <= 0 {
		limitBytes = collection.DefaultLimitBytes
	}
	opts = append([]collection.Option{collection.WithLogger(logger)}, opts...)
	return &Registry{
		items:  collection.NewPartitioned(backend, KeyPrefix, domain.NewMediaRecord, opts...),
		limit:  limitBytes,
		logger: logger,
		cache:  make(map[string][]domain.MediaRecord),
	}
}

// LoadAll replaces the cache with every stored partition, grouped by the
// source id carried by each record.
func (r *Registry) LoadAll(ctx context.Context) {
	all := r.items.LoadAll(ctx)

	grouped := make(map[string][]domain.MediaRecord)
	for _, item := range all {
		grouped[item.SourceID] = append(grouped[item.SourceID], item)
	}

	r.mu.Lock()
	r.cache = grouped
	r.mu.Unlock()
	r.logger.Debug("loaded media", "count", len(all), "sources", len(grouped))
}

// LoadPartition refreshes one source's records from storage.
func (r *Registry) LoadPartition(ctx context.Context, sourceID string) []domain.MediaRecord {
	items := r.items.LoadByPartition(ctx, sourceID)

	r.mu.Lock()
	r.cache[sourceID] = items
	r.mu.Unlock()
	return slices.Clone(items)
}

// Add stores one record under sourceID after checking the partition's capacity.
func (r *Registry) Add(ctx context.Context, sourceID string, in domain.MediaInput) (domain.MediaRecord, error) {
	in.SourceID = sourceID

	r.mu.Lock()
	defer r.mu.Unlock()

	current := r.cache[sourceID]
	size, err := r.items.ProjectedSize(sourceID, current, in)
	if err != nil {
		return domain.MediaRecord{}, err
	}
	if size > r.limit {
		return domain.MediaRecord{}, &domain.CapacityError{Size: size, Limit: r.limit}
	}

	updated, err := r.items.Add(ctx, sourceID, current, in)
	if err != nil {
		return domain.MediaRecord{}, err
	}
	r.cache[sourceID] = updated
	return updated[len(updated)-1], nil
}

// AddBatch appends ins to sourceID's partition in a single write. The
// combined size is checked once; if it is over the limit nothing is stored.
func (r *Registry) AddBatch(ctx context.Context, sourceID string, ins []domain.MediaInput) ([]domain.MediaRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current := r.cache[sourceID]
	batch := r.build(sourceID, ins)

	combined := make([]domain.MediaRecord, 0, len(current)+len(batch))
	combined = append(combined, current...)
	combined = append(combined, batch...)

	if err := r.save(ctx, sourceID, combined); err != nil {
		return nil, err
	}
	r.logger.Info("media batch added", "sourceID", sourceID, "count", len(batch))
	return batch, nil
}

// ReplacePartition swaps sourceID's records for ins, with the same
// all-or-nothing capacity check as AddBatch.
func (r *Registry) ReplacePartition(ctx context.Context, sourceID string, ins []domain.MediaInput) ([]domain.MediaRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	batch := r.build(sourceID, ins)
	if err := r.save(ctx, sourceID, batch); err != nil {
		return nil, err
	}
	r.logger.Info("media partition replaced", "sourceID", sourceID, "count", len(batch))
	return slices.Clone(batch), nil
}

func (r *Registry) build(sourceID string, ins []domain.MediaInput) []domain.MediaRecord {
	batch := make([]domain.MediaRecord, 0, len(ins))
	for _, in := range ins {
		in.SourceID = sourceID
		batch = append(batch, r.items.NewRecord(sourceID, in))
	}
	return batch
}

// save writes items as sourceID's partition if they fit. Callers hold r.mu.
func (r *Registry) save(ctx context.Context, sourceID string, items []domain.MediaRecord) error {
	size, err := r.items.Size(items)
	if err != nil {
		return err
	}
	if size > r.limit {
		r.logger.Warn("media batch rejected, storage full", "sourceID", sourceID, "size", size, "limit", r.limit)
		return &domain.CapacityError{Size: size, Limit: r.limit}
	}
	if err := r.items.SavePartition(ctx, sourceID, items); err != nil {
		return err
	}
	r.cache[sourceID] = items
	return nil
}

func (r *Registry) Remove(ctx context.Context, sourceID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	updated, err := r.items.Remove(ctx, sourceID, r.cache[sourceID], id)
	if err != nil {
		return err
	}
	r.cache[sourceID] = updated
	return nil
}

func (r *Registry) Update(ctx context.Context, sourceID, id string, patch collection.Patch[domain.MediaRecord]) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	updated, err := r.items.Update(ctx, sourceID, r.cache[sourceID], id, patch)
	if err != nil {
		return err
	}
	r.cache[sourceID] = updated
	return nil
}

// ClearPartition drops sourceID's records. Storage failures are only logged.
func (r *Registry) ClearPartition(ctx context.Context, sourceID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items.ClearPartition(ctx, sourceID)
	delete(r.cache, sourceID)
}

// ClearAll drops every partition.
func (r *Registry) ClearAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.items.ClearAll(ctx); err != nil {
		return err
	}
	r.cache = make(map[string][]domain.MediaRecord)
	return nil
}

func (r *Registry) GetByID(sourceID, id string) (domain.MediaRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items.GetByID(sourceID, r.cache[sourceID], id)
}

// BySource returns the cached records of one source.
func (r *Registry) BySource(sourceID string) []domain.MediaRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	items := slices.Clone(r.cache[sourceID])
	if items == nil {
		items = []domain.MediaRecord{}
	}
	return items
}

// Count returns the number of cached records of one source.
func (r *Registry) Count(sourceID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cache[sourceID])
}

// All flattens every cached partition, ordered by source id.
func (r *Registry) All() []domain.MediaRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.cache))
	for id := range r.cache {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	all := []domain.MediaRecord{}
	for _, id := range ids {
		all = append(all, r.cache[id]...)
	}
	return all
}

func (r *Registry) ByKind(kind domain.MediaKind) []domain.MediaRecord {
	return filter(r.All(), func(m domain.MediaRecord) bool { return m.Type == kind })
}

func (r *Registry) Live() []domain.MediaRecord   { return r.ByKind(domain.MediaKindLive) }
func (r *Registry) VOD() []domain.MediaRecord    { return r.ByKind(domain.MediaKindVOD) }
func (r *Registry) Series() []domain.MediaRecord { return r.ByKind(domain.MediaKindSeries) }

// ByCategory returns the records whose category label equals category.
func (r *Registry) ByCategory(category string) []domain.MediaRecord {
	return filter(r.All(), func(m domain.MediaRecord) bool { return m.Category == category })
}

// Search matches query case-insensitively against title, description,
// category and genre. An empty sourceID searches every source.
func (r *Registry) Search(query, sourceID string) []domain.MediaRecord {
	scope := r.All()
	if sourceID != "" {
		scope = r.BySource(sourceID)
	}

	q := strings.ToLower(query)
	return filter(scope, func(m domain.MediaRecord) bool {
		return strings.Contains(strings.ToLower(m.Title), q) ||
			strings.Contains(strings.ToLower(m.Description), q) ||
			strings.Contains(strings.ToLower(m.Category), q) ||
			strings.Contains(strings.ToLower(m.Genre), q)
	})
}

// UsageBytes returns the persisted size of one source's partition.
func (r *Registry) UsageBytes(ctx context.Context, sourceID string) int {
	return r.items.UsageBytes(ctx, sourceID)
}

// TotalUsageBytes sums the persisted size of every partition.
func (r *Registry) TotalUsageBytes(ctx context.Context) int {
	ids, err := r.items.PartitionIDs(ctx)
	if err != nil {
		r.logger.Error("failed to list media partitions", "error", err)
		return 0
	}
	total := 0
	for _, id := range ids {
		total += r.items.UsageBytes(ctx, id)
	}
	return total
}

// PartitionIDs lists the source ids that have stored media.
func (r *Registry) PartitionIDs(ctx context.Context) ([]string, error) {
	return r.items.PartitionIDs(ctx)
}

// Limit returns the capacity threshold in bytes.
func (r *Registry) Limit() int { return r.limit }

func filter(items []domain.MediaRecord, keep func(domain.MediaRecord) bool) []domain.MediaRecord {
	out := []domain.MediaRecord{}
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}
