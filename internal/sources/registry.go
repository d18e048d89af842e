// Package sources keeps the registered streaming sources in memory on top
// of their persisted collection.
package sources

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/mmcdole/wizju/internal/collection"
	"github.com/mmcdole/wizju/internal/domain"
)

// StorageKey is the backend key of the source collection.
const StorageKey = "wizju_sources"

// Registry caches the source collection. The cache is only ever replaced
// by what the collection returned after a successful write.
type Registry struct {
	sources *collection.Collection[domain.Source, domain.SourceInput]
	limit   int
	logger  *slog.Logger

	mu        sync.Mutex
	cache     []domain.Source
	firstTime bool
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
		sources:   collection.New(backend, StorageKey, domain.NewSource, opts...),
		limit:     limitBytes,
		logger:    logger,
		cache:     []domain.Source{},
		firstTime: true,
	}
}

// Load populates the cache from storage.
func (r *Registry) Load(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cache = r.sources.LoadAll(ctx)
	r.firstTime = len(r.cache) == 0
	r.logger.Debug("loaded sources", "count", len(r.cache))
}

// Sources returns a copy of every cached source in insertion order.
func (r *Registry) Sources() []domain.Source {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.cache)
}

// Active returns the sources whose active flag is set.
func (r *Registry) Active() []domain.Source {
	r.mu.Lock()
	defer r.mu.Unlock()

	active := []domain.Source{}
	for _, s := range r.cache {
		if s.IsActive {
			active = append(active, s)
		}
	}
	return active
}

// IsFirstTime reports whether no source has been registered yet.
func (r *Registry) IsFirstTime() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.firstTime
}

func (r *Registry) SetFirstTime(v bool) {
	r.mu.Lock()
	r.firstTime = v
	r.mu.Unlock()
}

// Add validates in, checks it fits under the storage limit, and persists it.
func (r *Registry) Add(ctx context.Context, in domain.SourceInput) (domain.Source, error) {
	if err := domain.ValidateSourceInput(in); err != nil {
		return domain.Source{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	size, err := r.sources.ProjectedSize(r.cache, in)
	if err != nil {
		return domain.Source{}, err
	}
	if size > r.limit {
		r.logger.Warn("source rejected, storage full", "name", in.Name, "size", size, "limit", r.limit)
		return domain.Source{}, &domain.CapacityError{Size: size, Limit: r.limit}
	}

	updated, err := r.sources.Add(ctx, r.cache, in)
	if err != nil {
		return domain.Source{}, err
	}
	r.cache = updated
	r.firstTime = false

	added := updated[len(updated)-1]
	r.logger.Info("source added", "id", added.ID, "name", added.Name)
	return added, nil
}

// AddWithCategories is Add with the category list replaced by categories.
func (r *Registry) AddWithCategories(ctx context.Context, in domain.SourceInput, categories []string) (domain.Source, error) {
	in.Categories = slices.Clone(categories)
	return r.Add(ctx, in)
}

// UpdateCategories replaces the categories of source id.
func (r *Registry) UpdateCategories(ctx context.Context, id string, categories []string) error {
	categories = slices.Clone(categories)
	if categories == nil {
		categories = []string{}
	}
	return r.update(ctx, id, func(s domain.Source) domain.Source {
		s.Categories = categories
		return s
	})
}

// ToggleActive flips the active flag of source id.
func (r *Registry) ToggleActive(ctx context.Context, id string) error {
	return r.update(ctx, id, func(s domain.Source) domain.Source {
		s.IsActive = !s.IsActive
		return s
	})
}

func (r *Registry) update(ctx context.Context, id string, patch collection.Patch[domain.Source]) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	updated, err := r.sources.Update(ctx, r.cache, id, patch)
	if err != nil {
		return err
	}
	r.cache = updated
	return nil
}

// Remove deletes source id. Removing the last source sets the first-time flag.
func (r *Registry) Remove(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	updated, err := r.sources.Remove(ctx, r.cache, id)
	if err != nil {
		return err
	}
	r.cache = updated
	if len(updated) == 0 {
		r.firstTime = true
	}
	r.logger.Info("source removed", "id", id)
	return nil
}

// ClearAll drops every source.
func (r *Registry) ClearAll(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sources.Clear(ctx)
	r.cache = []domain.Source{}
	r.firstTime = true
}

func (r *Registry) GetByID(id string) (domain.Source, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sources.GetByID(r.cache, id)
}

// UsageBytes returns the persisted size of the source collection.
func (r *Registry) UsageBytes(ctx context.Context) int {
	return r.sources.UsageBytes(ctx)
}

// Limit returns the capacity threshold in bytes.
func (r *Registry) Limit() int { return r.limit }
