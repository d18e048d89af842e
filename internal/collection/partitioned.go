package collection

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/mmcdole/wizju/internal/domain"
)

// Partitioned splits one record type across many collections, one per
// partition id, stored under "<prefix>_<id>". Per-partition work stays
// proportional to the partition, not the whole data set.
type Partitioned[T domain.Record, C any] struct {
	backend domain.Backend
	prefix  string
	build   Builder[T, C]
	opts    []Option
	logger  *slog.Logger

	mu         sync.Mutex
	partitions map[string]*Collection[T, C]
}

// NewPartitioned creates a partitioned store whose keys start with prefix.
func NewPartitioned[T domain.Record, C any](backend domain.Backend, prefix string, build Builder[T, C], opts ...Option) *Partitioned[T, C] {
	o := buildOptions(opts)
	return &Partitioned[T, C]{
		backend:    backend,
		prefix:     prefix,
		build:      build,
		opts:       opts,
		logger:     o.logger,
		partitions: make(map[string]*Collection[T, C]),
	}
}

// KeyFor returns the backend key of a partition.
func (p *Partitioned[T, C]) KeyFor(partitionID string) string {
	return p.keyPrefix() + partitionID
}

func (p *Partitioned[T, C]) keyPrefix() string {
	return p.prefix + "_"
}

// partition returns the memoised collection for partitionID.
func (p *Partitioned[T, C]) partition(partitionID string) *Collection[T, C] {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.partitions[partitionID]; ok {
		return c
	}
	c := New(p.backend, p.KeyFor(partitionID), p.build, p.opts...)
	p.partitions[partitionID] = c
	return c
}

// matchingKeys lists every backend key that belongs to this store.
func (p *Partitioned[T, C]) matchingKeys(ctx context.Context) ([]string, error) {
	keys, err := p.backend.Keys(ctx)
	if err != nil {
		return nil, err
	}
	prefix := p.keyPrefix()
	var matched []string
	for _, k := range keys {
		if strings.HasPrefix(k, prefix) {
			matched = append(matched, k)
		}
	}
	return matched, nil
}

func (p *Partitioned[T, C]) LoadByPartition(ctx context.Context, partitionID string) []T {
	return p.partition(partitionID).LoadAll(ctx)
}

// LoadAll concatenates every partition: backend key order across
// partitions, insertion order within one.
func (p *Partitioned[T, C]) LoadAll(ctx context.Context) []T {
	keys, err := p.matchingKeys(ctx)
	if err != nil {
		p.logger.Error("failed to enumerate partitions", "prefix", p.prefix, "error", err)
		return []T{}
	}

	all := []T{}
	prefix := p.keyPrefix()
	for _, k := range keys {
		all = append(all, p.partition(strings.TrimPrefix(k, prefix)).LoadAll(ctx)...)
	}
	return all
}

func (p *Partitioned[T, C]) Add(ctx context.Context, partitionID string, items []T, in C) ([]T, error) {
	return p.partition(partitionID).Add(ctx, items, in)
}

func (p *Partitioned[T, C]) Remove(ctx context.Context, partitionID string, items []T, id string) ([]T, error) {
	return p.partition(partitionID).Remove(ctx, items, id)
}

func (p *Partitioned[T, C]) Update(ctx context.Context, partitionID string, items []T, id string, patch Patch[T]) ([]T, error) {
	return p.partition(partitionID).Update(ctx, items, id, patch)
}

func (p *Partitioned[T, C]) GetByID(partitionID string, items []T, id string) (T, bool) {
	return p.partition(partitionID).GetByID(items, id)
}

func (p *Partitioned[T, C]) UsageBytes(ctx context.Context, partitionID string) int {
	return p.partition(partitionID).UsageBytes(ctx)
}

func (p *Partitioned[T, C]) Count(ctx context.Context, partitionID string) int {
	return len(p.LoadByPartition(ctx, partitionID))
}

// SavePartition overwrites a whole partition; used for batch inserts.
func (p *Partitioned[T, C]) SavePartition(ctx context.Context, partitionID string, items []T) error {
	return p.partition(partitionID).SaveAll(ctx, items)
}

func (p *Partitioned[T, C]) WouldExceedLimit(partitionID string, items []T, in C, limitBytes int) bool {
	return p.partition(partitionID).WouldExceedLimit(items, in, limitBytes)
}

func (p *Partitioned[T, C]) ProjectedSize(partitionID string, items []T, in C) (int, error) {
	return p.partition(partitionID).ProjectedSize(items, in)
}

// Size returns the serialized size of items as one partition payload.
func (p *Partitioned[T, C]) Size(items []T) (int, error) {
	data, err := encode(nonNil(items))
	if err != nil {
		return 0, err
	}
	return len(data), nil
}

// NewRecord stamps a fresh id and timestamp onto in.
func (p *Partitioned[T, C]) NewRecord(partitionID string, in C) T {
	return p.partition(partitionID).NewRecord(in)
}

// ClearPartition deletes one partition. Failures are logged only.
func (p *Partitioned[T, C]) ClearPartition(ctx context.Context, partitionID string) {
	p.partition(partitionID).Clear(ctx)
}

// ClearAll deletes every partition in one backend call.
func (p *Partitioned[T, C]) ClearAll(ctx context.Context) error {
	keys, err := p.matchingKeys(ctx)
	if err != nil {
		return fmt.Errorf("enumerate %s partitions: %w", p.prefix, err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := p.backend.Remove(ctx, keys...); err != nil {
		return fmt.Errorf("clear %s partitions: %w", p.prefix, err)
	}
	return nil
}

// PartitionIDs lists the ids of every stored partition.
func (p *Partitioned[T, C]) PartitionIDs(ctx context.Context) ([]string, error) {
	keys, err := p.matchingKeys(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(keys))
	prefix := p.keyPrefix()
	for _, k := range keys {
		ids = append(ids, strings.TrimPrefix(k, prefix))
	}
	return ids, nil
}
