// Package collection persists ordered record collections in a key-value backend.
//
// A Collection owns one backend key holding a JSON array of records. Every
// mutating call takes the caller's current slice, computes the new slice,
// writes it and returns it; callers keep whatever was returned as their copy.
// Nothing here serialises concurrent callers: two Adds that start from the
// same slice will race and the later write wins.
package collection

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/wizju/internal/domain"
)

// DefaultLimitBytes is the capacity threshold used when callers pass none.
const DefaultLimitBytes = 5 * 1024 * 1024

// placeholderID stands in for a generated id when estimating sizes.
// It has the same length as a real one.
const placeholderID = "00000000-0000-0000-0000-000000000000"

// Builder creates a stored record from its creation input.
type Builder[T domain.Record, C any] func(id string, added time.Time, in C) T

// Patch returns the updated form of a record. It must not change the
// record's id or creation time.
type Patch[T any] func(T) T

type options struct {
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// Option configures a Collection or Partitioned store.
type Option func(*options)

// WithLogger sets the logger used for swallowed read failures.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithIDGenerator overrides the id source.
func WithIDGenerator(newID func() string) Option {
	return func(o *options) { o.newID = newID }
}

func buildOptions(opts []Option) options {
	o := options{
		logger: slog.Default(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// Collection stores records of type T, created from inputs of type C,
// under a single backend key.
type Collection[T domain.Record, C any] struct {
	backend domain.Backend
	key     string
	build   Builder[T, C]
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string
}

// New creates a collection stored under key.
func New[T domain.Record, C any](backend domain.Backend, key string, build Builder[T, C], opts ...Option) *Collection[T, C] {
	o := buildOptions(opts)
	return &Collection[T, C]{
		backend: backend,
		key:     key,
		build:   build,
		logger:  o.logger,
		now:     o.now,
		newID:   o.newID,
	}
}

// Key returns the backend key of the collection.
func (c *Collection[T, C]) Key() string { return c.key }

// LoadAll reads the collection. A missing key or an unreadable payload
// yields an empty collection; the failure is logged, not returned.
func (c *Collection[T, C]) LoadAll(ctx context.Context) []T {
	data, ok, err := c.backend.Get(ctx, c.key)
	if err != nil {
		c.logger.Error("failed to load collection", "key", c.key, "error", err)
		return []T{}
	}
	if !ok {
		return []T{}
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		c.logger.Error("failed to decode collection", "key", c.key, "error", err)
		return []T{}
	}
	if items == nil {
		items = []T{}
	}
	return items
}

// SaveAll overwrites the collection with items.
func (c *Collection[T, C]) SaveAll(ctx context.Context, items []T) error {
	data, err := encode(nonNil(items))
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.key, err)
	}
	if err := c.backend.Set(ctx, c.key, data); err != nil {
		c.logger.Error("failed to save collection", "key", c.key, "error", err)
		return fmt.Errorf("save %s: %w", c.key, err)
	}
	return nil
}

// NewRecord stamps a fresh id and the current time onto in.
func (c *Collection[T, C]) NewRecord(in C) T {
	return c.build(c.newID(), c.now().UTC(), in)
}

// Now returns the current time from the collection's clock.
func (c *Collection[T, C]) Now() time.Time { return c.now().UTC() }

// Add appends a new record built from in and persists the result.
// It does not check capacity.
func (c *Collection[T, C]) Add(ctx context.Context, items []T, in C) ([]T, error) {
	updated := make([]T, 0, len(items)+1)
	updated = append(updated, items...)
	updated = append(updated, c.NewRecord(in))

	if err := c.SaveAll(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// Remove drops the record with the given id and persists the result.
// An unknown id re-saves the collection unchanged.
func (c *Collection[T, C]) Remove(ctx context.Context, items []T, id string) ([]T, error) {
	updated := make([]T, 0, len(items))
	for _, item := range items {
		if item.RecordID() != id {
			updated = append(updated, item)
		}
	}

	if err := c.SaveAll(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// Update applies patch to the record with the given id and persists the result.
// An unknown id re-saves the collection unchanged.
func (c *Collection[T, C]) Update(ctx context.Context, items []T, id string, patch Patch[T]) ([]T, error) {
	updated := make([]T, len(items))
	for i, item := range items {
		if item.RecordID() != id {
			updated[i] = item
			continue
		}
		patched := patch(item)
		if patched.RecordID() != item.RecordID() || !patched.RecordAdded().Equal(item.RecordAdded()) {
			return nil, fmt.Errorf("update %s in %s: %w", id, c.key, domain.ErrImmutableField)
		}
		updated[i] = patched
	}

	if err := c.SaveAll(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// GetByID finds a record in items. It does no I/O.
func (c *Collection[T, C]) GetByID(items []T, id string) (T, bool) {
	return find(items, id)
}

// UsageBytes returns the size of the persisted payload, or 0 if it cannot be read.
func (c *Collection[T, C]) UsageBytes(ctx context.Context) int {
	data, ok, err := c.backend.Get(ctx, c.key)
	if err != nil || !ok {
		return 0
	}
	return len(data)
}

// Size returns the serialized size of items.
func (c *Collection[T, C]) Size(items []T) (int, error) {
	data, err := encode(nonNil(items))
	if err != nil {
		return 0, err
	}
	return len(data), nil
}

// ProjectedSize returns the serialized size items would have after adding in.
func (c *Collection[T, C]) ProjectedSize(items []T, in C) (int, error) {
	candidate := make([]T, 0, len(items)+1)
	candidate = append(candidate, items...)
	candidate = append(candidate, c.build(placeholderID, c.now().UTC(), in))
	return c.Size(candidate)
}

// WouldExceedLimit reports whether adding in to items would make the
// collection larger than limitBytes. A non-positive limit means
// DefaultLimitBytes. Nothing is written.
func (c *Collection[T, C]) WouldExceedLimit(items []T, in C, limitBytes int) bool {
	if limitBytes <= 0 {
		limitBytes = DefaultLimitBytes
	}
	size, err := c.ProjectedSize(items, in)
	if err != nil {
		c.logger.Error("failed to size candidate collection", "key", c.key, "error", err)
		return true
	}
	return size > limitBytes
}

// Clear deletes the collection's key. Failures are logged only.
func (c *Collection[T, C]) Clear(ctx context.Context) {
	if err := c.backend.Remove(ctx, c.key); err != nil {
		c.logger.Error("failed to clear collection", "key", c.key, "error", err)
	}
}

func find[T domain.Record](items []T, id string) (T, bool) {
	for _, item := range items {
		if item.RecordID() == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// encode marshals v as compact JSON without HTML escaping, so the stored
// bytes are exactly what sizes are measured on.
func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
