package collection

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"testing"
	"time"

	"github.com/mmcdole/wizju/internal/domain"
	"github.com/mmcdole/wizju/internal/store"
	"github.com/mmcdole/wizju/internal/store/storetest"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newMemoryBackend(t *testing.T) *store.Backend {
	t.Helper()
	b, err := store.Open("")
	if err != nil {
		t.Fatalf("failed to open memory backend: %v", err)
	}
	return b
}

func newSources(b domain.Backend, opts ...Option) *Collection[domain.Source, domain.SourceInput] {
	opts = append([]Option{WithLogger(quietLogger)}, opts...)
	return New(b, "wizju_sources", domain.NewSource, opts...)
}

func sourceInput(name string) domain.SourceInput {
	return domain.SourceInput{
		Name:       name,
		URL:        "http://x/" + name + ".m3u",
		Type:       domain.SourceKindM3U,
		IsActive:   true,
		Categories: []string{},
	}
}

func TestCollection_AddAssignsIdentity(t *testing.T) {
	ctx := context.Background()
	c := newSources(newMemoryBackend(t))

	start := time.Now().UTC()
	items := c.LoadAll(ctx)
	seen := make(map[string]bool)

	for i := 0; i < 20; i++ {
		var err error
		prev := items
		items, err = c.Add(ctx, items, sourceInput(fmt.Sprintf("s%d", i)))
		if err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		if len(items) != len(prev)+1 {
			t.Fatalf("expected %d items, got %d", len(prev)+1, len(items))
		}

		added := items[len(items)-1]
		if added.ID == "" {
			t.Fatal("expected generated id")
		}
		if _, dup := c.GetByID(prev, added.ID); dup {
			t.Fatalf("id %s already present in prior collection", added.ID)
		}
		if seen[added.ID] {
			t.Fatalf("duplicate id %s", added.ID)
		}
		seen[added.ID] = true

		if added.DateAdded.Before(start) {
			t.Errorf("dateAdded %v is before call start %v", added.DateAdded, start)
		}
	}

	// Persisted copy equals the returned copy
	if got := c.LoadAll(ctx); len(got) != len(items) {
		t.Errorf("expected %d persisted items, got %d", len(items), len(got))
	}
}

func TestCollection_AddDoesNotAliasInput(t *testing.T) {
	ctx := context.Background()
	c := newSources(newMemoryBackend(t))

	base := make([]domain.Source, 0, 10)
	base, _ = c.Add(ctx, base, sourceInput("a"))

	first, _ := c.Add(ctx, base, sourceInput("b"))
	second, _ := c.Add(ctx, base, sourceInput("c"))

	if first[1].Name != "b" || second[1].Name != "c" {
		t.Errorf("returned collections share storage: %q %q", first[1].Name, second[1].Name)
	}
}

func TestCollection_RemoveAndGetByID(t *testing.T) {
	ctx := context.Background()
	c := newSources(newMemoryBackend(t))

	items, _ := c.Add(ctx, nil, sourceInput("a"))
	items, _ = c.Add(ctx, items, sourceInput("b"))
	target := items[0].ID

	t.Run("removes present id", func(t *testing.T) {
		updated, err := c.Remove(ctx, items, target)
		if err != nil {
			t.Fatalf("Remove failed: %v", err)
		}
		if _, ok := c.GetByID(updated, target); ok {
			t.Error("expected removed record to be absent")
		}
		if len(updated) != 1 || updated[0].Name != "b" {
			t.Errorf("unexpected remaining records: %+v", updated)
		}
	})

	t.Run("absent id returns equal collection", func(t *testing.T) {
		updated, err := c.Remove(ctx, items, "missing")
		if err != nil {
			t.Fatalf("Remove failed: %v", err)
		}
		if !reflect.DeepEqual(updated, items) {
			t.Errorf("expected unchanged collection, got %+v", updated)
		}
	})
}

func TestCollection_Update(t *testing.T) {
	ctx := context.Background()
	c := newSources(newMemoryBackend(t))

	items, _ := c.Add(ctx, nil, sourceInput("a"))
	items, _ = c.Add(ctx, items, sourceInput("b"))
	target := items[0]
	other := items[1]

	t.Run("changes only patched fields", func(t *testing.T) {
		updated, err := c.Update(ctx, items, target.ID, func(s domain.Source) domain.Source {
			s.Categories = []string{"News", "Sports"}
			return s
		})
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}

		got, _ := c.GetByID(updated, target.ID)
		want := target
		want.Categories = []string{"News", "Sports"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("expected %+v, got %+v", want, got)
		}

		before, _ := encode(other)
		after, _ := encode(updated[1])
		if string(before) != string(after) {
			t.Errorf("untouched record changed:\n%s\n%s", before, after)
		}
	})

	t.Run("absent id is a no-op", func(t *testing.T) {
		updated, err := c.Update(ctx, items, "missing", func(s domain.Source) domain.Source {
			s.Name = "changed"
			return s
		})
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if !reflect.DeepEqual(updated, items) {
			t.Errorf("expected unchanged collection")
		}
	})

	t.Run("rejects identity changes", func(t *testing.T) {
		_, err := c.Update(ctx, items, target.ID, func(s domain.Source) domain.Source {
			s.ID = "other"
			return s
		})
		if !errors.Is(err, domain.ErrImmutableField) {
			t.Errorf("expected ErrImmutableField for id change, got %v", err)
		}

		_, err = c.Update(ctx, items, target.ID, func(s domain.Source) domain.Source {
			s.DateAdded = s.DateAdded.Add(time.Hour)
			return s
		})
		if !errors.Is(err, domain.ErrImmutableField) {
			t.Errorf("expected ErrImmutableField for dateAdded change, got %v", err)
		}
	})
}

func TestCollection_WouldExceedLimitBoundary(t *testing.T) {
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c := newSources(newMemoryBackend(t), WithClock(func() time.Time { return fixed }))
	ctx := context.Background()

	items, _ := c.Add(ctx, nil, sourceInput("existing"))
	candidate := sourceInput("candidate")

	size, err := c.ProjectedSize(items, candidate)
	if err != nil {
		t.Fatalf("ProjectedSize failed: %v", err)
	}

	if c.WouldExceedLimit(items, candidate, size) {
		t.Error("size exactly at the limit must not exceed")
	}
	if !c.WouldExceedLimit(items, candidate, size-1) {
		t.Error("one byte over the limit must exceed")
	}
	if c.WouldExceedLimit(items, candidate, 0) {
		t.Error("default 5 MiB limit should not be exceeded by a tiny collection")
	}

	// Nothing was written by the check
	if got := c.LoadAll(ctx); len(got) != 1 {
		t.Errorf("expected 1 persisted item, got %d", len(got))
	}
}

func TestCollection_ProjectedSizeMatchesAdd(t *testing.T) {
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c := newSources(newMemoryBackend(t), WithClock(func() time.Time { return fixed }))
	ctx := context.Background()

	projected, _ := c.ProjectedSize(nil, sourceInput("a & <b>"))
	if _, err := c.Add(ctx, nil, sourceInput("a & <b>")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if usage := c.UsageBytes(ctx); usage != projected {
		t.Errorf("expected usage %d to equal projected size %d", usage, projected)
	}
}

func TestCollection_ReadFailuresDegradeToEmpty(t *testing.T) {
	ctx := context.Background()

	t.Run("backend read error", func(t *testing.T) {
		faulty := storetest.NewFaulty(newMemoryBackend(t))
		c := newSources(faulty)
		c.Add(ctx, nil, sourceInput("a"))

		faulty.FailGet(true)
		if got := c.LoadAll(ctx); len(got) != 0 || got == nil {
			t.Errorf("expected empty non-nil slice, got %#v", got)
		}
		if usage := c.UsageBytes(ctx); usage != 0 {
			t.Errorf("expected 0 usage on read failure, got %d", usage)
		}
	})

	t.Run("malformed payload", func(t *testing.T) {
		b := newMemoryBackend(t)
		b.Set(ctx, "wizju_sources", []byte(`{not json`))
		c := newSources(b)
		if got := c.LoadAll(ctx); len(got) != 0 {
			t.Errorf("expected empty collection, got %d items", len(got))
		}
	})

	t.Run("absent key", func(t *testing.T) {
		c := newSources(newMemoryBackend(t))
		if got := c.LoadAll(ctx); len(got) != 0 {
			t.Errorf("expected empty collection, got %d items", len(got))
		}
		if usage := c.UsageBytes(ctx); usage != 0 {
			t.Errorf("expected 0 usage for absent key, got %d", usage)
		}
	})
}

func TestCollection_WriteFailuresPropagate(t *testing.T) {
	ctx := context.Background()
	faulty := storetest.NewFaulty(newMemoryBackend(t))
	c := newSources(faulty)

	items, _ := c.Add(ctx, nil, sourceInput("a"))
	faulty.FailSet(true)

	if _, err := c.Add(ctx, items, sourceInput("b")); !errors.Is(err, storetest.ErrInjected) {
		t.Errorf("expected injected error from Add, got %v", err)
	}
	if _, err := c.Remove(ctx, items, items[0].ID); !errors.Is(err, storetest.ErrInjected) {
		t.Errorf("expected injected error from Remove, got %v", err)
	}
	if err := c.SaveAll(ctx, items); !errors.Is(err, storetest.ErrInjected) {
		t.Errorf("expected injected error from SaveAll, got %v", err)
	}
}

func TestCollection_Clear(t *testing.T) {
	ctx := context.Background()
	faulty := storetest.NewFaulty(newMemoryBackend(t))
	c := newSources(faulty)
	c.Add(ctx, nil, sourceInput("a"))

	// Best effort: a failing remove is swallowed
	faulty.FailRemove(true)
	c.Clear(ctx)
	if got := c.LoadAll(ctx); len(got) != 1 {
		t.Fatalf("expected data to survive failed clear, got %d", len(got))
	}

	faulty.FailRemove(false)
	c.Clear(ctx)
	if got := c.LoadAll(ctx); len(got) != 0 {
		t.Errorf("expected empty collection after clear, got %d", len(got))
	}
}

func TestCollection_EmptyEncodesAsArray(t *testing.T) {
	ctx := context.Background()
	b := newMemoryBackend(t)
	c := newSources(b)

	if err := c.SaveAll(ctx, nil); err != nil {
		t.Fatalf("SaveAll failed: %v", err)
	}
	data, _, _ := b.Get(ctx, "wizju_sources")
	if string(data) != "[]" {
		t.Errorf("expected [], got %s", data)
	}
}
