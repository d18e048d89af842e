package sources

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/mmcdole/wizju/internal/domain"
	"github.com/mmcdole/wizju/internal/store"
	"github.com/mmcdole/wizju/internal/store/storetest"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newBackend(t *testing.T) *store.Backend {
	t.Helper()
	b, err := store.Open("")
	if err != nil {
		t.Fatalf("failed to open backend: %v", err)
	}
	return b
}

func testInput() domain.SourceInput {
	return domain.SourceInput{
		Name:       "Test",
		URL:        "http://x/playlist.m3u",
		Type:       domain.SourceKindM3U,
		IsActive:   true,
		Categories: []string{},
	}
}

func TestRegistry_FirstTimeScenario(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(newBackend(t), 0, quietLogger)
	r.Load(ctx)

	if !r.IsFirstTime() {
		t.Fatal("expected first time on empty storage")
	}

	added, err := r.Add(ctx, testInput())
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if n := len(r.Sources()); n != 1 {
		t.Errorf("expected 1 cached source, got %d", n)
	}
	if r.IsFirstTime() {
		t.Error("expected first time to be cleared after add")
	}

	if err := r.Remove(ctx, added.ID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if n := len(r.Sources()); n != 0 {
		t.Errorf("expected 0 cached sources, got %d", n)
	}
	if !r.IsFirstTime() {
		t.Error("expected first time after removing the last source")
	}
}

func TestRegistry_LoadReflectsStorage(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)

	first := NewRegistry(b, 0, quietLogger)
	added, _ := first.Add(ctx, testInput())

	second := NewRegistry(b, 0, quietLogger)
	second.Load(ctx)
	if second.IsFirstTime() {
		t.Error("expected loaded registry not to be first time")
	}
	got, ok := second.GetByID(added.ID)
	if !ok || got.Name != "Test" {
		t.Errorf("expected to find source, got %+v ok=%v", got, ok)
	}
}

func TestRegistry_AddValidation(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(newBackend(t), 0, quietLogger)

	tests := []struct {
		name   string
		mutate func(*domain.SourceInput)
	}{
		{"empty name", func(in *domain.SourceInput) { in.Name = "  " }},
		{"unknown type", func(in *domain.SourceInput) { in.Type = "ftp" }},
		{"bad scheme", func(in *domain.SourceInput) { in.URL = "file:///etc/passwd" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := testInput()
			tt.mutate(&in)
			if _, err := r.Add(ctx, in); !errors.Is(err, domain.ErrInvalidSource) {
				t.Errorf("expected ErrInvalidSource, got %v", err)
			}
		})
	}

	if n := len(r.Sources()); n != 0 {
		t.Errorf("expected no sources after invalid adds, got %d", n)
	}
}

func TestRegistry_AddRejectsOverLimit(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(newBackend(t), 200, quietLogger)

	in := testInput()
	in.Categories = []string{strings.Repeat("x", 300)}

	_, err := r.Add(ctx, in)
	if !errors.Is(err, domain.ErrStorageLimitExceeded) {
		t.Fatalf("expected ErrStorageLimitExceeded, got %v", err)
	}
	var capErr *domain.CapacityError
	if !errors.As(err, &capErr) || capErr.Limit != 200 || capErr.Size <= 200 {
		t.Errorf("unexpected capacity error: %+v", capErr)
	}
	if r.UsageBytes(ctx) != 0 {
		t.Error("expected nothing persisted")
	}
	if !r.IsFirstTime() {
		t.Error("expected first-time flag untouched")
	}
}

func TestRegistry_AddWithCategoriesAndUpdate(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(newBackend(t), 0, quietLogger)

	cats := []string{"News", "Sports"}
	added, err := r.AddWithCategories(ctx, testInput(), cats)
	if err != nil {
		t.Fatalf("AddWithCategories failed: %v", err)
	}
	cats[0] = "mutated"
	if !reflect.DeepEqual(added.Categories, []string{"News", "Sports"}) {
		t.Errorf("unexpected categories %v", added.Categories)
	}

	if err := r.UpdateCategories(ctx, added.ID, nil); err != nil {
		t.Fatalf("UpdateCategories failed: %v", err)
	}
	got, _ := r.GetByID(added.ID)
	if got.Categories == nil || len(got.Categories) != 0 {
		t.Errorf("expected empty categories, got %#v", got.Categories)
	}
}

func TestRegistry_ToggleActive(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(newBackend(t), 0, quietLogger)

	a, _ := r.Add(ctx, testInput())
	in := testInput()
	in.Name = "Other"
	r.Add(ctx, in)

	if n := len(r.Active()); n != 2 {
		t.Fatalf("expected 2 active sources, got %d", n)
	}
	if err := r.ToggleActive(ctx, a.ID); err != nil {
		t.Fatalf("ToggleActive failed: %v", err)
	}
	active := r.Active()
	if len(active) != 1 || active[0].Name != "Other" {
		t.Errorf("expected only Other active, got %+v", active)
	}

	if err := r.ToggleActive(ctx, "missing"); err != nil {
		t.Errorf("expected toggling an unknown id to be a no-op, got %v", err)
	}
}

func TestRegistry_WriteFailureKeepsCache(t *testing.T) {
	ctx := context.Background()
	faulty := storetest.NewFaulty(newBackend(t))
	r := NewRegistry(faulty, 0, quietLogger)

	a, _ := r.Add(ctx, testInput())
	before := r.Sources()

	faulty.FailSet(true)
	if _, err := r.Add(ctx, testInput()); !errors.Is(err, storetest.ErrInjected) {
		t.Errorf("expected injected error, got %v", err)
	}
	if err := r.Remove(ctx, a.ID); err == nil {
		t.Error("expected remove to fail")
	}
	if err := r.ToggleActive(ctx, a.ID); err == nil {
		t.Error("expected toggle to fail")
	}
	if !reflect.DeepEqual(r.Sources(), before) {
		t.Error("cache changed after failed writes")
	}
}

func TestRegistry_ClearAll(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(newBackend(t), 0, quietLogger)
	r.Add(ctx, testInput())

	r.ClearAll(ctx)
	if len(r.Sources()) != 0 || !r.IsFirstTime() {
		t.Error("expected empty first-time registry after ClearAll")
	}
	r.Load(ctx)
	if len(r.Sources()) != 0 {
		t.Error("expected storage to be cleared")
	}
}
