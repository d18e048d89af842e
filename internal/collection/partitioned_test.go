package collection

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"testing"

	"github.com/mmcdole/wizju/internal/domain"
	"github.com/mmcdole/wizju/internal/store/storetest"
)

func newMedia(b domain.Backend) *Partitioned[domain.MediaRecord, domain.MediaInput] {
	return NewPartitioned(b, "wizju_media_items", domain.NewMediaRecord, WithLogger(quietLogger))
}

func mediaInput(sourceID, title string) domain.MediaInput {
	return domain.MediaInput{
		Title:    title,
		Category: "News",
		URL:      "http://x/" + title,
		Type:     domain.MediaKindLive,
		SourceID: sourceID,
	}
}

func TestPartitioned_KeyFor(t *testing.T) {
	p := newMedia(newMemoryBackend(t))
	if got := p.KeyFor("src1"); got != "wizju_media_items_src1" {
		t.Errorf("expected wizju_media_items_src1, got %s", got)
	}
}

func TestPartitioned_Isolation(t *testing.T) {
	ctx := context.Background()
	b := newMemoryBackend(t)
	p := newMedia(b)

	bItems, _ := p.Add(ctx, "B", nil, mediaInput("B", "b1"))
	before, _, _ := b.Get(ctx, p.KeyFor("B"))

	aItems, err := p.Add(ctx, "A", nil, mediaInput("A", "a1"))
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	aItems, _ = p.Add(ctx, "A", aItems, mediaInput("A", "a2"))
	if _, err := p.Remove(ctx, "A", aItems, aItems[0].ID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	after, _, _ := b.Get(ctx, p.KeyFor("B"))
	if string(before) != string(after) {
		t.Errorf("partition B changed by writes to A")
	}
	if got := p.LoadByPartition(ctx, "B"); len(got) != 1 || got[0].ID != bItems[0].ID {
		t.Errorf("expected partition B unchanged, got %+v", got)
	}
	if n := p.Count(ctx, "A"); n != 1 {
		t.Errorf("expected 1 item in A, got %d", n)
	}
}

func TestPartitioned_LoadAllIsUnion(t *testing.T) {
	ctx := context.Background()
	p := newMedia(newMemoryBackend(t))

	var a, b []domain.MediaRecord
	a, _ = p.Add(ctx, "A", a, mediaInput("A", "a1"))
	a, _ = p.Add(ctx, "A", a, mediaInput("A", "a2"))
	b, _ = p.Add(ctx, "B", b, mediaInput("B", "b1"))

	all := p.LoadAll(ctx)

	var want []domain.MediaRecord
	ids, _ := p.PartitionIDs(ctx)
	for _, id := range ids {
		want = append(want, p.LoadByPartition(ctx, id)...)
	}
	if !reflect.DeepEqual(all, want) {
		t.Errorf("LoadAll is not the concatenation of partitions:\n%+v\n%+v", all, want)
	}
	if len(all) != len(a)+len(b) {
		t.Errorf("expected %d items, got %d", len(a)+len(b), len(all))
	}
}

func TestPartitioned_IgnoresForeignKeys(t *testing.T) {
	ctx := context.Background()
	b := newMemoryBackend(t)
	p := newMedia(b)

	b.Set(ctx, "wizju_sources", []byte(`[{"id":"x"}]`))
	b.Set(ctx, "wizju_media_items", []byte(`[{"id":"y"}]`)) // no separator
	p.Add(ctx, "A", nil, mediaInput("A", "a1"))

	ids, err := p.PartitionIDs(ctx)
	if err != nil {
		t.Fatalf("PartitionIDs failed: %v", err)
	}
	if !reflect.DeepEqual(ids, []string{"A"}) {
		t.Errorf("expected [A], got %v", ids)
	}
	if all := p.LoadAll(ctx); len(all) != 1 {
		t.Errorf("expected 1 item, got %d", len(all))
	}
}

func TestPartitioned_Clear(t *testing.T) {
	ctx := context.Background()
	b := newMemoryBackend(t)
	p := newMedia(b)
	b.Set(ctx, "wizju_sources", []byte(`[]`))

	for _, id := range []string{"A", "B", "C"} {
		p.Add(ctx, id, nil, mediaInput(id, "x"))
	}

	p.ClearPartition(ctx, "B")
	ids, _ := p.PartitionIDs(ctx)
	sort.Strings(ids)
	if !reflect.DeepEqual(ids, []string{"A", "C"}) {
		t.Errorf("expected [A C] after clearing B, got %v", ids)
	}

	if err := p.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll failed: %v", err)
	}
	if ids, _ := p.PartitionIDs(ctx); len(ids) != 0 {
		t.Errorf("expected no partitions, got %v", ids)
	}
	if _, ok, _ := b.Get(ctx, "wizju_sources"); !ok {
		t.Error("ClearAll removed a key outside the partition prefix")
	}
}

func TestPartitioned_EnumerationFailures(t *testing.T) {
	ctx := context.Background()
	faulty := storetest.NewFaulty(newMemoryBackend(t))
	p := newMedia(faulty)
	p.Add(ctx, "A", nil, mediaInput("A", "a1"))

	faulty.FailKeys(true)

	if all := p.LoadAll(ctx); len(all) != 0 {
		t.Errorf("expected empty result on enumeration failure, got %d", len(all))
	}
	if _, err := p.PartitionIDs(ctx); !errors.Is(err, storetest.ErrInjected) {
		t.Errorf("expected injected error from PartitionIDs, got %v", err)
	}
	if err := p.ClearAll(ctx); !errors.Is(err, storetest.ErrInjected) {
		t.Errorf("expected injected error from ClearAll, got %v", err)
	}
}

func TestPartitioned_SavePartitionAndUsage(t *testing.T) {
	ctx := context.Background()
	p := newMedia(newMemoryBackend(t))

	items := []domain.MediaRecord{
		p.NewRecord("A", mediaInput("A", "a1")),
		p.NewRecord("A", mediaInput("A", "a2")),
	}
	if items[0].ID == items[1].ID {
		t.Fatal("expected distinct generated ids")
	}
	if err := p.SavePartition(ctx, "A", items); err != nil {
		t.Fatalf("SavePartition failed: %v", err)
	}

	size, _ := p.Size(items)
	if usage := p.UsageBytes(ctx, "A"); usage != size {
		t.Errorf("expected usage %d, got %d", size, usage)
	}
	if got, ok := p.GetByID("A", p.LoadByPartition(ctx, "A"), items[1].ID); !ok || got.Title != "a2" {
		t.Errorf("expected to find a2, got %+v ok=%v", got, ok)
	}
}
