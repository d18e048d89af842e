package navigation

import (
	"errors"
	"testing"

	"github.com/mmcdole/wizju/internal/domain"
)

type fakeSources map[string]domain.Source

func (f fakeSources) GetByID(id string) (domain.Source, bool) {
	s, ok := f[id]
	return s, ok
}

func (f fakeSources) Sources() []domain.Source {
	out := []domain.Source{}
	for _, s := range f {
		out = append(out, s)
	}
	return out
}

type fakeMedia map[string][]domain.MediaRecord

func (f fakeMedia) GetByID(sourceID, id string) (domain.MediaRecord, bool) {
	for _, m := range f[sourceID] {
		if m.ID == id {
			return m, true
		}
	}
	return domain.MediaRecord{}, false
}

func (f fakeMedia) BySource(sourceID string) []domain.MediaRecord { return f[sourceID] }

func fixtures() (fakeSources, fakeMedia) {
	srcs := fakeSources{
		"s1": {ID: "s1", Name: "One", IsActive: true},
		"s2": {ID: "s2", Name: "Two", IsActive: false},
	}
	media := fakeMedia{
		"s1": {{ID: "m1", Title: "Channel", SourceID: "s1"}},
	}
	return srcs, media
}

func TestNavigator_History(t *testing.T) {
	srcs, media := fixtures()
	n := New(srcs, media)

	if n.Current() != ViewHome || n.CanGoBack() {
		t.Fatal("expected to start at home with no history")
	}

	n.Live("s1")
	n.Films()
	n.Go(ViewFilms) // same view, no new entry

	if !n.Back() || n.Current() != ViewLive {
		t.Fatalf("expected back to Live, got %v", n.Current())
	}
	if !n.Forward() || n.Current() != ViewFilms {
		t.Fatalf("expected forward to Films, got %v", n.Current())
	}

	n.Back()
	n.Series()
	if n.CanGoForward() {
		t.Error("expected forward history discarded after a new navigation")
	}

	n.Replace(ViewNotFound)
	n.Back()
	if n.Current() != ViewLive {
		t.Errorf("expected Replace not to add history, at %v", n.Current())
	}
	n.Back()
	if n.Back() {
		t.Error("expected no history before home")
	}
}

func TestNavigator_SelectionRules(t *testing.T) {
	srcs, media := fixtures()
	n := New(srcs, media)

	n.MediaDetail(media["s1"][0], "s1")
	if n.Current() != ViewMediaDetail {
		t.Fatalf("expected MediaDetail, got %v", n.Current())
	}
	if item, ok := n.CurrentMediaItem(); !ok || item.ID != "m1" {
		t.Fatalf("expected m1 selected, got %+v", item)
	}

	n.SetCurrentSource("s2")
	if _, ok := n.CurrentMediaItem(); ok {
		t.Error("expected changing source to clear the media item")
	}

	n.SetCurrentSource("s1")
	if !n.SetCurrentMediaItemByID("m1") {
		t.Error("expected to select m1 by id")
	}
	if n.SetCurrentMediaItemByID("missing") {
		t.Error("expected unknown id to fail")
	}
	if len(n.CurrentSourceItems()) != 1 {
		t.Error("expected current source items")
	}

	n.ClearCurrent()
	if n.HasValidCurrentSource() || len(n.CurrentSourceItems()) != 0 {
		t.Error("expected selection cleared")
	}
	if err := n.ValidateCurrentMediaItem(); !errors.Is(err, ErrNoMediaItem) {
		t.Errorf("expected ErrNoMediaItem, got %v", err)
	}
}

func TestNavigator_ValidateCurrentSource(t *testing.T) {
	srcs, media := fixtures()
	n := New(srcs, media)

	tests := []struct {
		source string
		want   error
	}{
		{"", ErrNoSource},
		{"gone", domain.ErrSourceNotFound},
		{"s2", ErrSourceInactive},
		{"s1", nil},
	}
	for _, tt := range tests {
		n.SetCurrentSource(tt.source)
		if err := n.ValidateCurrentSource(); !errors.Is(err, tt.want) {
			t.Errorf("source %q: expected %v, got %v", tt.source, tt.want, err)
		}
	}
}

func TestNavigator_AfterSourceDeletion(t *testing.T) {
	srcs, media := fixtures()
	n := New(srcs, media)

	n.Live("s1")
	n.Films()
	delete(srcs, "s1")
	n.AfterSourceDeletion()
	if n.Current() != ViewLive {
		t.Errorf("expected Live while sources remain, got %v", n.Current())
	}
	if n.CurrentSourceID() != "" {
		t.Error("expected deleted source deselected")
	}

	delete(srcs, "s2")
	n.AfterSourceDeletion()
	if n.Current() != ViewHome {
		t.Errorf("expected Home with no sources, got %v", n.Current())
	}
}

func TestView_Kind(t *testing.T) {
	if k, ok := ViewFilms.Kind(); !ok || k != domain.MediaKindVOD {
		t.Errorf("expected vod for Films, got %q", k)
	}
	if _, ok := ViewHome.Kind(); ok {
		t.Error("expected no kind for Home")
	}
}

func TestParseView(t *testing.T) {
	tests := []struct {
		name    string
		want    View
		wantErr bool
	}{
		{"", ViewHome, false},
		{"home", ViewHome, false},
		{"Live", ViewLive, false},
		{"films", ViewFilms, false},
		{"vod", ViewFilms, false},
		{" series ", ViewSeries, false},
		{"grid", ViewHome, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseView(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseView(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseView(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}
