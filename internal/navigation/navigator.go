// Package navigation tracks which view is shown, the browse history and the
// currently selected source and media record.
package navigation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mmcdole/wizju/internal/domain"
)

// View identifies a screen.
type View int

const (
	ViewHome View = iota
	ViewLive
	ViewFilms
	ViewSeries
	ViewMediaDetail
	ViewNotFound
)

func (v View) String() string {
	switch v {
	case ViewHome:
		return "Home"
	case ViewLive:
		return "Live"
	case ViewFilms:
		return "Films"
	case ViewSeries:
		return "Series"
	case ViewMediaDetail:
		return "MediaDetail"
	default:
		return "NotFound"
	}
}

// ParseView maps a configured view name (home, live, films, series) to a View.
func ParseView(name string) (View, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "home":
		return ViewHome, nil
	case "live":
		return ViewLive, nil
	case "films", "vod":
		return ViewFilms, nil
	case "series":
		return ViewSeries, nil
	default:
		return ViewHome, fmt.Errorf("unknown view %q", name)
	}
}

// Kind returns the media kind browsed by v, if any.
func (v View) Kind() (domain.MediaKind, bool) {
	switch v {
	case ViewLive:
		return domain.MediaKindLive, true
	case ViewFilms:
		return domain.MediaKindVOD, true
	case ViewSeries:
		return domain.MediaKindSeries, true
	default:
		return "", false
	}
}

var (
	ErrNoSource       = errors.New("no source selected")
	ErrSourceInactive = errors.New("selected source is not active")
	ErrNoMediaItem    = errors.New("no media item selected")
)

// SourceCatalog is the read side of the source registry.
type SourceCatalog interface {
	GetByID(id string) (domain.Source, bool)
	Sources() []domain.Source
}

// MediaCatalog is the read side of the media registry.
type MediaCatalog interface {
	GetByID(sourceID, id string) (domain.MediaRecord, bool)
	BySource(sourceID string) []domain.MediaRecord
}

// Navigator is owned by a single UI loop and is not safe for concurrent use.
type Navigator struct {
	sources SourceCatalog
	media   MediaCatalog

	history []View
	pos     int

	sourceID string
	item     *domain.MediaRecord
}

func New(sources SourceCatalog, media MediaCatalog) *Navigator {
	return &Navigator{
		sources: sources,
		media:   media,
		history: []View{ViewHome},
	}
}

// Current returns the view on screen.
func (n *Navigator) Current() View { return n.history[n.pos] }

// Go pushes v, discarding any forward history.
func (n *Navigator) Go(v View) {
	if v == n.Current() {
		return
	}
	n.history = append(n.history[:n.pos+1], v)
	n.pos++
}

// Replace swaps the current view without adding a history entry.
func (n *Navigator) Replace(v View) { n.history[n.pos] = v }

func (n *Navigator) Home()     { n.Go(ViewHome) }
func (n *Navigator) Films()    { n.Go(ViewFilms) }
func (n *Navigator) Series()   { n.Go(ViewSeries) }
func (n *Navigator) NotFound() { n.Go(ViewNotFound) }

// Live shows the live view, selecting sourceID first when it is not empty.
func (n *Navigator) Live(sourceID string) {
	if sourceID != "" {
		n.SetCurrentSource(sourceID)
	}
	n.Go(ViewLive)
}

// MediaDetail shows item, selecting sourceID first when it is not empty.
func (n *Navigator) MediaDetail(item domain.MediaRecord, sourceID string) {
	if sourceID != "" {
		n.SetCurrentSource(sourceID)
	}
	n.SetCurrentMediaItem(&item)
	n.Go(ViewMediaDetail)
}

func (n *Navigator) CanGoBack() bool    { return n.pos > 0 }
func (n *Navigator) CanGoForward() bool { return n.pos < len(n.history)-1 }

func (n *Navigator) Back() bool {
	if !n.CanGoBack() {
		return false
	}
	n.pos--
	return true
}

func (n *Navigator) Forward() bool {
	if !n.CanGoForward() {
		return false
	}
	n.pos++
	return true
}

// AfterSourceDeletion goes home when no source is left, otherwise to the
// live view so another source can be picked.
func (n *Navigator) AfterSourceDeletion() {
	if _, ok := n.CurrentSource(); !ok {
		n.sourceID = ""
		n.item = nil
	}
	if len(n.sources.Sources()) == 0 {
		n.Home()
		return
	}
	n.Live("")
}

// SetCurrentSource selects a source and clears the selected media record.
func (n *Navigator) SetCurrentSource(id string) {
	n.sourceID = id
	n.item = nil
}

func (n *Navigator) CurrentSourceID() string { return n.sourceID }

func (n *Navigator) CurrentSource() (domain.Source, bool) {
	if n.sourceID == "" {
		return domain.Source{}, false
	}
	return n.sources.GetByID(n.sourceID)
}

// CurrentSourceItems returns the media of the selected source.
func (n *Navigator) CurrentSourceItems() []domain.MediaRecord {
	if n.sourceID == "" {
		return []domain.MediaRecord{}
	}
	return n.media.BySource(n.sourceID)
}

func (n *Navigator) HasValidCurrentSource() bool {
	_, ok := n.CurrentSource()
	return ok
}

// ValidateCurrentSource explains why the selected source cannot be browsed.
func (n *Navigator) ValidateCurrentSource() error {
	if n.sourceID == "" {
		return ErrNoSource
	}
	src, ok := n.sources.GetByID(n.sourceID)
	if !ok {
		return domain.ErrSourceNotFound
	}
	if !src.IsActive {
		return ErrSourceInactive
	}
	return nil
}

// SetCurrentMediaItem selects item; nil clears the selection.
func (n *Navigator) SetCurrentMediaItem(item *domain.MediaRecord) {
	if item == nil {
		n.item = nil
		return
	}
	cp := *item
	n.item = &cp
}

// SetCurrentMediaItemByID selects a record of the current source.
func (n *Navigator) SetCurrentMediaItemByID(id string) bool {
	if n.sourceID == "" {
		return false
	}
	item, ok := n.media.GetByID(n.sourceID, id)
	if !ok {
		return false
	}
	n.SetCurrentMediaItem(&item)
	return true
}

func (n *Navigator) CurrentMediaItem() (domain.MediaRecord, bool) {
	if n.item == nil {
		return domain.MediaRecord{}, false
	}
	return *n.item, true
}

func (n *Navigator) ValidateCurrentMediaItem() error {
	if n.item == nil {
		return ErrNoMediaItem
	}
	return nil
}

// ClearCurrent drops both selections.
func (n *Navigator) ClearCurrent() {
	n.sourceID = ""
	n.item = nil
}
