package domain

import (
	"fmt"
	"time"
)

// Record is anything stored in a keyed collection.
// ID and DateAdded are assigned once by the store and never change.
type Record interface {
	RecordID() string
	RecordAdded() time.Time
}

// SourceKind identifies the kind of streaming source
type SourceKind string

const (
	SourceKindIPTV SourceKind = "iptv"
	SourceKindM3U  SourceKind = "m3u"
)

// MediaKind distinguishes content types
type MediaKind string

const (
	MediaKindLive   MediaKind = "live"
	MediaKindVOD    MediaKind = "vod"
	MediaKindSeries MediaKind = "series"
)

// Source is a registered IPTV or M3U playlist
type Source struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	URL        string     `json:"url"`
	Type       SourceKind `json:"type"`
	IsActive   bool       `json:"isActive"`
	Categories []string   `json:"categories"`
	DateAdded  time.Time  `json:"dateAdded"`
}

func (s Source) RecordID() string       { return s.ID }
func (s Source) RecordAdded() time.Time { return s.DateAdded }

// SourceInput is the creation shape of a Source
type SourceInput struct {
	Name       string     `json:"name"`
	URL        string     `json:"url"`
	Type       SourceKind `json:"type"`
	IsActive   bool       `json:"isActive"`
	Categories []string   `json:"categories"`
}

// NewSource builds a Source from its creation input
func NewSource(id string, added time.Time, in SourceInput) Source {
	categories := in.Categories
	if categories == nil {
		categories = []string{}
	}
	return Source{
		ID:         id,
		Name:       in.Name,
		URL:        in.URL,
		Type:       in.Type,
		IsActive:   in.IsActive,
		Categories: categories,
		DateAdded:  added,
	}
}

// MediaRecord is a playable item parsed from a source (channel, film or series)
type MediaRecord struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	Thumbnail     string    `json:"thumbnail,omitempty"`
	Duration      string    `json:"duration,omitempty"`
	Category      string    `json:"category"`
	URL           string    `json:"url"`
	Type          MediaKind `json:"type"`
	Genre         string    `json:"genre,omitempty"`
	Year          int       `json:"year,omitempty"`
	Rating        float64   `json:"rating,omitempty"`
	TimeRemaining string    `json:"timeRemaining,omitempty"`
	TvgName       string    `json:"tvgName,omitempty"`
	GroupTitle    string    `json:"groupTitle,omitempty"`
	SourceID      string    `json:"sourceId"`
	DateAdded     time.Time `json:"dateAdded"`
}

func (m MediaRecord) RecordID() string       { return m.ID }
func (m MediaRecord) RecordAdded() time.Time { return m.DateAdded }

// Subtitle returns secondary info for display (e.g., "2024 • Drama")
func (m MediaRecord) Subtitle() string {
	switch {
	case m.Year > 0 && m.Genre != "":
		return fmt.Sprintf("%d • %s", m.Year, m.Genre)
	case m.Year > 0:
		return fmt.Sprintf("%d", m.Year)
	case m.Genre != "":
		return m.Genre
	default:
		return m.Category
	}
}

// MediaInput is the creation shape of a MediaRecord
type MediaInput struct {
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	Thumbnail     string    `json:"thumbnail,omitempty"`
	Duration      string    `json:"duration,omitempty"`
	Category      string    `json:"category"`
	URL           string    `json:"url"`
	Type          MediaKind `json:"type"`
	Genre         string    `json:"genre,omitempty"`
	Year          int       `json:"year,omitempty"`
	Rating        float64   `json:"rating,omitempty"`
	TimeRemaining string    `json:"timeRemaining,omitempty"`
	TvgName       string    `json:"tvgName,omitempty"`
	GroupTitle    string    `json:"groupTitle,omitempty"`
	SourceID      string    `json:"sourceId"`
}

// NewMediaRecord builds a MediaRecord from its creation input
func NewMediaRecord(id string, added time.Time, in MediaInput) MediaRecord {
	return MediaRecord{
		ID:            id,
		Title:         in.Title,
		Description:   in.Description,
		Thumbnail:     in.Thumbnail,
		Duration:      in.Duration,
		Category:      in.Category,
		URL:           in.URL,
		Type:          in.Type,
		Genre:         in.Genre,
		Year:          in.Year,
		Rating:        in.Rating,
		TimeRemaining: in.TimeRemaining,
		TvgName:       in.TvgName,
		GroupTitle:    in.GroupTitle,
		SourceID:      in.SourceID,
		DateAdded:     added,
	}
}

// Favorite is a media record pinned by the user
type Favorite struct {
	ID        string      `json:"id"`
	Media     MediaRecord `json:"mediaItem"`
	SourceID  string      `json:"sourceId"`
	DateAdded time.Time   `json:"dateAdded"`
}

func (f Favorite) RecordID() string       { return f.ID }
func (f Favorite) RecordAdded() time.Time { return f.DateAdded }

// FavoriteInput is the creation shape of a Favorite
type FavoriteInput struct {
	Media    MediaRecord
	SourceID string
}

// NewFavorite builds a Favorite from its creation input
func NewFavorite(id string, added time.Time, in FavoriteInput) Favorite {
	return Favorite{ID: id, Media: in.Media, SourceID: in.SourceID, DateAdded: added}
}

// RecentItem tracks a recently watched media record
type RecentItem struct {
	ID           string      `json:"id"`
	Media        MediaRecord `json:"mediaItem"`
	SourceID     string      `json:"sourceId"`
	DateAdded    time.Time   `json:"dateAdded"`
	WatchedAt    time.Time   `json:"watchedAt"`
	LastPosition *float64    `json:"lastPosition,omitempty"` // seconds
}

func (r RecentItem) RecordID() string       { return r.ID }
func (r RecentItem) RecordAdded() time.Time { return r.DateAdded }

// RecentInput is the creation shape of a RecentItem
type RecentInput struct {
	Media        MediaRecord
	SourceID     string
	LastPosition *float64
}

// NewRecentItem builds a RecentItem; WatchedAt starts at the creation time
func NewRecentItem(id string, added time.Time, in RecentInput) RecentItem {
	return RecentItem{
		ID:           id,
		Media:        in.Media,
		SourceID:     in.SourceID,
		DateAdded:    added,
		WatchedAt:    added,
		LastPosition: in.LastPosition,
	}
}
