package domain

import "io"

// PlaylistEntry is one channel line parsed from a playlist
type PlaylistEntry struct {
	Name    string
	Group   string // group-title
	URL     string
	Logo    string // tvg-logo
	TvgName string
	TvgID   string
}

// PlaylistParser turns playlist text into structured entries.
type PlaylistParser interface {
	Parse(r io.Reader) ([]PlaylistEntry, error)
}
