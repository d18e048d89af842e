package tui

import (
	"github.com/mmcdole/wizju/internal/domain"
)

// Message types for the TUI

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// LibraryLoadedMsg signals that sources and media were read from storage
type LibraryLoadedMsg struct{}

// SourceRefreshedMsg signals that a source's playlist was re-read
type SourceRefreshedMsg struct {
	SourceID string
	Items    int
}

// SourceToggledMsg signals that a source was enabled or disabled
type SourceToggledMsg struct {
	SourceID string
}

// SourceRemovedMsg signals that a source and everything tied to it is gone
type SourceRemovedMsg struct {
	SourceID string
}

// PlaybackStartedMsg signals that the player was launched
type PlaybackStartedMsg struct {
	Item domain.MediaRecord
}

// FavoriteToggledMsg reports the new pinned state of an item
type FavoriteToggledMsg struct {
	Item   domain.MediaRecord
	Pinned bool
}

// TickMsg drives the spinner
type TickMsg struct{}

// ClearStatusMsg clears the footer status line
type ClearStatusMsg struct{}
