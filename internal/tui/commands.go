package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/wizju/internal/domain"
	"github.com/mmcdole/wizju/internal/library"
)

// Command factories for async operations

// LoadLibraryCmd reads sources and media from storage
func LoadLibraryCmd(svc *library.Service) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		svc.Load(ctx)
		return LibraryLoadedMsg{}
	}
}

// RefreshSourceCmd re-reads a source's playlist
func RefreshSourceCmd(svc *library.Service, sourceID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second) // large playlists
		defer cancel()

		n, err := svc.RefreshSource(ctx, sourceID)
		if err != nil {
			return ErrMsg{Err: err, Context: "refreshing source"}
		}
		return SourceRefreshedMsg{SourceID: sourceID, Items: n}
	}
}

// ToggleSourceCmd flips a source between active and inactive
func ToggleSourceCmd(svc *library.Service, sourceID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := svc.Sources.ToggleActive(ctx, sourceID); err != nil {
			return ErrMsg{Err: err, Context: "toggling source"}
		}
		return SourceToggledMsg{SourceID: sourceID}
	}
}

// RemoveSourceCmd deletes a source and its media, favourites and history
func RemoveSourceCmd(svc *library.Service, sourceID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := svc.RemoveSource(ctx, sourceID); err != nil {
			return ErrMsg{Err: err, Context: "removing source"}
		}
		return SourceRemovedMsg{SourceID: sourceID}
	}
}

// PlayCmd launches the player for an item
func PlayCmd(svc *library.Service, item domain.MediaRecord, resume bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		played, err := svc.Play(ctx, item.SourceID, item.ID, resume)
		if err != nil {
			return ErrMsg{Err: err, Context: "starting playback"}
		}
		return PlaybackStartedMsg{Item: played}
	}
}

// ToggleFavoriteCmd pins or unpins an item
func ToggleFavoriteCmd(svc *library.Service, item domain.MediaRecord) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		pinned, err := svc.Favorites.Toggle(ctx, item, item.SourceID)
		if err != nil {
			return ErrMsg{Err: err, Context: "updating favorites"}
		}
		return FavoriteToggledMsg{Item: item, Pinned: pinned}
	}
}

// TickCmd schedules the next spinner frame
func TickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}

// ClearStatusCmd clears the status line after d
func ClearStatusCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}
