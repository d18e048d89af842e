package library

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mmcdole/wizju/internal/domain"
)

// ImportResult describes a freshly imported source.
type ImportResult struct {
	Source domain.Source
	Items  int
}

// ImportSource fetches the playlist of in, registers the source with the
// playlist's categories and stores its media. If the media cannot be
// stored the source is removed again.
func (s *Service) ImportSource(ctx context.Context, in domain.SourceInput) (ImportResult, error) {
	if err := domain.ValidateSourceInput(in); err != nil {
		return ImportResult{}, err
	}

	loaded, err := s.loader.Load(ctx, in.URL, "")
	if err != nil {
		s.logger.Error("failed to load playlist", "url", in.URL, "error", err)
		return ImportResult{}, err
	}

	src, err := s.Sources.AddWithCategories(ctx, in, loaded.Categories)
	if err != nil {
		return ImportResult{}, err
	}

	items, err := s.Media.AddBatch(ctx, src.ID, loaded.Items)
	if err != nil {
		s.logger.Error("failed to store media, rolling back source", "sourceID", src.ID, "error", err)
		if rbErr := s.Sources.Remove(ctx, src.ID); rbErr != nil {
			return ImportResult{}, errors.Join(err, fmt.Errorf("roll back source %s: %w", src.ID, rbErr))
		}
		return ImportResult{}, err
	}

	s.logger.Info("imported source", "sourceID", src.ID, "name", src.Name, "items", len(items))
	return ImportResult{Source: src, Items: len(items)}, nil
}

// RefreshSource re-reads a source's playlist and replaces its media.
func (s *Service) RefreshSource(ctx context.Context, id string) (int, error) {
	src, ok := s.Sources.GetByID(id)
	if !ok {
		return 0, fmt.Errorf("%w: %s", domain.ErrSourceNotFound, id)
	}

	loaded, err := s.loader.Load(ctx, src.URL, src.ID)
	if err != nil {
		s.logger.Error("failed to refresh playlist", "sourceID", id, "error", err)
		return 0, err
	}

	items, err := s.Media.ReplacePartition(ctx, src.ID, loaded.Items)
	if err != nil {
		return 0, err
	}
	if err := s.Sources.UpdateCategories(ctx, src.ID, loaded.Categories); err != nil {
		return len(items), err
	}

	s.logger.Info("refreshed source", "sourceID", id, "items", len(items))
	return len(items), nil
}

// RemoveSource deletes a source with its media, watch history and favourites.
func (s *Service) RemoveSource(ctx context.Context, id string) error {
	if _, ok := s.Sources.GetByID(id); !ok {
		return fmt.Errorf("%w: %s", domain.ErrSourceNotFound, id)
	}
	if err := s.Sources.Remove(ctx, id); err != nil {
		return err
	}

	s.Media.ClearPartition(ctx, id)

	var errs []error
	if err := s.Recent.RemoveBySource(ctx, id); err != nil {
		errs = append(errs, fmt.Errorf("remove recent entries: %w", err))
	}
	if err := s.Favorites.RemoveBySource(ctx, id); err != nil {
		errs = append(errs, fmt.Errorf("remove favorites: %w", err))
	}
	if err := errors.Join(errs...); err != nil {
		s.logger.Error("source removed with leftovers", "sourceID", id, "error", err)
		return err
	}

	s.logger.Info("removed source", "sourceID", id)
	return nil
}

// Play launches a media record and records the watch. With resume set,
// playback starts from the last stored position.
func (s *Service) Play(ctx context.Context, sourceID, itemID string, resume bool) (domain.MediaRecord, error) {
	item, ok := s.Media.GetByID(sourceID, itemID)
	if !ok {
		return domain.MediaRecord{}, fmt.Errorf("%w: %s", domain.ErrItemNotFound, itemID)
	}

	var (
		offset   time.Duration
		position *float64
	)
	if prev, found := s.Recent.Find(ctx, itemID, sourceID); found && prev.LastPosition != nil {
		position = prev.LastPosition
		if resume {
			offset = time.Duration(*prev.LastPosition * float64(time.Second))
		}
	}

	if err := s.player.Launch(item.URL, offset); err != nil {
		s.logger.Error("failed to launch player", "itemID", itemID, "error", err)
		return domain.MediaRecord{}, fmt.Errorf("launch player: %w", err)
	}

	if _, err := s.Recent.Record(ctx, domain.RecentInput{Media: item, SourceID: sourceID, LastPosition: position}); err != nil {
		s.logger.Warn("failed to record watch", "itemID", itemID, "error", err)
	}
	return item, nil
}

// ClearAll wipes every source, media partition, favourite and watch entry.
func (s *Service) ClearAll(ctx context.Context) error {
	s.Sources.ClearAll(ctx)
	s.Favorites.Clear(ctx)
	s.Recent.Clear(ctx)
	return s.Media.ClearAll(ctx)
}
