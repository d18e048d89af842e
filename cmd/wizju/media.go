package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mmcdole/wizju/internal/domain"
	"github.com/mmcdole/wizju/internal/search"
)

func kindFlag(cmd *cobra.Command) (domain.MediaKind, error) {
	raw, _ := cmd.Flags().GetString("kind")
	if raw == "" {
		return "", nil
	}
	return domain.ParseMediaKind(raw)
}

func newItemsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "items [source]",
		Short: "List stored media, of one source or of all",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := kindFlag(cmd)
			if err != nil {
				return err
			}
			category, _ := cmd.Flags().GetString("category")
			limit, _ := cmd.Flags().GetInt("limit")

			return withApp(cmd, func(ctx context.Context, a *app) error {
				sourceID := ""
				if len(args) == 1 {
					src, err := resolveSource(a.lib.Sources.Sources(), args[0])
					if err != nil {
						return err
					}
					sourceID = src.ID
				}

				items := a.lib.Items(sourceID, kind)
				if category != "" {
					filtered := items[:0:0]
					for _, m := range items {
						if m.Category == category {
							filtered = append(filtered, m)
						}
					}
					items = filtered
				}
				if limit > 0 && len(items) > limit {
					items = items[:limit]
				}
				return newPrinter(cmd).media(items, "", nil)
			})
		},
	}
	cmd.Flags().String("kind", "", "only this kind: live, vod or series")
	cmd.Flags().String("category", "", "only this category")
	cmd.Flags().Int("limit", 0, "show at most this many items")
	return cmd
}

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search stored media by title, fuzzy by default",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exact, _ := cmd.Flags().GetBool("substring")
			kind, err := kindFlag(cmd)
			if err != nil {
				return err
			}
			limit, _ := cmd.Flags().GetInt("limit")

			return withApp(cmd, func(ctx context.Context, a *app) error {
				sourceID, err := sourceFlagValue(cmd, a)
				if err != nil {
					return err
				}

				var (
					items  []domain.MediaRecord
					scores = map[string]int{}
				)
				if exact {
					items = a.lib.Media.Search(args[0], sourceID)
				} else {
					results := search.Rank(args[0], a.lib.Items(sourceID, ""))
					for _, r := range results {
						scores[r.Record.SourceID+"/"+r.Record.ID] = r.Score
					}
					items = search.Records(results)
				}

				if kind != "" {
					filtered := items[:0:0]
					for _, m := range items {
						if m.Type == kind {
							filtered = append(filtered, m)
						}
					}
					items = filtered
				}
				if limit > 0 && len(items) > limit {
					items = items[:limit]
				}

				if exact {
					return newPrinter(cmd).media(items, "", nil)
				}
				return newPrinter(cmd).media(items, "SCORE", func(m domain.MediaRecord) string {
					return strconv.Itoa(scores[m.SourceID+"/"+m.ID])
				})
			})
		},
	}
	cmd.Flags().String("source", "", "only search this source")
	cmd.Flags().String("kind", "", "only this kind: live, vod or series")
	cmd.Flags().Bool("substring", false, "case-insensitive substring match over title, description, category and genre")
	cmd.Flags().Int("limit", 20, "show at most this many results (0 for all)")
	return cmd
}

func newPlayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play <source> <item>",
		Short: "Open an item in the media player and record the watch",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fromStart, _ := cmd.Flags().GetBool("from-start")
			return withApp(cmd, func(ctx context.Context, a *app) error {
				src, err := resolveSource(a.lib.Sources.Sources(), args[0])
				if err != nil {
					return err
				}
				if !src.IsActive {
					return fmt.Errorf("source %s is disabled", src.Name)
				}
				item, err := resolveItem(a.lib.Media.BySource(src.ID), args[1])
				if err != nil {
					return err
				}
				played, err := a.lib.Play(ctx, src.ID, item.ID, !fromStart)
				if err != nil {
					return err
				}
				newPrinter(cmd).line("Playing %s", played.Title)
				return nil
			})
		},
	}
	cmd.Flags().Bool("from-start", false, "ignore the stored position")
	return cmd
}

func newPositionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "position <source> <item> <seconds>",
		Short: "Store the playback position of a watched item",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			seconds, err := strconv.ParseFloat(args[2], 64)
			if err != nil || seconds < 0 {
				return fmt.Errorf("invalid position %q", args[2])
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				src, err := resolveSource(a.lib.Sources.Sources(), args[0])
				if err != nil {
					return err
				}
				item, err := resolveItem(a.lib.Media.BySource(src.ID), args[1])
				if err != nil {
					return err
				}
				entry, ok := a.lib.Recent.Find(ctx, item.ID, src.ID)
				if !ok {
					return fmt.Errorf("%s has not been watched", item.Title)
				}
				if err := a.lib.Recent.UpdatePosition(ctx, entry.ID, seconds); err != nil {
					return err
				}
				newPrinter(cmd).line("Saved position of %s", item.Title)
				return nil
			})
		},
	}
}
