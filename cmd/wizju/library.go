package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mmcdole/wizju/internal/domain"
)

func newFavoritesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "favorites",
		Aliases: []string{"fav"},
		Short:   "Manage pinned items",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List favorites, newest first",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(cmd, func(ctx context.Context, a *app) error {
					favs := a.lib.Favorites.List(ctx)
					p := newPrinter(cmd)
					if p.isJSON() {
						return p.json(favs)
					}
					added := make(map[string]string, len(favs))
					for _, f := range favs {
						added[f.SourceID+"/"+f.Media.ID] = humanize.Time(f.DateAdded)
					}
					if err := p.media(a.lib.Favorites.MediaItems(ctx), "PINNED", func(m domain.MediaRecord) string {
						return added[m.SourceID+"/"+m.ID]
					}); err != nil {
						return err
					}
					p.line("%d of %d slots used", len(favs), a.lib.Favorites.Max())
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "toggle <source> <item>",
			Short: "Pin or unpin an item",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(cmd, func(ctx context.Context, a *app) error {
					src, err := resolveSource(a.lib.Sources.Sources(), args[0])
					if err != nil {
						return err
					}
					item, err := resolveItem(a.lib.Media.BySource(src.ID), args[1])
					if err != nil {
						return err
					}
					pinned, err := a.lib.Favorites.Toggle(ctx, item, src.ID)
					if err != nil {
						return err
					}
					if pinned {
						newPrinter(cmd).line("★ Pinned %s", item.Title)
					} else {
						newPrinter(cmd).line("Unpinned %s", item.Title)
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove every favorite",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(cmd, func(ctx context.Context, a *app) error {
					a.lib.Favorites.Clear(ctx)
					newPrinter(cmd).line("Favorites cleared")
					return nil
				})
			},
		},
	)
	return cmd
}

func newRecentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Show or clear the watch history",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List recently watched items, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := kindFlag(cmd)
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				p := newPrinter(cmd)
				entries := a.lib.Recent.List(ctx)
				if p.isJSON() {
					return p.json(entries)
				}
				var items []domain.MediaRecord
				if kind != "" {
					items = a.lib.Recent.ByKind(ctx, kind)
				} else {
					items = a.lib.Recent.Display(entries)
				}
				return p.media(items, "WATCHED", func(m domain.MediaRecord) string {
					if m.TimeRemaining != "" {
						return m.Description + " · " + m.TimeRemaining
					}
					return m.Description
				})
			})
		},
	}
	list.Flags().String("kind", "", "only this kind: live, vod or series")

	cmd.AddCommand(
		list,
		newPositionCmd(),
		&cobra.Command{
			Use:   "clear",
			Short: "Forget the watch history",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(cmd, func(ctx context.Context, a *app) error {
					a.lib.Recent.Clear(ctx)
					newPrinter(cmd).line("Watch history cleared")
					return nil
				})
			},
		},
	)
	return cmd
}

func newUsageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "usage",
		Short: "Show how much storage each collection uses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				u := a.lib.Usage(ctx)
				p := newPrinter(cmd)
				if p.isJSON() {
					return p.json(u)
				}

				size := func(n int) string { return humanize.IBytes(uint64(n)) }
				pct := func(n int) string {
					if u.Limit <= 0 {
						return "-"
					}
					return strconv.FormatFloat(float64(n)*100/float64(u.Limit), 'f', 1, 64) + "%"
				}

				rows := [][]string{
					{"sources", size(u.Sources), pct(u.Sources)},
					{"favorites", size(u.Favorites), pct(u.Favorites)},
					{"recent", size(u.Recent), pct(u.Recent)},
				}
				ids := make([]string, 0, len(u.Media))
				for id := range u.Media {
					ids = append(ids, id)
				}
				sort.Strings(ids)
				for _, id := range ids {
					name := id
					if src, ok := a.lib.Sources.GetByID(id); ok {
						name = src.Name
					}
					rows = append(rows, []string{"media: " + name, size(u.Media[id]), pct(u.Media[id])})
				}
				p.table([]string{"COLLECTION", "SIZE", "OF LIMIT"}, rows)
				p.line("total %s, limit %s per collection", size(u.Total()), size(u.Limit))
				return nil
			})
		},
	}
}

func newClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear-all",
		Short: "Delete every source, media item, favorite and history entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			yes, _ := cmd.Flags().GetBool("yes")
			if !yes {
				return errors.New("refusing to clear without --yes")
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.lib.ClearAll(ctx); err != nil {
					return fmt.Errorf("clear media: %w", err)
				}
				newPrinter(cmd).line("All data cleared")
				return nil
			})
		},
	}
	cmd.Flags().Bool("yes", false, "confirm deletion")
	return cmd
}
