package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmcdole/wizju/internal/domain"
	"github.com/mmcdole/wizju/internal/library"
	"github.com/mmcdole/wizju/internal/search"
)

func newSourceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "source",
		Aliases: []string{"sources"},
		Short:   "Manage playlist sources",
	}
	cmd.AddCommand(
		newSourceListCmd(),
		newSourceAddCmd(),
		newSourceRemoveCmd(),
		newSourceToggleCmd(),
		newSourceCategoriesCmd(),
	)
	return cmd
}

func newSourceListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				active, _ := cmd.Flags().GetBool("active")
				srcs := a.lib.Sources.Sources()
				if active {
					srcs = a.lib.Sources.Active()
				}
				return newPrinter(cmd).sources(srcs, a.lib.Media.Count)
			})
		},
	}
	cmd.Flags().Bool("active", false, "only list enabled sources")
	return cmd
}

func sourceInputFromFlags(cmd *cobra.Command, name, url string) (domain.SourceInput, error) {
	kind, _ := cmd.Flags().GetString("type")
	inactive, _ := cmd.Flags().GetBool("inactive")

	in := domain.SourceInput{
		Name:       name,
		URL:        url,
		Type:       domain.SourceKind(strings.ToLower(kind)),
		IsActive:   !inactive,
		Categories: []string{},
	}
	return in, domain.ValidateSourceInput(in)
}

func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().String("type", string(domain.SourceKindM3U), "source type: m3u or iptv")
	cmd.Flags().Bool("inactive", false, "register the source disabled")
}

func newSourceAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <name> <url>",
		Short: "Register a source without downloading its playlist",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := sourceInputFromFlags(cmd, args[0], args[1])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				src, err := a.lib.Sources.Add(ctx, in)
				if err != nil {
					return err
				}
				p := newPrinter(cmd)
				if p.isJSON() {
					return p.json(src)
				}
				p.line("Added source %s (%s)", src.Name, src.ID)
				return nil
			})
		},
	}
	addSourceFlags(cmd)
	return cmd
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <name> <url>",
		Short: "Register a source and store the media of its playlist",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := sourceInputFromFlags(cmd, args[0], args[1])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				res, err := withSpinner(cmd.ErrOrStderr(), "Importing "+in.Name+"...", func() (library.ImportResult, error) {
					return a.lib.ImportSource(ctx, in)
				})
				if err != nil {
					return err
				}
				p := newPrinter(cmd)
				if p.isJSON() {
					return p.json(res)
				}
				p.line("✓ Imported %s: %d items in %d categories (%s)",
					res.Source.Name, res.Items, len(res.Source.Categories), res.Source.ID)
				return nil
			})
		},
	}
	addSourceFlags(cmd)
	return cmd
}

func newRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh <source>",
		Short: "Download a source's playlist again and replace its media",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				src, err := resolveSource(a.lib.Sources.Sources(), args[0])
				if err != nil {
					return err
				}
				n, err := withSpinner(cmd.ErrOrStderr(), "Refreshing "+src.Name+"...", func() (int, error) {
					return a.lib.RefreshSource(ctx, src.ID)
				})
				if err != nil {
					return err
				}
				newPrinter(cmd).line("✓ Refreshed %s: %d items", src.Name, n)
				return nil
			})
		},
	}
}

func newSourceRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <source>",
		Aliases: []string{"rm"},
		Short:   "Delete a source with its media, favorites and history",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				src, err := resolveSource(a.lib.Sources.Sources(), args[0])
				if err != nil {
					return err
				}
				if err := a.lib.RemoveSource(ctx, src.ID); err != nil {
					return err
				}
				newPrinter(cmd).line("Removed source %s", src.Name)
				return nil
			})
		},
	}
}

func newSourceToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <source>",
		Short: "Enable or disable a source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				src, err := resolveSource(a.lib.Sources.Sources(), args[0])
				if err != nil {
					return err
				}
				if err := a.lib.Sources.ToggleActive(ctx, src.ID); err != nil {
					return err
				}
				state := "enabled"
				if src.IsActive {
					state = "disabled"
				}
				newPrinter(cmd).line("%s %s", src.Name, state)
				return nil
			})
		},
	}
}

func newSourceCategoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories <source>",
		Short: "List a source's categories, optionally fuzzy-matched",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			match, _ := cmd.Flags().GetString("match")
			return withApp(cmd, func(ctx context.Context, a *app) error {
				src, err := resolveSource(a.lib.Sources.Sources(), args[0])
				if err != nil {
					return err
				}
				categories := src.Categories
				if match != "" {
					categories = search.MatchCategories(match, categories)
				}
				p := newPrinter(cmd)
				if p.isJSON() {
					return p.json(categories)
				}
				for _, c := range categories {
					p.line("%s", c)
				}
				return nil
			})
		},
	}
	cmd.Flags().String("match", "", "fuzzy filter")
	return cmd
}

// sourceFlagValue resolves the optional --source flag to a source id.
func sourceFlagValue(cmd *cobra.Command, a *app) (string, error) {
	ref, _ := cmd.Flags().GetString("source")
	if ref == "" {
		return "", nil
	}
	src, err := resolveSource(a.lib.Sources.Sources(), ref)
	if err != nil {
		return "", err
	}
	return src.ID, nil
}
