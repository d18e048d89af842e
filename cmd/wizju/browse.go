package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/mmcdole/wizju/internal/config"
	"github.com/mmcdole/wizju/internal/navigation"
	"github.com/mmcdole/wizju/internal/tui"
)

func newBrowseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Open the interactive browser",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isTerminal(os.Stdout) {
				return errors.New("browse needs an interactive terminal")
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				viewName, _ := cmd.Flags().GetString("view")
				if viewName == "" {
					viewName = a.cfg.UI.DefaultView
				}
				start, err := navigation.ParseView(viewName)
				if err != nil {
					a.logger.Warn("ignoring configured view", "view", viewName, "error", err)
				}

				model := tui.NewModel(a.lib).WithStartView(start)
				p := tea.NewProgram(
					model,
					tea.WithAltScreen(),
					tea.WithContext(ctx),
				)

				a.logger.Info("starting TUI")
				if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
					a.logger.Error("TUI error", "error", err)
					return fmt.Errorf("TUI error: %w", err)
				}
				a.logger.Info("shutting down")
				return nil
			})
		},
	}
	cmd.Flags().String("view", "", "start view: home, live, films or series (default from config)")
	return cmd
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or write the configuration file",
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultConfigPath()
			if len(args) == 1 {
				path = args[0]
			}
			force, _ := cmd.Flags().GetBool("force")
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.SaveConfig(config.DefaultConfig(), path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Configuration written to %s\n", path)
			return nil
		},
	}
	initCmd.Flags().Bool("force", false, "overwrite an existing file")

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			p := newPrinter(cmd)
			if p.isJSON() {
				return p.json(cfg)
			}
			p.kv([][2]string{
				{"storage.path", cfg.Storage.Path},
				{"storage.limit_bytes", fmt.Sprint(cfg.Storage.LimitBytes)},
				{"playlist.fetch_timeout", cfg.Playlist.FetchTimeout.String()},
				{"playlist.user_agent", cfg.Playlist.UserAgent},
				{"player.command", cfg.Player.Command},
				{"player.start_flag", cfg.Player.StartFlag},
				{"ui.default_view", cfg.UI.DefaultView},
				{"logging.file", cfg.Logging.File},
				{"logging.level", cfg.Logging.Level},
			})
			return nil
		},
	}

	cmd.AddCommand(initCmd, show)
	return cmd
}

func defaultConfigPath() string {
	return filepath.Join(config.DefaultConfigDir(), "config.yaml")
}
