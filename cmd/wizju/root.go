package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mmcdole/wizju/internal/config"
	"github.com/mmcdole/wizju/internal/favorites"
	"github.com/mmcdole/wizju/internal/library"
	"github.com/mmcdole/wizju/internal/logging"
	"github.com/mmcdole/wizju/internal/media"
	"github.com/mmcdole/wizju/internal/player"
	"github.com/mmcdole/wizju/internal/playlist"
	"github.com/mmcdole/wizju/internal/recent"
	"github.com/mmcdole/wizju/internal/sources"
	"github.com/mmcdole/wizju/internal/store"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "wizju",
		Short:         "IPTV and M3U playlist manager",
		Long:          "Import IPTV and M3U playlists, browse their live channels, films and series, and hand streams to a media player.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("config", "", "config file (default: search the config dir and working dir)")
	root.PersistentFlags().Bool("memory", false, "keep everything in memory for this run")
	root.PersistentFlags().StringP("output", "o", "table", "output format: table or json")

	root.AddCommand(
		newSourceCmd(),
		newImportCmd(),
		newRefreshCmd(),
		newItemsCmd(),
		newSearchCmd(),
		newPlayCmd(),
		newFavoritesCmd(),
		newRecentCmd(),
		newUsageCmd(),
		newClearCmd(),
		newBrowseCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "wizju %s\n", Version)
		},
	}
}

// newPlayer builds the stream launcher; tests swap it for a fake.
var newPlayer = func(cfg config.PlayerConfig, logger *slog.Logger) library.Player {
	return player.NewLauncher(cfg.Command, cfg.Args, cfg.StartFlag, logger)
}

// app is everything a command needs, opened from the persistent flags.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	lib     *library.Service
	closers []io.Closer
}

// openApp loads config, sets up logging, opens the store and loads the library.
func openApp(cmd *cobra.Command) (*app, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	memory, _ := cmd.Flags().GetBool("memory")

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	a := &app{cfg: cfg}

	logger, logFile, err := logging.SetupLogger(cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = logging.NullLogger()
	} else {
		a.closers = append(a.closers, logFile)
	}
	a.logger = logger

	path := cfg.Storage.Path
	if memory {
		path = ""
	}
	backend, err := store.Open(path)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	a.closers = append(a.closers, backend)

	fetcher := playlist.NewFetcher(cfg.Playlist.FetchTimeout, cfg.Playlist.UserAgent, logger)
	a.lib = library.NewService(library.Deps{
		Sources:   sources.NewRegistry(backend, cfg.Storage.LimitBytes, logger),
		Media:     media.NewRegistry(backend, cfg.Storage.LimitBytes, logger),
		Favorites: favorites.NewService(backend, logger),
		Recent:    recent.NewService(backend, logger),
		Loader:    playlist.NewService(fetcher, nil, logger),
		Player:    newPlayer(cfg.Player, logger),
	}, logger)

	a.lib.Load(commandContext(cmd))
	logger.Debug("opened library", "command", cmd.CommandPath(), "memory", memory)
	return a, nil
}

// Close releases the store and the log file, most recent first.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// withApp runs fn against an opened app and closes it afterwards.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	runErr := fn(commandContext(cmd), a)
	return errors.Join(runErr, a.Close())
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
