// Package main provides the focusd daemon entry point.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/avelkov/focusd/internal/config"
	"github.com/avelkov/focusd/internal/db/sqlite"
	"github.com/avelkov/focusd/internal/watcher"
	"github.com/avelkov/focusd/internal/worker"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	port := flag.Int("port", 0, "HTTP port (default: settings file, then 7312)")
	dbPath := flag.String("db", "", "SQLite database path (default: ~/.focusd/focusd.db)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true})

	// Ensure the data directory and settings file exist
	if err := config.EnsureAll(); err != nil {
		log.Fatal().Err(err).Msg("Failed to prepare data directory")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load settings, using defaults")
		cfg = config.Default()
	}
	config.Set(cfg)

	if *port == 0 {
		*port = cfg.Port
	}

	path := *dbPath
	if path == "" {
		path = config.DBPath()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info().Msg("Shutting down focusd")
		cancel()
	}()

	// Open the store; migrations run automatically
	store, err := sqlite.NewStore(sqlite.StoreConfig{
		Path:     path,
		MaxConns: cfg.MaxConns,
		WALMode:  true,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer store.Close()

	svc, err := worker.New(Version, store)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create service")
	}

	// Live-reload settings edited outside the API. A running session keeps
	// its snapshot; the new values apply from the next session.
	settingsWatcher, err := watcher.New(config.SettingsPath(), func() {
		// A deleted settings file is rewritten with defaults.
		if err := config.EnsureSettings(); err != nil {
			log.Warn().Err(err).Msg("Failed to restore settings file")
		}
		if _, err := config.Reload(); err != nil {
			log.Warn().Err(err).Msg("Failed to reload settings")
			return
		}
		log.Info().Msg("Settings reloaded")
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create settings watcher")
	} else {
		if err := settingsWatcher.Start(); err != nil {
			log.Warn().Err(err).Msg("Failed to start settings watcher")
		} else {
			defer settingsWatcher.Stop()
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return svc.Run(gctx, *port)
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("focusd exited with error")
	}
	log.Info().Msg("focusd stopped")
}
