// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bello-app/bellod/internal/api"
	"github.com/bello-app/bellod/internal/config"
	"github.com/bello-app/bellod/internal/journal"
	xglog "github.com/bello-app/bellod/internal/log"
	"github.com/bello-app/bellod/internal/recap"
)

var (
	version   = "v0.3.0"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// The logger is configured exactly once; read the level from the
	// environment directly since config loading itself logs.
	xglog.Configure(xglog.Config{
		Level:   os.Getenv("BELLO_LOG_LEVEL"),
		Service: "bellod",
	})
	logger := xglog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Auto-load ${BELLO_DATA_DIR}/config.yaml when no explicit path is given.
	effectiveConfigPath := *configPath
	if effectiveConfigPath == "" {
		autoPath := filepath.Join(config.Defaults().DataDir, "config.yaml")
		if _, err := os.Stat(autoPath); err == nil {
			effectiveConfigPath = autoPath
		}
	}

	cfg, err := config.NewLoader(effectiveConfigPath).Load()
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "config.load_failed").
			Str("config_path", effectiveConfigPath).
			Msg("failed to load configuration")
	}

	logger.Info().
		Str("event", "daemon.start").
		Str("version", version).
		Str("data_dir", cfg.DataDir).
		Str("listen", cfg.Listen).
		Msg("starting bellod")

	storage := journal.New(cfg.DataDir)
	storage.Initialize(ctx)

	recaps := recap.NewGenerator(storage)

	// The recap check runs to completion before the daemon reports ready;
	// a stalled check delays readiness rather than being time-boxed.
	recaps.CheckAndGenerateRecaps(ctx)

	server := &http.Server{
		Addr:              cfg.Listen,
		Handler:           api.New(cfg, storage, recaps).Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("event", "http.listen").Str("addr", cfg.Listen).Msg("serving API")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if cfg.Watch {
		g.Go(func() error {
			watcher := journal.NewWatcher(storage)
			if err := watcher.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("videos watcher: %w", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Str("event", "daemon.failed").Msg("daemon exited with error")
	}
	logger.Info().Str("event", "daemon.stopped").Msg("bellod stopped")
}
